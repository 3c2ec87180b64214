package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/paiban/nrp/pkg/errors"
	"github.com/paiban/nrp/pkg/harness"
)

// RunRepository 运行记录仓储，每个已求解的周一行，实现 harness.RecordStore
type RunRepository struct {
	db DB
}

// NewRunRepository 创建运行记录仓储
func NewRunRepository(db DB) *RunRepository {
	return &RunRepository{db: db}
}

const recordColumns = `id, run_id, instance, config, week, rand_seed, gen_count, iter_count,
	duration_ms, feasible, check_obj, obj_value, acc_obj_value, solution, recorded_at`

// SaveRecord 保存一周的运行记录
func (r *RunRepository) SaveRecord(ctx context.Context, rec *harness.Record) error {
	recorded := rec.Time
	if recorded.IsZero() {
		recorded = time.Now()
	}

	query := r.db.Rebind(`INSERT INTO run_records (` + recordColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := r.db.ExecContext(ctx, query,
		uuid.NewString(), rec.ID, rec.Instance, rec.Config, rec.Week, rec.RandSeed,
		rec.GenCount, rec.IterCount, rec.Duration.Milliseconds(), rec.Feasible,
		rec.CheckObj, rec.ObjValue, rec.AccObjValue, rec.Solution, recorded.UnixNano(),
	)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeDatabaseError, "保存运行记录失败").
			WithField("run_id", rec.ID)
	}
	return nil
}

// List 按过滤条件查询，返回记录与总数
func (r *RunRepository) List(ctx context.Context, filter ListFilter) ([]*harness.Record, int, error) {
	var where []string
	var args []interface{}
	if filter.RunID != "" {
		where = append(where, "run_id = ?")
		args = append(args, filter.RunID)
	}
	if filter.Instance != "" {
		where = append(where, "instance = ?")
		args = append(args, filter.Instance)
	}
	if filter.Config != "" {
		where = append(where, "config = ?")
		args = append(args, filter.Config)
	}
	if filter.Feasible != nil {
		where = append(where, "feasible = ?")
		args = append(args, *filter.Feasible)
	}
	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	countQuery := r.db.Rebind("SELECT COUNT(*) FROM run_records" + cond)
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, apperrors.Wrap(err, apperrors.CodeDatabaseError, "统计运行记录失败")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultListFilter().Limit
	}
	query := r.db.Rebind(fmt.Sprintf(
		"SELECT %s FROM run_records%s ORDER BY recorded_at, run_id, week LIMIT %d OFFSET %d",
		recordColumns, cond, limit, filter.Offset))
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, apperrors.Wrap(err, apperrors.CodeDatabaseError, "查询运行记录失败")
	}
	defer rows.Close()

	var records []*harness.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, 0, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperrors.Wrap(err, apperrors.CodeDatabaseError, "读取运行记录失败")
	}
	return records, total, nil
}

// ListByRun 一次运行的全部周，按周排序
func (r *RunRepository) ListByRun(ctx context.Context, runID string) ([]*harness.Record, error) {
	records, _, err := r.List(ctx, DefaultListFilter().WithRunID(runID).WithLimit(1000))
	return records, err
}

// InstanceStat 单个实例的运行记录统计
type InstanceStat struct {
	Instance    string  `json:"instance"`
	Weeks       int     `json:"weeks"`
	Feasible    int     `json:"feasible"`
	BestAccObj  float64 `json:"best_acc_obj"`
	TotalMillis int64   `json:"total_millis"`
}

// StatsByInstance 按实例聚合每周记录
func (r *RunRepository) StatsByInstance(ctx context.Context) ([]InstanceStat, error) {
	query := `SELECT instance, COUNT(*),
		SUM(CASE WHEN feasible THEN 1 ELSE 0 END),
		MIN(acc_obj_value), SUM(duration_ms)
		FROM run_records GROUP BY instance ORDER BY instance`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "统计运行记录失败")
	}
	defer rows.Close()

	var stats []InstanceStat
	for rows.Next() {
		var s InstanceStat
		if err := rows.Scan(&s.Instance, &s.Weeks, &s.Feasible, &s.BestAccObj, &s.TotalMillis); err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "读取统计失败")
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

func scanRecord(row Scanner) (*harness.Record, error) {
	var (
		rec        harness.Record
		id         string
		durationMs int64
		recorded   int64
	)
	if err := row.Scan(
		&id, &rec.ID, &rec.Instance, &rec.Config, &rec.Week, &rec.RandSeed, &rec.GenCount,
		&rec.IterCount, &durationMs, &rec.Feasible, &rec.CheckObj, &rec.ObjValue,
		&rec.AccObjValue, &rec.Solution, &recorded,
	); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "读取运行记录失败")
	}
	rec.Duration = time.Duration(durationMs) * time.Millisecond
	rec.Time = time.Unix(0, recorded)
	return &rec, nil
}
