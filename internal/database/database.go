// Package database 提供数据库连接和管理
package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq" // PostgreSQL 驱动
	_ "modernc.org/sqlite" // SQLite 驱动

	"github.com/paiban/nrp/internal/config"
	apperrors "github.com/paiban/nrp/pkg/errors"
	"github.com/paiban/nrp/pkg/logger"
)

// 支持的驱动
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// DB 数据库连接封装
type DB struct {
	*sql.DB
	driver string
}

// New 创建新的数据库连接并建表
func New(ctx context.Context, cfg *config.DatabaseConfig) (*DB, error) {
	switch cfg.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return nil, apperrors.InvalidInput("driver", fmt.Sprintf("不支持的数据库驱动 %q", cfg.Driver))
	}

	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "打开数据库连接失败")
	}

	// 配置连接池
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	// 测试连接
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "数据库连接测试失败")
	}

	d := &DB{DB: db, driver: cfg.Driver}
	if err := d.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info().Str("driver", cfg.Driver).Msg("数据库连接成功")
	return d, nil
}

// Driver 驱动名称
func (db *DB) Driver() string { return db.driver }

// Migrate 在一个事务内创建运行记录表与索引
func (db *DB) Migrate(ctx context.Context) error {
	return db.Transaction(ctx, func(tx *sql.Tx) error {
		for _, stmt := range schema {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return apperrors.Wrap(err, apperrors.CodeDatabaseError, "创建表失败")
			}
		}
		return nil
	})
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS run_records (
		id            TEXT PRIMARY KEY,
		run_id        TEXT NOT NULL,
		instance      TEXT NOT NULL,
		config        TEXT NOT NULL,
		week          INTEGER NOT NULL,
		rand_seed     BIGINT NOT NULL,
		gen_count     INTEGER NOT NULL,
		iter_count    BIGINT NOT NULL,
		duration_ms   BIGINT NOT NULL,
		feasible      BOOLEAN NOT NULL,
		check_obj     DOUBLE PRECISION NOT NULL,
		obj_value     DOUBLE PRECISION NOT NULL,
		acc_obj_value DOUBLE PRECISION NOT NULL,
		solution      TEXT NOT NULL,
		recorded_at   BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_run_records_run ON run_records (run_id, week)`,
	`CREATE INDEX IF NOT EXISTS idx_run_records_instance ON run_records (instance)`,
}

// Rebind 把 ? 占位符转换为驱动使用的形式
func (db *DB) Rebind(query string) string {
	if db.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Close 关闭数据库连接
func (db *DB) Close() error {
	if db.DB != nil {
		logger.Info().Msg("关闭数据库连接")
		return db.DB.Close()
	}
	return nil
}

// Health 健康检查
func (db *DB) Health(ctx context.Context) error {
	return db.PingContext(ctx)
}

// Transaction 执行事务
func (db *DB) Transaction(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("开始事务失败: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("事务回滚失败: %v (原始错误: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("事务提交失败: %w", err)
	}
	return nil
}

// ExecContext 执行SQL语句，慢查询记录警告
func (db *DB) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	start := time.Now()
	result, err := db.DB.ExecContext(ctx, query, args...)
	logSlow(query, time.Since(start))
	return result, err
}

// QueryContext 执行查询
func (db *DB) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	start := time.Now()
	rows, err := db.DB.QueryContext(ctx, query, args...)
	logSlow(query, time.Since(start))
	return rows, err
}

// QueryRowContext 执行单行查询
func (db *DB) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return db.DB.QueryRowContext(ctx, query, args...)
}

func logSlow(query string, d time.Duration) {
	if d > 100*time.Millisecond {
		logger.Warn().
			Str("query", truncateQuery(query)).
			Dur("duration", d).
			Msg("慢SQL查询")
	}
}

// truncateQuery 截断长查询
func truncateQuery(query string) string {
	if len(query) > 200 {
		return query[:200] + "..."
	}
	return query
}
