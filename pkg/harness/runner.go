package harness

import (
	"context"
	"fmt"
	"math/rand"
	"path/filepath"
	"time"

	apperrors "github.com/paiban/nrp/pkg/errors"
	"github.com/paiban/nrp/pkg/instance"
	"github.com/paiban/nrp/pkg/logger"
	"github.com/paiban/nrp/pkg/model"
	"github.com/paiban/nrp/pkg/scheduler/solver"
	"github.com/paiban/nrp/pkg/validator"
)

// Observer 运行指标观察者
type Observer interface {
	RunStarted()
	RunFinished(status string, duration time.Duration)
	WeekSolved(instance string, objective float64, duration time.Duration, iterations int64)
}

// RecordStore 持久化每周记录
type RecordStore interface {
	SaveRecord(ctx context.Context, r *Record) error
}

// Runner 执行单周运行以及按周串联的整个实例
type Runner struct {
	Solver    solver.Config
	NewSearch func() solver.MoveSearch

	// 以下均可为空
	Log      *RunLog
	Store    RecordStore
	Observer Observer
}

// NewRunner 创建运行器
func NewRunner(cfg solver.Config, newSearch func() solver.MoveSearch) (*Runner, error) {
	if newSearch == nil {
		return nil, apperrors.InvalidInput("search", "未指定搜索算法")
	}
	if err := cfg.Penalty.Validate(); err != nil {
		return nil, err
	}
	return &Runner{Solver: cfg, NewSearch: newSearch}, nil
}

// WeekOutcome 单周运行结果
type WeekOutcome struct {
	Record      *Record
	NextHistory model.HistoryInfo
	Check       *validator.Report
}

// RunWeek 单周运行入口：读取描述中的文件，求解并写出解、下一周历史与运行状态
func (r *Runner) RunWeek(ctx context.Context, desc *RunDescriptor) (*WeekOutcome, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	if _, ok := logger.RunIDFromContext(ctx); !ok {
		ctx = logger.ContextWithRunID(ctx, desc.ID)
	}
	log := logger.WithContext(ctx)

	rs, err := instance.LoadScenario(desc.ScenarioPath)
	if err != nil {
		return nil, err
	}
	rw, err := instance.LoadWeekdata(desc.WeekdataPath)
	if err != nil {
		return nil, err
	}
	rh, err := instance.LoadHistory(desc.HistoryPath)
	if err != nil {
		return nil, err
	}
	in, err := instance.Compile(rs, rw, rh)
	if err != nil {
		return nil, err
	}

	state := &CustomState{RunID: desc.ID}
	if desc.CustomInPath != "" {
		if err := instance.ReadJSON(desc.CustomInPath, state); err != nil {
			return nil, err
		}
	}

	cfg := r.Solver
	if desc.Timeout > 0 {
		cfg.Timeout = desc.TimeoutDuration()
	}
	if desc.MaxIterations > 0 {
		cfg.MaxIterations = desc.MaxIterations
	}

	s, err := solver.NewSolver(in, cfg, rand.New(rand.NewSource(desc.RandSeed)), r.NewSearch())
	if err != nil {
		return nil, err
	}
	runID, _ := logger.RunIDFromContext(ctx)
	s.SetLogger(logger.NewSolverLogger(runID))
	s.Init()
	if err := s.Solve(ctx); err != nil {
		return nil, err
	}

	out := s.Output()
	next := s.NextHistory()
	if err := instance.WriteJSON(desc.SolutionPath, instance.EncodeSolution(in, out)); err != nil {
		return nil, err
	}
	if desc.NextHistory != "" {
		if err := instance.WriteJSON(desc.NextHistory, instance.EncodeHistory(in, &next)); err != nil {
			return nil, err
		}
	}

	checker, err := validator.NewChecker(cfg.Penalty, cfg.SuppressEarlyMinShift)
	if err != nil {
		return nil, err
	}
	check, err := checker.Check(in, out, 0)
	if err != nil {
		return nil, err
	}

	rec := &Record{
		Time:        time.Now(),
		ID:          desc.ID,
		Instance:    desc.Instance,
		Config:      desc.Config,
		Week:        desc.Week,
		RandSeed:    desc.RandSeed,
		GenCount:    s.GenCount(),
		IterCount:   s.IterCount(),
		Duration:    s.Duration(),
		Feasible:    s.Feasible(),
		CheckObj:    check.Objective,
		ObjValue:    model.Report(out.ObjValue),
		AccObjValue: model.Report(next.AccObjValue),
		Solution:    desc.SolutionPath,
	}

	if desc.CustomOutPath != "" {
		state.Weeks = append(state.Weeks, WeekSummary{
			Week:      desc.Week,
			RandSeed:  desc.RandSeed,
			ObjValue:  rec.ObjValue,
			Feasible:  rec.Feasible,
			GenCount:  rec.GenCount,
			IterCount: rec.IterCount,
		})
		if err := instance.WriteJSON(desc.CustomOutPath, state); err != nil {
			return nil, err
		}
	}

	if r.Log != nil {
		if err := r.Log.Append(rec); err != nil {
			return nil, fmt.Errorf("写入运行日志失败: %w", err)
		}
	}
	if r.Store != nil {
		if err := r.Store.SaveRecord(ctx, rec); err != nil {
			log.Warn().Err(err).Int("week", desc.Week).Msg("保存运行记录失败")
		}
	}
	if r.Observer != nil {
		r.Observer.WeekSolved(desc.Instance, rec.ObjValue, rec.Duration, rec.IterCount)
	}

	return &WeekOutcome{Record: rec, NextHistory: next, Check: check}, nil
}

// RunResult 一次完整运行的结果
type RunResult struct {
	RunID       string
	Instance    string
	Round       int
	Weeks       int
	AccObjValue float64
	Feasible    bool
	Duration    time.Duration
	Err         error
}

// RunInstance 按周串联单周运行，上一周写出的历史与运行状态作为下一周的输入
// 每周的随机种子由 seed 派生
func (r *Runner) RunInstance(ctx context.Context, m *Mission, job Job, runID string, seed int64) (*RunResult, error) {
	spec := job.Instance
	result := &RunResult{RunID: runID, Instance: spec.String(), Round: job.Round, Feasible: true}
	start := time.Now()
	defer func() { result.Duration = time.Since(start) }()

	rng := rand.New(rand.NewSource(seed))
	dir := filepath.Join(m.OutputDir, runID)
	history := instance.HistoryPath(m.InstanceDir, spec.Scenario, spec.InitHistory)
	custom := ""

	for i, wd := range spec.Weeks {
		desc := &RunDescriptor{
			ID:            runID,
			Instance:      spec.String(),
			Config:        m.Config,
			Week:          i,
			ScenarioPath:  instance.ScenarioPath(m.InstanceDir, spec.Scenario),
			WeekdataPath:  instance.WeekdataPath(m.InstanceDir, spec.Scenario, wd),
			HistoryPath:   history,
			CustomInPath:  custom,
			SolutionPath:  filepath.Join(dir, fmt.Sprintf("sol-week%d.json", i)),
			NextHistory:   filepath.Join(dir, fmt.Sprintf("history-week%d.json", i+1)),
			CustomOutPath: filepath.Join(dir, fmt.Sprintf("custom-week%d.json", i)),
			RandSeed:      rng.Int63(),
			MaxIterations: m.MaxIterations,
			Timeout:       m.Timeouts[spec.NurseNum],
		}
		if err := desc.Save(filepath.Join(dir, fmt.Sprintf("run-week%d.json", i))); err != nil {
			result.Err = err
			return result, err
		}

		logger.WithContext(ctx).Debug().Str("instance", spec.String()).Int("week", i).Int64("seed", desc.RandSeed).Msg("开始单周运行")
		outcome, err := r.RunWeek(ctx, desc)
		if err != nil {
			err = fmt.Errorf("第 %d 周: %w", i, err)
			result.Err = err
			return result, err
		}

		result.Weeks++
		result.AccObjValue = outcome.Record.AccObjValue
		result.Feasible = result.Feasible && outcome.Record.Feasible
		history, custom = desc.NextHistory, desc.CustomOutPath

		if outcome.NextHistory.RestWeekCount <= 0 {
			break
		}
		if err := ctx.Err(); err != nil {
			result.Err = err
			return result, err
		}
	}
	return result, nil
}
