// Package solver 提供滚动周期的单周求解协议
package solver

import (
	"context"
	"errors"
	"math/rand"
	"time"

	apperrors "github.com/paiban/nrp/pkg/errors"
	"github.com/paiban/nrp/pkg/logger"
	"github.com/paiban/nrp/pkg/model"
	"github.com/paiban/nrp/pkg/scheduler/constraint"
	"github.com/paiban/nrp/pkg/scheduler/constraint/builtin"
	"github.com/paiban/nrp/pkg/scheduler/penalty"
)

// Config 单周求解配置
type Config struct {
	// Timeout 单周时间预算，0 表示只受迭代上限约束
	Timeout time.Duration `json:"timeout"`

	// MaxIterations 迭代上限，0 表示不限
	MaxIterations int64 `json:"max_iterations"`

	// SuppressEarlyMinShift 早期各周不对剩余周可以补足的最少班次缺口计价
	SuppressEarlyMinShift bool `json:"suppress_early_min_shift"`

	// UseSecondary 平局时先比较次目标 WorkloadSpread，次目标也相等时随机替换
	UseSecondary bool `json:"use_secondary"`

	Penalty penalty.Config `json:"penalty"`
}

// DefaultConfig 返回默认求解配置
func DefaultConfig() Config {
	return Config{
		Timeout:               10 * time.Second,
		SuppressEarlyMinShift: true,
		Penalty:               penalty.DefaultConfig(),
	}
}

// Validate 校验配置
// 时间预算与迭代上限至少要有一个，否则搜索不会停止
func (c Config) Validate() error {
	if c.Timeout < 0 {
		return apperrors.InvalidInput("timeout", "不能为负")
	}
	if c.MaxIterations < 0 {
		return apperrors.InvalidInput("max_iterations", "不能为负")
	}
	if c.Timeout == 0 && c.MaxIterations == 0 {
		return apperrors.InvalidInput("timeout", "时间预算与迭代上限不能同时为零")
	}
	return c.Penalty.Validate()
}

// MoveSearch 单周搜索算法
// 实现通过 SearchContext.Submit 提交候选解，并用 SearchContext.Next 控制循环
type MoveSearch interface {
	Name() string
	Search(ctx context.Context, sc *SearchContext) error
}

// Solver 单周求解器，每个实例只服务一次运行中的一周
type Solver struct {
	input     *model.Input
	cfg       Config
	rng       *rand.Rand
	search    MoveSearch
	projector HistoryProjector
	manager   *constraint.Manager

	engine    *penalty.Engine // 搜索使用，可压入模式
	objEngine *penalty.Engine // 始终为默认权重
	budget    *constraint.Budget
	tracker   *Tracker
	log       *logger.SolverLogger

	start      time.Time
	duration   time.Duration
	iterations int64
	ready      bool
}

// NewSolver 创建单周求解器
func NewSolver(in *model.Input, cfg Config, rng *rand.Rand, search MoveSearch) (*Solver, error) {
	if in == nil || search == nil || rng == nil {
		return nil, apperrors.InvalidInput("solver", "输入、随机源与搜索算法不能为空")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	engine, err := penalty.NewEngine(cfg.Penalty)
	if err != nil {
		return nil, err
	}
	objEngine, err := penalty.NewEngine(cfg.Penalty)
	if err != nil {
		return nil, err
	}

	return &Solver{
		input:     in,
		cfg:       cfg,
		rng:       rng,
		search:    search,
		projector: WeeklyHistoryProjector{},
		manager:   builtin.NewManager(),
		engine:    engine,
		objEngine: objEngine,
		log:       logger.NewSolverLogger(""),
	}, nil
}

// SetProjector 替换历史推导方式
func (s *Solver) SetProjector(p HistoryProjector) { s.projector = p }

// SetLogger 绑定带运行编号的日志器
func (s *Solver) SetLogger(l *logger.SolverLogger) { s.log = l }

// Init 计算剩余额度并清空跟踪器
func (s *Solver) Init() {
	s.budget = constraint.NewBudget(s.input, s.cfg.SuppressEarlyMinShift)
	s.tracker = NewTracker(s.rng, s.cfg.UseSecondary)
	s.engine.Reset()
	s.iterations = 0
	s.ready = true
}

// Solve 在时间预算与迭代上限内搜索，保留最优候选
// 找不到可行解不是错误，最优的不可行解照样作为结果
func (s *Solver) Solve(ctx context.Context) error {
	if !s.ready {
		s.Init()
	}

	s.start = time.Now()
	s.log.StartWeek(s.input.Names.ScenarioName, s.input.History.CurrentWeek, s.input.NurseNum(), s.cfg.Timeout)

	searchCtx := ctx
	var deadline time.Time
	if s.cfg.Timeout > 0 {
		deadline = s.start.Add(s.cfg.Timeout)
		var cancel context.CancelFunc
		searchCtx, cancel = context.WithDeadline(ctx, deadline)
		defer cancel()
	}

	sc := &SearchContext{
		Input:         s.input,
		Budget:        s.budget,
		Penalty:       s.engine,
		Manager:       s.manager,
		Rand:          s.rng,
		Deadline:      deadline,
		MaxIterations: s.cfg.MaxIterations,
		solver:        s,
	}

	err := s.search.Search(searchCtx, sc)
	if s.engine.Depth() != 0 {
		logger.Warn().Str("search", s.search.Name()).Int("depth", s.engine.Depth()).Msg("搜索结束时惩罚模式未恢复")
		s.engine.Reset()
	}
	if s.tracker.Best() == nil {
		sc.Submit(model.NewOutput(s.input.NurseNum()))
	}
	s.duration = time.Since(s.start)

	if err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
		return apperrors.Wrap(err, apperrors.CodeInternal, "搜索失败")
	}

	best := s.tracker.Best()
	s.log.WeekComplete(
		s.input.History.CurrentWeek, s.duration,
		model.Report(best.ObjValue), model.Report(s.input.History.AccObjValue+best.ObjValue),
		!model.IsForbidden(best.ObjValue),
	)
	return nil
}

// Output 返回最优方案
func (s *Solver) Output() *model.Output {
	if s.tracker == nil {
		return nil
	}
	return s.tracker.Best()
}

// Feasible 最优方案是否满足全部硬约束
func (s *Solver) Feasible() bool {
	out := s.Output()
	return out != nil && !model.IsForbidden(out.ObjValue)
}

// NextHistory 推导下一周的历史
func (s *Solver) NextHistory() model.HistoryInfo {
	return s.projector.Project(s.input, s.Output())
}

// Check 以默认权重重新评估最优方案
func (s *Solver) Check() *constraint.Result {
	ctx := constraint.NewContext(s.input, s.Output(), s.objEngine, s.budget)
	ctx.CollectDetails = true
	return s.manager.Evaluate(ctx)
}

// Budget 返回剩余额度
func (s *Solver) Budget() *constraint.Budget { return s.budget }

// GenCount 最优解更新次数
func (s *Solver) GenCount() int {
	if s.tracker == nil {
		return 0
	}
	return s.tracker.GenCount()
}

// IterCount 已执行的迭代次数
func (s *Solver) IterCount() int64 { return s.iterations }

// Duration 本周求解耗时
func (s *Solver) Duration() time.Duration { return s.duration }

// SearchContext 搜索算法可见的求解状态
type SearchContext struct {
	Input         *model.Input
	Budget        *constraint.Budget
	Penalty       *penalty.Engine
	Manager       *constraint.Manager
	Rand          *rand.Rand
	Deadline      time.Time
	MaxIterations int64

	solver *Solver
}

// NewEvalContext 创建使用当前惩罚模式的评估上下文
func (sc *SearchContext) NewEvalContext(out *model.Output) *constraint.Context {
	return constraint.NewContext(sc.Input, out, sc.Penalty, sc.Budget)
}

// Next 计入一次迭代，预算用完或上下文结束时返回 false
func (sc *SearchContext) Next(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}
	if sc.MaxIterations > 0 && sc.solver.iterations >= sc.MaxIterations {
		return false
	}
	if !sc.Deadline.IsZero() && !time.Now().Before(sc.Deadline) {
		return false
	}
	sc.solver.iterations++
	return true
}

// Iterations 已执行的迭代次数
func (sc *SearchContext) Iterations() int64 { return sc.solver.iterations }

// Submit 以默认权重为候选解打分并交给跟踪器
// 会写入 out.ObjValue、out.FindTime，启用次目标时还写入 out.SecondaryObjValue
// 成为新的最优解时返回 true
func (sc *SearchContext) Submit(out *model.Output) bool {
	s := sc.solver
	ctx := constraint.NewContext(sc.Input, out, s.objEngine, sc.Budget)
	out.ObjValue = s.manager.Objective(ctx)
	if s.cfg.UseSecondary {
		out.SecondaryObjValue = WorkloadSpread(out)
	}
	out.FindTime = time.Since(s.start)

	accepted := s.tracker.Consider(out)
	if accepted {
		s.log.NewBest(s.iterations, model.Report(out.ObjValue), !model.IsForbidden(out.ObjValue))
	}
	return accepted
}

// Best 当前最优解，尚无候选时为 nil
func (sc *SearchContext) Best() *model.Output { return sc.solver.tracker.Best() }
