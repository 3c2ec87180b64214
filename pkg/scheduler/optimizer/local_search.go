package optimizer

import (
	"context"
	"math"
	"sync"

	"github.com/paiban/nrp/pkg/logger"
	"github.com/paiban/nrp/pkg/model"
	"github.com/paiban/nrp/pkg/scheduler/solver"
)

// OptimizationConfig 优化配置，时间与迭代预算由 SearchContext 提供
type OptimizationConfig struct {
	InitialTemp      float64 `json:"initial_temp" koanf:"initial_temp"`           // 模拟退火初始温度（以报告单位计）
	CoolingRate      float64 `json:"cooling_rate" koanf:"cooling_rate"`           // 冷却速率
	TabuSize         int     `json:"tabu_size" koanf:"tabu_size"`                 // 禁忌表大小
	NeighborhoodSize int     `json:"neighborhood_size" koanf:"neighborhood_size"` // 每次迭代生成的邻域大小
	ParallelWorkers  int     `json:"parallel_workers" koanf:"parallel_workers"`   // 并行评估数，小于 2 时串行
	StopOnPlateau    bool    `json:"stop_on_plateau" koanf:"stop_on_plateau"`     // 平台期停止，否则重新构造
	PlateauThreshold int     `json:"plateau_threshold" koanf:"plateau_threshold"` // 平台期阈值（无改进迭代次数）
}

// DefaultOptConfig 默认优化配置
func DefaultOptConfig() *OptimizationConfig {
	return &OptimizationConfig{
		InitialTemp:      10.0,
		CoolingRate:      0.995,
		TabuSize:         50,
		NeighborhoodSize: 20,
		ParallelWorkers:  1,
		StopOnPlateau:    false,
		PlateauThreshold: 500,
	}
}

// LocalSearchOptimizer 局部搜索优化器
// 贪心构造初始解，之后每次迭代评估一批随机邻域移动，
// 改进的移动总是接受，变差的移动不在禁忌表中时按模拟退火概率接受
type LocalSearchOptimizer struct {
	config    *OptimizationConfig
	greedy    *GreedySolver
	evaluator *ParallelEvaluator
}

// NewLocalSearchOptimizer 创建局部搜索优化器
func NewLocalSearchOptimizer(config *OptimizationConfig) *LocalSearchOptimizer {
	if config == nil {
		config = DefaultOptConfig()
	}
	o := &LocalSearchOptimizer{
		config: config,
		greedy: NewGreedySolver(),
	}
	if config.ParallelWorkers > 1 {
		o.evaluator = NewParallelEvaluator(config.ParallelWorkers)
	}
	return o
}

// bestAllowedMove 在未被禁止的移动中选变化量最小的，全部被禁止时返回 -1
func bestAllowedMove(deltas []model.ObjValue) int {
	return FindBest(deltas, func(i int) bool { return model.IsForbidden(deltas[i]) })
}

// Name 返回求解器名称
func (o *LocalSearchOptimizer) Name() string {
	return "local_search"
}

// Search 执行局部搜索，每个被接受的移动都提交给跟踪器
func (o *LocalSearchOptimizer) Search(ctx context.Context, sc *solver.SearchContext) error {
	if !sc.Next(ctx) {
		return ctx.Err()
	}

	gen := NewNeighborhoodGenerator(sc.Input, sc.Rand)
	tabu := NewTabuList(o.config.TabuSize)

	current := o.greedy.Construct(sc)
	sc.Submit(current)
	bestObj := current.ObjValue
	initialObj := bestObj

	temperature := o.config.InitialTemp
	noImprovementCount := 0
	restarts := 0

	for sc.Next(ctx) {
		moves := o.generateNeighbors(gen, current)
		if len(moves) == 0 {
			noImprovementCount++
			continue
		}

		var deltas []model.ObjValue
		var err error
		repairing(sc, current, func() {
			deltas, err = o.evaluateNeighbors(ctx, sc, current, moves)
		})
		if err != nil {
			break
		}

		best := bestAllowedMove(deltas)
		if best < 0 {
			noImprovementCount++
			continue
		}
		mv, delta := moves[best], deltas[best]
		inTabu := tabu.Contains(mv.Key())

		// 模拟退火接受准则
		accept := false
		if delta < 0 {
			accept = true
		} else if !inTabu {
			prob := boltzmannProbability(model.Report(delta), temperature)
			accept = sc.Rand.Float64() < prob
		}

		if accept {
			mv.Apply(current)
			tabu.Add(mv.Key())
			sc.Submit(current)
			if current.ObjValue < bestObj {
				bestObj = current.ObjValue
				noImprovementCount = 0
			} else {
				noImprovementCount++
			}
		} else {
			noImprovementCount++
		}

		// 检查平台期
		if o.config.PlateauThreshold > 0 && noImprovementCount >= o.config.PlateauThreshold {
			if o.config.StopOnPlateau {
				logger.Debug().Int64("iteration", sc.Iterations()).Msg("达到平台期阈值，停止优化")
				break
			}
			current = o.greedy.Construct(sc)
			sc.Submit(current)
			tabu.Clear()
			temperature = o.config.InitialTemp
			noImprovementCount = 0
			restarts++
			continue
		}

		// 降温
		temperature *= o.config.CoolingRate
	}

	logger.Debug().
		Float64("initial", model.Report(initialObj)).
		Float64("final", model.Report(bestObj)).
		Int("restarts", restarts).
		Int64("iterations", sc.Iterations()).
		Msg("局部搜索优化完成")

	if err := ctx.Err(); err != nil {
		return err
	}
	return nil
}

// generateNeighbors 生成邻域移动，生成失败的尝试直接丢弃
func (o *LocalSearchOptimizer) generateNeighbors(gen *NeighborhoodGenerator, current *model.Output) []Move {
	moves := make([]Move, 0, o.config.NeighborhoodSize)
	for i := 0; i < o.config.NeighborhoodSize; i++ {
		if mv, ok := gen.Generate(current); ok {
			moves = append(moves, mv)
		}
	}
	return moves
}

// evaluateNeighbors 评估每个移动在其模式下的变化量
func (o *LocalSearchOptimizer) evaluateNeighbors(ctx context.Context, sc *solver.SearchContext, current *model.Output, moves []Move) ([]model.ObjValue, error) {
	if o.evaluator != nil {
		return o.evaluator.EvaluateBatch(ctx, sc, current, moves)
	}
	deltas := make([]model.ObjValue, len(moves))
	for i, mv := range moves {
		deltas[i] = evaluateMove(sc, current, mv)
	}
	return deltas, nil
}

// boltzmannProbability 计算模拟退火的接受概率
// delta: 能量差 (new - old)
// temperature: 当前温度
func boltzmannProbability(delta, temperature float64) float64 {
	if delta <= 0 {
		return 1.0 // 更优解总是接受
	}
	if temperature <= 0 {
		return 0.0 // 温度为0时不接受更差的解
	}
	return math.Exp(-delta / temperature)
}

// TabuList 禁忌表（使用uint64哈希作为键提高性能）
type TabuList struct {
	items   map[uint64]struct{}
	order   []uint64
	maxSize int
	mu      sync.RWMutex
}

// NewTabuList 创建禁忌表
func NewTabuList(size int) *TabuList {
	return &TabuList{
		items:   make(map[uint64]struct{}),
		order:   make([]uint64, 0, max(size, 0)),
		maxSize: size,
	}
}

// Add 添加到禁忌表
func (t *TabuList) Add(key uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.maxSize <= 0 {
		return
	}
	if _, exists := t.items[key]; exists {
		return
	}

	// 超出容量时移除最旧的
	if len(t.order) >= t.maxSize {
		oldest := t.order[0]
		t.order = t.order[1:]
		delete(t.items, oldest)
	}

	t.items[key] = struct{}{}
	t.order = append(t.order, key)
}

// Contains 检查是否在禁忌表中
func (t *TabuList) Contains(key uint64) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, exists := t.items[key]
	return exists
}

// Len 当前条目数
func (t *TabuList) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.order)
}

// Clear 清空禁忌表
func (t *TabuList) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.items = make(map[uint64]struct{})
	t.order = t.order[:0]
}
