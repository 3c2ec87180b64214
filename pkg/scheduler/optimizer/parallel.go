package optimizer

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/paiban/nrp/pkg/model"
	"github.com/paiban/nrp/pkg/scheduler/penalty"
	"github.com/paiban/nrp/pkg/scheduler/solver"
)

// ParallelEvaluator 并行评估一批移动
// 同一模式的移动共用一次 PushMode，评估期间不修改惩罚引擎，
// 每个协程使用独立的评估上下文
type ParallelEvaluator struct {
	workers int
}

// NewParallelEvaluator 创建并行评估器
func NewParallelEvaluator(workers int) *ParallelEvaluator {
	if workers <= 0 {
		workers = 4
	}
	return &ParallelEvaluator{workers: workers}
}

// Workers 返回并发数
func (p *ParallelEvaluator) Workers() int { return p.workers }

// EvaluateBatch 返回每个移动在其模式下的目标变化量
// 未评估到的移动（上下文取消）变化量为 ForbiddenMove
func (p *ParallelEvaluator) EvaluateBatch(ctx context.Context, sc *solver.SearchContext, current *model.Output, moves []Move) ([]model.ObjValue, error) {
	deltas := make([]model.ObjValue, len(moves))
	for i := range deltas {
		deltas[i] = model.ForbiddenMove
	}

	groups := make(map[MoveType][]int)
	for i, mv := range moves {
		groups[mv.Type] = append(groups[mv.Type], i)
	}

	for t := MoveChange; t <= MoveExchange; t++ {
		idx := groups[t]
		if len(idx) == 0 {
			continue
		}
		run := func() error { return p.evaluateGroup(ctx, sc, current, moves, idx, deltas) }

		var err error
		if mode, ok := moves[idx[0]].Mode(); ok {
			sc.Penalty.With(mode, func() { err = run() })
		} else {
			err = run()
		}
		if err != nil {
			return deltas, err
		}
	}
	return deltas, nil
}

func (p *ParallelEvaluator) evaluateGroup(ctx context.Context, sc *solver.SearchContext, current *model.Output, moves []Move, idx []int, deltas []model.ObjValue) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for _, i := range idx {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			evalCtx := sc.NewEvalContext(current)
			deltas[i], _ = sc.Manager.EvaluateMove(evalCtx, moves[i])
			return nil
		})
	}
	return g.Wait()
}

// FindBest 返回变化量最小的移动下标，skip 返回 true 的下标不参与比较
// 没有可选移动时返回 -1
func FindBest(deltas []model.ObjValue, skip func(i int) bool) int {
	best := -1
	for i, d := range deltas {
		if skip != nil && skip(i) {
			continue
		}
		if best < 0 || d < deltas[best] {
			best = i
		}
	}
	return best
}

// evaluateMove 在移动对应的模式下串行评估
func evaluateMove(sc *solver.SearchContext, current *model.Output, mv Move) model.ObjValue {
	var delta model.ObjValue
	eval := func() {
		delta, _ = sc.Manager.EvaluateMove(sc.NewEvalContext(current), mv)
	}
	if mode, ok := mv.Mode(); ok {
		sc.Penalty.With(mode, eval)
	} else {
		eval()
	}
	return delta
}

// repairing 当前方案不可行时在修复模式下评估
func repairing(sc *solver.SearchContext, current *model.Output, fn func()) {
	if model.IsForbidden(current.ObjValue) {
		sc.Penalty.With(penalty.ModeRepair, fn)
		return
	}
	fn()
}
