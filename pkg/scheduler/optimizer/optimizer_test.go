package optimizer

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paiban/nrp/internal/testutil"
	"github.com/paiban/nrp/pkg/model"
	"github.com/paiban/nrp/pkg/scheduler/constraint"
	"github.com/paiban/nrp/pkg/scheduler/penalty"
	"github.com/paiban/nrp/pkg/scheduler/solver"
)

const (
	alice model.NurseID = 0
	bob   model.NurseID = 1
	carol model.NurseID = 2

	early model.ShiftID = 1
	late  model.ShiftID = 2
	night model.ShiftID = 3

	headNurse  model.SkillID = 1
	nurseSkill model.SkillID = 2
)

// hookSearch 在搜索上下文中执行任意检查
type hookSearch struct {
	fn func(ctx context.Context, sc *solver.SearchContext) error
}

func (hookSearch) Name() string { return "hook" }

func (p hookSearch) Search(ctx context.Context, sc *solver.SearchContext) error {
	return p.fn(ctx, sc)
}

func testConfig(iterations int64) solver.Config {
	cfg := solver.DefaultConfig()
	cfg.Timeout = 0
	cfg.MaxIterations = iterations
	return cfg
}

func solve(t *testing.T, search solver.MoveSearch, iterations int64, seed int64) *solver.Solver {
	t.Helper()
	s, err := solver.NewSolver(testutil.Input(t), testConfig(iterations), rand.New(rand.NewSource(seed)), search)
	require.NoError(t, err)
	require.NoError(t, s.Solve(context.Background()))
	return s
}

func TestMove_Apply(t *testing.T) {
	in := testutil.Input(t)
	base := func() *model.Output {
		out := model.NewOutput(in.NurseNum())
		out.Set(alice, model.Mon, model.Assign{Shift: early, Skill: headNurse})
		out.Set(alice, model.Tue, model.Assign{Shift: late, Skill: nurseSkill})
		out.Set(bob, model.Mon, model.Assign{Shift: night, Skill: nurseSkill})
		out.Set(bob, model.Wed, model.Assign{Shift: early, Skill: nurseSkill})
		return out
	}

	tests := []struct {
		name  string
		move  Move
		check func(t *testing.T, out *model.Output)
	}{
		{
			name: "修改",
			move: Move{Type: MoveChange, Nurse: carol, Day: model.Fri, Assign: model.Assign{Shift: late, Skill: nurseSkill}},
			check: func(t *testing.T, out *model.Output) {
				assert.Equal(t, model.Assign{Shift: late, Skill: nurseSkill}, out.At(carol, model.Fri))
			},
		},
		{
			name: "交换",
			move: Move{Type: MoveSwap, Nurse: alice, Nurse2: bob, Day: model.Mon},
			check: func(t *testing.T, out *model.Output) {
				assert.Equal(t, night, out.At(alice, model.Mon).Shift)
				assert.Equal(t, model.Assign{Shift: early, Skill: headNurse}, out.At(bob, model.Mon))
			},
		},
		{
			name: "块交换",
			move: Move{Type: MoveBlockSwap, Nurse: alice, Nurse2: bob, Day: model.Tue, Day2: model.Wed},
			check: func(t *testing.T, out *model.Output) {
				assert.Equal(t, early, out.At(alice, model.Mon).Shift)
				assert.Equal(t, model.ShiftNone, out.At(alice, model.Tue).Shift)
				assert.Equal(t, early, out.At(alice, model.Wed).Shift)
				assert.Equal(t, late, out.At(bob, model.Tue).Shift)
				assert.Equal(t, model.ShiftNone, out.At(bob, model.Wed).Shift)
			},
		},
		{
			name: "自换",
			move: Move{Type: MoveExchange, Nurse: alice, Day: model.Mon, Day2: model.Tue},
			check: func(t *testing.T, out *model.Output) {
				assert.Equal(t, late, out.At(alice, model.Mon).Shift)
				assert.Equal(t, model.Assign{Shift: early, Skill: headNurse}, out.At(alice, model.Tue))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := base()
			tt.move.Apply(out)
			tt.check(t, out)
		})
	}
}

func TestMove_Mode(t *testing.T) {
	tests := []struct {
		typ  MoveType
		mode string
		ok   bool
	}{
		{MoveChange, "", false},
		{MoveSwap, penalty.ModeSwap.Name, true},
		{MoveBlockSwap, penalty.ModeBlockSwap.Name, true},
		{MoveExchange, penalty.ModeExchange.Name, true},
	}
	for _, tt := range tests {
		t.Run(tt.typ.String(), func(t *testing.T) {
			mode, ok := Move{Type: tt.typ}.Mode()
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.mode, mode.Name)
		})
	}
}

func TestMove_Key(t *testing.T) {
	a := Move{Type: MoveSwap, Nurse: alice, Nurse2: bob, Day: model.Mon}
	b := Move{Type: MoveSwap, Nurse: alice, Nurse2: bob, Day: model.Tue}
	assert.Equal(t, a.Key(), a.Key())
	assert.NotEqual(t, a.Key(), b.Key())
}

func TestNeighborhoodGenerator_Generate(t *testing.T) {
	in := testutil.Input(t)
	current := model.NewOutput(in.NurseNum())
	for d := model.Mon; d <= model.Sun; d++ {
		current.Set(bob, d, model.Assign{Shift: early, Skill: nurseSkill})
	}
	current.Set(alice, model.Sat, model.Assign{Shift: late, Skill: headNurse})

	gen := NewNeighborhoodGenerator(in, rand.New(rand.NewSource(7)))
	seen := make(map[MoveType]int)
	for i := 0; i < 2000; i++ {
		mv, ok := gen.Generate(current)
		if !ok {
			continue
		}
		seen[mv.Type]++
		require.True(t, mv.Day >= model.Mon && mv.Day <= model.Sun)

		switch mv.Type {
		case MoveChange:
			assert.NotEqual(t, current.At(mv.Nurse, mv.Day), mv.Assign)
			if mv.Assign.IsWorking() {
				assert.True(t, in.Scenario.Nurses[mv.Nurse].HasSkill(mv.Assign.Skill))
			}
		case MoveSwap:
			assert.NotEqual(t, mv.Nurse, mv.Nurse2)
			assert.NotEqual(t, current.At(mv.Nurse, mv.Day), current.At(mv.Nurse2, mv.Day))
		case MoveBlockSwap:
			assert.NotEqual(t, mv.Nurse, mv.Nurse2)
			assert.Less(t, mv.Day, mv.Day2)
			after := current.Clone()
			mv.Apply(after)
			for _, n := range []model.NurseID{mv.Nurse, mv.Nurse2} {
				assert.True(t, skillsLegal(in, after, n, mv.Day, mv.Day2))
			}
		case MoveExchange:
			assert.Less(t, mv.Day, mv.Day2)
			after := current.Clone()
			mv.Apply(after)
			assert.True(t, successionLegal(in, after, mv.Nurse, model.Mon, model.Sun))
		}
	}

	for _, typ := range []MoveType{MoveChange, MoveSwap, MoveBlockSwap, MoveExchange} {
		assert.Positive(t, seen[typ], typ.String())
	}
}

func TestNeighborhoodGenerator_Reproducible(t *testing.T) {
	in := testutil.Input(t)
	current := model.NewOutput(in.NurseNum())
	current.Set(alice, model.Mon, model.Assign{Shift: early, Skill: nurseSkill})

	draw := func() []Move {
		gen := NewNeighborhoodGenerator(in, rand.New(rand.NewSource(11)))
		var moves []Move
		for i := 0; i < 200; i++ {
			if mv, ok := gen.Generate(current); ok {
				moves = append(moves, mv)
			}
		}
		return moves
	}
	assert.Equal(t, draw(), draw())
}

func TestNeighborhoodGenerator_SetMoveWeights(t *testing.T) {
	in := testutil.Input(t)
	gen := NewNeighborhoodGenerator(in, rand.New(rand.NewSource(3)))
	gen.SetMoveWeights(map[MoveType]float64{MoveSwap: 1})

	current := model.NewOutput(in.NurseNum())
	current.Set(alice, model.Mon, model.Assign{Shift: early, Skill: nurseSkill})
	for i := 0; i < 100; i++ {
		if mv, ok := gen.Generate(current); ok {
			assert.Equal(t, MoveSwap, mv.Type)
		}
	}
}

func TestTabuList(t *testing.T) {
	tabu := NewTabuList(2)
	tabu.Add(1)
	tabu.Add(2)
	tabu.Add(2)
	assert.Equal(t, 2, tabu.Len())

	tabu.Add(3)
	assert.False(t, tabu.Contains(1), "最旧的条目被淘汰")
	assert.True(t, tabu.Contains(2))
	assert.True(t, tabu.Contains(3))

	tabu.Clear()
	assert.Equal(t, 0, tabu.Len())
	assert.False(t, tabu.Contains(3))

	empty := NewTabuList(0)
	empty.Add(1)
	assert.False(t, empty.Contains(1))
}

func TestBoltzmannProbability(t *testing.T) {
	tests := []struct {
		name        string
		delta, temp float64
		want        float64
	}{
		{"改进总是接受", -1, 10, 1},
		{"持平总是接受", 0, 10, 1},
		{"零温度拒绝变差", 5, 0, 0},
		{"按温度衰减", 10, 10, 0.36787944117144233},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, boltzmannProbability(tt.delta, tt.temp), 1e-12)
		})
	}
}

func TestFindBest(t *testing.T) {
	deltas := []model.ObjValue{5, -3, -3, 8}
	assert.Equal(t, 1, FindBest(deltas, nil))
	assert.Equal(t, 2, FindBest(deltas, func(i int) bool { return i == 1 }))
	assert.Equal(t, -1, FindBest(nil, nil))
}

func TestBestAllowedMove(t *testing.T) {
	tests := []struct {
		name   string
		deltas []model.ObjValue
		want   int
	}{
		{"取最小变化量", []model.ObjValue{5, -3, 8}, 1},
		{"跳过禁止移动", []model.ObjValue{model.ForbiddenMove, 7, model.ForbiddenMove + 1}, 1},
		{"只剩正变化量", []model.ObjValue{model.ForbiddenMove, 40, 12}, 2},
		{"全部被禁止", []model.ObjValue{model.ForbiddenMove, model.ForbiddenMove}, -1},
		{"没有移动", nil, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, bestAllowedMove(tt.deltas))
		})
	}
}

func TestGreedySolver_Construct(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		s := solve(t, NewGreedySolver(), 3, seed)
		out := s.Output()
		require.NotNil(t, out)

		check := s.Check()
		assert.Zero(t, check.Breakdown[constraint.TypeUnderstaff], "seed %d", seed)
		assert.Zero(t, check.Breakdown[constraint.TypeMissSkill], "seed %d", seed)
		assert.Zero(t, check.Breakdown[constraint.TypeSingleAssign], "seed %d", seed)
		assert.Equal(t, int64(3), s.IterCount())
		assert.LessOrEqual(t, s.GenCount(), 3)
	}
}

func TestGreedySolver_UsesRepairModeOnlyWhileConstructing(t *testing.T) {
	hook := hookSearch{fn: func(ctx context.Context, sc *solver.SearchContext) error {
		NewGreedySolver().Construct(sc)
		assert.Equal(t, 0, sc.Penalty.Depth())
		return nil
	}}
	solve(t, hook, 1, 1)
}

func TestLocalSearchOptimizer_ImprovesGreedyStart(t *testing.T) {
	tests := []struct {
		name    string
		workers int
	}{
		{"串行评估", 1},
		{"并行评估", 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for seed := int64(1); seed <= 5; seed++ {
				greedy := solve(t, NewGreedySolver(), 1, seed)

				cfg := DefaultOptConfig()
				cfg.ParallelWorkers = tt.workers
				ls := solve(t, NewLocalSearchOptimizer(cfg), 300, seed)

				assert.LessOrEqual(t, ls.Output().ObjValue, greedy.Output().ObjValue, "seed %d", seed)
				assert.Equal(t, int64(300), ls.IterCount())
			}
		})
	}
}

func TestLocalSearchOptimizer_StopOnPlateau(t *testing.T) {
	cfg := DefaultOptConfig()
	cfg.StopOnPlateau = true
	cfg.PlateauThreshold = 5

	s := solve(t, NewLocalSearchOptimizer(cfg), 100000, 9)
	assert.Less(t, s.IterCount(), int64(100000))
	assert.NotNil(t, s.Output())
}

func TestLocalSearchOptimizer_RestartOnPlateau(t *testing.T) {
	cfg := DefaultOptConfig()
	cfg.PlateauThreshold = 3

	s := solve(t, NewLocalSearchOptimizer(cfg), 200, 9)
	assert.Equal(t, int64(200), s.IterCount())
}

func TestParallelEvaluator_MatchesSequential(t *testing.T) {
	hook := hookSearch{fn: func(ctx context.Context, sc *solver.SearchContext) error {
		current := NewGreedySolver().Construct(sc)
		sc.Submit(current)

		gen := NewNeighborhoodGenerator(sc.Input, sc.Rand)
		var moves []Move
		for len(moves) < 40 {
			if mv, ok := gen.Generate(current); ok {
				moves = append(moves, mv)
			}
		}

		sequential := make([]model.ObjValue, len(moves))
		for i, mv := range moves {
			sequential[i] = evaluateMove(sc, current, mv)
		}
		parallel, err := NewParallelEvaluator(4).EvaluateBatch(ctx, sc, current, moves)
		require.NoError(t, err)

		assert.Equal(t, sequential, parallel)
		assert.Equal(t, 0, sc.Penalty.Depth())
		return nil
	}}
	solve(t, hook, 1, 5)
}

func TestParallelEvaluator_Canceled(t *testing.T) {
	hook := hookSearch{fn: func(_ context.Context, sc *solver.SearchContext) error {
		current := model.NewOutput(sc.Input.NurseNum())
		moves := []Move{
			{Type: MoveChange, Nurse: alice, Day: model.Mon, Assign: model.Assign{Shift: early, Skill: nurseSkill}},
			{Type: MoveSwap, Nurse: alice, Nurse2: bob, Day: model.Mon},
		}

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		deltas, err := NewParallelEvaluator(2).EvaluateBatch(ctx, sc, current, moves)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, model.ForbiddenMove, deltas[1])
		assert.Equal(t, 0, sc.Penalty.Depth())
		return nil
	}}
	solve(t, hook, 1, 1)
}

func TestNewSearchFactory(t *testing.T) {
	tests := []struct {
		name    string
		algo    string
		want    string
		wantErr bool
	}{
		{name: "贪心", algo: AlgorithmGreedy, want: "greedy"},
		{name: "局部搜索", algo: AlgorithmLocalSearch, want: "local_search"},
		{name: "默认为局部搜索", algo: "", want: "local_search"},
		{name: "未知算法", algo: "genetic", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			factory, err := NewSearchFactory(tt.algo, nil)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, factory().Name())
		})
	}
}
