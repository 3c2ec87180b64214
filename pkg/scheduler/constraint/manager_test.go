package constraint

import (
	"testing"

	"github.com/paiban/nrp/internal/testutil"
	"github.com/paiban/nrp/pkg/model"
	"github.com/paiban/nrp/pkg/scheduler/penalty"
)

func newTestContext(t *testing.T) *Context {
	t.Helper()
	in := testutil.Input(t)
	engine, err := penalty.NewEngine(penalty.DefaultConfig())
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	return NewContext(in, model.NewOutput(in.NurseNum()), engine, NewBudget(in, false))
}

func TestManager_Register(t *testing.T) {
	manager := NewManager()

	manager.Register(&MockConstraint{name: "soft", typ: TypePreference, category: CategorySoft})
	manager.Register(&MockConstraint{name: "hard", typ: TypeUnderstaff, category: CategoryHard})
	manager.Register(&MockConstraint{name: "hard2", typ: TypeSingleAssign, category: CategoryHard})

	all := manager.GetAll()
	if len(all) != 3 {
		t.Fatalf("Expected 3 constraints, got %d", len(all))
	}
	if all[0].Type() != TypeSingleAssign || all[1].Type() != TypeUnderstaff || all[2].Type() != TypePreference {
		t.Errorf("Unexpected order: %s, %s, %s", all[0].Type(), all[1].Type(), all[2].Type())
	}

	// 同类型注册替换已有约束
	manager.Register(&MockConstraint{name: "replaced", typ: TypePreference, category: CategorySoft})
	if manager.Count() != 3 || manager.GetConstraint(TypePreference).Name() != "replaced" {
		t.Error("Expected same-type registration to replace")
	}

	manager.Unregister(TypeUnderstaff)
	if manager.GetConstraint(TypeUnderstaff) != nil {
		t.Error("Expected understaff to be unregistered")
	}
}

func TestManager_GetByCategory(t *testing.T) {
	manager := NewManager()

	manager.Register(&MockConstraint{name: "hard1", typ: TypeSuccession, category: CategoryHard})
	manager.Register(&MockConstraint{name: "soft1", typ: TypeCompleteWeekend, category: CategorySoft})

	if got := len(manager.GetByCategory(CategoryHard)); got != 1 {
		t.Errorf("Expected 1 hard constraint, got %d", got)
	}
	if got := len(manager.GetByCategory(CategorySoft)); got != 1 {
		t.Errorf("Expected 1 soft constraint, got %d", got)
	}

	summary := manager.Summary()
	if summary["total"] != 2 || summary["hard"] != 1 || summary["soft"] != 1 {
		t.Errorf("Unexpected summary %v", summary)
	}
}

func TestManager_Evaluate(t *testing.T) {
	tests := []struct {
		name         string
		constraints  []*MockConstraint
		wantPenalty  model.ObjValue
		wantFeasible bool
	}{
		{
			name:         "无违反",
			constraints:  []*MockConstraint{{typ: TypeMissSkill, category: CategoryHard}},
			wantPenalty:  0,
			wantFeasible: true,
		},
		{
			name: "仅软约束违反",
			constraints: []*MockConstraint{
				{typ: TypeMissSkill, category: CategoryHard},
				{typ: TypePreference, category: CategorySoft, penalty: 10},
				{typ: TypeTotalAssign, category: CategorySoft, penalty: 5},
			},
			wantPenalty:  15,
			wantFeasible: true,
		},
		{
			name: "硬约束违反",
			constraints: []*MockConstraint{
				{typ: TypeSuccession, category: CategoryHard, penalty: model.ForbiddenMove},
				{typ: TypePreference, category: CategorySoft, penalty: 10},
			},
			wantPenalty:  model.ForbiddenMove + 10,
			wantFeasible: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			manager := NewManager()
			for _, c := range tt.constraints {
				manager.Register(c)
			}

			result := manager.Evaluate(newTestContext(t))
			if result.TotalPenalty != tt.wantPenalty {
				t.Errorf("Expected penalty %d, got %d", tt.wantPenalty, result.TotalPenalty)
			}
			if result.IsFeasible != tt.wantFeasible {
				t.Errorf("Expected feasible=%v, got %v", tt.wantFeasible, result.IsFeasible)
			}
			if result.Breakdown.Total() != result.TotalPenalty {
				t.Error("Breakdown should sum to total")
			}
		})
	}
}

func TestManager_ZeroWeightSkipped(t *testing.T) {
	manager := NewManager()
	staffing := &MockConstraint{
		typ:      TypeUnderstaff,
		category: CategoryHard,
		penalty:  model.ForbiddenMove,
		weight:   func(w *penalty.Weights) model.ObjValue { return w.Understaff },
	}
	manager.Register(staffing)

	ctx := newTestContext(t)
	ctx.Penalty.With(penalty.ModeSwap, func() {
		result := manager.Evaluate(ctx)
		if result.TotalPenalty != 0 || !result.IsFeasible {
			t.Errorf("Zero-weighted constraint should not contribute, got %d", result.TotalPenalty)
		}
	})
	if staffing.calls != 0 {
		t.Errorf("Zero-weighted constraint should not be evaluated, got %d calls", staffing.calls)
	}

	manager.Evaluate(ctx)
	if staffing.calls != 1 {
		t.Errorf("Expected 1 evaluation after leaving swap mode, got %d", staffing.calls)
	}
}

func TestManager_EvaluateMove(t *testing.T) {
	manager := NewManager()
	manager.Register(&workingDays{})

	ctx := newTestContext(t)
	early := ctx.Input.Names.ShiftMap["Early"]
	nurse := ctx.Input.Names.SkillMap["Nurse"]

	mv := setMove{nurse: 1, day: model.Tue, assign: model.Assign{Shift: early, Skill: nurse}}
	delta, breakdown := manager.EvaluateMove(ctx, mv)

	want := ctx.Weights().Preference
	if delta != want {
		t.Errorf("Expected delta %d, got %d", want, delta)
	}
	if breakdown[TypePreference] != want {
		t.Errorf("Expected breakdown delta %d, got %d", want, breakdown[TypePreference])
	}
	if ctx.Output.At(1, model.Tue).IsWorking() {
		t.Error("EvaluateMove must not modify the evaluated output")
	}
}

func TestNewBudget(t *testing.T) {
	in := testutil.Input(t)
	fullTime := in.Names.NurseMap["Alice"]
	partTime := in.Names.NurseMap["Carol"]
	in.History.TotalAssignNums[fullTime] = 3

	tests := []struct {
		name     string
		suppress bool
		wantMin  []int
	}{
		{name: "不抑制", suppress: false, wantMin: []int{5, 8, 4}},
		{name: "抑制早期最少班次", suppress: true, wantMin: []int{0, 1, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBudget(in, tt.suppress)
			for n, want := range tt.wantMin {
				if b.RestMinShiftNum[n] != want {
					t.Errorf("Nurse %d: expected restMin %d, got %d", n, want, b.RestMinShiftNum[n])
				}
			}
			if b.RestMaxShiftNum[fullTime] != 7 || b.RestMaxShiftNum[partTime] != 8 {
				t.Errorf("Unexpected restMax %v", b.RestMaxShiftNum)
			}
			if b.RestMaxWorkingWeekendNum[fullTime] != 1 || b.RestMaxWorkingWeekendNum[partTime] != 2 {
				t.Errorf("Unexpected restMaxWorkingWeekend %v", b.RestMaxWorkingWeekendNum)
			}
		})
	}
}

func TestContext_Headcount(t *testing.T) {
	ctx := newTestContext(t)
	early := ctx.Input.Names.ShiftMap["Early"]
	nurse := ctx.Input.Names.SkillMap["Nurse"]

	ctx.Output.Set(0, model.Mon, model.Assign{Shift: early, Skill: nurse})
	ctx.Output.Set(1, model.Mon, model.Assign{Shift: early, Skill: nurse})
	if got := ctx.Headcount().At(model.Mon, early, nurse); got != 2 {
		t.Errorf("Expected 2 on Monday, got %d", got)
	}

	ctx.Output.Set(1, model.Mon, model.Assign{})
	if got := ctx.Headcount().At(model.Mon, early, nurse); got != 2 {
		t.Errorf("Cached headcount should hold until invalidated, got %d", got)
	}
	ctx.Invalidate()
	if got := ctx.Headcount().At(model.Mon, early, nurse); got != 1 {
		t.Errorf("Expected 1 after invalidation, got %d", got)
	}
}

// MockConstraint 用于测试的模拟约束
type MockConstraint struct {
	name     string
	typ      Type
	category Category
	weight   func(w *penalty.Weights) model.ObjValue
	penalty  model.ObjValue
	calls    int
}

func (m *MockConstraint) Name() string       { return m.name }
func (m *MockConstraint) Type() Type         { return m.typ }
func (m *MockConstraint) Category() Category { return m.category }
func (m *MockConstraint) Weight(w *penalty.Weights) model.ObjValue {
	if m.weight == nil {
		return 1
	}
	return m.weight(w)
}

func (m *MockConstraint) Evaluate(ctx *Context) (model.ObjValue, []ViolationDetail) {
	m.calls++
	if m.penalty == 0 {
		return 0, nil
	}
	return m.penalty, []ViolationDetail{
		{ConstraintType: m.typ, ConstraintName: m.name, Message: "违反约束", Penalty: m.penalty},
	}
}

// workingDays 每个上班日按偏好权重计价
type workingDays struct{}

func (workingDays) Name() string                              { return "working_days" }
func (workingDays) Type() Type                                { return TypePreference }
func (workingDays) Category() Category                        { return CategorySoft }
func (workingDays) Weight(w *penalty.Weights) model.ObjValue { return w.Preference }

func (c workingDays) Evaluate(ctx *Context) (model.ObjValue, []ViolationDetail) {
	var total model.ObjValue
	for n := model.NurseBegin; int(n) < ctx.Input.NurseNum(); n++ {
		total += model.ObjValue(ctx.Output.AssignNum(n)) * ctx.Weights().Preference
	}
	return total, nil
}

type setMove struct {
	nurse  model.NurseID
	day    model.Weekday
	assign model.Assign
}

func (m setMove) Apply(out *model.Output) {
	out.Set(m.nurse, m.day, m.assign)
}
