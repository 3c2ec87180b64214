package builtin

import (
	"fmt"

	"github.com/paiban/nrp/pkg/model"
	"github.com/paiban/nrp/pkg/scheduler/constraint"
	"github.com/paiban/nrp/pkg/scheduler/penalty"
)

// PreferenceConstraint 休息申请约束（软约束）
type PreferenceConstraint struct {
	*BaseConstraint
}

// NewPreferenceConstraint 创建休息申请约束
func NewPreferenceConstraint() *PreferenceConstraint {
	return &PreferenceConstraint{
		BaseConstraint: NewBaseConstraint(
			"休息申请",
			constraint.TypePreference,
			constraint.CategorySoft,
			func(w *penalty.Weights) model.ObjValue { return w.Preference },
		),
	}
}

// Evaluate 评估整个排班
func (c *PreferenceConstraint) Evaluate(ctx *constraint.Context) (model.ObjValue, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	var totalPenalty model.ObjValue
	unit := ctx.Weights().Preference

	for n := model.NurseBegin; int(n) < ctx.Input.NurseNum(); n++ {
		for d := model.Mon; d <= model.Sun; d++ {
			a := ctx.Output.At(n, d)
			if !a.IsWorking() || !ctx.Input.Weekdata.ShiftOff(n, d, a.Shift) {
				continue
			}
			totalPenalty += unit
			if ctx.CollectDetails {
				violations = append(violations, c.CreateViolation(n, d,
					fmt.Sprintf("护士 %s 申请 %s 不上 %s", nurseName(ctx, n), d, shiftName(ctx, a.Shift)),
					unit,
				))
			}
		}
	}

	return totalPenalty, violations
}

// CompleteWeekendConstraint 完整周末约束（软约束）
type CompleteWeekendConstraint struct {
	*BaseConstraint
}

// NewCompleteWeekendConstraint 创建完整周末约束
func NewCompleteWeekendConstraint() *CompleteWeekendConstraint {
	return &CompleteWeekendConstraint{
		BaseConstraint: NewBaseConstraint(
			"完整周末",
			constraint.TypeCompleteWeekend,
			constraint.CategorySoft,
			func(w *penalty.Weights) model.ObjValue { return w.CompleteWeekend },
		),
	}
}

// Evaluate 评估整个排班
func (c *CompleteWeekendConstraint) Evaluate(ctx *constraint.Context) (model.ObjValue, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	var totalPenalty model.ObjValue
	unit := ctx.Weights().CompleteWeekend

	for n := model.NurseBegin; int(n) < ctx.Input.NurseNum(); n++ {
		if !ctx.Input.Scenario.Contract(n).CompleteWeekend {
			continue
		}
		if ctx.Output.At(n, model.Sat).IsWorking() == ctx.Output.At(n, model.Sun).IsWorking() {
			continue
		}
		totalPenalty += unit
		if ctx.CollectDetails {
			violations = append(violations, c.CreateViolation(n, model.Sun,
				fmt.Sprintf("护士 %s 周末只上了一天", nurseName(ctx, n)),
				unit,
			))
		}
	}

	return totalPenalty, violations
}
