package builtin

import (
	"fmt"

	"github.com/paiban/nrp/pkg/model"
	"github.com/paiban/nrp/pkg/scheduler/constraint"
	"github.com/paiban/nrp/pkg/scheduler/penalty"
)

// SuccessionConstraint 班次接续约束（硬约束）
// 前一天的班次决定当天可以接哪些班次，周一与历史中的最后班次比较
type SuccessionConstraint struct {
	*BaseConstraint
}

// NewSuccessionConstraint 创建班次接续约束
func NewSuccessionConstraint() *SuccessionConstraint {
	return &SuccessionConstraint{
		BaseConstraint: NewBaseConstraint(
			"班次接续",
			constraint.TypeSuccession,
			constraint.CategoryHard,
			func(w *penalty.Weights) model.ObjValue { return w.Succession },
		),
	}
}

// Evaluate 评估整个排班
func (c *SuccessionConstraint) Evaluate(ctx *constraint.Context) (model.ObjValue, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	var totalPenalty model.ObjValue
	unit := ctx.Weights().Succession
	legal := ctx.Input.Scenario.LegalNextShifts

	for n := model.NurseBegin; int(n) < ctx.Input.NurseNum(); n++ {
		for d := model.Mon; d <= model.Sun; d++ {
			cur := ctx.Output.At(n, d).Shift
			if cur == model.ShiftNone {
				continue
			}
			prev := prevShift(ctx, n, d)
			if legal.Legal(prev, cur) {
				continue
			}
			totalPenalty += unit
			if ctx.CollectDetails {
				violations = append(violations, c.CreateViolation(n, d,
					fmt.Sprintf("护士 %s 在 %s 之后不能接 %s", nurseName(ctx, n), shiftName(ctx, prev), shiftName(ctx, cur)),
					unit,
				))
			}
		}
	}

	return totalPenalty, violations
}
