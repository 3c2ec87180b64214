package builtin

import (
	"fmt"

	"github.com/paiban/nrp/pkg/model"
	"github.com/paiban/nrp/pkg/scheduler/constraint"
	"github.com/paiban/nrp/pkg/scheduler/penalty"
)

// staffingGap 遍历每天每班次每技能，对实际人数低于目标的缺口计价
func staffingGap(
	ctx *constraint.Context,
	base *BaseConstraint,
	target model.StaffingTable,
	unit model.ObjValue,
	label string,
) (model.ObjValue, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	var totalPenalty model.ObjValue

	headcount := ctx.Headcount()
	sc := &ctx.Input.Scenario
	for d := model.Mon; d <= model.Sun; d++ {
		for s := model.ShiftBegin; int(s) < sc.ShiftSize(); s++ {
			for k := model.SkillBegin; int(k) < sc.SkillSize(); k++ {
				gap := target.At(d, s, k) - headcount.At(d, s, k)
				if gap <= 0 {
					continue
				}
				p := model.ObjValue(gap) * unit
				totalPenalty += p
				if ctx.CollectDetails {
					violations = append(violations, base.CreateViolation(
						model.NurseNone, d,
						fmt.Sprintf("%s %s/%s 缺少 %d 人（%s）", d, shiftName(ctx, s), skillName(ctx, k), gap, label),
						p,
					))
				}
			}
		}
	}

	return totalPenalty, violations
}

// UnderstaffConstraint 最少人数约束（硬约束）
type UnderstaffConstraint struct {
	*BaseConstraint
}

// NewUnderstaffConstraint 创建最少人数约束
func NewUnderstaffConstraint() *UnderstaffConstraint {
	return &UnderstaffConstraint{
		BaseConstraint: NewBaseConstraint(
			"最少人数",
			constraint.TypeUnderstaff,
			constraint.CategoryHard,
			func(w *penalty.Weights) model.ObjValue { return w.Understaff },
		),
	}
}

// Evaluate 评估整个排班
func (c *UnderstaffConstraint) Evaluate(ctx *constraint.Context) (model.ObjValue, []constraint.ViolationDetail) {
	return staffingGap(ctx, c.BaseConstraint, ctx.Input.Weekdata.MinNurseNums, ctx.Weights().Understaff, "最少")
}

// InsufficientStaffConstraint 最优人数约束（软约束）
type InsufficientStaffConstraint struct {
	*BaseConstraint
}

// NewInsufficientStaffConstraint 创建最优人数约束
func NewInsufficientStaffConstraint() *InsufficientStaffConstraint {
	return &InsufficientStaffConstraint{
		BaseConstraint: NewBaseConstraint(
			"最优人数",
			constraint.TypeInsufficientStaff,
			constraint.CategorySoft,
			func(w *penalty.Weights) model.ObjValue { return w.InsufficientStaff },
		),
	}
}

// Evaluate 评估整个排班
func (c *InsufficientStaffConstraint) Evaluate(ctx *constraint.Context) (model.ObjValue, []constraint.ViolationDetail) {
	return staffingGap(ctx, c.BaseConstraint, ctx.Input.Weekdata.OptNurseNums, ctx.Weights().InsufficientStaff, "最优")
}
