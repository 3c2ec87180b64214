package builtin

import (
	"fmt"

	"github.com/paiban/nrp/pkg/model"
	"github.com/paiban/nrp/pkg/scheduler/constraint"
	"github.com/paiban/nrp/pkg/scheduler/penalty"
)

// budgetOf 返回上下文中的剩余额度，未设置时按合同与历史现算
func budgetOf(ctx *constraint.Context) *constraint.Budget {
	if ctx.Budget == nil {
		ctx.Budget = constraint.NewBudget(ctx.Input, false)
	}
	return ctx.Budget
}

// excessThisWeek 本周超出剩余上限的部分，之前各周已超出的部分不重复计入
func excessThisWeek(count, restMax int) int {
	if count <= restMax {
		return 0
	}
	return min(count-restMax, count)
}

// TotalAssignConstraint 整个周期内总班次数约束（软约束）
// 按剩余额度比较，超过剩余上限计超出量，低于剩余下限计缺口
type TotalAssignConstraint struct {
	*BaseConstraint
}

// NewTotalAssignConstraint 创建总班次数约束
func NewTotalAssignConstraint() *TotalAssignConstraint {
	return &TotalAssignConstraint{
		BaseConstraint: NewBaseConstraint(
			"总班次数",
			constraint.TypeTotalAssign,
			constraint.CategorySoft,
			func(w *penalty.Weights) model.ObjValue { return w.TotalAssign },
		),
	}
}

// Evaluate 评估整个排班
func (c *TotalAssignConstraint) Evaluate(ctx *constraint.Context) (model.ObjValue, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	var totalPenalty model.ObjValue
	unit := ctx.Weights().TotalAssign
	budget := budgetOf(ctx)

	for n := model.NurseBegin; int(n) < ctx.Input.NurseNum(); n++ {
		assigned := ctx.Output.AssignNum(n)
		restMin, restMax := budget.RestMinShiftNum[n], budget.RestMaxShiftNum[n]

		cost := excessThisWeek(assigned, restMax)
		if assigned < restMin {
			cost += restMin - assigned
		}
		if cost == 0 {
			continue
		}

		p := model.ObjValue(cost) * unit
		totalPenalty += p
		if ctx.CollectDetails {
			violations = append(violations, c.CreateViolation(n, model.Sun,
				fmt.Sprintf("护士 %s 本周 %d 个班次，剩余额度 %d-%d", nurseName(ctx, n), assigned, restMin, restMax),
				p,
			))
		}
	}

	return totalPenalty, violations
}

// TotalWorkingWeekendConstraint 整个周期内工作周末数约束（软约束）
type TotalWorkingWeekendConstraint struct {
	*BaseConstraint
}

// NewTotalWorkingWeekendConstraint 创建工作周末数约束
func NewTotalWorkingWeekendConstraint() *TotalWorkingWeekendConstraint {
	return &TotalWorkingWeekendConstraint{
		BaseConstraint: NewBaseConstraint(
			"工作周末数",
			constraint.TypeTotalWorkingWeekend,
			constraint.CategorySoft,
			func(w *penalty.Weights) model.ObjValue { return w.TotalWorkingWeekend },
		),
	}
}

// Evaluate 评估整个排班
func (c *TotalWorkingWeekendConstraint) Evaluate(ctx *constraint.Context) (model.ObjValue, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	var totalPenalty model.ObjValue
	unit := ctx.Weights().TotalWorkingWeekend
	budget := budgetOf(ctx)

	for n := model.NurseBegin; int(n) < ctx.Input.NurseNum(); n++ {
		if !ctx.Output.WorkingWeekend(n) {
			continue
		}
		restMax := budget.RestMaxWorkingWeekendNum[n]
		cost := excessThisWeek(1, restMax)
		if cost == 0 {
			continue
		}

		p := model.ObjValue(cost) * unit
		totalPenalty += p
		if ctx.CollectDetails {
			violations = append(violations, c.CreateViolation(n, model.Sat,
				fmt.Sprintf("护士 %s 工作周末超出剩余额度 %d", nurseName(ctx, n), restMax),
				p,
			))
		}
	}

	return totalPenalty, violations
}
