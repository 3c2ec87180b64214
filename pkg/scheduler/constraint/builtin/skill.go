package builtin

import (
	"fmt"

	"github.com/paiban/nrp/pkg/model"
	"github.com/paiban/nrp/pkg/scheduler/constraint"
	"github.com/paiban/nrp/pkg/scheduler/penalty"
)

// MissSkillConstraint 技能要求约束（硬约束）
type MissSkillConstraint struct {
	*BaseConstraint
}

// NewMissSkillConstraint 创建技能要求约束
func NewMissSkillConstraint() *MissSkillConstraint {
	return &MissSkillConstraint{
		BaseConstraint: NewBaseConstraint(
			"技能要求",
			constraint.TypeMissSkill,
			constraint.CategoryHard,
			func(w *penalty.Weights) model.ObjValue { return w.MissSkill },
		),
	}
}

// Evaluate 评估整个排班
func (c *MissSkillConstraint) Evaluate(ctx *constraint.Context) (model.ObjValue, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	var totalPenalty model.ObjValue
	unit := ctx.Weights().MissSkill

	for n := model.NurseBegin; int(n) < ctx.Input.NurseNum(); n++ {
		nurse := ctx.Input.Scenario.Nurses[n]
		for d := model.Mon; d <= model.Sun; d++ {
			a := ctx.Output.At(n, d)
			if !a.IsWorking() || nurse.HasSkill(a.Skill) {
				continue
			}
			totalPenalty += unit
			if ctx.CollectDetails {
				violations = append(violations, c.CreateViolation(n, d,
					fmt.Sprintf("护士 %s 不具备技能 %s", nurseName(ctx, n), skillName(ctx, a.Skill)),
					unit,
				))
			}
		}
	}

	return totalPenalty, violations
}

// SingleAssignConstraint 每天至多一个班次约束（硬约束）
// 方案表每格只能容纳一个分配，违反只可能来自外部解文件中的重复条目
type SingleAssignConstraint struct {
	*BaseConstraint
}

// NewSingleAssignConstraint 创建单日单班约束
func NewSingleAssignConstraint() *SingleAssignConstraint {
	return &SingleAssignConstraint{
		BaseConstraint: NewBaseConstraint(
			"单日单班",
			constraint.TypeSingleAssign,
			constraint.CategoryHard,
			func(w *penalty.Weights) model.ObjValue { return w.SingleAssign },
		),
	}
}

// Evaluate 评估整个排班
func (c *SingleAssignConstraint) Evaluate(ctx *constraint.Context) (model.ObjValue, []constraint.ViolationDetail) {
	if ctx.Duplicates <= 0 {
		return 0, nil
	}
	p := model.ObjValue(ctx.Duplicates) * ctx.Weights().SingleAssign
	var violations []constraint.ViolationDetail
	if ctx.CollectDetails {
		violations = append(violations, c.CreateViolation(model.NurseNone, model.HIS,
			fmt.Sprintf("解文件中有 %d 条重复分配", ctx.Duplicates), p))
	}
	return p, violations
}
