// Package builtin 提供内置约束实现
package builtin

import (
	"github.com/paiban/nrp/pkg/model"
	"github.com/paiban/nrp/pkg/scheduler/constraint"
	"github.com/paiban/nrp/pkg/scheduler/penalty"
)

// WeightFunc 从权重集中取出某项约束的单位代价
type WeightFunc func(w *penalty.Weights) model.ObjValue

// BaseConstraint 约束基类
type BaseConstraint struct {
	name     string
	typ      constraint.Type
	category constraint.Category
	weight   WeightFunc
}

// NewBaseConstraint 创建基础约束
func NewBaseConstraint(name string, typ constraint.Type, cat constraint.Category, weight WeightFunc) *BaseConstraint {
	return &BaseConstraint{
		name:     name,
		typ:      typ,
		category: cat,
		weight:   weight,
	}
}

// Name 返回约束名称
func (c *BaseConstraint) Name() string { return c.name }

// Type 返回约束类型
func (c *BaseConstraint) Type() constraint.Type { return c.typ }

// Category 返回约束类别
func (c *BaseConstraint) Category() constraint.Category { return c.category }

// Weight 返回约束权重
func (c *BaseConstraint) Weight(w *penalty.Weights) model.ObjValue { return c.weight(w) }

// CreateViolation 创建违反详情
func (c *BaseConstraint) CreateViolation(nurse model.NurseID, day model.Weekday, message string, penalty model.ObjValue) constraint.ViolationDetail {
	severity := "warning"
	if c.category == constraint.CategoryHard {
		severity = "error"
	}

	return constraint.ViolationDetail{
		ConstraintType: c.typ,
		ConstraintName: c.name,
		Nurse:          nurse,
		Day:            day,
		Message:        message,
		Severity:       severity,
		Penalty:        penalty,
	}
}

// nurseName 在报告中使用的护士名称
func nurseName(ctx *constraint.Context, n model.NurseID) string {
	if int(n) < len(ctx.Input.Names.NurseNames) {
		return ctx.Input.Names.NurseNames[n]
	}
	return "?"
}

// shiftName 在报告中使用的班次名称
func shiftName(ctx *constraint.Context, s model.ShiftID) string {
	if s >= 0 && int(s) < len(ctx.Input.Names.ShiftNames) {
		return ctx.Input.Names.ShiftNames[s]
	}
	return "?"
}

// skillName 在报告中使用的技能名称
func skillName(ctx *constraint.Context, k model.SkillID) string {
	if k >= 0 && int(k) < len(ctx.Input.Names.SkillNames) {
		return ctx.Input.Names.SkillNames[k]
	}
	return "?"
}

// prevShift 返回护士前一天的班次，周一取历史中的最后班次
func prevShift(ctx *constraint.Context, n model.NurseID, d model.Weekday) model.ShiftID {
	if d == model.Mon {
		return ctx.Input.History.LastShifts[n]
	}
	return ctx.Output.At(n, d-1).Shift
}
