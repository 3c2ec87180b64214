package validator

import (
	apperrors "github.com/paiban/nrp/pkg/errors"
	"github.com/paiban/nrp/pkg/instance"
	"github.com/paiban/nrp/pkg/model"
	"github.com/paiban/nrp/pkg/scheduler/constraint"
	"github.com/paiban/nrp/pkg/scheduler/constraint/builtin"
	"github.com/paiban/nrp/pkg/scheduler/penalty"
)

// Report 校验报告
type Report struct {
	ObjValue       model.ObjValue               `json:"obj_value"`
	Objective      float64                      `json:"objective"` // 报告单位
	Feasible       bool                         `json:"feasible"`
	Breakdown      constraint.Breakdown         `json:"breakdown"`
	HardViolations []constraint.ViolationDetail `json:"hard_violations,omitempty"`
	SoftViolations []constraint.ViolationDetail `json:"soft_violations,omitempty"`
	Conflicts      []Conflict                   `json:"conflicts,omitempty"`

	// Consistent 规则检查与目标函数对可行性的判断一致
	Consistent bool `json:"consistent"`
}

// Checker 以默认权重重新计算单周方案的目标值
type Checker struct {
	penalty          penalty.Config
	suppressEarlyMin bool
	manager          *constraint.Manager
	detector         *ConflictDetector
}

// NewChecker 创建校验器，suppressEarlyMin 需与求解时的设置一致
func NewChecker(cfg penalty.Config, suppressEarlyMin bool) (*Checker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Checker{
		penalty:          cfg,
		suppressEarlyMin: suppressEarlyMin,
		manager:          builtin.NewManager(),
		detector:         NewConflictDetector(nil),
	}, nil
}

// Check 校验方案，duplicates 为解码时发现的重复分配条数
func (c *Checker) Check(in *model.Input, out *model.Output, duplicates int) (*Report, error) {
	if in == nil || out == nil {
		return nil, apperrors.InvalidInput("solution", "输入与方案不能为空")
	}
	if out.NurseNum() != in.NurseNum() {
		return nil, apperrors.InvalidInput("solution", "方案的护士数量与场景不一致")
	}

	engine, err := penalty.NewEngine(c.penalty)
	if err != nil {
		return nil, err
	}
	ctx := constraint.NewContext(in, out, engine, constraint.NewBudget(in, c.suppressEarlyMin))
	ctx.Duplicates = duplicates
	ctx.CollectDetails = true
	result := c.manager.Evaluate(ctx)

	conflicts := c.detector.DetectAll(in, out, duplicates)
	return &Report{
		ObjValue:       result.TotalPenalty,
		Objective:      result.Report(),
		Feasible:       result.IsFeasible,
		Breakdown:      result.Breakdown,
		HardViolations: result.HardViolations,
		SoftViolations: result.SoftViolations,
		Conflicts:      conflicts,
		Consistent:     result.IsFeasible == !HasErrors(conflicts),
	}, nil
}

// CheckSolution 解码按名称表示的解文件后校验
func (c *Checker) CheckSolution(in *model.Input, raw *instance.RawSolution) (*Report, error) {
	out, duplicates, err := instance.DecodeSolution(raw, in)
	if err != nil {
		return nil, err
	}
	return c.Check(in, out, duplicates)
}
