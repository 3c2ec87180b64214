// Package constraints 约束目录
package constraints

import (
	"github.com/paiban/nrp/pkg/model"
	"github.com/paiban/nrp/pkg/scheduler/constraint"
	"github.com/paiban/nrp/pkg/scheduler/constraint/builtin"
	"github.com/paiban/nrp/pkg/scheduler/penalty"
)

// ConstraintParam 约束参数定义
type ConstraintParam struct {
	Name        string `json:"name"`
	Source      string `json:"source"` // scenario, weekdata, history
	Description string `json:"description"`
}

// ConstraintDefinition 约束定义
type ConstraintDefinition struct {
	Name        string            `json:"name"`
	DisplayName string            `json:"display_name"`
	Type        string            `json:"type"` // hard 硬约束, soft 软约束
	Category    string            `json:"category"`
	Description string            `json:"description"`
	Weight      float64           `json:"weight"` // 报告单位，硬约束为 0 表示禁止
	Params      []ConstraintParam `json:"params"`
}

// LibraryResponse 约束库响应
type LibraryResponse struct {
	Library []ConstraintDefinition `json:"library"`
}

type entry struct {
	display     string
	category    string
	description string
	params      []ConstraintParam
}

var catalog = map[constraint.Type]entry{
	constraint.TypeSingleAssign: {
		display:     "单日单班",
		category:    "分配结构",
		description: "每名护士每天至多分配一个班次。",
	},
	constraint.TypeUnderstaff: {
		display:     "最少人数",
		category:    "人力需求",
		description: "每天每个班次每种技能的分配人数不得低于最少人数。",
		params: []ConstraintParam{
			{Name: "minNurseNum", Source: "weekdata", Description: "最少人数"},
		},
	},
	constraint.TypeSuccession: {
		display:     "班次衔接",
		category:    "休息保障",
		description: "相邻两天的班次必须满足禁止衔接表，周一还需参照上周最后一个班次。",
		params: []ConstraintParam{
			{Name: "forbiddenSucceedingShiftTypes", Source: "scenario", Description: "禁止后继班次"},
			{Name: "lastAssignedShiftType", Source: "history", Description: "上周最后一个班次"},
		},
	},
	constraint.TypeMissSkill: {
		display:     "技能匹配",
		category:    "资质要求",
		description: "护士只能以自己具备的技能上班。",
		params: []ConstraintParam{
			{Name: "skills", Source: "scenario", Description: "护士技能"},
		},
	},
	constraint.TypeInsufficientStaff: {
		display:     "最优人数",
		category:    "人力需求",
		description: "分配人数低于最优人数时按缺口计罚。",
		params: []ConstraintParam{
			{Name: "optimalNurseNum", Source: "weekdata", Description: "最优人数"},
		},
	},
	constraint.TypeConsecutiveShift: {
		display:     "同班次连续天数",
		category:    "连续性",
		description: "同一班次连续上班天数需落在班次规定的区间内，跨周连续段按历史计入。",
		params: []ConstraintParam{
			{Name: "minimumNumberOfConsecutiveAssignments", Source: "scenario", Description: "最少连续天数"},
			{Name: "maximumNumberOfConsecutiveAssignments", Source: "scenario", Description: "最多连续天数"},
		},
	},
	constraint.TypeConsecutiveDay: {
		display:     "连续上班天数",
		category:    "连续性",
		description: "连续上班天数需落在合同规定的区间内。",
		params: []ConstraintParam{
			{Name: "minimumNumberOfConsecutiveWorkingDays", Source: "scenario", Description: "最少连续上班"},
			{Name: "maximumNumberOfConsecutiveWorkingDays", Source: "scenario", Description: "最多连续上班"},
		},
	},
	constraint.TypeConsecutiveDayOff: {
		display:     "连续休息天数",
		category:    "连续性",
		description: "连续休息天数需落在合同规定的区间内。",
		params: []ConstraintParam{
			{Name: "minimumNumberOfConsecutiveDaysOff", Source: "scenario", Description: "最少连续休息"},
			{Name: "maximumNumberOfConsecutiveDaysOff", Source: "scenario", Description: "最多连续休息"},
		},
	},
	constraint.TypePreference: {
		display:     "休息申请",
		category:    "个人偏好",
		description: "护士申请不上的班次（或整天）被分配时计罚。",
		params: []ConstraintParam{
			{Name: "shiftOffRequests", Source: "weekdata", Description: "休息申请"},
		},
	},
	constraint.TypeCompleteWeekend: {
		display:     "完整周末",
		category:    "个人偏好",
		description: "合同要求完整周末时，周六周日须同时上班或同时休息。",
		params: []ConstraintParam{
			{Name: "completeWeekends", Source: "scenario", Description: "是否要求完整周末"},
		},
	},
	constraint.TypeTotalAssign: {
		display:     "总分配数",
		category:    "工作量",
		description: "整个规划周期内的总分配数需落在合同区间内，逐周按剩余周数摊分。",
		params: []ConstraintParam{
			{Name: "minimumNumberOfAssignments", Source: "scenario", Description: "最少分配数"},
			{Name: "maximumNumberOfAssignments", Source: "scenario", Description: "最多分配数"},
			{Name: "numberOfAssignments", Source: "history", Description: "已分配数"},
		},
	},
	constraint.TypeTotalWorkingWeekend: {
		display:     "上班周末数",
		category:    "工作量",
		description: "整个规划周期内上班的周末数不超过合同上限。",
		params: []ConstraintParam{
			{Name: "maximumNumberOfWorkingWeekends", Source: "scenario", Description: "最多上班周末"},
			{Name: "numberOfWorkingWeekends", Source: "history", Description: "已上班周末"},
		},
	},
}

// GetLibrary 按报告顺序列出已注册的全部约束及其在给定权重下的单位代价
func GetLibrary(w penalty.Weights) []ConstraintDefinition {
	manager := builtin.NewManager()
	defs := make([]ConstraintDefinition, 0, manager.Count())
	for _, c := range manager.GetAll() {
		e := catalog[c.Type()]
		def := ConstraintDefinition{
			Name:        string(c.Type()),
			DisplayName: e.display,
			Type:        string(c.Category()),
			Category:    e.category,
			Description: e.description,
			Params:      e.params,
		}
		if def.DisplayName == "" {
			def.DisplayName = c.Name()
		}
		if weight := c.Weight(&w); weight < model.ForbiddenMove {
			def.Weight = model.Report(weight)
		}
		if def.Params == nil {
			def.Params = []ConstraintParam{}
		}
		defs = append(defs, def)
	}
	return defs
}

// Find 按名称查找约束定义
func Find(w penalty.Weights, name string) (ConstraintDefinition, bool) {
	for _, def := range GetLibrary(w) {
		if def.Name == name {
			return def, true
		}
	}
	return ConstraintDefinition{}, false
}
