// Package instance 负责原始实例文件的读写与编译
package instance

import "github.com/paiban/nrp/pkg/model"

// 原始文件中使用的保留名称
const (
	NameNone = "None"
	NameAny  = "Any"
)

// RawScenario 场景文件
type RawScenario struct {
	ID                            string          `json:"id"`
	NumberOfWeeks                 int             `json:"numberOfWeeks"`
	Skills                        []string        `json:"skills"`
	ShiftTypes                    []RawShiftType  `json:"shiftTypes"`
	ForbiddenShiftTypeSuccessions []RawSuccession `json:"forbiddenShiftTypeSuccessions"`
	Contracts                     []RawContract   `json:"contracts"`
	Nurses                        []RawNurse      `json:"nurses"`
}

// RawShiftType 班次类型
type RawShiftType struct {
	ID                                    string `json:"id"`
	MinimumNumberOfConsecutiveAssignments int    `json:"minimumNumberOfConsecutiveAssignments"`
	MaximumNumberOfConsecutiveAssignments int    `json:"maximumNumberOfConsecutiveAssignments"`
}

// RawSuccession 禁止的班次接续
type RawSuccession struct {
	PrecedingShiftType   string   `json:"precedingShiftType"`
	SucceedingShiftTypes []string `json:"succeedingShiftTypes"`
}

// RawContract 合同
type RawContract struct {
	ID                                    string `json:"id"`
	MinimumNumberOfAssignments            int    `json:"minimumNumberOfAssignments"`
	MaximumNumberOfAssignments            int    `json:"maximumNumberOfAssignments"`
	MinimumNumberOfConsecutiveWorkingDays int    `json:"minimumNumberOfConsecutiveWorkingDays"`
	MaximumNumberOfConsecutiveWorkingDays int    `json:"maximumNumberOfConsecutiveWorkingDays"`
	MinimumNumberOfConsecutiveDaysOff     int    `json:"minimumNumberOfConsecutiveDaysOff"`
	MaximumNumberOfConsecutiveDaysOff     int    `json:"maximumNumberOfConsecutiveDaysOff"`
	MaximumNumberOfWorkingWeekends        int    `json:"maximumNumberOfWorkingWeekends"`
	CompleteWeekends                      int    `json:"completeWeekends"`
}

// RawNurse 护士
type RawNurse struct {
	ID       string   `json:"id"`
	Contract string   `json:"contract"`
	Skills   []string `json:"skills"`
}

// RawWeekdata 周数据文件
type RawWeekdata struct {
	Scenario         string               `json:"scenario"`
	Requirements     []RawRequirement     `json:"requirements"`
	ShiftOffRequests []RawShiftOffRequest `json:"shiftOffRequests"`
}

// RawStaffing 某天的人数需求
type RawStaffing struct {
	Minimum int `json:"minimum"`
	Optimal int `json:"optimal"`
}

// RawRequirement 某班次某技能一周的人数需求
type RawRequirement struct {
	ShiftType              string      `json:"shiftType"`
	Skill                  string      `json:"skill"`
	RequirementOnMonday    RawStaffing `json:"requirementOnMonday"`
	RequirementOnTuesday   RawStaffing `json:"requirementOnTuesday"`
	RequirementOnWednesday RawStaffing `json:"requirementOnWednesday"`
	RequirementOnThursday  RawStaffing `json:"requirementOnThursday"`
	RequirementOnFriday    RawStaffing `json:"requirementOnFriday"`
	RequirementOnSaturday  RawStaffing `json:"requirementOnSaturday"`
	RequirementOnSunday    RawStaffing `json:"requirementOnSunday"`
}

// Day 返回某天的需求
func (r *RawRequirement) Day(d model.Weekday) RawStaffing {
	switch d {
	case model.Mon:
		return r.RequirementOnMonday
	case model.Tue:
		return r.RequirementOnTuesday
	case model.Wed:
		return r.RequirementOnWednesday
	case model.Thu:
		return r.RequirementOnThursday
	case model.Fri:
		return r.RequirementOnFriday
	case model.Sat:
		return r.RequirementOnSaturday
	case model.Sun:
		return r.RequirementOnSunday
	}
	return RawStaffing{}
}

// RawShiftOffRequest 休息申请
type RawShiftOffRequest struct {
	Nurse     string `json:"nurse"`
	ShiftType string `json:"shiftType"`
	Day       string `json:"day"`
}

// RawHistory 历史文件，Week 为已完成的周数
type RawHistory struct {
	Week         int               `json:"week"`
	Scenario     string            `json:"scenario"`
	NurseHistory []RawNurseHistory `json:"nurseHistory"`

	// AccObjValue 之前各周的累计目标值（放大后），仅由本系统写出
	AccObjValue int64 `json:"accObjValue,omitempty"`
}

// RawNurseHistory 单个护士的历史
type RawNurseHistory struct {
	Nurse                          string `json:"nurse"`
	NumberOfAssignments            int    `json:"numberOfAssignments"`
	NumberOfWorkingWeekends        int    `json:"numberOfWorkingWeekends"`
	LastAssignedShiftType          string `json:"lastAssignedShiftType"`
	NumberOfConsecutiveAssignments int    `json:"numberOfConsecutiveAssignments"`
	NumberOfConsecutiveWorkingDays int    `json:"numberOfConsecutiveWorkingDays"`
	NumberOfConsecutiveDaysOff     int    `json:"numberOfConsecutiveDaysOff"`
}

// RawSolution 解文件
type RawSolution struct {
	Scenario    string          `json:"scenario"`
	Week        int             `json:"week"`
	Assignments []RawAssignment `json:"assignments"`
}

// RawAssignment 单条分配
type RawAssignment struct {
	Nurse     string `json:"nurse"`
	Day       string `json:"day"`
	ShiftType string `json:"shiftType"`
	Skill     string `json:"skill"`
}
