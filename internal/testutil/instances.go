// Package testutil 提供各包测试共用的小型实例
package testutil

import (
	"testing"

	"github.com/paiban/nrp/pkg/instance"
	"github.com/paiban/nrp/pkg/model"
)

// ScenarioName 测试场景名称
const ScenarioName = "n003w2"

// Scenario 三名护士、两种技能、三种班次、两周的场景
// 禁止 Late→Early、Night→Early、Night→Late
func Scenario() *instance.RawScenario {
	return &instance.RawScenario{
		ID:            ScenarioName,
		NumberOfWeeks: 2,
		Skills:        []string{"HeadNurse", "Nurse"},
		ShiftTypes: []instance.RawShiftType{
			{ID: "Early", MinimumNumberOfConsecutiveAssignments: 2, MaximumNumberOfConsecutiveAssignments: 5},
			{ID: "Late", MinimumNumberOfConsecutiveAssignments: 2, MaximumNumberOfConsecutiveAssignments: 5},
			{ID: "Night", MinimumNumberOfConsecutiveAssignments: 3, MaximumNumberOfConsecutiveAssignments: 5},
		},
		ForbiddenShiftTypeSuccessions: []instance.RawSuccession{
			{PrecedingShiftType: "Early", SucceedingShiftTypes: []string{}},
			{PrecedingShiftType: "Late", SucceedingShiftTypes: []string{"Early"}},
			{PrecedingShiftType: "Night", SucceedingShiftTypes: []string{"Early", "Late"}},
		},
		Contracts: []instance.RawContract{
			{
				ID:                                    "FullTime",
				MinimumNumberOfAssignments:            8,
				MaximumNumberOfAssignments:            10,
				MinimumNumberOfConsecutiveWorkingDays: 2,
				MaximumNumberOfConsecutiveWorkingDays: 5,
				MinimumNumberOfConsecutiveDaysOff:     1,
				MaximumNumberOfConsecutiveDaysOff:     3,
				MaximumNumberOfWorkingWeekends:        1,
				CompleteWeekends:                      1,
			},
			{
				ID:                                    "PartTime",
				MinimumNumberOfAssignments:            4,
				MaximumNumberOfAssignments:            8,
				MinimumNumberOfConsecutiveWorkingDays: 1,
				MaximumNumberOfConsecutiveWorkingDays: 4,
				MinimumNumberOfConsecutiveDaysOff:     1,
				MaximumNumberOfConsecutiveDaysOff:     5,
				MaximumNumberOfWorkingWeekends:        2,
				CompleteWeekends:                      0,
			},
		},
		Nurses: []instance.RawNurse{
			{ID: "Alice", Contract: "FullTime", Skills: []string{"HeadNurse", "Nurse"}},
			{ID: "Bob", Contract: "FullTime", Skills: []string{"Nurse"}},
			{ID: "Carol", Contract: "PartTime", Skills: []string{"Nurse"}},
		},
	}
}

func staffing(min, opt int) instance.RawStaffing {
	return instance.RawStaffing{Minimum: min, Optimal: opt}
}

// Weekdata 每天 Early/Nurse 最少1人最优2人，Late/HeadNurse 最优1人
func Weekdata() *instance.RawWeekdata {
	early := staffing(1, 2)
	late := staffing(0, 1)
	return &instance.RawWeekdata{
		Scenario: ScenarioName,
		Requirements: []instance.RawRequirement{
			{
				ShiftType:              "Early",
				Skill:                  "Nurse",
				RequirementOnMonday:    early,
				RequirementOnTuesday:   early,
				RequirementOnWednesday: early,
				RequirementOnThursday:  early,
				RequirementOnFriday:    early,
				RequirementOnSaturday:  early,
				RequirementOnSunday:    early,
			},
			{
				ShiftType:              "Late",
				Skill:                  "HeadNurse",
				RequirementOnMonday:    late,
				RequirementOnTuesday:   late,
				RequirementOnWednesday: late,
				RequirementOnThursday:  late,
				RequirementOnFriday:    late,
				RequirementOnSaturday:  late,
				RequirementOnSunday:    late,
			},
		},
		ShiftOffRequests: []instance.RawShiftOffRequest{
			{Nurse: "Alice", ShiftType: "Any", Day: "Monday"},
			{Nurse: "Bob", ShiftType: "Late", Day: "Wed"},
		},
	}
}

// History 第0周的初始历史，所有护士此前均休息
func History() *instance.RawHistory {
	rh := &instance.RawHistory{Week: 0, Scenario: ScenarioName}
	for _, n := range []string{"Alice", "Bob", "Carol"} {
		rh.NurseHistory = append(rh.NurseHistory, instance.RawNurseHistory{
			Nurse:                      n,
			LastAssignedShiftType:      instance.NameNone,
			NumberOfConsecutiveDaysOff: 2,
		})
	}
	return rh
}

// Input 编译测试实例
func Input(t testing.TB) *model.Input {
	t.Helper()
	in, err := instance.Compile(Scenario(), Weekdata(), History())
	if err != nil {
		t.Fatalf("compile test instance: %v", err)
	}
	return in
}

// WriteInstanceDir 按约定目录结构写出测试实例，返回实例根目录
// 写出 Sc、H0-0 与 WD-0、WD-1 四个文件
func WriteInstanceDir(t testing.TB) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]interface{}{
		instance.ScenarioPath(dir, ScenarioName):    Scenario(),
		instance.HistoryPath(dir, ScenarioName, 0):  History(),
		instance.WeekdataPath(dir, ScenarioName, 0): Weekdata(),
		instance.WeekdataPath(dir, ScenarioName, 1): Weekdata(),
	}
	for path, v := range files {
		if err := instance.WriteJSON(path, v); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	return dir
}
