package instance_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/paiban/nrp/internal/testutil"
	apperrors "github.com/paiban/nrp/pkg/errors"
	"github.com/paiban/nrp/pkg/instance"
	"github.com/paiban/nrp/pkg/model"
)

func TestCompile_LegalNextShifts(t *testing.T) {
	rs := &instance.RawScenario{
		ID:            "n001w1",
		NumberOfWeeks: 1,
		Skills:        []string{"Nurse"},
		ShiftTypes: []instance.RawShiftType{
			{ID: "Early", MinimumNumberOfConsecutiveAssignments: 1, MaximumNumberOfConsecutiveAssignments: 5},
			{ID: "Late", MinimumNumberOfConsecutiveAssignments: 1, MaximumNumberOfConsecutiveAssignments: 5},
		},
		ForbiddenShiftTypeSuccessions: []instance.RawSuccession{
			{PrecedingShiftType: "Early", SucceedingShiftTypes: []string{"Late"}},
		},
		Contracts: []instance.RawContract{{ID: "C"}},
		Nurses:    []instance.RawNurse{{ID: "N", Contract: "C", Skills: []string{"Nurse"}}},
	}

	var sc model.ScenarioInfo
	var names model.NameInfo
	if err := instance.CompileScenario(rs, &sc, &names); err != nil {
		t.Fatalf("CompileScenario failed: %v", err)
	}

	early, late := names.ShiftMap["Early"], names.ShiftMap["Late"]
	if sc.LegalNextShifts.Legal(early, late) {
		t.Error("Early -> Late should be forbidden")
	}
	if !sc.LegalNextShifts.Legal(late, early) {
		t.Error("Late -> Early should stay legal")
	}
	for next := model.ShiftNone; int(next) < sc.ShiftSize(); next++ {
		if !sc.LegalNextShifts.Legal(model.ShiftNone, next) {
			t.Errorf("None -> %d should be legal", next)
		}
	}
}

func TestCompile_Deterministic(t *testing.T) {
	first := testutil.Input(t)
	second := testutil.Input(t)

	opts := cmp.Options{
		cmp.AllowUnexported(model.SuccessionTable{}, model.WeekdataInfo{}, model.StaffingTable{}),
		cmpopts.EquateEmpty(),
	}
	if diff := cmp.Diff(first.Names, second.Names, opts); diff != "" {
		t.Errorf("Name tables differ (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(first.Scenario, second.Scenario, opts); diff != "" {
		t.Errorf("Scenario differs (-first +second):\n%s", diff)
	}
	if !first.Scenario.LegalNextShifts.Equal(second.Scenario.LegalNextShifts) {
		t.Error("LegalNextShifts should be identical")
	}
}

func TestCompile_IDSpaces(t *testing.T) {
	in := testutil.Input(t)

	if in.Scenario.NurseNum != 3 || in.Scenario.ShiftTypeNum != 3 || in.Scenario.SkillTypeNum != 2 {
		t.Fatalf("Unexpected counts %+v", in.Scenario)
	}
	if in.Names.ShiftMap["Early"] != model.ShiftBegin {
		t.Errorf("First shift should be ShiftBegin, got %d", in.Names.ShiftMap["Early"])
	}
	if in.Names.SkillMap["HeadNurse"] != model.SkillBegin {
		t.Errorf("First skill should be SkillBegin, got %d", in.Names.SkillMap["HeadNurse"])
	}
	if in.Names.NurseMap["Alice"] != model.NurseBegin {
		t.Errorf("First nurse should be NurseBegin, got %d", in.Names.NurseMap["Alice"])
	}

	fullTime := in.Scenario.Contracts[in.Names.ContractMap["FullTime"]]
	if len(fullTime.Nurses) != 2 || !fullTime.CompleteWeekend {
		t.Errorf("FullTime contract compiled wrong: %+v", fullTime)
	}
	for n := model.NurseBegin; int(n) < in.NurseNum(); n++ {
		if in.Scenario.Nurses[n].Contract == model.ContractNone {
			t.Errorf("Nurse %d has no contract", n)
		}
	}

	bob := in.Names.NurseMap["Bob"]
	if in.Scenario.Nurses[bob].HasSkill(in.Names.SkillMap["HeadNurse"]) {
		t.Error("Bob should not have HeadNurse")
	}
}

func TestCompile_Weekdata(t *testing.T) {
	in := testutil.Input(t)
	early := in.Names.ShiftMap["Early"]
	late := in.Names.ShiftMap["Late"]
	nurse := in.Names.SkillMap["Nurse"]

	for d := model.Mon; d <= model.Sun; d++ {
		if in.Weekdata.MinNurseNums.At(d, early, nurse) != 1 || in.Weekdata.OptNurseNums.At(d, early, nurse) != 2 {
			t.Errorf("Early/Nurse staffing wrong on %s", d)
		}
	}

	alice := in.Names.NurseMap["Alice"]
	bob := in.Names.NurseMap["Bob"]
	if !in.Weekdata.ShiftOff(alice, model.Mon, early) || !in.Weekdata.ShiftOff(alice, model.Mon, late) {
		t.Error("Alice's Any request on Monday should cover all shifts")
	}
	if !in.Weekdata.ShiftOff(bob, model.Wed, late) || in.Weekdata.ShiftOff(bob, model.Wed, early) {
		t.Error("Bob's request should only cover Late on Wednesday")
	}
}

func TestCompile_History(t *testing.T) {
	rh := testutil.History()
	rh.Week = 1
	rh.NurseHistory[0].LastAssignedShiftType = "Night"
	rh.NurseHistory[0].NumberOfConsecutiveAssignments = 2

	in, err := instance.Compile(testutil.Scenario(), testutil.Weekdata(), rh)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if in.History.CurrentWeek != 2 || in.History.RestWeekCount != 1 {
		t.Errorf("Unexpected week counters %+v", in.History)
	}
	if in.History.LastShifts[0] != in.Names.ShiftMap["Night"] {
		t.Errorf("Unexpected last shift %d", in.History.LastShifts[0])
	}
}

func TestCompile_LookupErrors(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(rw *instance.RawWeekdata, rh *instance.RawHistory)
		wantName string
	}{
		{
			name: "周数据引用未知班次",
			mutate: func(rw *instance.RawWeekdata, rh *instance.RawHistory) {
				rw.Requirements[0].ShiftType = "Evening"
			},
			wantName: "Evening",
		},
		{
			name: "周数据引用未知技能",
			mutate: func(rw *instance.RawWeekdata, rh *instance.RawHistory) {
				rw.Requirements[0].Skill = "Surgeon"
			},
			wantName: "Surgeon",
		},
		{
			name: "休息申请引用未知护士",
			mutate: func(rw *instance.RawWeekdata, rh *instance.RawHistory) {
				rw.ShiftOffRequests[0].Nurse = "Mallory"
			},
			wantName: "Mallory",
		},
		{
			name: "休息申请引用未知星期",
			mutate: func(rw *instance.RawWeekdata, rh *instance.RawHistory) {
				rw.ShiftOffRequests[0].Day = "Funday"
			},
			wantName: "Funday",
		},
		{
			name: "历史引用未知护士",
			mutate: func(rw *instance.RawWeekdata, rh *instance.RawHistory) {
				rh.NurseHistory[0].Nurse = "Mallory"
			},
			wantName: "Mallory",
		},
		{
			name: "历史引用未知班次",
			mutate: func(rw *instance.RawWeekdata, rh *instance.RawHistory) {
				rh.NurseHistory[1].LastAssignedShiftType = "Evening"
			},
			wantName: "Evening",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rw, rh := testutil.Weekdata(), testutil.History()
			tt.mutate(rw, rh)

			_, err := instance.Compile(testutil.Scenario(), rw, rh)
			if !apperrors.Is(err, apperrors.CodeLookupFailed) {
				t.Fatalf("Expected LOOKUP_FAILED, got %v", err)
			}
			var appErr *apperrors.AppError
			if !errors.As(err, &appErr) || appErr.Fields["name"] != tt.wantName {
				t.Errorf("Expected name field %q, got %v", tt.wantName, err)
			}
		})
	}
}

func TestSolutionRoundTrip(t *testing.T) {
	in := testutil.Input(t)
	out := model.NewOutput(in.NurseNum())
	early := in.Names.ShiftMap["Early"]
	nurse := in.Names.SkillMap["Nurse"]
	out.Set(1, model.Tue, model.Assign{Shift: early, Skill: nurse})
	out.Set(2, model.Sun, model.Assign{Shift: early, Skill: nurse})

	raw := instance.EncodeSolution(in, out)
	if len(raw.Assignments) != 2 {
		t.Fatalf("Expected 2 raw assignments, got %d", len(raw.Assignments))
	}

	raw.Assignments = append(raw.Assignments, instance.RawAssignment{
		Nurse: "Bob", Day: "Tuesday", ShiftType: "Late", Skill: "Nurse",
	})
	decoded, duplicates, err := instance.DecodeSolution(raw, in)
	if err != nil {
		t.Fatalf("DecodeSolution failed: %v", err)
	}
	if duplicates != 1 {
		t.Errorf("Expected 1 duplicate, got %d", duplicates)
	}
	if decoded.At(1, model.Tue) != out.At(1, model.Tue) || decoded.At(2, model.Sun) != out.At(2, model.Sun) {
		t.Error("Decoded solution differs from original")
	}
}

func TestFiles(t *testing.T) {
	dir := testutil.WriteInstanceDir(t)

	rs, err := instance.LoadScenario(instance.ScenarioPath(dir, testutil.ScenarioName))
	if err != nil {
		t.Fatalf("LoadScenario failed: %v", err)
	}
	if rs.ID != testutil.ScenarioName || len(rs.Nurses) != 3 {
		t.Errorf("Unexpected scenario %+v", rs)
	}

	_, err = instance.LoadWeekdata(filepath.Join(dir, "missing.json"))
	if !apperrors.Is(err, apperrors.CodeNotFound) {
		t.Errorf("Expected NOT_FOUND, got %v", err)
	}
}
