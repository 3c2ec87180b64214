package model

import (
	"testing"
)

func TestParseWeekday(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   Weekday
		wantOK bool
	}{
		{name: "短名称", input: "Mon", want: Mon, wantOK: true},
		{name: "长名称", input: "Sunday", want: Sun, wantOK: true},
		{name: "周六", input: "Sat", want: Sat, wantOK: true},
		{name: "哨兵不可解析", input: "HIS", want: HIS, wantOK: false},
		{name: "未知名称", input: "Funday", want: HIS, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseWeekday(tt.input)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("ParseWeekday(%q) = %v, %v, expected %v, %v", tt.input, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestIdentifierSentinels(t *testing.T) {
	if NurseNone != -1 || ContractNone != -1 {
		t.Error("NurseNone and ContractNone should be Begin - 1")
	}
	if ShiftBegin != 1 || SkillBegin != 1 {
		t.Error("ShiftBegin and SkillBegin should follow None")
	}
	if ShiftAny != -1 {
		t.Errorf("ShiftAny should be None - 1, got %d", ShiftAny)
	}
	if WeekdaySizeFull != 9 || WeekdayNum != 7 {
		t.Errorf("Unexpected week sizes: full=%d num=%d", WeekdaySizeFull, WeekdayNum)
	}
}

func TestForbiddenMove(t *testing.T) {
	if ForbiddenMove != 2*MaxObjValue {
		t.Error("ForbiddenMove should be 2 * MaxObjValue")
	}
	if !IsForbidden(ForbiddenMove) || IsForbidden(MaxObjValue) {
		t.Error("IsForbidden threshold is wrong")
	}
	if AMP != 168 {
		t.Errorf("AMP should be 168, got %d", AMP)
	}
	for _, decay := range []ObjValue{2, 3, 4, 6, 7, 8} {
		if (30*AMP)%decay != 0 {
			t.Errorf("30*AMP should divide by %d", decay)
		}
	}
}

func TestSkillSet(t *testing.T) {
	var s SkillSet
	s = s.Add(SkillBegin).Add(SkillBegin + 2)

	if !s.Has(SkillBegin) || s.Has(SkillBegin+1) || !s.Has(SkillBegin+2) {
		t.Errorf("SkillSet membership wrong: %b", s)
	}
	if s.Has(SkillNone) {
		t.Error("SkillNone should never be a member")
	}
	if s.Count() != 2 {
		t.Errorf("Expected 2 skills, got %d", s.Count())
	}
}

func TestSuccessionTable(t *testing.T) {
	table := NewSuccessionTable(3)
	table.Forbid(2, 1)

	if table.Legal(2, 1) {
		t.Error("Forbidden succession should be illegal")
	}
	for next := ShiftID(0); next < 3; next++ {
		if !table.Legal(ShiftNone, next) {
			t.Errorf("None row should stay legal for %d", next)
		}
	}

	other := NewSuccessionTable(3)
	if table.Equal(other) {
		t.Error("Tables should differ")
	}
	other.Forbid(2, 1)
	if !table.Equal(other) {
		t.Error("Tables should be equal")
	}
}

func TestHistoryInfo_SetWeek(t *testing.T) {
	h := NewHistoryInfo(3, 4, 2)

	if h.CurrentWeek != 3 {
		t.Errorf("Expected current week 3, got %d", h.CurrentWeek)
	}
	if h.RestWeekCount != 2 {
		t.Errorf("Expected rest week count 2, got %d", h.RestWeekCount)
	}

	c := h.Clone()
	c.TotalAssignNums[0] = 5
	if h.TotalAssignNums[0] != 0 {
		t.Error("Clone should not share slices")
	}
}

func TestWeekdataInfo_ShiftOffAny(t *testing.T) {
	w := NewWeekdataInfo(2, 3, 2)
	w.SetShiftOff(1, Tue, ShiftAny)
	w.SetShiftOff(0, Mon, 2)

	if !w.ShiftOff(1, Tue, 1) || !w.ShiftOff(1, Tue, 2) {
		t.Error("Any request should cover every shift")
	}
	if w.ShiftOff(1, Tue, ShiftNone) {
		t.Error("Any request should not cover ShiftNone")
	}
	if !w.ShiftOff(0, Mon, 2) || w.ShiftOff(0, Mon, 1) {
		t.Error("Specific request should only cover its shift")
	}
}

func TestOutput(t *testing.T) {
	o := NewOutput(2)
	o.Set(0, Sat, Assign{Shift: 1, Skill: 1})
	o.Set(0, Mon, Assign{Shift: 2, Skill: 1})

	if o.AssignNum(0) != 2 || o.AssignNum(1) != 0 {
		t.Errorf("Unexpected assign nums %d %d", o.AssignNum(0), o.AssignNum(1))
	}
	if !o.WorkingWeekend(0) || o.WorkingWeekend(1) {
		t.Error("Working weekend detection wrong")
	}

	c := o.Clone()
	c.Set(0, Mon, Assign{})
	if !o.At(0, Mon).IsWorking() {
		t.Error("Clone should not share assignments")
	}
}
