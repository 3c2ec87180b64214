package instance

import (
	apperrors "github.com/paiban/nrp/pkg/errors"
	"github.com/paiban/nrp/pkg/model"
)

// EncodeSolution 将单周方案转换为按名称表示的解文件
func EncodeSolution(in *model.Input, out *model.Output) *RawSolution {
	sol := &RawSolution{
		Scenario:    in.Names.ScenarioName,
		Week:        in.History.PastWeekCount,
		Assignments: make([]RawAssignment, 0, in.NurseNum()*model.WeekdayNum),
	}
	for n := model.NurseBegin; int(n) < in.NurseNum(); n++ {
		for d := model.Mon; d <= model.Sun; d++ {
			a := out.At(n, d)
			if !a.IsWorking() {
				continue
			}
			sol.Assignments = append(sol.Assignments, RawAssignment{
				Nurse:     in.Names.NurseNames[n],
				Day:       d.String(),
				ShiftType: in.Names.ShiftNames[a.Shift],
				Skill:     in.Names.SkillNames[a.Skill],
			})
		}
	}
	return sol
}

// DecodeSolution 将解文件转换为单周方案
// 同一护士同一天出现多条分配时保留第一条，并返回重复条数（用于单日单班检查）
func DecodeSolution(raw *RawSolution, in *model.Input) (*model.Output, int, error) {
	out := model.NewOutput(in.NurseNum())
	seen := make([]bool, in.NurseNum()*model.WeekdaySizeFull)
	duplicates := 0

	for _, ra := range raw.Assignments {
		nurse, ok := in.Names.NurseMap[ra.Nurse]
		if !ok {
			return nil, 0, apperrors.LookupFailed("护士", ra.Nurse)
		}
		day, ok := model.ParseWeekday(ra.Day)
		if !ok {
			return nil, 0, apperrors.LookupFailed("星期", ra.Day)
		}
		shift, ok := in.Names.ShiftMap[ra.ShiftType]
		if !ok {
			return nil, 0, apperrors.LookupFailed("班次", ra.ShiftType)
		}
		skill, ok := in.Names.SkillMap[ra.Skill]
		if !ok && shift != model.ShiftNone {
			return nil, 0, apperrors.LookupFailed("技能", ra.Skill)
		}
		if shift == model.ShiftNone {
			continue
		}

		cell := int(nurse)*model.WeekdaySizeFull + int(day)
		if seen[cell] {
			duplicates++
			continue
		}
		seen[cell] = true
		out.Set(nurse, day, model.Assign{Shift: shift, Skill: skill})
	}

	return out, duplicates, nil
}

// EncodeHistory 将历史转换为按名称表示的历史文件
func EncodeHistory(in *model.Input, h *model.HistoryInfo) *RawHistory {
	rh := &RawHistory{
		Week:         h.PastWeekCount,
		Scenario:     in.Names.ScenarioName,
		NurseHistory: make([]RawNurseHistory, 0, in.NurseNum()),
		AccObjValue:  h.AccObjValue,
	}
	for n := model.NurseBegin; int(n) < in.NurseNum(); n++ {
		rh.NurseHistory = append(rh.NurseHistory, RawNurseHistory{
			Nurse:                          in.Names.NurseNames[n],
			NumberOfAssignments:            h.TotalAssignNums[n],
			NumberOfWorkingWeekends:        h.TotalWorkingWeekendNums[n],
			LastAssignedShiftType:          in.Names.ShiftNames[h.LastShifts[n]],
			NumberOfConsecutiveAssignments: h.ConsecutiveShiftNums[n],
			NumberOfConsecutiveWorkingDays: h.ConsecutiveDayNums[n],
			NumberOfConsecutiveDaysOff:     h.ConsecutiveDayoffNums[n],
		})
	}
	return rh
}
