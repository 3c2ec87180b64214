package solver

import (
	"github.com/paiban/nrp/pkg/model"
)

// HistoryProjector 根据本周接受的方案推导下一周的历史
type HistoryProjector interface {
	Project(in *model.Input, out *model.Output) model.HistoryInfo
}

// WeeklyHistoryProjector 按周推进历史的默认实现
type WeeklyHistoryProjector struct{}

// Project 推导下一周的历史，不修改 in.History
func (WeeklyHistoryProjector) Project(in *model.Input, out *model.Output) model.HistoryInfo {
	prev := &in.History
	next := prev.Clone()
	next.AccObjValue = prev.AccObjValue + out.ObjValue

	for n := model.NurseBegin; int(n) < in.NurseNum(); n++ {
		next.TotalAssignNums[n] += out.AssignNum(n)
		if out.WorkingWeekend(n) {
			next.TotalWorkingWeekendNums[n]++
		}

		last := out.At(n, model.Sun).Shift
		next.LastShifts[n] = last

		if last == model.ShiftNone {
			next.ConsecutiveShiftNums[n] = 0
			next.ConsecutiveDayNums[n] = 0
			days := trailing(func(d model.Weekday) bool { return !out.At(n, d).IsWorking() })
			if days == model.WeekdayNum && prev.LastShifts[n] == model.ShiftNone {
				days += prev.ConsecutiveDayoffNums[n]
			}
			next.ConsecutiveDayoffNums[n] = days
			continue
		}

		shifts := trailing(func(d model.Weekday) bool { return out.At(n, d).Shift == last })
		if shifts == model.WeekdayNum && prev.LastShifts[n] == last {
			shifts += prev.ConsecutiveShiftNums[n]
		}
		days := trailing(func(d model.Weekday) bool { return out.At(n, d).IsWorking() })
		if days == model.WeekdayNum && prev.LastShifts[n] != model.ShiftNone {
			days += prev.ConsecutiveDayNums[n]
		}
		next.ConsecutiveShiftNums[n] = shifts
		next.ConsecutiveDayNums[n] = days
		next.ConsecutiveDayoffNums[n] = 0
	}

	next.SetWeek(prev.PastWeekCount+1, in.Scenario.TotalWeekNum)
	return next
}

// trailing 从周日往前数满足条件的连续天数
func trailing(match func(d model.Weekday) bool) int {
	count := 0
	for d := model.Sun; d >= model.Mon && match(d); d-- {
		count++
	}
	return count
}
