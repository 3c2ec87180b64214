package builtin

import (
	"fmt"

	"github.com/paiban/nrp/pkg/model"
	"github.com/paiban/nrp/pkg/scheduler/constraint"
	"github.com/paiban/nrp/pkg/scheduler/penalty"
)

// run 一段状态相同的连续天
// length 含历史部分，inWeek 只计本周部分，open 表示在周日仍未结束
type run struct {
	state  int
	length int
	inWeek int
	end    model.Weekday
	open   bool
}

// scanRuns 从历史状态出发扫描本周，按顺序回调每一段连续天
// 历史中的连续段延续到周一；在周一就被打断的历史段以 inWeek=0 回调
func scanRuns(histState, histLen int, state func(d model.Weekday) int, visit func(r run)) {
	cur := run{state: histState, length: histLen}
	for d := model.Mon; d <= model.Sun; d++ {
		s := state(d)
		if s == cur.state {
			cur.length++
			cur.inWeek++
			continue
		}
		if cur.length > 0 {
			cur.end = d - 1
			visit(cur)
		}
		cur = run{state: s, length: 1, inWeek: 1}
	}
	cur.end = model.Sun
	cur.open = true
	visit(cur)
}

// runCost 连续段的违反量
// 超长部分只计本周贡献的天数，过短只在段已经结束时计入
func runCost(r run, minLen, maxLen int) int {
	cost := 0
	if r.length > maxLen {
		cost += min(r.length-maxLen, r.inWeek)
	}
	if !r.open && r.length < minLen {
		cost += minLen - r.length
	}
	return cost
}

const (
	dayOff  = 0
	working = 1
)

// scanDayRuns 扫描上班与休息交替的连续段
func scanDayRuns(ctx *constraint.Context, n model.NurseID, visit func(r run)) {
	h := &ctx.Input.History
	histState, histLen := dayOff, h.ConsecutiveDayoffNums[n]
	if h.LastShifts[n] != model.ShiftNone {
		histState, histLen = working, h.ConsecutiveDayNums[n]
	}
	scanRuns(histState, histLen, func(d model.Weekday) int {
		if ctx.Output.At(n, d).IsWorking() {
			return working
		}
		return dayOff
	}, visit)
}

// ConsecutiveShiftConstraint 同一班次连续天数约束（软约束）
type ConsecutiveShiftConstraint struct {
	*BaseConstraint
}

// NewConsecutiveShiftConstraint 创建连续同班次约束
func NewConsecutiveShiftConstraint() *ConsecutiveShiftConstraint {
	return &ConsecutiveShiftConstraint{
		BaseConstraint: NewBaseConstraint(
			"连续同班次",
			constraint.TypeConsecutiveShift,
			constraint.CategorySoft,
			func(w *penalty.Weights) model.ObjValue { return w.ConsecutiveShift },
		),
	}
}

// Evaluate 评估整个排班
func (c *ConsecutiveShiftConstraint) Evaluate(ctx *constraint.Context) (model.ObjValue, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	var totalPenalty model.ObjValue
	unit := ctx.Weights().ConsecutiveShift
	h := &ctx.Input.History

	for n := model.NurseBegin; int(n) < ctx.Input.NurseNum(); n++ {
		histLen := 0
		if h.LastShifts[n] != model.ShiftNone {
			histLen = h.ConsecutiveShiftNums[n]
		}
		scanRuns(int(h.LastShifts[n]), histLen, func(d model.Weekday) int {
			return int(ctx.Output.At(n, d).Shift)
		}, func(r run) {
			shift := model.ShiftID(r.state)
			if shift == model.ShiftNone {
				return
			}
			info := ctx.Input.Scenario.Shifts[shift]
			cost := runCost(r, info.MinConsecutiveShiftNum, info.MaxConsecutiveShiftNum)
			if cost == 0 {
				return
			}
			p := model.ObjValue(cost) * unit
			totalPenalty += p
			if ctx.CollectDetails {
				violations = append(violations, c.CreateViolation(n, r.end,
					fmt.Sprintf("护士 %s 连续 %d 天 %s，要求 %d-%d 天",
						nurseName(ctx, n), r.length, shiftName(ctx, shift),
						info.MinConsecutiveShiftNum, info.MaxConsecutiveShiftNum),
					p,
				))
			}
		})
	}

	return totalPenalty, violations
}

// ConsecutiveDayConstraint 连续工作天数约束（软约束）
type ConsecutiveDayConstraint struct {
	*BaseConstraint
}

// NewConsecutiveDayConstraint 创建连续工作天数约束
func NewConsecutiveDayConstraint() *ConsecutiveDayConstraint {
	return &ConsecutiveDayConstraint{
		BaseConstraint: NewBaseConstraint(
			"连续工作天数",
			constraint.TypeConsecutiveDay,
			constraint.CategorySoft,
			func(w *penalty.Weights) model.ObjValue { return w.ConsecutiveDay },
		),
	}
}

// Evaluate 评估整个排班
func (c *ConsecutiveDayConstraint) Evaluate(ctx *constraint.Context) (model.ObjValue, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	var totalPenalty model.ObjValue
	unit := ctx.Weights().ConsecutiveDay

	for n := model.NurseBegin; int(n) < ctx.Input.NurseNum(); n++ {
		contract := ctx.Input.Scenario.Contract(n)
		scanDayRuns(ctx, n, func(r run) {
			if r.state != working {
				return
			}
			cost := runCost(r, contract.MinConsecutiveDayNum, contract.MaxConsecutiveDayNum)
			if cost == 0 {
				return
			}
			p := model.ObjValue(cost) * unit
			totalPenalty += p
			if ctx.CollectDetails {
				violations = append(violations, c.CreateViolation(n, r.end,
					fmt.Sprintf("护士 %s 连续工作 %d 天，要求 %d-%d 天",
						nurseName(ctx, n), r.length, contract.MinConsecutiveDayNum, contract.MaxConsecutiveDayNum),
					p,
				))
			}
		})
	}

	return totalPenalty, violations
}

// ConsecutiveDayOffConstraint 连续休息天数约束（软约束）
type ConsecutiveDayOffConstraint struct {
	*BaseConstraint
}

// NewConsecutiveDayOffConstraint 创建连续休息天数约束
func NewConsecutiveDayOffConstraint() *ConsecutiveDayOffConstraint {
	return &ConsecutiveDayOffConstraint{
		BaseConstraint: NewBaseConstraint(
			"连续休息天数",
			constraint.TypeConsecutiveDayOff,
			constraint.CategorySoft,
			func(w *penalty.Weights) model.ObjValue { return w.ConsecutiveDayOff },
		),
	}
}

// Evaluate 评估整个排班
func (c *ConsecutiveDayOffConstraint) Evaluate(ctx *constraint.Context) (model.ObjValue, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	var totalPenalty model.ObjValue
	unit := ctx.Weights().ConsecutiveDayOff

	for n := model.NurseBegin; int(n) < ctx.Input.NurseNum(); n++ {
		contract := ctx.Input.Scenario.Contract(n)
		scanDayRuns(ctx, n, func(r run) {
			if r.state != dayOff {
				return
			}
			cost := runCost(r, contract.MinConsecutiveDayoffNum, contract.MaxConsecutiveDayoffNum)
			if cost == 0 {
				return
			}
			p := model.ObjValue(cost) * unit
			totalPenalty += p
			if ctx.CollectDetails {
				violations = append(violations, c.CreateViolation(n, r.end,
					fmt.Sprintf("护士 %s 连续休息 %d 天，要求 %d-%d 天",
						nurseName(ctx, n), r.length, contract.MinConsecutiveDayoffNum, contract.MaxConsecutiveDayoffNum),
					p,
				))
			}
		})
	}

	return totalPenalty, violations
}
