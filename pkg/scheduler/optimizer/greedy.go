// Package optimizer 提供单周搜索算法
package optimizer

import (
	"context"
	"sort"

	"github.com/paiban/nrp/pkg/model"
	"github.com/paiban/nrp/pkg/scheduler/penalty"
	"github.com/paiban/nrp/pkg/scheduler/solver"
)

// GreedySolver 贪心构造器
// 在修复模式的权重下逐天填充人数需求，先满足最少人数再补到最优人数
type GreedySolver struct{}

// NewGreedySolver 创建贪心构造器
func NewGreedySolver() *GreedySolver {
	return &GreedySolver{}
}

// Name 返回求解器名称
func (s *GreedySolver) Name() string {
	return "greedy"
}

// Search 反复随机构造并提交，直到预算用完
func (s *GreedySolver) Search(ctx context.Context, sc *solver.SearchContext) error {
	for sc.Next(ctx) {
		sc.Submit(s.Construct(sc))
	}
	return ctx.Err()
}

// requirement 单个 (天, 班次, 技能) 需求
type requirement struct {
	day    model.Weekday
	shift  model.ShiftID
	skill  model.SkillID
	target int
}

// Construct 生成一个新方案，结果随 sc.Rand 变化
func (s *GreedySolver) Construct(sc *solver.SearchContext) *model.Output {
	in := sc.Input
	out := model.NewOutput(in.NurseNum())
	assigned := make([]int, in.NurseNum())

	var w penalty.Weights
	sc.Penalty.With(penalty.ModeRepair, func() {
		w = sc.Penalty.Weights()
	})

	for _, table := range []model.StaffingTable{in.Weekdata.MinNurseNums, in.Weekdata.OptNurseNums} {
		reqs := requirements(in, table)
		for _, req := range reqs {
			have := countAssigned(out, req)
			for have < req.target {
				n, ok := s.pickNurse(sc, &w, out, assigned, req)
				if !ok {
					break
				}
				out.Set(n, req.day, model.Assign{Shift: req.shift, Skill: req.skill})
				assigned[n]++
				have++
			}
		}
	}
	return out
}

// requirements 按天展开人数表，同一天内稀缺技能排在前面
func requirements(in *model.Input, table model.StaffingTable) []requirement {
	holders := make([]int, in.Scenario.SkillSize())
	for _, nurse := range in.Scenario.Nurses {
		for k := model.SkillBegin; int(k) < in.Scenario.SkillSize(); k++ {
			if nurse.HasSkill(k) {
				holders[k]++
			}
		}
	}

	var reqs []requirement
	for d := model.Mon; d <= model.Sun; d++ {
		for sh := model.ShiftBegin; int(sh) < in.Scenario.ShiftSize(); sh++ {
			for k := model.SkillBegin; int(k) < in.Scenario.SkillSize(); k++ {
				if target := table.At(d, sh, k); target > 0 {
					reqs = append(reqs, requirement{day: d, shift: sh, skill: k, target: target})
				}
			}
		}
	}
	sort.SliceStable(reqs, func(i, j int) bool {
		if reqs[i].day != reqs[j].day {
			return reqs[i].day < reqs[j].day
		}
		return holders[reqs[i].skill] < holders[reqs[j].skill]
	})
	return reqs
}

func countAssigned(out *model.Output, req requirement) int {
	count := 0
	for n := model.NurseBegin; int(n) < out.NurseNum(); n++ {
		if a := out.At(n, req.day); a.Shift == req.shift && a.Skill == req.skill {
			count++
		}
	}
	return count
}

// pickNurse 从当天空闲且具备技能的护士中选代价最小者，代价相同时按随机顺序
func (s *GreedySolver) pickNurse(sc *solver.SearchContext, w *penalty.Weights, out *model.Output, assigned []int, req requirement) (model.NurseID, bool) {
	in := sc.Input
	order := sc.Rand.Perm(in.NurseNum())

	best := model.NurseNone
	var bestCost model.ObjValue
	for _, i := range order {
		n := model.NurseID(i)
		if out.At(n, req.day).IsWorking() || !in.Scenario.Nurses[n].HasSkill(req.skill) {
			continue
		}
		cost := assignCost(sc, w, out, assigned, n, req)
		if best == model.NurseNone || cost < bestCost {
			best, bestCost = n, cost
		}
	}
	return best, best != model.NurseNone
}

// assignCost 估算把护士排到该需求上的增量代价
func assignCost(sc *solver.SearchContext, w *penalty.Weights, out *model.Output, assigned []int, n model.NurseID, req requirement) model.ObjValue {
	in := sc.Input
	var cost model.ObjValue

	prev := in.History.LastShifts[n]
	if req.day > model.Mon {
		prev = out.At(n, req.day-1).Shift
	}
	if prev != model.ShiftNone && !in.Scenario.LegalNextShifts.Legal(prev, req.shift) {
		cost += w.Succession
	}
	if req.day < model.Sun {
		if next := out.At(n, req.day+1).Shift; next != model.ShiftNone && !in.Scenario.LegalNextShifts.Legal(req.shift, next) {
			cost += w.Succession
		}
	}

	if in.Weekdata.ShiftOff(n, req.day, req.shift) {
		cost += w.Preference
	}
	if sc.Budget != nil && assigned[n] >= sc.Budget.RestMaxShiftNum[n] {
		cost += w.TotalAssign
	}
	if req.day.IsWeekend() && !out.WorkingWeekend(n) && sc.Budget != nil &&
		sc.Budget.RestMaxWorkingWeekendNum[n] <= 0 {
		cost += w.TotalWorkingWeekend
	}
	if maxDays := in.Scenario.Contract(n).MaxConsecutiveDayNum; workingRun(in, out, n, req.day) >= maxDays {
		cost += w.ConsecutiveDay
	}
	return cost
}

// workingRun 该天之前连续上班的天数，周一接上历史
func workingRun(in *model.Input, out *model.Output, n model.NurseID, day model.Weekday) int {
	run := 0
	for d := day - 1; d >= model.Mon; d-- {
		if !out.At(n, d).IsWorking() {
			return run
		}
		run++
	}
	if in.History.LastShifts[n] != model.ShiftNone {
		run += in.History.ConsecutiveDayNums[n]
	}
	return run
}
