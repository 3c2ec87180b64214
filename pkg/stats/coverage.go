package stats

import (
	"sort"

	"github.com/paiban/nrp/pkg/model"
)

// CoverageMetrics 人力需求覆盖指标
type CoverageMetrics struct {
	// 最少人数需求的满足情况
	RequiredMin     int     `json:"required_min"`
	CoveredMin      int     `json:"covered_min"`
	MinCoverage     float64 `json:"min_coverage"` // (%)
	RequiredOpt     int     `json:"required_opt"`
	CoveredOpt      int     `json:"covered_opt"`
	OptCoverage     float64 `json:"opt_coverage"` // (%)
	TotalAssigned   int     `json:"total_assigned"`
	SurplusAssigned int     `json:"surplus_assigned"` // 超出最优人数的分配

	DailyCoverage     map[string]DayCoverage `json:"daily_coverage"`
	ShiftTypeCoverage map[string]float64     `json:"shift_type_coverage"` // 按班次的最优人数覆盖率
	SkillCoverage     map[string]float64     `json:"skill_coverage"`      // 按技能的最优人数覆盖率

	Understaffed []StaffingGap `json:"understaffed"` // 低于最少人数
	Insufficient []StaffingGap `json:"insufficient"` // 达到最少但低于最优人数
}

// DayCoverage 每日覆盖情况
type DayCoverage struct {
	Day          string  `json:"day"`
	RequiredOpt  int     `json:"required_opt"`
	Assigned     int     `json:"assigned"`
	CoverageRate float64 `json:"coverage_rate"`
	StaffCount   int     `json:"staff_count"` // 当天上班的护士数
}

// StaffingGap 某天某班次某技能的人数缺口
type StaffingGap struct {
	Day      string `json:"day"`
	Shift    string `json:"shift"`
	Skill    string `json:"skill"`
	Required int    `json:"required"`
	Assigned int    `json:"assigned"`
	Shortage int    `json:"shortage"`
}

// CoverageAnalyzer 覆盖率分析器
type CoverageAnalyzer struct{}

// NewCoverageAnalyzer 创建覆盖率分析器
func NewCoverageAnalyzer() *CoverageAnalyzer {
	return &CoverageAnalyzer{}
}

// Analyze 统计单周方案对最少与最优人数的覆盖
func (c *CoverageAnalyzer) Analyze(in *model.Input, out *model.Output) *CoverageMetrics {
	m := &CoverageMetrics{
		DailyCoverage:     make(map[string]DayCoverage),
		ShiftTypeCoverage: make(map[string]float64),
		SkillCoverage:     make(map[string]float64),
	}
	if in == nil || out == nil {
		m.MinCoverage, m.OptCoverage = 100, 100
		return m
	}

	sc := &in.Scenario
	assigned := model.NewStaffingTable(sc.ShiftSize(), sc.SkillSize())
	for n := 0; n < in.NurseNum(); n++ {
		for d := model.Mon; d <= model.Sun; d++ {
			a := out.At(model.NurseID(n), d)
			if a.IsWorking() {
				assigned.Add(d, a.Shift, a.Skill, 1)
			}
		}
	}

	shiftReq := make(map[string]int)
	shiftCov := make(map[string]int)
	skillReq := make(map[string]int)
	skillCov := make(map[string]int)

	for d := model.Mon; d <= model.Sun; d++ {
		day := DayCoverage{Day: d.String(), StaffCount: staffCount(in, out, d)}
		for s := model.ShiftBegin; int(s) < sc.ShiftSize(); s++ {
			for k := model.SkillBegin; int(k) < sc.SkillSize(); k++ {
				minNum := in.Weekdata.MinNurseNums.At(d, s, k)
				optNum := in.Weekdata.OptNurseNums.At(d, s, k)
				got := assigned.At(d, s, k)

				m.TotalAssigned += got
				m.RequiredMin += minNum
				m.CoveredMin += min(got, minNum)
				m.RequiredOpt += optNum
				m.CoveredOpt += min(got, optNum)
				if got > optNum {
					m.SurplusAssigned += got - optNum
				}

				day.RequiredOpt += optNum
				day.Assigned += min(got, optNum)
				shiftReq[shiftName(in, s)] += optNum
				shiftCov[shiftName(in, s)] += min(got, optNum)
				skillReq[skillName(in, k)] += optNum
				skillCov[skillName(in, k)] += min(got, optNum)

				gap := StaffingGap{
					Day: d.String(), Shift: shiftName(in, s), Skill: skillName(in, k),
					Assigned: got,
				}
				switch {
				case got < minNum:
					gap.Required, gap.Shortage = minNum, minNum-got
					m.Understaffed = append(m.Understaffed, gap)
				case got < optNum:
					gap.Required, gap.Shortage = optNum, optNum-got
					m.Insufficient = append(m.Insufficient, gap)
				}
			}
		}
		day.CoverageRate = percent(day.Assigned, day.RequiredOpt)
		m.DailyCoverage[day.Day] = day
	}

	m.MinCoverage = percent(m.CoveredMin, m.RequiredMin)
	m.OptCoverage = percent(m.CoveredOpt, m.RequiredOpt)
	for name, req := range shiftReq {
		if req > 0 {
			m.ShiftTypeCoverage[name] = percent(shiftCov[name], req)
		}
	}
	for name, req := range skillReq {
		if req > 0 {
			m.SkillCoverage[name] = percent(skillCov[name], req)
		}
	}

	sort.SliceStable(m.Understaffed, func(i, j int) bool {
		return m.Understaffed[i].Shortage > m.Understaffed[j].Shortage
	})
	return m
}

func staffCount(in *model.Input, out *model.Output, d model.Weekday) int {
	n := 0
	for i := 0; i < in.NurseNum(); i++ {
		if out.At(model.NurseID(i), d).IsWorking() {
			n++
		}
	}
	return n
}

// percent 没有需求时视为完全覆盖
func percent(covered, required int) float64 {
	if required == 0 {
		return 100
	}
	return float64(covered) / float64(required) * 100
}
