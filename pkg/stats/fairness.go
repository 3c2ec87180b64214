// Package stats 提供排班统计分析功能
package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/paiban/nrp/pkg/model"
)

// FairnessMetrics 公平性指标
type FairnessMetrics struct {
	// 工作量公平性（按本周分配数）
	WorkloadGini      float64 `json:"workload_gini"` // 基尼系数 (0=完全公平, 1=完全不公平)
	WorkloadVariance  float64 `json:"workload_variance"`
	WorkloadStdDev    float64 `json:"workload_std_dev"`
	AvgAssignPerNurse float64 `json:"avg_assign_per_nurse"`
	MaxAssign         float64 `json:"max_assign"`
	MinAssign         float64 `json:"min_assign"`
	AssignRange       float64 `json:"assign_range"`

	// 班次类型分布（百分比，按班次名称）
	ShiftTypeDistribution map[string]float64 `json:"shift_type_distribution"`
	WeekendGini           float64            `json:"weekend_gini"`

	// 合同进度：截至本周的累计分配数占合同上限的比例
	ContractLoadGini float64 `json:"contract_load_gini"`

	NurseStats []NurseStat `json:"nurse_stats"`

	// 综合评分 (0-100)
	OverallFairnessScore float64 `json:"overall_fairness_score"`
}

// NurseStat 单个护士的统计
type NurseStat struct {
	Nurse          string  `json:"nurse"`
	Assignments    int     `json:"assignments"`
	WeekendDays    int     `json:"weekend_days"`
	ShiftOffBroken int     `json:"shift_off_broken"` // 未满足的休息申请
	TotalAssign    int     `json:"total_assign"`     // 含历史的累计分配数
	ContractLoad   float64 `json:"contract_load"`    // TotalAssign / 合同上限
	Deviation      float64 `json:"deviation"`        // 与平均值的偏差百分比
}

// FairnessAnalyzer 公平性分析器
type FairnessAnalyzer struct {
	workloadWeight float64
	weekendWeight  float64
	contractWeight float64
	stdDevWeight   float64
}

// NewFairnessAnalyzer 创建公平性分析器
func NewFairnessAnalyzer() *FairnessAnalyzer {
	return &FairnessAnalyzer{
		workloadWeight: 0.4,
		weekendWeight:  0.25,
		contractWeight: 0.25,
		stdDevWeight:   0.1,
	}
}

// Analyze 分析单周方案的公平性
func (f *FairnessAnalyzer) Analyze(in *model.Input, out *model.Output) *FairnessMetrics {
	if in == nil || out == nil || in.NurseNum() == 0 {
		return &FairnessMetrics{
			ShiftTypeDistribution: make(map[string]float64),
			OverallFairnessScore:  100,
		}
	}

	nurseStats := f.calculateNurseStats(in, out)

	n := len(nurseStats)
	assigns := make([]float64, n)
	weekends := make([]float64, n)
	loads := make([]float64, n)
	for i, s := range nurseStats {
		assigns[i] = float64(s.Assignments)
		weekends[i] = float64(s.WeekendDays)
		loads[i] = s.ContractLoad
	}

	mean, variance := stat.PopMeanVariance(assigns, nil)
	stdDev := math.Sqrt(variance)
	maxAssign, minAssign := floats.Max(assigns), floats.Min(assigns)

	for i := range nurseStats {
		if mean > 0 {
			nurseStats[i].Deviation = (assigns[i] - mean) / mean * 100
		}
	}
	sort.SliceStable(nurseStats, func(i, j int) bool {
		return nurseStats[i].Assignments > nurseStats[j].Assignments
	})

	workloadGini := gini(assigns)
	weekendGini := gini(weekends)
	loadGini := gini(loads)

	return &FairnessMetrics{
		WorkloadGini:          workloadGini,
		WorkloadVariance:      variance,
		WorkloadStdDev:        stdDev,
		AvgAssignPerNurse:     mean,
		MaxAssign:             maxAssign,
		MinAssign:             minAssign,
		AssignRange:           maxAssign - minAssign,
		ShiftTypeDistribution: shiftTypeDistribution(in, out),
		WeekendGini:           weekendGini,
		ContractLoadGini:      loadGini,
		NurseStats:            nurseStats,
		OverallFairnessScore:  f.overallScore(workloadGini, weekendGini, loadGini, stdDev, mean),
	}
}

func (f *FairnessAnalyzer) calculateNurseStats(in *model.Input, out *model.Output) []NurseStat {
	result := make([]NurseStat, in.NurseNum())
	for i := range result {
		n := model.NurseID(i)
		s := NurseStat{Nurse: nurseName(in, n)}
		for d := model.Mon; d <= model.Sun; d++ {
			a := out.At(n, d)
			if !a.IsWorking() {
				continue
			}
			s.Assignments++
			if d.IsWeekend() {
				s.WeekendDays++
			}
			if in.Weekdata.ShiftOff(n, d, a.Shift) {
				s.ShiftOffBroken++
			}
		}
		s.TotalAssign = s.Assignments
		if i < len(in.History.TotalAssignNums) {
			s.TotalAssign += in.History.TotalAssignNums[i]
		}
		if limit := in.Scenario.Contract(n).MaxShiftNum; limit > 0 {
			s.ContractLoad = float64(s.TotalAssign) / float64(limit)
		}
		result[i] = s
	}
	return result
}

// gini 计算基尼系数
func gini(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	sum := floats.Sum(sorted)
	if sum == 0 {
		return 0
	}

	g := 0.0
	for i, v := range sorted {
		g += (2*float64(i+1) - float64(n) - 1) * v
	}
	g /= float64(n) * sum
	return math.Max(0, math.Min(1, g))
}

// shiftTypeDistribution 各班次类型占全部分配的百分比
func shiftTypeDistribution(in *model.Input, out *model.Output) map[string]float64 {
	counts := make(map[string]int)
	total := 0
	for n := 0; n < in.NurseNum(); n++ {
		for d := model.Mon; d <= model.Sun; d++ {
			a := out.At(model.NurseID(n), d)
			if !a.IsWorking() {
				continue
			}
			counts[shiftName(in, a.Shift)]++
			total++
		}
	}

	distribution := make(map[string]float64, len(counts))
	for name, c := range counts {
		distribution[name] = float64(c) / float64(total) * 100
	}
	return distribution
}

// overallScore 综合公平性评分
func (f *FairnessAnalyzer) overallScore(workloadGini, weekendGini, loadGini, stdDev, mean float64) float64 {
	// 基尼系数转换为分数 (0=100分, 1=0分)
	workloadScore := (1 - workloadGini) * 100
	weekendScore := (1 - weekendGini) * 100
	loadScore := (1 - loadGini) * 100

	// 变异系数越低分数越高
	cvScore := 100.0
	if mean > 0 {
		cvScore = math.Max(0, 100-stdDev/mean*200)
	}

	score := f.workloadWeight*workloadScore +
		f.weekendWeight*weekendScore +
		f.contractWeight*loadScore +
		f.stdDevWeight*cvScore
	return math.Max(0, math.Min(100, score))
}

// CompareSchedules 比较同一输入下两个方案的公平性
func (f *FairnessAnalyzer) CompareSchedules(in *model.Input, a, b *model.Output) map[string]float64 {
	m1 := f.Analyze(in, a)
	m2 := f.Analyze(in, b)

	return map[string]float64{
		"workload_gini_diff":      m2.WorkloadGini - m1.WorkloadGini,
		"weekend_gini_diff":       m2.WeekendGini - m1.WeekendGini,
		"contract_load_gini_diff": m2.ContractLoadGini - m1.ContractLoadGini,
		"overall_score_diff":      m2.OverallFairnessScore - m1.OverallFairnessScore,
		"schedule1_overall_score": m1.OverallFairnessScore,
		"schedule2_overall_score": m2.OverallFairnessScore,
	}
}

func nurseName(in *model.Input, n model.NurseID) string {
	if int(n) < len(in.Names.NurseNames) {
		return in.Names.NurseNames[n]
	}
	return "?"
}

func shiftName(in *model.Input, s model.ShiftID) string {
	if int(s) >= 0 && int(s) < len(in.Names.ShiftNames) {
		return in.Names.ShiftNames[s]
	}
	return "?"
}

func skillName(in *model.Input, k model.SkillID) string {
	if int(k) >= 0 && int(k) < len(in.Names.SkillNames) {
		return in.Names.SkillNames[k]
	}
	return "?"
}
