// Package validator 提供排班方案的独立校验
package validator

import (
	"fmt"
	"sort"

	"github.com/paiban/nrp/pkg/model"
)

// ConflictType 冲突类型
type ConflictType string

const (
	ConflictOverlap      ConflictType = "overlap"      // 同一天重复分配
	ConflictRestTime     ConflictType = "rest_time"    // 班次接续不合法
	ConflictStaffing     ConflictType = "staffing"     // 低于最少人数
	ConflictConsecutive  ConflictType = "consecutive"  // 连续上班天数过多
	ConflictSkill        ConflictType = "skill"        // 技能不匹配
	ConflictAvailability ConflictType = "availability" // 违反休息申请
)

// Conflict 冲突信息
type Conflict struct {
	Type     ConflictType  `json:"type"`
	Severity string        `json:"severity"` // error/warning
	Nurse    model.NurseID `json:"nurse"`
	Day      model.Weekday `json:"day"`
	Message  string        `json:"message"`
}

// ConflictDetector 冲突检测器
// 不依赖权重，直接按场景规则逐项检查，用于和目标函数的可行性互相印证
type ConflictDetector struct {
	config *DetectorConfig
}

// DetectorConfig 检测器配置
type DetectorConfig struct {
	CheckConsecutive  bool // 是否报告连续上班超限（警告）
	CheckAvailability bool // 是否报告违反休息申请（警告）
}

// DefaultDetectorConfig 返回默认配置
func DefaultDetectorConfig() *DetectorConfig {
	return &DetectorConfig{
		CheckConsecutive:  true,
		CheckAvailability: true,
	}
}

// NewConflictDetector 创建冲突检测器
func NewConflictDetector(config *DetectorConfig) *ConflictDetector {
	if config == nil {
		config = DefaultDetectorConfig()
	}
	return &ConflictDetector{config: config}
}

// DetectAll 检测所有冲突，结果按护士、日期排序
func (d *ConflictDetector) DetectAll(in *model.Input, out *model.Output, duplicates int) []Conflict {
	var conflicts []Conflict

	if duplicates > 0 {
		conflicts = append(conflicts, Conflict{
			Type:     ConflictOverlap,
			Severity: "error",
			Nurse:    model.NurseNone,
			Message:  fmt.Sprintf("方案中有 %d 条同一护士同一天的重复分配", duplicates),
		})
	}

	for n := model.NurseBegin; int(n) < in.NurseNum(); n++ {
		conflicts = append(conflicts, d.detectSkills(in, out, n)...)
		conflicts = append(conflicts, d.detectRestTimeViolations(in, out, n)...)
		if d.config.CheckConsecutive {
			conflicts = append(conflicts, d.detectConsecutiveDaysViolations(in, out, n)...)
		}
		if d.config.CheckAvailability {
			conflicts = append(conflicts, d.detectAvailability(in, out, n)...)
		}
	}
	conflicts = append(conflicts, d.detectStaffing(in, out)...)

	sort.SliceStable(conflicts, func(i, j int) bool {
		if conflicts[i].Nurse != conflicts[j].Nurse {
			return conflicts[i].Nurse < conflicts[j].Nurse
		}
		return conflicts[i].Day < conflicts[j].Day
	})
	return conflicts
}

// HasErrors 是否存在 error 级冲突
func HasErrors(conflicts []Conflict) bool {
	for _, c := range conflicts {
		if c.Severity == "error" {
			return true
		}
	}
	return false
}

// detectSkills 检测技能不匹配
func (d *ConflictDetector) detectSkills(in *model.Input, out *model.Output, n model.NurseID) []Conflict {
	var conflicts []Conflict
	for day := model.Mon; day <= model.Sun; day++ {
		a := out.At(n, day)
		if a.IsWorking() && !in.Scenario.Nurses[n].HasSkill(a.Skill) {
			conflicts = append(conflicts, Conflict{
				Type:     ConflictSkill,
				Severity: "error",
				Nurse:    n,
				Day:      day,
				Message:  fmt.Sprintf("护士 %s 在 %s 被安排了不具备的技能 %s", nurseName(in, n), day, skillName(in, a.Skill)),
			})
		}
	}
	return conflicts
}

// detectRestTimeViolations 检测相邻两天的班次接续，周一与历史比较
func (d *ConflictDetector) detectRestTimeViolations(in *model.Input, out *model.Output, n model.NurseID) []Conflict {
	var conflicts []Conflict
	prev := in.History.LastShifts[n]
	for day := model.Mon; day <= model.Sun; day++ {
		cur := out.At(n, day).Shift
		if prev != model.ShiftNone && cur != model.ShiftNone && !in.Scenario.LegalNextShifts.Legal(prev, cur) {
			conflicts = append(conflicts, Conflict{
				Type:     ConflictRestTime,
				Severity: "error",
				Nurse:    n,
				Day:      day,
				Message:  fmt.Sprintf("护士 %s 在 %s 的班次 %s 不能接在 %s 之后", nurseName(in, n), day, shiftName(in, cur), shiftName(in, prev)),
			})
		}
		prev = cur
	}
	return conflicts
}

// detectConsecutiveDaysViolations 检测连续上班天数，包含历史中延续过来的天数
func (d *ConflictDetector) detectConsecutiveDaysViolations(in *model.Input, out *model.Output, n model.NurseID) []Conflict {
	var conflicts []Conflict
	limit := in.Scenario.Contract(n).MaxConsecutiveDayNum

	consecutive := 0
	if in.History.LastShifts[n] != model.ShiftNone {
		consecutive = in.History.ConsecutiveDayNums[n]
	}
	for day := model.Mon; day <= model.Sun; day++ {
		if !out.At(n, day).IsWorking() {
			consecutive = 0
			continue
		}
		consecutive++
		if consecutive == limit+1 {
			conflicts = append(conflicts, Conflict{
				Type:     ConflictConsecutive,
				Severity: "warning",
				Nurse:    n,
				Day:      day,
				Message:  fmt.Sprintf("护士 %s 到 %s 连续工作超过 %d 天", nurseName(in, n), day, limit),
			})
		}
	}
	return conflicts
}

// detectAvailability 检测违反休息申请的分配
func (d *ConflictDetector) detectAvailability(in *model.Input, out *model.Output, n model.NurseID) []Conflict {
	var conflicts []Conflict
	for day := model.Mon; day <= model.Sun; day++ {
		a := out.At(n, day)
		if a.IsWorking() && in.Weekdata.ShiftOff(n, day, a.Shift) {
			conflicts = append(conflicts, Conflict{
				Type:     ConflictAvailability,
				Severity: "warning",
				Nurse:    n,
				Day:      day,
				Message:  fmt.Sprintf("护士 %s 申请了 %s 的 %s 休息", nurseName(in, n), day, shiftName(in, a.Shift)),
			})
		}
	}
	return conflicts
}

// detectStaffing 检测低于最少人数的需求
func (d *ConflictDetector) detectStaffing(in *model.Input, out *model.Output) []Conflict {
	headcount := model.NewStaffingTable(in.Scenario.ShiftSize(), in.Scenario.SkillSize())
	for n := model.NurseBegin; int(n) < in.NurseNum(); n++ {
		for day := model.Mon; day <= model.Sun; day++ {
			if a := out.At(n, day); a.IsWorking() {
				headcount.Add(day, a.Shift, a.Skill, 1)
			}
		}
	}

	var conflicts []Conflict
	for day := model.Mon; day <= model.Sun; day++ {
		for s := model.ShiftBegin; int(s) < in.Scenario.ShiftSize(); s++ {
			for k := model.SkillBegin; int(k) < in.Scenario.SkillSize(); k++ {
				need := in.Weekdata.MinNurseNums.At(day, s, k)
				if have := headcount.At(day, s, k); have < need {
					conflicts = append(conflicts, Conflict{
						Type:     ConflictStaffing,
						Severity: "error",
						Nurse:    model.NurseNone,
						Day:      day,
						Message:  fmt.Sprintf("%s %s/%s 需要至少 %d 人，实际 %d 人", day, shiftName(in, s), skillName(in, k), need, have),
					})
				}
			}
		}
	}
	return conflicts
}

func nurseName(in *model.Input, n model.NurseID) string {
	if int(n) < len(in.Names.NurseNames) {
		return in.Names.NurseNames[n]
	}
	return fmt.Sprintf("#%d", n)
}

func shiftName(in *model.Input, s model.ShiftID) string {
	if int(s) < len(in.Names.ShiftNames) {
		return in.Names.ShiftNames[s]
	}
	return fmt.Sprintf("#%d", s)
}

func skillName(in *model.Input, k model.SkillID) string {
	if int(k) < len(in.Names.SkillNames) {
		return in.Names.SkillNames[k]
	}
	return fmt.Sprintf("#%d", k)
}
