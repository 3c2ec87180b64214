package model

// NurseID 护士编号
type NurseID int

const (
	NurseBegin NurseID = 0
	NurseNone  NurseID = NurseBegin - 1
)

// ShiftID 班次类型编号，ShiftNone 表示当天不上班
type ShiftID int

const (
	ShiftNone  ShiftID = 0
	ShiftBegin ShiftID = ShiftNone + 1
	ShiftAny   ShiftID = ShiftNone - 1 // 仅用于查询，不会被存储
)

// SkillID 技能编号
type SkillID int

const (
	SkillNone  SkillID = 0
	SkillBegin SkillID = SkillNone + 1
)

// ContractID 合同编号
type ContractID int

const (
	ContractBegin ContractID = 0
	ContractNone  ContractID = ContractBegin - 1
)

// Weekday 星期，两端各保留一个哨兵位
type Weekday int

const (
	HIS Weekday = iota // 上周最后一天（历史）
	Mon
	Tue
	Wed
	Thu
	Fri
	Sat
	Sun
	NextWeek

	WeekdaySizeFull = int(NextWeek) + 1
	WeekdayNum      = int(Sun - Mon + 1)
)

var weekdayShortNames = [WeekdaySizeFull]string{"HIS", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun", "NEXT_WEEK"}

var weekdayLongNames = [WeekdaySizeFull]string{"", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday", ""}

// String 返回星期的短名称
func (d Weekday) String() string {
	if d < HIS || d > NextWeek {
		return "?"
	}
	return weekdayShortNames[d]
}

// IsWeekend 是否为周末
func (d Weekday) IsWeekend() bool {
	return d == Sat || d == Sun
}

// ParseWeekday 解析 Mon 或 Monday 形式的星期名称
func ParseWeekday(name string) (Weekday, bool) {
	for d := Mon; d <= Sun; d++ {
		if name == weekdayShortNames[d] || name == weekdayLongNames[d] {
			return d, true
		}
	}
	return HIS, false
}

// SkillSet 技能位集
type SkillSet uint64

// MaxSkillNum 技能位集可容纳的技能数量
const MaxSkillNum = 63

// Add 添加技能
func (s SkillSet) Add(skill SkillID) SkillSet {
	return s | (1 << uint(skill))
}

// Has 检查是否具备技能
func (s SkillSet) Has(skill SkillID) bool {
	return skill >= SkillBegin && s&(1<<uint(skill)) != 0
}

// Count 返回技能数量
func (s SkillSet) Count() int {
	n := 0
	for v := s; v != 0; v &= v - 1 {
		n++
	}
	return n
}
