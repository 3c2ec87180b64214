package model

import "time"

// Assign 某护士某天的分配，Shift 为 ShiftNone 时 Skill 无意义
type Assign struct {
	Shift ShiftID `json:"shift"`
	Skill SkillID `json:"skill"`
}

// IsWorking 是否上班
func (a Assign) IsWorking() bool {
	return a.Shift != ShiftNone
}

// Output 单周排班方案
type Output struct {
	nurseNum int
	assigns  []Assign

	ObjValue          ObjValue      `json:"obj_value"`
	SecondaryObjValue ObjValue      `json:"secondary_obj_value"`
	FindTime          time.Duration `json:"find_time"`
}

// NewOutput 创建全部休息的空方案
func NewOutput(nurseNum int) *Output {
	return &Output{
		nurseNum: nurseNum,
		assigns:  make([]Assign, nurseNum*WeekdaySizeFull),
	}
}

// NurseNum 护士数量
func (o *Output) NurseNum() int { return o.nurseNum }

// At 返回分配
func (o *Output) At(n NurseID, d Weekday) Assign {
	return o.assigns[int(n)*WeekdaySizeFull+int(d)]
}

// Set 设置分配
func (o *Output) Set(n NurseID, d Weekday, a Assign) {
	o.assigns[int(n)*WeekdaySizeFull+int(d)] = a
}

// Week 返回护士 HIS..NEXT_WEEK 的整行
func (o *Output) Week(n NurseID) []Assign {
	start := int(n) * WeekdaySizeFull
	return o.assigns[start : start+WeekdaySizeFull]
}

// AssignNum 本周上班天数
func (o *Output) AssignNum(n NurseID) int {
	count := 0
	for d := Mon; d <= Sun; d++ {
		if o.At(n, d).IsWorking() {
			count++
		}
	}
	return count
}

// WorkingWeekend 本周末是否上班
func (o *Output) WorkingWeekend(n NurseID) bool {
	return o.At(n, Sat).IsWorking() || o.At(n, Sun).IsWorking()
}

// Clone 深拷贝
func (o *Output) Clone() *Output {
	c := *o
	c.assigns = append([]Assign(nil), o.assigns...)
	return &c
}

// CopyFrom 覆盖为另一个方案的内容
func (o *Output) CopyFrom(other *Output) {
	o.nurseNum = other.nurseNum
	o.assigns = append(o.assigns[:0], other.assigns...)
	o.ObjValue = other.ObjValue
	o.SecondaryObjValue = other.SecondaryObjValue
	o.FindTime = other.FindTime
}
