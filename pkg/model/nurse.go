package model

// ContractInfo 合同定义
type ContractInfo struct {
	MinShiftNum             int       `json:"min_shift_num"`
	MaxShiftNum             int       `json:"max_shift_num"`
	MaxWorkingWeekendNum    int       `json:"max_working_weekend_num"`
	CompleteWeekend         bool      `json:"complete_weekend"`
	MinConsecutiveDayNum    int       `json:"min_consecutive_day_num"`
	MaxConsecutiveDayNum    int       `json:"max_consecutive_day_num"`
	MinConsecutiveDayoffNum int       `json:"min_consecutive_dayoff_num"`
	MaxConsecutiveDayoffNum int       `json:"max_consecutive_dayoff_num"`
	Nurses                  []NurseID `json:"nurses"`
}

// NurseInfo 护士定义
type NurseInfo struct {
	Contract ContractID `json:"contract"`
	Skills   SkillSet   `json:"skills"`
}

// HasSkill 检查护士是否具备技能
func (n NurseInfo) HasSkill(skill SkillID) bool {
	return n.Skills.Has(skill)
}
