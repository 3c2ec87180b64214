package model

// ScenarioInfo 整个规划期内不变的场景数据
type ScenarioInfo struct {
	TotalWeekNum int `json:"total_week_num"`
	ShiftTypeNum int `json:"shift_type_num"`
	SkillTypeNum int `json:"skill_type_num"`
	NurseNum     int `json:"nurse_num"`

	// Shifts 按 ShiftID 下标，下标 ShiftNone 处为占位
	Shifts          []ShiftInfo     `json:"shifts"`
	LegalNextShifts SuccessionTable `json:"-"`
	Contracts       []ContractInfo  `json:"contracts"`
	Nurses          []NurseInfo     `json:"nurses"`
}

// ShiftSize 班次维度大小（含 ShiftNone）
func (s *ScenarioInfo) ShiftSize() int { return s.ShiftTypeNum + int(ShiftBegin) }

// SkillSize 技能维度大小（含 SkillNone）
func (s *ScenarioInfo) SkillSize() int { return s.SkillTypeNum + int(SkillBegin) }

// Contract 返回护士的合同
func (s *ScenarioInfo) Contract(nurse NurseID) *ContractInfo {
	return &s.Contracts[s.Nurses[nurse].Contract]
}

// StaffingTable 每天每班次每技能的人数表
type StaffingTable struct {
	shiftSize int
	skillSize int
	nums      []int
}

// NewStaffingTable 创建人数表
func NewStaffingTable(shiftSize, skillSize int) StaffingTable {
	return StaffingTable{
		shiftSize: shiftSize,
		skillSize: skillSize,
		nums:      make([]int, WeekdaySizeFull*shiftSize*skillSize),
	}
}

func (t StaffingTable) index(d Weekday, s ShiftID, k SkillID) int {
	return (int(d)*t.shiftSize+int(s))*t.skillSize + int(k)
}

// At 返回人数
func (t StaffingTable) At(d Weekday, s ShiftID, k SkillID) int {
	return t.nums[t.index(d, s, k)]
}

// Set 设置人数
func (t StaffingTable) Set(d Weekday, s ShiftID, k SkillID, n int) {
	t.nums[t.index(d, s, k)] = n
}

// Add 累加人数
func (t StaffingTable) Add(d Weekday, s ShiftID, k SkillID, delta int) {
	t.nums[t.index(d, s, k)] += delta
}

// Reset 清零
func (t StaffingTable) Reset() {
	for i := range t.nums {
		t.nums[i] = 0
	}
}

// WeekdataInfo 单周数据，每周替换
type WeekdataInfo struct {
	nurseNum  int
	shiftSize int
	shiftOffs []bool

	MinNurseNums StaffingTable `json:"-"`
	OptNurseNums StaffingTable `json:"-"`
}

// NewWeekdataInfo 创建单周数据
func NewWeekdataInfo(nurseNum, shiftSize, skillSize int) WeekdataInfo {
	return WeekdataInfo{
		nurseNum:     nurseNum,
		shiftSize:    shiftSize,
		shiftOffs:    make([]bool, nurseNum*WeekdaySizeFull*shiftSize),
		MinNurseNums: NewStaffingTable(shiftSize, skillSize),
		OptNurseNums: NewStaffingTable(shiftSize, skillSize),
	}
}

// ShiftOff 护士是否申请了当天该班次休息
func (w *WeekdataInfo) ShiftOff(n NurseID, d Weekday, s ShiftID) bool {
	return w.shiftOffs[(int(n)*WeekdaySizeFull+int(d))*w.shiftSize+int(s)]
}

// SetShiftOff 记录休息申请，ShiftAny 表示当天所有班次
func (w *WeekdataInfo) SetShiftOff(n NurseID, d Weekday, s ShiftID) {
	base := (int(n)*WeekdaySizeFull + int(d)) * w.shiftSize
	if s == ShiftAny {
		for shift := int(ShiftBegin); shift < w.shiftSize; shift++ {
			w.shiftOffs[base+shift] = true
		}
		return
	}
	w.shiftOffs[base+int(s)] = true
}

// HistoryInfo 周与周之间传递的状态
type HistoryInfo struct {
	AccObjValue   ObjValue `json:"acc_obj_value"`
	PastWeekCount int      `json:"past_week_count"`
	CurrentWeek   int      `json:"current_week"`
	RestWeekCount int      `json:"rest_week_count"`

	TotalAssignNums         []int     `json:"total_assign_nums"`
	TotalWorkingWeekendNums []int     `json:"total_working_weekend_nums"`
	LastShifts              []ShiftID `json:"last_shifts"`
	ConsecutiveShiftNums    []int     `json:"consecutive_shift_nums"`
	ConsecutiveDayNums      []int     `json:"consecutive_day_nums"`
	ConsecutiveDayoffNums   []int     `json:"consecutive_dayoff_nums"`
}

// NewHistoryInfo 创建历史记录
func NewHistoryInfo(nurseNum, totalWeekNum, pastWeekCount int) HistoryInfo {
	h := HistoryInfo{
		TotalAssignNums:         make([]int, nurseNum),
		TotalWorkingWeekendNums: make([]int, nurseNum),
		LastShifts:              make([]ShiftID, nurseNum),
		ConsecutiveShiftNums:    make([]int, nurseNum),
		ConsecutiveDayNums:      make([]int, nurseNum),
		ConsecutiveDayoffNums:   make([]int, nurseNum),
	}
	h.SetWeek(pastWeekCount, totalWeekNum)
	return h
}

// SetWeek 根据已完成周数推导当前周与剩余周数
func (h *HistoryInfo) SetWeek(pastWeekCount, totalWeekNum int) {
	h.PastWeekCount = pastWeekCount
	h.CurrentWeek = pastWeekCount + 1
	h.RestWeekCount = totalWeekNum - pastWeekCount
}

// Clone 深拷贝
func (h *HistoryInfo) Clone() HistoryInfo {
	c := *h
	c.TotalAssignNums = append([]int(nil), h.TotalAssignNums...)
	c.TotalWorkingWeekendNums = append([]int(nil), h.TotalWorkingWeekendNums...)
	c.LastShifts = append([]ShiftID(nil), h.LastShifts...)
	c.ConsecutiveShiftNums = append([]int(nil), h.ConsecutiveShiftNums...)
	c.ConsecutiveDayNums = append([]int(nil), h.ConsecutiveDayNums...)
	c.ConsecutiveDayoffNums = append([]int(nil), h.ConsecutiveDayoffNums...)
	return c
}

// NameInfo 名称与编号的双向映射，仅在输入输出边界使用
type NameInfo struct {
	ScenarioName string `json:"scenario_name"`

	ShiftNames    []string              `json:"shift_names"`
	ShiftMap      map[string]ShiftID    `json:"-"`
	SkillNames    []string              `json:"skill_names"`
	SkillMap      map[string]SkillID    `json:"-"`
	NurseNames    []string              `json:"nurse_names"`
	NurseMap      map[string]NurseID    `json:"-"`
	ContractNames []string              `json:"contract_names"`
	ContractMap   map[string]ContractID `json:"-"`
}

// Input 编译后的单周输入
type Input struct {
	Scenario ScenarioInfo
	Weekdata WeekdataInfo
	History  HistoryInfo
	Names    NameInfo
}

// NurseNum 护士数量
func (in *Input) NurseNum() int { return in.Scenario.NurseNum }
