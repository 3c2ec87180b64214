// Package constraint 定义约束接口和管理器
package constraint

import (
	"github.com/paiban/nrp/pkg/model"
	"github.com/paiban/nrp/pkg/scheduler/penalty"
)

// Type 约束类型标识
type Type string

const (
	// 硬约束类型
	TypeSingleAssign Type = "single_assign"
	TypeUnderstaff   Type = "understaff"
	TypeSuccession   Type = "succession"
	TypeMissSkill    Type = "miss_skill"

	// 软约束类型
	TypeInsufficientStaff   Type = "insufficient_staff"
	TypeConsecutiveShift    Type = "consecutive_shift"
	TypeConsecutiveDay      Type = "consecutive_day"
	TypeConsecutiveDayOff   Type = "consecutive_day_off"
	TypePreference          Type = "preference"
	TypeCompleteWeekend     Type = "complete_weekend"
	TypeTotalAssign         Type = "total_assign"
	TypeTotalWorkingWeekend Type = "total_working_weekend"
)

// AllTypes 按报告顺序列出全部约束类型
var AllTypes = []Type{
	TypeSingleAssign, TypeUnderstaff, TypeSuccession, TypeMissSkill,
	TypeInsufficientStaff, TypeConsecutiveShift, TypeConsecutiveDay, TypeConsecutiveDayOff,
	TypePreference, TypeCompleteWeekend, TypeTotalAssign, TypeTotalWorkingWeekend,
}

// Category 约束类别
type Category = model.ConstraintCategory

const (
	CategoryHard = model.ConstraintHard // 硬约束（必须满足）
	CategorySoft = model.ConstraintSoft // 软约束（尽量满足）
)

// Constraint 约束接口
type Constraint interface {
	// Name 返回约束名称
	Name() string

	// Type 返回约束类型
	Type() Type

	// Category 返回约束类别
	Category() Category

	// Weight 从当前权重中取出本约束的单位代价
	Weight(w *penalty.Weights) model.ObjValue

	// Evaluate 评估整周方案，返回已乘以权重的惩罚值及违反详情
	// 只有 ctx.CollectDetails 为真时才生成详情
	Evaluate(ctx *Context) (model.ObjValue, []ViolationDetail)
}

// ViolationDetail 约束违反详情
type ViolationDetail struct {
	ConstraintType Type           `json:"constraint_type"`
	ConstraintName string         `json:"constraint_name"`
	Nurse          model.NurseID  `json:"nurse"`
	Day            model.Weekday  `json:"day"`
	Message        string         `json:"message"`
	Severity       string         `json:"severity"` // error/warning
	Penalty        model.ObjValue `json:"penalty"`
}

// Budget 每名护士在剩余周期内的剩余额度
type Budget struct {
	RestMinShiftNum          []int `json:"rest_min_shift_num"`
	RestMaxShiftNum          []int `json:"rest_max_shift_num"`
	RestMaxWorkingWeekendNum []int `json:"rest_max_working_weekend_num"`
}

// NewBudget 根据合同与历史计算剩余额度
// suppressEarlyMin 为真时，只保留剩余各周按每周7天也无法补足的最少班次缺口
func NewBudget(in *model.Input, suppressEarlyMin bool) *Budget {
	nurseNum := in.NurseNum()
	b := &Budget{
		RestMinShiftNum:          make([]int, nurseNum),
		RestMaxShiftNum:          make([]int, nurseNum),
		RestMaxWorkingWeekendNum: make([]int, nurseNum),
	}
	h := &in.History
	for n := model.NurseBegin; int(n) < nurseNum; n++ {
		c := in.Scenario.Contract(n)
		b.RestMinShiftNum[n] = c.MinShiftNum - h.TotalAssignNums[n]
		b.RestMaxShiftNum[n] = c.MaxShiftNum - h.TotalAssignNums[n]
		b.RestMaxWorkingWeekendNum[n] = c.MaxWorkingWeekendNum - h.TotalWorkingWeekendNums[n]

		if suppressEarlyMin && h.RestWeekCount > 1 {
			laterCapacity := model.WeekdayNum * (h.RestWeekCount - 1)
			b.RestMinShiftNum[n] = max(0, b.RestMinShiftNum[n]-laterCapacity)
		}
	}
	return b
}

// Context 评估上下文
type Context struct {
	Input   *model.Input
	Output  *model.Output
	Penalty *penalty.Engine
	Budget  *Budget

	// Duplicates 同一护士同一天的重复分配条数，仅在解码外部方案时非零
	Duplicates int

	// CollectDetails 是否生成违反详情，搜索热路径中应关闭
	CollectDetails bool

	weights   penalty.Weights
	headcount model.StaffingTable
	counted   bool
}

// NewContext 创建评估上下文
func NewContext(in *model.Input, out *model.Output, engine *penalty.Engine, budget *Budget) *Context {
	c := &Context{
		Input:     in,
		Output:    out,
		Penalty:   engine,
		Budget:    budget,
		headcount: model.NewStaffingTable(in.Scenario.ShiftSize(), in.Scenario.SkillSize()),
	}
	c.Refresh()
	return c
}

// Weights 返回最近一次 Refresh 时的权重快照
func (c *Context) Weights() *penalty.Weights {
	return &c.weights
}

// SetOutput 替换被评估的方案并使人数缓存失效
func (c *Context) SetOutput(out *model.Output) {
	c.Output = out
	c.counted = false
}

// Invalidate 方案被原地修改后调用
func (c *Context) Invalidate() {
	c.counted = false
}

// Headcount 返回每天每班次每技能的实际人数
func (c *Context) Headcount() model.StaffingTable {
	if c.counted {
		return c.headcount
	}
	c.headcount.Reset()
	for n := model.NurseBegin; int(n) < c.Input.NurseNum(); n++ {
		for d := model.Mon; d <= model.Sun; d++ {
			a := c.Output.At(n, d)
			if a.IsWorking() {
				c.headcount.Add(d, a.Shift, a.Skill, 1)
			}
		}
	}
	c.counted = true
	return c.headcount
}

// Refresh 从引擎读取当前权重，Manager.Evaluate 开始时自动调用
func (c *Context) Refresh() {
	if c.Penalty != nil {
		c.weights = c.Penalty.Weights()
	} else {
		c.weights = penalty.DefaultWeights()
	}
}

// Breakdown 按约束类型统计的惩罚值
type Breakdown map[Type]model.ObjValue

// Total 求和
func (b Breakdown) Total() model.ObjValue {
	var total model.ObjValue
	for _, v := range b {
		total += v
	}
	return total
}

// Sub 逐项相减，返回 b - other
func (b Breakdown) Sub(other Breakdown) Breakdown {
	delta := make(Breakdown, len(b))
	for t, v := range b {
		delta[t] = v - other[t]
	}
	for t, v := range other {
		if _, ok := b[t]; !ok {
			delta[t] = -v
		}
	}
	return delta
}

// Result 约束评估结果
type Result struct {
	IsFeasible     bool              `json:"is_feasible"`
	TotalPenalty   model.ObjValue    `json:"total_penalty"`
	Breakdown      Breakdown         `json:"breakdown"`
	HardViolations []ViolationDetail `json:"hard_violations"`
	SoftViolations []ViolationDetail `json:"soft_violations"`
}

// Report 对外报告的目标值
func (r *Result) Report() float64 {
	return model.Report(r.TotalPenalty)
}
