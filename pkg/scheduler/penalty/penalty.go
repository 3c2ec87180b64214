// Package penalty 提供约束违反的定价权重及其模式栈
package penalty

import (
	"fmt"

	apperrors "github.com/paiban/nrp/pkg/errors"
	"github.com/paiban/nrp/pkg/model"
)

// Weights 14 项约束权重
type Weights struct {
	// 硬约束
	SingleAssign model.ObjValue `json:"single_assign"`
	Understaff   model.ObjValue `json:"understaff"`
	Succession   model.ObjValue `json:"succession"`
	MissSkill    model.ObjValue `json:"miss_skill"`

	// 软约束
	InsufficientStaff   model.ObjValue `json:"insufficient_staff"`
	ConsecutiveShift    model.ObjValue `json:"consecutive_shift"`
	ConsecutiveDay      model.ObjValue `json:"consecutive_day"`
	ConsecutiveDayOff   model.ObjValue `json:"consecutive_day_off"`
	Preference          model.ObjValue `json:"preference"`
	CompleteWeekend     model.ObjValue `json:"complete_weekend"`
	TotalAssign         model.ObjValue `json:"total_assign"`
	TotalWorkingWeekend model.ObjValue `json:"total_working_weekend"`

	// 修复模式下硬约束的有限代价
	UnderstaffRepair model.ObjValue `json:"understaff_repair"`
	SuccessionRepair model.ObjValue `json:"succession_repair"`
}

// DefaultWeights 默认权重，软约束比例为 30:15:30:30:10:30:20:30
func DefaultWeights() Weights {
	return Weights{
		SingleAssign: model.ForbiddenMove,
		Understaff:   model.ForbiddenMove,
		Succession:   model.ForbiddenMove,
		MissSkill:    model.ForbiddenMove,

		InsufficientStaff:   30 * model.AMP,
		ConsecutiveShift:    15 * model.AMP,
		ConsecutiveDay:      30 * model.AMP,
		ConsecutiveDayOff:   30 * model.AMP,
		Preference:          10 * model.AMP,
		CompleteWeekend:     30 * model.AMP,
		TotalAssign:         20 * model.AMP,
		TotalWorkingWeekend: 30 * model.AMP,

		UnderstaffRepair: 300 * model.AMP,
		SuccessionRepair: 300 * model.AMP,
	}
}

// scaleSoft 对全部软约束权重做除法
func (w *Weights) scaleSoft(divisor model.ObjValue) {
	w.InsufficientStaff /= divisor
	w.ConsecutiveShift /= divisor
	w.ConsecutiveDay /= divisor
	w.ConsecutiveDayOff /= divisor
	w.Preference /= divisor
	w.CompleteWeekend /= divisor
	w.TotalAssign /= divisor
	w.TotalWorkingWeekend /= divisor
}

// Config 权重配置，构造后不可变
type Config struct {
	Defaults  Weights        `json:"defaults"`
	SoftDecay model.ObjValue `json:"soft_decay"` // 修复模式下软约束权重的衰减因子
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Defaults:  DefaultWeights(),
		SoftDecay: 4,
	}
}

// Validate 校验配置
// 衰减因子必须整除 AMP，保证修复模式下的除法没有舍入
func (c Config) Validate() error {
	if c.SoftDecay <= 0 {
		return apperrors.InvalidInput("soft_decay", "必须为正数")
	}
	if model.AMP%c.SoftDecay != 0 {
		return apperrors.InvalidInput("soft_decay", fmt.Sprintf("%d 不能整除 AMP=%d", c.SoftDecay, model.AMP))
	}
	if c.Defaults.UnderstaffRepair <= 0 || c.Defaults.SuccessionRepair <= 0 {
		return apperrors.InvalidInput("repair", "修复代价必须为正数")
	}
	return nil
}

// Mode 惩罚模式，在当前权重上应用覆盖
type Mode struct {
	Name  string
	Apply func(w *Weights, cfg Config)
}

var (
	// ModeSwap 两名护士交换同一天的分配，当天各班次技能人数不变
	ModeSwap = Mode{
		Name: "swap",
		Apply: func(w *Weights, _ Config) {
			w.Understaff = 0
			w.InsufficientStaff = 0
		},
	}

	// ModeBlockSwap 两名护士交换连续多天的分配，接续与技能已由可行性预检查过
	ModeBlockSwap = Mode{
		Name: "block_swap",
		Apply: func(w *Weights, _ Config) {
			w.Understaff = 0
			w.InsufficientStaff = 0
			w.Succession = 0
			w.MissSkill = 0
		},
	}

	// ModeExchange 同一护士交换自己两天的班次
	ModeExchange = Mode{
		Name: "exchange",
		Apply: func(w *Weights, _ Config) {
			w.Succession = 0
			w.MissSkill = 0
			w.TotalAssign = 0
		},
	}

	// ModeRepair 在不可行方案上搜索，缺员与接续改为有限代价，软约束按衰减因子缩小
	ModeRepair = Mode{
		Name: "repair",
		Apply: func(w *Weights, cfg Config) {
			w.Understaff = w.UnderstaffRepair
			w.Succession = w.SuccessionRepair
			w.scaleSoft(cfg.SoftDecay)
		},
	}
)

// Override 创建自定义模式
func Override(name string, apply func(w *Weights)) Mode {
	return Mode{
		Name:  name,
		Apply: func(w *Weights, _ Config) { apply(w) },
	}
}

// Engine 惩罚引擎，每个求解运行独占一个实例
type Engine struct {
	cfg    Config
	active Weights
	stack  []Weights
	modes  []string
}

// NewEngine 创建惩罚引擎
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		cfg:    cfg,
		active: cfg.Defaults,
		stack:  make([]Weights, 0, 4),
		modes:  make([]string, 0, 4),
	}, nil
}

// Config 返回配置
func (e *Engine) Config() Config { return e.cfg }

// Weights 返回当前生效的权重
func (e *Engine) Weights() Weights { return e.active }

// Depth 返回模式栈深度
func (e *Engine) Depth() int { return len(e.stack) }

// ModeName 返回当前模式名称，默认模式为空字符串
func (e *Engine) ModeName() string {
	if len(e.modes) == 0 {
		return ""
	}
	return e.modes[len(e.modes)-1]
}

// PushMode 保存当前权重并应用模式
func (e *Engine) PushMode(m Mode) {
	e.stack = append(e.stack, e.active)
	e.modes = append(e.modes, m.Name)
	m.Apply(&e.active, e.cfg)
}

// PopMode 恢复到最近一次 PushMode 之前的权重，必须与 PushMode 一一配对
func (e *Engine) PopMode() {
	top := len(e.stack) - 1
	if top < 0 {
		panic("penalty: PopMode without matching PushMode")
	}
	e.active = e.stack[top]
	e.stack = e.stack[:top]
	e.modes = e.modes[:top]
}

// Enter 进入模式并返回恢复函数，用法：defer e.Enter(ModeSwap)()
func (e *Engine) Enter(m Mode) func() {
	e.PushMode(m)
	return e.PopMode
}

// With 在模式下执行 fn，无论如何返回都会恢复
func (e *Engine) With(m Mode, fn func()) {
	defer e.Enter(m)()
	fn()
}

// Reset 清空模式栈并恢复默认权重
func (e *Engine) Reset() {
	e.stack = e.stack[:0]
	e.modes = e.modes[:0]
	e.active = e.cfg.Defaults
}
