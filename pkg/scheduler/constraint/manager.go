package constraint

import (
	"sort"
	"sync"

	"github.com/paiban/nrp/pkg/logger"
	"github.com/paiban/nrp/pkg/model"
)

// Move 作用在方案上的邻域动作
type Move interface {
	Apply(out *model.Output)
}

// Manager 约束管理器
type Manager struct {
	constraints []Constraint
	mu          sync.RWMutex
}

// NewManager 创建约束管理器
func NewManager() *Manager {
	return &Manager{
		constraints: make([]Constraint, 0),
	}
}

// Register 注册约束
func (m *Manager) Register(c Constraint) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// 检查是否已存在同类型约束
	for i, existing := range m.constraints {
		if existing.Type() == c.Type() {
			m.constraints[i] = c // 替换
			return
		}
	}

	m.constraints = append(m.constraints, c)

	// 硬约束在前，同类别内按报告顺序
	sort.SliceStable(m.constraints, func(i, j int) bool {
		ci, cj := m.constraints[i], m.constraints[j]
		if ci.Category() != cj.Category() {
			return ci.Category() == CategoryHard
		}
		return typeOrder(ci.Type()) < typeOrder(cj.Type())
	})
}

func typeOrder(t Type) int {
	for i, at := range AllTypes {
		if at == t {
			return i
		}
	}
	return len(AllTypes)
}

// Unregister 注销约束
func (m *Manager) Unregister(t Type) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, c := range m.constraints {
		if c.Type() == t {
			m.constraints = append(m.constraints[:i], m.constraints[i+1:]...)
			return
		}
	}
}

// GetConstraint 获取约束
func (m *Manager) GetConstraint(t Type) Constraint {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, c := range m.constraints {
		if c.Type() == t {
			return c
		}
	}
	return nil
}

// GetAll 获取所有约束
func (m *Manager) GetAll() []Constraint {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]Constraint, len(m.constraints))
	copy(result, m.constraints)
	return result
}

// GetByCategory 按类别获取约束
func (m *Manager) GetByCategory(cat Category) []Constraint {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []Constraint
	for _, c := range m.constraints {
		if c.Category() == cat {
			result = append(result, c)
		}
	}
	return result
}

// Evaluate 在当前权重下评估所有约束
// 权重为零的约束直接跳过，IsFeasible 只反映实际参与评估的硬约束
func (m *Manager) Evaluate(ctx *Context) *Result {
	m.mu.RLock()
	constraints := m.constraints
	m.mu.RUnlock()

	ctx.Refresh()
	w := ctx.Weights()

	result := &Result{
		IsFeasible: true,
		Breakdown:  make(Breakdown, len(constraints)),
	}

	for _, c := range constraints {
		if c.Weight(w) == 0 {
			continue
		}
		p, details := c.Evaluate(ctx)
		if p == 0 {
			continue
		}

		result.TotalPenalty += p
		result.Breakdown[c.Type()] = p
		if c.Category() == CategoryHard {
			result.IsFeasible = false
			result.HardViolations = append(result.HardViolations, details...)
		} else {
			result.SoftViolations = append(result.SoftViolations, details...)
		}
	}

	if ctx.CollectDetails && !result.IsFeasible {
		logger.Debug().
			Int("hard_violations", len(result.HardViolations)).
			Float64("penalty", result.Report()).
			Msg("Infeasible output evaluated")
	}

	return result
}

// Objective 只返回总惩罚值
func (m *Manager) Objective(ctx *Context) model.ObjValue {
	return m.Evaluate(ctx).TotalPenalty
}

// EvaluateMove 在当前权重下评估动作带来的变化，不修改 ctx.Output
// 返回总变化量与逐项变化
func (m *Manager) EvaluateMove(ctx *Context, mv Move) (model.ObjValue, Breakdown) {
	original := ctx.Output
	before := m.Evaluate(ctx)

	scratch := original.Clone()
	mv.Apply(scratch)
	ctx.SetOutput(scratch)
	after := m.Evaluate(ctx)
	ctx.SetOutput(original)

	return after.TotalPenalty - before.TotalPenalty, after.Breakdown.Sub(before.Breakdown)
}

// Clear 清除所有约束
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.constraints = make([]Constraint, 0)
}

// Count 返回约束数量
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.constraints)
}

// Summary 返回约束摘要
func (m *Manager) Summary() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	hard := 0
	soft := 0
	for _, c := range m.constraints {
		if c.Category() == CategoryHard {
			hard++
		} else {
			soft++
		}
	}

	return map[string]interface{}{
		"total": len(m.constraints),
		"hard":  hard,
		"soft":  soft,
	}
}
