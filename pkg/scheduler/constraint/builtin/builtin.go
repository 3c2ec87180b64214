package builtin

import (
	"github.com/paiban/nrp/pkg/scheduler/constraint"
)

// RegisterDefaultConstraints 注册全部 12 项约束到管理器
func RegisterDefaultConstraints(manager *constraint.Manager) {
	// 注册硬约束
	manager.Register(NewSingleAssignConstraint())
	manager.Register(NewUnderstaffConstraint())
	manager.Register(NewSuccessionConstraint())
	manager.Register(NewMissSkillConstraint())

	// 注册软约束
	manager.Register(NewInsufficientStaffConstraint())
	manager.Register(NewConsecutiveShiftConstraint())
	manager.Register(NewConsecutiveDayConstraint())
	manager.Register(NewConsecutiveDayOffConstraint())
	manager.Register(NewPreferenceConstraint())
	manager.Register(NewCompleteWeekendConstraint())
	manager.Register(NewTotalAssignConstraint())
	manager.Register(NewTotalWorkingWeekendConstraint())
}

// NewManager 创建已注册全部约束的管理器
func NewManager() *constraint.Manager {
	manager := constraint.NewManager()
	RegisterDefaultConstraints(manager)
	return manager
}
