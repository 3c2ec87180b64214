// Package model 定义排班引擎的核心数据模型
package model

// ObjValue 目标函数值（已按 AMP 放大的整数）
type ObjValue = int64

const (
	// AMP 放大系数，保证权重除以较小的衰减因子时不丢失精度
	AMP ObjValue = 2 * 2 * 2 * 3 * 7

	// MaxObjValue 可行解目标值的上界
	MaxObjValue ObjValue = 1 << 40

	// ForbiddenMove 硬约束违反的饱和代价，携带该代价的候选必须被剪枝
	ForbiddenMove ObjValue = 2 * MaxObjValue
)

// IsForbidden 检查目标值是否包含硬约束违反
func IsForbidden(obj ObjValue) bool {
	return obj >= ForbiddenMove
}

// ConstraintCategory 约束类别
type ConstraintCategory string

const (
	ConstraintHard ConstraintCategory = "hard" // 硬约束（必须满足）
	ConstraintSoft ConstraintCategory = "soft" // 软约束（尽量满足）
)

// Report 将内部目标值换算为对外报告的数值
func Report(obj ObjValue) float64 {
	return float64(obj) / float64(AMP)
}
