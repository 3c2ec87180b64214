// Package model 定义排班引擎的核心数据模型
package model

// ShiftInfo 班次类型定义
type ShiftInfo struct {
	MinConsecutiveShiftNum int `json:"min_consecutive_shift_num"`
	MaxConsecutiveShiftNum int `json:"max_consecutive_shift_num"`
}

// SuccessionTable 班次接续合法性矩阵
// 行为前一天的班次，列为后一天的班次，按 ShiftID 直接下标
type SuccessionTable struct {
	size  int
	legal []bool
}

// NewSuccessionTable 创建接续矩阵，初始时任意接续均合法
func NewSuccessionTable(shiftSize int) SuccessionTable {
	legal := make([]bool, shiftSize*shiftSize)
	for i := range legal {
		legal[i] = true
	}
	return SuccessionTable{size: shiftSize, legal: legal}
}

// Size 返回班次维度大小（含 ShiftNone）
func (t SuccessionTable) Size() int { return t.size }

// Legal 检查 prev 之后接 next 是否合法
func (t SuccessionTable) Legal(prev, next ShiftID) bool {
	return t.legal[int(prev)*t.size+int(next)]
}

// Forbid 禁止 prev 之后接 next
func (t SuccessionTable) Forbid(prev, next ShiftID) {
	t.legal[int(prev)*t.size+int(next)] = false
}

// Row 返回 prev 对应的整行
func (t SuccessionTable) Row(prev ShiftID) []bool {
	start := int(prev) * t.size
	return t.legal[start : start+t.size]
}

// Equal 比较两个矩阵
func (t SuccessionTable) Equal(other SuccessionTable) bool {
	if t.size != other.size || len(t.legal) != len(other.legal) {
		return false
	}
	for i := range t.legal {
		if t.legal[i] != other.legal[i] {
			return false
		}
	}
	return true
}
