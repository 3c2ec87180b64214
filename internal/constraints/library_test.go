package constraints

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paiban/nrp/pkg/scheduler/constraint"
	"github.com/paiban/nrp/pkg/scheduler/penalty"
)

func TestGetLibrary(t *testing.T) {
	lib := GetLibrary(penalty.DefaultWeights())
	require.Len(t, lib, len(constraint.AllTypes))

	for i, def := range lib {
		assert.Equal(t, string(constraint.AllTypes[i]), def.Name)
		assert.NotEmpty(t, def.DisplayName, def.Name)
		assert.NotEmpty(t, def.Description, def.Name)
		assert.NotNil(t, def.Params, def.Name)
	}
	assert.Equal(t, "hard", lib[0].Type)
	assert.Equal(t, "soft", lib[len(lib)-1].Type)
}

func TestFind(t *testing.T) {
	tests := []struct {
		name       string
		constraint string
		found      bool
		weight     float64
		kind       string
	}{
		{name: "硬约束权重为零", constraint: "understaff", found: true, weight: 0, kind: "hard"},
		{name: "最优人数", constraint: "insufficient_staff", found: true, weight: 30, kind: "soft"},
		{name: "同班次连续", constraint: "consecutive_shift", found: true, weight: 15, kind: "soft"},
		{name: "休息申请", constraint: "preference", found: true, weight: 10, kind: "soft"},
		{name: "未知约束", constraint: "max_hours_per_day", found: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def, ok := Find(penalty.DefaultWeights(), tt.constraint)
			assert.Equal(t, tt.found, ok)
			if !tt.found {
				return
			}
			assert.Equal(t, tt.weight, def.Weight)
			assert.Equal(t, tt.kind, def.Type)
		})
	}
}

func TestFind_CustomWeights(t *testing.T) {
	w := penalty.DefaultWeights()
	w.TotalAssign = 0
	def, ok := Find(w, "total_assign")
	require.True(t, ok)
	assert.Equal(t, 0.0, def.Weight)
}
