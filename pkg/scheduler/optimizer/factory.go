package optimizer

import (
	"fmt"

	apperrors "github.com/paiban/nrp/pkg/errors"
	"github.com/paiban/nrp/pkg/scheduler/solver"
)

// 算法名称
const (
	AlgorithmGreedy      = "greedy"
	AlgorithmLocalSearch = "local_search"
)

// Algorithms 可选算法
var Algorithms = []string{AlgorithmGreedy, AlgorithmLocalSearch}

// NewSearchFactory 按名称返回搜索算法工厂，空名称为局部搜索
// 每次调用工厂都得到新实例，搜索状态不在周之间共享
func NewSearchFactory(name string, cfg *OptimizationConfig) (func() solver.MoveSearch, error) {
	switch name {
	case AlgorithmGreedy:
		return func() solver.MoveSearch { return NewGreedySolver() }, nil
	case "", AlgorithmLocalSearch:
		return func() solver.MoveSearch { return NewLocalSearchOptimizer(cfg) }, nil
	default:
		return nil, apperrors.InvalidInput("algorithm", fmt.Sprintf("未知算法 %q", name))
	}
}
