package harness

import (
	"time"

	apperrors "github.com/paiban/nrp/pkg/errors"
	"github.com/paiban/nrp/pkg/instance"
)

// RunDescriptor 单周运行的输入输出描述，由批量调度生成，也可以手工编写
type RunDescriptor struct {
	ID       string `json:"id" validate:"required"`
	Instance string `json:"instance"`
	Config   string `json:"config"`
	Week     int    `json:"week" validate:"gte=0"`

	ScenarioPath string `json:"scenario" validate:"required"`
	WeekdataPath string `json:"weekdata" validate:"required"`
	HistoryPath  string `json:"history" validate:"required"`
	CustomInPath string `json:"custom_in,omitempty"`

	SolutionPath  string `json:"solution" validate:"required"`
	NextHistory   string `json:"next_history,omitempty"`
	CustomOutPath string `json:"custom_out,omitempty"`

	RandSeed      int64   `json:"rand_seed"`
	MaxIterations int64   `json:"max_iterations" validate:"gte=0"`
	Timeout       float64 `json:"timeout" validate:"gte=0"` // 秒
}

// TimeoutDuration 时间预算
func (d *RunDescriptor) TimeoutDuration() time.Duration {
	return time.Duration(d.Timeout * float64(time.Second))
}

// Validate 校验必填字段
func (d *RunDescriptor) Validate() error {
	if err := validate.Struct(d); err != nil {
		return apperrors.Wrap(err, apperrors.CodeInvalidInput, "运行描述不合法")
	}
	return nil
}

// LoadDescriptor 读取并校验运行描述
func LoadDescriptor(path string) (*RunDescriptor, error) {
	var d RunDescriptor
	if err := instance.ReadJSON(path, &d); err != nil {
		return nil, err
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// Save 写出运行描述
func (d *RunDescriptor) Save(path string) error {
	return instance.WriteJSON(path, d)
}

// CustomState 跨周传递的运行状态，记录每周的种子与结果
type CustomState struct {
	RunID string        `json:"run_id"`
	Weeks []WeekSummary `json:"weeks"`
}

// WeekSummary 单周结果摘要
type WeekSummary struct {
	Week      int     `json:"week"`
	RandSeed  int64   `json:"rand_seed"`
	ObjValue  float64 `json:"obj_value"`
	Feasible  bool    `json:"feasible"`
	GenCount  int     `json:"gen_count"`
	IterCount int64   `json:"iter_count"`
}
