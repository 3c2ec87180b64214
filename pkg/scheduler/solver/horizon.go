package solver

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	apperrors "github.com/paiban/nrp/pkg/errors"
	"github.com/paiban/nrp/pkg/instance"
	"github.com/paiban/nrp/pkg/logger"
	"github.com/paiban/nrp/pkg/model"
	"github.com/paiban/nrp/pkg/scheduler/constraint"
)

// WeekResult 一周求解结束后交给 WeekSink 的结果
type WeekResult struct {
	Week        int                // 从 0 开始的周序号
	Seed        int64              // 本周使用的随机种子
	Input       *model.Input       // 本周编译后的输入
	Output      *model.Output      // 本周接受的方案
	NextHistory model.HistoryInfo  // 推导出的下一周历史
	Check       *constraint.Result // 默认权重下的复核结果
	Feasible    bool
	GenCount    int
	IterCount   int64
	Duration    time.Duration
}

// WeekSink 接收每周的结果，返回错误会终止整个周期
type WeekSink func(r *WeekResult) error

// Horizon 驱动一个实例的全部周
type Horizon struct {
	Scenario    *instance.RawScenario
	InitHistory *instance.RawHistory
	Weekdata    []*instance.RawWeekdata

	Config    Config
	Seed      int64
	NewSearch func() MoveSearch
	Projector HistoryProjector
	Sink      WeekSink
	RunID     string
}

// Run 依次求解每周并传递历史，返回最后一周之后的历史
// 周数据少于剩余周数时在求解前报错；剩余周数为零时结束，多余的周数据被忽略
func (h *Horizon) Run(ctx context.Context) (model.HistoryInfo, error) {
	if len(h.Weekdata) == 0 {
		return model.HistoryInfo{}, apperrors.InvalidInput("weekdata", "至少需要一周")
	}
	if h.NewSearch == nil {
		return model.HistoryInfo{}, apperrors.InvalidInput("search", "未指定搜索算法")
	}

	in, err := instance.Compile(h.Scenario, h.Weekdata[0], h.InitHistory)
	if err != nil {
		return model.HistoryInfo{}, err
	}
	if len(h.Weekdata) < in.History.RestWeekCount {
		return in.History, apperrors.InvalidInput("weekdata",
			fmt.Sprintf("剩余 %d 周，只提供了 %d 周数据", in.History.RestWeekCount, len(h.Weekdata)))
	}

	rng := rand.New(rand.NewSource(h.Seed))
	log := logger.NewSolverLogger(h.RunID)

	for week := 0; in.History.RestWeekCount > 0; week++ {
		if week > 0 {
			next := &model.Input{
				Scenario: in.Scenario,
				Names:    in.Names,
				History:  in.History,
			}
			if err := instance.CompileWeekdata(h.Weekdata[week], &next.Scenario, &next.Names, &next.Weekdata); err != nil {
				return in.History, fmt.Errorf("第 %d 周: %w", week, err)
			}
			in = next
		}

		seed := rng.Int63()
		s, err := NewSolver(in, h.Config, rand.New(rand.NewSource(seed)), h.NewSearch())
		if err != nil {
			return in.History, err
		}
		if h.Projector != nil {
			s.SetProjector(h.Projector)
		}
		s.SetLogger(log)
		s.Init()
		if err := s.Solve(ctx); err != nil {
			return in.History, fmt.Errorf("第 %d 周: %w", week, err)
		}

		result := &WeekResult{
			Week:        week,
			Seed:        seed,
			Input:       in,
			Output:      s.Output(),
			NextHistory: s.NextHistory(),
			Check:       s.Check(),
			Feasible:    s.Feasible(),
			GenCount:    s.GenCount(),
			IterCount:   s.IterCount(),
			Duration:    s.Duration(),
		}
		if h.Sink != nil {
			if err := h.Sink(result); err != nil {
				return in.History, err
			}
		}

		in = &model.Input{
			Scenario: in.Scenario,
			Weekdata: in.Weekdata,
			Names:    in.Names,
			History:  result.NextHistory,
		}

		if ctx.Err() != nil {
			return in.History, ctx.Err()
		}
	}

	return in.History, nil
}
