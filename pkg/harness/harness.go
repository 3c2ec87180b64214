package harness

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/paiban/nrp/pkg/logger"
)

// Harness 在计数闸门限制下为每个任务启动一个独立的协程
// 协程不复用，运行结束即退出；已启动的运行不会被取消
type Harness struct {
	mission *Mission
	runner  *Runner
	gate    *Gate
	log     *logger.HarnessLogger
	seeds   *rand.Rand

	// OnDispatch 每个任务启动前在派发协程中调用
	OnDispatch func(job Job, runID string)

	mu      sync.Mutex
	tally   *Tally
	results []RunResult // 最近 keep 次运行
	keep    int
}

// maxKeptResults Results 保留的最近运行数，汇总统计不受此限制
const maxKeptResults = 1024

// New 创建批量调度器，mission 必须已通过 Validate
func New(m *Mission, r *Runner) *Harness {
	seed := m.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Harness{
		mission: m,
		runner:  r,
		gate:    NewGate(m.ThreadNum),
		log:     logger.NewHarnessLogger(),
		seeds:   rand.New(rand.NewSource(seed)),
		tally:   NewTally(),
		keep:    maxKeptResults,
	}
}

// Gate 返回并发闸门
func (h *Harness) Gate() *Gate { return h.gate }

// Run 按派发顺序启动全部任务并等待结束
// 有限任务在全部运行完成后返回；无限任务在 ctx 结束后停止派发，
// 等待已启动的运行完成后返回
func (h *Harness) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()
	workerCtx := context.WithoutCancel(ctx)

	var wg sync.WaitGroup
	for job := range Jobs(h.mission) {
		if ctx.Err() != nil {
			break
		}
		if err := h.gate.Acquire(ctx); err != nil {
			break
		}

		runID := uuid.NewString()
		seed := h.seeds.Int63()
		if h.OnDispatch != nil {
			h.OnDispatch(job, runID)
		}
		h.log.Dispatch(runID, job.Instance.String(), job.Estimate)

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer h.gate.Release()
			h.runOne(workerCtx, job, runID, seed)
		}()
	}
	wg.Wait()

	h.mu.Lock()
	summary := h.tally.Summary()
	h.mu.Unlock()
	summary.Elapsed = time.Since(start)
	if h.mission.Repeat > 0 {
		return summary, ctx.Err()
	}
	return summary, nil
}

func (h *Harness) runOne(ctx context.Context, job Job, runID string, seed int64) {
	ctx = logger.ContextWithRunID(ctx, runID)
	if obs := h.runner.Observer; obs != nil {
		obs.RunStarted()
	}

	res, err := h.runner.RunInstance(ctx, h.mission, job, runID, seed)
	status := "ok"
	if err != nil {
		status = "failed"
		h.log.RunFailed(runID, job.Instance.String(), err)
	} else {
		h.log.RunComplete(runID, job.Instance.String(), res.Duration, res.AccObjValue)
	}
	if obs := h.runner.Observer; obs != nil {
		obs.RunFinished(status, res.Duration)
	}

	h.mu.Lock()
	h.tally.Add(*res)
	if len(h.results) >= h.keep {
		n := copy(h.results, h.results[len(h.results)-h.keep+1:])
		h.results = h.results[:n]
	}
	h.results = append(h.results, *res)
	h.mu.Unlock()
}

// Results 最近完成的运行结果副本，按完成顺序
func (h *Harness) Results() []RunResult {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]RunResult(nil), h.results...)
}
