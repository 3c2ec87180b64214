package harness

import (
	"context"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// Gate 限制同时运行的任务数
// 派发方在启动任务前 Acquire，任务结束时 Release
type Gate struct {
	sem      *semaphore.Weighted
	size     int64
	inFlight atomic.Int64
	peak     atomic.Int64
}

// NewGate 创建计数闸门，size 不大于 0 时使用 CPU 数
func NewGate(size int) *Gate {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	return &Gate{
		sem:  semaphore.NewWeighted(int64(size)),
		size: int64(size),
	}
}

// Acquire 阻塞直到拿到一个名额或 ctx 结束
func (g *Gate) Acquire(ctx context.Context) error {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	n := g.inFlight.Add(1)
	for {
		peak := g.peak.Load()
		if n <= peak || g.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	return nil
}

// Release 归还名额
func (g *Gate) Release() {
	g.inFlight.Add(-1)
	g.sem.Release(1)
}

// Size 名额总数
func (g *Gate) Size() int { return int(g.size) }

// InFlight 当前占用的名额
func (g *Gate) InFlight() int { return int(g.inFlight.Load()) }

// Peak 曾经同时占用的最大名额
func (g *Gate) Peak() int { return int(g.peak.Load()) }
