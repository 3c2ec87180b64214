package harness

import (
	"iter"
	"sort"
	"time"
)

// Job 一次独立的滚动周期运行
type Job struct {
	Seq      int // 派发序号
	Instance InstanceSpec
	Round    int // 第几次重复，从 0 开始
	Estimate time.Duration
}

// Schedule 展开有限任务并按预计耗时降序稳定排序（最长处理时间优先）
// Repeat 为 0 时返回 nil，此时应使用 Jobs 无限循环
func Schedule(m *Mission) []Job {
	if m.Repeat <= 0 {
		return nil
	}
	specs := m.Specs()
	jobs := make([]Job, 0, m.Repeat*len(specs))
	for r := 0; r < m.Repeat; r++ {
		for _, spec := range specs {
			jobs = append(jobs, Job{
				Instance: spec,
				Round:    r,
				Estimate: estimate(m, spec),
			})
		}
	}
	sort.SliceStable(jobs, func(i, j int) bool {
		return jobs[i].Estimate > jobs[j].Estimate
	})
	for i := range jobs {
		jobs[i].Seq = i
	}
	return jobs
}

// Jobs 按派发顺序产出任务
// Repeat 大于 0 时即 Schedule 的结果；为 0 时按原顺序无限循环，不排序
func Jobs(m *Mission) iter.Seq[Job] {
	if m.Repeat > 0 {
		jobs := Schedule(m)
		return func(yield func(Job) bool) {
			for _, job := range jobs {
				if !yield(job) {
					return
				}
			}
		}
	}

	specs := m.Specs()
	return func(yield func(Job) bool) {
		if len(specs) == 0 {
			return
		}
		for seq := 0; ; seq++ {
			spec := specs[seq%len(specs)]
			job := Job{
				Seq:      seq,
				Instance: spec,
				Round:    seq / len(specs),
				Estimate: estimate(m, spec),
			}
			if !yield(job) {
				return
			}
		}
	}
}

// estimate 预计耗时 = 单周时间预算 × 周数
func estimate(m *Mission, spec InstanceSpec) time.Duration {
	return m.Timeout(spec.NurseNum) * time.Duration(len(spec.Weeks))
}
