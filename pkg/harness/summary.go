package harness

import (
	"fmt"
	"io"
	"math"
	"sort"
	"text/tabwriter"
	"time"
)

// InstanceSummary 同一实例多次运行的累计目标值统计
type InstanceSummary struct {
	Instance string  `json:"instance"`
	Runs     int     `json:"runs"`
	Failed   int     `json:"failed"`
	Feasible int     `json:"feasible"`
	Mean     float64 `json:"mean"`
	StdDev   float64 `json:"std_dev"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
}

// Summary 一次任务的汇总
type Summary struct {
	Runs      int               `json:"runs"`
	Failed    int               `json:"failed"`
	Elapsed   time.Duration     `json:"elapsed"`
	Instances []InstanceSummary `json:"instances"`
}

// Summarize 按实例汇总，只有成功完成的运行参与统计
func Summarize(results []RunResult) *Summary {
	t := NewTally()
	for _, r := range results {
		t.Add(r)
	}
	return t.Summary()
}

// Tally 逐个累计运行结果，不保留单次结果
// 均值与样本标准差按 Welford 递推，无限任务下内存占用只随实例数增长
type Tally struct {
	runs   int
	failed int
	groups map[string]*accumulator
}

type accumulator struct {
	InstanceSummary
	n  int
	m2 float64
}

// NewTally 创建空的累计器
func NewTally() *Tally {
	return &Tally{groups: make(map[string]*accumulator)}
}

// Add 计入一次运行
func (t *Tally) Add(r RunResult) {
	t.runs++
	g, ok := t.groups[r.Instance]
	if !ok {
		g = &accumulator{InstanceSummary: InstanceSummary{Instance: r.Instance}}
		t.groups[r.Instance] = g
	}
	g.Runs++
	if r.Err != nil {
		t.failed++
		g.Failed++
		return
	}
	if r.Feasible {
		g.Feasible++
	}

	x := r.AccObjValue
	g.n++
	if g.n == 1 {
		g.Min, g.Max = x, x
	} else {
		g.Min = math.Min(g.Min, x)
		g.Max = math.Max(g.Max, x)
	}
	d := x - g.Mean
	g.Mean += d / float64(g.n)
	g.m2 += d * (x - g.Mean)
}

// Summary 当前累计结果，实例按名称排序
func (t *Tally) Summary() *Summary {
	s := &Summary{Runs: t.runs, Failed: t.failed}
	s.Instances = make([]InstanceSummary, 0, len(t.groups))
	for _, g := range t.groups {
		is := g.InstanceSummary
		if g.n > 1 {
			is.StdDev = math.Sqrt(g.m2 / float64(g.n-1))
		}
		s.Instances = append(s.Instances, is)
	}
	sort.Slice(s.Instances, func(i, j int) bool {
		return s.Instances[i].Instance < s.Instances[j].Instance
	})
	return s
}

// Write 以表格形式输出
func (s *Summary) Write(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Instance\tRuns\tFailed\tFeasible\tMean\tStdDev\tMin\tMax")
	for _, g := range s.Instances {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%.2f\t%.2f\t%.2f\t%.2f\n",
			g.Instance, g.Runs, g.Failed, g.Feasible, g.Mean, g.StdDev, g.Min, g.Max)
	}
	fmt.Fprintf(tw, "total\t%d\t%d\t\t\t\t\t\n", s.Runs, s.Failed)
	return tw.Flush()
}
