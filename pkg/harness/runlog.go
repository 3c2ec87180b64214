package harness

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Columns 运行日志的固定列
var Columns = []string{
	"Time", "ID", "Instance", "Config", "RandSeed", "GenCount", "IterCount",
	"Duration", "Feasible", "Check-Obj", "ObjValue", "AccObjValue", "Solution",
}

// Record 运行日志中的一行，对应一个已求解的周
type Record struct {
	Time        time.Time     `json:"time"`
	ID          string        `json:"id"`
	Instance    string        `json:"instance"`
	Config      string        `json:"config"`
	Week        int           `json:"week"`
	RandSeed    int64         `json:"rand_seed"`
	GenCount    int           `json:"gen_count"`
	IterCount   int64         `json:"iter_count"`
	Duration    time.Duration `json:"duration"`
	Feasible    bool          `json:"feasible"`
	CheckObj    float64       `json:"check_obj"`
	ObjValue    float64       `json:"obj_value"`
	AccObjValue float64       `json:"acc_obj_value"`
	Solution    string        `json:"solution"`
}

// line 按 Columns 顺序以制表符分隔
func (r *Record) line() string {
	fields := []string{
		r.Time.Format(time.RFC3339),
		r.ID,
		r.Instance,
		r.Config,
		fmt.Sprint(r.RandSeed),
		fmt.Sprint(r.GenCount),
		fmt.Sprint(r.IterCount),
		fmt.Sprintf("%.3f", r.Duration.Seconds()),
		fmt.Sprint(r.Feasible),
		fmt.Sprintf("%.2f", r.CheckObj),
		fmt.Sprintf("%.2f", r.ObjValue),
		fmt.Sprintf("%.2f", r.AccObjValue),
		r.Solution,
	}
	return strings.Join(fields, "\t") + "\n"
}

// RunLog 只追加的运行日志，可被多个任务并发写入
type RunLog struct {
	mu   sync.Mutex
	f    *os.File
	path string
}

// OpenRunLog 打开运行日志，文件不存在或为空时先写表头
func OpenRunLog(path string) (*RunLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("创建日志目录失败: %w", err)
	}

	needHeader := false
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		needHeader = true
	case err != nil:
		return nil, fmt.Errorf("读取日志文件失败: %w", err)
	case info.Size() == 0:
		needHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("打开日志文件失败: %w", err)
	}
	l := &RunLog{f: f, path: path}
	if needHeader {
		if _, err := f.WriteString(strings.Join(Columns, "\t") + "\n"); err != nil {
			f.Close()
			return nil, fmt.Errorf("写入日志表头失败: %w", err)
		}
	}
	return l, nil
}

// Append 追加一行，每行只调用一次 Write
func (l *RunLog) Append(r *Record) error {
	line := r.line()
	l.mu.Lock()
	defer l.mu.Unlock()
	_, err := l.f.WriteString(line)
	return err
}

// Path 日志文件路径
func (l *RunLog) Path() string { return l.path }

// Close 关闭文件
func (l *RunLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.f.Close()
}
