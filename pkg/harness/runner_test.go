package harness

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paiban/nrp/internal/testutil"
	apperrors "github.com/paiban/nrp/pkg/errors"
	"github.com/paiban/nrp/pkg/instance"
	"github.com/paiban/nrp/pkg/logger"
	"github.com/paiban/nrp/pkg/model"
	"github.com/paiban/nrp/pkg/scheduler/optimizer"
	"github.com/paiban/nrp/pkg/scheduler/solver"
)

// fakeObserver 记录回调次数
type fakeObserver struct {
	mu       sync.Mutex
	started  int
	finished map[string]int
	weeks    int
}

func (o *fakeObserver) RunStarted() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.started++
}

func (o *fakeObserver) RunFinished(status string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.finished == nil {
		o.finished = make(map[string]int)
	}
	o.finished[status]++
}

func (o *fakeObserver) WeekSolved(string, float64, time.Duration, int64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.weeks++
}

// fakeStore 保存记录及保存时上下文中的运行ID，可以设置为总是失败
type fakeStore struct {
	mu      sync.Mutex
	records []*Record
	runIDs  []string
	err     error
}

func (s *fakeStore) SaveRecord(ctx context.Context, r *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.records = append(s.records, r)
	runID, _ := logger.RunIDFromContext(ctx)
	s.runIDs = append(s.runIDs, runID)
	return nil
}

func newTestRunner(t *testing.T) *Runner {
	t.Helper()
	cfg := solver.DefaultConfig()
	cfg.Timeout = 0
	cfg.MaxIterations = 20
	factory, err := optimizer.NewSearchFactory(optimizer.AlgorithmGreedy, nil)
	require.NoError(t, err)
	r, err := NewRunner(cfg, factory)
	require.NoError(t, err)
	return r
}

func weekDescriptor(instDir, outDir string) *RunDescriptor {
	return &RunDescriptor{
		ID:            "run-1",
		Instance:      "n003w2_0_0-1",
		Config:        "test",
		Week:          0,
		ScenarioPath:  instance.ScenarioPath(instDir, testutil.ScenarioName),
		WeekdataPath:  instance.WeekdataPath(instDir, testutil.ScenarioName, 0),
		HistoryPath:   instance.HistoryPath(instDir, testutil.ScenarioName, 0),
		SolutionPath:  filepath.Join(outDir, "sol-week0.json"),
		NextHistory:   filepath.Join(outDir, "history-week1.json"),
		CustomOutPath: filepath.Join(outDir, "custom-week0.json"),
		RandSeed:      11,
	}
}

func TestNewRunner(t *testing.T) {
	_, err := NewRunner(solver.DefaultConfig(), nil)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeInvalidInput))
}

func TestRunner_RunWeek(t *testing.T) {
	instDir := testutil.WriteInstanceDir(t)
	outDir := t.TempDir()

	r := newTestRunner(t)
	log, err := OpenRunLog(filepath.Join(outDir, "run.log"))
	require.NoError(t, err)
	defer log.Close()
	store := &fakeStore{}
	obs := &fakeObserver{}
	r.Log, r.Store, r.Observer = log, store, obs

	desc := weekDescriptor(instDir, outDir)
	outcome, err := r.RunWeek(context.Background(), desc)
	require.NoError(t, err)

	rec := outcome.Record
	assert.Equal(t, "run-1", rec.ID)
	assert.Equal(t, int64(11), rec.RandSeed)
	assert.Equal(t, int64(20), rec.IterCount)
	assert.Equal(t, desc.SolutionPath, rec.Solution)
	assert.GreaterOrEqual(t, rec.AccObjValue, rec.ObjValue)
	require.NotNil(t, outcome.Check)
	assert.Equal(t, outcome.Check.Objective, rec.CheckObj)
	assert.Equal(t, 1, outcome.NextHistory.RestWeekCount)

	// 写出的解可以被重新读取并解码
	raw, err := instance.LoadSolution(desc.SolutionPath)
	require.NoError(t, err)
	assert.Equal(t, testutil.ScenarioName, raw.Scenario)

	rh, err := instance.LoadHistory(desc.NextHistory)
	require.NoError(t, err)
	assert.Equal(t, 1, rh.Week)

	var state CustomState
	require.NoError(t, instance.ReadJSON(desc.CustomOutPath, &state))
	assert.Equal(t, "run-1", state.RunID)
	require.Len(t, state.Weeks, 1)
	assert.Equal(t, int64(11), state.Weeks[0].RandSeed)

	assert.Len(t, readLines(t, log.Path()), 2)
	assert.Len(t, store.records, 1)
	assert.Equal(t, []string{"run-1"}, store.runIDs, "保存记录时上下文应带运行ID")
	assert.Equal(t, 1, obs.weeks)
}

func TestRunner_RunWeek_Errors(t *testing.T) {
	instDir := testutil.WriteInstanceDir(t)

	tests := []struct {
		name   string
		modify func(d *RunDescriptor)
		code   apperrors.Code
	}{
		{name: "缺少运行编号", modify: func(d *RunDescriptor) { d.ID = "" }, code: apperrors.CodeInvalidInput},
		{name: "缺少解文件路径", modify: func(d *RunDescriptor) { d.SolutionPath = "" }, code: apperrors.CodeInvalidInput},
		{
			name:   "周数据不存在",
			modify: func(d *RunDescriptor) { d.WeekdataPath = instance.WeekdataPath(instDir, testutil.ScenarioName, 9) },
			code:   apperrors.CodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			desc := weekDescriptor(instDir, t.TempDir())
			tt.modify(desc)
			_, err := newTestRunner(t).RunWeek(context.Background(), desc)
			require.Error(t, err)
			assert.True(t, apperrors.Is(err, tt.code), "got %v", err)
		})
	}
}

func TestRunner_RunWeek_StoreFailureIsNotFatal(t *testing.T) {
	instDir := testutil.WriteInstanceDir(t)
	r := newTestRunner(t)
	r.Store = &fakeStore{err: errors.New("connection refused")}

	_, err := r.RunWeek(context.Background(), weekDescriptor(instDir, t.TempDir()))
	assert.NoError(t, err)
}

func TestRunner_RunWeek_Reproducible(t *testing.T) {
	instDir := testutil.WriteInstanceDir(t)

	run := func() float64 {
		outcome, err := newTestRunner(t).RunWeek(context.Background(), weekDescriptor(instDir, t.TempDir()))
		require.NoError(t, err)
		return outcome.Record.ObjValue
	}
	assert.Equal(t, run(), run())
}

func instanceMission(t *testing.T, instDir string, instances ...string) *Mission {
	t.Helper()
	m := &Mission{
		ThreadNum:     2,
		Repeat:        1,
		Instances:     instances,
		Timeouts:      map[int]float64{3: 5},
		InstanceDir:   instDir,
		OutputDir:     t.TempDir(),
		Config:        "test",
		MaxIterations: 20,
		Seed:          1,
	}
	require.NoError(t, m.Validate())
	return m
}

func TestRunner_RunInstance(t *testing.T) {
	instDir := testutil.WriteInstanceDir(t)
	m := instanceMission(t, instDir, "n003w2 0 0-1")
	job := Schedule(m)[0]

	r := newTestRunner(t)
	log, err := OpenRunLog(filepath.Join(m.OutputDir, "run.log"))
	require.NoError(t, err)
	defer log.Close()
	r.Log = log

	res, err := r.RunInstance(context.Background(), m, job, "run-x", 5)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Weeks)
	assert.Equal(t, "n003w2_0_0-1", res.Instance)
	assert.NoError(t, res.Err)

	dir := filepath.Join(m.OutputDir, "run-x")
	for _, name := range []string{
		"sol-week0.json", "sol-week1.json",
		"history-week1.json", "history-week2.json",
		"run-week0.json", "run-week1.json",
	} {
		assert.FileExists(t, filepath.Join(dir, name))
	}

	// 第二周的描述引用第一周写出的历史与状态
	desc, err := LoadDescriptor(filepath.Join(dir, "run-week1.json"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "history-week1.json"), desc.HistoryPath)
	assert.Equal(t, filepath.Join(dir, "custom-week0.json"), desc.CustomInPath)
	assert.Equal(t, 1, desc.Week)
	assert.Equal(t, 5.0, desc.Timeout)

	var state CustomState
	require.NoError(t, instance.ReadJSON(filepath.Join(dir, "custom-week1.json"), &state))
	require.Len(t, state.Weeks, 2)
	assert.NotEqual(t, state.Weeks[0].RandSeed, state.Weeks[1].RandSeed)

	lines := readLines(t, log.Path())
	require.Len(t, lines, 3)
	last := lines[2]
	assert.Contains(t, last, "n003w2_0_0-1")

	rh, err := instance.LoadHistory(filepath.Join(dir, "history-week2.json"))
	require.NoError(t, err)
	assert.Equal(t, 2, rh.Week)
	assert.InDelta(t, res.AccObjValue, model.Report(rh.AccObjValue), 1e-9)
}

func TestRunner_RunInstance_MissingWeekdata(t *testing.T) {
	instDir := testutil.WriteInstanceDir(t)
	m := instanceMission(t, instDir, "n003w2 0 0-7")

	res, err := newTestRunner(t).RunInstance(context.Background(), m, Schedule(m)[0], "run-y", 5)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))
	assert.Equal(t, 1, res.Weeks)
	assert.Equal(t, err, res.Err)
}
