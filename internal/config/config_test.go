package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "instance", cfg.Paths.InstanceDir)
	assert.False(t, cfg.Database.Enabled())
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.Equal(t, 10*time.Second, cfg.Scheduler.Timeout)
	assert.Equal(t, "local_search", cfg.Scheduler.Algorithm)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("NRP_LOG_LEVEL", "debug")
	t.Setenv("NRP_LOG_PATH", "/var/log/nrp.log")
	t.Setenv("NRP_OUTPUT_DIR", "/data/out")
	t.Setenv("NRP_LOG_FILE", "/data/run.log")
	t.Setenv("NRP_DB_DRIVER", "postgres")
	t.Setenv("NRP_DB_DSN", "postgres://nrp@localhost/nrp")
	t.Setenv("NRP_METRICS_ADDR", ":9100")
	t.Setenv("NRP_SOLVER_TIMEOUT", "1500ms")
	t.Setenv("NRP_SOLVER_MAX_ITERATIONS", "2000")
	t.Setenv("NRP_SOLVER_PARALLEL_WORKERS", "4")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/data/out", cfg.Paths.OutputDir)
	assert.Equal(t, "/data/run.log", cfg.Paths.LogFile)
	assert.True(t, cfg.Database.Enabled())
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, ":9100", cfg.Metrics.Addr)

	lc := cfg.Logger()
	assert.Equal(t, "debug", lc.Level)
	assert.Equal(t, "file", lc.Output)
	assert.Equal(t, "/var/log/nrp.log", lc.FilePath)

	sc := cfg.Solver()
	assert.Equal(t, 1500*time.Millisecond, sc.Timeout)
	assert.Equal(t, int64(2000), sc.MaxIterations)
	assert.True(t, sc.SuppressEarlyMinShift)

	assert.Equal(t, 4, cfg.Optimizer().ParallelWorkers)
}

func TestLoad_InvalidValue(t *testing.T) {
	t.Setenv("NRP_SOLVER_TIMEOUT", "soon")
	_, err := Load()
	assert.Error(t, err)
}
