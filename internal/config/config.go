// Package config 提供配置管理
package config

import (
	"errors"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/paiban/nrp/pkg/logger"
	"github.com/paiban/nrp/pkg/scheduler/optimizer"
	"github.com/paiban/nrp/pkg/scheduler/solver"
)

// Prefix 所有环境变量的前缀
const Prefix = "NRP_"

// Config 进程配置
type Config struct {
	Env string `env:"ENV" envDefault:"development"`

	Log       LogConfig       `envPrefix:"LOG_"`
	Paths     PathConfig
	Database  DatabaseConfig  `envPrefix:"DB_"`
	Metrics   MetricsConfig   `envPrefix:"METRICS_"`
	Scheduler SchedulerConfig `envPrefix:"SOLVER_"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"console"` // json/console
	Output string `env:"OUTPUT" envDefault:"stderr"`
	Path   string `env:"PATH"`
}

// PathConfig 实例与输出目录
type PathConfig struct {
	InstanceDir string `env:"INSTANCE_DIR" envDefault:"instance"`
	OutputDir   string `env:"OUTPUT_DIR" envDefault:"output"`
	LogFile     string `env:"LOG_FILE"`
}

// DatabaseConfig 运行记录库配置，DSN 为空时不启用
type DatabaseConfig struct {
	Driver          string        `env:"DRIVER" envDefault:"sqlite"` // postgres/sqlite
	DSN             string        `env:"DSN"`
	MaxOpenConns    int           `env:"MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns    int           `env:"MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME" envDefault:"5m"`
	ConnectTimeout  time.Duration `env:"CONNECT_TIMEOUT" envDefault:"5s"`
}

// Enabled 是否配置了运行记录库
func (c *DatabaseConfig) Enabled() bool {
	return c.DSN != ""
}

// MetricsConfig 监控配置，Addr 为空时不启动指标服务
type MetricsConfig struct {
	Addr string `env:"ADDR"`
	Path string `env:"PATH" envDefault:"/metrics"`
}

// SchedulerConfig 求解默认值，任务文件与运行描述中的值优先
type SchedulerConfig struct {
	Timeout          time.Duration `env:"TIMEOUT" envDefault:"10s"`
	MaxIterations    int64         `env:"MAX_ITERATIONS" envDefault:"0"`
	Algorithm        string        `env:"ALGORITHM" envDefault:"local_search"`
	UseSecondary     bool          `env:"USE_SECONDARY" envDefault:"false"`
	SuppressEarlyMin bool          `env:"SUPPRESS_EARLY_MIN" envDefault:"true"`
	ParallelWorkers  int           `env:"PARALLEL_WORKERS" envDefault:"1"`
	TabuSize         int           `env:"TABU_SIZE" envDefault:"50"`
	PlateauThreshold int           `env:"PLATEAU_THRESHOLD" envDefault:"500"`
}

// Load 从环境变量加载配置
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: Prefix}); err != nil {
		var aggErr env.AggregateError
		if errors.As(err, &aggErr) && len(aggErr.Errors) > 0 {
			// 只返回第一个错误使得日志更清晰
			return nil, aggErr.Errors[0]
		}
		return nil, err
	}
	return cfg, nil
}

// IsDevelopment 检查是否为开发环境
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Logger 转换为日志配置
func (c *Config) Logger() logger.Config {
	lc := logger.DefaultConfig()
	lc.Level = c.Log.Level
	lc.Format = c.Log.Format
	lc.Output = c.Log.Output
	if c.Log.Path != "" {
		lc.Output = "file"
		lc.FilePath = c.Log.Path
	}
	return lc
}

// Solver 转换为单周求解配置
func (c *Config) Solver() solver.Config {
	sc := solver.DefaultConfig()
	sc.Timeout = c.Scheduler.Timeout
	sc.MaxIterations = c.Scheduler.MaxIterations
	sc.UseSecondary = c.Scheduler.UseSecondary
	sc.SuppressEarlyMinShift = c.Scheduler.SuppressEarlyMin
	return sc
}

// Optimizer 转换为局部搜索配置
func (c *Config) Optimizer() *optimizer.OptimizationConfig {
	oc := optimizer.DefaultOptConfig()
	oc.ParallelWorkers = c.Scheduler.ParallelWorkers
	oc.TabuSize = c.Scheduler.TabuSize
	oc.PlateauThreshold = c.Scheduler.PlateauThreshold
	return oc
}
