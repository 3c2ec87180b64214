// Package logger 提供统一的日志框架
package logger

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	once   sync.Once
	logger zerolog.Logger
)

// Level 日志级别
type Level = zerolog.Level

const (
	DebugLevel = zerolog.DebugLevel
	InfoLevel  = zerolog.InfoLevel
	WarnLevel  = zerolog.WarnLevel
	ErrorLevel = zerolog.ErrorLevel
	FatalLevel = zerolog.FatalLevel
)

type ctxKey string

// RunIDKey 上下文中运行ID的键
const RunIDKey ctxKey = "run_id"

// Config 日志配置
type Config struct {
	Level      string `yaml:"level" json:"level"`
	Format     string `yaml:"format" json:"format"` // json/console
	Output     string `yaml:"output" json:"output"` // stdout/stderr/file
	FilePath   string `yaml:"file_path,omitempty" json:"file_path,omitempty"`
	TimeFormat string `yaml:"time_format,omitempty" json:"time_format,omitempty"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		Format:     "console",
		Output:     "stderr",
		TimeFormat: time.RFC3339,
	}
}

// Init 初始化日志器，只有第一次调用生效
func Init(cfg Config) {
	once.Do(func() {
		level := parseLevel(cfg.Level)
		zerolog.SetGlobalLevel(level)

		var output io.Writer
		switch cfg.Output {
		case "stdout":
			output = os.Stdout
		case "file":
			if cfg.FilePath != "" {
				f, err := os.OpenFile(cfg.FilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
				if err == nil {
					output = f
				} else {
					output = os.Stderr
				}
			} else {
				output = os.Stderr
			}
		default:
			output = os.Stderr
		}

		if cfg.Format == "console" {
			output = zerolog.ConsoleWriter{
				Out:        output,
				TimeFormat: cfg.TimeFormat,
			}
		}

		logger = zerolog.New(output).With().Timestamp().Logger()
	})
}

// parseLevel 解析日志级别
func parseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// Get 获取日志器
func Get() *zerolog.Logger {
	Init(DefaultConfig())
	return &logger
}

// ContextWithRunID 把运行ID放入上下文
func ContextWithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, RunIDKey, runID)
}

// RunIDFromContext 取出上下文中的运行ID
func RunIDFromContext(ctx context.Context) (string, bool) {
	runID, ok := ctx.Value(RunIDKey).(string)
	return runID, ok && runID != ""
}

// WithContext 从上下文创建日志器
func WithContext(ctx context.Context) *zerolog.Logger {
	l := withRunID(*Get(), ctx)
	return &l
}

func withRunID(l zerolog.Logger, ctx context.Context) zerolog.Logger {
	if runID, ok := RunIDFromContext(ctx); ok {
		return l.With().Str("run_id", runID).Logger()
	}
	return l
}

// Debug 记录调试日志
func Debug() *zerolog.Event {
	return Get().Debug()
}

// Info 记录信息日志
func Info() *zerolog.Event {
	return Get().Info()
}

// Warn 记录警告日志
func Warn() *zerolog.Event {
	return Get().Warn()
}

// Error 记录错误日志
func Error() *zerolog.Event {
	return Get().Error()
}

// Fatal 记录致命错误日志
func Fatal() *zerolog.Event {
	return Get().Fatal()
}

// WithError 添加错误信息
func WithError(err error) *zerolog.Event {
	return Get().Error().Err(err)
}

// WithField 添加字段
func WithField(key string, value interface{}) *zerolog.Logger {
	l := Get().With().Interface(key, value).Logger()
	return &l
}

// SolverLogger 求解器专用日志器
type SolverLogger struct {
	base *zerolog.Logger
}

// NewSolverLogger 创建求解器日志器
func NewSolverLogger(runID string) *SolverLogger {
	l := Get().With().Str("component", "solver").Str("run_id", runID).Logger()
	return &SolverLogger{base: &l}
}

// StartWeek 记录单周求解开始
func (l *SolverLogger) StartWeek(instance string, week, nurses int, budget time.Duration) {
	l.base.Info().
		Str("instance", instance).
		Int("week", week).
		Int("nurses", nurses).
		Dur("budget", budget).
		Msg("开始求解单周")
}

// NewBest 记录找到更优解
func (l *SolverLogger) NewBest(iteration int64, obj float64, feasible bool) {
	l.base.Debug().
		Int64("iteration", iteration).
		Float64("obj", obj).
		Bool("feasible", feasible).
		Msg("发现更优解")
}

// WeekComplete 记录单周求解完成
func (l *SolverLogger) WeekComplete(week int, duration time.Duration, obj, accObj float64, feasible bool) {
	ev := l.base.Info()
	if !feasible {
		ev = l.base.Warn()
	}
	ev.Int("week", week).
		Dur("duration", duration).
		Float64("obj", obj).
		Float64("acc_obj", accObj).
		Bool("feasible", feasible).
		Msg("单周求解完成")
}

// HarnessLogger 批量调度专用日志器
type HarnessLogger struct {
	base *zerolog.Logger
}

// NewHarnessLogger 创建批量调度日志器
func NewHarnessLogger() *HarnessLogger {
	l := Get().With().Str("component", "harness").Logger()
	return &HarnessLogger{base: &l}
}

// Dispatch 记录任务派发
func (l *HarnessLogger) Dispatch(runID, instance string, estimate time.Duration) {
	l.base.Info().
		Str("run_id", runID).
		Str("instance", instance).
		Dur("estimate", estimate).
		Msg("派发求解任务")
}

// RunFailed 记录任务失败
func (l *HarnessLogger) RunFailed(runID, instance string, err error) {
	l.base.Error().
		Err(err).
		Str("run_id", runID).
		Str("instance", instance).
		Msg("求解任务失败")
}

// RunComplete 记录任务完成
func (l *HarnessLogger) RunComplete(runID, instance string, duration time.Duration, accObj float64) {
	l.base.Info().
		Str("run_id", runID).
		Str("instance", instance).
		Dur("duration", duration).
		Float64("acc_obj", accObj).
		Msg("求解任务完成")
}
