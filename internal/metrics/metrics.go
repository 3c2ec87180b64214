// Package metrics 提供Prometheus监控指标
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/paiban/nrp/pkg/logger"
)

// Recorder 记录批量运行指标，实现 harness.Observer
type Recorder struct {
	runs       *prometheus.CounterVec
	active     prometheus.Gauge
	runSeconds prometheus.Histogram
	weekSecs   prometheus.Histogram
	objective  *prometheus.GaugeVec
	iterations prometheus.Counter
}

// NewRecorder 在 reg 上注册指标，reg 为空时使用默认注册表
// 已注册的同名指标会被复用
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	r := &Recorder{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nrp_runs_total",
			Help: "完成的滚动周期运行数",
		}, []string{"status"}),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "nrp_active_runs",
			Help: "当前正在进行的运行数",
		}),
		runSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "nrp_run_duration_seconds",
			Help:    "单次运行耗时",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800},
		}),
		weekSecs: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "nrp_week_solve_duration_seconds",
			Help:    "单周求解耗时",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		objective: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "nrp_week_objective",
			Help: "最近一次单周求解的目标值",
		}, []string{"instance"}),
		iterations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nrp_search_iterations_total",
			Help: "搜索迭代总数",
		}),
	}

	var err error
	if r.runs, err = register(reg, r.runs); err != nil {
		return nil, err
	}
	if r.active, err = register(reg, r.active); err != nil {
		return nil, err
	}
	if r.runSeconds, err = register(reg, r.runSeconds); err != nil {
		return nil, err
	}
	if r.weekSecs, err = register(reg, r.weekSecs); err != nil {
		return nil, err
	}
	if r.objective, err = register(reg, r.objective); err != nil {
		return nil, err
	}
	if r.iterations, err = register(reg, r.iterations); err != nil {
		return nil, err
	}
	return r, nil
}

// register 注册指标，已存在时返回已有的实例
func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RunStarted 运行开始
func (r *Recorder) RunStarted() {
	r.active.Inc()
}

// RunFinished 运行结束
func (r *Recorder) RunFinished(status string, duration time.Duration) {
	r.active.Dec()
	r.runs.WithLabelValues(status).Inc()
	r.runSeconds.Observe(duration.Seconds())
}

// WeekSolved 单周求解完成
func (r *Recorder) WeekSolved(instance string, objective float64, duration time.Duration, iterations int64) {
	r.weekSecs.Observe(duration.Seconds())
	r.objective.WithLabelValues(instance).Set(objective)
	r.iterations.Add(float64(iterations))
}

// Serve 在 addr 上提供指标接口，直到 ctx 结束
func Serve(ctx context.Context, addr, path string, gatherer prometheus.Gatherer) error {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	if path == "" {
		path = "/metrics"
	}
	mux := http.NewServeMux()
	mux.Handle(path, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("关闭指标服务失败")
		}
	}()

	logger.Info().Str("addr", addr).Str("path", path).Msg("指标服务已启动")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
