package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/paiban/nrp/internal/config"
	"github.com/paiban/nrp/internal/database"
	"github.com/paiban/nrp/internal/metrics"
	"github.com/paiban/nrp/internal/repository"
	"github.com/paiban/nrp/pkg/harness"
	"github.com/paiban/nrp/pkg/logger"
	"github.com/paiban/nrp/pkg/scheduler/optimizer"
)

var (
	cfg       *config.Config
	algorithm string
)

var rootCmd = &cobra.Command{
	Use:           "nrp",
	Short:         "滚动周期护士排班求解器",
	Version:       fmt.Sprintf("%s (%s, %s)", Version, GitCommit, BuildTime),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}
		cfg = loaded
		logger.Init(cfg.Logger())
		if algorithm == "" {
			algorithm = cfg.Scheduler.Algorithm
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&algorithm, "algorithm", "a", "",
		fmt.Sprintf("搜索算法 %v，默认取 NRP_SOLVER_ALGORITHM", optimizer.Algorithms))
}

// Execute 执行命令行
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		logger.Error().Err(err).Msg("执行失败")
		return err
	}
	return nil
}

// services 运行器及其可选的日志、存储与指标
type services struct {
	runner *harness.Runner
	db     *database.DB
	log    *harness.RunLog
}

// newServices 按配置组装运行器，logFile 为空时不写运行日志
func newServices(ctx context.Context, algo, logFile string) (*services, error) {
	factory, err := optimizer.NewSearchFactory(algo, cfg.Optimizer())
	if err != nil {
		return nil, err
	}
	runner, err := harness.NewRunner(cfg.Solver(), factory)
	if err != nil {
		return nil, err
	}
	s := &services{runner: runner}

	if logFile != "" {
		if s.log, err = harness.OpenRunLog(logFile); err != nil {
			return nil, err
		}
		runner.Log = s.log
	}

	if cfg.Database.Enabled() {
		if s.db, err = database.New(ctx, &cfg.Database); err != nil {
			s.Close()
			return nil, err
		}
		runner.Store = repository.NewRunRepository(s.db)
	}

	if cfg.Metrics.Addr != "" {
		rec, err := metrics.NewRecorder(prometheus.DefaultRegisterer)
		if err != nil {
			s.Close()
			return nil, err
		}
		runner.Observer = rec
		go func() {
			if err := metrics.Serve(ctx, cfg.Metrics.Addr, cfg.Metrics.Path, nil); err != nil {
				logger.Error().Err(err).Msg("指标服务退出")
			}
		}()
	}
	return s, nil
}

// Close 关闭运行日志与数据库
func (s *services) Close() {
	if s.log != nil {
		if err := s.log.Close(); err != nil {
			logger.Warn().Err(err).Msg("关闭运行日志失败")
		}
	}
	if s.db != nil {
		s.db.Close()
	}
}
