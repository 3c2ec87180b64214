package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/paiban/nrp/pkg/harness"
	"github.com/paiban/nrp/pkg/instance"
	"github.com/paiban/nrp/pkg/model"
	"github.com/paiban/nrp/pkg/scheduler/optimizer"
	"github.com/paiban/nrp/pkg/scheduler/solver"
)

var (
	runInstance string
	runSeed     int64
	runTimeout  time.Duration
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "在同一进程内求解一个实例的全部周",
	RunE:  runHorizon,
}

func init() {
	runCmd.Flags().StringVarP(&runInstance, "instance", "i", "", `实例，例如 "n005w4 1 6-2-9-1"`)
	runCmd.Flags().Int64Var(&runSeed, "seed", 0, "随机种子，0 表示取当前时间")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 0, "单周时间预算，0 表示取 NRP_SOLVER_TIMEOUT")
	_ = runCmd.MarkFlagRequired("instance")
	rootCmd.AddCommand(runCmd)
}

func runHorizon(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	spec, err := harness.ParseInstance(runInstance)
	if err != nil {
		return err
	}
	dir := cfg.Paths.InstanceDir
	sc, err := instance.LoadScenario(instance.ScenarioPath(dir, spec.Scenario))
	if err != nil {
		return err
	}
	h0, err := instance.LoadHistory(instance.HistoryPath(dir, spec.Scenario, spec.InitHistory))
	if err != nil {
		return err
	}
	weeks := make([]*instance.RawWeekdata, 0, len(spec.Weeks))
	for _, w := range spec.Weeks {
		wd, err := instance.LoadWeekdata(instance.WeekdataPath(dir, spec.Scenario, w))
		if err != nil {
			return err
		}
		weeks = append(weeks, wd)
	}

	factory, err := optimizer.NewSearchFactory(algorithm, cfg.Optimizer())
	if err != nil {
		return err
	}
	solverCfg := cfg.Solver()
	if runTimeout > 0 {
		solverCfg.Timeout = runTimeout
	}
	seed := runSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	runID := uuid.NewString()
	outDir := filepath.Join(cfg.Paths.OutputDir, runID)
	out := cmd.OutOrStdout()
	hz := &solver.Horizon{
		Scenario:    sc,
		InitHistory: h0,
		Weekdata:    weeks,
		Config:      solverCfg,
		Seed:        seed,
		NewSearch:   factory,
		RunID:       runID,
		Sink: func(r *solver.WeekResult) error {
			path := filepath.Join(outDir, fmt.Sprintf("sol-week%d.json", r.Week))
			if err := instance.WriteJSON(path, instance.EncodeSolution(r.Input, r.Output)); err != nil {
				return err
			}
			fmt.Fprintf(out, "week %d  obj %.2f  acc %.2f  feasible %v  iterations %d  %s\n",
				r.Week, model.Report(r.Output.ObjValue), model.Report(r.NextHistory.AccObjValue),
				r.Feasible, r.IterCount, path)
			return nil
		},
	}

	final, err := hz.Run(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s  seed %d  total %.2f\n", spec, seed, model.Report(final.AccObjValue))
	return nil
}
