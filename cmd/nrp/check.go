package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/paiban/nrp/pkg/instance"
	"github.com/paiban/nrp/pkg/stats"
	"github.com/paiban/nrp/pkg/validator"
)

var (
	checkScenario string
	checkWeekdata string
	checkHistory  string
	checkSolution string
	checkJSON     bool
	checkStats    bool
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "以默认权重重新计算解文件的目标值",
	RunE:  checkSolutionFile,
}

func init() {
	f := checkCmd.Flags()
	f.StringVar(&checkScenario, "scenario", "", "场景文件")
	f.StringVar(&checkWeekdata, "weekdata", "", "周数据文件")
	f.StringVar(&checkHistory, "history", "", "本周开始时的历史文件")
	f.StringVar(&checkSolution, "solution", "", "解文件")
	f.BoolVar(&checkJSON, "json", false, "以 JSON 输出完整报告")
	f.BoolVar(&checkStats, "stats", false, "附带覆盖率与公平性统计")
	for _, name := range []string{"scenario", "weekdata", "history", "solution"} {
		_ = checkCmd.MarkFlagRequired(name)
	}
	rootCmd.AddCommand(checkCmd)
}

func checkSolutionFile(cmd *cobra.Command, args []string) error {
	sc, err := instance.LoadScenario(checkScenario)
	if err != nil {
		return err
	}
	wd, err := instance.LoadWeekdata(checkWeekdata)
	if err != nil {
		return err
	}
	h, err := instance.LoadHistory(checkHistory)
	if err != nil {
		return err
	}
	sol, err := instance.LoadSolution(checkSolution)
	if err != nil {
		return err
	}
	in, err := instance.Compile(sc, wd, h)
	if err != nil {
		return err
	}

	solverCfg := cfg.Solver()
	checker, err := validator.NewChecker(solverCfg.Penalty, solverCfg.SuppressEarlyMinShift)
	if err != nil {
		return err
	}
	report, err := checker.CheckSolution(in, sol)
	if err != nil {
		return err
	}

	var coverage *stats.CoverageMetrics
	var fairness *stats.FairnessMetrics
	if checkStats {
		schedule, _, err := instance.DecodeSolution(sol, in)
		if err != nil {
			return err
		}
		coverage = stats.NewCoverageAnalyzer().Analyze(in, schedule)
		fairness = stats.NewFairnessAnalyzer().Analyze(in, schedule)
	}

	out := cmd.OutOrStdout()
	if checkJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			*validator.Report
			Coverage *stats.CoverageMetrics `json:"coverage,omitempty"`
			Fairness *stats.FairnessMetrics `json:"fairness,omitempty"`
		}{report, coverage, fairness})
	}
	fmt.Fprintf(out, "objective %.2f  feasible %v\n", report.Objective, report.Feasible)
	for _, c := range report.Conflicts {
		fmt.Fprintf(out, "  [%s] %s: %s\n", c.Severity, c.Type, c.Message)
	}
	if coverage != nil {
		fmt.Fprintf(out, "min coverage %.1f%%  opt coverage %.1f%%  surplus %d\n",
			coverage.MinCoverage, coverage.OptCoverage, coverage.SurplusAssigned)
		fmt.Fprintf(out, "workload gini %.3f  weekend gini %.3f  fairness %.1f\n",
			fairness.WorkloadGini, fairness.WeekendGini, fairness.OverallFairnessScore)
	}
	return nil
}
