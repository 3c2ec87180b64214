package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/paiban/nrp/internal/database"
	"github.com/paiban/nrp/internal/repository"
	apperrors "github.com/paiban/nrp/pkg/errors"
	"github.com/paiban/nrp/pkg/harness"
)

// reportOptions 查询运行记录的条件
type reportOptions struct {
	RunID    string
	Instance string
	Feasible *bool
	Stats    bool
	Limit    int
	Offset   int
	JSON     bool
}

var (
	reportOpts     reportOptions
	reportFeasible bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "查询数据库中的运行记录",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cfg.Database.Enabled() {
			return apperrors.InvalidInput("database", "未配置 NRP_DB_DSN")
		}
		if cmd.Flags().Changed("feasible") {
			reportOpts.Feasible = &reportFeasible
		}

		ctx := cmd.Context()
		db, err := database.New(ctx, &cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()

		healthCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := db.Health(healthCtx); err != nil {
			return apperrors.Wrap(err, apperrors.CodeDatabaseError, "数据库不可用")
		}

		return writeReport(ctx, repository.NewRunRepository(db), reportOpts, cmd.OutOrStdout())
	},
}

func init() {
	f := reportCmd.Flags()
	f.StringVar(&reportOpts.RunID, "run", "", "只看一次运行的全部周")
	f.StringVar(&reportOpts.Instance, "instance", "", "按实例过滤，例如 n005w4_1_6-2-9-1")
	f.BoolVar(&reportFeasible, "feasible", false, "按是否可行过滤")
	f.BoolVar(&reportOpts.Stats, "stats", false, "按实例汇总")
	f.IntVar(&reportOpts.Limit, "limit", 100, "最多显示的记录数")
	f.IntVar(&reportOpts.Offset, "offset", 0, "跳过的记录数")
	f.BoolVar(&reportOpts.JSON, "json", false, "以 JSON 输出")
	rootCmd.AddCommand(reportCmd)
}

// writeReport 按条件查询并输出运行记录或实例汇总
func writeReport(ctx context.Context, repo *repository.RunRepository, opts reportOptions, w io.Writer) error {
	if opts.Stats {
		stats, err := repo.StatsByInstance(ctx)
		if err != nil {
			return err
		}
		if opts.JSON {
			return encodeJSON(w, stats)
		}
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "Instance\tWeeks\tFeasible\tBestAccObj\tDuration")
		for _, s := range stats {
			fmt.Fprintf(tw, "%s\t%d\t%d\t%.2f\t%s\n", s.Instance, s.Weeks, s.Feasible, s.BestAccObj,
				time.Duration(s.TotalMillis)*time.Millisecond)
		}
		return tw.Flush()
	}

	var records []*harness.Record
	total := 0
	if opts.RunID != "" {
		var err error
		if records, err = repo.ListByRun(ctx, opts.RunID); err != nil {
			return err
		}
		total = len(records)
	} else {
		filter := repository.DefaultListFilter().
			WithInstance(opts.Instance).
			WithLimit(opts.Limit).
			WithOffset(opts.Offset)
		if opts.Feasible != nil {
			filter = filter.WithFeasible(*opts.Feasible)
		}
		var err error
		if records, total, err = repo.List(ctx, filter); err != nil {
			return err
		}
	}

	if opts.JSON {
		return encodeJSON(w, struct {
			Total   int               `json:"total"`
			Records []*harness.Record `json:"records"`
		}{total, records})
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Run\tInstance\tWeek\tFeasible\tObjValue\tAccObjValue\tDuration")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%v\t%.2f\t%.2f\t%s\n",
			r.ID, r.Instance, r.Week, r.Feasible, r.ObjValue, r.AccObjValue, r.Duration)
	}
	fmt.Fprintf(tw, "(%d of %d)\n", len(records), total)
	return tw.Flush()
}

func encodeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
