package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/paiban/nrp/pkg/harness"
)

var missionPath string

var missionCmd = &cobra.Command{
	Use:   "mission",
	Short: "按任务文件批量并发运行",
	RunE:  runMission,
}

func init() {
	missionCmd.Flags().StringVarP(&missionPath, "file", "f", "", "任务文件（JSON 或 YAML）")
	_ = missionCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(missionCmd)
}

func runMission(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m, err := harness.LoadMission(missionPath)
	if err != nil {
		return err
	}

	algo := algorithm
	if !cmd.Flags().Changed("algorithm") && m.Algorithm != "" {
		algo = m.Algorithm
	}
	logFile := m.LogFile
	if logFile == "" {
		logFile = cfg.Paths.LogFile
	}

	svc, err := newServices(ctx, algo, logFile)
	if err != nil {
		return err
	}
	defer svc.Close()

	summary, err := harness.New(m, svc.runner).Run(ctx)
	if summary != nil {
		if werr := summary.Write(cmd.OutOrStdout()); werr != nil {
			return werr
		}
	}
	return err
}
