package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/paiban/nrp/pkg/harness"
)

var descriptorPath string

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "按运行描述求解一周",
	RunE:  solveWeek,
}

func init() {
	solveCmd.Flags().StringVarP(&descriptorPath, "descriptor", "d", "", "运行描述文件")
	_ = solveCmd.MarkFlagRequired("descriptor")
	rootCmd.AddCommand(solveCmd)
}

func solveWeek(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	desc, err := harness.LoadDescriptor(descriptorPath)
	if err != nil {
		return err
	}
	svc, err := newServices(ctx, algorithm, cfg.Paths.LogFile)
	if err != nil {
		return err
	}
	defer svc.Close()

	outcome, err := svc.runner.RunWeek(ctx, desc)
	if err != nil {
		return err
	}
	rec := outcome.Record
	fmt.Fprintf(cmd.OutOrStdout(), "week %d  obj %.2f  acc %.2f  feasible %v  iterations %d  %s\n",
		rec.Week, rec.ObjValue, rec.AccObjValue, rec.Feasible, rec.IterCount, rec.Solution)
	return nil
}
