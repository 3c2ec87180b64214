package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/paiban/nrp/internal/constraints"
)

var constraintsJSON bool

var constraintsCmd = &cobra.Command{
	Use:   "constraints",
	Short: "列出约束及其在当前配置下的单位代价",
	RunE: func(cmd *cobra.Command, args []string) error {
		lib := constraints.GetLibrary(cfg.Solver().Penalty.Defaults)
		out := cmd.OutOrStdout()
		if constraintsJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(constraints.LibraryResponse{Library: lib})
		}

		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "Name\tType\tWeight\tDescription")
		for _, def := range lib {
			weight := "-"
			if def.Type == "soft" {
				weight = fmt.Sprintf("%g", def.Weight)
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", def.Name, def.Type, weight, def.DisplayName)
		}
		return tw.Flush()
	},
}

func init() {
	constraintsCmd.Flags().BoolVar(&constraintsJSON, "json", false, "以 JSON 输出")
	rootCmd.AddCommand(constraintsCmd)
}
