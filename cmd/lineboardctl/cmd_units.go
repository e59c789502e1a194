package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var unitsCmd = &cobra.Command{
	Use:   "units",
	Short: "List production units present in the log",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		svc, closeFn, err := openService()
		if err != nil {
			return err
		}
		defer closeFn()

		units, err := svc.ListUnits(cmd.Context())
		if err != nil {
			return err
		}
		if outputFormat == "table" {
			for _, u := range units {
				fmt.Fprintln(cmd.OutOrStdout(), u)
			}
			return nil
		}
		return render(cmd.OutOrStdout(), outputFormat, units)
	},
}

func init() {
	rootCmd.AddCommand(unitsCmd)
}
