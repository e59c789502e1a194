package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/platformbuilds/lineboard/internal/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate-config FILE",
	Short: "Load and validate a configuration file without connecting anywhere",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(args[0])
		if err != nil {
			return err
		}
		schedule, err := config.BuildSchedule(cfg.Shifts)
		if err != nil {
			return fmt.Errorf("shifts: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Configuration file: %s\n", cfg.File)
		fmt.Fprintf(out, "Environment:        %s\n", cfg.Environment)
		fmt.Fprintf(out, "Database:           %s view %s (timeout %v)\n", cfg.Database.Driver, cfg.Database.View, cfg.Database.QueryTimeout)
		fmt.Fprintf(out, "Cache:              %s ttl %v\n", cfg.Cache.Backend, cfg.Cache.TTL)
		fmt.Fprintf(out, "Push interval:      %v\n", cfg.WebSocket.PushInterval)
		fmt.Fprintf(out, "Live threshold:     %v\n", cfg.Production.LiveThreshold)
		fmt.Fprintf(out, "Working modes:      %v (default %s)\n", schedule.Modes(), schedule.DefaultMode())
		fmt.Fprintln(out, "Configuration is valid")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
