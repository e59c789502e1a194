package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/platformbuilds/lineboard/internal/models"
)

var (
	metricsStart  string
	metricsEnd    string
	metricsMode   string
	metricsHourly bool
)

var metricsCmd = &cobra.Command{
	Use:   "metrics UNIT",
	Short: "Compute quality and performance for one unit",
	Long: `Compute the unit summary over [start, end]. A window ending within the
live threshold of now is computed up to now, as the dashboard does.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := models.MetricsRequest{StartTime: metricsStart, EndTime: metricsEnd, WorkingMode: metricsMode}
		w, err := req.ToTimeWindow()
		if err != nil {
			return err
		}

		svc, closeFn, err := openService()
		if err != nil {
			return err
		}
		defer closeFn()

		compute := svc.GetUnitMetrics
		if metricsHourly {
			compute = svc.GetHourlyMetrics
		}
		summary, err := compute(cmd.Context(), args[0], w.Start, w.End, time.Now(), metricsMode)
		if err != nil {
			return err
		}
		if outputFormat == "table" {
			return writeSummaryTable(cmd.OutOrStdout(), summary)
		}
		return render(cmd.OutOrStdout(), outputFormat, summary)
	},
}

func init() {
	rootCmd.AddCommand(metricsCmd)
	metricsCmd.Flags().StringVar(&metricsStart, "start", "", "Window start (ISO-8601 or epoch)")
	metricsCmd.Flags().StringVar(&metricsEnd, "end", "", "Window end (ISO-8601 or epoch)")
	metricsCmd.Flags().StringVar(&metricsMode, "mode", "", "Working mode (default: configured default)")
	metricsCmd.Flags().BoolVar(&metricsHourly, "hourly", false, "Include per-hour buckets")
	_ = metricsCmd.MarkFlagRequired("start")
	_ = metricsCmd.MarkFlagRequired("end")
}
