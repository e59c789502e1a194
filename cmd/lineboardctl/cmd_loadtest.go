package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/platformbuilds/lineboard/internal/loadtest"
	"github.com/platformbuilds/lineboard/pkg/logger"
)

var (
	loadURL      string
	loadUnits    []string
	loadDuration time.Duration
	loadWorkers  int
	loadWindow   time.Duration
	loadHourly   int
	loadMode     string
	loadSave     string
)

var loadtestCmd = &cobra.Command{
	Use:   "loadtest",
	Short: "Drive concurrent metrics requests against a running server",
	Long: `Send unit and hourly metrics requests from several workers and report
latency percentiles. Windows end at the time of each request, so they are
live and exercise the raw-row path and its cache.

Example:
  lineboardctl loadtest --url http://localhost:8080 --units L1,L2 --workers 20 --duration 1m`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if loadHourly < 0 || loadHourly > 100 {
			return fmt.Errorf("--hourly-percent must be between 0 and 100")
		}
		var patterns []loadtest.RequestPattern
		for _, u := range loadUnits {
			u = strings.TrimSpace(u)
			if u == "" {
				continue
			}
			patterns = append(patterns,
				loadtest.RequestPattern{Unit: u, Window: loadWindow, WorkingMode: loadMode, Weight: 100 - loadHourly},
				loadtest.RequestPattern{Unit: u, Window: loadWindow, WorkingMode: loadMode, Hourly: true, Weight: loadHourly},
			)
		}

		tester, err := loadtest.NewTester(loadtest.Config{
			BaseURL:           loadURL,
			Duration:          loadDuration,
			ConcurrentWorkers: loadWorkers,
			Patterns:          patterns,
			Pause:             10 * time.Millisecond,
		}, nil, logger.New(logLevel))
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.ErrOrStderr(), "Starting load test with %d workers for %v...\n", loadWorkers, loadDuration)
		res, err := tester.Run(cmd.Context())
		if err != nil {
			return err
		}

		if loadSave != "" {
			f, err := os.Create(loadSave)
			if err != nil {
				return err
			}
			defer f.Close()
			if err := render(f, "json", res); err != nil {
				return err
			}
		}
		if outputFormat != "table" {
			return render(cmd.OutOrStdout(), outputFormat, res)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Duration:     %v\n", res.TotalDuration)
		fmt.Fprintf(out, "Requests:     %d (%d failed)\n", res.TotalRequests, res.FailedRequests)
		fmt.Fprintf(out, "Avg latency:  %v\n", res.AvgLatency)
		fmt.Fprintf(out, "p95 / p99:    %v / %v\n", res.P95Latency, res.P99Latency)
		fmt.Fprintf(out, "RPS:          %.2f\n", res.RPS)
		for i, e := range res.Errors {
			if i >= 5 {
				fmt.Fprintf(out, "... and %d more errors\n", len(res.Errors)-5)
				break
			}
			fmt.Fprintf(out, "  - %s\n", e)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loadtestCmd)
	loadtestCmd.Flags().StringVar(&loadURL, "url", "http://localhost:8080", "Server base URL")
	loadtestCmd.Flags().StringSliceVar(&loadUnits, "units", nil, "Units to query")
	loadtestCmd.Flags().DurationVar(&loadDuration, "duration", time.Minute, "Test duration")
	loadtestCmd.Flags().IntVar(&loadWorkers, "workers", 10, "Number of concurrent workers")
	loadtestCmd.Flags().DurationVar(&loadWindow, "window", 8*time.Hour, "Length of each requested window")
	loadtestCmd.Flags().IntVar(&loadHourly, "hourly-percent", 30, "Share of hourly requests")
	loadtestCmd.Flags().StringVar(&loadMode, "mode", "", "Working mode")
	loadtestCmd.Flags().StringVar(&loadSave, "save", "", "Also write JSON results to this file")
	_ = loadtestCmd.MarkFlagRequired("units")
}
