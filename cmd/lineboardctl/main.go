package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath   string
	outputFormat string
	logLevel     string
)

// rootCmd is the base command for the LINEBOARD operator CLI
var rootCmd = &cobra.Command{
	Use:   "lineboardctl",
	Short: "Query production line metrics from the command line",
	Long: `lineboardctl computes the same unit metrics the dashboard shows, reading
the production log directly with the server's configuration.

Examples:
  lineboardctl units
  lineboardctl metrics L1 --start 2024-03-04T06:00 --end 2024-03-04T14:00
  lineboardctl report --units L1,L2 --start 2024-03-04 --end 2024-03-05 -o yaml
  lineboardctl breaks --mode mode2`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: CONFIG_PATH or search paths)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "Output format: table, json, yaml")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "error", "Log level for diagnostics on stderr")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
