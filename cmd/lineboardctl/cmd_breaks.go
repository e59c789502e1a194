package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/platformbuilds/lineboard/internal/config"
	"github.com/platformbuilds/lineboard/internal/shift"
)

var breaksMode string

var breaksCmd = &cobra.Command{
	Use:   "breaks",
	Short: "Show the configured break schedule",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		schedule, err := config.BuildSchedule(cfg.Shifts)
		if err != nil {
			return err
		}
		table := filterTable(schedule, breaksMode)
		if outputFormat == "table" {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSTART\tEND\tMINUTES")
			for _, b := range table.Breaks {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", b.ID, b.Start, b.End, b.Minutes)
			}
			if breaksMode == "" {
				fmt.Fprintln(tw)
				for _, m := range schedule.Modes() {
					fmt.Fprintf(tw, "mode %s\t%s\n", m, strings.Join(table.Modes[string(m)], ","))
				}
			}
			return tw.Flush()
		}
		return render(cmd.OutOrStdout(), outputFormat, table)
	},
}

// filterTable narrows the table to the breaks of mode. An empty mode keeps
// the full table.
func filterTable(s *shift.Schedule, mode string) shift.Table {
	table := s.Table()
	if mode == "" {
		return table
	}
	resolved := string(s.ResolveMode(mode))
	keep := make(map[string]bool)
	for _, id := range table.Modes[resolved] {
		keep[id] = true
	}
	filtered := table.Breaks[:0]
	for _, b := range table.Breaks {
		if keep[b.ID] {
			filtered = append(filtered, b)
		}
	}
	table.Breaks = filtered
	table.Modes = map[string][]string{resolved: table.Modes[resolved]}
	return table
}

func init() {
	rootCmd.AddCommand(breaksCmd)
	breaksCmd.Flags().StringVar(&breaksMode, "mode", "", "Only show breaks of this working mode")
}
