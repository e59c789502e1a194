package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/platformbuilds/lineboard/internal/models"
)

// render writes v as json or yaml.
func render(w io.Writer, format string, v interface{}) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		// Round-trip through JSON so yaml keys follow the API field names.
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		var generic interface{}
		if err := yaml.Unmarshal(data, &generic); err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(generic); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q (want table, json or yaml)", format)
	}
}

func pct(v float64) string { return fmt.Sprintf("%.1f%%", v*100) }

func writeSummaryTable(w io.Writer, s *models.UnitSummary) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "unit\t%s\n", s.Unit)
	fmt.Fprintf(tw, "window\t%s .. %s\n", s.Start.Format("2006-01-02 15:04"), s.End.Format("2006-01-02 15:04"))
	fmt.Fprintf(tw, "mode\t%s\n", s.WorkingMode)
	fmt.Fprintf(tw, "live\t%t\n", s.Live)
	fmt.Fprintf(tw, "operating\t%.0fs (breaks %.0fs)\n", s.OperatingSeconds, s.BreakSeconds)
	fmt.Fprintf(tw, "success/fail\t%d/%d\n", s.SuccessQty, s.FailQty)
	fmt.Fprintf(tw, "quality\t%s\n", pct(s.Quality))
	fmt.Fprintf(tw, "performance\t%s (theoretical %.1f)\n", pct(s.Performance), s.TheoreticalQty)
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "MODEL\tTARGET/H\tSUCCESS\tFAIL\tQUALITY\tPERFORMANCE")
	for _, m := range s.Models {
		target, perf := "-", "-"
		if m.TargetRate != nil {
			target = fmt.Sprintf("%.0f", *m.TargetRate)
		}
		if m.Performance != nil {
			perf = pct(*m.Performance)
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\t%s\n", m.Model, target, m.SuccessQty, m.FailQty, pct(m.Quality), perf)
	}

	if len(s.Hourly) > 0 {
		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "HOUR\tSUCCESS\tFAIL\tQUALITY\tPERFORMANCE\tTHEORETICAL")
		for _, b := range s.Hourly {
			hour := b.HourStart.Format("15:04") + "-" + b.HourEnd.Format("15:04")
			if b.IsCurrent {
				hour += "*"
			}
			fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\t%.1f\n", hour, b.SuccessQty, b.FailQty, pct(b.Quality), pct(b.Performance), b.TheoreticalQty)
		}
	}
	return tw.Flush()
}

func writeReportTable(w io.Writer, r *models.MultiUnitReport) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "UNIT\tSUCCESS\tFAIL\tQUALITY\tPERFORMANCE\tTHEORETICAL")
	for _, u := range r.Units {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\t%.1f\n", u.Unit, u.SuccessQty, u.FailQty, pct(u.Quality), pct(u.Performance), u.TheoreticalQty)
	}
	ro := r.Rollup
	fmt.Fprintf(tw, "TOTAL\t%d\t%d\t%s\t%s\t%.1f\n", ro.SuccessQty, ro.FailQty, pct(ro.Quality), pct(ro.Performance), ro.TheoreticalQty)
	return tw.Flush()
}
