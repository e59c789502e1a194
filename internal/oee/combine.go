package oee

import "github.com/platformbuilds/lineboard/internal/models"

// Combined is the unit-level (or bucket-level) blend of per-model metrics.
type Combined struct {
	SuccessQty     int64
	FailQty        int64
	TotalQty       int64
	TargetedQty    int64
	Quality        float64
	Performance    float64
	TheoreticalQty float64
	WeightedRate   float64
}

// Combine blends models produced in the same window into one quality and
// one performance figure. Models share the line's capacity, so theoretical
// output uses the production-weighted average target rate instead of the sum
// of per-model theoreticals.
func Combine(ms []models.ModelMetrics, operatingSeconds float64) Combined {
	var c Combined
	for _, m := range ms {
		c.SuccessQty += m.SuccessQty
		c.FailQty += m.FailQty
		c.TotalQty += m.TotalQty
		if m.HasTarget() {
			c.TargetedQty += m.TotalQty
		}
	}
	if processed := c.SuccessQty + c.FailQty; processed > 0 {
		c.Quality = float64(c.SuccessQty) / float64(processed)
	}
	if c.TargetedQty == 0 {
		return c
	}

	actual := float64(c.TargetedQty)
	for _, m := range ms {
		if !m.HasTarget() {
			continue
		}
		c.WeightedRate += float64(m.TotalQty) / actual * *m.TargetRate
	}
	c.TheoreticalQty = operatingSeconds / 3600 * c.WeightedRate
	if c.TheoreticalQty > 0 {
		c.Performance = actual / c.TheoreticalQty
	}
	return c
}

// Summarize builds a UnitSummary from an aggregation result.
func Summarize(unit, mode string, w models.TimeWindow, r Result) models.UnitSummary {
	c := Combine(r.Models, r.OperatingSeconds)
	return models.UnitSummary{
		Unit:             unit,
		Start:            w.Start,
		End:              w.End,
		OperatingEnd:     r.OperatingEnd,
		Live:             r.Live,
		WorkingMode:      mode,
		OperatingSeconds: r.OperatingSeconds,
		BreakSeconds:     r.BreakSeconds,
		SuccessQty:       c.SuccessQty,
		FailQty:          c.FailQty,
		TotalQty:         c.TotalQty,
		Quality:          c.Quality,
		Performance:      c.Performance,
		TheoreticalQty:   c.TheoreticalQty,
		Models:           r.Models,
	}
}
