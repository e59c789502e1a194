// Package oee turns production-log rows into quality and performance figures.
// Everything here is pure: no I/O, no shared state, safe for concurrent use.
package oee

import (
	"sort"
	"time"

	"github.com/platformbuilds/lineboard/internal/models"
)

// DefaultLiveThreshold separates a live window (still accumulating data) from
// a closed historical one: a window whose end is at most this far behind now
// is live and its operating time runs up to now.
const DefaultLiveThreshold = 5 * time.Minute

// BreakCalculator reports scheduled break seconds inside an interval.
// *shift.Schedule implements it.
type BreakCalculator interface {
	BreakSeconds(start, end time.Time, mode string) float64
}

// Options tunes the calculations. The zero value uses the defaults.
type Options struct {
	LiveThreshold time.Duration
}

func (o Options) liveThreshold() time.Duration {
	if o.LiveThreshold <= 0 {
		return DefaultLiveThreshold
	}
	return o.LiveThreshold
}

// Result is the per-model aggregation of one window.
type Result struct {
	Start            time.Time
	OperatingEnd     time.Time
	Live             bool
	OperatingSeconds float64
	BreakSeconds     float64
	Models           []models.ModelMetrics
}

// OperatingEnd returns where operating time stops for w and whether w is
// live. A zero now means no current time is known and w is historical.
func OperatingEnd(w models.TimeWindow, now time.Time, opts Options) (time.Time, bool) {
	if now.IsZero() {
		return w.End, false
	}
	now = models.InAppZone(now)
	if now.Sub(w.End) <= opts.liveThreshold() {
		if now.Before(w.Start) {
			return w.Start, true
		}
		return now, true
	}
	return w.End, false
}

// Aggregate groups records by (model, target rate) and derives per-model
// metrics over w. Records after the operating end are ignored.
func Aggregate(records []models.ProductionRecord, w models.TimeWindow, now time.Time, breaks BreakCalculator, mode string, opts Options) Result {
	opEnd, live := OperatingEnd(w, now, opts)
	counts := countRecords(records, w.Start, opEnd, true)
	return aggregateSpan(counts, w.Start, opEnd, live, breaks, mode)
}

// AggregateCounts is Aggregate over rows already grouped by the data store.
func AggregateCounts(counts []models.ModelCount, w models.TimeWindow, now time.Time, breaks BreakCalculator, mode string, opts Options) Result {
	opEnd, live := OperatingEnd(w, now, opts)
	return aggregateSpan(mergeCounts(counts), w.Start, opEnd, live, breaks, mode)
}

// OperatingSeconds is the span [start, end] minus scheduled breaks, never
// negative. It also returns the break seconds it deducted.
func OperatingSeconds(start, end time.Time, breaks BreakCalculator, mode string) (operating, brk float64) {
	span := end.Sub(start).Seconds()
	if span <= 0 {
		return 0, 0
	}
	brk = breaks.BreakSeconds(start, end, mode)
	operating = span - brk
	if operating < 0 {
		operating = 0
	}
	return operating, brk
}

func aggregateSpan(counts []models.ModelCount, start, opEnd time.Time, live bool, breaks BreakCalculator, mode string) Result {
	op, brk := OperatingSeconds(start, opEnd, breaks, mode)
	return Result{
		Start:            start,
		OperatingEnd:     opEnd,
		Live:             live,
		OperatingSeconds: op,
		BreakSeconds:     brk,
		Models:           metricsFor(counts, op),
	}
}

// metricsFor derives ModelMetrics from grouped counts given the operating
// seconds of their window.
func metricsFor(counts []models.ModelCount, operatingSeconds float64) []models.ModelMetrics {
	hours := operatingSeconds / 3600
	out := make([]models.ModelMetrics, 0, len(counts))
	for _, c := range counts {
		m := models.ModelMetrics{
			Model:      c.Model,
			SuccessQty: c.SuccessQty,
			FailQty:    c.FailQty,
			TotalQty:   c.SuccessQty,
			TargetRate: c.TargetRate,
		}
		if processed := c.SuccessQty + c.FailQty; processed > 0 {
			m.Quality = float64(c.SuccessQty) / float64(processed)
		}
		if c.HasTarget() {
			m.TheoreticalQty = hours * *c.TargetRate
			perf := 0.0
			if m.TheoreticalQty > 0 {
				perf = float64(m.TotalQty) / m.TheoreticalQty
			}
			m.Performance = &perf
		}
		out = append(out, m)
	}
	return out
}

type groupKey struct {
	model     string
	hasTarget bool
	target    float64
}

func keyOf(model string, target *float64) groupKey {
	if target == nil || *target <= 0 {
		return groupKey{model: model}
	}
	return groupKey{model: model, hasTarget: true, target: *target}
}

// countRecords groups records inside [start, end] (end inclusive when
// closedEnd, exclusive otherwise).
func countRecords(records []models.ProductionRecord, start, end time.Time, closedEnd bool) []models.ModelCount {
	groups := make(map[groupKey]*models.ModelCount)
	for _, r := range records {
		if r.Timestamp.Before(start) || r.Timestamp.After(end) {
			continue
		}
		if !closedEnd && r.Timestamp.Equal(end) {
			continue
		}
		addRecord(groups, r)
	}
	return sortedCounts(groups)
}

func addRecord(groups map[groupKey]*models.ModelCount, r models.ProductionRecord) {
	k := keyOf(r.Model, r.TargetRate)
	g, ok := groups[k]
	if !ok {
		g = &models.ModelCount{Model: k.model}
		if k.hasTarget {
			t := k.target
			g.TargetRate = &t
		}
		groups[k] = g
	}
	if r.Passed {
		g.SuccessQty++
	} else {
		g.FailQty++
	}
}

func mergeCounts(counts []models.ModelCount) []models.ModelCount {
	groups := make(map[groupKey]*models.ModelCount, len(counts))
	for _, c := range counts {
		k := keyOf(c.Model, c.TargetRate)
		g, ok := groups[k]
		if !ok {
			g = &models.ModelCount{Model: k.model}
			if k.hasTarget {
				t := k.target
				g.TargetRate = &t
			}
			groups[k] = g
		}
		g.SuccessQty += c.SuccessQty
		g.FailQty += c.FailQty
	}
	return sortedCounts(groups)
}

func sortedCounts(groups map[groupKey]*models.ModelCount) []models.ModelCount {
	out := make([]models.ModelCount, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Model != out[j].Model {
			return out[i].Model < out[j].Model
		}
		return targetOf(out[i].TargetRate) < targetOf(out[j].TargetRate)
	})
	return out
}

func targetOf(t *float64) float64 {
	if t == nil {
		return 0
	}
	return *t
}
