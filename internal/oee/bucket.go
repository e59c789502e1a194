package oee

import (
	"sort"
	"time"

	"github.com/platformbuilds/lineboard/internal/models"
)

type span struct {
	start, end time.Time
	current    bool
}

// hourSpans lays out the clock-hour buckets of w. For a live window the bucket
// holding now ends at now and no later bucket is produced.
func hourSpans(w models.TimeWindow, now time.Time, live bool) []span {
	var out []span
	for cursor := truncateHour(w.Start); cursor.Before(w.End); cursor = cursor.Add(time.Hour) {
		s := span{start: maxTime(cursor, w.Start), end: minTime(cursor.Add(time.Hour), w.End)}
		if live {
			if now.Before(s.start) {
				break
			}
			if now.Before(s.end) {
				s.end = now
				s.current = true
				out = append(out, s)
				break
			}
		}
		out = append(out, s)
	}
	return out
}

// Bucketize splits w into clock-hour buckets and aggregates each one on its
// own: every bucket deducts only the breaks inside its own wall-clock span.
// The output depends only on its arguments.
func Bucketize(records []models.ProductionRecord, w models.TimeWindow, now time.Time, breaks BreakCalculator, mode string, opts Options) []models.HourBucket {
	_, live := OperatingEnd(w, now, opts)
	if !now.IsZero() {
		now = models.InAppZone(now)
	}
	spans := hourSpans(w, now, live)
	if len(spans) == 0 {
		return []models.HourBucket{}
	}

	groups := make([]map[groupKey]*models.ModelCount, len(spans))
	for i := range groups {
		groups[i] = make(map[groupKey]*models.ModelCount)
	}
	first, last := spans[0].start, spans[len(spans)-1].end
	for _, r := range records {
		if r.Timestamp.Before(first) || r.Timestamp.After(last) {
			continue
		}
		// Bucket ends are exclusive except for the final one.
		i := sort.Search(len(spans), func(i int) bool { return spans[i].end.After(r.Timestamp) })
		if i == len(spans) {
			i = len(spans) - 1
		}
		addRecord(groups[i], r)
	}

	out := make([]models.HourBucket, 0, len(spans))
	for i, s := range spans {
		op, brk := OperatingSeconds(s.start, s.end, breaks, mode)
		ms := metricsFor(sortedCounts(groups[i]), op)
		c := Combine(ms, op)
		out = append(out, models.HourBucket{
			HourStart:        s.start,
			HourEnd:          s.end,
			IsCurrent:        s.current,
			OperatingSeconds: op,
			BreakSeconds:     brk,
			SuccessQty:       c.SuccessQty,
			FailQty:          c.FailQty,
			TotalQty:         c.TotalQty,
			Quality:          c.Quality,
			Performance:      c.Performance,
			TheoreticalQty:   c.TheoreticalQty,
			Models:           ms,
		})
	}
	return out
}

// ApplyBuckets attaches buckets to s and makes their summed theoretical
// quantity the unit's theoretical quantity.
func ApplyBuckets(s *models.UnitSummary, buckets []models.HourBucket) {
	s.Hourly = buckets
	var theoretical float64
	var actual int64
	for _, b := range buckets {
		theoretical += b.TheoreticalQty
		for _, m := range b.Models {
			if m.HasTarget() {
				actual += m.TotalQty
			}
		}
	}
	s.TheoreticalQty = theoretical
	s.Performance = 0
	if theoretical > 0 {
		s.Performance = float64(actual) / theoretical
	}
}

func truncateHour(t time.Time) time.Time {
	t = models.InAppZone(t)
	y, m, d := t.Date()
	return time.Date(y, m, d, t.Hour(), 0, 0, 0, t.Location())
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
