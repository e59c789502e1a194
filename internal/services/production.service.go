package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/platformbuilds/lineboard/internal/models"
	"github.com/platformbuilds/lineboard/internal/monitoring"
	"github.com/platformbuilds/lineboard/internal/oee"
	"github.com/platformbuilds/lineboard/internal/shift"
	"github.com/platformbuilds/lineboard/internal/tracing"
	"github.com/platformbuilds/lineboard/pkg/logger"
)

// RecordSource reads the production log. Bounds are inclusive.
type RecordSource interface {
	Units(ctx context.Context) ([]string, error)
	Records(ctx context.Context, unit string, start, end time.Time) ([]models.ProductionRecord, error)
	ModelCounts(ctx context.Context, unit string, start, end time.Time) ([]models.ModelCount, error)
	Ping(ctx context.Context) error
}

type ProductionOptions struct {
	LiveThreshold     time.Duration
	ReportConcurrency int
}

// ProductionService computes unit dashboards from the production log.
type ProductionService struct {
	source      RecordSource
	shifts      *shift.Provider
	opts        oee.Options
	concurrency int
	tracer      *tracing.MetricsTracer
	logger      logger.Logger
}

func NewProductionService(source RecordSource, shifts *shift.Provider, opts ProductionOptions, tracer *tracing.MetricsTracer, logger logger.Logger) *ProductionService {
	if shifts == nil {
		shifts = shift.NewProvider(nil)
	}
	if tracer == nil {
		tracer = tracing.NewMetricsTracer("lineboard")
	}
	if opts.ReportConcurrency < 1 {
		opts.ReportConcurrency = 4
	}
	return &ProductionService{
		source:      source,
		shifts:      shifts,
		opts:        oee.Options{LiveThreshold: opts.LiveThreshold},
		concurrency: opts.ReportConcurrency,
		tracer:      tracer,
		logger:      logger,
	}
}

// Schedule returns the active break schedule.
func (s *ProductionService) Schedule() *shift.Schedule { return s.shifts.Current() }

// Ping checks the row source.
func (s *ProductionService) Ping(ctx context.Context) error { return s.source.Ping(ctx) }

// ListUnits returns the known unit names.
func (s *ProductionService) ListUnits(ctx context.Context) ([]string, error) {
	units, err := s.source.Units(ctx)
	if err != nil {
		return nil, fmt.Errorf("list units: %w", err)
	}
	return units, nil
}

// GetUnitMetrics computes the summary of unit over [start, end]. A non-zero
// now close enough to end makes the window live.
func (s *ProductionService) GetUnitMetrics(ctx context.Context, unit string, start, end, now time.Time, mode string) (*models.UnitSummary, error) {
	return s.compute(ctx, "unit", unit, start, end, now, mode, false)
}

// GetHourlyMetrics is GetUnitMetrics plus per-hour buckets. The unit's
// theoretical quantity becomes the sum of the buckets'.
func (s *ProductionService) GetHourlyMetrics(ctx context.Context, unit string, start, end, now time.Time, mode string) (*models.UnitSummary, error) {
	return s.compute(ctx, "hourly", unit, start, end, now, mode, true)
}

func (s *ProductionService) compute(ctx context.Context, kind, unit string, start, end, now time.Time, mode string, hourly bool) (*models.UnitSummary, error) {
	unit = strings.TrimSpace(unit)
	if unit == "" {
		return nil, models.NewValidationError("unit", "is required")
	}
	began := time.Now()
	sched := s.shifts.Current()
	resolved := string(sched.ResolveMode(mode))
	w := models.NewTimeWindow(start, end)

	ctx, span := s.tracer.StartComputeSpan(ctx, kind, unit, w.Start, w.End, resolved)
	defer span.End()

	opEnd, live := oee.OperatingEnd(w, now, s.opts)

	var (
		summary models.UnitSummary
		err     error
	)
	switch {
	case hourly || live:
		// Live windows read raw rows up to the later of end and now so the
		// query key stays stable between polls; aggregation trims to opEnd.
		var rows []models.ProductionRecord
		rows, err = s.fetchRecords(ctx, unit, w.Start, maxTime(w.End, opEnd))
		if err != nil {
			break
		}
		res := oee.Aggregate(rows, w, now, sched, resolved, s.opts)
		summary = oee.Summarize(unit, resolved, w, res)
		if hourly {
			oee.ApplyBuckets(&summary, oee.Bucketize(rows, w, now, sched, resolved, s.opts))
		}
	default:
		var counts []models.ModelCount
		counts, err = s.fetchCounts(ctx, unit, w.Start, opEnd)
		if err != nil {
			break
		}
		res := oee.AggregateCounts(counts, w, now, sched, resolved, s.opts)
		summary = oee.Summarize(unit, resolved, w, res)
	}
	if err != nil {
		monitoring.RecordAggregationError(kind)
		s.tracer.RecordError(span, err)
		return nil, fmt.Errorf("%s metrics for %s: %w", kind, unit, err)
	}

	monitoring.RecordAggregation(kind, time.Since(began))
	s.logger.Debug("unit metrics computed",
		"unit", unit, "kind", kind, "mode", resolved, "live", summary.Live,
		"models", len(summary.Models), "duration", time.Since(began))
	return &summary, nil
}

func (s *ProductionService) fetchRecords(ctx context.Context, unit string, start, end time.Time) ([]models.ProductionRecord, error) {
	ctx, span := s.tracer.StartFetchSpan(ctx, "records", unit)
	defer span.End()
	began := time.Now()
	rows, err := s.source.Records(ctx, unit, start, end)
	s.tracer.RecordFetch(span, time.Since(began), len(rows), err)
	return rows, err
}

func (s *ProductionService) fetchCounts(ctx context.Context, unit string, start, end time.Time) ([]models.ModelCount, error) {
	ctx, span := s.tracer.StartFetchSpan(ctx, "model_counts", unit)
	defer span.End()
	began := time.Now()
	counts, err := s.source.ModelCounts(ctx, unit, start, end)
	s.tracer.RecordFetch(span, time.Since(began), len(counts), err)
	return counts, err
}

// GetMultiUnitReport summarises several units over a closed historical window
// and rolls them up. An empty units list reports every known unit.
func (s *ProductionService) GetMultiUnitReport(ctx context.Context, units []string, start, end time.Time, mode string) (*models.MultiUnitReport, error) {
	began := time.Now()
	units = dedupe(units)
	if len(units) == 0 {
		all, err := s.ListUnits(ctx)
		if err != nil {
			monitoring.RecordAggregationError("report")
			return nil, err
		}
		units = dedupe(all)
	}

	w := models.NewTimeWindow(start, end)
	resolved := string(s.shifts.Current().ResolveMode(mode))
	summaries := make([]models.UnitSummary, len(units))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, unit := range units {
		g.Go(func() error {
			sum, err := s.compute(gctx, "unit", unit, w.Start, w.End, time.Time{}, resolved, false)
			if err != nil {
				return err
			}
			summaries[i] = *sum
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		monitoring.RecordAggregationError("report")
		return nil, fmt.Errorf("multi-unit report: %w", err)
	}

	monitoring.RecordAggregation("report", time.Since(began))
	return &models.MultiUnitReport{
		Start:       w.Start,
		End:         w.End,
		WorkingMode: resolved,
		Units:       summaries,
		Rollup:      oee.Rollup(summaries),
	}, nil
}

// dedupe trims, drops empties and duplicates, and sorts.
func dedupe(units []string) []string {
	seen := make(map[string]struct{}, len(units))
	out := make([]string, 0, len(units))
	for _, u := range units {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	sort.Strings(out)
	return out
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}
