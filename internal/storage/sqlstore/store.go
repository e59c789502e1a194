// Package sqlstore reads the production log from MySQL or PostgreSQL.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sony/gobreaker"

	"github.com/platformbuilds/lineboard/internal/config"
	"github.com/platformbuilds/lineboard/internal/models"
	"github.com/platformbuilds/lineboard/internal/monitoring"
	"github.com/platformbuilds/lineboard/pkg/logger"
)

// ErrSourceUnavailable wraps every failure to read the production log,
// including an open circuit breaker.
var ErrSourceUnavailable = errors.New("production log unavailable")

// Column names of the production log view.
const (
	colUnit   = "UnitName"
	colModel  = "Model"
	colTime   = "KayitTarihi"
	colResult = "TestSonucu"
	colTarget = "ModelSuresiSN"
)

const timestampLayout = "2006-01-02 15:04:05.999999"

type Store struct {
	db      *sqlx.DB
	view    string
	timeout time.Duration
	breaker *gobreaker.CircuitBreaker
	logger  logger.Logger

	qUnits, qRecords, qCounts string
}

// New wraps an open database handle. The driver name of db selects quoting
// and bind variables.
func New(db *sqlx.DB, cfg config.DatabaseConfig, log logger.Logger) *Store {
	view := cfg.View
	if view == "" {
		view = "ProductRecordLogView"
	}
	timeout := cfg.QueryTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	s := &Store{
		db:      db,
		view:    view,
		timeout: timeout,
		breaker: newBreaker(view, cfg.Breaker, log),
		logger:  log,
	}
	s.buildQueries()
	return s
}

// Open connects using cfg and returns a ready Store.
func Open(cfg config.DatabaseConfig, log logger.Logger) (*Store, error) {
	db, err := Connect(cfg)
	if err != nil {
		return nil, err
	}
	return New(db, cfg, log), nil
}

func (s *Store) Close() error { return s.db.Close() }

func newBreaker(name string, cfg config.BreakerConfig, log logger.Logger) *gobreaker.CircuitBreaker {
	failures := cfg.ConsecutiveFailures
	if failures == 0 {
		failures = 3
	}
	st := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    cfg.Interval,
		Timeout:     cfg.OpenTimeout,
	}
	st.ReadyToTrip = func(counts gobreaker.Counts) bool {
		return counts.ConsecutiveFailures >= failures
	}
	// A caller giving up is not a database fault.
	st.IsSuccessful = func(err error) bool {
		return err == nil || errors.Is(err, context.Canceled)
	}
	st.OnStateChange = func(name string, from, to gobreaker.State) {
		log.Warn("production log breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
	}
	return gobreaker.NewCircuitBreaker(st)
}

func (s *Store) quote(ident string) string {
	parts := strings.Split(ident, ".")
	q := "`"
	if s.db.DriverName() == "postgres" {
		q = `"`
	}
	for i, p := range parts {
		parts[i] = q + p + q
	}
	return strings.Join(parts, ".")
}

func (s *Store) buildQueries() {
	v := s.quote(s.view)
	unit, model, ts, result, target := s.quote(colUnit), s.quote(colModel), s.quote(colTime), s.quote(colResult), s.quote(colTarget)

	s.qUnits = fmt.Sprintf(`SELECT DISTINCT %s FROM %s ORDER BY %s`, unit, v, unit)

	s.qRecords = s.db.Rebind(fmt.Sprintf(
		`SELECT %s AS model, %s AS ts, %s AS passed, %s AS target_rate FROM %s WHERE %s = ? AND %s BETWEEN ? AND ? ORDER BY %s`,
		model, ts, result, target, v, unit, ts, ts))

	s.qCounts = s.db.Rebind(fmt.Sprintf(
		`SELECT %s AS model, SUM(CASE WHEN %s = 1 THEN 1 ELSE 0 END) AS success_qty, SUM(CASE WHEN %s = 0 THEN 1 ELSE 0 END) AS fail_qty, %s AS target_rate FROM %s WHERE %s = ? AND %s BETWEEN ? AND ? GROUP BY %s, %s`,
		model, result, result, target, v, unit, ts, model, target))
}

// run executes fn under the per-call timeout and the breaker, recording metrics.
func (s *Store) run(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	start := time.Now()
	_, err := s.breaker.Execute(func() (interface{}, error) {
		qctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		return nil, fn(qctx)
	})
	monitoring.RecordDBOperation(op, s.view, time.Since(start), err == nil)
	if err == nil {
		return nil
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, op, err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	s.logger.Error("production log query failed", "operation", op, "view", s.view, "error", err)
	return fmt.Errorf("%w: %s: %w", ErrSourceUnavailable, op, err)
}

// Units lists the distinct unit names in the log.
func (s *Store) Units(ctx context.Context) ([]string, error) {
	var units []string
	err := s.run(ctx, "units", func(ctx context.Context) error {
		return s.db.SelectContext(ctx, &units, s.qUnits)
	})
	if err != nil {
		return nil, err
	}
	if units == nil {
		units = []string{}
	}
	return units, nil
}

type recordRow struct {
	Model      string          `db:"model"`
	Timestamp  time.Time       `db:"ts"`
	Passed     int             `db:"passed"`
	TargetRate sql.NullFloat64 `db:"target_rate"`
}

// Records returns every test result of unit with a timestamp in [start, end],
// ordered by time.
func (s *Store) Records(ctx context.Context, unit string, start, end time.Time) ([]models.ProductionRecord, error) {
	var rows []recordRow
	err := s.run(ctx, "records", func(ctx context.Context) error {
		return s.db.SelectContext(ctx, &rows, s.qRecords, unit, formatTS(start), formatTS(end))
	})
	if err != nil {
		return nil, err
	}
	out := make([]models.ProductionRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.ProductionRecord{
			Model:      r.Model,
			Timestamp:  wallClock(r.Timestamp),
			Passed:     r.Passed == 1,
			TargetRate: nullableRate(r.TargetRate),
		})
	}
	return out, nil
}

type countRow struct {
	Model      string          `db:"model"`
	SuccessQty sql.NullInt64   `db:"success_qty"`
	FailQty    sql.NullInt64   `db:"fail_qty"`
	TargetRate sql.NullFloat64 `db:"target_rate"`
}

// ModelCounts returns pass/fail counts per (model, target) for unit in
// [start, end].
func (s *Store) ModelCounts(ctx context.Context, unit string, start, end time.Time) ([]models.ModelCount, error) {
	var rows []countRow
	err := s.run(ctx, "model_counts", func(ctx context.Context) error {
		return s.db.SelectContext(ctx, &rows, s.qCounts, unit, formatTS(start), formatTS(end))
	})
	if err != nil {
		return nil, err
	}
	out := make([]models.ModelCount, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.ModelCount{
			Model:      r.Model,
			SuccessQty: r.SuccessQty.Int64,
			FailQty:    r.FailQty.Int64,
			TargetRate: nullableRate(r.TargetRate),
		})
	}
	return out, nil
}

// Ping checks connectivity without going through the breaker.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: ping: %w", ErrSourceUnavailable, err)
	}
	return nil
}

// formatTS renders t as the naive application-zone wall clock stored in the log.
func formatTS(t time.Time) string {
	return models.InAppZone(t).Format(timestampLayout)
}

// wallClock reinterprets a naive timestamp read back from the driver as
// application-zone wall clock.
func wallClock(t time.Time) time.Time {
	y, mo, d := t.Date()
	return time.Date(y, mo, d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), models.AppLocation)
}

func nullableRate(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	r := v.Float64
	return &r
}
