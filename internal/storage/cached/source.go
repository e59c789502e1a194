// Package cached puts a short-lived cache in front of a production log source.
package cached

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/platformbuilds/lineboard/internal/models"
	"github.com/platformbuilds/lineboard/pkg/cache"
	"github.com/platformbuilds/lineboard/pkg/logger"
)

// RowSource is the row source being cached.
type RowSource interface {
	Units(ctx context.Context) ([]string, error)
	Records(ctx context.Context, unit string, start, end time.Time) ([]models.ProductionRecord, error)
	ModelCounts(ctx context.Context, unit string, start, end time.Time) ([]models.ModelCount, error)
	Ping(ctx context.Context) error
}

const keyPrefix = "lineboard:"

// Source serves repeated identical queries from c for ttl. Cache
// failures are logged and fall through to the source.
type Source struct {
	src    RowSource
	cache  cache.Cache
	ttl    time.Duration
	logger logger.Logger
}

func New(src RowSource, c cache.Cache, ttl time.Duration, log logger.Logger) *Source {
	return &Source{src: src, cache: c, ttl: ttl, logger: log}
}

func windowKey(kind, unit string, start, end time.Time) string {
	return fmt.Sprintf("%s%s:%s:%d:%d", keyPrefix, kind, unit, start.UnixNano(), end.UnixNano())
}

// load fills dst from the cache or from fetch, storing fetched values.
func load[T any](ctx context.Context, s *Source, key string, dst *T, fetch func() (T, error)) error {
	if b, err := s.cache.Get(ctx, key); err == nil {
		if err := json.Unmarshal(b, dst); err == nil {
			return nil
		}
		s.logger.Warn("discarding undecodable cache entry", "key", key)
	} else if !errors.Is(err, cache.ErrNotFound) {
		s.logger.Warn("cache read failed", "key", key, "error", err)
	}

	v, err := fetch()
	if err != nil {
		return err
	}
	*dst = v
	if err := s.cache.Set(ctx, key, v, s.ttl); err != nil {
		s.logger.Warn("cache write failed", "key", key, "error", err)
	}
	return nil
}

func (s *Source) Units(ctx context.Context) ([]string, error) {
	var units []string
	err := load(ctx, s, keyPrefix+"units", &units, func() ([]string, error) {
		return s.src.Units(ctx)
	})
	return units, err
}

func (s *Source) Records(ctx context.Context, unit string, start, end time.Time) ([]models.ProductionRecord, error) {
	var rows []models.ProductionRecord
	err := load(ctx, s, windowKey("records", unit, start, end), &rows, func() ([]models.ProductionRecord, error) {
		return s.src.Records(ctx, unit, start, end)
	})
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].Timestamp = models.InAppZone(rows[i].Timestamp)
	}
	return rows, nil
}

func (s *Source) ModelCounts(ctx context.Context, unit string, start, end time.Time) ([]models.ModelCount, error) {
	var counts []models.ModelCount
	err := load(ctx, s, windowKey("counts", unit, start, end), &counts, func() ([]models.ModelCount, error) {
		return s.src.ModelCounts(ctx, unit, start, end)
	})
	return counts, err
}

// Ping checks the source and the cache.
func (s *Source) Ping(ctx context.Context) error {
	if err := s.src.Ping(ctx); err != nil {
		return err
	}
	if err := s.cache.HealthCheck(ctx); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	return nil
}
