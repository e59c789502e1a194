package cached

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platformbuilds/lineboard/internal/models"
	"github.com/platformbuilds/lineboard/pkg/cache"
	"github.com/platformbuilds/lineboard/pkg/logger"
)

type countingSource struct {
	calls atomic.Int32
	err   error
}

func (c *countingSource) Units(context.Context) ([]string, error) {
	c.calls.Add(1)
	return []string{"L1"}, c.err
}

func (c *countingSource) Records(_ context.Context, _ string, start, _ time.Time) ([]models.ProductionRecord, error) {
	c.calls.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	r := 100.0
	return []models.ProductionRecord{{Model: "M1", Timestamp: start, Passed: true, TargetRate: &r}}, nil
}

func (c *countingSource) ModelCounts(context.Context, string, time.Time, time.Time) ([]models.ModelCount, error) {
	c.calls.Add(1)
	return []models.ModelCount{{Model: "M1", SuccessQty: 3}}, c.err
}

func (c *countingSource) Ping(context.Context) error { return c.err }

func TestSource_ServesRepeatsFromCache(t *testing.T) {
	src := &countingSource{}
	s := New(src, cache.NewMemory(16, time.Minute), time.Minute, logger.NewNop())
	ctx := context.Background()
	start := time.Date(2024, 3, 4, 6, 0, 0, 0, models.AppLocation)
	end := start.Add(time.Hour)

	first, err := s.Records(ctx, "L1", start, end)
	require.NoError(t, err)
	second, err := s.Records(ctx, "L1", start, end)
	require.NoError(t, err)
	assert.Equal(t, int32(1), src.calls.Load())
	assert.Equal(t, first, second)
	assert.Equal(t, models.AppLocation, second[0].Timestamp.Location())

	_, err = s.Records(ctx, "L2", start, end)
	require.NoError(t, err)
	assert.Equal(t, int32(2), src.calls.Load())

	_, err = s.ModelCounts(ctx, "L1", start, end)
	require.NoError(t, err)
	_, err = s.ModelCounts(ctx, "L1", start, end)
	require.NoError(t, err)
	assert.Equal(t, int32(3), src.calls.Load())

	units, err := s.Units(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"L1"}, units)
}

func TestSource_ErrorsAreNotCached(t *testing.T) {
	src := &countingSource{err: errors.New("down")}
	s := New(src, cache.NewMemory(16, time.Minute), time.Minute, logger.NewNop())
	ctx := context.Background()
	now := time.Now()

	_, err := s.Records(ctx, "L1", now, now)
	require.Error(t, err)
	_, err = s.Records(ctx, "L1", now, now)
	require.Error(t, err)
	assert.Equal(t, int32(2), src.calls.Load())
	assert.Error(t, s.Ping(ctx))
}
