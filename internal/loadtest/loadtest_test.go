package loadtest

import (
	"context"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platformbuilds/lineboard/pkg/logger"
)

func TestNewTester_Validation(t *testing.T) {
	log := logger.NewNop()
	_, err := NewTester(Config{}, nil, log)
	assert.Error(t, err)

	_, err = NewTester(Config{BaseURL: "http://x"}, nil, log)
	assert.Error(t, err)

	_, err = NewTester(Config{BaseURL: "http://x", Patterns: []RequestPattern{{Unit: "L1"}}}, nil, log)
	assert.Error(t, err, "zero total weight")

	_, err = NewTester(Config{BaseURL: "http://x", Patterns: []RequestPattern{{Unit: "", Weight: 1}}}, nil, log)
	assert.Error(t, err)
}

func TestTester_RequestURL(t *testing.T) {
	lt, err := NewTester(Config{BaseURL: "http://lineboard:8080/", Patterns: []RequestPattern{{Unit: "L 1", Weight: 1}}}, nil, logger.NewNop())
	require.NoError(t, err)
	lt.now = func() time.Time { return time.Date(2024, time.March, 4, 12, 0, 0, 0, time.UTC) }

	got := lt.requestURL(RequestPattern{Unit: "L 1", Hourly: true, Window: 2 * time.Hour, WorkingMode: "mode2"})
	assert.True(t, strings.HasPrefix(got, "http://lineboard:8080/api/v1/units/L%201/hourly?"), got)
	assert.Contains(t, got, "start_time=2024-03-04T10%3A00%3A00Z")
	assert.Contains(t, got, "working_mode=mode2")
}

func TestTester_PickHonoursWeights(t *testing.T) {
	patterns := []RequestPattern{{Unit: "never", Weight: 0}, {Unit: "always", Weight: 5}}
	lt, err := NewTester(Config{BaseURL: "http://x", Patterns: patterns}, nil, logger.NewNop())
	require.NoError(t, err)
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 50; i++ {
		assert.Equal(t, "always", lt.pick(rng).Unit)
	}
}

func TestTester_Run(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := hits.Add(1)
		if strings.Contains(r.URL.Path, "/L2/") && n%2 == 0 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	lt, err := NewTester(Config{
		BaseURL:           srv.URL,
		Duration:          200 * time.Millisecond,
		ConcurrentWorkers: 3,
		Pause:             5 * time.Millisecond,
		Patterns:          []RequestPattern{{Unit: "L1", Window: time.Hour, Weight: 1}, {Unit: "L2", Hourly: true, Window: time.Hour, Weight: 1}},
	}, srv.Client(), logger.NewNop())
	require.NoError(t, err)

	res, err := lt.Run(context.Background())
	require.NoError(t, err)
	assert.Positive(t, res.TotalRequests)
	assert.Equal(t, res.TotalRequests, res.SuccessfulRequests+res.FailedRequests)
	assert.Positive(t, res.StatusCodes[http.StatusOK])
	assert.LessOrEqual(t, res.P95Latency, res.P99Latency)
	assert.Positive(t, res.RPS)
}

func TestPercentile(t *testing.T) {
	sorted := []time.Duration{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	assert.Equal(t, time.Duration(9), percentile(sorted, 95))
	assert.Equal(t, time.Duration(5), average([]time.Duration{4, 6}))
}
