package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platformbuilds/lineboard/internal/config"
	"github.com/platformbuilds/lineboard/internal/models"
	"github.com/platformbuilds/lineboard/internal/services"
	"github.com/platformbuilds/lineboard/internal/shift"
	"github.com/platformbuilds/lineboard/internal/tracing"
	"github.com/platformbuilds/lineboard/pkg/cache"
	"github.com/platformbuilds/lineboard/pkg/logger"
)

type stubSource struct{}

func (stubSource) Units(context.Context) ([]string, error) { return []string{"L2", "L1"}, nil }

func (stubSource) Records(_ context.Context, _ string, start, _ time.Time) ([]models.ProductionRecord, error) {
	target := 60.0
	return []models.ProductionRecord{
		{Model: "M1", Timestamp: start.Add(time.Minute), Passed: true, TargetRate: &target},
		{Model: "M1", Timestamp: start.Add(2 * time.Minute), Passed: false, TargetRate: &target},
	}, nil
}

func (stubSource) ModelCounts(context.Context, string, time.Time, time.Time) ([]models.ModelCount, error) {
	target := 60.0
	return []models.ModelCount{{Model: "M1", SuccessQty: 30, FailQty: 3, TargetRate: &target}}, nil
}

func (stubSource) Ping(context.Context) error { return nil }

func testConfig() *config.Config {
	return &config.Config{
		Environment: "development",
		Port:        0,
		CORS:        config.CORSConfig{AllowedOrigins: []string{"*"}},
		Monitoring:  config.MonitoringConfig{MetricsPath: "/metrics"},
		WebSocket:   config.WebSocketConfig{PushInterval: 10 * time.Second},
	}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	log := logger.NewNop()
	svc := services.NewProductionService(stubSource{}, shift.NewProvider(nil), services.ProductionOptions{},
		tracing.NewMetricsTracer("lineboard-test"), log)
	return NewServer(testConfig(), log, cache.NewMemory(16, time.Second), svc)
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestServer_Routes(t *testing.T) {
	h := newTestServer(t).Handler()

	cases := map[string]int{
		"/health":                  http.StatusOK,
		"/ready":                   http.StatusOK,
		"/api/v1/health":           http.StatusOK,
		"/units":                   http.StatusOK,
		"/api/v1/units":            http.StatusOK,
		"/api/v1/shifts":           http.StatusOK,
		"/metrics":                 http.StatusOK,
		"/":                        http.StatusFound,
		"/api/v1/units/L1/metrics": http.StatusBadRequest,
		"/api/v1/nope":             http.StatusNotFound,
	}
	for target, status := range cases {
		assert.Equal(t, status, get(t, h, target).Code, target)
	}
}

func TestServer_UnitMetricsEndToEnd(t *testing.T) {
	h := newTestServer(t).Handler()

	w := get(t, h, "/api/v1/units/L1/metrics?start_time=2024-03-04T06:00:00&end_time=2024-03-04T07:00:00&working_mode=bogus")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var s models.UnitSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &s))
	assert.Equal(t, "L1", s.Unit)
	assert.Equal(t, "mode1", s.WorkingMode)
	assert.Equal(t, int64(30), s.SuccessQty)
	assert.Equal(t, int64(3), s.FailQty)
	assert.Equal(t, 3600.0, s.OperatingSeconds)

	w = get(t, h, "/api/v1/units/L1/hourly?start_time=2024-03-04T06:00:00&end_time=2024-03-04T08:00:00")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &s))
	assert.Len(t, s.Hourly, 2)
}

func TestServer_CORSPreflight(t *testing.T) {
	h := newTestServer(t).Handler()
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/units", nil)
	req.Header.Set("Origin", "https://dash.plant.local")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.NotEmpty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestServer_StartStops(t *testing.T) {
	s := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Start(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
