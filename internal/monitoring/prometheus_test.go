package monitoring

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestSetupPrometheusMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(HTTPMetricsMiddleware())
	SetupPrometheusMetrics(r, "")
	r.GET("/units/:unit", func(c *gin.Context) { c.Status(http.StatusOK) })

	RecordDBOperation("records", "ProductRecordLogView", 3*time.Millisecond, true)
	RecordCacheOperation("get", "miss")
	RecordAggregation("unit", time.Millisecond)
	WebSocketOpened("standard")
	RecordFrame("standard", "unit_metrics")
	WebSocketClosed("standard")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/units/L1", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, "lineboard_db_operations_total"))
	assert.True(t, strings.Contains(body, `endpoint="/units/:unit"`))
}

func TestNormalizeEndpoint(t *testing.T) {
	assert.Equal(t, "/api/v1/units/:id/metrics", normalizeEndpoint("/api/v1/units/42/metrics"))
	assert.Equal(t, "/ws/L1", normalizeEndpoint("/ws/L1"))
}
