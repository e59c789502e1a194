// Package monitoring exposes Prometheus self-metrics for LINEBOARD.
//
// Usage:
//
//  1. Mount the endpoint and HTTP middleware:
//     router := gin.New()
//     router.Use(monitoring.HTTPMetricsMiddleware())
//     monitoring.SetupPrometheusMetrics(router, "/metrics")
//
//  2. Record domain operations where they happen:
//     monitoring.RecordDBOperation("records", "ProductRecordLogView", time.Since(start), err == nil)
//     monitoring.RecordCacheOperation("get", "hit")
//     monitoring.RecordAggregation("hourly", time.Since(start))
//
// Available Metrics:
//
//   - lineboard_http_requests_total{method, endpoint, status_code}
//   - lineboard_http_request_duration_seconds{method, endpoint}
//   - lineboard_db_operations_total{operation, table, status}
//   - lineboard_db_operation_duration_seconds{operation, table}
//   - lineboard_cache_operations_total{operation, result}
//   - lineboard_aggregation_duration_seconds{kind}
//   - lineboard_websocket_connections{stream}
//   - lineboard_websocket_frames_total{stream, type}
//   - lineboard_errors_total{type, component}
//   - lineboard_build_info{version, component}
package monitoring

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Version is reported by lineboard_build_info.
var Version = "dev"

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lineboard_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lineboard_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	dbOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lineboard_db_operations_total",
			Help: "Total number of production log queries",
		},
		[]string{"operation", "table", "status"},
	)

	dbOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lineboard_db_operation_duration_seconds",
			Help:    "Production log query duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"operation", "table"},
	)

	cacheOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lineboard_cache_operations_total",
			Help: "Total number of cache operations",
		},
		[]string{"operation", "result"}, // result: hit, miss, error, success
	)

	aggregationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lineboard_aggregation_duration_seconds",
			Help:    "Time spent computing unit metrics, including the row fetch",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"kind"}, // unit, hourly, report
	)

	websocketConnections = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "lineboard_websocket_connections",
			Help: "Number of open dashboard WebSocket connections",
		},
		[]string{"stream"},
	)

	websocketFramesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lineboard_websocket_frames_total",
			Help: "Frames pushed to dashboard clients",
		},
		[]string{"stream", "type"},
	)

	errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lineboard_errors_total",
			Help: "Total number of errors",
		},
		[]string{"type", "component"},
	)
)

// SetupPrometheusMetrics registers the collectors on the default registry and
// mounts the scrape endpoint at path ("/metrics" when empty).
func SetupPrometheusMetrics(router gin.IRoutes, path string) {
	if path == "" {
		path = "/metrics"
	}

	// Registration errors mean the collector is already registered.
	_ = prometheus.Register(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "lineboard_build_info",
		Help: "Build information for LINEBOARD",
		ConstLabels: prometheus.Labels{
			"version":   Version,
			"component": "lineboard",
		},
	}, func() float64 { return 1 }))

	_ = prometheus.Register(httpRequestsTotal)
	_ = prometheus.Register(httpRequestDuration)
	_ = prometheus.Register(dbOperationsTotal)
	_ = prometheus.Register(dbOperationDuration)
	_ = prometheus.Register(cacheOperationsTotal)
	_ = prometheus.Register(aggregationDuration)
	_ = prometheus.Register(websocketConnections)
	_ = prometheus.Register(websocketFramesTotal)
	_ = prometheus.Register(errorsTotal)

	router.GET(path, gin.WrapH(promhttp.Handler()))
}

// HTTPMetricsMiddleware collects HTTP request metrics
func HTTPMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = normalizeEndpoint(c.Request.URL.Path)
		}
		statusCode := strconv.Itoa(c.Writer.Status())

		httpRequestsTotal.WithLabelValues(c.Request.Method, endpoint, statusCode).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, endpoint).Observe(time.Since(start).Seconds())

		if c.Writer.Status() >= 500 {
			errorsTotal.WithLabelValues("http", endpoint).Inc()
		}
	}
}

// RecordDBOperation records database operation metrics
func RecordDBOperation(operation, table string, duration time.Duration, success bool) {
	status := "success"
	if !success {
		status = "error"
		errorsTotal.WithLabelValues("db", table).Inc()
	}

	dbOperationsTotal.WithLabelValues(operation, table, status).Inc()
	dbOperationDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
}

// RecordCacheOperation records cache operation metrics
func RecordCacheOperation(operation, result string) {
	cacheOperationsTotal.WithLabelValues(operation, result).Inc()
	if result == "error" {
		errorsTotal.WithLabelValues("cache", operation).Inc()
	}
}

// RecordAggregation records how long one metrics computation took.
func RecordAggregation(kind string, duration time.Duration) {
	aggregationDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordAggregationError counts a failed metrics computation.
func RecordAggregationError(kind string) {
	errorsTotal.WithLabelValues("aggregation", kind).Inc()
}

// WebSocketOpened and WebSocketClosed track open connections per stream.
func WebSocketOpened(stream string) { websocketConnections.WithLabelValues(stream).Inc() }
func WebSocketClosed(stream string) { websocketConnections.WithLabelValues(stream).Dec() }

// RecordFrame counts a frame pushed to a client.
func RecordFrame(stream, frameType string) {
	websocketFramesTotal.WithLabelValues(stream, frameType).Inc()
}

// normalizeEndpoint collapses numeric path segments for unmatched routes.
func normalizeEndpoint(path string) string {
	parts := strings.Split(path, "/")
	for i, part := range parts {
		if isNumeric(part) && i > 0 {
			parts[i] = ":id"
		}
	}
	return strings.Join(parts, "/")
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
