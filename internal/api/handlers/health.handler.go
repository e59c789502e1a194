package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/platformbuilds/lineboard/internal/monitoring"
	"github.com/platformbuilds/lineboard/pkg/cache"
	"github.com/platformbuilds/lineboard/pkg/logger"
)

// Pinger is anything readiness can probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ConnectionCounter reports open dashboard connections.
type ConnectionCounter interface {
	Count() int
}

type HealthHandler struct {
	source Pinger
	cache  cache.Cache       // may be nil
	conns  ConnectionCounter // may be nil
	logger logger.Logger
}

func NewHealthHandler(source Pinger, c cache.Cache, conns ConnectionCounter, logger logger.Logger) *HealthHandler {
	return &HealthHandler{source: source, cache: c, conns: conns, logger: logger}
}

// GET /health - liveness only
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "lineboard",
		"version":   monitoring.Version,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// GET /ready - row source and cache reachability
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]interface{})
	healthy := true

	if err := h.source.Ping(ctx); err != nil {
		checks["source"] = gin.H{"status": "unhealthy", "error": err.Error()}
		healthy = false
		h.logger.Warn("Readiness: row source unavailable", "error", err)
	} else {
		checks["source"] = gin.H{"status": "healthy"}
	}

	if h.cache != nil {
		if err := h.cache.HealthCheck(ctx); err != nil {
			checks["cache"] = gin.H{"status": "unhealthy", "error": err.Error()}
			healthy = false
			h.logger.Warn("Readiness: cache unavailable", "error", err)
		} else {
			checks["cache"] = gin.H{"status": "healthy"}
		}
	}

	status, code := "healthy", http.StatusOK
	if !healthy {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}
	resp := gin.H{
		"status":    status,
		"service":   "lineboard",
		"version":   monitoring.Version,
		"checks":    checks,
		"timestamp": time.Now().Format(time.RFC3339),
	}
	if h.conns != nil {
		resp["websocket_connections"] = h.conns.Count()
	}
	c.JSON(code, resp)
}
