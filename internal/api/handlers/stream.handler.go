package handlers

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	gws "github.com/gorilla/websocket"

	"github.com/platformbuilds/lineboard/internal/api/websocket"
	"github.com/platformbuilds/lineboard/internal/config"
	"github.com/platformbuilds/lineboard/internal/models"
	"github.com/platformbuilds/lineboard/pkg/logger"
)

// StreamHandler upgrades dashboard connections and runs one client per socket.
type StreamHandler struct {
	service  ProductionService
	hub      *websocket.Hub
	upgrader gws.Upgrader
	opts     websocket.Options
	logger   logger.Logger
}

func NewStreamHandler(service ProductionService, hub *websocket.Hub, wsCfg config.WebSocketConfig, allowedOrigins []string, logger logger.Logger) *StreamHandler {
	return &StreamHandler{
		service: service,
		hub:     hub,
		upgrader: gws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		opts: websocket.Options{
			PushInterval:   wsCfg.PushInterval,
			PingInterval:   wsCfg.PingInterval,
			WriteTimeout:   wsCfg.WriteTimeout,
			MaxMessageSize: wsCfg.MaxMessageSize,
			SendBuffer:     wsCfg.SendBuffer,
		},
		logger: logger,
	}
}

// GET /ws/:unit
func (h *StreamHandler) HandleUnitStream(c *gin.Context) {
	h.serve(c, "standard", websocket.TypeUnitMetrics, h.service.GetUnitMetrics)
}

// GET /ws/hourly/:unit
func (h *StreamHandler) HandleHourlyStream(c *gin.Context) {
	h.serve(c, "hourly", websocket.TypeHourlyMetrics, h.service.GetHourlyMetrics)
}

func (h *StreamHandler) serve(c *gin.Context, stream, frameType string, compute unitComputeFunc) {
	unit := strings.TrimSpace(c.Param("unit"))
	if unit == "" {
		_ = c.Error(models.NewValidationError("unit", "is required"))
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("WebSocket upgrade failed", "error", err, "unit", unit)
		return
	}

	fn := func(ctx context.Context, w models.TimeWindow, now time.Time, mode string) (interface{}, error) {
		return compute(ctx, unit, w.Start, w.End, now, mode)
	}
	client := websocket.NewClient(conn, unit, stream, frameType, fn, h.opts, h.logger)
	client.Serve(c.Request.Context(), h.hub)
}

// originChecker accepts requests without an Origin header, same-host origins
// and origins on the allow list. "*" allows everything.
func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || strings.EqualFold(a, origin) {
				return true
			}
		}
		u, err := url.Parse(origin)
		return err == nil && strings.EqualFold(u.Host, r.Host)
	}
}
