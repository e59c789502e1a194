package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/platformbuilds/lineboard/internal/api/handlers"
	"github.com/platformbuilds/lineboard/internal/api/middleware"
	"github.com/platformbuilds/lineboard/internal/api/websocket"
	"github.com/platformbuilds/lineboard/internal/config"
	"github.com/platformbuilds/lineboard/internal/monitoring"
	"github.com/platformbuilds/lineboard/pkg/cache"
	"github.com/platformbuilds/lineboard/pkg/logger"
)

type Server struct {
	config     *config.Config
	logger     logger.Logger
	cache      cache.Cache
	service    handlers.ProductionService
	hub        *websocket.Hub
	router     *gin.Engine
	httpServer *http.Server
}

// NewServer builds the router. c may be nil when readiness should not probe
// the cache.
func NewServer(cfg *config.Config, log logger.Logger, c cache.Cache, service handlers.ProductionService) *Server {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	server := &Server{
		config:  cfg,
		logger:  log,
		cache:   c,
		service: service,
		hub:     websocket.NewHub(log),
		router:  gin.New(),
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(middleware.RequestID())

	// CORS for the dashboard frontend
	s.router.Use(middleware.CORSMiddleware(s.config.CORS))

	s.router.Use(middleware.RequestLogger(s.logger))
	s.router.Use(monitoring.HTTPMetricsMiddleware())
	s.router.Use(middleware.ErrorHandler(s.logger))

	// OpenAPI specification endpoints
	s.router.GET("/api/openapi.yaml", handlers.ServeOpenAPIYAML)
	s.router.GET("/api/openapi.json", handlers.GetOpenAPISpec)

	// Visit /swagger/index.html
	s.router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/api/openapi.yaml")))

	monitoring.SetupPrometheusMetrics(s.router, s.config.Monitoring.MetricsPath)
}

func (s *Server) setupRoutes() {
	health := handlers.NewHealthHandler(s.service, s.cache, s.hub, s.logger)
	s.router.GET("/health", health.HealthCheck)
	s.router.GET("/ready", health.ReadinessCheck)

	s.router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/swagger/index.html")
	})

	production := handlers.NewProductionHandler(s.service, s.logger)

	// Dashboards shipped before /api/v1 still call /units.
	s.router.GET("/units", production.ListUnits)

	v1 := s.router.Group("/api/v1")
	v1.GET("/health", health.HealthCheck)
	v1.GET("/ready", health.ReadinessCheck)
	v1.GET("/units", production.ListUnits)
	v1.GET("/units/:unit/metrics", production.GetUnitMetrics)
	v1.GET("/units/:unit/hourly", production.GetHourlyMetrics)
	v1.POST("/reports", production.CreateReport)
	v1.GET("/shifts", production.GetShifts)

	stream := handlers.NewStreamHandler(s.service, s.hub, s.config.WebSocket, s.config.CORS.AllowedOrigins, s.logger)
	s.router.GET("/ws/:unit", stream.HandleUnitStream)
	s.router.GET("/ws/hourly/:unit", stream.HandleHourlyStream)
}

// Hub returns the connection registry so callers can push notifications.
func (s *Server) Hub() *websocket.Hub { return s.hub }

// Start serves until ctx is done, then drains connections.
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go s.hub.Run(hubCtx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("LINEBOARD server starting", "port", s.config.Port, "environment", s.config.Environment)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		s.logger.Info("Shutting down LINEBOARD gracefully")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Hijacked WebSocket connections are not tracked by http.Server.
	stopHub()
	return s.httpServer.Shutdown(shutdownCtx)
}

// Handler returns the underlying Gin engine so tests (or embedders) can mount it.
func (s *Server) Handler() http.Handler {
	return s.router
}
