package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/platformbuilds/lineboard/internal/api"
	"github.com/platformbuilds/lineboard/internal/api/websocket"
	"github.com/platformbuilds/lineboard/internal/config"
	"github.com/platformbuilds/lineboard/internal/discovery"
	"github.com/platformbuilds/lineboard/internal/monitoring"
	"github.com/platformbuilds/lineboard/internal/services"
	"github.com/platformbuilds/lineboard/internal/shift"
	"github.com/platformbuilds/lineboard/internal/storage/cached"
	"github.com/platformbuilds/lineboard/internal/storage/sqlstore"
	"github.com/platformbuilds/lineboard/internal/tracing"
	"github.com/platformbuilds/lineboard/pkg/cache"
	"github.com/platformbuilds/lineboard/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logger.New(cfg.LogLevel)
	logger.Info("Starting LINEBOARD", "version", monitoring.Version, "environment", cfg.Environment)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tracer := tracing.NewMetricsTracer(cfg.Monitoring.ServiceName)
	if cfg.Monitoring.TracingEnabled {
		tp, err := tracing.NewTracerProvider(cfg.Monitoring.ServiceName, monitoring.Version, cfg.Monitoring.OTLPEndpoint)
		if err != nil {
			logger.Warn("Tracing disabled", "error", err)
		} else {
			defer func() {
				shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
				defer done()
				_ = tp.Shutdown(shutdownCtx)
			}()
			logger.Info("Tracing enabled", "endpoint", cfg.Monitoring.OTLPEndpoint)
		}
	}

	store, err := sqlstore.Open(cfg.Database, logger)
	if err != nil {
		logger.Fatal("Failed to open production log", "error", err, "driver", cfg.Database.Driver)
	}
	defer store.Close()
	logger.Info("Production log connected", "driver", cfg.Database.Driver, "view", cfg.Database.View)

	cacheOpts := cache.Options{
		Backend:       cfg.Cache.Backend,
		Nodes:         cfg.Cache.Nodes,
		DB:            cfg.Cache.DB,
		Password:      cfg.Cache.Password,
		TTL:           cfg.Cache.TTL,
		MaxEntries:    cfg.Cache.MaxEntries,
		RetryInterval: cfg.Cache.RetryInterval,
	}
	if d := cfg.Cache.Discovery; d.Enabled {
		resolver := discovery.NewResolver(discovery.DNSConfig{
			Enabled: d.Enabled,
			Service: d.Service,
			Port:    d.Port,
			UseSRV:  d.UseSRV,
		}, logger)
		cacheOpts.Resolve = resolver.Nodes
		logger.Info("Cache node discovery enabled", "service", d.Service, "srv", d.UseSRV)
	}
	rowCache, err := cache.New(cacheOpts, logger)
	if err != nil {
		logger.Fatal("Failed to initialize cache", "error", err)
	}
	if s, ok := rowCache.(interface{ Stop() }); ok {
		defer s.Stop()
	}
	logger.Info("Row cache initialized", "backend", cfg.Cache.Backend, "ttl", cfg.Cache.TTL)

	schedule, err := config.BuildSchedule(cfg.Shifts)
	if err != nil {
		logger.Fatal("Invalid shift schedule", "error", err)
	}
	shifts := shift.NewProvider(schedule)

	service := services.NewProductionService(
		cached.New(store, rowCache, cfg.Cache.TTL, logger),
		shifts,
		services.ProductionOptions{
			LiveThreshold:     cfg.Production.LiveThreshold,
			ReportConcurrency: cfg.Production.ReportConcurrency,
		},
		tracer,
		logger,
	)

	apiServer := api.NewServer(cfg, logger, rowCache, service)

	if cfg.File != "" {
		watcher := config.NewConfigWatcher(cfg.File, cfg, logger)
		watcher.RegisterWatcher(func(next *config.Config) {
			sched, err := config.BuildSchedule(next.Shifts)
			if err != nil {
				logger.Error("Ignoring reloaded shift schedule", "error", err)
				return
			}
			shifts.Replace(sched)
			apiServer.Hub().Broadcast(websocket.Message{Type: websocket.TypeScheduleUpdated, Timestamp: time.Now()})
			logger.Info("Shift schedule reloaded", "modes", len(sched.Modes()), "default", sched.DefaultMode())
		})
		go func() {
			if err := watcher.Start(ctx); err != nil {
				logger.Warn("Config watcher stopped", "error", err)
			}
		}()
		defer watcher.Stop()
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		logger.Info("Shutdown signal received")
		cancel()
	}()

	if err := apiServer.Start(ctx); err != nil {
		logger.Fatal("Server failed to start", "error", err)
	}

	logger.Info("LINEBOARD shutdown complete")
}
