package main

import (
	"fmt"

	"github.com/platformbuilds/lineboard/internal/config"
	"github.com/platformbuilds/lineboard/internal/services"
	"github.com/platformbuilds/lineboard/internal/shift"
	"github.com/platformbuilds/lineboard/internal/storage/sqlstore"
	"github.com/platformbuilds/lineboard/pkg/logger"
)

// openService wires a ProductionService straight onto the production log.
// The CLI runs one query per invocation, so no row cache is used.
func openService() (*services.ProductionService, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	log := logger.New(logLevel)

	schedule, err := config.BuildSchedule(cfg.Shifts)
	if err != nil {
		return nil, nil, err
	}
	store, err := sqlstore.Open(cfg.Database, log)
	if err != nil {
		return nil, nil, err
	}

	svc := services.NewProductionService(store, shift.NewProvider(schedule), services.ProductionOptions{
		LiveThreshold:     cfg.Production.LiveThreshold,
		ReportConcurrency: cfg.Production.ReportConcurrency,
	}, nil, log)
	return svc, func() { _ = store.Close() }, nil
}
