package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/platformbuilds/lineboard/internal/models"
	"github.com/platformbuilds/lineboard/internal/shift"
	"github.com/platformbuilds/lineboard/pkg/logger"
)

// ProductionService is the computation surface the HTTP and WebSocket
// handlers need.
type ProductionService interface {
	ListUnits(ctx context.Context) ([]string, error)
	GetUnitMetrics(ctx context.Context, unit string, start, end, now time.Time, mode string) (*models.UnitSummary, error)
	GetHourlyMetrics(ctx context.Context, unit string, start, end, now time.Time, mode string) (*models.UnitSummary, error)
	GetMultiUnitReport(ctx context.Context, units []string, start, end time.Time, mode string) (*models.MultiUnitReport, error)
	Schedule() *shift.Schedule
	Ping(ctx context.Context) error
}

type ProductionHandler struct {
	service ProductionService
	now     func() time.Time
	logger  logger.Logger
}

func NewProductionHandler(service ProductionService, logger logger.Logger) *ProductionHandler {
	return &ProductionHandler{service: service, now: time.Now, logger: logger}
}

// GET /api/v1/units
func (h *ProductionHandler) ListUnits(c *gin.Context) {
	units, err := h.service.ListUnits(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"units": units, "count": len(units)})
}

// GET /api/v1/units/:unit/metrics
func (h *ProductionHandler) GetUnitMetrics(c *gin.Context) {
	h.metrics(c, h.service.GetUnitMetrics)
}

// GET /api/v1/units/:unit/hourly
func (h *ProductionHandler) GetHourlyMetrics(c *gin.Context) {
	h.metrics(c, h.service.GetHourlyMetrics)
}

type unitComputeFunc func(ctx context.Context, unit string, start, end, now time.Time, mode string) (*models.UnitSummary, error)

func (h *ProductionHandler) metrics(c *gin.Context, compute unitComputeFunc) {
	unit := strings.TrimSpace(c.Param("unit"))
	var req models.MetricsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		_ = c.Error(models.NewValidationError("", "invalid query: %v", err))
		return
	}
	w, err := req.ToTimeWindow()
	if err != nil {
		_ = c.Error(err)
		return
	}

	summary, err := compute(c.Request.Context(), unit, w.Start, w.End, h.now(), req.WorkingMode)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// POST /api/v1/reports
func (h *ProductionHandler) CreateReport(c *gin.Context) {
	var req models.ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(models.NewValidationError("", "invalid request body: %v", err))
		return
	}
	w, err := req.ToTimeWindow()
	if err != nil {
		_ = c.Error(err)
		return
	}

	report, err := h.service.GetMultiUnitReport(c.Request.Context(), req.Units, w.Start, w.End, req.WorkingMode)
	if err != nil {
		_ = c.Error(err)
		return
	}
	h.logger.Info("multi-unit report generated", "units", len(report.Units), "start", w.Start, "end", w.End)
	c.JSON(http.StatusOK, report)
}

// GET /api/v1/shifts
func (h *ProductionHandler) GetShifts(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Schedule().Table())
}
