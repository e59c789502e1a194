package models

import "time"

// ProductionRecord is one tested unit read from the production log.
// TargetRate is units per hour for the model under the active working mode;
// nil when the model has no configured target.
type ProductionRecord struct {
	Model      string    `json:"model" db:"model"`
	Timestamp  time.Time `json:"timestamp" db:"ts"`
	Passed     bool      `json:"passed" db:"passed"`
	TargetRate *float64  `json:"target_rate" db:"target_rate"`
}

// ModelCount is the grouped form of the production log: pass/fail counts per
// (model, target rate).
type ModelCount struct {
	Model      string   `json:"model" db:"model"`
	SuccessQty int64    `json:"success_qty" db:"success_qty"`
	FailQty    int64    `json:"fail_qty" db:"fail_qty"`
	TargetRate *float64 `json:"target_rate" db:"target_rate"`
}

// HasTarget reports whether the count carries a usable (positive) target.
func (m ModelCount) HasTarget() bool { return m.TargetRate != nil && *m.TargetRate > 0 }

// ModelMetrics are the derived per-model figures for one window or bucket.
// TotalQty counts accepted units only.
type ModelMetrics struct {
	Model          string   `json:"model"`
	SuccessQty     int64    `json:"success_qty"`
	FailQty        int64    `json:"fail_qty"`
	TotalQty       int64    `json:"total_qty"`
	Quality        float64  `json:"quality"`
	TargetRate     *float64 `json:"target"`
	TheoreticalQty float64  `json:"theoretical_qty"`
	Performance    *float64 `json:"performance"`
}

// HasTarget reports whether the model carries a positive target rate.
func (m ModelMetrics) HasTarget() bool { return m.TargetRate != nil && *m.TargetRate > 0 }

// HourBucket is a windowed aggregation restricted to one clock hour, or to the
// part of the current hour that has elapsed.
type HourBucket struct {
	HourStart        time.Time      `json:"hour_start"`
	HourEnd          time.Time      `json:"hour_end"`
	IsCurrent        bool           `json:"is_current"`
	OperatingSeconds float64        `json:"operating_seconds"`
	BreakSeconds     float64        `json:"break_seconds"`
	SuccessQty       int64          `json:"success_qty"`
	FailQty          int64          `json:"fail_qty"`
	TotalQty         int64          `json:"total_qty"`
	Quality          float64        `json:"quality"`
	Performance      float64        `json:"performance"`
	TheoreticalQty   float64        `json:"theoretical_qty"`
	Models           []ModelMetrics `json:"models"`
}

// UnitSummary aggregates a unit's production over a window.
type UnitSummary struct {
	Unit             string         `json:"unit_name"`
	Start            time.Time      `json:"start_time"`
	End              time.Time      `json:"end_time"`
	OperatingEnd     time.Time      `json:"operating_end"`
	Live             bool           `json:"live"`
	WorkingMode      string         `json:"working_mode"`
	OperatingSeconds float64        `json:"operating_seconds"`
	BreakSeconds     float64        `json:"break_seconds"`
	SuccessQty       int64          `json:"total_success"`
	FailQty          int64          `json:"total_fail"`
	TotalQty         int64          `json:"total_qty"`
	Quality          float64        `json:"total_quality"`
	Performance      float64        `json:"total_performance"`
	TheoreticalQty   float64        `json:"total_theoretical_qty"`
	Models           []ModelMetrics `json:"models"`
	Hourly           []HourBucket   `json:"hourly_data,omitempty"`
}

// ReportRollup is the cross-unit total of a multi-unit report.
type ReportRollup struct {
	SuccessQty     int64   `json:"total_success"`
	FailQty        int64   `json:"total_fail"`
	TotalQty       int64   `json:"total_qty"`
	Quality        float64 `json:"total_quality"`
	Performance    float64 `json:"total_performance"`
	TheoreticalQty float64 `json:"total_theoretical_qty"`
}

// MultiUnitReport holds per-unit summaries and their production-weighted rollup.
type MultiUnitReport struct {
	Start       time.Time     `json:"start_time"`
	End         time.Time     `json:"end_time"`
	WorkingMode string        `json:"working_mode"`
	Units       []UnitSummary `json:"units"`
	Rollup      ReportRollup  `json:"rollup"`
}
