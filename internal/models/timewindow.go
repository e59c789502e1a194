package models

import (
	"strings"
	"time"
)

// TimeWindow is a reporting interval in the application timezone.
type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewTimeWindow normalises start and end to AppLocation and raises end to
// start when it precedes it.
func NewTimeWindow(start, end time.Time) TimeWindow {
	start = InAppZone(start)
	end = InAppZone(end)
	if end.Before(start) {
		end = start
	}
	return TimeWindow{Start: start, End: end}
}

// Duration returns End - Start.
func (w TimeWindow) Duration() time.Duration { return w.End.Sub(w.Start) }

// MetricsRequest is the parameter frame a dashboard sends, over HTTP query
// strings or as a WebSocket text message.
type MetricsRequest struct {
	StartTime   string `json:"start_time" form:"start_time"`
	EndTime     string `json:"end_time" form:"end_time"`
	WorkingMode string `json:"working_mode" form:"working_mode"`
}

// ToTimeWindow parses StartTime and EndTime. Both are required.
func (r *MetricsRequest) ToTimeWindow() (TimeWindow, error) {
	if r == nil {
		return TimeWindow{}, &ValidationError{Message: "request is nil"}
	}
	if strings.TrimSpace(r.StartTime) == "" {
		return TimeWindow{}, NewValidationError("start_time", "is required")
	}
	if strings.TrimSpace(r.EndTime) == "" {
		return TimeWindow{}, NewValidationError("end_time", "is required")
	}
	ts, err := ParseTimestamp(r.StartTime)
	if err != nil {
		return TimeWindow{}, NewValidationError("start_time", "%s", err.Error())
	}
	te, err := ParseTimestamp(r.EndTime)
	if err != nil {
		return TimeWindow{}, NewValidationError("end_time", "%s", err.Error())
	}
	return NewTimeWindow(ts, te), nil
}

// ReportRequest asks for a multi-unit report. An empty Units list means every
// known unit.
type ReportRequest struct {
	Units       []string `json:"units"`
	StartTime   string   `json:"start_time"`
	EndTime     string   `json:"end_time"`
	WorkingMode string   `json:"working_mode"`
}

// ToTimeWindow parses the report interval.
func (r *ReportRequest) ToTimeWindow() (TimeWindow, error) {
	if r == nil {
		return TimeWindow{}, &ValidationError{Message: "request is nil"}
	}
	mr := MetricsRequest{StartTime: r.StartTime, EndTime: r.EndTime}
	return mr.ToTimeWindow()
}
