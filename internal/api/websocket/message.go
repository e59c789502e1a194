package websocket

import "time"

// Frame types pushed to dashboard clients.
const (
	TypeUnitMetrics     = "unit_metrics"
	TypeHourlyMetrics   = "hourly_metrics"
	TypeHeartbeat       = "heartbeat"
	TypeError           = "error"
	TypeScheduleUpdated = "schedule_updated"
)

// Message is the JSON envelope of every server frame.
type Message struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	Field     string      `json:"field,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}
