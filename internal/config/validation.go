package config

import (
	"fmt"
	"regexp"
	"time"

	"github.com/platformbuilds/lineboard/internal/shift"
)

const (
	MinPushInterval = 8 * time.Second
	MaxPushInterval = 30 * time.Second
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// validateConfig validates the loaded configuration
func validateConfig(config *Config) error {
	if config.Port < 1 || config.Port > 65535 {
		return fmt.Errorf("invalid port number: %d", config.Port)
	}

	validLogLevels := []string{"debug", "info", "warn", "error", "fatal"}
	if !contains(validLogLevels, config.LogLevel) {
		return fmt.Errorf("invalid log level: %s", config.LogLevel)
	}

	validEnvironments := []string{"development", "staging", "production", "test"}
	if !contains(validEnvironments, config.Environment) {
		return fmt.Errorf("invalid environment: %s", config.Environment)
	}

	if !contains([]string{"mysql", "postgres"}, config.Database.Driver) {
		return fmt.Errorf("unsupported database driver: %s", config.Database.Driver)
	}
	if !identRe.MatchString(config.Database.View) {
		return fmt.Errorf("invalid database view name: %q", config.Database.View)
	}
	if config.Database.QueryTimeout <= 0 {
		return fmt.Errorf("database query timeout must be positive")
	}

	if !contains([]string{"memory", "redis"}, config.Cache.Backend) {
		return fmt.Errorf("unsupported cache backend: %s", config.Cache.Backend)
	}
	if config.Cache.Backend == "redis" && len(config.Cache.Nodes) == 0 && !config.Cache.Discovery.Enabled {
		return fmt.Errorf("at least one redis cache node is required")
	}
	if config.Cache.Discovery.Enabled && config.Cache.Discovery.Service == "" {
		return fmt.Errorf("cache discovery needs a service name")
	}
	if config.Cache.TTL < time.Second {
		return fmt.Errorf("cache TTL must be at least 1 second")
	}

	if p := config.WebSocket.PushInterval; p < MinPushInterval || p > MaxPushInterval {
		return fmt.Errorf("websocket push interval must be between %s and %s, got %s", MinPushInterval, MaxPushInterval, p)
	}

	if config.Production.LiveThreshold < 0 {
		return fmt.Errorf("production live threshold must not be negative")
	}
	if config.Production.ReportConcurrency < 1 {
		return fmt.Errorf("production report concurrency must be at least 1")
	}

	if _, err := BuildSchedule(config.Shifts); err != nil {
		return fmt.Errorf("invalid shifts: %w", err)
	}

	return nil
}

// BuildSchedule turns the shifts section into a schedule. Missing breaks or
// modes fall back to the built-in table.
func BuildSchedule(sc ShiftsConfig) (*shift.Schedule, error) {
	def := shift.DefaultSchedule()

	breaks := def.AllBreaks()
	if len(sc.Breaks) > 0 {
		breaks = make([]shift.BreakWindow, 0, len(sc.Breaks))
		for _, b := range sc.Breaks {
			bw, err := shift.ParseBreak(b.ID, b.Start, b.End)
			if err != nil {
				return nil, err
			}
			breaks = append(breaks, bw)
		}
	}

	modes := make(map[shift.WorkingMode][]string)
	if len(sc.Modes) > 0 {
		for name, ids := range sc.Modes {
			modes[shift.WorkingMode(name)] = ids
		}
	} else {
		for _, m := range def.Modes() {
			for _, b := range def.Breaks(string(m)) {
				modes[m] = append(modes[m], b.ID)
			}
		}
	}

	defaultMode := shift.WorkingMode(sc.DefaultMode)
	if defaultMode == "" {
		defaultMode = shift.DefaultMode
	}
	return shift.NewSchedule(breaks, modes, defaultMode)
}

// contains checks if a string slice contains a specific value
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
