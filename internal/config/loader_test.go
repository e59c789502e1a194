package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platformbuilds/lineboard/pkg/logger"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestConfigLoading(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		config, err := Load(writeConfig(t, t.TempDir(), "environment: test\n"))
		require.NoError(t, err)
		assert.Equal(t, 8080, config.Port)
		assert.Equal(t, "mysql", config.Database.Driver)
		assert.Equal(t, "ProductRecordLogView", config.Database.View)
		assert.Equal(t, 15*time.Second, config.Cache.TTL)
		assert.Equal(t, 30*time.Second, config.WebSocket.PushInterval)
		assert.Equal(t, 5*time.Minute, config.Production.LiveThreshold)
	})

	t.Run("load from file", func(t *testing.T) {
		path := writeConfig(t, t.TempDir(), `
environment: test
port: 9999
log_level: debug

database:
  driver: postgres
  dsn: "postgres://u:p@db:5432/prod?sslmode=disable"
  view: production_log

cache:
  backend: redis
  nodes:
    - "test-redis:6379"
  ttl: 30s

websocket:
  push_interval: 10s

shifts:
  default_mode: night
  breaks:
    - {id: x, start: "23:30", end: "00:30"}
    - {id: y, start: "02:00", end: "02:15"}
  modes:
    night: [x, y]
`)
		config, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, path, config.File)
		assert.Equal(t, "test", config.Environment)
		assert.Equal(t, 9999, config.Port)
		assert.Equal(t, "debug", config.LogLevel)
		assert.Equal(t, "postgres", config.Database.Driver)
		assert.Equal(t, "production_log", config.Database.View)
		assert.Contains(t, config.Cache.Nodes, "test-redis:6379")
		assert.Equal(t, 30*time.Second, config.Cache.TTL)
		assert.Equal(t, 10*time.Second, config.WebSocket.PushInterval)

		sched, err := BuildSchedule(config.Shifts)
		require.NoError(t, err)
		assert.Equal(t, "night", string(sched.DefaultMode()))
		assert.Len(t, sched.Breaks("night"), 2)
		// unknown mode resolves to the configured default
		assert.Equal(t, "night", string(sched.ResolveMode("mode1")))
	})

	t.Run("env var precedence", func(t *testing.T) {
		path := writeConfig(t, t.TempDir(), "environment: test\nport: 9000\n")
		t.Setenv("LINEBOARD_PORT", "7777")
		t.Setenv("LINEBOARD_LOG_LEVEL", "warn")
		t.Setenv("CACHE_NODES", "r1:6379, r2:6379")

		config, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 7777, config.Port)
		assert.Equal(t, "warn", config.LogLevel)
		assert.Equal(t, "redis", config.Cache.Backend)
		assert.Equal(t, []string{"r1:6379", "r2:6379"}, config.Cache.Nodes)
	})
}

func TestConfigValidation(t *testing.T) {
	cases := map[string]string{
		"push interval too short": "websocket:\n  push_interval: 2s\n",
		"push interval too long":  "websocket:\n  push_interval: 1m\n",
		"bad driver":              "database:\n  driver: sqlite\n",
		"bad view":                "database:\n  view: \"x; DROP TABLE y\"\n",
		"bad cache ttl":           "cache:\n  ttl: 100ms\n",
		"bad log level":           "log_level: loud\n",
		"discovery without name":  "cache:\n  discovery:\n    enabled: true\n",
		"unknown break":           "shifts:\n  modes:\n    mode1: [zz]\n",
		"bad break time":          "shifts:\n  breaks:\n    - {id: a, start: \"25:00\", end: \"01:00\"}\n  modes:\n    mode1: [a]\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, t.TempDir(), body))
			assert.Error(t, err)
		})
	}
}

func TestBuildSchedule_DefaultsWhenEmpty(t *testing.T) {
	sched, err := BuildSchedule(ShiftsConfig{})
	require.NoError(t, err)
	assert.Len(t, sched.Modes(), 3)
	assert.Len(t, sched.Breaks("mode3"), 8)
}

func TestConfigWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "environment: test\nport: 9000\n")
	initial, err := Load(path)
	require.NoError(t, err)

	w := NewConfigWatcher(path, initial, logger.NewNop())
	got := make(chan int, 4)
	w.RegisterWatcher(func(c *Config) {
		select {
		case got <- c.Port:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Start(ctx) }()

	// Give the watcher time to register before the write.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("environment: test\nport: 9100\n"), 0o644))

	// The truncate and the write can arrive as separate events.
	deadline := time.After(3 * time.Second)
	for port := 0; port != 9100; {
		select {
		case port = <-got:
		case <-deadline:
			t.Fatal("watcher did not reload")
		}
	}
	assert.Equal(t, 9100, w.GetConfig().Port)
	w.Stop()
}
