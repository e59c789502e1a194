package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Load loads configuration from various sources with priority order:
// 1. Environment variables
// 2. Configuration file (explicit path, CONFIG_PATH, or config.yaml on the search path)
// 3. Default values
func Load(path string) (*Config, error) {
	v := viper.New()

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/lineboard/")
		v.AddConfigPath("./configs/")
		v.AddConfigPath(".")
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("LINEBOARD")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found - continue with env vars and defaults
	}

	overrideWithEnvVars(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	config.File = v.ConfigFileUsed()
	return &config, nil
}

// setDefaults sets reasonable default values
func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")
	v.SetDefault("port", 8080)
	v.SetDefault("log_level", "info")

	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.host", "127.0.0.1")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.user", "lineboard")
	v.SetDefault("database.name", "production")
	v.SetDefault("database.view", "ProductRecordLogView")
	v.SetDefault("database.query_timeout", 10*time.Second)
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 30*time.Minute)
	v.SetDefault("database.breaker.consecutive_failures", 3)
	v.SetDefault("database.breaker.open_timeout", 30*time.Second)
	v.SetDefault("database.breaker.interval", 60*time.Second)

	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.nodes", []string{"localhost:6379"})
	v.SetDefault("cache.db", 0)
	v.SetDefault("cache.ttl", 15*time.Second)
	v.SetDefault("cache.max_entries", 4096)
	v.SetDefault("cache.retry_interval", 5*time.Second)
	v.SetDefault("cache.discovery.enabled", false)
	v.SetDefault("cache.discovery.port", 6379)

	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Content-Type", "Authorization", "X-Request-ID"})
	v.SetDefault("cors.allow_credentials", false)
	v.SetDefault("cors.max_age", 3600)

	v.SetDefault("websocket.push_interval", 30*time.Second)
	v.SetDefault("websocket.ping_interval", 20*time.Second)
	v.SetDefault("websocket.write_timeout", 10*time.Second)
	v.SetDefault("websocket.max_message_size", 64*1024)
	v.SetDefault("websocket.send_buffer", 4)

	v.SetDefault("monitoring.metrics_path", "/metrics")
	v.SetDefault("monitoring.tracing_enabled", false)
	v.SetDefault("monitoring.otlp_endpoint", "localhost:4317")
	v.SetDefault("monitoring.service_name", "lineboard")

	v.SetDefault("production.live_threshold", 5*time.Minute)
	v.SetDefault("production.report_concurrency", 4)

	v.SetDefault("shifts.default_mode", "mode1")
}

// overrideWithEnvVars explicitly handles environment variable overrides
func overrideWithEnvVars(v *viper.Viper) {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			v.Set("port", p)
		}
	}

	if env := os.Getenv("ENVIRONMENT"); env != "" {
		v.Set("environment", env)
	}

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		v.Set("log_level", logLevel)
	}

	if dsn := os.Getenv("DB_DSN"); dsn != "" {
		v.Set("database.dsn", dsn)
	}

	if password := os.Getenv("DB_PASSWORD"); password != "" {
		v.Set("database.password", password)
	}

	if cacheNodes := os.Getenv("CACHE_NODES"); cacheNodes != "" {
		nodes := strings.Split(cacheNodes, ",")
		for i, node := range nodes {
			nodes[i] = strings.TrimSpace(node)
		}
		v.Set("cache.nodes", nodes)
		v.Set("cache.backend", "redis")
	}

	if otlp := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); otlp != "" {
		v.Set("monitoring.otlp_endpoint", otlp)
		v.Set("monitoring.tracing_enabled", true)
	}
}
