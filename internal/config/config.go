package config

import "time"

type Config struct {
	Environment string `mapstructure:"environment" yaml:"environment"`
	Port        int    `mapstructure:"port" yaml:"port"`
	LogLevel    string `mapstructure:"log_level" yaml:"log_level"`

	Database   DatabaseConfig   `mapstructure:"database" yaml:"database"`
	Cache      CacheConfig      `mapstructure:"cache" yaml:"cache"`
	CORS       CORSConfig       `mapstructure:"cors" yaml:"cors"`
	WebSocket  WebSocketConfig  `mapstructure:"websocket" yaml:"websocket"`
	Monitoring MonitoringConfig `mapstructure:"monitoring" yaml:"monitoring"`
	Production ProductionConfig `mapstructure:"production" yaml:"production"`
	Shifts     ShiftsConfig     `mapstructure:"shifts" yaml:"shifts"`

	// File is the config file that was read, empty when running on defaults.
	File string `mapstructure:"-" yaml:"-"`
}

// DatabaseConfig locates the production log. DSN wins over the discrete fields.
type DatabaseConfig struct {
	Driver   string            `mapstructure:"driver" yaml:"driver"` // mysql | postgres
	DSN      string            `mapstructure:"dsn" yaml:"dsn"`
	Host     string            `mapstructure:"host" yaml:"host"`
	Port     int               `mapstructure:"port" yaml:"port"`
	User     string            `mapstructure:"user" yaml:"user"`
	Password string            `mapstructure:"password" yaml:"password"`
	Name     string            `mapstructure:"name" yaml:"name"`
	TLS      bool              `mapstructure:"tls" yaml:"tls"`
	Params   map[string]string `mapstructure:"params" yaml:"params"`

	// View is the table or view holding one row per tested product.
	View            string        `mapstructure:"view" yaml:"view"`
	QueryTimeout    time.Duration `mapstructure:"query_timeout" yaml:"query_timeout"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" yaml:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" yaml:"conn_max_lifetime"`

	Breaker BreakerConfig `mapstructure:"breaker" yaml:"breaker"`
}

type BreakerConfig struct {
	ConsecutiveFailures uint32        `mapstructure:"consecutive_failures" yaml:"consecutive_failures"`
	OpenTimeout         time.Duration `mapstructure:"open_timeout" yaml:"open_timeout"`
	Interval            time.Duration `mapstructure:"interval" yaml:"interval"`
}

type CacheConfig struct {
	Backend       string        `mapstructure:"backend" yaml:"backend"` // memory | redis
	Nodes         []string      `mapstructure:"nodes" yaml:"nodes"`
	DB            int           `mapstructure:"db" yaml:"db"`
	Password      string        `mapstructure:"password" yaml:"password"`
	TTL           time.Duration `mapstructure:"ttl" yaml:"ttl"`
	MaxEntries    int           `mapstructure:"max_entries" yaml:"max_entries"`
	RetryInterval time.Duration `mapstructure:"retry_interval" yaml:"retry_interval"`
	// Discovery replaces Nodes with the addresses a DNS name resolves to.
	Discovery DiscoveryConfig `mapstructure:"discovery" yaml:"discovery"`
}

type DiscoveryConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Service string `mapstructure:"service" yaml:"service"`
	Port    int    `mapstructure:"port" yaml:"port"`
	UseSRV  bool   `mapstructure:"use_srv" yaml:"use_srv"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods" yaml:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers" yaml:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials" yaml:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age" yaml:"max_age"`
}

type WebSocketConfig struct {
	PushInterval   time.Duration `mapstructure:"push_interval" yaml:"push_interval"`
	PingInterval   time.Duration `mapstructure:"ping_interval" yaml:"ping_interval"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	MaxMessageSize int64         `mapstructure:"max_message_size" yaml:"max_message_size"`
	SendBuffer     int           `mapstructure:"send_buffer" yaml:"send_buffer"`
}

type MonitoringConfig struct {
	MetricsPath    string `mapstructure:"metrics_path" yaml:"metrics_path"`
	TracingEnabled bool   `mapstructure:"tracing_enabled" yaml:"tracing_enabled"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint" yaml:"otlp_endpoint"`
	ServiceName    string `mapstructure:"service_name" yaml:"service_name"`
}

type ProductionConfig struct {
	// LiveThreshold is how long after a window's end it still counts as live.
	LiveThreshold     time.Duration `mapstructure:"live_threshold" yaml:"live_threshold"`
	ReportConcurrency int           `mapstructure:"report_concurrency" yaml:"report_concurrency"`
}

// ShiftsConfig overrides the built-in break table. Empty Breaks keeps the
// built-in table.
type ShiftsConfig struct {
	Breaks      []BreakConfig       `mapstructure:"breaks" yaml:"breaks"`
	Modes       map[string][]string `mapstructure:"modes" yaml:"modes"`
	DefaultMode string              `mapstructure:"default_mode" yaml:"default_mode"`
}

type BreakConfig struct {
	ID    string `mapstructure:"id" yaml:"id"`
	Start string `mapstructure:"start" yaml:"start"` // HH:MM
	End   string `mapstructure:"end" yaml:"end"`
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}
