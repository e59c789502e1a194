package sqlstore

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/platformbuilds/lineboard/internal/config"
)

func dsnFrom(cfg config.DatabaseConfig) string {
	if cfg.DSN != "" {
		return cfg.DSN
	}
	host := cfg.Host
	if host == "" {
		host = "127.0.0.1"
	}

	switch cfg.Driver {
	case "postgres":
		port := cfg.Port
		if port == 0 {
			port = 5432
		}
		params := url.Values{}
		params.Set("sslmode", "disable")
		if cfg.TLS {
			params.Set("sslmode", "require")
		}
		for k, v := range cfg.Params {
			params.Set(k, v)
		}
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(cfg.User, cfg.Password),
			Host:     net.JoinHostPort(host, strconv.Itoa(port)),
			Path:     "/" + cfg.Name,
			RawQuery: params.Encode(),
		}
		if cfg.Password == "" {
			u.User = url.User(cfg.User)
		}
		return u.String()
	default:
		port := cfg.Port
		if port == 0 {
			port = 3306
		}
		mc := mysql.NewConfig()
		mc.User = cfg.User
		mc.Passwd = cfg.Password
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(host, strconv.Itoa(port))
		mc.DBName = cfg.Name
		// Log timestamps are naive wall-clock values; keep them untouched.
		mc.ParseTime = true
		mc.Loc = time.UTC
		if cfg.TLS {
			mc.TLSConfig = "preferred"
		}
		if len(cfg.Params) > 0 {
			mc.Params = make(map[string]string, len(cfg.Params))
			for k, v := range cfg.Params {
				mc.Params[k] = v
			}
		}
		return mc.FormatDSN()
	}
}

// Connect opens and pings the production log database.
func Connect(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Open(cfg.Driver, dsnFrom(cfg))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}
	maxOpen := cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 20
	}
	maxIdle := cfg.MaxIdleConns
	if maxIdle <= 0 {
		maxIdle = 5
	}
	lifetime := cfg.ConnMaxLifetime
	if lifetime <= 0 {
		lifetime = 30 * time.Minute
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(lifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.Driver, err)
	}
	return db, nil
}
