// Package cache holds short-lived query results for the row source.
//
// Two backends are available: an in-process bounded LRU with per-entry expiry
// and a redis client (single node or cluster). When redis is unreachable at
// startup the factory serves from memory and swaps to redis once it answers.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/platformbuilds/lineboard/pkg/logger"
)

// ErrNotFound is returned by Get for missing or expired keys.
var ErrNotFound = errors.New("cache: key not found")

// Cache stores opaque byte payloads under string keys.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value; []byte and string are stored as-is, anything else as JSON.
	// A non-positive ttl uses the backend default.
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	HealthCheck(ctx context.Context) error
}

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Options configures New.
type Options struct {
	Backend    string
	Nodes      []string
	DB         int
	Password   string
	TTL        time.Duration
	MaxEntries int
	// RetryInterval is how often the memory fallback retries redis.
	RetryInterval time.Duration
	// Resolve, when set, supplies the redis nodes on every dial. An empty
	// answer keeps Nodes.
	Resolve func() []string
}

// New builds the configured backend. A redis backend that cannot be reached
// yet is wrapped so the service starts on memory and upgrades later.
func New(opts Options, log logger.Logger) (Cache, error) {
	if opts.TTL <= 0 {
		opts.TTL = 15 * time.Second
	}
	switch opts.Backend {
	case "", BackendMemory:
		return NewMemory(opts.MaxEntries, opts.TTL), nil
	case BackendRedis:
		if len(opts.Nodes) == 0 && opts.Resolve == nil {
			return nil, fmt.Errorf("cache: redis backend needs at least one node")
		}
		dial := func() (Cache, error) {
			o := opts
			if o.Resolve != nil {
				if nodes := o.Resolve(); len(nodes) > 0 {
					o.Nodes = nodes
				}
			}
			if len(o.Nodes) == 0 {
				return nil, fmt.Errorf("cache: no redis nodes resolved")
			}
			return DialRedis(o)
		}
		c, err := dial()
		if err == nil {
			return c, nil
		}
		log.Warn("redis cache unreachable; serving from memory until it answers",
			"nodes", opts.Nodes, "error", err)
		return NewAutoSwap(NewMemory(opts.MaxEntries, opts.TTL), log, opts.RetryInterval, dial), nil
	default:
		return nil, fmt.Errorf("cache: unknown backend %q", opts.Backend)
	}
}

func encode(key string, value interface{}) ([]byte, error) {
	switch x := value.(type) {
	case []byte:
		return x, nil
	case string:
		return []byte(x), nil
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return nil, fmt.Errorf("marshal value for key %s: %w", key, err)
		}
		return b, nil
	}
}
