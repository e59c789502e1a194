package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/platformbuilds/lineboard/internal/monitoring"
)

// redisCache implements Cache against a single redis node or a cluster.
type redisCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// DialRedis connects and pings. More than one node selects cluster mode.
func DialRedis(opts Options) (Cache, error) {
	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:        opts.Nodes,
		DB:           opts.DB,
		Password:     opts.Password,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis %v: %w", opts.Nodes, err)
	}
	return NewRedis(client, opts.TTL), nil
}

// NewRedis wraps an existing client.
func NewRedis(client redis.UniversalClient, ttl time.Duration) Cache {
	if ttl <= 0 {
		ttl = 15 * time.Second
	}
	return &redisCache{client: client, ttl: ttl}
}

func (r *redisCache) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		monitoring.RecordCacheOperation("get", "miss")
		return nil, ErrNotFound
	}
	if err != nil {
		monitoring.RecordCacheOperation("get", "error")
		return nil, err
	}
	monitoring.RecordCacheOperation("get", "hit")
	return b, nil
}

func (r *redisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := encode(key, value)
	if err != nil {
		monitoring.RecordCacheOperation("set", "error")
		return err
	}
	if ttl <= 0 {
		ttl = r.ttl
	}
	if err := r.client.Set(ctx, key, string(data), ttl).Err(); err != nil {
		monitoring.RecordCacheOperation("set", "error")
		return err
	}
	monitoring.RecordCacheOperation("set", "success")
	return nil
}

func (r *redisCache) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		monitoring.RecordCacheOperation("delete", "error")
		return err
	}
	monitoring.RecordCacheOperation("delete", "success")
	return nil
}

func (r *redisCache) HealthCheck(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
