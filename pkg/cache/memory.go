package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/platformbuilds/lineboard/internal/monitoring"
)

const defaultMaxEntries = 4096

type memoryEntry struct {
	data    []byte
	expires time.Time
}

// memoryCache is a process-local LRU. The LRU evicts at the default TTL; shorter
// per-call TTLs are enforced on read.
type memoryCache struct {
	lru *expirable.LRU[string, memoryEntry]
	ttl time.Duration
	now func() time.Time
}

// NewMemory returns a bounded in-process cache.
func NewMemory(maxEntries int, ttl time.Duration) Cache {
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	if ttl <= 0 {
		ttl = 15 * time.Second
	}
	return &memoryCache{
		lru: expirable.NewLRU[string, memoryEntry](maxEntries, nil, ttl),
		ttl: ttl,
		now: time.Now,
	}
}

func (m *memoryCache) Get(_ context.Context, key string) ([]byte, error) {
	e, ok := m.lru.Get(key)
	if !ok {
		monitoring.RecordCacheOperation("get", "miss")
		return nil, ErrNotFound
	}
	if !m.now().Before(e.expires) {
		m.lru.Remove(key)
		monitoring.RecordCacheOperation("get", "miss")
		return nil, ErrNotFound
	}
	monitoring.RecordCacheOperation("get", "hit")
	return e.data, nil
}

func (m *memoryCache) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := encode(key, value)
	if err != nil {
		monitoring.RecordCacheOperation("set", "error")
		return err
	}
	if ttl <= 0 || ttl > m.ttl {
		ttl = m.ttl
	}
	m.lru.Add(key, memoryEntry{data: data, expires: m.now().Add(ttl)})
	monitoring.RecordCacheOperation("set", "success")
	return nil
}

func (m *memoryCache) Delete(_ context.Context, key string) error {
	m.lru.Remove(key)
	monitoring.RecordCacheOperation("delete", "success")
	return nil
}

func (m *memoryCache) HealthCheck(context.Context) error { return nil }
