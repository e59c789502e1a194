package cache

import (
	"context"
	"sync"
	"time"

	"github.com/platformbuilds/lineboard/pkg/logger"
)

// AutoSwap delegates to a fallback until dial succeeds, then to the
// dialled cache for the rest of its life.
type AutoSwap struct {
	mu      sync.RWMutex
	current Cache
	swapped bool
	logger  logger.Logger

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewAutoSwap starts serving from fallback and retries dial every interval.
func NewAutoSwap(fallback Cache, log logger.Logger, interval time.Duration, dial func() (Cache, error)) *AutoSwap {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	a := &AutoSwap{
		current: fallback,
		logger:  log,
		stopCh:  make(chan struct{}),
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-a.stopCh:
				return
			case <-ticker.C:
				real, err := dial()
				if err != nil {
					a.logger.Debug("redis connection attempt failed; will retry", "error", err)
					continue
				}
				a.mu.Lock()
				a.current = real
				a.swapped = true
				a.mu.Unlock()
				a.logger.Info("redis connection established; switched from in-memory cache")
				return
			}
		}
	}()

	return a
}

// Stop ends the background dialer.
func (a *AutoSwap) Stop() { a.stopOnce.Do(func() { close(a.stopCh) }) }

// Swapped reports whether the dialled cache is active.
func (a *AutoSwap) Swapped() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.swapped
}

func (a *AutoSwap) active() Cache {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.current
}

func (a *AutoSwap) Get(ctx context.Context, key string) ([]byte, error) {
	return a.active().Get(ctx, key)
}

func (a *AutoSwap) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return a.active().Set(ctx, key, value, ttl)
}

func (a *AutoSwap) Delete(ctx context.Context, key string) error {
	return a.active().Delete(ctx, key)
}

func (a *AutoSwap) HealthCheck(ctx context.Context) error {
	return a.active().HealthCheck(ctx)
}
