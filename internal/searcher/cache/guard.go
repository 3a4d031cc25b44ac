package cache

import (
	"context"
	"time"

	pkgredis "github.com/Adithya-Monish-Kumar-K/search-server/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/resilience"
)

type guardedBackend struct {
	next    Backend
	breaker *resilience.CircuitBreaker
	timeout time.Duration
}

// Guard bounds every call to next by timeout and routes it through breaker,
// so a slow or unreachable Redis degrades searches to uncached engine
// lookups instead of stalling them. A key miss is not a failure.
func Guard(next Backend, breaker *resilience.CircuitBreaker, timeout time.Duration) Backend {
	return &guardedBackend{next: next, breaker: breaker, timeout: timeout}
}

func (g *guardedBackend) Get(ctx context.Context, key string) ([]byte, error) {
	var (
		data []byte
		miss error
	)
	err := g.breaker.Execute(func() error {
		var err error
		data, err = resilience.WithTimeout(ctx, g.timeout, "cache get", func(ctx context.Context) ([]byte, error) {
			return g.next.Get(ctx, key)
		})
		if pkgredis.IsNilError(err) {
			miss = err
			return nil
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	if miss != nil {
		return nil, miss
	}
	return data, nil
}

func (g *guardedBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return g.breaker.Execute(func() error {
		_, err := resilience.WithTimeout(ctx, g.timeout, "cache set", func(ctx context.Context) (struct{}, error) {
			return struct{}{}, g.next.Set(ctx, key, value, ttl)
		})
		return err
	})
}

// FlushByPattern bypasses the breaker and the timeout: invalidation is an
// explicit operator action and must reach Redis whenever it is reachable.
func (g *guardedBackend) FlushByPattern(ctx context.Context, pattern string) (int64, error) {
	return g.next.FlushByPattern(ctx, pattern)
}
