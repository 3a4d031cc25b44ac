package resilience

import (
	"context"
	"fmt"
	"time"
)

type result[T any] struct {
	v   T
	err error
}

// WithTimeout runs fn with a context cancelled after timeout and stops
// waiting once it expires, even if fn ignores its context. A non-positive
// timeout calls fn directly.
func WithTimeout[T any](ctx context.Context, timeout time.Duration, name string, fn func(ctx context.Context) (T, error)) (T, error) {
	if timeout <= 0 {
		return fn(ctx)
	}
	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan result[T], 1)
	go func() {
		v, err := fn(tctx)
		done <- result[T]{v, err}
	}()

	select {
	case r := <-done:
		return r.v, r.err
	case <-tctx.Done():
		var zero T
		if ctx.Err() != nil {
			return zero, fmt.Errorf("%s: %w", name, ctx.Err())
		}
		return zero, fmt.Errorf("%s: %w (limit %v)", name, context.DeadlineExceeded, timeout)
	}
}
