package concurrency

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// FanOut runs fn(ctx, i) for every i in [0, n) with at most limit running
// concurrently, using golang.org/x/sync/errgroup for bounded fan-out and
// first-error propagation (§4.I, §5): on the first per-item failure the
// group's context is cancelled, remaining in-flight calls are awaited but
// their results discarded, and the first error is returned.
func FanOut(ctx context.Context, n int, limit uint64, fn func(ctx context.Context, i int) error) error {
	if n == 0 {
		return nil
	}
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		l := limit
		if l > uint64(n) {
			l = uint64(n)
		}
		g.SetLimit(int(l))
	}
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			return fn(gctx, i)
		})
	}
	return g.Wait()
}

// FanOutCollect is FanOut plus an ordered results slice: fn's return value
// for index i lands at results[i] regardless of completion order.
func FanOutCollect[T any](ctx context.Context, n int, limit uint64, fn func(ctx context.Context, i int) (T, error)) ([]T, error) {
	results := make([]T, n)
	err := FanOut(ctx, n, limit, func(ctx context.Context, i int) error {
		v, err := fn(ctx, i)
		if err != nil {
			return err
		}
		results[i] = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}
