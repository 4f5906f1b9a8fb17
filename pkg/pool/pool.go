// Package pool provides a bounded, order-preserving parallel map.
//
// Each unit of work is independent; workers write only to their own output
// slot, so results always come back in input order regardless of scheduling.
package pool

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// DefaultWorkers bounds parallel map operations when the caller does not
// configure a worker count.
const DefaultWorkers = 8

// Map applies fn to every item with at most workers goroutines and returns
// the results in input order. The first error cancels the remaining work and
// is returned; partial results are discarded. A workers value below one falls
// back to DefaultWorkers.
func Map[T, R any](ctx context.Context, workers int, items []T, fn func(ctx context.Context, item T) (R, error)) ([]R, error) {
	if workers < 1 {
		workers = DefaultWorkers
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	out := make([]R, len(items))
	for i, item := range items {
		g.Go(func() error {
			r, err := fn(ctx, item)
			if err != nil {
				return err
			}
			out[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
