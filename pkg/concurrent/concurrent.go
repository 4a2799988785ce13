package concurrent

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// MapOrdered applies fn to every element on at most workers goroutines and
// returns the results in input order. The first error cancels the context
// passed to the remaining calls and is returned.
// workers <= 0 runs fn sequentially on the calling goroutine.
func MapOrdered[T any, R any](ctx context.Context, in []T, workers int, fn func(ctx context.Context, idx int, v T) (R, error)) ([]R, error) {
	out := make([]R, len(in))

	if workers <= 0 || len(in) < 2 {
		for idx, v := range in {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			r, err := fn(ctx, idx, v)
			if err != nil {
				return nil, err
			}
			out[idx] = r
		}
		return out, nil
	}

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(workers)

	for idx, v := range in {
		group.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := fn(gctx, idx, v)
			if err != nil {
				return err
			}
			out[idx] = r
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
