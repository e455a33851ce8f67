package catalog

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Paired is the outcome of one fanned-out call, tagged with the id it was
// issued for
type Paired[T any] struct {
	ID     int64
	Result T
	Err    error
}

// FanOut calls fn for every id concurrently, at most limit at a time, and
// returns the pairs in the order of ids regardless of completion order.
// A failing call is recorded on its pair and does not stop the others; a
// cancelled ctx aborts the batch and is returned.
func FanOut[T any](ctx context.Context, ids []int64, limit int, fn func(context.Context, int64) (T, error)) ([]Paired[T], error) {
	out := make([]Paired[T], len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, id := range ids {
		out[i].ID = id
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				out[i].Err = err
				return nil
			}
			out[i].Result, out[i].Err = fn(gctx, id)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return out, err
	}
	return out, nil
}
