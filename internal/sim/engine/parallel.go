package engine

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// parallelForEach runs fn over items on at most limit goroutines. A failing
// or panicking item never stops its siblings; every failure is returned
// joined, in item order, once the whole pass is done.
func parallelForEach[T any](ctx context.Context, limit int, items []T, fn func(T) error) error {
	if len(items) == 0 {
		return nil
	}
	if limit < 1 {
		limit = 1
	}
	errs := make([]error, len(items))
	var g errgroup.Group
	g.SetLimit(limit)
	for i, item := range items {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					errs[i] = fmt.Errorf("panic: %v", r)
				}
			}()
			if ctx.Err() != nil {
				return nil
			}
			errs[i] = fn(item)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (e *GameEngine) workers() int {
	f := e.tun.Engine.ParallelismFactor
	if f < 1 {
		f = 4
	}
	return f * runtime.NumCPU()
}
