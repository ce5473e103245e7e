// Package flight shares one load among concurrent callers of a key without
// tying the load to whichever caller arrived first.
package flight

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultTimeout bounds a shared load when Group.Timeout is zero.
const DefaultTimeout = 30 * time.Second

// Group deduplicates loads per key. The zero value is ready to use.
type Group[T any] struct {
	// Timeout bounds each shared load. Zero means DefaultTimeout.
	Timeout time.Duration

	g singleflight.Group
}

// Do runs fn once among concurrent callers of key. fn gets a context that
// keeps the first caller's values but not its cancellation, bounded by
// Timeout. A caller whose ctx ends stops waiting and gets ctx.Err(); the
// load carries on for the rest.
func (g *Group[T]) Do(ctx context.Context, key string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	timeout := g.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ch := g.g.DoChan(key, func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()
		return fn(loadCtx)
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		v, _ := res.Val.(T)
		return v, nil
	}
}
