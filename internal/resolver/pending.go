package resolver

import (
	"context"
	"fmt"
)

// Pending is a suspended computation returned by a resolver in place of its
// value.
type Pending interface {
	Await(ctx context.Context) (any, error)
}

// Future is a computation already running on its own goroutine.
type Future struct {
	done chan struct{}
	val  any
	err  error
}

// Go starts fn in a new goroutine. A panic in fn is reported as its error.
func Go(ctx context.Context, fn func(ctx context.Context) (any, error)) *Future {
	f := &Future{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		defer func() {
			if p := recover(); p != nil {
				f.val, f.err = nil, fmt.Errorf("resolver panic: %v", p)
			}
		}()
		f.val, f.err = fn(ctx)
	}()
	return f
}

// Await blocks until the computation finishes or ctx is done.
func (f *Future) Await(ctx context.Context) (any, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Thunk is a computation deferred until awaited. It runs on the awaiting
// goroutine.
type Thunk func(ctx context.Context) (any, error)

func (t Thunk) Await(ctx context.Context) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return t(ctx)
}

// Join awaits v until it is no longer Pending.
func Join(ctx context.Context, v any) (any, error) {
	for {
		p, ok := v.(Pending)
		if !ok || p == nil {
			return v, nil
		}
		var err error
		if v, err = p.Await(ctx); err != nil {
			return nil, err
		}
	}
}
