package dispatch

import (
	"context"
	"sync"

	"github.com/edgerunner/cypress-mongodb/internal/pkg/models"
)

// Future is the deferred value returned for every dispatched request. It
// settles exactly once, with the handler result or the handler error.
type Future struct {
	done  chan struct{}
	once  sync.Once
	value any
	err   error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// Resolved returns a future already settled with v.
func Resolved(v any) *Future {
	f := newFuture()
	f.resolve(v)
	return f
}

// Rejected returns a future already settled with err.
func Rejected(err error) *Future {
	f := newFuture()
	f.reject(err)
	return f
}

func (f *Future) settle(v any, err error) {
	f.once.Do(func() {
		f.value = v
		f.err = err
		close(f.done)
	})
}

func (f *Future) resolve(v any) {
	f.settle(v, nil)
}

func (f *Future) reject(err error) {
	f.settle(nil, err)
}

// Done is closed once the future has settled.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Await blocks until the future settles or ctx ends. Giving up on a future
// does not cancel the request behind it.
func (f *Future) Await(ctx context.Context) (any, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Then chains fn onto the resolved value. A rejection skips fn and is
// carried through unchanged.
func (f *Future) Then(fn func(any) (any, error)) *Future {
	next := newFuture()
	go func() {
		<-f.done
		if f.err != nil {
			next.reject(f.err)
			return
		}
		next.settle(fn(f.value))
	}()
	return next
}

// Decode waits for the result and re-encodes it through BSON into out.
func (f *Future) Decode(ctx context.Context, out any) error {
	v, err := f.Await(ctx)
	if err != nil {
		return err
	}
	return models.DecodeValue(v, out)
}
