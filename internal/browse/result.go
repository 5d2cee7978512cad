package browse

import (
	"context"
	"sync"
)

// Result is a child list that resolves exactly once. Callers may wait on it,
// poll Done, or drop it.
type Result struct {
	once  sync.Once
	done  chan struct{}
	items []Descriptor
	err   error
}

func newResult() *Result {
	return &Result{done: make(chan struct{})}
}

// resolve stores the outcome; later calls are ignored.
func (r *Result) resolve(items []Descriptor, err error) bool {
	resolved := false
	r.once.Do(func() {
		r.items = items
		r.err = err
		close(r.done)
		resolved = true
	})
	return resolved
}

// Done is closed once the result is resolved.
func (r *Result) Done() <-chan struct{} {
	return r.done
}

// Wait blocks until the result resolves or ctx is done.
func (r *Result) Wait(ctx context.Context) ([]Descriptor, error) {
	select {
	case <-r.done:
		return r.items, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
