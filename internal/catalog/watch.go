package catalog

import (
	"context"
	"sync"
)

type scanFunc func(ctx context.Context) ([]Item, error)

// hub fans write notifications out to Watch subscribers. Each subscriber
// rescans on its own goroutine and keeps only the latest snapshot buffered.
type hub struct {
	mu     sync.Mutex
	subs   map[chan struct{}]struct{}
	done   chan struct{}
	closed bool
}

func newHub() *hub {
	return &hub{
		subs: make(map[chan struct{}]struct{}),
		done: make(chan struct{}),
	}
}

func (h *hub) watch(ctx context.Context, scan scanFunc) <-chan []Item {
	out := make(chan []Item, 1)

	sig := make(chan struct{}, 1)
	sig <- struct{}{}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(out)
		return out
	}
	h.subs[sig] = struct{}{}
	h.mu.Unlock()

	go func() {
		defer close(out)
		defer h.remove(sig)

		for {
			select {
			case <-ctx.Done():
				return
			case <-h.done:
				return
			case <-sig:
			}

			items, err := scan(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				continue
			}

			// Latest snapshot wins over one the consumer has not read yet.
			select {
			case <-out:
			default:
			}
			out <- items
		}
	}()

	return out
}

func (h *hub) remove(sig chan struct{}) {
	h.mu.Lock()
	delete(h.subs, sig)
	h.mu.Unlock()
}

// notify wakes every subscriber without blocking.
func (h *hub) notify() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sig := range h.subs {
		select {
		case sig <- struct{}{}:
		default:
		}
	}
}

func (h *hub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	close(h.done)
}
