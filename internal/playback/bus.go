package playback

import (
	"errors"
	"sync"

	"github.com/llehouerou/wavesd/internal/player"
)

// Handler consumes transitions synchronously, in publish order.
type Handler interface {
	HandleTransition(t Transition)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(t Transition)

func (f HandlerFunc) HandleTransition(t Transition) { f(t) }

// Bus turns the engine's event stream into transitions. Handlers run in
// registration order on the publishing goroutine, so they all agree on
// the current item; subscriptions receive copies without back-pressure.
type Bus struct {
	mu       sync.Mutex
	last     player.Event
	handlers []Handler
	closed   bool

	subs   []*Subscription
	subsMu sync.RWMutex
}

// NewBus creates a bus delivering to handlers in the given order.
func NewBus(handlers ...Handler) *Bus {
	return &Bus{handlers: handlers}
}

// Publish records ev as the current snapshot and delivers the resulting
// transition. Events published after Close are ignored.
func (b *Bus) Publish(ev player.Event) Transition {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return Transition{Previous: b.last, Current: b.last}
	}
	t := Transition{Previous: b.last, Current: ev}
	b.last = ev
	handlers := b.handlers
	b.mu.Unlock()

	for _, h := range handlers {
		h.HandleTransition(t)
	}

	b.subsMu.RLock()
	for _, sub := range b.subs {
		sub.sendTransition(t)
		if ev.Err != nil {
			sub.sendError(ErrorEvent{
				Operation: operationOf(ev.Err),
				ItemID:    ev.CurrentItemID,
				Err:       ev.Err,
			})
		}
	}
	b.subsMu.RUnlock()

	return t
}

// Subscribe creates a new event subscription.
func (b *Bus) Subscribe() *Subscription {
	b.subsMu.Lock()
	defer b.subsMu.Unlock()
	sub := newSubscription()
	if b.isClosed() {
		sub.close()
		return sub
	}
	b.subs = append(b.subs, sub)
	return sub
}

func (b *Bus) isClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// Close detaches every handler and closes all subscriptions.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.handlers = nil
	b.mu.Unlock()

	b.subsMu.Lock()
	for _, sub := range b.subs {
		sub.close()
	}
	b.subs = nil
	b.subsMu.Unlock()
}

func operationOf(err error) string {
	var fault *player.EngineFault
	if errors.As(err, &fault) {
		return fault.Op
	}
	return "playback"
}
