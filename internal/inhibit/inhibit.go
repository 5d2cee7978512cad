// Package inhibit keeps the machine awake while playback is in the
// foreground.
package inhibit

import "sync"

// Inhibitor holds a sleep inhibitor lock while acquired.
type Inhibitor interface {
	// Acquire takes the lock. Acquiring a held lock is a no-op.
	Acquire(why string) error
	// Release drops the lock. Releasing a free lock is a no-op.
	Release() error
	Held() bool
}

// Noop tracks the held flag without taking any system lock.
type Noop struct {
	mu   sync.Mutex
	held bool
}

func (n *Noop) Acquire(_ string) error {
	n.mu.Lock()
	n.held = true
	n.mu.Unlock()
	return nil
}

func (n *Noop) Release() error {
	n.mu.Lock()
	n.held = false
	n.mu.Unlock()
	return nil
}

func (n *Noop) Held() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.held
}
