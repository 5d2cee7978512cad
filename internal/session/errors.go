package session

import (
	"errors"
	"fmt"
)

var (
	// ErrNotInitialized is returned by operations that need Initialize first.
	ErrNotInitialized = errors.New("session not initialized")
	// ErrNoStore is returned by Initialize when no catalog store was injected.
	ErrNoStore = errors.New("no catalog store")
	// ErrTornDown is returned by Initialize after Teardown.
	ErrTornDown = errors.New("session torn down")
)

// InvalidQueueError reports an empty queue or a start index outside it.
type InvalidQueueError struct {
	Len        int
	StartIndex int
}

func (e *InvalidQueueError) Error() string {
	if e.Len == 0 {
		return "invalid queue: empty"
	}
	return fmt.Sprintf("invalid queue: start index %d out of range [0,%d)", e.StartIndex, e.Len)
}
