package catalog

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no row matches an item ID.
	ErrNotFound = errors.New("item not found")
	// ErrClosed is returned by a store after Close.
	ErrClosed = errors.New("catalog closed")
	// ErrResolveTimeout is returned when a bounded lookup runs out of time.
	ErrResolveTimeout = errors.New("lookup timed out")
	// ErrInvalidMediaID is returned for engine IDs that are not catalog IDs.
	ErrInvalidMediaID = errors.New("invalid media id")
)

// ItemResolutionError reports that an engine item could not be matched to a
// catalog row. Callers recover locally with placeholder content.
type ItemResolutionError struct {
	MediaID string
	Err     error
}

func (e *ItemResolutionError) Error() string {
	return fmt.Sprintf("resolve item %q: %v", e.MediaID, e.Err)
}

func (e *ItemResolutionError) Unwrap() error { return e.Err }

// PersistenceWriteError reports a failed catalog write.
type PersistenceWriteError struct {
	Op  string
	Err error
}

func (e *PersistenceWriteError) Error() string {
	return fmt.Sprintf("catalog %s: %v", e.Op, e.Err)
}

func (e *PersistenceWriteError) Unwrap() error { return e.Err }

func writeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceWriteError{Op: op, Err: err}
}
