package catalog

import (
	"context"
	"errors"
	"time"
)

// Store is the catalog contract consumed by the session components.
type Store interface {
	// ScanAll returns every item ordered by title.
	ScanAll(ctx context.Context) ([]Item, error)
	// Watch emits the current scan, then a fresh scan after every write,
	// until ctx is done. The channel is closed when watching stops.
	Watch(ctx context.Context) <-chan []Item
	// InsertOrReplaceAll upserts items by ID in one transaction. Existing
	// rows keep their play count and favorite flag.
	InsertOrReplaceAll(ctx context.Context, items []Item) error
	// IncrementPlayCount atomically adds one to an item's play count.
	IncrementPlayCount(ctx context.Context, id int64) error
	// SetFavorite updates the favorite flag.
	SetFavorite(ctx context.Context, id int64, favorite bool) error
	// GetByID returns ErrNotFound when no row matches.
	GetByID(ctx context.Context, id int64) (*Item, error)
	Close() error
}

// Lookup resolves an engine media ID with a bounded wait. The query runs on
// its own goroutine so the caller never blocks past timeout, even when the
// store does not honour context cancellation. Every failure is returned as an
// *ItemResolutionError.
func Lookup(ctx context.Context, s Store, mediaID string, timeout time.Duration) (*Item, error) {
	id, ok := ParseID(mediaID)
	if !ok {
		return nil, &ItemResolutionError{MediaID: mediaID, Err: ErrInvalidMediaID}
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		item *Item
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		item, err := s.GetByID(ctx, id)
		ch <- result{item: item, err: err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			if errors.Is(r.err, context.DeadlineExceeded) {
				r.err = ErrResolveTimeout
			}
			return nil, &ItemResolutionError{MediaID: mediaID, Err: r.err}
		}
		return r.item, nil
	case <-ctx.Done():
		err := ctx.Err()
		if errors.Is(err, context.DeadlineExceeded) {
			err = ErrResolveTimeout
		}
		return nil, &ItemResolutionError{MediaID: mediaID, Err: err}
	}
}
