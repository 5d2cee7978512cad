package catalog

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
)

// Mock is an in-memory Store for tests.
type Mock struct {
	mu         sync.Mutex
	items      map[int64]Item
	increments []int64
	hub        *hub
	closed     bool

	// Injected failures.
	ScanErr      error
	GetErr       error
	IncrementErr error
	InsertErr    error

	// GetGate, when set, blocks GetByID until it is closed or ctx is done.
	GetGate chan struct{}
}

// NewMock creates a mock store seeded with items.
func NewMock(items ...Item) *Mock {
	m := &Mock{
		items: make(map[int64]Item),
		hub:   newHub(),
	}
	for _, it := range items {
		m.items[it.ID] = normalize(it)
	}
	return m
}

func (m *Mock) ScanAll(_ context.Context) ([]Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ScanErr != nil {
		return nil, m.ScanErr
	}

	items := make([]Item, 0, len(m.items))
	for _, it := range m.items {
		items = append(items, it)
	}
	slices.SortFunc(items, func(a, b Item) int {
		if c := strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title)); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return items, nil
}

func (m *Mock) Watch(ctx context.Context) <-chan []Item {
	return m.hub.watch(ctx, m.ScanAll)
}

func (m *Mock) GetByID(ctx context.Context, id int64) (*Item, error) {
	if m.GetGate != nil {
		select {
		case <-m.GetGate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	it, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &it, nil
}

func (m *Mock) InsertOrReplaceAll(_ context.Context, items []Item) error {
	m.mu.Lock()
	if m.InsertErr != nil {
		m.mu.Unlock()
		return writeErr("insert", m.InsertErr)
	}
	for _, it := range items {
		it = normalize(it)
		if prev, ok := m.items[it.ID]; ok {
			it.PlayCount = prev.PlayCount
			it.Favorite = prev.Favorite
		}
		m.items[it.ID] = it
	}
	m.mu.Unlock()

	m.hub.notify()
	return nil
}

func (m *Mock) IncrementPlayCount(_ context.Context, id int64) error {
	m.mu.Lock()
	if m.IncrementErr != nil {
		m.mu.Unlock()
		return writeErr("increment play count", m.IncrementErr)
	}
	it, ok := m.items[id]
	if !ok {
		m.mu.Unlock()
		return writeErr("increment play count", ErrNotFound)
	}
	it.PlayCount++
	m.items[id] = it
	m.increments = append(m.increments, id)
	m.mu.Unlock()

	m.hub.notify()
	return nil
}

func (m *Mock) SetFavorite(_ context.Context, id int64, favorite bool) error {
	m.mu.Lock()
	it, ok := m.items[id]
	if !ok {
		m.mu.Unlock()
		return writeErr("set favorite", ErrNotFound)
	}
	it.Favorite = favorite
	m.items[id] = it
	m.mu.Unlock()

	m.hub.notify()
	return nil
}

func (m *Mock) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	m.hub.close()
	return nil
}

// Increments returns the IDs passed to successful IncrementPlayCount calls.
func (m *Mock) Increments() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.increments)
}

// Closed reports whether Close was called.
func (m *Mock) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
