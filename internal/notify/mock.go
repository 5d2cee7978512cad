package notify

import "sync"

// Mock is an in-memory Notifier for tests.
type Mock struct {
	mu        sync.Mutex
	channels  []Channel
	sent      []Notification
	closed    []uint32
	nextID    uint32
	dismissed chan uint32
	shutdown  bool

	// NotifyErr is returned by Notify when set.
	NotifyErr error
}

// NewMock creates a mock that allocates ids starting at NotificationID.
func NewMock() *Mock {
	return &Mock{
		nextID:    NotificationID,
		dismissed: make(chan uint32, 4),
	}
}

func (m *Mock) RegisterChannel(ch Channel) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.channels {
		if c.ID == ch.ID {
			return nil
		}
	}
	m.channels = append(m.channels, ch)
	return nil
}

// Notify records n. Replacements keep their id.
func (m *Mock) Notify(n Notification) (uint32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.NotifyErr != nil {
		return 0, m.NotifyErr
	}
	m.sent = append(m.sent, n)
	if n.ReplacesID != 0 {
		return n.ReplacesID, nil
	}
	id := m.nextID
	m.nextID++
	return id, nil
}

func (m *Mock) Close(id uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = append(m.closed, id)
	return nil
}

func (m *Mock) Dismissed() <-chan uint32 {
	return m.dismissed
}

func (m *Mock) Shutdown() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shutdown = true
	return nil
}

// Dismiss simulates the user dismissing notification id.
func (m *Mock) Dismiss(id uint32) {
	m.dismissed <- id
}

// Channels returns the registered channels.
func (m *Mock) Channels() []Channel {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Channel(nil), m.channels...)
}

// Sent returns every posted notification in order.
func (m *Mock) Sent() []Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Notification(nil), m.sent...)
}

// Last returns the most recent notification.
func (m *Mock) Last() (Notification, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return Notification{}, false
	}
	return m.sent[len(m.sent)-1], true
}

// Closed returns the ids passed to Close.
func (m *Mock) Closed() []uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]uint32(nil), m.closed...)
}

// IsShutdown reports whether Shutdown was called.
func (m *Mock) IsShutdown() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.shutdown
}

var _ Notifier = (*Mock)(nil)
