package player

import (
	"sync"
	"time"
)

// Mock is a test double for the engine. It records commands, emits the
// same events a real engine would for them, and lets tests inject
// arbitrary events with Emit.
type Mock struct {
	mu sync.Mutex

	entries       []Entry
	index         int
	prepared      bool
	playWhenReady bool
	position      time.Duration
	duration      time.Duration
	released      bool

	calls     []string
	seekCalls []time.Duration

	// PrepareErr, when set, makes Prepare fail with an EngineFault.
	PrepareErr error

	events *emitter
}

// NewMock creates a new mock engine.
func NewMock() *Mock {
	return &Mock{events: newEmitter()}
}

func (m *Mock) record(call string) {
	m.calls = append(m.calls, call)
}

func (m *Mock) SetQueue(entries []Entry, start int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("SetQueue")
	if len(entries) == 0 || start < 0 || start >= len(entries) {
		return ErrEmptyQueue
	}
	m.entries = append([]Entry(nil), entries...)
	m.index = start
	m.prepared = false
	m.position = 0
	m.emitLocked(nil)
	return nil
}

func (m *Mock) Prepare() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Prepare")
	if m.PrepareErr != nil {
		fault := &EngineFault{Op: "open", Err: m.PrepareErr}
		if len(m.entries) > 0 {
			fault.Locator = m.entries[m.index].Locator
		}
		m.playWhenReady = false
		m.emitLocked(fault)
		return fault
	}
	m.prepared = len(m.entries) > 0
	return nil
}

func (m *Mock) Play() {
	m.mu.Lock()
	m.record("Play")
	m.mu.Unlock()
	m.setPlayWhenReady(true)
}

func (m *Mock) Pause() {
	m.mu.Lock()
	m.record("Pause")
	m.mu.Unlock()
	m.setPlayWhenReady(false)
}

func (m *Mock) SetPlayWhenReady(playWhenReady bool) {
	m.mu.Lock()
	m.record("SetPlayWhenReady")
	m.mu.Unlock()
	m.setPlayWhenReady(playWhenReady)
}

func (m *Mock) setPlayWhenReady(playWhenReady bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.playWhenReady == playWhenReady {
		return
	}
	m.playWhenReady = playWhenReady
	m.emitLocked(nil)
}

func (m *Mock) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Stop")
	m.prepared = false
	m.playWhenReady = false
	m.emitLocked(nil)
}

func (m *Mock) SeekTo(pos time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("SeekTo")
	m.seekCalls = append(m.seekCalls, pos)
	m.position = pos
}

func (m *Mock) Position() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.position
}

func (m *Mock) Duration() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.duration > 0 {
		return m.duration
	}
	if len(m.entries) > 0 {
		return m.entries[m.index].Duration
	}
	return 0
}

func (m *Mock) Current() *Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.entries) == 0 {
		return nil
	}
	e := m.entries[m.index]
	return &e
}

func (m *Mock) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch {
	case !m.prepared:
		return Stopped
	case m.playWhenReady:
		return Playing
	default:
		return Paused
	}
}

func (m *Mock) Events() <-chan Event {
	return m.events.out
}

func (m *Mock) Release() {
	m.mu.Lock()
	m.record("Release")
	m.released = true
	m.mu.Unlock()
	m.events.close()
}

// Emit injects an event as if the engine produced it.
func (m *Mock) Emit(ev Event) {
	m.events.emit(ev)
}

// SetDuration overrides the reported duration.
func (m *Mock) SetDuration(d time.Duration) {
	m.mu.Lock()
	m.duration = d
	m.mu.Unlock()
}

// Calls returns the recorded command names in order.
func (m *Mock) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// SeekCalls returns the positions passed to SeekTo.
func (m *Mock) SeekCalls() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]time.Duration(nil), m.seekCalls...)
}

// Queue returns the last accepted queue and start index.
func (m *Mock) Queue() ([]Entry, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Entry(nil), m.entries...), m.index
}

// PlayWhenReady returns the current play-when-ready flag.
func (m *Mock) PlayWhenReady() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playWhenReady
}

// Released reports whether Release was called.
func (m *Mock) Released() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.released
}

func (m *Mock) emitLocked(err error) {
	ev := Event{
		IsPlaying: m.prepared && m.playWhenReady,
		Position:  m.position,
		Err:       err,
	}
	if len(m.entries) > 0 {
		ev.CurrentItemID = m.entries[m.index].ItemID
	}
	m.events.emit(ev)
}
