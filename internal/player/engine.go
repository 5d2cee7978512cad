// Package player is the playback engine: an ordered queue rendered to the
// audio device with a serialized state-change event stream.
package player

import (
	"fmt"
	"time"
)

// Interface is the engine contract the session components drive.
// Commands are fire-and-forget; their effect is observed on Events.
type Interface interface {
	// SetQueue replaces the whole queue and selects entries[start].
	SetQueue(entries []Entry, start int) error
	// Prepare opens the selected entry. Failures are also emitted as an
	// Event carrying an *EngineFault.
	Prepare() error
	Play()
	Pause()
	SetPlayWhenReady(playWhenReady bool)
	Stop()
	SeekTo(pos time.Duration)
	Position() time.Duration
	Duration() time.Duration
	Current() *Entry
	State() State
	// Events delivers state changes in the order they happened. The
	// channel is closed by Release.
	Events() <-chan Event
	Release()
}

// Entry is one queue element.
type Entry struct {
	Locator  string
	ItemID   string
	Title    string
	Artist   string
	Duration time.Duration
}

// Event is a snapshot of engine state after a change.
type Event struct {
	IsPlaying     bool
	CurrentItemID string
	Completed     bool
	Position      time.Duration
	Err           error
}

// Faulted reports whether the event carries an engine fault.
func (e Event) Faulted() bool {
	return e.Err != nil
}

// EngineFault is an unrecoverable engine error for one operation.
type EngineFault struct {
	Op      string
	Locator string
	Err     error
}

func (e *EngineFault) Error() string {
	if e.Locator == "" {
		return fmt.Sprintf("engine %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("engine %s %q: %v", e.Op, e.Locator, e.Err)
}

func (e *EngineFault) Unwrap() error { return e.Err }

// Verify implementations satisfy Interface at compile time.
var (
	_ Interface = (*Player)(nil)
	_ Interface = (*Mock)(nil)
)
