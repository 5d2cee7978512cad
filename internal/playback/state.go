// Package playback fans engine events out to the session components as
// ordered transitions.
package playback

import "github.com/llehouerou/wavesd/internal/player"

// State is the transport state observed from engine events.
type State int

const (
	StateStopped State = iota
	StatePlaying
	StatePaused
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "Stopped"
	case StatePlaying:
		return "Playing"
	case StatePaused:
		return "Paused"
	default:
		return "Unknown"
	}
}

// IsActive returns true if playback is active (playing or paused).
func (s State) IsActive() bool {
	return s == StatePlaying || s == StatePaused
}

// StateOf derives the transport state from an engine snapshot. An item that
// is selected but not playing counts as paused until the queue completes or
// the engine faults.
func StateOf(ev player.Event) State {
	switch {
	case ev.IsPlaying:
		return StatePlaying
	case ev.CurrentItemID != "" && !ev.Completed && ev.Err == nil:
		return StatePaused
	default:
		return StateStopped
	}
}
