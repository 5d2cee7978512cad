package playback

import "github.com/llehouerou/wavesd/internal/player"

// Transition pairs an engine snapshot with the one before it.
//
// Emitted for every engine event, in engine order. Consumers derive what
// changed from the pair instead of tracking engine state themselves:
//   - Started: the engine began playing (false -> true)
//   - ItemChanged: the selected item differs
//   - Faulted: the engine reported an unrecoverable error
type Transition struct {
	Previous player.Event
	Current  player.Event
}

// Started reports an is-playing false -> true edge.
func (t Transition) Started() bool {
	return !t.Previous.IsPlaying && t.Current.IsPlaying
}

// ItemChanged reports a change of the selected item.
func (t Transition) ItemChanged() bool {
	return t.Previous.CurrentItemID != t.Current.CurrentItemID
}

// Faulted reports whether the current snapshot carries an engine fault.
func (t Transition) Faulted() bool {
	return t.Current.Err != nil
}

// StateChanged reports a change of the derived transport state.
func (t Transition) StateChanged() bool {
	return StateOf(t.Previous) != StateOf(t.Current)
}

// ErrorEvent is emitted to subscribers when the engine faults.
type ErrorEvent struct {
	Operation string // e.g. "start playback", "seek"
	ItemID    string
	Err       error
}
