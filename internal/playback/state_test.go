package playback

import (
	"errors"
	"testing"

	"github.com/llehouerou/wavesd/internal/player"
)

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateStopped, "Stopped"},
		{StatePlaying, "Playing"},
		{StatePaused, "Paused"},
		{State(99), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestStateOf(t *testing.T) {
	tests := []struct {
		name string
		ev   player.Event
		want State
	}{
		{"empty", player.Event{}, StateStopped},
		{"playing", player.Event{IsPlaying: true, CurrentItemID: "1"}, StatePlaying},
		{"selected not playing", player.Event{CurrentItemID: "1"}, StatePaused},
		{"completed", player.Event{CurrentItemID: "1", Completed: true}, StateStopped},
		{"faulted", player.Event{CurrentItemID: "1", Err: errors.New("x")}, StateStopped},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StateOf(tt.ev); got != tt.want {
				t.Errorf("StateOf() = %v, want %v", got, tt.want)
			}
			if got := StateOf(tt.ev).IsActive(); got != (tt.want != StateStopped) {
				t.Errorf("IsActive() = %v", got)
			}
		})
	}
}
