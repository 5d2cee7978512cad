package player

// State is the engine's coarse transport state.
//
//	Stopped ──prepare──▶ Paused ◀──pause/play──▶ Playing
//	   ▲                   │                        │
//	   └──────stop/end─────┴────────stop/end────────┘
//
// A prepared engine is Paused until play-when-ready is set, and Playing
// while it is set. Stop, queue end and faults return it to Stopped.
type State int

const (
	Stopped State = iota
	Playing
	Paused
)

// String returns the state name for debugging.
func (s State) String() string {
	switch s {
	case Stopped:
		return "Stopped"
	case Playing:
		return "Playing"
	case Paused:
		return "Paused"
	default:
		return "Unknown"
	}
}

// CanPause returns true if the state allows pausing.
func (s State) CanPause() bool {
	return s == Playing
}
