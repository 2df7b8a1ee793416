package engine

// State is the playback state of the engine.
//
//	        play              pause
//	Empty ───────▶ Playing ◀───────▶ Paused
//	  ▲              │      resume      │
//	  └──── stop ────┴───── stop ───────┘
//
// A track that plays to its end also returns the engine to Empty. Play is
// accepted in every state and always lands in Playing.
type State int

const (
	Empty State = iota
	Playing
	Paused
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Empty:
		return "Empty"
	case Playing:
		return "Playing"
	case Paused:
		return "Paused"
	default:
		return "Unknown"
	}
}

// IsActive returns true if a track is loaded (Playing or Paused).
func (s State) IsActive() bool {
	return s == Playing || s == Paused
}

// CanPause returns true if the state allows pausing.
func (s State) CanPause() bool {
	return s == Playing
}

// CanResume returns true if the state allows resuming.
func (s State) CanResume() bool {
	return s == Paused
}

// PlaybackState is a snapshot of the engine taken by the actor.
type PlaybackState struct {
	Status State
	Paused bool
	Empty  bool
	Volume float64
	// Track is the loaded track, zero when Empty.
	Track Track
}
