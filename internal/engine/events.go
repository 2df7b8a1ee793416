package engine

import "time"

// Track describes the track loaded by a successful Play.
type Track struct {
	Path string
	// Duration is audio.UnknownDuration when the length cannot be determined.
	Duration time.Duration
	// TrackSerial increases with every successful Play.
	TrackSerial uint64
}

// Position is a playback offset tagged with the generation and track it was
// sampled in. Consumers compare tags to drop offsets taken before a seek.
type Position struct {
	Offset      time.Duration
	Generation  uint64
	TrackSerial uint64
}

// SeekResult is the reply to a Seek. Generation and TrackSerial identify the
// first positions that reflect the seek.
type SeekResult struct {
	Position    time.Duration
	Generation  uint64
	TrackSerial uint64
	Err         error
}

// StateChange is emitted when the playback state changes and after every
// successful Play, so replacing a playing track yields Playing -> Playing
// with a new TrackSerial.
type StateChange struct {
	Previous State
	Current  State
	// TrackSerial is the serial of the latest loaded track.
	TrackSerial uint64
}

// Operations reported in ErrorEvent.
const (
	OpPlay = "play"
	OpSeek = "seek"
)

// ErrorEvent is emitted when a command fails inside the actor.
type ErrorEvent struct {
	Operation string
	Path      string
	Err       error
}
