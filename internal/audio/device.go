// Package audio provides the output device the playback engine drives and the
// decoders that turn files on disk into playable sources.
package audio

import (
	"math"
	"time"

	"github.com/gopxl/beep/v2"
)

// UnknownDuration is reported by sources that cannot tell their length.
const UnknownDuration time.Duration = -1

// Source is a decoded track ready to be handed to a Device.
type Source interface {
	beep.StreamSeekCloser

	// Format is the format of the decoded samples.
	Format() beep.Format
	// Duration returns the track length, or UnknownDuration.
	Duration() time.Duration
	// Seekable reports whether Seek can be used on this source.
	Seekable() bool
}

// Device is an audio output that plays at most one Source at a time.
//
// A Device is driven by exactly one goroutine and need not be safe for
// concurrent use. The volume level is a property of the device: it applies to
// the current source and to every source started afterwards.
type Device interface {
	// Start stops and closes the current source, if any, and starts playing
	// src from its beginning, unpaused.
	Start(src Source)
	// Clear stops and closes the current source.
	Clear()
	// SetPaused pauses or resumes the current source.
	SetPaused(paused bool)
	// SetVolume sets the output level, clamped to [0, 1].
	SetVolume(level float64)
	// Position returns the playback offset in the current source.
	Position() time.Duration
	// Seek moves the current source to pos, clamped to the source length.
	// It returns ErrSeekUnsupported when the source cannot seek.
	Seek(pos time.Duration) error
	// Drained reports whether the current source played to its end.
	Drained() bool
}

// ClampLevel restricts a volume level to [0, 1]. NaN is treated as silence.
func ClampLevel(level float64) float64 {
	if math.IsNaN(level) {
		return 0
	}
	return min(max(level, 0), 1)
}
