package engine

import (
	"errors"

	"github.com/tamaureus/tamaureus/internal/audio"
)

var (
	// ErrDisconnected is returned when the actor is no longer running.
	ErrDisconnected = errors.New("playback engine disconnected")
	// ErrNoTrack is returned by Seek when nothing is loaded.
	ErrNoTrack = errors.New("no track loaded")

	ErrFileOpen          = audio.ErrFileOpen
	ErrDecode            = audio.ErrDecode
	ErrUnsupportedFormat = audio.ErrUnsupportedFormat
	ErrSeekUnsupported   = audio.ErrSeekUnsupported
)
