package audio

import (
	"errors"
	"fmt"
)

var (
	// ErrFileOpen is returned when a track file cannot be opened.
	ErrFileOpen = errors.New("open audio file")
	// ErrDecode is returned when a track file cannot be decoded.
	ErrDecode = errors.New("decode audio")
	// ErrUnsupportedFormat is returned for files no decoder handles.
	ErrUnsupportedFormat = fmt.Errorf("%w: unsupported format", ErrDecode)
	// ErrSeekUnsupported is returned when the current source cannot seek.
	ErrSeekUnsupported = errors.New("seeking not supported for this track")
)
