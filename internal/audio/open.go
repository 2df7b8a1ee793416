package audio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/wav"
)

// Supported file extensions.
const (
	ExtMP3  = ".mp3"
	ExtFLAC = ".flac"
	ExtWAV  = ".wav"
	ExtOGG  = ".ogg"
	ExtOGA  = ".oga"
	ExtOPUS = ".opus"
	ExtM4A  = ".m4a"
	ExtMP4  = ".mp4"
)

type decodeFunc func(f *os.File) (beep.StreamSeekCloser, beep.Format, error)

var decoders = map[string]decodeFunc{
	ExtMP3:  func(f *os.File) (beep.StreamSeekCloser, beep.Format, error) { return decodeMP3(f) },
	ExtFLAC: decodeFLAC,
	ExtWAV:  func(f *os.File) (beep.StreamSeekCloser, beep.Format, error) { return wav.Decode(f) },
	ExtOGG:  func(f *os.File) (beep.StreamSeekCloser, beep.Format, error) { return decodeOgg(f) },
	ExtOGA:  func(f *os.File) (beep.StreamSeekCloser, beep.Format, error) { return decodeOgg(f) },
	ExtOPUS: func(f *os.File) (beep.StreamSeekCloser, beep.Format, error) { return decodeOgg(f) },
	ExtM4A:  func(f *os.File) (beep.StreamSeekCloser, beep.Format, error) { return decodeM4A(f) },
	ExtMP4:  func(f *os.File) (beep.StreamSeekCloser, beep.Format, error) { return decodeM4A(f) },
}

// IsAudioFile reports whether path has an extension Open can decode.
func IsAudioFile(path string) bool {
	_, ok := decoders[strings.ToLower(filepath.Ext(path))]
	return ok
}

// OpenOptions controls how a file is turned into a Source.
type OpenOptions struct {
	// Preload decodes the whole file into memory before playback.
	Preload bool
}

// Open opens and decodes the audio file at path. Errors wrap ErrFileOpen when
// the file cannot be opened and ErrDecode when its contents cannot be decoded.
func Open(path string, opts OpenOptions) (Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFileOpen, err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	decode, ok := decoders[ext]
	if !ok {
		f.Close()
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	streamer, format, err := decode(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %s: %w", ErrDecode, filepath.Base(path), err)
	}

	if opts.Preload {
		return preload(streamer, format)
	}
	return newSource(streamer, format), nil
}

func decodeFLAC(f *os.File) (beep.StreamSeekCloser, beep.Format, error) {
	if err := skipID3v2(f); err != nil {
		return nil, beep.Format{}, err
	}
	return flac.Decode(f)
}

// skipID3v2 positions r past a leading ID3v2 tag, or back at the start when
// there is none. Some taggers prepend ID3v2 to FLAC files.
func skipID3v2(r io.ReadSeeker) error {
	var h [10]byte
	n, err := io.ReadFull(r, h[:])
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return err
	}
	if n < len(h) || string(h[:3]) != "ID3" {
		_, err = r.Seek(0, io.SeekStart)
		return err
	}
	// Syncsafe size: 7 bits per byte.
	size := int64(h[6]&0x7f)<<21 | int64(h[7]&0x7f)<<14 | int64(h[8]&0x7f)<<7 | int64(h[9]&0x7f)
	_, err = r.Seek(int64(len(h))+size, io.SeekStart)
	return err
}

type source struct {
	beep.StreamSeekCloser
	format beep.Format
}

func newSource(s beep.StreamSeekCloser, format beep.Format) *source {
	return &source{StreamSeekCloser: s, format: format}
}

func (s *source) Format() beep.Format { return s.format }

func (s *source) Duration() time.Duration {
	if n := s.Len(); n > 0 {
		return s.format.SampleRate.D(n)
	}
	return UnknownDuration
}

// Seekable is false for streams that cannot report their length, since
// a seek target cannot be clamped against them.
func (s *source) Seekable() bool { return s.Len() > 0 }

type buffered struct {
	beep.StreamSeeker
}

func (buffered) Close() error { return nil }

func preload(s beep.StreamSeekCloser, format beep.Format) (Source, error) {
	defer s.Close()
	buf := beep.NewBuffer(format)
	buf.Append(s)
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return newSource(buffered{buf.Streamer(0, buf.Len())}, format), nil
}
