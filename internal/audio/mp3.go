package audio

import (
	"encoding/binary"
	"errors"
	"io"

	"github.com/gopxl/beep/v2"
	"github.com/llehouerou/go-mp3"
)

// go-mp3 always produces interleaved 16-bit stereo.
const mp3FrameBytes = 4

var errMP3SampleRate = errors.New("mp3: invalid sample rate")

type mp3Stream struct {
	dec *mp3.Decoder
	rc  io.Closer
	buf []byte
	err error
}

func decodeMP3(rc io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error) {
	dec, err := mp3.NewDecoder(rc)
	if err != nil {
		return nil, beep.Format{}, err
	}
	if dec.SampleRate() <= 0 {
		return nil, beep.Format{}, errMP3SampleRate
	}
	format := beep.Format{
		SampleRate:  beep.SampleRate(dec.SampleRate()),
		NumChannels: 2,
		Precision:   2,
	}
	return &mp3Stream{dec: dec, rc: rc, buf: make([]byte, 8192)}, format, nil
}

func (s *mp3Stream) Stream(samples [][2]float64) (int, bool) {
	if s.err != nil {
		return 0, false
	}
	want := len(samples) * mp3FrameBytes
	if cap(s.buf) < want {
		s.buf = make([]byte, want)
	}
	buf := s.buf[:want]

	read, err := io.ReadFull(s.dec, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		s.err = err
		return 0, false
	}

	frames := read / mp3FrameBytes
	for i := range frames {
		b := buf[i*mp3FrameBytes:]
		samples[i][0] = pcm16(binary.LittleEndian.Uint16(b))
		samples[i][1] = pcm16(binary.LittleEndian.Uint16(b[2:]))
	}
	return frames, frames > 0
}

func (s *mp3Stream) Err() error { return s.err }

func (s *mp3Stream) Len() int {
	return int(max(s.dec.SampleCount(), 0))
}

func (s *mp3Stream) Position() int {
	return int(s.dec.SamplePosition())
}

func (s *mp3Stream) Seek(p int) error {
	p = min(max(p, 0), s.Len())
	if err := s.dec.SeekToSample(int64(p)); err != nil {
		return err
	}
	s.err = nil
	return nil
}

func (s *mp3Stream) Close() error { return s.rc.Close() }

// pcm16 converts a little-endian signed 16-bit sample to [-1, 1).
func pcm16(v uint16) float64 {
	return float64(int16(v)) / 32768 //nolint:gosec // reinterpreting sample bits
}
