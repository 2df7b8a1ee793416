package audio

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/llehouerou/alac"
	"github.com/llehouerou/go-faad2"
	"github.com/llehouerou/go-m4a"
)

var errM4ACodec = errors.New("m4a: unsupported codec")

// m4aCodec decodes one container sample into stereo frames.
type m4aCodec interface {
	decode(sample []byte) ([][2]float64, error)
	close()
}

type m4aStream struct {
	box      *m4a.Reader
	codec    m4aCodec
	rc       io.Closer
	rate     int
	next     int
	total    int
	frames   [][2]float64
	frameIdx int
	err      error
}

func decodeM4A(rc io.ReadSeekCloser) (beep.StreamSeekCloser, beep.Format, error) {
	box, err := m4a.Open(rc)
	if err != nil {
		return nil, beep.Format{}, err
	}

	rate := int(box.SampleRate())
	format := beep.Format{
		SampleRate:  beep.SampleRate(rate),
		NumChannels: 2,
		Precision:   2,
	}

	var codec m4aCodec
	switch box.Codec() {
	case m4a.CodecAAC:
		codec, err = newAACCodec(box.CodecConfig(), int(box.Channels()))
	case m4a.CodecALAC:
		if box.SampleSize() == 24 {
			format.Precision = 3
		}
		codec, err = newALACCodec(rate, int(box.SampleSize()), int(box.Channels()))
	default:
		err = errM4ACodec
	}
	if err != nil {
		return nil, beep.Format{}, err
	}

	return &m4aStream{
		box:   box,
		codec: codec,
		rc:    rc,
		rate:  rate,
		total: int(box.Duration().Seconds() * float64(rate)),
	}, format, nil
}

func (s *m4aStream) Stream(samples [][2]float64) (n int, ok bool) {
	if s.err != nil {
		return 0, false
	}
	for n < len(samples) {
		if s.frameIdx < len(s.frames) {
			c := copy(samples[n:], s.frames[s.frameIdx:])
			s.frameIdx += c
			n += c
			continue
		}
		if s.next >= s.box.SampleCount() {
			break
		}
		data, err := s.box.ReadSample(s.next)
		if err != nil {
			s.err = err
			break
		}
		s.next++
		frames, err := s.codec.decode(data)
		if err != nil {
			s.err = err
			break
		}
		s.frames, s.frameIdx = frames, 0
	}
	return n, n > 0
}

func (s *m4aStream) Err() error { return s.err }

func (s *m4aStream) Len() int { return s.total }

func (s *m4aStream) Position() int {
	return int(s.box.SampleTime(s.next).Seconds() * float64(s.rate))
}

func (s *m4aStream) Seek(p int) error {
	p = min(max(p, 0), s.total)
	at := time.Duration(float64(p) / float64(s.rate) * float64(time.Second))
	s.next = s.box.SeekToTime(at)
	s.frames, s.frameIdx = nil, 0
	s.err = nil
	return nil
}

func (s *m4aStream) Close() error {
	s.codec.close()
	return s.rc.Close()
}

type aacCodec struct {
	dec      *faad2.Decoder
	channels int
}

func newAACCodec(config []byte, channels int) (*aacCodec, error) {
	ctx := context.Background()
	dec, err := faad2.NewDecoder(ctx)
	if err != nil {
		return nil, err
	}
	if err := dec.Init(ctx, config); err != nil {
		dec.Close(ctx)
		return nil, err
	}
	return &aacCodec{dec: dec, channels: channels}, nil
}

func (c *aacCodec) decode(sample []byte) ([][2]float64, error) {
	pcm, err := c.dec.Decode(context.Background(), sample)
	if err != nil {
		return nil, err
	}
	if c.channels == 1 {
		frames := make([][2]float64, len(pcm))
		for i, v := range pcm {
			x := float64(v) / 32768
			frames[i] = [2]float64{x, x}
		}
		return frames, nil
	}
	frames := make([][2]float64, len(pcm)/2)
	for i := range frames {
		frames[i] = [2]float64{float64(pcm[2*i]) / 32768, float64(pcm[2*i+1]) / 32768}
	}
	return frames, nil
}

func (c *aacCodec) close() { c.dec.Close(context.Background()) }

type alacCodec struct {
	dec      *alac.Alac
	depth    int
	channels int
}

func newALACCodec(rate, depth, channels int) (*alacCodec, error) {
	dec, err := alac.NewWithConfig(alac.Config{
		SampleRate:  rate,
		SampleSize:  depth,
		NumChannels: channels,
		FrameSize:   4096,
	})
	if err != nil {
		return nil, err
	}
	return &alacCodec{dec: dec, depth: depth, channels: channels}, nil
}

func (c *alacCodec) decode(sample []byte) ([][2]float64, error) {
	raw := c.dec.Decode(sample)
	width := 2
	if c.depth == 24 {
		width = 3
	}
	stride := width * c.channels
	frames := make([][2]float64, len(raw)/stride)
	for i := range frames {
		b := raw[i*stride:]
		left := pcmLE(b, width)
		right := left
		if c.channels > 1 {
			right = pcmLE(b[width:], width)
		}
		frames[i] = [2]float64{left, right}
	}
	return frames, nil
}

func (c *alacCodec) close() {}

// pcmLE reads a signed little-endian sample of width bytes as [-1, 1).
func pcmLE(b []byte, width int) float64 {
	if width == 3 {
		v := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
		if v&0x800000 != 0 {
			v |= ^0xFFFFFF
		}
		return float64(v) / (1 << 23)
	}
	return float64(int16(uint16(b[0])|uint16(b[1])<<8)) / 32768 //nolint:gosec // reinterpreting sample bits
}
