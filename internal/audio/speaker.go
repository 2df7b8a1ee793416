package audio

import (
	"math"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/speaker"
)

// resampleQuality is the beep.Resample quality used when a track's sample
// rate differs from the device's.
const resampleQuality = 4

// Speaker is the system audio output, backed by the beep speaker.
// Only one Speaker may be opened per process.
type Speaker struct {
	rate    beep.SampleRate
	level   float64
	src     Source
	ctrl    *beep.Ctrl
	volume  *effects.Volume
	drained *atomic.Bool
}

// OpenSpeaker initializes the output device at the given sample rate with a
// buffer of the given length.
func OpenSpeaker(sampleRate int, buffer time.Duration) (*Speaker, error) {
	rate := beep.SampleRate(sampleRate)
	if err := speaker.Init(rate, rate.N(buffer)); err != nil {
		return nil, err
	}
	return &Speaker{rate: rate, level: 1}, nil
}

func (s *Speaker) Start(src Source) {
	s.Clear()

	var stream beep.Streamer = src
	if r := src.Format().SampleRate; r != s.rate {
		stream = beep.Resample(resampleQuality, r, s.rate, src)
	}
	s.ctrl = &beep.Ctrl{Streamer: stream}
	s.volume = &effects.Volume{
		Streamer: s.ctrl,
		Base:     2,
		Volume:   levelToVolume(s.level),
		Silent:   s.level <= 0,
	}

	drained := &atomic.Bool{}
	s.src = src
	s.drained = drained
	speaker.Play(beep.Seq(s.volume, beep.Callback(func() {
		drained.Store(true)
	})))
}

func (s *Speaker) Clear() {
	if s.src == nil {
		return
	}
	speaker.Clear()
	_ = s.src.Close()
	s.src, s.ctrl, s.volume, s.drained = nil, nil, nil, nil
}

func (s *Speaker) SetPaused(paused bool) {
	if s.ctrl == nil {
		return
	}
	speaker.Lock()
	s.ctrl.Paused = paused
	speaker.Unlock()
}

func (s *Speaker) SetVolume(level float64) {
	s.level = ClampLevel(level)
	if s.volume == nil {
		return
	}
	speaker.Lock()
	s.volume.Volume = levelToVolume(s.level)
	s.volume.Silent = s.level <= 0
	speaker.Unlock()
}

func (s *Speaker) Position() time.Duration {
	if s.src == nil {
		return 0
	}
	speaker.Lock()
	n := s.src.Position()
	speaker.Unlock()
	return s.src.Format().SampleRate.D(n)
}

func (s *Speaker) Seek(pos time.Duration) error {
	if s.src == nil {
		return nil
	}
	if !s.src.Seekable() {
		return ErrSeekUnsupported
	}
	n := min(s.src.Format().SampleRate.N(max(pos, 0)), s.src.Len())
	speaker.Lock()
	defer speaker.Unlock()
	return s.src.Seek(n)
}

func (s *Speaker) Drained() bool {
	return s.drained != nil && s.drained.Load()
}

// Close stops playback and releases the output device.
func (s *Speaker) Close() {
	s.Clear()
	speaker.Close()
}

// levelToVolume maps a [0, 1] level onto beep's base-2 gain scale:
// 1 is unchanged, 0.5 is -1 (half), and 0 is -10 (near silence).
func levelToVolume(level float64) float64 {
	switch {
	case level <= 0:
		return -10
	case level >= 1:
		return 0
	default:
		return math.Log2(level)
	}
}

var _ Device = (*Speaker)(nil)
