package audio

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep/v2"
)

// Fake is a Device that plays by the wall clock instead of producing sound.
// It works inside a testing/synctest bubble, where time is virtual.
type Fake struct {
	mu      sync.Mutex
	src     Source
	paused  bool
	level   float64
	offset  time.Duration
	resumed time.Time
	seekErr error
	started []Source
	seeks   []time.Duration
}

// NewFake returns a Fake at full volume with nothing playing.
func NewFake() *Fake {
	return &Fake{level: 1}
}

func (f *Fake) Start(src Source) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clear()
	f.src = src
	f.paused = false
	f.offset = 0
	f.resumed = time.Now()
	f.started = append(f.started, src)
}

func (f *Fake) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clear()
}

func (f *Fake) clear() {
	if f.src != nil {
		_ = f.src.Close()
	}
	f.src = nil
	f.offset = 0
}

func (f *Fake) SetPaused(paused bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.src == nil || paused == f.paused {
		return
	}
	if paused {
		f.offset = f.position()
	} else {
		f.resumed = time.Now()
	}
	f.paused = paused
}

func (f *Fake) SetVolume(level float64) {
	f.mu.Lock()
	f.level = ClampLevel(level)
	f.mu.Unlock()
}

func (f *Fake) Position() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.position()
}

func (f *Fake) position() time.Duration {
	if f.src == nil {
		return 0
	}
	pos := f.offset
	if !f.paused {
		pos += time.Since(f.resumed)
	}
	if d := f.src.Duration(); d != UnknownDuration {
		pos = min(pos, d)
	}
	return pos
}

func (f *Fake) Seek(pos time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seeks = append(f.seeks, pos)
	if f.src == nil {
		return nil
	}
	if f.seekErr != nil {
		return f.seekErr
	}
	if !f.src.Seekable() {
		return ErrSeekUnsupported
	}
	pos = max(pos, 0)
	if d := f.src.Duration(); d != UnknownDuration {
		pos = min(pos, d)
	}
	f.offset = pos
	f.resumed = time.Now()
	return nil
}

func (f *Fake) Drained() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.src == nil {
		return false
	}
	d := f.src.Duration()
	return d != UnknownDuration && f.position() >= d
}

// FailSeeks makes every following Seek on a loaded source return err.
// A nil err restores normal seeking.
func (f *Fake) FailSeeks(err error) {
	f.mu.Lock()
	f.seekErr = err
	f.mu.Unlock()
}

// Volume returns the level last set.
func (f *Fake) Volume() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.level
}

// Paused reports whether the current source is paused.
func (f *Fake) Paused() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.paused
}

// Current returns the source being played, or nil.
func (f *Fake) Current() Source {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.src
}

// Started returns every source passed to Start, oldest first.
func (f *Fake) Started() []Source {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Source(nil), f.started...)
}

// Seeks returns every position passed to Seek, oldest first.
func (f *Fake) Seeks() []time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Duration(nil), f.seeks...)
}

var _ Device = (*Fake)(nil)

// FakeSampleRate is the sample rate of sources made by NewFakeSource.
const FakeSampleRate beep.SampleRate = 44100

// FakeSource is a silent Source of a fixed length.
type FakeSource struct {
	length   int
	pos      int
	seekable bool
	closed   atomic.Bool
}

// NewFakeSource returns a silent source lasting d. A negative d makes a
// source of unknown length.
func NewFakeSource(d time.Duration, seekable bool) *FakeSource {
	length := -1
	if d >= 0 {
		length = FakeSampleRate.N(d)
	}
	return &FakeSource{length: length, seekable: seekable}
}

func (s *FakeSource) Stream(samples [][2]float64) (int, bool) {
	n := len(samples)
	if s.length >= 0 {
		n = min(n, s.length-s.pos)
	}
	clear(samples[:n])
	s.pos += n
	return n, n > 0
}

func (s *FakeSource) Err() error { return nil }

func (s *FakeSource) Len() int { return max(s.length, 0) }

func (s *FakeSource) Position() int { return s.pos }

func (s *FakeSource) Seek(p int) error {
	if !s.seekable {
		return ErrSeekUnsupported
	}
	s.pos = min(max(p, 0), s.Len())
	return nil
}

func (s *FakeSource) Close() error {
	s.closed.Store(true)
	return nil
}

func (s *FakeSource) Format() beep.Format {
	return beep.Format{SampleRate: FakeSampleRate, NumChannels: 2, Precision: 2}
}

func (s *FakeSource) Duration() time.Duration {
	if s.length < 0 {
		return UnknownDuration
	}
	return FakeSampleRate.D(s.length)
}

func (s *FakeSource) Seekable() bool { return s.seekable }

// Closed reports whether Close was called.
func (s *FakeSource) Closed() bool { return s.closed.Load() }

var _ Source = (*FakeSource)(nil)
