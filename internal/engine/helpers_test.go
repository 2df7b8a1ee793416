package engine

import (
	"sync"
	"testing"
	"time"

	"github.com/tamaureus/tamaureus/internal/audio"
)

const testTick = 50 * time.Millisecond

type fakeTrack struct {
	length   time.Duration
	seekable bool
}

// library opens fake sources for registered paths and falls back to
// audio.Open for anything else.
type library struct {
	mu     sync.Mutex
	tracks map[string]fakeTrack
	opened []*audio.FakeSource
}

func newLibrary() *library {
	return &library{tracks: make(map[string]fakeTrack)}
}

func (l *library) add(path string, length time.Duration, seekable bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tracks[path] = fakeTrack{length: length, seekable: seekable}
}

func (l *library) open(path string) (audio.Source, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	t, ok := l.tracks[path]
	if !ok {
		return audio.Open(path, audio.OpenOptions{})
	}
	src := audio.NewFakeSource(t.length, t.seekable)
	l.opened = append(l.opened, src)
	return src, nil
}

func (l *library) sources() []*audio.FakeSource {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*audio.FakeSource(nil), l.opened...)
}

// startEngine starts an engine on a fake device. It must be called inside a
// synctest bubble; the engine is closed when the test ends.
func startEngine(t *testing.T, lib *library) (*Client, *audio.Fake) {
	t.Helper()
	dev := audio.NewFake()
	c := Start(dev, Options{TickInterval: testTick, Volume: 1, Open: lib.open})
	t.Cleanup(c.Close)
	return c, dev
}

func mustState(t *testing.T, c *Client) PlaybackState {
	t.Helper()
	st, err := c.State()
	if err != nil {
		t.Fatalf("State() error = %v", err)
	}
	return st
}

func mustPosition(t *testing.T, c *Client) Position {
	t.Helper()
	p, err := c.Position()
	if err != nil {
		t.Fatalf("Position() error = %v", err)
	}
	return p
}
