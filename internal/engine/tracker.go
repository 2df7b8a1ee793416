package engine

import (
	"errors"
	"sync"
)

// Tracker filters position notifications on the consumer side so that a view
// never moves back to an offset sampled before its latest seek or track load.
// It is safe for concurrent use.
type Tracker struct {
	mu      sync.Mutex
	floor   stamp
	pending int
}

// stamp orders positions by track first, then by seek generation.
type stamp struct {
	serial     uint64
	generation uint64
}

func (s stamp) before(o stamp) bool {
	if s.serial != o.serial {
		return s.serial < o.serial
	}
	return s.generation < o.generation
}

// SeekIssued marks a seek as in flight. Positions are rejected until the
// matching SeekApplied.
func (t *Tracker) SeekIssued() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending++
}

// SeekApplied records the result of a seek issued after SeekIssued. A failed
// seek still advanced the generation, so the floor is raised either way.
func (t *Tracker) SeekApplied(res SeekResult) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !errors.Is(res.Err, ErrDisconnected) {
		t.raise(stamp{serial: res.TrackSerial, generation: res.Generation})
	}
	if t.pending > 0 {
		t.pending--
	}
}

// Loaded records a successful Play.
func (t *Tracker) Loaded(track Track) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.raise(stamp{serial: track.TrackSerial})
}

// Accept reports whether p is current and, if so, records it.
func (t *Tracker) Accept(p Position) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.pending > 0 {
		return false
	}
	s := stamp{serial: p.TrackSerial, generation: p.Generation}
	if s.before(t.floor) {
		return false
	}
	t.floor = s
	return true
}

func (t *Tracker) raise(s stamp) {
	if t.floor.before(s) {
		t.floor = s
	}
}
