package engine

import (
	"sync"
	"time"
)

// command is a request consumed exactly once by the actor.
type command interface {
	isCommand()
}

type playReply struct {
	track Track
	err   error
}

type (
	playCmd struct {
		path  string
		reply chan<- playReply
	}
	pauseCmd     struct{}
	resumeCmd    struct{}
	toggleCmd    struct{}
	stopCmd      struct{}
	setVolumeCmd struct{ level float64 }
	seekCmd      struct {
		position time.Duration
		reply    chan<- SeekResult
	}
	positionCmd struct{ reply chan<- Position }
	stateCmd    struct{ reply chan<- PlaybackState }
)

func (playCmd) isCommand()      {}
func (pauseCmd) isCommand()     {}
func (resumeCmd) isCommand()    {}
func (toggleCmd) isCommand()    {}
func (stopCmd) isCommand()      {}
func (setVolumeCmd) isCommand() {}
func (seekCmd) isCommand()      {}
func (positionCmd) isCommand()  {}
func (stateCmd) isCommand()     {}

// queue is an unbounded FIFO of commands with many producers and the actor
// as its only consumer. Producers never block.
type queue struct {
	mu     sync.Mutex
	items  []command
	closed bool
	notify chan struct{}
}

func newQueue() *queue {
	return &queue{notify: make(chan struct{}, 1)}
}

// send appends cmd and wakes the consumer. It returns false once the queue
// is closed, in which case cmd is dropped.
func (q *queue) send(cmd command) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.items = append(q.items, cmd)
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
	return true
}

// drain removes and returns every queued command in arrival order.
func (q *queue) drain() []command {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := q.items
	q.items = nil
	return items
}

// close rejects further sends and returns the commands still queued.
func (q *queue) close() []command {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	items := q.items
	q.items = nil
	return items
}
