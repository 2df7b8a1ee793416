package engine

import "sync"

const eventBufferSize = 16

// Subscription provides event channels for a subscriber. Events are dropped
// for a subscriber whose buffer is full.
type Subscription struct {
	Positions    <-chan Position
	StateChanged <-chan StateChange
	Errors       <-chan ErrorEvent
	Done         <-chan struct{}

	positionCh chan Position
	stateCh    chan StateChange
	errorCh    chan ErrorEvent
	doneCh     chan struct{}
	once       sync.Once
}

func newSubscription() *Subscription {
	s := &Subscription{
		positionCh: make(chan Position, eventBufferSize),
		stateCh:    make(chan StateChange, eventBufferSize),
		errorCh:    make(chan ErrorEvent, eventBufferSize),
		doneCh:     make(chan struct{}),
	}
	s.Positions = s.positionCh
	s.StateChanged = s.stateCh
	s.Errors = s.errorCh
	s.Done = s.doneCh
	return s
}

func (s *Subscription) close() {
	s.once.Do(func() { close(s.doneCh) })
}

func (s *Subscription) sendPosition(p Position) {
	select {
	case s.positionCh <- p:
	default:
	}
}

func (s *Subscription) sendState(e StateChange) {
	select {
	case s.stateCh <- e:
	default:
	}
}

func (s *Subscription) sendError(e ErrorEvent) {
	select {
	case s.errorCh <- e:
	default:
	}
}

// subscribers is the registry shared by the client and the actor.
type subscribers struct {
	mu     sync.RWMutex
	list   []*Subscription
	closed bool
}

func (r *subscribers) add() *Subscription {
	sub := newSubscription()
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		sub.close()
		return sub
	}
	r.list = append(r.list, sub)
	return sub
}

func (r *subscribers) remove(sub *Subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, s := range r.list {
		if s == sub {
			r.list = append(r.list[:i], r.list[i+1:]...)
			sub.close()
			return
		}
	}
}

func (r *subscribers) closeAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.list {
		s.close()
	}
	r.list = nil
	r.closed = true
}

func (r *subscribers) each(fn func(*Subscription)) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.list {
		fn(s)
	}
}

func (r *subscribers) publishPosition(p Position) {
	r.each(func(s *Subscription) { s.sendPosition(p) })
}

func (r *subscribers) publishState(e StateChange) {
	r.each(func(s *Subscription) { s.sendState(e) })
}

func (r *subscribers) publishError(e ErrorEvent) {
	r.each(func(s *Subscription) { s.sendError(e) })
}
