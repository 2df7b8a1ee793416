// Package engine plays one track at a time on an audio device owned by a
// single actor goroutine. Callers talk to the actor through a Client, which
// any number of goroutines may share.
package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tamaureus/tamaureus/internal/audio"
	"github.com/tamaureus/tamaureus/internal/logging"
)

// DefaultTickInterval is how often the actor broadcasts positions.
const DefaultTickInterval = 50 * time.Millisecond

// Options configures Start.
type Options struct {
	// TickInterval is the position broadcast period. Zero means
	// DefaultTickInterval.
	TickInterval time.Duration
	// Volume is the initial level, clamped to [0, 1].
	Volume float64
	// Open turns a path into a source. Nil means audio.Open without preload.
	Open func(path string) (audio.Source, error)
	// Logger receives engine logs. Nil discards them.
	Logger logrus.FieldLogger
}

// DefaultOptions returns options at full volume with the default tick.
func DefaultOptions() Options {
	return Options{TickInterval: DefaultTickInterval, Volume: 1}
}

// Client is the handle to a running engine.
type Client struct {
	queue  *queue
	subs   *subscribers
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Start launches the actor on dev and returns a client for it. The actor is
// the only goroutine that touches dev until Close returns.
func Start(dev audio.Device, opts Options) *Client {
	if opts.TickInterval <= 0 {
		opts.TickInterval = DefaultTickInterval
	}
	if opts.Open == nil {
		opts.Open = func(path string) (audio.Source, error) {
			return audio.Open(path, audio.OpenOptions{})
		}
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		queue:  newQueue(),
		subs:   &subscribers{},
		cancel: cancel,
		done:   make(chan struct{}),
	}
	a := &actor{
		dev:    dev,
		open:   opts.Open,
		queue:  c.queue,
		subs:   c.subs,
		log:    opts.Logger.WithField("component", "engine"),
		tick:   opts.TickInterval,
		volume: audio.ClampLevel(opts.Volume),
	}
	go a.run(ctx, c.done)
	return c
}

// Play loads and starts the file at path, replacing the current track, and
// returns its duration (audio.UnknownDuration when undeterminable). On error
// the current track keeps playing.
func (c *Client) Play(path string) (time.Duration, error) {
	t, err := c.PlayTrack(path)
	if err != nil {
		return 0, err
	}
	return t.Duration, nil
}

// PlayTrack is Play returning the full track description.
func (c *Client) PlayTrack(path string) (Track, error) {
	reply := make(chan playReply, 1)
	r, err := await(c, playCmd{path: path, reply: reply}, reply)
	if err != nil {
		return Track{}, err
	}
	return r.track, r.err
}

// Pause pauses a playing track.
func (c *Client) Pause() { c.queue.send(pauseCmd{}) }

// Resume resumes a paused track.
func (c *Client) Resume() { c.queue.send(resumeCmd{}) }

// Toggle switches between playing and paused.
func (c *Client) Toggle() { c.queue.send(toggleCmd{}) }

// Stop unloads the current track.
func (c *Client) Stop() { c.queue.send(stopCmd{}) }

// SetVolume sets the output level. Values outside [0, 1] are clamped.
func (c *Client) SetVolume(level float64) { c.queue.send(setVolumeCmd{level: level}) }

// Seek moves the current track to pos. The returned channel receives exactly
// one result, with ErrDisconnected when the engine closed first. It may be
// ignored without blocking the engine.
func (c *Client) Seek(pos time.Duration) <-chan SeekResult {
	reply := make(chan SeekResult, 1)
	if !c.queue.send(seekCmd{position: pos, reply: reply}) {
		reply <- SeekResult{Err: ErrDisconnected}
	}
	return reply
}

// SeekWait is Seek waiting for the result. The error is ErrDisconnected when
// the engine is gone; device failures are reported in SeekResult.Err.
func (c *Client) SeekWait(pos time.Duration) (SeekResult, error) {
	reply := make(chan SeekResult, 1)
	res, err := await(c, seekCmd{position: pos, reply: reply}, reply)
	if err == nil && errors.Is(res.Err, ErrDisconnected) {
		err = ErrDisconnected
	}
	return res, err
}

// Position returns the current offset tagged with its generation.
func (c *Client) Position() (Position, error) {
	reply := make(chan Position, 1)
	return await(c, positionCmd{reply: reply}, reply)
}

// State returns a snapshot of the playback state.
func (c *Client) State() (PlaybackState, error) {
	reply := make(chan PlaybackState, 1)
	return await(c, stateCmd{reply: reply}, reply)
}

// Subscribe returns a new event subscription. After Close it returns a
// subscription whose Done channel is already closed.
func (c *Client) Subscribe() *Subscription {
	return c.subs.add()
}

// Unsubscribe stops delivery to sub and closes its Done channel.
func (c *Client) Unsubscribe(sub *Subscription) {
	c.subs.remove(sub)
}

// Close stops the actor and waits for it to release the device. Calls made
// after Close return ErrDisconnected. Close is idempotent.
func (c *Client) Close() {
	c.once.Do(c.cancel)
	<-c.done
}

// Done is closed once the actor has exited.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// await sends cmd and waits for its reply or for the actor to exit.
func await[T any](c *Client, cmd command, reply <-chan T) (T, error) {
	var zero T
	if !c.queue.send(cmd) {
		return zero, ErrDisconnected
	}
	select {
	case r := <-reply:
		return r, nil
	case <-c.done:
		// The actor may have replied just before exiting.
		select {
		case r := <-reply:
			return r, nil
		default:
			return zero, ErrDisconnected
		}
	}
}
