package engine

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tamaureus/tamaureus/internal/audio"
)

// actor owns the device. Every field below is touched only by run.
type actor struct {
	dev   audio.Device
	open  func(path string) (audio.Source, error)
	queue *queue
	subs  *subscribers
	log   logrus.FieldLogger
	tick  time.Duration

	state      State
	volume     float64
	generation uint64
	serial     uint64
	track      Track
}

func (a *actor) run(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	a.dev.SetVolume(a.volume)

	ticker := time.NewTicker(a.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.shutdown()
			return
		case <-a.queue.notify:
			a.process(a.queue.drain())
		case <-ticker.C:
			a.process(a.queue.drain())
			a.onTick()
		}
	}
}

func (a *actor) shutdown() {
	dropped := a.queue.close()
	for _, cmd := range dropped {
		if c, ok := cmd.(seekCmd); ok && c.reply != nil {
			c.reply <- SeekResult{Err: ErrDisconnected}
		}
	}
	if len(dropped) > 0 {
		a.log.WithField("commands", len(dropped)).Debug("dropped queued commands")
	}
	a.dev.Clear()
	a.subs.closeAll()
	a.log.Debug("actor stopped")
}

func (a *actor) process(cmds []command) {
	for _, cmd := range cmds {
		a.handle(cmd)
	}
}

func (a *actor) handle(cmd command) {
	switch c := cmd.(type) {
	case playCmd:
		track, err := a.play(c.path)
		c.reply <- playReply{track: track, err: err}
	case pauseCmd:
		a.pause()
	case resumeCmd:
		a.resume()
	case toggleCmd:
		switch a.state {
		case Playing:
			a.pause()
		case Paused:
			a.resume()
		case Empty:
		}
	case stopCmd:
		a.stop()
	case setVolumeCmd:
		a.volume = audio.ClampLevel(c.level)
		a.dev.SetVolume(a.volume)
	case seekCmd:
		res := a.seek(c.position)
		if c.reply != nil {
			c.reply <- res
		}
	case positionCmd:
		c.reply <- a.position()
	case stateCmd:
		c.reply <- a.snapshot()
	}
}

func (a *actor) play(path string) (Track, error) {
	src, err := a.open(path)
	if err != nil {
		a.log.WithError(err).WithField("path", path).Warn("play failed")
		a.subs.publishError(ErrorEvent{Operation: OpPlay, Path: path, Err: err})
		return Track{}, err
	}

	a.dev.Start(src)
	a.serial++
	a.generation = 0
	a.track = Track{Path: path, Duration: src.Duration(), TrackSerial: a.serial}
	a.log.WithFields(logrus.Fields{
		"path":     path,
		"duration": a.track.Duration,
		"serial":   a.serial,
	}).Debug("playing")
	a.publishState(Playing)
	return a.track, nil
}

func (a *actor) pause() {
	if !a.state.CanPause() {
		return
	}
	a.dev.SetPaused(true)
	a.setState(Paused)
}

func (a *actor) resume() {
	if !a.state.CanResume() {
		return
	}
	a.dev.SetPaused(false)
	a.setState(Playing)
}

func (a *actor) stop() {
	if a.state == Empty {
		return
	}
	a.dev.Clear()
	a.track = Track{}
	a.setState(Empty)
}

func (a *actor) seek(pos time.Duration) SeekResult {
	if a.state == Empty {
		return SeekResult{Generation: a.generation, TrackSerial: a.serial, Err: ErrNoTrack}
	}

	pos = max(pos, 0)
	a.generation++
	res := SeekResult{Position: pos, Generation: a.generation, TrackSerial: a.serial}
	if err := a.dev.Seek(pos); err != nil {
		res.Err = err
		a.log.WithError(err).WithFields(logrus.Fields{
			"path":     a.track.Path,
			"position": pos,
		}).Warn("seek failed")
		a.subs.publishError(ErrorEvent{Operation: OpSeek, Path: a.track.Path, Err: err})
	}
	return res
}

func (a *actor) onTick() {
	if a.state.IsActive() && a.dev.Drained() {
		a.log.WithField("path", a.track.Path).Debug("track finished")
		a.dev.Clear()
		a.track = Track{}
		a.setState(Empty)
		return
	}
	if a.state == Playing {
		a.subs.publishPosition(a.position())
	}
}

func (a *actor) position() Position {
	if a.state == Empty {
		return Position{Generation: a.generation, TrackSerial: a.serial}
	}
	return Position{
		Offset:      a.dev.Position(),
		Generation:  a.generation,
		TrackSerial: a.serial,
	}
}

func (a *actor) snapshot() PlaybackState {
	return PlaybackState{
		Status: a.state,
		Paused: a.state == Paused,
		Empty:  a.state == Empty,
		Volume: a.volume,
		Track:  a.track,
	}
}

func (a *actor) setState(s State) {
	if s == a.state {
		return
	}
	a.publishState(s)
}

func (a *actor) publishState(s State) {
	change := StateChange{Previous: a.state, Current: s, TrackSerial: a.serial}
	a.state = s
	a.subs.publishState(change)
}
