// Package nowplaying is the terminal view of the playback engine. It follows
// the engine through an event subscription and drops position updates that
// predate its own seeks.
package nowplaying

import (
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tamaureus/tamaureus/internal/audio"
	"github.com/tamaureus/tamaureus/internal/engine"
	"github.com/tamaureus/tamaureus/internal/errmsg"
)

const (
	seekStep   = 5 * time.Second
	volumeStep = 0.05
)

// Player is the part of engine.Client the view drives.
type Player interface {
	Toggle()
	Stop()
	SetVolume(level float64)
	Seek(pos time.Duration) <-chan engine.SeekResult
	State() (engine.PlaybackState, error)
}

// Model is the bubbletea model of the now-playing screen.
type Model struct {
	player  Player
	sub     *engine.Subscription
	tracker *engine.Tracker
	keys    keyMap
	help    help.Model

	state    engine.PlaybackState
	info     trackInfo
	position time.Duration
	err      string
	width    int
}

// New creates a model driving player and listening on sub.
func New(player Player, sub *engine.Subscription) Model {
	return Model{
		player:  player,
		sub:     sub,
		tracker: &engine.Tracker{},
		keys:    newKeyMap(),
		help:    help.New(),
		state:   engine.PlaybackState{Empty: true, Volume: 1},
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForEvent(m.sub), refresh(m.player, 0))
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case positionMsg:
		if m.tracker.Accept(engine.Position(msg)) {
			m.position = msg.Offset
		}
		return m, waitForEvent(m.sub)

	case stateMsg:
		m.state.Status = msg.Current
		m.state.Paused = msg.Current == engine.Paused
		switch {
		case msg.Current == engine.Empty:
			m.state.Empty = true
			m.position = 0
		case msg.TrackSerial != m.state.Track.TrackSerial:
			// A new track is loaded; the snapshot brings its tags.
			m.tracker.Loaded(engine.Track{TrackSerial: msg.TrackSerial})
			m.position = 0
		}
		return m, tea.Batch(waitForEvent(m.sub), refresh(m.player, m.state.Track.TrackSerial))

	case errorMsg:
		m.err = errmsg.FormatWith(operation(msg.Operation), filepath.Base(msg.Path), msg.Err)
		return m, waitForEvent(m.sub)

	case snapshotMsg:
		return m.applySnapshot(msg), nil

	case seekedMsg:
		res := engine.SeekResult(msg)
		m.tracker.SeekApplied(res)
		if res.Err != nil {
			m.err = errmsg.Format(errmsg.OpPlaybackSeek, res.Err)
			return m, nil
		}
		m.err = ""
		m.position = res.Position
		return m, nil

	case disconnectedMsg:
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) applySnapshot(msg snapshotMsg) Model {
	if msg.err != nil {
		m.err = errmsg.Format(errmsg.OpPlaybackStart, msg.err)
		return m
	}
	st := msg.state
	if !st.Empty && st.Track.TrackSerial != m.state.Track.TrackSerial {
		m.tracker.Loaded(st.Track)
		m.position = 0
		m.err = ""
		if msg.info != nil {
			m.info = *msg.info
		}
	}
	m.state = st
	return m
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Toggle):
		m.player.Toggle()
	case key.Matches(msg, m.keys.Stop):
		m.player.Stop()
	case key.Matches(msg, m.keys.SeekBack):
		return m.seekBy(-seekStep)
	case key.Matches(msg, m.keys.SeekForward):
		return m.seekBy(seekStep)
	case key.Matches(msg, m.keys.VolumeDown):
		m.setVolume(m.state.Volume - volumeStep)
	case key.Matches(msg, m.keys.VolumeUp):
		m.setVolume(m.state.Volume + volumeStep)
	}
	return m, nil
}

// seekBy sends a relative seek. The displayed position moves at once and
// positions sampled before the engine applies the seek are dropped.
func (m Model) seekBy(delta time.Duration) (tea.Model, tea.Cmd) {
	if m.state.Empty {
		return m, nil
	}
	target := max(m.position+delta, 0)
	if d := m.state.Track.Duration; d != audio.UnknownDuration && target > d {
		target = d
	}
	m.tracker.SeekIssued()
	m.position = target
	return m, awaitSeek(m.player.Seek(target))
}

func (m *Model) setVolume(level float64) {
	level = audio.ClampLevel(level)
	m.player.SetVolume(level)
	m.state.Volume = level
}

func operation(op string) errmsg.Op {
	if op == engine.OpSeek {
		return errmsg.OpPlaybackSeek
	}
	return errmsg.OpPlaybackStart
}
