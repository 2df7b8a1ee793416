package nowplaying

import (
	"strings"
	"testing"
	"testing/synctest"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamaureus/tamaureus/internal/audio"
	"github.com/tamaureus/tamaureus/internal/engine"
)

const trackLength = 3 * time.Minute

// stubPlayer records commands and answers seeks with the next generation.
type stubPlayer struct {
	toggles    int
	stops      int
	volumes    []float64
	seeks      []time.Duration
	generation uint64
	serial     uint64
	seekErr    error
	state      engine.PlaybackState
}

func (p *stubPlayer) Toggle()                 { p.toggles++ }
func (p *stubPlayer) Stop()                   { p.stops++ }
func (p *stubPlayer) SetVolume(level float64) { p.volumes = append(p.volumes, level) }

func (p *stubPlayer) Seek(pos time.Duration) <-chan engine.SeekResult {
	p.seeks = append(p.seeks, pos)
	p.generation++
	reply := make(chan engine.SeekResult, 1)
	reply <- engine.SeekResult{Position: pos, Generation: p.generation, TrackSerial: p.serial, Err: p.seekErr}
	return reply
}

func (p *stubPlayer) State() (engine.PlaybackState, error) { return p.state, nil }

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	require.True(t, ok, "Update returned %T", next)
	return nm, cmd
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// loaded returns a model showing track serial 1 as playing.
func loaded(t *testing.T, p *stubPlayer) Model {
	t.Helper()
	p.serial = 1
	p.state = engine.PlaybackState{
		Status: engine.Playing,
		Volume: 0.5,
		Track:  engine.Track{Path: "/music/song.mp3", Duration: trackLength, TrackSerial: 1},
	}
	m := New(p, nil)
	m, _ = update(t, m, snapshotMsg{state: p.state, info: &trackInfo{Title: "Song", Artist: "Artist", Album: "Album"}})
	return m
}

func TestModel_SeekDropsStalePositions(t *testing.T) {
	p := &stubPlayer{}
	m := loaded(t, p)

	m, _ = update(t, m, positionMsg{Offset: 10 * time.Second, TrackSerial: 1})
	assert.Equal(t, 10*time.Second, m.position)

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRight})
	require.NotNil(t, cmd)
	assert.Equal(t, []time.Duration{15 * time.Second}, p.seeks)
	assert.Equal(t, 15*time.Second, m.position, "position moves before the reply")

	// Sampled before the seek was applied
	m, _ = update(t, m, positionMsg{Offset: 10050 * time.Millisecond, TrackSerial: 1})
	assert.Equal(t, 15*time.Second, m.position)

	m, _ = update(t, m, cmd())
	assert.Equal(t, 15*time.Second, m.position)

	// Old generation, delivered late
	m, _ = update(t, m, positionMsg{Offset: 10100 * time.Millisecond, Generation: 0, TrackSerial: 1})
	assert.Equal(t, 15*time.Second, m.position)

	m, _ = update(t, m, positionMsg{Offset: 15050 * time.Millisecond, Generation: 1, TrackSerial: 1})
	assert.Equal(t, 15050*time.Millisecond, m.position)
}

func TestModel_SeekClamps(t *testing.T) {
	p := &stubPlayer{}
	m := loaded(t, p)

	m, _ = update(t, m, positionMsg{Offset: 2 * time.Second, TrackSerial: 1})
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	m, _ = update(t, m, cmd())
	assert.Equal(t, time.Duration(0), m.position)

	m, _ = update(t, m, positionMsg{Offset: trackLength - time.Second, Generation: 1, TrackSerial: 1})
	m, cmd = update(t, m, keyRunes("l"))
	_, _ = update(t, m, cmd())

	assert.Equal(t, []time.Duration{0, trackLength}, p.seeks)
}

func TestModel_SeekIgnoredWhenEmpty(t *testing.T) {
	p := &stubPlayer{}
	m := New(p, nil)

	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRight})
	assert.Nil(t, cmd)
	assert.Empty(t, p.seeks)
}

func TestModel_SeekError(t *testing.T) {
	p := &stubPlayer{seekErr: audio.ErrSeekUnsupported}
	m := loaded(t, p)

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRight})
	m, _ = update(t, m, cmd())
	assert.Contains(t, m.err, "Failed to seek")

	// The failed seek still cleared the pending flag
	m, _ = update(t, m, positionMsg{Offset: 6 * time.Second, Generation: 1, TrackSerial: 1})
	assert.Equal(t, 6*time.Second, m.position)
}

func TestModel_NewTrackResetsPosition(t *testing.T) {
	p := &stubPlayer{}
	m := loaded(t, p)
	m, _ = update(t, m, positionMsg{Offset: time.Minute, TrackSerial: 1})

	next := p.state
	next.Track = engine.Track{Path: "/music/other.mp3", Duration: time.Minute, TrackSerial: 2}
	m, _ = update(t, m, snapshotMsg{state: next, info: &trackInfo{Title: "Other"}})
	assert.Equal(t, time.Duration(0), m.position)
	assert.Equal(t, "Other", m.info.Title)

	// Tail of the previous track
	m, _ = update(t, m, positionMsg{Offset: time.Minute + 50*time.Millisecond, TrackSerial: 1})
	assert.Equal(t, time.Duration(0), m.position)

	m, _ = update(t, m, positionMsg{Offset: 50 * time.Millisecond, TrackSerial: 2})
	assert.Equal(t, 50*time.Millisecond, m.position)
}

func TestModel_TrackReplacedWhilePlaying(t *testing.T) {
	p := &stubPlayer{}
	m := loaded(t, p)
	m, _ = update(t, m, positionMsg{Offset: time.Minute, TrackSerial: 1})

	p.serial = 2
	p.state.Track = engine.Track{Path: "/music/other.mp3", Duration: time.Minute, TrackSerial: 2}
	m, cmd := update(t, m, stateMsg{Previous: engine.Playing, Current: engine.Playing, TrackSerial: 2})
	require.NotNil(t, cmd)
	assert.Equal(t, time.Duration(0), m.position)

	m, _ = update(t, m, positionMsg{Offset: time.Minute + 50*time.Millisecond, TrackSerial: 1})
	assert.Equal(t, time.Duration(0), m.position)

	m, _ = update(t, m, refresh(p, m.state.Track.TrackSerial)())
	assert.Equal(t, uint64(2), m.state.Track.TrackSerial)
	assert.Equal(t, "other", m.info.Title)

	m, _ = update(t, m, positionMsg{Offset: 50 * time.Millisecond, TrackSerial: 2})
	assert.Equal(t, 50*time.Millisecond, m.position)
}

func TestModel_StopClearsPosition(t *testing.T) {
	p := &stubPlayer{}
	m := loaded(t, p)
	m, _ = update(t, m, positionMsg{Offset: time.Minute, TrackSerial: 1})

	m, cmd := update(t, m, stateMsg{Previous: engine.Playing, Current: engine.Empty})
	require.NotNil(t, cmd)
	assert.True(t, m.state.Empty)
	assert.Equal(t, time.Duration(0), m.position)
	assert.Contains(t, ansi.Strip(m.View()), "Nothing playing")
}

func TestModel_Keys(t *testing.T) {
	p := &stubPlayer{}
	m := loaded(t, p)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	assert.Equal(t, 1, p.toggles)

	m, _ = update(t, m, keyRunes("s"))
	assert.Equal(t, 1, p.stops)

	m, _ = update(t, m, keyRunes("+"))
	m, _ = update(t, m, keyRunes("-"))
	m, _ = update(t, m, keyRunes("-"))
	require.Len(t, p.volumes, 3)
	assert.InDelta(t, 0.55, p.volumes[0], 1e-9)
	assert.InDelta(t, 0.50, p.volumes[1], 1e-9)
	assert.InDelta(t, 0.45, p.volumes[2], 1e-9)
	assert.InDelta(t, 0.45, m.state.Volume, 1e-9)

	m, _ = update(t, m, keyRunes("?"))
	assert.True(t, m.help.ShowAll)

	_, cmd := update(t, m, keyRunes("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

func TestModel_VolumeClamped(t *testing.T) {
	p := &stubPlayer{}
	m := loaded(t, p)
	m.state.Volume = 1

	m, _ = update(t, m, keyRunes("+"))
	assert.InDelta(t, 1.0, m.state.Volume, 1e-9)
	assert.InDelta(t, 1.0, p.volumes[0], 1e-9)
}

func TestModel_ErrorEvent(t *testing.T) {
	m := New(&stubPlayer{}, nil)
	m, _ = update(t, m, errorMsg{Operation: engine.OpPlay, Path: "/music/broken.mp3", Err: audio.ErrDecode})
	assert.Equal(t, "Failed to start playback 'broken.mp3': "+audio.ErrDecode.Error(), m.err)
}

func TestModel_DisconnectQuits(t *testing.T) {
	m := New(&stubPlayer{}, nil)
	_, cmd := update(t, m, disconnectedMsg{})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

func TestModel_View(t *testing.T) {
	p := &stubPlayer{}
	m := loaded(t, p)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 70, Height: 10})
	m, _ = update(t, m, positionMsg{Offset: 10 * time.Second, TrackSerial: 1})

	view := ansi.Strip(m.View())
	for _, want := range []string{"▶", "Song", "Artist - Album", "0:10", "3:00", "vol  50%"} {
		assert.Contains(t, view, want)
	}
	for _, line := range strings.Split(view, "\n") {
		assert.LessOrEqual(t, ansi.StringWidth(line), 70, "line too wide: %q", line)
	}

	m.state.Status = engine.Paused
	assert.Contains(t, ansi.Strip(m.View()), "⏸")
}

func TestRenderProgress(t *testing.T) {
	tests := []struct {
		name     string
		position time.Duration
		duration time.Duration
		width    int
		want     string
	}{
		{"half", time.Minute, 2 * time.Minute, 22, "1:00  ▓▓▓▓▓░░░░░  2:00"},
		{"start", 0, 2 * time.Minute, 22, "0:00  ░░░░░░░░░░  2:00"},
		{"past end", 3 * time.Minute, 2 * time.Minute, 22, "3:00  ▓▓▓▓▓▓▓▓▓▓  2:00"},
		{"unknown duration", time.Minute, audio.UnknownDuration, 23, "1:00  ░░░░░░░░░░  --:--"},
		{"too narrow", time.Minute, 2 * time.Minute, 10, "1:00 / 2:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ansi.Strip(renderProgress(tt.position, tt.duration, tt.width))
			if got != tt.want {
				t.Errorf("renderProgress() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0:00"},
		{-time.Second, "0:00"},
		{59 * time.Second, "0:59"},
		{3*time.Minute + 5*time.Second, "3:05"},
		{time.Hour + 2*time.Minute + 3*time.Second, "1:02:03"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

// drainPositions feeds every buffered position to the model.
func drainPositions(t *testing.T, m Model, sub *engine.Subscription) Model {
	t.Helper()
	for {
		select {
		case p := <-sub.Positions:
			m, _ = update(t, m, positionMsg(p))
		default:
			return m
		}
	}
}

func TestModel_FollowsEngine(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c := engine.Start(audio.NewFake(), engine.Options{
			TickInterval: 100 * time.Millisecond,
			Volume:       1,
			Open: func(string) (audio.Source, error) {
				return audio.NewFakeSource(trackLength, true), nil
			},
		})
		t.Cleanup(c.Close)
		sub := c.Subscribe()
		m := New(c, sub)

		_, err := c.Play("/music/Song Title.mp3")
		require.NoError(t, err)

		m, _ = update(t, m, waitForEvent(sub)())
		m, _ = update(t, m, refresh(c, 0)())
		assert.Equal(t, engine.Playing, m.state.Status)
		assert.Equal(t, "Song Title", m.info.Title)

		time.Sleep(time.Second)
		synctest.Wait()
		m = drainPositions(t, m, sub)
		assert.Equal(t, time.Second, m.position)

		m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRight})
		m, _ = update(t, m, cmd())
		assert.Equal(t, 6*time.Second, m.position)
		assert.Empty(t, m.err)

		time.Sleep(200 * time.Millisecond)
		synctest.Wait()
		m = drainPositions(t, m, sub)
		assert.GreaterOrEqual(t, m.position, 6*time.Second)
		assert.LessOrEqual(t, m.position, 6200*time.Millisecond)
	})
}
