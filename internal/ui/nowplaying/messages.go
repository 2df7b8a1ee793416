package nowplaying

import (
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tamaureus/tamaureus/internal/engine"
	"github.com/tamaureus/tamaureus/internal/tags"
)

type (
	positionMsg     engine.Position
	stateMsg        engine.StateChange
	errorMsg        engine.ErrorEvent
	seekedMsg       engine.SeekResult
	disconnectedMsg struct{}
)

// snapshotMsg carries a fresh engine snapshot. Info is set only when the
// loaded track differs from the one the model last saw.
type snapshotMsg struct {
	state engine.PlaybackState
	info  *trackInfo
	err   error
}

type trackInfo struct {
	Title  string
	Artist string
	Album  string
}

// waitForEvent blocks on the subscription and turns the next event into a
// message. Every event handler re-arms it.
func waitForEvent(sub *engine.Subscription) tea.Cmd {
	return func() tea.Msg {
		select {
		case p := <-sub.Positions:
			return positionMsg(p)
		case e := <-sub.StateChanged:
			return stateMsg(e)
		case e := <-sub.Errors:
			return errorMsg(e)
		case <-sub.Done:
			return disconnectedMsg{}
		}
	}
}

// refresh queries the engine state. Tags are read for a track whose serial
// differs from seen.
func refresh(p Player, seen uint64) tea.Cmd {
	return func() tea.Msg {
		st, err := p.State()
		if err != nil {
			return snapshotMsg{err: err}
		}
		msg := snapshotMsg{state: st}
		if !st.Empty && st.Track.TrackSerial != seen {
			info := readTrackInfo(st.Track.Path)
			msg.info = &info
		}
		return msg
	}
}

// awaitSeek waits for the reply of a seek already sent to the engine.
func awaitSeek(reply <-chan engine.SeekResult) tea.Cmd {
	return func() tea.Msg {
		return seekedMsg(<-reply)
	}
}

func readTrackInfo(path string) trackInfo {
	t, err := tags.Read(path)
	if err != nil {
		return trackInfo{Title: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))}
	}
	return trackInfo{Title: t.Title, Artist: t.Artist, Album: t.Album}
}
