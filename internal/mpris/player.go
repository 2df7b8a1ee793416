package mpris

import (
	"fmt"
	"hash/fnv"
	"net/url"
	"path/filepath"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/quarckster/go-mpris-server/pkg/types"

	"github.com/tamaureus/tamaureus/internal/audio"
	"github.com/tamaureus/tamaureus/internal/engine"
	"github.com/tamaureus/tamaureus/internal/tags"
)

// Player is the part of engine.Client the MPRIS adapter drives.
type Player interface {
	PlayTrack(path string) (engine.Track, error)
	Pause()
	Resume()
	Toggle()
	Stop()
	SetVolume(level float64)
	SeekWait(pos time.Duration) (engine.SeekResult, error)
	Position() (engine.Position, error)
	State() (engine.PlaybackState, error)
}

// rootAdapter implements OrgMprisMediaPlayer2Adapter.
type rootAdapter struct{}

func (r *rootAdapter) Raise() error {
	return nil // Not supported
}

func (r *rootAdapter) Quit() error {
	return nil // Not supported - app manages its own lifecycle
}

func (r *rootAdapter) CanQuit() (bool, error) {
	return false, nil
}

func (r *rootAdapter) CanRaise() (bool, error) {
	return false, nil
}

func (r *rootAdapter) HasTrackList() (bool, error) {
	return false, nil
}

func (r *rootAdapter) Identity() (string, error) {
	return "Tamaureus", nil
}

//nolint:revive // Method name required by interface.
func (r *rootAdapter) SupportedUriSchemes() ([]string, error) {
	return []string{"file"}, nil
}

func (r *rootAdapter) SupportedMimeTypes() ([]string, error) {
	return []string{
		"audio/mpeg", "audio/flac", "audio/wav", "audio/ogg",
		"audio/opus", "audio/mp4", "audio/x-m4a",
	}, nil
}

// playerAdapter implements OrgMprisMediaPlayer2PlayerAdapter.
type playerAdapter struct {
	player Player

	mu     sync.Mutex
	serial uint64
	meta   types.Metadata
}

// Next and Previous are accepted but do nothing: the engine holds one track.
func (p *playerAdapter) Next() error     { return nil }
func (p *playerAdapter) Previous() error { return nil }

func (p *playerAdapter) Pause() error {
	p.player.Pause()
	return nil
}

func (p *playerAdapter) PlayPause() error {
	p.player.Toggle()
	return nil
}

func (p *playerAdapter) Stop() error {
	p.player.Stop()
	return nil
}

func (p *playerAdapter) Play() error {
	p.player.Resume()
	return nil
}

// Seek moves by offset from the current position. Seeking past the end
// stops playback.
func (p *playerAdapter) Seek(offset types.Microseconds) error {
	st, err := p.player.State()
	if err != nil {
		return err
	}
	if st.Empty {
		return nil
	}
	pos, err := p.player.Position()
	if err != nil {
		return err
	}

	target := max(pos.Offset+time.Duration(offset)*time.Microsecond, 0)
	if d := st.Track.Duration; d != audio.UnknownDuration && target > d {
		p.player.Stop()
		return nil
	}
	return p.seek(target)
}

// SetPosition seeks to an absolute position. Requests for another track or
// outside the track are ignored.
func (p *playerAdapter) SetPosition(trackID string, position types.Microseconds) error {
	st, err := p.player.State()
	if err != nil {
		return err
	}
	if st.Empty || trackID != formatTrackID(st.Track) {
		return nil
	}
	target := time.Duration(position) * time.Microsecond
	if target < 0 || (st.Track.Duration != audio.UnknownDuration && target > st.Track.Duration) {
		return nil
	}
	return p.seek(target)
}

func (p *playerAdapter) seek(target time.Duration) error {
	res, err := p.player.SeekWait(target)
	if err != nil {
		return err
	}
	return res.Err
}

//nolint:revive // Method name required by interface.
func (p *playerAdapter) OpenUri(uri string) error {
	u, err := url.Parse(uri)
	if err != nil {
		return err
	}
	if u.Scheme != "file" {
		return fmt.Errorf("unsupported uri scheme %q", u.Scheme)
	}
	_, err = p.player.PlayTrack(u.Path)
	return err
}

func (p *playerAdapter) PlaybackStatus() (types.PlaybackStatus, error) {
	st, err := p.player.State()
	if err != nil {
		return types.PlaybackStatusStopped, err
	}
	switch st.Status {
	case engine.Playing:
		return types.PlaybackStatusPlaying, nil
	case engine.Paused:
		return types.PlaybackStatusPaused, nil
	case engine.Empty:
	}
	return types.PlaybackStatusStopped, nil
}

func (p *playerAdapter) Rate() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) SetRate(_ float64) error {
	return nil // Not supported
}

func (p *playerAdapter) Metadata() (types.Metadata, error) {
	st, err := p.player.State()
	if err != nil {
		return types.Metadata{}, err
	}
	if st.Empty {
		return types.Metadata{}, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.serial != st.Track.TrackSerial {
		p.meta = trackMetadata(st.Track)
		p.serial = st.Track.TrackSerial
	}
	return p.meta, nil
}

// trackMetadata builds MPRIS metadata from the track's tags and folder art.
func trackMetadata(track engine.Track) types.Metadata {
	meta := types.Metadata{
		TrackId: dbus.ObjectPath(formatTrackID(track)),
		Title:   filepath.Base(track.Path),
	}
	if track.Duration != audio.UnknownDuration {
		meta.Length = types.Microseconds(track.Duration.Microseconds())
	}

	if t, err := tags.Read(track.Path); err == nil {
		meta.Title = t.Title
		if t.Artist != "" {
			meta.Artist = []string{t.Artist}
		}
		meta.Album = t.Album
		meta.TrackNumber = t.TrackNumber
	}

	if artPath := tags.FolderArtPath(filepath.Dir(track.Path)); artPath != "" {
		meta.ArtUrl = "file://" + artPath
	}
	return meta
}

func (p *playerAdapter) Volume() (float64, error) {
	st, err := p.player.State()
	if err != nil {
		return 0, err
	}
	return st.Volume, nil
}

func (p *playerAdapter) SetVolume(level float64) error {
	p.player.SetVolume(level)
	return nil
}

func (p *playerAdapter) Position() (int64, error) {
	pos, err := p.player.Position()
	if err != nil {
		return 0, err
	}
	return pos.Offset.Microseconds(), nil
}

func (p *playerAdapter) MinimumRate() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) MaximumRate() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) CanGoNext() (bool, error) {
	return false, nil
}

func (p *playerAdapter) CanGoPrevious() (bool, error) {
	return false, nil
}

func (p *playerAdapter) CanPlay() (bool, error) {
	st, err := p.player.State()
	return err == nil && !st.Empty, err
}

func (p *playerAdapter) CanPause() (bool, error) {
	return p.CanPlay()
}

func (p *playerAdapter) CanSeek() (bool, error) {
	st, err := p.player.State()
	return err == nil && !st.Empty && st.Track.Duration != audio.UnknownDuration, err
}

func (p *playerAdapter) CanControl() (bool, error) {
	return true, nil
}

// formatTrackID derives a D-Bus object path unique to one load of a file.
func formatTrackID(track engine.Track) string {
	h := fnv.New64a()
	h.Write([]byte(track.Path))
	return fmt.Sprintf("/org/mpris/MediaPlayer2/Track/%x_%d", h.Sum64(), track.TrackSerial)
}
