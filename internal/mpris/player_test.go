package mpris

import (
	"os"
	"path/filepath"
	"testing"
	"testing/synctest"
	"time"

	"github.com/quarckster/go-mpris-server/pkg/types"

	"github.com/tamaureus/tamaureus/internal/audio"
	"github.com/tamaureus/tamaureus/internal/engine"
)

const trackLength = 3 * time.Minute

// startPlayer runs an engine on a fake device where every path opens a
// seekable silent track of trackLength.
func startPlayer(t *testing.T) (*engine.Client, *playerAdapter) {
	t.Helper()
	c := engine.Start(audio.NewFake(), engine.Options{
		TickInterval: 50 * time.Millisecond,
		Volume:       1,
		Open: func(string) (audio.Source, error) {
			return audio.NewFakeSource(trackLength, true), nil
		},
	})
	t.Cleanup(c.Close)
	return c, &playerAdapter{player: c}
}

func TestPlayerAdapter_PlaybackStatus(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c, p := startPlayer(t)

		status, err := p.PlaybackStatus()
		if err != nil || status != types.PlaybackStatusStopped {
			t.Fatalf("PlaybackStatus() = %v, %v; want Stopped", status, err)
		}
		if ok, _ := p.CanPlay(); ok {
			t.Error("CanPlay() true with nothing loaded")
		}

		if _, err := c.Play("/music/a.mp3"); err != nil {
			t.Fatalf("Play: %v", err)
		}
		status, _ = p.PlaybackStatus()
		if status != types.PlaybackStatusPlaying {
			t.Errorf("PlaybackStatus() = %v, want Playing", status)
		}

		if err := p.PlayPause(); err != nil {
			t.Fatal(err)
		}
		status, _ = p.PlaybackStatus()
		if status != types.PlaybackStatusPaused {
			t.Errorf("PlaybackStatus() = %v, want Paused", status)
		}

		if err := p.Play(); err != nil {
			t.Fatal(err)
		}
		status, _ = p.PlaybackStatus()
		if status != types.PlaybackStatusPlaying {
			t.Errorf("PlaybackStatus() = %v, want Playing", status)
		}

		if err := p.Stop(); err != nil {
			t.Fatal(err)
		}
		status, _ = p.PlaybackStatus()
		if status != types.PlaybackStatusStopped {
			t.Errorf("PlaybackStatus() = %v, want Stopped", status)
		}
	})
}

func TestPlayerAdapter_SeekRelative(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c, p := startPlayer(t)
		if _, err := c.Play("/music/a.mp3"); err != nil {
			t.Fatalf("Play: %v", err)
		}
		c.Pause()

		if err := p.Seek(types.Microseconds(30 * time.Second / time.Microsecond)); err != nil {
			t.Fatalf("Seek: %v", err)
		}
		pos, err := p.Position()
		if err != nil {
			t.Fatal(err)
		}
		if pos != (30 * time.Second).Microseconds() {
			t.Errorf("Position() = %d, want 30s", pos)
		}

		// Backwards past the start clamps to zero
		if err := p.Seek(types.Microseconds(-time.Minute / time.Microsecond)); err != nil {
			t.Fatalf("Seek: %v", err)
		}
		if pos, _ := p.Position(); pos != 0 {
			t.Errorf("Position() = %d, want 0", pos)
		}

		// Past the end stops
		if err := p.Seek(types.Microseconds(time.Hour / time.Microsecond)); err != nil {
			t.Fatalf("Seek: %v", err)
		}
		if status, _ := p.PlaybackStatus(); status != types.PlaybackStatusStopped {
			t.Errorf("PlaybackStatus() = %v, want Stopped", status)
		}
	})
}

func TestPlayerAdapter_SetPosition(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c, p := startPlayer(t)
		track, err := c.PlayTrack("/music/a.mp3")
		if err != nil {
			t.Fatalf("Play: %v", err)
		}
		c.Pause()
		id := formatTrackID(track)

		if err := p.SetPosition(id, types.Microseconds(time.Minute/time.Microsecond)); err != nil {
			t.Fatalf("SetPosition: %v", err)
		}
		if pos, _ := p.Position(); pos != time.Minute.Microseconds() {
			t.Errorf("Position() = %d, want 1m", pos)
		}

		// Stale track id is ignored
		if err := p.SetPosition("/org/mpris/MediaPlayer2/Track/other", 0); err != nil {
			t.Fatalf("SetPosition: %v", err)
		}
		// Beyond the end is ignored
		if err := p.SetPosition(id, types.Microseconds(time.Hour/time.Microsecond)); err != nil {
			t.Fatalf("SetPosition: %v", err)
		}
		if pos, _ := p.Position(); pos != time.Minute.Microseconds() {
			t.Errorf("Position() = %d, want unchanged 1m", pos)
		}
	})
}

func TestPlayerAdapter_Volume(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		_, p := startPlayer(t)

		if err := p.SetVolume(0.25); err != nil {
			t.Fatal(err)
		}
		v, err := p.Volume()
		if err != nil || v != 0.25 {
			t.Errorf("Volume() = %v, %v; want 0.25", v, err)
		}

		_ = p.SetVolume(4)
		if v, _ := p.Volume(); v != 1 {
			t.Errorf("Volume() = %v, want clamped 1", v)
		}
	})
}

func TestPlayerAdapter_Metadata(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "song.mp3")
		if err := os.WriteFile(path, []byte("not audio"), 0o600); err != nil {
			t.Fatal(err)
		}
		cover := filepath.Join(dir, "cover.jpg")
		if err := os.WriteFile(cover, []byte{0xff, 0xd8}, 0o600); err != nil {
			t.Fatal(err)
		}

		c, p := startPlayer(t)
		meta, err := p.Metadata()
		if err != nil || meta.TrackId != "" {
			t.Fatalf("Metadata() with nothing loaded = %+v, %v", meta, err)
		}

		track, err := c.PlayTrack(path)
		if err != nil {
			t.Fatalf("Play: %v", err)
		}

		meta, err = p.Metadata()
		if err != nil {
			t.Fatal(err)
		}
		if string(meta.TrackId) != formatTrackID(track) {
			t.Errorf("TrackId = %q, want %q", meta.TrackId, formatTrackID(track))
		}
		if meta.Length != types.Microseconds(trackLength.Microseconds()) {
			t.Errorf("Length = %d", meta.Length)
		}
		if meta.ArtUrl != "file://"+cover {
			t.Errorf("ArtUrl = %q", meta.ArtUrl)
		}
		if meta.Title == "" {
			t.Error("Title is empty")
		}
	})
}

func TestPlayerAdapter_OpenUri(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		_, p := startPlayer(t)

		if err := p.OpenUri("http://example.com/a.mp3"); err == nil {
			t.Error("expected error for http uri")
		}
		if err := p.OpenUri("file:///music/a.mp3"); err != nil {
			t.Fatalf("OpenUri: %v", err)
		}
		meta, _ := p.Metadata()
		if meta.TrackId == "" {
			t.Error("no track loaded after OpenUri")
		}
		if ok, _ := p.CanSeek(); !ok {
			t.Error("CanSeek() false for a seekable track")
		}
	})
}

func TestFormatTrackID(t *testing.T) {
	a := formatTrackID(engine.Track{Path: "/a.mp3", TrackSerial: 1})
	b := formatTrackID(engine.Track{Path: "/a.mp3", TrackSerial: 2})
	c := formatTrackID(engine.Track{Path: "/b.mp3", TrackSerial: 1})
	if a == b || a == c {
		t.Errorf("track ids not unique: %s %s %s", a, b, c)
	}
}
