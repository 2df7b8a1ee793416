package tags

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/bogem/id3v2/v2"
)

func fixedNow(t *testing.T, at time.Time) {
	t.Helper()
	prev := now
	now = func() time.Time { return at }
	t.Cleanup(func() { now = prev })
}

func TestExtract_MP3(t *testing.T) {
	fixedNow(t, time.Date(2024, time.January, 15, 23, 0, 0, 0, time.Local))

	dir := t.TempDir()
	path := createTaggedMP3(t, dir, "01 - money.mp3", func(tag *id3v2.Tag) {
		tag.SetTitle("Money")
		tag.SetArtist("Pink Floyd")
		tag.SetAlbum("The Dark Side of the Moon")
	})
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}

	track, err := Extract(path)
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}

	assertEqual(t, "Path", track.Path, path)
	assertEqual(t, "Title", track.Title, "Money")
	assertEqual(t, "Artist", track.Artist, "Pink Floyd")
	assertEqual(t, "Album", track.Album, "The Dark Side of the Moon")
	assertEqual(t, "Format", track.Format, "mp3")
	assertEqual(t, "Size", track.Size, info.Size())
	assertEqual(t, "DateAdded", track.DateAdded, 20240115)
}

func TestExtract_Fallbacks(t *testing.T) {
	dir := t.TempDir()
	path := createTaggedMP3(t, dir, "untitled demo.mp3", func(tag *id3v2.Tag) {
		tag.SetGenre("Rock")
	})

	track, err := Extract(path)
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}

	assertEqual(t, "Title", track.Title, "untitled demo")
	assertEqual(t, "Artist", track.Artist, UnknownArtist)
	assertEqual(t, "Album", track.Album, UnknownAlbum)
}

func TestExtract_AlbumArtistWhenNoArtist(t *testing.T) {
	dir := t.TempDir()
	path := createTaggedMP3(t, dir, "a.mp3", func(tag *id3v2.Tag) {
		tag.AddTextFrame("TPE2", id3v2.EncodingUTF8, "Various Artists")
	})

	track, err := Extract(path)
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	assertEqual(t, "Artist", track.Artist, "Various Artists")
}

func TestExtract_UntaggedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "noise.wav")
	if err := os.WriteFile(path, []byte("not really audio"), 0o600); err != nil {
		t.Fatal(err)
	}

	track, err := Extract(path)
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}

	assertEqual(t, "Title", track.Title, "noise")
	assertEqual(t, "Artist", track.Artist, UnknownArtist)
	assertEqual(t, "DurationMs", track.DurationMs, int64(-1))
	assertEqual(t, "Format", track.Format, "wav")
	assertEqual(t, "Size", track.Size, int64(16))
}

func TestExtract_FolderCover(t *testing.T) {
	dir := t.TempDir()
	path := createTestMP3(t, dir, nil)
	png := []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}
	if err := os.WriteFile(filepath.Join(dir, "cover.png"), png, 0o600); err != nil {
		t.Fatal(err)
	}

	track, err := Extract(path)
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	assertEqual(t, "CoverMIME", track.CoverMIME, mimePNG)
	assertEqual(t, "len(Cover)", len(track.Cover), len(png))
}

func TestExtract_Missing(t *testing.T) {
	if _, err := Extract("/nonexistent/file.mp3"); err == nil {
		t.Error("expected error for nonexistent file")
	}
	if _, err := Extract(t.TempDir()); err == nil {
		t.Error("expected error for a directory")
	}
}

func TestExtract_FLAC(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tone.flac")

	cmd := exec.Command("ffmpeg", "-y", "-f", "lavfi", "-i", "sine=frequency=440:duration=2",
		"-metadata", "title=Tone", "-metadata", "artist=Generator",
		"-metadata", "album=Test Signals", "-metadata", "date=2019-06-01",
		"-c:a", "flac", path)
	if err := cmd.Run(); err != nil {
		t.Skipf("ffmpeg not available: %v", err)
	}

	track, err := Extract(path)
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	assertEqual(t, "Title", track.Title, "Tone")
	assertEqual(t, "Artist", track.Artist, "Generator")
	assertEqual(t, "Album", track.Album, "Test Signals")
	assertEqual(t, "Format", track.Format, "flac")
	if track.DurationMs < 1900 || track.DurationMs > 2100 {
		t.Errorf("DurationMs = %d, want about 2000", track.DurationMs)
	}

	tag, err := Read(path)
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	assertEqual(t, "Date", tag.Date, "2019-06-01")
	assertEqual(t, "Year", tag.Year(), 2019)
}

func TestTag_Year(t *testing.T) {
	tests := []struct {
		date string
		want int
	}{
		{"", 0},
		{"2024", 2024},
		{"2024-03-15", 2024},
		{"invalid", 0},
	}
	for _, tt := range tests {
		tag := &Tag{Date: tt.date}
		if got := tag.Year(); got != tt.want {
			t.Errorf("Year() for %q = %d, want %d", tt.date, got, tt.want)
		}
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/music/a.MP3", "mp3"},
		{"/music/a.flac", "flac"},
		{"/music/a.tar.opus", "opus"},
		{"/music/noext", "unknown"},
	}
	for _, tt := range tests {
		assertEqual(t, tt.path, format(tt.path), tt.want)
	}
}

func TestDateStamp(t *testing.T) {
	assertEqual(t, "dateStamp", dateStamp(time.Date(1999, time.December, 31, 12, 0, 0, 0, time.UTC)), 19991231)
	assertEqual(t, "dateStamp", dateStamp(time.Date(2024, time.February, 3, 0, 0, 0, 0, time.UTC)), 20240203)
}

func TestDuration_Unsupported(t *testing.T) {
	if _, err := Duration("/music/notes.txt"); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func assertEqual[T comparable](t *testing.T, field string, got, want T) {
	t.Helper()
	if got != want {
		t.Errorf("%s = %v, want %v", field, got, want)
	}
}
