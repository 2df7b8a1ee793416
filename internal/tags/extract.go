package tags

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// now is replaced in tests.
var now = time.Now

// Track is everything the catalog records about a file being imported.
type Track struct {
	Path       string
	Title      string
	Artist     string
	Album      string
	DurationMs int64 // -1 when unknown
	Format     string
	Size       int64
	DateAdded  int // YYYYMMDD, local time
	Cover      []byte
	CoverMIME  string
}

// Extract gathers tags, duration, size and cover art for the file at path.
// Missing tags fall back to the file name, UnknownArtist and UnknownAlbum,
// and an undeterminable duration is -1. Only an unreadable file is an error.
func Extract(path string) (*Track, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	t := &Track{
		Path:       path,
		Title:      stem(path),
		Artist:     UnknownArtist,
		Album:      UnknownAlbum,
		DurationMs: -1,
		Format:     format(path),
		Size:       info.Size(),
		DateAdded:  dateStamp(now()),
	}

	if tag, err := Read(path); err == nil {
		t.Title = tag.Title
		switch {
		case tag.Artist != "":
			t.Artist = tag.Artist
		case tag.AlbumArtist != "":
			t.Artist = tag.AlbumArtist
		}
		if tag.Album != "" {
			t.Album = tag.Album
		}
	}

	if d, err := Duration(path); err == nil {
		t.DurationMs = d.Milliseconds()
	}

	if data, mime, err := ExtractCoverArt(path); err == nil && data != nil {
		t.Cover, t.CoverMIME = data, mime
	}

	return t, nil
}

// format returns the lowercase extension without its dot, or "unknown".
func format(path string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if ext == "" {
		return "unknown"
	}
	return ext
}

func dateStamp(t time.Time) int {
	n, _ := strconv.Atoi(t.Format("20060102"))
	return n
}
