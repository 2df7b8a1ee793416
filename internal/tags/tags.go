// Package tags reads the metadata, duration and cover art that the catalog
// stores for a music file.
package tags

import (
	"strconv"
	"strings"
)

// File extensions supported by the tags package.
const (
	ExtMP3  = ".mp3"
	ExtFLAC = ".flac"
	ExtWAV  = ".wav"
	ExtOPUS = ".opus"
	ExtOGG  = ".ogg"
	ExtOGA  = ".oga"
	ExtM4A  = ".m4a"
	ExtMP4  = ".mp4"
)

// Fallbacks for missing tags.
const (
	UnknownArtist = "Unknown Artist"
	UnknownAlbum  = "Unknown Album"
)

const (
	mimeJPEG = "image/jpeg"
	mimePNG  = "image/png"
)

// id3Magic is the magic bytes for ID3v2 header detection.
const id3Magic = "ID3"

// Tag contains the tag metadata of a music file.
type Tag struct {
	Path        string
	Title       string
	Artist      string
	AlbumArtist string
	Album       string
	Genre       string
	TrackNumber int
	TotalTracks int
	DiscNumber  int
	TotalDiscs  int
	Date        string // YYYY-MM-DD or YYYY
}

// Year derives the year from the Date field.
// Returns 0 if Date is empty or cannot be parsed.
func (t *Tag) Year() int {
	if t.Date == "" {
		return 0
	}
	year := t.Date
	if len(year) > 4 {
		year = year[:4]
	}
	y, _ := strconv.Atoi(year)
	return y
}

// taglibTags wraps a taglib result map with helper methods.
type taglibTags map[string][]string

// get returns the first value for any of the given keys, or empty string if not found.
func (t taglibTags) get(keys ...string) string {
	for _, key := range keys {
		if values, ok := t[key]; ok && len(values) > 0 {
			return values[0]
		}
	}
	return ""
}

// parseNumberPair parses a track/disc number that may be "N" or "N/M" format.
func (t taglibTags) parseNumberPair(key string) (num, total int) {
	return parseTrackNumber(t.get(key))
}

// parseTrackNumber parses a track number string like "5" or "5/10".
func parseTrackNumber(s string) (num, total int) {
	if s == "" {
		return 0, 0
	}
	parts := strings.SplitN(s, "/", 2)
	num, _ = strconv.Atoi(parts[0])
	if len(parts) == 2 {
		total, _ = strconv.Atoi(parts[1])
	}
	return num, total
}
