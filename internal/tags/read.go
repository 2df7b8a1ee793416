package tags

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dhowden/tag"
	"go.senan.xyz/taglib"
)

// Read reads tag metadata from a music file. Title falls back to the file
// name without extension and AlbumArtist to Artist.
func Read(path string) (*Tag, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		if strings.ToLower(filepath.Ext(path)) == ExtMP3 {
			// dhowden/tag has issues with some UTF-16 encoded ID3 tags
			return readMP3WithID3v2Fallback(path)
		}
		// dhowden/tag can't parse some FLAC, Ogg and ffmpeg-created M4A files
		return readWithTaglib(path)
	}

	track, totalTracks := m.Track()
	disc, totalDiscs := m.Disc()

	t := &Tag{
		Path:        path,
		Title:       m.Title(),
		Artist:      m.Artist(),
		AlbumArtist: m.AlbumArtist(),
		Album:       m.Album(),
		Genre:       m.Genre(),
		Date:        yearToDate(m.Year()),
		TrackNumber: track,
		TotalTracks: totalTracks,
		DiscNumber:  disc,
		TotalDiscs:  totalDiscs,
	}

	// Full dates live in format-specific frames
	switch strings.ToLower(filepath.Ext(path)) {
	case ExtMP3:
		readMP3Date(path, t)
	case ExtFLAC:
		readFLACDate(path, t)
	}

	t.fillFallbacks()
	return t, nil
}

// readWithTaglib reads metadata through TagLib when dhowden/tag fails.
func readWithTaglib(path string) (*Tag, error) {
	rawTags, err := taglib.ReadTags(path)
	if err != nil {
		return nil, err
	}
	tags := taglibTags(rawTags)

	trackNum, trackTotal := tags.parseNumberPair(taglib.TrackNumber)
	discNum, discTotal := tags.parseNumberPair(taglib.DiscNumber)

	t := &Tag{
		Path:        path,
		Title:       tags.get(taglib.Title),
		Artist:      tags.get(taglib.Artist),
		AlbumArtist: tags.get(taglib.AlbumArtist),
		Album:       tags.get(taglib.Album),
		Genre:       tags.get(taglib.Genre),
		Date:        tags.get(taglib.Date, "YEAR"),
		TrackNumber: trackNum,
		TotalTracks: trackTotal,
		DiscNumber:  discNum,
		TotalDiscs:  discTotal,
	}
	t.fillFallbacks()
	return t, nil
}

func (t *Tag) fillFallbacks() {
	t.Title = strings.TrimSpace(t.Title)
	t.Artist = strings.TrimSpace(t.Artist)
	t.AlbumArtist = strings.TrimSpace(t.AlbumArtist)
	t.Album = strings.TrimSpace(t.Album)

	if t.Title == "" {
		t.Title = stem(t.Path)
	}
	if t.AlbumArtist == "" {
		t.AlbumArtist = t.Artist
	}
}

// stem returns the file name without its extension.
func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// yearToDate converts a year integer to a date string.
// Returns empty string for year 0.
func yearToDate(year int) string {
	if year == 0 {
		return ""
	}
	return strconv.Itoa(year)
}
