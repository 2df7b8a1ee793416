package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/tamaureus/tamaureus/internal/catalog"
	"github.com/tamaureus/tamaureus/internal/errmsg"
)

// printListing writes one catalog view to w. what is "", "tracks",
// "artists" or "albums".
func printListing(w io.Writer, c *catalog.Catalog, what string) error {
	switch what {
	case "", "tracks":
		return printTracks(w, c)
	case "artists":
		return printArtists(w, c)
	case "albums":
		return printAlbums(w, c)
	default:
		return fmt.Errorf("list: unknown view %q", what)
	}
}

func printTracks(w io.Writer, c *catalog.Catalog) error {
	tracks, err := c.Tracks()
	if err != nil {
		return errors.New(errmsg.Format(errmsg.OpCatalogList, err))
	}
	var total int64
	for _, t := range tracks {
		fmt.Fprintf(w, "%s - %s - %s (%s)\n", t.Artist, t.Album, t.Title, trackLength(t.DurationMs))
		total += t.Size
	}
	fmt.Fprintf(w, "%d tracks, %s\n", len(tracks), humanize.IBytes(uint64(total)))
	return nil
}

func printArtists(w io.Writer, c *catalog.Catalog) error {
	artists, err := c.Artists()
	if err != nil {
		return errors.New(errmsg.Format(errmsg.OpCatalogList, err))
	}
	for _, a := range artists {
		fmt.Fprintln(w, a.Name)
	}
	fmt.Fprintf(w, "%d artists\n", len(artists))
	return nil
}

func printAlbums(w io.Writer, c *catalog.Catalog) error {
	albums, err := c.Albums()
	if err != nil {
		return errors.New(errmsg.Format(errmsg.OpCatalogList, err))
	}
	for _, a := range albums {
		fmt.Fprintf(w, "%s - %s\n", a.Artist, a.Title)
	}
	fmt.Fprintf(w, "%d albums\n", len(albums))
	return nil
}

func trackLength(ms int64) string {
	if ms < 0 {
		return "--:--"
	}
	d := time.Duration(ms) * time.Millisecond
	return fmt.Sprintf("%d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}

// removeTracks forgets the given files. The files themselves stay on disk.
func removeTracks(w io.Writer, c *catalog.Catalog, paths []string) error {
	var missing int
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return errors.New(errmsg.FormatWith(errmsg.OpCatalogRemove, p, err))
		}
		removed, err := c.RemoveTrack(abs)
		if err != nil {
			return errors.New(errmsg.FormatWith(errmsg.OpCatalogRemove, p, err))
		}
		if !removed {
			fmt.Fprintf(w, "not in library: %s\n", p)
			missing++
		}
	}
	fmt.Fprintf(w, "%d removed\n", len(paths)-missing)
	return nil
}
