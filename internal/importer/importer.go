// Package importer moves music files into the library directory and records
// them in the catalog.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"github.com/tamaureus/tamaureus/internal/audio"
	"github.com/tamaureus/tamaureus/internal/catalog"
	"github.com/tamaureus/tamaureus/internal/tags"
)

// Store records extracted tracks.
type Store interface {
	AddTrack(t catalog.ExtractedTrack) (id int64, duplicate bool, err error)
}

// Importer imports files into a Store, moving them under MusicDir first when
// it is set.
type Importer struct {
	store    Store
	musicDir string
	log      logrus.FieldLogger
	extract  func(path string) (*tags.Track, error)
}

// New returns an importer. An empty musicDir leaves files where they are.
func New(store Store, musicDir string, log logrus.FieldLogger) *Importer {
	return &Importer{
		store:    store,
		musicDir: musicDir,
		log:      log.WithField("component", "importer"),
		extract:  tags.Extract,
	}
}

// Result describes one imported file.
type Result struct {
	Source    string // path given to Import
	Path      string // path recorded in the catalog
	ID        int64
	Duplicate bool
	Moved     bool
	Size      int64
}

// Failure is a file ImportAll could not import.
type Failure struct {
	Path string
	Err  error
}

// Report summarizes an ImportAll run.
type Report struct {
	Imported   []Result
	Duplicates []Result
	Failed     []Failure
}

// Bytes is the total size of newly imported files.
func (r Report) Bytes() int64 {
	var n int64
	for _, res := range r.Imported {
		n += res.Size
	}
	return n
}

func (r Report) String() string {
	return fmt.Sprintf("%d imported (%s), %d already in library, %d failed",
		len(r.Imported), humanize.IBytes(uint64(max(r.Bytes(), 0))), //nolint:gosec // clamped non-negative
		len(r.Duplicates), len(r.Failed))
}

// Import moves path into the music directory when it lives outside it, then
// extracts its metadata and adds it to the store.
func (im *Importer) Import(ctx context.Context, path string) (Result, error) {
	res := Result{Source: path, Path: path}

	abs, err := filepath.Abs(path)
	if err != nil {
		return res, err
	}
	res.Path = abs

	if !audio.IsAudioFile(abs) {
		return res, fmt.Errorf("%s: %w", path, audio.ErrUnsupportedFormat)
	}

	if im.musicDir != "" && !within(im.musicDir, abs) {
		err := retryWithBackoff(ctx, "move file", func() error {
			moved, err := MoveToDir(abs, im.musicDir)
			if err == nil {
				res.Path = moved
			}
			return err
		})
		if err != nil {
			return res, err
		}
		res.Moved = true
		im.log.WithFields(logrus.Fields{"from": abs, "to": res.Path}).Debug("moved file")
	}

	t, err := im.extract(res.Path)
	if err != nil {
		return res, err
	}
	res.Size = t.Size

	res.ID, res.Duplicate, err = im.store.AddTrack(catalog.ExtractedTrack{
		Path:          t.Path,
		Title:         t.Title,
		Artist:        t.Artist,
		Album:         t.Album,
		DurationMs:    t.DurationMs,
		Format:        t.Format,
		Size:          t.Size,
		DateAdded:     t.DateAdded,
		Thumbnail:     t.Cover,
		ThumbnailMIME: t.CoverMIME,
	})
	if err != nil {
		return res, err
	}

	im.log.WithFields(logrus.Fields{
		"path":      res.Path,
		"id":        res.ID,
		"duplicate": res.Duplicate,
	}).Info("imported")
	return res, nil
}

// ImportAll imports every file in paths, descending into directories for
// supported audio files. Per-file failures are collected in the report; the
// error is only set when ctx is cancelled.
func (im *Importer) ImportAll(ctx context.Context, paths []string) (Report, error) {
	var report Report

	files, failed := collect(paths)
	report.Failed = append(report.Failed, failed...)

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		res, err := im.Import(ctx, f)
		switch {
		case err != nil:
			im.log.WithError(err).WithField("path", f).Warn("import failed")
			report.Failed = append(report.Failed, Failure{Path: f, Err: err})
		case res.Duplicate:
			report.Duplicates = append(report.Duplicates, res)
		default:
			report.Imported = append(report.Imported, res)
		}
	}
	return report, nil
}

// collect expands directories into the audio files below them. Plain files
// are kept as given so unsupported ones are reported.
func collect(paths []string) ([]string, []Failure) {
	var files []string
	var failed []Failure

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			failed = append(failed, Failure{Path: p, Err: err})
			continue
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}

		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				failed = append(failed, Failure{Path: path, Err: err})
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if !d.IsDir() && audio.IsAudioFile(path) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil && !errors.Is(err, fs.SkipDir) {
			failed = append(failed, Failure{Path: p, Err: err})
		}
	}
	return files, failed
}

// within reports whether path is dir or below it.
func within(dir, path string) bool {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(absDir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
