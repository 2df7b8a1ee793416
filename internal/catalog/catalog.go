// Package catalog stores artists, albums and imported tracks in sqlite.
package catalog

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/tamaureus/tamaureus/internal/db"
)

// ErrEmptyName is returned when an artist name or album title is blank.
var ErrEmptyName = errors.New("empty name")

const settingMusicDir = "music_dir"

const schema = `
	CREATE TABLE IF NOT EXISTS artists (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE COLLATE NOCASE
	);

	CREATE TABLE IF NOT EXISTS albums (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL COLLATE NOCASE,
		artist_id INTEGER NOT NULL REFERENCES artists(id),
		UNIQUE(title, artist_id)
	);

	CREATE TABLE IF NOT EXISTS tracks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		file_path TEXT NOT NULL UNIQUE,
		title TEXT NOT NULL,
		artist_id INTEGER NOT NULL REFERENCES artists(id),
		album_id INTEGER NOT NULL REFERENCES albums(id),
		duration_ms INTEGER,
		file_format TEXT NOT NULL,
		file_size INTEGER NOT NULL,
		date_added INTEGER NOT NULL,
		thumbnail BLOB,
		thumbnail_mime TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_tracks_album ON tracks(album_id);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
`

type Artist struct {
	ID   int64
	Name string
}

type Album struct {
	ID       int64
	Title    string
	ArtistID int64
	Artist   string
}

// Track is a catalog row joined with its artist and album names.
type Track struct {
	ID         int64
	Path       string
	Title      string
	ArtistID   int64
	Artist     string
	AlbumID    int64
	Album      string
	DurationMs int64 // -1 when unknown
	Format     string
	Size       int64
	DateAdded  int // YYYYMMDD
}

// ExtractedTrack is what the tag extractor produces for a file about to be
// added.
type ExtractedTrack struct {
	Path          string
	Title         string
	Artist        string
	Album         string
	DurationMs    int64
	Format        string
	Size          int64
	DateAdded     int
	Thumbnail     []byte
	ThumbnailMIME string
}

// execQuerier is satisfied by both *sql.DB and *sql.Tx.
type execQuerier interface {
	Exec(query string, args ...any) (sql.Result, error)
	QueryRow(query string, args ...any) *sql.Row
}

type Catalog struct {
	db *sql.DB
}

// Open opens the database at path and creates the schema.
func Open(path string) (*Catalog, error) {
	database, err := db.Open(path)
	if err != nil {
		return nil, err
	}
	c, err := New(database)
	if err != nil {
		database.Close()
		return nil, err
	}
	return c, nil
}

// New wraps an open database, creating the schema if needed.
func New(database *sql.DB) (*Catalog, error) {
	if _, err := database.Exec(schema); err != nil {
		return nil, fmt.Errorf("create catalog schema: %w", err)
	}
	return &Catalog{db: database}, nil
}

func (c *Catalog) Close() error {
	return c.db.Close()
}

// FindOrCreateArtist returns the id of the artist named name, matched after
// trimming and without regard to case, creating it if needed.
func (c *Catalog) FindOrCreateArtist(name string) (int64, error) {
	return findOrCreateArtist(c.db, name)
}

// FindOrCreateAlbum returns the id of the album title by artistID, creating
// it if needed.
func (c *Catalog) FindOrCreateAlbum(title string, artistID int64) (int64, error) {
	return findOrCreateAlbum(c.db, title, artistID)
}

func findOrCreateArtist(q execQuerier, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("artist: %w", ErrEmptyName)
	}

	var id int64
	err := q.QueryRow(`SELECT id FROM artists WHERE name = ? COLLATE NOCASE`, name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}

	err = q.QueryRow(`INSERT INTO artists (name) VALUES (?) RETURNING id`, name).Scan(&id)
	return id, err
}

func findOrCreateAlbum(q execQuerier, title string, artistID int64) (int64, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return 0, fmt.Errorf("album: %w", ErrEmptyName)
	}

	var id int64
	err := q.QueryRow(`
		SELECT id FROM albums WHERE title = ? COLLATE NOCASE AND artist_id = ?
	`, title, artistID).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}

	err = q.QueryRow(`
		INSERT INTO albums (title, artist_id) VALUES (?, ?) RETURNING id
	`, title, artistID).Scan(&id)
	return id, err
}

// AddTrack records t with its artist and album in one transaction. A track
// whose path is already catalogued is left untouched and its existing id is
// returned with duplicate set.
func (c *Catalog) AddTrack(t ExtractedTrack) (id int64, duplicate bool, err error) {
	err = db.WithTx(c.db, func(tx *sql.Tx) error {
		artistID, err := findOrCreateArtist(tx, t.Artist)
		if err != nil {
			return err
		}
		albumID, err := findOrCreateAlbum(tx, t.Album, artistID)
		if err != nil {
			return err
		}

		res, err := tx.Exec(`
			INSERT OR IGNORE INTO tracks
				(file_path, title, artist_id, album_id, duration_ms, file_format,
				 file_size, date_added, thumbnail, thumbnail_mime)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, t.Path, t.Title, artistID, albumID, durationValue(t.DurationMs), t.Format,
			t.Size, t.DateAdded, blobValue(t.Thumbnail), db.NullString(t.ThumbnailMIME))
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		duplicate = n == 0

		return tx.QueryRow(`SELECT id FROM tracks WHERE file_path = ?`, t.Path).Scan(&id)
	})
	if err != nil {
		return 0, false, fmt.Errorf("add track %s: %w", t.Path, err)
	}
	return id, duplicate, nil
}

func durationValue(ms int64) sql.NullInt64 {
	return sql.NullInt64{Int64: ms, Valid: ms >= 0}
}

func blobValue(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}

// RemoveTrack deletes the track at path. It reports whether a row existed.
func (c *Catalog) RemoveTrack(path string) (bool, error) {
	res, err := c.db.Exec(`DELETE FROM tracks WHERE file_path = ?`, path)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (c *Catalog) Artists() ([]Artist, error) {
	rows, err := c.db.Query(`SELECT id, name FROM artists ORDER BY name COLLATE NOCASE`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var artists []Artist
	for rows.Next() {
		var a Artist
		if err := rows.Scan(&a.ID, &a.Name); err != nil {
			return nil, err
		}
		artists = append(artists, a)
	}
	return artists, rows.Err()
}

func (c *Catalog) Albums() ([]Album, error) {
	rows, err := c.db.Query(`
		SELECT al.id, al.title, al.artist_id, ar.name
		FROM albums al
		JOIN artists ar ON ar.id = al.artist_id
		ORDER BY ar.name COLLATE NOCASE, al.title COLLATE NOCASE
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var albums []Album
	for rows.Next() {
		var a Album
		if err := rows.Scan(&a.ID, &a.Title, &a.ArtistID, &a.Artist); err != nil {
			return nil, err
		}
		albums = append(albums, a)
	}
	return albums, rows.Err()
}

// Tracks returns every track ordered by artist, album and title.
func (c *Catalog) Tracks() ([]Track, error) {
	rows, err := c.db.Query(`
		SELECT t.id, t.file_path, t.title, t.artist_id, ar.name, t.album_id, al.title,
		       t.duration_ms, t.file_format, t.file_size, t.date_added
		FROM tracks t
		JOIN artists ar ON ar.id = t.artist_id
		JOIN albums al ON al.id = t.album_id
		ORDER BY ar.name COLLATE NOCASE, al.title COLLATE NOCASE, t.title COLLATE NOCASE
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tracks []Track
	for rows.Next() {
		var t Track
		var duration sql.NullInt64
		if err := rows.Scan(&t.ID, &t.Path, &t.Title, &t.ArtistID, &t.Artist,
			&t.AlbumID, &t.Album, &duration, &t.Format, &t.Size, &t.DateAdded); err != nil {
			return nil, err
		}
		t.DurationMs = db.NullInt64Value(duration, -1)
		tracks = append(tracks, t)
	}
	return tracks, rows.Err()
}

// Thumbnail returns the cover art stored for a track. Data is nil when the
// track has none.
func (c *Catalog) Thumbnail(trackID int64) (data []byte, mime string, err error) {
	var m sql.NullString
	err = c.db.QueryRow(`
		SELECT thumbnail, thumbnail_mime FROM tracks WHERE id = ?
	`, trackID).Scan(&data, &m)
	if err != nil {
		return nil, "", err
	}
	if len(data) == 0 {
		return nil, "", nil
	}
	return data, db.NullStringValue(m), nil
}

// SetMusicDir stores the import destination directory.
func (c *Catalog) SetMusicDir(dir string) error {
	_, err := c.db.Exec(`
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, settingMusicDir, dir)
	return err
}

// MusicDir returns the stored import destination, or "" when unset.
func (c *Catalog) MusicDir() (string, error) {
	var dir string
	err := c.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, settingMusicDir).Scan(&dir)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return dir, err
}
