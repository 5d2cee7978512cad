package catalog

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/llehouerou/wavesd/internal/db"
)

const selectColumns = `id, uri, title, artist, duration, album_id, is_favorite, play_count`

// SQLite is the durable Store backed by a local SQLite database.
type SQLite struct {
	db     *sql.DB
	ownsDB bool
	hub    *hub
	closed atomic.Bool
}

// Open opens (creating if needed) the catalog at path. ":memory:" opens a
// private in-memory catalog.
func Open(path string) (*SQLite, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if path == ":memory:" {
		// Every pooled connection would otherwise get its own empty database.
		conn.SetMaxOpenConns(1)
	} else {
		if _, err := conn.Exec("PRAGMA journal_mode = WAL"); err != nil {
			conn.Close()
			return nil, err
		}
		if _, err := conn.Exec("PRAGMA busy_timeout = 5000"); err != nil {
			conn.Close()
			return nil, err
		}
	}

	s, err := New(conn)
	if err != nil {
		conn.Close()
		return nil, err
	}
	s.ownsDB = true
	return s, nil
}

// New wraps an existing connection and ensures the schema exists. The
// caller keeps ownership of conn.
func New(conn *sql.DB) (*SQLite, error) {
	if err := initSchema(conn); err != nil {
		return nil, err
	}
	return &SQLite{db: conn, hub: newHub()}, nil
}

// DB exposes the underlying connection.
func (s *SQLite) DB() *sql.DB {
	return s.db
}

func (s *SQLite) ScanAll(ctx context.Context) ([]Item, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+selectColumns+`
		FROM songs
		ORDER BY title COLLATE NOCASE, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (s *SQLite) Watch(ctx context.Context) <-chan []Item {
	return s.hub.watch(ctx, s.ScanAll)
}

func (s *SQLite) GetByID(ctx context.Context, id int64) (*Item, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM songs WHERE id = ?`, id)
	it, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &it, nil
}

// InsertOrReplaceAll inserts new rows and refreshes the file metadata of
// existing ones. Play counts and favorites of existing rows are kept.
func (s *SQLite) InsertOrReplaceAll(ctx context.Context, items []Item) error {
	if s.closed.Load() {
		return writeErr("insert", ErrClosed)
	}
	if len(items) == 0 {
		return nil
	}

	err := db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO songs
				(id, uri, title, artist, duration, album_id, is_favorite, play_count)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				uri = excluded.uri,
				title = excluded.title,
				artist = excluded.artist,
				duration = excluded.duration,
				album_id = excluded.album_id
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, it := range items {
			it = normalize(it)
			if _, err := stmt.ExecContext(ctx,
				it.ID,
				it.Locator,
				it.Title,
				db.StringToNull(it.Artist),
				it.Duration.Milliseconds(),
				db.PtrToNullInt64(it.AlbumID),
				boolToInt(it.Favorite),
				it.PlayCount,
			); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return writeErr("insert", err)
	}

	s.hub.notify()
	return nil
}

func (s *SQLite) IncrementPlayCount(ctx context.Context, id int64) error {
	return s.update(ctx, "increment play count",
		`UPDATE songs SET play_count = play_count + 1 WHERE id = ?`, id)
}

func (s *SQLite) SetFavorite(ctx context.Context, id int64, favorite bool) error {
	return s.update(ctx, "set favorite",
		`UPDATE songs SET is_favorite = ? WHERE id = ?`, boolToInt(favorite), id)
}

func (s *SQLite) update(ctx context.Context, op, query string, args ...any) error {
	if s.closed.Load() {
		return writeErr(op, ErrClosed)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return writeErr(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return writeErr(op, err)
	}
	if n == 0 {
		return writeErr(op, ErrNotFound)
	}

	s.hub.notify()
	return nil
}

// Close stops all watchers and closes the database if Open created it.
func (s *SQLite) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	s.hub.close()
	if s.ownsDB {
		return s.db.Close()
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(r rowScanner) (Item, error) {
	var (
		it       Item
		artist   sql.NullString
		duration int64
		albumID  sql.NullInt64
		favorite int
	)
	if err := r.Scan(
		&it.ID,
		&it.Locator,
		&it.Title,
		&artist,
		&duration,
		&albumID,
		&favorite,
		&it.PlayCount,
	); err != nil {
		return Item{}, err
	}
	it.Artist = db.NullStringValue(artist)
	it.Duration = time.Duration(duration) * time.Millisecond
	it.AlbumID = db.NullInt64ToPtr(albumID)
	it.Favorite = favorite != 0
	return normalize(it), nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
