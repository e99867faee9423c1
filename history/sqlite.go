package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dylan/swingtempo/swing"
	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS swings (
	position     INTEGER NOT NULL,
	id           TEXT PRIMARY KEY,
	backswing_ns INTEGER NOT NULL,
	downswing_ns INTEGER NOT NULL,
	ratio        REAL NOT NULL,
	quality      TEXT NOT NULL,
	timestamp    TEXT NOT NULL,
	recorded_at  INTEGER NOT NULL
)`

// SQLiteStore keeps history in a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// DefaultDBPath returns ~/.local/share/swingtempo/history.db.
func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "history.db"
	}
	return filepath.Join(home, ".local", "share", "swingtempo", "history.db")
}

// OpenSQLite opens (creating if needed) the database at path. An empty path
// uses DefaultDBPath.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path == "" {
		path = DefaultDBPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening history db: %w", err)
	}
	// A single connection serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Load(ctx context.Context) ([]Item, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, backswing_ns, downswing_ns,
		ratio, quality, timestamp, recorded_at
		FROM swings ORDER BY position ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		var back, down, recorded int64
		var quality string
		if err := rows.Scan(&it.ID, &back, &down, &it.Result.Ratio,
			&quality, &it.Timestamp, &recorded); err != nil {
			return nil, fmt.Errorf("scanning history: %w", err)
		}
		it.Result.Backswing = time.Duration(back)
		it.Result.Downswing = time.Duration(down)
		it.Result.Quality = swing.Quality(quality)
		it.RecordedAt = time.UnixMilli(recorded)
		items = append(items, it)
	}
	return items, rows.Err()
}

func (s *SQLiteStore) Save(ctx context.Context, items []Item) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM swings`); err != nil {
		return fmt.Errorf("clearing history: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO swings
		(position, id, backswing_ns, downswing_ns, ratio, quality, timestamp, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, it := range items {
		if _, err := stmt.ExecContext(ctx, i, it.ID,
			int64(it.Result.Backswing), int64(it.Result.Downswing),
			it.Result.Ratio, string(it.Result.Quality),
			it.Timestamp, it.RecordedAt.UnixMilli()); err != nil {
			return fmt.Errorf("inserting swing %s: %w", it.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing history: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
