package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS files (
	ns    TEXT NOT NULL,
	path  TEXT NOT NULL,
	value BLOB NOT NULL,
	PRIMARY KEY (ns, path)
);
`

// SQLiteKV is a durable KV backed by a single SQLite database file.
type SQLiteKV struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(path string) (*SQLiteKV, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	// sqlite allows one writer; serializing through a single
	// connection avoids SQLITE_BUSY under concurrent calls.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create files table: %w", err)
	}
	return &SQLiteKV{db: db}, nil
}

// Close releases the database handle.
func (s *SQLiteKV) Close() error {
	return s.db.Close()
}

// Get implements KV.
func (s *SQLiteKV) Get(ctx context.Context, ns, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM files WHERE ns = ? AND path = ?`, ns, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite get: %w", err)
	}
	return value, nil
}

// Put implements KV.
func (s *SQLiteKV) Put(ctx context.Context, ns, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO files (ns, path, value) VALUES (?, ?, ?)
		 ON CONFLICT (ns, path) DO UPDATE SET value = excluded.value`,
		ns, key, value)
	if err != nil {
		return fmt.Errorf("sqlite put: %w", err)
	}
	return nil
}

// Delete implements KV.
func (s *SQLiteKV) Delete(ctx context.Context, ns, key string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM files WHERE ns = ? AND path = ?`, ns, key)
	if err != nil {
		return fmt.Errorf("sqlite delete: %w", err)
	}
	return nil
}

// Scan implements KV.
func (s *SQLiteKV) Scan(ctx context.Context, ns string) ([]Item, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT path, value FROM files WHERE ns = ? ORDER BY path`, ns)
	if err != nil {
		return nil, fmt.Errorf("sqlite scan: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.Key, &item.Value); err != nil {
			return nil, fmt.Errorf("sqlite scan row: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite scan rows: %w", err)
	}
	return items, nil
}
