package cache

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS cache_entries (
	key TEXT PRIMARY KEY,
	timestamp TEXT NOT NULL,
	data TEXT NOT NULL
);`

// SQLiteStore keeps one row per cache key. An empty table reads as ErrNoCache.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore opens (or creates) the database at path and applies the schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply sqlite schema: %w", err)
	}

	return &SQLiteStore{db: db, path: path}, nil
}

func (s *SQLiteStore) Location() string {
	return "sqlite://" + s.path
}

func (s *SQLiteStore) Load(ctx context.Context) (Entries, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, timestamp, data FROM cache_entries`)
	if err != nil {
		return nil, fmt.Errorf("query cache entries: %w", err)
	}
	defer rows.Close()

	entries := make(Entries)
	for rows.Next() {
		var key, ts, data string
		if err := rows.Scan(&key, &ts, &data); err != nil {
			return nil, fmt.Errorf("scan cache entry: %w", err)
		}
		entries[key] = Entry{Timestamp: ts, Data: []byte(data)}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cache entries: %w", err)
	}

	if len(entries) == 0 {
		return nil, ErrNoCache
	}
	return entries, nil
}

// Save replaces the table contents in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, entries Entries) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM cache_entries`); err != nil {
		return fmt.Errorf("clear cache entries: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO cache_entries(key, timestamp, data) VALUES(?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for key, entry := range entries {
		if _, err = stmt.ExecContext(ctx, key, entry.Timestamp, string(entry.Data)); err != nil {
			return fmt.Errorf("insert %q: %w", key, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Remove(ctx context.Context) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM cache_entries`)
	if err != nil {
		return false, fmt.Errorf("delete cache entries: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
