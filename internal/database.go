package internal

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const kvSchema = `
CREATE TABLE IF NOT EXISTS kv (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
)`

// OpenDatabase opens (creating if needed) the SQLite database holding client state
func OpenDatabase(path string) (*sqlx.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, &StorageError{Path: path, Op: "open", Err: err}
		}
	}

	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, &StorageError{Path: path, Op: "open", Err: err}
	}

	// One connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, &StorageError{Path: path, Op: "open", Err: fmt.Errorf("database ping failed: %w", err)}
	}

	if _, err := db.Exec(kvSchema); err != nil {
		db.Close()
		return nil, &StorageError{Path: path, Op: "open", Err: fmt.Errorf("failed to create schema: %w", err)}
	}

	return db, nil
}

// KeyValuePair represents a row of the kv table
type KeyValuePair struct {
	Key   string `db:"key"`
	Value string `db:"value"`
}

// QueryKV returns the rows whose keys are in keys
func QueryKV(db sqlx.Queryer, keys ...string) (map[string]string, error) {
	query, args, err := sqlx.In("SELECT key, value FROM kv WHERE key IN (?)", keys)
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var pairs []KeyValuePair
	if err := sqlx.Select(db, &pairs, query, args...); err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}

	values := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		values[pair.Key] = pair.Value
	}
	return values, nil
}
