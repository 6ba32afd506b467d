package store

import (
	"database/sql"

	_ "modernc.org/sqlite"

	"github.com/evertrade/vendorgate/internal/errors"
)

// SQLiteKV is a KV backed by a single-table SQLite database.
//
// Useful when several tools on one machine share a session (the SQLite
// write lock gives cross-process atomicity the JSON file cannot).
type SQLiteKV struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) a SQLite-backed store at path.
func OpenSQLite(path string) (*SQLiteKV, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreOpenFailed, "cannot open store database", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrap(errors.ErrCodeStoreOpenFailed, "store database ping failed", err)
	}

	const schema = `CREATE TABLE IF NOT EXISTS kv (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(errors.ErrCodeStoreOpenFailed, "cannot create kv table", err)
	}

	return &SQLiteKV{db: db}, nil
}

// Get returns the value for key and whether it was present
func (kv *SQLiteKV) Get(key string) (string, bool, error) {
	var value string
	err := kv.db.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrap(errors.ErrCodeStoreReadFailed, "kv query failed", err)
	}
	return value, true, nil
}

// Set writes key to value, replacing any previous value
func (kv *SQLiteKV) Set(key, value string) error {
	_, err := kv.db.Exec(
		"INSERT INTO kv (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreWriteFailed, "kv upsert failed", err)
	}
	return nil
}

// Delete removes key
func (kv *SQLiteKV) Delete(key string) error {
	if _, err := kv.db.Exec("DELETE FROM kv WHERE key = ?", key); err != nil {
		return errors.Wrap(errors.ErrCodeStoreWriteFailed, "kv delete failed", err)
	}
	return nil
}

// Close closes the underlying database
func (kv *SQLiteKV) Close() error {
	return kv.db.Close()
}
