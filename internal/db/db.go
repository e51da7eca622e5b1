// Package db keeps the SQLite ledger of pipeline runs.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DefaultFile is the ledger file name inside a corpus cache directory.
const DefaultFile = "runs.db"

// DB is an open ledger database.
type DB struct {
	*sql.DB
	path string
}

// Open opens the ledger at path, creating the file and its directory on
// first use, and brings the schema up to date.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating ledger directory: %w", err)
	}
	return open(path, path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", 0)
}

// OpenMemory opens an empty in-memory ledger. It is pinned to a single
// connection since each connection would see its own database.
func OpenMemory() (*DB, error) {
	return open(":memory:", ":memory:?_pragma=foreign_keys(1)", 1)
}

func open(path, dsn string, maxConns int) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening ledger %s: %w", path, err)
	}
	if maxConns > 0 {
		sqlDB.SetMaxOpenConns(maxConns)
	}

	d := &DB{DB: sqlDB, path: path}
	if err := d.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("pinging ledger %s: %w", path, err)
	}
	if _, err := d.Exec(schema); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrating ledger %s: %w", path, err)
	}
	return d, nil
}

// Path returns the database location.
func (d *DB) Path() string { return d.path }

// schema is applied on every open; statements must stay idempotent.
const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    created_at TEXT NOT NULL,
    corpus TEXT NOT NULL,
    output_dir TEXT NOT NULL DEFAULT '',
    llm TEXT NOT NULL DEFAULT '',
    model TEXT NOT NULL DEFAULT '',
    vectorstore TEXT NOT NULL DEFAULT '',
    fingerprint TEXT NOT NULL DEFAULT '',
    questions INTEGER NOT NULL DEFAULT 0,
    latency_secs REAL NOT NULL DEFAULT 0,
    status TEXT NOT NULL DEFAULT 'running' CHECK(status IN ('running','completed','failed')),
    error TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_runs_corpus ON runs(corpus, created_at);

CREATE TABLE IF NOT EXISTS answers (
    run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    question TEXT NOT NULL,
    kind TEXT NOT NULL,
    value TEXT NOT NULL,
    refs TEXT NOT NULL DEFAULT '[]',
    PRIMARY KEY (run_id, position)
);

CREATE TABLE IF NOT EXISTS scores (
    run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    metric TEXT NOT NULL,
    score REAL NOT NULL,
    PRIMARY KEY (run_id, metric)
);
`
