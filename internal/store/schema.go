package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const SchemaSQL = `
CREATE TABLE IF NOT EXISTS runs (
    run_id TEXT PRIMARY KEY,
    source TEXT NOT NULL,
    fetched_at TEXT NOT NULL,
    document_score REAL NOT NULL,
    segments INTEGER NOT NULL,
    scored INTEGER NOT NULL,
    weights_note TEXT
);

CREATE TABLE IF NOT EXISTS segment_scores (
    run_id TEXT NOT NULL,
    segment_id TEXT NOT NULL,
    type TEXT NOT NULL,
    length_chars INTEGER NOT NULL,
    score REAL NOT NULL,
    confidence TEXT NOT NULL,
    counter_evidence INTEGER NOT NULL,
    PRIMARY KEY (run_id, segment_id)
);
`

// Open opens the history database at path, creating the schema when it
// does not exist yet
func Open(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(SchemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return db, nil
}
