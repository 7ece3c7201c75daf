package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"imagesync/logging"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		source_a TEXT NOT NULL,
		source_b TEXT NOT NULL,
		output_root TEXT NOT NULL,
		threshold REAL NOT NULL,
		outcome TEXT,
		similar_groups INTEGER DEFAULT 0,
		unique_images INTEGER DEFAULT 0,
		total_processed INTEGER DEFAULT 0,
		errors INTEGER DEFAULT 0,
		message TEXT
	);
	CREATE TABLE IF NOT EXISTS moves (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(id),
		source_path TEXT NOT NULL,
		dest_path TEXT,
		group_key TEXT,
		taken_at TEXT,
		status TEXT NOT NULL,
		error TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_moves_run ON moves(run_id);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);`

// InitDatabase opens the journal at dbPath, creating the file and schema
// when needed
func InitDatabase(dbPath string) (*sql.DB, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create journal directory: %w", err)
		}
	}

	db, err := OpenDatabase(dbPath)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("create journal schema: %w", err)
	}

	logging.DebugLog("Journal ready at %s", dbPath)
	return db, nil
}

// OpenDatabase opens an existing journal
func OpenDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open journal %s: %w", dbPath, err)
	}
	// Single writer
	db.SetMaxOpenConns(1)
	return db, nil
}
