package storage

import (
	"database/sql"
	"fmt"
	"time"
)

// SchemaVersion is the version written to snapshot_metadata by CreateSchema.
const SchemaVersion = "1"

// CreateSchema creates the snapshot tables and indexes if they do not exist.
// Uses a transaction so schema creation succeeds or fails as a whole.
//
// Must be called with SQLite PRAGMA foreign_keys = ON.
func CreateSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin schema transaction: %w", err)
	}
	defer tx.Rollback() // Safe to call even after commit

	// Create all tables in dependency order
	tables := []struct {
		name string
		ddl  string
	}{
		{"files", createFilesTable},
		{"symbols", createSymbolsTable},
		{"edges", createEdgesTable},
		{"snapshot_metadata", createMetadataTable},
	}
	for _, table := range tables {
		if _, err := tx.Exec(table.ddl); err != nil {
			return fmt.Errorf("failed to create %s table: %w", table.name, err)
		}
	}

	for i, idx := range allIndexes {
		if _, err := tx.Exec(idx); err != nil {
			return fmt.Errorf("failed to create index %d: %w", i+1, err)
		}
	}

	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := tx.Exec(`
		INSERT INTO snapshot_metadata (key, value, updated_at)
		VALUES ('schema_version', ?, ?)
		ON CONFLICT(key) DO NOTHING
	`, SchemaVersion, now); err != nil {
		return fmt.Errorf("failed to bootstrap snapshot_metadata: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit schema transaction: %w", err)
	}
	return nil
}

// GetSchemaVersion retrieves the schema version from snapshot_metadata.
// Returns "0" if the table doesn't exist (new database).
func GetSchemaVersion(db *sql.DB) (string, error) {
	var tableExists int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='snapshot_metadata'").Scan(&tableExists)
	if err != nil {
		return "", fmt.Errorf("failed to check snapshot_metadata existence: %w", err)
	}
	if tableExists == 0 {
		return "0", nil
	}

	var version string
	err = db.QueryRow("SELECT value FROM snapshot_metadata WHERE key = 'schema_version'").Scan(&version)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("schema_version key not found in snapshot_metadata")
	}
	if err != nil {
		return "", fmt.Errorf("failed to query schema version: %w", err)
	}
	return version, nil
}

// Table DDL constants

const createFilesTable = `
CREATE TABLE IF NOT EXISTS files (
    file_path TEXT PRIMARY KEY,                  -- Project-relative, slash separated
    language TEXT NOT NULL DEFAULT ''            -- typescript, tsx, javascript, python, go
)
`

const createSymbolsTable = `
CREATE TABLE IF NOT EXISTS symbols (
    symbol_id TEXT PRIMARY KEY,                  -- {file_path}::{scope.}{name}
    file_path TEXT NOT NULL,
    name TEXT NOT NULL,
    kind TEXT NOT NULL,                          -- module, class, function, import, ...
    scope TEXT NOT NULL DEFAULT '',              -- Enclosing class or namespace
    start_line INTEGER NOT NULL,
    end_line INTEGER NOT NULL,
    is_exported INTEGER NOT NULL DEFAULT 0,      -- Boolean
    language TEXT NOT NULL DEFAULT '',           -- Set on module symbols only
    FOREIGN KEY (file_path) REFERENCES files(file_path) ON DELETE CASCADE
)
`

const createEdgesTable = `
CREATE TABLE IF NOT EXISTS edges (
    source_id TEXT NOT NULL,
    target_id TEXT NOT NULL,
    kind TEXT NOT NULL,                          -- imports, calls, extends, ...
    file_path TEXT NOT NULL,                     -- Where the relationship occurs
    line INTEGER NOT NULL,
    PRIMARY KEY (source_id, target_id, kind),
    FOREIGN KEY (source_id) REFERENCES symbols(symbol_id) ON DELETE CASCADE,
    FOREIGN KEY (target_id) REFERENCES symbols(symbol_id) ON DELETE CASCADE
)
`

const createMetadataTable = `
CREATE TABLE IF NOT EXISTS snapshot_metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TEXT NOT NULL                     -- ISO 8601
)
`

var allIndexes = []string{
	"CREATE INDEX IF NOT EXISTS idx_symbols_file ON symbols(file_path)",
	"CREATE INDEX IF NOT EXISTS idx_symbols_name ON symbols(name)",
	"CREATE INDEX IF NOT EXISTS idx_edges_target ON edges(target_id)",
	"CREATE INDEX IF NOT EXISTS idx_edges_file ON edges(file_path)",
}
