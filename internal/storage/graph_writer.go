package storage

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/mvp-joe/code-xref/internal/graph"
)

// insertBatchSize bounds rows per INSERT, keeping well under SQLite's
// host parameter limit.
const insertBatchSize = 100

// GraphWriter writes graph snapshots to SQLite.
type GraphWriter struct {
	db *sql.DB
}

// NewGraphWriter creates a GraphWriter using an existing database connection.
// The schema must already be created via CreateSchema.
func NewGraphWriter(db *sql.DB) *GraphWriter {
	return &GraphWriter{db: db}
}

// WriteSnapshot replaces the stored snapshot in a single transaction.
//
// Steps:
//  1. Begin transaction
//  2. Clear existing rows (edges, then symbols, then files)
//  3. Insert files, symbols and edges in batches
//  4. Record metadata counts and timestamp
//  5. Commit transaction
func (w *GraphWriter) WriteSnapshot(snap *graph.Snapshot) error {
	if snap == nil {
		return fmt.Errorf("snapshot cannot be nil")
	}

	tx, err := w.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Safe to call even after commit

	// Reverse dependency order to avoid FK violations
	for _, table := range []string{"edges", "symbols", "files"} {
		if _, err := sq.Delete(table).RunWith(tx).Exec(); err != nil {
			return fmt.Errorf("failed to clear existing data (%s): %w", table, err)
		}
	}

	if err := writeFiles(tx, snap); err != nil {
		return fmt.Errorf("failed to write files: %w", err)
	}
	if err := writeSymbols(tx, snap.Nodes); err != nil {
		return fmt.Errorf("failed to write symbols: %w", err)
	}
	if err := writeEdges(tx, snap.Edges); err != nil {
		return fmt.Errorf("failed to write edges: %w", err)
	}
	if err := writeMetadata(tx, snap); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// writeFiles inserts the snapshot's files. Files that only appear through
// their symbols are included so the symbols' foreign keys hold.
func writeFiles(tx *sql.Tx, snap *graph.Snapshot) error {
	languages := make(map[string]string)
	order := make([]string, 0, len(snap.Files))
	seen := make(map[string]bool)
	for _, f := range snap.Files {
		if !seen[f] {
			seen[f] = true
			order = append(order, f)
		}
	}
	for _, sym := range snap.Nodes {
		if !seen[sym.FilePath] {
			seen[sym.FilePath] = true
			order = append(order, sym.FilePath)
		}
		if sym.Kind == graph.KindModule && sym.Language != "" {
			languages[sym.FilePath] = sym.Language
		}
	}

	for start := 0; start < len(order); start += insertBatchSize {
		end := min(start+insertBatchSize, len(order))
		q := sq.Insert("files").Columns("file_path", "language")
		for _, f := range order[start:end] {
			q = q.Values(f, languages[f])
		}
		if _, err := q.RunWith(tx).Exec(); err != nil {
			return fmt.Errorf("failed to insert files: %w", err)
		}
	}
	return nil
}

func writeSymbols(tx *sql.Tx, symbols []graph.Symbol) error {
	for start := 0; start < len(symbols); start += insertBatchSize {
		end := min(start+insertBatchSize, len(symbols))
		q := sq.Insert("symbols").Columns(
			"symbol_id", "file_path", "name", "kind", "scope",
			"start_line", "end_line", "is_exported", "language",
		)
		for _, s := range symbols[start:end] {
			q = q.Values(
				s.ID, s.FilePath, s.Name, string(s.Kind), s.Scope,
				s.StartLine, s.EndLine, boolToInt(s.Exported), s.Language,
			)
		}
		if _, err := q.RunWith(tx).Exec(); err != nil {
			return fmt.Errorf("failed to insert symbols: %w", err)
		}
	}
	return nil
}

func writeEdges(tx *sql.Tx, edges []graph.Edge) error {
	for start := 0; start < len(edges); start += insertBatchSize {
		end := min(start+insertBatchSize, len(edges))
		q := sq.Insert("edges").Columns("source_id", "target_id", "kind", "file_path", "line")
		for _, e := range edges[start:end] {
			q = q.Values(e.Source, e.Target, string(e.Kind), e.FilePath, e.Line)
		}
		if _, err := q.RunWith(tx).Exec(); err != nil {
			return fmt.Errorf("failed to insert edges: %w", err)
		}
	}
	return nil
}

func writeMetadata(tx *sql.Tx, snap *graph.Snapshot) error {
	parsedAt := snap.Metadata.ParsedAt
	if parsedAt.IsZero() {
		parsedAt = time.Now().UTC()
	}
	now := time.Now().UTC().Format(time.RFC3339)

	values := map[string]string{
		metaProjectRoot: snap.ProjectRoot,
		metaParsedAt:    parsedAt.UTC().Format(time.RFC3339Nano),
		metaFileCount:   strconv.Itoa(len(snap.Files)),
		metaNodeCount:   strconv.Itoa(len(snap.Nodes)),
		metaEdgeCount:   strconv.Itoa(len(snap.Edges)),
	}
	for key, value := range values {
		_, err := sq.Insert("snapshot_metadata").
			Columns("key", "value", "updated_at").
			Values(key, value, now).
			Suffix("ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at").
			RunWith(tx).
			Exec()
		if err != nil {
			return fmt.Errorf("failed to upsert %s: %w", key, err)
		}
	}
	return nil
}

// Metadata keys
const (
	metaProjectRoot = "project_root"
	metaParsedAt    = "parsed_at"
	metaFileCount   = "file_count"
	metaNodeCount   = "node_count"
	metaEdgeCount   = "edge_count"
)

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
