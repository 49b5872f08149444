package storage

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/mvp-joe/code-xref/internal/graph"
)

// GraphReader reads graph snapshots from SQLite.
// Provides both the bulk read used to restore a graph and granular queries
// that answer without loading the whole snapshot.
type GraphReader struct {
	db *sql.DB
}

// NewGraphReader creates a GraphReader using an existing database connection.
func NewGraphReader(db *sql.DB) *GraphReader {
	return &GraphReader{db: db}
}

// HasSnapshot reports whether a snapshot has been written.
func (r *GraphReader) HasSnapshot() (bool, error) {
	var count int
	err := sq.Select("COUNT(*)").
		From("snapshot_metadata").
		Where(sq.Eq{"key": metaParsedAt}).
		RunWith(r.db).
		QueryRow().
		Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to query snapshot metadata: %w", err)
	}
	return count > 0, nil
}

// ReadSnapshot reconstructs the stored snapshot. Returns nil if none has
// been written.
//
// Steps:
//  1. Read metadata (absent means no snapshot)
//  2. Read files ordered by path
//  3. Read symbols ordered by ID
//  4. Read edges ordered by source, target and kind
func (r *GraphReader) ReadSnapshot() (*graph.Snapshot, error) {
	meta, err := r.readMetadata()
	if err != nil {
		return nil, err
	}
	if _, ok := meta[metaParsedAt]; !ok {
		return nil, nil
	}

	snap := &graph.Snapshot{ProjectRoot: meta[metaProjectRoot]}
	if snap.Metadata.ParsedAt, err = time.Parse(time.RFC3339Nano, meta[metaParsedAt]); err != nil {
		return nil, fmt.Errorf("invalid parsed_at %q: %w", meta[metaParsedAt], err)
	}

	if snap.Files, err = r.ReadFiles(); err != nil {
		return nil, err
	}
	if snap.Nodes, err = r.querySymbols(nil); err != nil {
		return nil, err
	}
	if snap.Edges, err = r.queryEdges(nil); err != nil {
		return nil, err
	}

	snap.Metadata.FileCount = len(snap.Files)
	snap.Metadata.NodeCount = len(snap.Nodes)
	snap.Metadata.EdgeCount = len(snap.Edges)
	if want, _ := strconv.Atoi(meta[metaEdgeCount]); want != len(snap.Edges) {
		return nil, fmt.Errorf("snapshot is inconsistent: metadata lists %d edges, found %d", want, len(snap.Edges))
	}
	return snap, nil
}

// ReadFiles returns every stored file path in sorted order.
func (r *GraphReader) ReadFiles() ([]string, error) {
	rows, err := sq.Select("file_path").
		From("files").
		OrderBy("file_path").
		RunWith(r.db).
		Query()
	if err != nil {
		return nil, fmt.Errorf("failed to query files: %w", err)
	}
	defer rows.Close()

	files := []string{}
	for rows.Next() {
		var f string
		if err := rows.Scan(&f); err != nil {
			return nil, fmt.Errorf("failed to scan file: %w", err)
		}
		files = append(files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating files: %w", err)
	}
	return files, nil
}

// readSymbolsByFile loads the symbols declared in one file.
func (r *GraphReader) readSymbolsByFile(filePath string) ([]graph.Symbol, error) {
	return r.querySymbols(sq.Eq{"file_path": filePath})
}

// readSymbolsByName loads every symbol with the exact unqualified name.
func (r *GraphReader) readSymbolsByName(name string) ([]graph.Symbol, error) {
	return r.querySymbols(sq.Eq{"name": name})
}

// readEdgesInto loads the edges whose target is id.
func (r *GraphReader) readEdgesInto(id string) ([]graph.Edge, error) {
	return r.queryEdges(sq.Eq{"target_id": id})
}

func (r *GraphReader) querySymbols(where sq.Sqlizer) ([]graph.Symbol, error) {
	q := sq.Select(
		"symbol_id", "file_path", "name", "kind", "scope",
		"start_line", "end_line", "is_exported", "language",
	).
		From("symbols").
		OrderBy("symbol_id")
	if where != nil {
		q = q.Where(where)
	}
	rows, err := q.RunWith(r.db).Query()
	if err != nil {
		return nil, fmt.Errorf("failed to query symbols: %w", err)
	}
	defer rows.Close()

	symbols := []graph.Symbol{}
	for rows.Next() {
		var s graph.Symbol
		var kind string
		var exported int
		err := rows.Scan(
			&s.ID, &s.FilePath, &s.Name, &kind, &s.Scope,
			&s.StartLine, &s.EndLine, &exported, &s.Language,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan symbol: %w", err)
		}
		s.Kind = graph.SymbolKind(kind)
		s.Exported = exported == 1
		symbols = append(symbols, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating symbols: %w", err)
	}
	return symbols, nil
}

func (r *GraphReader) queryEdges(where sq.Sqlizer) ([]graph.Edge, error) {
	q := sq.Select("source_id", "target_id", "kind", "file_path", "line").
		From("edges").
		OrderBy("source_id", "target_id", "kind")
	if where != nil {
		q = q.Where(where)
	}
	rows, err := q.RunWith(r.db).Query()
	if err != nil {
		return nil, fmt.Errorf("failed to query edges: %w", err)
	}
	defer rows.Close()

	edges := []graph.Edge{}
	for rows.Next() {
		var e graph.Edge
		var kind string
		if err := rows.Scan(&e.Source, &e.Target, &kind, &e.FilePath, &e.Line); err != nil {
			return nil, fmt.Errorf("failed to scan edge: %w", err)
		}
		e.Kind = graph.EdgeKind(kind)
		edges = append(edges, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating edges: %w", err)
	}
	return edges, nil
}

func (r *GraphReader) readMetadata() (map[string]string, error) {
	rows, err := sq.Select("key", "value").
		From("snapshot_metadata").
		RunWith(r.db).
		Query()
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot metadata: %w", err)
	}
	defer rows.Close()

	meta := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan metadata: %w", err)
		}
		meta[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating metadata: %w", err)
	}
	return meta, nil
}
