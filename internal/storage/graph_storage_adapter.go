package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mvp-joe/code-xref/internal/graph"
)

// DatabaseFileName is the name of the SQLite snapshot database.
const DatabaseFileName = "xref-graph.db"

// Store is a graph.Storage holding resources that must be released.
type Store interface {
	graph.Storage
	Close() error
}

// Open returns the snapshot store for backend ("json" or "sqlite") in dir.
func Open(backend, dir string) (Store, error) {
	switch strings.ToLower(backend) {
	case "json", "":
		s, err := graph.NewStorage(dir)
		if err != nil {
			return nil, err
		}
		return nopCloser{s}, nil
	case "sqlite":
		return NewSQLiteStorage(dir)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}

type nopCloser struct {
	graph.Storage
}

func (nopCloser) Close() error { return nil }

// SQLiteStorage implements graph.Storage on a SQLite database.
type SQLiteStorage struct {
	db     *sql.DB
	path   string
	reader *GraphReader
	writer *GraphWriter
}

// NewSQLiteStorage opens (creating if needed) the snapshot database in dir.
func NewSQLiteStorage(dir string) (*SQLiteStorage, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	path := filepath.Join(dir, DatabaseFileName)

	// Foreign keys are per connection; the DSN applies them to every
	// connection of the pool
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := CreateSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStorage{
		db:     db,
		path:   path,
		reader: NewGraphReader(db),
		writer: NewGraphWriter(db),
	}, nil
}

// Load loads the stored snapshot. Returns nil if none has been saved yet.
func (s *SQLiteStorage) Load() (*graph.Snapshot, error) {
	snap, err := s.reader.ReadSnapshot()
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot %s: %w", s.path, err)
	}
	return snap, nil
}

// Save replaces the stored snapshot.
func (s *SQLiteStorage) Save(snap *graph.Snapshot) error {
	return s.writer.WriteSnapshot(snap)
}

// Exists checks if a snapshot has been saved.
func (s *SQLiteStorage) Exists() bool {
	ok, err := s.reader.HasSnapshot()
	return err == nil && ok
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
