package graph

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	// SnapshotFileName is the name of the graph snapshot file
	SnapshotFileName = "xref-graph.json"
)

// Storage handles reading and writing graph snapshots.
type Storage interface {
	// Load loads the snapshot. Returns nil if none has been saved yet.
	Load() (*Snapshot, error)

	// Save persists the snapshot.
	Save(s *Snapshot) error

	// Exists checks if a snapshot has been saved.
	Exists() bool
}

// storage implements Storage as a JSON file with atomic writes.
type storage struct {
	graphDir string // Directory containing snapshot file
}

// NewStorage creates a JSON file storage rooted at graphDir.
func NewStorage(graphDir string) (Storage, error) {
	if err := os.MkdirAll(graphDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create graph directory: %w", err)
	}

	// Temp directory lives next to the final file so rename stays on one filesystem
	tempDir := filepath.Join(graphDir, ".tmp")
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	return &storage{graphDir: graphDir}, nil
}

// Load loads the snapshot from disk.
func (s *storage) Load() (*Snapshot, error) {
	data, err := os.ReadFile(s.snapshotPath())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot file: %w", err)
	}

	snap, err := ReadSnapshot(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse snapshot %s: %w", s.snapshotPath(), err)
	}
	return snap, nil
}

// Save writes the snapshot to a temp file and renames it into place.
func (s *storage) Save(snap *Snapshot) error {
	snap.Metadata.FileCount = len(snap.Files)
	snap.Metadata.NodeCount = len(snap.Nodes)
	snap.Metadata.EdgeCount = len(snap.Edges)
	if snap.Metadata.ParsedAt.IsZero() {
		snap.Metadata.ParsedAt = time.Now().UTC()
	}

	var buf bytes.Buffer
	if err := WriteSnapshot(&buf, snap); err != nil {
		return err
	}

	tempPath := filepath.Join(s.graphDir, ".tmp", SnapshotFileName)
	if err := os.WriteFile(tempPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write temp snapshot file: %w", err)
	}

	// Atomic rename (POSIX guarantees atomicity)
	if err := os.Rename(tempPath, s.snapshotPath()); err != nil {
		return fmt.Errorf("failed to rename temp snapshot file: %w", err)
	}
	return nil
}

// Exists checks if the snapshot file exists.
func (s *storage) Exists() bool {
	_, err := os.Stat(s.snapshotPath())
	return err == nil
}

func (s *storage) snapshotPath() string {
	return filepath.Join(s.graphDir, SnapshotFileName)
}
