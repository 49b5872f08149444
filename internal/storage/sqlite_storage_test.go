package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/code-xref/internal/graph"
)

// Test Plan for SQLiteStorage:
// - Load before any Save returns nil, Exists is false
// - Save then Load round-trips and persists across reopen
// - Open selects the JSON or SQLite backend and rejects unknown names

func TestSQLiteStorage_SaveAndLoad(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), ".xref")
	s, err := NewSQLiteStorage(dir)
	require.NoError(t, err)

	assert.False(t, s.Exists())
	snap, err := s.Load()
	require.NoError(t, err)
	assert.Nil(t, snap)

	want := sampleSnapshot()
	require.NoError(t, s.Save(want))
	assert.True(t, s.Exists())
	require.NoError(t, s.Close())

	_, err = os.Stat(filepath.Join(dir, DatabaseFileName))
	require.NoError(t, err)

	reopened, err := NewSQLiteStorage(dir)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Load()
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want.Nodes, got.Nodes)
	assert.Equal(t, want.Edges, got.Edges)

	callers, err := reopened.reader.readEdgesInto("a.ts::foo")
	require.NoError(t, err)
	assert.Len(t, callers, 2)
}

func TestOpen(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	jsonStore, err := Open("json", filepath.Join(dir, "json"))
	require.NoError(t, err)
	require.NoError(t, jsonStore.Save(sampleSnapshot()))
	require.NoError(t, jsonStore.Close())
	_, err = os.Stat(filepath.Join(dir, "json", graph.SnapshotFileName))
	assert.NoError(t, err)

	sqliteStore, err := Open("SQLite", filepath.Join(dir, "sqlite"))
	require.NoError(t, err)
	defer sqliteStore.Close()
	_, ok := sqliteStore.(*SQLiteStorage)
	assert.True(t, ok)

	_, err = Open("bolt", dir)
	assert.Error(t, err)
}
