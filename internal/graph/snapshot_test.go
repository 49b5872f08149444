package graph

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for snapshots:
// - Export then import reproduces nodes, edges, files and languages
// - Edges listed before their nodes still import
// - JSON encoding round-trips
// - Malformed JSON is an error

func TestSnapshot_RoundTrip(t *testing.T) {
	t.Parallel()

	g := New()
	g.AddOrReplaceFile(parsed("a.ts", "typescript", []string{"foo"}))
	g.AddOrReplaceFile(parsed("b.py", "python", []string{"bar"},
		edge("b.py::bar", "a.ts::foo", EdgeCalls)))

	snap := g.ExportSnapshot("/repo")
	assert.Equal(t, "/repo", snap.ProjectRoot)
	assert.Equal(t, 2, snap.Metadata.FileCount)
	assert.Equal(t, 4, snap.Metadata.NodeCount)
	assert.Equal(t, 1, snap.Metadata.EdgeCount)

	var buf bytes.Buffer
	require.NoError(t, WriteSnapshot(&buf, snap))
	decoded, err := ReadSnapshot(&buf)
	require.NoError(t, err)

	restored := ImportSnapshot(decoded)
	assert.Equal(t, g.Nodes(), restored.Nodes())
	assert.Equal(t, g.Edges(), restored.Edges())
	assert.Equal(t, g.Files(), restored.Files())
	assert.Equal(t, "python", restored.FileLanguage("b.py"))
}

func TestSnapshot_EdgeOrderIndependent(t *testing.T) {
	t.Parallel()

	g := New()
	g.AddOrReplaceFile(parsed("a.ts", "typescript", []string{"foo"}))
	g.AddOrReplaceFile(parsed("b.ts", "typescript", []string{"bar"}, edge("b.ts::bar", "a.ts::foo", EdgeCalls)))
	snap := g.ExportSnapshot("")

	// Reverse nodes so the edge source is inserted last.
	for i, j := 0, len(snap.Nodes)-1; i < j; i, j = i+1, j-1 {
		snap.Nodes[i], snap.Nodes[j] = snap.Nodes[j], snap.Nodes[i]
	}
	restored := ImportSnapshot(snap)
	assert.Equal(t, 1, restored.EdgeCount())
}

func TestSnapshot_Invalid(t *testing.T) {
	t.Parallel()

	_, err := ReadSnapshot(strings.NewReader("{not json"))
	assert.Error(t, err)

	assert.Equal(t, 0, ImportSnapshot(nil).NodeCount())
}
