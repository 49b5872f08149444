package storage

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/code-xref/internal/graph"
)

// Test Plan for GraphWriter and GraphReader:
// - A written snapshot reads back identical (files, nodes, edges, metadata)
// - Writing again replaces the previous snapshot
// - Snapshots larger than one insert batch round-trip
// - Reading an empty database returns nil
// - Granular queries filter by file, name and edge target
// - Edges into missing symbols are rejected by foreign keys

// sampleSnapshot builds b.ts (bar calls foo) importing a.ts (foo).
func sampleSnapshot() *graph.Snapshot {
	g := graph.New()
	g.AddOrReplaceFile(&graph.ParsedFile{
		FilePath: "a.ts",
		Language: "typescript",
		Symbols: []graph.Symbol{
			{ID: "a.ts::<module>", Name: "a", Kind: graph.KindModule, FilePath: "a.ts", StartLine: 1, EndLine: 3, Exported: true, Language: "typescript"},
			{ID: "a.ts::foo", Name: "foo", Kind: graph.KindFunction, FilePath: "a.ts", StartLine: 1, EndLine: 3, Exported: true},
		},
	})
	g.AddOrReplaceFile(&graph.ParsedFile{
		FilePath: "b.ts",
		Language: "typescript",
		Symbols: []graph.Symbol{
			{ID: "b.ts::<module>", Name: "b", Kind: graph.KindModule, FilePath: "b.ts", StartLine: 1, EndLine: 6, Exported: true, Language: "typescript"},
			{ID: "b.ts::foo", Name: "foo", Kind: graph.KindImport, FilePath: "b.ts", StartLine: 1, EndLine: 1},
			{ID: "b.ts::Widget", Name: "Widget", Kind: graph.KindClass, FilePath: "b.ts", StartLine: 3, EndLine: 6},
			{ID: "b.ts::Widget.bar", Name: "bar", Kind: graph.KindMethod, FilePath: "b.ts", StartLine: 4, EndLine: 5, Scope: "Widget"},
		},
		Edges: []graph.Edge{
			{Source: "b.ts::<module>", Target: "a.ts::<module>", Kind: graph.EdgeImports, FilePath: "b.ts", Line: 1},
			{Source: "b.ts::foo", Target: "a.ts::foo", Kind: graph.EdgeImports, FilePath: "b.ts", Line: 1},
			{Source: "b.ts::Widget.bar", Target: "a.ts::foo", Kind: graph.EdgeCalls, FilePath: "b.ts", Line: 5},
		},
	})
	snap := g.ExportSnapshot("/repo")
	snap.Metadata.ParsedAt = time.Date(2026, 1, 2, 3, 4, 5, 6, time.UTC)
	return snap
}

func TestGraphWriter_RoundTrip(t *testing.T) {
	t.Parallel()

	db := NewTestDB(t)
	want := sampleSnapshot()
	require.NoError(t, NewGraphWriter(db).WriteSnapshot(want))

	got, err := NewGraphReader(db).ReadSnapshot()
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, want.ProjectRoot, got.ProjectRoot)
	assert.Equal(t, want.Files, got.Files)
	assert.Equal(t, want.Nodes, got.Nodes)
	assert.Equal(t, want.Edges, got.Edges)
	assert.True(t, want.Metadata.ParsedAt.Equal(got.Metadata.ParsedAt))
	assert.Equal(t, 2, got.Metadata.FileCount)
	assert.Equal(t, 3, got.Metadata.EdgeCount)

	restored := graph.ImportSnapshot(got)
	assert.Equal(t, "typescript", restored.FileLanguage("b.ts"))
	assert.Len(t, restored.InEdges("a.ts::foo"), 2)
}

func TestGraphWriter_Replaces(t *testing.T) {
	t.Parallel()

	db := NewTestDB(t)
	w := NewGraphWriter(db)
	require.NoError(t, w.WriteSnapshot(sampleSnapshot()))

	g := graph.New()
	g.AddOrReplaceFile(&graph.ParsedFile{
		FilePath: "main.py",
		Language: "python",
		Symbols: []graph.Symbol{
			{ID: "main.py::<module>", Name: "main", Kind: graph.KindModule, FilePath: "main.py", StartLine: 1, EndLine: 1, Exported: true, Language: "python"},
		},
	})
	require.NoError(t, w.WriteSnapshot(g.ExportSnapshot("/repo")))

	got, err := NewGraphReader(db).ReadSnapshot()
	require.NoError(t, err)
	assert.Equal(t, []string{"main.py"}, got.Files)
	assert.Len(t, got.Nodes, 1)
	assert.Empty(t, got.Edges)
}

func TestGraphWriter_LargeSnapshot(t *testing.T) {
	t.Parallel()

	pf := &graph.ParsedFile{FilePath: "big.go", Language: "go"}
	pf.Symbols = append(pf.Symbols, graph.Symbol{ID: "big.go::<module>", Name: "big", Kind: graph.KindModule, FilePath: "big.go", Language: "go"})
	for i := range 3*insertBatchSize + 7 {
		name := fmt.Sprintf("F%03d", i)
		id := graph.SymbolID("big.go", "", name)
		pf.Symbols = append(pf.Symbols, graph.Symbol{ID: id, Name: name, Kind: graph.KindFunction, FilePath: "big.go", StartLine: i + 1, EndLine: i + 1})
		pf.Edges = append(pf.Edges, graph.Edge{Source: "big.go::<module>", Target: id, Kind: graph.EdgeReferences, FilePath: "big.go", Line: i + 1})
	}
	g := graph.New()
	g.AddOrReplaceFile(pf)
	want := g.ExportSnapshot("/repo")

	db := NewTestDB(t)
	require.NoError(t, NewGraphWriter(db).WriteSnapshot(want))
	got, err := NewGraphReader(db).ReadSnapshot()
	require.NoError(t, err)
	assert.Equal(t, want.Nodes, got.Nodes)
	assert.Equal(t, want.Edges, got.Edges)
}

func TestGraphWriter_NilSnapshot(t *testing.T) {
	t.Parallel()

	db := NewTestDB(t)
	assert.Error(t, NewGraphWriter(db).WriteSnapshot(nil))
}

func TestGraphWriter_RejectsDanglingEdges(t *testing.T) {
	t.Parallel()

	db := NewTestDB(t)
	snap := sampleSnapshot()
	snap.Edges = append(snap.Edges, graph.Edge{Source: "b.ts::Widget", Target: "missing.ts::Gone", Kind: graph.EdgeExtends, FilePath: "b.ts", Line: 3})

	require.Error(t, NewGraphWriter(db).WriteSnapshot(snap))

	// The failed transaction left nothing behind
	got, err := NewGraphReader(db).ReadSnapshot()
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGraphReader_Empty(t *testing.T) {
	t.Parallel()

	r := NewGraphReader(NewTestDB(t))
	ok, err := r.HasSnapshot()
	require.NoError(t, err)
	assert.False(t, ok)

	snap, err := r.ReadSnapshot()
	require.NoError(t, err)
	assert.Nil(t, snap)
}

func TestGraphReader_Queries(t *testing.T) {
	t.Parallel()

	db := NewTestDB(t)
	require.NoError(t, NewGraphWriter(db).WriteSnapshot(sampleSnapshot()))
	r := NewGraphReader(db)

	inB, err := r.readSymbolsByFile("b.ts")
	require.NoError(t, err)
	assert.Len(t, inB, 4)

	foos, err := r.readSymbolsByName("foo")
	require.NoError(t, err)
	require.Len(t, foos, 2)
	assert.Equal(t, "a.ts::foo", foos[0].ID)
	assert.Equal(t, graph.KindImport, foos[1].Kind)

	bar, err := r.readSymbolsByName("bar")
	require.NoError(t, err)
	require.Len(t, bar, 1)
	assert.Equal(t, "Widget", bar[0].Scope)

	into, err := r.readEdgesInto("a.ts::foo")
	require.NoError(t, err)
	require.Len(t, into, 2)
	assert.Equal(t, "b.ts::Widget.bar", into[0].Source)
	assert.Equal(t, graph.EdgeCalls, into[0].Kind)
	assert.Equal(t, 5, into[0].Line)

	files, err := r.ReadFiles()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.ts", "b.ts"}, files)
}
