package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for QueryEngine:
// - Dependencies/Dependents return direct neighbours with their edges
// - Impact reports direct and transitive dependents with depth and files
// - Impact terminates on cycles and never reports the target
// - Unknown symbols return ErrSymbolNotFound
// - SearchSymbols returns every same-named symbol, exact matches first
// - Import bindings are excluded from search unless requested
// - ArchitectureSummary counts kinds, languages, connectivity and orphans

// chain builds a.ts::foo <- b.ts::bar <- c.ts::baz.
func chain() *Graph {
	g := New()
	g.AddOrReplaceFile(parsed("a.ts", "typescript", []string{"foo"}))
	g.AddOrReplaceFile(parsed("b.ts", "typescript", []string{"bar"},
		edge("b.ts::bar", "a.ts::foo", EdgeCalls),
		edge("b.ts::<module>", "a.ts::<module>", EdgeImports)))
	g.AddOrReplaceFile(parsed("c.ts", "typescript", []string{"baz"},
		edge("c.ts::baz", "b.ts::bar", EdgeCalls),
		edge("c.ts::<module>", "b.ts::<module>", EdgeImports)))
	g.AddOrReplaceFile(parsed("lonely.py", "python", []string{"alone"}))
	return g
}

func TestQueryEngine_Neighbours(t *testing.T) {
	t.Parallel()

	q := NewQueryEngine(chain())

	deps, err := q.Dependencies("b.ts::bar")
	require.NoError(t, err)
	require.Len(t, deps, 1)
	assert.Equal(t, "a.ts::foo", deps[0].Symbol.ID)
	assert.Equal(t, EdgeCalls, deps[0].Edge.Kind)

	dependents, err := q.Dependents("b.ts::bar")
	require.NoError(t, err)
	require.Len(t, dependents, 1)
	assert.Equal(t, "c.ts::baz", dependents[0].Symbol.ID)

	_, err = q.Dependencies("nope.ts::x")
	assert.ErrorIs(t, err, ErrSymbolNotFound)
	_, err = q.Dependents("nope.ts::x")
	assert.ErrorIs(t, err, ErrSymbolNotFound)
}

func TestQueryEngine_Impact(t *testing.T) {
	t.Parallel()

	q := NewQueryEngine(chain())

	r, err := q.Impact("a.ts::foo")
	require.NoError(t, err)
	assert.Equal(t, "a.ts::foo", r.Target.ID)
	require.Len(t, r.DirectDependents, 1)
	assert.Equal(t, "b.ts::bar", r.DirectDependents[0].ID)
	assert.Equal(t, []ImpactEntry{
		{Symbol: mustNode(t, q.g, "b.ts::bar"), Depth: 1},
		{Symbol: mustNode(t, q.g, "c.ts::baz"), Depth: 2},
	}, r.TransitiveDependents)
	assert.Equal(t, []string{"b.ts", "c.ts"}, r.AffectedFiles)

	leaf, err := q.Impact("c.ts::baz")
	require.NoError(t, err)
	assert.Empty(t, leaf.DirectDependents)
	assert.Empty(t, leaf.AffectedFiles)

	_, err = q.Impact("missing")
	assert.ErrorIs(t, err, ErrSymbolNotFound)
}

func TestQueryEngine_ImpactCycle(t *testing.T) {
	t.Parallel()

	g := New()
	g.AddOrReplaceFile(parsed("a.py", "python", []string{"ping"}, edge("a.py::ping", "b.py::pong", EdgeCalls)))
	g.AddOrReplaceFile(parsed("b.py", "python", []string{"pong"}, edge("b.py::pong", "a.py::ping", EdgeCalls)))
	// Re-apply a.py now that b.py exists
	g.AddOrReplaceFile(parsed("a.py", "python", []string{"ping"}, edge("a.py::ping", "b.py::pong", EdgeCalls)))

	r, err := NewQueryEngine(g).Impact("a.py::ping")
	require.NoError(t, err)
	require.Len(t, r.TransitiveDependents, 1)
	assert.Equal(t, "b.py::pong", r.TransitiveDependents[0].Symbol.ID)
	assert.Equal(t, []string{"b.py"}, r.AffectedFiles)
}

func TestQueryEngine_ImpactByName(t *testing.T) {
	t.Parallel()

	q := NewQueryEngine(chain())
	results, err := q.ImpactByName("FOO")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a.ts::foo", results[0].Target.ID)

	_, err = q.ImpactByName("nothing")
	assert.ErrorIs(t, err, ErrSymbolNotFound)
}

func TestQueryEngine_SearchSymbols(t *testing.T) {
	t.Parallel()

	g := New()
	g.AddOrReplaceFile(parsed("api/http.ts", "typescript", []string{"handle", "handleError"}))
	g.AddOrReplaceFile(parsed("worker/jobs.py", "python", []string{"handle"}))
	imp := parsed("main.ts", "typescript", nil)
	imp.Symbols = append(imp.Symbols, Symbol{ID: "main.ts::handle", Name: "handle", Kind: KindImport, FilePath: "main.ts", StartLine: 1, EndLine: 1})
	g.AddOrReplaceFile(imp)

	q := NewQueryEngine(g)

	got := q.SearchSymbols("handle", SearchOptions{})
	require.Len(t, got, 3)
	assert.Equal(t, "api/http.ts::handle", got[0].ID)
	assert.Equal(t, "worker/jobs.py::handle", got[1].ID)
	assert.Equal(t, "api/http.ts::handleError", got[2].ID)

	withImports := q.SearchSymbols("HANDLE", SearchOptions{IncludeImports: true})
	assert.Len(t, withImports, 4)

	onlyImports := q.SearchSymbols("handle", SearchOptions{Kinds: []SymbolKind{KindImport}})
	require.Len(t, onlyImports, 1)
	assert.Equal(t, "main.ts::handle", onlyImports[0].ID)

	limited := q.SearchSymbols("handle", SearchOptions{Limit: 1})
	assert.Len(t, limited, 1)

	modules := q.SearchSymbols("", SearchOptions{Kinds: []SymbolKind{KindModule}})
	assert.Len(t, modules, 3)
}

func TestQueryEngine_ArchitectureSummary(t *testing.T) {
	t.Parallel()

	s := NewQueryEngine(chain()).ArchitectureSummary(2)

	assert.Equal(t, 4, s.FileCount)
	assert.Equal(t, 8, s.SymbolCount)
	assert.Equal(t, 4, s.EdgeCount)
	assert.Equal(t, 4, s.CrossFileEdgeCount)
	assert.Equal(t, 4, s.SymbolsByKind[KindModule])
	assert.Equal(t, 2, s.EdgesByKind[EdgeCalls])
	assert.Equal(t, 2, s.EdgesByKind[EdgeImports])
	assert.Equal(t, map[string]int{"typescript": 3, "python": 1}, s.FilesByLanguage)

	require.Len(t, s.MostConnected, 2)
	assert.Equal(t, FileConnectivity{File: "b.ts", Incoming: 2, Outgoing: 2}, s.MostConnected[0])
	assert.Equal(t, "a.ts", s.MostConnected[1].File)
	assert.Equal(t, []string{"lonely.py"}, s.OrphanFiles)
}

func mustNode(t *testing.T, g *Graph, id string) Symbol {
	t.Helper()
	sym, ok := g.Node(id)
	require.True(t, ok, id)
	return sym
}
