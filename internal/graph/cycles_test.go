package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for cycle detection:
// - Two files importing each other form one cycle, reported once
// - A file importing itself is a one-file cycle
// - Disjoint cycles are all reported
// - Acyclic graphs report nothing
// - Intra-file calls never form cycles
// - File dependencies and dependents follow the projection

func mutual(g *Graph, a, b string) {
	g.AddOrReplaceFile(parsed(a, "go", []string{"A"}))
	g.AddOrReplaceFile(parsed(b, "go", []string{"B"},
		edge(ModuleID(b), ModuleID(a), EdgeImports),
		edge(SymbolID(b, "", "B"), SymbolID(a, "", "A"), EdgeCalls)))
	g.AddOrReplaceFile(parsed(a, "go", []string{"A"},
		edge(ModuleID(a), ModuleID(b), EdgeImports)))
}

func TestDetectCycles_Mutual(t *testing.T) {
	t.Parallel()

	g := New()
	mutual(g, "pkg/x/x.go", "pkg/y/y.go")

	cycles := NewQueryEngine(g).DetectCycles()
	require.Len(t, cycles, 1)
	assert.ElementsMatch(t, []string{"pkg/x/x.go", "pkg/y/y.go"}, cycles[0].Files)
	assert.NotEmpty(t, cycles[0].Symbols)
}

func TestDetectCycles_SelfImport(t *testing.T) {
	t.Parallel()

	g := New()
	g.AddOrReplaceFile(parsed("self.py", "python", []string{"f", "g"},
		edge("self.py::<module>", "self.py::<module>", EdgeImports),
		edge("self.py::f", "self.py::g", EdgeCalls)))

	cycles := NewQueryEngine(g).DetectCycles()
	require.Len(t, cycles, 1)
	assert.Equal(t, []string{"self.py"}, cycles[0].Files)
}

func TestDetectCycles_Disjoint(t *testing.T) {
	t.Parallel()

	g := New()
	mutual(g, "a.go", "b.go")
	mutual(g, "c.go", "d.go")

	cycles := NewQueryEngine(g).DetectCycles()
	require.Len(t, cycles, 2)
	assert.Equal(t, []string{"a.go", "b.go"}, cycles[0].Files)
	assert.Equal(t, []string{"c.go", "d.go"}, cycles[1].Files)
}

func TestDetectCycles_Acyclic(t *testing.T) {
	t.Parallel()

	g := chain()
	g.AddOrReplaceFile(parsed("a.ts", "typescript", []string{"foo", "helper"},
		edge("a.ts::foo", "a.ts::helper", EdgeCalls),
		edge("a.ts::helper", "a.ts::foo", EdgeCalls)))

	assert.Empty(t, NewQueryEngine(g).DetectCycles())
}

func TestFileDependencies(t *testing.T) {
	t.Parallel()

	q := NewQueryEngine(chain())
	assert.Equal(t, []string{"a.ts"}, q.FileDependencies("b.ts"))
	assert.Equal(t, []string{"c.ts"}, q.FileDependents("b.ts"))
	assert.Empty(t, q.FileDependencies("lonely.py"))
	assert.Empty(t, q.FileDependents("c.ts"))
}
