package parsers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/code-xref/internal/graph"
)

// Test Plan for Go extraction:
// - The module symbol carries the package name
// - Structs are classes, interfaces are interfaces, fields are properties
// - Embedded fields produce inherits edges
// - Methods are scoped to their receiver type, receiver calls stay in scope
// - Unqualified names fan out to every file of the package
// - Imports of module packages bind the package name and resolve members
// - Exported follows identifier capitalization
// - Standard library imports keep an import symbol without edges

func goProject(t *testing.T) string {
	t.Helper()
	return writeProject(t, map[string]string{
		"go.mod": "module example.com/shop\n\ngo 1.22\n",
		"internal/store/store.go": `package store

import (
	"fmt"
	"sync"
)

type Base struct {
	mu sync.Mutex
}

type Store struct {
	Base
	Items []Item
	count int
}

type Item struct {
	Name string
}

type Reader interface {
	Get(name string) (Item, error)
}

const MaxItems = 100

var defaultStore = New()

func New() *Store {
	return &Store{}
}

func (s *Store) Add(item Item) error {
	if err := s.validate(item); err != nil {
		return fmt.Errorf("add: %w", err)
	}
	s.Items = append(s.Items, item)
	return nil
}
`,
		"internal/store/validate.go": `package store

import "errors"

func (s *Store) validate(item Item) error {
	if item.Name == "" {
		return errors.New("empty name")
	}
	return checkLimit(len(s.Items))
}

func checkLimit(n int) error {
	if n >= MaxItems {
		return errors.New("full")
	}
	return nil
}
`,
		"cmd/main.go": `package main

import (
	"example.com/shop/internal/store"
)

func main() {
	s := store.New()
	_ = s.Add(store.Item{Name: "apple"})
}
`,
	})
}

func TestGoParser_Declarations(t *testing.T) {
	t.Parallel()

	root := goProject(t)
	pf := extractFile(t, root, "internal/store/store.go")
	assert.Equal(t, LangGo, pf.Language)

	module := requireSymbol(t, pf, "internal/store/store.go::<module>", graph.KindModule)
	assert.Equal(t, "store", module.Name)

	requireSymbol(t, pf, "internal/store/store.go::Base", graph.KindClass)
	st := requireSymbol(t, pf, "internal/store/store.go::Store", graph.KindClass)
	assert.True(t, st.Exported)
	requireSymbol(t, pf, "internal/store/store.go::Reader", graph.KindInterface)
	requireSymbol(t, pf, "internal/store/store.go::Reader.Get", graph.KindMethod)

	items := requireSymbol(t, pf, "internal/store/store.go::Store.Items", graph.KindProperty)
	assert.True(t, items.Exported)
	count := requireSymbol(t, pf, "internal/store/store.go::Store.count", graph.KindProperty)
	assert.False(t, count.Exported)

	requireSymbol(t, pf, "internal/store/store.go::MaxItems", graph.KindConstant)
	dflt := requireSymbol(t, pf, "internal/store/store.go::defaultStore", graph.KindVariable)
	assert.False(t, dflt.Exported)

	add := requireSymbol(t, pf, "internal/store/store.go::Store.Add", graph.KindMethod)
	assert.Equal(t, "Store", add.Scope)
	assert.True(t, add.Exported)

	requireSymbol(t, pf, "internal/store/store.go::fmt", graph.KindImport)
	for _, e := range pf.Edges {
		assert.NotEqual(t, "internal/store/store.go::fmt", e.Source, "standard library import has no edges")
	}
}

func TestGoParser_Relationships(t *testing.T) {
	t.Parallel()

	root := goProject(t)
	pf := extractFile(t, root, "internal/store/store.go")

	assert.True(t, hasEdge(pf, "internal/store/store.go::Store", "internal/store/store.go::Base", graph.EdgeInherits))
	assert.True(t, hasEdge(pf, "internal/store/store.go::Store", "internal/store/store.go::Item", graph.EdgeTypeReferences))
	assert.True(t, hasEdge(pf, "internal/store/store.go::Reader", "internal/store/store.go::Item", graph.EdgeTypeReferences))

	// Package-wide fan-out: the callee may live in any file of the package
	assert.True(t, hasEdge(pf, "internal/store/store.go::Store.Add", "internal/store/validate.go::Store.validate", graph.EdgeCalls))
	assert.True(t, hasEdge(pf, "internal/store/store.go::Store.Add", "internal/store/store.go::Store.validate", graph.EdgeCalls))
	assert.True(t, hasEdge(pf, "internal/store/store.go::defaultStore", "internal/store/store.go::New", graph.EdgeCalls))
	assert.True(t, hasEdge(pf, "internal/store/store.go::New", "internal/store/store.go::Store", graph.EdgeReferences))

	for _, e := range pf.Edges {
		assert.NotContains(t, e.Target, "::append", "builtins are not edges")
	}
}

func TestGoParser_SiblingFiles(t *testing.T) {
	t.Parallel()

	root := goProject(t)
	pf := extractFile(t, root, "internal/store/validate.go")

	validate := requireSymbol(t, pf, "internal/store/validate.go::Store.validate", graph.KindMethod)
	assert.False(t, validate.Exported)
	assert.True(t, hasEdge(pf, "internal/store/validate.go::Store.validate", "internal/store/validate.go::checkLimit", graph.EdgeCalls))
	assert.True(t, hasEdge(pf, "internal/store/validate.go::Store.validate", "internal/store/store.go::Item", graph.EdgeTypeReferences))
}

func TestGoParser_CrossPackageImports(t *testing.T) {
	t.Parallel()

	root := goProject(t)
	pf := extractFile(t, root, "cmd/main.go")

	module := requireSymbol(t, pf, "cmd/main.go::<module>", graph.KindModule)
	assert.Equal(t, "main", module.Name)

	requireSymbol(t, pf, "cmd/main.go::store", graph.KindImport)
	assert.True(t, hasEdge(pf, "cmd/main.go::store", "internal/store/store.go::<module>", graph.EdgeImports))
	assert.True(t, hasEdge(pf, "cmd/main.go::store", "internal/store/validate.go::<module>", graph.EdgeImports))
	assert.True(t, hasEdge(pf, "cmd/main.go::<module>", "internal/store/store.go::<module>", graph.EdgeImports))

	assert.True(t, hasEdge(pf, "cmd/main.go::main", "internal/store/store.go::New", graph.EdgeCalls))
	assert.True(t, hasEdge(pf, "cmd/main.go::main", "internal/store/store.go::Item", graph.EdgeReferences))
}

func TestGoImportName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want string
	}{
		{"fmt", "fmt"},
		{"example.com/shop/internal/store", "store"},
		{"github.com/foo/bar/v2", "bar"},
		{"gopkg.in/yaml.v3", "yaml"},
		{"github.com/mattn/go-sqlite3", "sqlite3"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, goImportName(tt.path), tt.path)
	}
}

func TestGoParser_Deterministic(t *testing.T) {
	t.Parallel()

	root := goProject(t)
	first := extractFile(t, root, "internal/store/store.go")
	second := extractFile(t, root, "internal/store/store.go")
	require.Equal(t, first, second)
}
