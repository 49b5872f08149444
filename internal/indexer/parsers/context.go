package parsers

import (
	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/mvp-joe/code-xref/internal/graph"
)

// binding is what a local name introduced by an import refers to.
type binding struct {
	target string   // symbol ID of a named import
	files  []string // resolved files of a namespace, module or package import
	module bool     // member access resolves into files
}

// bindings maps local names to what they were imported as. An unresolved
// import maps to the zero binding and resolves to nothing.
// Filled by the import pass, read-only during the declaration walk.
type bindings map[string]binding

// walkContext is the traversal state handed down the recursion by value.
// Nothing in it is shared between files.
type walkContext struct {
	imports  bindings
	scope    string // enclosing class, interface or namespace name
	owner    string // ID of the symbol edges found here are attributed to
	receiver string // Go method receiver variable
	inBody   bool   // inside a function or method body
	exported bool   // enclosing declaration is exported
}

// memberTargets resolves obj.member through a namespace/module binding.
func (c walkContext) memberTargets(obj, member string) []string {
	b, ok := c.imports[obj]
	if !ok {
		return nil
	}
	if b.module {
		ids := make([]string, 0, len(b.files))
		for _, f := range b.files {
			ids = append(ids, graph.SymbolID(f, "", member))
		}
		return ids
	}
	// Static access on an imported class: Class.member
	if b.target != "" && !graph.IsModuleID(b.target) {
		return []string{b.target + "." + member}
	}
	return nil
}

// fileBuilder accumulates one file's symbols and edges. Symbols are
// de-duplicated by ID (first wins, exported flags are OR-ed) and edges by
// identity, so emission order fully determines the output.
type fileBuilder struct {
	pf      *graph.ParsedFile
	source  []byte
	symbols map[string]int
	edges   map[graph.EdgeKey]bool
}

func newFileBuilder(filePath, language string, source []byte) *fileBuilder {
	return &fileBuilder{
		pf: &graph.ParsedFile{
			FilePath: filePath,
			Language: language,
			Symbols:  []graph.Symbol{},
			Edges:    []graph.Edge{},
		},
		source:  source,
		symbols: make(map[string]int),
		edges:   make(map[graph.EdgeKey]bool),
	}
}

func (b *fileBuilder) path() string {
	return b.pf.FilePath
}

// id returns the ID a symbol named name in scope would get in this file.
func (b *fileBuilder) id(scope, name string) string {
	return graph.SymbolID(b.pf.FilePath, scope, name)
}

// addModule emits the module symbol of the file.
func (b *fileBuilder) addModule(name string, lines int) string {
	return b.addSymbol(graph.Symbol{
		ID:        graph.ModuleID(b.pf.FilePath),
		Name:      name,
		Kind:      graph.KindModule,
		StartLine: 1,
		EndLine:   lines,
		Exported:  true,
		Language:  b.pf.Language,
	})
}

// addSymbol records sym and returns its ID.
func (b *fileBuilder) addSymbol(sym graph.Symbol) string {
	if sym.ID == "" {
		sym.ID = b.id(sym.Scope, sym.Name)
	}
	sym.FilePath = b.pf.FilePath
	if i, ok := b.symbols[sym.ID]; ok {
		if sym.Exported {
			b.pf.Symbols[i].Exported = true
		}
		return sym.ID
	}
	b.symbols[sym.ID] = len(b.pf.Symbols)
	b.pf.Symbols = append(b.pf.Symbols, sym)
	return sym.ID
}

func (b *fileBuilder) hasSymbol(id string) bool {
	_, ok := b.symbols[id]
	return ok
}

// markExported flags an already emitted symbol as exported.
func (b *fileBuilder) markExported(id string) bool {
	i, ok := b.symbols[id]
	if ok {
		b.pf.Symbols[i].Exported = true
	}
	return ok
}

// addEdge records an edge declared at line of this file.
func (b *fileBuilder) addEdge(source, target string, kind graph.EdgeKind, line int) {
	if source == "" || target == "" {
		return
	}
	e := graph.Edge{Source: source, Target: target, Kind: kind, FilePath: b.pf.FilePath, Line: line}
	if b.edges[e.Key()] {
		return
	}
	b.edges[e.Key()] = true
	b.pf.Edges = append(b.pf.Edges, e)
}

func (b *fileBuilder) addEdges(source string, targets []string, kind graph.EdgeKind, line int) {
	for _, t := range targets {
		b.addEdge(source, t, kind, line)
	}
}

// bindNamed records an import symbol for local and, when the import
// resolved, binds it to name in the target file.
func (b *fileBuilder) bindNamed(local, target, name string, ok bool, stmt *sitter.Node, imports bindings) {
	if local == "" {
		return
	}
	id := b.addSymbol(graph.Symbol{
		Name:      local,
		Kind:      graph.KindImport,
		StartLine: startLine(stmt),
		EndLine:   endLine(stmt),
	})
	if !ok {
		// Unresolved imports still shadow same-named local guesses
		imports[local] = binding{}
		return
	}
	targetID := graph.SymbolID(target, "", name)
	b.addEdge(id, targetID, graph.EdgeImports, startLine(stmt))
	imports[local] = binding{target: targetID}
}

// bindModule records a namespace-style import of a whole file.
func (b *fileBuilder) bindModule(local, target string, ok bool, stmt *sitter.Node, imports bindings) {
	if local == "" {
		return
	}
	id := b.addSymbol(graph.Symbol{
		Name:      local,
		Kind:      graph.KindImport,
		StartLine: startLine(stmt),
		EndLine:   endLine(stmt),
	})
	if !ok {
		imports[local] = binding{}
		return
	}
	b.addEdge(id, graph.ModuleID(target), graph.EdgeImports, startLine(stmt))
	imports[local] = binding{target: graph.ModuleID(target), files: []string{target}, module: true}
}

func (b *fileBuilder) result() *graph.ParsedFile {
	return b.pf
}
