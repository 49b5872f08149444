package graph

import (
	"fmt"
	"sort"
)

// halfEdge is one side of an edge stored in an adjacency list.
// peer is the slot of the node at the other end.
type halfEdge struct {
	peer int
	kind EdgeKind
	file string
	line int
}

// Graph is a directed symbol graph.
//
// Nodes are interned into integer slots and edges live in per-slot adjacency
// lists, so no node holds a reference to another node. A Graph is not safe for
// concurrent mutation: callers serialize AddOrReplaceFile/RemoveFile through a
// single owner and hand readers an immutable Clone.
//
// Edge insertion requires both endpoints to exist at insertion time. Edges
// whose target is unknown are dropped rather than queued, so a file that
// references symbols of a file parsed later loses those edges until it is
// re-applied (see indexer.Updater for the reconciliation that restores them).
type Graph struct {
	index     map[string]int      // symbol ID -> slot
	nodes     []Symbol            // slot -> symbol
	alive     []bool              // slot -> in use
	out       [][]halfEdge        // slot -> outgoing edges
	in        [][]halfEdge        // slot -> incoming edges
	free      []int               // recycled slots
	byFile    map[string][]int    // file path -> slots
	files     map[string]string   // parsed file path -> language
	edgeCount int
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		index:  make(map[string]int),
		byFile: make(map[string][]int),
		files:  make(map[string]string),
	}
}

// NodeCount returns the number of symbols in the graph.
func (g *Graph) NodeCount() int {
	return len(g.index)
}

// EdgeCount returns the number of materialized edges.
func (g *Graph) EdgeCount() int {
	return g.edgeCount
}

// FileCount returns the number of parsed files.
func (g *Graph) FileCount() int {
	return len(g.files)
}

// HasFile reports whether path has been added to the graph.
func (g *Graph) HasFile(path string) bool {
	_, ok := g.files[path]
	return ok
}

// FileLanguage returns the language recorded for a parsed file.
func (g *Graph) FileLanguage(path string) string {
	return g.files[path]
}

// AddOrReplaceFile replaces every node and edge previously contributed by
// pf.FilePath with the contents of pf. Calling it twice with identical input
// yields the same graph as calling it once.
//
// Edges from other files that point at symbols still present after the
// replacement are kept; edges pointing at symbols that disappeared are pruned.
func (g *Graph) AddOrReplaceFile(pf *ParsedFile) {
	if pf == nil {
		return
	}
	path := pf.FilePath

	keep := make(map[string]bool, len(pf.Symbols))
	for _, sym := range pf.Symbols {
		keep[sym.ID] = true
	}

	// Drop nodes that no longer exist; drop the file's own edges from survivors.
	for _, slot := range append([]int(nil), g.byFile[path]...) {
		if !keep[g.nodes[slot].ID] {
			g.removeSlot(slot)
			continue
		}
		g.removeEdgesDeclaredIn(slot, path)
	}

	for _, sym := range pf.Symbols {
		g.upsertNode(sym)
	}
	g.files[path] = pf.Language

	g.AddEdges(pf.Edges)
}

// AddEdges inserts edges whose endpoints both exist and returns how many were
// materialized or merged. Edges with a missing endpoint are silently dropped.
func (g *Graph) AddEdges(edges []Edge) int {
	added := 0
	for _, e := range edges {
		if g.addEdge(e) {
			added++
		}
	}
	return added
}

// RemoveFile removes every node whose file path matches and every edge
// touching one of those nodes.
func (g *Graph) RemoveFile(path string) {
	for _, slot := range append([]int(nil), g.byFile[path]...) {
		g.removeSlot(slot)
	}
	delete(g.byFile, path)
	delete(g.files, path)
}

// Node returns the symbol with the given ID.
func (g *Graph) Node(id string) (Symbol, bool) {
	slot, ok := g.index[id]
	if !ok {
		return Symbol{}, false
	}
	g.assertSlot(id, slot)
	return g.nodes[slot], true
}

// Nodes returns all symbols sorted by ID.
func (g *Graph) Nodes() []Symbol {
	result := make([]Symbol, 0, len(g.index))
	for slot, ok := range g.alive {
		if ok {
			result = append(result, g.nodes[slot])
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// NodesInFile returns the symbols of one file sorted by start line, then ID.
func (g *Graph) NodesInFile(path string) []Symbol {
	slots := g.byFile[path]
	result := make([]Symbol, 0, len(slots))
	for _, slot := range slots {
		result = append(result, g.nodes[slot])
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].StartLine != result[j].StartLine {
			return result[i].StartLine < result[j].StartLine
		}
		return result[i].ID < result[j].ID
	})
	return result
}

// Edges returns all edges sorted by source, target and kind.
func (g *Graph) Edges() []Edge {
	result := make([]Edge, 0, g.edgeCount)
	for slot, ok := range g.alive {
		if !ok {
			continue
		}
		for _, he := range g.out[slot] {
			result = append(result, g.materialize(slot, he))
		}
	}
	sortEdges(result)
	return result
}

// Files returns the parsed file paths in sorted order.
func (g *Graph) Files() []string {
	files := make([]string, 0, len(g.files))
	for f := range g.files {
		files = append(files, f)
	}
	sort.Strings(files)
	return files
}

// OutEdges returns the outgoing edges of a symbol.
func (g *Graph) OutEdges(id string) []Edge {
	slot, ok := g.index[id]
	if !ok {
		return nil
	}
	edges := make([]Edge, 0, len(g.out[slot]))
	for _, he := range g.out[slot] {
		edges = append(edges, g.materialize(slot, he))
	}
	sortEdges(edges)
	return edges
}

// InEdges returns the incoming edges of a symbol.
func (g *Graph) InEdges(id string) []Edge {
	slot, ok := g.index[id]
	if !ok {
		return nil
	}
	edges := make([]Edge, 0, len(g.in[slot]))
	for _, he := range g.in[slot] {
		edges = append(edges, Edge{
			Source:   g.nodes[he.peer].ID,
			Target:   id,
			Kind:     he.kind,
			FilePath: he.file,
			Line:     he.line,
		})
	}
	sortEdges(edges)
	return edges
}

// Clone returns a deep copy of the graph. The copy shares no mutable state
// with the original.
func (g *Graph) Clone() *Graph {
	c := &Graph{
		index:     make(map[string]int, len(g.index)),
		nodes:     append([]Symbol(nil), g.nodes...),
		alive:     append([]bool(nil), g.alive...),
		out:       make([][]halfEdge, len(g.out)),
		in:        make([][]halfEdge, len(g.in)),
		free:      append([]int(nil), g.free...),
		byFile:    make(map[string][]int, len(g.byFile)),
		files:     make(map[string]string, len(g.files)),
		edgeCount: g.edgeCount,
	}
	for id, slot := range g.index {
		c.index[id] = slot
	}
	for i := range g.out {
		c.out[i] = append([]halfEdge(nil), g.out[i]...)
		c.in[i] = append([]halfEdge(nil), g.in[i]...)
	}
	for f, slots := range g.byFile {
		c.byFile[f] = append([]int(nil), slots...)
	}
	for f, lang := range g.files {
		c.files[f] = lang
	}
	return c
}

func (g *Graph) upsertNode(sym Symbol) {
	if slot, ok := g.index[sym.ID]; ok {
		g.assertSlot(sym.ID, slot)
		prev := g.nodes[slot]
		g.nodes[slot] = sym
		if prev.FilePath != sym.FilePath {
			g.byFile[prev.FilePath] = removeInt(g.byFile[prev.FilePath], slot)
			g.byFile[sym.FilePath] = append(g.byFile[sym.FilePath], slot)
		}
		return
	}

	var slot int
	if n := len(g.free); n > 0 {
		slot = g.free[n-1]
		g.free = g.free[:n-1]
		g.nodes[slot] = sym
		g.alive[slot] = true
	} else {
		slot = len(g.nodes)
		g.nodes = append(g.nodes, sym)
		g.alive = append(g.alive, true)
		g.out = append(g.out, nil)
		g.in = append(g.in, nil)
	}
	g.index[sym.ID] = slot
	g.byFile[sym.FilePath] = append(g.byFile[sym.FilePath], slot)
}

func (g *Graph) addEdge(e Edge) bool {
	src, ok := g.index[e.Source]
	if !ok {
		return false
	}
	dst, ok := g.index[e.Target]
	if !ok {
		return false
	}

	// Same (source, target, kind) merges into the existing edge.
	for _, he := range g.out[src] {
		if he.peer == dst && he.kind == e.Kind {
			return true
		}
	}

	g.out[src] = append(g.out[src], halfEdge{peer: dst, kind: e.Kind, file: e.FilePath, line: e.Line})
	g.in[dst] = append(g.in[dst], halfEdge{peer: src, kind: e.Kind, file: e.FilePath, line: e.Line})
	g.edgeCount++
	return true
}

// removeEdgesDeclaredIn drops every edge touching slot whose occurrence site
// is file.
func (g *Graph) removeEdgesDeclaredIn(slot int, file string) {
	kept := g.out[slot][:0]
	for _, he := range g.out[slot] {
		if he.file == file {
			g.in[he.peer] = removeHalf(g.in[he.peer], slot, he.kind)
			g.edgeCount--
			continue
		}
		kept = append(kept, he)
	}
	g.out[slot] = kept

	kept = g.in[slot][:0]
	for _, he := range g.in[slot] {
		if he.file == file {
			g.out[he.peer] = removeHalf(g.out[he.peer], slot, he.kind)
			g.edgeCount--
			continue
		}
		kept = append(kept, he)
	}
	g.in[slot] = kept
}

func (g *Graph) removeSlot(slot int) {
	sym := g.nodes[slot]
	g.assertSlot(sym.ID, slot)

	for _, he := range g.out[slot] {
		if he.peer != slot {
			g.in[he.peer] = removeHalf(g.in[he.peer], slot, he.kind)
		}
		g.edgeCount--
	}
	for _, he := range g.in[slot] {
		if he.peer == slot {
			continue // self-loop already counted on the outgoing side
		}
		g.out[he.peer] = removeHalf(g.out[he.peer], slot, he.kind)
		g.edgeCount--
	}

	g.out[slot] = nil
	g.in[slot] = nil
	g.alive[slot] = false
	g.nodes[slot] = Symbol{}
	delete(g.index, sym.ID)
	g.byFile[sym.FilePath] = removeInt(g.byFile[sym.FilePath], slot)
	if len(g.byFile[sym.FilePath]) == 0 {
		delete(g.byFile, sym.FilePath)
	}
	g.free = append(g.free, slot)
}

func (g *Graph) materialize(slot int, he halfEdge) Edge {
	return Edge{
		Source:   g.nodes[slot].ID,
		Target:   g.nodes[he.peer].ID,
		Kind:     he.kind,
		FilePath: he.file,
		Line:     he.line,
	}
}

// assertSlot panics when the ID index points at a dead or foreign slot.
// That can only happen through a bug in this package.
func (g *Graph) assertSlot(id string, slot int) {
	if slot < 0 || slot >= len(g.nodes) || !g.alive[slot] || g.nodes[slot].ID != id {
		panic(fmt.Sprintf("graph: index inconsistent for %q (slot %d)", id, slot))
	}
}

func removeHalf(list []halfEdge, peer int, kind EdgeKind) []halfEdge {
	for i, he := range list {
		if he.peer == peer && he.kind == kind {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

func removeInt(list []int, v int) []int {
	for i, x := range list {
		if x == v {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

func sortEdges(edges []Edge) {
	sort.Slice(edges, func(i, j int) bool {
		a, b := edges[i], edges[j]
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		if a.Target != b.Target {
			return a.Target < b.Target
		}
		return a.Kind < b.Kind
	})
}
