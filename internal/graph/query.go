package graph

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrSymbolNotFound is returned when a query names an unknown symbol.
var ErrSymbolNotFound = errors.New("symbol not found")

// QueryEngine runs read-only algorithms over a graph. The graph must not be
// mutated while a QueryEngine uses it; pass an immutable snapshot instead.
type QueryEngine struct {
	g *Graph
}

// NewQueryEngine creates a query engine over g.
func NewQueryEngine(g *Graph) *QueryEngine {
	return &QueryEngine{g: g}
}

// Neighbor is a symbol adjacent to a query target and the edge connecting them.
type Neighbor struct {
	Symbol Symbol `json:"symbol"`
	Edge   Edge   `json:"edge"`
}

// ImpactEntry is a dependent found during impact analysis.
type ImpactEntry struct {
	Symbol Symbol `json:"symbol"`
	Depth  int    `json:"depth"` // 1 for direct dependents
}

// ImpactResult answers "what depends on this, directly or indirectly".
type ImpactResult struct {
	Target               Symbol        `json:"target"`
	DirectDependents     []Symbol      `json:"directDependents"`
	TransitiveDependents []ImpactEntry `json:"transitiveDependents"`
	AffectedFiles        []string      `json:"affectedFiles"`
}

// SearchOptions narrows SearchSymbols.
type SearchOptions struct {
	Kinds          []SymbolKind // Empty means all kinds
	IncludeImports bool         // Import bindings are skipped unless set
	Limit          int          // 0 means unlimited
}

// Dependencies returns the direct outgoing neighbours of id.
func (q *QueryEngine) Dependencies(id string) ([]Neighbor, error) {
	if _, ok := q.g.Node(id); !ok {
		return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, id)
	}
	var result []Neighbor
	for _, e := range q.g.OutEdges(id) {
		sym, _ := q.g.Node(e.Target)
		result = append(result, Neighbor{Symbol: sym, Edge: e})
	}
	return result, nil
}

// Dependents returns the direct incoming neighbours of id.
func (q *QueryEngine) Dependents(id string) ([]Neighbor, error) {
	if _, ok := q.g.Node(id); !ok {
		return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, id)
	}
	var result []Neighbor
	for _, e := range q.g.InEdges(id) {
		sym, _ := q.g.Node(e.Source)
		result = append(result, Neighbor{Symbol: sym, Edge: e})
	}
	return result, nil
}

// Impact walks incoming edges breadth-first from id. The visited set makes it
// terminate on cyclic graphs; the target itself is never reported.
func (q *QueryEngine) Impact(id string) (*ImpactResult, error) {
	start, ok := q.g.index[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, id)
	}

	result := &ImpactResult{
		Target:               q.g.nodes[start],
		DirectDependents:     []Symbol{},
		TransitiveDependents: []ImpactEntry{},
		AffectedFiles:        []string{},
	}

	visited := map[int]bool{start: true}
	frontier := []int{start}
	files := make(map[string]bool)

	for depth := 1; len(frontier) > 0; depth++ {
		var next []int
		for _, slot := range frontier {
			for _, he := range q.g.in[slot] {
				if visited[he.peer] {
					continue
				}
				visited[he.peer] = true
				next = append(next, he.peer)
			}
		}
		sort.Slice(next, func(i, j int) bool { return q.g.nodes[next[i]].ID < q.g.nodes[next[j]].ID })

		for _, slot := range next {
			sym := q.g.nodes[slot]
			if depth == 1 {
				result.DirectDependents = append(result.DirectDependents, sym)
			}
			result.TransitiveDependents = append(result.TransitiveDependents, ImpactEntry{Symbol: sym, Depth: depth})
			files[sym.FilePath] = true
		}
		frontier = next
	}

	for f := range files {
		result.AffectedFiles = append(result.AffectedFiles, f)
	}
	sort.Strings(result.AffectedFiles)
	return result, nil
}

// ImpactByName runs Impact for every symbol whose name equals name
// (case-insensitive). Names are not unique, so callers get one result per
// candidate and must pick explicitly.
func (q *QueryEngine) ImpactByName(name string) ([]*ImpactResult, error) {
	var results []*ImpactResult
	for _, sym := range q.SearchSymbols(name, SearchOptions{}) {
		if !strings.EqualFold(sym.Name, name) {
			continue
		}
		r, err := q.Impact(sym.ID)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, name)
	}
	return results, nil
}

// SearchSymbols returns every symbol whose name contains query,
// case-insensitively. Symbols sharing a name are all returned with their
// location; exact name matches sort first.
func (q *QueryEngine) SearchSymbols(query string, opts SearchOptions) []Symbol {
	needle := strings.ToLower(query)
	kinds := make(map[SymbolKind]bool, len(opts.Kinds))
	for _, k := range opts.Kinds {
		kinds[k] = true
	}

	var matches []Symbol
	for slot, ok := range q.g.alive {
		if !ok {
			continue
		}
		sym := q.g.nodes[slot]
		if sym.Kind == KindImport && !opts.IncludeImports && !kinds[KindImport] {
			continue
		}
		if len(kinds) > 0 && !kinds[sym.Kind] {
			continue
		}
		if strings.Contains(strings.ToLower(sym.Name), needle) {
			matches = append(matches, sym)
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		ae, be := strings.EqualFold(a.Name, query), strings.EqualFold(b.Name, query)
		if ae != be {
			return ae
		}
		if a.FilePath != b.FilePath {
			return a.FilePath < b.FilePath
		}
		if a.StartLine != b.StartLine {
			return a.StartLine < b.StartLine
		}
		return a.ID < b.ID
	})

	if opts.Limit > 0 && len(matches) > opts.Limit {
		matches = matches[:opts.Limit]
	}
	return matches
}

// FileConnectivity counts cross-file edges for one file.
type FileConnectivity struct {
	File     string `json:"file"`
	Incoming int    `json:"incoming"`
	Outgoing int    `json:"outgoing"`
}

// Total returns incoming plus outgoing edges.
func (f FileConnectivity) Total() int {
	return f.Incoming + f.Outgoing
}

// ArchitectureSummary aggregates graph-wide statistics.
type ArchitectureSummary struct {
	FileCount          int                `json:"fileCount"`
	SymbolCount        int                `json:"symbolCount"`
	EdgeCount          int                `json:"edgeCount"`
	CrossFileEdgeCount int                `json:"crossFileEdgeCount"`
	SymbolsByKind      map[SymbolKind]int `json:"symbolsByKind"`
	EdgesByKind        map[EdgeKind]int   `json:"edgesByKind"`
	FilesByLanguage    map[string]int     `json:"filesByLanguage"`
	MostConnected      []FileConnectivity `json:"mostConnected"`
	OrphanFiles        []string           `json:"orphanFiles"`
}

// ArchitectureSummary computes counts, the topN most connected files and the
// files with no cross-file edges at all.
func (q *QueryEngine) ArchitectureSummary(topN int) *ArchitectureSummary {
	summary := &ArchitectureSummary{
		FileCount:       q.g.FileCount(),
		SymbolCount:     q.g.NodeCount(),
		EdgeCount:       q.g.EdgeCount(),
		SymbolsByKind:   make(map[SymbolKind]int),
		EdgesByKind:     make(map[EdgeKind]int),
		FilesByLanguage: make(map[string]int),
		MostConnected:   []FileConnectivity{},
		OrphanFiles:     []string{},
	}

	for slot, ok := range q.g.alive {
		if ok {
			summary.SymbolsByKind[q.g.nodes[slot].Kind]++
		}
	}
	for _, f := range q.g.Files() {
		lang := q.g.FileLanguage(f)
		if lang == "" {
			lang = "unknown"
		}
		summary.FilesByLanguage[lang]++
	}

	conn := make(map[string]*FileConnectivity)
	for _, f := range q.g.Files() {
		conn[f] = &FileConnectivity{File: f}
	}
	for slot, ok := range q.g.alive {
		if !ok {
			continue
		}
		src := q.g.nodes[slot]
		for _, he := range q.g.out[slot] {
			summary.EdgesByKind[he.kind]++
			dst := q.g.nodes[he.peer]
			if src.FilePath == dst.FilePath {
				continue
			}
			summary.CrossFileEdgeCount++
			if c := conn[src.FilePath]; c != nil {
				c.Outgoing++
			}
			if c := conn[dst.FilePath]; c != nil {
				c.Incoming++
			}
		}
	}

	ranked := make([]FileConnectivity, 0, len(conn))
	for _, c := range conn {
		if c.Total() == 0 {
			summary.OrphanFiles = append(summary.OrphanFiles, c.File)
			continue
		}
		ranked = append(ranked, *c)
	}
	sort.Strings(summary.OrphanFiles)
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Total() != ranked[j].Total() {
			return ranked[i].Total() > ranked[j].Total()
		}
		return ranked[i].File < ranked[j].File
	})
	if topN > 0 && len(ranked) > topN {
		ranked = ranked[:topN]
	}
	summary.MostConnected = ranked
	return summary
}
