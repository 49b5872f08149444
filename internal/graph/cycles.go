package graph

import (
	"errors"
	"sort"
	"strings"

	graphlib "github.com/dominikbraun/graph"
)

// maxCycleSamples bounds the representative edges reported per cycle.
const maxCycleSamples = 5

// Cycle is a circular dependency between files. Files starts at the file the
// search revisited; Symbols holds edges crossing the closing file pair.
type Cycle struct {
	Files   []string `json:"files"`
	Symbols []Edge   `json:"symbols"`
}

// fileProjection collapses symbol edges to file granularity. Only cross-file
// edges are kept, plus imports edges from a file into itself.
type fileProjection struct {
	graph   graphlib.Graph[string, string]
	samples map[[2]string][]Edge
}

func (q *QueryEngine) projectFiles() *fileProjection {
	p := &fileProjection{
		graph:   graphlib.New(graphlib.StringHash, graphlib.Directed()),
		samples: make(map[[2]string][]Edge),
	}
	for _, f := range q.g.Files() {
		_ = p.graph.AddVertex(f)
	}

	weights := make(map[[2]string]int)
	for slot, ok := range q.g.alive {
		if !ok {
			continue
		}
		src := q.g.nodes[slot]
		for _, he := range q.g.out[slot] {
			dst := q.g.nodes[he.peer]
			if src.FilePath == dst.FilePath && he.kind != EdgeImports {
				continue
			}
			pair := [2]string{src.FilePath, dst.FilePath}
			weights[pair]++
			if len(p.samples[pair]) < maxCycleSamples {
				p.samples[pair] = append(p.samples[pair], q.g.materialize(slot, he))
			}
		}
	}

	for pair, w := range weights {
		_ = p.graph.AddVertex(pair[0])
		_ = p.graph.AddVertex(pair[1])
		err := p.graph.AddEdge(pair[0], pair[1], graphlib.EdgeWeight(w))
		if err != nil && !errors.Is(err, graphlib.ErrEdgeAlreadyExists) {
			panic("graph: file projection: " + err.Error())
		}
	}
	for pair := range p.samples {
		sortEdges(p.samples[pair])
	}
	return p
}

// successors returns the sorted adjacency of the projection.
func (p *fileProjection) successors() map[string][]string {
	adj, err := p.graph.AdjacencyMap()
	if err != nil {
		return nil
	}
	result := make(map[string][]string, len(adj))
	for from, targets := range adj {
		list := make([]string, 0, len(targets))
		for to := range targets {
			list = append(list, to)
		}
		sort.Strings(list)
		result[from] = list
	}
	return result
}

// DetectCycles finds circular dependencies between files with a depth-first
// search using an explicit recursion stack. Each root gets a fresh recursion
// stack so disjoint cycles are all reported; a file importing itself is
// reported as a one-file cycle.
func (q *QueryEngine) DetectCycles() []Cycle {
	p := q.projectFiles()
	succ := p.successors()

	roots := make([]string, 0, len(succ))
	for f := range succ {
		roots = append(roots, f)
	}
	sort.Strings(roots)

	done := make(map[string]bool)
	seen := make(map[string]bool)
	var cycles []Cycle

	for _, root := range roots {
		if done[root] {
			continue
		}
		onStack := make(map[string]int)
		var stack []string

		var visit func(file string)
		visit = func(file string) {
			onStack[file] = len(stack)
			stack = append(stack, file)

			for _, next := range succ[file] {
				if idx, ok := onStack[next]; ok {
					path := append([]string(nil), stack[idx:]...)
					key := canonicalCycleKey(path)
					if !seen[key] {
						seen[key] = true
						cycles = append(cycles, Cycle{
							Files:   path,
							Symbols: append([]Edge(nil), p.samples[[2]string{file, next}]...),
						})
					}
					continue
				}
				if !done[next] {
					visit(next)
				}
			}

			stack = stack[:len(stack)-1]
			delete(onStack, file)
			done[file] = true
		}
		visit(root)
	}
	return cycles
}

// FileDependencies returns files that path has cross-file edges into.
func (q *QueryEngine) FileDependencies(path string) []string {
	return q.projectFiles().successors()[path]
}

// FileDependents returns files with cross-file edges into path.
func (q *QueryEngine) FileDependents(path string) []string {
	p := q.projectFiles()
	pred, err := p.graph.PredecessorMap()
	if err != nil {
		return nil
	}
	var files []string
	for from := range pred[path] {
		files = append(files, from)
	}
	sort.Strings(files)
	return files
}

// canonicalCycleKey rotates a cycle so its smallest file comes first.
func canonicalCycleKey(path []string) string {
	first := 0
	for i := range path {
		if path[i] < path[first] {
			first = i
		}
	}
	rotated := append(append([]string(nil), path[first:]...), path[:first]...)
	return strings.Join(rotated, "\x00")
}
