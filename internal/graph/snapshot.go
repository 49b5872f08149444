package graph

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// ExportSnapshot serializes the graph into a Snapshot.
func (g *Graph) ExportSnapshot(projectRoot string) *Snapshot {
	nodes := g.Nodes()
	edges := g.Edges()
	files := g.Files()

	return &Snapshot{
		ProjectRoot: projectRoot,
		Files:       files,
		Nodes:       nodes,
		Edges:       edges,
		Metadata: SnapshotMetadata{
			ParsedAt:  time.Now().UTC(),
			FileCount: len(files),
			NodeCount: len(nodes),
			EdgeCount: len(edges),
		},
	}
}

// ImportSnapshot rebuilds a graph from a Snapshot. All nodes are inserted
// before any edge so that edge validity does not depend on snapshot order.
func ImportSnapshot(s *Snapshot) *Graph {
	g := New()
	if s == nil {
		return g
	}

	for _, sym := range s.Nodes {
		g.upsertNode(sym)
	}

	languages := make(map[string]string)
	for _, sym := range s.Nodes {
		if sym.Kind == KindModule && sym.Language != "" {
			languages[sym.FilePath] = sym.Language
		}
	}
	for _, f := range s.Files {
		g.files[f] = languages[f]
	}
	for f := range g.byFile {
		if _, ok := g.files[f]; !ok {
			g.files[f] = languages[f]
		}
	}

	g.AddEdges(s.Edges)
	return g
}

// WriteSnapshot encodes a snapshot as indented JSON.
func WriteSnapshot(w io.Writer, s *Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return nil
}

// ReadSnapshot decodes a JSON snapshot.
func ReadSnapshot(r io.Reader) (*Snapshot, error) {
	var s Snapshot
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &s, nil
}
