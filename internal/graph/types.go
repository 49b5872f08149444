package graph

import "time"

// SymbolKind represents the type of a code entity.
type SymbolKind string

const (
	KindFunction  SymbolKind = "function"
	KindClass     SymbolKind = "class"
	KindMethod    SymbolKind = "method"
	KindProperty  SymbolKind = "property"
	KindVariable  SymbolKind = "variable"
	KindConstant  SymbolKind = "constant"
	KindTypeAlias SymbolKind = "type_alias"
	KindInterface SymbolKind = "interface"
	KindEnum      SymbolKind = "enum"
	KindImport    SymbolKind = "import"
	KindExport    SymbolKind = "export"
	KindModule    SymbolKind = "module"
	KindDecorator SymbolKind = "decorator"
)

// ModuleName is the reserved name segment of a file's module symbol.
const ModuleName = "<module>"

// IDSeparator separates the file path from the scoped name in a symbol ID.
const IDSeparator = "::"

// Symbol represents one named, located program entity.
type Symbol struct {
	ID        string     `json:"id"`              // "<filePath>::<scope.><name>"
	Name      string     `json:"name"`            // Unqualified name
	Kind      SymbolKind `json:"kind"`            // Type of symbol
	FilePath  string     `json:"filePath"`        // Project-relative, slash separated
	StartLine int        `json:"startLine"`       // 1-indexed
	EndLine   int        `json:"endLine"`         // 1-indexed
	Exported  bool       `json:"exported"`        // Visible outside its file/package
	Scope     string     `json:"scope,omitempty"` // Immediate enclosing class/namespace
	Language  string     `json:"language,omitempty"`
}

// EdgeKind represents the type of relationship between symbols.
type EdgeKind string

const (
	EdgeImports        EdgeKind = "imports"
	EdgeCalls          EdgeKind = "calls"
	EdgeExtends        EdgeKind = "extends"
	EdgeImplements     EdgeKind = "implements"
	EdgeInherits       EdgeKind = "inherits"
	EdgeDecorates      EdgeKind = "decorates"
	EdgeReferences     EdgeKind = "references"
	EdgeTypeReferences EdgeKind = "type_references"
)

// Edge represents a directed relationship between two symbols.
// Endpoints are symbol IDs, never pointers.
type Edge struct {
	Source   string   `json:"source"`
	Target   string   `json:"target"`
	Kind     EdgeKind `json:"kind"`
	FilePath string   `json:"filePath"` // Where the relationship occurs
	Line     int      `json:"line"`
}

// EdgeKey identifies an edge for de-duplication.
type EdgeKey struct {
	Source string
	Target string
	Kind   EdgeKind
}

// Key returns the identity of the edge.
func (e Edge) Key() EdgeKey {
	return EdgeKey{Source: e.Source, Target: e.Target, Kind: e.Kind}
}

// ParsedFile is the output of extracting a single file. It holds no
// references to other files and is safe to share between goroutines.
type ParsedFile struct {
	FilePath string   `json:"filePath"`
	Language string   `json:"language"`
	Symbols  []Symbol `json:"symbols"`
	Edges    []Edge   `json:"edges"`
}

// Snapshot is the serialized form of a graph.
type Snapshot struct {
	ProjectRoot string           `json:"projectRoot"`
	Files       []string         `json:"files"`
	Nodes       []Symbol         `json:"nodes"`
	Edges       []Edge           `json:"edges"`
	Metadata    SnapshotMetadata `json:"metadata"`
}

// SnapshotMetadata contains summary counts of a snapshot.
type SnapshotMetadata struct {
	ParsedAt  time.Time `json:"parsedAt"`
	FileCount int       `json:"fileCount"`
	NodeCount int       `json:"nodeCount"`
	EdgeCount int       `json:"edgeCount"`
}
