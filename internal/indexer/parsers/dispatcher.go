package parsers

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/mvp-joe/code-xref/internal/graph"
	"github.com/mvp-joe/code-xref/internal/resolve"
)

// Dispatcher routes files to the extractor for their extension.
type Dispatcher struct {
	byExt    map[string]Extractor
	projects *resolve.Registry
}

// NewDispatcher creates a dispatcher with every supported language.
// A nil registry gets a fresh one with default cache sizes.
func NewDispatcher(projects *resolve.Registry) *Dispatcher {
	if projects == nil {
		projects = resolve.NewRegistry(resolve.DefaultCacheSize)
	}
	ts := NewTypeScriptParser(projects)
	tsx := NewTSXParser(projects)
	js := NewJavaScriptParser(projects)
	py := NewPythonParser(projects)
	goP := NewGoParser(projects)

	return &Dispatcher{
		byExt: map[string]Extractor{
			".ts":  ts,
			".mts": ts,
			".cts": ts,
			".tsx": tsx,
			".js":  js,
			".jsx": js,
			".mjs": js,
			".cjs": js,
			".py":  py,
			".go":  goP,
		},
		projects: projects,
	}
}

// Projects returns the resolver registry shared by the extractors.
func (d *Dispatcher) Projects() *resolve.Registry {
	return d.projects
}

// ExtractorFor returns the extractor for filePath. Declaration files
// (.d.ts) carry no implementation and are unsupported.
func (d *Dispatcher) ExtractorFor(filePath string) (Extractor, error) {
	if strings.HasSuffix(filePath, ".d.ts") {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, filePath)
	}
	ext := strings.ToLower(path.Ext(filePath))
	if e, ok := d.byExt[ext]; ok {
		return e, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, filePath)
}

// Supports reports whether filePath has an extractor.
func (d *Dispatcher) Supports(filePath string) bool {
	_, err := d.ExtractorFor(filePath)
	return err == nil
}

// Extract extracts filePath with the matching extractor.
func (d *Dispatcher) Extract(filePath string, source []byte, projectRoot string) (*graph.ParsedFile, error) {
	e, err := d.ExtractorFor(filePath)
	if err != nil {
		return nil, err
	}
	return e.Extract(filePath, source, projectRoot)
}

// Extensions returns the supported extensions, sorted.
func (d *Dispatcher) Extensions() []string {
	exts := make([]string, 0, len(d.byExt))
	for ext := range d.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
