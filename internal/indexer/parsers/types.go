package parsers

import (
	"errors"

	"github.com/mvp-joe/code-xref/internal/graph"
)

// Language names recorded on parsed files.
const (
	LangTypeScript = "typescript"
	LangJavaScript = "javascript"
	LangPython     = "python"
	LangGo         = "go"
)

var (
	// ErrUnsupportedLanguage is returned for files no extractor handles.
	ErrUnsupportedLanguage = errors.New("unsupported language")

	// ErrParseFailed is returned when tree-sitter produces no tree at all.
	ErrParseFailed = errors.New("parse failed")
)

// Extractor turns one source file into its symbols and edges. It sees only
// that file plus the filesystem under projectRoot (for import resolution).
// Implementations are stateless and safe for concurrent use.
type Extractor interface {
	// Extract parses source, the contents of filePath. filePath is
	// project-relative and slash separated.
	Extract(filePath string, source []byte, projectRoot string) (*graph.ParsedFile, error)

	// Language returns the language name recorded on parsed files.
	Language() string
}
