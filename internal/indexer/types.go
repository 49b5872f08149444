package indexer

import (
	"log/slog"
	"time"

	"github.com/mvp-joe/code-xref/internal/graph"
)

// Options configures discovery, extraction and incremental updates.
type Options struct {
	RootDir      string   // Project root; made absolute by NewBuilder
	Include      []string // Glob patterns narrowing the scanned files
	Ignore       []string // Glob patterns of files and directories to skip
	MaxFileSize  int64    // Bytes; 0 disables the cap
	IncludeTests bool
	Workers      int           // 0 means runtime.NumCPU()
	CacheSize    int           // Resolver LRU entries; 0 means the resolver default
	Debounce     time.Duration // Per-path quiescence window for updates

	Logger   *slog.Logger
	Progress ProgressReporter
}

// DefaultDebounce is the quiescence window used when Options.Debounce is zero.
const DefaultDebounce = 300 * time.Millisecond

// DefaultMaxFileSize is the file size cap of the CLI defaults.
const DefaultMaxFileSize = 1 << 20

// BuildResult is the output of a full build.
type BuildResult struct {
	Graph     *graph.Graph
	Files     map[string]*graph.ParsedFile // Extraction output per file
	Skipped   []string                     // Files that failed to extract or were too large
	Duration  time.Duration
	RootDir   string
	FileCount int
}
