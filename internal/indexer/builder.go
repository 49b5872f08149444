package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"sort"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mvp-joe/code-xref/internal/graph"
	"github.com/mvp-joe/code-xref/internal/indexer/parsers"
	"github.com/mvp-joe/code-xref/internal/resolve"
)

// Builder runs the full extraction pipeline: discover, extract in parallel,
// merge into one graph.
type Builder struct {
	opts       Options
	rootDir    string
	dispatcher *parsers.Dispatcher
	discovery  *FileDiscovery
	logger     *slog.Logger
	progress   ProgressReporter
}

// NewBuilder creates a builder for opts.RootDir.
func NewBuilder(opts Options) (*Builder, error) {
	root, err := filepath.Abs(opts.RootDir)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}

	cacheSize := opts.CacheSize
	if cacheSize <= 0 {
		cacheSize = resolve.DefaultCacheSize
	}
	dispatcher := parsers.NewDispatcher(resolve.NewRegistry(cacheSize))

	discovery, err := NewFileDiscovery(root, opts.Include, opts.Ignore, dispatcher.Supports, opts.MaxFileSize, opts.IncludeTests)
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	progress := opts.Progress
	if progress == nil {
		progress = &NoOpProgressReporter{}
	}

	return &Builder{
		opts:       opts,
		rootDir:    root,
		dispatcher: dispatcher,
		discovery:  discovery,
		logger:     logger,
		progress:   progress,
	}, nil
}

// RootDir returns the absolute project root.
func (b *Builder) RootDir() string {
	return b.rootDir
}

// Discovery returns the file filter used by the builder.
func (b *Builder) Discovery() *FileDiscovery {
	return b.discovery
}

// Resolvers returns the import resolvers of the project.
func (b *Builder) Resolvers() *resolve.Project {
	return b.dispatcher.Projects().Project(b.rootDir)
}

// ExtractFile reads and extracts one project-relative file.
func (b *Builder) ExtractFile(relPath string) (*graph.ParsedFile, error) {
	source, err := b.discovery.ReadFile(relPath)
	if err != nil {
		return nil, err
	}
	pf, err := b.dispatcher.Extract(relPath, source, b.rootDir)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", relPath, err)
	}
	return pf, nil
}

// Build discovers and extracts every file and assembles the graph. Files
// that fail to extract are logged and skipped; only context cancellation
// and discovery failures abort the build.
func (b *Builder) Build(ctx context.Context) (*BuildResult, error) {
	start := time.Now()

	b.progress.OnDiscoveryStart()
	files, oversized, err := b.discovery.DiscoverFiles()
	if err != nil {
		return nil, fmt.Errorf("discover files: %w", err)
	}
	for _, f := range oversized {
		b.logger.Warn("skipping oversized file", "file", f, "limit", b.opts.MaxFileSize)
	}
	b.progress.OnDiscoveryComplete(len(files), len(oversized))

	parsed, failed, err := b.extractAll(ctx, files)
	if err != nil {
		return nil, err
	}

	g := Assemble(parsed)

	result := &BuildResult{
		Graph:     g,
		Files:     make(map[string]*graph.ParsedFile, len(parsed)),
		Skipped:   append(oversized, failed...),
		Duration:  time.Since(start),
		RootDir:   b.rootDir,
		FileCount: len(parsed),
	}
	for _, pf := range parsed {
		result.Files[pf.FilePath] = pf
	}
	sort.Strings(result.Skipped)

	b.progress.OnBuildComplete(g.NodeCount(), g.EdgeCount(), result.Duration)
	b.logger.Info("graph built",
		"files", len(parsed),
		"skipped", len(result.Skipped),
		"nodes", g.NodeCount(),
		"edges", g.EdgeCount(),
		"duration", result.Duration)
	return result, nil
}

// extractAll extracts files concurrently. Results keep the input order.
func (b *Builder) extractAll(ctx context.Context, files []string) ([]*graph.ParsedFile, []string, error) {
	results := make([]*graph.ParsedFile, len(files))
	var processed atomic.Int64

	workers := b.opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)

	for i, file := range files {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			pf, err := b.ExtractFile(file)
			if err != nil {
				// Per-file failures never abort the build
				b.logger.Warn("skipping file", "file", file, "error", err)
			} else {
				results[i] = pf
			}
			b.progress.OnFileProcessed(int(processed.Add(1)), len(files), file)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, nil, fmt.Errorf("extract files: %w", err)
	}

	parsed := make([]*graph.ParsedFile, 0, len(files))
	var failed []string
	for i, pf := range results {
		if pf == nil {
			failed = append(failed, files[i])
			continue
		}
		parsed = append(parsed, pf)
	}
	return parsed, failed, nil
}

// Assemble merges parsed files into a new graph. Every file's nodes are
// added before any cross-file edge is re-applied, so the result does not
// depend on the order of parsed.
func Assemble(parsed []*graph.ParsedFile) *graph.Graph {
	sorted := append([]*graph.ParsedFile(nil), parsed...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].FilePath < sorted[j].FilePath })

	g := graph.New()
	for _, pf := range sorted {
		g.AddOrReplaceFile(pf)
	}
	// Second pass: edges into files added later in the first pass
	for _, pf := range sorted {
		g.AddEdges(pf.Edges)
	}
	return g
}
