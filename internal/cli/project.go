package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/mvp-joe/code-xref/internal/config"
	"github.com/mvp-joe/code-xref/internal/graph"
	"github.com/mvp-joe/code-xref/internal/indexer"
	"github.com/mvp-joe/code-xref/internal/storage"
)

// ErrNoSnapshot is returned by queries run before any build.
var ErrNoSnapshot = errors.New("no graph snapshot found")

// project is a loaded project root with its configuration.
type project struct {
	root   string
	cfg    *config.Config
	logger *slog.Logger
}

func loadProject(opts *rootOptions) (*project, error) {
	root, err := filepath.Abs(opts.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project root: %w", err)
	}
	cfg, err := config.LoadConfigFromDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := opts.logger
	if logger == nil {
		logger = slog.Default()
	}
	return &project{root: root, cfg: cfg, logger: logger}, nil
}

func (p *project) indexerOptions(progress indexer.ProgressReporter) indexer.Options {
	o := p.cfg.ToIndexerOptions(p.root)
	o.Logger = p.logger
	o.Progress = progress
	return o
}

func (p *project) openStore() (storage.Store, error) {
	s, err := storage.Open(p.cfg.Storage.Backend, p.cfg.StorageDir(p.root))
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot storage: %w", err)
	}
	return s, nil
}

// save persists g as the project's snapshot.
func (p *project) save(store storage.Store, g *graph.Graph) error {
	if err := store.Save(g.ExportSnapshot(p.root)); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// loadGraph restores the last saved graph.
func (p *project) loadGraph() (*graph.Graph, error) {
	store, err := p.openStore()
	if err != nil {
		return nil, err
	}
	defer store.Close()

	snap, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	if snap == nil {
		return nil, fmt.Errorf("%w in %s; run 'xref build' first", ErrNoSnapshot, p.cfg.StorageDir(p.root))
	}
	return graph.ImportSnapshot(snap), nil
}
