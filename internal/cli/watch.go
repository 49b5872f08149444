package cli

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/code-xref/internal/indexer"
	"github.com/mvp-joe/code-xref/internal/watcher"
)

func newWatchCmd(root *rootOptions) *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Build the graph, then keep it current as files change",
		Long: `Watch runs a full build, then watches the project for file changes and
patches the graph incrementally. Bursts of changes to one file are debounced
(watch.debounce_ms, 300ms by default). The snapshot is saved after every
update, so queries from another shell see the latest graph.

Press Ctrl+C to stop.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			p, err := loadProject(root)
			if err != nil {
				return err
			}
			store, err := p.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			b, err := indexer.NewBuilder(p.indexerOptions(NewCLIProgressReporter(quiet, cmd.ErrOrStderr())))
			if err != nil {
				return err
			}
			initial, err := b.Build(ctx)
			if err != nil {
				return err
			}
			if err := p.save(store, initial.Graph); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			var (
				saveMu  sync.Mutex
				updater *indexer.Updater
			)
			updater = indexer.NewUpdater(b, initial, func(r indexer.UpdateResult) {
				saveMu.Lock()
				defer saveMu.Unlock()
				if err := p.save(store, updater.Snapshot()); err != nil {
					p.logger.Error("snapshot save failed", "error", err)
					return
				}
				if !quiet {
					success(out, "%s %s (%d re-extracted, %s)", r.Kind, r.Path, len(r.Reextracted), r.Duration.Round(time.Millisecond))
				}
			})

			d := b.Discovery()
			fw, err := watcher.NewFileWatcher(b.RootDir(), watcher.Options{
				Accept:  updater.Accept,
				SkipDir: d.SkipDir,
				Logger:  p.logger,
			})
			if err != nil {
				return err
			}
			defer fw.Stop()

			events := make(chan watcher.Event, 64)
			if err := fw.Start(ctx, func(ev watcher.Event) {
				select {
				case events <- ev:
				case <-ctx.Done():
				}
			}); err != nil {
				return err
			}

			if !quiet {
				success(out, "Watching %s (%s nodes, %s edges)",
					b.RootDir(),
					formatNumber(initial.Graph.NodeCount()),
					formatNumber(initial.Graph.EdgeCount()))
			}
			return updater.Run(ctx, events)
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Disable progress bars and non-error output")
	return cmd
}
