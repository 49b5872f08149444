package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/code-xref/internal/indexer"
)

func newBuildCmd(root *rootOptions) *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the cross-reference graph and save a snapshot",
		Long: `Build scans the project, extracts symbols and relationships from every
supported file in parallel, assembles the graph and saves a snapshot to the
storage directory (.xref by default).

Examples:
  # Build the graph of the current directory
  xref build

  # Build another project without progress output
  xref build -C /path/to/project --quiet
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			p, err := loadProject(root)
			if err != nil {
				return err
			}
			result, err := runBuild(ctx, cmd, p, quiet)
			if err != nil {
				return err
			}

			store, err := p.openStore()
			if err != nil {
				return err
			}
			defer store.Close()
			if err := p.save(store, result.Graph); err != nil {
				return err
			}

			if !quiet {
				out := cmd.OutOrStdout()
				success(out, "Graph built: %s files, %s nodes, %s edges (took %.1fs)",
					formatNumber(result.FileCount),
					formatNumber(result.Graph.NodeCount()),
					formatNumber(result.Graph.EdgeCount()),
					result.Duration.Seconds())
				for _, f := range result.Skipped {
					warning(out, "skipped %s", f)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Disable progress bars and non-error output")
	return cmd
}

// runBuild runs a full build of p with progress written to stderr.
func runBuild(ctx context.Context, cmd *cobra.Command, p *project, quiet bool) (*indexer.BuildResult, error) {
	progress := NewCLIProgressReporter(quiet, cmd.ErrOrStderr())
	b, err := indexer.NewBuilder(p.indexerOptions(progress))
	if err != nil {
		return nil, err
	}
	return b.Build(ctx)
}
