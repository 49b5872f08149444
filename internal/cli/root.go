package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// rootOptions holds the persistent flags shared by every command.
type rootOptions struct {
	dir     string
	verbose bool
	logger  *slog.Logger
}

// NewRootCmd builds the xref command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "xref",
		Short: "xref - cross-reference graph of a codebase",
		Long: `xref builds a cross-reference graph of a TypeScript, JavaScript, Python and Go
codebase: who calls, imports, extends, implements, decorates and references what.

The graph answers impact ("what breaks if I change this"), dependency and
cycle queries, and is kept current incrementally while files change.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			opts.logger = newLogger(cmd.ErrOrStderr(), opts.verbose)
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.dir, "dir", "C", ".", "project root directory")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(
		newBuildCmd(opts),
		newWatchCmd(opts),
		newQueryCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

// Execute runs the root command. This is called by main.main().
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newLogger returns a text logger writing to w; verbose enables debug records.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
