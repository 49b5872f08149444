package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/code-xref/internal/graph"
)

type queryOptions struct {
	root    *rootOptions
	jsonOut bool
}

func newQueryCmd(root *rootOptions) *cobra.Command {
	opts := &queryOptions{root: root}

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Query the saved graph snapshot",
		Long: `Query answers questions about the graph saved by 'xref build' or 'xref watch'.

Symbols are addressed by ID ("path/to/file.ts::Class.method"). Commands that
accept a bare name (impact) run once per matching symbol.`,
	}
	cmd.PersistentFlags().BoolVar(&opts.jsonOut, "json", false, "Print results as JSON")

	cmd.AddCommand(
		newImpactCmd(opts),
		newNeighborsCmd(opts, "deps", "List what a symbol depends on", (*graph.QueryEngine).Dependencies),
		newNeighborsCmd(opts, "dependents", "List what depends directly on a symbol", (*graph.QueryEngine).Dependents),
		newSearchCmd(opts),
		newFileCmd(opts),
		newCyclesCmd(opts),
		newSummaryCmd(opts),
	)
	return cmd
}

func (o *queryOptions) snapshot() (*graph.Graph, error) {
	p, err := loadProject(o.root)
	if err != nil {
		return nil, err
	}
	return p.loadGraph()
}

func (o *queryOptions) engine() (*graph.QueryEngine, error) {
	g, err := o.snapshot()
	if err != nil {
		return nil, err
	}
	return graph.NewQueryEngine(g), nil
}

func newImpactCmd(opts *queryOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "impact <symbol-id | name>",
		Short: "Show everything that depends on a symbol, directly or transitively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := opts.engine()
			if err != nil {
				return err
			}

			var results []*graph.ImpactResult
			if strings.Contains(args[0], graph.IDSeparator) {
				r, err := q.Impact(args[0])
				if err != nil {
					return err
				}
				results = []*graph.ImpactResult{r}
			} else if results, err = q.ImpactByName(args[0]); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.jsonOut {
				return writeJSON(out, results)
			}
			for i, r := range results {
				if i > 0 {
					fmt.Fprintln(out)
				}
				printImpact(out, r)
			}
			return nil
		},
	}
}

func printImpact(w io.Writer, r *graph.ImpactResult) {
	title(w, "Impact of %s", r.Target.ID)
	if len(r.TransitiveDependents) == 0 {
		fmt.Fprintln(w, "  no dependents")
		return
	}
	for _, e := range r.TransitiveDependents {
		fmt.Fprintf(w, "  %s%s %s\n", strings.Repeat("  ", e.Depth-1), styles.Symbol.Render(e.Symbol.ID), location(e.Symbol.FilePath, e.Symbol.StartLine))
	}
	fmt.Fprintf(w, "%d direct, %d total dependents in %d files:\n",
		len(r.DirectDependents), len(r.TransitiveDependents), len(r.AffectedFiles))
	for _, f := range r.AffectedFiles {
		fmt.Fprintf(w, "  %s\n", f)
	}
}

type neighborQuery func(*graph.QueryEngine, string) ([]graph.Neighbor, error)

func newNeighborsCmd(opts *queryOptions, use, short string, run neighborQuery) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <symbol-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := opts.engine()
			if err != nil {
				return err
			}
			neighbors, err := run(q, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.jsonOut {
				if neighbors == nil {
					neighbors = []graph.Neighbor{}
				}
				return writeJSON(out, neighbors)
			}
			if len(neighbors) == 0 {
				fmt.Fprintf(out, "no %s for %s\n", use, args[0])
				return nil
			}
			for _, n := range neighbors {
				fmt.Fprintf(out, "%-16s %s %s\n", n.Edge.Kind, styles.Symbol.Render(n.Symbol.ID), location(n.Edge.FilePath, n.Edge.Line))
			}
			return nil
		},
	}
}

func newSearchCmd(opts *queryOptions) *cobra.Command {
	var (
		kinds          []string
		limit          int
		includeImports bool
	)

	cmd := &cobra.Command{
		Use:   "search <name>",
		Short: "Find symbols whose name contains a substring",
		Long: `Search lists every symbol whose name contains the query, case-insensitively.
Exact name matches come first. Symbols sharing a name are all listed with
their location. Import bindings are skipped unless --imports is set.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := opts.engine()
			if err != nil {
				return err
			}
			searchOpts := graph.SearchOptions{Limit: limit, IncludeImports: includeImports}
			for _, k := range kinds {
				searchOpts.Kinds = append(searchOpts.Kinds, graph.SymbolKind(k))
			}
			symbols := q.SearchSymbols(args[0], searchOpts)

			out := cmd.OutOrStdout()
			if opts.jsonOut {
				if symbols == nil {
					symbols = []graph.Symbol{}
				}
				return writeJSON(out, symbols)
			}
			if len(symbols) == 0 {
				fmt.Fprintf(out, "no symbols matching %q\n", args[0])
				return nil
			}
			for _, s := range symbols {
				fmt.Fprintf(out, "%-10s %s %s\n", s.Kind, styles.Symbol.Render(s.ID), location(s.FilePath, s.StartLine))
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&kinds, "kind", "k", nil, "Only these symbol kinds (class, function, method, ...)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum results (0 for all)")
	cmd.Flags().BoolVar(&includeImports, "imports", false, "Include import bindings")
	return cmd
}

// fileReport is the file-level view printed by "query file".
type fileReport struct {
	File      string         `json:"file"`
	Language  string         `json:"language"`
	Symbols   []graph.Symbol `json:"symbols"`
	DependsOn []string       `json:"dependsOn"`
	UsedBy    []string       `json:"usedBy"`
}

func newFileCmd(opts *queryOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "file <path>",
		Short: "List a file's symbols and the files it depends on or is used by",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := opts.snapshot()
			if err != nil {
				return err
			}
			path := strings.TrimPrefix(args[0], "./")
			if !g.HasFile(path) {
				return fmt.Errorf("file %s is not in the graph", path)
			}
			q := graph.NewQueryEngine(g)
			report := fileReport{
				File:      path,
				Language:  g.FileLanguage(path),
				Symbols:   g.NodesInFile(path),
				DependsOn: nonNil(q.FileDependencies(path)),
				UsedBy:    nonNil(q.FileDependents(path)),
			}

			out := cmd.OutOrStdout()
			if opts.jsonOut {
				return writeJSON(out, report)
			}
			title(out, "%s (%s)", report.File, report.Language)
			for _, s := range report.Symbols {
				fmt.Fprintf(out, "  %-10s %s %s\n", s.Kind, styles.Symbol.Render(s.ID), location(s.FilePath, s.StartLine))
			}
			printFiles(out, "Depends on", report.DependsOn)
			printFiles(out, "Used by", report.UsedBy)
			return nil
		},
	}
}

func printFiles(w io.Writer, heading string, files []string) {
	title(w, "%s (%d)", heading, len(files))
	for _, f := range files {
		fmt.Fprintf(w, "  %s\n", f)
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func newCyclesCmd(opts *queryOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "cycles",
		Short: "List circular dependencies between files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := opts.engine()
			if err != nil {
				return err
			}
			cycles := q.DetectCycles()

			out := cmd.OutOrStdout()
			if opts.jsonOut {
				if cycles == nil {
					cycles = []graph.Cycle{}
				}
				return writeJSON(out, cycles)
			}
			if len(cycles) == 0 {
				success(out, "no circular dependencies")
				return nil
			}
			title(out, "%d circular dependencies", len(cycles))
			for _, c := range cycles {
				chain := append(append([]string(nil), c.Files...), c.Files[0])
				fmt.Fprintf(out, "  %s\n", strings.Join(chain, " → "))
				for _, e := range c.Symbols {
					fmt.Fprintf(out, "    %s %s %s %s\n", e.Source, styles.Muted.Render(string(e.Kind)), e.Target, location(e.FilePath, e.Line))
				}
			}
			return nil
		},
	}
}

func newSummaryCmd(opts *queryOptions) *cobra.Command {
	var top int

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show graph-wide statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := opts.engine()
			if err != nil {
				return err
			}
			s := q.ArchitectureSummary(top)

			out := cmd.OutOrStdout()
			if opts.jsonOut {
				return writeJSON(out, s)
			}

			title(out, "Graph summary")
			fmt.Fprintf(out, "  files:   %s\n", formatNumber(s.FileCount))
			fmt.Fprintf(out, "  symbols: %s\n", formatNumber(s.SymbolCount))
			fmt.Fprintf(out, "  edges:   %s (%s cross-file)\n", formatNumber(s.EdgeCount), formatNumber(s.CrossFileEdgeCount))

			printCounts(out, "Languages", s.FilesByLanguage)
			printCounts(out, "Symbols by kind", s.SymbolsByKind)
			printCounts(out, "Edges by kind", s.EdgesByKind)

			if len(s.MostConnected) > 0 {
				title(out, "Most connected files")
				for _, f := range s.MostConnected {
					fmt.Fprintf(out, "  %-40s in %-5d out %d\n", f.File, f.Incoming, f.Outgoing)
				}
			}
			if len(s.OrphanFiles) > 0 {
				title(out, "Files without cross-file edges")
				for _, f := range s.OrphanFiles {
					fmt.Fprintf(out, "  %s\n", f)
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&top, "top", 10, "Number of most connected files to list")
	return cmd
}

// printCounts prints a count table sorted by key.
func printCounts[K ~string](w io.Writer, heading string, counts map[K]int) {
	if len(counts) == 0 {
		return
	}
	keys := make([]K, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	title(w, "%s", heading)
	for _, k := range keys {
		fmt.Fprintf(w, "  %-16s %s\n", k, formatNumber(counts[k]))
	}
}
