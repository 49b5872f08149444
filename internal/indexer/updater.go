package indexer

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"path"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mvp-joe/code-xref/internal/graph"
	"github.com/mvp-joe/code-xref/internal/indexer/parsers"
	"github.com/mvp-joe/code-xref/internal/resolve"
	"github.com/mvp-joe/code-xref/internal/watcher"
)

// UpdateResult describes one committed update.
type UpdateResult struct {
	Path        string
	Kind        watcher.EventKind
	Reextracted []string // Other files extracted again because resolution may have changed
	Duration    time.Duration
}

// Updater keeps a graph current as files change.
//
// Policy: a change patches only the changed file. The updater caches every
// file's last ParsedFile and an inbound index (file -> files with edges into
// it). After a file is added or replaced, the cached edges of its inbound
// files are re-applied, restoring edges the graph dropped while the file was
// missing or being replaced.
//
// Adding or deleting a file can change what other files' imports resolve to.
// On add, files with unresolved imports and the importers of every file the
// new one can shadow are extracted again; for Go, the package siblings and
// their importers too. On delete, every file with edges into the deleted
// file is extracted again. A change to go.mod or a tsconfig reloads the
// resolvers and extracts every file again.
//
// Mutation happens on a private working graph under mu; readers get an
// immutable clone published through an atomic pointer.
type Updater struct {
	builder  *Builder
	logger   *slog.Logger
	debounce time.Duration
	onUpdate func(UpdateResult)

	mu       sync.Mutex
	work     *graph.Graph
	parsed   map[string]*graph.ParsedFile
	inbound  map[string]map[string]bool // target file -> source files
	pending  map[string]watcher.EventKind
	timers   map[string]*time.Timer
	versions map[string]uint64
	inflight sync.WaitGroup

	current atomic.Pointer[graph.Graph]
}

// NewUpdater creates an updater seeded with a full build.
func NewUpdater(b *Builder, initial *BuildResult, onUpdate func(UpdateResult)) *Updater {
	debounce := b.opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	u := &Updater{
		builder:  b,
		logger:   b.logger,
		debounce: debounce,
		onUpdate: onUpdate,
		work:     initial.Graph.Clone(),
		parsed:   make(map[string]*graph.ParsedFile, len(initial.Files)),
		inbound:  make(map[string]map[string]bool),
		pending:  make(map[string]watcher.EventKind),
		timers:   make(map[string]*time.Timer),
		versions: make(map[string]uint64),
	}
	for p, pf := range initial.Files {
		u.parsed[p] = pf
		u.index(pf)
	}
	u.current.Store(initial.Graph)
	return u
}

// Snapshot returns the latest published graph. It must not be mutated.
func (u *Updater) Snapshot() *graph.Graph {
	return u.current.Load()
}

// Run feeds events into the debouncer until ctx is done or events closes,
// then waits for in-flight updates.
func (u *Updater) Run(ctx context.Context, events <-chan watcher.Event) error {
	defer u.Close()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			u.Schedule(ev)
		}
	}
}

// Accept reports whether events for the project-relative path rel affect
// the graph: extractable source files and resolver config files.
func (u *Updater) Accept(rel string) bool {
	return u.builder.discovery.Accept(rel) || resolve.IsConfigFile(rel)
}

// Schedule debounces ev: the update runs once the path has been quiet for
// the debounce window. A newer event for the same path supersedes any
// update still being prepared.
func (u *Updater) Schedule(ev watcher.Event) {
	if !u.Accept(ev.Path) {
		return
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	if kind, ok := u.pending[ev.Path]; ok {
		u.pending[ev.Path] = watcher.Merge(kind, ev.Kind)
	} else {
		u.pending[ev.Path] = ev.Kind
	}
	u.versions[ev.Path]++

	if t, ok := u.timers[ev.Path]; ok && t.Stop() {
		u.inflight.Done()
	}
	p := ev.Path
	u.inflight.Add(1)
	u.timers[p] = time.AfterFunc(u.debounce, func() {
		defer u.inflight.Done()
		u.fire(p)
	})
}

// Close stops pending timers and waits for running updates.
func (u *Updater) Close() {
	u.mu.Lock()
	for p, t := range u.timers {
		if t.Stop() {
			u.inflight.Done()
		}
		delete(u.timers, p)
		delete(u.pending, p)
	}
	u.mu.Unlock()
	u.inflight.Wait()
}

// Wait blocks until every scheduled update has run.
func (u *Updater) Wait() {
	u.inflight.Wait()
}

func (u *Updater) fire(p string) {
	u.mu.Lock()
	kind, ok := u.pending[p]
	if !ok {
		u.mu.Unlock()
		return
	}
	delete(u.pending, p)
	delete(u.timers, p)
	u.mu.Unlock()

	if err := u.commit(u.prepare(watcher.Event{Path: p, Kind: kind})); err != nil {
		u.logger.Warn("update failed", "file", p, "kind", kind, "error", err)
	}
}

// Apply runs ev immediately, without debouncing.
func (u *Updater) Apply(ev watcher.Event) error {
	if !u.Accept(ev.Path) {
		return nil
	}
	u.mu.Lock()
	u.versions[ev.Path]++
	u.mu.Unlock()
	return u.commit(u.prepare(ev))
}

// preparedUpdate is an extraction result waiting to be committed.
type preparedUpdate struct {
	event   watcher.Event
	version uint64
	parsed  *graph.ParsedFile
	config  bool // resolver config file, not a source file
	err     error
	started time.Time
}

// prepare extracts the file outside the lock. A file that no longer exists
// or has grown past the size cap turns the event into a delete.
func (u *Updater) prepare(ev watcher.Event) *preparedUpdate {
	u.mu.Lock()
	pu := &preparedUpdate{event: ev, version: u.versions[ev.Path], started: time.Now()}
	u.mu.Unlock()

	if !u.builder.discovery.Accept(ev.Path) {
		pu.config = true
		return pu
	}
	if ev.Kind == watcher.FileDeleted {
		return pu
	}
	pf, err := u.builder.ExtractFile(ev.Path)
	switch {
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, ErrFileTooLarge):
		// A full build skips oversized files, so they leave the graph
		pu.event.Kind = watcher.FileDeleted
	case err != nil:
		pu.err = err
	default:
		pu.parsed = pf
	}
	return pu
}

// commit applies a prepared update unless a newer event for the same path
// was scheduled in the meantime.
func (u *Updater) commit(pu *preparedUpdate) error {
	if pu.err != nil {
		return pu.err
	}
	p := pu.event.Path

	u.mu.Lock()
	if u.versions[p] != pu.version {
		u.mu.Unlock()
		u.logger.Debug("discarding superseded update", "file", p)
		return nil
	}

	result := UpdateResult{Path: p, Kind: pu.event.Kind}
	_, existed := u.parsed[p]

	switch {
	case pu.config:
		u.builder.Resolvers().Invalidate()
		all := make(map[string]bool, len(u.parsed))
		for f := range u.parsed {
			all[f] = true
		}
		result.Reextracted = u.reextract(all)
	case pu.event.Kind == watcher.FileDeleted && !existed:
		u.mu.Unlock()
		u.logger.Debug("ignoring delete of unindexed file", "file", p)
		return nil
	case pu.event.Kind == watcher.FileDeleted:
		importers := u.importersOf(p)
		u.remove(p)
		u.builder.Resolvers().Invalidate()
		result.Reextracted = u.reextract(importers)
	default:
		u.replace(pu.parsed)
		if !existed {
			// Negative lookups cached before the file existed are stale
			u.builder.Resolvers().Invalidate()
			result.Reextracted = u.reextract(u.affectedByAdd(p))
		}
	}

	snapshot := u.work.Clone()
	u.current.Store(snapshot)
	u.mu.Unlock()

	result.Duration = time.Since(pu.started)
	u.logger.Info("graph updated",
		"file", p,
		"kind", result.Kind,
		"reextracted", len(result.Reextracted),
		"nodes", snapshot.NodeCount(),
		"edges", snapshot.EdgeCount())
	if u.onUpdate != nil {
		u.onUpdate(result)
	}
	return nil
}

// replace adds or replaces pf and re-applies the cached edges pointing into it.
// Callers hold mu.
func (u *Updater) replace(pf *graph.ParsedFile) {
	p := pf.FilePath
	if old, ok := u.parsed[p]; ok {
		u.unindex(old)
	}
	u.work.AddOrReplaceFile(pf)
	u.parsed[p] = pf
	u.index(pf)

	sources := make([]string, 0, len(u.inbound[p]))
	for src := range u.inbound[p] {
		sources = append(sources, src)
	}
	sort.Strings(sources)
	for _, src := range sources {
		cached, ok := u.parsed[src]
		if !ok {
			continue
		}
		var into []graph.Edge
		for _, e := range cached.Edges {
			if graph.FileOfID(e.Target) == p {
				into = append(into, e)
			}
		}
		u.work.AddEdges(into)
	}
}

// remove drops a file. Its inbound entry is kept so the cached edges of
// other files come back if the file reappears. Callers hold mu.
func (u *Updater) remove(p string) {
	if old, ok := u.parsed[p]; ok {
		u.unindex(old)
		delete(u.parsed, p)
	}
	u.work.RemoveFile(p)
}

// importersOf returns the files other than p with edges into p. Callers hold mu.
func (u *Updater) importersOf(p string) map[string]bool {
	importers := make(map[string]bool, len(u.inbound[p]))
	for src := range u.inbound[p] {
		if src != p {
			importers[src] = true
		}
	}
	return importers
}

// affectedByAdd returns the files whose resolution may change now that p
// exists. Callers hold mu.
func (u *Updater) affectedByAdd(p string) map[string]bool {
	affected := make(map[string]bool)
	for f, pf := range u.parsed {
		if f != p && hasUnresolvedImport(pf) {
			affected[f] = true
		}
	}
	for f := range u.parsed {
		if f != p && shadows(p, f) {
			for importer := range u.inbound[f] {
				affected[importer] = true
			}
		}
	}
	if pf := u.parsed[p]; pf != nil && pf.Language == parsers.LangGo {
		dir := path.Dir(p)
		for f := range u.parsed {
			if f == p || path.Dir(f) != dir || path.Ext(f) != ".go" {
				continue
			}
			affected[f] = true
			for importer := range u.inbound[f] {
				affected[importer] = true
			}
		}
	}
	delete(affected, p)
	return affected
}

// shadows reports whether an import that resolved to existing may resolve
// to added instead: a sibling in the same directory (another extension of
// the same stem, index.* or __init__.py), a file of the same stem elsewhere
// (Python absolute imports probe the root first), or a file inside the
// directory named by added's stem (a.ts before a/index.ts, x.py before
// x/__init__.py).
func shadows(added, existing string) bool {
	if path.Dir(existing) == path.Dir(added) {
		return true
	}
	stem := strings.TrimSuffix(added, path.Ext(added))
	if path.Dir(existing) == stem {
		return true
	}
	return fileStem(existing) == fileStem(added)
}

func fileStem(p string) string {
	base := path.Base(p)
	return strings.TrimSuffix(base, path.Ext(base))
}

// reextract extracts files again and commits them, returning their sorted
// paths. Files that vanished meanwhile are left to their own delete event.
// Callers hold mu.
func (u *Updater) reextract(affected map[string]bool) []string {
	files := make([]string, 0, len(affected))
	for f := range affected {
		if _, ok := u.parsed[f]; ok {
			files = append(files, f)
		}
	}
	sort.Strings(files)

	for _, f := range files {
		pf, err := u.builder.ExtractFile(f)
		if err != nil {
			u.logger.Warn("re-extraction failed", "file", f, "error", err)
			continue
		}
		u.replace(pf)
	}
	return files
}

// index records the files pf has edges into. Callers hold mu.
func (u *Updater) index(pf *graph.ParsedFile) {
	for _, e := range pf.Edges {
		target := graph.FileOfID(e.Target)
		if target == pf.FilePath {
			continue
		}
		set, ok := u.inbound[target]
		if !ok {
			set = make(map[string]bool)
			u.inbound[target] = set
		}
		set[pf.FilePath] = true
	}
}

func (u *Updater) unindex(pf *graph.ParsedFile) {
	for _, e := range pf.Edges {
		target := graph.FileOfID(e.Target)
		if set, ok := u.inbound[target]; ok {
			delete(set, pf.FilePath)
			if len(set) == 0 {
				delete(u.inbound, target)
			}
		}
	}
}

// hasUnresolvedImport reports whether pf binds an import that resolved to
// nothing. External packages count too, which only costs an extra extraction.
func hasUnresolvedImport(pf *graph.ParsedFile) bool {
	resolved := make(map[string]bool)
	for _, e := range pf.Edges {
		if e.Kind == graph.EdgeImports {
			resolved[e.Source] = true
		}
	}
	for _, s := range pf.Symbols {
		if s.Kind == graph.KindImport && !resolved[s.ID] {
			return true
		}
	}
	return false
}
