package watcher

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// FileWatcher monitors a project tree and reports typed file events.
type FileWatcher interface {
	// Start begins watching, calling callback for every accepted event.
	// The callback runs on the watcher goroutine.
	Start(ctx context.Context, callback func(Event)) error

	// Stop stops the file watcher and cleans up resources.
	Stop() error
}

// Options configures a FileWatcher.
type Options struct {
	// Accept reports whether a project-relative file path is of interest.
	// Nil accepts every file.
	Accept func(rel string) bool

	// SkipDir reports whether a project-relative directory is never watched.
	SkipDir func(rel string) bool

	Logger *slog.Logger
}

// fileWatcher implements FileWatcher on top of fsnotify.
type fileWatcher struct {
	watcher  *fsnotify.Watcher
	root     string
	opts     Options
	logger   *slog.Logger
	callback func(Event)
	ctx      context.Context
	cancel   context.CancelFunc
	stopOnce sync.Once
	doneCh   chan struct{}

	// Owned by the watch goroutine once started.
	dirs  map[string]bool // watched directories
	files map[string]bool // accepted files seen so far
}

// NewFileWatcher creates a recursive watcher rooted at root.
func NewFileWatcher(root string, opts Options) (FileWatcher, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(abs); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	fw := &fileWatcher{
		watcher: watcher,
		root:    abs,
		opts:    opts,
		logger:  logger,
		doneCh:  make(chan struct{}),
		dirs:    make(map[string]bool),
		files:   make(map[string]bool),
	}

	if err := fw.addDirectoriesRecursively(abs); err != nil {
		watcher.Close()
		return nil, err
	}

	return fw, nil
}

// Start begins watching for file changes.
func (fw *fileWatcher) Start(ctx context.Context, callback func(Event)) error {
	if callback == nil {
		return errors.New("watcher: nil callback")
	}

	fw.callback = callback
	fw.ctx, fw.cancel = context.WithCancel(ctx)

	go fw.watch()
	return nil
}

// Stop stops the file watcher. Safe to call more than once.
func (fw *fileWatcher) Stop() error {
	var err error
	fw.stopOnce.Do(func() {
		if fw.cancel != nil {
			fw.cancel()
			<-fw.doneCh
		} else {
			close(fw.doneCh)
		}
		err = fw.watcher.Close()
	})
	return err
}

// watch is the main event loop.
func (fw *fileWatcher) watch() {
	defer close(fw.doneCh)

	for {
		select {
		case <-fw.ctx.Done():
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			fw.handle(event)

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.Warn("file watcher error", "error", err)
		}
	}
}

func (fw *fileWatcher) handle(event fsnotify.Event) {
	rel, ok := fw.relative(event.Name)
	if !ok {
		return
	}

	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := fw.addDirectoriesRecursively(event.Name); err != nil {
				fw.logger.Warn("failed to watch new directory", "dir", rel, "error", err)
			}
			fw.emitExisting(event.Name)
			return
		}
	}

	kind, ok := eventKind(event.Op)
	if !ok {
		return
	}
	if kind == FileDeleted && fw.dirs[rel] {
		fw.removeDir(rel)
		return
	}
	if !fw.accept(rel) {
		return
	}
	if kind == FileDeleted {
		delete(fw.files, rel)
	} else {
		fw.files[rel] = true
	}
	fw.callback(Event{Path: rel, Kind: kind})
}

// removeDir handles a watched directory that was removed or moved away.
// Only the directory itself is reported for a move, so every known file
// under it is reported deleted.
func (fw *fileWatcher) removeDir(rel string) {
	prefix := rel + "/"
	for d := range fw.dirs {
		if d == rel || strings.HasPrefix(d, prefix) {
			delete(fw.dirs, d)
			// Already gone when the directory was deleted
			_ = fw.watcher.Remove(filepath.Join(fw.root, filepath.FromSlash(d)))
		}
	}

	var gone []string
	for f := range fw.files {
		if strings.HasPrefix(f, prefix) {
			gone = append(gone, f)
		}
	}
	sort.Strings(gone)
	for _, f := range gone {
		delete(fw.files, f)
		fw.callback(Event{Path: f, Kind: FileDeleted})
	}
}

// emitExisting reports files already inside a directory that appeared
// before it could be watched (e.g. mkdir -p followed by a fast write).
func (fw *fileWatcher) emitExisting(dir string) {
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if rel, ok := fw.relative(path); ok && fw.accept(rel) {
			fw.files[rel] = true
			fw.callback(Event{Path: rel, Kind: FileAdded})
		}
		return nil
	})
}

// eventKind maps fsnotify operations to event kinds. Chmod is ignored.
func eventKind(op fsnotify.Op) (EventKind, bool) {
	switch {
	case op&(fsnotify.Remove|fsnotify.Rename) != 0:
		return FileDeleted, true
	case op&fsnotify.Create != 0:
		return FileAdded, true
	case op&fsnotify.Write != 0:
		return FileChanged, true
	}
	return 0, false
}

func (fw *fileWatcher) accept(rel string) bool {
	return fw.opts.Accept == nil || fw.opts.Accept(rel)
}

func (fw *fileWatcher) relative(path string) (string, bool) {
	rel, err := filepath.Rel(fw.root, path)
	if err != nil || rel == "." || rel == ".." || filepath.IsAbs(rel) {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	if len(rel) > 2 && rel[:3] == "../" {
		return "", false
	}
	return rel, true
}

// addDirectoriesRecursively adds all directories in the tree to the watcher.
func (fw *fileWatcher) addDirectoriesRecursively(rootPath string) error {
	return filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// If it's the root path, fail immediately
			if path == rootPath {
				return err
			}
			fw.logger.Warn("error accessing path", "path", path, "error", err)
			return nil
		}

		rel, ok := fw.relative(path)
		if !d.IsDir() {
			if ok && fw.accept(rel) {
				fw.files[rel] = true
			}
			return nil
		}

		if ok && fw.opts.SkipDir != nil && fw.opts.SkipDir(rel) {
			return filepath.SkipDir
		}

		if err := fw.watcher.Add(path); err != nil {
			fw.logger.Warn("failed to watch directory", "dir", path, "error", err)
			return nil
		}
		if ok {
			fw.dirs[rel] = true
		}
		return nil
	})
}
