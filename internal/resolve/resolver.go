// Package resolve turns import specifiers into project-relative file paths.
//
// A specifier that does not resolve to a file inside the project is an
// external dependency. That is a normal outcome, reported as ok == false,
// never as an error.
package resolve

import (
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize bounds the per-project filesystem caches.
const DefaultCacheSize = 4096

// Resolver resolves one import specifier written in fromFile.
// Both fromFile and the result are project-relative, slash separated paths.
type Resolver interface {
	Resolve(specifier, fromFile string) (string, bool)
}

// Project bundles the resolvers of one project root.
type Project struct {
	Root   string
	Script *ScriptResolver
	Python *PythonResolver
	Go     *GoResolver

	fs *fsCache
}

// NewProject creates resolvers for the project at root.
func NewProject(root string, cacheSize int) *Project {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	fs := newFSCache(root, cacheSize)
	return &Project{
		Root:   root,
		Script: newScriptResolver(fs),
		Python: &PythonResolver{fs: fs},
		Go:     newGoResolver(fs),
		fs:     fs,
	}
}

// Invalidate drops cached filesystem lookups along with the loaded tsconfig
// and go.mod. Call it after files are added or removed, or after a resolver
// config file changes, so later resolutions see the new tree.
func (p *Project) Invalidate() {
	p.fs.purge()
	p.Script.reset()
	p.Go.reset()
}

// IsConfigFile reports whether the project-relative path rel is read by a
// resolver: the root go.mod, or a tsconfig/jsconfig file anywhere (extends
// chains may point into subdirectories).
func IsConfigFile(rel string) bool {
	if rel == "go.mod" {
		return true
	}
	base := path.Base(rel)
	if path.Ext(base) != ".json" {
		return false
	}
	return strings.HasPrefix(base, "tsconfig") || strings.HasPrefix(base, "jsconfig")
}

// Registry hands out one Project per root, creating it on first use.
type Registry struct {
	mu        sync.Mutex
	projects  map[string]*Project
	cacheSize int
}

// NewRegistry creates an empty registry.
func NewRegistry(cacheSize int) *Registry {
	return &Registry{
		projects:  make(map[string]*Project),
		cacheSize: cacheSize,
	}
}

// Project returns the resolvers for root.
func (r *Registry) Project(root string) *Project {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.projects[root]; ok {
		return p
	}
	p := NewProject(root, r.cacheSize)
	r.projects[root] = p
	return p
}

// fsCache memoizes file existence and directory listings under root.
type fsCache struct {
	root   string
	exists *lru.Cache[string, bool]
	dirs   *lru.Cache[string, []string]
}

func newFSCache(root string, size int) *fsCache {
	// lru.New only fails for non-positive sizes
	exists, _ := lru.New[string, bool](size)
	dirs, _ := lru.New[string, []string](size)
	return &fsCache{root: root, exists: exists, dirs: dirs}
}

func (c *fsCache) abs(rel string) string {
	return filepath.Join(c.root, filepath.FromSlash(rel))
}

// isFile reports whether rel names a regular file.
func (c *fsCache) isFile(rel string) bool {
	if v, ok := c.exists.Get(rel); ok {
		return v
	}
	info, err := os.Stat(c.abs(rel))
	found := err == nil && !info.IsDir()
	c.exists.Add(rel, found)
	return found
}

// list returns the sorted regular file names in directory rel.
func (c *fsCache) list(rel string) []string {
	if v, ok := c.dirs.Get(rel); ok {
		return v
	}
	entries, err := os.ReadDir(c.abs(rel))
	if err != nil {
		c.dirs.Add(rel, nil)
		return nil
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	c.dirs.Add(rel, names)
	return names
}

func (c *fsCache) purge() {
	c.exists.Purge()
	c.dirs.Purge()
}

// clean normalizes a project-relative path and rejects paths escaping the root.
func clean(rel string) (string, bool) {
	rel = path.Clean(strings.TrimPrefix(rel, "/"))
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", false
	}
	return rel, true
}
