package resolve

import (
	"os"
	"path"
	"strings"
	"sync"

	"golang.org/x/mod/modfile"
)

// GoResolver maps Go import paths to the files of in-project packages.
type GoResolver struct {
	fs *fsCache

	mu         sync.Mutex
	loaded     bool
	modulePath string
}

func newGoResolver(fs *fsCache) *GoResolver {
	return &GoResolver{fs: fs}
}

// ModulePath returns the module path declared in go.mod, or "" without one.
func (r *GoResolver) ModulePath() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.loaded {
		r.loaded = true
		if data, err := os.ReadFile(r.fs.abs("go.mod")); err == nil {
			r.modulePath = modfile.ModulePath(data)
		}
	}
	return r.modulePath
}

// reset forgets the module path so the next lookup reads go.mod again.
func (r *GoResolver) reset() {
	r.mu.Lock()
	r.loaded = false
	r.modulePath = ""
	r.mu.Unlock()
}

// Resolve returns the first file of the package at importPath.
func (r *GoResolver) Resolve(importPath, fromFile string) (string, bool) {
	files, ok := r.ResolvePackage(importPath)
	if !ok {
		return "", false
	}
	return files[0], true
}

// ResolvePackage returns the sorted non-test .go files of the package at
// importPath. With a go.mod the module prefix maps onto the root. Without
// one, a non-standard-library path is matched by its longest suffix that
// names a project directory holding Go files.
func (r *GoResolver) ResolvePackage(importPath string) ([]string, bool) {
	if mod := r.ModulePath(); mod != "" {
		if importPath != mod && !strings.HasPrefix(importPath, mod+"/") {
			return nil, false
		}
		dir := strings.TrimPrefix(strings.TrimPrefix(importPath, mod), "/")
		if dir == "" {
			dir = "."
		}
		files := r.PackageFiles(dir)
		return files, len(files) > 0
	}

	segments := strings.Split(importPath, "/")
	if !strings.Contains(segments[0], ".") {
		return nil, false
	}
	for i := 1; i < len(segments); i++ {
		files := r.PackageFiles(path.Join(segments[i:]...))
		if len(files) > 0 {
			return files, true
		}
	}
	return nil, false
}

// PackageFiles lists the non-test .go files in dir.
func (r *GoResolver) PackageFiles(dir string) []string {
	dir, ok := clean(dir)
	if !ok {
		return nil
	}
	var files []string
	for _, name := range r.fs.list(dir) {
		if strings.HasSuffix(name, ".go") && !strings.HasSuffix(name, "_test.go") {
			files = append(files, path.Join(dir, name))
		}
	}
	return files
}
