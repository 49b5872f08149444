package indexer

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
)

// ErrFileTooLarge is returned for files above the configured size cap.
var ErrFileTooLarge = errors.New("file exceeds size limit")

// alwaysSkipped directories are never scanned, whatever the ignore globs say.
// Vendored package trees are skipped at any depth.
var alwaysSkipped = map[string]bool{
	".git":         true,
	".hg":          true,
	".svn":         true,
	".xref":        true,
	"node_modules": true,
	"__pycache__":  true,
}

// compiledPattern holds both the pattern string and compiled glob
type compiledPattern struct {
	pattern string
	glob    glob.Glob
	root    glob.Glob // pattern without a leading "**/", for files at the root
}

// FileDiscovery finds the source files of a project.
type FileDiscovery struct {
	rootDir        string
	includePattern []compiledPattern
	ignorePatterns []compiledPattern
	supports       func(rel string) bool
	maxFileSize    int64
	includeTests   bool
}

// NewFileDiscovery creates a file discovery instance. supports decides which
// files have an extractor; include narrows them further when non-empty.
func NewFileDiscovery(rootDir string, include, ignore []string, supports func(string) bool, maxFileSize int64, includeTests bool) (*FileDiscovery, error) {
	fd := &FileDiscovery{
		rootDir:      rootDir,
		supports:     supports,
		maxFileSize:  maxFileSize,
		includeTests: includeTests,
	}

	var err error
	if fd.includePattern, err = compilePatterns(include); err != nil {
		return nil, err
	}
	if fd.ignorePatterns, err = compilePatterns(ignore); err != nil {
		return nil, err
	}
	return fd, nil
}

func compilePatterns(patterns []string) ([]compiledPattern, error) {
	compiled := make([]compiledPattern, 0, len(patterns))
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("compile pattern %q: %w", pattern, err)
		}
		cp := compiledPattern{pattern: pattern, glob: g}
		if simplified, ok := strings.CutPrefix(pattern, "**/"); ok {
			if rg, err := glob.Compile(simplified, '/'); err == nil {
				cp.root = rg
			}
		}
		compiled = append(compiled, cp)
	}
	return compiled, nil
}

// DiscoverFiles walks the tree and returns the accepted files as sorted,
// project-relative, slash-separated paths. Oversized files are returned
// separately so callers can warn about them.
func (fd *FileDiscovery) DiscoverFiles() (files []string, oversized []string, err error) {
	files = []string{}

	err = filepath.WalkDir(fd.rootDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(fd.rootDir, p)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)
		if relPath == "." {
			return nil
		}

		if d.IsDir() {
			if fd.SkipDir(relPath) {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() || !fd.Accept(relPath) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		if fd.maxFileSize > 0 && info.Size() > fd.maxFileSize {
			oversized = append(oversized, relPath)
			return nil
		}

		files = append(files, relPath)
		return nil
	})

	sort.Strings(files)
	return files, oversized, err
}

// Accept reports whether a project-relative file path should be extracted.
// File size is not checked.
func (fd *FileDiscovery) Accept(relPath string) bool {
	if fd.shouldIgnore(relPath) {
		return false
	}
	for dir := path.Dir(relPath); dir != "."; dir = path.Dir(dir) {
		if alwaysSkipped[path.Base(dir)] {
			return false
		}
	}
	if fd.supports != nil && !fd.supports(relPath) {
		return false
	}
	if !fd.includeTests && isTestFile(relPath) {
		return false
	}
	if len(fd.includePattern) > 0 && !matchesAnyPattern(relPath, fd.includePattern) {
		return false
	}
	return true
}

// SkipDir reports whether a project-relative directory is pruned.
func (fd *FileDiscovery) SkipDir(relPath string) bool {
	return alwaysSkipped[path.Base(relPath)] || fd.shouldIgnore(relPath)
}

// ReadFile reads a project file, enforcing the size cap.
func (fd *FileDiscovery) ReadFile(relPath string) ([]byte, error) {
	abs := filepath.Join(fd.rootDir, filepath.FromSlash(relPath))
	if fd.maxFileSize > 0 {
		info, err := os.Stat(abs)
		if err != nil {
			return nil, err
		}
		if info.Size() > fd.maxFileSize {
			return nil, fmt.Errorf("%w: %s is %d bytes (limit %d)", ErrFileTooLarge, relPath, info.Size(), fd.maxFileSize)
		}
	}
	return os.ReadFile(abs)
}

// shouldIgnore checks if a path matches any ignore pattern.
func (fd *FileDiscovery) shouldIgnore(relPath string) bool {
	if matchesAnyPattern(relPath, fd.ignorePatterns) {
		return true
	}

	// "node_modules" should match pattern "node_modules/**"
	return matchesAnyPattern(relPath+"/**", fd.ignorePatterns)
}

// matchesAnyPattern checks if a path matches any of the given patterns.
// Root-level paths also match patterns with their "**/" prefix removed, so
// "**/*.md" matches both "README.md" and "docs/guide.md".
func matchesAnyPattern(p string, patterns []compiledPattern) bool {
	atRoot := !strings.Contains(p, "/")
	for _, cp := range patterns {
		if cp.glob.Match(p) {
			return true
		}
		if atRoot && cp.root != nil && cp.root.Match(p) {
			return true
		}
	}
	return false
}

// isTestFile recognizes the test file conventions of the supported languages.
func isTestFile(relPath string) bool {
	base := path.Base(relPath)
	switch {
	case strings.HasSuffix(base, "_test.go"):
		return true
	case strings.HasSuffix(base, ".py"):
		return strings.HasPrefix(base, "test_") || strings.HasSuffix(base, "_test.py") || base == "conftest.py"
	}
	stem := strings.TrimSuffix(base, path.Ext(base))
	if strings.HasSuffix(stem, ".test") || strings.HasSuffix(stem, ".spec") {
		return true
	}
	return strings.Contains("/"+relPath, "/__tests__/")
}
