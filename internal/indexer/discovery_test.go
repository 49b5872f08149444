package indexer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for FileDiscovery:
// - Only supported files are returned, sorted and project-relative
// - Ignore globs prune directories and files; VCS dirs, .xref, node_modules
//   and __pycache__ are always skipped, at any depth
// - Root-level files match "**/" patterns
// - Include globs narrow the result
// - Test files are skipped unless requested
// - Oversized files are reported separately; ReadFile enforces the cap
// - Invalid globs are rejected

func supportsScripts(rel string) bool {
	for _, ext := range []string{".ts", ".js", ".py", ".go"} {
		if strings.HasSuffix(rel, ext) && !strings.HasSuffix(rel, ".d.ts") {
			return true
		}
	}
	return false
}

func TestFileDiscovery_DiscoverFiles(t *testing.T) {
	t.Parallel()

	root := writeProject(t, map[string]string{
		"main.go":                   "package main\n",
		"README.md":                 "# readme\n",
		"src/app.ts":                "export {}\n",
		"src/types.d.ts":            "declare const x: number;\n",
		"src/app.test.ts":           "test()\n",
		"src/__tests__/helper.ts":   "export {}\n",
		"node_modules/dep/index.js": "module.exports = {}\n",
		"pkg/util.py":               "x = 1\n",
		"pkg/test_util.py":          "def test_x(): pass\n",
		"pkg/util_test.go":          "package pkg\n",
		".git/hooks/pre-commit.js":  "x\n",
		".xref/cache.js":            "x\n",
	})

	fd, err := NewFileDiscovery(root, nil, []string{"node_modules/**"}, supportsScripts, 0, false)
	require.NoError(t, err)

	files, oversized, err := fd.DiscoverFiles()
	require.NoError(t, err)
	assert.Empty(t, oversized)
	assert.Equal(t, []string{"main.go", "pkg/util.py", "src/app.ts"}, files)

	withTests, err := NewFileDiscovery(root, nil, []string{"node_modules/**"}, supportsScripts, 0, true)
	require.NoError(t, err)
	files, _, err = withTests.DiscoverFiles()
	require.NoError(t, err)
	assert.Equal(t, []string{
		"main.go",
		"pkg/test_util.py",
		"pkg/util.py",
		"pkg/util_test.go",
		"src/__tests__/helper.ts",
		"src/app.test.ts",
		"src/app.ts",
	}, files)
}

func TestFileDiscovery_IncludePatterns(t *testing.T) {
	t.Parallel()

	root := writeProject(t, map[string]string{
		"main.go":      "package main\n",
		"web/app.ts":   "export {}\n",
		"web/lib/x.ts": "export {}\n",
		"scripts/a.py": "x = 1\n",
	})

	fd, err := NewFileDiscovery(root, []string{"web/**", "**/*.go"}, nil, supportsScripts, 0, false)
	require.NoError(t, err)

	files, _, err := fd.DiscoverFiles()
	require.NoError(t, err)
	assert.Equal(t, []string{"main.go", "web/app.ts", "web/lib/x.ts"}, files)
}

func TestFileDiscovery_SizeCap(t *testing.T) {
	t.Parallel()

	root := writeProject(t, map[string]string{
		"small.py": "x = 1\n",
		"big.py":   "x = '" + strings.Repeat("a", 200) + "'\n",
	})

	fd, err := NewFileDiscovery(root, nil, nil, supportsScripts, 100, false)
	require.NoError(t, err)

	files, oversized, err := fd.DiscoverFiles()
	require.NoError(t, err)
	assert.Equal(t, []string{"small.py"}, files)
	assert.Equal(t, []string{"big.py"}, oversized)

	_, err = fd.ReadFile("big.py")
	assert.ErrorIs(t, err, ErrFileTooLarge)

	data, err := fd.ReadFile("small.py")
	require.NoError(t, err)
	assert.Equal(t, "x = 1\n", string(data))

	_, err = fd.ReadFile("missing.py")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFileDiscovery_Accept(t *testing.T) {
	t.Parallel()

	fd, err := NewFileDiscovery(t.TempDir(), nil, []string{"dist/**", "**/*.min.js"}, supportsScripts, 0, false)
	require.NoError(t, err)

	tests := []struct {
		path string
		want bool
	}{
		{"src/app.ts", true},
		{"app.min.js", false},
		{"vendor/lib.min.js", false},
		{"dist/bundle.js", false},
		{".git/x.js", false},
		{"a/.xref/x.js", false},
		{"node_modules/lib/index.js", false},
		{"web/node_modules/lib/index.js", false},
		{"pkg/__pycache__/mod.py", false},
		{"types.d.ts", false},
		{"notes.txt", false},
		{"handler_test.go", false},
		{"conftest.py", false},
		{"Button.spec.js", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, fd.Accept(tt.path), tt.path)
	}

	assert.True(t, fd.SkipDir("dist"))
	assert.True(t, fd.SkipDir("sub/.git"))
	assert.True(t, fd.SkipDir("web/node_modules"))
	assert.False(t, fd.SkipDir("src"))
}

func TestFileDiscovery_InvalidPattern(t *testing.T) {
	t.Parallel()

	_, err := NewFileDiscovery(t.TempDir(), []string{"[unclosed"}, nil, nil, 0, false)
	assert.Error(t, err)
}

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		abs := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0755))
		require.NoError(t, os.WriteFile(abs, []byte(content), 0644))
	}
	return root
}
