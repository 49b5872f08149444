package parsers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/code-xref/internal/resolve"
)

// Test Plan for Dispatcher:
// - Each supported extension routes to the extractor of its language
// - Declaration files and unknown extensions return ErrUnsupportedLanguage
// - Extensions lists every supported extension, sorted
// - A shared registry is handed to every extractor

func TestDispatcher_ExtractorFor(t *testing.T) {
	t.Parallel()

	d := NewDispatcher(nil)

	tests := []struct {
		file string
		lang string
	}{
		{"src/a.ts", LangTypeScript},
		{"src/a.mts", LangTypeScript},
		{"src/App.tsx", LangTypeScript},
		{"src/a.js", LangJavaScript},
		{"src/App.jsx", LangJavaScript},
		{"src/a.cjs", LangJavaScript},
		{"pkg/mod.py", LangPython},
		{"cmd/main.go", LangGo},
	}
	for _, tt := range tests {
		e, err := d.ExtractorFor(tt.file)
		require.NoError(t, err, tt.file)
		assert.Equal(t, tt.lang, e.Language(), tt.file)
		assert.True(t, d.Supports(tt.file))
	}
}

func TestDispatcher_Unsupported(t *testing.T) {
	t.Parallel()

	d := NewDispatcher(nil)

	for _, file := range []string{"lib/a.rb", "types/index.d.ts", "README.md", "Makefile"} {
		_, err := d.ExtractorFor(file)
		require.ErrorIs(t, err, ErrUnsupportedLanguage, file)
		assert.False(t, d.Supports(file))

		_, err = d.Extract(file, []byte("x"), t.TempDir())
		assert.ErrorIs(t, err, ErrUnsupportedLanguage)
	}
}

func TestDispatcher_Extensions(t *testing.T) {
	t.Parallel()

	d := NewDispatcher(nil)
	assert.Equal(t, []string{".cjs", ".cts", ".go", ".js", ".jsx", ".mjs", ".mts", ".py", ".ts", ".tsx"}, d.Extensions())
}

func TestDispatcher_SharedRegistry(t *testing.T) {
	t.Parallel()

	reg := resolve.NewRegistry(16)
	d := NewDispatcher(reg)
	assert.Same(t, reg, d.Projects())
}
