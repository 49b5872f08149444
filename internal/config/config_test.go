package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for Config System:
// - Default() returns valid configuration with all expected defaults
// - Load() uses defaults when no config file exists
// - Load() reads .xref/config.yml and .xref/config.yaml
// - Load() merges a partial config file with defaults
// - Environment variables override config file values and defaults
// - Load() returns error for malformed YAML
// - Load() returns error for invalid configuration values
// - Validate() rejects each invalid field and reports every problem at once
// - ToIndexerOptions() and StorageDir() map the config onto the indexer

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, DirName)
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	return root
}

func TestDefault_ReturnsValidConfiguration(t *testing.T) {
	t.Parallel()

	cfg := Default()
	require.NotNil(t, cfg)

	assert.Empty(t, cfg.Paths.Include)
	assert.Contains(t, cfg.Paths.Ignore, "node_modules/**")
	assert.Contains(t, cfg.Paths.Ignore, "**/*.min.js")

	assert.Equal(t, int64(1<<20), cfg.Extraction.MaxFileSize)
	assert.Equal(t, 0, cfg.Extraction.Workers)
	assert.False(t, cfg.Extraction.IncludeTests)
	assert.Equal(t, 4096, cfg.Extraction.CacheSize)

	assert.Equal(t, 300*time.Millisecond, cfg.Debounce())
	assert.Equal(t, BackendJSON, cfg.Storage.Backend)
	assert.Equal(t, DirName, cfg.Storage.Dir)

	assert.NoError(t, Validate(cfg))
}

func TestLoadConfig_UsesDefaultsWhenNoConfigFile(t *testing.T) {
	t.Parallel()

	cfg, err := NewLoader(t.TempDir()).Load()
	require.NoError(t, err)

	defaults := Default()
	assert.Empty(t, cfg.Paths.Include)
	assert.Equal(t, defaults.Paths.Ignore, cfg.Paths.Ignore)
	assert.Equal(t, defaults.Extraction, cfg.Extraction)
	assert.Equal(t, defaults.Watch, cfg.Watch)
	assert.Equal(t, defaults.Storage, cfg.Storage)
}

func TestLoadConfig_LoadsFromConfigYml(t *testing.T) {
	t.Parallel()

	root := writeConfig(t, "config.yml", `paths:
  include:
    - "src/**"
  ignore:
    - "generated/**"
extraction:
  max_file_size: 2048
  workers: 4
  include_tests: true
  cache_size: 128
watch:
  debounce_ms: 50
storage:
  backend: sqlite
  dir: .cache/xref
`)

	cfg, err := LoadConfigFromDir(root)
	require.NoError(t, err)

	assert.Equal(t, []string{"src/**"}, cfg.Paths.Include)
	assert.Equal(t, []string{"generated/**"}, cfg.Paths.Ignore)
	assert.Equal(t, int64(2048), cfg.Extraction.MaxFileSize)
	assert.Equal(t, 4, cfg.Extraction.Workers)
	assert.True(t, cfg.Extraction.IncludeTests)
	assert.Equal(t, 128, cfg.Extraction.CacheSize)
	assert.Equal(t, 50*time.Millisecond, cfg.Debounce())
	assert.Equal(t, BackendSQLite, cfg.Storage.Backend)
	assert.Equal(t, ".cache/xref", cfg.Storage.Dir)
}

func TestLoadConfig_LoadsFromConfigYaml(t *testing.T) {
	t.Parallel()

	root := writeConfig(t, "config.yaml", "extraction:\n  workers: 2\n")

	cfg, err := LoadConfigFromDir(root)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Extraction.Workers)
}

func TestLoadConfig_MergesConfigWithDefaults(t *testing.T) {
	t.Parallel()

	root := writeConfig(t, "config.yml", "watch:\n  debounce_ms: 1000\n")

	cfg, err := LoadConfigFromDir(root)
	require.NoError(t, err)

	defaults := Default()
	assert.Equal(t, time.Second, cfg.Debounce())
	assert.Equal(t, defaults.Paths.Ignore, cfg.Paths.Ignore)
	assert.Equal(t, defaults.Extraction, cfg.Extraction)
	assert.Equal(t, defaults.Storage, cfg.Storage)
}

func TestLoadConfig_EnvironmentVariablesOverrideConfigFile(t *testing.T) {
	// Note: Cannot use t.Parallel() with t.Setenv()
	root := writeConfig(t, "config.yml", "storage:\n  backend: json\nextraction:\n  workers: 2\n")

	t.Setenv("XREF_STORAGE_BACKEND", "sqlite")
	t.Setenv("XREF_EXTRACTION_WORKERS", "16")

	cfg, err := LoadConfigFromDir(root)
	require.NoError(t, err)
	assert.Equal(t, BackendSQLite, cfg.Storage.Backend)
	assert.Equal(t, 16, cfg.Extraction.Workers)
}

func TestLoadConfig_EnvironmentVariablesOverrideDefaults(t *testing.T) {
	// Note: Cannot use t.Parallel() with t.Setenv()
	t.Setenv("XREF_WATCH_DEBOUNCE_MS", "25")
	t.Setenv("XREF_EXTRACTION_INCLUDE_TESTS", "true")
	t.Setenv("XREF_STORAGE_DIR", "/var/cache/xref")

	cfg, err := LoadConfigFromDir(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 25*time.Millisecond, cfg.Debounce())
	assert.True(t, cfg.Extraction.IncludeTests)
	assert.Equal(t, "/var/cache/xref", cfg.Storage.Dir)
}

func TestLoadConfig_ReturnsErrorForMalformedYaml(t *testing.T) {
	t.Parallel()

	root := writeConfig(t, "config.yml", "paths:\n  include: [unclosed\n")

	_, err := LoadConfigFromDir(root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfig_ReturnsErrorForInvalidValues(t *testing.T) {
	t.Parallel()

	root := writeConfig(t, "config.yml", "storage:\n  backend: postgres\n")

	_, err := LoadConfigFromDir(root)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidBackend)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"bad include pattern", func(c *Config) { c.Paths.Include = []string{"src/[a"} }, ErrInvalidPattern},
		{"bad ignore pattern", func(c *Config) { c.Paths.Ignore = []string{"**/[a"} }, ErrInvalidPattern},
		{"zero file size", func(c *Config) { c.Extraction.MaxFileSize = 0 }, ErrInvalidFileSize},
		{"negative workers", func(c *Config) { c.Extraction.Workers = -1 }, ErrInvalidWorkers},
		{"zero cache", func(c *Config) { c.Extraction.CacheSize = 0 }, ErrInvalidCacheSize},
		{"negative debounce", func(c *Config) { c.Watch.DebounceMS = -5 }, ErrInvalidDebounce},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "bolt" }, ErrInvalidBackend},
		{"empty dir", func(c *Config) { c.Storage.Dir = "  " }, ErrEmptyStorageDir},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorIs(t, Validate(cfg), tt.wantErr)
		})
	}
}

func TestValidate_AcceptsUppercaseBackend(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Storage.Backend = "SQLite"
	assert.NoError(t, Validate(cfg))
}

func TestValidate_ReturnsMultipleErrors(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Extraction.MaxFileSize = -1
	cfg.Extraction.Workers = -2
	cfg.Storage.Backend = ""

	err := Validate(cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidFileSize)
	assert.ErrorIs(t, err, ErrInvalidWorkers)
	assert.ErrorIs(t, err, ErrInvalidBackend)
}

func TestToIndexerOptions(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Paths.Include = []string{"src/**"}
	cfg.Extraction.Workers = 3

	opts := cfg.ToIndexerOptions("/repo")
	assert.Equal(t, "/repo", opts.RootDir)
	assert.Equal(t, []string{"src/**"}, opts.Include)
	assert.Equal(t, cfg.Paths.Ignore, opts.Ignore)
	assert.Equal(t, cfg.Extraction.MaxFileSize, opts.MaxFileSize)
	assert.Equal(t, 3, opts.Workers)
	assert.Equal(t, 4096, opts.CacheSize)
	assert.Equal(t, 300*time.Millisecond, opts.Debounce)
}

func TestStorageDir(t *testing.T) {
	t.Parallel()

	cfg := Default()
	assert.Equal(t, filepath.Join("/repo", DirName), cfg.StorageDir("/repo"))

	cfg.Storage.Dir = "/tmp/snapshots"
	assert.Equal(t, "/tmp/snapshots", cfg.StorageDir("/repo"))
}
