package config

import (
	"path/filepath"

	"github.com/mvp-joe/code-xref/internal/indexer"
)

// ToIndexerOptions converts a Config to indexer.Options.
// The rootDir parameter specifies the root directory of the project to scan.
func (c *Config) ToIndexerOptions(rootDir string) indexer.Options {
	return indexer.Options{
		RootDir:      rootDir,
		Include:      c.Paths.Include,
		Ignore:       c.Paths.Ignore,
		MaxFileSize:  c.Extraction.MaxFileSize,
		IncludeTests: c.Extraction.IncludeTests,
		Workers:      c.Extraction.Workers,
		CacheSize:    c.Extraction.CacheSize,
		Debounce:     c.Debounce(),
	}
}

// StorageDir returns the snapshot directory for the project at rootDir.
func (c *Config) StorageDir(rootDir string) string {
	if filepath.IsAbs(c.Storage.Dir) {
		return c.Storage.Dir
	}
	return filepath.Join(rootDir, c.Storage.Dir)
}
