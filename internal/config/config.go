package config

import "time"

// Config represents the complete xref configuration.
// It can be loaded from .xref/config.yml with environment variable overrides.
type Config struct {
	Paths      PathsConfig      `yaml:"paths" mapstructure:"paths"`
	Extraction ExtractionConfig `yaml:"extraction" mapstructure:"extraction"`
	Watch      WatchConfig      `yaml:"watch" mapstructure:"watch"`
	Storage    StorageConfig    `yaml:"storage" mapstructure:"storage"`
}

// PathsConfig defines which files to scan and which to ignore.
type PathsConfig struct {
	Include []string `yaml:"include" mapstructure:"include"` // glob patterns; empty means every supported file
	Ignore  []string `yaml:"ignore" mapstructure:"ignore"`   // glob patterns to ignore
}

// ExtractionConfig tunes the extraction pipeline.
type ExtractionConfig struct {
	MaxFileSize  int64 `yaml:"max_file_size" mapstructure:"max_file_size"` // bytes; larger files are skipped
	Workers      int   `yaml:"workers" mapstructure:"workers"`             // 0 means runtime.NumCPU()
	IncludeTests bool  `yaml:"include_tests" mapstructure:"include_tests"`
	CacheSize    int   `yaml:"cache_size" mapstructure:"cache_size"` // resolver LRU entries
}

// WatchConfig configures incremental updates.
type WatchConfig struct {
	DebounceMS int `yaml:"debounce_ms" mapstructure:"debounce_ms"`
}

// StorageConfig selects where graph snapshots are persisted.
type StorageConfig struct {
	Backend string `yaml:"backend" mapstructure:"backend"` // "json" or "sqlite"
	Dir     string `yaml:"dir" mapstructure:"dir"`         // relative to the project root unless absolute
}

// Storage backends.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// DirName is the per-project directory holding config and snapshots.
const DirName = ".xref"

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			Include: []string{},
			Ignore: []string{
				"node_modules/**",
				"vendor/**",
				".git/**",
				"dist/**",
				"build/**",
				"coverage/**",
				"__pycache__/**",
				".venv/**",
				"venv/**",
				"**/*.min.js",
			},
		},
		Extraction: ExtractionConfig{
			MaxFileSize:  1 << 20,
			Workers:      0,
			IncludeTests: false,
			CacheSize:    4096,
		},
		Watch: WatchConfig{
			DebounceMS: 300,
		},
		Storage: StorageConfig{
			Backend: BackendJSON,
			Dir:     DirName,
		},
	}
}

// Debounce returns the watch quiescence window.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.Watch.DebounceMS) * time.Millisecond
}
