package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

var (
	// ErrInvalidPattern indicates a glob pattern that does not compile
	ErrInvalidPattern = errors.New("invalid glob pattern")

	// ErrInvalidFileSize indicates a non-positive file size cap
	ErrInvalidFileSize = errors.New("invalid max file size")

	// ErrInvalidWorkers indicates a negative worker count
	ErrInvalidWorkers = errors.New("invalid worker count")

	// ErrInvalidCacheSize indicates a non-positive resolver cache size
	ErrInvalidCacheSize = errors.New("invalid cache size")

	// ErrInvalidDebounce indicates a negative debounce window
	ErrInvalidDebounce = errors.New("invalid debounce window")

	// ErrInvalidBackend indicates an unsupported storage backend
	ErrInvalidBackend = errors.New("invalid storage backend")

	// ErrEmptyStorageDir indicates a missing storage directory
	ErrEmptyStorageDir = errors.New("empty storage directory")
)

// Validate checks that the configuration is valid and complete.
// Every problem found is reported, joined into one error.
func Validate(cfg *Config) error {
	return errors.Join(
		validatePaths(&cfg.Paths),
		validateExtraction(&cfg.Extraction),
		validateWatch(&cfg.Watch),
		validateStorage(&cfg.Storage),
	)
}

func validatePaths(cfg *PathsConfig) error {
	var errs []error
	for _, pattern := range append(append([]string(nil), cfg.Include...), cfg.Ignore...) {
		if _, err := glob.Compile(pattern, '/'); err != nil {
			errs = append(errs, fmt.Errorf("%w: %q: %v", ErrInvalidPattern, pattern, err))
		}
	}
	return errors.Join(errs...)
}

func validateExtraction(cfg *ExtractionConfig) error {
	var errs []error

	if cfg.MaxFileSize <= 0 {
		errs = append(errs, fmt.Errorf("%w: max_file_size must be positive, got %d", ErrInvalidFileSize, cfg.MaxFileSize))
	}

	// Zero means one worker per CPU
	if cfg.Workers < 0 {
		errs = append(errs, fmt.Errorf("%w: workers cannot be negative, got %d", ErrInvalidWorkers, cfg.Workers))
	}

	if cfg.CacheSize <= 0 {
		errs = append(errs, fmt.Errorf("%w: cache_size must be positive, got %d", ErrInvalidCacheSize, cfg.CacheSize))
	}

	return errors.Join(errs...)
}

func validateWatch(cfg *WatchConfig) error {
	if cfg.DebounceMS < 0 {
		return fmt.Errorf("%w: debounce_ms cannot be negative, got %d", ErrInvalidDebounce, cfg.DebounceMS)
	}
	return nil
}

func validateStorage(cfg *StorageConfig) error {
	var errs []error

	switch strings.ToLower(cfg.Backend) {
	case BackendJSON, BackendSQLite:
	default:
		errs = append(errs, fmt.Errorf("%w: must be '%s' or '%s', got '%s'", ErrInvalidBackend, BackendJSON, BackendSQLite, cfg.Backend))
	}

	if strings.TrimSpace(cfg.Dir) == "" {
		errs = append(errs, fmt.Errorf("%w: dir is required", ErrEmptyStorageDir))
	}

	return errors.Join(errs...)
}
