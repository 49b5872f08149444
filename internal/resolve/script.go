package resolve

import (
	"encoding/json"
	"os"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/tailscale/hujson"
)

// maxExtendsDepth bounds tsconfig "extends" chains.
const maxExtendsDepth = 5

// scriptExtensions are tried, in order, for extensionless specifiers.
var scriptExtensions = []string{".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs"}

// indexFiles are tried, in order, when a specifier names a directory.
var indexFiles = []string{"index.ts", "index.tsx", "index.js", "index.jsx"}

// extensionSwaps lists the sources preferred over a literal emitted extension.
var extensionSwaps = map[string][]string{
	".js":  {".ts", ".tsx"},
	".jsx": {".tsx"},
	".mjs": {".mts"},
	".cjs": {".cts"},
}

// ScriptResolver resolves TypeScript and JavaScript module specifiers.
type ScriptResolver struct {
	fs *fsCache

	mu     sync.Mutex
	loaded bool
	config *pathConfig
}

// pathConfig is the resolved baseUrl/paths table of a tsconfig.
// All directories are project-relative.
type pathConfig struct {
	baseURL  string // "" when baseUrl is unset
	pathsDir string // directory "paths" targets are relative to
	paths    map[string][]string
}

type tsconfigFile struct {
	Extends         string `json:"extends"`
	CompilerOptions struct {
		BaseURL *string             `json:"baseUrl"`
		Paths   map[string][]string `json:"paths"`
	} `json:"compilerOptions"`
}

func newScriptResolver(fs *fsCache) *ScriptResolver {
	return &ScriptResolver{fs: fs}
}

// Resolve resolves spec imported from fromFile.
func (r *ScriptResolver) Resolve(spec, fromFile string) (string, bool) {
	if spec == "" {
		return "", false
	}

	if isRelative(spec) {
		return r.probe(path.Join(path.Dir(fromFile), spec))
	}

	cfg := r.pathConfig()
	if cfg == nil {
		return "", false
	}

	for _, candidate := range cfg.match(spec) {
		if f, ok := r.probe(candidate); ok {
			return f, true
		}
	}
	if cfg.baseURL != "" {
		return r.probe(path.Join(cfg.baseURL, spec))
	}
	return "", false
}

// probe applies the deterministic resolution order: extension swap for
// emitted extensions, exact path, appended extensions, then directory index.
func (r *ScriptResolver) probe(rel string) (string, bool) {
	rel, ok := clean(rel)
	if !ok {
		return "", false
	}

	ext := path.Ext(rel)
	if swaps, ok := extensionSwaps[ext]; ok {
		stem := strings.TrimSuffix(rel, ext)
		for _, swap := range swaps {
			if r.isSource(stem + swap) {
				return stem + swap, true
			}
		}
		if r.isSource(rel) {
			return rel, true
		}
	}

	if r.isSource(rel) {
		return rel, true
	}
	for _, e := range scriptExtensions {
		if r.isSource(rel + e) {
			return rel + e, true
		}
	}
	for _, idx := range indexFiles {
		candidate := path.Join(rel, idx)
		if r.isSource(candidate) {
			return candidate, true
		}
	}
	return "", false
}

// isSource reports whether rel is an existing, non-declaration script file.
func (r *ScriptResolver) isSource(rel string) bool {
	if strings.HasSuffix(rel, ".d.ts") {
		return false
	}
	switch path.Ext(rel) {
	case ".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs", ".mts", ".cts":
		return r.fs.isFile(rel)
	}
	return false
}

func (r *ScriptResolver) pathConfig() *pathConfig {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loaded {
		return r.config
	}
	r.loaded = true
	for _, name := range []string{"tsconfig.json", "jsconfig.json"} {
		if !r.fs.isFile(name) {
			continue
		}
		if cfg, err := r.loadConfig(name, 0); err == nil {
			r.config = cfg
		}
		break
	}
	return r.config
}

// reset forgets the loaded tsconfig so the next lookup reads it again.
func (r *ScriptResolver) reset() {
	r.mu.Lock()
	r.loaded = false
	r.config = nil
	r.mu.Unlock()
}

// loadConfig reads a tsconfig (JSONC) and merges its extends chain.
func (r *ScriptResolver) loadConfig(rel string, depth int) (*pathConfig, error) {
	data, err := os.ReadFile(r.fs.abs(rel))
	if err != nil {
		return nil, err
	}
	std, err := hujson.Standardize(data)
	if err != nil {
		return nil, err
	}
	var file tsconfigFile
	if err := json.Unmarshal(std, &file); err != nil {
		return nil, err
	}

	cfg := &pathConfig{}
	if file.Extends != "" && isRelative(file.Extends) && depth < maxExtendsDepth {
		parent := path.Join(path.Dir(rel), file.Extends)
		if path.Ext(parent) != ".json" {
			parent += ".json"
		}
		if base, err := r.loadConfig(parent, depth+1); err == nil {
			*cfg = *base
		}
	}

	dir := path.Dir(rel)
	if file.CompilerOptions.BaseURL != nil {
		cfg.baseURL = path.Join(dir, *file.CompilerOptions.BaseURL)
		cfg.pathsDir = cfg.baseURL
	}
	if file.CompilerOptions.Paths != nil {
		cfg.paths = file.CompilerOptions.Paths
		if file.CompilerOptions.BaseURL == nil {
			cfg.pathsDir = dir
		}
	}
	if cfg.pathsDir == "" {
		cfg.pathsDir = dir
	}
	return cfg, nil
}

// match returns substituted candidate paths of the best matching pattern.
// An exact pattern beats any wildcard; among wildcards the longest prefix wins.
func (c *pathConfig) match(spec string) []string {
	if len(c.paths) == 0 {
		return nil
	}

	patterns := make([]string, 0, len(c.paths))
	for p := range c.paths {
		patterns = append(patterns, p)
	}
	sort.Strings(patterns)

	best, capture, bestLen := "", "", -1
	for _, p := range patterns {
		star := strings.Index(p, "*")
		if star < 0 {
			if p == spec {
				best, capture, bestLen = p, "", len(p)+1<<20
			}
			continue
		}
		prefix, suffix := p[:star], p[star+1:]
		if len(spec) < len(prefix)+len(suffix) ||
			!strings.HasPrefix(spec, prefix) || !strings.HasSuffix(spec, suffix) {
			continue
		}
		if len(prefix) > bestLen {
			best = p
			capture = spec[len(prefix) : len(spec)-len(suffix)]
			bestLen = len(prefix)
		}
	}
	if bestLen < 0 {
		return nil
	}

	var candidates []string
	for _, target := range c.paths[best] {
		substituted := strings.Replace(target, "*", capture, 1)
		candidates = append(candidates, path.Join(c.pathsDir, substituted))
	}
	return candidates
}

func isRelative(spec string) bool {
	return spec == "." || spec == ".." || strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../")
}
