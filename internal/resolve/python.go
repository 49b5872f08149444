package resolve

import (
	"path"
	"strings"
)

// PythonResolver resolves dotted module names, relative or absolute.
type PythonResolver struct {
	fs *fsCache
}

// Resolve resolves module (e.g. "pkg.mod", ".sibling", "..") imported from
// fromFile. Each leading dot beyond the first climbs one directory. Absolute
// names are tried from the project root, then from the importing directory.
func (r *PythonResolver) Resolve(module, fromFile string) (string, bool) {
	dots := len(module) - len(strings.TrimLeft(module, "."))
	rest := strings.ReplaceAll(module[dots:], ".", "/")

	var bases []string
	if dots > 0 {
		base := path.Dir(fromFile)
		for i := 1; i < dots; i++ {
			if base == "." {
				return "", false
			}
			base = path.Dir(base)
		}
		bases = []string{base}
	} else {
		if rest == "" {
			return "", false
		}
		bases = []string{"."}
		if dir := path.Dir(fromFile); dir != "." {
			bases = append(bases, dir)
		}
	}

	for _, base := range bases {
		if f, ok := r.probe(base, rest); ok {
			return f, true
		}
	}
	return "", false
}

// ResolveFrom resolves "from module import name". A submodule named name wins
// over a symbol of module; isModule tells the caller which one was found.
func (r *PythonResolver) ResolveFrom(module, name, fromFile string) (file string, isModule bool, ok bool) {
	sub := module + "." + name
	if strings.HasSuffix(module, ".") {
		sub = module + name
	}
	if f, ok := r.Resolve(sub, fromFile); ok {
		return f, true, true
	}
	if f, ok := r.Resolve(module, fromFile); ok {
		return f, false, true
	}
	return "", false, false
}

func (r *PythonResolver) probe(base, rest string) (string, bool) {
	if rest == "" {
		init, ok := clean(path.Join(base, "__init__.py"))
		if ok && r.fs.isFile(init) {
			return init, true
		}
		return "", false
	}
	for _, candidate := range []string{
		path.Join(base, rest+".py"),
		path.Join(base, rest, "__init__.py"),
	} {
		c, ok := clean(candidate)
		if ok && r.fs.isFile(c) {
			return c, true
		}
	}
	return "", false
}
