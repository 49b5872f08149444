package graph

import "strings"

// SymbolID builds the deterministic ID for a symbol.
// Only one level of scope is tracked, so scope is either empty or a single name.
func SymbolID(filePath, scope, name string) string {
	if scope == "" {
		return filePath + IDSeparator + name
	}
	return filePath + IDSeparator + scope + "." + name
}

// ModuleID returns the ID of the module symbol every file owns.
func ModuleID(filePath string) string {
	return filePath + IDSeparator + ModuleName
}

// FileOfID returns the file path component of a symbol ID.
func FileOfID(id string) string {
	if i := strings.Index(id, IDSeparator); i >= 0 {
		return id[:i]
	}
	return id
}

// IsModuleID reports whether id names a file's module symbol.
func IsModuleID(id string) bool {
	return strings.HasSuffix(id, IDSeparator+ModuleName)
}
