package parsers

// builtinNames lists, per language family, callee and type names that never
// produce edges. The lists are heuristics, not semantic resolution.
var builtinNames = map[string][]string{
	LangJavaScript: {
		// globals
		"console", "require", "setTimeout", "setInterval", "clearTimeout", "clearInterval",
		"setImmediate", "queueMicrotask", "structuredClone", "fetch", "parseInt", "parseFloat",
		"isNaN", "isFinite", "encodeURIComponent", "decodeURIComponent", "encodeURI", "decodeURI",
		"Symbol", "BigInt", "Boolean", "Number", "String", "Object", "Array", "Function",
		"Date", "RegExp", "Error", "TypeError", "RangeError", "SyntaxError", "ReferenceError",
		"Map", "Set", "WeakMap", "WeakSet", "WeakRef", "Promise", "Proxy", "Reflect", "JSON",
		"Math", "Intl", "URL", "URLSearchParams", "TextEncoder", "TextDecoder", "AbortController",
		"Buffer", "process", "globalThis", "window", "document", "alert",
		"Uint8Array", "Int32Array", "Float64Array", "ArrayBuffer", "DataView",
		// utility types
		"Partial", "Required", "Readonly", "Record", "Pick", "Omit", "Exclude", "Extract",
		"NonNullable", "ReturnType", "Parameters", "InstanceType", "Awaited", "PromiseLike",
		"Iterable", "Iterator", "AsyncIterable", "ReadonlyArray",
	},
	LangPython: {
		"print", "len", "range", "enumerate", "zip", "map", "filter", "sorted", "reversed",
		"sum", "min", "max", "abs", "round", "pow", "divmod", "any", "all", "iter", "next",
		"open", "input", "repr", "format", "hash", "id", "type", "isinstance", "issubclass",
		"hasattr", "getattr", "setattr", "delattr", "callable", "super", "vars", "dir",
		"globals", "locals", "staticmethod", "classmethod", "property", "object",
		"int", "float", "str", "bool", "bytes", "bytearray", "complex", "list", "dict",
		"set", "frozenset", "tuple", "slice", "memoryview",
		"Exception", "ValueError", "TypeError", "KeyError", "IndexError", "RuntimeError",
		"NotImplementedError", "AttributeError", "StopIteration", "OSError", "IOError",
	},
	LangGo: {
		"append", "cap", "clear", "close", "complex", "copy", "delete", "imag", "len",
		"make", "max", "min", "new", "panic", "print", "println", "real", "recover",
		"bool", "byte", "rune", "string", "error", "any", "comparable",
		"int", "int8", "int16", "int32", "int64", "uint", "uint8", "uint16", "uint32",
		"uint64", "uintptr", "float32", "float64", "complex64", "complex128",
		"true", "false", "nil", "iota",
	},
}

var builtinSets = func() map[string]map[string]bool {
	sets := make(map[string]map[string]bool, len(builtinNames))
	for lang, names := range builtinNames {
		set := make(map[string]bool, len(names))
		for _, n := range names {
			set[n] = true
		}
		sets[lang] = set
	}
	return sets
}()

// isBuiltin reports whether name is a builtin of the language family.
// TypeScript shares the JavaScript table.
func isBuiltin(lang, name string) bool {
	if lang == LangTypeScript {
		lang = LangJavaScript
	}
	return builtinSets[lang][name]
}
