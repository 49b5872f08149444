package parsers

import (
	"path"
	"strings"
	"unicode"

	sitter "github.com/tree-sitter/go-tree-sitter"
	javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"github.com/mvp-joe/code-xref/internal/graph"
	"github.com/mvp-joe/code-xref/internal/resolve"
)

// scriptParser extracts TypeScript, TSX, JavaScript and JSX files. The
// grammars differ but share node kinds, so one walker serves all of them.
type scriptParser struct {
	*treeSitterParser
	projects *resolve.Registry
}

// NewTypeScriptParser creates an extractor for .ts files.
func NewTypeScriptParser(projects *resolve.Registry) *scriptParser {
	lang := sitter.NewLanguage(typescript.LanguageTypescript())
	return &scriptParser{
		treeSitterParser: newTreeSitterParser(lang, LangTypeScript),
		projects:         projects,
	}
}

// NewTSXParser creates an extractor for .tsx files.
func NewTSXParser(projects *resolve.Registry) *scriptParser {
	lang := sitter.NewLanguage(typescript.LanguageTSX())
	return &scriptParser{
		treeSitterParser: newTreeSitterParser(lang, LangTypeScript),
		projects:         projects,
	}
}

// NewJavaScriptParser creates an extractor for .js, .jsx, .mjs and .cjs files.
func NewJavaScriptParser(projects *resolve.Registry) *scriptParser {
	lang := sitter.NewLanguage(javascript.Language())
	return &scriptParser{
		treeSitterParser: newTreeSitterParser(lang, LangJavaScript),
		projects:         projects,
	}
}

func (p *scriptParser) Language() string {
	return p.lang
}

// Extract parses a script file into symbols and edges.
func (p *scriptParser) Extract(filePath string, source []byte, projectRoot string) (*graph.ParsedFile, error) {
	tree, err := p.parse(filePath, source)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	root := tree.RootNode()
	x := &scriptFile{
		fileBuilder: newFileBuilder(filePath, p.lang, source),
		lang:        p.lang,
		resolver:    p.projects.Project(projectRoot).Script,
	}

	module := x.addModule(strings.TrimSuffix(filePath, path.Ext(filePath)), endLine(root))
	ctx := walkContext{
		imports: x.collectImports(root, module),
		owner:   module,
	}
	x.walk(root, ctx)
	x.applyExportClauses(ctx)

	return x.result(), nil
}

// scriptFile is the extraction state of one script file.
type scriptFile struct {
	*fileBuilder
	lang     string
	resolver resolve.Resolver

	exportClauses []exportClause
}

// exportClause is a local "export { a as b }" entry, applied after the walk
// because the exported declaration may appear later in the file.
type exportClause struct {
	local, exported string
	scope           string
	start, end      int
}

var scriptHandlers map[string]func(*scriptFile, *sitter.Node, walkContext)

func init() {
	scriptHandlers = map[string]func(*scriptFile, *sitter.Node, walkContext){
		"import_statement":               func(*scriptFile, *sitter.Node, walkContext) {},
		"decorator":                      func(*scriptFile, *sitter.Node, walkContext) {},
		"export_statement":               (*scriptFile).exportStatement,
		"function_declaration":           (*scriptFile).function,
		"generator_function_declaration": (*scriptFile).function,
		"class_declaration":              (*scriptFile).class,
		"abstract_class_declaration":     (*scriptFile).class,
		"interface_declaration":          (*scriptFile).iface,
		"type_alias_declaration":         (*scriptFile).typeAlias,
		"enum_declaration":               (*scriptFile).enum,
		"lexical_declaration":            (*scriptFile).variables,
		"variable_declaration":           (*scriptFile).variables,
		"internal_module":                (*scriptFile).namespace,
		"module":                         (*scriptFile).namespace,
		"method_definition":              (*scriptFile).method,
		"public_field_definition":        (*scriptFile).field,
		"field_definition":               (*scriptFile).field,
		"method_signature":               (*scriptFile).signature,
		"abstract_method_signature":      (*scriptFile).signature,
		"property_signature":             (*scriptFile).signature,
		"arrow_function":                 (*scriptFile).closure,
		"function_expression":            (*scriptFile).closure,
		"function":                       (*scriptFile).closure,
		"generator_function":             (*scriptFile).closure,
		"call_expression":                (*scriptFile).call,
		"new_expression":                 (*scriptFile).newExpression,
		"type_annotation":                (*scriptFile).typeAnnotation,
		"jsx_opening_element":            (*scriptFile).jsxElement,
		"jsx_self_closing_element":       (*scriptFile).jsxElement,
	}
}

func (x *scriptFile) walk(n *sitter.Node, ctx walkContext) {
	if n == nil {
		return
	}
	if h, ok := scriptHandlers[n.Kind()]; ok {
		h(x, n, ctx)
		return
	}
	x.walkChildren(n, ctx)
}

func (x *scriptFile) walkChildren(n *sitter.Node, ctx walkContext) {
	if n == nil {
		return
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		x.walk(n.Child(uint(i)), ctx)
	}
}

func (x *scriptFile) resolve(spec string) (string, bool) {
	if spec == "" {
		return "", false
	}
	return x.resolver.Resolve(spec, x.path())
}

// --- imports ---

// collectImports runs before the declaration walk so hoisted imports bind
// names used above them.
func (x *scriptFile) collectImports(root *sitter.Node, module string) bindings {
	imports := bindings{}
	walkTree(root, func(n *sitter.Node) bool {
		switch n.Kind() {
		case "import_statement":
			x.importStatement(n, module, imports)
			return false
		case "export_statement":
			if n.ChildByFieldName("source") != nil {
				x.reExport(n, module)
				return false
			}
		case "variable_declarator":
			x.requireDeclarator(n, module, imports)
		}
		return true
	})
	return imports
}

func (x *scriptFile) importStatement(n *sitter.Node, module string, imports bindings) {
	if clause := findChildByType(n, "import_require_clause"); clause != nil {
		// import x = require('./y')
		target, ok := x.resolve(stringValue(clause.ChildByFieldName("source"), x.source))
		if ok {
			x.addEdge(module, graph.ModuleID(target), graph.EdgeImports, startLine(n))
		}
		local := extractNodeText(findChildByType(clause, "identifier"), x.source)
		x.bindModule(local, target, ok, n, imports)
		return
	}

	target, ok := x.resolve(stringValue(n.ChildByFieldName("source"), x.source))
	if ok {
		x.addEdge(module, graph.ModuleID(target), graph.EdgeImports, startLine(n))
	}

	clause := findChildByType(n, "import_clause")
	for _, c := range namedChildren(clause) {
		switch c.Kind() {
		case "identifier":
			x.bindNamed(extractNodeText(c, x.source), target, "default", ok, n, imports)
		case "namespace_import":
			local := extractNodeText(findChildByType(c, "identifier"), x.source)
			x.bindModule(local, target, ok, n, imports)
		case "named_imports":
			for _, spec := range findChildrenByType(c, "import_specifier") {
				name := unquote(fieldText(spec, "name", x.source))
				local := fieldText(spec, "alias", x.source)
				if local == "" {
					local = name
				}
				x.bindNamed(local, target, name, ok, n, imports)
			}
		}
	}
}

// reExport handles "export ... from './x'".
func (x *scriptFile) reExport(n *sitter.Node, module string) {
	line := startLine(n)
	target, ok := x.resolve(stringValue(n.ChildByFieldName("source"), x.source))
	if ok {
		x.addEdge(module, graph.ModuleID(target), graph.EdgeImports, line)
	}

	if clause := findChildByType(n, "export_clause"); clause != nil {
		for _, spec := range findChildrenByType(clause, "export_specifier") {
			name := unquote(fieldText(spec, "name", x.source))
			exported := unquote(fieldText(spec, "alias", x.source))
			if exported == "" {
				exported = name
			}
			id := x.addSymbol(graph.Symbol{
				Name:      exported,
				Kind:      graph.KindExport,
				StartLine: line,
				EndLine:   endLine(n),
				Exported:  true,
			})
			if ok {
				x.addEdge(id, graph.SymbolID(target, "", name), graph.EdgeImports, line)
			}
		}
		return
	}

	if ns := findChildByType(n, "namespace_export"); ns != nil {
		// export * as ns from './x'
		name := unquote(extractNodeText(ns.NamedChild(0), x.source))
		id := x.addSymbol(graph.Symbol{
			Name:      name,
			Kind:      graph.KindExport,
			StartLine: line,
			EndLine:   endLine(n),
			Exported:  true,
		})
		if ok {
			x.addEdge(id, graph.ModuleID(target), graph.EdgeImports, line)
		}
	}
}

// requireDeclarator binds "const x = require('./x')" and
// "const { a, b: c } = require('./x')".
func (x *scriptFile) requireDeclarator(n *sitter.Node, module string, imports bindings) {
	spec, isRequire := requireSpecifier(n.ChildByFieldName("value"), x.source)
	if !isRequire {
		return
	}
	target, ok := x.resolve(spec)
	if ok {
		x.addEdge(module, graph.ModuleID(target), graph.EdgeImports, startLine(n))
	}

	name := n.ChildByFieldName("name")
	if name == nil {
		return
	}
	switch name.Kind() {
	case "identifier":
		x.bindModule(extractNodeText(name, x.source), target, ok, n, imports)
	case "object_pattern":
		for _, prop := range namedChildren(name) {
			switch prop.Kind() {
			case "shorthand_property_identifier_pattern":
				local := extractNodeText(prop, x.source)
				x.bindNamed(local, target, local, ok, n, imports)
			case "pair_pattern":
				key := fieldText(prop, "key", x.source)
				local := fieldText(prop, "value", x.source)
				x.bindNamed(local, target, key, ok, n, imports)
			}
		}
	}
}

// --- exports ---

func (x *scriptFile) exportStatement(n *sitter.Node, ctx walkContext) {
	if n.ChildByFieldName("source") != nil {
		return
	}
	line := startLine(n)
	isDefault := hasChildToken(n, "default")

	if decl := n.ChildByFieldName("declaration"); decl != nil {
		x.walk(decl, ctx)
		if isDefault {
			def := x.addDefault(n)
			if name := fieldText(decl, "name", x.source); name != "" {
				x.addEdge(def, x.id(ctx.scope, name), graph.EdgeReferences, line)
			}
		}
		return
	}

	if value := n.ChildByFieldName("value"); value != nil {
		def := x.addDefault(n)
		switch value.Kind() {
		case "identifier":
			x.addEdges(def, x.resolveName(extractNodeText(value, x.source), ctx), graph.EdgeReferences, line)
			return
		case "function_expression", "function", "generator_function", "class":
			// Named default expressions still declare their name
			if name := fieldText(value, "name", x.source); name != "" {
				if value.Kind() == "class" {
					x.class(value, ctx)
				} else {
					x.function(value, ctx)
				}
				x.addEdge(def, x.id(ctx.scope, name), graph.EdgeReferences, line)
				return
			}
		}
		inner := ctx
		inner.owner = def
		inner.inBody = true
		x.walk(value, inner)
		return
	}

	if clause := findChildByType(n, "export_clause"); clause != nil {
		for _, spec := range findChildrenByType(clause, "export_specifier") {
			local := fieldText(spec, "name", x.source)
			exported := unquote(fieldText(spec, "alias", x.source))
			if exported == "" {
				exported = local
			}
			x.exportClauses = append(x.exportClauses, exportClause{
				local:    local,
				exported: exported,
				scope:    ctx.scope,
				start:    line,
				end:      endLine(n),
			})
		}
	}
}

func (x *scriptFile) addDefault(n *sitter.Node) string {
	return x.addSymbol(graph.Symbol{
		Name:      "default",
		Kind:      graph.KindExport,
		StartLine: startLine(n),
		EndLine:   endLine(n),
		Exported:  true,
	})
}

func (x *scriptFile) applyExportClauses(ctx walkContext) {
	for _, ec := range x.exportClauses {
		localID := x.id(ec.scope, ec.local)
		if ec.exported == ec.local && x.markExported(localID) {
			continue
		}
		id := x.addSymbol(graph.Symbol{
			Name:      ec.exported,
			Kind:      graph.KindExport,
			Scope:     ec.scope,
			StartLine: ec.start,
			EndLine:   ec.end,
			Exported:  true,
		})
		for _, target := range x.resolveName(ec.local, ctx) {
			if target != id {
				x.addEdge(id, target, graph.EdgeReferences, ec.start)
			}
		}
	}
}

// scriptExported reports whether a declaration sits inside an export statement.
func scriptExported(n *sitter.Node) bool {
	for p := n.Parent(); p != nil; p = p.Parent() {
		switch p.Kind() {
		case "export_statement":
			return true
		case "program", "statement_block", "class_body":
			return false
		}
	}
	return false
}

// --- declarations ---

func (x *scriptFile) function(n *sitter.Node, ctx walkContext) {
	name := fieldText(n, "name", x.source)
	if name == "" || ctx.inBody {
		x.closure(n, ctx)
		return
	}
	id := x.addSymbol(graph.Symbol{
		Name:      name,
		Kind:      graph.KindFunction,
		Scope:     ctx.scope,
		StartLine: startLine(n),
		EndLine:   endLine(n),
		Exported:  scriptExported(n),
	})
	inner := ctx
	inner.owner = id
	inner.inBody = true
	x.walkChildren(n, inner)
}

func (x *scriptFile) closure(n *sitter.Node, ctx walkContext) {
	ctx.inBody = true
	x.walkChildren(n, ctx)
}

func (x *scriptFile) class(n *sitter.Node, ctx walkContext) {
	name := fieldText(n, "name", x.source)
	if name == "" || ctx.inBody {
		x.closure(n, ctx)
		return
	}
	exported := scriptExported(n)
	id := x.addSymbol(graph.Symbol{
		Name:      name,
		Kind:      graph.KindClass,
		Scope:     ctx.scope,
		StartLine: startLine(n),
		EndLine:   endLine(n),
		Exported:  exported,
	})
	x.decorators(n, id, ctx)

	if heritage := findChildByType(n, "class_heritage"); heritage != nil {
		for _, c := range namedChildren(heritage) {
			switch c.Kind() {
			case "extends_clause":
				for _, t := range fieldChildren(c, "value") {
					x.addEdges(id, x.typeTargets(t, ctx), graph.EdgeExtends, startLine(t))
				}
			case "implements_clause":
				for _, t := range namedChildren(c) {
					x.addEdges(id, x.typeTargets(t, ctx), graph.EdgeImplements, startLine(t))
				}
			default:
				// JavaScript: the heritage holds the base expression itself
				x.addEdges(id, x.typeTargets(c, ctx), graph.EdgeExtends, startLine(c))
			}
		}
	}

	inner := walkContext{imports: ctx.imports, scope: name, owner: id, exported: exported}
	x.walkChildren(n.ChildByFieldName("body"), inner)
}

func (x *scriptFile) iface(n *sitter.Node, ctx walkContext) {
	name := fieldText(n, "name", x.source)
	if name == "" || ctx.inBody {
		return
	}
	exported := scriptExported(n)
	id := x.addSymbol(graph.Symbol{
		Name:      name,
		Kind:      graph.KindInterface,
		Scope:     ctx.scope,
		StartLine: startLine(n),
		EndLine:   endLine(n),
		Exported:  exported,
	})

	if ext := findChildByType(n, "extends_type_clause"); ext != nil {
		for _, t := range namedChildren(ext) {
			x.addEdges(id, x.typeTargets(t, ctx), graph.EdgeExtends, startLine(t))
		}
	}

	inner := walkContext{imports: ctx.imports, scope: name, owner: id, exported: exported}
	x.walkChildren(n.ChildByFieldName("body"), inner)
}

func (x *scriptFile) typeAlias(n *sitter.Node, ctx walkContext) {
	name := fieldText(n, "name", x.source)
	if name == "" || ctx.inBody {
		return
	}
	id := x.addSymbol(graph.Symbol{
		Name:      name,
		Kind:      graph.KindTypeAlias,
		Scope:     ctx.scope,
		StartLine: startLine(n),
		EndLine:   endLine(n),
		Exported:  scriptExported(n),
	})
	x.typeRefs(n.ChildByFieldName("value"), id, ctx)
}

func (x *scriptFile) enum(n *sitter.Node, ctx walkContext) {
	name := fieldText(n, "name", x.source)
	if name == "" || ctx.inBody {
		return
	}
	exported := scriptExported(n)
	x.addSymbol(graph.Symbol{
		Name:      name,
		Kind:      graph.KindEnum,
		Scope:     ctx.scope,
		StartLine: startLine(n),
		EndLine:   endLine(n),
		Exported:  exported,
	})

	for _, member := range namedChildren(n.ChildByFieldName("body")) {
		var memberName string
		switch member.Kind() {
		case "property_identifier":
			memberName = extractNodeText(member, x.source)
		case "enum_assignment":
			memberName = fieldText(member, "name", x.source)
		}
		if memberName == "" {
			continue
		}
		x.addSymbol(graph.Symbol{
			Name:      memberName,
			Kind:      graph.KindProperty,
			Scope:     name,
			StartLine: startLine(member),
			EndLine:   endLine(member),
			Exported:  exported,
		})
	}
}

// variables handles const/let/var declarations. Function-valued
// declarators become functions; require() declarators were bound as imports.
func (x *scriptFile) variables(n *sitter.Node, ctx walkContext) {
	isConst := hasChildToken(n, "const")
	exported := scriptExported(n)

	for _, decl := range findChildrenByType(n, "variable_declarator") {
		nameNode := decl.ChildByFieldName("name")
		value := decl.ChildByFieldName("value")
		if _, isRequire := requireSpecifier(value, x.source); isRequire {
			continue
		}
		if ctx.inBody || nameNode == nil || nameNode.Kind() != "identifier" {
			x.closure(decl, ctx)
			continue
		}

		kind := graph.KindVariable
		if isConst {
			kind = graph.KindConstant
		}
		if value != nil {
			switch value.Kind() {
			case "arrow_function", "function_expression", "function", "generator_function":
				kind = graph.KindFunction
			}
		}

		id := x.addSymbol(graph.Symbol{
			Name:      extractNodeText(nameNode, x.source),
			Kind:      kind,
			Scope:     ctx.scope,
			StartLine: startLine(decl),
			EndLine:   endLine(decl),
			Exported:  exported,
		})
		inner := ctx
		inner.owner = id
		inner.inBody = true
		x.walkChildren(decl, inner)
	}
}

// namespace handles "namespace X {}" and "module X {}". Ambient
// "declare module 'pkg'" blocks get no symbol.
func (x *scriptFile) namespace(n *sitter.Node, ctx walkContext) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil || nameNode.Kind() == "string" || ctx.inBody || ctx.scope != "" {
		x.walkChildren(n, ctx)
		return
	}
	name := extractNodeText(nameNode, x.source)
	exported := scriptExported(n)
	id := x.addSymbol(graph.Symbol{
		Name:      name,
		Kind:      graph.KindModule,
		StartLine: startLine(n),
		EndLine:   endLine(n),
		Exported:  exported,
	})
	inner := walkContext{imports: ctx.imports, scope: name, owner: id, exported: exported}
	x.walkChildren(n.ChildByFieldName("body"), inner)
}

func (x *scriptFile) method(n *sitter.Node, ctx walkContext) {
	name := fieldText(n, "name", x.source)
	if name == "" || ctx.scope == "" || ctx.inBody {
		x.closure(n, ctx)
		return
	}
	id := x.addSymbol(graph.Symbol{
		Name:      name,
		Kind:      graph.KindMethod,
		Scope:     ctx.scope,
		StartLine: startLine(n),
		EndLine:   endLine(n),
		Exported:  ctx.exported,
	})
	x.decorators(n, id, ctx)

	inner := ctx
	inner.owner = id
	inner.inBody = true
	x.walkChildren(n, inner)
}

func (x *scriptFile) field(n *sitter.Node, ctx walkContext) {
	name := fieldText(n, "name", x.source)
	if name == "" {
		name = fieldText(n, "property", x.source)
	}
	if name == "" || ctx.scope == "" || ctx.inBody {
		x.walkChildren(n, ctx)
		return
	}
	id := x.addSymbol(graph.Symbol{
		Name:      name,
		Kind:      graph.KindProperty,
		Scope:     ctx.scope,
		StartLine: startLine(n),
		EndLine:   endLine(n),
		Exported:  ctx.exported,
	})
	x.decorators(n, id, ctx)

	inner := ctx
	inner.owner = id
	inner.inBody = true
	x.walkChildren(n, inner)
}

// signature handles interface and abstract members.
func (x *scriptFile) signature(n *sitter.Node, ctx walkContext) {
	name := fieldText(n, "name", x.source)
	if name == "" || ctx.scope == "" || ctx.inBody {
		return
	}
	kind := graph.KindMethod
	if n.Kind() == "property_signature" {
		kind = graph.KindProperty
	}
	id := x.addSymbol(graph.Symbol{
		Name:      name,
		Kind:      kind,
		Scope:     ctx.scope,
		StartLine: startLine(n),
		EndLine:   endLine(n),
		Exported:  ctx.exported,
	})
	inner := ctx
	inner.owner = id
	inner.inBody = true
	x.walkChildren(n, inner)
}

// decorators emits decorates edges for decorators attached to n or to the
// export statement wrapping it.
func (x *scriptFile) decorators(n *sitter.Node, id string, ctx walkContext) {
	decs := findChildrenByType(n, "decorator")
	if p := n.Parent(); p != nil && p.Kind() == "export_statement" {
		decs = append(decs, findChildrenByType(p, "decorator")...)
	}
	for _, d := range decs {
		expr := d.NamedChild(0)
		if expr != nil && expr.Kind() == "call_expression" {
			expr = expr.ChildByFieldName("function")
		}
		for _, src := range x.typeTargets(expr, ctx) {
			x.addEdge(src, id, graph.EdgeDecorates, startLine(d))
		}
	}
}

// --- references ---

func (x *scriptFile) call(n *sitter.Node, ctx walkContext) {
	fn := n.ChildByFieldName("function")
	if fn != nil {
		x.addEdges(ctx.owner, x.calleeTargets(fn, ctx), graph.EdgeCalls, startLine(n))
	}
	x.walkChildren(n, ctx)
}

func (x *scriptFile) newExpression(n *sitter.Node, ctx walkContext) {
	if ctor := n.ChildByFieldName("constructor"); ctor != nil {
		x.addEdges(ctx.owner, x.typeTargets(ctor, ctx), graph.EdgeCalls, startLine(n))
	}
	x.walkChildren(n, ctx)
}

func (x *scriptFile) typeAnnotation(n *sitter.Node, ctx walkContext) {
	x.typeRefs(n, ctx.owner, ctx)
}

// jsxElement links a component usage (<Button />) to the component.
func (x *scriptFile) jsxElement(n *sitter.Node, ctx walkContext) {
	name := n.ChildByFieldName("name")
	if name != nil {
		text := extractNodeText(name, x.source)
		if text != "" && unicode.IsUpper(rune(text[0])) {
			x.addEdges(ctx.owner, x.typeTargets(name, ctx), graph.EdgeReferences, startLine(n))
		}
	}
	x.walkChildren(n, ctx)
}

// calleeTargets resolves the function part of a call expression.
func (x *scriptFile) calleeTargets(fn *sitter.Node, ctx walkContext) []string {
	switch fn.Kind() {
	case "identifier":
		return x.resolveName(extractNodeText(fn, x.source), ctx)
	case "member_expression":
		obj := fn.ChildByFieldName("object")
		prop := fieldText(fn, "property", x.source)
		if obj == nil || prop == "" {
			return nil
		}
		switch obj.Kind() {
		case "this":
			if ctx.scope != "" {
				return []string{x.id(ctx.scope, prop)}
			}
		case "identifier":
			return x.memberTargets(extractNodeText(obj, x.source), prop, ctx)
		}
	}
	return nil
}

// typeTargets resolves a type or constructor expression to symbol IDs.
func (x *scriptFile) typeTargets(n *sitter.Node, ctx walkContext) []string {
	if n == nil {
		return nil
	}
	switch n.Kind() {
	case "identifier", "type_identifier":
		return x.resolveName(extractNodeText(n, x.source), ctx)
	case "member_expression":
		obj := n.ChildByFieldName("object")
		if obj != nil && obj.Kind() == "identifier" {
			return x.memberTargets(extractNodeText(obj, x.source), fieldText(n, "property", x.source), ctx)
		}
	case "nested_type_identifier":
		return x.memberTargets(fieldText(n, "module", x.source), fieldText(n, "name", x.source), ctx)
	case "generic_type":
		return x.typeTargets(n.ChildByFieldName("name"), ctx)
	}
	return nil
}

// typeRefs emits type_references edges from owner for every type name
// mentioned under n.
func (x *scriptFile) typeRefs(n *sitter.Node, owner string, ctx walkContext) {
	walkTree(n, func(c *sitter.Node) bool {
		switch c.Kind() {
		case "type_identifier", "nested_type_identifier":
			for _, target := range x.typeTargets(c, ctx) {
				if target != owner {
					x.addEdge(owner, target, graph.EdgeTypeReferences, startLine(c))
				}
			}
			return false
		}
		return true
	})
}

// resolveName resolves a bare identifier: import bindings first, then a
// guess at a top-level symbol of this file. Builtins resolve to nothing.
func (x *scriptFile) resolveName(name string, ctx walkContext) []string {
	if name == "" || isBuiltin(x.lang, name) {
		return nil
	}
	if b, ok := ctx.imports[name]; ok {
		if b.target == "" {
			return nil
		}
		return []string{b.target}
	}
	return []string{x.id("", name)}
}

// memberTargets resolves obj.member: through a namespace import, as a static
// member of an imported class, or as a static member of a local class.
func (x *scriptFile) memberTargets(obj, member string, ctx walkContext) []string {
	if obj == "" || member == "" || isBuiltin(x.lang, obj) {
		return nil
	}
	if _, ok := ctx.imports[obj]; ok {
		return ctx.memberTargets(obj, member)
	}
	return []string{x.id(obj, member)}
}

// requireSpecifier reports whether n is require('<spec>').
func requireSpecifier(n *sitter.Node, source []byte) (string, bool) {
	if n == nil || n.Kind() != "call_expression" {
		return "", false
	}
	fn := n.ChildByFieldName("function")
	if fn == nil || fn.Kind() != "identifier" || extractNodeText(fn, source) != "require" {
		return "", false
	}
	args := n.ChildByFieldName("arguments")
	if args == nil || args.NamedChildCount() == 0 {
		return "", false
	}
	arg := args.NamedChild(0)
	if arg.Kind() != "string" {
		return "", false
	}
	return stringValue(arg, source), true
}

// stringValue returns the contents of a string literal node.
func stringValue(n *sitter.Node, source []byte) string {
	return unquote(extractNodeText(n, source))
}

func unquote(s string) string {
	return strings.Trim(s, "'\"`")
}
