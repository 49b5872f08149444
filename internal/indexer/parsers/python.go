package parsers

import (
	"path"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	python "github.com/tree-sitter/tree-sitter-python/bindings/go"

	"github.com/mvp-joe/code-xref/internal/graph"
	"github.com/mvp-joe/code-xref/internal/resolve"
)

// pythonParser extracts Python files.
type pythonParser struct {
	*treeSitterParser
	projects *resolve.Registry
}

// NewPythonParser creates a new Python extractor.
func NewPythonParser(projects *resolve.Registry) *pythonParser {
	lang := sitter.NewLanguage(python.Language())
	return &pythonParser{
		treeSitterParser: newTreeSitterParser(lang, LangPython),
		projects:         projects,
	}
}

func (p *pythonParser) Language() string {
	return p.lang
}

// Extract parses a Python file into symbols and edges.
func (p *pythonParser) Extract(filePath string, source []byte, projectRoot string) (*graph.ParsedFile, error) {
	tree, err := p.parse(filePath, source)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	root := tree.RootNode()
	x := &pyFile{
		fileBuilder: newFileBuilder(filePath, p.lang, source),
		resolver:    p.projects.Project(projectRoot).Python,
	}

	module := x.addModule(pythonModuleName(filePath), endLine(root))
	ctx := walkContext{
		imports: x.collectImports(root, module),
		owner:   module,
	}
	x.walk(root, ctx)

	return x.result(), nil
}

// pythonModuleName turns "pkg/sub/mod.py" into "pkg.sub.mod".
func pythonModuleName(filePath string) string {
	name := strings.TrimSuffix(filePath, ".py")
	name = strings.TrimSuffix(name, "/__init__")
	if name == "__init__" {
		name = path.Base(path.Dir(filePath))
	}
	return strings.ReplaceAll(name, "/", ".")
}

// pyFile is the extraction state of one Python file.
type pyFile struct {
	*fileBuilder
	resolver *resolve.PythonResolver
}

var pythonHandlers map[string]func(*pyFile, *sitter.Node, walkContext)

func init() {
	pythonHandlers = map[string]func(*pyFile, *sitter.Node, walkContext){
		"import_statement":        func(*pyFile, *sitter.Node, walkContext) {},
		"import_from_statement":   func(*pyFile, *sitter.Node, walkContext) {},
		"future_import_statement": func(*pyFile, *sitter.Node, walkContext) {},
		"function_definition":     func(x *pyFile, n *sitter.Node, ctx walkContext) { x.function(n, ctx) },
		"class_definition":        func(x *pyFile, n *sitter.Node, ctx walkContext) { x.class(n, ctx) },
		"decorated_definition":    (*pyFile).decorated,
		"assignment":              (*pyFile).assignment,
		"call":                    (*pyFile).call,
		"lambda":                  (*pyFile).closure,
		"type":                    (*pyFile).annotation,
	}
}

func (x *pyFile) walk(n *sitter.Node, ctx walkContext) {
	if n == nil {
		return
	}
	if h, ok := pythonHandlers[n.Kind()]; ok {
		h(x, n, ctx)
		return
	}
	x.walkChildren(n, ctx)
}

func (x *pyFile) walkChildren(n *sitter.Node, ctx walkContext) {
	if n == nil {
		return
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		x.walk(n.Child(uint(i)), ctx)
	}
}

func (x *pyFile) closure(n *sitter.Node, ctx walkContext) {
	ctx.inBody = true
	x.walkChildren(n, ctx)
}

// --- imports ---

func (x *pyFile) collectImports(root *sitter.Node, module string) bindings {
	imports := bindings{}
	walkTree(root, func(n *sitter.Node) bool {
		switch n.Kind() {
		case "import_statement":
			x.importStatement(n, module, imports)
			return false
		case "import_from_statement":
			x.importFrom(n, module, imports)
			return false
		}
		return true
	})
	return imports
}

// importStatement handles "import a.b" and "import a.b as c".
func (x *pyFile) importStatement(n *sitter.Node, module string, imports bindings) {
	for _, nameNode := range fieldChildren(n, "name") {
		mod, local := x.importName(nameNode)
		target, ok := x.resolver.Resolve(mod, x.path())
		if ok {
			x.addEdge(module, graph.ModuleID(target), graph.EdgeImports, startLine(n))
		}
		x.bindModule(local, target, ok, n, imports)
		x.exportImport(n, local)
	}
}

// importFrom handles "from m import a, b as c" including relative modules.
func (x *pyFile) importFrom(n *sitter.Node, module string, imports bindings) {
	mod := fieldText(n, "module_name", x.source)
	line := startLine(n)

	if findChildByType(n, "wildcard_import") != nil {
		if target, ok := x.resolver.Resolve(mod, x.path()); ok {
			x.addEdge(module, graph.ModuleID(target), graph.EdgeImports, line)
		}
		return
	}

	for _, nameNode := range fieldChildren(n, "name") {
		name, local := x.importName(nameNode)
		file, isModule, ok := x.resolver.ResolveFrom(mod, name, x.path())
		if ok {
			x.addEdge(module, graph.ModuleID(file), graph.EdgeImports, line)
		}
		if isModule {
			x.bindModule(local, file, ok, n, imports)
		} else {
			x.bindNamed(local, file, name, ok, n, imports)
		}
		x.exportImport(n, local)
	}
}

// exportImport marks the import symbol for local exported when the
// statement binds a module-level name, reachable as module.local.
func (x *pyFile) exportImport(stmt *sitter.Node, local string) {
	if local == "" {
		return
	}
	for p := stmt.Parent(); p != nil; p = p.Parent() {
		switch p.Kind() {
		case "function_definition", "class_definition", "lambda":
			return
		}
	}
	x.markExported(x.id("", local))
}

// importName returns the imported name and the local name it binds.
func (x *pyFile) importName(n *sitter.Node) (name, local string) {
	if n.Kind() == "aliased_import" {
		return fieldText(n, "name", x.source), fieldText(n, "alias", x.source)
	}
	name = extractNodeText(n, x.source)
	return name, name
}

// --- declarations ---

func (x *pyFile) function(n *sitter.Node, ctx walkContext) string {
	name := fieldText(n, "name", x.source)
	if name == "" || ctx.inBody {
		x.closure(n, ctx)
		return ""
	}
	kind := graph.KindFunction
	if ctx.scope != "" {
		kind = graph.KindMethod
	}
	id := x.addSymbol(graph.Symbol{
		Name:      name,
		Kind:      kind,
		Scope:     ctx.scope,
		StartLine: startLine(n),
		EndLine:   endLine(n),
		Exported:  ctx.scope == "" || ctx.exported,
	})
	inner := ctx
	inner.owner = id
	inner.inBody = true
	x.walkChildren(n, inner)
	return id
}

func (x *pyFile) class(n *sitter.Node, ctx walkContext) string {
	name := fieldText(n, "name", x.source)
	if name == "" || ctx.inBody {
		x.closure(n, ctx)
		return ""
	}
	exported := ctx.scope == "" || ctx.exported
	id := x.addSymbol(graph.Symbol{
		Name:      name,
		Kind:      graph.KindClass,
		Scope:     ctx.scope,
		StartLine: startLine(n),
		EndLine:   endLine(n),
		Exported:  exported,
	})

	for _, base := range namedChildren(n.ChildByFieldName("superclasses")) {
		x.addEdges(id, x.exprTargets(base, ctx), graph.EdgeInherits, startLine(base))
	}

	inner := walkContext{imports: ctx.imports, scope: name, owner: id, exported: exported}
	x.walkChildren(n.ChildByFieldName("body"), inner)
	return id
}

// decorated emits decorates edges from each decorator to the definition.
func (x *pyFile) decorated(n *sitter.Node, ctx walkContext) {
	def := n.ChildByFieldName("definition")
	if def == nil {
		return
	}
	var id string
	switch def.Kind() {
	case "function_definition":
		id = x.function(def, ctx)
	case "class_definition":
		id = x.class(def, ctx)
	}

	for _, d := range findChildrenByType(n, "decorator") {
		expr := d.NamedChild(0)
		if expr != nil && expr.Kind() == "call" {
			x.walkChildren(expr.ChildByFieldName("arguments"), ctx)
			expr = expr.ChildByFieldName("function")
		}
		if id == "" {
			continue
		}
		for _, src := range x.exprTargets(expr, ctx) {
			x.addEdge(src, id, graph.EdgeDecorates, startLine(d))
		}
	}
}

// assignment declares module variables, class attributes and self.x
// attributes assigned inside methods.
func (x *pyFile) assignment(n *sitter.Node, ctx walkContext) {
	left := n.ChildByFieldName("left")
	if left == nil {
		x.walkChildren(n, ctx)
		return
	}

	if ctx.inBody {
		if left.Kind() == "attribute" && ctx.scope != "" &&
			fieldText(left, "object", x.source) == "self" {
			x.addSymbol(graph.Symbol{
				Name:      fieldText(left, "attribute", x.source),
				Kind:      graph.KindProperty,
				Scope:     ctx.scope,
				StartLine: startLine(n),
				EndLine:   endLine(n),
				Exported:  ctx.exported,
			})
		}
		x.walkChildren(n, ctx)
		return
	}

	var ids []string
	for _, target := range assignedNames(left) {
		name := extractNodeText(target, x.source)
		kind := graph.KindVariable
		switch {
		case ctx.scope != "":
			kind = graph.KindProperty
		case isConstantName(name):
			kind = graph.KindConstant
		}
		ids = append(ids, x.addSymbol(graph.Symbol{
			Name:      name,
			Kind:      kind,
			Scope:     ctx.scope,
			StartLine: startLine(n),
			EndLine:   endLine(n),
			Exported:  ctx.scope == "" || ctx.exported,
		}))
	}

	inner := ctx
	inner.inBody = true
	if len(ids) == 1 {
		inner.owner = ids[0]
	}
	x.walk(n.ChildByFieldName("type"), inner)
	x.walk(n.ChildByFieldName("right"), inner)
}

// assignedNames returns the identifiers bound by an assignment target.
func assignedNames(left *sitter.Node) []*sitter.Node {
	switch left.Kind() {
	case "identifier":
		return []*sitter.Node{left}
	case "pattern_list", "tuple_pattern", "list_pattern":
		var names []*sitter.Node
		for _, c := range namedChildren(left) {
			if c.Kind() == "identifier" {
				names = append(names, c)
			}
		}
		return names
	}
	return nil
}

// isConstantName checks if a name follows Python constant naming convention (ALL_CAPS).
func isConstantName(name string) bool {
	hasLetter := false
	for _, ch := range name {
		if ch >= 'a' && ch <= 'z' {
			return false
		}
		if ch >= 'A' && ch <= 'Z' {
			hasLetter = true
		}
	}
	return hasLetter
}

// --- references ---

func (x *pyFile) call(n *sitter.Node, ctx walkContext) {
	if fn := n.ChildByFieldName("function"); fn != nil {
		x.addEdges(ctx.owner, x.exprTargets(fn, ctx), graph.EdgeCalls, startLine(n))
	}
	x.walkChildren(n, ctx)
}

// annotation emits type_references for names used in a type hint.
func (x *pyFile) annotation(n *sitter.Node, ctx walkContext) {
	walkTree(n, func(c *sitter.Node) bool {
		switch c.Kind() {
		case "identifier", "attribute":
			for _, target := range x.exprTargets(c, ctx) {
				if target != ctx.owner {
					x.addEdge(ctx.owner, target, graph.EdgeTypeReferences, startLine(c))
				}
			}
			return false
		}
		return true
	})
}

// exprTargets resolves a name or attribute expression to symbol IDs.
func (x *pyFile) exprTargets(n *sitter.Node, ctx walkContext) []string {
	if n == nil {
		return nil
	}
	switch n.Kind() {
	case "identifier":
		return x.resolveName(extractNodeText(n, x.source), ctx)
	case "attribute":
		return x.attributeTargets(n.ChildByFieldName("object"), fieldText(n, "attribute", x.source), ctx)
	}
	return nil
}

func (x *pyFile) resolveName(name string, ctx walkContext) []string {
	if name == "" || isBuiltin(LangPython, name) {
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

// attributeTargets resolves obj.attr: self/cls members of the enclosing
// class, members of an imported module or class, or static members of a
// class in this file.
func (x *pyFile) attributeTargets(obj *sitter.Node, attr string, ctx walkContext) []string {
	if obj == nil || attr == "" {
		return nil
	}
	objText := extractNodeText(obj, x.source)
	if (objText == "self" || objText == "cls") && ctx.scope != "" {
		return []string{x.id(ctx.scope, attr)}
	}
	if _, ok := ctx.imports[objText]; ok {
		return ctx.memberTargets(objText, attr)
	}
	if obj.Kind() == "identifier" && !isBuiltin(LangPython, objText) {
		return []string{x.id(objText, attr)}
	}
	return nil
}
