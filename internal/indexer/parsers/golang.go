package parsers

import (
	"path"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	sitter "github.com/tree-sitter/go-tree-sitter"
	golang "github.com/tree-sitter/tree-sitter-go/bindings/go"

	"github.com/mvp-joe/code-xref/internal/graph"
	"github.com/mvp-joe/code-xref/internal/resolve"
)

// goParser extracts Go files.
type goParser struct {
	*treeSitterParser
	projects *resolve.Registry
}

// NewGoParser creates a new Go extractor.
func NewGoParser(projects *resolve.Registry) *goParser {
	lang := sitter.NewLanguage(golang.Language())
	return &goParser{
		treeSitterParser: newTreeSitterParser(lang, LangGo),
		projects:         projects,
	}
}

func (p *goParser) Language() string {
	return p.lang
}

// Extract parses a Go file into symbols and edges. Names that are not
// imported are guessed in every file of the same package directory; the
// graph drops the guesses that do not exist.
func (p *goParser) Extract(filePath string, source []byte, projectRoot string) (*graph.ParsedFile, error) {
	tree, err := p.parse(filePath, source)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	root := tree.RootNode()
	resolver := p.projects.Project(projectRoot).Go
	x := &goFile{
		fileBuilder: newFileBuilder(filePath, p.lang, source),
		resolver:    resolver,
		siblings:    packageSiblings(resolver, filePath),
	}

	pkg := ""
	if clause := findChildByType(root, "package_clause"); clause != nil {
		pkg = extractNodeText(findChildByType(clause, "package_identifier"), source)
	}
	if pkg == "" {
		pkg = path.Base(path.Dir(filePath))
	}

	module := x.addModule(pkg, endLine(root))
	ctx := walkContext{
		imports: x.collectImports(root, module),
		owner:   module,
	}
	x.walk(root, ctx)

	return x.result(), nil
}

// packageSiblings returns the package files next to filePath, itself included.
func packageSiblings(r *resolve.GoResolver, filePath string) []string {
	files := r.PackageFiles(path.Dir(filePath))
	for _, f := range files {
		if f == filePath {
			return files
		}
	}
	files = append(append([]string(nil), files...), filePath)
	sort.Strings(files)
	return files
}

// goFile is the extraction state of one Go file.
type goFile struct {
	*fileBuilder
	resolver *resolve.GoResolver
	siblings []string
}

var goHandlers map[string]func(*goFile, *sitter.Node, walkContext)

func init() {
	goHandlers = map[string]func(*goFile, *sitter.Node, walkContext){
		"package_clause":       func(*goFile, *sitter.Node, walkContext) {},
		"import_declaration":   func(*goFile, *sitter.Node, walkContext) {},
		"function_declaration": (*goFile).function,
		"method_declaration":   (*goFile).method,
		"type_declaration":     (*goFile).typeDeclaration,
		"const_declaration":    (*goFile).constants,
		"var_declaration":      (*goFile).variables,
		"func_literal":         (*goFile).closure,
		"call_expression":      (*goFile).call,
		"composite_literal":    (*goFile).composite,
	}
}

func (x *goFile) walk(n *sitter.Node, ctx walkContext) {
	if n == nil {
		return
	}
	if h, ok := goHandlers[n.Kind()]; ok {
		h(x, n, ctx)
		return
	}
	x.walkChildren(n, ctx)
}

func (x *goFile) walkChildren(n *sitter.Node, ctx walkContext) {
	if n == nil {
		return
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		x.walk(n.Child(uint(i)), ctx)
	}
}

func (x *goFile) closure(n *sitter.Node, ctx walkContext) {
	ctx.inBody = true
	x.walkChildren(n, ctx)
}

// --- imports ---

func (x *goFile) collectImports(root *sitter.Node, module string) bindings {
	imports := bindings{}
	walkTree(root, func(n *sitter.Node) bool {
		if n.Kind() == "import_spec" {
			x.importSpec(n, module, imports)
			return false
		}
		return true
	})
	return imports
}

func (x *goFile) importSpec(n *sitter.Node, module string, imports bindings) {
	importPath := unquote(fieldText(n, "path", x.source))
	if importPath == "" {
		return
	}
	local := fieldText(n, "name", x.source)
	if local == "" || local == "_" || local == "." {
		local = goImportName(importPath)
	}

	line := startLine(n)
	id := x.addSymbol(graph.Symbol{
		Name:      local,
		Kind:      graph.KindImport,
		StartLine: line,
		EndLine:   endLine(n),
	})

	files, ok := x.resolver.ResolvePackage(importPath)
	if !ok {
		return
	}
	for _, f := range files {
		x.addEdge(id, graph.ModuleID(f), graph.EdgeImports, line)
		x.addEdge(module, graph.ModuleID(f), graph.EdgeImports, line)
	}
	imports[local] = binding{target: graph.ModuleID(files[0]), files: files, module: true}
}

var majorVersion = regexp.MustCompile(`^v[0-9]+$`)

// goImportName guesses the package name an import path binds.
func goImportName(importPath string) string {
	segments := strings.Split(importPath, "/")
	name := segments[len(segments)-1]
	if majorVersion.MatchString(name) && len(segments) > 1 {
		name = segments[len(segments)-2]
	}
	if i := strings.Index(name, ".v"); i > 0 {
		name = name[:i] // gopkg.in/yaml.v3
	}
	return strings.TrimPrefix(name, "go-")
}

func goExported(name string) bool {
	r, _ := utf8.DecodeRuneInString(name)
	return unicode.IsUpper(r)
}

// --- declarations ---

func (x *goFile) function(n *sitter.Node, ctx walkContext) {
	name := fieldText(n, "name", x.source)
	if name == "" {
		return
	}
	id := x.addSymbol(graph.Symbol{
		Name:      name,
		Kind:      graph.KindFunction,
		StartLine: startLine(n),
		EndLine:   endLine(n),
		Exported:  goExported(name),
	})
	x.signatureRefs(n, id, ctx)

	inner := ctx
	inner.owner = id
	inner.inBody = true
	x.walk(n.ChildByFieldName("body"), inner)
}

func (x *goFile) method(n *sitter.Node, ctx walkContext) {
	name := fieldText(n, "name", x.source)
	recvName, recvType := x.receiver(n.ChildByFieldName("receiver"))
	if name == "" || recvType == "" {
		return
	}
	id := x.addSymbol(graph.Symbol{
		Name:      name,
		Kind:      graph.KindMethod,
		Scope:     recvType,
		StartLine: startLine(n),
		EndLine:   endLine(n),
		Exported:  goExported(name),
	})
	x.signatureRefs(n, id, ctx)

	inner := ctx
	inner.owner = id
	inner.inBody = true
	inner.scope = recvType
	inner.receiver = recvName
	x.walk(n.ChildByFieldName("body"), inner)
}

// receiver returns the receiver variable and its base type name.
func (x *goFile) receiver(list *sitter.Node) (name, typeName string) {
	decl := findChildByType(list, "parameter_declaration")
	if decl == nil {
		return "", ""
	}
	name = fieldText(decl, "name", x.source)
	t := decl.ChildByFieldName("type")
	for t != nil {
		switch t.Kind() {
		case "pointer_type":
			t = t.NamedChild(0)
		case "generic_type":
			t = t.ChildByFieldName("type")
		case "type_identifier":
			return name, extractNodeText(t, x.source)
		default:
			return name, ""
		}
	}
	return name, ""
}

// signatureRefs emits type_references for parameter and result types.
func (x *goFile) signatureRefs(n *sitter.Node, owner string, ctx walkContext) {
	x.typeRefs(n.ChildByFieldName("parameters"), owner, ctx)
	x.typeRefs(n.ChildByFieldName("result"), owner, ctx)
}

func (x *goFile) typeDeclaration(n *sitter.Node, ctx walkContext) {
	if ctx.inBody {
		return
	}
	for _, spec := range namedChildren(n) {
		if spec.Kind() != "type_spec" && spec.Kind() != "type_alias" {
			continue
		}
		name := fieldText(spec, "name", x.source)
		typ := spec.ChildByFieldName("type")
		if name == "" || typ == nil {
			continue
		}

		kind := graph.KindTypeAlias
		switch typ.Kind() {
		case "struct_type":
			kind = graph.KindClass
		case "interface_type":
			kind = graph.KindInterface
		}
		id := x.addSymbol(graph.Symbol{
			Name:      name,
			Kind:      kind,
			StartLine: startLine(spec),
			EndLine:   endLine(spec),
			Exported:  goExported(name),
		})

		switch kind {
		case graph.KindClass:
			x.structFields(typ, name, id, ctx)
		case graph.KindInterface:
			x.interfaceElems(typ, name, id, ctx)
		default:
			x.typeRefs(typ, id, ctx)
		}
	}
}

// structFields emits fields as properties; embedded fields become inherits
// edges.
func (x *goFile) structFields(typ *sitter.Node, typeName, id string, ctx walkContext) {
	list := findChildByType(typ, "field_declaration_list")
	for _, fd := range findChildrenByType(list, "field_declaration") {
		ftype := fd.ChildByFieldName("type")
		names := fieldChildren(fd, "name")
		if len(names) == 0 {
			x.addEdges(id, x.typeTargets(ftype, ctx), graph.EdgeInherits, startLine(fd))
			continue
		}
		for _, nm := range names {
			fieldName := extractNodeText(nm, x.source)
			x.addSymbol(graph.Symbol{
				Name:      fieldName,
				Kind:      graph.KindProperty,
				Scope:     typeName,
				StartLine: startLine(fd),
				EndLine:   endLine(fd),
				Exported:  goExported(fieldName),
			})
		}
		x.typeRefs(ftype, id, ctx)
	}
}

// interfaceElems emits interface methods; embedded interfaces become
// inherits edges.
func (x *goFile) interfaceElems(typ *sitter.Node, typeName, id string, ctx walkContext) {
	for _, c := range namedChildren(typ) {
		switch c.Kind() {
		case "method_elem", "method_spec":
			name := fieldText(c, "name", x.source)
			if name == "" {
				continue
			}
			x.addSymbol(graph.Symbol{
				Name:      name,
				Kind:      graph.KindMethod,
				Scope:     typeName,
				StartLine: startLine(c),
				EndLine:   endLine(c),
				Exported:  goExported(name),
			})
			x.signatureRefs(c, id, ctx)
		case "type_elem", "constraint_elem":
			for _, t := range namedChildren(c) {
				x.addEdges(id, x.typeTargets(t, ctx), graph.EdgeInherits, startLine(t))
			}
		case "type_identifier", "qualified_type":
			x.addEdges(id, x.typeTargets(c, ctx), graph.EdgeInherits, startLine(c))
		}
	}
}

func (x *goFile) constants(n *sitter.Node, ctx walkContext) {
	x.valueSpecs(n, ctx, "const_spec", graph.KindConstant)
}

func (x *goFile) variables(n *sitter.Node, ctx walkContext) {
	x.valueSpecs(n, ctx, "var_spec", graph.KindVariable)
}

// valueSpecs declares package-level consts and vars. Inside bodies they are
// only scanned for calls.
func (x *goFile) valueSpecs(n *sitter.Node, ctx walkContext, specKind string, kind graph.SymbolKind) {
	if ctx.inBody {
		x.walkChildren(n, ctx)
		return
	}
	walkTree(n, func(spec *sitter.Node) bool {
		if spec.Kind() != specKind {
			return true
		}
		var ids []string
		for _, nm := range fieldChildren(spec, "name") {
			name := extractNodeText(nm, x.source)
			if name == "_" {
				continue
			}
			ids = append(ids, x.addSymbol(graph.Symbol{
				Name:      name,
				Kind:      kind,
				StartLine: startLine(spec),
				EndLine:   endLine(spec),
				Exported:  goExported(name),
			}))
		}

		inner := ctx
		inner.inBody = true
		if len(ids) == 1 {
			inner.owner = ids[0]
		}
		x.typeRefs(spec.ChildByFieldName("type"), inner.owner, ctx)
		x.walk(spec.ChildByFieldName("value"), inner)
		return false
	})
}

// --- references ---

func (x *goFile) call(n *sitter.Node, ctx walkContext) {
	if fn := n.ChildByFieldName("function"); fn != nil {
		x.addEdges(ctx.owner, x.calleeTargets(fn, ctx), graph.EdgeCalls, startLine(n))
	}
	x.walkChildren(n, ctx)
}

func (x *goFile) composite(n *sitter.Node, ctx walkContext) {
	x.addEdges(ctx.owner, x.typeTargets(n.ChildByFieldName("type"), ctx), graph.EdgeReferences, startLine(n))
	x.walkChildren(n.ChildByFieldName("body"), ctx)
}

func (x *goFile) calleeTargets(fn *sitter.Node, ctx walkContext) []string {
	switch fn.Kind() {
	case "identifier":
		return x.packageTargets("", extractNodeText(fn, x.source))
	case "selector_expression":
		operand := fn.ChildByFieldName("operand")
		field := fieldText(fn, "field", x.source)
		if operand == nil || operand.Kind() != "identifier" || field == "" {
			return nil
		}
		op := extractNodeText(operand, x.source)
		if op == ctx.receiver && ctx.scope != "" {
			return x.packageTargets(ctx.scope, field)
		}
		return ctx.memberTargets(op, field)
	}
	return nil
}

// typeTargets resolves a type expression to the declaring symbols.
func (x *goFile) typeTargets(n *sitter.Node, ctx walkContext) []string {
	if n == nil {
		return nil
	}
	switch n.Kind() {
	case "type_identifier":
		return x.packageTargets("", extractNodeText(n, x.source))
	case "qualified_type":
		return ctx.memberTargets(fieldText(n, "package", x.source), fieldText(n, "name", x.source))
	case "pointer_type":
		return x.typeTargets(n.NamedChild(0), ctx)
	case "generic_type":
		return x.typeTargets(n.ChildByFieldName("type"), ctx)
	}
	return nil
}

// typeRefs emits type_references from owner for every named type under n.
func (x *goFile) typeRefs(n *sitter.Node, owner string, ctx walkContext) {
	walkTree(n, func(c *sitter.Node) bool {
		switch c.Kind() {
		case "type_identifier", "qualified_type":
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

// packageTargets fans a same-package name out to every sibling file.
func (x *goFile) packageTargets(scope, name string) []string {
	if name == "" || (scope == "" && isBuiltin(LangGo, name)) {
		return nil
	}
	ids := make([]string, 0, len(x.siblings))
	for _, f := range x.siblings {
		ids = append(ids, graph.SymbolID(f, scope, name))
	}
	return ids
}
