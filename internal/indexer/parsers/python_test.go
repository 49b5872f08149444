package parsers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/code-xref/internal/graph"
)

// Test Plan for Python extraction:
// - Module names are dotted paths, packages use the directory name
// - "from m import X", "from . import mod", "import a.b as c" bind locals
// - Classes inherit from imported bases; methods and class attributes are scoped
// - self.x() resolves into the enclosing class; self.x = ... declares a property
// - Decorators produce decorates edges; builtins produce no edges
// - Every module-level binding is exported, including underscore names and
//   imports; imports inside functions are not
// - Unresolved imports keep an import symbol without edges

func pythonProject(t *testing.T) string {
	t.Helper()
	return writeProject(t, map[string]string{
		"models/__init__.py": "",
		"models/user.py": `class User:
    def __init__(self, name):
        self.name = name

    def save(self):
        self.validate()

    def validate(self):
        pass
`,
		"services/__init__.py": "",
		"services/helpers.py":  "def audit(name):\n    pass\n",
		"services/user_service.py": `from models.user import User
from . import helpers
import models.user as mu
import os

MAX_USERS = 100
_cache = {}


def login_required(fn):
    return fn


class UserService(User):
    default_role = "guest"

    @login_required
    def create(self, name: str) -> User:
        user = User(name)
        helpers.audit(name)
        mu.User(name)
        print(name)
        return user


def main():
    svc = UserService()
    svc.create("x")


def lazy():
    import json
    return json
`,
	})
}

func TestPythonParser_ModuleName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "services.user_service", pythonModuleName("services/user_service.py"))
	assert.Equal(t, "models", pythonModuleName("models/__init__.py"))
	assert.Equal(t, "app", pythonModuleName("app.py"))
}

func TestPythonParser_Imports(t *testing.T) {
	t.Parallel()

	root := pythonProject(t)
	pf := extractFile(t, root, "services/user_service.py")
	assert.Equal(t, LangPython, pf.Language)

	module := requireSymbol(t, pf, "services/user_service.py::<module>", graph.KindModule)
	assert.Equal(t, "services.user_service", module.Name)

	for _, id := range []string{
		"services/user_service.py::User",
		"services/user_service.py::helpers",
		"services/user_service.py::mu",
		"services/user_service.py::os",
	} {
		imp := requireSymbol(t, pf, id, graph.KindImport)
		assert.True(t, imp.Exported, id)
	}
	local := requireSymbol(t, pf, "services/user_service.py::json", graph.KindImport)
	assert.False(t, local.Exported, "function-level import is not a module attribute")

	assert.True(t, hasEdge(pf, "services/user_service.py::User", "models/user.py::User", graph.EdgeImports))
	assert.True(t, hasEdge(pf, "services/user_service.py::helpers", "services/helpers.py::<module>", graph.EdgeImports))
	assert.True(t, hasEdge(pf, "services/user_service.py::mu", "models/user.py::<module>", graph.EdgeImports))
	assert.True(t, hasEdge(pf, "services/user_service.py::<module>", "models/user.py::<module>", graph.EdgeImports))
	assert.True(t, hasEdge(pf, "services/user_service.py::<module>", "services/helpers.py::<module>", graph.EdgeImports))

	for _, e := range pf.Edges {
		assert.NotEqual(t, "services/user_service.py::os", e.Source, "external import has no edges")
	}
}

func TestPythonParser_ClassesAndCalls(t *testing.T) {
	t.Parallel()

	root := pythonProject(t)
	pf := extractFile(t, root, "services/user_service.py")

	class := requireSymbol(t, pf, "services/user_service.py::UserService", graph.KindClass)
	assert.True(t, class.Exported)
	assert.True(t, hasEdge(pf, "services/user_service.py::UserService", "models/user.py::User", graph.EdgeInherits))

	prop := requireSymbol(t, pf, "services/user_service.py::UserService.default_role", graph.KindProperty)
	assert.Equal(t, "UserService", prop.Scope)

	create := requireSymbol(t, pf, "services/user_service.py::UserService.create", graph.KindMethod)
	assert.True(t, create.Exported)

	assert.True(t, hasEdge(pf, "services/user_service.py::UserService.create", "models/user.py::User", graph.EdgeCalls))
	assert.True(t, hasEdge(pf, "services/user_service.py::UserService.create", "services/helpers.py::audit", graph.EdgeCalls))
	assert.True(t, hasEdge(pf, "services/user_service.py::UserService.create", "models/user.py::User", graph.EdgeTypeReferences))
	assert.True(t, hasEdge(pf, "services/user_service.py::login_required", "services/user_service.py::UserService.create", graph.EdgeDecorates))
	assert.True(t, hasEdge(pf, "services/user_service.py::main", "services/user_service.py::UserService", graph.EdgeCalls))

	constant := requireSymbol(t, pf, "services/user_service.py::MAX_USERS", graph.KindConstant)
	assert.True(t, constant.Exported)
	private := requireSymbol(t, pf, "services/user_service.py::_cache", graph.KindVariable)
	assert.True(t, private.Exported, "module-level bindings are all exported")

	_, ok := findSymbol(pf, "services/user_service.py::user")
	assert.False(t, ok, "function locals are not symbols")

	for _, e := range pf.Edges {
		assert.NotContains(t, e.Target, "::print")
		assert.NotContains(t, e.Target, "::str")
	}
}

func TestPythonParser_SelfReferences(t *testing.T) {
	t.Parallel()

	root := pythonProject(t)
	pf := extractFile(t, root, "models/user.py")

	requireSymbol(t, pf, "models/user.py::User", graph.KindClass)
	requireSymbol(t, pf, "models/user.py::User.__init__", graph.KindMethod)
	requireSymbol(t, pf, "models/user.py::User.name", graph.KindProperty)
	assert.True(t, hasEdge(pf, "models/user.py::User.save", "models/user.py::User.validate", graph.EdgeCalls))
}

func TestPythonParser_Deterministic(t *testing.T) {
	t.Parallel()

	root := pythonProject(t)
	first := extractFile(t, root, "services/user_service.py")
	second := extractFile(t, root, "services/user_service.py")
	require.Equal(t, first, second)
}
