package compiler

import (
	"github.com/mna/urbc/lang/ast"
	"github.com/mna/urbc/lang/cerr"
	"github.com/mna/urbc/lang/ir/lower"
)

// Dialect implements one module header's ( mod <dialect> ) syntax and
// semantics. The assembly and code dialects each register themselves via
// RegisterDialect in an init function, so this package never imports
// either of them directly (breaking what would otherwise be an import
// cycle: both dialects need the Module/Func/Static/CompileTask types
// defined here).
type Dialect interface {
	// Collect walks a freshly-parsed module's top-level forms (everything
	// after the (mod ...) header) and populates its Funcs/Statics/imports.
	// Bodies that reference other modules' names are left unresolved until
	// CompileModule.
	Collect(task *CompileTask, moduleIndex int, forms []ast.Node) *cerr.Error

	// CompileModule resolves imports and compiles every Func/Static body to
	// its Intermediary form.
	CompileModule(task *CompileTask, moduleIndex int) *cerr.Error

	// LookupCallable resolves a bare function name within the module to a
	// lower.Coord, for cross-module call sites and the assembly dialect's
	// single-identifier label-call form.
	LookupCallable(task *CompileTask, moduleIndex int, name string) (lower.Coord, bool)
}

// DialectFactory constructs a fresh Dialect instance for one Module. A
// factory, not a shared singleton, since assembly.Dialect and code.Dialect
// both carry no module-specific state of their own (all state lives on
// compiler.Module) but a factory keeps the door open for dialect-local
// caches without a retrofit.
type DialectFactory func() Dialect

var dialectRegistry = map[string]DialectFactory{}

// RegisterDialect makes a dialect available under name for (mod name)
// headers. Called from each dialect package's init function.
func RegisterDialect(name string, factory DialectFactory) {
	dialectRegistry[name] = factory
}
