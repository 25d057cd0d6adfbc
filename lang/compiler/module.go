package compiler

import (
	"github.com/mna/urbc/lang/ast"
	"github.com/mna/urbc/lang/ir/lower"
)

// FuncData is the tagged variant of a Func's body, across the Collected ->
// Intermediary transition performed by Dialect.CompileModule.
type FuncData struct {
	// Collected holds the dialect-specific, not-yet-compiled body. Its
	// concrete shape (raw ast.Node children, for both dialects) is opaque to
	// the compiler package; only the owning Dialect interprets it.
	Collected []ast.Node

	// Intermediary holds the compiled Lower-IR body, present once
	// CompileModule has run.
	Intermediary *lower.Layer
}

// Func is a single function (assembly label or code fn) within a Module.
type Func struct {
	Name   string
	Public bool
	Params []Type
	Return Type
	Data   FuncData
	Used   bool
}

// StaticData mirrors FuncData for statics: a static's initializer is
// either still the raw AST (Collected) or fully resolved to bytes
// (Intermediary), depending on pipeline stage.
type StaticData struct {
	Collected    ast.Node
	Intermediary *lower.BinaryStatic
}

// Static is a single static value or buffer within a Module.
type Static struct {
	Name string
	Data StaticData
	Used bool
}

// Module is one source file's compiled state: its dialect, and the funcs
// and statics it declares, keyed by name for collection-time lookups and
// indexed by position for coordinate addressing (invariant M1 - Coord is
// (module index, element index)).
type Module struct {
	Name    string
	Dialect string

	dialect Dialect

	FuncIndices map[string]int
	Funcs       []Func

	StaticIndices map[string]int
	Statics       []Static

	// UnresolvedImports lists the (local-name, module-name) aliases declared
	// by (use ...) forms, resolved to Imports once every module has been
	// included.
	UnresolvedImports []Import
	Imports           map[string]int // local alias -> module index
}

// Import is a single (use modname [as alias]) declaration.
type Import struct {
	ModuleName string
	Alias      string
}

func newModule(name, dialectName string, dialect Dialect) *Module {
	return &Module{
		Name:          name,
		Dialect:       dialectName,
		dialect:       dialect,
		FuncIndices:   map[string]int{},
		StaticIndices: map[string]int{},
		Imports:       map[string]int{},
	}
}

// AddFunc registers a new function and returns its element index, or false
// if the name is already declared in this module.
func (m *Module) AddFunc(f Func) (int, bool) {
	if _, ok := m.FuncIndices[f.Name]; ok {
		return 0, false
	}
	idx := len(m.Funcs)
	m.FuncIndices[f.Name] = idx
	m.Funcs = append(m.Funcs, f)
	return idx, true
}

// AddStatic registers a new static and returns its element index, or false
// if the name is already declared in this module.
func (m *Module) AddStatic(s Static) (int, bool) {
	if _, ok := m.StaticIndices[s.Name]; ok {
		return 0, false
	}
	idx := len(m.Statics)
	m.StaticIndices[s.Name] = idx
	m.Statics = append(m.Statics, s)
	return idx, true
}
