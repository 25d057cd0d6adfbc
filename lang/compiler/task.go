package compiler

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dolthub/swiss"

	"github.com/mna/urbc/lang/ast"
	"github.com/mna/urbc/lang/cerr"
	"github.com/mna/urbc/lang/ir/lower"
	"github.com/mna/urbc/lang/scanner"
	"github.com/mna/urbc/lang/token"
)

// CompileTask drives one multi-module build from source text to a
// reachability-filtered set of compiled modules, ready for lang/asm.
// Module names are interned in a swiss.Map since a build commonly touches
// dozens of modules and every cross-module reference (use, call) resolves
// through this table.
type CompileTask struct {
	moduleIndices *swiss.Map[string, int]
	Modules       []*Module
	Status        Status
	Main          *lower.Coord
}

// NewCompileTask returns an empty, Open task.
func NewCompileTask() *CompileTask {
	return &CompileTask{moduleIndices: swiss.NewMap[string, int](8)}
}

// ModuleIndex returns the index of the named module, if included.
func (t *CompileTask) ModuleIndex(name string) (int, bool) {
	return t.moduleIndices.Get(name)
}

// LookupCallable asks moduleIndex's own dialect to resolve name to a
// callable Coord, for a cross-module call site (spec.md section 4.4:
// "iterate imports in declaration order and ask each dialect
// lookup_callable(name); use the first match that returns a public
// index").
func (t *CompileTask) LookupCallable(moduleIndex int, name string) (lower.Coord, bool) {
	c, ok := t.Modules[moduleIndex].dialect.LookupCallable(t, moduleIndex, name)
	if !ok || !t.Modules[c.Module].Funcs[c.Element].Public {
		return lower.Coord{}, false
	}
	return c, true
}

func moduleNameFor(file string) string {
	base := filepath.Base(file)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Include scans, parses and collects one module's source text. The module
// name is derived from file's basename (without extension); re-including
// the same name is a DuplicateModule error.
func (t *CompileTask) Include(file, src string) *cerr.Error {
	if t.Status != StatusOpen {
		panic(fmt.Sprintf("compiler: Include called in status %s, want open", t.Status))
	}
	t.Status = StatusInvalid
	cerrv := t.include(file, src)
	if cerrv != nil {
		t.Status = StatusOpen
		return cerrv
	}
	t.Status = StatusOpen
	return nil
}

func (t *CompileTask) include(file, src string) *cerr.Error {
	name := moduleNameFor(file)
	if _, ok := t.moduleIndices.Get(name); ok {
		return cerr.New(cerr.KindDuplicateModule, file, src, token.Span{}).WithName(name)
	}

	toks, serr := scanner.Scan(file, src)
	if serr != nil {
		return serr
	}
	nodes, aerr := ast.Build(file, toks)
	if aerr != nil {
		return aerr
	}
	if len(nodes) == 0 {
		return cerr.New(cerr.KindEmptyModule, file, src, token.Span{})
	}

	header := nodes[0]
	dialectName, herr := parseModuleHeader(file, src, header)
	if herr != nil {
		return herr
	}
	factory, ok := dialectRegistry[dialectName]
	if !ok {
		return cerr.New(cerr.KindUnknownModuleDialect, file, src, header.Children[1].Span).WithName(dialectName)
	}

	mod := newModule(name, dialectName, factory())
	idx := len(t.Modules)
	t.Modules = append(t.Modules, mod)
	t.moduleIndices.Put(name, idx)

	if cerrv := mod.dialect.Collect(t, idx, nodes[1:]); cerrv != nil {
		t.Modules = t.Modules[:idx]
		t.moduleIndices.Delete(name)
		return cerrv
	}
	return nil
}

func parseModuleHeader(file, src string, header ast.Node) (string, *cerr.Error) {
	if !header.IsGroup() || header.Bracket != token.Round || len(header.Children) != 2 {
		return "", cerr.New(cerr.KindInvalidModuleDeclaration, file, src, header.Span)
	}
	kw, dialect := header.Children[0], header.Children[1]
	if kw.Kind != token.Ident || kw.Ident != "mod" || dialect.Kind != token.Ident {
		return "", cerr.New(cerr.KindInvalidModuleDeclaration, file, src, header.Span)
	}
	return dialect.Ident, nil
}

// Compile runs every included module's Dialect.CompileModule, in inclusion
// order. The first error aborts the whole task.
func (t *CompileTask) Compile() *cerr.Error {
	if t.Status != StatusOpen {
		panic(fmt.Sprintf("compiler: Compile called in status %s, want open", t.Status))
	}
	t.Status = StatusInvalid
	for idx, mod := range t.Modules {
		if cerrv := mod.dialect.CompileModule(t, idx); cerrv != nil {
			return cerrv
		}
	}
	if err := t.resolveMain(); err != nil {
		return err
	}
	t.Status = StatusCompiled
	return nil
}

func (t *CompileTask) resolveMain() *cerr.Error {
	idx, ok := t.moduleIndices.Get("main")
	if !ok {
		return cerr.New(cerr.KindNoMainFound, "", "", token.Span{})
	}
	mod := t.Modules[idx]
	fnIdx, ok := mod.FuncIndices["main"]
	if !ok {
		return cerr.New(cerr.KindNoMainFound, "", "", token.Span{})
	}
	t.Main = &lower.Coord{Module: idx, Element: fnIdx}
	return nil
}

// LookupModule resolves name either as a module's own local alias (from a
// use form) or, failing that, as a top-level module name; this mirrors
// original_source's lookup_callable fallback chain.
func (t *CompileTask) LookupModule(fromModule int, name string) (int, bool) {
	mod := t.Modules[fromModule]
	if idx, ok := mod.Imports[name]; ok {
		return idx, true
	}
	return t.moduleIndices.Get(name)
}
