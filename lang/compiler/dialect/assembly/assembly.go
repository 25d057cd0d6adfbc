// Package assembly implements the "assembly" module dialect: a thin,
// direct textual notation for the Lower IR, addressed by named labels and
// statics rather than raw coordinates. Grounded on original_source's
// crates/compiler/src/compiler/dialect/assembly/{mod,insns,macros,
// static_funcs}.rs.
package assembly

import (
	"github.com/mna/urbc/lang/ast"
	"github.com/mna/urbc/lang/cerr"
	"github.com/mna/urbc/lang/compiler"
	"github.com/mna/urbc/lang/ir/lower"
	"github.com/mna/urbc/lang/token"
)

func init() {
	compiler.RegisterDialect("assembly", func() compiler.Dialect { return Dialect{} })
}

// Dialect is stateless; every collected/compiled form lives directly on
// the owning compiler.Module.
type Dialect struct{}

// Collect walks the module's top-level forms: (use ...), (static ...),
// (+label ...) and (-label ...).
func (Dialect) Collect(task *compiler.CompileTask, moduleIndex int, forms []ast.Node) *cerr.Error {
	mod := task.Modules[moduleIndex]
	for _, form := range forms {
		if !form.IsGroup() || len(form.Children) == 0 || form.Children[0].Kind != token.Ident {
			return cerr.New(cerr.KindUnexpectedToken, "", "", form.Span)
		}
		kw := form.Children[0].Ident
		switch kw {
		case "use":
			if cerrv := collectUse(mod, form); cerrv != nil {
				return cerrv
			}
		case "static":
			if cerrv := collectStatic(mod, form); cerrv != nil {
				return cerrv
			}
		case "+label", "-label":
			if cerrv := collectLabel(mod, form, kw == "+label"); cerrv != nil {
				return cerrv
			}
		default:
			return cerr.New(cerr.KindInvalidKeyword, "", "", form.Children[0].Span).WithName(kw)
		}
	}
	return nil
}

func collectUse(mod *compiler.Module, form ast.Node) *cerr.Error {
	if len(form.Children) < 2 {
		return cerr.New(cerr.KindEmptyNode, "", "", form.Span)
	}
	name := form.Children[1].Ident
	alias := name
	if len(form.Children) >= 4 && form.Children[2].Ident == "as" {
		alias = form.Children[3].Ident
	}
	for _, imp := range mod.UnresolvedImports {
		if imp.Alias == alias {
			return cerr.New(cerr.KindDuplicateImport, "", "", form.Span).WithName(alias)
		}
	}
	mod.UnresolvedImports = append(mod.UnresolvedImports, compiler.Import{ModuleName: name, Alias: alias})
	return nil
}

func collectStatic(mod *compiler.Module, form ast.Node) *cerr.Error {
	if len(form.Children) != 3 {
		return cerr.New(cerr.KindEmptyNode, "", "", form.Span)
	}
	name := form.Children[1].Ident
	if _, ok := mod.AddStatic(compiler.Static{Name: name, Data: compiler.StaticData{Collected: form.Children[2]}}); !ok {
		return cerr.New(cerr.KindDuplicateName, "", "", form.Span).WithName(name)
	}
	return nil
}

func collectLabel(mod *compiler.Module, form ast.Node, public bool) *cerr.Error {
	if len(form.Children) != 3 {
		return cerr.New(cerr.KindEmptyNode, "", "", form.Span)
	}
	name := form.Children[1].Ident
	body := form.Children[2]
	if _, ok := mod.AddFunc(compiler.Func{Name: name, Public: public, Data: compiler.FuncData{Collected: []ast.Node{body}}}); !ok {
		return cerr.New(cerr.KindDuplicateName, "", "", form.Span).WithName(name)
	}
	return nil
}

// CompileModule resolves imports, then compiles every static and label.
func (d Dialect) CompileModule(task *compiler.CompileTask, moduleIndex int) *cerr.Error {
	mod := task.Modules[moduleIndex]
	if cerrv := resolveImports(task, moduleIndex); cerrv != nil {
		return cerrv
	}
	for i := range mod.Statics {
		st := &mod.Statics[i]
		value, cerrv := compileStatic(mod, st.Data.Collected)
		if cerrv != nil {
			return cerrv
		}
		st.Data.Intermediary = value
	}
	for i := range mod.Funcs {
		fn := &mod.Funcs[i]
		layer, cerrv := compileLabel(task, moduleIndex, fn.Data.Collected[0])
		if cerrv != nil {
			return cerrv
		}
		fn.Data.Intermediary = layer
	}
	return nil
}

func resolveImports(task *compiler.CompileTask, moduleIndex int) *cerr.Error {
	mod := task.Modules[moduleIndex]
	for _, imp := range mod.UnresolvedImports {
		if imp.ModuleName == mod.Name {
			return cerr.New(cerr.KindSelfImport, "", "", token.Span{}).WithName(imp.ModuleName)
		}
		idx, ok := task.ModuleIndex(imp.ModuleName)
		if !ok {
			return cerr.New(cerr.KindUnknownModule, "", "", token.Span{}).WithName(imp.ModuleName)
		}
		mod.Imports[imp.Alias] = idx
	}
	return nil
}

// LookupCallable resolves a bare function name to a Coord: first as a
// label in this module, then (for the assembly dialect, single-identifier
// calls only) failing with UnknownFunc — cross-module calls go through
// `modname/funcname` instead, handled in insns.go's call-site parsing.
func (d Dialect) LookupCallable(task *compiler.CompileTask, moduleIndex int, name string) (lower.Coord, bool) {
	mod := task.Modules[moduleIndex]
	idx, ok := mod.FuncIndices[name]
	if !ok {
		return lower.Coord{}, false
	}
	return lower.Coord{Module: moduleIndex, Element: idx}, true
}
