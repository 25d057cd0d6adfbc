package assembly

import (
	"github.com/mna/urbc/lang/ast"
	"github.com/mna/urbc/lang/cerr"
	"github.com/mna/urbc/lang/compiler"
	"github.com/mna/urbc/lang/ir/lower"
	"github.com/mna/urbc/lang/token"
)

// macro is a dialect-level expansion taking the whole form node (including
// its leading keyword child), distinct from insnMacros' fixed-shape
// instruction table. Grounded on original_source's macros.rs, which has a
// single lea/ref pair of forms in the kept source.
type macro func(task *compiler.CompileTask, moduleIndex int, b *builder, node ast.Node) *cerr.Error

var macros = map[string]macro{
	"lea": compileLea,
	"ref": compileLea,
}

// compileLea implements (lea dst staticname) / (ref dst staticname): load
// the address of a module-level static into dst, resolved against the
// owning module's Statics table.
func compileLea(task *compiler.CompileTask, moduleIndex int, b *builder, node ast.Node) *cerr.Error {
	if len(node.Children) != 3 {
		return cerr.New(cerr.KindInvalidParams, "", "", node.Span)
	}
	dst, cerrv := parseReg(node.Children[1])
	if cerrv != nil {
		return cerrv
	}
	nameNode := node.Children[2]
	if nameNode.Kind != token.Ident {
		return cerr.New(cerr.KindInvalidType, "", "", nameNode.Span)
	}
	mod := task.Modules[moduleIndex]
	idx, ok := mod.StaticIndices[nameNode.Ident]
	if !ok {
		return cerr.New(cerr.KindUnknownStaticVariable, "", "", nameNode.Span).WithName(nameNode.Ident)
	}
	b.emit(lower.Op{Kind: lower.OpLoadStaticAddress, Dst: dst, Coord: lower.Coord{Module: moduleIndex, Element: idx}})
	return nil
}
