package assembly

import (
	"strconv"
	"strings"

	"github.com/mna/urbc/lang/ast"
	"github.com/mna/urbc/lang/cerr"
	"github.com/mna/urbc/lang/compiler"
	"github.com/mna/urbc/lang/ir/lower"
	"github.com/mna/urbc/lang/token"
)

// returnReg is the fixed register convention for a label's return value:
// a bare-literal or bare-identifier label body loads into r0 and returns.
var returnReg = lower.MustReg(0)

// immediateBits is the width of the movi/movsi immediate field, checked
// here before a literal label body falls back to a spilled local, matching
// the 22-bit fits-check in original_source's compile_label.
const immediateBits = 22

func fitsSigned(v int64, bits uint) bool {
	min := -(int64(1) << (bits - 1))
	max := int64(1)<<(bits-1) - 1
	return v >= min && v <= max
}

func fitsUnsigned(v uint64, bits uint) bool {
	return v < uint64(1)<<bits
}

// builder accumulates a Lower-IR function body and its own layer-local
// branch coordinates, since the assembly dialect emits Lower IR directly
// (it never goes through ir/upper or ir/destructure).
type builder struct {
	layer   *lower.Layer
	coordN  int
}

func newBuilder() *builder { return &builder{layer: &lower.Layer{}} }

func (b *builder) allocCoord() int {
	c := b.coordN
	b.coordN++
	return c
}

func (b *builder) putCoord(c int) {
	b.layer.Ops = append(b.layer.Ops, lower.Op{Kind: lower.OpPutCoord, BranchCoord: c})
}

func (b *builder) branch(c int) {
	b.layer.Ops = append(b.layer.Ops, lower.Op{Kind: lower.OpBranchCoord, BranchCoord: c})
}

func (b *builder) branchIf(kind lower.Kind, reg lower.Reg, c int) {
	b.layer.Ops = append(b.layer.Ops, lower.Op{Kind: kind, Lhs: reg, BranchCoord: c})
}

func (b *builder) emit(op lower.Op) { b.layer.Ops = append(b.layer.Ops, op) }

func (b *builder) addLocal(s lower.BinaryStatic) int {
	b.layer.Locals = append(b.layer.Locals, s)
	return len(b.layer.Locals) - 1
}

// compileLabel compiles a single label's body node to a complete
// lower.Layer. A bare scalar or identifier body is shorthand for "load
// this value and return it"; a Group body is a full statement/instruction
// form (see compileLabelNode).
func compileLabel(task *compiler.CompileTask, moduleIndex int, body ast.Node) (*lower.Layer, *cerr.Error) {
	b := newBuilder()
	mod := task.Modules[moduleIndex]

	switch body.Kind {
	case token.Ident:
		idx, ok := mod.StaticIndices[body.Ident]
		if !ok {
			return nil, cerr.New(cerr.KindUnknownStaticVariable, "", "", body.Span).WithName(body.Ident)
		}
		b.emit(lower.Op{Kind: lower.OpLoadStatic64, Dst: returnReg, Coord: lower.Coord{Module: moduleIndex, Element: idx}})
		b.emit(lower.Op{Kind: lower.OpReturn})
		return b.layer, nil
	case token.Int:
		if fitsSigned(body.Int, immediateBits) {
			b.emit(lower.Op{Kind: lower.OpMoveSignedImmediate, Dst: returnReg, ImmI: int32(body.Int)})
		} else {
			local := b.addLocal(lower.BinaryStatic{Kind: lower.StaticInt, Int: body.Int})
			b.emit(lower.Op{Kind: lower.OpLoadLocalStatic64, Dst: returnReg, LocalCoord: local})
		}
		b.emit(lower.Op{Kind: lower.OpReturn})
		return b.layer, nil
	case token.UInt:
		if fitsUnsigned(body.UInt, immediateBits) {
			b.emit(lower.Op{Kind: lower.OpMoveImmediate, Dst: returnReg, ImmU: uint32(body.UInt)})
		} else {
			local := b.addLocal(lower.BinaryStatic{Kind: lower.StaticUInt, UInt: body.UInt})
			b.emit(lower.Op{Kind: lower.OpLoadLocalStatic64, Dst: returnReg, LocalCoord: local})
		}
		b.emit(lower.Op{Kind: lower.OpReturn})
		return b.layer, nil
	case token.Float:
		if body.Float == 0.0 {
			b.emit(lower.Op{Kind: lower.OpMoveImmediate, Dst: returnReg, ImmU: 0})
		} else {
			local := b.addLocal(lower.BinaryStatic{Kind: lower.StaticFloat, Float: body.Float})
			b.emit(lower.Op{Kind: lower.OpLoadLocalStatic64, Dst: returnReg, LocalCoord: local})
		}
		b.emit(lower.Op{Kind: lower.OpReturn})
		return b.layer, nil
	case token.String:
		local := b.addLocal(lower.BinaryStatic{Kind: lower.StaticString, Str: body.Str})
		b.emit(lower.Op{Kind: lower.OpLoadLocalStaticAddress, Dst: returnReg, LocalCoord: local})
		b.emit(lower.Op{Kind: lower.OpReturn})
		return b.layer, nil
	}

	if cerrv := compileLabelNode(task, moduleIndex, b, body); cerrv != nil {
		return nil, cerrv
	}
	return b.layer, nil
}

// compileLabelNode compiles one Group form: do/if/while/do-while, a
// lea/ref macro, a direct instruction mnemonic, or a call.
func compileLabelNode(task *compiler.CompileTask, moduleIndex int, b *builder, node ast.Node) *cerr.Error {
	if !node.IsGroup() || len(node.Children) == 0 || node.Children[0].Kind != token.Ident {
		return cerr.New(cerr.KindInvalidStatement, "", "", node.Span)
	}
	kw := node.Children[0].Ident
	args := node.Children[1:]

	switch kw {
	case "do":
		for _, stmt := range args {
			if !stmt.IsGroup() {
				return cerr.New(cerr.KindInvalidStatement, "", "", stmt.Span)
			}
			if cerrv := compileLabelNode(task, moduleIndex, b, stmt); cerrv != nil {
				return cerrv
			}
		}
		return nil
	case "if":
		return compileIf(task, moduleIndex, b, node, args)
	case "while":
		return compileWhile(task, moduleIndex, b, node, args)
	case "do-while":
		return compileDoWhile(task, moduleIndex, b, node, args)
	}

	if macro, ok := macros[kw]; ok {
		return macro(task, moduleIndex, b, node)
	}
	if tmpl, ok := insnMacros[kw]; ok {
		return tmpl.compile(b, node)
	}
	return compileCall(task, moduleIndex, b, node, kw, args)
}

func parseReg(node ast.Node) (lower.Reg, *cerr.Error) {
	if node.Kind != token.Ident || len(node.Ident) < 2 {
		return lower.Reg{}, cerr.New(cerr.KindInvalidRegister, "", "", node.Span)
	}
	c := node.Ident[0]
	if c != 'r' && c != 'R' {
		return lower.Reg{}, cerr.New(cerr.KindInvalidRegister, "", "", node.Span)
	}
	n, err := strconv.Atoi(node.Ident[1:])
	if err != nil {
		return lower.Reg{}, cerr.New(cerr.KindInvalidRegister, "", "", node.Span)
	}
	reg, ok := lower.NewReg(n)
	if !ok {
		return lower.Reg{}, cerr.New(cerr.KindInvalidRegister, "", "", node.Span)
	}
	return reg, nil
}

func condKind(tok string, inverted bool) (lower.Kind, *cerr.Error) {
	type pair struct{ normal, inv lower.Kind }
	table := map[string]pair{
		"=":   {lower.OpBranchCoordEqual, lower.OpBranchCoordNonEqual},
		"!=":  {lower.OpBranchCoordNonEqual, lower.OpBranchCoordEqual},
		"<":   {lower.OpBranchCoordLess, lower.OpBranchCoordGreaterEqual},
		">":   {lower.OpBranchCoordGreater, lower.OpBranchCoordLessEqual},
		"<=":  {lower.OpBranchCoordLessEqual, lower.OpBranchCoordGreater},
		">=":  {lower.OpBranchCoordGreaterEqual, lower.OpBranchCoordLess},
		"!0":  {lower.OpBranchCoordIfNonZero, lower.OpBranchCoordIfZero},
		"=0":  {lower.OpBranchCoordIfZero, lower.OpBranchCoordIfNonZero},
	}
	p, ok := table[tok]
	if !ok {
		return 0, cerr.New(cerr.KindInvalidCondition, "", "", token.Span{})
	}
	if inverted {
		return p.inv, nil
	}
	return p.normal, nil
}

func compileIf(task *compiler.CompileTask, moduleIndex int, b *builder, node ast.Node, args []ast.Node) *cerr.Error {
	if len(args) != 3 && len(args) != 4 {
		return cerr.New(cerr.KindInvalidStatement, "", "", node.Span)
	}
	kind, cerrv := condKind(args[0].Ident, true)
	if cerrv != nil {
		cerrv.Span = args[0].Span
		return cerrv
	}
	reg, cerrv := parseReg(args[1])
	if cerrv != nil {
		return cerrv
	}
	end := b.allocCoord()
	b.branchIf(kind, reg, end)
	if cerrv := compileLabelNode(task, moduleIndex, b, args[2]); cerrv != nil {
		return cerrv
	}
	if len(args) == 4 {
		after := b.allocCoord()
		b.branch(after)
		b.putCoord(end)
		if cerrv := compileLabelNode(task, moduleIndex, b, args[3]); cerrv != nil {
			return cerrv
		}
		b.putCoord(after)
	} else {
		b.putCoord(end)
	}
	return nil
}

func compileWhile(task *compiler.CompileTask, moduleIndex int, b *builder, node ast.Node, args []ast.Node) *cerr.Error {
	if len(args) != 3 {
		return cerr.New(cerr.KindInvalidStatement, "", "", node.Span)
	}
	kind, cerrv := condKind(args[0].Ident, false)
	if cerrv != nil {
		cerrv.Span = args[0].Span
		return cerrv
	}
	reg, cerrv := parseReg(args[1])
	if cerrv != nil {
		return cerrv
	}
	cond := b.allocCoord()
	pos := b.allocCoord()
	b.branch(cond)
	b.putCoord(pos)
	if cerrv := compileLabelNode(task, moduleIndex, b, args[2]); cerrv != nil {
		return cerrv
	}
	b.putCoord(cond)
	b.branchIf(kind, reg, pos)
	return nil
}

func compileDoWhile(task *compiler.CompileTask, moduleIndex int, b *builder, node ast.Node, args []ast.Node) *cerr.Error {
	if len(args) != 3 {
		return cerr.New(cerr.KindInvalidStatement, "", "", node.Span)
	}
	pos := b.allocCoord()
	b.putCoord(pos)
	if cerrv := compileLabelNode(task, moduleIndex, b, args[0]); cerrv != nil {
		return cerrv
	}
	kind, cerrv := condKind(args[1].Ident, false)
	if cerrv != nil {
		cerrv.Span = args[1].Span
		return cerrv
	}
	reg, cerrv := parseReg(args[2])
	if cerrv != nil {
		return cerrv
	}
	b.branchIf(kind, reg, pos)
	return nil
}

// compileCall handles a bare label call (same module) or a
// "modalias/funcname" cross-module call.
func compileCall(task *compiler.CompileTask, moduleIndex int, b *builder, node ast.Node, kw string, args []ast.Node) *cerr.Error {
	if len(args) != 0 {
		return cerr.New(cerr.KindInvalidStatement, "", "", node.Span)
	}
	if idx := strings.IndexByte(kw, '/'); idx >= 0 {
		alias, fname := kw[:idx], kw[idx+1:]
		mod := task.Modules[moduleIndex]
		otherIdx, ok := mod.Imports[alias]
		if !ok {
			return cerr.New(cerr.KindUnknownModule, "", "", node.Span).WithName(alias)
		}
		other := task.Modules[otherIdx]
		fnIdx, ok := other.FuncIndices[fname]
		if !ok {
			return cerr.New(cerr.KindUnknownFunc, "", "", node.Span).WithName(fname)
		}
		b.emit(lower.Op{Kind: lower.OpCall, Coord: lower.Coord{Module: otherIdx, Element: fnIdx}})
		return nil
	}
	coord, ok := Dialect{}.LookupCallable(task, moduleIndex, kw)
	if !ok {
		return cerr.New(cerr.KindUnknownFunc, "", "", node.Span).WithName(kw)
	}
	b.emit(lower.Op{Kind: lower.OpCall, Coord: coord})
	return nil
}
