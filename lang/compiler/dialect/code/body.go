package code

import (
	"github.com/mna/urbc/lang/ast"
	"github.com/mna/urbc/lang/cerr"
	"github.com/mna/urbc/lang/compiler"
	"github.com/mna/urbc/lang/ir/destructure"
	"github.com/mna/urbc/lang/ir/lower"
	"github.com/mna/urbc/lang/ir/upper"
	"github.com/mna/urbc/lang/token"
)

func compileStatic(mod *compiler.Module, node ast.Node) (*lower.BinaryStatic, *cerr.Error) {
	switch node.Kind {
	case token.Int:
		return &lower.BinaryStatic{Kind: lower.StaticInt, Int: node.Int}, nil
	case token.UInt:
		return &lower.BinaryStatic{Kind: lower.StaticUInt, UInt: node.UInt}, nil
	case token.Float:
		return &lower.BinaryStatic{Kind: lower.StaticFloat, Float: node.Float}, nil
	case token.String:
		return &lower.BinaryStatic{Kind: lower.StaticString, Str: node.Str}, nil
	}
	return nil, cerr.New(cerr.KindUnexpectedToken, "", "", node.Span)
}

func toUpperType(t compiler.Type) upper.Type {
	switch t {
	case compiler.TInt:
		return upper.TInt
	case compiler.TUInt:
		return upper.TUInt
	case compiler.TFloat:
		return upper.TFloat
	case compiler.TString:
		return upper.TString
	case compiler.TUnit:
		return upper.TUnit
	default:
		return upper.TUnknown
	}
}

// scope is a function's flat name -> variable-slot symbol table; this
// dialect has no nested block scoping (spec.md doesn't ask for shadowing).
type scope struct{ vars map[string]int }

func newScope() *scope { return &scope{vars: map[string]int{}} }

func (s *scope) declare(name string, index int) { s.vars[name] = index }

func (s *scope) lookup(name string) (int, bool) {
	idx, ok := s.vars[name]
	return idx, ok
}

// funcBuilder parses one function's body into an upper.Layer, resolving
// identifiers against its own parameter/let scope, then module statics,
// then callable functions.
type funcBuilder struct {
	task        *compiler.CompileTask
	moduleIndex int
	layer       *upper.Layer
	scope       *scope
}

// compileFunc parses fn's collected params/body into Upper IR, expands it
// through Destructure, and lowers it to a complete Lower-IR function body,
// prefixed with the argument-window-to-variable prologue its parameters
// need (see ir/destructure/lower.go's register-layout doc).
func compileFunc(task *compiler.CompileTask, moduleIndex int, fn *compiler.Func) (*lower.Layer, *cerr.Error) {
	paramsNode, body := fn.Data.Collected[0], fn.Data.Collected[1]

	layer := &upper.Layer{}
	sc := newScope()
	for i := 0; i < len(paramsNode.Children); i += 2 {
		name := paramsNode.Children[i].Ident[1:]
		t := fn.Params[i/2]
		idx := layer.AddVar(toUpperType(t))
		sc.declare(name, idx)
	}

	fb := &funcBuilder{task: task, moduleIndex: moduleIndex, layer: layer, scope: sc}
	block, cerrv := fb.parseBody(body)
	if cerrv != nil {
		return nil, cerrv
	}
	layer.Body = *block

	dlayer := layer.Expand()
	lowered, err := dlayer.Lower()
	if err != nil {
		return nil, cerr.New(cerr.KindInvalidRegister, "", "", body.Span).WithName(err.Error())
	}

	if len(fn.Params) > 0 {
		prologue := make([]lower.Op, 0, len(fn.Params))
		for i := range fn.Params {
			dst, src := destructure.VarReg(i), destructure.ArgReg(i)
			if dst != src {
				prologue = append(prologue, lower.Op{Kind: lower.OpMove, Dst: dst, Src: src})
			}
		}
		lowered.Ops = append(prologue, lowered.Ops...)
	}
	return lowered, nil
}

// parseBody parses a function's single top-level body node into a Block: a
// bare literal/identifier is shorthand for "return this value" (mirroring
// the assembly dialect's bare-body shorthand in labels.go); a Group is one
// statement, `(do s1 s2 ...)` being the only form that holds more than one.
func (fb *funcBuilder) parseBody(node ast.Node) (*upper.Block, *cerr.Error) {
	if !node.IsGroup() {
		expr, cerrv := fb.parseExpr(node)
		if cerrv != nil {
			return nil, cerrv
		}
		return &upper.Block{Span: node.Span, Stmts: []upper.Stmnt{{Kind: upper.SReturn, Span: node.Span, Expr: &expr}}}, nil
	}
	if len(node.Children) > 0 && node.Children[0].Kind == token.Ident && node.Children[0].Ident == "do" {
		stmts := make([]upper.Stmnt, 0, len(node.Children)-1)
		for _, child := range node.Children[1:] {
			s, cerrv := fb.parseStmnt(child)
			if cerrv != nil {
				return nil, cerrv
			}
			stmts = append(stmts, *s)
		}
		return &upper.Block{Span: node.Span, Stmts: stmts}, nil
	}
	s, cerrv := fb.parseStmnt(node)
	if cerrv != nil {
		return nil, cerrv
	}
	return &upper.Block{Span: node.Span, Stmts: []upper.Stmnt{*s}}, nil
}

// parseStmnt parses one statement Group: let/set/return/if/while, or a bare
// call `(name args...)`. `if` has no else arm (see DESIGN.md: upper.Stmnt
// carries a single Block, matching what Stmnt.expand actually implements).
func (fb *funcBuilder) parseStmnt(node ast.Node) (*upper.Stmnt, *cerr.Error) {
	if !node.IsGroup() || len(node.Children) == 0 || node.Children[0].Kind != token.Ident {
		return nil, cerr.New(cerr.KindInvalidStatement, "", "", node.Span)
	}
	kw := node.Children[0].Ident
	args := node.Children[1:]

	switch kw {
	case "let":
		if len(args) != 3 || args[0].Kind != token.Ident || args[1].Kind != token.Ident {
			return nil, cerr.New(cerr.KindInvalidStatement, "", "", node.Span)
		}
		t, ok := compiler.ParseType(args[1].Ident)
		if !ok {
			return nil, cerr.New(cerr.KindInvalidType, "", "", args[1].Span)
		}
		expr, cerrv := fb.parseExpr(args[2])
		if cerrv != nil {
			return nil, cerrv
		}
		idx := fb.layer.AddVar(toUpperType(t))
		fb.scope.declare(args[0].Ident, idx)
		return &upper.Stmnt{Kind: upper.SLet, Span: node.Span, Index: idx, Expr: &expr}, nil
	case "set":
		if len(args) != 2 || args[0].Kind != token.Ident {
			return nil, cerr.New(cerr.KindInvalidStatement, "", "", node.Span)
		}
		idx, ok := fb.scope.lookup(args[0].Ident)
		if !ok {
			return nil, cerr.New(cerr.KindUnknownStaticVariable, "", "", args[0].Span).WithName(args[0].Ident)
		}
		expr, cerrv := fb.parseExpr(args[1])
		if cerrv != nil {
			return nil, cerrv
		}
		return &upper.Stmnt{Kind: upper.SAssign, Span: node.Span, Index: idx, Expr: &expr}, nil
	case "return":
		if len(args) == 0 {
			return &upper.Stmnt{Kind: upper.SReturn, Span: node.Span}, nil
		}
		if len(args) != 1 {
			return nil, cerr.New(cerr.KindInvalidStatement, "", "", node.Span)
		}
		expr, cerrv := fb.parseExpr(args[0])
		if cerrv != nil {
			return nil, cerrv
		}
		return &upper.Stmnt{Kind: upper.SReturn, Span: node.Span, Expr: &expr}, nil
	case "if":
		if len(args) != 2 {
			return nil, cerr.New(cerr.KindInvalidStatement, "", "", node.Span)
		}
		cond, cerrv := fb.parseCond(args[0])
		if cerrv != nil {
			return nil, cerrv
		}
		block, cerrv := fb.parseBody(args[1])
		if cerrv != nil {
			return nil, cerrv
		}
		return &upper.Stmnt{Kind: upper.SIf, Span: node.Span, Cond: cond, Block: block}, nil
	case "while":
		if len(args) != 2 {
			return nil, cerr.New(cerr.KindInvalidStatement, "", "", node.Span)
		}
		cond, cerrv := fb.parseCond(args[0])
		if cerrv != nil {
			return nil, cerrv
		}
		block, cerrv := fb.parseBody(args[1])
		if cerrv != nil {
			return nil, cerrv
		}
		return &upper.Stmnt{Kind: upper.SWhile, Span: node.Span, Cond: cond, Block: block}, nil
	case "for":
		return nil, cerr.New(cerr.KindInvalidStatement, "", "", node.Span)
	default:
		return fb.parseCallStmnt(node, kw, args)
	}
}

// parseCallStmnt resolves kw as a call target (spec.md section 4.4: local
// labels/funcs first, then each import's lookup_callable in declaration
// order) and parses args as value expressions.
func (fb *funcBuilder) parseCallStmnt(node ast.Node, kw string, args []ast.Node) (*upper.Stmnt, *cerr.Error) {
	mod := fb.task.Modules[fb.moduleIndex]
	var coord lower.Coord
	var arity int
	if idx, ok := mod.FuncIndices[kw]; ok {
		coord = lower.Coord{Module: fb.moduleIndex, Element: idx}
		arity = len(mod.Funcs[idx].Params)
	} else {
		found := false
		for _, imp := range mod.UnresolvedImports {
			otherIdx, ok := mod.Imports[imp.Alias]
			if !ok {
				continue
			}
			c, ok := fb.task.LookupCallable(otherIdx, kw)
			if !ok {
				continue
			}
			coord = c
			arity = len(fb.task.Modules[otherIdx].Funcs[c.Element].Params)
			found = true
			break
		}
		if !found {
			return nil, cerr.New(cerr.KindUnknownFunc, "", "", node.Span).WithName(kw)
		}
	}
	if len(args) != arity {
		return nil, cerr.New(cerr.KindInvalidCallSignature, "", "", node.Span).WithName(kw)
	}
	params := make([]upper.Expr, len(args))
	for i, a := range args {
		e, cerrv := fb.parseExpr(a)
		if cerrv != nil {
			return nil, cerrv
		}
		params[i] = e
	}
	return &upper.Stmnt{Kind: upper.SCall, Span: node.Span, Coord: coord, Params: params}, nil
}

var binOps = map[string]upper.ExprKind{
	"+": upper.EAdd, "-": upper.ESub, "*": upper.EMul, "/": upper.EDiv, "%": upper.ERem,
	"&": upper.EBitAnd, "|": upper.EBitOr, "^": upper.EBitXor,
	"<<": upper.EShiftLeft, ">>": upper.EShiftRight, ">>>": upper.ESignedShiftRight,
}

// parseExpr parses a value expression: a literal, a variable/static
// identifier, a unary `(~ e)`, or a binary `(op left right)`.
func (fb *funcBuilder) parseExpr(node ast.Node) (upper.Expr, *cerr.Error) {
	switch node.Kind {
	case token.Int:
		return upper.Expr{Kind: upper.EInt, Span: node.Span, Int: node.Int}, nil
	case token.UInt:
		return upper.Expr{Kind: upper.EUInt, Span: node.Span, UInt: node.UInt}, nil
	case token.Float:
		return upper.Expr{Kind: upper.EFloat, Span: node.Span, Float: node.Float}, nil
	case token.String:
		return upper.Expr{Kind: upper.EString, Span: node.Span, Str: node.Str}, nil
	case token.Ident:
		if idx, ok := fb.scope.lookup(node.Ident); ok {
			return upper.Expr{Kind: upper.EVariable, Span: node.Span, Index: idx}, nil
		}
		mod := fb.task.Modules[fb.moduleIndex]
		if idx, ok := mod.StaticIndices[node.Ident]; ok {
			return upper.Expr{Kind: upper.EStatic, Span: node.Span, Coord: lower.Coord{Module: fb.moduleIndex, Element: idx}}, nil
		}
		return upper.Expr{}, cerr.New(cerr.KindUnknownStaticVariable, "", "", node.Span).WithName(node.Ident)
	}

	if !node.IsGroup() || len(node.Children) == 0 || node.Children[0].Kind != token.Ident {
		return upper.Expr{}, cerr.New(cerr.KindUnexpectedToken, "", "", node.Span)
	}
	kw := node.Children[0].Ident
	args := node.Children[1:]
	if kw == "~" {
		if len(args) != 1 {
			return upper.Expr{}, cerr.New(cerr.KindInvalidStatement, "", "", node.Span)
		}
		inner, cerrv := fb.parseExpr(args[0])
		if cerrv != nil {
			return upper.Expr{}, cerrv
		}
		return upper.Expr{Kind: upper.EBitNot, Span: node.Span, Inner: &inner}, nil
	}
	kind, ok := binOps[kw]
	if !ok {
		return upper.Expr{}, cerr.New(cerr.KindInvalidKeyword, "", "", node.Children[0].Span).WithName(kw)
	}
	if len(args) != 2 {
		return upper.Expr{}, cerr.New(cerr.KindInvalidStatement, "", "", node.Span)
	}
	left, cerrv := fb.parseExpr(args[0])
	if cerrv != nil {
		return upper.Expr{}, cerrv
	}
	right, cerrv := fb.parseExpr(args[1])
	if cerrv != nil {
		return upper.Expr{}, cerrv
	}
	return upper.Expr{Kind: kind, Span: node.Span, Left: &left, Right: &right}, nil
}

var cmpOps = map[string]upper.CondKind{
	"=": upper.CEqual, "!=": upper.CNotEqual,
	"<": upper.CLess, ">": upper.CGreater, "<=": upper.CLessEqual, ">=": upper.CGreaterEqual,
}

// parseCond parses a boolean condition: a comparison `(op left right)`, or
// `(not c)` / `(and c1 c2)` / `(or c1 c2)` combining other conditions.
func (fb *funcBuilder) parseCond(node ast.Node) (*upper.Cond, *cerr.Error) {
	if !node.IsGroup() || len(node.Children) == 0 || node.Children[0].Kind != token.Ident {
		return nil, cerr.New(cerr.KindInvalidCondition, "", "", node.Span)
	}
	kw := node.Children[0].Ident
	args := node.Children[1:]

	switch kw {
	case "not":
		if len(args) != 1 {
			return nil, cerr.New(cerr.KindInvalidCondition, "", "", node.Span)
		}
		inner, cerrv := fb.parseCond(args[0])
		if cerrv != nil {
			return nil, cerrv
		}
		return &upper.Cond{Kind: upper.CNot, Span: node.Span, Inner: inner}, nil
	case "and", "or":
		if len(args) != 2 {
			return nil, cerr.New(cerr.KindInvalidCondition, "", "", node.Span)
		}
		left, cerrv := fb.parseCond(args[0])
		if cerrv != nil {
			return nil, cerrv
		}
		right, cerrv := fb.parseCond(args[1])
		if cerrv != nil {
			return nil, cerrv
		}
		k := upper.CAnd
		if kw == "or" {
			k = upper.COr
		}
		return &upper.Cond{Kind: k, Span: node.Span, CLeft: left, CRight: right}, nil
	}

	k, ok := cmpOps[kw]
	if !ok {
		return nil, cerr.New(cerr.KindInvalidCondition, "", "", node.Children[0].Span).WithName(kw)
	}
	if len(args) != 2 {
		return nil, cerr.New(cerr.KindInvalidCondition, "", "", node.Span)
	}
	left, cerrv := fb.parseExpr(args[0])
	if cerrv != nil {
		return nil, cerrv
	}
	right, cerrv := fb.parseExpr(args[1])
	if cerrv != nil {
		return nil, cerrv
	}
	return &upper.Cond{Kind: k, Span: node.Span, Left: &left, Right: &right}, nil
}
