// Package upper is the structured IR layer: AST-like Block/Stmnt/Expr/Cond
// trees produced by the code dialect, not yet flattened to coordinates.
package upper

import (
	"github.com/mna/urbc/lang/ir/destructure"
	"github.com/mna/urbc/lang/ir/lower"
	"github.com/mna/urbc/lang/token"
)

// Type is the closed set of surface types.
type Type uint8

const (
	TUnit Type = iota
	TInt
	TUInt
	TFloat
	TString
	TUnknown
)

// Var is a local variable slot declared by a Let statement or a function
// parameter.
type Var struct {
	Type Type
}

// Block is an ordered sequence of statements.
type Block struct {
	Span  token.Span
	Stmts []Stmnt
}

// StmntKind discriminates Stmnt.
type StmntKind uint8

const (
	SIf StmntKind = iota
	SWhile
	SFor // not implemented; rejected with InvalidStatement, see DESIGN.md open question 2
	SLet
	SReturn
	SAssign
	SCall
)

// Stmnt is a single statement in a Block.
type Stmnt struct {
	Kind  StmntKind
	Span  token.Span
	Cond  *Cond
	Block *Block
	Index int   // Let/Assign: variable slot
	Expr  *Expr // Let/Assign/Return (optional for Return)
	Coord lower.Coord
	Params []Expr
}

// ExprKind discriminates Expr.
type ExprKind uint8

const (
	EStatic ExprKind = iota
	EVariable
	EInt
	EUInt
	EFloat
	EString
	EAdd
	ESub
	EMul
	EDiv
	ERem
	EBitAnd
	EBitOr
	EBitXor
	EShiftLeft
	EShiftRight
	ESignedShiftRight
	EBitNot
	ECall
)

// Expr is an expression tree node.
type Expr struct {
	Kind  ExprKind
	Span  token.Span
	Coord lower.Coord
	Index int
	Int   int64
	UInt  uint64
	Float float64
	Str   string
	Left  *Expr
	Right *Expr
	Inner *Expr
	Params []Expr
}

// CondKind discriminates Cond.
type CondKind uint8

const (
	CEqual CondKind = iota
	CNotEqual
	CLess
	CGreater
	CLessEqual
	CGreaterEqual
	CNot
	CAnd
	COr
)

// Cond is a boolean condition tree, lowered with short-circuit branches by
// Expand (see ir/destructure).
type Cond struct {
	Kind  CondKind
	Span  token.Span
	Left  *Expr
	Right *Expr
	Inner *Cond // Not
	CLeft *Cond // And/Or
	CRight *Cond
}

// IsComparison reports whether c is an atomic comparison (not Not/And/Or).
func (c *Cond) IsComparison() bool {
	return c.Kind != CNot && c.Kind != CAnd && c.Kind != COr
}

// CompareType maps a comparison Cond to the destructure layer's CompareType.
type CompareType uint8

const (
	CmpEqual CompareType = iota
	CmpNotEqual
	CmpLess
	CmpGreater
	CmpLessEqual
	CmpGreaterEqual
)

func (c CompareType) Inverted() CompareType {
	switch c {
	case CmpEqual:
		return CmpNotEqual
	case CmpNotEqual:
		return CmpEqual
	case CmpLess:
		return CmpGreaterEqual
	case CmpGreater:
		return CmpLessEqual
	case CmpLessEqual:
		return CmpGreater
	case CmpGreaterEqual:
		return CmpLess
	default:
		panic("not a comparison")
	}
}

// CompareTypeOf returns the CompareType for a comparison Cond, panicking if
// c is not atomic (callers must check IsComparison first).
func CompareTypeOf(c *Cond) CompareType {
	switch c.Kind {
	case CEqual:
		return CmpEqual
	case CNotEqual:
		return CmpNotEqual
	case CLess:
		return CmpLess
	case CGreater:
		return CmpGreater
	case CLessEqual:
		return CmpLessEqual
	case CGreaterEqual:
		return CmpGreaterEqual
	default:
		panic("not a comparison")
	}
}

// NextCoord hints expand about which branch target coincides with the
// linearly-following instruction, letting it skip emitting a redundant
// jump (the "Compression" optimization in the original).
type NextCoord uint8

const (
	NextUnknown NextCoord = iota
	NextSuccess
	NextFailure
)

func (n NextCoord) inverted() NextCoord {
	switch n {
	case NextSuccess:
		return NextFailure
	case NextFailure:
		return NextSuccess
	default:
		return NextUnknown
	}
}

// Layer is a function body under construction: the variable slots declared
// so far (by Let statements and parameters) plus the statements themselves.
// Expand flattens it into a destructure.Layer.
type Layer struct {
	Vars []Var
	Body Block
}

// AddVar declares a new variable slot and returns its index.
func (l *Layer) AddVar(t Type) int {
	l.Vars = append(l.Vars, Var{Type: t})
	return len(l.Vars) - 1
}

func toVarType(t Type) destructure.VarType {
	switch t {
	case TInt:
		return destructure.VInt
	case TUInt:
		return destructure.VUInt
	case TFloat:
		return destructure.VFloat
	case TString:
		return destructure.VString
	case TUnit:
		return destructure.VUnit
	default:
		return destructure.VUnknown
	}
}

func toCmpType(c CompareType) destructure.CompareType {
	switch c {
	case CmpEqual:
		return destructure.CmpEqual
	case CmpNotEqual:
		return destructure.CmpNotEqual
	case CmpLess:
		return destructure.CmpLess
	case CmpGreater:
		return destructure.CmpGreater
	case CmpLessEqual:
		return destructure.CmpLessEqual
	case CmpGreaterEqual:
		return destructure.CmpGreaterEqual
	default:
		panic("unreachable")
	}
}

// toExpr converts an Expr tree to its destructure-layer equivalent. Call
// expressions used as a statement are expanded separately (see Stmnt.expand
// SCall); toExpr only handles expressions that produce a value inline.
func toExpr(e *Expr) destructure.Expr {
	switch e.Kind {
	case EVariable:
		return destructure.Expr{Kind: destructure.EVariable, Index: e.Index}
	case EInt:
		return destructure.Expr{Kind: destructure.EInt, Int: e.Int}
	case EUInt:
		return destructure.Expr{Kind: destructure.EUInt, UInt: e.UInt}
	case EFloat:
		return destructure.Expr{Kind: destructure.EFloat, Float: e.Float}
	case EString:
		return destructure.Expr{Kind: destructure.EString, Str: e.Str}
	case EStatic:
		return destructure.Expr{Kind: destructure.EStatic, Coord: e.Coord}
	case EBitNot:
		inner := toExpr(e.Inner)
		return destructure.Expr{Kind: destructure.EBitNot, Inner: &inner}
	default:
		left := toExpr(e.Left)
		right := toExpr(e.Right)
		return destructure.Expr{Kind: toBinExprKind(e.Kind), Left: &left, Right: &right}
	}
}

func toBinExprKind(k ExprKind) destructure.ExprKind {
	switch k {
	case EAdd:
		return destructure.EAdd
	case ESub:
		return destructure.ESub
	case EMul:
		return destructure.EMul
	case EDiv:
		return destructure.EDiv
	case ERem:
		return destructure.ERem
	case EBitAnd:
		return destructure.EBitAnd
	case EBitOr:
		return destructure.EBitOr
	case EBitXor:
		return destructure.EBitXor
	case EShiftLeft:
		return destructure.EShiftLeft
	case EShiftRight:
		return destructure.EShiftRight
	case ESignedShiftRight:
		return destructure.ESignedShiftRight
	default:
		panic("unreachable binary expr kind")
	}
}

// Expand flattens c into conditional/unconditional branches targeting
// success and failure, honoring next's fall-through hint to avoid emitting
// a redundant jump. Grounded on original_source's Cond::expand: Not swaps
// success/failure and inverts the hint; And/Or allocate one intermediate
// coordinate for the short-circuited branch and recurse.
func (c *Cond) Expand(layer *destructure.Layer, success, failure int, next NextCoord) {
	switch c.Kind {
	case CNot:
		c.Inner.Expand(layer, failure, success, next.inverted())
	case CAnd:
		mid := layer.AllocCoord()
		c.CLeft.Expand(layer, mid, failure, NextSuccess)
		layer.PutCoord(mid)
		c.CRight.Expand(layer, success, failure, next)
	case COr:
		mid := layer.AllocCoord()
		c.CLeft.Expand(layer, success, mid, NextFailure)
		layer.PutCoord(mid)
		c.CRight.Expand(layer, success, failure, next)
	default:
		cmp := toCmpType(CompareTypeOf(c))
		left := toExpr(c.Left)
		right := toExpr(c.Right)
		switch next {
		case NextSuccess:
			layer.BranchIf(failure, cmpInverted(cmp), left, right)
		case NextFailure:
			layer.BranchIf(success, cmp, left, right)
		default:
			layer.BranchIf(success, cmp, left, right)
			layer.Branch(failure)
		}
	}
}

func cmpInverted(c destructure.CompareType) destructure.CompareType {
	switch c {
	case destructure.CmpEqual:
		return destructure.CmpNotEqual
	case destructure.CmpNotEqual:
		return destructure.CmpEqual
	case destructure.CmpLess:
		return destructure.CmpGreaterEqual
	case destructure.CmpGreater:
		return destructure.CmpLessEqual
	case destructure.CmpLessEqual:
		return destructure.CmpGreater
	case destructure.CmpGreaterEqual:
		return destructure.CmpLess
	default:
		panic("unreachable")
	}
}

// Expand flattens every statement in b in order.
func (b *Block) Expand(layer *destructure.Layer) {
	for i := range b.Stmts {
		b.Stmts[i].expand(layer)
	}
}

func (s *Stmnt) expand(layer *destructure.Layer) {
	switch s.Kind {
	case SLet:
		expr := toExpr(s.Expr)
		layer.Let(s.Index, expr)
	case SAssign:
		expr := toExpr(s.Expr)
		layer.Assign(s.Index, expr)
	case SReturn:
		if s.Expr == nil {
			layer.Return(nil)
			return
		}
		expr := toExpr(s.Expr)
		layer.Return(&expr)
	case SCall:
		params := make([]destructure.Expr, len(s.Params))
		for i := range s.Params {
			params[i] = toExpr(&s.Params[i])
		}
		layer.Call(s.Coord, params)
	case SIf:
		success := layer.AllocCoord()
		end := layer.AllocCoord()
		s.Cond.Expand(layer, success, end, NextSuccess)
		layer.PutCoord(success)
		s.Block.Expand(layer)
		layer.PutCoord(end)
	case SWhile:
		cond := layer.AllocCoord()
		body := layer.AllocCoord()
		end := layer.AllocCoord()
		layer.Branch(cond)
		layer.PutCoord(body)
		s.Block.Expand(layer)
		layer.PutCoord(cond)
		s.Cond.Expand(layer, body, end, NextFailure)
		layer.PutCoord(end)
	default:
		panic("unsupported statement kind in expand")
	}
}

// Expand flattens the whole function body into a fresh destructure.Layer,
// seeding its variable slots from l.Vars first.
func (l *Layer) Expand() *destructure.Layer {
	dl := &destructure.Layer{}
	for _, v := range l.Vars {
		dl.AddVar(toVarType(v.Type))
	}
	l.Body.Expand(dl)
	return dl
}
