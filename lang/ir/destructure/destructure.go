// Package destructure is the middle IR layer: it flattens upper.Block trees
// into a linear sequence of Op carrying layer-local branch coordinates
// (allocated and bound within a single function), still expressed in terms
// of variable slots and expression trees rather than physical registers.
package destructure

import "github.com/mna/urbc/lang/ir/lower"

// CompareType mirrors upper.CompareType; duplicated here (rather than
// imported) so this package has no dependency on upper, matching the
// layering in original_source (destructure.rs does not import upper.rs).
type CompareType uint8

const (
	CmpEqual CompareType = iota
	CmpNotEqual
	CmpLess
	CmpGreater
	CmpLessEqual
	CmpGreaterEqual
)

// ExprKind mirrors upper.ExprKind's non-Call, non-Variable-reference shape
// once statics/constants/arithmetic have been resolved; Call is kept as a
// first-class Op instead of an Expr since it may have side effects and
// multiple params.
type ExprKind uint8

const (
	EVariable ExprKind = iota
	EInt
	EUInt
	EFloat
	EString
	EStatic
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
)

// Expr is an expression tree node at the destructure layer.
type Expr struct {
	Kind  ExprKind
	Index int
	Int   int64
	UInt  uint64
	Float float64
	Str   string
	Coord lower.Coord
	Left  *Expr
	Right *Expr
	Inner *Expr
}

// OpKind discriminates Op.
type OpKind uint8

const (
	OpPutCoord OpKind = iota
	OpBranchCoord
	OpBranchCoordIf
	OpLet
	OpReturn
	OpAssign
	OpCall
)

// Op is a single destructure-layer instruction.
type Op struct {
	Kind OpKind

	Coord int // PutCoord/BranchCoord/BranchCoordIf: layer-local coordinate id

	Cmp   CompareType // BranchCoordIf
	Left  Expr        // BranchCoordIf
	Right Expr        // BranchCoordIf

	Index int   // Let/Assign: variable slot
	Expr  *Expr // Let/Assign/Return (nil for bare return)

	Call   lower.Coord
	Params []Expr
}

// Layer accumulates Op for a single function body, allocating layer-local
// branch coordinates as it goes. Grounded on original_source's
// DestructureLayer (coord_index, vars, ops): coord allocation is a simple
// monotonic counter, bound to a position in Ops only when PutCoord is
// emitted (invariant M5).
type Layer struct {
	coordIndex int
	Vars       []Var
	Ops        []Op
}

// Var is a destructure-layer local variable slot.
type Var struct {
	Type VarType
}

// VarType is the closed set of surface types carried this far.
type VarType uint8

const (
	VUnit VarType = iota
	VInt
	VUInt
	VFloat
	VString
	VUnknown
)

// AllocCoord reserves a new layer-local coordinate id without binding it to
// a position; the caller must later call PutCoord with the same id before
// the function body is complete (unbound coordinates are a compiler bug,
// not a user error).
func (l *Layer) AllocCoord() int {
	c := l.coordIndex
	l.coordIndex++
	return c
}

// PutCoord binds coord to the current end of Ops.
func (l *Layer) PutCoord(coord int) {
	l.Ops = append(l.Ops, Op{Kind: OpPutCoord, Coord: coord})
}

// Branch emits an unconditional jump to coord.
func (l *Layer) Branch(coord int) {
	l.Ops = append(l.Ops, Op{Kind: OpBranchCoord, Coord: coord})
}

// BranchIf emits a conditional jump to coord, taken when left cmp right
// holds.
func (l *Layer) BranchIf(coord int, cmp CompareType, left, right Expr) {
	l.Ops = append(l.Ops, Op{Kind: OpBranchCoordIf, Coord: coord, Cmp: cmp, Left: left, Right: right})
}

// AddVar declares a new variable slot and returns its index.
func (l *Layer) AddVar(t VarType) int {
	l.Vars = append(l.Vars, Var{Type: t})
	return len(l.Vars) - 1
}

// Let emits a variable declaration with initializer expr, at slot index.
func (l *Layer) Let(index int, expr Expr) {
	l.Ops = append(l.Ops, Op{Kind: OpLet, Index: index, Expr: &expr})
}

// Assign emits a store to the existing variable slot index.
func (l *Layer) Assign(index int, expr Expr) {
	l.Ops = append(l.Ops, Op{Kind: OpAssign, Index: index, Expr: &expr})
}

// Return emits a function return, expr nil for a bare return.
func (l *Layer) Return(expr *Expr) {
	l.Ops = append(l.Ops, Op{Kind: OpReturn, Expr: expr})
}

// Call emits a call to coord with the given argument expressions, for
// calls used as a statement (result discarded).
func (l *Layer) Call(coord lower.Coord, params []Expr) {
	l.Ops = append(l.Ops, Op{Kind: OpCall, Call: coord, Params: params})
}
