package destructure

import (
	"fmt"

	"github.com/mna/urbc/lang/ir/lower"
)

// Register layout for the destructure -> lower pass (spec.md section 4.6:
// "a tiny expression compiler that allocates physical registers for each
// subexpression, stack-order, leaves first"):
//
//	r0        reserved: call-return value convention, shared with the
//	          assembly dialect's own label-return convention so calls
//	          resolve correctly regardless of which dialect defines the
//	          callee. Never assigned to a variable, so a call's result
//	          can never clobber a live local.
//	r1..r25   variables (one dedicated register each, assigned in
//	          declaration order) followed immediately by scratch
//	          registers for subexpression evaluation.
//	r26..r31  a fixed 6-register call-argument window.
//
// This is an invented, but internally consistent, calling convention: the
// kept original_source never got past a todo!() for function-body
// lowering (see DESIGN.md Supplemented Features), so no convention survives
// to recover here. It does not save/restore registers live across a call
// beyond r0 and the argument window (see DESIGN.md Open Question decisions)
// -- acceptable for the scope spec.md defines, since calls are
// statement-only here (see below).
const (
	workBase      = 1
	argWindowBase = 26
	maxArgs       = 32 - argWindowBase // 6
	maxWorkReg    = argWindowBase - 1  // 25
)

var returnReg = lower.MustReg(0)

// ReturnReg is the fixed call-return-value register, exported so a dialect
// or a test can name the register a callee leaves its result in.
var ReturnReg = returnReg

// MaxArgs is the number of registers in the call-argument window: a
// dialect must reject a call or a function declaration with more
// parameters than this before ever reaching Lower.
const MaxArgs = maxArgs

// VarReg is the register Lower dedicates to variable slot index; exported
// so a dialect can emit its own function-entry prologue (e.g. moving
// incoming call arguments out of ArgReg into VarReg) around a Lower call.
func VarReg(index int) lower.Reg { return varReg(index) }

// ArgReg is register i of the fixed call-argument window (0..MaxArgs-1).
func ArgReg(i int) lower.Reg { return lower.MustReg(argWindowBase + i) }

// lowerer accumulates a function's Lower-IR body while mapping destructure
// variable slots and expression subtrees to physical registers.
type lowerer struct {
	layer     *lower.Layer
	scratch0  int // first scratch register, right above the last variable
}

// Lower flattens l into a complete lower.Layer. Oversized immediates and
// non-integer literals escape into the returned Layer's Locals (spec.md
// section 4.6).
func (l *Layer) Lower() (*lower.Layer, error) {
	if len(l.Vars) > maxWorkReg-workBase+1 {
		return nil, fmt.Errorf("destructure: function declares %d variables, limit is %d", len(l.Vars), maxWorkReg-workBase+1)
	}
	lw := &lowerer{layer: &lower.Layer{}, scratch0: workBase + len(l.Vars)}
	for _, op := range l.Ops {
		if err := lw.lowerOp(op); err != nil {
			return nil, err
		}
	}
	return lw.layer, nil
}

func (lw *lowerer) emit(op lower.Op) { lw.layer.Ops = append(lw.layer.Ops, op) }

func (lw *lowerer) addLocal(s lower.BinaryStatic) int {
	lw.layer.Locals = append(lw.layer.Locals, s)
	return len(lw.layer.Locals) - 1
}

func varReg(index int) lower.Reg { return lower.MustReg(workBase + index) }

func (lw *lowerer) scratchReg(depth int) (lower.Reg, error) {
	n := lw.scratch0 + depth
	if n > maxWorkReg {
		return lower.Reg{}, fmt.Errorf("destructure: expression needs too many registers (limit %d)", maxWorkReg-workBase+1)
	}
	return lower.MustReg(n), nil
}

func fitsSigned(v int64, bits uint) bool {
	min := -(int64(1) << (bits - 1))
	max := int64(1)<<(bits-1) - 1
	return v >= min && v <= max
}

func fitsUnsigned(v uint64, bits uint) bool {
	return v < uint64(1)<<bits
}

// evalExpr emits e's value into a freshly allocated register at depth
// (stack-order: depth only grows across sibling operand evaluations of one
// expression tree, never across sequential statements) and returns it.
func (lw *lowerer) evalExpr(e *Expr, depth int) (lower.Reg, error) {
	switch e.Kind {
	case EVariable:
		dst, err := lw.scratchReg(depth)
		if err != nil {
			return lower.Reg{}, err
		}
		lw.emit(lower.Op{Kind: lower.OpMove, Dst: dst, Src: varReg(e.Index)})
		return dst, nil
	case EStatic:
		dst, err := lw.scratchReg(depth)
		if err != nil {
			return lower.Reg{}, err
		}
		lw.emit(lower.Op{Kind: lower.OpLoadStatic64, Dst: dst, Coord: e.Coord})
		return dst, nil
	case EInt:
		dst, err := lw.scratchReg(depth)
		if err != nil {
			return lower.Reg{}, err
		}
		if fitsSigned(e.Int, 22) {
			lw.emit(lower.Op{Kind: lower.OpMoveSignedImmediate, Dst: dst, ImmI: int32(e.Int)})
		} else {
			local := lw.addLocal(lower.BinaryStatic{Kind: lower.StaticInt, Int: e.Int})
			lw.emit(lower.Op{Kind: lower.OpLoadLocalStatic64, Dst: dst, LocalCoord: local})
		}
		return dst, nil
	case EUInt:
		dst, err := lw.scratchReg(depth)
		if err != nil {
			return lower.Reg{}, err
		}
		if fitsUnsigned(e.UInt, 22) {
			lw.emit(lower.Op{Kind: lower.OpMoveImmediate, Dst: dst, ImmU: uint32(e.UInt)})
		} else {
			local := lw.addLocal(lower.BinaryStatic{Kind: lower.StaticUInt, UInt: e.UInt})
			lw.emit(lower.Op{Kind: lower.OpLoadLocalStatic64, Dst: dst, LocalCoord: local})
		}
		return dst, nil
	case EFloat:
		dst, err := lw.scratchReg(depth)
		if err != nil {
			return lower.Reg{}, err
		}
		if e.Float == 0 {
			lw.emit(lower.Op{Kind: lower.OpMoveImmediate, Dst: dst, ImmU: 0})
		} else {
			local := lw.addLocal(lower.BinaryStatic{Kind: lower.StaticFloat, Float: e.Float})
			lw.emit(lower.Op{Kind: lower.OpLoadLocalStatic64, Dst: dst, LocalCoord: local})
		}
		return dst, nil
	case EString:
		dst, err := lw.scratchReg(depth)
		if err != nil {
			return lower.Reg{}, err
		}
		local := lw.addLocal(lower.BinaryStatic{Kind: lower.StaticString, Str: e.Str})
		lw.emit(lower.Op{Kind: lower.OpLoadLocalStaticAddress, Dst: dst, LocalCoord: local})
		return dst, nil
	case EBitNot:
		inner, err := lw.evalExpr(e.Inner, depth)
		if err != nil {
			return lower.Reg{}, err
		}
		lw.emit(lower.Op{Kind: lower.OpNot, Dst: inner, Src: inner})
		return inner, nil
	default:
		return lw.evalBinary(e, depth)
	}
}

// binRegKind is the three-register (L2) form of every binary ExprKind.
var binRegKind = map[ExprKind]lower.Kind{
	EAdd: lower.OpAdd, ESub: lower.OpSub, EMul: lower.OpMul, EDiv: lower.OpDiv, ERem: lower.OpRem,
	EBitAnd: lower.OpAnd, EBitOr: lower.OpOr, EBitXor: lower.OpXor,
	EShiftLeft: lower.OpShiftLeft, EShiftRight: lower.OpShiftRight, ESignedShiftRight: lower.OpShiftRightSigned,
}

// binImmKind is the register+immediate form available for a subset of
// binary ExprKinds, used whenever the right operand is a literal that fits
// the form's field width; bitwise ops have no immediate form in the ISA.
var binImmKind = map[ExprKind]lower.Kind{
	EAdd: lower.OpAddImmediate, ESub: lower.OpSubImmediate, EMul: lower.OpMulImmediate,
	EDiv: lower.OpDivImmediate, ERem: lower.OpRemImmediate,
	EShiftLeft: lower.OpShiftLeftImmediate, EShiftRight: lower.OpShiftRightImmediate,
	ESignedShiftRight: lower.OpShiftRightSignedImmediate,
}

// immBits is the immediate field width of binImmKind's form for the same
// ExprKind: 17 bits for L0 arithmetic, 11 bits for L1 shifts (spec.md
// section 6).
var immBits = map[ExprKind]uint{
	EAdd: 17, ESub: 17, EMul: 17, EDiv: 17, ERem: 17,
	EShiftLeft: 11, EShiftRight: 11, ESignedShiftRight: 11,
}

func asImmediate(e *Expr) (int64, bool) {
	switch e.Kind {
	case EInt:
		return e.Int, true
	case EUInt:
		if e.UInt <= 1<<62 {
			return int64(e.UInt), true
		}
	}
	return 0, false
}

func (lw *lowerer) evalBinary(e *Expr, depth int) (lower.Reg, error) {
	if immKind, ok := binImmKind[e.Kind]; ok {
		if lit, isLit := asImmediate(e.Right); isLit && lit >= 0 && fitsUnsigned(uint64(lit), immBits[e.Kind]) {
			left, err := lw.evalExpr(e.Left, depth)
			if err != nil {
				return lower.Reg{}, err
			}
			lw.emit(lower.Op{Kind: immKind, Dst: left, Lhs: left, ImmI: int32(lit)})
			return left, nil
		}
	}

	left, err := lw.evalExpr(e.Left, depth)
	if err != nil {
		return lower.Reg{}, err
	}
	right, err := lw.evalExpr(e.Right, depth+1)
	if err != nil {
		return lower.Reg{}, err
	}
	kind, ok := binRegKind[e.Kind]
	if !ok {
		return lower.Reg{}, fmt.Errorf("destructure: unhandled binary expr kind %d", e.Kind)
	}
	lw.emit(lower.Op{Kind: kind, Dst: left, Lhs: left, Rhs: right})
	return left, nil
}

// condBranch is the conditional BranchCoord* form taken when each
// CompareType holds (non-negated forms only).
var condBranch = map[CompareType]lower.Kind{
	CmpEqual:        lower.OpBranchCoordEqual,
	CmpNotEqual:     lower.OpBranchCoordNonEqual,
	CmpLess:         lower.OpBranchCoordLess,
	CmpGreater:      lower.OpBranchCoordGreater,
	CmpLessEqual:    lower.OpBranchCoordLessEqual,
	CmpGreaterEqual: lower.OpBranchCoordGreaterEqual,
}

func (lw *lowerer) lowerOp(op Op) error {
	switch op.Kind {
	case OpPutCoord:
		lw.emit(lower.Op{Kind: lower.OpPutCoord, BranchCoord: op.Coord})
		return nil
	case OpBranchCoord:
		lw.emit(lower.Op{Kind: lower.OpBranchCoord, BranchCoord: op.Coord})
		return nil
	case OpBranchCoordIf:
		return lw.lowerBranchIf(op)
	case OpLet, OpAssign:
		return lw.lowerAssign(op.Index, op.Expr)
	case OpReturn:
		return lw.lowerReturn(op.Expr)
	case OpCall:
		return lw.lowerCall(op.Call, op.Params)
	default:
		return fmt.Errorf("destructure: unhandled op kind %d", op.Kind)
	}
}

// lowerBranchIf emits a three-register compare feeding the single-register
// conditional branch the ISA actually has (spec.md section 4.6: "comparison
// branches become the ISA's conditional BranchCoord* forms parameterised
// by the register holding the comparison result").
func (lw *lowerer) lowerBranchIf(op Op) error {
	left, err := lw.evalExpr(&op.Left, 0)
	if err != nil {
		return err
	}
	right, err := lw.evalExpr(&op.Right, 1)
	if err != nil {
		return err
	}
	cmpOp := lower.OpCompare
	if op.Left.Kind == EFloat || op.Right.Kind == EFloat {
		cmpOp = lower.OpCompareFloat
	}
	lw.emit(lower.Op{Kind: cmpOp, Dst: left, Lhs: left, Rhs: right})
	kind, ok := condBranch[op.Cmp]
	if !ok {
		return fmt.Errorf("destructure: unhandled compare type %d", op.Cmp)
	}
	lw.emit(lower.Op{Kind: kind, Lhs: left, BranchCoord: op.Coord})
	return nil
}

func (lw *lowerer) lowerAssign(index int, expr *Expr) error {
	r, err := lw.evalExpr(expr, 0)
	if err != nil {
		return err
	}
	dst := varReg(index)
	if r != dst {
		lw.emit(lower.Op{Kind: lower.OpMove, Dst: dst, Src: r})
	}
	return nil
}

func (lw *lowerer) lowerReturn(expr *Expr) error {
	if expr == nil {
		lw.emit(lower.Op{Kind: lower.OpReturn})
		return nil
	}
	r, err := lw.evalExpr(expr, 0)
	if err != nil {
		return err
	}
	if r != returnReg {
		lw.emit(lower.Op{Kind: lower.OpMove, Dst: returnReg, Src: r})
	}
	lw.emit(lower.Op{Kind: lower.OpReturn})
	return nil
}

// lowerCall evaluates every argument and shuffles it into the fixed
// r26..r31 argument window before emitting the call. Calls are
// statement-only here (the return value, always left in r0 by the callee's
// own Return lowering, is simply discarded) -- upper.Block's SCall is the
// only call form this pass's caller (ir/upper) produces; Expr has no ECall
// arm of its own yet, so a call can't appear nested inside arithmetic.
func (lw *lowerer) lowerCall(target lower.Coord, params []Expr) error {
	if len(params) > maxArgs {
		return fmt.Errorf("destructure: call passes %d arguments, limit is %d", len(params), maxArgs)
	}
	for i := range params {
		r, err := lw.evalExpr(&params[i], 0)
		if err != nil {
			return err
		}
		argReg := lower.MustReg(argWindowBase + i)
		if r != argReg {
			lw.emit(lower.Op{Kind: lower.OpMove, Dst: argReg, Src: r})
		}
	}
	lw.emit(lower.Op{Kind: lower.OpCall, Coord: target})
	return nil
}
