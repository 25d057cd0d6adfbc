// Package lower is the register-level IR layer: a flat sequence of Op in
// terms of physical registers R0..R31 and 32-bit-encodable immediates,
// carried over field-for-field from the destructure layer's coordinates.
package lower

import "fmt"

// Reg is a physical register in 0..31 (5-bit field, invariant M6).
type Reg struct{ value uint8 }

// NewReg validates value is in 0..31 and returns a Reg.
func NewReg(value int) (Reg, bool) {
	if value < 0 || value > 31 {
		return Reg{}, false
	}
	return Reg{value: uint8(value)}, true
}

// MustReg panics if value is out of range; used where the caller has
// already validated the range.
func MustReg(value int) Reg {
	r, ok := NewReg(value)
	if !ok {
		panic(fmt.Sprintf("register out of range: %d", value))
	}
	return r
}

func (r Reg) Value() uint32 { return uint32(r.value) }

// Kind discriminates the Op tagged variant. Matches original_source's
// LowOp enum field-for-field (see DESIGN.md).
type Kind uint8

const (
	OpPutCoord Kind = iota
	OpBranchCoord
	OpBranchCoordIfNonZero
	OpBranchCoordIfZero
	OpBranchCoordEqual
	OpBranchCoordNonEqual
	OpBranchCoordLess
	OpBranchCoordGreater
	OpBranchCoordLessEqual
	OpBranchCoordGreaterEqual
	OpCall
	OpLoadStatic64
	OpLoadLocalStatic64
	OpLoadStaticAddress
	OpLoadLocalStaticAddress
	OpAddImmediate
	OpSubImmediate
	OpMulImmediate
	OpDivImmediate
	OpRemImmediate
	OpDivSignedImmediate
	OpRemSignedImmediate
	OpMoveImmediate
	OpMoveSignedImmediate
	OpShiftLeftImmediate
	OpShiftRightImmediate
	OpShiftRightSignedImmediate
	OpLoad8
	OpLoad16
	OpLoad32
	OpLoad64
	OpStore8
	OpStore16
	OpStore32
	OpStore64
	OpInterruptImmediate
	OpNativeCallImmediate
	OpVirtualCallImmediate
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpRem
	OpDivSigned
	OpRemSigned
	OpAddFloat
	OpSubFloat
	OpMulFloat
	OpDivFloat
	OpRemFloat
	OpAnd
	OpOr
	OpXor
	OpShiftLeft
	OpShiftRight
	OpShiftRightSigned
	OpCompare
	OpCompareSigned
	OpCompareFloat
	OpNot
	OpMove
	OpFloatToInt
	OpIntToFloat
	OpNativeCall
	OpVirtualCall
	OpLoadBaseOffset
	OpLoadProgramCounter
	OpHalt
	OpPanic
	OpReturn
)

// Coord is a (module-index, element-index) address of a static or function,
// resolved by the assembler during the patch pass.
type Coord struct {
	Module  int
	Element int
}

// Op is the flat Lower-IR instruction. Only the fields relevant to Kind are
// meaningful. BranchCoord is a layer-local integer bound by a PutCoord in
// the same function (invariant M5); Coord addresses cross-function/module
// statics and calls.
type Op struct {
	Kind Kind

	BranchCoord int // coordinate id for PutCoord/BranchCoord*
	Coord       Coord
	LocalCoord  int // index into the owning function's Locals

	Dst, Lhs, Rhs, Src Reg

	ImmU uint32
	ImmI int32

	InterruptID uint16
	CallID      uint32
}

// IsFourByteEmitting reports whether op emits exactly one 32-bit word
// (invariant A1); PutCoord is the sole exception (zero-sized metadata).
func (o Op) IsFourByteEmitting() bool { return o.Kind != OpPutCoord }

// BinaryStaticKind discriminates the shape of a static's byte layout in the
// assembled binary (spec.md section 4.7's layout rules).
type BinaryStaticKind uint8

const (
	StaticInt BinaryStaticKind = iota
	StaticUInt
	StaticFloat
	StaticString
	// StaticBuffer is a zero-filled buffer of BufSize bytes, produced by the
	// assembly dialect's (static-func buffer N) form.
	StaticBuffer
)

// BinaryStatic is a fully-resolved static value or buffer, ready for layout
// by the assembler. Strings are laid out as a length-prefixed byte run; all
// other scalar kinds occupy exactly 8 bytes (invariant M3).
type BinaryStatic struct {
	Kind BinaryStaticKind

	Int   int64
	UInt  uint64
	Float float64
	Str   string

	BufSize uint64
	BufFill byte
}

// Layer is a compiled function body: its local statics (spilled immediates
// too wide to load directly, plus any static-like locals the dialect
// produced) and its flat instruction sequence.
type Layer struct {
	Locals []BinaryStatic
	Ops    []Op
}
