package assembly

import (
	"github.com/mna/urbc/lang/ast"
	"github.com/mna/urbc/lang/cerr"
	"github.com/mna/urbc/lang/ir/lower"
	"github.com/mna/urbc/lang/token"
)

// operandShape discriminates an instruction mnemonic's argument list shape,
// grounded on original_source's INSN_MACROS dispatch table (insns.rs).
type operandShape int

const (
	shapeRRR  operandShape = iota // (op dst lhs rhs)
	shapeRR                       // (op dst src)
	shapeRRI                      // (op dst src imm)
	shapeRI                       // (op dst imm)
	shapeRRoff                    // (op dst base offset)
	shapeImm                      // (op imm)
	shapeR                        // (op dst)
	shapeRLhs                     // (op reg) but encodes into the Lhs field
	shapeNone                     // (op)
)

// insnSpec binds a mnemonic's operand shape to the Lower IR Kind it emits.
// immBits/immSigned describe the encoded width of that mnemonic's immediate
// field (L0 ALU-imm is U(17), shifts are U(11), mov/movs are 22 bits, the
// ldr*/str* offsets are signed 11 bits, ldbo's offset is U(5), int is
// U(16), ncall/vcall are U(21)); shapes with no immediate operand leave
// both fields zero.
type insnSpec struct {
	shape     operandShape
	kind      lower.Kind
	immBits   uint
	immSigned bool
}

var insnMacros = map[string]insnSpec{
	// three-register ALU
	"add":  {shape: shapeRRR, kind: lower.OpAdd},
	"sub":  {shape: shapeRRR, kind: lower.OpSub},
	"mul":  {shape: shapeRRR, kind: lower.OpMul},
	"div":  {shape: shapeRRR, kind: lower.OpDiv},
	"rem":  {shape: shapeRRR, kind: lower.OpRem},
	"divs": {shape: shapeRRR, kind: lower.OpDivSigned},
	"rems": {shape: shapeRRR, kind: lower.OpRemSigned},
	"addf": {shape: shapeRRR, kind: lower.OpAddFloat},
	"subf": {shape: shapeRRR, kind: lower.OpSubFloat},
	"mulf": {shape: shapeRRR, kind: lower.OpMulFloat},
	"divf": {shape: shapeRRR, kind: lower.OpDivFloat},
	"remf": {shape: shapeRRR, kind: lower.OpRemFloat},
	"and":  {shape: shapeRRR, kind: lower.OpAnd},
	"or":   {shape: shapeRRR, kind: lower.OpOr},
	"xor":  {shape: shapeRRR, kind: lower.OpXor},
	"shl":  {shape: shapeRRR, kind: lower.OpShiftLeft},
	"shr":  {shape: shapeRRR, kind: lower.OpShiftRight},
	"shrs": {shape: shapeRRR, kind: lower.OpShiftRightSigned},
	"cmp":  {shape: shapeRRR, kind: lower.OpCompare},
	"cmps": {shape: shapeRRR, kind: lower.OpCompareSigned},
	"cmpf": {shape: shapeRRR, kind: lower.OpCompareFloat},

	// two-register
	"not": {shape: shapeRR, kind: lower.OpNot},
	"mov": {shape: shapeRR, kind: lower.OpMove},
	"fti": {shape: shapeRR, kind: lower.OpFloatToInt},
	"itf": {shape: shapeRR, kind: lower.OpIntToFloat},

	// register + immediate arithmetic: L0 ALU-imm field is unsigned 17 bits
	"addi":  {shape: shapeRRI, kind: lower.OpAddImmediate, immBits: 17},
	"subi":  {shape: shapeRRI, kind: lower.OpSubImmediate, immBits: 17},
	"muli":  {shape: shapeRRI, kind: lower.OpMulImmediate, immBits: 17},
	"divi":  {shape: shapeRRI, kind: lower.OpDivImmediate, immBits: 17},
	"remi":  {shape: shapeRRI, kind: lower.OpRemImmediate, immBits: 17},
	"divsi": {shape: shapeRRI, kind: lower.OpDivSignedImmediate, immBits: 17},
	"remsi": {shape: shapeRRI, kind: lower.OpRemSignedImmediate, immBits: 17},
	// shift-immediate field is unsigned 11 bits
	"shli":  {shape: shapeRRI, kind: lower.OpShiftLeftImmediate, immBits: 11},
	"shri":  {shape: shapeRRI, kind: lower.OpShiftRightImmediate, immBits: 11},
	"shrsi": {shape: shapeRRI, kind: lower.OpShiftRightSignedImmediate, immBits: 11},

	// bare immediate load into a register: mov/movs carry a 22-bit field
	"movi":  {shape: shapeRI, kind: lower.OpMoveImmediate, immBits: 22},
	"movsi": {shape: shapeRI, kind: lower.OpMoveSignedImmediate, immBits: 22, immSigned: true},

	// loads/stores: (op dst base offset), signed 11-bit offset
	"ldrb": {shape: shapeRRoff, kind: lower.OpLoad8, immBits: 11, immSigned: true},
	"ldrh": {shape: shapeRRoff, kind: lower.OpLoad16, immBits: 11, immSigned: true},
	"ldrw": {shape: shapeRRoff, kind: lower.OpLoad32, immBits: 11, immSigned: true},
	"ldr":  {shape: shapeRRoff, kind: lower.OpLoad64, immBits: 11, immSigned: true},
	"strb": {shape: shapeRRoff, kind: lower.OpStore8, immBits: 11, immSigned: true},
	"strh": {shape: shapeRRoff, kind: lower.OpStore16, immBits: 11, immSigned: true},
	"strw": {shape: shapeRRoff, kind: lower.OpStore32, immBits: 11, immSigned: true},
	"str":  {shape: shapeRRoff, kind: lower.OpStore64, immBits: 11, immSigned: true},

	// register + 5-bit unsigned offset
	"ldbo": {shape: shapeRI, kind: lower.OpLoadBaseOffset, immBits: 5},

	// single register
	"ldpc": {shape: shapeR, kind: lower.OpLoadProgramCounter},

	// single register, encoded into Lhs rather than Dst
	"ncallr": {shape: shapeRLhs, kind: lower.OpNativeCall},
	"vcallr": {shape: shapeRLhs, kind: lower.OpVirtualCall},

	// bare immediate
	"int":   {shape: shapeImm, kind: lower.OpInterruptImmediate, immBits: 16},
	"ncall": {shape: shapeImm, kind: lower.OpNativeCallImmediate, immBits: 21},
	"vcall": {shape: shapeImm, kind: lower.OpVirtualCallImmediate, immBits: 21},

	// no operands
	"halt":  {shape: shapeNone, kind: lower.OpHalt},
	"ret":   {shape: shapeNone, kind: lower.OpReturn},
	"panic": {shape: shapeNone, kind: lower.OpPanic},
}

func (s insnSpec) compile(b *builder, node ast.Node) *cerr.Error {
	args := node.Children[1:]
	switch s.shape {
	case shapeRRR:
		if len(args) != 3 {
			return cerr.New(cerr.KindInvalidParams, "", "", node.Span)
		}
		dst, cerrv := parseReg(args[0])
		if cerrv != nil {
			return cerrv
		}
		lhs, cerrv := parseReg(args[1])
		if cerrv != nil {
			return cerrv
		}
		rhs, cerrv := parseReg(args[2])
		if cerrv != nil {
			return cerrv
		}
		b.emit(lower.Op{Kind: s.kind, Dst: dst, Lhs: lhs, Rhs: rhs})
		return nil
	case shapeRR:
		if len(args) != 2 {
			return cerr.New(cerr.KindInvalidParams, "", "", node.Span)
		}
		dst, cerrv := parseReg(args[0])
		if cerrv != nil {
			return cerrv
		}
		src, cerrv := parseReg(args[1])
		if cerrv != nil {
			return cerrv
		}
		b.emit(lower.Op{Kind: s.kind, Dst: dst, Src: src})
		return nil
	case shapeRRI:
		if len(args) != 3 {
			return cerr.New(cerr.KindInvalidParams, "", "", node.Span)
		}
		dst, cerrv := parseReg(args[0])
		if cerrv != nil {
			return cerrv
		}
		// arithmetic/shift-immediate ops carry their source register in Lhs,
		// matching lang/asm's l0/l1 encoders (not Src, which is loads/stores'
		// base-address register).
		lhs, cerrv := parseReg(args[1])
		if cerrv != nil {
			return cerrv
		}
		imm, cerrv := parseImm(args[2], s.immBits, s.immSigned)
		if cerrv != nil {
			return cerrv
		}
		b.emit(lower.Op{Kind: s.kind, Dst: dst, Lhs: lhs, ImmI: imm})
		return nil
	case shapeRI:
		if len(args) != 2 {
			return cerr.New(cerr.KindInvalidParams, "", "", node.Span)
		}
		dst, cerrv := parseReg(args[0])
		if cerrv != nil {
			return cerrv
		}
		imm, cerrv := parseImm(args[1], s.immBits, s.immSigned)
		if cerrv != nil {
			return cerrv
		}
		b.emit(lower.Op{Kind: s.kind, Dst: dst, ImmI: imm, ImmU: uint32(imm)})
		return nil
	case shapeRRoff:
		if len(args) != 3 {
			return cerr.New(cerr.KindInvalidParams, "", "", node.Span)
		}
		dst, cerrv := parseReg(args[0])
		if cerrv != nil {
			return cerrv
		}
		base, cerrv := parseReg(args[1])
		if cerrv != nil {
			return cerrv
		}
		imm, cerrv := parseImm(args[2], s.immBits, s.immSigned)
		if cerrv != nil {
			return cerrv
		}
		b.emit(lower.Op{Kind: s.kind, Dst: dst, Src: base, ImmI: imm})
		return nil
	case shapeR:
		if len(args) != 1 {
			return cerr.New(cerr.KindInvalidParams, "", "", node.Span)
		}
		dst, cerrv := parseReg(args[0])
		if cerrv != nil {
			return cerrv
		}
		b.emit(lower.Op{Kind: s.kind, Dst: dst})
		return nil
	case shapeRLhs:
		if len(args) != 1 {
			return cerr.New(cerr.KindInvalidParams, "", "", node.Span)
		}
		reg, cerrv := parseReg(args[0])
		if cerrv != nil {
			return cerrv
		}
		b.emit(lower.Op{Kind: s.kind, Lhs: reg})
		return nil
	case shapeImm:
		if len(args) != 1 {
			return cerr.New(cerr.KindInvalidParams, "", "", node.Span)
		}
		imm, cerrv := parseImm(args[0], s.immBits, s.immSigned)
		if cerrv != nil {
			return cerrv
		}
		b.emit(lower.Op{Kind: s.kind, InterruptID: uint16(imm), CallID: uint32(imm)})
		return nil
	case shapeNone:
		if len(args) != 0 {
			return cerr.New(cerr.KindInvalidParams, "", "", node.Span)
		}
		b.emit(lower.Op{Kind: s.kind})
		return nil
	}
	return cerr.New(cerr.KindInvalidStatement, "", "", node.Span)
}

// parseImm reads a literal-int/uint operand and range-checks it against the
// encoded field width for the instruction it belongs to (see insnMacros):
// an operand too large for an unsigned field (e.g. an add-immediate past
// the L0 ALU-imm field's U(17) range) is a NotInSizeRange error, one
// outside a signed field's range is a NotInI64Range error.
func parseImm(node ast.Node, bits uint, signed bool) (int32, *cerr.Error) {
	switch node.Kind {
	case token.Int:
		if signed {
			if !fitsSigned(node.Int, bits) {
				return 0, cerr.New(cerr.KindNotInI64Range, "", "", node.Span).WithRange(signedRange(bits))
			}
			return int32(node.Int), nil
		}
		if node.Int < 0 || !fitsUnsigned(uint64(node.Int), bits) {
			return 0, outOfRange(node, unsignedRange(bits))
		}
		return int32(node.Int), nil
	case token.UInt:
		if !fitsUnsigned(node.UInt, bits) {
			return 0, outOfRange(node, unsignedRange(bits))
		}
		return int32(node.UInt), nil
	}
	return 0, cerr.New(cerr.KindInvalidType, "", "", node.Span)
}

func unsignedRange(bits uint) cerr.Range {
	return cerr.Range{HasMin: true, Min: 0, HasMax: true, Max: int64(1)<<bits - 1}
}

func signedRange(bits uint) cerr.Range {
	return cerr.Range{HasMin: true, Min: -(int64(1) << (bits - 1)), HasMax: true, Max: int64(1)<<(bits-1) - 1}
}

func outOfRange(node ast.Node, r cerr.Range) *cerr.Error {
	return cerr.New(cerr.KindNotInSizeRange, "", "", node.Span).WithRange(r)
}
