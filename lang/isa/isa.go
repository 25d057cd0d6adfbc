// Package isa is the single source of truth for the target virtual ISA's
// opcode tags and bit layout. lang/asm (encode) and lang/disasm (decode)
// both import this package so the encoding and decoding sides can never
// drift apart.
//
// A word's top 5 bits (word>>27) are its "tag". Each L0 and branch
// mnemonic owns its tag outright; the L1..L5 mnemonics share one tag per
// class and are told apart by a subtag. Every layer's operand fields fit
// below bit 27 without overlapping each other, the subtag or the tag:
//
//	L0 arithmetic-immediate (own tag per mnemonic): imm[0:17) src[17:22) dst[22:27)
//	L0 mov/ldpcrel/leapcrel (own tag per mnemonic): imm[0:22) dst[22:27)
//	L1 shift/load/store:                 imm[0:11) src[11:16) dst[16:21) subtag[21:27)
//	L1 int, ncall/vcall:                 id[0:16), id[0:21)              subtag[21:27)
//	L2 three-register ALU:               dst[5:10) lhs[10:15) rhs[15:20) subtag[20:27)
//	L3 two-register:                     dst[5:10) src[10:15) subtag[15:27)
//	L4 one-register-or-none:             imm-or-reg[0:10) subtag[10:27)
//	L5 no-operand:                       subtag[0:27)
//	Branch (unconditional): imm[0:27)
//	Branch (conditional):   imm[0:22) reg[22:27)
//
// Tag values 0..24 are used; the rest are reserved. PANIC is a distinct
// all-ones sentinel word, never confusable with any other tag.
package isa

func tag(n uint32) uint32 { return n << 27 }

// L0 arithmetic-immediate opcodes: each mnemonic owns its tag outright so
// its immediate can keep the full 17-bit width spec.md section 6 specifies.
const (
	L0_ADD  = tag(0)
	L0_SUB  = tag(1)
	L0_MUL  = tag(2)
	L0_DIV  = tag(3)
	L0_REM  = tag(4)
	L0_DIVS = tag(5)
	L0_REMS = tag(6)
)

// L0 mov/pc-relative-load opcodes: dst plus a 22-bit immediate or signed
// pc-relative word offset, also each owning its own tag.
const (
	L0_MOV = tag(7)
	L0_MOVS = tag(8)
	// L0_LDPCREL/L0_LEAPCREL load the value or the address of a static:
	// a module-level static, or a function-local spilled constant placed
	// immediately after the function's code. The 22-bit field is a signed
	// pc-relative word offset rather than a value, same convention as
	// branch offsets.
	L0_LDPCREL  = tag(9)
	L0_LEAPCREL = tag(10)
)

// L1 shift/load/store/interrupt/call opcodes share one tag (11) with a
// subtag field at [21:27) distinguishing the 14 variants; register/
// immediate fields occupy the remaining low bits.
const (
	classL1 = tag(11)

	L1_SHL   = classL1 | 0<<21
	L1_SHR   = classL1 | 1<<21
	L1_SHRS  = classL1 | 2<<21
	L1_LDR   = classL1 | 3<<21
	L1_STR   = classL1 | 4<<21
	L1_LDRB  = classL1 | 5<<21
	L1_LDRH  = classL1 | 6<<21
	L1_LDRW  = classL1 | 7<<21
	L1_STRB  = classL1 | 8<<21
	L1_STRH  = classL1 | 9<<21
	L1_STRW  = classL1 | 10<<21
	L1_INT   = classL1 | 11<<21
	L1_NCALL = classL1 | 12<<21
	L1_VCALL = classL1 | 13<<21
)

// L2 three-register opcodes share tag 12, subtag at [20:27).
const (
	classL2 = tag(12)

	L2_ADD  = classL2 | 0<<20
	L2_SUB  = classL2 | 1<<20
	L2_MUL  = classL2 | 2<<20
	L2_DIV  = classL2 | 3<<20
	L2_REM  = classL2 | 4<<20
	L2_DIVS = classL2 | 5<<20
	L2_REMS = classL2 | 6<<20
	L2_ADDF = classL2 | 7<<20
	L2_SUBF = classL2 | 8<<20
	L2_MULF = classL2 | 9<<20
	L2_DIVF = classL2 | 10<<20
	L2_AND  = classL2 | 11<<20
	L2_OR   = classL2 | 12<<20
	L2_XOR  = classL2 | 13<<20
	L2_SHL  = classL2 | 14<<20
	L2_SHR  = classL2 | 15<<20
	L2_SHRS = classL2 | 16<<20
	L2_CMP  = classL2 | 17<<20
	L2_CMPS = classL2 | 18<<20
	L2_CMPF = classL2 | 19<<20
)

// L3 two-register opcodes share tag 13, subtag at [15:27).
const (
	classL3 = tag(13)

	L3_NOT = classL3 | 0<<15
	L3_MOV = classL3 | 1<<15
	L3_FTI = classL3 | 2<<15
	L3_ITF = classL3 | 3<<15
)

// L4 one-register-or-none opcodes share tag 14, subtag at [10:27).
const (
	classL4 = tag(14)

	L4_LDBO  = classL4 | 0<<10
	L4_LDPC  = classL4 | 1<<10
	L4_NCALL = classL4 | 2<<10
	L4_VCALL = classL4 | 3<<10
)

// L5 no-operand opcodes share tag 15; the low 27 bits are a plain subtag
// with nothing else to decode.
const (
	classL5 = tag(15)

	L5_NOP  = classL5 | 0
	L5_HALT = classL5 | 1
	L5_RET  = classL5 | 2
	// PANIC is a reserved, all-ones sentinel word carried over from the
	// original instruction table (see DESIGN.md Supplemented Features).
	L5_PANIC = 0xFFFF_FFFF
)

// Branch family: unconditional branch has a 27-bit signed word-offset (tag
// 16, no other fields); conditional branches (tags 17..24) place a 5-bit
// register selector above a 22-bit signed word-offset.
const (
	BranchUnconditional = tag(16)
	BrEqual              = tag(17)
	BrNotEqual           = tag(18)
	BrLess               = tag(19)
	BrGreater            = tag(20)
	BrLessEqual          = tag(21)
	BrGreaterEqual       = tag(22)
	BrIfNonZero          = tag(23)
	BrIfZero             = tag(24)
)

// Cut returns the low n bits of value as an unsigned 32-bit field. Range
// checking is the caller's responsibility (the encoder's, per spec); Cut
// itself silently truncates out-of-range input.
func Cut(value uint32, n uint) uint32 {
	if n >= 32 {
		return value
	}
	return value & ((1 << n) - 1)
}

// CutSigned packs a signed value into n bits, two's-complement, truncating
// silently like Cut.
func CutSigned(value int32, n uint) uint32 {
	return Cut(uint32(value), n)
}

// SignExtend interprets the low n bits of field as a signed n-bit integer.
func SignExtend(field uint32, n uint) int32 {
	field = Cut(field, n)
	signBit := uint32(1) << (n - 1)
	if field&signBit != 0 {
		return int32(field) - int32(signBit)*2
	}
	return int32(field)
}

// Tag returns word's top 5 bits, the opcode tag (shared by all mnemonics of
// an L1..L5 class).
func Tag(word uint32) uint32 { return word >> 27 }
