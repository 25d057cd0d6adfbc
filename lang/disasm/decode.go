package disasm

import (
	"fmt"

	"github.com/mna/urbc/lang/isa"
)

// Instruction is one decoded word. Decode renders its Text when the word
// is decoded; String returns that text.
type Instruction struct {
	Addr uint64
	Word uint32
	Text string
}

func (i Instruction) String() string { return i.Text }

func reg(n uint32) string { return fmt.Sprintf("r%d", n) }

// target resolves a word-granular signed branch/pc-relative offset,
// encoded relative to addr, back to an absolute byte address.
func target(addr uint64, wordOffset int32) uint64 {
	return uint64(int64(addr) + int64(wordOffset)*4)
}

// Decode turns one encoded word at addr into a textual Instruction; it is
// the exact inverse of lang/asm/ops.go's encodeSimpleOp/encodeOp, keyed on
// isa.Tag the same way lang/asm keys on the same constants to encode.
func Decode(word uint32, addr uint64) Instruction {
	text := decodeText(word, addr)
	return Instruction{Addr: addr, Word: word, Text: text}
}

func decodeText(word uint32, addr uint64) string {
	if word == isa.L5_PANIC {
		return "panic"
	}

	switch isa.Tag(word) {
	case isa.L0_ADD >> 27:
		return decodeL0("addi", word)
	case isa.L0_SUB >> 27:
		return decodeL0("subi", word)
	case isa.L0_MUL >> 27:
		return decodeL0("muli", word)
	case isa.L0_DIV >> 27:
		return decodeL0("divi", word)
	case isa.L0_REM >> 27:
		return decodeL0("remi", word)
	case isa.L0_DIVS >> 27:
		return decodeL0("divsi", word)
	case isa.L0_REMS >> 27:
		return decodeL0("remsi", word)
	case isa.L0_MOV >> 27:
		dst := word >> 22 & 0x1F
		imm := isa.Cut(word, 22)
		return fmt.Sprintf("movi %s, %d", reg(dst), imm)
	case isa.L0_MOVS >> 27:
		dst := word >> 22 & 0x1F
		imm := isa.SignExtend(word, 22)
		return fmt.Sprintf("movsi %s, %d", reg(dst), imm)
	case isa.L0_LDPCREL >> 27:
		dst := word >> 22 & 0x1F
		off := isa.SignExtend(word, 22)
		return fmt.Sprintf("ldpcrel %s, %#08x", reg(dst), target(addr, off))
	case isa.L0_LEAPCREL >> 27:
		dst := word >> 22 & 0x1F
		off := isa.SignExtend(word, 22)
		return fmt.Sprintf("leapcrel %s, %#08x", reg(dst), target(addr, off))

	case isa.BranchUnconditional >> 27:
		off := isa.SignExtend(word, 27)
		return fmt.Sprintf("br %#08x", target(addr, off))
	case isa.BrEqual >> 27:
		return decodeCondBranch("beq", word, addr)
	case isa.BrNotEqual >> 27:
		return decodeCondBranch("bne", word, addr)
	case isa.BrLess >> 27:
		return decodeCondBranch("blt", word, addr)
	case isa.BrGreater >> 27:
		return decodeCondBranch("bgt", word, addr)
	case isa.BrLessEqual >> 27:
		return decodeCondBranch("ble", word, addr)
	case isa.BrGreaterEqual >> 27:
		return decodeCondBranch("bge", word, addr)
	case isa.BrIfNonZero >> 27:
		return decodeCondBranch("bnz", word, addr)
	case isa.BrIfZero >> 27:
		return decodeCondBranch("bz", word, addr)

	case classL1:
		return decodeL1(word)
	case classL2:
		return decodeL2(word)
	case classL3:
		return decodeL3(word)
	case classL4:
		return decodeL4(word)
	case classL5:
		return decodeL5(word)

	default:
		return fmt.Sprintf(".word %#08x", word)
	}
}

const (
	classL1 = 11
	classL2 = 12
	classL3 = 13
	classL4 = 14
	classL5 = 15
)

// decodeL0 inverts l0: imm[0:17) src[17:22) dst[22:27).
func decodeL0(mnemonic string, word uint32) string {
	dst := word >> 22 & 0x1F
	src := word >> 17 & 0x1F
	imm := isa.Cut(word, 17)
	return fmt.Sprintf("%s %s, %s, %d", mnemonic, reg(dst), reg(src), imm)
}

func decodeCondBranch(mnemonic string, word uint32, addr uint64) string {
	r := word >> 22 & 0x1F
	off := isa.SignExtend(word, 22)
	return fmt.Sprintf("%s %s, %#08x", mnemonic, reg(r), target(addr, off))
}

var l1Mnemonics = map[uint32]string{
	0: "shli", 1: "shri", 2: "shrsi",
	3: "ldr", 4: "str",
	5: "ldrb", 6: "ldrh", 7: "ldrw",
	8: "strb", 9: "strh", 10: "strw",
	11: "int", 12: "ncalli", 13: "vcalli",
}

// decodeL1 inverts l1: imm[0:11) src[11:16) dst[16:21), subtag[21:27).
func decodeL1(word uint32) string {
	subtag := word >> 21 & 0x3F
	mnemonic, ok := l1Mnemonics[subtag]
	if !ok {
		return fmt.Sprintf(".word %#08x", word)
	}
	switch subtag {
	case 11: // int
		return fmt.Sprintf("int %d", isa.Cut(word, 16))
	case 12, 13: // ncalli, vcalli
		return fmt.Sprintf("%s %d", mnemonic, isa.Cut(word, 21))
	default:
		dst := word >> 16 & 0x1F
		src := word >> 11 & 0x1F
		imm := isa.SignExtend(word, 11)
		return fmt.Sprintf("%s %s, %s, %d", mnemonic, reg(dst), reg(src), imm)
	}
}

var l2Mnemonics = map[uint32]string{
	0: "add", 1: "sub", 2: "mul", 3: "div", 4: "rem", 5: "divs", 6: "rems",
	7: "addf", 8: "subf", 9: "mulf", 10: "divf",
	11: "and", 12: "or", 13: "xor",
	14: "shl", 15: "shr", 16: "shrs",
	17: "cmp", 18: "cmps", 19: "cmpf",
}

// decodeL2 inverts l2: dst[5:10) lhs[10:15) rhs[15:20), subtag[20:27).
func decodeL2(word uint32) string {
	subtag := word >> 20 & 0x7F
	mnemonic, ok := l2Mnemonics[subtag]
	if !ok {
		return fmt.Sprintf(".word %#08x", word)
	}
	dst := word >> 5 & 0x1F
	lhs := word >> 10 & 0x1F
	rhs := word >> 15 & 0x1F
	return fmt.Sprintf("%s %s, %s, %s", mnemonic, reg(dst), reg(lhs), reg(rhs))
}

var l3Mnemonics = map[uint32]string{0: "not", 1: "mov", 2: "fti", 3: "itf"}

// decodeL3 inverts l3: dst[5:10) src[10:15), subtag[15:27).
func decodeL3(word uint32) string {
	subtag := word >> 15 & 0xFFF
	mnemonic, ok := l3Mnemonics[subtag]
	if !ok {
		return fmt.Sprintf(".word %#08x", word)
	}
	dst := word >> 5 & 0x1F
	src := word >> 10 & 0x1F
	return fmt.Sprintf("%s %s, %s", mnemonic, reg(dst), reg(src))
}

// decodeL4 inverts the L4 encodeSimpleOp cases: imm-or-reg[0:10), subtag[10:27).
func decodeL4(word uint32) string {
	subtag := word >> 10 & 0x1FFFF
	switch subtag {
	case 0: // ldbo
		dst := word >> 5 & 0x1F
		imm := isa.Cut(word, 5)
		return fmt.Sprintf("ldbo %s, %d", reg(dst), imm)
	case 1: // ldpc
		dst := word >> 5 & 0x1F
		return fmt.Sprintf("ldpc %s", reg(dst))
	case 2: // ncall
		return fmt.Sprintf("ncall %s", reg(word>>5&0x1F))
	case 3: // vcall
		return fmt.Sprintf("vcall %s", reg(word>>5&0x1F))
	default:
		return fmt.Sprintf(".word %#08x", word)
	}
}

func decodeL5(word uint32) string {
	switch isa.Cut(word, 27) {
	case 0:
		return "nop"
	case 1:
		return "halt"
	case 2:
		return "ret"
	default:
		return fmt.Sprintf(".word %#08x", word)
	}
}
