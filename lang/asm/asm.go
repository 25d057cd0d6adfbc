// Package asm lays out a filtered set of compiled modules into the flat
// .urb binary format (spec.md section 4.7) and resolves every Coord and
// layer-local branch coordinate to a concrete byte address. It is the
// genuine implementation of the assembler original_source left entirely
// commented out in compiler::mod.rs::assemble (see DESIGN.md); the
// commented block's header layout, per-static byte rules, and 27-bit/
// 22-bit branch field split are kept as the authoritative reference for
// this package's bit-packing, via lang/isa.
package asm

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/mna/urbc/lang/ir/lower"
	"github.com/mna/urbc/lang/isa"
)

// Magic is the 4-byte file signature, a NUL followed by "urb".
var Magic = [4]byte{0, 'u', 'r', 'b'}

const headerSize = 4 + 4 + 8 // magic + flags + entrypoint

// HeaderSize is headerSize, exported for lang/disasm to locate the body.
const HeaderSize = headerSize

// Static is one resolved static or buffer, ready for byte layout.
type Static struct {
	Name  string
	Used  bool
	Value lower.BinaryStatic
}

// Func is one compiled function body, ready for byte layout.
type Func struct {
	Name  string
	Used  bool
	Layer *lower.Layer
}

// Module is one compiled module's statics and funcs, in declaration order
// (matching Coord.Element indexing).
type Module struct {
	Name    string
	Statics []Static
	Funcs   []Func
}

// OffsetMap records the absolute byte address assigned to every used
// static and func, keyed by (module index, element index); it is the
// sink written out as YAML alongside the binary when requested (spec.md
// external interfaces, offset-map debugging aid).
type OffsetMap struct {
	StaticOffsets map[lower.Coord]uint64 `yaml:"static_offsets"`
	FuncOffsets   map[lower.Coord]uint64 `yaml:"func_offsets"`
}

func newOffsetMap() *OffsetMap {
	return &OffsetMap{
		StaticOffsets: map[lower.Coord]uint64{},
		FuncOffsets:   map[lower.Coord]uint64{},
	}
}

// staticSize returns the byte footprint of a static's value, per spec.md
// section 4.7: scalars are 8 bytes, strings are an 8-byte length prefix
// followed by their raw (unpadded) bytes, buffers are BufSize zero bytes.
func staticSize(s lower.BinaryStatic) uint64 {
	switch s.Kind {
	case lower.StaticString:
		return 8 + uint64(len(s.Str))
	case lower.StaticBuffer:
		return s.BufSize
	default:
		return 8
	}
}

// funcSize returns the byte footprint of a compiled function body: every
// op is one 4-byte word except PutCoord, which is pure bookkeeping and
// emits nothing (invariant A1), plus the function's own spilled locals
// appended immediately after its code.
func funcSize(l *lower.Layer) uint64 {
	var n uint64
	for _, op := range l.Ops {
		if op.IsFourByteEmitting() {
			n += 4
		}
	}
	for _, loc := range l.Locals {
		n += staticSize(loc)
	}
	return n
}

// Assemble lays out modules, resolves every reference, and writes the
// final .urb image to w. main is the entrypoint's Coord, resolved from the
// layout pass's FuncOffsets. The returned OffsetMap is always populated
// even though only some callers write it out.
func Assemble(modules []Module, main lower.Coord, w io.Writer) (*OffsetMap, error) {
	om := newOffsetMap()

	// Layout pass: assign every used static and func an absolute address,
	// statics first (so a func's static references are always already
	// resolved by the time funcs are laid out; funcs may call funcs laid
	// out later, which Coord + a second pass over func bodies handles).
	addr := uint64(headerSize)
	for mi, mod := range modules {
		for si, st := range mod.Statics {
			if !st.Used {
				continue
			}
			c := lower.Coord{Module: mi, Element: si}
			om.StaticOffsets[c] = addr
			addr += staticSize(st.Value)
		}
	}
	for mi, mod := range modules {
		for fi, fn := range mod.Funcs {
			if !fn.Used {
				continue
			}
			c := lower.Coord{Module: mi, Element: fi}
			om.FuncOffsets[c] = addr
			addr += funcSize(fn.Layer)
		}
	}

	entrypoint, ok := om.FuncOffsets[main]
	if !ok {
		return nil, fmt.Errorf("asm: main coord %+v not laid out (not reachable?)", main)
	}

	body := make([]byte, 0, addr-headerSize)

	for mi, mod := range modules {
		for si, st := range mod.Statics {
			if !st.Used {
				continue
			}
			c := lower.Coord{Module: mi, Element: si}
			cur := om.StaticOffsets[c]
			if want := uint64(len(body)) + headerSize; cur != want {
				return nil, fmt.Errorf("asm: static layout drift at %+v: want %d, have %d", c, want, cur)
			}
			body = appendStatic(body, st.Value)
		}
	}

	for mi, mod := range modules {
		for fi, fn := range mod.Funcs {
			if !fn.Used {
				continue
			}
			c := lower.Coord{Module: mi, Element: fi}
			base := om.FuncOffsets[c]
			encoded, err := encodeFunc(fn.Layer, base, om)
			if err != nil {
				return nil, fmt.Errorf("asm: module %s func %s: %w", mod.Name, fn.Name, err)
			}
			body = append(body, encoded...)
		}
	}

	var hdr [headerSize]byte
	copy(hdr[0:4], Magic[:])
	binary.LittleEndian.PutUint32(hdr[4:8], 0) // flags, reserved
	binary.LittleEndian.PutUint64(hdr[8:16], entrypoint)
	if _, err := w.Write(hdr[:]); err != nil {
		return nil, err
	}
	if _, err := w.Write(body); err != nil {
		return nil, err
	}
	return om, nil
}

func appendStatic(body []byte, s lower.BinaryStatic) []byte {
	var buf [8]byte
	switch s.Kind {
	case lower.StaticInt:
		binary.LittleEndian.PutUint64(buf[:], uint64(s.Int))
		return append(body, buf[:]...)
	case lower.StaticUInt:
		binary.LittleEndian.PutUint64(buf[:], s.UInt)
		return append(body, buf[:]...)
	case lower.StaticFloat:
		binary.LittleEndian.PutUint64(buf[:], mathFloatBits(s.Float))
		return append(body, buf[:]...)
	case lower.StaticString:
		binary.LittleEndian.PutUint64(buf[:], uint64(len(s.Str)))
		body = append(body, buf[:]...)
		return append(body, s.Str...)
	case lower.StaticBuffer:
		fill := make([]byte, s.BufSize)
		for i := range fill {
			fill[i] = s.BufFill
		}
		return append(body, fill...)
	default:
		panic("unreachable static kind")
	}
}

func mathFloatBits(f float64) uint64 { return math.Float64bits(f) }

// encodeFunc emits fn's ops as 32-bit little-endian words starting at base,
// resolving layer-local branch coordinates (bound within this function by
// PutCoord) to signed word offsets, and Coord references (calls, static
// loads) to the absolute addresses assigned during layout.
func encodeFunc(fn *lower.Layer, base uint64, om *OffsetMap) ([]byte, error) {
	// First sub-pass: compute each layer-local branch coordinate's address
	// by replaying the op stream and tracking the running address, since
	// PutCoord itself emits no bytes. Locals are laid out right after the
	// code, in declaration order.
	coordAddr := map[int]uint64{}
	addr := base
	for _, op := range fn.Ops {
		if op.Kind == lower.OpPutCoord {
			coordAddr[op.BranchCoord] = addr
			continue
		}
		addr += 4
	}
	codeEnd := addr
	localAddr := make([]uint64, len(fn.Locals))
	localEnd := codeEnd
	for i, loc := range fn.Locals {
		localAddr[i] = localEnd
		localEnd += staticSize(loc)
	}

	out := make([]byte, 0, localEnd-base)
	addr = base
	for _, op := range fn.Ops {
		if op.Kind == lower.OpPutCoord {
			continue
		}
		word, err := encodeOp(op, addr, coordAddr, localAddr, om)
		if err != nil {
			return nil, err
		}
		var buf [4]byte
		binary.LittleEndian.PutUint32(buf[:], word)
		out = append(out, buf[:]...)
		addr += 4
	}
	for _, loc := range fn.Locals {
		out = appendStatic(out, loc)
	}
	return out, nil
}

// encodeOp encodes a single instruction at address addr into its 32-bit
// word. Branch offsets are measured from the branch instruction's own
// address to the target (word granularity, i.e. divided by 4): this
// repo's choice, since original_source's reference assembler was entirely
// commented out (see DESIGN.md Open Question 3).
func encodeOp(op lower.Op, addr uint64, coordAddr map[int]uint64, localAddr []uint64, om *OffsetMap) (uint32, error) {
	wordOffset := func(target uint64) int32 {
		return int32((int64(target) - int64(addr)) / 4)
	}

	switch op.Kind {
	case lower.OpLoadLocalStatic64:
		if op.LocalCoord < 0 || op.LocalCoord >= len(localAddr) {
			return 0, fmt.Errorf("local coordinate %d out of range (%d locals)", op.LocalCoord, len(localAddr))
		}
		return isa.L0_LDPCREL | (op.Dst.Value() << 22) | isa.CutSigned(wordOffset(localAddr[op.LocalCoord]), 22), nil
	case lower.OpLoadLocalStaticAddress:
		if op.LocalCoord < 0 || op.LocalCoord >= len(localAddr) {
			return 0, fmt.Errorf("local coordinate %d out of range (%d locals)", op.LocalCoord, len(localAddr))
		}
		return isa.L0_LEAPCREL | (op.Dst.Value() << 22) | isa.CutSigned(wordOffset(localAddr[op.LocalCoord]), 22), nil
	case lower.OpBranchCoord:
		target, ok := coordAddr[op.BranchCoord]
		if !ok {
			return 0, fmt.Errorf("unbound branch coordinate %d", op.BranchCoord)
		}
		return isa.BranchUnconditional | isa.CutSigned(wordOffset(target), 27), nil
	case lower.OpBranchCoordIfNonZero, lower.OpBranchCoordIfZero,
		lower.OpBranchCoordEqual, lower.OpBranchCoordNonEqual,
		lower.OpBranchCoordLess, lower.OpBranchCoordGreater,
		lower.OpBranchCoordLessEqual, lower.OpBranchCoordGreaterEqual:
		target, ok := coordAddr[op.BranchCoord]
		if !ok {
			return 0, fmt.Errorf("unbound branch coordinate %d", op.BranchCoord)
		}
		tag := condBranchTag(op.Kind)
		return tag | (op.Lhs.Value() << 22) | isa.CutSigned(wordOffset(target), 22), nil
	case lower.OpCall:
		target, ok := om.FuncOffsets[op.Coord]
		if !ok {
			return 0, fmt.Errorf("call to unresolved func coord %+v", op.Coord)
		}
		return isa.BranchUnconditional | isa.CutSigned(wordOffset(target), 27), nil
	case lower.OpLoadStatic64:
		target, ok := om.StaticOffsets[op.Coord]
		if !ok {
			return 0, fmt.Errorf("load of unresolved static coord %+v", op.Coord)
		}
		return isa.L0_LDPCREL | (op.Dst.Value() << 22) | isa.CutSigned(wordOffset(target), 22), nil
	case lower.OpLoadStaticAddress:
		target, ok := om.StaticOffsets[op.Coord]
		if !ok {
			return 0, fmt.Errorf("load of unresolved static coord %+v", op.Coord)
		}
		return isa.L0_LEAPCREL | (op.Dst.Value() << 22) | isa.CutSigned(wordOffset(target), 22), nil
	case lower.OpHalt:
		return isa.L5_HALT, nil
	case lower.OpReturn:
		return isa.L5_RET, nil
	case lower.OpPanic:
		return isa.L5_PANIC, nil
	default:
		return encodeSimpleOp(op)
	}
}

func condBranchTag(k lower.Kind) uint32 {
	switch k {
	case lower.OpBranchCoordIfNonZero:
		return isa.BrIfNonZero
	case lower.OpBranchCoordIfZero:
		return isa.BrIfZero
	case lower.OpBranchCoordEqual:
		return isa.BrEqual
	case lower.OpBranchCoordNonEqual:
		return isa.BrNotEqual
	case lower.OpBranchCoordLess:
		return isa.BrLess
	case lower.OpBranchCoordGreater:
		return isa.BrGreater
	case lower.OpBranchCoordLessEqual:
		return isa.BrLessEqual
	case lower.OpBranchCoordGreaterEqual:
		return isa.BrGreaterEqual
	default:
		panic("not a conditional branch kind")
	}
}
