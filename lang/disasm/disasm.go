// Package disasm reads a .urb image back into a human-readable listing.
// It shares lang/isa's opcode tags with lang/asm (the encoder) so the two
// can never drift apart (spec.md section 4.8). Without an accompanying
// offset map a disassembler cannot tell static data from code by sight
// alone; this package relies on the optional offset-map YAML lang/asm
// writes alongside the binary to split the body into per-function code
// regions and per-static data regions before decoding.
package disasm

import (
	"encoding/binary"
	"fmt"
	"io"
	"sort"

	"github.com/mna/urbc/lang/asm"
	"github.com/mna/urbc/lang/ir/lower"
)

// Header is the parsed 16-byte .urb file header.
type Header struct {
	Flags      uint32
	Entrypoint uint64
}

// ReadHeader validates the magic signature and parses the fixed header.
func ReadHeader(r io.Reader) (Header, error) {
	var buf [asm.HeaderSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return Header{}, fmt.Errorf("disasm: read header: %w", err)
	}
	if buf[0] != asm.Magic[0] || buf[1] != asm.Magic[1] || buf[2] != asm.Magic[2] || buf[3] != asm.Magic[3] {
		return Header{}, fmt.Errorf("disasm: bad magic %v, want %v", buf[0:4], asm.Magic)
	}
	return Header{
		Flags:      binary.LittleEndian.Uint32(buf[4:8]),
		Entrypoint: binary.LittleEndian.Uint64(buf[8:16]),
	}, nil
}

// StaticListing is one static's resolved address and byte length; its
// bytes are not further decoded (spec.md's disassembler is instruction
// level only).
type StaticListing struct {
	Coord lower.Coord
	Addr  uint64
	Size  uint64
}

// FuncListing is one function's resolved address and decoded instructions.
type FuncListing struct {
	Coord lower.Coord
	Addr  uint64
	Insns []Instruction
}

// Listing is a complete disassembly of one .urb image.
type Listing struct {
	Header  Header
	Statics []StaticListing
	Funcs   []FuncListing
}

type addrCoord struct {
	addr  uint64
	coord lower.Coord
}

func sortedAddrCoords(m map[lower.Coord]uint64) []addrCoord {
	out := make([]addrCoord, 0, len(m))
	for c, a := range m {
		out = append(out, addrCoord{addr: a, coord: c})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].addr < out[j].addr })
	return out
}

// Disassemble reads a full .urb image from r and decodes it into a
// Listing, using om (as produced by asm.Assemble/lang.asm.ReadYAML) to find
// each static's and function's start address; region lengths are derived
// from the next higher start address, or end-of-file for the last region.
// lang/asm always lays out every static before every function, so statics
// occupy the front of the body and functions occupy the tail.
func Disassemble(r io.Reader, om *asm.OffsetMap) (Listing, error) {
	hdr, err := ReadHeader(r)
	if err != nil {
		return Listing{}, err
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return Listing{}, fmt.Errorf("disasm: read body: %w", err)
	}
	fileEnd := uint64(len(body)) + asm.HeaderSize

	statics := sortedAddrCoords(om.StaticOffsets)
	funcs := sortedAddrCoords(om.FuncOffsets)

	listing := Listing{Header: hdr}
	for i, s := range statics {
		next := fileEnd
		switch {
		case i+1 < len(statics):
			next = statics[i+1].addr
		case len(funcs) > 0:
			next = funcs[0].addr
		}
		listing.Statics = append(listing.Statics, StaticListing{Coord: s.coord, Addr: s.addr, Size: next - s.addr})
	}
	for i, fn := range funcs {
		next := fileEnd
		if i+1 < len(funcs) {
			next = funcs[i+1].addr
		}
		if next < fn.addr || (next-fn.addr)%4 != 0 {
			return Listing{}, fmt.Errorf("disasm: func at %#x has non-word-aligned length %d", fn.addr, next-fn.addr)
		}
		insns := make([]Instruction, 0, (next-fn.addr)/4)
		for addr := fn.addr; addr < next; addr += 4 {
			off := addr - asm.HeaderSize
			if off+4 > uint64(len(body)) {
				return Listing{}, fmt.Errorf("disasm: func at %#x runs past end of file", fn.addr)
			}
			word := binary.LittleEndian.Uint32(body[off : off+4])
			insns = append(insns, Decode(word, addr))
		}
		listing.Funcs = append(listing.Funcs, FuncListing{Coord: fn.coord, Addr: fn.addr, Insns: insns})
	}
	return listing, nil
}

// WriteText renders l as a plain-text listing: one function per block,
// one instruction per line, statics summarized as an address/size table.
func (l Listing) WriteText(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "entrypoint: %#08x\n", l.Header.Entrypoint); err != nil {
		return err
	}
	if len(l.Statics) > 0 {
		if _, err := fmt.Fprintln(w, "statics:"); err != nil {
			return err
		}
		for _, s := range l.Statics {
			if _, err := fmt.Fprintf(w, "  mod%d.static%d  %#08x  %d bytes\n", s.Coord.Module, s.Coord.Element, s.Addr, s.Size); err != nil {
				return err
			}
		}
	}
	for _, fn := range l.Funcs {
		if _, err := fmt.Fprintf(w, "mod%d.func%d:\n", fn.Coord.Module, fn.Coord.Element); err != nil {
			return err
		}
		for _, insn := range fn.Insns {
			line := fmt.Sprintf("  %#08x  %s", insn.Addr, insn.String())
			if insn.Addr == l.Header.Entrypoint {
				line += "  ; entrypoint"
			}
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
	}
	return nil
}
