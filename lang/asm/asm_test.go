package asm_test

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/mna/urbc/lang/asm"
	"github.com/mna/urbc/lang/ir/lower"
	"github.com/stretchr/testify/require"
)

func TestAssembleHeaderAndHalt(t *testing.T) {
	r0 := lower.MustReg(0)
	modules := []asm.Module{
		{
			Name: "main",
			Funcs: []asm.Func{
				{Name: "main", Used: true, Layer: &lower.Layer{
					Ops: []lower.Op{
						{Kind: lower.OpMoveImmediate, Dst: r0, ImmU: 7},
						{Kind: lower.OpHalt},
					},
				}},
			},
		},
	}

	var buf bytes.Buffer
	om, err := asm.Assemble(modules, lower.Coord{Module: 0, Element: 0}, &buf)
	require.NoError(t, err)

	out := buf.Bytes()
	require.Equal(t, asm.Magic[:], out[0:4])
	require.Len(t, out, 16+8) // header + 2 ops
	require.Contains(t, om.FuncOffsets, lower.Coord{Module: 0, Element: 0})
}

func TestAssembleUnreachableMainErrors(t *testing.T) {
	modules := []asm.Module{{Name: "main", Funcs: []asm.Func{
		{Name: "main", Used: false, Layer: &lower.Layer{}},
	}}}
	var buf bytes.Buffer
	_, err := asm.Assemble(modules, lower.Coord{Module: 0, Element: 0}, &buf)
	require.Error(t, err)
}

func TestAssembleStaticLayout(t *testing.T) {
	r0 := lower.MustReg(0)
	modules := []asm.Module{
		{
			Name: "main",
			Statics: []asm.Static{
				{Name: "x", Used: true, Value: lower.BinaryStatic{Kind: lower.StaticInt, Int: 42}},
			},
			Funcs: []asm.Func{
				{Name: "main", Used: true, Layer: &lower.Layer{
					Ops: []lower.Op{
						{Kind: lower.OpLoadStatic64, Dst: r0, Coord: lower.Coord{Module: 0, Element: 0}},
						{Kind: lower.OpReturn},
					},
				}},
			},
		},
	}
	var buf bytes.Buffer
	om, err := asm.Assemble(modules, lower.Coord{Module: 0, Element: 0}, &buf)
	require.NoError(t, err)
	require.Equal(t, uint64(16), om.StaticOffsets[lower.Coord{Module: 0, Element: 0}])
	require.Equal(t, uint64(24), om.FuncOffsets[lower.Coord{Module: 0, Element: 0}])
}

func TestWriteOffsetMapYAML(t *testing.T) {
	om := &asm.OffsetMap{
		StaticOffsets: map[lower.Coord]uint64{{Module: 0, Element: 1}: 16, {Module: 0, Element: 0}: 24},
		FuncOffsets:   map[lower.Coord]uint64{{Module: 0, Element: 0}: 32},
	}
	var buf bytes.Buffer
	require.NoError(t, om.WriteYAML(&buf))
	require.Contains(t, buf.String(), "statics:")
	require.Contains(t, buf.String(), "address: 16")
}

func TestAssembleBranchCoordOffset(t *testing.T) {
	modules := []asm.Module{
		{
			Name: "main",
			Funcs: []asm.Func{
				{Name: "main", Used: true, Layer: &lower.Layer{
					Ops: []lower.Op{
						{Kind: lower.OpBranchCoord, BranchCoord: 0},
						{Kind: lower.OpPutCoord, BranchCoord: 0},
						{Kind: lower.OpHalt},
					},
				}},
			},
		},
	}
	var buf bytes.Buffer
	_, err := asm.Assemble(modules, lower.Coord{Module: 0, Element: 0}, &buf)
	require.NoError(t, err)
	out := buf.Bytes()
	require.Len(t, out, 16+8)
	// branch at 16, bound coordinate at 20: a one-word forward offset
	require.EqualValues(t, 1, binary.LittleEndian.Uint32(out[16:20])&(1<<27-1))
}
