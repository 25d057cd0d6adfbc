package disasm_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/mna/urbc/lang/asm"
	"github.com/mna/urbc/lang/disasm"
	"github.com/mna/urbc/lang/ir/lower"
	"github.com/stretchr/testify/require"
)

func TestDisassembleRoundTrip(t *testing.T) {
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
						{Kind: lower.OpMoveSignedImmediate, Dst: r0, ImmI: 7},
						{Kind: lower.OpHalt},
					},
				}},
			},
		},
	}

	var buf bytes.Buffer
	om, err := asm.Assemble(modules, lower.Coord{Module: 0, Element: 0}, &buf)
	require.NoError(t, err)

	listing, err := disasm.Disassemble(bytes.NewReader(buf.Bytes()), om)
	require.NoError(t, err)
	require.Len(t, listing.Statics, 1)
	require.Len(t, listing.Funcs, 1)
	require.Len(t, listing.Funcs[0].Insns, 2)

	var text bytes.Buffer
	require.NoError(t, listing.WriteText(&text))
	out := text.String()
	require.True(t, strings.Contains(out, "entrypoint:"))
	require.True(t, strings.Contains(out, "mod0.func0:"))
	require.True(t, strings.Contains(out, "; entrypoint"))
}

func TestReadHeaderRejectsBadMagic(t *testing.T) {
	buf := make([]byte, asm.HeaderSize)
	_, err := disasm.ReadHeader(bytes.NewReader(buf))
	require.Error(t, err)
}
