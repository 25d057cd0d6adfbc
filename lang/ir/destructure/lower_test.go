package destructure_test

import (
	"testing"

	"github.com/kylelemons/godebug/pretty"
	"github.com/mna/urbc/lang/ir/destructure"
	"github.com/mna/urbc/lang/ir/lower"
	"github.com/stretchr/testify/require"
)

// opShape drops the Reg/Coord payload down to plain values so pretty.Compare
// can diff a lowered sequence without tripping over Reg's unexported field.
type opShape struct {
	Kind lower.Kind
	Dst  uint32
	Lhs  uint32
	Rhs  uint32
	Src  uint32
	ImmI int32
}

func shapeOps(ops []lower.Op) []opShape {
	out := make([]opShape, len(ops))
	for i, op := range ops {
		out[i] = opShape{Kind: op.Kind, Dst: op.Dst.Value(), Lhs: op.Lhs.Value(), Rhs: op.Rhs.Value(), Src: op.Src.Value(), ImmI: op.ImmI}
	}
	return out
}

func TestLowerAddImmediate(t *testing.T) {
	var l destructure.Layer
	idx := l.AddVar(destructure.VInt)
	l.Return(&destructure.Expr{
		Kind:  destructure.EAdd,
		Left:  &destructure.Expr{Kind: destructure.EVariable, Index: idx},
		Right: &destructure.Expr{Kind: destructure.EInt, Int: 2},
	})

	lowered, err := l.Lower()
	require.NoError(t, err)

	varReg := destructure.VarReg(idx).Value()
	scratch := varReg + 1 // first scratch register, right above the only variable
	want := []opShape{
		{Kind: lower.OpMove, Dst: scratch, Src: varReg},
		{Kind: lower.OpAddImmediate, Dst: scratch, Lhs: scratch, ImmI: 2},
		{Kind: lower.OpMove, Dst: destructure.ReturnReg.Value(), Src: scratch},
		{Kind: lower.OpReturn},
	}
	if diff := pretty.Compare(want, shapeOps(lowered.Ops)); diff != "" {
		t.Errorf("lowered op sequence mismatch (-want +got):\n%s", diff)
	}
}

func TestLowerCallShufflesArgWindow(t *testing.T) {
	var l destructure.Layer
	target := lower.Coord{Module: 0, Element: 1}
	l.Call(target, []destructure.Expr{
		{Kind: destructure.EInt, Int: 10},
		{Kind: destructure.EInt, Int: 20},
	})

	lowered, err := l.Lower()
	require.NoError(t, err)

	last := lowered.Ops[len(lowered.Ops)-1]
	require.Equal(t, lower.OpCall, last.Kind)
	require.Equal(t, target, last.Coord)

	var argMoveDsts []uint32
	for _, op := range lowered.Ops {
		if op.Kind == lower.OpMove && (op.Dst == destructure.ArgReg(0) || op.Dst == destructure.ArgReg(1)) {
			argMoveDsts = append(argMoveDsts, op.Dst.Value())
		}
	}
	require.Equal(t, []uint32{destructure.ArgReg(0).Value(), destructure.ArgReg(1).Value()}, argMoveDsts)
}

func TestLowerRejectsTooManyVars(t *testing.T) {
	var l destructure.Layer
	for i := 0; i < 26; i++ {
		l.AddVar(destructure.VInt)
	}
	_, err := l.Lower()
	require.Error(t, err)
}
