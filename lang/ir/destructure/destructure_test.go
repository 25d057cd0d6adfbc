package destructure_test

import (
	"testing"

	"github.com/mna/urbc/lang/ir/destructure"
	"github.com/stretchr/testify/require"
)

func TestAllocAndPutCoord(t *testing.T) {
	var l destructure.Layer
	c := l.AllocCoord()
	l.PutCoord(c)
	require.Len(t, l.Ops, 1)
	require.Equal(t, destructure.OpPutCoord, l.Ops[0].Kind)
	require.Equal(t, c, l.Ops[0].Coord)
}

func TestBranchIf(t *testing.T) {
	var l destructure.Layer
	c := l.AllocCoord()
	l.BranchIf(c, destructure.CmpEqual, destructure.Expr{Kind: destructure.EInt, Int: 1}, destructure.Expr{Kind: destructure.EInt, Int: 2})
	require.Len(t, l.Ops, 1)
	op := l.Ops[0]
	require.Equal(t, destructure.OpBranchCoordIf, op.Kind)
	require.Equal(t, destructure.CmpEqual, op.Cmp)
}

func TestLetAndAssign(t *testing.T) {
	var l destructure.Layer
	idx := l.AddVar(destructure.VInt)
	l.Let(idx, destructure.Expr{Kind: destructure.EInt, Int: 42})
	l.Assign(idx, destructure.Expr{Kind: destructure.EInt, Int: 43})
	require.Len(t, l.Ops, 2)
	require.Equal(t, destructure.OpLet, l.Ops[0].Kind)
	require.Equal(t, idx, l.Ops[0].Index)
	require.Equal(t, destructure.OpAssign, l.Ops[1].Kind)
}

func TestCoordsAreUnique(t *testing.T) {
	var l destructure.Layer
	a := l.AllocCoord()
	b := l.AllocCoord()
	require.NotEqual(t, a, b)
}
