package upper_test

import (
	"testing"

	"github.com/mna/urbc/lang/ir/destructure"
	"github.com/mna/urbc/lang/ir/upper"
	"github.com/stretchr/testify/require"
)

func intExpr(v int64) *upper.Expr { return &upper.Expr{Kind: upper.EInt, Int: v} }

func TestLayerExpandLetReturn(t *testing.T) {
	l := upper.Layer{}
	idx := l.AddVar(upper.TInt)
	l.Body.Stmts = []upper.Stmnt{
		{Kind: upper.SLet, Index: idx, Expr: intExpr(7)},
		{Kind: upper.SReturn, Expr: &upper.Expr{Kind: upper.EVariable, Index: idx}},
	}
	dl := l.Expand()
	require.Len(t, dl.Vars, 1)
	require.Len(t, dl.Ops, 2)
	require.Equal(t, destructure.OpLet, dl.Ops[0].Kind)
	require.Equal(t, destructure.OpReturn, dl.Ops[1].Kind)
}

func TestIfExpandsBranches(t *testing.T) {
	l := upper.Layer{}
	cond := &upper.Cond{Kind: upper.CEqual, Left: intExpr(1), Right: intExpr(1)}
	l.Body.Stmts = []upper.Stmnt{
		{Kind: upper.SIf, Cond: cond, Block: &upper.Block{}},
	}
	dl := l.Expand()
	var kinds []destructure.OpKind
	for _, op := range dl.Ops {
		kinds = append(kinds, op.Kind)
	}
	require.Contains(t, kinds, destructure.OpBranchCoordIf)
	require.Contains(t, kinds, destructure.OpPutCoord)
}

func TestWhileExpandsLoopShape(t *testing.T) {
	l := upper.Layer{}
	cond := &upper.Cond{Kind: upper.CLess, Left: intExpr(1), Right: intExpr(2)}
	l.Body.Stmts = []upper.Stmnt{
		{Kind: upper.SWhile, Cond: cond, Block: &upper.Block{}},
	}
	dl := l.Expand()
	require.Equal(t, destructure.OpBranchCoord, dl.Ops[0].Kind)
	last := dl.Ops[len(dl.Ops)-2]
	require.Equal(t, destructure.OpBranchCoordIf, last.Kind)
}

func TestAndCondShortCircuits(t *testing.T) {
	l := upper.Layer{}
	left := &upper.Cond{Kind: upper.CEqual, Left: intExpr(1), Right: intExpr(1)}
	right := &upper.Cond{Kind: upper.CEqual, Left: intExpr(2), Right: intExpr(2)}
	cond := &upper.Cond{Kind: upper.CAnd, CLeft: left, CRight: right}
	l.Body.Stmts = []upper.Stmnt{
		{Kind: upper.SIf, Cond: cond, Block: &upper.Block{}},
	}
	dl := l.Expand()
	var branchIfCount int
	for _, op := range dl.Ops {
		if op.Kind == destructure.OpBranchCoordIf {
			branchIfCount++
		}
	}
	require.Equal(t, 2, branchIfCount)
}

func TestCompareTypeInverted(t *testing.T) {
	require.Equal(t, upper.CmpNotEqual, upper.CmpEqual.Inverted())
	require.Equal(t, upper.CmpGreaterEqual, upper.CmpLess.Inverted())
}
