package code_test

import (
	"testing"

	_ "github.com/mna/urbc/lang/compiler/dialect/code"

	"github.com/mna/urbc/lang/cerr"
	"github.com/mna/urbc/lang/compiler"
	"github.com/mna/urbc/lang/ir/destructure"
	"github.com/mna/urbc/lang/ir/lower"
	"github.com/stretchr/testify/require"
)

func toErr(err *cerr.Error) error {
	if err == nil {
		return nil
	}
	return err
}

func TestReturnLiteral(t *testing.T) {
	task := compiler.NewCompileTask()
	src := "(mod code)\n(fn main [] 7)\n"
	require.NoError(t, toErr(task.Include("main.urbs", src)))
	require.NoError(t, toErr(task.Compile()))

	fn := task.Modules[0].Funcs[0]
	ops := fn.Data.Intermediary.Ops
	require.Equal(t, lower.OpMoveSignedImmediate, ops[0].Kind)
	require.Equal(t, lower.OpMove, ops[1].Kind)
	require.Equal(t, lower.OpReturn, ops[2].Kind)
}

func TestLetAddParamsReturn(t *testing.T) {
	task := compiler.NewCompileTask()
	src := "(mod code)\n" +
		"(fn! add [:a int :b int] int (do\n" +
		"  (let sum int (+ a b))\n" +
		"  (return sum)))\n"
	require.NoError(t, toErr(task.Include("main.urbs", src)))
	require.NoError(t, toErr(task.Compile()))

	fn := task.Modules[0].Funcs[0]
	require.True(t, fn.Public)
	require.Len(t, fn.Params, 2)

	ops := fn.Data.Intermediary.Ops
	// prologue: move arg window into a's and b's variable registers
	require.Equal(t, lower.OpMove, ops[0].Kind)
	require.Equal(t, destructure.VarReg(0), ops[0].Dst)
	require.Equal(t, destructure.ArgReg(0), ops[0].Src)
	require.Equal(t, lower.OpMove, ops[1].Kind)
	require.Equal(t, destructure.VarReg(1), ops[1].Dst)
	require.Equal(t, destructure.ArgReg(1), ops[1].Src)

	// a and b are copied into scratch registers and added there
	require.Equal(t, lower.OpAdd, ops[4].Kind)
	require.Equal(t, lower.OpReturn, ops[len(ops)-1].Kind)
}

func TestIfNoElseBranch(t *testing.T) {
	task := compiler.NewCompileTask()
	src := "(mod code)\n" +
		"(fn main [] (do\n" +
		"  (if (< 1 2) (return 1))\n" +
		"  (return 0)))\n"
	require.NoError(t, toErr(task.Include("main.urbs", src)))
	require.NoError(t, toErr(task.Compile()))

	ops := task.Modules[0].Funcs[0].Data.Intermediary.Ops
	var sawBranchIf, sawPutCoord bool
	for _, op := range ops {
		switch op.Kind {
		case lower.OpBranchCoordGreaterEqual: // inverted (< 1 2): skips the then-block
			sawBranchIf = true
		case lower.OpPutCoord:
			sawPutCoord = true
		}
	}
	require.True(t, sawBranchIf)
	require.True(t, sawPutCoord)
}

func TestWhileLoop(t *testing.T) {
	task := compiler.NewCompileTask()
	src := "(mod code)\n" +
		"(fn main [] (do\n" +
		"  (let i int 0)\n" +
		"  (while (< i 10) (set i (+ i 1)))\n" +
		"  (return i)))\n"
	require.NoError(t, toErr(task.Include("main.urbs", src)))
	require.NoError(t, toErr(task.Compile()))

	ops := task.Modules[0].Funcs[0].Data.Intermediary.Ops
	// ops[0..1] lower (let i int 0); the loop opens with a jump to its check
	require.Equal(t, lower.OpBranchCoord, ops[2].Kind)
}

func TestStaticLoad(t *testing.T) {
	task := compiler.NewCompileTask()
	src := "(mod code)\n(static x 42)\n(fn main [] x)\n"
	require.NoError(t, toErr(task.Include("main.urbs", src)))
	require.NoError(t, toErr(task.Compile()))

	ops := task.Modules[0].Funcs[0].Data.Intermediary.Ops
	require.Equal(t, lower.OpLoadStatic64, ops[0].Kind)
}

func TestCrossModuleCallStatementOnly(t *testing.T) {
	task := compiler.NewCompileTask()
	require.NoError(t, toErr(task.Include("mathlib.urbs", "(mod code)\n(fn! double [:n int] int (return (* n 2)))\n")))
	require.NoError(t, toErr(task.Include("main.urbs", "(mod code)\n(use mathlib)\n(fn main [] (do (double 21) (return 0)))\n")))
	require.NoError(t, toErr(task.Compile()))

	mainFn := task.Modules[1].Funcs[0]
	var sawCall bool
	for _, op := range mainFn.Data.Intermediary.Ops {
		if op.Kind == lower.OpCall {
			sawCall = true
			require.Equal(t, lower.Coord{Module: 0, Element: 0}, op.Coord)
		}
	}
	require.True(t, sawCall)
}

func TestCallArityMismatchErrors(t *testing.T) {
	task := compiler.NewCompileTask()
	src := "(mod code)\n(fn! add [:a int :b int] int (return (+ a b)))\n(fn main [] (do (add 1) (return 0)))\n"
	require.NoError(t, toErr(task.Include("main.urbs", src)))
	err := task.Compile()
	require.Error(t, toErr(err))
	require.Equal(t, cerr.KindInvalidCallSignature, err.Kind)
}

func TestUnknownCalleeErrors(t *testing.T) {
	task := compiler.NewCompileTask()
	src := "(mod code)\n(fn main [] (do (nope) (return 0)))\n"
	require.NoError(t, toErr(task.Include("main.urbs", src)))
	err := task.Compile()
	require.Error(t, toErr(err))
	require.Equal(t, cerr.KindUnknownFunc, err.Kind)
}

func TestTooManyParamsRejected(t *testing.T) {
	task := compiler.NewCompileTask()
	src := "(mod code)\n(fn main [:a int :b int :c int :d int :e int :f int :g int] (return a))\n"
	err := task.Include("main.urbs", src)
	require.Error(t, toErr(err))
	require.Equal(t, cerr.KindInvalidParams, err.Kind)
}
