package assembly_test

import (
	"testing"

	_ "github.com/mna/urbc/lang/compiler/dialect/assembly"

	"github.com/mna/urbc/lang/cerr"
	"github.com/mna/urbc/lang/compiler"
	"github.com/mna/urbc/lang/ir/lower"
	"github.com/stretchr/testify/require"
)

func TestLiteralLabelReturnsImmediate(t *testing.T) {
	task := compiler.NewCompileTask()
	require.NoError(t, toErr(task.Include("main.urbs", "(mod assembly)\n(+label main 7)\n")))
	require.NoError(t, toErr(task.Compile()))

	fn := task.Modules[0].Funcs[0]
	require.Len(t, fn.Data.Intermediary.Ops, 2)
	require.Equal(t, lower.OpMoveSignedImmediate, fn.Data.Intermediary.Ops[0].Kind)
	require.Equal(t, lower.OpReturn, fn.Data.Intermediary.Ops[1].Kind)
}

func TestStaticLoadByName(t *testing.T) {
	task := compiler.NewCompileTask()
	src := "(mod assembly)\n(static x 42)\n(+label main x)\n"
	require.NoError(t, toErr(task.Include("main.urbs", src)))
	require.NoError(t, toErr(task.Compile()))

	fn := task.Modules[0].Funcs[0]
	require.Equal(t, lower.OpLoadStatic64, fn.Data.Intermediary.Ops[0].Kind)
	require.Equal(t, lower.Coord{Module: 0, Element: 0}, fn.Data.Intermediary.Ops[0].Coord)
}

func TestBufferStaticFunc(t *testing.T) {
	task := compiler.NewCompileTask()
	src := "(mod assembly)\n(static buf (static-func buffer 16))\n(+label main (do (lea r1 buf) (halt)))\n"
	require.NoError(t, toErr(task.Include("main.urbs", src)))
	require.NoError(t, toErr(task.Compile()))

	mod := task.Modules[0]
	require.Equal(t, lower.StaticBuffer, mod.Statics[0].Data.Intermediary.Kind)
	require.EqualValues(t, 16, mod.Statics[0].Data.Intermediary.BufSize)

	ops := mod.Funcs[0].Data.Intermediary.Ops
	require.Equal(t, lower.OpLoadStaticAddress, ops[0].Kind)
	require.Equal(t, lower.OpHalt, ops[1].Kind)
}

func TestBufferStaticFuncRejectsZeroSize(t *testing.T) {
	task := compiler.NewCompileTask()
	src := "(mod assembly)\n(static buf (static-func buffer 0))\n(+label main (halt))\n"
	require.NoError(t, toErr(task.Include("main.urbs", src)))
	err := task.Compile()
	require.Error(t, toErr(err))
}

func TestWhileLoopShape(t *testing.T) {
	task := compiler.NewCompileTask()
	src := "(mod assembly)\n(+label main (do (movi r0 0) (while != r0 (do (addi r0 r0 1))) (halt)))\n"
	require.NoError(t, toErr(task.Include("main.urbs", src)))
	require.NoError(t, toErr(task.Compile()))

	ops := task.Modules[0].Funcs[0].Data.Intermediary.Ops
	var kinds []lower.Kind
	for _, op := range ops {
		kinds = append(kinds, op.Kind)
	}
	require.Contains(t, kinds, lower.OpBranchCoord)
	require.Contains(t, kinds, lower.OpBranchCoordNonEqual)
	require.Contains(t, kinds, lower.OpPutCoord)
}

func TestCrossModuleCall(t *testing.T) {
	task := compiler.NewCompileTask()
	require.NoError(t, toErr(task.Include("helper.urbs", "(mod assembly)\n(+label add1 (do (addi r0 r0 1) (ret)))\n")))
	require.NoError(t, toErr(task.Include("main.urbs", "(mod assembly)\n(use helper)\n(+label main (do (helper/add1) (halt)))\n")))
	require.NoError(t, toErr(task.Compile()))
	task.Filter()

	helper := findModule(task, "helper")
	require.True(t, helper.Funcs[0].Used)

	mainFn := findModule(task, "main").Funcs[0]
	require.Equal(t, lower.OpCall, mainFn.Data.Intermediary.Ops[0].Kind)
}

func TestUnknownFuncCallErrors(t *testing.T) {
	task := compiler.NewCompileTask()
	require.NoError(t, toErr(task.Include("main.urbs", "(mod assembly)\n(+label main (nope))\n")))
	require.Error(t, toErr(task.Compile()))
}

func TestOversizedLabelLiteralSpillsToLocal(t *testing.T) {
	task := compiler.NewCompileTask()
	// 8388608 is 0x0080_0000, past the 22-bit signed immediate field, so the
	// literal must escape into the function's own locals instead of being
	// folded into a move-immediate.
	require.NoError(t, toErr(task.Include("main.urbs", "(mod assembly)\n(+label main 8388608)\n")))
	require.NoError(t, toErr(task.Compile()))

	fn := task.Modules[0].Funcs[0]
	ops := fn.Data.Intermediary.Ops
	require.Len(t, ops, 2)
	require.Equal(t, lower.OpLoadLocalStatic64, ops[0].Kind)
	require.EqualValues(t, 0, ops[0].LocalCoord)
	require.Equal(t, lower.OpReturn, ops[1].Kind)

	require.Len(t, fn.Data.Intermediary.Locals, 1)
	require.Equal(t, lower.StaticInt, fn.Data.Intermediary.Locals[0].Kind)
	require.EqualValues(t, 8388608, fn.Data.Intermediary.Locals[0].Int)
}

func TestAddImmediateRejectsOutOfRangeOperand(t *testing.T) {
	task := compiler.NewCompileTask()
	// 131072 (2^17) overflows the L0 ALU-imm field's unsigned 17-bit range
	// (0..131071).
	src := "(mod assembly)\n(+label main (do (addi r0 r1 131072) (ret)))\n"
	require.NoError(t, toErr(task.Include("main.urbs", src)))
	err := task.Compile()
	require.Error(t, toErr(err))
	require.Equal(t, cerr.KindNotInSizeRange, err.Kind)
	require.True(t, err.Range.HasMin)
	require.True(t, err.Range.HasMax)
	require.EqualValues(t, 0, err.Range.Min)
	require.EqualValues(t, 131071, err.Range.Max)
}

func findModule(task *compiler.CompileTask, name string) *compiler.Module {
	for _, m := range task.Modules {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// toErr adapts *cerr.Error (a typed-nil pitfall when assigned directly to
// an error interface) to a plain nil-safe error for require's helpers.
func toErr(err *cerr.Error) error {
	if err == nil {
		return nil
	}
	return err
}
