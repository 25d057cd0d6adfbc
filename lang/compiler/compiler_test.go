package compiler_test

import (
	"testing"

	"github.com/mna/urbc/lang/ast"
	"github.com/mna/urbc/lang/cerr"
	"github.com/mna/urbc/lang/compiler"
	"github.com/mna/urbc/lang/ir/lower"
	"github.com/stretchr/testify/require"
)

// stubDialect is a minimal Dialect test double: every module gets a single
// "main" func whose body is a bare Halt, regardless of its source forms.
type stubDialect struct{}

func init() {
	compiler.RegisterDialect("stub", func() compiler.Dialect { return stubDialect{} })
}

func (stubDialect) Collect(task *compiler.CompileTask, moduleIndex int, forms []ast.Node) *cerr.Error {
	mod := task.Modules[moduleIndex]
	mod.AddFunc(compiler.Func{Name: "main"})
	return nil
}

func (stubDialect) CompileModule(task *compiler.CompileTask, moduleIndex int) *cerr.Error {
	mod := task.Modules[moduleIndex]
	for i := range mod.Funcs {
		mod.Funcs[i].Data.Intermediary = &lower.Layer{Ops: []lower.Op{{Kind: lower.OpHalt}}}
	}
	return nil
}

func (stubDialect) LookupCallable(task *compiler.CompileTask, moduleIndex int, name string) (lower.Coord, bool) {
	mod := task.Modules[moduleIndex]
	idx, ok := mod.FuncIndices[name]
	if !ok {
		return lower.Coord{}, false
	}
	return lower.Coord{Module: moduleIndex, Element: idx}, true
}

func toErr(err *cerr.Error) error {
	if err == nil {
		return nil
	}
	return err
}

func TestIncludeCompileFilter(t *testing.T) {
	task := compiler.NewCompileTask()
	require.NoError(t, toErr(task.Include("main.urbs", "(mod stub)\n")))
	require.Equal(t, compiler.StatusOpen, task.Status)

	require.NoError(t, toErr(task.Compile()))
	require.Equal(t, compiler.StatusCompiled, task.Status)

	task.Filter()
	require.Equal(t, compiler.StatusFiltered, task.Status)
	require.True(t, task.Modules[0].Funcs[0].Used)
}

func TestIncludeDuplicateModule(t *testing.T) {
	task := compiler.NewCompileTask()
	require.NoError(t, toErr(task.Include("main.urbs", "(mod stub)\n")))
	err := task.Include("main.urbs", "(mod stub)\n")
	require.Error(t, toErr(err))
	require.Equal(t, cerr.KindDuplicateModule, err.Kind)
}

func TestIncludeUnknownDialect(t *testing.T) {
	task := compiler.NewCompileTask()
	err := task.Include("main.urbs", "(mod nope)\n")
	require.Error(t, toErr(err))
	require.Equal(t, cerr.KindUnknownModuleDialect, err.Kind)
}

func TestIncludeEmptyModule(t *testing.T) {
	task := compiler.NewCompileTask()
	err := task.Include("empty.urbs", "")
	require.Error(t, toErr(err))
	require.Equal(t, cerr.KindEmptyModule, err.Kind)
}

func TestCompileNoMain(t *testing.T) {
	task := compiler.NewCompileTask()
	require.NoError(t, toErr(task.Include("other.urbs", "(mod stub)\n")))
	err := task.Compile()
	require.Error(t, toErr(err))
	require.Equal(t, cerr.KindNoMainFound, err.Kind)
}
