package compile

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/arbiter/pkg/shim"
	"github.com/cuemby/arbiter/pkg/types"
)

type fakeExecutor struct {
	argv []string
	res  shim.Result
	err  error
}

func (f *fakeExecutor) ExecInside(ctx context.Context, argv []string, stdin string, timeout time.Duration, workdir string) (shim.Result, error) {
	f.argv = argv
	return f.res, f.err
}

func TestRunSucceedsAndReturnsOutput(t *testing.T) {
	f := &fakeExecutor{res: shim.Result{ExitCode: 0, Stdout: "built ok"}}
	result, err := Run(context.Background(), f, "runner", "g++ -O2 main.cpp -o main", 0)

	require.NoError(t, err)
	assert.True(t, result.Ran)
	assert.Equal(t, 0, result.ExitCode)
	assert.Equal(t, "built ok", result.Output)
	require.Len(t, f.argv, 3)
	assert.Contains(t, f.argv[2], "su - runner -c")
	assert.Contains(t, f.argv[2], "g++ -O2 main.cpp -o main")
}

func TestRunReportsNonzeroExitWithoutError(t *testing.T) {
	f := &fakeExecutor{res: shim.Result{ExitCode: 1, Stderr: "syntax error"}}
	result, err := Run(context.Background(), f, "runner", "gcc bad.c", 0)

	require.NoError(t, err)
	assert.True(t, result.Ran)
	assert.Equal(t, 1, result.ExitCode)
	assert.Contains(t, result.Output, "syntax error")
}

func TestRunSkippedWhenCommandEmpty(t *testing.T) {
	f := &fakeExecutor{}
	result, err := Run(context.Background(), f, "runner", "", 0)

	require.NoError(t, err)
	assert.False(t, result.Ran)
	assert.Nil(t, f.argv)
}

func TestRunReturnsCompileErrorOnSpawnFailure(t *testing.T) {
	f := &fakeExecutor{err: types.NewCMDError("spawn failed", nil)}
	_, err := Run(context.Background(), f, "runner", "gcc main.c", 0)

	require.Error(t, err)
	var compileErr *types.CompileError
	assert.ErrorAs(t, err, &compileErr)
}
