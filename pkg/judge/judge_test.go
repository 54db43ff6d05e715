package judge

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/arbiter/pkg/compile"
	"github.com/cuemby/arbiter/pkg/types"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

// writeFixture lays out a <root>/input and <root>/output tree with n test
// cases whose expected output is "<stdout>" (the literal synthesized
// stdout a dry-run Shim invocation always returns), so a Session run in
// DryRun mode naturally produces AC without a live container.
func writeFixture(t *testing.T, n int, expected func(i int) string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "input"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "output"), 0o755))
	for i := 1; i <= n; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "input", "input"+itoa(i)+".txt"), []byte("in"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "output", "output"+itoa(i)+".txt"), []byte(expected(i)), 0o644))
	}
	return dir
}

func itoa(i int) string {
	return string(rune('0' + i))
}

func testConfig(srcDir string) types.Config {
	return types.Config{
		DockerImage:      "judge-image:latest",
		ContainerUser:    "root",
		NonRootUser:      "runner",
		HostSrcDir:       srcDir,
		ContainerWorkDir: types.DefaultContainerWorkDir,
		ContainerName:    "judge-test-session",
		Constraints: types.Constraints{
			TimeLimitSeconds:  2,
			MemoryLimitMB:     256,
			MemorySwapLimitMB: 64,
			CPUQuota:          100000,
			CPUPeriod:         100000,
		},
		DryRun: true,
	}
}

func TestSessionOpenCompileRunCloseInDryRun(t *testing.T) {
	dir := writeFixture(t, 2, func(i int) string { return "<stdout>" })
	cfg := testConfig(dir)
	hooks := TemplateHooks{Compile: "g++ {workdir}/main.cpp", Run: "{workdir}/a.out"}
	s := NewSession(cfg, hooks, io.Discard, testLogger())

	require.NoError(t, s.Open(context.Background()))
	_, err := s.Compile(context.Background())
	require.NoError(t, err)

	it, err := s.Run(context.Background(), RunOptions{})
	require.NoError(t, err)

	count := 0
	for it.Next(context.Background()) {
		count++
		assert.Equal(t, types.AC, it.Result().Verdict)
	}
	require.NoError(t, it.Err())
	assert.Equal(t, 2, count)

	require.NoError(t, s.Close(context.Background()))
}

func TestSessionRunProducesWAOnMismatch(t *testing.T) {
	dir := writeFixture(t, 1, func(i int) string { return "something else entirely" })
	cfg := testConfig(dir)
	hooks := TemplateHooks{Run: "{workdir}/a.out"}
	cfg.DisableCompile = true
	s := NewSession(cfg, hooks, io.Discard, testLogger())

	require.NoError(t, s.Open(context.Background()))
	_, err := s.Compile(context.Background())
	require.NoError(t, err)

	it, err := s.Run(context.Background(), RunOptions{})
	require.NoError(t, err)

	require.True(t, it.Next(context.Background()))
	assert.Equal(t, types.WA, it.Result().Verdict)
	require.False(t, it.Next(context.Background()))
}

func TestResultIteratorEarlyExitStopsAfterNonAC(t *testing.T) {
	dir := writeFixture(t, 3, func(i int) string {
		if i == 1 {
			return "<stdout>"
		}
		return "mismatch"
	})
	cfg := testConfig(dir)
	cfg.EarlyExit = true
	cfg.DisableCompile = true
	hooks := TemplateHooks{Run: "{workdir}/a.out"}
	s := NewSession(cfg, hooks, io.Discard, testLogger())

	require.NoError(t, s.Open(context.Background()))
	it, err := s.Run(context.Background(), RunOptions{})
	require.NoError(t, err)

	var verdicts []types.Verdict
	for it.Next(context.Background()) {
		verdicts = append(verdicts, it.Result().Verdict)
	}
	assert.Equal(t, []types.Verdict{types.AC, types.WA}, verdicts)
}

func TestCompilationErrorResultCarriesCompilerOutput(t *testing.T) {
	dir := writeFixture(t, 2, func(i int) string { return "<stdout>" })
	cfg := testConfig(dir)
	s := NewSession(cfg, TemplateHooks{}, io.Discard, testLogger())
	s.compileResult = compile.Result{Ran: true, ExitCode: 1, Output: "main.cpp:3: error: expected ';'"}

	it := &ResultIterator{session: s, cases: []types.TestCase{{Index: 1}, {Index: 2}}, compileFailed: true}

	require.True(t, it.Next(context.Background()))
	assert.Equal(t, types.CE, it.Result().Verdict)
	assert.Contains(t, it.Result().VerdictDetails, "expected ';'")

	require.True(t, it.Next(context.Background()))
	assert.Equal(t, types.CE, it.Result().Verdict)
}

func TestLazyContainerDefersCreation(t *testing.T) {
	dir := writeFixture(t, 1, func(i int) string { return "<stdout>" })
	cfg := testConfig(dir)
	cfg.LazyContainer = true
	s := NewSession(cfg, TemplateHooks{Run: "{workdir}/a.out"}, io.Discard, testLogger())

	require.NoError(t, s.Open(context.Background()))
	assert.False(t, s.containerUp)

	_, err := s.Run(context.Background(), RunOptions{})
	require.NoError(t, err)
	assert.True(t, s.containerUp)
}
