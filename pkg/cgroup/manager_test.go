package cgroup

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/arbiter/pkg/shim"
	"github.com/cuemby/arbiter/pkg/types"
)

// fakeExecutor replays canned responses keyed by a substring match against
// the rendered script, so tests exercise the exact commands Manager issues
// without needing a live container.
type fakeExecutor struct {
	scripts  []string
	response func(script string) shim.Result
}

func (f *fakeExecutor) ExecInside(ctx context.Context, argv []string, stdin string, timeout time.Duration, workdir string) (shim.Result, error) {
	script := argv[len(argv)-1]
	f.scripts = append(f.scripts, script)
	if f.response != nil {
		return f.response(script), nil
	}
	return shim.Result{ExitCode: 0}, nil
}

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func constraints() types.Constraints {
	return types.Constraints{
		TimeLimitSeconds:  2,
		MemoryLimitMB:     256,
		MemorySwapLimitMB: 64,
		CPUQuota:          100000,
		CPUPeriod:         100000,
	}
}

func TestPrepareRunsStepsInOrder(t *testing.T) {
	f := &fakeExecutor{response: func(script string) shim.Result {
		switch {
		case strings.Contains(script, "mounts"):
			return shim.Result{ExitCode: 0, Stdout: "cgroup2 /sys/fs/cgroup cgroup2 rw 0 0"}
		case strings.Contains(script, "cgroup.controllers"):
			return shim.Result{ExitCode: 0, Stdout: "cpu io memory pids\n"}
		case strings.Contains(script, "cgroup.subtree_control"):
			return shim.Result{ExitCode: 0, Stdout: "cpu memory\n"}
		default:
			return shim.Result{ExitCode: 0}
		}
	}}
	m := New(f, constraints(), testLogger())

	require.NoError(t, m.Prepare(context.Background()))
	require.Len(t, f.scripts, 6)
	assert.Contains(t, f.scripts[0], "cgroup2")
	assert.Contains(t, f.scripts[1], "mkdir -p /sys/fs/cgroup/parent")
	assert.Contains(t, f.scripts[2], "cgroup.procs")
	assert.Contains(t, f.scripts[3], "cgroup.controllers")
	assert.Contains(t, f.scripts[4], "subtree_control")
}

func TestPrepareFailsWhenCgroup2NotMounted(t *testing.T) {
	f := &fakeExecutor{response: func(script string) shim.Result {
		return shim.Result{ExitCode: 1}
	}}
	m := New(f, constraints(), testLogger())

	err := m.Prepare(context.Background())
	require.Error(t, err)
	var mountErr *types.CgroupMountError
	assert.ErrorAs(t, err, &mountErr)
}

func TestPrepareFailsWhenControllersMissing(t *testing.T) {
	f := &fakeExecutor{response: func(script string) shim.Result {
		switch {
		case strings.Contains(script, "mounts"):
			return shim.Result{ExitCode: 0, Stdout: "cgroup2 /sys/fs/cgroup cgroup2 rw 0 0"}
		case strings.Contains(script, "cgroup.controllers"):
			return shim.Result{ExitCode: 0, Stdout: "io pids\n"}
		default:
			return shim.Result{ExitCode: 0}
		}
	}}
	m := New(f, constraints(), testLogger())

	err := m.Prepare(context.Background())
	require.Error(t, err)
	var ctrlErr *types.CgroupControllerError
	assert.ErrorAs(t, err, &ctrlErr)
}

func TestSetLimitsWritesAllThreeFiles(t *testing.T) {
	f := &fakeExecutor{}
	m := New(f, constraints(), testLogger())

	require.NoError(t, m.SetLimits(context.Background(), "test1"))
	require.Len(t, f.scripts, 1)
	script := f.scripts[0]
	assert.Contains(t, script, "memory.max")
	assert.Contains(t, script, "memory.swap.max")
	assert.Contains(t, script, "cpu.max")
	assert.Contains(t, script, "268435456")
	assert.Contains(t, script, "100000 100000")
}

func TestCreateChildUsesSiblingPath(t *testing.T) {
	f := &fakeExecutor{}
	m := New(f, constraints(), testLogger())

	require.NoError(t, m.CreateChild(context.Background(), "test3"))
	assert.Contains(t, f.scripts[0], "/sys/fs/cgroup/test3")
	assert.NotContains(t, f.scripts[0], "/sys/fs/cgroup/parent/test3")
}

func TestReadStatsParsesAllCounters(t *testing.T) {
	f := &fakeExecutor{response: func(script string) shim.Result {
		switch {
		case strings.Contains(script, "memory.peak"):
			return shim.Result{ExitCode: 0, Stdout: "134217728\n"}
		case strings.Contains(script, "memory.events"):
			return shim.Result{ExitCode: 0, Stdout: "low 0\nhigh 0\nmax 1\noom 1\noom_kill 1\noom_group_kill 0\n"}
		case strings.Contains(script, "cpu.stat"):
			return shim.Result{ExitCode: 0, Stdout: "usage_usec 500000\nuser_usec 400000\nsystem_usec 100000\nnr_periods 5\nnr_throttled 2\nthrottled_usec 3000\nnr_bursts 0\nburst_usec 0\n"}
		case strings.Contains(script, "pids.peak"):
			return shim.Result{ExitCode: 0, Stdout: "4\n"}
		default:
			return shim.Result{ExitCode: 0}
		}
	}}
	m := New(f, constraints(), testLogger())

	stats, err := m.ReadStats(context.Background(), "test1")
	require.NoError(t, err)
	assert.Equal(t, int64(134217728), stats.MemoryPeakBytes)
	assert.Equal(t, int64(1), stats.MemoryEvents.OOM)
	assert.Equal(t, int64(1), stats.MemoryEvents.OOMKill)
	assert.Equal(t, int64(500000), stats.CPUStat.UsageUsec)
	assert.Equal(t, int64(2), stats.CPUStat.NrThrottled)
	assert.Equal(t, int64(4), stats.PIDsPeak)
}

func TestReadStatsPropagatesDedicatedFailureKind(t *testing.T) {
	f := &fakeExecutor{response: func(script string) shim.Result {
		if strings.Contains(script, "memory.peak") {
			return shim.Result{ExitCode: 1, Stderr: "no such file"}
		}
		return shim.Result{ExitCode: 0, Stdout: "0\n"}
	}}
	m := New(f, constraints(), testLogger())

	_, err := m.ReadStats(context.Background(), "test1")
	require.Error(t, err)
	var peakErr *types.MemoryPeakReadError
	assert.ErrorAs(t, err, &peakErr)
}

func TestDestroyChildIsNonFatalOnFailure(t *testing.T) {
	f := &fakeExecutor{response: func(script string) shim.Result {
		return shim.Result{ExitCode: 1, Stderr: "directory not empty"}
	}}
	m := New(f, constraints(), testLogger())

	err := m.DestroyChild(context.Background(), "test1")
	require.Error(t, err)
	var cleanupErr *types.CgroupCleanupError
	assert.ErrorAs(t, err, &cleanupErr)
}
