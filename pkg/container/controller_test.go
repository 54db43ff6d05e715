package container

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/arbiter/pkg/shim"
	"github.com/cuemby/arbiter/pkg/types"
)

func zeroLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func testConfig() types.Config {
	return types.Config{
		DockerImage:      "judge-image:latest",
		ContainerUser:    "runner",
		NonRootUser:      "runner",
		HostSrcDir:       "/host/src",
		ContainerWorkDir: types.DefaultContainerWorkDir,
		ContainerName:    "judge-session-1",
		Constraints: types.Constraints{
			TimeLimitSeconds:  2,
			MemoryLimitMB:     256,
			MemorySwapLimitMB: 64,
			CPUQuota:          100000,
			CPUPeriod:         100000,
		},
	}
}

func TestCreateRendersBindMountByDefault(t *testing.T) {
	var out bytes.Buffer
	sh := shim.New(true, &out, zeroLogger())
	c := New(testConfig(), sh, zeroLogger())

	err := c.Create(context.Background())
	require.NoError(t, err)

	rendered := out.String()
	assert.Contains(t, rendered, "type=bind,source=/host/src,target=/app")
	assert.Contains(t, rendered, "--memory \\\n    356m")
	assert.Contains(t, rendered, "--memory-swap \\\n    420m")
	assert.Contains(t, rendered, "--name \\\n    judge-session-1")
	assert.Contains(t, rendered, "--privileged")
	assert.Contains(t, rendered, "--cgroupns \\\n    private")
	assert.Equal(t, "<stdout>", c.ContainerID)
}

func TestCreateRendersNamedVolumeWhenConfigured(t *testing.T) {
	var out bytes.Buffer
	cfg := testConfig()
	cfg.Volume = "judge-workspace"
	sh := shim.New(true, &out, zeroLogger())
	c := New(cfg, sh, zeroLogger())

	require.NoError(t, c.Create(context.Background()))
	assert.Contains(t, out.String(), "type=volume,source=judge-workspace,target=/app")
}

func TestExecInsideTargetsContainerName(t *testing.T) {
	var out bytes.Buffer
	sh := shim.New(true, &out, zeroLogger())
	c := New(testConfig(), sh, zeroLogger())

	_, err := c.ExecInside(context.Background(), []string{"cat", "memory.peak"}, "", 0, "/sys/fs/cgroup/test1")
	require.NoError(t, err)

	rendered := out.String()
	assert.Contains(t, rendered, "docker")
	assert.Contains(t, rendered, "exec")
	assert.Contains(t, rendered, "--workdir")
	assert.Contains(t, rendered, "/sys/fs/cgroup/test1")
	assert.Contains(t, rendered, "judge-session-1")
}

func TestStopIsNoopWithoutContainer(t *testing.T) {
	sh := shim.New(true, nil, zeroLogger())
	c := New(types.Config{}, sh, zeroLogger())
	require.NoError(t, c.Stop(context.Background()))
}

func TestStopTargetsContainerName(t *testing.T) {
	var out bytes.Buffer
	sh := shim.New(true, &out, zeroLogger())
	c := New(testConfig(), sh, zeroLogger())

	require.NoError(t, c.Stop(context.Background()))
	assert.Contains(t, out.String(), "docker \\\n    stop")
	assert.Contains(t, out.String(), "judge-session-1")
}

func TestEnsureDaemonSucceedsInDryRun(t *testing.T) {
	sh := shim.New(true, nil, zeroLogger())
	c := New(testConfig(), sh, zeroLogger())
	require.NoError(t, c.EnsureDaemon(context.Background()))
}
