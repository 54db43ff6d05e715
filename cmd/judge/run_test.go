package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestJobFileUnmarshalsConfigAndHooks(t *testing.T) {
	raw := []byte(`
docker_image: judge-image:latest
user: root
non_root_user: runner
src: /tmp/submission
working_dir_in_container: /app
container_name: judge-session-1
constraints:
  time_limit_s: 2
  memory_limit_mb: 256
  memory_swap_limit_mb: 64
  cpu_quota: 100000
  cpu_period: 100000
compile: "g++ -O2 -o {workdir}/a.out {workdir}/main.cpp"
run: "{workdir}/a.out"
`)

	var job jobFile
	require.NoError(t, yaml.Unmarshal(raw, &job))

	assert.Equal(t, "judge-image:latest", job.Config.DockerImage)
	assert.Equal(t, "runner", job.Config.NonRootUser)
	assert.Equal(t, int64(256), job.Config.Constraints.MemoryLimitMB)
	assert.Contains(t, job.Compile, "main.cpp")
	assert.Equal(t, "{workdir}/a.out", job.Run)
}

func TestJobFileDefaultsDryRunFalse(t *testing.T) {
	var job jobFile
	require.NoError(t, yaml.Unmarshal([]byte("src: /tmp\n"), &job))
	assert.False(t, job.Config.DryRun)
}
