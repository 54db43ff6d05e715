package container

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	specs "github.com/opencontainers/runtime-spec/specs-go"
	"github.com/rs/zerolog"

	"github.com/cuemby/arbiter/pkg/log"
	"github.com/cuemby/arbiter/pkg/metrics"
	"github.com/cuemby/arbiter/pkg/shim"
	"github.com/cuemby/arbiter/pkg/types"
)

// sleepEntrypoint keeps the container alive across repeated `docker exec`
// invocations for the lifetime of the session.
var sleepEntrypoint = []string{"sleep", "infinity"}

// Controller owns the lifecycle of one sandbox container.
type Controller struct {
	cfg    types.Config
	shim   *shim.Shim
	logger zerolog.Logger

	ContainerID string
}

// New constructs a Controller for cfg. The container is not created
// until Create is called.
func New(cfg types.Config, sh *shim.Shim, logger zerolog.Logger) *Controller {
	return &Controller{cfg: cfg, shim: sh, logger: logger}
}

// EnsureDaemon probes runtime liveness with retry: a daemon mid-restart
// is a transient condition, so three exponential-backoff attempts run
// before DockerDaemonError is raised.
func (c *Controller) EnsureDaemon(ctx context.Context) error {
	op := func() error {
		res, err := c.shim.Exec(ctx, []string{"docker", "info"}, "", 0)
		if err != nil {
			return err
		}
		if res.ExitCode != 0 {
			return fmt.Errorf("docker info exited %d: %s", res.ExitCode, res.Stderr)
		}
		return nil
	}

	b := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 2)
	if err := backoff.Retry(op, backoff.WithContext(b, ctx)); err != nil {
		metrics.RecordSubsystem("docker", c.cfg.ContainerName, false, err.Error())
		return types.NewDockerDaemonError("docker daemon is not reachable", err)
	}
	metrics.RecordSubsystem("docker", c.cfg.ContainerName, true, "")
	return nil
}

// renderMount turns an OCI mount descriptor into docker's --mount flag
// value. Using specs.Mount as the shared internal representation means
// bind mounts, named volumes, and (future) read-only secret mounts all
// flow through the same renderer instead of ad hoc string building.
func renderMount(m specs.Mount) string {
	parts := []string{"type=" + m.Type, "source=" + m.Source, "target=" + m.Destination}
	for _, opt := range m.Options {
		if opt == "ro" {
			parts = append(parts, "readonly")
		}
	}
	return strings.Join(parts, ",")
}

func (c *Controller) workMount() specs.Mount {
	if c.cfg.Volume != "" {
		return specs.Mount{
			Type:        "volume",
			Source:      c.cfg.Volume,
			Destination: c.cfg.ContainerWorkDir,
		}
	}
	return specs.Mount{
		Type:        "bind",
		Source:      c.cfg.HostSrcDir,
		Destination: c.cfg.ContainerWorkDir,
	}
}

// Create starts the long-lived sandbox container. The container runs
// privileged with a private cgroup namespace so the session can create
// and configure per-test cgroups from inside it, and its memory
// cap is set strictly above the per-test limit so the kernel OOM-kills
// the test's cgroup rather than the whole container.
func (c *Controller) Create(ctx context.Context) error {
	constraints := c.cfg.Constraints
	argv := []string{
		"docker", "run",
		"--rm",
		"--interactive",
		"--tty",
		"--detach",
		"--mount", renderMount(c.workMount()),
		"--workdir", c.cfg.ContainerWorkDir,
		"--user", c.cfg.ContainerUser,
		"--cgroupns", "private",
		"--privileged",
		"--memory", strconv.FormatInt(constraints.ContainerMemoryLimitMB(), 10) + "m",
		"--memory-swap", strconv.FormatInt(constraints.ContainerMemorySwapLimitMB(), 10) + "m",
		"--name", c.cfg.ContainerName,
		c.cfg.DockerImage,
	}
	argv = append(argv, sleepEntrypoint...)

	res, err := c.shim.Exec(ctx, argv, "", 0)
	if err != nil {
		return types.NewContainerCreateError("failed to run docker create command", err)
	}
	if res.ExitCode != 0 {
		return types.NewContainerCreateError("docker run exited "+strconv.Itoa(res.ExitCode), fmt.Errorf("%s", res.Stderr))
	}

	c.ContainerID = strings.TrimSpace(res.Stdout)
	if !c.shim.DryRun {
		log.WithContainer(c.cfg.ContainerName).Info().Str("container_id", c.ContainerID).Msg("container created")
	}
	return nil
}

// ExecInside runs argv inside the running container, optionally changing
// the working directory first. stdin is piped to the invoked process;
// timeout, if positive, is the Command Shim's own wall-clock fallback.
func (c *Controller) ExecInside(ctx context.Context, argv []string, stdin string, timeout time.Duration, workdir string) (shim.Result, error) {
	full := []string{"docker", "exec"}
	if workdir != "" {
		full = append(full, "--workdir", workdir)
	}
	full = append(full, c.cfg.ContainerName)
	full = append(full, argv...)
	return c.shim.Exec(ctx, full, stdin, timeout)
}

// Stop tears down the container with `docker stop`, targeting the
// container name, or the recorded ID when no name is set. It is a no-op
// only when neither is known; it does not check whether Create ran.
// Failures are returned for the caller to log.
func (c *Controller) Stop(ctx context.Context) error {
	if c.ContainerID == "" && c.cfg.ContainerName == "" {
		return nil
	}
	target := c.cfg.ContainerName
	if target == "" {
		target = c.ContainerID
	}

	res, err := c.shim.Exec(ctx, []string{"docker", "stop", target}, "", 30*time.Second)
	if err != nil {
		return types.NewContainerCleanupError("failed to stop container", err)
	}
	if res.ExitCode != 0 && !c.shim.DryRun {
		return types.NewContainerCleanupError("docker stop exited "+strconv.Itoa(res.ExitCode), fmt.Errorf("%s", res.Stderr))
	}
	if !c.shim.DryRun {
		log.WithContainer(target).Info().Msg("container stopped")
	}
	return nil
}
