package judge

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/cuemby/arbiter/pkg/cgroup"
	"github.com/cuemby/arbiter/pkg/compare"
	"github.com/cuemby/arbiter/pkg/compile"
	"github.com/cuemby/arbiter/pkg/container"
	"github.com/cuemby/arbiter/pkg/discovery"
	"github.com/cuemby/arbiter/pkg/log"
	"github.com/cuemby/arbiter/pkg/metrics"
	"github.com/cuemby/arbiter/pkg/shim"
	"github.com/cuemby/arbiter/pkg/types"
	"github.com/cuemby/arbiter/pkg/verdict"
)

// RunOptions parameterizes one Session.Run call.
type RunOptions struct {
	InputPrefix  string
	OutputPrefix string
	// Timeout overrides the 5x-time-limit fallback passed to the
	// in-shell `timeout` wrapper, if positive.
	Timeout time.Duration
	Shuffle bool
	Seed    uint64
	// CheckerPath, if set, routes comparison through an external
	// checker binary instead of the default byte comparator.
	CheckerPath string
}

func (o RunOptions) withDefaults() RunOptions {
	if o.InputPrefix == "" {
		o.InputPrefix = "input"
	}
	if o.OutputPrefix == "" {
		o.OutputPrefix = "output"
	}
	return o
}

func (o RunOptions) fallbackTimeout(constraints types.Constraints) time.Duration {
	if o.Timeout > 0 {
		return o.Timeout
	}
	return time.Duration(constraints.FallbackTimeoutSeconds() * float64(time.Second))
}

// Session owns one submission's container and cgroup subtree for the
// duration of a judging run. A Session is not reusable across Run calls.
type Session struct {
	cfg    types.Config
	hooks  Hooks
	logger zerolog.Logger

	shim        *shim.Shim
	container   *container.Controller
	cgroups     *cgroup.Manager
	containerUp bool

	compileResult compile.Result
}

// NewSession constructs a Session. out receives dry-run command
// renderings; pass nil to discard them.
func NewSession(cfg types.Config, hooks Hooks, out io.Writer, logger zerolog.Logger) *Session {
	sh := shim.New(cfg.DryRun, out, logger)
	return &Session{
		cfg:       cfg,
		hooks:     hooks,
		logger:    logger,
		shim:      sh,
		container: container.New(cfg, sh, logger),
		cgroups:   cgroup.New(nil, cfg.Constraints, logger),
	}
}

// Open probes the container runtime and, unless LazyContainer is set,
// creates the container and prepares its cgroup tree immediately.
func (s *Session) Open(ctx context.Context) error {
	if err := s.container.EnsureDaemon(ctx); err != nil {
		return err
	}
	metrics.SessionsActive.Inc()
	if s.cfg.LazyContainer {
		return nil
	}
	return s.ensureContainer(ctx)
}

func (s *Session) ensureContainer(ctx context.Context) error {
	if s.containerUp {
		return nil
	}
	start := time.Now()
	if err := s.container.Create(ctx); err != nil {
		return err
	}
	metrics.ContainersCreated.Inc()
	metrics.ContainerCreateDuration.Observe(time.Since(start).Seconds())

	s.cgroups = cgroup.New(s.container, s.cfg.Constraints, s.logger)
	if err := s.cgroups.Prepare(ctx); err != nil {
		return err
	}
	s.containerUp = true
	return nil
}

// Compile runs the compile stage. DisableCompile skips it entirely.
func (s *Session) Compile(ctx context.Context) (compile.Result, error) {
	if err := s.ensureContainer(ctx); err != nil {
		return compile.Result{}, err
	}
	if s.cfg.DisableCompile {
		return compile.Result{}, nil
	}

	command := s.hooks.CompileCommand(s.cfg.ContainerWorkDir)
	start := time.Now()
	result, err := compile.Run(ctx, s.container, s.cfg.NonRootUser, command, 0)
	metrics.CompileDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.CompilesTotal.WithLabelValues("error").Inc()
		return compile.Result{}, err
	}
	if !result.Ran {
		metrics.CompilesTotal.WithLabelValues("skipped").Inc()
	} else if result.ExitCode == 0 {
		metrics.CompilesTotal.WithLabelValues("success").Inc()
	} else {
		metrics.CompilesTotal.WithLabelValues("failure").Inc()
	}
	s.compileResult = result
	return result, nil
}

// Run discovers test cases and returns an iterator the caller drives to
// completion with Next/Result/Err.
func (s *Session) Run(ctx context.Context, opts RunOptions) (*ResultIterator, error) {
	if err := s.ensureContainer(ctx); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	cases, err := discovery.Discover(s.cfg.HostSrcDir, opts.InputPrefix, opts.OutputPrefix)
	if err != nil {
		return nil, err
	}
	ordered := discovery.Order(cases, opts.Shuffle, opts.Seed)

	return &ResultIterator{
		session:       s,
		cases:         ordered,
		opts:          opts,
		compileFailed: s.compileResult.Ran && s.compileResult.ExitCode != 0,
	}, nil
}

// Close stops the container. It is idempotent and safe to call even if
// Open never succeeded.
func (s *Session) Close(ctx context.Context) error {
	metrics.SessionsActive.Dec()
	if !s.containerUp {
		return nil
	}
	s.containerUp = false
	return s.container.Stop(ctx)
}

// compilationErrorResult yields CE for a test case without running its
// program, carrying the compiler's combined stdout+stderr as details.
func (s *Session) compilationErrorResult(tc types.TestCase) types.TestResult {
	metrics.TestsRunTotal.Inc()
	metrics.VerdictsTotal.WithLabelValues(types.CE.String()).Inc()
	result := types.NewResult(tc.Index, s.compileResult.ExitCode, types.Stats{}, types.CE, tc.InputPath, "", "")
	result.VerdictDetails = s.compileResult.Output
	return result
}

// runOne executes a single test case and classifies the result.
func (s *Session) runOne(ctx context.Context, tc types.TestCase, opts RunOptions) types.TestResult {
	name := fmt.Sprintf("test%d", tc.Index)
	start := time.Now()
	defer func() {
		metrics.TestRunDuration.Observe(time.Since(start).Seconds())
		metrics.TestsRunTotal.Inc()
	}()

	if err := s.cgroups.CreateChild(ctx, name); err != nil {
		metrics.CgroupOperationErrors.WithLabelValues("create").Inc()
		return s.judgementError(tc, err)
	}
	defer func() {
		if derr := s.cgroups.DestroyChild(ctx, name); derr != nil {
			metrics.CgroupOperationErrors.WithLabelValues("destroy").Inc()
			log.WithTestCase(s.logger, tc.Index).Warn().Err(derr).Str("cgroup", name).Msg("failed to destroy test cgroup")
		}
	}()

	if err := s.cgroups.SetLimits(ctx, name); err != nil {
		metrics.CgroupOperationErrors.WithLabelValues("set_limits").Inc()
		return s.judgementError(tc, err)
	}

	timeout := opts.fallbackTimeout(s.cfg.Constraints)
	runCmd := s.hooks.RunCommand(s.cfg.ContainerWorkDir)
	inputInContainer := filepath.Join(s.cfg.ContainerWorkDir, "input", filepath.Base(tc.InputPath))
	script := fmt.Sprintf(
		"echo $$ > /sys/fs/cgroup/%s/cgroup.procs && su - %s -c 'timeout %d %s < %s'",
		name, s.cfg.NonRootUser, int(timeout.Seconds()), runCmd, inputInContainer,
	)

	res, err := s.container.ExecInside(ctx, []string{"sh", "-c", script}, "", timeout, "")
	if err != nil {
		return s.judgementError(tc, types.NewRunError("failed to exec run command", err))
	}

	stats, statsErr := s.cgroups.ReadStats(ctx, name)
	if statsErr != nil {
		metrics.CgroupOperationErrors.WithLabelValues("read_stats").Inc()
		return s.judgementError(tc, statsErr)
	}

	actualOutput := s.readActualOutput(ctx, tc, res.Stdout)
	expectedBytes, expErr := os.ReadFile(tc.ExpectedOutputPath)
	if expErr != nil {
		return s.judgementError(tc, fmt.Errorf("reading expected output: %w", expErr))
	}
	expectedOutput := string(expectedBytes)

	compared, match := s.compare(ctx, tc, opts, actualOutput, expectedOutput)

	obs := verdict.Observation{
		ExitCode:          res.ExitCode,
		WallTime:          res.WallTime,
		Stats:             stats,
		TimeLimitSeconds:  s.cfg.Constraints.TimeLimitSeconds,
		MemoryLimitBytes:  s.cfg.Constraints.MemoryLimitBytes(),
		ActualOutputBytes: int64(len(actualOutput)),
		OutputLimitBytes:  verdict.OutputLimit(int64(len(expectedOutput))),
		Compared:          compared,
		Match:             match,
	}
	v := verdict.Classify(obs)
	metrics.VerdictsTotal.WithLabelValues(v.String()).Inc()

	return types.NewResult(tc.Index, res.ExitCode, stats, v, tc.InputPath, actualOutput, expectedOutput)
}

func (s *Session) judgementError(tc types.TestCase, err error) types.TestResult {
	log.WithTestCase(s.logger, tc.Index).Error().Err(err).Msg("test case infrastructure failure")
	metrics.VerdictsTotal.WithLabelValues(types.JE.String()).Inc()
	return types.NewResult(tc.Index, -1, types.Stats{}, types.JE, tc.InputPath, "", "")
}

// readActualOutput prefers <workdir>/actual_output/<i>.txt, inside the
// container, when the submission was directed to write there; otherwise
// falls back to captured stdout.
func (s *Session) readActualOutput(ctx context.Context, tc types.TestCase, stdout string) string {
	path := filepath.Join(s.cfg.ContainerWorkDir, "actual_output", fmt.Sprintf("%d.txt", tc.Index))
	res, err := s.container.ExecInside(ctx, []string{"sh", "-c", "cat " + path + " 2>/dev/null"}, "", 0, "")
	if err == nil && res.ExitCode == 0 && res.Stdout != "" {
		return res.Stdout
	}
	return stdout
}

func (s *Session) compare(ctx context.Context, tc types.TestCase, opts RunOptions, actual, expected string) (compared bool, match bool) {
	if opts.CheckerPath != "" {
		tmp, err := os.CreateTemp("", "arbiter-actual-*.txt")
		if err != nil {
			return false, false
		}
		defer os.Remove(tmp.Name())
		if _, err := tmp.WriteString(actual); err != nil {
			tmp.Close()
			return false, false
		}
		tmp.Close()

		ok, err := (compare.Checker{Path: opts.CheckerPath}).Run(ctx, s.shim, tc.InputPath, tmp.Name(), tc.ExpectedOutputPath)
		if err != nil {
			return false, false
		}
		return true, ok
	}

	ok, err := compare.Bytes(strings.NewReader(actual), strings.NewReader(expected))
	if err != nil {
		return false, false
	}
	return true, ok
}
