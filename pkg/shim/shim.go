package shim

import (
	"bytes"
	"context"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"

	"github.com/cuemby/arbiter/pkg/types"
)

// Result is the outcome of one external-process invocation.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	WallTime time.Duration
}

// Shim runs external commands on behalf of the engine. A zero-value Shim
// is usable; set DryRun/Logger/Output to customize behavior.
type Shim struct {
	// DryRun renders the command instead of executing it and returns a
	// synthesized Result.
	DryRun bool
	// Output receives the rendered command line when DryRun is set. If
	// nil, rendering is skipped (still returns the synthesized Result).
	Output io.Writer
	Logger zerolog.Logger
}

// New constructs a Shim.
func New(dryRun bool, output io.Writer, logger zerolog.Logger) *Shim {
	return &Shim{DryRun: dryRun, Output: output, Logger: logger}
}

// Render formats a command list the way a shell would echo it back,
// each argument on its own continuation line — the same layout
// original_source's BaseCodeExecutor.format_cmd produces for non-debug
// output.
func Render(argv []string) string {
	return strings.Join(argv, " \\\n    ")
}

// Exec runs argv, optionally feeding stdin, and enforces timeout (if
// positive) as a wall-clock fallback on top of ctx. Spawn failures
// (binary missing, fork failure) are reported as *types.CMDError; a
// nonzero exit from the child process is NOT an error — it is reported
// via Result.ExitCode for the caller to classify.
func (s *Shim) Exec(ctx context.Context, argv []string, stdin string, timeout time.Duration) (Result, error) {
	if len(argv) == 0 {
		return Result{}, types.NewCMDError("empty command", nil)
	}

	if s.DryRun {
		if s.Output != nil {
			colorize := color.New(color.FgCyan)
			_, _ = colorize.Fprintln(s.Output, Render(argv))
		}
		return Result{Stdout: "<stdout>", Stderr: "", ExitCode: 0}, nil
	}

	runCtx := ctx
	var cancel context.CancelFunc
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, argv[0], argv[1:]...)
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	wall := time.Since(start)

	exitCode := 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			// Spawn failure: binary not found, fork failure, etc.
			s.Logger.Error().Err(err).Strs("argv", argv).Msg("command spawn failed")
			return Result{}, types.NewCMDError("failed to execute command", err)
		}
	}

	return Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: exitCode,
		WallTime: wall,
	}, nil
}
