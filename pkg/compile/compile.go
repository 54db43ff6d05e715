package compile

import (
	"context"
	"fmt"
	"time"

	"github.com/cuemby/arbiter/pkg/shim"
	"github.com/cuemby/arbiter/pkg/types"
)

// Executor runs a command inside the sandbox container.
type Executor interface {
	ExecInside(ctx context.Context, argv []string, stdin string, timeout time.Duration, workdir string) (shim.Result, error)
}

// Result is the outcome of attempting to compile a submission.
type Result struct {
	// Ran is false when DisableCompile skipped the stage entirely.
	Ran      bool
	ExitCode int
	Output   string // combined stdout+stderr, used verbatim as CE verdict_details
}

// Run executes command as nonRootUser inside the container. If command
// is empty, nothing is executed and a zero Result is returned with
// Ran=false. Config.DisableCompile is handled by Session.Compile, which
// does not call Run at all in that case.
//
// A nonzero exit is not a Go error: it is reported via Result so the
// caller can produce a CE TestResult. Only a failure to invoke the shell
// itself returns *types.CompileError.
func Run(ctx context.Context, exec Executor, nonRootUser, command string, timeout time.Duration) (Result, error) {
	if command == "" {
		return Result{}, nil
	}

	loginShell := fmt.Sprintf("su - %s -c '%s'", nonRootUser, command)
	res, err := exec.ExecInside(ctx, []string{"sh", "-c", loginShell}, "", timeout, "")
	if err != nil {
		return Result{}, types.NewCompileError("failed to invoke compile shell", err)
	}

	return Result{
		Ran:      true,
		ExitCode: res.ExitCode,
		Output:   res.Stdout + res.Stderr,
	}, nil
}
