package types

import "fmt"

// judgeError is the common shape behind every named error in the
// taxonomy below: a short message plus an optional wrapped cause, so
// callers can use errors.Is/errors.As against the concrete type while
// still walking to the underlying *exec.ExitError or I/O error.
type judgeError struct {
	kind string
	msg  string
	err  error
}

func (e *judgeError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.kind, e.msg, e.err)
	}
	return fmt.Sprintf("%s: %s", e.kind, e.msg)
}

func (e *judgeError) Unwrap() error {
	return e.err
}

// Infrastructure errors. These are fatal to the session: they propagate
// out of Session.Open/Run/Close rather than being converted to a verdict.
// The exception is a CMDError raised while running a single test case or
// its checker: the run stage converts that into a JE TestResult.

type CMDError struct{ *judgeError }

func NewCMDError(msg string, err error) *CMDError {
	return &CMDError{&judgeError{"CMDError", msg, err}}
}

type DockerDaemonError struct{ *judgeError }

func NewDockerDaemonError(msg string, err error) *DockerDaemonError {
	return &DockerDaemonError{&judgeError{"DockerDaemonError", msg, err}}
}

type ContainerCreateError struct{ *judgeError }

func NewContainerCreateError(msg string, err error) *ContainerCreateError {
	return &ContainerCreateError{&judgeError{"ContainerCreateError", msg, err}}
}

type ContainerCleanupError struct{ *judgeError }

func NewContainerCleanupError(msg string, err error) *ContainerCleanupError {
	return &ContainerCleanupError{&judgeError{"ContainerCleanupError", msg, err}}
}

type CgroupMountError struct{ *judgeError }

func NewCgroupMountError(msg string, err error) *CgroupMountError {
	return &CgroupMountError{&judgeError{"CgroupMountError", msg, err}}
}

type CgroupControllerError struct{ *judgeError }

func NewCgroupControllerError(msg string, err error) *CgroupControllerError {
	return &CgroupControllerError{&judgeError{"CgroupControllerError", msg, err}}
}

type CgroupControllerReadError struct{ *judgeError }

func NewCgroupControllerReadError(msg string, err error) *CgroupControllerReadError {
	return &CgroupControllerReadError{&judgeError{"CgroupControllerReadError", msg, err}}
}

type CgroupSubtreeControlWriteError struct{ *judgeError }

func NewCgroupSubtreeControlWriteError(msg string, err error) *CgroupSubtreeControlWriteError {
	return &CgroupSubtreeControlWriteError{&judgeError{"CgroupSubtreeControlWriteError", msg, err}}
}

type CgroupSubtreeControlReadError struct{ *judgeError }

func NewCgroupSubtreeControlReadError(msg string, err error) *CgroupSubtreeControlReadError {
	return &CgroupSubtreeControlReadError{&judgeError{"CgroupSubtreeControlReadError", msg, err}}
}

// Per-test infrastructure errors. These are caught at the run-stage call
// site and converted into a JE TestResult; the session continues unless
// EarlyExit is set.

type CgroupCreateError struct{ *judgeError }

func NewCgroupCreateError(msg string, err error) *CgroupCreateError {
	return &CgroupCreateError{&judgeError{"CgroupCreateError", msg, err}}
}

type CgroupSetLimitsError struct{ *judgeError }

func NewCgroupSetLimitsError(msg string, err error) *CgroupSetLimitsError {
	return &CgroupSetLimitsError{&judgeError{"CgroupSetLimitsError", msg, err}}
}

type CgroupCleanupError struct{ *judgeError }

func NewCgroupCleanupError(msg string, err error) *CgroupCleanupError {
	return &CgroupCleanupError{&judgeError{"CgroupCleanupError", msg, err}}
}

type MemoryPeakReadError struct{ *judgeError }

func NewMemoryPeakReadError(msg string, err error) *MemoryPeakReadError {
	return &MemoryPeakReadError{&judgeError{"MemoryPeakReadError", msg, err}}
}

type MemoryEventsReadError struct{ *judgeError }

func NewMemoryEventsReadError(msg string, err error) *MemoryEventsReadError {
	return &MemoryEventsReadError{&judgeError{"MemoryEventsReadError", msg, err}}
}

type CPUStatReadError struct{ *judgeError }

func NewCPUStatReadError(msg string, err error) *CPUStatReadError {
	return &CPUStatReadError{&judgeError{"CPUStatReadError", msg, err}}
}

type PIDSPeakReadError struct{ *judgeError }

func NewPIDSPeakReadError(msg string, err error) *PIDSPeakReadError {
	return &PIDSPeakReadError{&judgeError{"PIDSPeakReadError", msg, err}}
}

// User-program errors. A failing user program is never reported as a Go
// error — it surfaces only as a CE/RE/TLE/MLE/ILE verdict. These kinds
// name the infrastructural failure underneath (shell missing, exec bit
// not set): Session.Compile returns a CompileError when the compile
// shell cannot be invoked, and the run stage wraps a failed run
// invocation in a RunError before converting it into a JE TestResult.

type CompileError struct{ *judgeError }

func NewCompileError(msg string, err error) *CompileError {
	return &CompileError{&judgeError{"CompileError", msg, err}}
}

type RunError struct{ *judgeError }

func NewRunError(msg string, err error) *RunError {
	return &RunError{&judgeError{"RunError", msg, err}}
}

// Post-run warnings. Logged, never propagated.

type ActualOutputCleanupError struct{ *judgeError }

func NewActualOutputCleanupError(msg string, err error) *ActualOutputCleanupError {
	return &ActualOutputCleanupError{&judgeError{"ActualOutputCleanupError", msg, err}}
}
