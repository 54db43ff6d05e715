package verdict

import (
	"time"

	"github.com/cuemby/arbiter/pkg/types"
)

const (
	sigBase   = 128
	sigKill   = 9
	timeoutRC = 124
)

// Observation is the full record C7 classifies — everything the run
// stage, cgroup manager, and comparator produced for one test case.
type Observation struct {
	ExitCode         int
	WallTime         time.Duration
	Stats            types.Stats
	TimeLimitSeconds float64
	MemoryLimitBytes int64

	ActualOutputBytes int64
	OutputLimitBytes  int64

	// Compared is false when the comparator itself could not run
	// (JE). Match is only meaningful when Compared is true.
	Compared bool
	Match    bool

	// StatsReadFailed marks that a cgroup counter read failed upstream;
	// Classify immediately returns JE without consulting Stats.
	StatsReadFailed bool
}

// signaled reports whether the shell-style exit code encodes a signal
// (128+N, the convention `timeout`/bash use) and which one.
func (o Observation) signaled() (sig int, ok bool) {
	if o.ExitCode > sigBase {
		return o.ExitCode - sigBase, true
	}
	return 0, false
}

// Classify applies the seven-rule table in order; the first matching
// rule wins. Any upstream stats-read failure short-circuits to JE.
func Classify(o Observation) types.Verdict {
	if o.StatsReadFailed {
		return types.JE
	}

	if o.Stats.MemoryEvents.Exceeded() || o.Stats.MemoryPeakBytes >= o.MemoryLimitBytes {
		return types.MLE
	}

	usageSeconds := o.Stats.CPUStat.UsageSeconds()
	wallSeconds := o.WallTime.Seconds()
	if wallSeconds >= o.TimeLimitSeconds && usageSeconds < o.TimeLimitSeconds*0.1 {
		return types.ILE
	}

	sig, signaled := o.signaled()
	killedAfterLimit := signaled && sig == sigKill && usageSeconds >= o.TimeLimitSeconds
	if usageSeconds >= o.TimeLimitSeconds || o.ExitCode == timeoutRC || killedAfterLimit {
		return types.TLE
	}

	if o.OutputLimitBytes > 0 && o.ActualOutputBytes > o.OutputLimitBytes {
		return types.OLE
	}

	if o.ExitCode != 0 {
		return types.RE
	}

	if !o.Compared {
		return types.JE
	}
	if o.Match {
		return types.AC
	}
	return types.WA
}

// OutputLimit computes the default output-size ceiling: max(10MB, 2x
// the expected output's size).
func OutputLimit(expectedBytes int64) int64 {
	const tenMB = 10 * 1024 * 1024
	if twice := expectedBytes * 2; twice > tenMB {
		return twice
	}
	return tenMB
}
