package cgroup

import (
	"bufio"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/cuemby/arbiter/pkg/shim"
	"github.com/cuemby/arbiter/pkg/types"
)

const (
	rootCgroup   = "/sys/fs/cgroup"
	parentCgroup = rootCgroup + "/parent"
)

// Executor runs a command inside the sandbox container. *container.Controller
// satisfies this; tests use a fake so cgroup logic can be verified without
// a live container.
type Executor interface {
	ExecInside(ctx context.Context, argv []string, stdin string, timeout time.Duration, workdir string) (shim.Result, error)
}

// Manager prepares and tears down the cgroup v2 tree for one session. All
// per-test cgroups are created as siblings of parent, at
// /sys/fs/cgroup/test<i> — never nested under parent/ — because subtree
// control is enabled once at the root and every sibling inherits it.
type Manager struct {
	exec        Executor
	constraints types.Constraints
	logger      zerolog.Logger
}

// New constructs a Manager bound to exec for the session's constraints.
func New(exec Executor, constraints types.Constraints, logger zerolog.Logger) *Manager {
	return &Manager{exec: exec, constraints: constraints, logger: logger}
}

func (m *Manager) run(ctx context.Context, script string) (shim.Result, error) {
	return m.exec.ExecInside(ctx, []string{"sh", "-c", script}, "", 0, "")
}

// Prepare runs the once-per-session root setup: verify cgroup v2 is
// mounted, create the parent cgroup, migrate root PIDs into it so the
// root is empty, confirm cpu+memory controllers are available, and
// enable them for children.
func (m *Manager) Prepare(ctx context.Context) error {
	if err := m.verifyMounted(ctx); err != nil {
		return err
	}
	if err := m.mkdir(ctx, parentCgroup, wrapCgroupCreateError); err != nil {
		return err
	}
	if err := m.migrateRootProcs(ctx); err != nil {
		return err
	}
	if err := m.verifyControllers(ctx); err != nil {
		return err
	}
	return m.enableSubtreeControl(ctx)
}

func (m *Manager) verifyMounted(ctx context.Context) error {
	res, err := m.run(ctx, "grep -q cgroup2 /proc/mounts")
	if err != nil {
		return types.NewCgroupMountError("failed to inspect mount table", err)
	}
	if res.ExitCode != 0 {
		return types.NewCgroupMountError("cgroup2 is not mounted", nil)
	}
	return nil
}

func wrapCgroupCreateError(msg string, err error) error {
	return types.NewCgroupCreateError(msg, err)
}

func (m *Manager) mkdir(ctx context.Context, path string, wrap func(string, error) error) error {
	res, err := m.run(ctx, fmt.Sprintf("mkdir -p %s", path))
	if err != nil {
		return wrap("failed to create cgroup directory "+path, err)
	}
	if res.ExitCode != 0 {
		return wrap("mkdir exited nonzero for "+path, fmt.Errorf("%s", res.Stderr))
	}
	return nil
}

// migrateRootProcs empties the cgroup root by moving every PID listed in
// cgroup.procs into parent/cgroup.procs. Kernel threads that refuse the
// write are skipped silently — that is expected, not an error.
func (m *Manager) migrateRootProcs(ctx context.Context) error {
	script := fmt.Sprintf(
		`for pid in $(cat %s/cgroup.procs); do echo "$pid" > %s/cgroup.procs 2>/dev/null || true; done`,
		rootCgroup, parentCgroup,
	)
	res, err := m.run(ctx, script)
	if err != nil {
		return types.NewCgroupCreateError("failed to migrate root cgroup procs", err)
	}
	if res.ExitCode != 0 {
		return types.NewCgroupCreateError("cgroup proc migration exited nonzero", fmt.Errorf("%s", res.Stderr))
	}
	return nil
}

func (m *Manager) verifyControllers(ctx context.Context) error {
	res, err := m.run(ctx, "cat "+rootCgroup+"/cgroup.controllers")
	if err != nil {
		return types.NewCgroupControllerReadError("failed to read cgroup.controllers", err)
	}
	if res.ExitCode != 0 {
		return types.NewCgroupControllerReadError("cat cgroup.controllers exited nonzero", fmt.Errorf("%s", res.Stderr))
	}
	controllers := strings.Fields(res.Stdout)
	has := func(name string) bool {
		for _, c := range controllers {
			if c == name {
				return true
			}
		}
		return false
	}
	if !has("cpu") || !has("memory") {
		return types.NewCgroupControllerError("cpu and memory controllers are required, got: "+res.Stdout, nil)
	}
	return nil
}

func (m *Manager) enableSubtreeControl(ctx context.Context) error {
	writeRes, err := m.run(ctx, fmt.Sprintf("echo '+cpu +memory' > %s/cgroup.subtree_control", rootCgroup))
	if err != nil {
		return types.NewCgroupSubtreeControlWriteError("failed to write cgroup.subtree_control", err)
	}
	if writeRes.ExitCode != 0 {
		return types.NewCgroupSubtreeControlWriteError("write to cgroup.subtree_control exited nonzero", fmt.Errorf("%s", writeRes.Stderr))
	}

	readRes, err := m.run(ctx, "cat "+rootCgroup+"/cgroup.subtree_control")
	if err != nil {
		return types.NewCgroupSubtreeControlReadError("failed to confirm cgroup.subtree_control", err)
	}
	if readRes.ExitCode != 0 {
		return types.NewCgroupSubtreeControlReadError("cat cgroup.subtree_control exited nonzero", fmt.Errorf("%s", readRes.Stderr))
	}
	enabled := strings.Fields(readRes.Stdout)
	for _, want := range []string{"cpu", "memory"} {
		found := false
		for _, c := range enabled {
			if c == want {
				found = true
				break
			}
		}
		if !found {
			return types.NewCgroupSubtreeControlReadError("controller not enabled after write: "+want, nil)
		}
	}
	return nil
}

// childPath returns the sibling-of-parent path for a test cgroup.
func childPath(name string) string {
	return rootCgroup + "/" + name
}

// CreateChild creates the sibling cgroup for a single test.
func (m *Manager) CreateChild(ctx context.Context, name string) error {
	return m.mkdir(ctx, childPath(name), wrapCgroupCreateError)
}

// SetLimits writes memory.max, memory.swap.max, and cpu.max for name.
func (m *Manager) SetLimits(ctx context.Context, name string) error {
	path := childPath(name)
	script := fmt.Sprintf(
		"echo %d > %s/memory.max && echo %d > %s/memory.swap.max && echo '%s' > %s/cpu.max",
		m.constraints.MemoryLimitBytes(), path,
		m.constraints.MemorySwapLimitBytes(), path,
		m.constraints.CPUMax(), path,
	)
	res, err := m.run(ctx, script)
	if err != nil {
		return types.NewCgroupSetLimitsError("failed to write cgroup limits for "+name, err)
	}
	if res.ExitCode != 0 {
		return types.NewCgroupSetLimitsError("writing cgroup limits exited nonzero for "+name, fmt.Errorf("%s", res.Stderr))
	}
	return nil
}

// ReadStats reads memory.peak, memory.events, cpu.stat, and pids.peak for
// name. Each file has a dedicated failure kind so a JE TestResult can
// report which counter read failed.
func (m *Manager) ReadStats(ctx context.Context, name string) (types.Stats, error) {
	path := childPath(name)

	peak, err := m.readInt(ctx, path+"/memory.peak", wrapMemoryPeakReadError)
	if err != nil {
		return types.Stats{}, err
	}

	events, err := m.readMemoryEvents(ctx, path+"/memory.events")
	if err != nil {
		return types.Stats{}, err
	}

	cpuStat, err := m.readCPUStat(ctx, path+"/cpu.stat")
	if err != nil {
		return types.Stats{}, err
	}

	pidsPeak, err := m.readInt(ctx, path+"/pids.peak", wrapPIDSPeakReadError)
	if err != nil {
		return types.Stats{}, err
	}

	return types.Stats{
		MemoryPeakBytes: peak,
		MemoryEvents:    events,
		CPUStat:         cpuStat,
		PIDsPeak:        pidsPeak,
	}, nil
}

func wrapMemoryPeakReadError(msg string, err error) error {
	return types.NewMemoryPeakReadError(msg, err)
}

func wrapPIDSPeakReadError(msg string, err error) error {
	return types.NewPIDSPeakReadError(msg, err)
}

func (m *Manager) readInt(ctx context.Context, path string, wrap func(string, error) error) (int64, error) {
	res, err := m.run(ctx, "cat "+path)
	if err != nil {
		return 0, wrap("failed to read "+path, err)
	}
	if res.ExitCode != 0 {
		return 0, wrap("cat exited nonzero for "+path, fmt.Errorf("%s", res.Stderr))
	}
	trimmed := strings.TrimSpace(res.Stdout)
	if trimmed == "max" {
		return -1, nil
	}
	v, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil {
		return 0, wrap("failed to parse "+path, err)
	}
	return v, nil
}

func (m *Manager) readMemoryEvents(ctx context.Context, path string) (types.MemoryEvents, error) {
	res, err := m.run(ctx, "cat "+path)
	if err != nil {
		return types.MemoryEvents{}, types.NewMemoryEventsReadError("failed to read "+path, err)
	}
	if res.ExitCode != 0 {
		return types.MemoryEvents{}, types.NewMemoryEventsReadError("cat exited nonzero for "+path, fmt.Errorf("%s", res.Stderr))
	}

	var events types.MemoryEvents
	sc := bufio.NewScanner(strings.NewReader(res.Stdout))
	for sc.Scan() {
		key, val, ok := splitKV(sc.Text())
		if !ok {
			continue
		}
		switch key {
		case "low":
			events.Low = val
		case "high":
			events.High = val
		case "max":
			events.Max = val
		case "oom":
			events.OOM = val
		case "oom_kill":
			events.OOMKill = val
		case "oom_group_kill":
			events.OOMGroupKill = val
		}
	}
	if err := sc.Err(); err != nil {
		return types.MemoryEvents{}, types.NewMemoryEventsReadError("failed to scan "+path, err)
	}
	return events, nil
}

func (m *Manager) readCPUStat(ctx context.Context, path string) (types.CPUStat, error) {
	res, err := m.run(ctx, "cat "+path)
	if err != nil {
		return types.CPUStat{}, types.NewCPUStatReadError("failed to read "+path, err)
	}
	if res.ExitCode != 0 {
		return types.CPUStat{}, types.NewCPUStatReadError("cat exited nonzero for "+path, fmt.Errorf("%s", res.Stderr))
	}

	var stat types.CPUStat
	sc := bufio.NewScanner(strings.NewReader(res.Stdout))
	for sc.Scan() {
		key, val, ok := splitKV(sc.Text())
		if !ok {
			continue
		}
		switch key {
		case "usage_usec":
			stat.UsageUsec = val
		case "user_usec":
			stat.UserUsec = val
		case "system_usec":
			stat.SystemUsec = val
		case "nr_periods":
			stat.NrPeriods = val
		case "nr_throttled":
			stat.NrThrottled = val
		case "throttled_usec":
			stat.ThrottledUsec = val
		case "nr_bursts":
			stat.NrBursts = val
		case "burst_usec":
			stat.BurstUsec = val
		}
	}
	if err := sc.Err(); err != nil {
		return types.CPUStat{}, types.NewCPUStatReadError("failed to scan "+path, err)
	}
	return stat, nil
}

func splitKV(line string) (string, int64, bool) {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return "", 0, false
	}
	v, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return "", 0, false
	}
	return fields[0], v, true
}

// DestroyChild removes a test's cgroup after its program has exited.
// Failure is non-fatal: cleanup errors are reported to the caller to log,
// not to abort the session.
func (m *Manager) DestroyChild(ctx context.Context, name string) error {
	res, err := m.run(ctx, "rmdir "+childPath(name))
	if err != nil {
		return types.NewCgroupCleanupError("failed to remove cgroup "+name, err)
	}
	if res.ExitCode != 0 {
		return types.NewCgroupCleanupError("rmdir exited nonzero for "+name, fmt.Errorf("%s", res.Stderr))
	}
	return nil
}
