package types

// MemoryEvents mirrors the counters exposed by a cgroup v2 memory.events
// file.
type MemoryEvents struct {
	Low          int64 `json:"low"`
	High         int64 `json:"high"`
	Max          int64 `json:"max"`
	OOM          int64 `json:"oom"`
	OOMKill      int64 `json:"oom_kill"`
	OOMGroupKill int64 `json:"oom_group_kill"`
}

// Exceeded reports whether any OOM-class event fired for the cgroup.
func (m MemoryEvents) Exceeded() bool {
	return m.OOM > 0 || m.OOMKill > 0 || m.OOMGroupKill > 0
}

// CPUStat mirrors the counters exposed by a cgroup v2 cpu.stat file.
type CPUStat struct {
	UsageUsec     int64 `json:"usage_usec"`
	UserUsec      int64 `json:"user_usec"`
	SystemUsec    int64 `json:"system_usec"`
	NrPeriods     int64 `json:"nr_periods"`
	NrThrottled   int64 `json:"nr_throttled"`
	ThrottledUsec int64 `json:"throttled_usec"`
	NrBursts      int64 `json:"nr_bursts"`
	BurstUsec     int64 `json:"burst_usec"`
}

// UsageSeconds returns CPU time actually consumed, in seconds.
func (c CPUStat) UsageSeconds() float64 {
	return float64(c.UsageUsec) / 1e6
}

// Stats aggregates the kernel counters read back for one test case after
// its program has exited.
type Stats struct {
	MemoryPeakBytes int64        `json:"memory_peak"`
	MemoryEvents    MemoryEvents `json:"memory_events"`
	CPUStat         CPUStat      `json:"cpu_stat"`
	PIDsPeak        int64        `json:"pids_peak"`
}
