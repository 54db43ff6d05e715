package types

// Constraints bounds a single judging session's resource usage. All
// fields are immutable for the lifetime of a Session.
type Constraints struct {
	// TimeLimitSeconds is the wall-clock budget for a single test case.
	TimeLimitSeconds float64 `json:"time_limit_s" yaml:"time_limit_s"`
	// MemoryLimitMB is the per-test memory.max, in megabytes.
	MemoryLimitMB int64 `json:"memory_limit_mb" yaml:"memory_limit_mb"`
	// MemorySwapLimitMB is the per-test memory.swap.max, in megabytes.
	MemorySwapLimitMB int64 `json:"memory_swap_limit_mb" yaml:"memory_swap_limit_mb"`
	// CPUQuota is the cgroup v2 cpu.max quota, in microseconds per period.
	CPUQuota int64 `json:"cpu_quota" yaml:"cpu_quota"`
	// CPUPeriod is the cgroup v2 cpu.max period, in microseconds.
	CPUPeriod int64 `json:"cpu_period" yaml:"cpu_period"`
}

// MemoryLimitBytes returns the per-test memory.max value in bytes.
func (c Constraints) MemoryLimitBytes() int64 {
	return c.MemoryLimitMB * 1048576
}

// MemorySwapLimitBytes returns the per-test memory.swap.max value in bytes.
func (c Constraints) MemorySwapLimitBytes() int64 {
	return c.MemorySwapLimitMB * 1048576
}

// ContainerMemoryLimitMB is the container-level memory cap: strictly
// greater than the per-test limit so the kernel OOM-kills the test
// child cgroup, never the container itself.
func (c Constraints) ContainerMemoryLimitMB() int64 {
	return c.MemoryLimitMB + 100
}

// ContainerMemorySwapLimitMB is the container-level memory+swap cap.
func (c Constraints) ContainerMemorySwapLimitMB() int64 {
	return c.MemoryLimitMB + c.MemorySwapLimitMB + 100
}

// FallbackTimeoutSeconds is the wall-clock safety net applied by the `timeout`
// shell wrapper and the Command Shim: 5x the time limit unless a caller
// overrides it.
func (c Constraints) FallbackTimeoutSeconds() float64 {
	return c.TimeLimitSeconds * 5
}

// CPUMax renders the cgroup v2 cpu.max line: "<quota> <period>".
func (c Constraints) CPUMax() string {
	return formatCPUMax(c.CPUQuota, c.CPUPeriod)
}
