/*
Package judge orchestrates one judging session end to end: container and
cgroup lifecycle, compile stage, the per-test run loop, and the
pull-based result iterator a caller drives to completion. It is the
top-level assembly point for pkg/container, pkg/cgroup, pkg/compile,
pkg/discovery, pkg/compare, and pkg/verdict.
*/
package judge
