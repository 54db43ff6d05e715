/*
Package cgroup manages the cgroup v2 tree inside a session's sandbox
container: one-time preparation of the root, and per-test creation,
limit-setting, stats reading, and teardown of sibling child cgroups.

Every operation runs through an Executor (satisfied by
*container.Controller) via `docker exec`, never by touching
/sys/fs/cgroup on the host — the tree being manipulated lives in the
container's private cgroup namespace. Parsing of memory.events and
cpu.stat follows the line-scanning style used for similar key-value
cgroup files elsewhere in the examples pack: bufio.Scanner plus
strings.Fields plus strconv.ParseInt.
*/
package cgroup
