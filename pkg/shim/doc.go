/*
Package shim provides the Command Shim: the single place external
processes (docker, the checker binary) are spawned, captured, and timed.

Every other package that needs to run an external command goes through
a Shim so dry-run rendering and the wall-clock fallback timeout are
applied uniformly, mirroring how original_source's BaseCodeExecutor
routes every subprocess.Popen call through the same dry_run branch.
*/
package shim
