/*
Package compile runs a submission's compile step inside the sandbox
container, as the non-root identity, via a login shell — the same
`su - <user> -c '...'` invocation original_source's BaseCodeExecutor
uses before falling through to per-test execution.
*/
package compile
