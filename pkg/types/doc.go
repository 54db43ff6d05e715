/*
Package types defines the core data structures shared across the judging
engine.

It holds the domain model used by every other package: run constraints,
the observed kernel counters for a test case, the verdict enum, the
flat result object handed back to callers, and the error taxonomy that
distinguishes infrastructure failures (which propagate as Go errors)
from user-program failures (which always resolve to a verdict instead).
*/
package types
