/*
Package log provides the structured logging used throughout the judging
engine, wrapping github.com/rs/zerolog the same way the teacher project
does: a package-level Logger configured once at startup, and
WithComponent-style constructors that attach stable fields (session,
test case, container) to every subsequent line a package emits.
*/
package log
