/*
Package discovery enumerates a submission's test cases from the source
tree's input/ directory and computes the order a session iterates them
in. Shuffling only changes visitation order — the 1..N identity reported
on each types.TestCase.Index never changes.
*/
package discovery
