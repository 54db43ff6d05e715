/*
Package verdict implements the classification table that turns one
test case's raw observation — exit status, cgroup counters, wall time,
output size, and comparison result — into a final types.Verdict. The
seven rules are applied in order; the first match wins.
*/
package verdict
