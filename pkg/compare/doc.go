/*
Package compare implements the output comparator: the default
whitespace-tolerant byte comparison, and the external-checker protocol
matching original_source's custom_checker.py contract (argv is
input/actual/expected, exit code 0 means match).
*/
package compare
