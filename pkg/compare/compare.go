package compare

import (
	"bufio"
	"context"
	"io"
	"strings"
	"time"

	"github.com/cuemby/arbiter/pkg/shim"
)

// Bytes compares actual against expected after stripping trailing
// whitespace from each line and trailing blank lines from the end of
// each stream, so a program emitting a harmless trailing newline is not
// penalized.
func Bytes(actual, expected io.Reader) (bool, error) {
	a, err := normalizedLines(actual)
	if err != nil {
		return false, err
	}
	e, err := normalizedLines(expected)
	if err != nil {
		return false, err
	}
	if len(a) != len(e) {
		return false, nil
	}
	for i := range a {
		if a[i] != e[i] {
			return false, nil
		}
	}
	return true, nil
}

func normalizedLines(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		lines = append(lines, strings.TrimRight(sc.Text(), " \t\r"))
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines, nil
}

// Executor runs an external checker binary.
type Executor interface {
	Exec(ctx context.Context, argv []string, stdin string, timeout time.Duration) (shim.Result, error)
}

// Checker invokes an external program as the comparator: exit 0 means
// match, any nonzero exit means mismatch.
type Checker struct {
	Path string
}

// Run invokes the checker as `<path> <input> <actual> <expected>`.
func (c Checker) Run(ctx context.Context, exec Executor, inputPath, actualPath, expectedPath string) (bool, error) {
	res, err := exec.Exec(ctx, []string{c.Path, inputPath, actualPath, expectedPath}, "", 0)
	if err != nil {
		return false, err
	}
	return res.ExitCode == 0, nil
}
