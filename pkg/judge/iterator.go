package judge

import (
	"context"

	"github.com/cuemby/arbiter/pkg/types"
)

// ResultIterator is a pull-based, single-consumer, non-restartable
// sequence of TestResult — the Go analogue of the generator a Python
// session would yield from. Call Next until it returns false, then
// check Err for a terminal failure.
type ResultIterator struct {
	session       *Session
	cases         []types.TestCase
	opts          RunOptions
	compileFailed bool

	pos     int
	current types.TestResult
	err     error
	done    bool
}

// Next advances to the next test case, running it. It returns false once
// the sequence is exhausted, a fatal error occurred (Err will be set),
// or EarlyExit stopped iteration after a non-AC verdict.
func (it *ResultIterator) Next(ctx context.Context) bool {
	if it.done || it.err != nil || it.pos >= len(it.cases) {
		return false
	}

	tc := it.cases[it.pos]
	it.pos++

	var result types.TestResult
	if it.compileFailed {
		result = it.session.compilationErrorResult(tc)
	} else {
		result = it.session.runOne(ctx, tc, it.opts)
	}
	it.current = result

	if it.session.cfg.EarlyExit && result.Verdict != types.AC {
		it.done = true
	}
	return true
}

// Result returns the test result produced by the most recent Next call.
func (it *ResultIterator) Result() types.TestResult {
	return it.current
}

// Err returns the terminal error, if any, that stopped iteration early.
func (it *ResultIterator) Err() error {
	return it.err
}
