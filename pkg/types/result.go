package types

// TestResult is the flat object yielded once per test case. Serialized
// form keeps Verdict as its short symbolic code ("AC", "WA", ...) with
// the human-readable strings carried alongside in VerdictLabel and
// VerdictDetails.
type TestResult struct {
	TestCase        int     `json:"test_case"`
	ExitCode        int     `json:"exit_code"`
	Stats           Stats   `json:"stats"`
	Verdict         Verdict `json:"verdict"`
	VerdictLabel    string  `json:"verdict_label"`
	VerdictDetails  string  `json:"verdict_details"`
	Input           string  `json:"input"`
	ActualOutput    string  `json:"actual_output"`
	ExpectedOutput  string  `json:"expected_output"`
}

// NewResult builds a TestResult, populating VerdictLabel/VerdictDetails
// from the Verdict so callers never have to keep the two in sync by hand.
func NewResult(testCase, exitCode int, stats Stats, verdict Verdict, input, actual, expected string) TestResult {
	return TestResult{
		TestCase:       testCase,
		ExitCode:       exitCode,
		Stats:          stats,
		Verdict:        verdict,
		VerdictLabel:   verdict.Label(),
		VerdictDetails: verdict.Details(),
		Input:          input,
		ActualOutput:   actual,
		ExpectedOutput: expected,
	}
}
