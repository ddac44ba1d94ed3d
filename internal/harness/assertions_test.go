package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() *Result {
	r := NewResult()
	r.Version = 2
	r.Navigated = []string{"/recipe/1"}
	r.Final = []string{"Soup", "Soup"}
	r.Trace = []TraceEvent{
		{Seq: 1, State: "pending", Action: "add", Token: "token-1"},
		{Seq: 2, State: "resolved", Action: "add", Version: 1, Token: "token-1"},
		{Seq: 3, Step: 1, State: "pending", Action: "duplicate", Version: 1, Token: "token-2"},
		{Seq: 4, Step: 1, State: "resolved", Action: "duplicate", Version: 2, Token: "token-2"},
	}
	return r
}

func TestEvaluateAssertions_AllPass(t *testing.T) {
	errs := EvaluateAssertions(sampleResult(), []Assertion{
		{Type: AssertVersion, Equals: 2},
		{Type: AssertNavigated, Paths: []string{"/recipe/1"}},
		{Type: AssertCatalog, Names: []string{"Soup", "Soup"}},
		{Type: AssertTraceCount, Action: "add", Count: 1},
		{Type: AssertTraceCount, Action: "delete", Count: 0},
	})
	assert.Empty(t, errs)
}

func TestEvaluateAssertions_Failures(t *testing.T) {
	errs := EvaluateAssertions(sampleResult(), []Assertion{
		{Type: AssertVersion, Equals: 3},
		{Type: AssertNavigated},
		{Type: AssertCatalog, Names: []string{"Soup"}},
		{Type: AssertTraceCount, Action: "duplicate", Count: 2},
		{Type: "unknown"},
	})

	require.Len(t, errs, 5)
	assert.Contains(t, errs[0], "Expected: version 3")
	assert.Contains(t, errs[0], "Actual: version 2")
	assert.Contains(t, errs[0], "[4] step 1 resolved duplicate v2")
	assert.Contains(t, errs[1], "Expected: []")
	assert.Contains(t, errs[2], `Actual: ["Soup" "Soup"]`)
	assert.Contains(t, errs[3], "Actual: 1 resolved duplicate dispatches")
	assert.Contains(t, errs[4], `unknown assertion type "unknown"`)
}

func TestAssertionError_IncludesOutcomeCodes(t *testing.T) {
	err := &AssertionError{
		Type:     AssertVersion,
		Expected: "a",
		Actual:   "b",
		Trace:    []TraceEvent{{Seq: 1, State: "resolved", Action: "delete", Version: 1, Error: CodeNotFound}},
	}
	assert.Contains(t, err.Error(), "error=not_found")
}
