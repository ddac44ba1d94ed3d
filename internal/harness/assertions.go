package harness

import (
	"fmt"
	"slices"
	"strings"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []TraceEvent
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, ev := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] step %d %s %s v%d", ev.Seq, ev.Step, ev.State, ev.Action, ev.Version)
			if ev.Error != "" {
				fmt.Fprintf(&buf, " error=%s", ev.Error)
			}
			buf.WriteByte('\n')
		}
	}
	return buf.String()
}

func assertVersion(result *Result, a Assertion) error {
	if result.Version == a.Equals {
		return nil
	}
	return &AssertionError{
		Type:     AssertVersion,
		Expected: fmt.Sprintf("version %d", a.Equals),
		Actual:   fmt.Sprintf("version %d", result.Version),
		Trace:    result.Trace,
	}
}

func assertNavigated(result *Result, a Assertion) error {
	want := a.Paths
	if want == nil {
		want = []string{}
	}
	if slices.Equal(result.Navigated, want) {
		return nil
	}
	return &AssertionError{
		Type:     AssertNavigated,
		Expected: fmt.Sprintf("%v", want),
		Actual:   fmt.Sprintf("%v", result.Navigated),
	}
}

func assertCatalog(result *Result, a Assertion) error {
	want := a.Names
	if want == nil {
		want = []string{}
	}
	if slices.Equal(result.Final, want) {
		return nil
	}
	return &AssertionError{
		Type:     AssertCatalog,
		Expected: fmt.Sprintf("%q", want),
		Actual:   fmt.Sprintf("%q", result.Final),
	}
}

// assertTraceCount counts resolved dispatches of the asserted action.
func assertTraceCount(result *Result, a Assertion) error {
	count := 0
	for _, ev := range result.Trace {
		if ev.State == "resolved" && ev.Action == a.Action {
			count++
		}
	}
	if count == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertTraceCount,
		Expected: fmt.Sprintf("%d resolved %s dispatches", a.Count, a.Action),
		Actual:   fmt.Sprintf("%d resolved %s dispatches", count, a.Action),
		Trace:    result.Trace,
	}
}

// EvaluateAssertions checks all assertions against a result.
// Returns one message per failed assertion.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertVersion:
			err = assertVersion(result, assertion)
		case AssertNavigated:
			err = assertNavigated(result, assertion)
		case AssertCatalog:
			err = assertCatalog(result, assertion)
		case AssertTraceCount:
			err = assertTraceCount(result, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
