package harness

import (
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/roach88/securetodo/internal/projection"
	"github.com/roach88/securetodo/internal/record"
)

// AssertionError is returned when an assertion fails.
// It includes the action log to help debug the failure.
type AssertionError struct {
	Type     string             // Assertion type for categorization
	Expected string             // Human-readable expected outcome
	Actual   string             // Human-readable actual outcome
	Log      []projection.Entry // Full log for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nAction log:\n")
	for _, entry := range e.Log {
		fmt.Fprintf(&buf, "  %s\n", describeEntry(entry))
	}

	return buf.String()
}

// EvaluateAssertions checks every assertion against result and returns one
// message per failure.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for _, a := range assertions {
		if err := evaluateAssertion(result, a); err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}

func evaluateAssertion(result *Result, a Assertion) error {
	switch a.Type {
	case AssertRecords:
		return assertRecords(result, a)
	case AssertKnownDates:
		return assertStrings(result, a.Type, a.Dates, result.State.KnownDates)
	case AssertStoredKeys:
		return assertStrings(result, a.Type, a.Keys, result.Keys)
	case AssertScope:
		if result.State.Scope != a.Scope {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("%q", a.Scope),
				Actual:   fmt.Sprintf("%q", result.State.Scope),
				Log:      result.Log,
			}
		}
		return nil
	case AssertActionCount:
		return assertActionCount(result, a)
	case AssertActionOrder:
		return assertActionOrder(result, a)
	case AssertReplay:
		return assertReplay(result)
	}
	return fmt.Errorf("unknown assertion type: %s", a.Type)
}

func assertRecords(result *Result, a Assertion) error {
	want := a.Records
	if want == nil {
		want = []record.Record{}
	}
	if reflect.DeepEqual(want, result.State.Records) {
		return nil
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: describeRecords(want),
		Actual:   describeRecords(result.State.Records),
		Log:      result.Log,
	}
}

// assertStrings compares two lists exactly; a nil expectation means empty.
func assertStrings(result *Result, typ string, want, got []string) error {
	if slices.Equal(want, got) || (len(want) == 0 && len(got) == 0) {
		return nil
	}
	return &AssertionError{
		Type:     typ,
		Expected: fmt.Sprintf("%v", want),
		Actual:   fmt.Sprintf("%v", got),
		Log:      result.Log,
	}
}

// assertActionCount checks if the action type appears exactly Count times.
func assertActionCount(result *Result, a Assertion) error {
	count := 0
	for _, e := range result.Log {
		if string(e.Action.Type) == a.Action {
			count++
		}
	}
	if count == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: fmt.Sprintf("%s dispatched %d times", a.Action, a.Count),
		Actual:   fmt.Sprintf("dispatched %d times", count),
		Log:      result.Log,
	}
}

// assertActionOrder checks that the action types appear in the given
// relative order. Other actions may come in between.
func assertActionOrder(result *Result, a Assertion) error {
	next := 0
	for _, e := range result.Log {
		if next < len(a.Actions) && string(e.Action.Type) == a.Actions[next] {
			next++
		}
	}
	if next == len(a.Actions) {
		return nil
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: fmt.Sprintf("actions in order: %v", a.Actions),
		Actual:   fmt.Sprintf("matched only %v", a.Actions[:next]),
		Log:      result.Log,
	}
}

// assertReplay checks that folding the log from the empty state reproduces
// the final projection.
func assertReplay(result *Result) error {
	replayed := projection.Replay(result.Log)
	if reflect.DeepEqual(replayed, result.State) {
		return nil
	}
	return &AssertionError{
		Type:     AssertReplay,
		Expected: describeState(result.State),
		Actual:   describeState(replayed),
		Log:      result.Log,
	}
}

func describeRecords(records []record.Record) string {
	parts := make([]string, len(records))
	for i, r := range records {
		parts[i] = describeRecord(r)
	}
	return "[" + strings.Join(parts, "; ") + "]"
}

func describeState(s projection.State) string {
	return fmt.Sprintf("scope=%q known_dates=%v records=%s", s.Scope, s.KnownDates, describeRecords(s.Records))
}
