package harness

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/securetodo/internal/projection"
	"github.com/roach88/securetodo/internal/record"
)

// Render formats a result as the golden text: the action log, the final
// projection and the persisted keys. The output depends only on the
// scenario, never on secrets or wall time.
func Render(name string, result *Result) []byte {
	var b strings.Builder

	fmt.Fprintf(&b, "scenario: %s\n", name)

	b.WriteString("log:\n")
	for _, e := range result.Log {
		fmt.Fprintf(&b, "  %s\n", describeEntry(e))
	}

	b.WriteString("state:\n")
	fmt.Fprintf(&b, "  scope: %q\n", result.State.Scope)
	fmt.Fprintf(&b, "  known_dates: [%s]\n", strings.Join(result.State.KnownDates, ","))
	b.WriteString("  records:\n")
	for _, r := range result.State.Records {
		fmt.Fprintf(&b, "    %s\n", describeRecord(r))
	}

	b.WriteString("keys:\n")
	for _, k := range result.Keys {
		fmt.Fprintf(&b, "  %s\n", k)
	}

	return []byte(b.String())
}

// RunWithGolden executes a scenario, fails the test on any expectation or
// assertion error, and compares the rendered result with
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	for _, msg := range result.Errors {
		t.Error(msg)
	}

	AssertGolden(t, scenario.Name, result)
	return result, nil
}

// AssertGolden compares an already computed result with its golden file.
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, Render(name, result))
}

// describeEntry renders one log entry on a line.
func describeEntry(e projection.Entry) string {
	a := e.Action
	switch {
	case a.Type == projection.ActionLoad && a.Load != nil:
		var parts []string
		if a.Load.Scope != nil {
			parts = append(parts, "scope="+*a.Load.Scope)
		}
		if a.Load.Records != nil {
			ids := make([]string, len(*a.Load.Records))
			for i, r := range *a.Load.Records {
				ids[i] = r.ID
			}
			parts = append(parts, "records=["+strings.Join(ids, ",")+"]")
		}
		if a.Load.KnownDates != nil {
			parts = append(parts, "known_dates=["+strings.Join(*a.Load.KnownDates, ",")+"]")
		}
		return fmt.Sprintf("%d %s %s", e.Seq, a.Type, strings.Join(parts, " "))
	case a.Type == projection.ActionUpsert && a.Record != nil:
		return fmt.Sprintf("%d %s %s", e.Seq, a.Type, describeRecord(*a.Record))
	case a.Record != nil:
		return fmt.Sprintf("%d %s id=%s", e.Seq, a.Type, a.Record.ID)
	}
	return fmt.Sprintf("%d %s", e.Seq, a.Type)
}

// describeRecord renders a record on one line.
func describeRecord(r record.Record) string {
	return fmt.Sprintf("id=%s date=%s checked=%t text=%q", r.ID, r.Date, r.Checked, r.Text)
}
