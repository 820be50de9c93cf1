package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/securetodo/internal/projection"
	"github.com/roach88/securetodo/internal/record"
)

func boolPtr(b bool) *bool { return &b }
func intPtr(n int) *int    { return &n }

func TestRun_ExpectationsMet(t *testing.T) {
	s := &Scenario{
		Name:        "inline",
		Description: "save and load",
		Flow: []Step{
			{Op: OpSave, Record: &record.Record{Date: "2024-05-01", Text: "call mom"}, Expect: &Expect{ID: "id-0001"}},
			{Op: OpLoadDate, Date: "2024-05-01", Expect: &Expect{Count: intPtr(1)}},
		},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, []string{"todo.2024-05-01.id-0001"}, result.Keys)
	require.Len(t, result.Log, 2)
	assert.Equal(t, projection.ActionUpsert, result.Log[0].Action.Type)
	assert.Equal(t, projection.ActionLoad, result.Log[1].Action.Type)
}

func TestRun_ExpectationMismatchFails(t *testing.T) {
	s := &Scenario{
		Name:        "mismatch",
		Description: "wrong expectations are reported",
		Flow: []Step{
			{Op: OpSave, Record: &record.Record{Date: "2024-05-01", Text: "x"}, Expect: &Expect{ID: "id-9999"}},
			{Op: OpToggle, ID: "id-0001", Expect: &Expect{Checked: boolPtr(false)}},
			{Op: OpLoadDate, Date: "2024-05-01", Expect: &Expect{Count: intPtr(3)}},
			{Op: OpLoadDates, Expect: &Expect{Dates: []string{"2024-05-02"}}},
		},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 4)
	assert.Contains(t, result.Errors[0], `expected id "id-9999"`)
	assert.Contains(t, result.Errors[1], "expected checked=false")
	assert.Contains(t, result.Errors[2], "expected 3 records, got 1")
	assert.Contains(t, result.Errors[3], "expected dates [2024-05-02]")
}

func TestRun_UnexpectedErrorFails(t *testing.T) {
	s := &Scenario{
		Name:        "not_found",
		Description: "toggling a missing id fails",
		Flow: []Step{
			{Op: OpToggle, ID: "ghost"},
		},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "unexpected error")
}

func TestRun_ExpectedErrorKinds(t *testing.T) {
	s := &Scenario{
		Name:        "errors",
		Description: "expected errors are matched by kind",
		Flow: []Step{
			{Op: OpEdit, ID: "ghost", Text: "x", Expect: &Expect{Error: ErrorNotFound}},
			{Op: OpSave, Record: &record.Record{Date: "2024-13-01"}, Expect: &Expect{Error: ErrorInvalid}},
			{Op: OpSave, Record: &record.Record{ID: "a.b", Date: "2024-01-01"}, Expect: &Expect{Error: ErrorInvalid}},
			{Op: OpLoadDate, Date: "yesterday", Expect: &Expect{Error: ErrorAny}},
		},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Empty(t, result.Log)
	assert.Empty(t, result.Keys)
}

func TestRun_ExpectedErrorButSucceeded(t *testing.T) {
	s := &Scenario{
		Name:        "no_error",
		Description: "success where an error was expected is a failure",
		Flow: []Step{
			{Op: OpLoadDates, Expect: &Expect{Error: ErrorAny}},
		},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "expected any error, got success")
}

func TestRun_WrongErrorKind(t *testing.T) {
	s := &Scenario{
		Name:        "wrong_kind",
		Description: "a not-found error does not satisfy invalid",
		Flow: []Step{
			{Op: OpEdit, ID: "ghost", Text: "x", Expect: &Expect{Error: ErrorInvalid}},
		},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "expected invalid error")
}

func TestRun_SetupFailureAborts(t *testing.T) {
	s := &Scenario{
		Name:        "bad_setup",
		Description: "setup must succeed",
		Setup: []Step{
			{Op: OpDelete, ID: "ghost"},
		},
		Flow: []Step{{Op: OpLoadDates}},
	}

	_, err := Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "setup[0] delete")
}

func TestRun_ScanFailureDegradesToEmpty(t *testing.T) {
	s := &Scenario{
		Name:        "scan_failure",
		Description: "a failing scan loads an empty list without an error",
		Setup: []Step{
			{Op: OpSave, Record: &record.Record{Date: "2024-01-01", Text: "a"}},
		},
		Flow: []Step{
			{Op: OpFail, Target: TargetScan},
			{Op: OpLoadDate, Date: "2024-01-01", Expect: &Expect{Count: intPtr(0)}},
			{Op: OpLoadDates, Expect: &Expect{Dates: []string{}}},
			{Op: OpHeal},
			{Op: OpLoadDates, Expect: &Expect{Dates: []string{"2024-01-01"}}},
		},
		Assertions: []Assertion{
			{Type: AssertKnownDates, Dates: []string{"2024-01-01"}},
			{Type: AssertStoredKeys, Keys: []string{"todo.2024-01-01.id-0001"}},
		},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_FailedDeleteKeepsProjection(t *testing.T) {
	s := &Scenario{
		Name:        "delete_failure",
		Description: "a failing delete leaves the record loaded and stored",
		Setup: []Step{
			{Op: OpSave, Record: &record.Record{Date: "2024-01-01", Text: "a"}},
			{Op: OpLoadDate, Date: "2024-01-01"},
		},
		Flow: []Step{
			{Op: OpFail, Target: TargetDelete},
			{Op: OpDelete, ID: "id-0001", Expect: &Expect{Error: ErrorAny}},
		},
		Assertions: []Assertion{
			{Type: AssertRecords, Records: []record.Record{{ID: "id-0001", Text: "a", Date: "2024-01-01"}}},
			{Type: AssertStoredKeys, Keys: []string{"todo.2024-01-01.id-0001"}},
			{Type: AssertActionCount, Action: "DELETE", Count: 0},
		},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_TextIsNormalized(t *testing.T) {
	composed := "caf\u00e9"
	s := &Scenario{
		Name:        "nfc",
		Description: "saved text is NFC normalized",
		Flow: []Step{
			{Op: OpSave, Record: &record.Record{Date: "2024-01-01", Text: "cafe\u0301"}, Expect: &Expect{Text: &composed}},
		},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_Isolated(t *testing.T) {
	s := &Scenario{
		Name:        "isolated",
		Description: "each run starts from an empty store",
		Flow: []Step{
			{Op: OpSave, Record: &record.Record{Date: "2024-01-01", Text: "a"}, Expect: &Expect{ID: "id-0001"}},
		},
	}

	for i := 0; i < 2; i++ {
		result, err := Run(s)
		require.NoError(t, err)
		assert.True(t, result.Pass, "run %d errors: %v", i, result.Errors)
		assert.Len(t, result.Keys, 1)
	}
}
