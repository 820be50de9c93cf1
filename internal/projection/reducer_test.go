package projection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/securetodo/internal/record"
)

func rec(id, date, text string) record.Record {
	return record.Record{ID: id, Date: date, Text: text}
}

func TestReduce_LoadScope(t *testing.T) {
	s := Reduce(NewState(), LoadScope("2024-01-01", []record.Record{rec("a", "2024-01-01", "x")}))

	assert.Equal(t, "2024-01-01", s.Scope)
	assert.Equal(t, []record.Record{rec("a", "2024-01-01", "x")}, s.Records)
	assert.Empty(t, s.KnownDates)
}

func TestReduce_LoadIsShallowMerge(t *testing.T) {
	s := Reduce(NewState(), LoadKnownDates([]string{"2024-01-02", "2024-01-01"}))
	s = Reduce(s, LoadScope("2024-01-01", []record.Record{rec("a", "2024-01-01", "x")}))

	assert.Equal(t, []string{"2024-01-01", "2024-01-02"}, s.KnownDates, "records load keeps dates")
	require.Len(t, s.Records, 1)

	s = Reduce(s, LoadKnownDates([]string{"2024-03-03"}))
	assert.Len(t, s.Records, 1, "dates load keeps records")
	assert.Equal(t, "2024-01-01", s.Scope)
	assert.Equal(t, []string{"2024-03-03"}, s.KnownDates)
}

func TestReduce_LoadEmptyClears(t *testing.T) {
	s := Reduce(NewState(), Upsert(rec("a", "2024-01-01", "x")))
	s = Reduce(s, LoadScope("2024-01-02", nil))

	assert.Empty(t, s.Records)
	assert.NotNil(t, s.Records)
	assert.Equal(t, []string{"2024-01-01"}, s.KnownDates)
}

func TestReduce_LoadNilPayload(t *testing.T) {
	s := Reduce(NewState(), Upsert(rec("a", "2024-01-01", "x")))
	assert.Equal(t, s, Reduce(s, Action{Type: ActionLoad}))
}

func TestReduce_UpsertAppends(t *testing.T) {
	s := Reduce(NewState(), Upsert(rec("a", "2024-01-01", "one")))
	s = Reduce(s, Upsert(rec("b", "2024-01-01", "two")))

	assert.Equal(t, []record.Record{rec("a", "2024-01-01", "one"), rec("b", "2024-01-01", "two")}, s.Records)
	assert.Equal(t, []string{"2024-01-01"}, s.KnownDates)
}

func TestReduce_UpsertReplacesWholesale(t *testing.T) {
	old := record.Record{ID: "a", Date: "2024-01-01", Text: "old text", Checked: true}
	s := Reduce(NewState(), Upsert(old))

	// The new value has no text and is unchecked; nothing from old survives.
	s = Reduce(s, Upsert(record.Record{ID: "a", Date: "2024-01-01"}))

	require.Len(t, s.Records, 1)
	assert.Equal(t, record.Record{ID: "a", Date: "2024-01-01"}, s.Records[0])
}

func TestReduce_UpsertAddsDateSorted(t *testing.T) {
	s := Reduce(NewState(), Upsert(rec("a", "2024-03-01", "")))
	s = Reduce(s, Upsert(rec("b", "2024-01-01", "")))
	s = Reduce(s, Upsert(rec("c", "2024-02-01", "")))
	s = Reduce(s, Upsert(rec("d", "2024-02-01", "")))

	assert.Equal(t, []string{"2024-01-01", "2024-02-01", "2024-03-01"}, s.KnownDates)
}

func TestReduce_UpsertWithoutIDIsNoop(t *testing.T) {
	s := Reduce(NewState(), Upsert(record.Record{Date: "2024-01-01", Text: "no id"}))
	assert.Empty(t, s.Records)
	assert.Empty(t, s.KnownDates)
}

func TestReduce_Delete(t *testing.T) {
	s := Reduce(NewState(), Upsert(rec("a", "2024-01-01", "")))
	s = Reduce(s, Upsert(rec("b", "2024-01-01", "")))
	s = Reduce(s, Delete(rec("a", "2024-01-01", "")))

	assert.Equal(t, []record.Record{rec("b", "2024-01-01", "")}, s.Records)
}

func TestReduce_DeleteKeepsKnownDates(t *testing.T) {
	s := Reduce(NewState(), Upsert(rec("a", "2024-01-01", "")))
	s = Reduce(s, Delete(rec("a", "2024-01-01", "")))

	assert.Empty(t, s.Records)
	assert.Equal(t, []string{"2024-01-01"}, s.KnownDates, "reconciliation happens by rescan, not here")
}

func TestReduce_DeleteUnknownIsNoop(t *testing.T) {
	s := Reduce(NewState(), Upsert(rec("a", "2024-01-01", "")))
	assert.Equal(t, s, Reduce(s, Delete(rec("zzz", "2024-01-01", ""))))
}

func TestReduce_Check(t *testing.T) {
	s := Reduce(NewState(), Upsert(rec("a", "2024-01-01", "")))
	s = Reduce(s, Check("a"))
	assert.True(t, s.Records[0].Checked)

	s = Reduce(s, Check("a"))
	assert.False(t, s.Records[0].Checked)
}

func TestReduce_CheckUnknownIsNoop(t *testing.T) {
	s := Reduce(NewState(), Upsert(rec("a", "2024-01-01", "")))
	assert.Equal(t, s, Reduce(s, Check("nope")))
}

func TestReduce_UnknownAction(t *testing.T) {
	s := Reduce(NewState(), Upsert(rec("a", "2024-01-01", "")))
	assert.Equal(t, s, Reduce(s, Action{Type: "EDIT"}))
}

func TestReduce_DoesNotMutateInput(t *testing.T) {
	before := Reduce(NewState(), Upsert(rec("a", "2024-01-01", "")))
	before = Reduce(before, Upsert(rec("b", "2024-01-02", "")))
	snapshot := before.Clone()

	_ = Reduce(before, Check("a"))
	_ = Reduce(before, Delete(rec("a", "2024-01-01", "")))
	_ = Reduce(before, Upsert(rec("a", "2024-01-05", "changed")))
	_ = Reduce(before, LoadScope("x", nil))

	assert.Equal(t, snapshot, before)
}

func TestReduce_Deterministic(t *testing.T) {
	actions := []Action{
		LoadKnownDates([]string{"2024-01-01"}),
		Upsert(rec("a", "2024-01-01", "")),
		Check("a"),
		Upsert(rec("b", "2024-01-02", "")),
		Delete(rec("a", "2024-01-01", "")),
	}
	run := func() State {
		s := NewState()
		for _, a := range actions {
			s = Reduce(s, a)
		}
		return s
	}
	assert.Equal(t, run(), run())
}

func TestState_Find(t *testing.T) {
	s := Reduce(NewState(), Upsert(rec("a", "2024-01-01", "x")))

	got, ok := s.Find("a")
	assert.True(t, ok)
	assert.Equal(t, "x", got.Text)

	_, ok = s.Find("b")
	assert.False(t, ok)
}

func TestState_CountOnDate(t *testing.T) {
	s := Reduce(NewState(), Upsert(rec("a", "2024-01-01", "")))
	s = Reduce(s, Upsert(rec("b", "2024-01-02", "")))
	s = Reduce(s, Upsert(rec("c", "2024-01-01", "")))

	assert.Equal(t, 2, s.CountOnDate("2024-01-01"))
	assert.Equal(t, 0, s.CountOnDate("2030-01-01"))
}
