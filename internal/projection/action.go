package projection

import (
	"slices"

	"github.com/roach88/securetodo/internal/record"
)

// ActionType names a projection transition.
type ActionType string

const (
	// ActionLoad shallow-merges the provided fields into the state.
	ActionLoad ActionType = "LOAD"

	// ActionUpsert replaces a record by id (or appends a new one).
	ActionUpsert ActionType = "UPSERT"

	// ActionDelete removes a record by id.
	ActionDelete ActionType = "DELETE"

	// ActionCheck toggles a record's checked flag by id.
	ActionCheck ActionType = "CHECK"
)

// Action is one projection transition.
type Action struct {
	Type ActionType `json:"type"`

	// Record is the payload of UPSERT, and carries the target id of DELETE
	// and CHECK.
	Record *record.Record `json:"record,omitempty"`

	// Load is the payload of LOAD.
	Load *LoadPayload `json:"load,omitempty"`
}

// LoadPayload lists the fields a LOAD sets. A nil field is left untouched;
// a non-nil pointer to an empty slice clears that field.
type LoadPayload struct {
	Records    *[]record.Record `json:"records,omitempty"`
	KnownDates *[]string        `json:"known_dates,omitempty"`
	Scope      *string          `json:"scope,omitempty"`
}

// LoadScope sets the materialized records and the date they belong to.
func LoadScope(scope string, records []record.Record) Action {
	recs := slices.Clone(records)
	if recs == nil {
		recs = []record.Record{}
	}
	return Action{Type: ActionLoad, Load: &LoadPayload{Records: &recs, Scope: &scope}}
}

// LoadKnownDates sets the known-dates index.
func LoadKnownDates(dates []string) Action {
	ds := slices.Clone(dates)
	if ds == nil {
		ds = []string{}
	}
	return Action{Type: ActionLoad, Load: &LoadPayload{KnownDates: &ds}}
}

// Upsert replaces the record with r.ID wholesale, or appends r.
func Upsert(r record.Record) Action {
	return Action{Type: ActionUpsert, Record: &r}
}

// Delete removes the record with r.ID.
func Delete(r record.Record) Action {
	return Action{Type: ActionDelete, Record: &r}
}

// Check toggles the checked flag of the record with id.
func Check(id string) Action {
	return Action{Type: ActionCheck, Record: &record.Record{ID: id}}
}
