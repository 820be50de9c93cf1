package projection

import (
	"slices"

	"github.com/roach88/securetodo/internal/record"
)

// State is the projection: the currently loaded records (unique by id), the
// dates known to hold records, and which date the records belong to.
type State struct {
	Records    []record.Record `json:"records"`
	KnownDates []string        `json:"known_dates"`
	Scope      string          `json:"scope"`
}

// NewState returns the empty projection.
func NewState() State {
	return State{Records: []record.Record{}, KnownDates: []string{}}
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	c := State{
		Records:    slices.Clone(s.Records),
		KnownDates: slices.Clone(s.KnownDates),
		Scope:      s.Scope,
	}
	if c.Records == nil {
		c.Records = []record.Record{}
	}
	if c.KnownDates == nil {
		c.KnownDates = []string{}
	}
	return c
}

// Find returns the record with id.
func (s State) Find(id string) (record.Record, bool) {
	i := slices.IndexFunc(s.Records, func(r record.Record) bool { return r.ID == id })
	if i < 0 {
		return record.Record{}, false
	}
	return s.Records[i], true
}

// CountOnDate returns how many loaded records fall on date.
func (s State) CountOnDate(date string) int {
	n := 0
	for _, r := range s.Records {
		if r.Date == date {
			n++
		}
	}
	return n
}
