package projection

import (
	"slices"

	"github.com/roach88/securetodo/internal/record"
)

// Reduce applies action to state and returns the new state. The input state
// is never modified. Unknown actions, and actions missing their payload,
// return an unchanged copy.
func Reduce(state State, action Action) State {
	next := state.Clone()

	switch action.Type {
	case ActionLoad:
		if action.Load == nil {
			return next
		}
		if action.Load.Records != nil {
			next.Records = slices.Clone(*action.Load.Records)
		}
		if action.Load.KnownDates != nil {
			next.KnownDates = slices.Clone(*action.Load.KnownDates)
			slices.Sort(next.KnownDates)
			next.KnownDates = slices.Compact(next.KnownDates)
		}
		if action.Load.Scope != nil {
			next.Scope = *action.Load.Scope
		}

	case ActionUpsert:
		// Ids are assigned by the caller before dispatch; without one there
		// is nothing to replace by.
		if action.Record == nil || action.Record.ID == "" {
			return next
		}
		r := *action.Record
		next.Records = removeByID(next.Records, r.ID)
		next.Records = append(next.Records, r)
		next.KnownDates = addDate(next.KnownDates, r.Date)

	case ActionDelete:
		if action.Record == nil {
			return next
		}
		// KnownDates is left alone: whether the date still has records
		// elsewhere is only known to the store.
		next.Records = removeByID(next.Records, action.Record.ID)

	case ActionCheck:
		if action.Record == nil {
			return next
		}
		for i := range next.Records {
			if next.Records[i].ID == action.Record.ID {
				next.Records[i] = next.Records[i].Toggled()
			}
		}
	}

	if next.Records == nil {
		next.Records = []record.Record{}
	}
	if next.KnownDates == nil {
		next.KnownDates = []string{}
	}
	return next
}

func removeByID(records []record.Record, id string) []record.Record {
	return slices.DeleteFunc(records, func(r record.Record) bool { return r.ID == id })
}

// addDate inserts date keeping dates sorted and distinct.
func addDate(dates []string, date string) []string {
	if date == "" {
		return dates
	}
	i, found := slices.BinarySearch(dates, date)
	if found {
		return dates
	}
	return slices.Insert(dates, i, date)
}
