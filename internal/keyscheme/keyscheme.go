// Package keyscheme maps a record's (date, id) pair to and from the storage
// key string used by the encrypted store.
//
// Keys have the form
//
//	todo.<date>.<id>
//
// where date is a calendar day in YYYY-MM-DD form. The scheme supports two
// scan granularities: RootPrefix() matches every record and
// MakeDatePrefix(d) matches every record of one day. For all valid d and i:
//
//	RootPrefix() ⊑ MakeDatePrefix(d) ⊑ MakeKey(d, i)
//
// Neither date nor id may contain the separator, so a prefix match can never
// cross from one date into another.
package keyscheme

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// Namespace is the reserved root segment of every record key.
	Namespace = "todo"

	// Separator joins the namespace, date and id segments.
	Separator = "."

	// DateLayout is the canonical calendar-day format.
	DateLayout = "2006-01-02"
)

var (
	// ErrInvalidDate is returned for dates not in canonical YYYY-MM-DD form.
	ErrInvalidDate = errors.New("keyscheme: invalid date")

	// ErrInvalidID is returned for ids that contain the separator.
	ErrInvalidID = errors.New("keyscheme: invalid id")

	// ErrInvalidKey is returned by ParseKey for keys outside the namespace.
	ErrInvalidKey = errors.New("keyscheme: invalid key")
)

// RootPrefix returns the prefix shared by every record key.
func RootPrefix() string {
	return Namespace + Separator
}

// MakeDatePrefix returns the prefix shared by every record key for date.
// The trailing separator is part of the prefix so "2024-01-1" style inputs
// can never match "2024-01-10" keys (they are rejected anyway).
func MakeDatePrefix(date string) (string, error) {
	if err := ValidateDate(date); err != nil {
		return "", err
	}
	return RootPrefix() + date + Separator, nil
}

// MakeKey returns the storage key for a record. An empty id yields the date
// prefix itself; callers assign ids before writing.
func MakeKey(date, id string) (string, error) {
	prefix, err := MakeDatePrefix(date)
	if err != nil {
		return "", err
	}
	if err := ValidateID(id); err != nil {
		return "", err
	}
	return prefix + id, nil
}

// ParseKey splits a record key into its date and id segments.
func ParseKey(key string) (date, id string, err error) {
	rest, ok := strings.CutPrefix(key, RootPrefix())
	if !ok {
		return "", "", fmt.Errorf("%w: %q lacks prefix %q", ErrInvalidKey, key, RootPrefix())
	}
	date, id, ok = strings.Cut(rest, Separator)
	if !ok {
		return "", "", fmt.Errorf("%w: %q has no id segment", ErrInvalidKey, key)
	}
	if err := ValidateDate(date); err != nil {
		return "", "", err
	}
	if err := ValidateID(id); err != nil {
		return "", "", err
	}
	return date, id, nil
}

// ValidateDate reports whether date is a real calendar day in canonical form.
func ValidateDate(date string) error {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	// time.Parse accepts some non-canonical inputs; round-trip to be sure.
	if t.Format(DateLayout) != date {
		return fmt.Errorf("%w: %q is not canonical", ErrInvalidDate, date)
	}
	return nil
}

// ValidateID rejects ids containing the separator. The empty id is valid
// here; record validation requires a non-empty id before a write.
func ValidateID(id string) error {
	if strings.Contains(id, Separator) {
		return fmt.Errorf("%w: %q contains %q", ErrInvalidID, id, Separator)
	}
	return nil
}
