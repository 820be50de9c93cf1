package record

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/securetodo/internal/keyscheme"
)

// Record is a single to-do entry scoped to a calendar date.
type Record struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Checked bool   `json:"checked"`
	Date    string `json:"date"`
}

// ValidationError represents a validation error with field path and message.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e ValidationError) Unwrap() error {
	return e.Err
}

// Validate checks that r can be written to the store. A record without an id
// is valid only when requireID is false (ids are assigned on save).
func (r Record) Validate(requireID bool) error {
	if err := keyscheme.ValidateDate(r.Date); err != nil {
		return ValidationError{Field: "date", Message: fmt.Sprintf("must be YYYY-MM-DD, got %q", r.Date), Err: err}
	}
	if requireID && r.ID == "" {
		return ValidationError{Field: "id", Message: "must not be empty"}
	}
	if err := keyscheme.ValidateID(r.ID); err != nil {
		return ValidationError{Field: "id", Message: fmt.Sprintf("must not contain %q", keyscheme.Separator), Err: err}
	}
	return nil
}

// Key returns the storage key for r.
func (r Record) Key() (string, error) {
	return keyscheme.MakeKey(r.Date, r.ID)
}

// Normalized returns r with its text in Unicode NFC form.
func (r Record) Normalized() Record {
	r.Text = norm.NFC.String(r.Text)
	return r
}

// Toggled returns r with Checked inverted.
func (r Record) Toggled() Record {
	r.Checked = !r.Checked
	return r
}

// Marshal encodes r in the persisted JSON shape {id,text,checked,date}.
func Marshal(r Record) ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshal record: %w", err)
	}
	return data, nil
}

// Unmarshal decodes a persisted record. It fails on malformed JSON, on
// payloads that are not JSON objects, and on objects without an id (every
// persisted record has one).
func Unmarshal(data []byte) (Record, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return Record{}, fmt.Errorf("unmarshal record: %w", err)
	}
	if r.ID == "" {
		return Record{}, fmt.Errorf("unmarshal record: missing id")
	}
	return r, nil
}

// FormatDate renders t as a canonical calendar day in t's location.
func FormatDate(t time.Time) string {
	return t.Format(keyscheme.DateLayout)
}

// SortByID orders records by id. UUIDv7 ids sort by creation time, so this
// is also insertion order for generated ids.
func SortByID(records []Record) {
	slices.SortStableFunc(records, func(a, b Record) int {
		return strings.Compare(a.ID, b.ID)
	})
}

// Dates returns the distinct dates of records in ascending order.
func Dates(records []Record) []string {
	dates := make([]string, 0, len(records))
	for _, r := range records {
		dates = append(dates, r.Date)
	}
	slices.Sort(dates)
	return slices.Compact(dates)
}
