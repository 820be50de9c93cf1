package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/roach88/securetodo/internal/keyscheme"
	"github.com/roach88/securetodo/internal/record"
)

// RecordList is the JSON payload of list.
type RecordList struct {
	Date    string          `json:"date"`
	Records []record.Record `json:"records"`
}

// DateList is the JSON payload of dates.
type DateList struct {
	Dates []string `json:"dates"`
}

// formatRecord renders one record as a text line.
func formatRecord(r record.Record) string {
	box := "[ ]"
	if r.Checked {
		box = "[x]"
	}
	return fmt.Sprintf("%s %s  %s  %s", box, r.ID, r.Date, r.Text)
}

func formatRecords(date string, records []record.Record) string {
	if len(records) == 0 {
		return fmt.Sprintf("No to-dos for %s\n", date)
	}
	var b strings.Builder
	for _, r := range records {
		b.WriteString(formatRecord(r))
		b.WriteByte('\n')
	}
	return b.String()
}

// resolveDate returns flagValue, or today when it is empty.
func resolveDate(flagValue string, now func() time.Time) (string, error) {
	if flagValue == "" {
		return record.FormatDate(now()), nil
	}
	if err := keyscheme.ValidateDate(flagValue); err != nil {
		return "", fmt.Errorf("date %q: %w", flagValue, err)
	}
	return flagValue, nil
}

func isInvalidInput(err error) bool {
	var verr record.ValidationError
	return errors.As(err, &verr) ||
		errors.Is(err, keyscheme.ErrInvalidDate) ||
		errors.Is(err, keyscheme.ErrInvalidID)
}
