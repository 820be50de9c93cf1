package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/securetodo/internal/projection"
)

// LogOptions holds flags for the log command.
type LogOptions struct {
	*RootOptions
	Date string
}

// LogResult is the JSON payload of log.
type LogResult struct {
	Entries []projection.Entry `json:"entries"`
	State   projection.State   `json:"state"`
}

// NewLogCommand creates the log command.
func NewLogCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LogOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show the projection actions for a date",
		Long: `Load the known dates and the to-dos for a date (today by default),
then print the actions that built the in-memory projection and the
resulting state. Useful for checking what the store holds.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLog(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Date, "date", "d", "", "date as YYYY-MM-DD (default today)")

	return cmd
}

func runLog(opts *LogOptions, cmd *cobra.Command) error {
	return withSession(opts.RootOptions, cmd, func(ctx context.Context, s *session) error {
		date, err := resolveDate(opts.Date, time.Now)
		if err != nil {
			return s.out.Fail(ExitCommandError, ErrCodeInvalidInput, "invalid date", err)
		}

		if _, err := s.ctrl.LoadKnownDates(ctx); err != nil {
			return s.failOp("failed to load dates", err)
		}
		if _, err := s.ctrl.LoadDateScope(ctx, date); err != nil {
			return s.failOp("failed to load to-dos", err)
		}

		result := LogResult{Entries: s.ctrl.Log(), State: s.ctrl.State()}
		return s.out.Result(result, formatLog(result))
	})
}

func formatLog(result LogResult) string {
	var b strings.Builder
	for _, e := range result.Entries {
		fmt.Fprintf(&b, "%d %s %s\n", e.Seq, e.Action.Type, describeAction(e.Action))
	}
	fmt.Fprintf(&b, "scope=%s records=%d known_dates=%s\n",
		result.State.Scope, len(result.State.Records), strings.Join(result.State.KnownDates, ","))
	return b.String()
}

// describeAction summarizes an action's payload on one line.
func describeAction(a projection.Action) string {
	switch {
	case a.Load != nil:
		var parts []string
		if a.Load.Scope != nil {
			parts = append(parts, "scope="+*a.Load.Scope)
		}
		if a.Load.Records != nil {
			parts = append(parts, fmt.Sprintf("records=%d", len(*a.Load.Records)))
		}
		if a.Load.KnownDates != nil {
			parts = append(parts, "known_dates="+strings.Join(*a.Load.KnownDates, ","))
		}
		return strings.Join(parts, " ")
	case a.Record != nil:
		return "id=" + a.Record.ID
	}
	return ""
}
