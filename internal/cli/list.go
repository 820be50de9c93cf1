package cli

import (
	"context"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// ListOptions holds flags for the list command.
type ListOptions struct {
	*RootOptions
	Date string
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the to-dos for a date",
		Long: `List the to-dos for a date (today by default), in id order.

Example:
  securetodo list
  securetodo list --date 2024-01-01 --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Date, "date", "d", "", "date as YYYY-MM-DD (default today)")

	return cmd
}

func runList(opts *ListOptions, cmd *cobra.Command) error {
	return withSession(opts.RootOptions, cmd, func(ctx context.Context, s *session) error {
		date, err := resolveDate(opts.Date, time.Now)
		if err != nil {
			return s.out.Fail(ExitCommandError, ErrCodeInvalidInput, "invalid date", err)
		}

		records, err := s.ctrl.LoadDateScope(ctx, date)
		if err != nil {
			return s.failOp("failed to list to-dos", err)
		}
		return s.out.Result(RecordList{Date: date, Records: records}, formatRecords(date, records))
	})
}

// NewDatesCommand creates the dates command.
func NewDatesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "dates",
		Short: "List the dates that have to-dos",
		Long: `List every date that holds at least one to-do, in ascending order.
The list is rebuilt from a full scan of the store.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDates(rootOpts, cmd)
		},
	}
}

func runDates(opts *RootOptions, cmd *cobra.Command) error {
	return withSession(opts, cmd, func(ctx context.Context, s *session) error {
		dates, err := s.ctrl.LoadKnownDates(ctx)
		if err != nil {
			return s.failOp("failed to load dates", err)
		}

		text := "No to-dos yet\n"
		if len(dates) > 0 {
			text = strings.Join(dates, "\n") + "\n"
		}
		return s.out.Result(DateList{Dates: dates}, text)
	})
}
