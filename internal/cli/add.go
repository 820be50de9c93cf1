package cli

import (
	"context"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/securetodo/internal/record"
)

// AddOptions holds flags for the add command.
type AddOptions struct {
	*RootOptions
	Date string
}

// NewAddCommand creates the add command.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AddOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add <text>...",
		Short: "Add a to-do",
		Long: `Add a to-do for a date (today by default). The words of the
arguments are joined with spaces to form the text.

Example:
  securetodo add buy milk
  securetodo add --date 2024-01-01 "file taxes"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd(opts, strings.Join(args, " "), cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Date, "date", "d", "", "date as YYYY-MM-DD (default today)")

	return cmd
}

func runAdd(opts *AddOptions, text string, cmd *cobra.Command) error {
	return withSession(opts.RootOptions, cmd, func(ctx context.Context, s *session) error {
		date, err := resolveDate(opts.Date, time.Now)
		if err != nil {
			return s.out.Fail(ExitCommandError, ErrCodeInvalidInput, "invalid date", err)
		}

		saved, err := s.ctrl.Save(ctx, record.Record{Date: date, Text: text})
		if err != nil {
			return s.failOp("failed to add to-do", err)
		}
		s.out.VerboseLog("Saved %s under %s", saved.ID, saved.Date)
		return s.out.Result(saved, "Added "+formatRecord(saved)+"\n")
	})
}
