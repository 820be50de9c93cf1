package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/securetodo/internal/keyscheme"
	"github.com/roach88/securetodo/internal/record"
)

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check <id>",
		Short: "Toggle whether a to-do is done",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(rootOpts, cmd, func(ctx context.Context, s *session) error {
				toggled, err := s.ctrl.ToggleChecked(ctx, record.Record{ID: args[0]})
				if err != nil {
					return s.failOp("failed to check to-do", err)
				}
				return s.out.Result(toggled, formatRecord(toggled)+"\n")
			})
		},
	}
}

// NewEditCommand creates the edit command.
func NewEditCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "edit <id> <text>...",
		Short: "Replace the text of a to-do",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(rootOpts, cmd, func(ctx context.Context, s *session) error {
				edited, err := s.ctrl.EditText(ctx, args[0], strings.Join(args[1:], " "))
				if err != nil {
					return s.failOp("failed to edit to-do", err)
				}
				return s.out.Result(edited, formatRecord(edited)+"\n")
			})
		},
	}
}

// NewMoveCommand creates the move command.
func NewMoveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "move <id> <date>",
		Short: "Move a to-do to another date",
		Long: `Move a to-do to another date. The record is written under the new
date before it is removed from the old one.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(rootOpts, cmd, func(ctx context.Context, s *session) error {
				if err := keyscheme.ValidateDate(args[1]); err != nil {
					return s.out.Fail(ExitCommandError, ErrCodeInvalidInput, "invalid date", err)
				}
				r, err := s.ctrl.Lookup(ctx, args[0])
				if err != nil {
					return s.failOp("failed to move to-do", err)
				}
				r.Date = args[1]
				moved, err := s.ctrl.Save(ctx, r)
				if err != nil {
					return s.failOp("failed to move to-do", err)
				}
				return s.out.Result(moved, formatRecord(moved)+"\n")
			})
		},
	}
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a to-do",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(rootOpts, cmd, func(ctx context.Context, s *session) error {
				r, err := s.ctrl.Lookup(ctx, args[0])
				if err != nil {
					return s.failOp("failed to delete to-do", err)
				}
				if err := s.ctrl.Delete(ctx, r); err != nil {
					return s.failOp("failed to delete to-do", err)
				}
				return s.out.Result(r, "Deleted "+formatRecord(r)+"\n")
			})
		},
	}
}
