package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/securetodo/internal/config"
	"github.com/roach88/securetodo/internal/controller"
	"github.com/roach88/securetodo/internal/keymanager"
	"github.com/roach88/securetodo/internal/store"
	"github.com/roach88/securetodo/internal/vault"
)

// session is everything one command invocation needs: resolved config, an
// opened store, and a controller over it.
type session struct {
	cfg    *config.Config
	out    *OutputFormatter
	logger *slog.Logger
	store  *store.Store
	ctrl   *controller.Controller
}

// openSession loads config (flags override file and environment), builds
// the vault, key manager, and store, and opens the store so that a missing
// vault or wrong secret surfaces before any command logic runs.
func openSession(ctx context.Context, opts *RootOptions, cmd *cobra.Command) (*session, error) {
	out := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	flags := cmd.Flags()
	cfg, err := config.Load(opts.ConfigPath, func(c *config.Config) {
		if opts.DataDir != "" {
			c.DataDir = opts.DataDir
		}
		if flags.Changed("format") {
			c.Format = opts.Format
		}
		if opts.Verbose {
			c.LogLevel = "debug"
		}
	})
	if err != nil {
		return nil, out.Fail(ExitCommandError, ErrCodeConfig, "failed to load config", err)
	}
	out.Format = cfg.Format

	// Configure logging based on config level (--verbose forces debug)
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: cfg.Level(),
	}))

	var (
		v      vault.Vault
		opener store.Opener
	)
	if opts.Memory {
		v = vault.NewMemoryVault()
		opener = store.MemoryOpener(store.NewMemoryEngine())
		logger.Debug("using in-memory store")
	} else {
		if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
			return nil, out.Fail(ExitCommandError, ErrCodeStore, "failed to create data directory", err)
		}
		v = vault.NewFileVault(cfg.VaultDir)
		opener = store.SQLiteOpener(cfg.DatabasePath())
		logger.Debug("opening database",
			"path", cfg.DatabasePath(),
			"vault", cfg.VaultDir,
		)
	}

	keys := keymanager.New(v, keymanager.WithLogger(logger))
	st := store.New(opener, keys,
		store.WithNamespace(cfg.Namespace),
		store.WithLogger(logger),
	)
	if err := st.Open(ctx); err != nil {
		_ = st.Close()
		if errors.Is(err, keymanager.ErrVaultUnavailable) {
			return nil, out.Fail(ExitCommandError, ErrCodeVault, "vault unavailable", err)
		}
		return nil, out.Fail(ExitCommandError, ErrCodeStore, "failed to open store", err)
	}

	ctrlOpts := []controller.Option{controller.WithLogger(logger)}
	if opts.IDGenerator != nil {
		ctrlOpts = append(ctrlOpts, controller.WithIDGenerator(opts.IDGenerator))
	}

	return &session{
		cfg:    cfg,
		out:    out,
		logger: logger,
		store:  st,
		ctrl:   controller.New(controller.StoreRecords(st), ctrlOpts...),
	}, nil
}

func (s *session) Close() error {
	if err := s.store.Close(); err != nil {
		return fmt.Errorf("close store: %w", err)
	}
	return nil
}

// withSession runs fn with an open session and closes it afterwards.
func withSession(opts *RootOptions, cmd *cobra.Command, fn func(ctx context.Context, s *session) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	s, err := openSession(ctx, opts, cmd)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); cerr != nil {
			s.logger.Warn("close failed", "error", cerr)
		}
	}()
	return fn(ctx, s)
}

// failOp maps a controller error to a reported ExitError.
func (s *session) failOp(message string, err error) error {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return err
	}
	switch {
	case errors.Is(err, controller.ErrNotFound):
		return s.out.Fail(ExitFailure, ErrCodeNotFound, message, err)
	case isInvalidInput(err):
		return s.out.Fail(ExitCommandError, ErrCodeInvalidInput, message, err)
	case errors.Is(err, keymanager.ErrVaultUnavailable):
		return s.out.Fail(ExitCommandError, ErrCodeVault, message, err)
	}
	return s.out.Fail(ExitFailure, ErrCodeStore, message, err)
}
