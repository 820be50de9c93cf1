package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{"DATA_DIR", "VAULT_DIR", "NAMESPACE", "LOG_LEVEL", "FORMAT"} {
		t.Setenv(EnvPrefix+"_"+name, "")
		require.NoError(t, os.Unsetenv(EnvPrefix+"_"+name))
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.NotEmpty(t, cfg.DataDir)
	assert.Equal(t, filepath.Join(cfg.DataDir, "vault"), cfg.VaultDir)
	assert.Equal(t, "secure-todo-storage", cfg.Namespace)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.Format)
	assert.Equal(t, filepath.Join(cfg.DataDir, "todo.db"), cfg.DatabasePath())
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "data_dir: /tmp/todos\nformat: json\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/todos", cfg.DataDir)
	assert.Equal(t, "/tmp/todos/vault", cfg.VaultDir)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, "info", cfg.LogLevel, "unset keys keep defaults")
}

func TestLoad_EmptyFile(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, "text", cfg.Format)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "data_dir: /from/file\nlog_level: warn\n")
	t.Setenv("SECURETODO_DATA_DIR", "/from/env")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/from/env", cfg.DataDir)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoad_OverridesWin(t *testing.T) {
	clearEnv(t)
	t.Setenv("SECURETODO_DATA_DIR", "/from/env")

	cfg, err := Load("", func(c *Config) { c.DataDir = "/from/flag" })
	require.NoError(t, err)
	assert.Equal(t, "/from/flag", cfg.DataDir)
	assert.Equal(t, "/from/flag/vault", cfg.VaultDir, "vault dir derives from the final data dir")
}

func TestLoad_ExplicitVaultDir(t *testing.T) {
	clearEnv(t)
	t.Setenv("SECURETODO_VAULT_DIR", "/secrets")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/secrets", cfg.VaultDir)
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestLoad_UnknownKey(t *testing.T) {
	clearEnv(t)
	_, err := Load(writeConfig(t, "data_dri: /typo\n"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"bad format", "format: xml\n", "unsupported format"},
		{"bad level", "log_level: loud\n", "unsupported log_level"},
		{"empty namespace", "namespace: \"\"\n", "namespace must not be empty"},
		{"empty data dir", "data_dir: \"\"\n", "data_dir must not be empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			_, err := Load(writeConfig(t, tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_CaseInsensitiveEnums(t *testing.T) {
	clearEnv(t)
	t.Setenv("SECURETODO_FORMAT", "JSON")
	t.Setenv("SECURETODO_LOG_LEVEL", "Debug")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, slog.LevelDebug, cfg.Level())
}

func TestLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
		"bogus": slog.LevelInfo,
	}
	for in, want := range tests {
		cfg := &Config{LogLevel: in}
		assert.Equal(t, want, cfg.Level(), "level %q", in)
	}
}

func TestNewForTesting(t *testing.T) {
	dir := t.TempDir()
	cfg := NewForTesting(dir)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, filepath.Join(dir, "vault"), cfg.VaultDir)
	assert.Equal(t, filepath.Join(dir, "todo.db"), cfg.DatabasePath())
}
