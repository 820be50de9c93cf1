// Package config loads securetodo settings.
//
// Values are layered: built-in defaults, then an optional YAML file, then
// SECURETODO_* environment variables. Command-line flags are applied on
// top by the cli package.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/roach88/securetodo/internal/store"
)

// EnvPrefix is the environment variable prefix, e.g. SECURETODO_DATA_DIR.
const EnvPrefix = "SECURETODO"

// DatabaseFile is the SQLite file name inside DataDir.
const DatabaseFile = "todo.db"

// Config holds the settings for one securetodo installation.
type Config struct {
	// DataDir holds the database file.
	DataDir string `yaml:"data_dir" envconfig:"DATA_DIR"`

	// VaultDir holds the vault items. Defaults to DataDir/vault.
	VaultDir string `yaml:"vault_dir" envconfig:"VAULT_DIR"`

	// Namespace is the database namespace id.
	Namespace string `yaml:"namespace" envconfig:"NAMESPACE"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" envconfig:"LOG_LEVEL"`

	// Format is the CLI output format, text or json.
	Format string `yaml:"format" envconfig:"FORMAT"`
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		DataDir:   defaultDataDir(),
		Namespace: store.DefaultNamespace,
		LogLevel:  "info",
		Format:    "text",
	}
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil && dir != "" {
		return filepath.Join(dir, "securetodo")
	}
	return ".securetodo"
}

// Override adjusts a Config after the file and environment layers, before
// derived fields are resolved. The cli package uses it for flags.
type Override func(*Config)

// Load builds a Config from the defaults, the YAML file at path (skipped
// when path is empty), the environment, and then overrides in order.
func Load(path string, overrides ...Override) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	for _, override := range overrides {
		override(cfg)
	}

	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// ResolveDefaults derives the fields that depend on others.
func (c *Config) ResolveDefaults() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir must not be empty")
	}
	if c.VaultDir == "" {
		c.VaultDir = filepath.Join(c.DataDir, "vault")
	}
	c.LogLevel = strings.ToLower(c.LogLevel)
	c.Format = strings.ToLower(c.Format)
	return nil
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	switch {
	case c.DataDir == "":
		return fmt.Errorf("data_dir must not be empty")
	case c.VaultDir == "":
		return fmt.Errorf("vault_dir must not be empty")
	case c.Namespace == "":
		return fmt.Errorf("namespace must not be empty")
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.Format != "text" && c.Format != "json" {
		return fmt.Errorf("unsupported format: %s (want text or json)", c.Format)
	}
	return nil
}

// DatabasePath returns the SQLite file path.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, DatabaseFile)
}

// Level returns LogLevel as a slog level. Invalid levels map to Info;
// Validate rejects them.
func (c *Config) Level() slog.Level {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

func parseLevel(s string) (slog.Level, error) {
	switch s {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unsupported log_level: %s", s)
}

// NewForTesting creates a config rooted at dir, typically t.TempDir().
func NewForTesting(dir string) *Config {
	return &Config{
		DataDir:   dir,
		VaultDir:  filepath.Join(dir, "vault"),
		Namespace: store.DefaultNamespace,
		LogLevel:  "debug",
		Format:    "text",
	}
}
