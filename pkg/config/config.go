// Package config provides configuration file support for fcp.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/jvs-project/fcp/pkg/errclass"
	"github.com/jvs-project/fcp/pkg/fsutil"
	"github.com/jvs-project/fcp/pkg/webhook"
)

// DefaultChunkSize is the number of bytes moved per read/write cycle.
const DefaultChunkSize = 1 << 20

// Conflict policies for an existing destination.
const (
	ConflictAsk       = "ask"
	ConflictOverwrite = "overwrite"
	ConflictAbandon   = "abandon"
)

// Config represents the fcp configuration.
type Config struct {
	ChunkSize       int                  `yaml:"chunk_size" json:"chunk_size"`
	OnConflict      string               `yaml:"on_conflict" json:"on_conflict"`
	Sync            bool                 `yaml:"sync" json:"sync"`
	PreserveTimes   bool                 `yaml:"preserve_times" json:"preserve_times"`
	ProgressEnabled *bool                `yaml:"progress_enabled,omitempty" json:"progress_enabled,omitempty"`
	TUI             *bool                `yaml:"tui,omitempty" json:"tui,omitempty"`
	Journal         string               `yaml:"journal,omitempty" json:"journal,omitempty"`
	Webhooks        []webhook.HookConfig `yaml:"webhooks,omitempty" json:"webhooks,omitempty"`
	Logging         LoggingConfig        `yaml:"logging" json:"logging"`
}

// LoggingConfig configures logging behavior.
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"` // json, text
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		ChunkSize:  DefaultChunkSize,
		OnConflict: ConflictAsk,
		Sync:       true,
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/fcp/config.yaml, falling back to
// ~/.config/fcp/config.yaml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(dir, "fcp", "config.yaml"), nil
}

// Load loads configuration from path.
// Returns default config if the file doesn't exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil // No config file is OK, use defaults
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes configuration to path.
func Save(path string, cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := fsutil.AtomicWrite(afero.NewOsFs(), path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}

// Validate rejects values the engine cannot run with.
func (c *Config) Validate() error {
	if c.ChunkSize <= 0 {
		return errclass.ErrConfigInvalid.WithMessagef("chunk_size must be positive, got %d", c.ChunkSize)
	}
	switch c.OnConflict {
	case ConflictAsk, ConflictOverwrite, ConflictAbandon:
	default:
		return errclass.ErrConfigInvalid.WithMessagef("on_conflict must be ask, overwrite or abandon, got %q", c.OnConflict)
	}
	for i, h := range c.Webhooks {
		u, err := url.Parse(h.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return errclass.ErrConfigInvalid.WithMessagef("webhooks[%d].url must be an http(s) URL, got %q", i, h.URL)
		}
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return errclass.ErrConfigInvalid.WithMessagef("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		return errclass.ErrConfigInvalid.WithMessagef("logging.format must be json or text, got %q", c.Logging.Format)
	}
	return nil
}

// Keys lists the settable configuration keys in display order.
var Keys = []string{
	"chunk_size",
	"on_conflict",
	"sync",
	"preserve_times",
	"progress_enabled",
	"tui",
	"journal",
	"logging.level",
	"logging.format",
}

// Get returns the value of key as text. Unset optional values return "".
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "chunk_size":
		return strconv.Itoa(c.ChunkSize), nil
	case "on_conflict":
		return c.OnConflict, nil
	case "sync":
		return strconv.FormatBool(c.Sync), nil
	case "preserve_times":
		return strconv.FormatBool(c.PreserveTimes), nil
	case "progress_enabled":
		return optionalBool(c.ProgressEnabled), nil
	case "tui":
		return optionalBool(c.TUI), nil
	case "journal":
		return c.Journal, nil
	case "logging.level":
		return c.Logging.Level, nil
	case "logging.format":
		return c.Logging.Format, nil
	}
	return "", errclass.ErrConfigInvalid.WithMessagef("unknown key %q", key)
}

// Set parses value into key and validates the result.
// An empty value clears progress_enabled and tui back to auto-detect.
func (c *Config) Set(key, value string) error {
	next := *c
	var err error
	switch key {
	case "chunk_size":
		next.ChunkSize, err = strconv.Atoi(value)
	case "on_conflict":
		next.OnConflict = value
	case "sync":
		next.Sync, err = strconv.ParseBool(value)
	case "preserve_times":
		next.PreserveTimes, err = strconv.ParseBool(value)
	case "progress_enabled":
		next.ProgressEnabled, err = parseOptionalBool(value)
	case "tui":
		next.TUI, err = parseOptionalBool(value)
	case "journal":
		next.Journal = value
	case "logging.level":
		next.Logging.Level = value
	case "logging.format":
		next.Logging.Format = value
	default:
		return errclass.ErrConfigInvalid.WithMessagef("unknown key %q", key)
	}
	if err != nil {
		return errclass.ErrConfigInvalid.WithMessagef("%s: invalid value %q", key, value)
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}

func optionalBool(b *bool) string {
	if b == nil {
		return ""
	}
	return strconv.FormatBool(*b)
}

func parseOptionalBool(s string) (*bool, error) {
	if s == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
