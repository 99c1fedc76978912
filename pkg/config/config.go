// Package config loads and validates the snapdrill configuration. CUE and
// JSON files go through the CUE evaluator (JSON is a subset of CUE), YAML
// files through the YAML decoder; credentials can always be supplied or
// overridden through the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cuelang.org/go/cue/cuecontext"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Environment variables overriding the credential fields.
const (
	EnvClientID     = "SNAPDRILL_CLIENT_ID"
	EnvClientSecret = "SNAPDRILL_CLIENT_SECRET"
)

// Config is the full snapdrill configuration.
type Config struct {
	Platform PlatformConfig `json:"platform" yaml:"platform"`
	Poll     PollConfig     `json:"poll" yaml:"poll"`
	Mount    MountConfig    `json:"mount" yaml:"mount"`
	Store    StoreConfig    `json:"store" yaml:"store"`
}

// PlatformConfig carries the service-account credentials for the backup
// platform.
type PlatformConfig struct {
	// Legacy field names are kept so existing config.json files written for
	// the RUBRIK_* convention keep loading unchanged.
	BaseURL      string   `json:"RUBRIK_BASE_URL" yaml:"base_url" validate:"required,url"`
	ClientID     string   `json:"RUBRIK_CLIENT_ID" yaml:"client_id" validate:"required"`
	ClientSecret string   `json:"RUBRIK_CLIENT_SECRET" yaml:"client_secret" validate:"required"`
	Timeout      Duration `json:"timeout,omitempty" yaml:"timeout"`
}

// PollConfig bounds the status polling loop.
type PollConfig struct {
	Interval    Duration `json:"interval,omitempty" yaml:"interval" validate:"min=0"`
	MaxAttempts int      `json:"max_attempts,omitempty" yaml:"max_attempts" validate:"min=0"`
}

// MountConfig tunes the live-mount locate and teardown steps.
type MountConfig struct {
	NamePrefix      string   `json:"name_prefix,omitempty" yaml:"name_prefix"`
	GracePeriod     Duration `json:"grace_period,omitempty" yaml:"grace_period" validate:"min=0"`
	TeardownRetries int      `json:"teardown_retries,omitempty" yaml:"teardown_retries" validate:"min=0"`
	TeardownDelay   Duration `json:"teardown_delay,omitempty" yaml:"teardown_delay" validate:"min=0"`
}

// StoreConfig points at the run-history database.
type StoreConfig struct {
	Path string `json:"path,omitempty" yaml:"path"`
}

// Default returns the built-in configuration, valid except for credentials.
func Default() *Config {
	return &Config{
		Poll: PollConfig{
			Interval:    Duration(5 * time.Second),
			MaxAttempts: 72,
		},
		Mount: MountConfig{
			NamePrefix:      "vm-mount-",
			GracePeriod:     Duration(10 * time.Second),
			TeardownRetries: 3,
			TeardownDelay:   Duration(10 * time.Second),
		},
		Store: StoreConfig{
			Path: "snapdrill.db",
		},
		Platform: PlatformConfig{
			Timeout: Duration(60 * time.Second),
		},
	}
}

// Load reads the configuration file at path, applies defaults and
// environment overrides, and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue", ".json":
		if err := decodeCUE(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format: %s", filepath.Ext(path))
	}

	applyEnv(cfg)
	fillDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decodeCUE(data []byte, cfg *Config) error {
	ctx := cuecontext.New()
	val := ctx.CompileBytes(data)
	if err := val.Err(); err != nil {
		return err
	}
	if err := val.Decode(cfg); err != nil {
		return err
	}
	if cfg.Platform.BaseURL == "" {
		// Legacy config.json keeps the RUBRIK_* fields at the top level
		// rather than under a platform section.
		return val.Decode(&cfg.Platform)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvClientID); v != "" {
		cfg.Platform.ClientID = v
	}
	if v := os.Getenv(EnvClientSecret); v != "" {
		cfg.Platform.ClientSecret = v
	}
}

// fillDefaults restores defaults zeroed out by an explicit empty value in
// the file. A config that sets interval to 0 gets the default back; the way
// to disable polling is to not run a workflow.
func fillDefaults(cfg *Config) {
	def := Default()
	if cfg.Poll.Interval <= 0 {
		cfg.Poll.Interval = def.Poll.Interval
	}
	if cfg.Poll.MaxAttempts <= 0 {
		cfg.Poll.MaxAttempts = def.Poll.MaxAttempts
	}
	if cfg.Mount.NamePrefix == "" {
		cfg.Mount.NamePrefix = def.Mount.NamePrefix
	}
	if cfg.Mount.GracePeriod <= 0 {
		cfg.Mount.GracePeriod = def.Mount.GracePeriod
	}
	if cfg.Mount.TeardownRetries <= 0 {
		cfg.Mount.TeardownRetries = def.Mount.TeardownRetries
	}
	if cfg.Mount.TeardownDelay <= 0 {
		cfg.Mount.TeardownDelay = def.Mount.TeardownDelay
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = def.Store.Path
	}
	if cfg.Platform.Timeout <= 0 {
		cfg.Platform.Timeout = def.Platform.Timeout
	}
}

// Validate checks the configuration against its struct constraints.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
