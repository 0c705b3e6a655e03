// Package config loads tool configuration from a TOML file under the
// user's XDG config home. Every field has a working default: a missing
// config file is not an error.
package config

import (
	"bytes"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/adrg/xdg"

	"github.com/Paretofilm/amplify-pipeline-mcp/errors"
)

// configRelPath is the config file location relative to the XDG config
// home.
const configRelPath = "amplify-pipeline/config.toml"

// Config holds tool-wide settings.
type Config struct {
	// Region is the AWS region for control plane calls.
	Region string `toml:"region"`

	// Remote is the git remote fixes are pushed to.
	Remote string `toml:"remote"`

	// MaxFixAttempts caps reactive fix attempts per recovery run.
	MaxFixAttempts int `toml:"max_fix_attempts"`

	// PollInterval is the build status poll interval.
	PollInterval duration `toml:"poll_interval"`

	// BuildTimeout bounds a single build watch.
	BuildTimeout duration `toml:"build_timeout"`

	// Committer identifies the author of automated fix commits.
	Committer Committer `toml:"committer"`
}

// Committer is the fix commit author identity.
type Committer struct {
	Name  string `toml:"name"`
	Email string `toml:"email"`
}

// duration wraps time.Duration with TOML string encoding ("30s", "5m").
type duration time.Duration

func (d *duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = duration(parsed)
	return nil
}

func (d duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Duration converts a config duration to time.Duration.
func (d duration) Duration() time.Duration { return time.Duration(d) }

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Region:         "us-east-1",
		Remote:         "origin",
		MaxFixAttempts: 1,
		PollInterval:   duration(15 * time.Second),
		BuildTimeout:   duration(30 * time.Minute),
		Committer: Committer{
			Name:  "amplify-auto-fix",
			Email: "auto-fix@users.noreply.github.com",
		},
	}
}

// DefaultPath returns the config file path under the XDG config home.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, configRelPath)
}

// Load reads configuration from path, layered over the defaults. A
// missing file yields the defaults; a malformed file is an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, errors.WrapWithContext(err, errors.CodeInvalidConfig,
			"could not read config file", map[string]any{"path": path})
	}
	if err := Parse(data, cfg); err != nil {
		return nil, errors.WrapWithContext(err, errors.CodeInvalidConfig,
			"could not parse config file", map[string]any{"path": path})
	}
	return cfg, nil
}

// Parse decodes TOML data over the given config.
func Parse(data []byte, cfg *Config) error {
	if err := toml.Unmarshal(data, cfg); err != nil {
		return err
	}
	return cfg.validate()
}

func (c *Config) validate() error {
	if c.MaxFixAttempts < 0 {
		return errors.Newf(errors.CodeInvalidConfig, "max_fix_attempts cannot be negative")
	}
	if c.PollInterval < 0 || c.BuildTimeout < 0 {
		return errors.Newf(errors.CodeInvalidConfig, "durations cannot be negative")
	}
	return nil
}

// Save writes the configuration to path, creating parent directories.
func Save(cfg *Config, path string) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return errors.Wrap(err, errors.CodeInvalidConfig, "could not encode config")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, errors.CodePersistFailed, "could not create config directory")
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return errors.WrapWithContext(err, errors.CodePersistFailed,
			"could not write config file", map[string]any{"path": path})
	}
	return nil
}
