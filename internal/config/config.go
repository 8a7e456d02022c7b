// Package config loads agora settings from a YAML file and AGORA_*
// environment variables.
//
// Precedence, lowest first: built-in defaults, the file, the environment,
// then command-line flags (applied by the cli package).
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/agora/internal/hashtag"
	"github.com/roach88/agora/internal/session"
	"github.com/roach88/agora/internal/store"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "AGORA_"

// Config is the complete agora configuration.
type Config struct {
	DataDir   string         `yaml:"data_dir"`
	Driver    string         `yaml:"driver"`
	Layout    string         `yaml:"layout"`
	LogLevel  string         `yaml:"log_level"`
	LogFormat string         `yaml:"log_format"`
	Session   SessionConfig  `yaml:"session"`
	Hashtags  HashtagsConfig `yaml:"hashtags"`
}

// SessionConfig holds session lifetime settings.
type SessionConfig struct {
	TTL           Duration `yaml:"ttl"`
	SweepInterval Duration `yaml:"sweep_interval"`
}

// HashtagsConfig holds hashtag settings.
type HashtagsConfig struct {
	Max int `yaml:"max"`
}

// Duration is a time.Duration written as a Go duration string ("24h").
type Duration time.Duration

// UnmarshalYAML parses a duration string.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return fmt.Errorf("line %d: duration must be a string: %w", node.Line, err)
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*d = Duration(v)
	return nil
}

// MarshalYAML writes the duration string.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

func (d Duration) String() string { return time.Duration(d).String() }

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DataDir:   "data",
		Driver:    store.DefaultDriver,
		LogLevel:  "info",
		LogFormat: "text",
		Session: SessionConfig{
			TTL:           Duration(session.DefaultTTL),
			SweepInterval: Duration(session.DefaultSweepInterval),
		},
		Hashtags: HashtagsConfig{Max: hashtag.DefaultMaxTags},
	}
}

// Load builds a configuration from defaults, the optional YAML file at
// path and the process environment, then validates it.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := cfg.decode(data); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// decode overlays YAML onto cfg. Unknown keys are rejected.
func (c *Config) decode(data []byte) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	return nil
}

// ApplyEnv overrides fields from AGORA_* variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}
	str("DATA_DIR", &c.DataDir)
	str("DRIVER", &c.Driver)
	str("LAYOUT", &c.Layout)
	str("LOG_LEVEL", &c.LogLevel)
	str("LOG_FORMAT", &c.LogFormat)

	dur := func(name string, dst *Duration) error {
		v, ok := lookup(EnvPrefix + name)
		if !ok {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
		}
		*dst = Duration(d)
		return nil
	}
	if err := dur("SESSION_TTL", &c.Session.TTL); err != nil {
		return err
	}
	if err := dur("SESSION_SWEEP_INTERVAL", &c.Session.SweepInterval); err != nil {
		return err
	}

	if v, ok := lookup(EnvPrefix + "HASHTAGS_MAX"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sHASHTAGS_MAX: %w", EnvPrefix, err)
		}
		c.Hashtags.Max = n
	}
	return nil
}

// Validate checks every field.
func (c Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	if !store.ValidDriver(c.Driver) {
		return fmt.Errorf("driver %q is not one of %q, %q", c.Driver, store.DriverCGO, store.DriverPureGo)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("log_format %q is not one of text, json", c.LogFormat)
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("session.ttl must be positive, got %s", c.Session.TTL)
	}
	if c.Session.SweepInterval <= 0 {
		return fmt.Errorf("session.sweep_interval must be positive, got %s", c.Session.SweepInterval)
	}
	if c.Hashtags.Max < 1 {
		return fmt.Errorf("hashtags.max must be at least 1, got %d", c.Hashtags.Max)
	}
	return nil
}

// Sessions returns the session store settings.
func (c Config) Sessions() session.Config {
	return session.Config{
		TTL:           time.Duration(c.Session.TTL),
		SweepInterval: time.Duration(c.Session.SweepInterval),
	}
}

// StoreOptions returns the options every store is opened with.
func (c Config) StoreOptions() []store.Option {
	return []store.Option{store.WithDriver(c.Driver)}
}

// HashtagOptions returns the options every hashtag reconciler is built with.
func (c Config) HashtagOptions() []hashtag.Option {
	return []hashtag.Option{hashtag.WithMaxTags(c.Hashtags.Max)}
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("log_level %q is not one of debug, info, warn, error", s)
	}
}
