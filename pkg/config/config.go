// Package config loads the bridge configuration from YAML or TOML files and
// RPBRIDGE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/rpbridge/rpbridge-go/pkg/listener"
	"github.com/rpbridge/rpbridge-go/pkg/subscription"
)

// Environment variables that override file values.
const (
	EnvLogLevel  = "RPBRIDGE_LOG_LEVEL"
	EnvTraceFile = "RPBRIDGE_TRACE_FILE"
	EnvLedger    = "RPBRIDGE_LEDGER"
	EnvNATSURL   = "RPBRIDGE_NATS_URL"
)

// ErrUnsupportedFormat is returned for config files that are neither YAML nor TOML.
var ErrUnsupportedFormat = errors.New("unsupported config format")

// Config is the bridge configuration.
type Config struct {
	LogLevel  string `yaml:"log_level" toml:"log_level"`
	LogFormat string `yaml:"log_format" toml:"log_format"` // "text" or "json"

	// TraceFile receives the lifecycle trace. Empty disables it.
	TraceFile string `yaml:"trace_file" toml:"trace_file"`

	// LedgerPath is the SQLite handle ledger. Empty disables it.
	LedgerPath string `yaml:"ledger" toml:"ledger"`

	CallTimeout    time.Duration `yaml:"call_timeout" toml:"call_timeout"`
	CleanupTimeout time.Duration `yaml:"cleanup_timeout" toml:"cleanup_timeout"`

	Retry     RetryConfig      `yaml:"retry" toml:"retry"`
	NATS      NATSConfig       `yaml:"nats" toml:"nats"`
	Listeners []ListenerConfig `yaml:"listeners" toml:"listeners"`
}

// RetryConfig controls connect retries while the tool refuses registrations.
type RetryConfig struct {
	Initial    time.Duration `yaml:"initial" toml:"initial"`
	Max        time.Duration `yaml:"max" toml:"max"`
	Multiplier float64       `yaml:"multiplier" toml:"multiplier"`
	Jitter     float64       `yaml:"jitter" toml:"jitter"`
	Attempts   int           `yaml:"attempts" toml:"attempts"` // 0 = until cancelled
}

// NATSConfig configures the notification relay. An empty URL disables it.
type NATSConfig struct {
	URL    string `yaml:"url" toml:"url"`
	Prefix string `yaml:"prefix" toml:"prefix"`
}

// ListenerConfig enables one listener kind.
type ListenerConfig struct {
	Kind    string `yaml:"kind" toml:"kind"`
	Enabled bool   `yaml:"enabled" toml:"enabled"`
}

// Default returns the configuration used when no file is given: all
// listener kinds enabled, no trace, no ledger, no relay.
func Default() *Config {
	c := &Config{
		LogLevel:       "info",
		LogFormat:      "text",
		CallTimeout:    subscription.DefaultCallTimeout,
		CleanupTimeout: subscription.DefaultCleanupTimeout,
		Retry: RetryConfig{
			Initial:    subscription.InitialBackoff,
			Max:        subscription.MaxBackoff,
			Multiplier: subscription.BackoffMultiplier,
			Jitter:     subscription.JitterFactor,
			Attempts:   5,
		},
		NATS: NATSConfig{Prefix: "rpbridge"},
	}
	for _, k := range listener.Kinds() {
		c.Listeners = append(c.Listeners, ListenerConfig{Kind: k.String(), Enabled: true})
	}
	return c
}

// Load reads path on top of Default, applies environment overrides and
// validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	c := Default()
	if path != "" {
		if err := c.decodeFile(path); err != nil {
			return nil, err
		}
	}
	c.ApplyEnv()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) decodeFile(path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
	case ".toml":
		if _, err := toml.DecodeFile(path, c); err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	return nil
}

// ApplyEnv overrides fields from RPBRIDGE_* environment variables.
func (c *Config) ApplyEnv() {
	c.LogLevel = envOrDefault(EnvLogLevel, c.LogLevel)
	c.TraceFile = envOrDefault(EnvTraceFile, c.TraceFile)
	c.LedgerPath = envOrDefault(EnvLedger, c.LedgerPath)
	c.NATS.URL = envOrDefault(EnvNATSURL, c.NATS.URL)
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	var errs []error
	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	switch c.LogFormat {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log_format: %q is not text or json", c.LogFormat))
	}
	if c.CallTimeout < 0 || c.CleanupTimeout < 0 {
		errs = append(errs, errors.New("timeouts must not be negative"))
	}
	if c.Retry.Attempts < 0 {
		errs = append(errs, errors.New("retry.attempts must not be negative"))
	}
	if c.Retry.Max > 0 && c.Retry.Initial > c.Retry.Max {
		errs = append(errs, errors.New("retry.initial exceeds retry.max"))
	}
	seen := make(map[listener.Kind]bool)
	for _, lc := range c.Listeners {
		k, err := listener.ParseKind(lc.Kind)
		if err != nil {
			errs = append(errs, fmt.Errorf("listeners: %w", err))
			continue
		}
		if seen[k] {
			errs = append(errs, fmt.Errorf("listeners: %s listed twice", k))
		}
		seen[k] = true
	}
	return errors.Join(errs...)
}

// EnabledKinds returns the enabled listener kinds in configuration order.
func (c *Config) EnabledKinds() []listener.Kind {
	var out []listener.Kind
	for _, lc := range c.Listeners {
		if !lc.Enabled {
			continue
		}
		if k, err := listener.ParseKind(lc.Kind); err == nil {
			out = append(out, k)
		}
	}
	return out
}

// Backoff returns the retry settings as a backoff configuration.
func (c *Config) Backoff() subscription.BackoffConfig {
	return subscription.BackoffConfig{
		Initial:    c.Retry.Initial,
		Max:        c.Retry.Max,
		Multiplier: c.Retry.Multiplier,
		Jitter:     c.Retry.Jitter,
	}
}

// SlogLevel parses LogLevel.
func (c *Config) SlogLevel() (slog.Level, error) {
	var l slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return l, nil
}

// NewLogger builds the operational logger writing to w.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level, err := c.SlogLevel()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
