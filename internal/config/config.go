// Package config loads timelock settings from a YAML file and the
// environment. Environment variables win over the file.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const (
	// PathEnv overrides the config file location
	PathEnv = "TIMELOCK_CONFIG"

	DefaultFile     = "timelock.yaml"
	DefaultDatabase = ".timelock"
	DefaultKeystore = ".timelock-keys"
	MaxDecimals     = 18
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds everything the CLI needs to open a timelock
type Config struct {
	Database    string    `yaml:"database" env:"TIMELOCK_DB"`
	Keystore    string    `yaml:"keystore" env:"TIMELOCK_KEYSTORE"`
	Decimals    int32     `yaml:"decimals" env:"TIMELOCK_DECIMALS"`
	UseKeyring  bool      `yaml:"keyring" env:"TIMELOCK_KEYRING"`
	MetricsFile string    `yaml:"metricsFile" env:"TIMELOCK_METRICS_FILE"`
	Log         LogConfig `yaml:"log"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"TIMELOCK_LOG_LEVEL"`
	Format string `yaml:"format" env:"TIMELOCK_LOG_FORMAT"`
}

// Default returns the configuration used when nothing is set
func Default() Config {
	return Config{
		Database:   DefaultDatabase,
		Keystore:   DefaultKeystore,
		Decimals:   0,
		UseKeyring: true,
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}

// Load reads path (DefaultFile when empty) and applies TIMELOCK_*
// environment overrides. A missing DefaultFile is not an error; a missing
// explicit path is.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if c.Database == "" {
		return fmt.Errorf("%w: database path is empty", ErrInvalidConfig)
	}
	if c.Keystore == "" {
		return fmt.Errorf("%w: keystore path is empty", ErrInvalidConfig)
	}
	if c.Decimals < 0 || c.Decimals > MaxDecimals {
		return fmt.Errorf("%w: decimals must be between 0 and %d, got %d", ErrInvalidConfig, MaxDecimals, c.Decimals)
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log format must be text or json, got %q", ErrInvalidConfig, c.Log.Format)
	}
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("%w: log level %q", ErrInvalidConfig, s)
	}
	return level, nil
}

// NewLogger builds the logger described by c, writing to w
func (c LogConfig) NewLogger(w io.Writer) *slog.Logger {
	level, err := parseLevel(c.Level)
	if err != nil {
		level = slog.LevelWarn
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
