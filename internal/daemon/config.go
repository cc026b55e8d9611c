// Package daemon assembles the rendezvous service from its parts: it loads
// the top-level configuration, builds the logger, and runs the hub server
// until shutdown.
package daemon

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pairsphere/paird/internal/directory"
	"github.com/pairsphere/paird/internal/hub"
)

// DefaultLogLevel is the default log level.
const DefaultLogLevel = "info"

// Config is the top-level configuration for paird. It aggregates all
// subsystem configurations and is populated from a YAML configuration file
// via ParseConfig.
type Config struct {
	// LogLevel is the log level: "debug", "info", "warn", "error".
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	Hub       hub.Config       `yaml:"hub"`
	Directory directory.Config `yaml:"directory"`
}

// ApplyDefaults sets default values for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	c.Hub.ApplyDefaults()
	c.Directory.ApplyDefaults()
}

// Validate checks that required fields are set and values are acceptable.
func (c *Config) Validate() error {
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	if err := c.Hub.Validate(); err != nil {
		return err
	}
	if err := c.Directory.Validate(); err != nil {
		return err
	}
	return nil
}

// ParseConfig reads a YAML configuration file and returns a Config.
// It applies defaults and validates the configuration.
func ParseConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("daemon: config: read %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("daemon: config: parse %s: %w", path, err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ParseLogLevel maps a configured level name to a slog level.
func ParseLogLevel(level string) (slog.Level, error) {
	switch level {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("daemon: config: invalid log level %q", level)
	}
}
