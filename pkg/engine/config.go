package engine

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/germanamz/texto/pkg/transport"
)

// Config is the engine configuration.
type Config struct {
	Address          string `yaml:"address"`           // Server host:port or URL.
	Path             string `yaml:"path"`              // Endpoint path for bare host addresses.
	Register         bool   `yaml:"register"`          // Send a registration probe after the transport opens.
	HandshakeTimeout string `yaml:"handshake_timeout"` // Duration string; empty waits for the Connect context only.
	RequestTimeout   string `yaml:"request_timeout"`   // Duration string; empty leaves requests pending until answered.
	ReadLimit        int64  `yaml:"read_limit"`        // Maximum inbound frame size in bytes (0 = transport default).
	LogLevel         string `yaml:"log_level"`         // debug, info, warn or error.
}

// DefaultConfig returns the configuration used for keys absent from a file.
func DefaultConfig() Config {
	return Config{
		Address:          "localhost:8080",
		Path:             transport.DefaultPath,
		Register:         true,
		HandshakeTimeout: "10s",
		LogLevel:         "info",
	}
}

// LoadConfig reads a YAML file on top of DefaultConfig.
// Environment variables referenced as ${VAR} or $VAR in the YAML are expanded
// before parsing, so addresses can come from the environment (e.g. loaded
// from a .env file).
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is caller-provided configuration, not user input
	if err != nil {
		return Config{}, fmt.Errorf("engine: load config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := DefaultConfig()
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return Config{}, fmt.Errorf("engine: parse config: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Address) == "" {
		return fmt.Errorf("engine: config: address is required")
	}

	if _, err := parseTimeout("handshake_timeout", c.HandshakeTimeout); err != nil {
		return err
	}
	if _, err := parseTimeout("request_timeout", c.RequestTimeout); err != nil {
		return err
	}

	if c.ReadLimit < 0 {
		return fmt.Errorf("engine: config: read_limit must not be negative")
	}

	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}

	return nil
}

// SlogLevel returns the configured log level. Invalid levels map to info.
func (c Config) SlogLevel() slog.Level {
	lvl, err := parseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return lvl
}

func (c Config) handshakeTimeout() time.Duration {
	d, _ := parseTimeout("handshake_timeout", c.HandshakeTimeout)
	return d
}

func (c Config) requestTimeout() time.Duration {
	d, _ := parseTimeout("request_timeout", c.RequestTimeout)
	return d
}

func parseTimeout(field, s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("engine: config: %s: %w", field, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("engine: config: %s must not be negative", field)
	}

	return d, nil
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("engine: config: unknown log_level %q", s)
	}
}
