// Package config provides centralized configuration for the inkwell engine.
// Values come from an optional YAML file, then environment variables, then
// defaults; validation collects every problem before reporting.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/inkwell-app/inkwell/internal/canvas"
)

// Config holds all engine configuration.
type Config struct {
	// Storage
	DataDir      string `yaml:"data_dir"`      // directory holding the database file
	DatabaseName string `yaml:"database_name"` // file name inside DataDir

	// Canvas engine tuning
	CheckpointStride   int           `yaml:"checkpoint_stride"`   // points drawn between mid-stroke saves
	CheckpointInterval time.Duration `yaml:"checkpoint_interval"` // minimum gap between throttled saves
	UndoDepth          int           `yaml:"undo_depth"`          // snapshots kept per stack

	// Appearance
	BackgroundColor int64 `yaml:"background_color"` // ARGB, doubles as the eraser paint color

	// Logging
	LogLevel string `yaml:"log_level"` // debug, info, warn, error
}

// ValidationError collects every configuration problem found in one pass.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("configuration validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

// Default returns the configuration used when nothing is specified.
func Default() *Config {
	return &Config{
		DataDir:            defaultDataDir(),
		DatabaseName:       "inkwell.db",
		CheckpointStride:   200,
		CheckpointInterval: 2 * time.Second,
		UndoDepth:          100,
		BackgroundColor:    int64(canvas.DefaultBackground),
		LogLevel:           "info",
	}
}

// Load builds the configuration. If path is non-empty the YAML file there is
// read first; environment variables then override file values, and anything
// still unset falls back to defaults. The result is validated before return.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.DataDir = getEnvOrDefault("INKWELL_DATA_DIR", cfg.DataDir)
	cfg.DatabaseName = getEnvOrDefault("INKWELL_DATABASE_NAME", cfg.DatabaseName)
	cfg.CheckpointStride = parseIntOrDefault("INKWELL_CHECKPOINT_STRIDE", cfg.CheckpointStride)
	cfg.CheckpointInterval = parseDurationOrDefault("INKWELL_CHECKPOINT_INTERVAL", cfg.CheckpointInterval)
	cfg.UndoDepth = parseIntOrDefault("INKWELL_UNDO_DEPTH", cfg.UndoDepth)
	cfg.BackgroundColor = parseColorOrDefault("INKWELL_BACKGROUND_COLOR", cfg.BackgroundColor)
	cfg.LogLevel = getEnvOrDefault("INKWELL_LOG_LEVEL", cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every field and reports all problems at once.
func (c *Config) Validate() error {
	var errs []string

	if c.DataDir == "" {
		errs = append(errs, "data_dir is required (set INKWELL_DATA_DIR)")
	}
	if c.DatabaseName == "" {
		errs = append(errs, "database_name is required")
	}
	if c.CheckpointStride <= 0 {
		errs = append(errs, "checkpoint_stride must be positive")
	}
	if c.CheckpointInterval <= 0 {
		errs = append(errs, "checkpoint_interval must be positive")
	}
	if c.UndoDepth <= 0 {
		errs = append(errs, "undo_depth must be positive")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("log_level %q is not one of debug, info, warn, error", c.LogLevel))
	}

	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

// DatabasePath joins the data directory and database file name.
func (c *Config) DatabasePath() string {
	return strings.TrimRight(c.DataDir, "/") + "/" + c.DatabaseName
}

func defaultDataDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home + "/.inkwell"
	}
	return "./data"
}

// Helper functions for parsing environment variables

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func parseIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// parseColorOrDefault accepts decimal or 0x-prefixed hex ARGB values.
func parseColorOrDefault(key string, defaultValue int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseInt(strings.TrimPrefix(value, "0x"), 16, 64)
	if !strings.HasPrefix(value, "0x") {
		parsed, err = strconv.ParseInt(value, 10, 64)
	}
	if err != nil {
		return defaultValue
	}
	return parsed
}
