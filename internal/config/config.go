// Package config provides unified configuration for the gridb editor.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the editor configuration.
type Config struct {
	// PageSize is the number of rows materialized per snapshot page.
	PageSize int `json:"page_size" yaml:"page_size"`

	// BusyTimeout bounds the wait on a locked database before a Busy
	// error surfaces.
	BusyTimeout time.Duration `json:"busy_timeout" yaml:"busy_timeout"`

	// ForeignKeys enables foreign key enforcement on open databases.
	ForeignKeys bool `json:"foreign_keys" yaml:"foreign_keys"`

	// Log holds log sink configuration.
	Log LogConfig `json:"log" yaml:"log"`

	// Export holds export configuration.
	Export ExportConfig `json:"export" yaml:"export"`
}

// LogConfig holds log sink configuration.
type LogConfig struct {
	// Level is one of: debug, info, warn, error.
	Level string `json:"level" yaml:"level"`

	// Format is one of: text, json.
	Format string `json:"format" yaml:"format"`
}

// ExportConfig holds export configuration.
type ExportConfig struct {
	// Dir is the default directory export files are written to.
	Dir string `json:"dir" yaml:"dir"`

	// CompressBackups enables snappy framing on database copies.
	CompressBackups bool `json:"compress_backups" yaml:"compress_backups"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		PageSize:    1000,
		BusyTimeout: 5 * time.Second,
		ForeignKeys: true,
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Export: ExportConfig{
			Dir: ".",
		},
	}
}

// LoadFromFile loads configuration from a YAML or JSON file, selected
// by extension, over the defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	cfg := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: failed to parse YAML: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: failed to parse JSON: %w", err)
		}
	default:
		return nil, fmt.Errorf("config: unsupported config format: %s", path)
	}

	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load returns defaults with environment overrides applied, validated.
func Load() (*Config, error) {
	cfg := Default()
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv applies GRIDB_* environment variable overrides.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("GRIDB_PAGE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.PageSize = n
		}
	}
	if v := os.Getenv("GRIDB_BUSY_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.BusyTimeout = d
		}
	}
	if v := os.Getenv("GRIDB_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("GRIDB_LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}
	if v := os.Getenv("GRIDB_EXPORT_DIR"); v != "" {
		c.Export.Dir = v
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.PageSize <= 0 {
		return fmt.Errorf("config: page_size must be positive, got %d", c.PageSize)
	}
	if c.BusyTimeout < 0 {
		return fmt.Errorf("config: busy_timeout must not be negative, got %s", c.BusyTimeout)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("config: unknown log level %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("config: unknown log format %q", c.Log.Format)
	}
	return nil
}
