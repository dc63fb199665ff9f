// Package config holds the weft CLI configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ValidLogLevels are the accepted log_level values.
var ValidLogLevels = []string{"debug", "info", "warn", "error"}

// ValidProxyModes are the accepted proxy_mode values.
var ValidProxyModes = []string{"override", "copy"}

// Config is the CLI configuration.
type Config struct {
	// LogLevel is one of ValidLogLevels.
	LogLevel string `yaml:"log_level"`

	// CachePath is the SQLite report cache. Empty disables caching.
	CachePath string `yaml:"cache_path"`

	// Strict makes unmatched advice and skipped members errors.
	Strict bool `yaml:"strict"`

	// ProxyMode is one of ValidProxyModes.
	ProxyMode string `yaml:"proxy_mode"`

	// PackageName overrides the generated package name.
	PackageName string `yaml:"package_name"`

	// OutputDir receives generated proxies.
	OutputDir string `yaml:"output_dir"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:  "info",
		ProxyMode: "override",
		OutputDir: "weftproxy",
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults. Environment overrides apply either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("WEFT_CACHE"); v != "" {
		c.CachePath = v
	}
	if v := os.Getenv("WEFT_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("WEFT_STRICT"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Strict = b
		}
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if !contains(ValidLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (valid: %v)", c.LogLevel, ValidLogLevels)
	}
	if !contains(ValidProxyModes, c.ProxyMode) {
		return fmt.Errorf("invalid proxy mode: %s (valid: %v)", c.ProxyMode, ValidProxyModes)
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output_dir must not be empty")
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
