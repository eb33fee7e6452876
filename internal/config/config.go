// Package config loads the searchflip CLI configuration.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the CLI configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Search  SearchConfig  `yaml:"search"`
	Bulk    BulkConfig    `yaml:"bulk"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig holds the backend connection settings.
type ServerConfig struct {
	URL        string `yaml:"url"`
	Username   string `yaml:"username"`
	Password   string `yaml:"password"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// Timeout returns the request timeout.
func (s ServerConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSec) * time.Second
}

// SearchConfig holds query rendering settings.
type SearchConfig struct {
	Negation string `yaml:"negation"` // must_not (default) or not_filter
}

// BulkConfig holds bulk loader settings.
type BulkConfig struct {
	BatchSize    int     `yaml:"batch_size"`
	IgnoreStatus []int   `yaml:"ignore_status"`
	Refresh      string  `yaml:"refresh"` // "", true, false, wait_for
	Gzip         bool    `yaml:"gzip"`
	RatePerSec   float64 `yaml:"rate_per_sec"` // 0 = unlimited
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error (default: warn)
	Format string `yaml:"format"` // json, console (default: console)
}

// Load reads configuration from a YAML file. An empty path yields the
// defaults. ${VAR} and ${VAR:-default} are substituted before parsing.
func Load(path string) (Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(expandEnvVars(data), &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.Server.URL == "" {
		c.Server.URL = "http://localhost:9200"
	}
	if c.Server.TimeoutSec <= 0 {
		c.Server.TimeoutSec = 30
	}
	if c.Search.Negation == "" {
		c.Search.Negation = "must_not"
	}
	if c.Bulk.BatchSize <= 0 {
		c.Bulk.BatchSize = 1000
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "warn"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Server.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("server.url must be an absolute URL, got %q", c.Server.URL)
	}
	switch c.Search.Negation {
	case "must_not", "not_filter":
	default:
		return fmt.Errorf("search.negation must be \"must_not\" or \"not_filter\", got %q", c.Search.Negation)
	}
	switch c.Bulk.Refresh {
	case "", "true", "false", "wait_for":
	default:
		return fmt.Errorf("bulk.refresh must be one of true, false, wait_for, got %q", c.Bulk.Refresh)
	}
	for _, s := range c.Bulk.IgnoreStatus {
		if s < 100 || s > 599 {
			return fmt.Errorf("bulk.ignore_status contains invalid status %d", s)
		}
	}
	if c.Bulk.RatePerSec < 0 {
		return fmt.Errorf("bulk.rate_per_sec must not be negative, got %v", c.Bulk.RatePerSec)
	}
	return nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
