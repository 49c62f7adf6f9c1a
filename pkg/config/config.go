// Package config loads the server configuration file and discovers mock
// files from glob patterns.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// DefaultPort is the port served when none is configured.
const DefaultPort = 3939

// Config is the server configuration.
type Config struct {
	// Host to bind; empty binds all interfaces.
	Host string `yaml:"host"`

	// Port to listen on.
	Port int `yaml:"port"`

	// Mocks are glob patterns (doublestar, ** supported) naming mock
	// definition files. Matches are sorted so load order, and therefore
	// first-match precedence, is deterministic.
	Mocks []string `yaml:"mocks"`

	// Watch enables reload-on-change for the discovered mock files.
	Watch bool `yaml:"watch"`

	Log LogConfig `yaml:"log"`

	// Metrics enables Prometheus instrumentation.
	Metrics bool `yaml:"metrics"`
}

// LogConfig configures operational logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file or flags are given.
func Default() *Config {
	return &Config{
		Host:    "127.0.0.1",
		Port:    DefaultPort,
		Metrics: true,
		Log:     LogConfig{Level: "info", Format: "text"},
	}
}

// Addr returns the listen address in host:port form.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LoadFile reads a YAML configuration file over the defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("configuration file not found: %s", path)
		}
		return nil, fmt.Errorf("reading configuration: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid YAML in %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail late and confusingly.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	return nil
}

// DiscoverMocks expands the configured patterns into a de-duplicated list
// of mock file paths. The configured order is preserved, since it decides
// first-match precedence; each glob's expansion is sorted so a pattern
// contributes its matches deterministically. A literal path (no glob
// metacharacters) that doesn't exist is an error; a pattern matching
// nothing is not.
func (c *Config) DiscoverMocks() ([]string, error) {
	seen := make(map[string]bool)
	var files []string

	for _, pattern := range c.Mocks {
		if !hasGlobMeta(pattern) {
			if _, err := os.Stat(pattern); err != nil {
				return nil, fmt.Errorf("mock file not found: %s", pattern)
			}
			if !seen[pattern] {
				seen[pattern] = true
				files = append(files, pattern)
			}
			continue
		}

		base, rest := doublestar.SplitPattern(filepath.ToSlash(pattern))
		matches, err := doublestar.Glob(os.DirFS(base), rest)
		if err != nil {
			return nil, fmt.Errorf("invalid mock pattern %q: %w", pattern, err)
		}
		sort.Strings(matches)
		for _, m := range matches {
			full := filepath.Join(base, m)
			if !seen[full] {
				seen[full] = true
				files = append(files, full)
			}
		}
	}

	if len(files) == 0 {
		return nil, errors.New("no mock files configured")
	}
	return files, nil
}

func hasGlobMeta(pattern string) bool {
	for _, c := range pattern {
		switch c {
		case '*', '?', '[', '{':
			return true
		}
	}
	return false
}
