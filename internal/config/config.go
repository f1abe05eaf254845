// Package config loads the YAML configuration of the locprep CLI and builds
// its logger.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/go-locprep/internal/fileutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrInvalidConfig   = errors.New("invalid config")
)

// appDir is the directory under the user config dir searched for named configs.
const appDir = "go-locprep"

// Defaults applied by DefaultConfig.
const (
	DefaultTimeout   = "30s"
	DefaultUserAgent = "go-locprep"
	DefaultMaxBytes  = 10 << 20
	DefaultOutputDir = "output"
)

// Config holds all configuration for page and sheet preparation.
type Config struct {
	Rules    RulesConfig    `yaml:"rules"`
	Content  ContentConfig  `yaml:"content"`
	Fetch    FetchConfig    `yaml:"fetch"`
	Output   OutputConfig   `yaml:"output"`
	Document DocumentConfig `yaml:"document"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// RulesConfig locates the DNT rule list.
type RulesConfig struct {
	URL   string `yaml:"url"`   // Empty = inline-link rule only
	Cache bool   `yaml:"cache"` // Conditional GET with ETag
}

// ContentConfig defines content rewriting options.
type ContentConfig struct {
	MediaBaseURL string `yaml:"mediaBaseURL"` // Empty = media references untouched
}

// FetchConfig defines HTTP client options.
type FetchConfig struct {
	Timeout   string `yaml:"timeout"`
	UserAgent string `yaml:"userAgent"`
	MaxBytes  int64  `yaml:"maxBytes"`
}

// OutputConfig defines where artifacts are staged.
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// DocumentConfig defines PDF rendering of prepared pages.
type DocumentConfig struct {
	Enabled bool   `yaml:"enabled"`
	CSS     string `yaml:"css"`     // Path to a stylesheet, empty = none
	Timeout string `yaml:"timeout"` // Browser page load timeout
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Rules:    RulesConfig{Cache: true},
		Fetch:    FetchConfig{Timeout: DefaultTimeout, UserAgent: DefaultUserAgent, MaxBytes: DefaultMaxBytes},
		Output:   OutputConfig{Dir: DefaultOutputDir},
		Document: DocumentConfig{Timeout: DefaultTimeout},
		Logging:  LoggingConfig{Level: LevelNormal},
	}
}

// Validate checks URLs, durations, sizes and the log level.
// Called automatically by LoadConfig, but available for callers that
// construct Config manually.
func (c *Config) Validate() error {
	if err := validateURL("rules.url", c.Rules.URL); err != nil {
		return err
	}
	if err := validateURL("content.mediaBaseURL", c.Content.MediaBaseURL); err != nil {
		return err
	}
	if _, err := parseDuration("fetch.timeout", c.Fetch.Timeout); err != nil {
		return err
	}
	if _, err := parseDuration("document.timeout", c.Document.Timeout); err != nil {
		return err
	}
	if c.Fetch.MaxBytes < 0 {
		return fmt.Errorf("%w: fetch.maxBytes must not be negative (%d)", ErrInvalidConfig, c.Fetch.MaxBytes)
	}
	switch c.Logging.Level {
	case "", LevelNone, LevelNormal, LevelDebug:
	default:
		return fmt.Errorf("%w: logging.level %q (must be none, normal, or debug)", ErrInvalidConfig, c.Logging.Level)
	}
	return nil
}

// FetchTimeout returns fetch.timeout, or zero when unset.
func (c *Config) FetchTimeout() time.Duration {
	d, _ := parseDuration("fetch.timeout", c.Fetch.Timeout)
	return d
}

// DocumentTimeout returns document.timeout, or zero when unset.
func (c *Config) DocumentTimeout() time.Duration {
	d, _ := parseDuration("document.timeout", c.Document.Timeout)
	return d
}

func validateURL(field, value string) error {
	if value == "" {
		return nil
	}
	u, err := url.Parse(value)
	if err != nil || !fileutil.IsURL(value) || u.Host == "" {
		return fmt.Errorf("%w: %s must be an absolute http(s) URL, got %q", ErrInvalidConfig, field, value)
	}
	return nil
}

func parseDuration(field, value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("%w: %s %q is not a valid duration", ErrInvalidConfig, field, value)
	}
	return d, nil
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Values missing from the file keep their DefaultConfig value.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	configPath := nameOrPath
	if !fileutil.IsFilePath(nameOrPath) {
		var err error
		if configPath, err = resolveConfigPath(nameOrPath); err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := unmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// resolveConfigPath searches for a config file by name in standard locations.
// Tries extensions in order: .yaml, .yml
// Tries locations in order: current directory, <user config dir>/go-locprep/
func resolveConfigPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml"}
	triedPaths := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		localPath := name + ext
		if fileutil.FileExists(localPath) {
			return localPath, nil
		}
		triedPaths = append(triedPaths, localPath)
	}

	if userConfigDir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			userPath := filepath.Join(userConfigDir, appDir, name+ext)
			if fileutil.FileExists(userPath) {
				return userPath, nil
			}
			triedPaths = append(triedPaths, userPath)
		}
	}

	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(triedPaths, ", "))
}
