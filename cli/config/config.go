// Package config provides configuration management for the urlpack CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/fluxbase-eu/urlpack/internal/buildconfig"
	"github.com/fluxbase-eu/urlpack/internal/remote"
)

// Version is the config file format version
const Version = "1"

// FileName is the config file name looked up in the working directory.
const FileName = "urlpack.yaml"

// Config represents the CLI configuration file
type Config struct {
	// Version of the config file format
	Version string `yaml:"version" json:"version" mapstructure:"version"`

	// Compile holds defaults for the compile command flags
	Compile CompileConfig `yaml:"compile" json:"compile" mapstructure:"compile"`

	// Fetch bounds remote module downloads
	Fetch FetchConfig `yaml:"fetch" json:"fetch" mapstructure:"fetch"`
}

// CompileConfig mirrors the compile flags.
type CompileConfig struct {
	Format   string `yaml:"format,omitempty" json:"format,omitempty" mapstructure:"format"`
	Out      string `yaml:"out,omitempty" json:"out,omitempty" mapstructure:"out"`
	External string `yaml:"external,omitempty" json:"external,omitempty" mapstructure:"external"`
	Chunks   string `yaml:"chunks,omitempty" json:"chunks,omitempty" mapstructure:"chunks"`
	Name     string `yaml:"name,omitempty" json:"name,omitempty" mapstructure:"name"`
	Exports  string `yaml:"exports,omitempty" json:"exports,omitempty" mapstructure:"exports"`
	Analyze  bool   `yaml:"analyze,omitempty" json:"analyze,omitempty" mapstructure:"analyze"`
	Summary  string `yaml:"summary,omitempty" json:"summary,omitempty" mapstructure:"summary"`

	// VerboseAnalysis lists every input in the analysis and implies Analyze.
	VerboseAnalysis bool `yaml:"verbose_analysis,omitempty" json:"verbose_analysis,omitempty" mapstructure:"verbose_analysis"`
}

// FetchConfig configures the remote module fetcher.
type FetchConfig struct {
	Timeout      time.Duration `yaml:"timeout" json:"timeout" mapstructure:"timeout"`
	MaxRedirects int           `yaml:"max_redirects" json:"max_redirects" mapstructure:"max_redirects"`
	MaxBytes     int64         `yaml:"max_bytes" json:"max_bytes" mapstructure:"max_bytes"`
	AllowHTTP    bool          `yaml:"allow_http" json:"allow_http" mapstructure:"allow_http"`
	RateLimit    float64       `yaml:"rate_limit" json:"rate_limit" mapstructure:"rate_limit"`
	MaxParallel  int64         `yaml:"max_parallel" json:"max_parallel" mapstructure:"max_parallel"`
}

// DefaultConfigDir returns the default config directory path
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".urlpack"
	}
	return filepath.Join(home, ".urlpack")
}

// DefaultConfigPath returns the default config file path
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), FileName)
}

// New creates a configuration holding the defaults
func New() *Config {
	return &Config{
		Version: Version,
		Compile: CompileConfig{
			Exports: string(buildconfig.ExportsAuto),
			Summary: "table",
		},
		Fetch: FetchConfig{
			Timeout:      remote.DefaultTimeout,
			MaxRedirects: remote.DefaultMaxRedirects,
			AllowHTTP:    true,
		},
	}
}

// SetDefaults registers the defaults from New with v.
func SetDefaults(v *viper.Viper) {
	d := New()
	v.SetDefault("version", d.Version)
	v.SetDefault("compile.exports", d.Compile.Exports)
	v.SetDefault("compile.summary", d.Compile.Summary)
	v.SetDefault("fetch.timeout", d.Fetch.Timeout)
	v.SetDefault("fetch.max_redirects", d.Fetch.MaxRedirects)
	v.SetDefault("fetch.max_bytes", d.Fetch.MaxBytes)
	v.SetDefault("fetch.allow_http", d.Fetch.AllowHTTP)
	v.SetDefault("fetch.rate_limit", d.Fetch.RateLimit)
	v.SetDefault("fetch.max_parallel", d.Fetch.MaxParallel)
}

// FromViper decodes the merged flag, env, and file values held by v.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Load reads configuration from the specified path
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config file not found at %s - run 'urlpack config init' to create one: %w", path, err)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := New()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}

	return cfg, nil
}

// Save writes the configuration to the specified path
func (c *Config) Save(path string) error {
	if path == "" {
		path = DefaultConfigPath()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks values that flags and env vars cannot type-check.
func (c *Config) Validate() error {
	if c.Compile.Format != "" {
		if _, err := buildconfig.ParseFormat(c.Compile.Format); err != nil {
			return err
		}
	}
	if _, err := buildconfig.ParseExports(c.Compile.Exports); err != nil {
		return err
	}
	switch c.Compile.Summary {
	case "", "table", "json", "yaml", "none":
	default:
		return fmt.Errorf("invalid summary format: %s (valid: table, json, yaml, none)", c.Compile.Summary)
	}
	return c.Fetch.Validate()
}

// Validate checks the fetch bounds.
func (f FetchConfig) Validate() error {
	if f.Timeout <= 0 {
		return fmt.Errorf("fetch.timeout must be positive")
	}
	if f.MaxRedirects < 0 {
		return fmt.Errorf("fetch.max_redirects cannot be negative")
	}
	if f.MaxBytes < 0 {
		return fmt.Errorf("fetch.max_bytes cannot be negative")
	}
	if f.RateLimit < 0 {
		return fmt.Errorf("fetch.rate_limit cannot be negative")
	}
	if f.MaxParallel < 0 {
		return fmt.Errorf("fetch.max_parallel cannot be negative")
	}
	return nil
}

// Options converts the fetch settings for the remote fetcher.
func (f FetchConfig) Options() remote.FetchOptions {
	return remote.FetchOptions{
		Timeout:      f.Timeout,
		MaxRedirects: f.MaxRedirects,
		MaxBytes:     f.MaxBytes,
		AllowHTTP:    f.AllowHTTP,
		RateLimit:    f.RateLimit,
		MaxParallel:  f.MaxParallel,
	}
}
