package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/chengyuehsha/langchain-cache-gcs/pkg/models"
)

// Config holds all llmcache configuration.
type Config struct {
	Store     StoreConfig      `yaml:"store" toml:"store"`
	Log       LogConfig        `yaml:"log" toml:"log"`
	Metrics   MetricsConfig    `yaml:"metrics" toml:"metrics"`
	Providers []ProviderConfig `yaml:"providers" toml:"providers"`
	Model     ModelConfig      `yaml:"model" toml:"model"`
}

// StoreConfig selects and configures the object store backend.
// Backend is "gcs" (default), "s3", "sqlite" or "memory".
type StoreConfig struct {
	Backend          string       `yaml:"backend" toml:"backend"`
	Bucket           string       `yaml:"bucket" toml:"bucket"`
	Prefix           string       `yaml:"prefix" toml:"prefix"`
	Project          string       `yaml:"project" toml:"project"`
	ClearConcurrency int          `yaml:"clear_concurrency" toml:"clear_concurrency"`
	GCS              GCSConfig    `yaml:"gcs" toml:"gcs"`
	S3               S3Config     `yaml:"s3" toml:"s3"`
	SQLite           SQLiteConfig `yaml:"sqlite" toml:"sqlite"`
}

// GCSConfig holds Google Cloud Storage client options.
type GCSConfig struct {
	Endpoint        string `yaml:"endpoint" toml:"endpoint"`
	CredentialsFile string `yaml:"credentials_file" toml:"credentials_file"`
	AccessToken     string `yaml:"access_token" toml:"access_token"`
	Anonymous       bool   `yaml:"anonymous" toml:"anonymous"`
}

// S3Config holds S3 client options.
type S3Config struct {
	Region          string `yaml:"region" toml:"region"`
	Endpoint        string `yaml:"endpoint" toml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id" toml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key" toml:"secret_access_key"`
	PathStyle       bool   `yaml:"path_style" toml:"path_style"`
}

// SQLiteConfig configures the local object table.
type SQLiteConfig struct {
	Path string `yaml:"path" toml:"path"`
}

// LogConfig controls logging. Format is "console" or "json".
type LogConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// MetricsConfig controls the Prometheus endpoint of long-running commands.
type MetricsConfig struct {
	Listen string `yaml:"listen" toml:"listen"`
}

// ProviderConfig defines an upstream LLM provider.
// Type is "openai" (default) or "anthropic".
type ProviderConfig struct {
	Name   string `yaml:"name" toml:"name"`
	URL    string `yaml:"url" toml:"url"`
	APIKey string `yaml:"api_key" toml:"api_key"`
	Type   string `yaml:"type" toml:"type"`
}

// ModelConfig selects the model used by the invoke command.
type ModelConfig struct {
	Provider    string        `yaml:"provider" toml:"provider"`
	Name        string        `yaml:"name" toml:"name"`
	Temperature *float64      `yaml:"temperature" toml:"temperature"`
	MaxTokens   *int          `yaml:"max_tokens" toml:"max_tokens"`
	MaxRetries  int           `yaml:"max_retries" toml:"max_retries"`
	Timeout     time.Duration `yaml:"timeout" toml:"timeout"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Backend:          "gcs",
			Prefix:           models.DefaultPrefix,
			ClearConcurrency: 1,
			SQLite:           SQLiteConfig{Path: "llmcache.db"},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Model: ModelConfig{
			MaxRetries: 1,
			Timeout:    60 * time.Second,
		},
	}
}

// Load reads a YAML or TOML config file and expands environment variables.
// Files ending in .toml are decoded as TOML, everything else as YAML. The
// store section is not validated here; see Validate.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(expanded, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	} else if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Validate checks the store section. Commands call it before opening a store.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case "gcs", "s3", "sqlite":
		if c.Store.Bucket == "" {
			return fmt.Errorf("store.bucket is required for backend %q", c.Store.Backend)
		}
	case "memory":
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if c.Store.ClearConcurrency < 0 {
		return fmt.Errorf("store.clear_concurrency must not be negative")
	}
	return nil
}

// Provider returns the provider named by name, or the first provider when
// name is empty.
func (c *Config) Provider(name string) (ProviderConfig, error) {
	if len(c.Providers) == 0 {
		return ProviderConfig{}, fmt.Errorf("no providers configured")
	}
	if name == "" {
		return c.Providers[0], nil
	}
	for _, p := range c.Providers {
		if p.Name == name {
			return p, nil
		}
	}
	return ProviderConfig{}, fmt.Errorf("provider %q not configured", name)
}
