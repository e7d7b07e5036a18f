// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Noah Contributors

package config

import (
	"errors"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	noaherr "github.com/chakany/noah/pkg/errors"
)

// Config is the top-level Noah configuration.
type Config struct {
	Listen    string          `mapstructure:"listen"`
	DataDir   string          `mapstructure:"data_dir"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	Search    SearchConfig    `mapstructure:"search"`
}

// StorageConfig selects the storage backend.
type StorageConfig struct {
	Backend string `mapstructure:"backend"`
}

// EmbeddingConfig selects and configures the embedding provider.
type EmbeddingConfig struct {
	Provider   string           `mapstructure:"provider"`
	Dimensions int              `mapstructure:"dimensions"`
	Cloudflare CloudflareConfig `mapstructure:"cloudflare"`
	OpenAI     OpenAIConfig     `mapstructure:"openai"`
	Gemini     GeminiConfig     `mapstructure:"gemini"`
}

// CloudflareConfig holds Workers AI credentials and model selection.
type CloudflareConfig struct {
	AccountID string `mapstructure:"account_id"`
	APIKey    string `mapstructure:"api_key"`
	Model     string `mapstructure:"model"`
}

// OpenAIConfig holds credentials for OpenAI or any compatible endpoint.
type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
}

// GeminiConfig holds credentials for the Google Gemini embedding API.
type GeminiConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// SearchConfig controls search behavior.
type SearchConfig struct {
	DefaultLimit int64 `mapstructure:"default_limit"`
}

// Embedding provider names accepted by embedding.provider.
const (
	ProviderCloudflare = "cloudflare"
	ProviderOpenAI     = "openai"
	ProviderGemini     = "gemini"
)

// DatabasePath returns the SQLite database file under the data directory.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "noah.db")
}

// SetDefaults installs the default values on a viper instance.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("listen", "127.0.0.1:3000")
	v.SetDefault("storage.backend", "sqlite")
	v.SetDefault("embedding.provider", ProviderCloudflare)
	v.SetDefault("embedding.dimensions", 1024)
	v.SetDefault("embedding.cloudflare.model", "@cf/baai/bge-m3")
	v.SetDefault("embedding.openai.model", "text-embedding-3-small")
	v.SetDefault("embedding.gemini.model", "text-embedding-004")
	v.SetDefault("search.default_limit", 10)
}

// SetupEnv binds NOAH_-prefixed environment variables, mapping dots in
// config keys to underscores.
func SetupEnv(v *viper.Viper) {
	v.SetEnvPrefix("NOAH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load reads configuration from the given path (or defaults) with
// environment variable overrides (prefix NOAH_).
func Load(path string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)
	SetupEnv(v)

	// File
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, noaherr.Errorf(noaherr.CodeConfigLoadReadFailure, "reading config %s: %w", path, err)
		}
	}

	return FromViper(v)
}

// FromViper unmarshals an already configured viper instance into a Config,
// filling in the default data directory when none is set. Validation is the
// caller's job: the daemon needs Validate while ingestion only needs
// ValidateIngestion.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, noaherr.Errorf(noaherr.CodeConfigLoadReadFailure, "unmarshalling config: %w", err)
	}

	if cfg.DataDir == "" {
		dir, err := defaultDataDir()
		if err != nil {
			return nil, err
		}
		cfg.DataDir = dir
	}

	return &cfg, nil
}

// ErrInvalid folds validation errors into one error value. Callers decide
// which Validate variant applies; the daemon needs the full config while
// ingestion only touches storage and embedding.
func ErrInvalid(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return noaherr.Errorf(noaherr.CodeConfigValidateInvalidValue, "validating config: %w", errors.Join(errs...))
}

// defaultDataDir returns ~/.local/share/noah.
func defaultDataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", noaherr.Errorf(noaherr.CodeConfigLoadReadFailure, "resolving home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "noah"), nil
}

// Validate checks the configuration for logical errors.
// It returns a slice of all validation errors found, collecting all issues
// rather than stopping at the first one.
func (c *Config) Validate() []error {
	var errs []error

	errs = append(errs, c.validateListen()...)
	errs = append(errs, c.validateStorage()...)
	errs = append(errs, c.validateEmbedding()...)
	errs = append(errs, c.validateSearch()...)

	return errs
}

// ValidateIngestion checks only the sections the ingest command needs. The
// listen address is irrelevant to a stdin pipeline.
func (c *Config) ValidateIngestion() []error {
	var errs []error

	errs = append(errs, c.validateStorage()...)
	errs = append(errs, c.validateEmbedding()...)

	return errs
}

func (c *Config) validateListen() []error {
	var errs []error

	if c.Listen == "" {
		errs = append(errs, noaherr.Errorf(noaherr.CodeConfigValidateInvalidValue, "config: listen must not be empty"))
		return errs
	}

	host, portStr, err := net.SplitHostPort(c.Listen)
	if err != nil {
		errs = append(errs, noaherr.Errorf(noaherr.CodeConfigValidateInvalidValue,
			"config: listen must be a valid host:port address, got %q: %w",
			c.Listen, err,
		))
		return errs
	}
	_ = host // host can be empty (e.g., ":3000"), which is valid

	port, err := strconv.Atoi(portStr)
	if err != nil {
		errs = append(errs, noaherr.Errorf(noaherr.CodeConfigValidateInvalidValue,
			"config: listen port must be a number, got %q",
			portStr,
		))
	} else if port < 1 || port > 65535 {
		errs = append(errs, noaherr.Errorf(noaherr.CodeConfigValidateInvalidValue,
			"config: listen port must be between 1 and 65535, got %d",
			port,
		))
	}

	return errs
}

func (c *Config) validateStorage() []error {
	var errs []error

	validBackends := map[string]bool{"sqlite": true}
	if !validBackends[c.Storage.Backend] {
		errs = append(errs, noaherr.Errorf(noaherr.CodeConfigValidateInvalidValue,
			"config: storage.backend must be one of [sqlite], got %q",
			c.Storage.Backend,
		))
	}

	return errs
}

func (c *Config) validateEmbedding() []error {
	var errs []error

	if c.Embedding.Dimensions <= 0 {
		errs = append(errs, noaherr.Errorf(noaherr.CodeConfigValidateInvalidValue,
			"config: embedding.dimensions must be greater than 0, got %d",
			c.Embedding.Dimensions,
		))
	}

	switch c.Embedding.Provider {
	case ProviderCloudflare:
		if c.Embedding.Cloudflare.AccountID == "" {
			errs = append(errs, noaherr.Errorf(noaherr.CodeConfigValidateInvalidValue,
				"config: embedding.cloudflare.account_id must not be empty when provider is %q",
				ProviderCloudflare,
			))
		}
		if c.Embedding.Cloudflare.APIKey == "" {
			errs = append(errs, noaherr.Errorf(noaherr.CodeConfigValidateInvalidValue,
				"config: embedding.cloudflare.api_key must not be empty when provider is %q",
				ProviderCloudflare,
			))
		}
	case ProviderOpenAI:
		if c.Embedding.OpenAI.APIKey == "" {
			errs = append(errs, noaherr.Errorf(noaherr.CodeConfigValidateInvalidValue,
				"config: embedding.openai.api_key must not be empty when provider is %q",
				ProviderOpenAI,
			))
		}
	case ProviderGemini:
		if c.Embedding.Gemini.APIKey == "" {
			errs = append(errs, noaherr.Errorf(noaherr.CodeConfigValidateInvalidValue,
				"config: embedding.gemini.api_key must not be empty when provider is %q",
				ProviderGemini,
			))
		}
	default:
		errs = append(errs, noaherr.Errorf(noaherr.CodeConfigValidateInvalidValue,
			"config: embedding.provider must be one of [cloudflare, openai, gemini], got %q",
			c.Embedding.Provider,
		))
	}

	return errs
}

func (c *Config) validateSearch() []error {
	var errs []error

	if c.Search.DefaultLimit <= 0 {
		errs = append(errs, noaherr.Errorf(noaherr.CodeConfigValidateInvalidValue,
			"config: search.default_limit must be greater than 0, got %d",
			c.Search.DefaultLimit,
		))
	}

	return errs
}
