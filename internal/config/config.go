// Package config loads service configuration from defaults, an optional
// config.yaml, a .env file and LEDGER_ environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/dvloznov/rent-ledger/internal/provider"
	"github.com/dvloznov/rent-ledger/internal/store"
)

// EnvPrefix prefixes every environment variable, e.g. LEDGER_PLAID_SECRET.
const EnvPrefix = "LEDGER"

// Config represents the complete service configuration.
type Config struct {
	HTTP struct {
		Port int `mapstructure:"port"`

		// AuthToken, when set, is required as a bearer token on every route but /health.
		AuthToken string `mapstructure:"auth_token"`
	} `mapstructure:"http"`

	GCP struct {
		ProjectID string `mapstructure:"project_id"`
	} `mapstructure:"gcp"`

	Firestore struct {
		Database string `mapstructure:"database"`
	} `mapstructure:"firestore"`

	Plaid struct {
		ClientID    string `mapstructure:"client_id"`
		Secret      string `mapstructure:"secret"`
		Environment string `mapstructure:"environment"`
	} `mapstructure:"plaid"`

	Sync struct {
		PageSize   int           `mapstructure:"page_size"`
		BatchLimit int           `mapstructure:"batch_limit"`
		LeaseTTL   time.Duration `mapstructure:"lease_ttl"`
		MaxRetries int           `mapstructure:"max_retries"`
	} `mapstructure:"sync"`

	Categorizer struct {
		ReviewThreshold    float64 `mapstructure:"review_threshold"`
		GeneralizerModel   string  `mapstructure:"generalizer_model"`
		GeneralizerEnabled bool    `mapstructure:"generalizer_enabled"`
		VendorMapURI       string  `mapstructure:"vendor_map_uri"`
	} `mapstructure:"categorizer"`

	Audit struct {
		Enabled bool   `mapstructure:"enabled"`
		Dataset string `mapstructure:"dataset"`
		Table   string `mapstructure:"table"`
	} `mapstructure:"audit"`

	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`
}

// Load builds the configuration. configFile may name an explicit YAML file;
// when empty, config.yaml is looked up in the working directory and
// $HOME/.rent-ledger. envFile is loaded with godotenv when it exists.
func Load(configFile, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("Load: reading %s: %w", envFile, err)
		}
	}

	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.rent-ledger")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("Load: reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("Load: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("Load: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.auth_token", "")

	v.SetDefault("gcp.project_id", "")
	v.SetDefault("firestore.database", "(default)")

	v.SetDefault("plaid.client_id", "")
	v.SetDefault("plaid.secret", "")
	v.SetDefault("plaid.environment", "sandbox")

	v.SetDefault("sync.page_size", 250)
	v.SetDefault("sync.batch_limit", 450)
	v.SetDefault("sync.lease_ttl", 10*time.Minute)
	v.SetDefault("sync.max_retries", 4)

	v.SetDefault("categorizer.review_threshold", 0.95)
	v.SetDefault("categorizer.generalizer_model", "gemini-2.5-flash")
	v.SetDefault("categorizer.generalizer_enabled", false)
	v.SetDefault("categorizer.vendor_map_uri", "")

	v.SetDefault("audit.enabled", false)
	v.SetDefault("audit.dataset", "ledger")
	v.SetDefault("audit.table", "categorization_audit")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// Validate checks value ranges. Page size above the provider maximum is
// capped rather than rejected; after capping it must fit in one batch.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port out of range: %d", c.HTTP.Port)
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(c.Log.Level)); err != nil {
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}
	if c.Log.Format != "console" && c.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'console' or 'json')", c.Log.Format)
	}
	switch c.Plaid.Environment {
	case "sandbox", "production":
	default:
		return fmt.Errorf("invalid plaid.environment: %s", c.Plaid.Environment)
	}
	if c.Categorizer.ReviewThreshold < 0 || c.Categorizer.ReviewThreshold > 1 {
		return fmt.Errorf("categorizer.review_threshold must be between 0.0 and 1.0, got: %f", c.Categorizer.ReviewThreshold)
	}
	if c.Sync.PageSize <= 0 {
		return fmt.Errorf("sync.page_size must be positive, got: %d", c.Sync.PageSize)
	}
	if c.Sync.PageSize > provider.MaxPageSize {
		c.Sync.PageSize = provider.MaxPageSize
	}
	if c.Sync.BatchLimit <= 0 || c.Sync.BatchLimit > store.MaxBatchWrites {
		return fmt.Errorf("sync.batch_limit must be between 1 and %d, got: %d", store.MaxBatchWrites, c.Sync.BatchLimit)
	}
	if c.Sync.PageSize > c.Sync.BatchLimit {
		return fmt.Errorf("sync.page_size (%d) must not exceed sync.batch_limit (%d): each page commits as one batch", c.Sync.PageSize, c.Sync.BatchLimit)
	}
	if c.Sync.LeaseTTL <= 0 {
		return fmt.Errorf("sync.lease_ttl must be positive, got: %s", c.Sync.LeaseTTL)
	}
	if c.Sync.MaxRetries < 0 {
		return fmt.Errorf("sync.max_retries must not be negative, got: %d", c.Sync.MaxRetries)
	}
	return nil
}

// RequirePlaid reports an error when Plaid credentials are missing.
func (c *Config) RequirePlaid() error {
	if c.Plaid.ClientID == "" || c.Plaid.Secret == "" {
		return fmt.Errorf("plaid.client_id and plaid.secret are required (%s_PLAID_CLIENT_ID, %s_PLAID_SECRET)", EnvPrefix, EnvPrefix)
	}
	return nil
}

// RequireProject reports an error when no GCP project is configured.
func (c *Config) RequireProject() error {
	if c.GCP.ProjectID == "" {
		return fmt.Errorf("gcp.project_id is required (%s_GCP_PROJECT_ID)", EnvPrefix)
	}
	return nil
}
