package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearTestEnvVars(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		key, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(key, EnvPrefix+"_") {
			t.Setenv(key, "")
			require.NoError(t, os.Unsetenv(key))
		}
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearTestEnvVars(t)
	t.Chdir(t.TempDir())

	cfg, err := Load("", "")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, "(default)", cfg.Firestore.Database)
	assert.Equal(t, "sandbox", cfg.Plaid.Environment)
	assert.Equal(t, 250, cfg.Sync.PageSize)
	assert.Equal(t, 450, cfg.Sync.BatchLimit)
	assert.Equal(t, 10*time.Minute, cfg.Sync.LeaseTTL)
	assert.Equal(t, 4, cfg.Sync.MaxRetries)
	assert.Equal(t, 0.95, cfg.Categorizer.ReviewThreshold)
	assert.False(t, cfg.Categorizer.GeneralizerEnabled)
	assert.False(t, cfg.Audit.Enabled)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	clearTestEnvVars(t)
	t.Chdir(t.TempDir())

	t.Setenv("LEDGER_HTTP_PORT", "9090")
	t.Setenv("LEDGER_PLAID_CLIENT_ID", "client")
	t.Setenv("LEDGER_PLAID_SECRET", "secret")
	t.Setenv("LEDGER_PLAID_ENVIRONMENT", "production")
	t.Setenv("LEDGER_SYNC_LEASE_TTL", "90s")
	t.Setenv("LEDGER_CATEGORIZER_REVIEW_THRESHOLD", "0.9")
	t.Setenv("LEDGER_LOG_FORMAT", "json")

	cfg, err := Load("", "")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, "client", cfg.Plaid.ClientID)
	assert.Equal(t, "production", cfg.Plaid.Environment)
	assert.Equal(t, 90*time.Second, cfg.Sync.LeaseTTL)
	assert.Equal(t, 0.9, cfg.Categorizer.ReviewThreshold)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.NoError(t, cfg.RequirePlaid())
}

func TestLoad_ConfigFileAndDotEnv(t *testing.T) {
	clearTestEnvVars(t)
	dir := t.TempDir()

	configPath := filepath.Join(dir, "ledger.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(`
gcp:
  project_id: rentals-prod
sync:
  page_size: 800
  batch_limit: 500
audit:
  enabled: true
`), 0o600))

	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("LEDGER_PLAID_SECRET=from-dotenv\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("LEDGER_PLAID_SECRET") })

	cfg, err := Load(configPath, envPath)
	require.NoError(t, err)

	assert.Equal(t, "rentals-prod", cfg.GCP.ProjectID)
	assert.Equal(t, 500, cfg.Sync.PageSize, "page size is capped at the provider maximum")
	assert.Equal(t, 500, cfg.Sync.BatchLimit)
	assert.True(t, cfg.Audit.Enabled)
	assert.Equal(t, "from-dotenv", cfg.Plaid.Secret)
	assert.NoError(t, cfg.RequireProject())
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	clearTestEnvVars(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), "")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	clearTestEnvVars(t)
	t.Chdir(t.TempDir())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.HTTP.Port = 0 }},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }},
		{"bad environment", func(c *Config) { c.Plaid.Environment = "development" }},
		{"threshold above one", func(c *Config) { c.Categorizer.ReviewThreshold = 1.5 }},
		{"batch over store limit", func(c *Config) { c.Sync.BatchLimit = 501 }},
		{"page larger than batch", func(c *Config) { c.Sync.PageSize, c.Sync.BatchLimit = 300, 200 }},
		{"zero lease", func(c *Config) { c.Sync.LeaseTTL = 0 }},
		{"negative retries", func(c *Config) { c.Sync.MaxRetries = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load("", "")
			require.NoError(t, err)
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestRequireHelpers(t *testing.T) {
	var cfg Config
	assert.Error(t, cfg.RequirePlaid())
	assert.Error(t, cfg.RequireProject())
}
