package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "aether.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8089", cfg.APIBaseURL)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, "default", cfg.Profile)
	assert.Equal(t, 0.085, cfg.Pricing.TaxRate)
	assert.Equal(t, 4.99, cfg.Pricing.DeliveryFee)
	assert.Equal(t, 50.0, cfg.Pricing.FreeDeliveryThreshold)
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
api_base_url: https://api.aether.example
profile: staging
pricing:
  tax_rate: 0.11
  delivery_fee: 3.50
  free_delivery_threshold: 75
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://api.aether.example", cfg.APIBaseURL)
	assert.Equal(t, "staging", cfg.Profile)
	// File values flow into the pricing policy
	policy := cfg.Policy()
	assert.Equal(t, 0.11, policy.TaxRate)
	assert.Equal(t, 3.50, policy.DeliveryFee)
	assert.Equal(t, 75.0, policy.FreeDeliveryThreshold)
	// Untouched fields keep defaults
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := writeConfig(t, "api_base_url: http://from-file:8089\n")
	t.Setenv("AETHER_API_BASE_URL", "http://from-env:9000")
	t.Setenv("AETHER_PROFILE", "env-profile")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://from-env:9000", cfg.APIBaseURL)
	assert.Equal(t, "env-profile", cfg.Profile)
}

func TestValidate(t *testing.T) {
	t.Run("rejects malformed api_base_url", func(t *testing.T) {
		cfg := Default()
		cfg.APIBaseURL = "localhost:8089"
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects empty profile", func(t *testing.T) {
		cfg := Default()
		cfg.Profile = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects unknown log level", func(t *testing.T) {
		cfg := Default()
		cfg.LogLevel = "verbose"
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects bad pricing", func(t *testing.T) {
		cfg := Default()
		cfg.Pricing.TaxRate = -1
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects malformed yaml", func(t *testing.T) {
		path := writeConfig(t, "api_base_url: [broken\n")
		_, err := Load(path)
		assert.Error(t, err)
	})
}
