// Package config loads aether.yml and applies AETHER_* environment
// overrides. A missing config file is fine - every field has a default - but
// a present file must parse and validate.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/aethershop/aether/internal/pricing"
)

// PricingConfig overrides the pricing preview policy.
type PricingConfig struct {
	TaxRate               float64 `yaml:"tax_rate" envconfig:"TAX_RATE"`
	DeliveryFee           float64 `yaml:"delivery_fee" envconfig:"DELIVERY_FEE"`
	FreeDeliveryThreshold float64 `yaml:"free_delivery_threshold" envconfig:"FREE_DELIVERY_THRESHOLD"`
}

// Config is the aether client configuration.
type Config struct {
	APIBaseURL string        `yaml:"api_base_url" envconfig:"API_BASE_URL"`
	RedisAddr  string        `yaml:"redis_addr" envconfig:"REDIS_ADDR"`
	Profile    string        `yaml:"profile" envconfig:"PROFILE"`
	LogLevel   string        `yaml:"log_level" envconfig:"LOG_LEVEL"`
	Pricing    PricingConfig `yaml:"pricing"`
}

// Default returns the built-in configuration.
func Default() Config {
	policy := pricing.DefaultPolicy()
	return Config{
		APIBaseURL: "http://localhost:8089",
		RedisAddr:  "localhost:6379",
		Profile:    "default",
		LogLevel:   "warn",
		Pricing: PricingConfig{
			TaxRate:               policy.TaxRate,
			DeliveryFee:           policy.DeliveryFee,
			FreeDeliveryThreshold: policy.FreeDeliveryThreshold,
		},
	}
}

// Load builds the configuration: defaults, then the YAML file at path (if it
// exists), then AETHER_* environment variables on top.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	}

	if err := envconfig.Process("aether", &cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate performs strict validation on the configuration.
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.APIBaseURL, "http://") && !strings.HasPrefix(c.APIBaseURL, "https://") {
		return fmt.Errorf("api_base_url must start with http:// or https://, got %q", c.APIBaseURL)
	}
	if c.RedisAddr == "" {
		return fmt.Errorf("redis_addr is required")
	}
	if c.Profile == "" {
		return fmt.Errorf("profile is required")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level: %q (must be 'debug', 'info', 'warn', or 'error')", c.LogLevel)
	}
	if err := c.Policy().Validate(); err != nil {
		return fmt.Errorf("invalid pricing: %w", err)
	}
	return nil
}

// Policy returns the configured pricing policy.
func (c *Config) Policy() pricing.Policy {
	return pricing.Policy{
		TaxRate:               c.Pricing.TaxRate,
		DeliveryFee:           c.Pricing.DeliveryFee,
		FreeDeliveryThreshold: c.Pricing.FreeDeliveryThreshold,
	}
}
