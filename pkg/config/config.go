package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Port           string
	Env            string
	AllowedOrigins []string

	// Upstream API keys
	EtherscanAPIKey string
	MoralisAPIKey   string

	// Analysis defaults
	CostBasisMethod string

	// Storage configuration
	DatabaseURL   string
	RedisURL      string
	RedisPassword string
}

// Load reads configuration from the environment, after loading a .env
// file if one is present.
func Load() (*Config, error) {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		Env:             getEnv("ENV", "development"),
		AllowedOrigins:  splitList(getEnv("ALLOWED_ORIGINS", "*")),
		EtherscanAPIKey: getEnv("ETHERSCAN_API_KEY", ""),
		MoralisAPIKey:   getEnv("MORALIS_API_KEY", ""),
		CostBasisMethod: getEnv("COST_BASIS_METHOD", "fifo"),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		RedisURL:        getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures all required configuration is present
func (c *Config) Validate() error {
	if c.EtherscanAPIKey == "" {
		return fmt.Errorf("ETHERSCAN_API_KEY is required")
	}

	// Moralis is the secondary source; required only in production where
	// single-source coverage is not acceptable.
	if c.MoralisAPIKey == "" && c.IsProduction() {
		return fmt.Errorf("MORALIS_API_KEY is required in production")
	}

	if c.CostBasisMethod != "fifo" && c.CostBasisMethod != "lifo" {
		return fmt.Errorf("COST_BASIS_METHOD must be fifo or lifo, got %q", c.CostBasisMethod)
	}

	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// splitList splits a comma-separated environment value into trimmed parts
func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
