package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the client
type Config struct {
	Environment   string
	IsProduction  bool
	IsDevelopment bool

	// Remote API
	APIBaseURL string
	APITimeout time.Duration
}

const defaultAPITimeout = 12 * time.Second

// Load loads the configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Environment: getEnv("NUTRIDAY_ENV", "development"),
		APIBaseURL:  getEnv("NUTRIDAY_API_BASE_URL", "https://api.nutriday.app"),
	}
	cfg.IsProduction = cfg.Environment == "production"
	cfg.IsDevelopment = cfg.Environment == "development"

	timeout, err := getEnvDuration("NUTRIDAY_API_TIMEOUT", defaultAPITimeout)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("NUTRIDAY_API_TIMEOUT must be > 0, got %s", timeout)
	}
	cfg.APITimeout = timeout

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return d, nil
}
