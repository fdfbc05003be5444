package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration loaded from environment
// variables. Required fields are validated at startup for fail-fast
// behavior.
type Config struct {
	// Server configuration
	ServerAddr string
	LogLevel   string

	// Solana configuration
	SolanaRPCURL     string
	RPCEndpointLabel string // metrics label, e.g. "mainnet" or the RPC hostname

	// Optional integrations. Empty DatabaseURL disables the Postgres
	// write-through store; empty NATSURL disables event publishing.
	DatabaseURL string
	NATSURL     string

	// Resolution pipeline tuning
	FetchTimeout         time.Duration
	ResponseCacheSize    int
	ResponseCacheTTL     time.Duration
	AccountFetchLimitMax int
}

// Load reads configuration from environment variables and validates all
// required fields. Returns an error if any required configuration is
// missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{}
	var errs []error

	cfg.ServerAddr = getEnvOrDefault("SERVER_ADDR", ":8080")
	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", "info")

	cfg.SolanaRPCURL = os.Getenv("SOLANA_RPC_URL")
	if cfg.SolanaRPCURL == "" {
		errs = append(errs, fmt.Errorf("SOLANA_RPC_URL is required"))
	}
	cfg.RPCEndpointLabel = getEnvOrDefault("RPC_ENDPOINT_LABEL", "default")

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.NATSURL = os.Getenv("NATS_URL")

	fetchTimeout, err := parseDuration("FETCH_TIMEOUT", "15s")
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.FetchTimeout = fetchTimeout
	}

	cacheSize, err := parseInt("RESPONSE_CACHE_SIZE", 2048)
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.ResponseCacheSize = cacheSize
	}

	cacheTTL, err := parseDuration("RESPONSE_CACHE_TTL", "10m")
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.ResponseCacheTTL = cacheTTL
	}

	limitMax, err := parseInt("ACCOUNT_FETCH_LIMIT_MAX", 25)
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.AccountFetchLimitMax = limitMax
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %v", errs)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// MustLoad is like Load but panics if configuration is invalid. Useful for
// server initialization where misconfiguration should halt startup.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// Validate checks if the configuration is valid. Useful for testing
// configuration without loading from env.
func (c *Config) Validate() error {
	var errs []error

	if c.SolanaRPCURL == "" {
		errs = append(errs, fmt.Errorf("SolanaRPCURL is required"))
	}

	if c.FetchTimeout < time.Second {
		errs = append(errs, fmt.Errorf("FetchTimeout must be at least 1 second"))
	}

	if c.ResponseCacheSize <= 0 {
		errs = append(errs, fmt.Errorf("ResponseCacheSize must be positive"))
	}

	if c.ResponseCacheTTL <= 0 {
		errs = append(errs, fmt.Errorf("ResponseCacheTTL must be positive"))
	}

	if c.AccountFetchLimitMax < 1 {
		errs = append(errs, fmt.Errorf("AccountFetchLimitMax must be at least 1"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %v", errs)
	}
	return nil
}

// getEnvOrDefault returns the environment variable value or a default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseDuration parses a duration from an environment variable or uses a default.
func parseDuration(key, defaultValue string) (time.Duration, error) {
	value := getEnvOrDefault(key, defaultValue)
	duration, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", key, value, err)
	}
	return duration, nil
}

// parseInt parses an integer from an environment variable or uses a default.
func parseInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q: %w", key, value, err)
	}
	return result, nil
}
