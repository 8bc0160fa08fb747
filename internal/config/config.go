// Package config loads the application configuration from environment
// variables, falling back to a .env file when present.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the full set of tunables the CLI needs to fetch data,
// persist it, and run back-tests.
type Config struct {
	DataDir            string // base directory for the three SQLite databases and the cache
	FinMindToken       string // optional bearer token for the FinMind fallback provider
	LogLevel           string // zerolog level name: debug, info, warn, error
	LogPretty          bool   // console-writer formatting instead of JSON
	HTTPTimeoutSeconds int    // per-request timeout for both upstream clients
	FetchConcurrency   int    // worker pool size for the batch executor
	CacheTTLHours      int    // response cache freshness window
}

// Load reads configuration from the environment, after attempting to load a
// .env file from the working directory. A missing .env file is not an
// error: godotenv.Load returning an error is ignored, since .env is an
// optional convenience, not a requirement.
func Load(dataDirOverride ...string) (*Config, error) {
	_ = godotenv.Load()

	dataDir := ""
	if len(dataDirOverride) > 0 && dataDirOverride[0] != "" {
		dataDir = dataDirOverride[0]
	} else {
		dataDir = getEnv("DB_PATH", "")
		if dataDir == "" {
			dataDir = "./data"
		}
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("resolve data directory: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:            absDataDir,
		FinMindToken:       getEnv("FINMIND_TOKEN", ""),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogPretty:          getEnvAsBool("LOG_PRETTY", false),
		HTTPTimeoutSeconds: getEnvAsInt("HTTP_TIMEOUT_SECONDS", 20),
		FetchConcurrency:   getEnvAsInt("FETCH_CONCURRENCY", 4),
		CacheTTLHours:      getEnvAsInt("CACHE_TTL_HOURS", 24),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks invariants that would make the rest of the program
// misbehave rather than fail fast.
func (c *Config) Validate() error {
	if c.FetchConcurrency < 1 {
		return fmt.Errorf("FETCH_CONCURRENCY must be >= 1, got %d", c.FetchConcurrency)
	}
	if c.HTTPTimeoutSeconds < 1 {
		return fmt.Errorf("HTTP_TIMEOUT_SECONDS must be >= 1, got %d", c.HTTPTimeoutSeconds)
	}
	return nil
}

// FundamentalsDBPath returns the path of the fundamentals database file.
func (c *Config) FundamentalsDBPath() string { return filepath.Join(c.DataDir, "fundamentals.db") }

// QualityDBPath returns the path of the quality database file.
func (c *Config) QualityDBPath() string { return filepath.Join(c.DataDir, "quality.db") }

// PriceDBPath returns the path of the price database file.
func (c *Config) PriceDBPath() string { return filepath.Join(c.DataDir, "price.db") }

// CacheDir returns the directory the file-backed response cache writes into.
func (c *Config) CacheDir() string { return filepath.Join(c.DataDir, "cache") }

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
