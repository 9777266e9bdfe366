package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Device classes for the quote fetch strategy. The class is determined once
// per process from the environment and is immutable afterwards.
const (
	DeviceUnconstrained = "unconstrained"
	DeviceConstrained   = "constrained"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	CORS      CORSConfig
	Fetch     FetchConfig
	Cache     CacheConfig
	Benchmark BenchmarkConfig
	Provider  ProviderConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port string
	Host string
	Addr string // Combined host:port for convenience
}

// DatabaseConfig holds database-specific configuration
type DatabaseConfig struct {
	Path string
}

// CORSConfig holds CORS-specific configuration
type CORSConfig struct {
	AllowedOrigins []string
}

// FetchConfig holds the tunables of the quote fetch strategy.
type FetchConfig struct {
	// DeviceClass is DeviceUnconstrained or DeviceConstrained.
	DeviceClass string

	// CombinedTimeout bounds the single whole-set request used on
	// unconstrained devices.
	CombinedTimeout time.Duration

	// GroupSize and GroupPacing shape the split requests used on
	// constrained devices.
	GroupSize   int
	GroupPacing time.Duration

	// VariantTimeout bounds each individual request variant on the
	// resilient per-ticker path.
	VariantTimeout time.Duration
}

// CacheConfig holds quote cache freshness tunables.
type CacheConfig struct {
	// TTL is the per-portfolio freshness window.
	TTL time.Duration

	// HealInterval is how often idle portfolios are checked for systemic
	// fetch failure; HealThreshold is the stale-asset fraction above which an
	// unsolicited refresh is forced.
	HealInterval  time.Duration
	HealThreshold float64
}

// BenchmarkConfig holds benchmark resolution configuration.
type BenchmarkConfig struct {
	Symbol string
}

// ProviderConfig holds quote provider configuration.
type ProviderConfig struct {
	BaseURL string

	// FernetKey decrypts the provider API token stored in the settings table.
	// Empty means the provider is used anonymously.
	FernetKey string
}

// Load reads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	deviceClass := getEnv("DEVICE_CLASS", DeviceUnconstrained)
	if deviceClass != DeviceUnconstrained && deviceClass != DeviceConstrained {
		return nil, fmt.Errorf("invalid DEVICE_CLASS %q", deviceClass)
	}

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "5001"),
			Host: getEnv("SERVER_HOST", "localhost"),
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/carteira.db"),
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{
				"http://localhost:3000",
				"http://localhost",
			},
		},
		Fetch: FetchConfig{
			DeviceClass:     deviceClass,
			CombinedTimeout: getEnvDuration("FETCH_COMBINED_TIMEOUT", 6*time.Second),
			GroupSize:       getEnvInt("FETCH_GROUP_SIZE", 4),
			GroupPacing:     getEnvDuration("FETCH_GROUP_PACING", 500*time.Millisecond),
			VariantTimeout:  getEnvDuration("FETCH_VARIANT_TIMEOUT", 2500*time.Millisecond),
		},
		Cache: CacheConfig{
			TTL:           getEnvDuration("QUOTE_CACHE_TTL", 2*time.Minute),
			HealInterval:  getEnvDuration("HEAL_INTERVAL", 2*time.Second),
			HealThreshold: getEnvFloat("HEAL_THRESHOLD", 0.70),
		},
		Benchmark: BenchmarkConfig{
			Symbol: getEnv("BENCHMARK_SYMBOL", "^BVSP"),
		},
		Provider: ProviderConfig{
			BaseURL:   getEnv("PROVIDER_BASE_URL", "https://query1.finance.yahoo.com"),
			FernetKey: getEnv("FERNET_KEY", ""),
		},
	}

	// Combine host and port
	config.Server.Addr = fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port)

	return config, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvDuration parses a duration environment variable, falling back to the
// default on missing or unparseable values.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return f
}
