// Package config reads environment-backed defaults shared by the rally binaries.
// Command-line flags override these values.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tunogya/rally/pkg/feature"
	"github.com/tunogya/rally/pkg/queue/nats"
	"github.com/tunogya/rally/pkg/store/milvus"
	"github.com/tunogya/rally/pkg/window"
)

type Config struct {
	Env string

	// Stores
	DuckDBPath     string
	MilvusAddr     string
	MilvusUser     string
	MilvusPassword string
	PostgresURL    string

	// Transport
	NATSURL    string
	NATSStream string

	// Sources
	ResultsAPIURL string

	// Features
	Windows       []int
	Alphas        []float64
	HistoryLength int

	// Writer
	MetricsAddr   string
	BatchSize     int
	FlushInterval time.Duration
}

// Load reads configuration from environment variables.
// Malformed list values are an error; malformed scalars fall back to their default.
func Load() (*Config, error) {
	featureDefaults := feature.DefaultConfig()
	natsDefaults := nats.DefaultConfig()

	cfg := &Config{
		Env: getEnv("RALLY_ENV", "development"),

		DuckDBPath:     getEnv("DUCKDB_PATH", "./data/rally.duckdb"),
		MilvusAddr:     getEnv("MILVUS_ADDR", milvus.DefaultConfig().Address),
		MilvusUser:     getEnv("MILVUS_USER", ""),
		MilvusPassword: getEnv("MILVUS_PASSWORD", ""),
		PostgresURL:    getEnv("POSTGRES_URL", ""),

		NATSURL:    getEnv("NATS_URL", natsDefaults.URL),
		NATSStream: getEnv("NATS_STREAM", natsDefaults.StreamName),

		ResultsAPIURL: getEnv("RESULTS_API_URL", "https://zsr.octane.gg"),

		HistoryLength: getEnvInt("HISTORY_LENGTH", window.DefaultConfig().T),

		MetricsAddr:   getEnv("METRICS_ADDR", ":9090"),
		BatchSize:     getEnvInt("BATCH_SIZE", 500),
		FlushInterval: getEnvDuration("FLUSH_INTERVAL", time.Second),
	}

	var err error
	if cfg.Windows, err = getEnvInts("FEATURE_WINDOWS", featureDefaults.Windows); err != nil {
		return nil, err
	}
	if cfg.Alphas, err = getEnvFloats("FEATURE_ALPHAS", featureDefaults.Alphas); err != nil {
		return nil, err
	}

	return cfg, nil
}

// IsProduction reports whether RALLY_ENV selects production behaviour
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// FeatureConfig returns the assembler configuration for the configured windows and alphas
func (c *Config) FeatureConfig() feature.Config {
	fc := feature.DefaultConfig()
	fc.Windows = c.Windows
	fc.Alphas = c.Alphas
	return fc
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvInts(key string, fallback []int) ([]int, error) {
	value := os.Getenv(key)
	if len(splitList(value)) == 0 {
		return fallback, nil
	}
	return parseInts(key, value)
}

func getEnvFloats(key string, fallback []float64) ([]float64, error) {
	value := os.Getenv(key)
	if len(splitList(value)) == 0 {
		return fallback, nil
	}
	return parseFloats(key, value)
}

// ParseInts parses a comma separated flag value such as "5,10,20"
func ParseInts(raw string) ([]int, error) {
	return parseInts("list", raw)
}

// ParseFloats parses a comma separated flag value such as "0.9,0.95"
func ParseFloats(raw string) ([]float64, error) {
	return parseFloats("list", raw)
}

// FormatInts renders values as a comma separated list
func FormatInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

// FormatFloats renders values as a comma separated list
func FormatFloats(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, ",")
}

func parseInts(key, raw string) ([]int, error) {
	fields := splitList(raw)
	out := make([]int, len(fields))
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q in %s: %w", f, key, err)
		}
		out[i] = v
	}
	return out, nil
}

func parseFloats(key, raw string) ([]float64, error) {
	fields := splitList(raw)
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q in %s: %w", f, key, err)
		}
		out[i] = v
	}
	return out, nil
}

func splitList(raw string) []string {
	var fields []string
	for _, f := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(f); trimmed != "" {
			fields = append(fields, trimmed)
		}
	}
	return fields
}
