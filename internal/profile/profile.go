// Package profile carries the process configuration, loaded once at startup.
package profile

import (
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Supported embedding providers.
const (
	ProviderStub   = "stub"
	ProviderOpenAI = "openai"
)

// Supported database drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Profile is configuration to start the dedupe server.
type Profile struct {
	Mode    string // "prod" or "dev"
	Addr    string
	Port    int
	Version string

	// DSN is the backend connection string (DATABASE_URL).
	DSN string

	// Embedding provider configuration.
	EmbeddingsProvider string
	EmbeddingsModel    string
	EmbeddingsDim      int
	OpenAIAPIKey       string

	// Similarity thresholds. NearDuplicateThreshold <= DuplicateThreshold
	// always holds after FromEnv.
	DuplicateThreshold     float64
	NearDuplicateThreshold float64

	LogLevel string
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// Driver derives the database driver from the DSN scheme. Anything that is
// not a Postgres URL is treated as a SQLite path.
func (p *Profile) Driver() string {
	if strings.HasPrefix(p.DSN, "postgres://") || strings.HasPrefix(p.DSN, "postgresql://") {
		return DriverPostgres
	}
	return DriverSQLite
}

// SlogLevel maps LogLevel onto a slog.Level, defaulting to info.
func (p *Profile) SlogLevel() slog.Level {
	switch strings.ToLower(p.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// getEnvOrDefault returns environment variable value or default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrDefaultInt returns environment variable value as int or default value.
func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvOrDefaultFloat returns environment variable value as float64 or default value.
func getEnvOrDefaultFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

// FromEnv loads configuration from environment variables.
func (p *Profile) FromEnv() {
	if p.DSN == "" {
		p.DSN = os.Getenv("DATABASE_URL")
	}

	p.EmbeddingsProvider = strings.ToLower(getEnvOrDefault("EMBEDDINGS_PROVIDER", ProviderOpenAI))
	p.EmbeddingsModel = getEnvOrDefault("EMBEDDINGS_MODEL", "text-embedding-3-large")
	p.EmbeddingsDim = getEnvOrDefaultInt("EMBEDDINGS_DIM", 3072)
	p.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")

	p.DuplicateThreshold = getEnvOrDefaultFloat("DUPLICATE_THRESHOLD", 0.95)
	p.NearDuplicateThreshold = getEnvOrDefaultFloat("NEAR_DUPLICATE_THRESHOLD", 0.85)
	// Defensive ordering: near must not exceed dup.
	if p.NearDuplicateThreshold > p.DuplicateThreshold {
		p.NearDuplicateThreshold, p.DuplicateThreshold = p.DuplicateThreshold, p.NearDuplicateThreshold
	}

	if p.Port == 0 {
		p.Port = getEnvOrDefaultInt("PORT", 8081)
	}
	p.LogLevel = getEnvOrDefault("LOG_LEVEL", "info")
}

// Validate checks that the profile can actually start a server. It fails
// fast on misconfiguration instead of deferring to the first request.
func (p *Profile) Validate() error {
	if p.DSN == "" {
		return errors.New("DATABASE_URL is not set")
	}
	if p.EmbeddingsDim <= 0 {
		return errors.Errorf("invalid embeddings dimension: %d", p.EmbeddingsDim)
	}
	switch p.EmbeddingsProvider {
	case ProviderStub:
	case ProviderOpenAI:
		if p.OpenAIAPIKey == "" {
			return errors.New("OPENAI_API_KEY is required when EMBEDDINGS_PROVIDER is openai")
		}
	default:
		return errors.Errorf("invalid EMBEDDINGS_PROVIDER: %q", p.EmbeddingsProvider)
	}
	if p.Port <= 0 || p.Port > 65535 {
		return errors.Errorf("invalid port: %d", p.Port)
	}
	return nil
}
