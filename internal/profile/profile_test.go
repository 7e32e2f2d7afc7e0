package profile

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/claims")
	for _, key := range []string{
		"EMBEDDINGS_PROVIDER", "EMBEDDINGS_MODEL", "EMBEDDINGS_DIM",
		"DUPLICATE_THRESHOLD", "NEAR_DUPLICATE_THRESHOLD", "PORT", "LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}

	p := &Profile{}
	p.FromEnv()

	assert.Equal(t, "postgres://localhost/claims", p.DSN)
	assert.Equal(t, ProviderOpenAI, p.EmbeddingsProvider)
	assert.Equal(t, "text-embedding-3-large", p.EmbeddingsModel)
	assert.Equal(t, 3072, p.EmbeddingsDim)
	assert.Equal(t, 0.95, p.DuplicateThreshold)
	assert.Equal(t, 0.85, p.NearDuplicateThreshold)
	assert.Equal(t, 8081, p.Port)
	assert.Equal(t, "info", p.LogLevel)
}

func TestFromEnvThresholdSwap(t *testing.T) {
	t.Setenv("DATABASE_URL", "test.db")
	t.Setenv("DUPLICATE_THRESHOLD", "0.80")
	t.Setenv("NEAR_DUPLICATE_THRESHOLD", "0.92")

	p := &Profile{}
	p.FromEnv()

	assert.Equal(t, 0.92, p.DuplicateThreshold)
	assert.Equal(t, 0.80, p.NearDuplicateThreshold)
	assert.LessOrEqual(t, p.NearDuplicateThreshold, p.DuplicateThreshold)
}

func TestDriver(t *testing.T) {
	tests := []struct {
		dsn  string
		want string
	}{
		{"postgres://user:pass@db:5432/claims", DriverPostgres},
		{"postgresql://db/claims", DriverPostgres},
		{"/var/lib/dedupe/claims.db", DriverSQLite},
		{"claims.db", DriverSQLite},
	}
	for _, tt := range tests {
		p := &Profile{DSN: tt.dsn}
		assert.Equal(t, tt.want, p.Driver(), "dsn %q", tt.dsn)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Profile {
		return &Profile{
			DSN:                "claims.db",
			EmbeddingsProvider: ProviderStub,
			EmbeddingsDim:      3072,
			Port:               8081,
		}
	}

	require.NoError(t, valid().Validate())

	p := valid()
	p.DSN = ""
	assert.Error(t, p.Validate())

	p = valid()
	p.EmbeddingsDim = 0
	assert.Error(t, p.Validate())

	p = valid()
	p.EmbeddingsProvider = "bedrock"
	assert.Error(t, p.Validate())

	p = valid()
	p.EmbeddingsProvider = ProviderOpenAI
	assert.Error(t, p.Validate(), "openai without API key")
	p.OpenAIAPIKey = "sk-test"
	assert.NoError(t, p.Validate())

	p = valid()
	p.Port = -1
	assert.Error(t, p.Validate())
}

func TestSlogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, (&Profile{LogLevel: "debug"}).SlogLevel())
	assert.Equal(t, slog.LevelWarn, (&Profile{LogLevel: "WARN"}).SlogLevel())
	assert.Equal(t, slog.LevelError, (&Profile{LogLevel: "error"}).SlogLevel())
	assert.Equal(t, slog.LevelInfo, (&Profile{LogLevel: ""}).SlogLevel())
	assert.Equal(t, slog.LevelInfo, (&Profile{LogLevel: "verbose"}).SlogLevel())
}
