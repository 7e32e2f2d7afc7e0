package embeddings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verisphere/semantic-dedupe/internal/profile"
)

func TestStubProviderDeterministic(t *testing.T) {
	p := NewStubProvider(64)

	a, err := p.Embed(context.Background(), "The Earth orbits the Sun.")
	require.NoError(t, err)
	b, err := p.Embed(context.Background(), "The Earth orbits the Sun.")
	require.NoError(t, err)

	assert.Equal(t, a, b, "same text must yield the same vector")
}

func TestStubProviderSeparateInstances(t *testing.T) {
	a, err := NewStubProvider(32).Embed(context.Background(), "claim")
	require.NoError(t, err)
	b, err := NewStubProvider(32).Embed(context.Background(), "claim")
	require.NoError(t, err)

	assert.Equal(t, a, b, "determinism must hold across provider instances")
}

func TestStubProviderDistinctTexts(t *testing.T) {
	p := NewStubProvider(64)

	a, err := p.Embed(context.Background(), "Nuclear energy is safe.")
	require.NoError(t, err)
	b, err := p.Embed(context.Background(), "The Moon is made of rock.")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestStubProviderShape(t *testing.T) {
	p := NewStubProvider(3072)

	assert.Equal(t, profile.ProviderStub, p.Name())
	assert.Equal(t, "stub-3072", p.ModelName())
	assert.Equal(t, 3072, p.Dimensions())

	vec, err := p.Embed(context.Background(), "x")
	require.NoError(t, err)
	assert.Len(t, vec, 3072)
}

func TestNewProvider(t *testing.T) {
	p, err := NewProvider(&profile.Profile{EmbeddingsProvider: profile.ProviderStub, EmbeddingsDim: 16})
	require.NoError(t, err)
	assert.Equal(t, profile.ProviderStub, p.Name())

	_, err = NewProvider(&profile.Profile{EmbeddingsProvider: profile.ProviderOpenAI, EmbeddingsDim: 16})
	assert.Error(t, err, "openai provider without API key")

	p, err = NewProvider(&profile.Profile{
		EmbeddingsProvider: profile.ProviderOpenAI,
		EmbeddingsModel:    "text-embedding-3-large",
		EmbeddingsDim:      3072,
		OpenAIAPIKey:       "sk-test",
	})
	require.NoError(t, err)
	assert.Equal(t, profile.ProviderOpenAI, p.Name())
	assert.Equal(t, "text-embedding-3-large", p.ModelName())

	_, err = NewProvider(&profile.Profile{EmbeddingsProvider: "bedrock"})
	assert.Error(t, err)
}

func TestCheckDimensions(t *testing.T) {
	assert.NoError(t, checkDimensions([]float32{1, 2, 3}, 3))
	assert.Error(t, checkDimensions(nil, 3), "empty vector")
	assert.Error(t, checkDimensions([]float32{1, 2}, 3), "wrong dimension")
}
