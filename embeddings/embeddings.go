// Package embeddings maps claim text onto fixed-dimension vectors. The
// provider is chosen once at startup; all variants are safe for concurrent
// use and must return exactly the configured number of dimensions.
package embeddings

import (
	"context"

	"github.com/pkg/errors"

	"github.com/verisphere/semantic-dedupe/internal/profile"
)

// Provider is the vector embedding interface.
type Provider interface {
	// Name identifies the provider variant ("stub", "openai").
	Name() string

	// ModelName is the model identifier recorded with each stored embedding.
	ModelName() string

	// Dimensions returns the vector dimension D.
	Dimensions() int

	// Embed generates the vector for a single text. It blocks up to the
	// provider timeout and returns exactly Dimensions() floats or an error.
	Embed(ctx context.Context, text string) ([]float32, error)
}

// NewProvider constructs the provider selected by the profile.
func NewProvider(p *profile.Profile) (Provider, error) {
	switch p.EmbeddingsProvider {
	case profile.ProviderStub:
		return NewStubProvider(p.EmbeddingsDim), nil
	case profile.ProviderOpenAI:
		return NewOpenAIProvider(p.OpenAIAPIKey, p.EmbeddingsModel, p.EmbeddingsDim)
	default:
		return nil, errors.Errorf("invalid embeddings provider: %q", p.EmbeddingsProvider)
	}
}

// checkDimensions rejects empty or wrongly sized vectors before anything is
// persisted.
func checkDimensions(vec []float32, want int) error {
	if len(vec) == 0 {
		return errors.New("embedding provider returned empty vector")
	}
	if len(vec) != want {
		return errors.Errorf("embedding dimension mismatch: got %d, want %d", len(vec), want)
	}
	return nil
}
