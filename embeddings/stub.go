package embeddings

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math/rand"

	"github.com/verisphere/semantic-dedupe/internal/profile"
)

// StubProvider produces deterministic pseudo-random vectors seeded by the
// SHA-256 of the input text. The same text yields the same vector across
// calls and across process restarts, which makes it usable for tests and
// offline runs without an API key.
type StubProvider struct {
	dimensions int
	model      string
}

// NewStubProvider creates a stub provider with the given dimension.
func NewStubProvider(dimensions int) *StubProvider {
	return &StubProvider{
		dimensions: dimensions,
		model:      fmt.Sprintf("stub-%d", dimensions),
	}
}

func (p *StubProvider) Name() string {
	return profile.ProviderStub
}

func (p *StubProvider) ModelName() string {
	return p.model
}

func (p *StubProvider) Dimensions() int {
	return p.dimensions
}

func (p *StubProvider) Embed(_ context.Context, text string) ([]float32, error) {
	sum := sha256.Sum256([]byte(text))
	seed := int64(binary.BigEndian.Uint64(sum[:8]))

	rng := rand.New(rand.NewSource(seed))
	vec := make([]float32, p.dimensions)
	for i := range vec {
		vec[i] = float32(rng.Float64())
	}
	return vec, nil
}
