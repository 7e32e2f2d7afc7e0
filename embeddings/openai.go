package embeddings

import (
	"context"
	"time"

	"github.com/pkg/errors"
	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/sync/semaphore"

	"github.com/verisphere/semantic-dedupe/internal/profile"
)

const (
	// embedTimeout bounds a single embedding round-trip.
	embedTimeout = 20 * time.Second

	// maxInFlight caps concurrent embedding requests against the API.
	maxInFlight = 8
)

// OpenAIProvider delegates embedding to the OpenAI embeddings API.
type OpenAIProvider struct {
	client     *openai.Client
	model      string
	dimensions int
	sem        *semaphore.Weighted
}

// NewOpenAIProvider creates a provider backed by the OpenAI API.
func NewOpenAIProvider(apiKey, model string, dimensions int) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY is not set")
	}
	return &OpenAIProvider{
		client:     openai.NewClient(apiKey),
		model:      model,
		dimensions: dimensions,
		sem:        semaphore.NewWeighted(maxInFlight),
	}, nil
}

func (p *OpenAIProvider) Name() string {
	return profile.ProviderOpenAI
}

func (p *OpenAIProvider) ModelName() string {
	return p.model
}

func (p *OpenAIProvider) Dimensions() int {
	return p.dimensions
}

func (p *OpenAIProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, embedTimeout)
	defer cancel()

	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, errors.Wrap(err, "waiting for embedding slot")
	}
	defer p.sem.Release(1)

	resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(p.model),
	})
	if err != nil {
		return nil, errors.Wrap(err, "create embeddings failed")
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("empty embedding response")
	}

	vec := resp.Data[0].Embedding
	if err := checkDimensions(vec, p.dimensions); err != nil {
		return nil, err
	}
	return vec, nil
}
