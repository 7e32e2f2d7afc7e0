package store

import (
	"context"
	"time"
)

// Claim is an immutable stored utterance. Claims are created on first
// submission of a not-yet-seen normalized text and never mutated.
type Claim struct {
	ID          int64
	Text        string
	ContentHash string
	CreatedAt   time.Time
}

// ClaimEmbedding is the vector representation of a claim, one-to-one with
// Claim and created atomically with it.
type ClaimEmbedding struct {
	ClaimID   int64
	Model     string
	Embedding []float32
	UpdatedAt time.Time
}

// CreateClaim carries the fields for inserting a new claim.
type CreateClaim struct {
	Text           string
	ContentHash    string
	EmbeddingModel string
}

// EmbedFunc produces the embedding for a claim being created. Drivers call
// it inside the claim-insert transaction so an embedding failure never
// leaves an orphaned claim row.
type EmbedFunc func(ctx context.Context) ([]float32, error)

// Neighbor is one entry of a top-k similarity result.
type Neighbor struct {
	ClaimID    int64   `json:"claim_id"`
	Text       string  `json:"text"`
	Similarity float64 `json:"similarity"`
}
