// Package dedupe implements the semantic dedupe engine: content identity,
// at-most-once embedding, neighbor search, classification and cluster
// assignment, composed behind a single entry point.
package dedupe

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"

	"github.com/verisphere/semantic-dedupe/embeddings"
	"github.com/verisphere/semantic-dedupe/internal/profile"
	"github.com/verisphere/semantic-dedupe/store"
)

const (
	MinTopK     = 1
	MaxTopK     = 50
	DefaultTopK = 5

	MaxBatchSize = 200
)

// Input validation sentinels, mapped to 4xx at the HTTP boundary.
var (
	ErrInvalidTopK      = errors.Errorf("top_k must be between %d and %d", MinTopK, MaxTopK)
	ErrInvalidBatchSize = errors.Errorf("batch must contain between 1 and %d claims", MaxBatchSize)
)

// Engine composes the dedupe pipeline over a store and an embedding
// provider. It is constructed once at startup and safe for concurrent use.
type Engine struct {
	store    *store.Store
	provider embeddings.Provider

	duplicateThreshold     float64
	nearDuplicateThreshold float64

	// joinThreshold gates cluster admission. It is bound to the
	// near-duplicate threshold so near-duplicates share a cluster while
	// only duplicate-band pairs collapse onto the same canonical text.
	joinThreshold float64
}

// NewEngine creates the engine from the startup profile.
func NewEngine(s *store.Store, provider embeddings.Provider, p *profile.Profile) *Engine {
	return &Engine{
		store:                  s,
		provider:               provider,
		duplicateThreshold:     p.DuplicateThreshold,
		nearDuplicateThreshold: p.NearDuplicateThreshold,
		joinThreshold:          p.NearDuplicateThreshold,
	}
}

// CanonicalClaim identifies the representative claim of a cluster.
type CanonicalClaim struct {
	ClaimID int64  `json:"claim_id"`
	Text    string `json:"text"`
}

// CheckResult is the coordinator response for one claim.
type CheckResult struct {
	Hash           string            `json:"hash"`
	ClaimID        int64             `json:"claim_id"`
	Created        bool              `json:"created"`
	EmbeddingModel string            `json:"embedding_model"`
	Provider       string            `json:"provider"`
	Classification Classification    `json:"classification"`
	MaxSimilarity  float64           `json:"max_similarity"`
	Similar        []*store.Neighbor `json:"similar"`
	ClusterID      int64             `json:"cluster_id"`
	CanonicalClaim CanonicalClaim    `json:"canonical_claim"`
	TimingMs       int64             `json:"timing_ms"`
}

// CheckDuplicate runs the full pipeline for one claim text: upsert by
// content hash (embedding on miss), top-k neighbor search excluding the
// claim itself, classification of the max similarity and cluster
// assignment.
func (e *Engine) CheckDuplicate(ctx context.Context, text string, topK int) (*CheckResult, error) {
	start := time.Now()

	if topK == 0 {
		topK = DefaultTopK
	}
	if topK < MinTopK || topK > MaxTopK {
		return nil, ErrInvalidTopK
	}

	claim, created, err := e.store.UpsertClaim(ctx, text, e.provider.ModelName(), func(ctx context.Context) ([]float32, error) {
		return e.provider.Embed(ctx, text)
	})
	if err != nil {
		return nil, err
	}

	neighbors, err := e.store.TopKSimilar(ctx, claim.ID, topK)
	if err != nil {
		return nil, err
	}

	maxSim := 0.0
	var bestMatchID *int64
	if len(neighbors) > 0 {
		maxSim = neighbors[0].Similarity
		bestMatchID = &neighbors[0].ClaimID
	}
	classification := Classify(maxSim, e.duplicateThreshold, e.nearDuplicateThreshold)

	assignment, err := e.AssignCluster(ctx, claim.ID, bestMatchID, maxSim)
	if err != nil {
		return nil, err
	}

	canonical, err := e.store.GetClaim(ctx, assignment.CanonicalClaimID)
	if err != nil {
		return nil, err
	}
	if canonical == nil {
		return nil, errors.Errorf("cluster %d references missing canonical claim %d", assignment.ClusterID, assignment.CanonicalClaimID)
	}

	slog.Debug("checked claim",
		"claim_id", claim.ID,
		"created", created,
		"classification", classification,
		"max_similarity", maxSim,
		"cluster_id", assignment.ClusterID)

	return &CheckResult{
		Hash:           claim.ContentHash,
		ClaimID:        claim.ID,
		Created:        created,
		EmbeddingModel: e.provider.ModelName(),
		Provider:       e.provider.Name(),
		Classification: classification,
		MaxSimilarity:  maxSim,
		Similar:        neighbors,
		ClusterID:      assignment.ClusterID,
		CanonicalClaim: CanonicalClaim{ClaimID: canonical.ID, Text: canonical.Text},
		TimingMs:       time.Since(start).Milliseconds(),
	}, nil
}

// CheckDuplicateBatch applies CheckDuplicate to each claim in order. Any
// inner failure fails the whole batch.
func (e *Engine) CheckDuplicateBatch(ctx context.Context, texts []string, topK int) ([]*CheckResult, error) {
	if len(texts) == 0 || len(texts) > MaxBatchSize {
		return nil, ErrInvalidBatchSize
	}

	results := make([]*CheckResult, 0, len(texts))
	for i, text := range texts {
		result, err := e.CheckDuplicate(ctx, text, topK)
		if err != nil {
			return nil, errors.Wrapf(err, "claim %d of %d failed", i+1, len(texts))
		}
		results = append(results, result)
	}
	return results, nil
}
