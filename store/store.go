// Package store provides database access to claims, embeddings and
// clusters over a backend-specific Driver.
package store

import (
	"context"

	"github.com/pkg/errors"

	"github.com/verisphere/semantic-dedupe/internal/profile"
	"github.com/verisphere/semantic-dedupe/internal/textnorm"
)

// Store provides database access to all raw objects.
type Store struct {
	profile *profile.Profile
	driver  Driver
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		driver:  driver,
		profile: profile,
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Migrate(ctx context.Context) error {
	return s.driver.Migrate(ctx)
}

func (s *Store) Close() error {
	return s.driver.Close()
}

// UpsertClaim resolves text to a claim, creating claim and embedding in one
// transaction on first sight of the content hash. The embedder is not
// called when the hash already exists. Racing inserts of the same text are
// serialized by the unique index on content_hash: the loser re-reads and
// returns the winner's claim with created=false.
func (s *Store) UpsertClaim(ctx context.Context, text string, model string, embed EmbedFunc) (*Claim, bool, error) {
	hash := textnorm.ContentHash(text)

	claim, err := s.driver.GetClaimByContentHash(ctx, hash)
	if err != nil {
		return nil, false, errors.Wrap(err, "failed to look up claim by content hash")
	}
	if claim != nil {
		return claim, false, nil
	}

	claim, err = s.driver.CreateClaimWithEmbedding(ctx, &CreateClaim{
		Text:           text,
		ContentHash:    hash,
		EmbeddingModel: model,
	}, embed)
	if err == nil {
		return claim, true, nil
	}
	if !errors.Is(err, ErrAlreadyExists) {
		return nil, false, err
	}

	// Lost the content-hash race; the winner's row must be visible now.
	claim, err = s.driver.GetClaimByContentHash(ctx, hash)
	if err != nil {
		return nil, false, errors.Wrap(err, "failed to re-read claim after hash race")
	}
	if claim == nil {
		return nil, false, errors.Errorf("claim with content hash %s vanished after unique violation", hash)
	}
	return claim, false, nil
}

func (s *Store) GetClaim(ctx context.Context, id int64) (*Claim, error) {
	return s.driver.GetClaim(ctx, id)
}

func (s *Store) GetClaimEmbedding(ctx context.Context, claimID int64) (*ClaimEmbedding, error) {
	return s.driver.GetClaimEmbedding(ctx, claimID)
}

func (s *Store) TopKSimilar(ctx context.Context, claimID int64, limit int) ([]*Neighbor, error) {
	return s.driver.TopKSimilar(ctx, claimID, limit)
}

func (s *Store) GetClusterMembership(ctx context.Context, claimID int64) (*ClusterMember, error) {
	return s.driver.GetClusterMembership(ctx, claimID)
}

func (s *Store) GetCluster(ctx context.Context, clusterID int64) (*Cluster, error) {
	return s.driver.GetCluster(ctx, clusterID)
}

func (s *Store) CreateClusterWithCanonical(ctx context.Context, canonicalClaimID int64) (*Cluster, error) {
	return s.driver.CreateClusterWithCanonical(ctx, canonicalClaimID)
}

func (s *Store) AddClusterMember(ctx context.Context, member *ClusterMember) (bool, error) {
	return s.driver.AddClusterMember(ctx, member)
}
