package store

import (
	"context"

	"github.com/pkg/errors"
)

// ErrAlreadyExists is returned by drivers when an insert loses a race on a
// unique constraint (content hash or cluster membership). Callers recover
// by re-reading the winner's state; every other error bubbles up.
var ErrAlreadyExists = errors.New("row already exists")

// Driver is the storage backend interface. Two implementations exist:
// Postgres with the pgvector extension (native vector column, similarity
// search pushed into SQL) and SQLite (JSON-encoded vectors, similarity
// computed in process).
type Driver interface {
	Migrate(ctx context.Context) error
	Close() error

	// GetClaimByContentHash returns (nil, nil) when no claim has the hash.
	GetClaimByContentHash(ctx context.Context, hash string) (*Claim, error)

	// GetClaim returns (nil, nil) when the claim does not exist.
	GetClaim(ctx context.Context, id int64) (*Claim, error)

	// CreateClaimWithEmbedding inserts the claim and its embedding in one
	// transaction, invoking embed between the two inserts. Returns
	// ErrAlreadyExists when another session won the content-hash race.
	CreateClaimWithEmbedding(ctx context.Context, create *CreateClaim, embed EmbedFunc) (*Claim, error)

	// GetClaimEmbedding returns (nil, nil) when the claim has no embedding.
	GetClaimEmbedding(ctx context.Context, claimID int64) (*ClaimEmbedding, error)

	// TopKSimilar returns up to limit stored claims nearest to the given
	// claim's embedding, excluding the claim itself, ordered by similarity
	// descending with ties broken by ascending claim id.
	TopKSimilar(ctx context.Context, claimID int64, limit int) ([]*Neighbor, error)

	// GetClusterMembership returns (nil, nil) when the claim is unclustered.
	GetClusterMembership(ctx context.Context, claimID int64) (*ClusterMember, error)

	// GetCluster returns (nil, nil) when the cluster does not exist.
	GetCluster(ctx context.Context, clusterID int64) (*Cluster, error)

	// CreateClusterWithCanonical creates a cluster and admits the canonical
	// claim at similarity 1.0 in one transaction. Returns ErrAlreadyExists
	// when the canonical claim gained a membership concurrently, leaving no
	// orphan cluster behind.
	CreateClusterWithCanonical(ctx context.Context, canonicalClaimID int64) (*Cluster, error)

	// AddClusterMember inserts a membership row with ignore-on-conflict
	// semantics. Returns false when the row was not inserted because the
	// claim is already a member somewhere.
	AddClusterMember(ctx context.Context, member *ClusterMember) (bool, error)
}
