package postgres

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/verisphere/semantic-dedupe/store"
)

func (d *DB) GetClusterMembership(ctx context.Context, claimID int64) (*store.ClusterMember, error) {
	stmt := `SELECT cluster_id, claim_id, similarity FROM claim_cluster_member WHERE claim_id = $1`

	var member store.ClusterMember
	err := d.db.QueryRowContext(ctx, stmt, claimID).Scan(
		&member.ClusterID,
		&member.ClaimID,
		&member.Similarity,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get cluster membership")
	}
	return &member, nil
}

func (d *DB) GetCluster(ctx context.Context, clusterID int64) (*store.Cluster, error) {
	stmt := `SELECT cluster_id, canonical_claim_id FROM claim_cluster WHERE cluster_id = $1`

	var cluster store.Cluster
	err := d.db.QueryRowContext(ctx, stmt, clusterID).Scan(&cluster.ID, &cluster.CanonicalClaimID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get cluster")
	}
	return &cluster, nil
}

// CreateClusterWithCanonical creates the cluster row and its canonical
// membership in one transaction. If the canonical claim gained a membership
// concurrently, the whole transaction rolls back and ErrAlreadyExists is
// returned, so no memberless cluster ever persists.
func (d *DB) CreateClusterWithCanonical(ctx context.Context, canonicalClaimID int64) (*store.Cluster, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to begin tx")
	}
	defer tx.Rollback()

	cluster := store.Cluster{CanonicalClaimID: canonicalClaimID}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO claim_cluster (canonical_claim_id)
		VALUES ($1)
		RETURNING cluster_id
	`, canonicalClaimID).Scan(&cluster.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to insert cluster")
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO claim_cluster_member (cluster_id, claim_id, similarity)
		VALUES ($1, $2, 1.0)
	`, cluster.ID, canonicalClaimID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrAlreadyExists
		}
		return nil, errors.Wrap(err, "failed to insert canonical member")
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "failed to commit cluster")
	}
	return &cluster, nil
}

// AddClusterMember inserts a membership row; ON CONFLICT DO NOTHING covers
// both the (cluster_id, claim_id) pair and the single-claim unique index.
func (d *DB) AddClusterMember(ctx context.Context, member *store.ClusterMember) (bool, error) {
	result, err := d.db.ExecContext(ctx, `
		INSERT INTO claim_cluster_member (cluster_id, claim_id, similarity)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING
	`, member.ClusterID, member.ClaimID, member.Similarity)
	if err != nil {
		return false, errors.Wrap(err, "failed to insert cluster member")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "failed to read rows affected")
	}
	return rows > 0, nil
}
