package postgres

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
)

// Migrate creates the dedupe schema. The embedding column is a native
// pgvector column sized to the configured dimension, so the cosine distance
// operator is available to the neighbor search.
func (d *DB) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE TABLE IF NOT EXISTS claim (
			claim_id BIGSERIAL PRIMARY KEY,
			claim_text TEXT NOT NULL,
			content_hash TEXT NOT NULL UNIQUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS claim_embedding (
			claim_id BIGINT PRIMARY KEY REFERENCES claim (claim_id),
			embedding_model TEXT NOT NULL,
			embedding vector(%d) NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, d.profile.EmbeddingsDim),
		`CREATE TABLE IF NOT EXISTS claim_cluster (
			cluster_id BIGSERIAL PRIMARY KEY,
			canonical_claim_id BIGINT NOT NULL REFERENCES claim (claim_id)
		)`,
		`CREATE TABLE IF NOT EXISTS claim_cluster_member (
			cluster_id BIGINT NOT NULL REFERENCES claim_cluster (cluster_id),
			claim_id BIGINT NOT NULL REFERENCES claim (claim_id),
			similarity DOUBLE PRECISION NOT NULL,
			PRIMARY KEY (cluster_id, claim_id)
		)`,
		// A claim belongs to exactly one cluster; this index is the
		// serialization point for racing cluster assignments.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_claim_cluster_member_claim_id
			ON claim_cluster_member (claim_id)`,
	}

	for _, stmt := range stmts {
		if _, err := d.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrapf(err, "failed to run migration: %.60s", stmt)
		}
	}
	return nil
}
