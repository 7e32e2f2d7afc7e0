package sqlite

import (
	"context"

	"github.com/pkg/errors"
)

// Migrate creates the dedupe schema. SQLite has no vector type, so the
// embedding column holds a JSON-encoded array of floats; timestamps are
// Unix seconds.
func (d *DB) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS claim (
			claim_id INTEGER PRIMARY KEY AUTOINCREMENT,
			claim_text TEXT NOT NULL,
			content_hash TEXT NOT NULL UNIQUE,
			created_at BIGINT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS claim_embedding (
			claim_id INTEGER PRIMARY KEY REFERENCES claim (claim_id),
			embedding_model TEXT NOT NULL,
			embedding TEXT NOT NULL,
			updated_at BIGINT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS claim_cluster (
			cluster_id INTEGER PRIMARY KEY AUTOINCREMENT,
			canonical_claim_id INTEGER NOT NULL REFERENCES claim (claim_id)
		)`,
		`CREATE TABLE IF NOT EXISTS claim_cluster_member (
			cluster_id INTEGER NOT NULL REFERENCES claim_cluster (cluster_id),
			claim_id INTEGER NOT NULL REFERENCES claim (claim_id),
			similarity REAL NOT NULL,
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
