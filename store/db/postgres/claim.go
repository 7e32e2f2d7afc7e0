package postgres

import (
	"context"
	"database/sql"

	"github.com/pgvector/pgvector-go"
	"github.com/pkg/errors"

	"github.com/verisphere/semantic-dedupe/store"
)

func (d *DB) GetClaimByContentHash(ctx context.Context, hash string) (*store.Claim, error) {
	stmt := `SELECT claim_id, claim_text, content_hash, created_at FROM claim WHERE content_hash = $1`

	var claim store.Claim
	err := d.db.QueryRowContext(ctx, stmt, hash).Scan(
		&claim.ID,
		&claim.Text,
		&claim.ContentHash,
		&claim.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get claim by content hash")
	}
	return &claim, nil
}

func (d *DB) GetClaim(ctx context.Context, id int64) (*store.Claim, error) {
	stmt := `SELECT claim_id, claim_text, content_hash, created_at FROM claim WHERE claim_id = $1`

	var claim store.Claim
	err := d.db.QueryRowContext(ctx, stmt, id).Scan(
		&claim.ID,
		&claim.Text,
		&claim.ContentHash,
		&claim.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get claim")
	}
	return &claim, nil
}

// CreateClaimWithEmbedding inserts the claim row, computes the embedding and
// inserts it, all in one transaction. An embedding failure rolls everything
// back; a unique violation on content_hash surfaces as ErrAlreadyExists.
func (d *DB) CreateClaimWithEmbedding(ctx context.Context, create *store.CreateClaim, embed store.EmbedFunc) (*store.Claim, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to begin tx")
	}
	defer tx.Rollback()

	claim := store.Claim{
		Text:        create.Text,
		ContentHash: create.ContentHash,
	}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO claim (claim_text, content_hash)
		VALUES ($1, $2)
		RETURNING claim_id, created_at
	`, create.Text, create.ContentHash).Scan(&claim.ID, &claim.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrAlreadyExists
		}
		return nil, errors.Wrap(err, "failed to insert claim")
	}

	vec, err := embed(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "embedding failed")
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO claim_embedding (claim_id, embedding_model, embedding)
		VALUES ($1, $2, $3)
	`, claim.ID, create.EmbeddingModel, pgvector.NewVector(vec))
	if err != nil {
		return nil, errors.Wrap(err, "failed to insert claim embedding")
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "failed to commit claim")
	}
	return &claim, nil
}

func (d *DB) GetClaimEmbedding(ctx context.Context, claimID int64) (*store.ClaimEmbedding, error) {
	stmt := `SELECT claim_id, embedding_model, embedding, updated_at FROM claim_embedding WHERE claim_id = $1`

	var emb store.ClaimEmbedding
	var vector pgvector.Vector
	err := d.db.QueryRowContext(ctx, stmt, claimID).Scan(
		&emb.ClaimID,
		&emb.Model,
		&vector,
		&emb.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get claim embedding")
	}

	emb.Embedding = vector.Slice()
	return &emb, nil
}

// TopKSimilar pushes ordering and limit into the engine using the pgvector
// cosine distance operator; similarity is 1 - distance.
func (d *DB) TopKSimilar(ctx context.Context, claimID int64, limit int) ([]*store.Neighbor, error) {
	stmt := `
		WITH q AS (
			SELECT embedding
			FROM claim_embedding
			WHERE claim_id = $1
		)
		SELECT
			c.claim_id,
			c.claim_text,
			(1.0 - (e.embedding <=> q.embedding)) AS similarity
		FROM claim c
		JOIN claim_embedding e USING (claim_id)
		CROSS JOIN q
		WHERE c.claim_id != $1
		ORDER BY (e.embedding <=> q.embedding) ASC, c.claim_id ASC
		LIMIT $2
	`

	rows, err := d.db.QueryContext(ctx, stmt, claimID, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to run similarity search")
	}
	defer rows.Close()

	neighbors := []*store.Neighbor{}
	for rows.Next() {
		var n store.Neighbor
		if err := rows.Scan(&n.ClaimID, &n.Text, &n.Similarity); err != nil {
			return nil, errors.Wrap(err, "failed to scan neighbor")
		}
		neighbors = append(neighbors, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return neighbors, nil
}
