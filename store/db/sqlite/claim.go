package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/verisphere/semantic-dedupe/internal/vecmath"
	"github.com/verisphere/semantic-dedupe/store"
)

func (d *DB) GetClaimByContentHash(ctx context.Context, hash string) (*store.Claim, error) {
	stmt := `SELECT claim_id, claim_text, content_hash, created_at FROM claim WHERE content_hash = ?`
	return d.scanClaim(d.db.QueryRowContext(ctx, stmt, hash))
}

func (d *DB) GetClaim(ctx context.Context, id int64) (*store.Claim, error) {
	stmt := `SELECT claim_id, claim_text, content_hash, created_at FROM claim WHERE claim_id = ?`
	return d.scanClaim(d.db.QueryRowContext(ctx, stmt, id))
}

func (d *DB) scanClaim(row *sql.Row) (*store.Claim, error) {
	var claim store.Claim
	var createdAt int64
	err := row.Scan(&claim.ID, &claim.Text, &claim.ContentHash, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to scan claim")
	}
	claim.CreatedAt = time.Unix(createdAt, 0)
	return &claim, nil
}

// CreateClaimWithEmbedding inserts the claim row, computes the embedding and
// inserts it JSON-encoded, all in one transaction. A unique violation on
// content_hash surfaces as ErrAlreadyExists.
func (d *DB) CreateClaimWithEmbedding(ctx context.Context, create *store.CreateClaim, embed store.EmbedFunc) (*store.Claim, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to begin tx")
	}
	defer tx.Rollback()

	now := time.Now()
	claim := store.Claim{
		Text:        create.Text,
		ContentHash: create.ContentHash,
		CreatedAt:   now,
	}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO claim (claim_text, content_hash, created_at)
		VALUES (?, ?, ?)
		RETURNING claim_id
	`, create.Text, create.ContentHash, now.Unix()).Scan(&claim.ID)
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

	encoded, err := json.Marshal(vec)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode embedding")
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO claim_embedding (claim_id, embedding_model, embedding, updated_at)
		VALUES (?, ?, ?, ?)
	`, claim.ID, create.EmbeddingModel, string(encoded), now.Unix())
	if err != nil {
		return nil, errors.Wrap(err, "failed to insert claim embedding")
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "failed to commit claim")
	}
	return &claim, nil
}

func (d *DB) GetClaimEmbedding(ctx context.Context, claimID int64) (*store.ClaimEmbedding, error) {
	stmt := `SELECT claim_id, embedding_model, embedding, updated_at FROM claim_embedding WHERE claim_id = ?`

	var emb store.ClaimEmbedding
	var encoded string
	var updatedAt int64
	err := d.db.QueryRowContext(ctx, stmt, claimID).Scan(&emb.ClaimID, &emb.Model, &encoded, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get claim embedding")
	}

	if err := json.Unmarshal([]byte(encoded), &emb.Embedding); err != nil {
		return nil, errors.Wrap(err, "failed to decode embedding")
	}
	emb.UpdatedAt = time.Unix(updatedAt, 0)
	return &emb, nil
}

// TopKSimilar loads every other claim's embedding and scores it in process.
// This is O(N*D) per call and meant for development and test corpora; the
// Postgres driver pushes the same ranking into pgvector.
func (d *DB) TopKSimilar(ctx context.Context, claimID int64, limit int) ([]*store.Neighbor, error) {
	query, err := d.GetClaimEmbedding(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if query == nil {
		return nil, errors.Errorf("claim %d has no embedding", claimID)
	}

	rows, err := d.db.QueryContext(ctx, `
		SELECT c.claim_id, c.claim_text, e.embedding
		FROM claim c
		JOIN claim_embedding e ON c.claim_id = e.claim_id
		WHERE c.claim_id != ?
	`, claimID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list claim embeddings")
	}
	defer rows.Close()

	neighbors := []*store.Neighbor{}
	for rows.Next() {
		var n store.Neighbor
		var encoded string
		if err := rows.Scan(&n.ClaimID, &n.Text, &encoded); err != nil {
			return nil, errors.Wrap(err, "failed to scan neighbor")
		}

		var vec []float32
		if err := json.Unmarshal([]byte(encoded), &vec); err != nil {
			return nil, errors.Wrapf(err, "failed to decode embedding for claim %d", n.ClaimID)
		}

		sim, err := vecmath.Cosine(query.Embedding, vec)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to score claim %d", n.ClaimID)
		}
		n.Similarity = sim
		neighbors = append(neighbors, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Similarity descending, ties by ascending claim id, matching the
	// pgvector ordering.
	sort.Slice(neighbors, func(i, j int) bool {
		if neighbors[i].Similarity != neighbors[j].Similarity {
			return neighbors[i].Similarity > neighbors[j].Similarity
		}
		return neighbors[i].ClaimID < neighbors[j].ClaimID
	})

	if len(neighbors) > limit {
		neighbors = neighbors[:limit]
	}
	return neighbors, nil
}
