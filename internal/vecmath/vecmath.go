// Package vecmath holds the similarity kernel shared by the in-process
// neighbor search and its tests.
package vecmath

import (
	"math"

	"github.com/pkg/errors"
)

// Cosine returns the cosine similarity of a and b in [-1, 1], accumulated in
// double precision. A zero-norm input yields 0. Mismatched lengths are an
// error: all stored embeddings share one dimension, so a mismatch means a
// corrupted row, not a degenerate score.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, errors.Errorf("vector dimension mismatch: %d vs %d", len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}

	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}
