package vecmath

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosineIdentical(t *testing.T) {
	v := []float32{0.3, -0.5, 0.8, 0.1}
	sim, err := Cosine(v, v)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, sim, 1e-12)
}

func TestCosineOrthogonal(t *testing.T) {
	a := []float32{1, 0, 0, 0}
	b := []float32{0, 1, 0, 0}
	sim, err := Cosine(a, b)
	require.NoError(t, err)
	assert.Less(t, math.Abs(sim), 1e-12)
}

func TestCosineOpposite(t *testing.T) {
	a := []float32{1, 2, 3}
	b := []float32{-1, -2, -3}
	sim, err := Cosine(a, b)
	require.NoError(t, err)
	assert.InDelta(t, -1.0, sim, 1e-12)
}

func TestCosineZeroNorm(t *testing.T) {
	a := []float32{0, 0, 0}
	b := []float32{1, 2, 3}

	sim, err := Cosine(a, b)
	require.NoError(t, err)
	assert.Equal(t, 0.0, sim)

	sim, err = Cosine(b, a)
	require.NoError(t, err)
	assert.Equal(t, 0.0, sim)
}

func TestCosineDimensionMismatch(t *testing.T) {
	_, err := Cosine([]float32{1, 2}, []float32{1, 2, 3})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dimension mismatch")
}

func TestCosineScaleInvariant(t *testing.T) {
	a := []float32{0.2, 0.4, 0.6}
	b := []float32{2, 4, 6}
	sim, err := Cosine(a, b)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, sim, 1e-6)
}
