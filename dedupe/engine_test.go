package dedupe

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verisphere/semantic-dedupe/internal/profile"
	"github.com/verisphere/semantic-dedupe/store"
	"github.com/verisphere/semantic-dedupe/store/db/sqlite"
)

// scriptedProvider returns fixed vectors per exact input text so tests can
// place claims at chosen similarities. Unknown texts are an error.
type scriptedProvider struct {
	vectors map[string][]float32
	calls   map[string]int
}

func newScriptedProvider(vectors map[string][]float32) *scriptedProvider {
	return &scriptedProvider{vectors: vectors, calls: map[string]int{}}
}

func (p *scriptedProvider) Name() string      { return "stub" }
func (p *scriptedProvider) ModelName() string { return "scripted-4" }
func (p *scriptedProvider) Dimensions() int   { return 4 }

func (p *scriptedProvider) Embed(_ context.Context, text string) ([]float32, error) {
	p.calls[text]++
	vec, ok := p.vectors[text]
	if !ok {
		return nil, errors.Errorf("no scripted vector for %q", text)
	}
	return vec, nil
}

func newTestEngine(t *testing.T, provider *scriptedProvider) (*Engine, *store.Store) {
	t.Helper()

	p := &profile.Profile{
		DSN:                    filepath.Join(t.TempDir(), "claims.db"),
		EmbeddingsDim:          4,
		DuplicateThreshold:     0.95,
		NearDuplicateThreshold: 0.85,
	}
	driver, err := sqlite.NewDB(p)
	require.NoError(t, err)
	t.Cleanup(func() { _ = driver.Close() })
	require.NoError(t, driver.Migrate(context.Background()))

	s := store.New(driver, p)
	return NewEngine(s, provider, p), s
}

// unit4 returns a unit vector with the given cosine against [1,0,0,0].
func unit4(cos float64) []float32 {
	return []float32{float32(cos), float32(math.Sqrt(1 - cos*cos)), 0, 0}
}

func TestCheckDuplicateFirstClaim(t *testing.T) {
	provider := newScriptedProvider(map[string][]float32{
		"The Earth orbits the Sun.": {1, 0, 0, 0},
	})
	engine, _ := newTestEngine(t, provider)

	result, err := engine.CheckDuplicate(context.Background(), "The Earth orbits the Sun.", 5)
	require.NoError(t, err)

	assert.Len(t, result.Hash, 64)
	assert.True(t, result.Created)
	assert.Equal(t, ClassificationNew, result.Classification)
	assert.Zero(t, result.MaxSimilarity)
	assert.Empty(t, result.Similar)
	assert.Equal(t, "scripted-4", result.EmbeddingModel)
	assert.Equal(t, "stub", result.Provider)
	assert.Positive(t, result.ClusterID)
	assert.Equal(t, result.ClaimID, result.CanonicalClaim.ClaimID, "first claim is its own canonical")
	assert.Equal(t, "The Earth orbits the Sun.", result.CanonicalClaim.Text)
	assert.GreaterOrEqual(t, result.TimingMs, int64(0))
}

func TestCheckDuplicateResubmission(t *testing.T) {
	provider := newScriptedProvider(map[string][]float32{
		"The Earth orbits the Sun.": {1, 0, 0, 0},
	})
	engine, _ := newTestEngine(t, provider)
	ctx := context.Background()

	first, err := engine.CheckDuplicate(ctx, "The Earth orbits the Sun.", 5)
	require.NoError(t, err)
	second, err := engine.CheckDuplicate(ctx, "The Earth orbits the Sun.", 5)
	require.NoError(t, err)

	assert.Equal(t, first.ClaimID, second.ClaimID)
	assert.Equal(t, first.Hash, second.Hash)
	assert.False(t, second.Created)
	assert.Equal(t, ClassificationNew, second.Classification, "self is excluded from the search")
	assert.Equal(t, first.ClusterID, second.ClusterID)
	assert.Equal(t, 1, provider.calls["The Earth orbits the Sun."], "embedding computed at most once per hash")
}

func TestCheckDuplicateWhitespaceVariant(t *testing.T) {
	provider := newScriptedProvider(map[string][]float32{
		"Nuclear energy is safe.": {1, 0, 0, 0},
	})
	engine, _ := newTestEngine(t, provider)
	ctx := context.Background()

	first, err := engine.CheckDuplicate(ctx, "Nuclear energy is safe.", 5)
	require.NoError(t, err)
	second, err := engine.CheckDuplicate(ctx, "  nuclear energy is safe  ", 5)
	require.NoError(t, err)

	assert.Equal(t, first.Hash, second.Hash)
	assert.Equal(t, first.ClaimID, second.ClaimID)
	assert.False(t, second.Created)
	assert.Empty(t, provider.calls["  nuclear energy is safe  "], "variant resolves by hash, no embedding call")
}

func TestCheckDuplicateNearDuplicateJoinsCluster(t *testing.T) {
	provider := newScriptedProvider(map[string][]float32{
		"base claim":    unit4(1.0),
		"similar claim": unit4(0.90),
	})
	engine, _ := newTestEngine(t, provider)
	ctx := context.Background()

	base, err := engine.CheckDuplicate(ctx, "base claim", 5)
	require.NoError(t, err)
	similar, err := engine.CheckDuplicate(ctx, "similar claim", 5)
	require.NoError(t, err)

	assert.Equal(t, ClassificationNearDuplicate, similar.Classification)
	assert.InDelta(t, 0.90, similar.MaxSimilarity, 1e-6)
	assert.Equal(t, base.ClusterID, similar.ClusterID)
	assert.Equal(t, base.ClaimID, similar.CanonicalClaim.ClaimID)
	require.Len(t, similar.Similar, 1)
	assert.Equal(t, base.ClaimID, similar.Similar[0].ClaimID)
}

func TestCheckDuplicateDuplicateBand(t *testing.T) {
	provider := newScriptedProvider(map[string][]float32{
		"original":   {1, 0, 0, 0},
		"paraphrase": {2, 0, 0, 0},
	})
	engine, _ := newTestEngine(t, provider)
	ctx := context.Background()

	original, err := engine.CheckDuplicate(ctx, "original", 5)
	require.NoError(t, err)
	paraphrase, err := engine.CheckDuplicate(ctx, "paraphrase", 5)
	require.NoError(t, err)

	assert.Equal(t, ClassificationDuplicate, paraphrase.Classification)
	assert.InDelta(t, 1.0, paraphrase.MaxSimilarity, 1e-6)
	assert.Equal(t, original.ClusterID, paraphrase.ClusterID)
	assert.Equal(t, original.ClaimID, paraphrase.CanonicalClaim.ClaimID)
}

func TestCheckDuplicateDistinctClaimsSeparateClusters(t *testing.T) {
	provider := newScriptedProvider(map[string][]float32{
		"about astronomy": {1, 0, 0, 0},
		"about cooking":   {0, 0, 1, 0},
	})
	engine, _ := newTestEngine(t, provider)
	ctx := context.Background()

	astronomy, err := engine.CheckDuplicate(ctx, "about astronomy", 5)
	require.NoError(t, err)
	cooking, err := engine.CheckDuplicate(ctx, "about cooking", 5)
	require.NoError(t, err)

	assert.Equal(t, ClassificationNew, cooking.Classification)
	assert.NotEqual(t, astronomy.ClusterID, cooking.ClusterID)
	assert.Equal(t, cooking.ClaimID, cooking.CanonicalClaim.ClaimID)
	require.Len(t, cooking.Similar, 1, "neighbors are reported even below threshold")
}

func TestCheckDuplicateEmptyText(t *testing.T) {
	provider := newScriptedProvider(map[string][]float32{
		"": {0.5, 0.5, 0.5, 0.5},
	})
	engine, _ := newTestEngine(t, provider)

	result, err := engine.CheckDuplicate(context.Background(), "", 5)
	require.NoError(t, err)
	assert.True(t, result.Created)
	assert.Equal(t, ClassificationNew, result.Classification)
	assert.Positive(t, result.ClaimID)
}

func TestCheckDuplicateTopKBounds(t *testing.T) {
	provider := newScriptedProvider(map[string][]float32{
		"claim": {1, 0, 0, 0},
	})
	engine, _ := newTestEngine(t, provider)
	ctx := context.Background()

	_, err := engine.CheckDuplicate(ctx, "claim", MaxTopK+1)
	assert.ErrorIs(t, err, ErrInvalidTopK)

	_, err = engine.CheckDuplicate(ctx, "claim", -1)
	assert.ErrorIs(t, err, ErrInvalidTopK)

	// Zero means default.
	result, err := engine.CheckDuplicate(ctx, "claim", 0)
	require.NoError(t, err)
	assert.True(t, result.Created)
}

func TestCheckDuplicateEmbeddingFailure(t *testing.T) {
	provider := newScriptedProvider(map[string][]float32{})
	engine, s := newTestEngine(t, provider)
	ctx := context.Background()

	_, err := engine.CheckDuplicate(ctx, "unknown text", 5)
	require.Error(t, err)

	// Nothing was persisted.
	claim, err := s.GetClaim(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, claim)
}

func TestCheckDuplicateBatch(t *testing.T) {
	provider := newScriptedProvider(map[string][]float32{
		"first claim": {1, 0, 0, 0},
		"third claim": {0, 0, 1, 0},
	})
	engine, _ := newTestEngine(t, provider)

	results, err := engine.CheckDuplicateBatch(context.Background(), []string{
		"first claim",
		"  FIRST   claim! ",
		"third claim",
	}, 5)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.True(t, results[0].Created)
	assert.Equal(t, results[0].ClaimID, results[1].ClaimID, "variant collapses onto the first claim")
	assert.False(t, results[1].Created)
	assert.NotEqual(t, results[0].ClaimID, results[2].ClaimID)
}

func TestCheckDuplicateBatchBounds(t *testing.T) {
	provider := newScriptedProvider(nil)
	engine, _ := newTestEngine(t, provider)
	ctx := context.Background()

	_, err := engine.CheckDuplicateBatch(ctx, nil, 5)
	assert.ErrorIs(t, err, ErrInvalidBatchSize)

	tooMany := make([]string, MaxBatchSize+1)
	_, err = engine.CheckDuplicateBatch(ctx, tooMany, 5)
	assert.ErrorIs(t, err, ErrInvalidBatchSize)
}

func TestAssignClusterIdempotent(t *testing.T) {
	provider := newScriptedProvider(map[string][]float32{
		"claim": {1, 0, 0, 0},
	})
	engine, _ := newTestEngine(t, provider)
	ctx := context.Background()

	result, err := engine.CheckDuplicate(ctx, "claim", 5)
	require.NoError(t, err)

	again, err := engine.AssignCluster(ctx, result.ClaimID, nil, 0)
	require.NoError(t, err)
	assert.False(t, again.Assigned)
	assert.Equal(t, result.ClusterID, again.ClusterID)
	assert.Equal(t, result.CanonicalClaim.ClaimID, again.CanonicalClaimID)
}

func TestAssignClusterUnclusteredBestMatch(t *testing.T) {
	provider := newScriptedProvider(map[string][]float32{
		"stored without cluster": {1, 0, 0, 0},
		"incoming":               unit4(0.9),
	})
	engine, s := newTestEngine(t, provider)
	ctx := context.Background()

	// A stored claim without membership: upsert directly, skipping the
	// coordinator. This is the recovery edge case of the assignment rule.
	orphan, _, err := s.UpsertClaim(ctx, "stored without cluster", "scripted-4", func(ctx context.Context) ([]float32, error) {
		return provider.Embed(ctx, "stored without cluster")
	})
	require.NoError(t, err)

	incoming, _, err := s.UpsertClaim(ctx, "incoming", "scripted-4", func(ctx context.Context) ([]float32, error) {
		return provider.Embed(ctx, "incoming")
	})
	require.NoError(t, err)

	assignment, err := engine.AssignCluster(ctx, incoming.ID, &orphan.ID, 0.9)
	require.NoError(t, err)
	assert.True(t, assignment.Assigned)
	assert.Equal(t, orphan.ID, assignment.CanonicalClaimID, "best match becomes canonical of the new cluster")

	// The best match itself got admitted at similarity 1.0.
	canonicalMember, err := s.GetClusterMembership(ctx, orphan.ID)
	require.NoError(t, err)
	require.NotNil(t, canonicalMember)
	assert.Equal(t, assignment.ClusterID, canonicalMember.ClusterID)
	assert.Equal(t, 1.0, canonicalMember.Similarity)
}
