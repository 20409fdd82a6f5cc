package hashing

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func TestNewEmbeddingService_Defaults(t *testing.T) {
	s := NewEmbeddingService(Config{})
	assert.Equal(t, DefaultDimensions, s.Dimensions())
	assert.Equal(t, DefaultModel, s.ModelName())
	assert.NoError(t, s.Ping(context.Background()))
	assert.NoError(t, s.Close())
}

func TestEmbed_Deterministic(t *testing.T) {
	a := NewEmbeddingService(Config{Dimensions: 64})
	b := NewEmbeddingService(Config{Dimensions: 64})

	v1, err := a.Embed(context.Background(), "The quick brown fox")
	require.NoError(t, err)
	v2, err := b.Embed(context.Background(), "The quick brown fox")
	require.NoError(t, err)

	assert.Equal(t, v1, v2)
	assert.Len(t, v1, 64)
}

func TestEmbed_Normalised(t *testing.T) {
	s := NewEmbeddingService(Config{})
	v, err := s.Embed(context.Background(), "vacation policy for contractors")
	require.NoError(t, err)

	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	assert.InDelta(t, 1.0, norm, 1e-5)
}

func TestEmbed_EmptyTextIsZeroVector(t *testing.T) {
	s := NewEmbeddingService(Config{Dimensions: 8})
	v, err := s.Embed(context.Background(), "  ...  ")
	require.NoError(t, err)
	assert.Equal(t, make([]float32, 8), v)
}

func TestEmbed_CaseAndPunctuationInsensitive(t *testing.T) {
	s := NewEmbeddingService(Config{})
	v1, _ := s.Embed(context.Background(), "Remote work, policy!")
	v2, _ := s.Embed(context.Background(), "remote WORK policy")
	assert.Equal(t, v1, v2)
}

func TestEmbed_SimilarTextsRankHigher(t *testing.T) {
	s := NewEmbeddingService(Config{})
	ctx := context.Background()

	q, _ := s.EmbedQuery(ctx, "What is the policy on remote work?")
	related, _ := s.Embed(ctx, "The remote work policy allows two days per week from home.")
	unrelated, _ := s.Embed(ctx, "Quarterly revenue grew by twelve percent in the north region.")

	assert.Greater(t, cosine(q, related), cosine(q, unrelated))
}

func TestEmbedBatch(t *testing.T) {
	s := NewEmbeddingService(Config{Dimensions: 32})
	ctx := context.Background()

	batch, err := s.EmbedBatch(ctx, []string{"alpha", "beta"})
	require.NoError(t, err)
	require.Len(t, batch, 2)

	single, _ := s.Embed(ctx, "beta")
	assert.Equal(t, single, batch[1])
}

func TestEmbedBatch_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewEmbeddingService(Config{}).EmbedBatch(ctx, []string{"a"})
	assert.ErrorIs(t, err, context.Canceled)
}
