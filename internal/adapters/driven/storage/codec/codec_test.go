package codec

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/askdocs/internal/core/domain"
)

func TestVector_RoundTrip(t *testing.T) {
	in := []float32{0, 1.5, -2.25, float32(math.Pi)}
	out, err := DecodeVector(EncodeVector(in))
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestDecodeVector_BadLength(t *testing.T) {
	_, err := DecodeVector([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestMetadata_PreservesIntegers(t *testing.T) {
	in := map[string]any{
		"source": "handbook.txt",
		"start":  0,
		"end":    500,
		"ratio":  0.5,
		"nested": map[string]any{"page": 3},
	}
	data, err := EncodeMetadata(in)
	require.NoError(t, err)

	out, err := DecodeMetadata(data)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestEncodeMetadata_Nil(t *testing.T) {
	data, err := EncodeMetadata(nil)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))
}

func TestChecksum_SensitiveToContentAndOrder(t *testing.T) {
	a := domain.IndexEntry{ChunkID: "a", Content: "alpha", Vector: []float32{1}}
	b := domain.IndexEntry{ChunkID: "b", Content: "beta", Vector: []float32{2}}

	ab, err := Checksum([]domain.IndexEntry{a, b})
	require.NoError(t, err)
	ba, _ := Checksum([]domain.IndexEntry{b, a})
	assert.NotEqual(t, ab, ba)

	b.Content = "betA"
	tampered, _ := Checksum([]domain.IndexEntry{a, b})
	assert.NotEqual(t, ab, tampered)

	empty, _ := Checksum(nil)
	assert.Empty(t, empty)
}

func TestChain_MatchesChecksum(t *testing.T) {
	entries := []domain.IndexEntry{
		{ChunkID: "1", Vector: []float32{1, 2}},
		{ChunkID: "2", Vector: []float32{3, 4}, Metadata: map[string]any{"k": "v"}},
	}
	want, err := Checksum(entries)
	require.NoError(t, err)

	sum := ""
	for _, e := range entries {
		meta, _ := EncodeMetadata(e.Metadata)
		sum = Chain(sum, e, EncodeVector(e.Vector), meta)
	}
	assert.Equal(t, want, sum)
}
