package resilience

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
)

type stubEmbedder struct {
	err    error
	calls  int
	closed bool
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return []float32{float32(len(text))}, nil
}

func (s *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t))}
	}
	return out, nil
}

func (s *stubEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return s.Embed(ctx, "q:"+text)
}

func (s *stubEmbedder) Dimensions() int            { return 1 }
func (s *stubEmbedder) ModelName() string          { return "stub" }
func (s *stubEmbedder) Ping(context.Context) error { return s.err }

func (s *stubEmbedder) Close() error {
	s.closed = true
	return nil
}

type stubLLM struct {
	reply string
	err   error
}

func (s *stubLLM) Generate(context.Context, string, driven.GenerateOptions) (string, error) {
	return s.reply, s.err
}
func (s *stubLLM) ModelName() string          { return "stub-llm" }
func (s *stubLLM) Ping(context.Context) error { return s.err }
func (s *stubLLM) Close() error               { return nil }

func TestWrapEmbedding_PassesThrough(t *testing.T) {
	inner := &stubEmbedder{}
	e := WrapEmbedding(inner, Policy{})

	v, err := e.EmbedQuery(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, []float32{5}, v)

	batch, err := e.EmbedBatch(context.Background(), []string{"a", "bb"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1}, {2}}, batch)

	assert.Equal(t, 1, e.Dimensions())
	assert.Equal(t, "stub", e.ModelName())
	require.NoError(t, e.Close())
	assert.True(t, inner.closed)
}

func TestWrapEmbedding_MapsFailures(t *testing.T) {
	e := WrapEmbedding(&stubEmbedder{err: errors.New("dial tcp: refused")}, Policy{})

	_, err := e.Embed(context.Background(), "x")
	assert.ErrorIs(t, err, domain.ErrModelUnavailable)
	assert.ErrorIs(t, e.Ping(context.Background()), domain.ErrModelUnavailable)
}

func TestWrapLLM(t *testing.T) {
	l := WrapLLM(&stubLLM{reply: "echo"}, Policy{})
	out, err := l.Generate(context.Background(), "prompt", driven.GenerateOptions{})
	require.NoError(t, err)
	assert.Equal(t, "echo", out)
	assert.Equal(t, "stub-llm", l.ModelName())

	failing := WrapLLM(&stubLLM{err: context.DeadlineExceeded}, Policy{})
	_, err = failing.Generate(context.Background(), "prompt", driven.GenerateOptions{})
	assert.ErrorIs(t, err, domain.ErrUpstreamTimeout)
}
