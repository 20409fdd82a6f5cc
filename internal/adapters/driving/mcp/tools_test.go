package mcp

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/askdocs/internal/core/domain"
)

func newToolServer(t *testing.T, query *mockQueryService, retrieval *mockRetrievalService) *Server {
	t.Helper()
	server, err := NewServer(&Ports{Query: query, Retrieval: retrieval}, "test")
	require.NoError(t, err)
	return server
}

func TestServer_handleAsk(t *testing.T) {
	ctx := context.Background()

	t.Run("returns answer with sources", func(t *testing.T) {
		query := &mockQueryService{answer: &domain.Answer{
			Text:    "Within 30 days.",
			Sources: refundPassages(),
		}}
		server := newToolServer(t, query, &mockRetrievalService{})

		_, output, err := server.handleAsk(ctx, nil, AskInput{Question: "How long do refunds take?"})

		require.NoError(t, err)
		assert.Equal(t, "Within 30 days.", output.Answer)
		assert.False(t, output.NoContext)
		require.Len(t, output.Sources, 2)
		assert.Equal(t, "chunk-1", output.Sources[0].ChunkID)
		assert.Equal(t, "policy.txt", output.Sources[0].Source)
		assert.Equal(t, 0.91, output.Sources[0].Score)
		assert.Empty(t, output.Sources[1].Source)
	})

	t.Run("reports missing context", func(t *testing.T) {
		query := &mockQueryService{answer: &domain.Answer{Text: "I don't know.", NoContext: true}}
		server := newToolServer(t, query, &mockRetrievalService{})

		_, output, err := server.handleAsk(ctx, nil, AskInput{Question: "anything"})

		require.NoError(t, err)
		assert.True(t, output.NoContext)
		assert.Empty(t, output.Sources)
	})

	t.Run("passes input errors through", func(t *testing.T) {
		query := &mockQueryService{err: fmt.Errorf("%w: question must not be empty", domain.ErrInvalidInput)}
		server := newToolServer(t, query, &mockRetrievalService{})

		_, _, err := server.handleAsk(ctx, nil, AskInput{})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "question must not be empty")
	})

	t.Run("hides internal detail", func(t *testing.T) {
		query := &mockQueryService{err: fmt.Errorf("generate: %w: dial tcp 10.0.0.7:443", domain.ErrModelUnavailable)}
		server := newToolServer(t, query, &mockRetrievalService{})

		_, _, err := server.handleAsk(ctx, nil, AskInput{Question: "anything"})

		require.Error(t, err)
		assert.Equal(t, "the system is temporarily unavailable", err.Error())
	})
}

func TestServer_handleRetrieve(t *testing.T) {
	ctx := context.Background()

	t.Run("returns passages in order", func(t *testing.T) {
		retrieval := &mockRetrievalService{result: &domain.RetrievalResult{
			Question: "refunds",
			Results:  refundPassages(),
		}}
		server := newToolServer(t, &mockQueryService{}, retrieval)

		_, output, err := server.handleRetrieve(ctx, nil, RetrieveInput{Question: "refunds"})

		require.NoError(t, err)
		assert.Equal(t, 2, output.Count)
		assert.Equal(t, "Refunds are issued within 30 days of purchase.", output.Passages[0].Content)
		assert.Equal(t, "chunk-2", output.Passages[1].ChunkID)
	})

	t.Run("empty index returns no passages", func(t *testing.T) {
		server := newToolServer(t, &mockQueryService{}, &mockRetrievalService{})

		_, output, err := server.handleRetrieve(ctx, nil, RetrieveInput{Question: "refunds"})

		require.NoError(t, err)
		assert.Zero(t, output.Count)
		assert.NotNil(t, output.Passages)
	})

	t.Run("returns error on retrieval failure", func(t *testing.T) {
		retrieval := &mockRetrievalService{err: fmt.Errorf("embed question: %w", domain.ErrUpstreamTimeout)}
		server := newToolServer(t, &mockQueryService{}, retrieval)

		_, _, err := server.handleRetrieve(ctx, nil, RetrieveInput{Question: "refunds"})

		require.Error(t, err)
		assert.Equal(t, "the request timed out, please retry", err.Error())
	})
}
