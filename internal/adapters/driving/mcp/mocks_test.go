package mcp

import (
	"context"

	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driving"
)

// mockQueryService is a mock implementation of driving.QueryService.
type mockQueryService struct {
	answer *domain.Answer
	err    error
}

func (m *mockQueryService) Answer(_ context.Context, _ string) (*domain.Answer, error) {
	return m.answer, m.err
}

// mockRetrievalService is a mock implementation of driving.RetrievalService.
type mockRetrievalService struct {
	result *domain.RetrievalResult
	err    error
}

func (m *mockRetrievalService) Retrieve(_ context.Context, question string) (*domain.RetrievalResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.result == nil {
		return &domain.RetrievalResult{Question: question}, nil
	}
	return m.result, nil
}

// mockIndexService is a mock implementation of driving.IndexService.
type mockIndexService struct {
	info driving.IndexInfo
}

func (m *mockIndexService) Info() driving.IndexInfo {
	return m.info
}

func refundPassages() []domain.SearchResult {
	return []domain.SearchResult{
		{
			Entry: domain.IndexEntry{
				ChunkID:    "chunk-1",
				DocumentID: "doc-1",
				Content:    "Refunds are issued within 30 days of purchase.",
				Metadata:   map[string]any{"source": "policy.txt"},
			},
			Score: 0.91,
		},
		{
			Entry: domain.IndexEntry{
				ChunkID:    "chunk-2",
				DocumentID: "doc-1",
				Content:    "Contact support to start a refund.",
			},
			Score: 0.64,
		},
	}
}
