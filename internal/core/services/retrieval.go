package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
	"github.com/custodia-labs/askdocs/internal/core/ports/driving"
	"github.com/custodia-labs/askdocs/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.RetrievalService = (*RetrievalService)(nil)

// RetrievalService embeds a question and searches the current index snapshot.
// It holds no state of its own beyond the handle, so every call sees the
// latest committed index.
type RetrievalService struct {
	handle   *IndexHandle
	embedder driven.EmbeddingService
	topK     int
}

// NewRetrievalService creates a retriever returning up to topK passages.
func NewRetrievalService(handle *IndexHandle, embedder driven.EmbeddingService, topK int) *RetrievalService {
	if topK < 1 {
		topK = 4
	}
	return &RetrievalService{handle: handle, embedder: embedder, topK: topK}
}

// TopK returns the number of passages retrieved per question.
func (s *RetrievalService) TopK() int {
	return s.topK
}

// Retrieve returns up to k passages ordered by decreasing relevance.
// An empty index yields an empty result without calling the embedder.
func (s *RetrievalService) Retrieve(ctx context.Context, question string) (*domain.RetrievalResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: question must not be empty", domain.ErrInvalidInput)
	}

	snap := s.handle.Snapshot()
	result := &domain.RetrievalResult{Question: question, Results: []domain.SearchResult{}}
	if snap.Len() == 0 {
		logger.Debug("Index is empty; nothing to retrieve")
		return result, nil
	}

	vec, err := s.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}
	if err := checkVector(vec, snap.Dimensions()); err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}

	hits, err := snap.Search(ctx, vec, s.topK)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}
	for _, h := range hits {
		result.Results = append(result.Results, domain.SearchResult{
			Entry:    h.Entry,
			Score:    h.Score,
			Distance: h.Distance,
		})
	}

	logger.Debug("Retrieved %d of %d passages", len(result.Results), snap.Len())
	return result, nil
}
