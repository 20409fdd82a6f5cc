package driving

import (
	"context"

	"github.com/custodia-labs/askdocs/internal/core/domain"
)

// RetrievalService selects the passages most relevant to a question.
type RetrievalService interface {
	// Retrieve returns up to k passages ordered by decreasing relevance.
	Retrieve(ctx context.Context, question string) (*domain.RetrievalResult, error)
}

// QueryService answers questions grounded in retrieved passages.
type QueryService interface {
	// Answer retrieves context and returns the synthesizer's answer verbatim.
	Answer(ctx context.Context, question string) (*domain.Answer, error)
}
