package driven

import (
	"context"

	"github.com/custodia-labs/askdocs/internal/core/domain"
)

// PostProcessor is one stage of passage production.
type PostProcessor interface {
	// Name identifies the stage in configuration and logs.
	Name() string

	// Process receives the passages made by earlier stages (nil for the
	// first) and returns the passages for the next. A splitting stage
	// ignores its input and builds passages from doc.Content.
	Process(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error)
}

// PostProcessorPipeline turns a parsed document into indexable passages.
type PostProcessorPipeline interface {
	Process(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error)
}
