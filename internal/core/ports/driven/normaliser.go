package driven

import (
	"context"

	"github.com/custodia-labs/askdocs/internal/core/domain"
)

// Normaliser extracts text from uploads of the formats it supports.
type Normaliser interface {
	SupportedFormats() []domain.DocumentFormat

	// Priority breaks ties between normalisers of one format; higher wins.
	Priority() int

	// Normalise fills Document.Content. Input it cannot read, including
	// input with no text, is reported as domain.ErrParse.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*NormaliseResult, error)
}

// NormaliseResult carries the extracted document. Splitting it into
// passages is left to the PostProcessorPipeline.
type NormaliseResult struct {
	Document domain.Document
}
