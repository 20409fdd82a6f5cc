package driven

import (
	"context"

	"github.com/custodia-labs/askdocs/internal/core/domain"
)

// NormaliserRegistry dispatches an upload to the highest priority
// normaliser registered for its format.
type NormaliserRegistry interface {
	// Normalise returns domain.ErrUnsupportedFormat when nothing handles
	// raw's format.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*NormaliseResult, error)

	Register(normaliser Normaliser)
	Supports(format domain.DocumentFormat) bool
	SupportedFormats() []domain.DocumentFormat
}
