package normalisers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
)

type stubNormaliser struct {
	name     string
	formats  []domain.DocumentFormat
	priority int
}

func (s *stubNormaliser) SupportedFormats() []domain.DocumentFormat { return s.formats }
func (s *stubNormaliser) Priority() int                             { return s.priority }
func (s *stubNormaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	return &driven.NormaliseResult{Document: domain.Document{URI: raw.URI, Title: s.name}}, nil
}

func TestRegistry_SelectsHighestPriority(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubNormaliser{name: "low", formats: []domain.DocumentFormat{domain.FormatText}, priority: 5})
	r.Register(&stubNormaliser{name: "high", formats: []domain.DocumentFormat{domain.FormatText}, priority: 90})

	result, err := r.Normalise(context.Background(), &domain.RawDocument{URI: "a.txt", Format: domain.FormatText})
	require.NoError(t, err)
	assert.Equal(t, "high", result.Document.Title)
}

func TestRegistry_UnsupportedFormat(t *testing.T) {
	r := NewDefaultRegistry()

	_, err := r.Normalise(context.Background(), &domain.RawDocument{URI: "memo.docx", Format: "docx"})
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
}

func TestRegistry_NilDocument(t *testing.T) {
	_, err := NewDefaultRegistry().Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDefaultRegistry_Formats(t *testing.T) {
	r := NewDefaultRegistry()

	assert.True(t, r.Supports(domain.FormatPDF))
	assert.True(t, r.Supports(domain.FormatText))
	assert.False(t, r.Supports("docx"))
	assert.ElementsMatch(t, []domain.DocumentFormat{domain.FormatPDF, domain.FormatText}, r.SupportedFormats())
}

func TestDefaultRegistry_PlainText(t *testing.T) {
	r := NewDefaultRegistry()

	result, err := r.Normalise(context.Background(), &domain.RawDocument{
		URI:     "policy.txt",
		Format:  domain.FormatText,
		Content: []byte("The policy on X is Y."),
	})
	require.NoError(t, err)
	assert.Equal(t, "The policy on X is Y.", result.Document.Content)
}
