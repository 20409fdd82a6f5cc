package tui

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driving"
)

// MockQueryService implements driving.QueryService for testing.
type MockQueryService struct {
	AnswerFunc func(ctx context.Context, question string) (*domain.Answer, error)
}

func (m *MockQueryService) Answer(ctx context.Context, question string) (*domain.Answer, error) {
	if m.AnswerFunc != nil {
		return m.AnswerFunc(ctx, question)
	}
	return &domain.Answer{Text: "I don't know.", NoContext: true}, nil
}

// MockIndexService implements driving.IndexService for testing.
type MockIndexService struct {
	InfoValue driving.IndexInfo
}

func (m *MockIndexService) Info() driving.IndexInfo {
	return m.InfoValue
}

func TestPorts_Validate(t *testing.T) {
	t.Run("nil ports", func(t *testing.T) {
		var p *Ports
		assert.ErrorIs(t, p.Validate(), ErrMissingQueryService)
	})

	t.Run("missing query service", func(t *testing.T) {
		p := &Ports{Index: &MockIndexService{}}
		assert.ErrorIs(t, p.Validate(), ErrMissingQueryService)
		assert.ErrorContains(t, p.Validate(), "query service")
	})

	t.Run("index is optional", func(t *testing.T) {
		p := &Ports{Query: &MockQueryService{}}
		assert.NoError(t, p.Validate())
	})
}
