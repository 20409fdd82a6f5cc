// Package postprocessors turns parsed documents into passages by running
// them through an ordered list of stages.
package postprocessors

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
	"github.com/custodia-labs/askdocs/internal/logger"
)

var _ driven.PostProcessorPipeline = (*Pipeline)(nil)

// Pipeline feeds each stage the passages produced by the one before.
// The first stage starts from nil and is expected to create passages.
type Pipeline struct {
	stages []driven.PostProcessor
}

// NewPipeline returns a pipeline running stages in the given order.
func NewPipeline(stages ...driven.PostProcessor) *Pipeline {
	return &Pipeline{stages: stages}
}

// Process runs doc through every stage. It stops early if ctx is done.
func (p *Pipeline) Process(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error) {
	if doc == nil {
		return nil, errors.New("postprocess: nil document")
	}

	var chunks []domain.Chunk
	for _, stage := range p.stages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		next, err := stage.Process(ctx, doc, chunks)
		if err != nil {
			return nil, fmt.Errorf("postprocess %s: %w", stage.Name(), err)
		}
		logger.Debug("%s: %d -> %d passages for %s", stage.Name(), len(chunks), len(next), doc.URI)
		chunks = next
	}
	return chunks, nil
}

// Stages returns the stage names in run order.
func (p *Pipeline) Stages() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name()
	}
	return names
}
