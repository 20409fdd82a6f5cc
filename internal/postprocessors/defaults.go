package postprocessors

import (
	"fmt"

	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
	"github.com/custodia-labs/askdocs/internal/postprocessors/chunker"
)

// Builtin returns a registry holding every stage askdocs ships.
func Builtin() *Registry {
	r := NewRegistry()
	r.Register("chunker", buildChunker)
	return r
}

// BuildPipeline assembles the stages named in cfg, in order. Bad stage
// settings surface here, before any document is read.
func BuildPipeline(cfg domain.PipelineConfig) (*Pipeline, error) {
	r := Builtin()
	stages := make([]driven.PostProcessor, 0, len(cfg.Processors))
	for _, name := range cfg.Processors {
		stage, err := r.Build(name, cfg.GetProcessorConfig(name))
		if err != nil {
			return nil, fmt.Errorf("pipeline stage %s: %w", name, err)
		}
		stages = append(stages, stage)
	}
	return NewPipeline(stages...), nil
}

// buildChunker reads chunk_size and overlap; either may be omitted to keep
// the chunker default.
func buildChunker(opts StageOptions) (driven.PostProcessor, error) {
	var options []chunker.Option
	if size, ok := opts.Int("chunk_size"); ok {
		options = append(options, chunker.WithChunkSize(size))
	}
	if overlap, ok := opts.Int("overlap"); ok {
		options = append(options, chunker.WithOverlap(overlap))
	}
	return chunker.New(options...)
}
