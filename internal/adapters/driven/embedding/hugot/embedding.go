// Package hugot provides an in-process embedding service that runs sentence
// transformer ONNX models with the pure Go hugot backend.
package hugot

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/knights-analytics/hugot"

	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
	"github.com/custodia-labs/askdocs/internal/logger"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultModel       = "BAAI/bge-small-en-v1.5"
	DefaultDimensions  = 384
	DefaultQueryPrefix = "Represent this sentence for searching relevant passages: "
)

// Config holds configuration for the hugot embedding service.
type Config struct {
	// Model is the Hugging Face model name (default: BAAI/bge-small-en-v1.5).
	Model string

	// ModelDir is where models are cached (default: ~/.askdocs/models).
	ModelDir string

	// Dimensions is the expected vector size (default: 384).
	Dimensions int

	// QueryPrefix is prepended to questions by EmbedQuery.
	QueryPrefix string
}

// EmbeddingService runs a feature-extraction pipeline in process.
type EmbeddingService struct {
	mu          sync.Mutex
	run         func([]string) ([][]float32, error)
	destroy     func() error
	model       string
	dimensions  int
	queryPrefix string
}

// NewEmbeddingService loads (downloading if needed) the model and starts a
// hugot session for it.
func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.ModelDir == "" {
		cfg.ModelDir = DefaultModelDir()
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = DefaultDimensions
		if d, ok := domain.EmbeddingDimensions()[cfg.Model]; ok {
			cfg.Dimensions = d
		}
	}
	if cfg.QueryPrefix == "" && cfg.Model == DefaultModel {
		cfg.QueryPrefix = DefaultQueryPrefix
	}

	path, err := PrepareModel(cfg.Model, cfg.ModelDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrModelUnavailable, err)
	}
	logger.Debug("hugot: loading %s from %s", cfg.Model, path)

	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create hugot session: %v", domain.ErrModelUnavailable, err)
	}

	config := hugot.FeatureExtractionConfig{
		ModelPath: path,
		Name:      "askdocs-embedder",
	}
	pipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			logger.Warn("hugot: session cleanup failed: %v", destroyErr)
		}
		return nil, fmt.Errorf("%w: failed to create embedding pipeline: %v", domain.ErrModelUnavailable, err)
	}

	return &EmbeddingService{
		run: func(texts []string) ([][]float32, error) {
			result, err := pipeline.RunPipeline(texts)
			if err != nil {
				return nil, err
			}
			return result.Embeddings, nil
		},
		destroy:     session.Destroy,
		model:       cfg.Model,
		dimensions:  cfg.Dimensions,
		queryPrefix: cfg.QueryPrefix,
	}, nil
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// EmbedQuery embeds a question, applying the model's retrieval prefix.
func (s *EmbeddingService) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return s.Embed(ctx, s.queryPrefix+text)
}

// EmbedBatch generates embeddings for multiple texts.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.run == nil {
		return nil, fmt.Errorf("%w: embedding service closed", domain.ErrModelUnavailable)
	}

	vectors, err := s.run(texts)
	if err != nil {
		return nil, fmt.Errorf("%w: embedding failed: %v", domain.ErrModelUnavailable, err)
	}
	return checkShape(vectors, len(texts), s.dimensions)
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the model in use.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping runs a tiny embedding through the pipeline.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	_, err := s.Embed(ctx, "ping")
	return err
}

// Close destroys the hugot session.
func (s *EmbeddingService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroy == nil {
		return nil
	}
	err := s.destroy()
	s.run, s.destroy = nil, nil
	return err
}

// checkShape verifies the pipeline output and L2-normalises each vector.
func checkShape(vectors [][]float32, want, dims int) ([][]float32, error) {
	if len(vectors) != want {
		return nil, fmt.Errorf("%w: expected %d embeddings, got %d", domain.ErrModelUnavailable, want, len(vectors))
	}
	for i, v := range vectors {
		if len(v) != dims {
			return nil, fmt.Errorf("%w: embedding %d has %d dimensions, expected %d",
				domain.ErrModelUnavailable, i, len(v), dims)
		}
		normalise(v)
	}
	return vectors, nil
}

func normalise(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	n := math.Sqrt(sum)
	for i := range v {
		v[i] = float32(float64(v[i]) / n)
	}
}
