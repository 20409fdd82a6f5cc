// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/askdocs/internal/adapters/driven/embedding/hashing"
	hugotembed "github.com/custodia-labs/askdocs/internal/adapters/driven/embedding/hugot"
	ollamaembed "github.com/custodia-labs/askdocs/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/askdocs/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/askdocs/internal/adapters/driven/llm/anthropic"
	"github.com/custodia-labs/askdocs/internal/adapters/driven/llm/gemini"
	ollamallm "github.com/custodia-labs/askdocs/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/askdocs/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/askdocs/internal/adapters/driven/resilience"
	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
	"github.com/custodia-labs/askdocs/internal/logger"
)

// InitResult contains the model backends built from settings.
type InitResult struct {
	EmbeddingService driven.EmbeddingService
	LLMService       driven.LLMService
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() error {
	var errs []error
	if r.EmbeddingService != nil {
		errs = append(errs, r.EmbeddingService.Close())
	}
	if r.LLMService != nil {
		errs = append(errs, r.LLMService.Close())
	}
	return errors.Join(errs...)
}

// NewServices builds the embedder and synthesizer described by settings and
// wraps both with the upstream call policy. The synthesizer is optional:
// withLLM false skips it for commands that never generate answers.
func NewServices(ctx context.Context, settings domain.Settings, withLLM bool) (*InitResult, error) {
	policy := resilience.PolicyFrom(settings.Upstream)

	embedder, err := CreateEmbeddingService(settings.Embedding)
	if err != nil {
		return nil, err
	}
	result := &InitResult{EmbeddingService: resilience.WrapEmbedding(embedder, policy)}
	logger.Debug("ai: embedding %s (%s, %d dims)", settings.Embedding.Provider, embedder.ModelName(), embedder.Dimensions())

	if !withLLM {
		return result, nil
	}

	llm, err := CreateLLMService(ctx, settings.LLM)
	if err != nil {
		_ = result.Close()
		return nil, err
	}
	result.LLMService = resilience.WrapLLM(llm, policy)
	logger.Debug("ai: synthesizer %s (%s)", settings.LLM.Provider, llm.ModelName())

	return result, nil
}

// CreateEmbeddingService creates the embedding service selected by settings.
func CreateEmbeddingService(settings domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if !settings.Provider.SupportsEmbedding() {
		return nil, fmt.Errorf("%w: embedding provider %q is not supported", domain.ErrConfiguration, settings.Provider)
	}
	if !settings.IsConfigured() {
		return nil, missingKey("embedding", settings.Provider)
	}

	switch settings.Provider {
	case domain.AIProviderHashing:
		return hashing.NewEmbeddingService(hashing.Config{
			Dimensions: settings.Dimensions,
		}), nil

	case domain.AIProviderHugot:
		return hugotembed.NewEmbeddingService(hugotembed.Config{
			Model:       settings.Model,
			Dimensions:  dimensionsFor(settings),
			QueryPrefix: settings.QueryPrefix,
		})

	case domain.AIProviderOllama:
		dims := dimensionsFor(settings)
		if dims == 0 {
			dims = ollamaembed.DefaultDimensions
		}
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:     settings.BaseURL,
			Model:       settings.Model,
			Dimensions:  dims,
			QueryPrefix: settings.QueryPrefix,
		}), nil

	case domain.AIProviderOpenAI:
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:      settings.APIKey,
			BaseURL:     settings.BaseURL,
			Model:       settings.Model,
			Dimensions:  dimensionsFor(settings),
			QueryPrefix: settings.QueryPrefix,
		})

	default:
		return nil, fmt.Errorf("%w: embedding provider %q is not supported", domain.ErrConfiguration, settings.Provider)
	}
}

// CreateLLMService creates the synthesizer selected by settings.
func CreateLLMService(ctx context.Context, settings domain.LLMSettings) (driven.LLMService, error) {
	if !settings.Provider.SupportsGeneration() {
		return nil, fmt.Errorf("%w: llm provider %q is not supported", domain.ErrConfiguration, settings.Provider)
	}
	if !settings.IsConfigured() {
		return nil, missingKey("llm", settings.Provider)
	}

	switch settings.Provider {
	case domain.AIProviderGroq:
		baseURL := settings.BaseURL
		if baseURL == "" {
			baseURL = openaillm.GroqBaseURL
		}
		return openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: baseURL,
			Model:   settings.Model,
			Name:    "groq",
		})

	case domain.AIProviderOpenAI:
		return openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil

	case domain.AIProviderAnthropic:
		return anthropic.NewLLMService(anthropic.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderGemini:
		return gemini.NewLLMService(ctx, gemini.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	default:
		return nil, fmt.Errorf("%w: llm provider %q is not supported", domain.ErrConfiguration, settings.Provider)
	}
}

// dimensionsFor returns the configured or known vector size, or 0.
func dimensionsFor(settings domain.EmbeddingSettings) int {
	if settings.Dimensions > 0 {
		return settings.Dimensions
	}
	return domain.EmbeddingDimensions()[settings.Model]
}

func missingKey(kind string, p domain.AIProvider) error {
	return fmt.Errorf("%w: %s provider %s needs an API key (set %s)",
		domain.ErrConfiguration, kind, p, p.APIKeyEnv())
}
