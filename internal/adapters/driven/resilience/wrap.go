package resilience

import (
	"context"

	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
)

// Ensure wrappers implement the interfaces.
var (
	_ driven.EmbeddingService = (*Embedding)(nil)
	_ driven.LLMService       = (*LLM)(nil)
)

// Embedding decorates an EmbeddingService with a call policy.
type Embedding struct {
	inner  driven.EmbeddingService
	caller *Caller
}

// WrapEmbedding applies p to every call made to svc.
func WrapEmbedding(svc driven.EmbeddingService, p Policy) *Embedding {
	return &Embedding{inner: svc, caller: NewCaller("embedding "+svc.ModelName(), p)}
}

// Embed generates a vector embedding for the given text.
func (e *Embedding) Embed(ctx context.Context, text string) ([]float32, error) {
	var out []float32
	err := e.caller.Do(ctx, "embed", func(ctx context.Context) error {
		v, err := e.inner.Embed(ctx, text)
		out = v
		return err
	})
	return out, err
}

// EmbedBatch generates embeddings for multiple texts.
func (e *Embedding) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var out [][]float32
	err := e.caller.Do(ctx, "embed batch", func(ctx context.Context) error {
		v, err := e.inner.EmbedBatch(ctx, texts)
		out = v
		return err
	})
	return out, err
}

// EmbedQuery generates the embedding for a question.
func (e *Embedding) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	var out []float32
	err := e.caller.Do(ctx, "embed query", func(ctx context.Context) error {
		v, err := e.inner.EmbedQuery(ctx, text)
		out = v
		return err
	})
	return out, err
}

// Dimensions returns the wrapped service's vector size.
func (e *Embedding) Dimensions() int { return e.inner.Dimensions() }

// ModelName returns the wrapped service's model.
func (e *Embedding) ModelName() string { return e.inner.ModelName() }

// Ping checks the wrapped service under the policy.
func (e *Embedding) Ping(ctx context.Context) error {
	return e.caller.Do(ctx, "ping", e.inner.Ping)
}

// Close closes the wrapped service.
func (e *Embedding) Close() error { return e.inner.Close() }

// LLM decorates an LLMService with a call policy.
type LLM struct {
	inner  driven.LLMService
	caller *Caller
}

// WrapLLM applies p to every call made to svc.
func WrapLLM(svc driven.LLMService, p Policy) *LLM {
	return &LLM{inner: svc, caller: NewCaller("synthesizer "+svc.ModelName(), p)}
}

// Generate produces a completion for prompt.
func (l *LLM) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	var out string
	err := l.caller.Do(ctx, "generate", func(ctx context.Context) error {
		text, err := l.inner.Generate(ctx, prompt, opts)
		out = text
		return err
	})
	return out, err
}

// ModelName returns the wrapped service's model.
func (l *LLM) ModelName() string { return l.inner.ModelName() }

// Ping checks the wrapped service under the policy.
func (l *LLM) Ping(ctx context.Context) error {
	return l.caller.Do(ctx, "ping", l.inner.Ping)
}

// Close closes the wrapped service.
func (l *LLM) Close() error { return l.inner.Close() }
