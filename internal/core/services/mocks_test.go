package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/askdocs/internal/adapters/driven/config/file"
	"github.com/custodia-labs/askdocs/internal/adapters/driven/embedding/hashing"
	"github.com/custodia-labs/askdocs/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/askdocs/internal/adapters/driven/vectorindex/flat"
	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
	"github.com/custodia-labs/askdocs/internal/core/ports/driving"
	"github.com/custodia-labs/askdocs/internal/normalisers"
	"github.com/custodia-labs/askdocs/internal/postprocessors"
)

const testDims = 256

// mockEmbedder wraps the hashing embedder and can be made to fail or
// return malformed output.
type mockEmbedder struct {
	mu         sync.Mutex
	inner      *hashing.EmbeddingService
	err        error
	batchCalls int
	queryCalls int
	truncate   bool
}

func newMockEmbedder() *mockEmbedder {
	return &mockEmbedder{inner: hashing.NewEmbeddingService(hashing.Config{Dimensions: testDims})}
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return m.inner.Embed(ctx, text)
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.batchCalls++
	err, truncate := m.err, m.truncate
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	vectors, err := m.inner.EmbedBatch(ctx, texts)
	if truncate && len(vectors) > 0 {
		vectors = vectors[:len(vectors)-1]
	}
	return vectors, err
}

func (m *mockEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.queryCalls++
	err := m.err
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return m.inner.EmbedQuery(ctx, text)
}

func (m *mockEmbedder) Dimensions() int            { return testDims }
func (m *mockEmbedder) ModelName() string          { return hashing.DefaultModel }
func (m *mockEmbedder) Ping(context.Context) error { return m.err }
func (m *mockEmbedder) Close() error               { return nil }

// mockSynthesizer records prompts and answers with respond.
type mockSynthesizer struct {
	mu      sync.Mutex
	prompts []string
	respond func(prompt string) (string, error)
}

// echoSynthesizer answers with the prompt it was given.
func echoSynthesizer() *mockSynthesizer {
	return &mockSynthesizer{respond: func(p string) (string, error) { return p, nil }}
}

// honestSynthesizer follows the prompt contract: no context means "I don't know".
func honestSynthesizer() *mockSynthesizer {
	return &mockSynthesizer{respond: func(p string) (string, error) {
		if strings.Contains(p, "NO CONTEXT FOUND") {
			return "I don't know.", nil
		}
		return "An answer.", nil
	}}
}

func (m *mockSynthesizer) Generate(_ context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()
	return m.respond(prompt)
}

func (m *mockSynthesizer) lastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.prompts) == 0 {
		return ""
	}
	return m.prompts[len(m.prompts)-1]
}

func (m *mockSynthesizer) ModelName() string          { return "mock" }
func (m *mockSynthesizer) Ping(context.Context) error { return nil }
func (m *mockSynthesizer) Close() error               { return nil }

// countingRegistry records how often documents reach the normalisers.
type countingRegistry struct {
	*normalisers.Registry
	calls int
}

func (r *countingRegistry) Normalise(ctx context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	r.calls++
	return r.Registry.Normalise(ctx, raw)
}

var testChunking = domain.ChunkingSettings{Size: 500, Overlap: 50}

func testIdentity() domain.IndexIdentity {
	return domain.IndexIdentity{
		EmbeddingModel: hashing.DefaultModel,
		Dimensions:     testDims,
		Metric:         domain.MetricCosine,
		ChunkSize:      testChunking.Size,
		ChunkOverlap:   testChunking.Overlap,
	}
}

// fixture wires the core services over an in-memory store.
type fixture struct {
	store     *memory.IndexStore
	handle    *IndexHandle
	embedder  *mockEmbedder
	registry  *countingRegistry
	ingest    *IngestService
	rebuild   *RebuildService
	retrieval *RetrievalService
	synth     *mockSynthesizer
	query     *QueryService
}

func newFixture(t *testing.T, topK int, synth *mockSynthesizer, cfg IngestConfig) *fixture {
	t.Helper()
	store := memory.NewIndexStore()
	return newFixtureWithStore(t, store, topK, synth, cfg)
}

func newFixtureWithStore(t *testing.T, store *memory.IndexStore, topK int, synth *mockSynthesizer, cfg IngestConfig) *fixture {
	t.Helper()
	ctx := context.Background()

	handle, err := OpenIndex(ctx, store, flat.Factory, testIdentity(), OpenOptions{})
	require.NoError(t, err)

	pipeline, err := postprocessors.BuildPipeline(domain.PipelineConfigFor(testChunking))
	require.NoError(t, err)

	prompts, err := file.NewPromptStore(t.TempDir())
	require.NoError(t, err)

	if cfg.TempDir == "" {
		cfg.TempDir = t.TempDir()
	}

	f := &fixture{
		store:    store,
		handle:   handle,
		embedder: newMockEmbedder(),
		registry: &countingRegistry{Registry: normalisers.NewDefaultRegistry()},
		synth:    synth,
	}
	f.ingest = NewIngestService(handle, f.registry, pipeline, f.embedder, cfg)
	f.rebuild = NewRebuildService(handle, f.registry, pipeline, f.embedder, testIdentity(), cfg)
	f.retrieval = NewRetrievalService(handle, f.embedder, topK)
	f.query = NewQueryService(f.retrieval, synth, prompts, QueryConfig{MaxContextChars: 6000})
	return f
}

func (f *fixture) add(t *testing.T, name, content string) *domain.IngestResult {
	t.Helper()
	res, err := f.ingest.Ingest(context.Background(), textUpload(name, content))
	require.NoError(t, err)
	return res
}

func textUpload(name, content string) driving.Upload {
	return driving.Upload{Filename: name, Content: strings.NewReader(content)}
}

func entriesN(prefix string, n int) []domain.IndexEntry {
	out := make([]domain.IndexEntry, n)
	for i := range out {
		v := make([]float32, testDims)
		v[i%testDims] = 1
		out[i] = domain.IndexEntry{
			ChunkID:    fmt.Sprintf("%s-%d", prefix, i),
			DocumentID: prefix,
			Position:   i,
			Content:    prefix + " passage",
			Vector:     v,
			Metadata:   map[string]any{"source": prefix + ".txt"},
		}
	}
	return out
}
