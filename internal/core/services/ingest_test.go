package services

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/askdocs/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driving"
	"github.com/custodia-labs/askdocs/internal/normalisers"
)

// words returns n characters of space separated words.
func words(n int) string {
	return strings.Repeat("alpha ", n/6+1)[:n]
}

func assertNoStagedFiles(t *testing.T, dir string) {
	t.Helper()
	left, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, left, "staged uploads must be removed")
}

func TestIngest_SplitsAndIndexes(t *testing.T) {
	f := newFixture(t, 4, honestSynthesizer(), IngestConfig{})

	res := f.add(t, "policy.txt", words(1200))

	assert.Equal(t, 3, res.ChunksAdded)
	assert.Equal(t, "policy.txt", res.Filename)
	assert.Equal(t, "Successfully uploaded and processed policy.txt", res.Message)
	assert.NotEmpty(t, res.DocumentID)
	assert.False(t, res.Skipped)
	assert.Equal(t, 3, f.handle.Snapshot().Len())
	assert.Equal(t, 1, f.embedder.batchCalls, "chunks are embedded in one batch")
}

func TestIngest_ChunkMetadata(t *testing.T) {
	f := newFixture(t, 4, honestSynthesizer(), IngestConfig{})
	f.add(t, "notes.txt", "first line\nsecond line")

	entries := f.handle.Snapshot().Entries()
	require.Len(t, entries, 1)
	meta := entries[0].Metadata
	assert.Equal(t, "notes.txt", meta[MetaSource])
	assert.Equal(t, "txt", meta[MetaFormat])
	assert.NotEmpty(t, meta[MetaTitle])
	assert.Len(t, meta[MetaContentHash], 64)
	assert.Equal(t, 0, meta["start"])
	assert.Equal(t, 22, meta["end"])
	assert.Equal(t, 1, meta["line"])
	assert.Equal(t, "first line\nsecond line", entries[0].Content)
}

func TestIngest_RejectsUnsupportedFormatBeforeIndexAccess(t *testing.T) {
	registry := &countingRegistry{Registry: normalisers.NewDefaultRegistry()}
	embedder := newMockEmbedder()
	// A nil handle panics on any index access.
	svc := NewIngestService(nil, registry, nil, embedder, IngestConfig{TempDir: t.TempDir()})

	for _, name := range []string{"report.docx", "archive.zip", "README"} {
		_, err := svc.Ingest(context.Background(), textUpload(name, "content"))
		assert.ErrorIs(t, err, domain.ErrUnsupportedFormat, name)
		assert.Equal(t, domain.KindInvalidInput, domain.KindOf(err))
	}
	assert.Zero(t, registry.calls)
	assert.Zero(t, embedder.batchCalls)
}

func TestIngest_RequiresFilename(t *testing.T) {
	f := newFixture(t, 4, honestSynthesizer(), IngestConfig{})
	_, err := f.ingest.Ingest(context.Background(), textUpload("  ", "x"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestIngest_UppercaseExtension(t *testing.T) {
	f := newFixture(t, 4, honestSynthesizer(), IngestConfig{})
	res := f.add(t, "NOTES.TXT", "some text")
	assert.Equal(t, 1, res.ChunksAdded)
}

func TestIngest_ParseErrorLeavesIndexUnchanged(t *testing.T) {
	tmp := t.TempDir()
	f := newFixture(t, 4, honestSynthesizer(), IngestConfig{TempDir: tmp})

	_, err := f.ingest.Ingest(context.Background(), driving.Upload{
		Filename: "binary.txt",
		Content:  strings.NewReader("\xff\xfe\x00garbage"),
	})

	assert.ErrorIs(t, err, domain.ErrParse)
	assert.Zero(t, f.handle.Snapshot().Len())
	assert.Zero(t, f.embedder.batchCalls)
	assertNoStagedFiles(t, tmp)
}

func TestIngest_EmptyDocument(t *testing.T) {
	f := newFixture(t, 4, honestSynthesizer(), IngestConfig{})
	_, err := f.ingest.Ingest(context.Background(), textUpload("empty.txt", "  \n "))
	assert.ErrorIs(t, err, domain.ErrParse)
}

func TestIngest_EmbeddingFailureAbortsDocument(t *testing.T) {
	tmp := t.TempDir()
	f := newFixture(t, 4, honestSynthesizer(), IngestConfig{TempDir: tmp})
	f.add(t, "first.txt", "kept")
	f.embedder.err = domain.ErrModelUnavailable

	_, err := f.ingest.Ingest(context.Background(), textUpload("second.txt", words(1200)))

	assert.ErrorIs(t, err, domain.ErrModelUnavailable)
	assert.Equal(t, domain.KindUnavailable, domain.KindOf(err))
	assert.Equal(t, 1, f.handle.Snapshot().Len())
	assertNoStagedFiles(t, tmp)
}

func TestIngest_MalformedEmbeddings(t *testing.T) {
	f := newFixture(t, 4, honestSynthesizer(), IngestConfig{})
	f.embedder.truncate = true

	_, err := f.ingest.Ingest(context.Background(), textUpload("doc.txt", words(1200)))

	assert.ErrorIs(t, err, domain.ErrModelUnavailable)
	assert.Zero(t, f.handle.Snapshot().Len())
}

func TestIngest_PersistenceFailureLeavesSnapshot(t *testing.T) {
	store := memory.NewIndexStore()
	f := newFixtureWithStore(t, store, 4, honestSynthesizer(), IngestConfig{})
	store.FailWrites(errors.New("disk full"))

	_, err := f.ingest.Ingest(context.Background(), textUpload("doc.txt", "text"))

	require.Error(t, err)
	assert.Equal(t, domain.KindInternal, domain.KindOf(err))
	assert.Zero(t, f.handle.Snapshot().Len())
}

func TestIngest_TwiceAppendsDuplicates(t *testing.T) {
	f := newFixture(t, 4, honestSynthesizer(), IngestConfig{})

	f.add(t, "doc.txt", words(1200))
	f.add(t, "doc.txt", words(1200))

	assert.Equal(t, 6, f.handle.Snapshot().Len())
}

func TestIngest_DeduplicateSkipsKnownContent(t *testing.T) {
	f := newFixture(t, 4, honestSynthesizer(), IngestConfig{Deduplicate: true})

	f.add(t, "doc.txt", words(1200))
	res := f.add(t, "copy.txt", words(1200))

	assert.True(t, res.Skipped)
	assert.Zero(t, res.ChunksAdded)
	assert.Equal(t, "copy.txt is already indexed", res.Message)
	assert.Equal(t, 3, f.handle.Snapshot().Len())
	assert.Equal(t, 1, f.embedder.batchCalls)
}

func TestIngest_UploadLimit(t *testing.T) {
	tmp := t.TempDir()
	f := newFixture(t, 4, honestSynthesizer(), IngestConfig{MaxUploadBytes: 10, TempDir: tmp})

	_, err := f.ingest.Ingest(context.Background(), textUpload("big.txt", words(11)))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assertNoStagedFiles(t, tmp)

	res := f.add(t, "small.txt", words(10))
	assert.Equal(t, 1, res.ChunksAdded)
	assertNoStagedFiles(t, tmp)
}

func TestIngest_MissingContent(t *testing.T) {
	f := newFixture(t, 4, honestSynthesizer(), IngestConfig{})
	_, err := f.ingest.Ingest(context.Background(), driving.Upload{Filename: "a.txt"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestIngest_RetrieverSeesNewDocument(t *testing.T) {
	f := newFixture(t, 4, honestSynthesizer(), IngestConfig{})
	ctx := context.Background()

	before, err := f.retrieval.Retrieve(ctx, "lighthouse keeper")
	require.NoError(t, err)
	assert.True(t, before.IsEmpty())

	f.add(t, "story.txt", "The lighthouse keeper lit the lamp at dusk.")

	after, err := f.retrieval.Retrieve(ctx, "lighthouse keeper")
	require.NoError(t, err)
	require.Len(t, after.Results, 1)
	assert.Contains(t, after.Results[0].Entry.Content, "lighthouse")
}

// ==================== Rebuild ====================

func TestRebuild_RequiresConfirmationOnPopulatedIndex(t *testing.T) {
	f := newFixture(t, 4, honestSynthesizer(), IngestConfig{})
	f.add(t, "old.txt", "old content")

	_, err := f.rebuild.Rebuild(context.Background(), textUpload("new.txt", "new content"), false)

	assert.ErrorIs(t, err, domain.ErrRebuildNotConfirmed)
	assert.Equal(t, domain.KindInvalidInput, domain.KindOf(err))
	require.Equal(t, 1, f.handle.Snapshot().Len())
	assert.Equal(t, "old content", f.handle.Snapshot().Entries()[0].Content)
	assert.Equal(t, 1, f.registry.calls, "the new file is never parsed")
}

func TestRebuild_ReplacesIndex(t *testing.T) {
	f := newFixture(t, 4, honestSynthesizer(), IngestConfig{})
	f.add(t, "old.txt", "old content")

	res, err := f.rebuild.Rebuild(context.Background(), textUpload("new.txt", words(1200)), true)

	require.NoError(t, err)
	assert.Equal(t, 3, res.ChunksAdded)
	assert.Equal(t, 3, f.handle.Snapshot().Len())
	for _, e := range f.handle.Snapshot().Entries() {
		assert.Equal(t, "new.txt", e.Metadata[MetaSource])
	}

	_, persisted, err := f.store.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, persisted, 3)
}

func TestRebuild_EmptyIndexNeedsNoConfirmation(t *testing.T) {
	f := newFixture(t, 4, honestSynthesizer(), IngestConfig{})

	res, err := f.rebuild.Rebuild(context.Background(), textUpload("new.txt", "content"), false)

	require.NoError(t, err)
	assert.Equal(t, 1, res.ChunksAdded)
}

func TestRebuild_RejectsUnsupportedFormat(t *testing.T) {
	f := newFixture(t, 4, honestSynthesizer(), IngestConfig{})
	f.add(t, "old.txt", "old content")

	_, err := f.rebuild.Rebuild(context.Background(), textUpload("new.docx", "x"), true)

	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
	assert.Equal(t, 1, f.handle.Snapshot().Len())
}

func TestRebuild_EmbeddingFailureKeepsIndex(t *testing.T) {
	f := newFixture(t, 4, honestSynthesizer(), IngestConfig{})
	f.add(t, "old.txt", "old content")
	f.embedder.err = domain.ErrUpstreamTimeout

	_, err := f.rebuild.Rebuild(context.Background(), textUpload("new.txt", "new"), true)

	assert.ErrorIs(t, err, domain.ErrUpstreamTimeout)
	assert.Equal(t, 1, f.handle.Snapshot().Len())
}
