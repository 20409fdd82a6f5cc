package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
	"github.com/custodia-labs/askdocs/internal/core/ports/driving"
	"github.com/custodia-labs/askdocs/internal/logger"
)

// Ensure services implement the interfaces.
var (
	_ driving.IngestService  = (*IngestService)(nil)
	_ driving.RebuildService = (*RebuildService)(nil)
)

// Metadata keys added to every chunk by ingestion.
const (
	MetaSource      = "source"
	MetaTitle       = "title"
	MetaFormat      = "format"
	MetaContentHash = "content_hash"
)

// IngestConfig holds ingestion options.
type IngestConfig struct {
	// Deduplicate skips uploads whose content hash is already indexed.
	Deduplicate bool

	// MaxUploadBytes caps the upload size. Zero means unlimited.
	MaxUploadBytes int64

	// TempDir is where uploads are staged. Empty uses the system default.
	TempDir string
}

// prepared is a document that has been parsed, chunked and embedded but not yet indexed.
type prepared struct {
	filename string
	docID    string
	hash     string
	entries  []domain.IndexEntry
}

// documentPipeline runs the stages shared by incremental ingestion and rebuild:
// stage, parse, chunk and embed.
type documentPipeline struct {
	handle      *IndexHandle
	normalisers driven.NormaliserRegistry
	pipeline    driven.PostProcessorPipeline
	embedder    driven.EmbeddingService
	cfg         IngestConfig
}

// IngestService appends uploaded documents to the shared index.
type IngestService struct {
	documentPipeline
}

// NewIngestService creates a new ingestion service.
func NewIngestService(
	handle *IndexHandle,
	normalisers driven.NormaliserRegistry,
	pipeline driven.PostProcessorPipeline,
	embedder driven.EmbeddingService,
	cfg IngestConfig,
) *IngestService {
	return &IngestService{documentPipeline{
		handle:      handle,
		normalisers: normalisers,
		pipeline:    pipeline,
		embedder:    embedder,
		cfg:         cfg,
	}}
}

// Ingest parses, chunks and embeds an upload and appends it to the index.
// Unsupported formats are rejected before the index is touched. The document
// is added completely or not at all.
func (s *IngestService) Ingest(ctx context.Context, upload driving.Upload) (*domain.IngestResult, error) {
	logger.Section("Ingest")

	format, err := s.checkFormat(upload.Filename)
	if err != nil {
		return nil, err
	}

	doc, err := s.prepare(ctx, upload, format, true)
	if err != nil {
		return nil, report("ingest "+upload.Filename, err)
	}
	if doc == nil {
		return skipped(upload.Filename), nil
	}

	var skip func(driven.VectorIndex) bool
	if s.cfg.Deduplicate {
		skip = func(idx driven.VectorIndex) bool { return indexed(idx, doc.hash) }
	}
	committed, err := s.handle.CommitUnless(ctx, doc.entries, skip)
	if err != nil {
		return nil, report("ingest "+upload.Filename, err)
	}
	if !committed {
		return skipped(upload.Filename), nil
	}

	logger.Info("Indexed %s: %d chunks", doc.filename, len(doc.entries))
	return &domain.IngestResult{
		DocumentID:  doc.docID,
		Filename:    doc.filename,
		ChunksAdded: len(doc.entries),
		Message:     "Successfully uploaded and processed " + doc.filename,
	}, nil
}

// RebuildService replaces the whole index with a single document.
type RebuildService struct {
	documentPipeline
	identity domain.IndexIdentity
}

// NewRebuildService creates a rebuild service that installs entries under identity.
func NewRebuildService(
	handle *IndexHandle,
	normalisers driven.NormaliserRegistry,
	pipeline driven.PostProcessorPipeline,
	embedder driven.EmbeddingService,
	identity domain.IndexIdentity,
	cfg IngestConfig,
) *RebuildService {
	return &RebuildService{
		documentPipeline: documentPipeline{
			handle:      handle,
			normalisers: normalisers,
			pipeline:    pipeline,
			embedder:    embedder,
			cfg:         cfg,
		},
		identity: identity,
	}
}

// Rebuild discards the index and rebuilds it from upload.
// A non-empty index is only discarded when confirm is set.
func (s *RebuildService) Rebuild(ctx context.Context, upload driving.Upload, confirm bool) (*domain.IngestResult, error) {
	logger.Section("Rebuild")

	format, err := s.checkFormat(upload.Filename)
	if err != nil {
		return nil, err
	}
	if n := s.handle.Snapshot().Len(); n > 0 && !confirm {
		return nil, fmt.Errorf("%w: the index at %s holds %d entries", domain.ErrRebuildNotConfirmed, s.handle.Info().Path, n)
	}

	doc, err := s.prepare(ctx, upload, format, false)
	if err != nil {
		return nil, report("rebuild from "+upload.Filename, err)
	}
	if err := s.handle.Replace(ctx, s.identity, doc.entries); err != nil {
		return nil, report("rebuild from "+upload.Filename, err)
	}

	logger.Info("Rebuilt index from %s: %d chunks", doc.filename, len(doc.entries))
	return &domain.IngestResult{
		DocumentID:  doc.docID,
		Filename:    doc.filename,
		ChunksAdded: len(doc.entries),
		Message:     "Successfully rebuilt the index from " + doc.filename,
	}, nil
}

// checkFormat rejects uploads by extension before anything is read.
func (p *documentPipeline) checkFormat(filename string) (domain.DocumentFormat, error) {
	name := filepath.Base(strings.TrimSpace(filename))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "", fmt.Errorf("%w: a file name is required", domain.ErrInvalidInput)
	}
	format := domain.FormatFromFilename(name)
	if format == "" || !p.normalisers.Supports(format) {
		ext := filepath.Ext(name)
		if ext == "" {
			ext = "extensionless"
		}
		return "", fmt.Errorf("%w: %s files are not accepted, upload a .pdf or .txt file", domain.ErrUnsupportedFormat, ext)
	}
	return format, nil
}

// prepare stages the upload and turns it into index entries. When dedup is
// set and the content is already indexed it returns nil without embedding.
func (p *documentPipeline) prepare(
	ctx context.Context,
	upload driving.Upload,
	format domain.DocumentFormat,
	dedup bool,
) (*prepared, error) {
	name := filepath.Base(upload.Filename)

	// 1. STAGE (released on every return path)
	raw, cleanup, err := p.stage(upload.Content, name, format)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	sum := sha256.Sum256(raw.Content)
	hash := hex.EncodeToString(sum[:])
	if dedup && p.cfg.Deduplicate && indexed(p.handle.Snapshot(), hash) {
		logger.Debug("Skipping %s: content %s already indexed", name, hash[:12])
		return nil, nil
	}

	// 2. NORMALISE (produces Document with Content)
	result, err := p.normalisers.Normalise(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("normalise: %w", err)
	}
	doc := &result.Document
	if strings.TrimSpace(doc.Content) == "" {
		return nil, fmt.Errorf("%w: %s contains no text", domain.ErrParse, name)
	}
	if doc.Metadata == nil {
		doc.Metadata = make(map[string]any)
	}
	doc.Metadata[MetaSource] = name
	doc.Metadata[MetaTitle] = doc.Title
	doc.Metadata[MetaFormat] = format.String()
	doc.Metadata[MetaContentHash] = hash

	// 3. RUN POST-PROCESSOR PIPELINE (produces Chunks)
	chunks, err := p.pipeline.Process(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("post-process: %w", err)
	}
	logger.Debug("Split %s into %d chunks", name, len(chunks))

	// 4. EMBED (one batch; any failure aborts the document)
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	vectors, err := p.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}
	if err := CheckEmbeddings(vectors, len(chunks), p.embedder.Dimensions()); err != nil {
		return nil, err
	}

	entries := make([]domain.IndexEntry, len(chunks))
	for i := range chunks {
		chunks[i].Embedding = vectors[i]
		entries[i] = domain.EntryFromChunk(chunks[i])
	}

	return &prepared{filename: name, docID: doc.ID, hash: hash, entries: entries}, nil
}

// stage reads the upload into memory and a temporary file. The returned
// cleanup removes the file and must always be called.
func (p *documentPipeline) stage(r io.Reader, name string, format domain.DocumentFormat) (*domain.RawDocument, func(), error) {
	if r == nil {
		return nil, nil, fmt.Errorf("%w: %s has no content", domain.ErrInvalidInput, name)
	}
	if p.cfg.MaxUploadBytes > 0 {
		r = io.LimitReader(r, p.cfg.MaxUploadBytes+1)
	}

	f, err := os.CreateTemp(p.cfg.TempDir, "askdocs-upload-*"+filepath.Ext(name))
	if err != nil {
		return nil, nil, fmt.Errorf("stage upload: %w", err)
	}
	cleanup := func() {
		_ = f.Close()
		if err := os.Remove(f.Name()); err != nil && !os.IsNotExist(err) {
			logger.Warn("Failed to remove staged upload %s: %v", f.Name(), err)
		}
	}

	var buf bytes.Buffer
	n, err := io.Copy(f, io.TeeReader(r, &buf))
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("stage upload: %w", err)
	}
	if p.cfg.MaxUploadBytes > 0 && n > p.cfg.MaxUploadBytes {
		cleanup()
		return nil, nil, fmt.Errorf("%w: %s exceeds the %d byte upload limit", domain.ErrInvalidInput, name, p.cfg.MaxUploadBytes)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("stage upload: %w", err)
	}
	logger.Debug("Staged %s (%d bytes) at %s", name, n, f.Name())

	return &domain.RawDocument{
		URI:        name,
		Format:     format,
		Content:    buf.Bytes(),
		StagedPath: f.Name(),
	}, cleanup, nil
}

// indexed reports whether any entry carries the content hash.
func indexed(idx driven.VectorIndex, hash string) bool {
	for _, e := range idx.Entries() {
		if h, ok := e.Metadata[MetaContentHash].(string); ok && h == hash {
			return true
		}
	}
	return false
}

func skipped(filename string) *domain.IngestResult {
	name := filepath.Base(filename)
	return &domain.IngestResult{
		Filename: name,
		Skipped:  true,
		Message:  name + " is already indexed",
	}
}

// report logs failures the caller cannot act on and passes the error through.
func report(op string, err error) error {
	if domain.KindOf(err) == domain.KindInternal {
		logger.Error("%s: %v", op, err)
	}
	return err
}
