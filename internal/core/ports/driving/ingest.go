package driving

import (
	"context"
	"io"

	"github.com/custodia-labs/askdocs/internal/core/domain"
)

// Upload is a document submitted for ingestion.
type Upload struct {
	// Filename is the client-supplied name; its extension selects the format.
	Filename string

	// Content streams the document bytes.
	Content io.Reader
}

// IngestService adds documents to the knowledge base.
type IngestService interface {
	// Ingest parses, chunks and embeds an upload and appends it to the index.
	// The document is added completely or not at all.
	Ingest(ctx context.Context, upload Upload) (*domain.IngestResult, error)
}

// RebuildService replaces the whole knowledge base from a single document.
type RebuildService interface {
	// Rebuild discards the persisted index and rebuilds it from upload.
	// A non-empty index requires confirm, otherwise domain.ErrRebuildNotConfirmed.
	Rebuild(ctx context.Context, upload Upload, confirm bool) (*domain.IngestResult, error)
}
