// Package chunker provides a boundary-aware text chunking processor.
package chunker

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/custodia-labs/askdocs/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 500

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 50

// Metadata keys set on every chunk.
const (
	MetaChunkIndex = "chunk_index"
	MetaStart      = "start"
	MetaEnd        = "end"
	MetaPage       = "page"
	MetaLine       = "line"
)

// Processor splits document content into overlapping chunks.
// It implements the PostProcessor interface.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		p.chunkSize = size
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		p.overlap = overlap
	}
}

// New creates a new chunker processor with the given options.
// An overlap that is not smaller than the chunk size is a configuration error.
func New(opts ...Option) (*Processor, error) {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	cfg := domain.ChunkingSettings{Size: p.chunkSize, Overlap: p.overlap}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("chunker: %w", err)
	}

	return p, nil
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// ChunkSize returns the maximum chunk length.
func (p *Processor) ChunkSize() int {
	return p.chunkSize
}

// Overlap returns the overlap between consecutive chunks.
func (p *Processor) Overlap() int {
	return p.overlap
}

// Process splits the document content into chunks.
// Input chunks are ignored; this processor creates new chunks from document content.
// Each chunk carries a copy of the document metadata plus its offsets and the
// page (when the document has pages) or line it starts on.
func (p *Processor) Process(ctx context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	if doc.Content == "" {
		return nil, nil
	}

	var lines []int
	if len(doc.PageOffsets) == 0 {
		lines = lineStarts(doc.Content)
	}

	var chunks []domain.Chunk
	for span := range Split(doc.Content, p.chunkSize, p.overlap) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		meta := make(map[string]any, len(doc.Metadata)+4)
		for k, v := range doc.Metadata {
			meta[k] = v
		}
		meta[MetaChunkIndex] = len(chunks)
		meta[MetaStart] = span.Start
		meta[MetaEnd] = span.End
		if len(doc.PageOffsets) > 0 {
			meta[MetaPage] = locate(doc.PageOffsets, span.Start)
		} else {
			meta[MetaLine] = locate(lines, span.Start)
		}

		chunks = append(chunks, domain.Chunk{
			ID:         uuid.New().String(),
			DocumentID: doc.ID,
			Position:   len(chunks),
			Start:      span.Start,
			End:        span.End,
			Content:    span.Text,
			Metadata:   meta,
		})
	}

	return chunks, nil
}

// lineStarts returns the rune offset at which each line begins.
func lineStarts(text string) []int {
	starts := []int{0}
	i := 0
	for _, r := range text {
		i++
		if r == '\n' {
			starts = append(starts, i)
		}
	}
	return starts
}

// locate returns the 1-based index of the region containing offset,
// given the sorted start offsets of each region.
func locate(starts []int, offset int) int {
	idx := sort.Search(len(starts), func(i int) bool { return starts[i] > offset })
	if idx == 0 {
		return 1
	}
	return idx
}
