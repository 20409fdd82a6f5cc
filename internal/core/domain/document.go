package domain

import "time"

// Document represents a parsed upload with provenance metadata.
// It is immutable once chunked and is not retained afterwards; only its chunks persist.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// URI is the original filename or path.
	URI string

	// Title is the human-readable title.
	Title string

	// Format is the detected document format.
	Format DocumentFormat

	// Content is the full text content after parsing.
	Content string

	// PageOffsets holds the rune offset at which each page starts.
	// Empty for formats without pages.
	PageOffsets []int

	// Metadata contains arbitrary key-value pairs.
	Metadata map[string]any

	// CreatedAt is when the document was parsed.
	CreatedAt time.Time
}

// Chunk represents a contiguous span of a Document's text.
// Chunks are the unit of embedding and retrieval.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links to the source Document.
	DocumentID string

	// Position is the ordinal position within the document.
	Position int

	// Start is the rune offset of the first character in the document.
	Start int

	// End is the rune offset one past the last character.
	End int

	// Content is the text content of this chunk.
	Content string

	// Embedding is the vector representation for semantic search.
	Embedding []float32

	// Metadata is a copy of the document metadata plus chunk-specific keys.
	// It is duplicated rather than referenced so entries stay portable.
	Metadata map[string]any
}

// Len returns the chunk length in characters.
func (c Chunk) Len() int {
	return c.End - c.Start
}
