package domain

import "time"

// IndexFormatVersion is the persisted index layout version this build reads and writes.
const IndexFormatVersion = 1

// DistanceMetric is the vector comparison used by the index.
type DistanceMetric string

// Supported distance metrics.
const (
	// MetricCosine ranks by cosine similarity.
	MetricCosine DistanceMetric = "cosine"

	// MetricL2 ranks by Euclidean distance.
	MetricL2 DistanceMetric = "l2"
)

// IsValid returns true if the metric is recognised.
func (m DistanceMetric) IsValid() bool {
	return m == MetricCosine || m == MetricL2
}

// String returns the string representation.
func (m DistanceMetric) String() string {
	return string(m)
}

// Description returns a human-readable description of the metric.
func (m DistanceMetric) Description() string {
	switch m {
	case MetricCosine:
		return "Cosine similarity"
	case MetricL2:
		return "Euclidean (L2) distance"
	default:
		return unknownDescription
	}
}

// IndexEntry is one (chunk text, vector, metadata) triple held by the index.
type IndexEntry struct {
	// ChunkID is the unique identifier of the chunk.
	ChunkID string

	// DocumentID is the document the chunk came from.
	DocumentID string

	// Position is the chunk ordinal within its document.
	Position int

	// Content is the chunk text.
	Content string

	// Vector is the chunk embedding.
	Vector []float32

	// Metadata is the duplicated document and chunk metadata.
	Metadata map[string]any
}

// EntryFromChunk builds an index entry from an embedded chunk.
func EntryFromChunk(c Chunk) IndexEntry {
	return IndexEntry{
		ChunkID:    c.ID,
		DocumentID: c.DocumentID,
		Position:   c.Position,
		Content:    c.Content,
		Vector:     c.Embedding,
		Metadata:   c.Metadata,
	}
}

// IndexIdentity captures the settings every entry in an index was produced with.
// Entries produced under a different identity are not comparable.
type IndexIdentity struct {
	// EmbeddingModel is the embedding model name.
	EmbeddingModel string

	// Dimensions is the vector length.
	Dimensions int

	// Metric is the distance metric.
	Metric DistanceMetric

	// ChunkSize is the maximum chunk length in characters.
	ChunkSize int

	// ChunkOverlap is the overlap between consecutive chunks.
	ChunkOverlap int
}

// Equal reports whether two identities are interchangeable.
func (i IndexIdentity) Equal(other IndexIdentity) bool {
	return i == other
}

// IndexManifest describes a persisted index.
type IndexManifest struct {
	IndexIdentity

	// FormatVersion is the persisted layout version.
	FormatVersion int

	// Count is the number of entries.
	Count int

	// Checksum is the chained SHA-256 over all entries, hex encoded.
	Checksum string

	// CreatedAt is when the index was first created.
	CreatedAt time.Time

	// UpdatedAt is when the index was last written.
	UpdatedAt time.Time
}
