package driven

import (
	"context"

	"github.com/custodia-labs/askdocs/internal/core/domain"
)

// VectorIndex is an immutable snapshot of indexed entries supporting exact
// nearest-neighbour search. Append never modifies the receiver; it returns
// a new snapshot, so readers holding the old one are never disturbed.
type VectorIndex interface {
	// Append returns a new index holding the receiver's entries followed by entries.
	// Every vector must match Dimensions. On error the receiver is unchanged.
	Append(ctx context.Context, entries []domain.IndexEntry) (VectorIndex, error)

	// Search finds the k nearest entries to the query vector, closest first.
	// Returns fewer than k hits when the index holds fewer entries and an empty
	// slice when it is empty.
	Search(ctx context.Context, query []float32, k int) ([]VectorHit, error)

	// Entries returns the indexed entries in insertion order.
	// Callers must not modify the returned slice.
	Entries() []domain.IndexEntry

	// Len returns the number of entries.
	Len() int

	// Dimensions returns the vector size.
	Dimensions() int

	// Metric returns the distance metric.
	Metric() domain.DistanceMetric
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// Entry is the matched entry.
	Entry domain.IndexEntry

	// Score is the relevance score; higher is more relevant.
	Score float64

	// Distance is the metric distance; lower is closer.
	Distance float64
}

// IndexStore persists index entries and the manifest describing them.
// Every write is all-or-nothing.
type IndexStore interface {
	// Load reads and verifies the manifest and all entries.
	// Verification failures return domain.ErrCorruptIndex.
	Load(ctx context.Context) (*domain.IndexManifest, []domain.IndexEntry, error)

	// Init stamps the identity on an empty index, creating the manifest if absent.
	// Fails with domain.ErrIndexMismatch if the index already holds entries.
	Init(ctx context.Context, identity domain.IndexIdentity) error

	// Append persists entries after the existing ones and updates the manifest.
	Append(ctx context.Context, entries []domain.IndexEntry) error

	// Replace discards every persisted entry and writes entries under identity.
	Replace(ctx context.Context, identity domain.IndexIdentity, entries []domain.IndexEntry) error

	// Path returns the storage location.
	Path() string

	// Close releases resources.
	Close() error
}

// VectorIndexFactory creates an empty index for the given vector size and metric.
type VectorIndexFactory func(dims int, metric domain.DistanceMetric) (VectorIndex, error)
