// Package flat provides an exact, brute-force vector index.
//
// An Index is immutable once built. Append copies the entry and magnitude
// slices into a new Index, so a reader holding an older snapshot keeps a
// consistent view while writers publish new ones.
package flat

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"

	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// cancelCheckInterval is how many entries are scored between context checks.
const cancelCheckInterval = 1024

// Index is an immutable exact nearest-neighbour index.
type Index struct {
	dims    int
	metric  domain.DistanceMetric
	entries []domain.IndexEntry
	mags    []float64
}

// New creates an empty index.
func New(dims int, metric domain.DistanceMetric) (*Index, error) {
	if dims <= 0 {
		return nil, fmt.Errorf("%w: index dimensions must be positive, got %d", domain.ErrConfiguration, dims)
	}
	if !metric.IsValid() {
		return nil, fmt.Errorf("%w: unknown distance metric %q", domain.ErrConfiguration, metric)
	}
	return &Index{dims: dims, metric: metric}, nil
}

// Factory creates an empty index. It satisfies driven.VectorIndexFactory.
func Factory(dims int, metric domain.DistanceMetric) (driven.VectorIndex, error) {
	idx, err := New(dims, metric)
	if err != nil {
		return nil, err
	}
	return idx, nil
}

// Build creates an index holding entries.
func Build(ctx context.Context, dims int, metric domain.DistanceMetric, entries []domain.IndexEntry) (*Index, error) {
	idx, err := New(dims, metric)
	if err != nil {
		return nil, err
	}
	return idx.appendEntries(ctx, entries)
}

// Append returns a new index with entries added after the receiver's.
func (x *Index) Append(ctx context.Context, entries []domain.IndexEntry) (driven.VectorIndex, error) {
	next, err := x.appendEntries(ctx, entries)
	if err != nil {
		return nil, err
	}
	return next, nil
}

func (x *Index) appendEntries(ctx context.Context, entries []domain.IndexEntry) (*Index, error) {
	mags := make([]float64, len(entries))
	for i, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(e.Vector) != x.dims {
			return nil, fmt.Errorf("%w: entry %q has %d dimensions, index has %d",
				domain.ErrIndexMismatch, e.ChunkID, len(e.Vector), x.dims)
		}
		m, ok := magnitude(e.Vector)
		if !ok {
			return nil, fmt.Errorf("%w: entry %q has a non-finite vector", domain.ErrInvalidInput, e.ChunkID)
		}
		mags[i] = m
	}

	// Full slice expressions force a fresh backing array for the new snapshot.
	return &Index{
		dims:    x.dims,
		metric:  x.metric,
		entries: append(x.entries[:len(x.entries):len(x.entries)], entries...),
		mags:    append(x.mags[:len(x.mags):len(x.mags)], mags...),
	}, nil
}

// Search returns the k entries closest to query, closest first. Ties keep
// insertion order.
func (x *Index) Search(ctx context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	if len(query) != x.dims {
		return nil, fmt.Errorf("%w: query has %d dimensions, index has %d",
			domain.ErrIndexMismatch, len(query), x.dims)
	}
	if k <= 0 || len(x.entries) == 0 {
		return []driven.VectorHit{}, nil
	}
	qmag, ok := magnitude(query)
	if !ok {
		return nil, fmt.Errorf("%w: query vector is not finite", domain.ErrInvalidInput)
	}

	type scored struct {
		idx      int
		distance float64
		score    float64
	}
	all := make([]scored, len(x.entries))
	for i := range x.entries {
		if i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		d, s := x.compare(query, qmag, i)
		all[i] = scored{idx: i, distance: d, score: s}
	}

	slices.SortStableFunc(all, func(a, b scored) int {
		return cmp.Compare(a.distance, b.distance)
	})

	k = min(k, len(all))
	hits := make([]driven.VectorHit, k)
	for i := range k {
		hits[i] = driven.VectorHit{
			Entry:    x.entries[all[i].idx],
			Score:    all[i].score,
			Distance: all[i].distance,
		}
	}
	return hits, nil
}

// compare returns the distance and score of entry i against the query.
func (x *Index) compare(query []float32, qmag float64, i int) (distance, score float64) {
	v := x.entries[i].Vector
	switch x.metric {
	case domain.MetricL2:
		var sum float64
		for j := range v {
			d := float64(query[j]) - float64(v[j])
			sum += d * d
		}
		distance = math.Sqrt(sum)
		return distance, 1 / (1 + distance)
	default:
		var sim float64
		if qmag > 0 && x.mags[i] > 0 {
			sim = dot(query, v) / (qmag * x.mags[i])
		}
		return 1 - sim, sim
	}
}

// Entries returns the indexed entries in insertion order.
func (x *Index) Entries() []domain.IndexEntry {
	return x.entries
}

// Len returns the number of entries.
func (x *Index) Len() int {
	return len(x.entries)
}

// Dimensions returns the vector size.
func (x *Index) Dimensions() int {
	return x.dims
}

// Metric returns the distance metric.
func (x *Index) Metric() domain.DistanceMetric {
	return x.metric
}

func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}

// magnitude returns the L2 norm of v and false if any component is NaN or Inf.
func magnitude(v []float32) (float64, bool) {
	var s float64
	for _, f := range v {
		if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
			return 0, false
		}
		s += float64(f) * float64(f)
	}
	return math.Sqrt(s), true
}
