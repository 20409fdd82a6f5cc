package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/custodia-labs/askdocs/internal/adapters/driven/storage/codec"
	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
)

// Ensure IndexStore implements the interface.
var _ driven.IndexStore = (*IndexStore)(nil)

// IndexStore is an in-memory implementation of driven.IndexStore for testing.
type IndexStore struct {
	mu       sync.RWMutex
	manifest *domain.IndexManifest
	entries  []domain.IndexEntry
	failWith error
	writes   int
}

// NewIndexStore creates a new, uninitialised in-memory index store.
func NewIndexStore() *IndexStore {
	return &IndexStore{}
}

// FailWrites makes every subsequent Init, Append and Replace return err.
// Pass nil to restore normal behaviour.
func (s *IndexStore) FailWrites(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWith = err
}

// Writes returns the number of successful writes.
func (s *IndexStore) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}

// Load returns copies of the manifest and entries.
func (s *IndexStore) Load(ctx context.Context) (*domain.IndexManifest, []domain.IndexEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.manifest == nil {
		return nil, nil, nil
	}
	m := *s.manifest
	entries := make([]domain.IndexEntry, len(s.entries))
	for i, e := range s.entries {
		entries[i] = clone(e)
	}
	return &m, entries, nil
}

// Init stamps identity on an empty index, creating the manifest if absent.
func (s *IndexStore) Init(ctx context.Context, identity domain.IndexIdentity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}

	now := time.Now().UTC()
	switch {
	case s.manifest == nil:
		s.manifest = &domain.IndexManifest{
			IndexIdentity: identity,
			FormatVersion: domain.IndexFormatVersion,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
	case s.manifest.IndexIdentity.Equal(identity):
		return nil
	case s.manifest.Count > 0:
		return fmt.Errorf("%w: index holds %d entries", domain.ErrIndexMismatch, s.manifest.Count)
	default:
		s.manifest.IndexIdentity = identity
		s.manifest.UpdatedAt = now
	}
	s.writes++
	return nil
}

// Append stores entries after the existing ones.
func (s *IndexStore) Append(ctx context.Context, entries []domain.IndexEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	if s.manifest == nil {
		return fmt.Errorf("%w: index is not initialised", domain.ErrIndexNotFound)
	}
	if err := checkDims(entries, s.manifest.Dimensions); err != nil {
		return err
	}

	next := slices.Clone(s.entries)
	for _, e := range entries {
		next = append(next, clone(e))
	}
	sum, err := codec.Checksum(next)
	if err != nil {
		return err
	}
	s.entries = next
	s.manifest.Count = len(next)
	s.manifest.Checksum = sum
	s.manifest.UpdatedAt = time.Now().UTC()
	s.writes++
	return nil
}

// Replace discards every entry and stores entries under identity.
func (s *IndexStore) Replace(ctx context.Context, identity domain.IndexIdentity, entries []domain.IndexEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	if err := checkDims(entries, identity.Dimensions); err != nil {
		return err
	}

	next := make([]domain.IndexEntry, len(entries))
	for i, e := range entries {
		next[i] = clone(e)
	}
	sum, err := codec.Checksum(next)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	s.entries = next
	s.manifest = &domain.IndexManifest{
		IndexIdentity: identity,
		FormatVersion: domain.IndexFormatVersion,
		Count:         len(next),
		Checksum:      sum,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	s.writes++
	return nil
}

// Path returns the storage location.
func (s *IndexStore) Path() string {
	return ":memory:"
}

// Close releases resources (no-op for memory store).
func (s *IndexStore) Close() error {
	return nil
}

func checkDims(entries []domain.IndexEntry, dims int) error {
	for _, e := range entries {
		if len(e.Vector) != dims {
			return fmt.Errorf("%w: entry %s has %d dimensions, index has %d",
				domain.ErrIndexMismatch, e.ChunkID, len(e.Vector), dims)
		}
	}
	return nil
}

func clone(e domain.IndexEntry) domain.IndexEntry {
	e.Vector = slices.Clone(e.Vector)
	e.Metadata = maps.Clone(e.Metadata)
	return e
}
