package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
	"github.com/custodia-labs/askdocs/internal/core/ports/driving"
	"github.com/custodia-labs/askdocs/internal/logger"
)

// Ensure IndexHandle implements the interface.
var _ driving.IndexService = (*IndexHandle)(nil)

// indexState is one published generation of the index.
type indexState struct {
	index    driven.VectorIndex
	identity domain.IndexIdentity
}

// IndexHandle is the shared owner of the vector index.
//
// Readers take a snapshot without locking. Writers serialise on mu, persist
// first and only then publish the next snapshot, so a reader never sees
// entries that are not durable and never sees half a batch.
type IndexHandle struct {
	mu      sync.Mutex
	state   atomic.Pointer[indexState]
	store   driven.IndexStore
	factory driven.VectorIndexFactory
	want    domain.IndexIdentity
}

// OpenOptions controls how OpenIndex treats a persisted index.
type OpenOptions struct {
	// AllowMismatch opens a populated index built with different settings
	// instead of failing. Commits are refused until Replace installs entries
	// built with the wanted identity. Used by rebuild.
	AllowMismatch bool
}

// OpenIndex loads and verifies the persisted index and returns a handle serving it.
//
// An uninitialised or empty index is stamped with identity. A populated index
// built under a different identity is rejected with domain.ErrIndexMismatch
// unless opts.AllowMismatch is set.
func OpenIndex(
	ctx context.Context,
	store driven.IndexStore,
	factory driven.VectorIndexFactory,
	identity domain.IndexIdentity,
	opts OpenOptions,
) (*IndexHandle, error) {
	manifest, entries, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load index: %w", err)
	}

	current := identity
	switch {
	case manifest == nil || manifest.Count == 0:
		if manifest == nil || !manifest.IndexIdentity.Equal(identity) {
			if err := store.Init(ctx, identity); err != nil {
				return nil, fmt.Errorf("initialise index: %w", err)
			}
		}
		entries = nil
	case !manifest.IndexIdentity.Equal(identity):
		if !opts.AllowMismatch {
			return nil, fmt.Errorf("%w: index at %s has %d entries from %s (%d dims, chunks %d/%d), configured %s (%d dims, chunks %d/%d); run `askdocs rebuild`",
				domain.ErrIndexMismatch, store.Path(), manifest.Count,
				manifest.EmbeddingModel, manifest.Dimensions, manifest.ChunkSize, manifest.ChunkOverlap,
				identity.EmbeddingModel, identity.Dimensions, identity.ChunkSize, identity.ChunkOverlap)
		}
		logger.Warn("Index was built with %s; it must be rebuilt before new documents can be added", manifest.EmbeddingModel)
		current = manifest.IndexIdentity
	}

	idx, err := build(ctx, factory, current, entries)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrCorruptIndex, err)
	}

	h := &IndexHandle{store: store, factory: factory, want: identity}
	h.state.Store(&indexState{index: idx, identity: current})
	logger.Debug("Opened index %s: %d entries", store.Path(), idx.Len())
	return h, nil
}

// Snapshot returns the currently published index. The snapshot is immutable;
// later commits publish a new one without disturbing it.
func (h *IndexHandle) Snapshot() driven.VectorIndex {
	return h.state.Load().index
}

// Identity returns the identity of the published index.
func (h *IndexHandle) Identity() domain.IndexIdentity {
	return h.state.Load().identity
}

// Info returns a summary of the current index snapshot.
func (h *IndexHandle) Info() driving.IndexInfo {
	st := h.state.Load()
	return driving.IndexInfo{
		Path:     h.store.Path(),
		Identity: st.identity,
		Count:    st.index.Len(),
	}
}

// Commit appends entries, persists them and then publishes the new snapshot.
// On any error the published snapshot and the persisted index are unchanged.
func (h *IndexHandle) Commit(ctx context.Context, entries []domain.IndexEntry) error {
	_, err := h.CommitUnless(ctx, entries, nil)
	return err
}

// CommitUnless is Commit with a check made while holding the writer lock.
// When skip reports true for the current snapshot nothing is written and
// committed is false.
func (h *IndexHandle) CommitUnless(
	ctx context.Context,
	entries []domain.IndexEntry,
	skip func(driven.VectorIndex) bool,
) (committed bool, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	st := h.state.Load()
	if !st.identity.Equal(h.want) {
		return false, fmt.Errorf("%w: run `askdocs rebuild` before adding documents", domain.ErrIndexMismatch)
	}
	if skip != nil && skip(st.index) {
		return false, nil
	}
	if len(entries) == 0 {
		return true, nil
	}

	next, err := st.index.Append(ctx, entries)
	if err != nil {
		return false, fmt.Errorf("append to index: %w", err)
	}
	if err := h.store.Append(ctx, entries); err != nil {
		return false, fmt.Errorf("persist index: %w", err)
	}

	h.state.Store(&indexState{index: next, identity: st.identity})
	logger.Debug("Committed %d entries (%d total)", len(entries), next.Len())
	return true, nil
}

// Replace discards every entry and installs entries built under identity.
// The new snapshot is published only after the store has replaced its contents.
func (h *IndexHandle) Replace(ctx context.Context, identity domain.IndexIdentity, entries []domain.IndexEntry) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	next, err := build(ctx, h.factory, identity, entries)
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}
	if err := h.store.Replace(ctx, identity, entries); err != nil {
		return fmt.Errorf("persist index: %w", err)
	}

	h.want = identity
	h.state.Store(&indexState{index: next, identity: identity})
	logger.Debug("Replaced index: %d entries", next.Len())
	return nil
}

func build(
	ctx context.Context,
	factory driven.VectorIndexFactory,
	identity domain.IndexIdentity,
	entries []domain.IndexEntry,
) (driven.VectorIndex, error) {
	idx, err := factory(identity.Dimensions, identity.Metric)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return idx, nil
	}
	return idx.Append(ctx, entries)
}
