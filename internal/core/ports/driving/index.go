package driving

import "github.com/custodia-labs/askdocs/internal/core/domain"

// IndexInfo describes the index currently being served.
type IndexInfo struct {
	// Path is the persisted index location.
	Path string

	// Identity is the model and chunking the entries were produced with.
	Identity domain.IndexIdentity

	// Count is the number of entries.
	Count int
}

// IndexService exposes read-only information about the served index.
type IndexService interface {
	// Info returns a summary of the current index snapshot.
	Info() IndexInfo
}
