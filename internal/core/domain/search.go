package domain

// SearchResult represents a single retrieved passage.
type SearchResult struct {
	// Entry is the matched index entry.
	Entry IndexEntry

	// Score is the relevance score; higher is more relevant.
	Score float64

	// Distance is the raw distance under the index metric; lower is closer.
	Distance float64
}

// RetrievalResult is the ordered context for one question.
// Results are ordered by decreasing relevance and never exceed k.
type RetrievalResult struct {
	// Question is the query text.
	Question string

	// Results are the retrieved passages.
	Results []SearchResult
}

// IsEmpty returns true when nothing was retrieved.
func (r *RetrievalResult) IsEmpty() bool {
	return r == nil || len(r.Results) == 0
}

// Texts returns the passage texts in relevance order.
func (r *RetrievalResult) Texts() []string {
	if r == nil {
		return nil
	}
	texts := make([]string, len(r.Results))
	for i, res := range r.Results {
		texts[i] = res.Entry.Content
	}
	return texts
}
