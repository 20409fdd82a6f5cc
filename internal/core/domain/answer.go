package domain

// Answer is the synthesizer output for one question.
type Answer struct {
	// Text is the synthesizer output, returned verbatim.
	Text string

	// Sources are the passages the answer was grounded on.
	Sources []SearchResult

	// NoContext is true when retrieval returned nothing and the synthesizer
	// was told so explicitly.
	NoContext bool
}

// IngestResult summarises one ingestion.
type IngestResult struct {
	// DocumentID is the ID assigned to the parsed document.
	DocumentID string

	// Filename is the uploaded file name.
	Filename string

	// ChunksAdded is the number of entries appended to the index.
	ChunksAdded int

	// Skipped is true when deduplication found the document already indexed.
	Skipped bool

	// Message is the human-readable outcome.
	Message string
}
