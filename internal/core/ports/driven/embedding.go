package driven

import "context"

// EmbeddingService maps text to vectors of a fixed size.
//
// The same text under the same model must always give the same vector,
// and a failed call returns an error rather than a placeholder vector.
// Dimensions and ModelName together form the index identity, so changing
// either makes an existing index unusable until it is rebuilt.
type EmbeddingService interface {
	// Embed encodes a passage.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns one vector per text, in order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery encodes a question. Models trained with an instruction
	// prefix apply it here, not in Embed.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)

	Dimensions() int
	ModelName() string

	Ping(ctx context.Context) error
	Close() error
}
