package services

import (
	"fmt"
	"math"

	"github.com/custodia-labs/askdocs/internal/core/domain"
)

// CheckEmbeddings verifies an embedder returned one finite vector of dims
// values per input. Anything else is treated as malformed model output.
func CheckEmbeddings(vectors [][]float32, want, dims int) error {
	if len(vectors) != want {
		return fmt.Errorf("%w: expected %d embeddings, got %d", domain.ErrModelUnavailable, want, len(vectors))
	}
	for i, v := range vectors {
		if err := checkVector(v, dims); err != nil {
			return fmt.Errorf("embedding %d: %w", i, err)
		}
	}
	return nil
}

func checkVector(v []float32, dims int) error {
	if len(v) != dims {
		return fmt.Errorf("%w: expected %d dimensions, got %d", domain.ErrModelUnavailable, dims, len(v))
	}
	for _, x := range v {
		f := float64(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("%w: embedding contains non-finite values", domain.ErrModelUnavailable)
		}
	}
	return nil
}
