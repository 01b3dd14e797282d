// Package embedding turns chunk text into fixed-dimension vectors via
// an external embedding provider.
package embedding

import "context"

// Embedder converts text into a fixed-dimension vector. Dimension
// must equal the vector store's configured column width; a mismatch
// is a configuration error surfaced at store initialization.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)
	Dimension() int
}
