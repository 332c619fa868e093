// Package embeddings turns text into fixed-dimension vectors through a
// provider-agnostic gateway. Drivers live in subpackages; the content-hash
// cache wraps any driver so repeated texts never hit the provider twice.
package embeddings

import (
	"context"
	"fmt"

	"github.com/arqalabs/arqa/pkg/utils"
)

// Embedder converts a single text into its embedding vector.
type Embedder interface {
	// Embed returns the vector for text. The dimension is fixed per driver
	// configuration and identical across calls.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions reports the width of vectors this embedder produces.
	Dimensions() int

	// Close releases driver resources.
	Close() error
}

// EmbedAll embeds every text in order, aborting on the first failure. The
// returned error names the offending text so a caller can tell which chunk
// of a batch broke the run.
func EmbedAll(ctx context.Context, e Embedder, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embedding text %d (%s): %w", i, utils.Truncate(text, 80), err)
		}
		vectors[i] = vec
	}
	return vectors, nil
}
