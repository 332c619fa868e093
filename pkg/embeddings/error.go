package embeddings

import "errors"

var (
	// ErrEmbedding is returned when a provider call fails or returns an
	// unusable vector.
	ErrEmbedding = errors.New("embedding request failed")

	// ErrDimensionMismatch is returned when a provider returns a vector whose
	// width differs from the configured dimension.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrUnknownProvider is returned by the factory for an unrecognized
	// embedding provider name.
	ErrUnknownProvider = errors.New("unknown embedding provider")
)
