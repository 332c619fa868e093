// Package vector provides interfaces and implementations for persistent
// vector index storage and similarity search.
package vector

import "context"

// Metadata is the per-chunk record stored alongside each vector. Row i of the
// vector matrix and record i of the metadata list describe the same chunk.
type Metadata struct {
	// Source is the display name of the originating document.
	Source string `json:"source"`

	// Path is the filesystem path the document was ingested from.
	Path string `json:"path"`

	// Text is the chunk text itself.
	Text string `json:"text"`

	// Page is the 1-based page number for paginated formats, zero otherwise.
	Page int `json:"page,omitempty"`
}

// Result is a search hit with its similarity score.
type Result struct {
	Metadata

	// Score is cosine similarity, higher is more similar.
	Score float32
}

// Driver handles storage and retrieval of chunk vectors.
type Driver interface {
	// Add appends vectors with their metadata in one atomic batch and
	// returns the number of records added, 0 for an empty batch. Vectors
	// and metas must be equal length.
	Add(ctx context.Context, vectors [][]float32, metas []Metadata) (int, error)

	// Query returns the topK most similar stored chunks, descending by
	// score. An empty store returns an empty slice.
	Query(ctx context.Context, embedding []float32, topK int) ([]Result, error)

	// Count reports the number of stored vectors.
	Count(ctx context.Context) (int, error)

	// Close releases any resources held by the driver.
	Close() error
}
