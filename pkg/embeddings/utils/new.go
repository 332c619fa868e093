// Package embeddingutils is the embeddings utility package
package embeddingutils

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/arqalabs/arqa/pkg/embeddings"
	"github.com/arqalabs/arqa/pkg/embeddings/ollama"
	"github.com/arqalabs/arqa/pkg/embeddings/openai"
)

type NewEmbedderOpts struct {
	ProviderType string
	TargetURL    string
	Model        string
	Dimensions   int
	Rate         float64
	CachePath    string
	Logger       *zap.Logger
}

// NewEmbedder builds the configured embedding driver. When CachePath is set
// the driver is wrapped in a persistent content-hash cache, loaded before
// return.
func NewEmbedder(o *NewEmbedderOpts) (embeddings.Embedder, error) {
	var (
		driver embeddings.Embedder
		err    error
	)

	switch o.ProviderType {
	case "openai":
		driver, err = openai.New(openai.Options{
			Target:     o.TargetURL,
			Model:      o.Model,
			Dimensions: o.Dimensions,
			Rate:       o.Rate,
		}, o.Logger)
		if err != nil {
			return nil, err
		}
	case "ollama":
		driver = ollama.New(ollama.Options{
			Target:     o.TargetURL,
			Model:      o.Model,
			Dimensions: o.Dimensions,
			Rate:       o.Rate,
		}, o.Logger)
	default:
		return nil, fmt.Errorf("%w: %s", embeddings.ErrUnknownProvider, o.ProviderType)
	}

	if o.CachePath == "" {
		return driver, nil
	}

	cache := embeddings.NewCache(driver, o.CachePath, o.Logger)
	if err := cache.Load(); err != nil {
		return nil, err
	}
	return cache, nil
}
