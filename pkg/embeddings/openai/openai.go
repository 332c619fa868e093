// Package openai implements the embedding driver for the OpenAI embeddings
// API and compatible endpoints.
package openai

import (
	"context"
	"fmt"
	"os"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/arqalabs/arqa/pkg/embeddings"
)

type Options struct {
	// Target overrides the API base URL, for OpenAI-compatible endpoints.
	Target string

	// APIKey authenticates requests. Falls back to OPENAI_API_KEY.
	APIKey string

	// Model names the embedding model, e.g. "text-embedding-3-small".
	Model string

	// Dimensions is the expected vector width. Responses of any other width
	// are rejected.
	Dimensions int

	// Rate caps provider calls per second. Zero means unlimited.
	Rate float64
}

type driver struct {
	client  openai.Client
	model   string
	dims    int
	limiter *rate.Limiter
	log     *zap.Logger
}

// New builds an OpenAI embedding driver.
func New(opts Options, log *zap.Logger) (*driver, error) {
	key := opts.APIKey
	if key == "" {
		key = os.Getenv("OPENAI_API_KEY")
	}
	if key == "" {
		return nil, fmt.Errorf("%w: no API key configured", embeddings.ErrEmbedding)
	}

	clientOpts := []option.RequestOption{option.WithAPIKey(key)}
	if opts.Target != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(opts.Target))
	}

	var limiter *rate.Limiter
	if opts.Rate > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.Rate), 1)
	}

	return &driver{
		client:  openai.NewClient(clientOpts...),
		model:   opts.Model,
		dims:    opts.Dimensions,
		limiter: limiter,
		log:     log,
	}, nil
}

func (d *driver) Embed(ctx context.Context, text string) ([]float32, error) {
	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %v", embeddings.ErrEmbedding, err)
		}
	}

	resp, err := d.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
		Model: openai.EmbeddingModel(d.model),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", embeddings.ErrEmbedding, err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("%w: empty response", embeddings.ErrEmbedding)
	}

	raw := resp.Data[0].Embedding
	if d.dims > 0 && len(raw) != d.dims {
		return nil, fmt.Errorf("%w: got %d dimensions, want %d", embeddings.ErrDimensionMismatch, len(raw), d.dims)
	}

	vec := make([]float32, len(raw))
	for i, v := range raw {
		vec[i] = float32(v)
	}
	return vec, nil
}

func (d *driver) Dimensions() int {
	return d.dims
}

func (d *driver) Close() error {
	return nil
}
