// Package ollama implements the embedding driver for a local Ollama server.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/arqalabs/arqa/pkg/embeddings"
)

const defaultTarget = "http://localhost:11434"

type embedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
	Error     string    `json:"error"`
}

type Options struct {
	// Target is the Ollama base URL. Defaults to http://localhost:11434.
	Target string

	// Model names the embedding model, e.g. "nomic-embed-text".
	Model string

	// Dimensions is the expected vector width. Responses of any other width
	// are rejected.
	Dimensions int

	// Rate caps provider calls per second. Zero means unlimited.
	Rate float64
}

type driver struct {
	target  string
	model   string
	dims    int
	client  *http.Client
	limiter *rate.Limiter
	log     *zap.Logger
}

// New builds an Ollama embedding driver.
func New(opts Options, log *zap.Logger) *driver {
	target := opts.Target
	if target == "" {
		target = defaultTarget
	}

	var limiter *rate.Limiter
	if opts.Rate > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.Rate), 1)
	}

	return &driver{
		target:  strings.TrimRight(target, "/"),
		model:   opts.Model,
		dims:    opts.Dimensions,
		client:  &http.Client{Timeout: 2 * time.Minute},
		limiter: limiter,
		log:     log,
	}
}

func (d *driver) Embed(ctx context.Context, text string) ([]float32, error) {
	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %v", embeddings.ErrEmbedding, err)
		}
	}

	payload, err := json.Marshal(embedRequest{Model: d.model, Prompt: text})
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %v", embeddings.ErrEmbedding, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.target+"/api/embeddings", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", embeddings.ErrEmbedding, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", embeddings.ErrEmbedding, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: status %d: %s", embeddings.ErrEmbedding, resp.StatusCode, string(body))
	}

	var response embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", embeddings.ErrEmbedding, err)
	}
	if response.Error != "" {
		return nil, fmt.Errorf("%w: %s", embeddings.ErrEmbedding, response.Error)
	}

	if d.dims > 0 && len(response.Embedding) != d.dims {
		return nil, fmt.Errorf("%w: got %d dimensions, want %d", embeddings.ErrDimensionMismatch, len(response.Embedding), d.dims)
	}

	return response.Embedding, nil
}

func (d *driver) Dimensions() int {
	return d.dims
}

func (d *driver) Close() error {
	return nil
}
