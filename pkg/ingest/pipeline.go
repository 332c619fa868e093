// Package ingest drives the document→chunk→vector pipeline. Documents are
// processed best-effort: a document that fails to load or embed is logged and
// skipped, and its chunks are never persisted, so the vector and metadata
// artifacts stay aligned at document granularity.
package ingest

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/arqalabs/arqa/pkg/chunk"
	"github.com/arqalabs/arqa/pkg/document"
	"github.com/arqalabs/arqa/pkg/embeddings"
	"github.com/arqalabs/arqa/pkg/vector"
)

const defaultWorkers = 4

// Pipeline ingests documents into a vector store.
type Pipeline struct {
	splitter *chunk.Splitter
	embedder embeddings.Embedder
	store    vector.Driver
	log      *zap.Logger

	// maxChunks caps chunks per document across all of its blocks.
	// Zero means unlimited.
	maxChunks int

	// workers bounds concurrent embedding calls per document.
	workers int
}

type Options struct {
	Splitter  *chunk.Splitter
	Embedder  embeddings.Embedder
	Store     vector.Driver
	MaxChunks int
	Workers   int
	Logger    *zap.Logger
}

func New(o Options) *Pipeline {
	workers := o.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Pipeline{
		splitter:  o.Splitter,
		embedder:  o.Embedder,
		store:     o.Store,
		log:       o.Logger,
		maxChunks: o.MaxChunks,
		workers:   workers,
	}
}

// IngestPaths ingests every path, skipping documents that fail to load or
// embed. The returned report carries a fresh run ID and one entry per
// document, success or failure.
func (p *Pipeline) IngestPaths(ctx context.Context, paths []string) (*Report, error) {
	report := &Report{RunID: uuid.NewString()}

	p.log.Info("starting ingestion",
		zap.String("run_id", report.RunID),
		zap.Int("documents", len(paths)),
	)

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		docReport, err := p.ingestDocument(ctx, path)
		if err != nil {
			p.log.Warn("skipping document",
				zap.String("run_id", report.RunID),
				zap.String("path", path),
				zap.Error(err),
			)
			report.Failures = append(report.Failures, Failure{Path: path, Err: err})
			continue
		}

		report.Documents = append(report.Documents, *docReport)
		report.Chunks += docReport.Chunks
		report.Dropped += docReport.Dropped
	}

	p.log.Info("ingestion finished",
		zap.String("run_id", report.RunID),
		zap.Int("ingested", len(report.Documents)),
		zap.Int("chunks", report.Chunks),
		zap.Int("dropped", report.Dropped),
		zap.Int("failures", len(report.Failures)),
	)

	return report, nil
}

// ingestDocument runs one document through load, segmentation, embedding and
// a single paired store write. Any error leaves the store untouched for this
// document.
func (p *Pipeline) ingestDocument(ctx context.Context, path string) (*DocumentReport, error) {
	doc, err := document.Load(path)
	if err != nil {
		return nil, err
	}

	texts, metas, dropped := p.segment(doc)
	if len(texts) == 0 {
		return &DocumentReport{Path: doc.Path, Name: doc.Name, Dropped: dropped}, nil
	}

	vectors, err := p.embedOrdered(ctx, texts)
	if err != nil {
		return nil, err
	}

	if _, err := p.store.Add(ctx, vectors, metas); err != nil {
		return nil, fmt.Errorf("persisting chunks: %w", err)
	}

	p.log.Debug("ingested document",
		zap.String("path", doc.Path),
		zap.Int("chunks", len(texts)),
		zap.Int("dropped", dropped),
	)

	return &DocumentReport{
		Path:    doc.Path,
		Name:    doc.Name,
		Chunks:  len(texts),
		Dropped: dropped,
	}, nil
}

// segment splits every block and applies the per-document chunk cap across
// blocks. Figure chunks carry their tag in the stored text so it survives
// into retrieval context.
func (p *Pipeline) segment(doc *document.Document) ([]string, []vector.Metadata, int) {
	var (
		texts   []string
		metas   []vector.Metadata
		dropped int
	)

	for _, block := range doc.Blocks {
		chunks, blockDropped := p.splitter.Split(block.Text, block.Kind)
		dropped += blockDropped

		for _, text := range chunks {
			if p.maxChunks > 0 && len(texts) >= p.maxChunks {
				dropped++
				continue
			}
			if block.Kind == chunk.KindFigure {
				text = "[FIGURE CONTEXT] " + text
			}
			texts = append(texts, text)
			metas = append(metas, vector.Metadata{
				Source: doc.Name,
				Path:   doc.Path,
				Text:   text,
				Page:   block.Page,
			})
		}
	}

	return texts, metas, dropped
}

// embedOrdered embeds texts with bounded concurrency, preserving positional
// order so vectors stay paired with their metadata. The first failure cancels
// the rest.
func (p *Pipeline) embedOrdered(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, text := range texts {
		g.Go(func() error {
			vec, err := p.embedder.Embed(gctx, text)
			if err != nil {
				return fmt.Errorf("embedding chunk %d: %w", i, err)
			}
			vectors[i] = vec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return vectors, nil
}
