// Package answer assembles the response to a user question: canonical
// mapping, the curated good-answer shortcut, and retrieval of ranked context
// from the vector store. Generation from the returned context is the
// caller's concern.
package answer

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/arqalabs/arqa/pkg/embeddings"
	"github.com/arqalabs/arqa/pkg/goodanswers"
	"github.com/arqalabs/arqa/pkg/qmap"
	"github.com/arqalabs/arqa/pkg/utils"
	"github.com/arqalabs/arqa/pkg/vector"
)

// Answer sources, in order of preference.
const (
	SourceGoodAnswer = "good-answer"
	SourceRetrieval  = "retrieval"
	SourceNone       = "none"
)

const defaultChunkChars = 1200

// Answer is the assembled result for one question.
type Answer struct {
	// Canonical is the resolved canonical phrasing of the question.
	Canonical string

	// Source says where the answer material came from.
	Source string

	// Text is the curated answer when Source is good-answer, empty otherwise.
	Text string

	// Context is the grouped retrieval context when Source is retrieval.
	Context string

	// Hits are the raw retrieval results backing Context.
	Hits []vector.Result
}

// Options configures the answer service.
type Options struct {
	Map       *qmap.Map
	Good      *goodanswers.Store
	Embedder  embeddings.Embedder
	Store     vector.Driver
	TopK      int
	Threshold float32

	// HistoryWindow bounds how many prior questions feed the rewrite.
	HistoryWindow int

	// ChunkChars truncates each context chunk. Zero uses the default.
	ChunkChars int

	Logger *zap.Logger
}

// Service answers questions against the ingested corpus.
type Service struct {
	qmap       *qmap.Map
	good       *goodanswers.Store
	embedder   embeddings.Embedder
	store      vector.Driver
	topK       int
	threshold  float32
	window     int
	chunkChars int
	log        *zap.Logger
}

func New(o Options) *Service {
	chunkChars := o.ChunkChars
	if chunkChars <= 0 {
		chunkChars = defaultChunkChars
	}
	return &Service{
		qmap:       o.Map,
		good:       o.Good,
		embedder:   o.Embedder,
		store:      o.Store,
		topK:       o.TopK,
		threshold:  o.Threshold,
		window:     o.HistoryWindow,
		chunkChars: chunkChars,
		log:        o.Logger,
	}
}

// Ask resolves the question and returns the best available answer material:
// a curated good answer when one matches above the threshold, otherwise
// ranked retrieval context. An empty question or an empty index yields
// Source none rather than an error.
func (s *Service) Ask(ctx context.Context, question string, history []string) (*Answer, error) {
	rewritten := qmap.Rewrite(question, history, s.window)
	if rewritten == "" {
		return &Answer{Source: SourceNone}, nil
	}
	canonical := s.qmap.Resolve(rewritten)

	s.log.Debug("resolved question",
		zap.String("question", question),
		zap.String("rewritten", rewritten),
		zap.String("canonical", canonical),
	)

	matches, err := s.good.Search(ctx, canonical, 1, s.threshold)
	if err != nil {
		return nil, fmt.Errorf("searching good answers: %w", err)
	}
	if len(matches) > 0 {
		s.log.Debug("good answer hit",
			zap.String("canonical", canonical),
			zap.Float32("score", matches[0].Score),
		)
		return &Answer{
			Canonical: canonical,
			Source:    SourceGoodAnswer,
			Text:      matches[0].Answer,
		}, nil
	}

	queryVec, err := s.embedder.Embed(ctx, canonical)
	if err != nil {
		return nil, fmt.Errorf("embedding question: %w", err)
	}

	hits, err := s.store.Query(ctx, queryVec, s.topK)
	if err != nil {
		return nil, fmt.Errorf("querying vector store: %w", err)
	}
	if len(hits) == 0 {
		return &Answer{Canonical: canonical, Source: SourceNone}, nil
	}

	return &Answer{
		Canonical: canonical,
		Source:    SourceRetrieval,
		Context:   s.buildContext(hits),
		Hits:      hits,
	}, nil
}

// buildContext groups hits into per-source sections, keeping rank order
// within and across sections. Chunk text is char-truncated; tags embedded in
// the stored text, like figure context markers, ride along untouched.
func (s *Service) buildContext(hits []vector.Result) string {
	var (
		order    []string
		sections = map[string][]string{}
	)

	for _, hit := range hits {
		if _, seen := sections[hit.Source]; !seen {
			order = append(order, hit.Source)
		}
		sections[hit.Source] = append(sections[hit.Source], utils.Truncate(hit.Text, s.chunkChars))
	}

	var b strings.Builder
	for i, source := range order {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "### %s\n\n%s", source, strings.Join(sections[source], "\n\n"))
	}
	return b.String()
}
