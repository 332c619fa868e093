// Package goodanswers is a curated question→answer store consulted before
// retrieval. Records append to a CSV file; lookups are a linear cosine scan
// over the stored questions' embeddings, which the content-hash cache
// amortizes to zero provider calls after first sight. Intended scale is
// hundreds to low thousands of curated records.
package goodanswers

import (
	"context"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/arqalabs/arqa/pkg/embeddings"
)

// Record is one curated question→answer pair.
type Record struct {
	Question string
	Answer   string
}

// Match is a search hit with its similarity to the query.
type Match struct {
	Record
	Score float32
}

// Store holds the curated records and answers similarity lookups.
type Store struct {
	path     string
	embedder embeddings.Embedder
	log      *zap.Logger

	mu      sync.RWMutex
	records []Record
}

// Open loads the CSV record file. A missing file is an empty store.
func Open(path string, embedder embeddings.Embedder, log *zap.Logger) (*Store, error) {
	s := &Store{path: path, embedder: embedder, log: log}

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening good answers %s: %w", path, err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing good answers %s: %w", path, err)
	}
	for i, row := range rows {
		if len(row) < 2 {
			return nil, fmt.Errorf("good answers %s: record %d has %d fields, want 2", path, i+1, len(row))
		}
		s.records = append(s.records, Record{Question: row[0], Answer: row[1]})
	}

	log.Debug("loaded good answers", zap.String("path", path), zap.Int("records", len(s.records)))
	return s, nil
}

// Add appends the record to the CSV file and warms the embedding cache for
// the question so the next Search pays no provider call for it.
func (s *Store) Add(ctx context.Context, question, answer string) error {
	if question == "" {
		return fmt.Errorf("good answer question cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating good answers dir: %w", err)
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening good answers %s: %w", s.path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{question, answer}); err != nil {
		return fmt.Errorf("appending good answer: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("appending good answer: %w", err)
	}

	s.records = append(s.records, Record{Question: question, Answer: answer})

	if _, err := s.embedder.Embed(ctx, question); err != nil {
		s.log.Warn("failed to warm embedding for good answer",
			zap.String("question", question), zap.Error(err))
	}

	return nil
}

// Search returns stored records whose question embedding has cosine
// similarity ≥ threshold against the query, descending, truncated to topK.
// An empty store returns an empty result.
func (s *Store) Search(ctx context.Context, query string, topK int, threshold float32) ([]Match, error) {
	s.mu.RLock()
	records := make([]Record, len(s.records))
	copy(records, s.records)
	s.mu.RUnlock()

	if len(records) == 0 || topK <= 0 {
		return []Match{}, nil
	}

	queryVec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	matches := make([]Match, 0, len(records))
	for _, rec := range records {
		vec, err := s.embedder.Embed(ctx, rec.Question)
		if err != nil {
			return nil, fmt.Errorf("embedding stored question %q: %w", rec.Question, err)
		}
		score := cosine(queryVec, vec)
		if score >= threshold {
			matches = append(matches, Match{Record: rec, Score: score})
		}
	}

	sort.SliceStable(matches, func(a, b int) bool {
		return matches[a].Score > matches[b].Score
	})

	if topK < len(matches) {
		matches = matches[:topK]
	}
	return matches, nil
}

// Len reports the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func cosine(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
