// Package flat provides a file-backed flat vector index with exact cosine
// search. The index persists as a pair of artifacts: a binary vector matrix
// and an ordered JSON metadata list. The pair is written atomically and
// validated on open, so a partial state is always detected loudly instead of
// silently misattributing search hits.
package flat

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/gofrs/flock"
	"go.uber.org/zap"

	"github.com/arqalabs/arqa/pkg/vector"
)

const vecMagic = uint32(0x41515621) // "AQV!"

// Config holds configuration for the flat store.
type Config struct {
	// Dir is the directory holding the artifact pair.
	Dir string

	// Collection names the artifact pair: <collection>.vec and
	// <collection>_meta.json.
	Collection string

	// Dimensions is the vector width. All stored and queried vectors must
	// match it.
	Dimensions uint
}

// Store is a flat cosine-similarity index. Vectors are L2-normalized on the
// way in so inner product equals cosine similarity at query time.
type Store struct {
	dir        string
	collection string
	dims       int
	logger     *zap.Logger

	mu      sync.RWMutex
	vectors [][]float32
	metas   []vector.Metadata
}

// Open loads the artifact pair for the collection, or starts empty when
// neither artifact exists. Exactly one artifact present, or artifacts with
// differing record counts, is corruption and fails with ErrStateMismatch.
func Open(c Config, logger *zap.Logger) (*Store, error) {
	if c.Dimensions == 0 {
		return nil, fmt.Errorf("flat store dimensions cannot be 0, must be configured")
	}
	if c.Collection == "" {
		return nil, fmt.Errorf("flat store collection name is required")
	}
	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating store dir: %w", err)
	}

	s := &Store{
		dir:        c.Dir,
		collection: c.Collection,
		dims:       int(c.Dimensions),
		logger:     logger,
	}

	if err := s.load(); err != nil {
		return nil, err
	}

	logger.Debug("flat vector store opened",
		zap.String("collection", c.Collection),
		zap.Int("count", len(s.vectors)),
		zap.Int("dimensions", s.dims),
	)

	return s, nil
}

func (s *Store) vecPath() string {
	return filepath.Join(s.dir, s.collection+".vec")
}

func (s *Store) metaPath() string {
	return filepath.Join(s.dir, s.collection+"_meta.json")
}

func (s *Store) lockPath() string {
	return filepath.Join(s.dir, s.collection+".lock")
}

func (s *Store) load() error {
	_, vecErr := os.Stat(s.vecPath())
	_, metaErr := os.Stat(s.metaPath())

	vecExists := vecErr == nil
	metaExists := metaErr == nil

	if !vecExists && !metaExists {
		s.vectors = nil
		s.metas = nil
		return nil
	}
	if vecExists != metaExists {
		missing := s.vecPath()
		if vecExists {
			missing = s.metaPath()
		}
		return fmt.Errorf("%w: %s is missing", vector.ErrStateMismatch, missing)
	}

	vectors, err := readMatrix(s.vecPath(), s.dims)
	if err != nil {
		return err
	}

	metaData, err := os.ReadFile(s.metaPath())
	if err != nil {
		return fmt.Errorf("reading %s: %w", s.metaPath(), err)
	}
	var metas []vector.Metadata
	if err := json.Unmarshal(metaData, &metas); err != nil {
		return fmt.Errorf("parsing %s: %w", s.metaPath(), err)
	}

	if len(vectors) != len(metas) {
		return fmt.Errorf("%w: %d vectors but %d metadata records",
			vector.ErrStateMismatch, len(vectors), len(metas))
	}

	s.vectors = vectors
	s.metas = metas
	return nil
}

// Add normalizes and appends the batch, then persists both artifacts under an
// advisory file lock. The on-disk pair is re-read under the lock so records
// appended through other handles on the same collection survive this append.
// Nothing is persisted unless the whole batch is valid. Returns the number of
// records added, 0 for an empty batch.
func (s *Store) Add(_ context.Context, vectors [][]float32, metas []vector.Metadata) (int, error) {
	if len(vectors) != len(metas) {
		return 0, fmt.Errorf("%w: %d vectors, %d metadata records",
			vector.ErrLengthMismatch, len(vectors), len(metas))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(vectors) == 0 {
		return 0, nil
	}

	normalized := make([][]float32, len(vectors))
	for i, vec := range vectors {
		if len(vec) != s.dims {
			return 0, fmt.Errorf("%w: vector %d has %d dimensions, want %d",
				vector.ErrDimensionMismatch, i, len(vec), s.dims)
		}
		normalized[i] = normalize(vec)
	}

	lock := flock.New(s.lockPath())
	if err := lock.Lock(); err != nil {
		return 0, fmt.Errorf("locking store: %w", err)
	}
	defer lock.Unlock()

	// The in-memory state may predate appends made by another writer since
	// this handle loaded; reload the pair so those records are kept.
	if err := s.load(); err != nil {
		return 0, err
	}

	newVectors := append(s.vectors, normalized...)
	newMetas := append(s.metas, metas...)

	if err := s.persist(newVectors, newMetas); err != nil {
		return 0, err
	}

	s.vectors = newVectors
	s.metas = newMetas

	s.logger.Debug("added vectors to flat store",
		zap.String("collection", s.collection),
		zap.Int("added", len(vectors)),
		zap.Int("total", len(s.vectors)),
	)

	return len(vectors), nil
}

// persist writes both artifacts via temp files and renames, vectors first.
func (s *Store) persist(vectors [][]float32, metas []vector.Metadata) error {
	vecTmp := s.vecPath() + ".tmp"
	if err := writeMatrix(vecTmp, vectors, s.dims); err != nil {
		return err
	}

	metaData, err := json.Marshal(metas)
	if err != nil {
		os.Remove(vecTmp)
		return fmt.Errorf("encoding metadata: %w", err)
	}
	metaTmp := s.metaPath() + ".tmp"
	if err := os.WriteFile(metaTmp, metaData, 0o644); err != nil {
		os.Remove(vecTmp)
		return fmt.Errorf("writing metadata: %w", err)
	}

	if err := os.Rename(vecTmp, s.vecPath()); err != nil {
		os.Remove(metaTmp)
		return fmt.Errorf("replacing vector artifact: %w", err)
	}
	if err := os.Rename(metaTmp, s.metaPath()); err != nil {
		return fmt.Errorf("replacing metadata artifact: %w", err)
	}

	return nil
}

// Query scores every stored vector against the normalized query and returns
// the topK best matches, descending. Rows without a metadata record are
// skipped rather than fabricated.
func (s *Store) Query(_ context.Context, embedding []float32, topK int) ([]vector.Result, error) {
	if len(embedding) != s.dims {
		return nil, fmt.Errorf("%w: query has %d dimensions, want %d",
			vector.ErrDimensionMismatch, len(embedding), s.dims)
	}
	if topK <= 0 {
		return []vector.Result{}, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.vectors) == 0 {
		return []vector.Result{}, nil
	}

	query := normalize(embedding)

	type scored struct {
		index int
		score float32
	}
	scores := make([]scored, len(s.vectors))
	for i, vec := range s.vectors {
		scores[i] = scored{index: i, score: dot(query, vec)}
	}

	sort.SliceStable(scores, func(a, b int) bool {
		return scores[a].score > scores[b].score
	})

	if topK > len(scores) {
		topK = len(scores)
	}

	results := make([]vector.Result, 0, topK)
	for _, sc := range scores[:topK] {
		if sc.index >= len(s.metas) {
			continue
		}
		results = append(results, vector.Result{
			Metadata: s.metas[sc.index],
			Score:    sc.score,
		})
	}

	return results, nil
}

// Count reports the number of stored vectors.
func (s *Store) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vectors), nil
}

// Close releases the store. State is already on disk after every Add.
func (s *Store) Close() error {
	return nil
}

// normalize returns an L2-normalized copy. Zero vectors pass through
// unchanged rather than dividing by zero.
func normalize(vec []float32) []float32 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	norm := math.Sqrt(sum)

	out := make([]float32, len(vec))
	if norm == 0 {
		copy(out, vec)
		return out
	}
	for i, v := range vec {
		out[i] = float32(float64(v) / norm)
	}
	return out
}

func dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// writeMatrix serializes vectors as a little-endian binary file: magic,
// dimension, row count, then row-major float32 values.
func writeMatrix(path string, vectors [][]float32, dims int) error {
	buf := make([]byte, 12+len(vectors)*dims*4)
	binary.LittleEndian.PutUint32(buf[0:], vecMagic)
	binary.LittleEndian.PutUint32(buf[4:], uint32(dims))
	binary.LittleEndian.PutUint32(buf[8:], uint32(len(vectors)))

	off := 12
	for _, vec := range vectors {
		for _, v := range vec {
			binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(v))
			off += 4
		}
	}

	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return fmt.Errorf("writing vector artifact: %w", err)
	}
	return nil
}

func readMatrix(path string, dims int) ([][]float32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(data) < 12 {
		return nil, fmt.Errorf("%w: %s is truncated", vector.ErrStateMismatch, path)
	}

	if binary.LittleEndian.Uint32(data[0:]) != vecMagic {
		return nil, fmt.Errorf("%w: %s has an unrecognized header", vector.ErrStateMismatch, path)
	}
	fileDims := int(binary.LittleEndian.Uint32(data[4:]))
	if fileDims != dims {
		return nil, fmt.Errorf("%w: artifact has %d dimensions, store configured for %d",
			vector.ErrDimensionMismatch, fileDims, dims)
	}
	count := int(binary.LittleEndian.Uint32(data[8:]))

	want := 12 + count*dims*4
	if len(data) != want {
		return nil, fmt.Errorf("%w: %s has %d bytes, want %d",
			vector.ErrStateMismatch, path, len(data), want)
	}

	vectors := make([][]float32, count)
	off := 12
	for i := range vectors {
		row := make([]float32, dims)
		for j := range row {
			row[j] = math.Float32frombits(binary.LittleEndian.Uint32(data[off:]))
			off += 4
		}
		vectors[i] = row
	}
	return vectors, nil
}
