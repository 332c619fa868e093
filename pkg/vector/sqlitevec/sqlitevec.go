// Package sqlitevec provides a SQLite-backed vector driver using sqlite-vec.
// It is the alternative to the flat store for corpora too large to scan
// linearly.
package sqlitevec

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/arqalabs/arqa/pkg/vector"
)

// Driver implements vector.Driver on SQLite with the sqlite-vec extension.
type Driver struct {
	db     *sql.DB
	dims   int
	logger *zap.Logger
}

// Config holds configuration for the SQLite vec driver.
type Config struct {
	// DBPath is the path to the SQLite database file.
	// Use ":memory:" for an in-memory database.
	DBPath string

	// Dimensions is the vector width for the embedding column.
	Dimensions uint
}

// New creates a SQLite vector driver backed by sqlite-vec.
func New(c Config, logger *zap.Logger) (*Driver, error) {
	sqlite_vec.Auto()

	if c.DBPath == "" {
		return nil, fmt.Errorf("database path is required")
	}
	if c.Dimensions == 0 {
		return nil, fmt.Errorf("sqlite-vec embedding dimensions cannot be 0, must be configured")
	}

	db, err := sql.Open("sqlite3", c.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	var vecVersion string
	if err := db.QueryRow("SELECT vec_version()").Scan(&vecVersion); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite-vec not available: %w", err)
	}

	// vec0 virtual tables use integer rowids; chunk metadata lives in a
	// companion table joined by rowid.
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS chunks (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			source TEXT NOT NULL,
			path TEXT NOT NULL,
			text TEXT NOT NULL,
			page INTEGER NOT NULL DEFAULT 0
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating chunks table: %w", err)
	}

	createVec := fmt.Sprintf(
		`CREATE VIRTUAL TABLE IF NOT EXISTS chunk_embeddings USING vec0(embedding float[%d])`,
		c.Dimensions,
	)
	if _, err := db.Exec(createVec); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating vec0 table: %w", err)
	}

	logger.Debug("sqlite-vec vector driver initialized",
		zap.String("db_path", c.DBPath),
		zap.Uint("dimensions", c.Dimensions),
		zap.String("vec_version", vecVersion),
	)

	return &Driver{db: db, dims: int(c.Dimensions), logger: logger}, nil
}

// serializeFloat32 converts a float32 slice to the little-endian BLOB format
// sqlite-vec expects.
func serializeFloat32(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// normalize returns an L2-normalized copy so the L2 distance reported by
// vec0 maps onto cosine similarity.
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

// Add appends the batch in one transaction and returns the number of records
// added.
func (d *Driver) Add(ctx context.Context, vectors [][]float32, metas []vector.Metadata) (int, error) {
	if len(vectors) != len(metas) {
		return 0, fmt.Errorf("%w: %d vectors, %d metadata records",
			vector.ErrLengthMismatch, len(vectors), len(metas))
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for i, vec := range vectors {
		if len(vec) != d.dims {
			return 0, fmt.Errorf("%w: vector %d has %d dimensions, want %d",
				vector.ErrDimensionMismatch, i, len(vec), d.dims)
		}

		result, err := tx.ExecContext(ctx,
			`INSERT INTO chunks(source, path, text, page) VALUES (?, ?, ?, ?)`,
			metas[i].Source, metas[i].Path, metas[i].Text, metas[i].Page,
		)
		if err != nil {
			return 0, fmt.Errorf("inserting chunk %d: %w", i, err)
		}

		rowID, err := result.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("getting rowid for chunk %d: %w", i, err)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO chunk_embeddings(rowid, embedding) VALUES (?, ?)`,
			rowID, serializeFloat32(normalize(vec)),
		); err != nil {
			return 0, fmt.Errorf("inserting embedding for chunk %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing transaction: %w", err)
	}

	count, err := d.Count(ctx)
	if err != nil {
		return 0, err
	}

	d.logger.Debug("added chunks to sqlite-vec",
		zap.Int("added", len(vectors)),
		zap.Int("total", count),
	)

	return len(vectors), nil
}

// Query runs a KNN match and joins back to chunk metadata. The L2 distance
// over normalized vectors is converted to cosine similarity.
func (d *Driver) Query(ctx context.Context, embedding []float32, topK int) ([]vector.Result, error) {
	if len(embedding) != d.dims {
		return nil, fmt.Errorf("%w: query has %d dimensions, want %d",
			vector.ErrDimensionMismatch, len(embedding), d.dims)
	}
	if topK <= 0 {
		return []vector.Result{}, nil
	}

	rows, err := d.db.QueryContext(ctx, `
		SELECT
			c.source,
			c.path,
			c.text,
			c.page,
			ce.distance
		FROM chunk_embeddings ce
		INNER JOIN chunks c ON c.rowid = ce.rowid
		WHERE ce.embedding MATCH ?
			AND ce.k = ?
		ORDER BY ce.distance
	`, serializeFloat32(normalize(embedding)), topK)
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	results := []vector.Result{}
	for rows.Next() {
		var meta vector.Metadata
		var distance float64
		if err := rows.Scan(&meta.Source, &meta.Path, &meta.Text, &meta.Page, &distance); err != nil {
			return nil, fmt.Errorf("scanning query result: %w", err)
		}

		// For unit vectors, |a-b|^2 = 2 - 2*cos(a,b).
		results = append(results, vector.Result{
			Metadata: meta,
			Score:    float32(1 - distance*distance/2),
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating query results: %w", err)
	}

	return results, nil
}

// Count reports the number of stored chunks.
func (d *Driver) Count(ctx context.Context) (int, error) {
	var count int
	if err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return count, nil
}

// Close releases resources held by the driver.
func (d *Driver) Close() error {
	return d.db.Close()
}
