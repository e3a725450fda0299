package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
)

func init() {
	sqlite_vec.Auto()
}

// SQLiteStore persists chunks in a single SQLite file with a vec0 virtual
// table for KNN search.
type SQLiteStore struct {
	db  *sql.DB
	dim int
}

func sqliteSchema(dim int) string {
	return fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS chunks (
    id INTEGER PRIMARY KEY,
    chunk_id TEXT NOT NULL UNIQUE,
    content TEXT NOT NULL
);

CREATE VIRTUAL TABLE IF NOT EXISTS vec_chunks USING vec0(
    chunk_rowid INTEGER PRIMARY KEY,
    embedding float[%d] distance_metric=cosine
);
`, dim)
}

// NewSQLite opens (or creates) the database file at cfg.Path and
// initialises the schema. cfg.Dim must match the embedding model.
func NewSQLite(cfg Config) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("store path not configured")
	}
	if cfg.Dim <= 0 {
		return nil, fmt.Errorf("embedding dimension not configured")
	}

	if dir := filepath.Dir(cfg.Path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if _, err := db.Exec(sqliteSchema(cfg.Dim)); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	// Connection pool settings for SQLite.
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	return &SQLiteStore{db: db, dim: cfg.Dim}, nil
}

func (s *SQLiteStore) Upsert(ctx context.Context, id string, vector []float32, text string) error {
	if len(vector) != s.dim {
		return fmt.Errorf("embedding dimension %d does not match store dimension %d", len(vector), s.dim)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO chunks (chunk_id, content) VALUES (?, ?)
		ON CONFLICT(chunk_id) DO UPDATE SET content = excluded.content
	`, id, text); err != nil {
		return fmt.Errorf("upserting chunk %s: %w", id, err)
	}

	var rowid int64
	if err := tx.QueryRowContext(ctx,
		`SELECT id FROM chunks WHERE chunk_id = ?`, id).Scan(&rowid); err != nil {
		return fmt.Errorf("resolving chunk row: %w", err)
	}

	// vec0 has no upsert; replace the row.
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM vec_chunks WHERE chunk_rowid = ?`, rowid); err != nil {
		return fmt.Errorf("clearing old embedding: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO vec_chunks (chunk_rowid, embedding) VALUES (?, ?)`,
		rowid, serializeFloat32(vector)); err != nil {
		return fmt.Errorf("storing embedding: %w", err)
	}

	return tx.Commit()
}

func (s *SQLiteStore) Query(ctx context.Context, vector []float32, k int) ([]Result, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT c.chunk_id, c.content, v.distance
		FROM vec_chunks v
		JOIN chunks c ON c.id = v.chunk_rowid
		WHERE v.embedding MATCH ? AND k = ?
		ORDER BY v.distance
	`, serializeFloat32(vector), k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var distance float64
		if err := rows.Scan(&r.ID, &r.Text, &distance); err != nil {
			return nil, err
		}
		// vec_chunks uses cosine distance, so 1 - distance is the
		// cosine similarity.
		r.Score = 1.0 - distance
		results = append(results, r)
	}
	return results, rows.Err()
}

func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&n)
	return n, err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// serializeFloat32 converts a float32 slice to little-endian bytes for sqlite-vec.
func serializeFloat32(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}
