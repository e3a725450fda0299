// Package store provides persistent vector storage for document chunks.
// Two backends are available: chromem (embedded pure-Go vector DB, the
// default) and sqlite (sqlite-vec virtual table).
package store

import (
	"context"
	"fmt"
	"os"
)

// Result is one retrieved chunk, best match first in a result slice.
type Result struct {
	ID    string  `json:"id"`
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// VectorStore persists embedded chunks keyed by caller-assigned string ids
// and serves top-k nearest-neighbour queries. Writes happen only during
// ingestion; queries are read-only. No concurrent writers are assumed.
type VectorStore interface {
	// Upsert stores or replaces one chunk and its embedding.
	Upsert(ctx context.Context, id string, vector []float32, text string) error

	// Query returns up to k chunks nearest to the given embedding, ordered
	// by decreasing similarity. An empty store yields an empty result, not
	// an error.
	Query(ctx context.Context, vector []float32, k int) ([]Result, error)

	// Count reports the number of stored chunks.
	Count(ctx context.Context) (int, error)

	Close() error
}

// Config selects and configures a store backend.
type Config struct {
	Backend    string `json:"backend"`    // "chromem" (default) or "sqlite"
	Path       string `json:"path"`       // chromem directory or sqlite db file
	Collection string `json:"collection"` // chromem collection name
	Dim        int    `json:"dim"`        // embedding dimension (sqlite backend)
}

// New creates a vector store from configuration.
func New(cfg Config) (VectorStore, error) {
	switch cfg.Backend {
	case "chromem", "":
		return NewChromem(cfg)
	case "sqlite":
		return NewSQLite(cfg)
	default:
		return nil, fmt.Errorf("unknown store backend: %s", cfg.Backend)
	}
}

// Exists reports whether the store path is already present on disk.
// Callers use this as the sole signal to skip re-ingestion: embedding and
// summarization calls are costly and must not be repeated for an already
// populated store.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
