package store

import (
	"context"
	"errors"
	"fmt"
	"os"

	chromem "github.com/philippgille/chromem-go"
)

// ChromemStore persists chunks in an embedded chromem-go database: a
// directory of gob files, one named collection, no external service.
type ChromemStore struct {
	db   *chromem.DB
	coll *chromem.Collection
}

// precomputedOnly satisfies chromem's embedding-func parameter. All
// documents and queries arrive with their embeddings already computed, so
// this must never be reached.
func precomputedOnly(context.Context, string) ([]float32, error) {
	return nil, errors.New("store: embeddings are precomputed, no embedding func available")
}

// NewChromem opens (or creates) a persistent chromem database at
// cfg.Path and binds the configured collection.
func NewChromem(cfg Config) (*ChromemStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("store path not configured")
	}
	if cfg.Collection == "" {
		return nil, fmt.Errorf("collection name not configured")
	}

	if err := os.MkdirAll(cfg.Path, 0o755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}

	db, err := chromem.NewPersistentDB(cfg.Path, false)
	if err != nil {
		return nil, fmt.Errorf("opening chromem db: %w", err)
	}

	coll, err := db.GetOrCreateCollection(cfg.Collection, nil, precomputedOnly)
	if err != nil {
		return nil, fmt.Errorf("opening collection %s: %w", cfg.Collection, err)
	}

	return &ChromemStore{db: db, coll: coll}, nil
}

func (s *ChromemStore) Upsert(ctx context.Context, id string, vector []float32, text string) error {
	err := s.coll.AddDocument(ctx, chromem.Document{
		ID:        id,
		Content:   text,
		Embedding: vector,
	})
	if err != nil {
		return fmt.Errorf("adding document %s: %w", id, err)
	}
	return nil
}

func (s *ChromemStore) Query(ctx context.Context, vector []float32, k int) ([]Result, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}

	// chromem requires nResults <= document count.
	count := s.coll.Count()
	if count == 0 {
		return nil, nil
	}
	if k > count {
		k = count
	}

	res, err := s.coll.QueryEmbedding(ctx, vector, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("querying collection: %w", err)
	}

	results := make([]Result, len(res))
	for i, r := range res {
		results[i] = Result{
			ID:    r.ID,
			Text:  r.Content,
			Score: float64(r.Similarity),
		}
	}
	return results, nil
}

func (s *ChromemStore) Count(ctx context.Context) (int, error) {
	return s.coll.Count(), nil
}

// Close is a no-op: chromem persists on every write.
func (s *ChromemStore) Close() error {
	return nil
}
