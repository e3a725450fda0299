package store

import (
	"context"
	"path/filepath"
	"testing"
)

func newTestChromem(t *testing.T) (*ChromemStore, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "chroma_db")
	s, err := NewChromem(Config{Path: dir, Collection: "medical_rag"})
	if err != nil {
		t.Fatalf("NewChromem: %v", err)
	}
	return s, dir
}

func TestChromemUpsertQuery(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestChromem(t)

	vectors := map[string][]float32{
		"chunk_0": {1, 0, 0},
		"chunk_1": {0.9, 0.1, 0},
		"chunk_2": {0, 1, 0},
		"chunk_3": {0, 0, 1},
	}
	for id, v := range vectors {
		if err := s.Upsert(ctx, id, v, "texte "+id); err != nil {
			t.Fatalf("Upsert(%s): %v", id, err)
		}
	}

	results, err := s.Query(ctx, []float32{1, 0, 0}, 3)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	if results[0].ID != "chunk_0" {
		t.Errorf("best match = %s, want chunk_0", results[0].ID)
	}
	if results[1].ID != "chunk_1" {
		t.Errorf("second match = %s, want chunk_1", results[1].ID)
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Errorf("results not ordered by decreasing similarity: %v", results)
		}
	}
	if results[0].Text != "texte chunk_0" {
		t.Errorf("Text = %q", results[0].Text)
	}
}

func TestChromemQuerySmallStore(t *testing.T) {
	// A store with fewer than k chunks returns all of them.
	ctx := context.Background()
	s, _ := newTestChromem(t)

	if err := s.Upsert(ctx, "chunk_0", []float32{1, 0}, "seul"); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	results, err := s.Query(ctx, []float32{1, 0}, 3)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("got %d results, want 1", len(results))
	}
}

func TestChromemQueryEmptyStore(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestChromem(t)

	results, err := s.Query(ctx, []float32{1, 0}, 3)
	if err != nil {
		t.Fatalf("Query on empty store: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("got %d results from empty store, want 0", len(results))
	}
}

func TestChromemUpsertReplaces(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestChromem(t)

	if err := s.Upsert(ctx, "chunk_0", []float32{1, 0}, "avant"); err != nil {
		t.Fatal(err)
	}
	if err := s.Upsert(ctx, "chunk_0", []float32{1, 0}, "après"); err != nil {
		t.Fatal(err)
	}

	n, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 1 {
		t.Errorf("Count = %d, want 1 after double upsert of same id", n)
	}
}

func TestChromemPersistence(t *testing.T) {
	ctx := context.Background()
	s, dir := newTestChromem(t)

	if err := s.Upsert(ctx, "chunk_0", []float32{1, 0}, "persisté"); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	if !Exists(dir) {
		t.Fatal("store directory should exist after ingestion")
	}

	reopened, err := NewChromem(Config{Path: dir, Collection: "medical_rag"})
	if err != nil {
		t.Fatalf("reopening store: %v", err)
	}
	n, err := reopened.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("Count after reopen = %d, want 1", n)
	}
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	if !Exists(dir) {
		t.Error("Exists should be true for an existing directory")
	}
	if Exists(filepath.Join(dir, "absent")) {
		t.Error("Exists should be false for a missing path")
	}
}

func TestExistsBecomesTrueOnOpen(t *testing.T) {
	// Opening a store creates its path, so callers deciding whether to
	// ingest must call Exists before New, not after.
	dir := filepath.Join(t.TempDir(), "chroma_db")
	if Exists(dir) {
		t.Fatal("Exists should be false before the store is opened")
	}
	s, err := NewChromem(Config{Path: dir, Collection: "medical_rag"})
	if err != nil {
		t.Fatalf("NewChromem: %v", err)
	}
	defer s.Close()
	if !Exists(dir) {
		t.Error("Exists should be true after opening, even with no chunks stored")
	}
}

func TestNewUnknownBackend(t *testing.T) {
	if _, err := New(Config{Backend: "qdrant"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestSQLiteUpsertQuery(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "medrag.db")
	s, err := NewSQLite(Config{Backend: "sqlite", Path: path, Dim: 3})
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	defer s.Close()

	if err := s.Upsert(ctx, "chunk_0", []float32{1, 0, 0}, "premier"); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := s.Upsert(ctx, "chunk_1", []float32{0, 1, 0}, "second"); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	results, err := s.Query(ctx, []float32{1, 0, 0}, 3)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].ID != "chunk_0" || results[0].Text != "premier" {
		t.Errorf("best match = %+v, want chunk_0/premier", results[0])
	}
	// Cosine similarity: 1 for the identical vector, 0 for the orthogonal one.
	if got := results[0].Score; got < 0.999 || got > 1.001 {
		t.Errorf("exact-match score = %v, want 1", got)
	}
	if got := results[1].Score; got < -0.001 || got > 0.001 {
		t.Errorf("orthogonal score = %v, want 0", got)
	}

	// Dimension mismatch is rejected.
	if err := s.Upsert(ctx, "chunk_2", []float32{1, 0}, "court"); err == nil {
		t.Error("expected error for wrong embedding dimension")
	}
}
