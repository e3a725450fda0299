// Package medrag implements a retrieval-augmented chat assistant over a
// clinical care protocol document. Ingestion reads the document in order,
// narrates its tables into prose, splits the text into protocol sections,
// appends a vision-generated description of the embedded schema image, and
// stores embedded chunks in a vector store. Questions are answered by a
// chat model grounded exclusively on the retrieved chunks.
package medrag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/KilianLavenan/medical-rag-chat/chunker"
	"github.com/KilianLavenan/medical-rag-chat/document"
	"github.com/KilianLavenan/medical-rag-chat/llm"
	"github.com/KilianLavenan/medical-rag-chat/retrieval"
	"github.com/KilianLavenan/medical-rag-chat/store"
	"github.com/KilianLavenan/medical-rag-chat/vision"
)

const chatSystemPrompt = "Tu es un assistant médical qui est entraîné à répondre à des questions sur les pneumopathies communautaires."

// embedBatchSize bounds the number of texts per embedding request.
const embedBatchSize = 32

// Engine is the main entry point: it owns the ingestion pipeline and the
// question-answering flow.
type Engine struct {
	cfg       Config
	store     store.VectorStore
	chatLLM   llm.Provider
	embedLLM  llm.Provider
	describer *vision.Describer
	assembler *retrieval.Assembler
}

// Option overrides a dependency the engine would otherwise build from its
// Config. Used by tests and by callers embedding the engine.
type Option func(*Engine)

// WithStore uses s instead of opening the configured store backend.
func WithStore(s store.VectorStore) Option {
	return func(e *Engine) { e.store = s }
}

// WithProviders uses the given LLM providers instead of building them from
// the Chat, Embedding and Vision config sections. Nil values keep the
// config-derived provider.
func WithProviders(chat, embed llm.Provider, visionLLM llm.VisionProvider) Option {
	return func(e *Engine) {
		e.chatLLM = chat
		e.embedLLM = embed
		if visionLLM != nil {
			e.describer = vision.NewDescriber(visionLLM, "")
		}
	}
}

// New creates an engine from cfg, opening the vector store and creating the
// LLM providers it declares.
func New(cfg Config, opts ...Option) (*Engine, error) {
	if cfg.TopK <= 0 {
		cfg.TopK = retrieval.DefaultTopK
	}

	e := &Engine{cfg: cfg}
	for _, o := range opts {
		o(e)
	}

	if e.store == nil {
		s, err := store.New(cfg.Store)
		if err != nil {
			return nil, fmt.Errorf("opening store: %w", err)
		}
		e.store = s
	}

	if e.chatLLM == nil {
		chatLLM, err := llm.NewProvider(cfg.Chat)
		if err != nil {
			e.store.Close()
			return nil, fmt.Errorf("%w: chat provider: %v", ErrInvalidConfig, err)
		}
		e.chatLLM = chatLLM
	}

	if e.embedLLM == nil {
		embedLLM, err := llm.NewProvider(cfg.Embedding)
		if err != nil {
			e.store.Close()
			return nil, fmt.Errorf("%w: embedding provider: %v", ErrInvalidConfig, err)
		}
		e.embedLLM = embedLLM
	}

	if e.describer == nil && cfg.Vision.Provider != "" {
		visionLLM, err := llm.NewProvider(cfg.Vision)
		if err != nil {
			e.store.Close()
			return nil, fmt.Errorf("%w: vision provider: %v", ErrInvalidConfig, err)
		}
		vp, ok := visionLLM.(llm.VisionProvider)
		if !ok {
			e.store.Close()
			return nil, fmt.Errorf("%w: provider %q does not support vision", ErrInvalidConfig, cfg.Vision.Provider)
		}
		e.describer = vision.NewDescriber(vp, cfg.Vision.Model)
	}

	e.assembler = retrieval.New(e.embedLLM, e.store)
	return e, nil
}

// Ingest runs the full pipeline on the configured document: read nodes in
// order, narrate tables, split into sections, describe the embedded image,
// embed every chunk, and upsert them as chunk_0..chunk_n-1. Any stage
// failure aborts the run; nothing is written past the failed stage.
func (e *Engine) Ingest(ctx context.Context) error {
	filename := filepath.Base(e.cfg.DocumentPath)
	start := time.Now()

	src, err := document.Open(e.cfg.DocumentPath)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDocumentFormat, err)
	}
	nodes, err := src.Nodes()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDocumentFormat, err)
	}
	tables := chunker.CountTables(nodes)
	slog.Info("ingest: document read", "file", filename, "nodes", len(nodes), "tables", tables)

	c := chunker.New(e.cfg.HeaderShapes)
	if err := c.Validate(nodes); err != nil {
		return err
	}
	if tables < len(e.cfg.HeaderShapes) {
		slog.Warn("ingest: surplus header shapes declared",
			"tables", tables, "shapes", len(e.cfg.HeaderShapes))
	}
	chunks, err := c.Chunk(nodes)
	if err != nil {
		return err
	}
	if len(chunks) == 0 {
		return ErrEmptyDocument
	}
	slog.Info("ingest: chunking complete", "file", filename, "chunks", len(chunks))

	if !e.cfg.SkipImage {
		if e.describer == nil {
			return fmt.Errorf("%w: vision provider required for image description", ErrInvalidConfig)
		}
		desc, err := e.describer.DescribeOnce(ctx, src, e.cfg.ImageCachePath)
		if errors.Is(err, document.ErrNoImage) {
			return fmt.Errorf("%w: %s", ErrImageNotFound, filename)
		}
		if err != nil {
			return fmt.Errorf("describing image: %w", err)
		}
		chunks[len(chunks)-1] += "\n" + desc
		slog.Info("ingest: image described", "file", filename, "cache", e.cfg.ImageCachePath)
	}

	slog.Info("ingest: generating embeddings", "file", filename, "chunks", len(chunks))
	embeddings, err := e.embedChunks(ctx, chunks)
	if err != nil {
		return fmt.Errorf("embedding chunks: %w", err)
	}

	for i := range chunks {
		id := fmt.Sprintf("chunk_%d", i)
		if err := e.store.Upsert(ctx, id, embeddings[i], chunks[i]); err != nil {
			return fmt.Errorf("storing %s: %w", id, err)
		}
	}

	slog.Info("ingest: document ready",
		"file", filename, "chunks", len(chunks),
		"elapsed", time.Since(start).Round(time.Millisecond))
	return nil
}

// embedChunks embeds texts in batches, preserving input order.
func (e *Engine) embedChunks(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += embedBatchSize {
		end := i + embedBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		vecs, err := e.embedLLM.Embed(ctx, texts[i:end])
		if err != nil {
			return nil, err
		}
		if len(vecs) != end-i {
			return nil, fmt.Errorf("embedding batch returned %d vectors for %d texts", len(vecs), end-i)
		}
		out = append(out, vecs...)
	}
	return out, nil
}

// BuildPrompt embeds the question, retrieves the top-k chunks, and renders
// the grounding prompt without calling the chat model. Exposed for callers
// that run their own completion.
func (e *Engine) BuildPrompt(ctx context.Context, question string) (string, error) {
	return e.assembler.BuildPrompt(ctx, question, e.cfg.TopK)
}

// Ask runs one conversational turn: retrieve, ground, and complete. The
// history carries prior user and assistant turns verbatim; the grounding
// prompt wraps only the current question.
func (e *Engine) Ask(ctx context.Context, question string, history []llm.Message) (string, error) {
	prompt, err := e.assembler.BuildPrompt(ctx, question, e.cfg.TopK)
	if err != nil {
		return "", err
	}

	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: "system", Content: chatSystemPrompt})
	messages = append(messages, history...)
	messages = append(messages, llm.Message{Role: "user", Content: prompt})

	resp, err := e.chatLLM.Chat(ctx, llm.ChatRequest{
		Model:    e.cfg.Chat.Model,
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	return resp.Content, nil
}

// Store returns the underlying vector store for diagnostic access.
func (e *Engine) Store() store.VectorStore {
	return e.store
}

// Close shuts down the engine and releases the store.
func (e *Engine) Close() error {
	return e.store.Close()
}
