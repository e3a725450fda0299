package medrag

import (
	"github.com/KilianLavenan/medical-rag-chat/chunker"
	"github.com/KilianLavenan/medical-rag-chat/llm"
	"github.com/KilianLavenan/medical-rag-chat/store"
)

// Config holds all configuration for the medical RAG engine.
type Config struct {
	// DocumentPath is the source document to ingest.
	DocumentPath string `json:"document_path"`

	// ImageCachePath is where the extracted schema image is written.
	// The file doubles as the extraction cache: if it exists, the
	// document is not re-opened for image extraction.
	ImageCachePath string `json:"image_cache_path"`

	// Store configures the vector store backend.
	Store store.Config `json:"store"`

	// LLM providers
	Chat      llm.Config `json:"chat"`
	Embedding llm.Config `json:"embedding"`
	Vision    llm.Config `json:"vision"`

	// HeaderShapes declares, in document order, how each table's headers
	// are laid out. Chunking fails if the document carries more tables
	// than shapes declared here.
	HeaderShapes []chunker.HeaderShape `json:"header_shapes"`

	// TopK is the number of chunks retrieved per question (default 3).
	TopK int `json:"top_k"`

	// SkipImage skips image extraction and vision description during
	// ingest. Useful for sources without embedded images.
	SkipImage bool `json:"skip_image"`
}

// DefaultConfig returns a Config tuned for the pneumonia care protocol
// document this engine was built around.
func DefaultConfig() Config {
	return Config{
		DocumentPath:   "data/protocole_pneumopathies.docx",
		ImageCachePath: "data/extracted_image.png",
		Store: store.Config{
			Backend:    "chromem",
			Path:       "data/chroma_db",
			Collection: "medical_rag",
			Dim:        1536,
		},
		Chat: llm.Config{
			Provider: "openai",
			Model:    "gpt-4o-mini",
		},
		Embedding: llm.Config{
			Provider: "openai",
			Model:    "text-embedding-3-small",
		},
		Vision: llm.Config{
			Provider: "openai",
			Model:    "gpt-4o-mini",
		},
		HeaderShapes: []chunker.HeaderShape{
			chunker.ColumnHeader,
			chunker.NoHeader,
			chunker.RowHeader,
			chunker.RowHeader,
			chunker.RowAndColumnHeader,
			chunker.RowHeader,
			chunker.RowHeader,
		},
		TopK: 3,
	}
}
