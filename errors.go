package medrag

import "errors"

// Sentinel errors for the ingestion and retrieval pipeline. Callers match
// with errors.Is; pipeline stages wrap the underlying cause.
var (
	// ErrDocumentFormat indicates the source document could not be opened
	// or parsed (missing file, corrupt archive, unsupported extension).
	ErrDocumentFormat = errors.New("medrag: unreadable or unsupported document")

	// ErrEmptyDocument indicates the document produced no chunks at all.
	ErrEmptyDocument = errors.New("medrag: document produced no chunks")

	// ErrImageNotFound indicates image description was requested but the
	// document carries no embedded image.
	ErrImageNotFound = errors.New("medrag: no embedded image in document")

	// ErrInvalidConfig indicates the engine configuration is incomplete
	// or inconsistent.
	ErrInvalidConfig = errors.New("medrag: invalid configuration")
)
