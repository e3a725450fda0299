package chunker

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/KilianLavenan/medical-rag-chat/document"
)

// ErrShapeExhausted is returned when the document contains more tables
// than the configured header-shape list covers.
var ErrShapeExhausted = errors.New("chunker: header shape list exhausted")

// sectionBoundary marks the start of a new document section: one
// uppercase letter, a hyphen, then anything ("A- Diagnostic").
var sectionBoundary = regexp.MustCompile(`^[A-Z]-`)

// Chunker splits a structural node stream into section chunks. Tables are
// narrated inline; the Nth table in the document is narrated with the Nth
// entry of the shape list.
type Chunker struct {
	shapes []HeaderShape
}

// New returns a Chunker over the given ordered header-shape list.
func New(shapes []HeaderShape) *Chunker {
	return &Chunker{shapes: shapes}
}

// Validate checks the shape list against the actual table count before any
// chunking happens, so a configuration mismatch fails loudly instead of
// mid-stream. A surplus of shapes is allowed; the extra entries are inert.
func (c *Chunker) Validate(nodes []document.Node) error {
	n := CountTables(nodes)
	if n > len(c.shapes) {
		return fmt.Errorf("%w: document has %d tables, %d shapes configured",
			ErrShapeExhausted, n, len(c.shapes))
	}
	return nil
}

// Chunk consumes the node stream in order and returns the chunk sequence.
// A paragraph matching the section-boundary pattern closes the current
// buffer (emitted trimmed, even when empty) and starts a new one seeded
// with its own text. The final buffer is always emitted, so a document
// ending exactly on a boundary yields a trailing empty chunk.
func (c *Chunker) Chunk(nodes []document.Node) ([]string, error) {
	var chunks []string
	var current strings.Builder
	tableIndex := 0

	for _, n := range nodes {
		switch node := n.(type) {
		case document.Table:
			if tableIndex >= len(c.shapes) {
				return nil, fmt.Errorf("%w: table %d has no configured shape",
					ErrShapeExhausted, tableIndex)
			}
			narrative, err := Narrate(node, c.shapes[tableIndex])
			if err != nil {
				return nil, err
			}
			tableIndex++
			current.WriteString(narrative)
			current.WriteString("\n")
		case document.Paragraph:
			if sectionBoundary.MatchString(node.Text) {
				chunks = append(chunks, strings.TrimSpace(current.String()))
				current.Reset()
			}
			current.WriteString(strings.TrimSpace(node.Text))
			current.WriteString("\n")
		}
	}

	chunks = append(chunks, strings.TrimSpace(current.String()))
	return chunks, nil
}

// CountTables returns the number of Table nodes in the stream.
func CountTables(nodes []document.Node) int {
	count := 0
	for _, n := range nodes {
		if _, ok := n.(document.Table); ok {
			count++
		}
	}
	return count
}
