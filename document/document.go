package document

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrNoImage is returned by Source.Image when the document embeds no
// raster image.
var ErrNoImage = errors.New("document: no embedded image")

// Node is one structural element of a document body. It is either a
// Paragraph or a Table, produced in visual reading order.
type Node interface {
	node()
}

// Paragraph is a single run of body text.
type Paragraph struct {
	Text string
}

// Table is a rectangular (or near-rectangular) grid of cell text.
type Table struct {
	Rows [][]string
}

func (Paragraph) node() {}
func (Table) node()     {}

// Source exposes a document body as an ordered node stream plus access to
// its first embedded raster image.
type Source interface {
	// Nodes returns the body's paragraphs and tables interleaved as they
	// appear in the document, first to last.
	Nodes() ([]Node, error)

	// Image returns the raw bytes of the first embedded image.
	// Sources without image support return ErrNoImage.
	Image() ([]byte, error)
}

// Open selects a source implementation from the file extension.
func Open(path string) (Source, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".docx":
		return OpenDOCX(path)
	case ".xlsx":
		return OpenXLSX(path)
	case ".xls":
		// Legacy binary workbooks are not readable; only OOXML is.
		return nil, fmt.Errorf("legacy .xls is not supported, convert to .xlsx: %s", path)
	case ".pdf":
		return OpenPDF(path)
	default:
		return nil, fmt.Errorf("unsupported document format: %q", ext)
	}
}
