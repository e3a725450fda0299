package document

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFSource reads a PDF as prose only: each non-empty line of extracted
// page text becomes a Paragraph, so section-boundary paragraphs keep their
// own node. PDFs carry no table structure this pipeline can narrate and no
// extractable embedded image.
type PDFSource struct {
	path string
}

func OpenPDF(path string) (*PDFSource, error) {
	f, _, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	f.Close()
	return &PDFSource{path: path}, nil
}

func (s *PDFSource) Nodes() ([]Node, error) {
	f, reader, err := pdf.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer f.Close()

	var nodes []Node
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// Skip pages that fail to extract
			continue
		}
		for _, line := range strings.Split(text, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			nodes = append(nodes, Paragraph{Text: line})
		}
	}

	if len(nodes) == 0 {
		return nil, fmt.Errorf("no text extracted from PDF")
	}
	return nodes, nil
}

func (s *PDFSource) Image() ([]byte, error) {
	return nil, ErrNoImage
}
