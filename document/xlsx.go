package document

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// XLSXSource reads a workbook as a node stream: each sheet yields one
// Paragraph carrying the sheet name followed by one Table holding the
// sheet's cell grid. Workbooks carry no embedded diagram in this pipeline,
// so Image always reports ErrNoImage.
type XLSXSource struct {
	path string
}

func OpenXLSX(path string) (*XLSXSource, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening XLSX: %w", err)
	}
	f.Close()
	return &XLSXSource{path: path}, nil
}

func (s *XLSXSource) Nodes() ([]Node, error) {
	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("opening XLSX: %w", err)
	}
	defer f.Close()

	var nodes []Node
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil || len(rows) == 0 {
			continue
		}
		nodes = append(nodes, Paragraph{Text: sheet})
		nodes = append(nodes, Table{Rows: rows})
	}

	if len(nodes) == 0 {
		return nil, fmt.Errorf("no data found in XLSX")
	}
	return nodes, nil
}

func (s *XLSXSource) Image() ([]byte, error) {
	return nil, ErrNoImage
}
