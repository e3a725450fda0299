package document

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// DOCXSource reads a Word document's body and embedded media directly from
// the OOXML package (word/document.xml plus its relationship part).
type DOCXSource struct {
	path string
}

// OpenDOCX verifies that path is a readable OOXML package and returns a
// source over it. The package is re-opened per read; sources hold no file
// handles between calls.
func OpenDOCX(path string) (*DOCXSource, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening DOCX: %w", err)
	}
	defer r.Close()

	if indexZip(r)["word/document.xml"] == nil {
		return nil, fmt.Errorf("opening DOCX: word/document.xml not found")
	}
	return &DOCXSource{path: path}, nil
}

// Nodes walks the document body and yields paragraphs and tables in the
// order they appear, not grouped by type.
func (s *DOCXSource) Nodes() ([]Node, error) {
	r, err := zip.OpenReader(s.path)
	if err != nil {
		return nil, fmt.Errorf("opening DOCX: %w", err)
	}
	defer r.Close()

	data, err := readZipFile(indexZip(r)["word/document.xml"])
	if err != nil {
		return nil, fmt.Errorf("reading document.xml: %w", err)
	}

	nodes, err := parseBody(data)
	if err != nil {
		return nil, fmt.Errorf("parsing DOCX XML: %w", err)
	}
	return nodes, nil
}

// Image returns the raw bytes of the first embedded image, located via the
// document's relationship part. Only the first image relationship is
// considered; additional images are ignored.
func (s *DOCXSource) Image() ([]byte, error) {
	r, err := zip.OpenReader(s.path)
	if err != nil {
		return nil, fmt.Errorf("opening DOCX: %w", err)
	}
	defer r.Close()

	fileIndex := indexZip(r)
	rel, ok := firstImageRel(fileIndex)
	if !ok {
		return nil, ErrNoImage
	}

	mediaPath := filepath.Clean("word/" + rel.Target)
	mediaPath = strings.ReplaceAll(mediaPath, "\\", "/")
	zf := fileIndex[mediaPath]
	if zf == nil {
		return nil, fmt.Errorf("image target %s not found in package", mediaPath)
	}
	return readZipFile(zf)
}

func indexZip(r *zip.ReadCloser) map[string]*zip.File {
	fileIndex := make(map[string]*zip.File, len(r.File))
	for _, f := range r.File {
		fileIndex[f.Name] = f
	}
	return fileIndex
}

func readZipFile(zf *zip.File) ([]byte, error) {
	rc, err := zf.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// docxRelationships represents word/_rels/document.xml.rels.
type docxRelationships struct {
	XMLName xml.Name           `xml:"Relationships"`
	Rels    []docxRelationship `xml:"Relationship"`
}

type docxRelationship struct {
	ID     string `xml:"Id,attr"`
	Target string `xml:"Target,attr"`
	Type   string `xml:"Type,attr"`
}

// firstImageRel returns the first relationship whose type denotes an image.
func firstImageRel(fileIndex map[string]*zip.File) (docxRelationship, bool) {
	relsFile := fileIndex["word/_rels/document.xml.rels"]
	if relsFile == nil {
		return docxRelationship{}, false
	}
	data, err := readZipFile(relsFile)
	if err != nil {
		return docxRelationship{}, false
	}

	var rels docxRelationships
	if err := xml.Unmarshal(data, &rels); err != nil {
		return docxRelationship{}, false
	}
	for _, rel := range rels.Rels {
		if strings.Contains(rel.Type, "/image") {
			return rel, true
		}
	}
	return docxRelationship{}, false
}

// DOCX XML structures (simplified)
type docxPara struct {
	XMLName xml.Name  `xml:"p"`
	Runs    []docxRun `xml:"r"`
}

type docxRun struct {
	Text []docxText `xml:"t"`
}

type docxText struct {
	Content string `xml:",chardata"`
}

type docxTable struct {
	XMLName xml.Name  `xml:"tbl"`
	Rows    []docxRow `xml:"tr"`
}

type docxRow struct {
	Cells []docxCell `xml:"tc"`
}

type docxCell struct {
	Paras []docxPara `xml:"p"`
}

// parseBody streams through document.xml and decodes each top-level body
// child in place, so paragraphs and tables keep their relative order.
// DecodeElement consumes nested content, so paragraphs inside table cells
// never surface as body-level nodes.
func parseBody(data []byte) ([]Node, error) {
	decoder := xml.NewDecoder(bytes.NewReader(data))

	var nodes []Node
	inBody := false

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "body":
				inBody = true
			case "p":
				if !inBody {
					continue
				}
				var para docxPara
				if err := decoder.DecodeElement(&para, &t); err != nil {
					return nil, err
				}
				nodes = append(nodes, Paragraph{Text: paraText(para)})
			case "tbl":
				if !inBody {
					continue
				}
				var tbl docxTable
				if err := decoder.DecodeElement(&tbl, &t); err != nil {
					return nil, err
				}
				nodes = append(nodes, Table{Rows: tableMatrix(tbl)})
			}
		case xml.EndElement:
			if t.Name.Local == "body" {
				inBody = false
			}
		}
	}
	return nodes, nil
}

func paraText(para docxPara) string {
	var b strings.Builder
	for _, run := range para.Runs {
		for _, t := range run.Text {
			b.WriteString(t.Content)
		}
	}
	return b.String()
}

// tableMatrix flattens a table into trimmed cell text. Cell paragraphs are
// joined with a space.
func tableMatrix(tbl docxTable) [][]string {
	rows := make([][]string, 0, len(tbl.Rows))
	for _, row := range tbl.Rows {
		cells := make([]string, 0, len(row.Cells))
		for _, cell := range row.Cells {
			var cellText strings.Builder
			for _, p := range cell.Paras {
				if cellText.Len() > 0 {
					cellText.WriteString(" ")
				}
				cellText.WriteString(paraText(p))
			}
			cells = append(cells, strings.TrimSpace(cellText.String()))
		}
		rows = append(rows, cells)
	}
	return rows
}
