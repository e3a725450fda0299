package document

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

func writeTestXLSX(t *testing.T, cells map[string]string) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for ref, val := range cells {
		if err := f.SetCellValue("Sheet1", ref, val); err != nil {
			t.Fatalf("setting cell %s: %v", ref, err)
		}
	}

	path := filepath.Join(t.TempDir(), "test.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("saving xlsx: %v", err)
	}
	return path
}

func TestXLSXNodes(t *testing.T) {
	path := writeTestXLSX(t, map[string]string{
		"A1": "Antibiotique", "B1": "Dose",
		"A2": "Amoxicilline", "B2": "1g x3/j",
	})

	src, err := OpenXLSX(path)
	if err != nil {
		t.Fatalf("OpenXLSX: %v", err)
	}
	nodes, err := src.Nodes()
	if err != nil {
		t.Fatalf("Nodes: %v", err)
	}

	if len(nodes) != 2 {
		t.Fatalf("got %d nodes, want 2 (sheet name + table): %#v", len(nodes), nodes)
	}
	p, ok := nodes[0].(Paragraph)
	if !ok || p.Text != "Sheet1" {
		t.Errorf("nodes[0] = %#v, want Paragraph{Sheet1}", nodes[0])
	}
	tbl, ok := nodes[1].(Table)
	if !ok {
		t.Fatalf("nodes[1] = %T, want Table", nodes[1])
	}
	if len(tbl.Rows) != 2 || tbl.Rows[0][0] != "Antibiotique" || tbl.Rows[1][1] != "1g x3/j" {
		t.Errorf("Rows = %#v", tbl.Rows)
	}
}

func TestXLSXImage(t *testing.T) {
	path := writeTestXLSX(t, map[string]string{"A1": "x"})
	src, err := OpenXLSX(path)
	if err != nil {
		t.Fatalf("OpenXLSX: %v", err)
	}
	if _, err := src.Image(); !errors.Is(err, ErrNoImage) {
		t.Errorf("Image error = %v, want ErrNoImage", err)
	}
}
