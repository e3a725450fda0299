package chunker

import (
	"errors"
	"fmt"
	"strings"

	"github.com/KilianLavenan/medical-rag-chat/document"
)

// ErrInvalidShape is returned for a header shape value outside the
// enumerated set.
var ErrInvalidShape = errors.New("chunker: invalid header shape")

// HeaderShape declares which edge of a table carries labels. It decides
// the narration strategy for that table.
type HeaderShape int

const (
	// RowHeader: the first row labels the columns.
	RowHeader HeaderShape = iota
	// ColumnHeader: the first cell of each row labels that row.
	ColumnHeader
	// RowAndColumnHeader: both edges carry labels; cell (0,0) is ignored.
	RowAndColumnHeader
	// NoHeader: a plain grid without labels.
	NoHeader
)

var shapeNames = [...]string{
	RowHeader:          "row",
	ColumnHeader:       "column",
	RowAndColumnHeader: "row+column",
	NoHeader:           "none",
}

func (s HeaderShape) String() string {
	if s < 0 || int(s) >= len(shapeNames) {
		return fmt.Sprintf("HeaderShape(%d)", int(s))
	}
	return shapeNames[s]
}

// MarshalText implements encoding.TextMarshaler so shape lists round-trip
// through JSON config files.
func (s HeaderShape) MarshalText() ([]byte, error) {
	if s < 0 || int(s) >= len(shapeNames) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidShape, int(s))
	}
	return []byte(shapeNames[s]), nil
}

func (s *HeaderShape) UnmarshalText(text []byte) error {
	name := string(text)
	for i, n := range shapeNames {
		if n == name {
			*s = HeaderShape(i)
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrInvalidShape, name)
}

// Narrate converts a table into narrative text according to its header
// shape. The result is a newline-joined list of lines and may be empty
// when the table produced no emittable content.
//
// Ragged rows are tolerated: labels and cells are paired up to the shorter
// length and trailing cells are dropped. This is accepted lossy behaviour,
// kept from the system this one replaces.
func Narrate(table document.Table, shape HeaderShape) (string, error) {
	rows := table.Rows
	if len(rows) == 0 {
		return "", nil
	}

	var lines []string
	switch shape {
	case RowHeader:
		lines = narrateRowHeader(rows)
	case ColumnHeader:
		lines = narrateColumnHeader(rows)
	case RowAndColumnHeader:
		lines = narrateRowAndColumnHeader(rows)
	case NoHeader:
		lines = narrateNoHeader(rows)
	default:
		return "", fmt.Errorf("%w: %d", ErrInvalidShape, int(shape))
	}
	return strings.Join(lines, "\n"), nil
}

// narrateRowHeader pairs each data cell with its column label. A row whose
// cells all repeat the same non-empty value is a full-row annotation, not
// data, and becomes a single "Note:" line.
func narrateRowHeader(rows [][]string) []string {
	headers := rows[0]
	var lines []string
	for _, row := range rows[1:] {
		if uniformNonEmpty(row) {
			lines = append(lines, "Note: "+row[0])
			continue
		}
		var items []string
		for i := 0; i < min(len(headers), len(row)); i++ {
			if row[i] != "" {
				items = append(items, headers[i]+": "+row[i])
			}
		}
		if len(items) > 0 {
			lines = append(lines, "- "+strings.Join(items, ", "))
		}
	}
	return lines
}

func narrateColumnHeader(rows [][]string) []string {
	var lines []string
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		var items []string
		for _, c := range row[1:] {
			if c != "" {
				items = append(items, c)
			}
		}
		if len(items) > 0 {
			lines = append(lines, fmt.Sprintf("- %s: %s", row[0], strings.Join(items, ", ")))
		}
	}
	return lines
}

// narrateRowAndColumnHeader emits one line per (row, column) cell,
// including empty cells. The asymmetry with the other modes (no omission
// here) is intentional.
func narrateRowAndColumnHeader(rows [][]string) []string {
	var colHeaders []string
	if len(rows[0]) > 0 {
		colHeaders = rows[0][1:]
	}

	var lines []string
	for _, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}
		rowHeader := row[0]
		values := row[1:]
		for j := 0; j < min(len(values), len(colHeaders)); j++ {
			lines = append(lines, fmt.Sprintf("- %s et %s: %s", colHeaders[j], rowHeader, values[j]))
		}
	}
	return lines
}

func narrateNoHeader(rows [][]string) []string {
	var lines []string
	for _, row := range rows {
		var items []string
		for _, c := range row {
			if c != "" {
				items = append(items, c)
			}
		}
		if len(items) > 0 {
			lines = append(lines, "- "+strings.Join(items, ", "))
		}
	}
	return lines
}

// uniformNonEmpty reports whether every cell in the row holds the same
// non-empty value.
func uniformNonEmpty(row []string) bool {
	if len(row) == 0 || row[0] == "" {
		return false
	}
	for _, c := range row[1:] {
		if c != row[0] {
			return false
		}
	}
	return true
}
