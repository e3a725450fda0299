package chunker

import (
	"errors"
	"strings"
	"testing"

	"github.com/KilianLavenan/medical-rag-chat/document"
)

func TestNarrateRowHeader(t *testing.T) {
	tests := []struct {
		name string
		rows [][]string
		want string
	}{
		{
			name: "simple pairing",
			rows: [][]string{{"Name", "Value"}, {"X", "Y"}},
			want: "- Name: X, Value: Y",
		},
		{
			name: "uniform row becomes note",
			rows: [][]string{{"A", "B"}, {"Si allergie, avis spécialisé", "Si allergie, avis spécialisé"}},
			want: "Note: Si allergie, avis spécialisé",
		},
		{
			name: "empty cells omitted",
			rows: [][]string{{"Molécule", "Dose", "Durée"}, {"Amoxicilline", "", "7 jours"}},
			want: "- Molécule: Amoxicilline, Durée: 7 jours",
		},
		{
			name: "all-empty data row emits nothing",
			rows: [][]string{{"A", "B"}, {"", ""}},
			want: "",
		},
		{
			name: "ragged row truncated to header length",
			rows: [][]string{{"A", "B"}, {"1", "2", "3"}},
			want: "- A: 1, B: 2",
		},
		{
			name: "header longer than row",
			rows: [][]string{{"A", "B", "C"}, {"1", "2"}},
			want: "- A: 1, B: 2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Narrate(document.Table{Rows: tt.rows}, RowHeader)
			if err != nil {
				t.Fatalf("Narrate: %v", err)
			}
			if got != tt.want {
				t.Errorf("Narrate = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNarrateColumnHeader(t *testing.T) {
	rows := [][]string{
		{"Signes cliniques", "fièvre", "toux"},
		{"Biologie", "", ""},
		{"Radiologie", "opacité"},
	}
	got, err := Narrate(document.Table{Rows: rows}, ColumnHeader)
	if err != nil {
		t.Fatalf("Narrate: %v", err)
	}
	want := "- Signes cliniques: fièvre, toux\n- Radiologie: opacité"
	if got != want {
		t.Errorf("Narrate = %q, want %q", got, want)
	}
}

func TestNarrateRowAndColumnHeader(t *testing.T) {
	t.Run("single cell", func(t *testing.T) {
		rows := [][]string{{"", "C1"}, {"R1", "v"}}
		got, err := Narrate(document.Table{Rows: rows}, RowAndColumnHeader)
		if err != nil {
			t.Fatalf("Narrate: %v", err)
		}
		if want := "- C1 et R1: v"; got != want {
			t.Errorf("Narrate = %q, want %q", got, want)
		}
	})

	t.Run("empty cells are kept", func(t *testing.T) {
		rows := [][]string{
			{"", "Ambulatoire", "Hôpital"},
			{"Amoxicilline", "1g x3/j", ""},
		}
		got, err := Narrate(document.Table{Rows: rows}, RowAndColumnHeader)
		if err != nil {
			t.Fatalf("Narrate: %v", err)
		}
		want := "- Ambulatoire et Amoxicilline: 1g x3/j\n- Hôpital et Amoxicilline: "
		if got != want {
			t.Errorf("Narrate = %q, want %q", got, want)
		}
	})

	t.Run("ragged row truncated to column headers", func(t *testing.T) {
		rows := [][]string{{"", "C1"}, {"R1", "a", "b"}}
		got, err := Narrate(document.Table{Rows: rows}, RowAndColumnHeader)
		if err != nil {
			t.Fatalf("Narrate: %v", err)
		}
		if want := "- C1 et R1: a"; got != want {
			t.Errorf("Narrate = %q, want %q", got, want)
		}
	})
}

func TestNarrateNoHeader(t *testing.T) {
	rows := [][]string{
		{"a", "", "b"},
		{"", ""},
		{"c"},
	}
	got, err := Narrate(document.Table{Rows: rows}, NoHeader)
	if err != nil {
		t.Fatalf("Narrate: %v", err)
	}
	want := "- a, b\n- c"
	if got != want {
		t.Errorf("Narrate = %q, want %q", got, want)
	}

	// Bullet count equals the number of rows with at least one non-empty cell.
	if got := len(strings.Split(want, "\n")); got != 2 {
		t.Errorf("bullet count = %d, want 2", got)
	}
}

func TestNarrateEmptyTable(t *testing.T) {
	got, err := Narrate(document.Table{}, RowHeader)
	if err != nil {
		t.Fatalf("Narrate: %v", err)
	}
	if got != "" {
		t.Errorf("Narrate = %q, want empty", got)
	}
}

func TestNarrateInvalidShape(t *testing.T) {
	_, err := Narrate(document.Table{Rows: [][]string{{"a"}}}, HeaderShape(42))
	if !errors.Is(err, ErrInvalidShape) {
		t.Errorf("error = %v, want ErrInvalidShape", err)
	}
}

func TestHeaderShapeText(t *testing.T) {
	for _, s := range []HeaderShape{RowHeader, ColumnHeader, RowAndColumnHeader, NoHeader} {
		text, err := s.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%v): %v", s, err)
		}
		var back HeaderShape
		if err := back.UnmarshalText(text); err != nil {
			t.Fatalf("UnmarshalText(%q): %v", text, err)
		}
		if back != s {
			t.Errorf("round trip %v -> %q -> %v", s, text, back)
		}
	}

	var s HeaderShape
	if err := s.UnmarshalText([]byte("diagonal")); !errors.Is(err, ErrInvalidShape) {
		t.Errorf("UnmarshalText error = %v, want ErrInvalidShape", err)
	}
}
