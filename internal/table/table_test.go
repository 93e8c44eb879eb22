package table

import (
	"bytes"
	"errors"
	"io/fs"
	"path/filepath"
	"testing"
)

func TestParse_Latin1Fallback(t *testing.T) {
	// "Jos\xe9" is Latin-1 for "José" and is not valid UTF-8
	data := []byte("Player Name,Runs\nJos\xe9,120\n")

	tbl, err := Parse("batting", data)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if tbl.Len() != 1 {
		t.Fatalf("Expected 1 row, got %d", tbl.Len())
	}
	if tbl.Rows[0][0] != "José" {
		t.Errorf("Expected 'José', got %q", tbl.Rows[0][0])
	}
}

func TestParse_EmptyInput(t *testing.T) {
	tbl, err := Parse("empty", nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !tbl.Empty() {
		t.Error("Expected empty table")
	}
	if len(tbl.Header) != 0 {
		t.Errorf("Expected no header, got %v", tbl.Header)
	}
}

func TestParse_RaggedRows(t *testing.T) {
	tbl, err := Parse("ragged", []byte("a,b,c\n1,2\n1,2,3,4\n"))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	col, _ := tbl.Lookup("c")
	if got := tbl.Cell(0, col); got != "" {
		t.Errorf("Expected empty cell for short row, got %q", got)
	}
	if got := tbl.Cell(1, col); got != "3" {
		t.Errorf("Expected '3', got %q", got)
	}
}

func TestWriteCSV_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "out.csv")

	tbl := New("out", []string{"name", "note"})
	tbl.Append("Entity A", "said \"hi\", twice")

	if err := WriteCSV(path, tbl); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	back, err := ReadCSV(path)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if back.Name != "out" {
		t.Errorf("Expected name 'out', got %q", back.Name)
	}
	if back.Rows[0][1] != "said \"hi\", twice" {
		t.Errorf("Expected quoted cell to survive, got %q", back.Rows[0][1])
	}
}

func TestReadCSV_MissingFile(t *testing.T) {
	_, err := ReadCSV(filepath.Join(t.TempDir(), "nope.csv"))
	if err == nil {
		t.Fatal("Expected error for missing file")
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Expected not-exist error, got %v", err)
	}
}

func TestCandidateResolver(t *testing.T) {
	tbl := New("bowling", []string{" Player Name ", "OVR", "WKT", "SR"})
	r := BowlingResolver()

	tests := []struct {
		field Field
		want  int
		found bool
	}{
		{FieldPlayer, 0, true},
		{FieldOvers, 1, true},
		{FieldWickets, 2, true},
		{FieldBowlStrikeRate, 3, true},
		{FieldRuns, -1, false},
	}

	for _, tt := range tests {
		col, ok := r.Resolve(tbl, tt.field)
		if ok != tt.found {
			t.Errorf("%s: expected found=%v, got %v", tt.field, tt.found, ok)
			continue
		}
		if col.Index != tt.want {
			t.Errorf("%s: expected index %d, got %d", tt.field, tt.want, col.Index)
		}
	}
}

func TestCandidateResolver_PrefersCandidateOrder(t *testing.T) {
	// "player" precedes "name" in the identity candidates even when "name" comes first in the header
	tbl := New("src", []string{"Name", "Player"})
	col, ok := IdentityResolver().Resolve(tbl, FieldName)
	if !ok {
		t.Fatal("Expected identity column")
	}
	if col.Name != "Player" {
		t.Errorf("Expected 'Player', got %q", col.Name)
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"524", 524, true},
		{" 196.25 ", 196.25, true},
		{"", 0, false},
		{"NA", 0, false},
		{"-", 0, false},
		{"nan", 0, false},
		{"1,234", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseNumber(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ParseNumber(%q): expected (%v, %v), got (%v, %v)", tt.in, tt.want, tt.ok, got, ok)
		}
	}
}

func TestWrite_HeaderOnly(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, New("x", []string{"a", "b"})); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if buf.String() != "a,b\n" {
		t.Errorf("Expected header line only, got %q", buf.String())
	}
}
