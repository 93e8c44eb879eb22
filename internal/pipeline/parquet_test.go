package pipeline

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/parquet-go/parquet-go"

	"github.com/ppiankov/biasprobe/internal/model"
)

// readParquet loads rows written by WriteParquet
func readParquet(path string) ([]validationRow, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	reader := parquet.NewGenericReader[validationRow](pf)
	defer reader.Close()

	var out []validationRow
	batch := make([]validationRow, 64)
	for {
		n, err := reader.Read(batch)
		out = append(out, batch[:n]...)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read parquet rows: %w", err)
		}
	}
}

func TestParquetSchema_MatchesValidationColumns(t *testing.T) {
	var got []string
	for _, f := range parquet.SchemaOf(new(validationRow)).Fields() {
		got = append(got, f.Name())
	}
	want := slices.Clone(model.ValidationColumns)

	slices.Sort(got)
	slices.Sort(want)
	if !slices.Equal(got, want) {
		t.Errorf("Expected parquet columns %v, got %v", want, got)
	}
}

func TestWriteParquet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "analysis", "claims_validation.parquet")
	results := []model.ValidationResult{{
		PromptID:        "neutral_v1",
		Condition:       "neutral",
		Model:           "gpt4",
		Run:             "1",
		Mentioned:       []string{"Entity A", "Entity B"},
		TotalHits:       2,
		AnySupported:    true,
		DistinctNumbers: 3,
		PrecisionLike:   0.667,
	}}

	if err := WriteParquet(path, results); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	rows, err := readParquet(path)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("Expected 1 row, got %d", len(rows))
	}
	if rows[0].Mentioned != "Entity A, Entity B" || rows[0].MentionedCount != 2 {
		t.Errorf("Expected both mentions, got %q (%d)", rows[0].Mentioned, rows[0].MentionedCount)
	}
	if !rows[0].AnyEntitySupported || rows[0].TotalHits != 2 {
		t.Errorf("Expected supported row with 2 hits, got %+v", rows[0])
	}
}
