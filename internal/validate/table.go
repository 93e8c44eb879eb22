package validate

import (
	"strconv"
	"strings"

	"github.com/ppiankov/biasprobe/internal/model"
	"github.com/ppiankov/biasprobe/internal/table"
)

// ResultsTableName is the file stem of the validation table
const ResultsTableName = "claims_validation"

// ResultsTable renders results in validation table column order
func ResultsTable(results []model.ValidationResult) *table.Table {
	t := table.New(ResultsTableName, model.ValidationColumns)
	for _, r := range results {
		t.Append(
			r.PromptID,
			r.Condition,
			r.Model,
			r.Run,
			strings.Join(r.Mentioned, ", "),
			strconv.Itoa(len(r.Mentioned)),
			strconv.Itoa(r.TotalHits),
			strconv.FormatBool(r.AnySupported),
			strconv.Itoa(r.DistinctNumbers),
			strconv.FormatFloat(r.PrecisionLike, 'f', 3, 64),
			FormatPerEntity(r.PerEntity),
		)
	}
	return t
}

// FormatPerEntity renders hits as "name:count" pairs joined by "; "
func FormatPerEntity(hits []model.EntityHits) string {
	parts := make([]string, len(hits))
	for i, h := range hits {
		parts[i] = h.Pseudonym + ":" + strconv.Itoa(h.Hits)
	}
	return strings.Join(parts, "; ")
}
