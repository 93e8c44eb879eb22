// Package prompts loads the prompt table that defines the experiment conditions.
package prompts

import (
	"sort"
	"strings"

	"github.com/ppiankov/biasprobe/internal/model"
	"github.com/ppiankov/biasprobe/internal/table"
)

// DefaultHypotheses maps the standard conditions to their hypothesis tags
var DefaultHypotheses = map[string]string{
	"neutral":      "H0-baseline",
	"positive":     "H1-framing",
	"negative":     "H1-framing",
	"demographic":  "H2-demographic",
	"confirmation": "H3-confirmation",
}

const unspecifiedHypothesis = "unspecified"

// Table is the set of prompt variants keyed by condition
type Table struct {
	byCondition map[string]model.PromptVariant
}

// NormalizeCondition lowercases and trims a condition tag
func NormalizeCondition(c string) string {
	return strings.ToLower(strings.TrimSpace(c))
}

// New builds a table from variants; a later variant replaces an earlier one with the same condition
func New(variants ...model.PromptVariant) *Table {
	t := &Table{byCondition: make(map[string]model.PromptVariant)}
	for _, v := range variants {
		cond := NormalizeCondition(v.Condition)
		if cond == "" {
			continue
		}
		v.Condition = cond
		if v.PromptID == "" {
			v.PromptID = cond + "_v1"
		}
		if v.Hypothesis == "" {
			v.Hypothesis = hypothesisFor(cond)
		}
		t.byCondition[cond] = v
	}
	return t
}

func hypothesisFor(cond string) string {
	if h, ok := DefaultHypotheses[cond]; ok {
		return h
	}
	return unspecifiedHypothesis
}

// Load reads the prompt table. A missing condition column or no usable rows is fatal.
func Load(t *table.Table) (*Table, error) {
	r := table.PromptResolver()
	var condCol table.Column
	ok := false
	if !t.Empty() {
		condCol, ok = r.Resolve(t, table.FieldCondition)
	}
	if !ok {
		return nil, &model.EmptyUpstreamArtifactError{
			Artifact: "prompt table",
			Reason:   "has no 'condition' column or is empty",
		}
	}
	idCol, hasID := r.Resolve(t, table.FieldPromptID)
	hypCol, hasHyp := r.Resolve(t, table.FieldHypothesis)
	textCol, hasText := r.Resolve(t, table.FieldPromptText)

	cell := func(ok bool, i int, c table.Column) string {
		if !ok {
			return ""
		}
		v := t.Cell(i, c)
		if table.IsNull(v) {
			return ""
		}
		return strings.TrimSpace(v)
	}

	variants := make([]model.PromptVariant, 0, t.Len())
	for i := range t.Rows {
		variants = append(variants, model.PromptVariant{
			PromptID:   cell(hasID, i, idCol),
			Hypothesis: cell(hasHyp, i, hypCol),
			Condition:  cell(true, i, condCol),
			PromptText: cell(hasText, i, textCol),
		})
	}

	pt := New(variants...)
	if pt.Len() == 0 {
		return nil, &model.EmptyUpstreamArtifactError{Artifact: "prompt table", Reason: "has no rows with a condition"}
	}
	return pt, nil
}

// Conditions returns the valid condition tags, sorted
func (t *Table) Conditions() []string {
	out := make([]string, 0, len(t.byCondition))
	for c := range t.byCondition {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Lookup returns the variant of a condition
func (t *Table) Lookup(condition string) (model.PromptVariant, bool) {
	v, ok := t.byCondition[NormalizeCondition(condition)]
	return v, ok
}

// Len returns the number of conditions
func (t *Table) Len() int {
	return len(t.byCondition)
}
