package table

// Field is a logical column that source tables may name differently
type Field string

const (
	FieldName           Field = "name"
	FieldPlayer         Field = "player"
	FieldRuns           Field = "runs"
	FieldBatStrikeRate  Field = "bat_strike_rate"
	FieldOvers          Field = "overs"
	FieldWickets        Field = "wickets"
	FieldBowlStrikeRate Field = "bowl_strike_rate"
	FieldPromptID       Field = "prompt_id"
	FieldHypothesis     Field = "hypothesis"
	FieldCondition      Field = "condition"
	FieldPromptText     Field = "prompt_text"
)

// Resolver finds the column holding a logical field, if the table has one
type Resolver interface {
	Resolve(t *Table, f Field) (Column, bool)
}

// CandidateResolver resolves a field to the first header, in candidate order,
// that matches case-insensitively after trimming
type CandidateResolver struct {
	candidates map[Field][]string
}

// NewCandidateResolver creates a resolver from per-field candidate header names
func NewCandidateResolver(candidates map[Field][]string) *CandidateResolver {
	return &CandidateResolver{candidates: candidates}
}

// Resolve implements Resolver
func (r *CandidateResolver) Resolve(t *Table, f Field) (Column, bool) {
	for _, name := range r.candidates[f] {
		if col, ok := t.Lookup(name); ok {
			return col, true
		}
	}
	return Column{Index: -1}, false
}

// Candidates returns the header names tried for f
func (r *CandidateResolver) Candidates(f Field) []string {
	return append([]string(nil), r.candidates[f]...)
}

var strikeRateCandidates = []string{"sr", "strike_rate", "strike rate"}

// IdentityResolver finds the raw-name column of any source table
func IdentityResolver() *CandidateResolver {
	return NewCandidateResolver(map[Field][]string{
		FieldName: {"player", "player name", "name", "batter", "batsman", "striker", "non_striker", "bowler"},
	})
}

// BattingResolver resolves the batting source table
func BattingResolver() *CandidateResolver {
	return NewCandidateResolver(map[Field][]string{
		FieldPlayer:        {"player name", "player", "name"},
		FieldRuns:          {"runs", "r"},
		FieldBatStrikeRate: strikeRateCandidates,
	})
}

// BowlingResolver resolves the bowling source table
func BowlingResolver() *CandidateResolver {
	return NewCandidateResolver(map[Field][]string{
		FieldPlayer:         {"player name", "player", "name"},
		FieldOvers:          {"ovr", "overs", "o"},
		FieldWickets:        {"wkt", "wkts", "wickets"},
		FieldBowlStrikeRate: strikeRateCandidates,
	})
}

// PromptResolver resolves the prompt table
func PromptResolver() *CandidateResolver {
	return NewCandidateResolver(map[Field][]string{
		FieldPromptID:   {"prompt_id"},
		FieldHypothesis: {"hypothesis"},
		FieldCondition:  {"condition"},
		FieldPromptText: {"prompt_text"},
	})
}
