package model

// EntityHits is the number of claimed numbers supported by one entity's facts
type EntityHits struct {
	Pseudonym string `json:"pseudonym"`
	Hits      int    `json:"hits"`
}

// ValidationResult is the grounding check of one response against the fact sheet.
//
// Hits are credited per mentioned entity regardless of where the number sits in
// the text, so a response discussing several entities can overcredit support.
type ValidationResult struct {
	PromptID        string       `json:"prompt_id"`
	Condition       string       `json:"condition"`
	Model           string       `json:"model"`
	Run             string       `json:"run"`
	ResponseHash    string       `json:"response_hash,omitempty"`
	Mentioned       []string     `json:"mentioned_entities"` // first-occurrence order
	PerEntity       []EntityHits `json:"per_entity_hits"`    // same order as Mentioned
	TotalHits       int          `json:"total_ground_truth_hits"`
	DistinctNumbers int          `json:"distinct_numbers_in_text"`
	AnySupported    bool         `json:"any_entity_supported"`
	PrecisionLike   float64      `json:"precision_like"` // TotalHits / max(DistinctNumbers, 1), 3 dp
}

// ValidationColumns is the column order of the validation table
var ValidationColumns = []string{
	"prompt_id", "condition", "model", "run", "mentioned_entities", "mentioned_entities_count",
	"total_ground_truth_hits", "any_entity_supported", "distinct_numbers_in_text", "precision_like",
	"per_entity_hits",
}
