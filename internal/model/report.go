package model

import "time"

// Report is the audit summary written after validation
type Report struct {
	RunID       string         `json:"run_id" yaml:"run_id"`
	GeneratedAt time.Time      `json:"generated_at" yaml:"generated_at"`
	Responses   int            `json:"responses" yaml:"responses"`
	Entities    int            `json:"entities" yaml:"entities"` // fact sheet rows
	Groups      []GroupSummary `json:"groups" yaml:"groups"`
	Signals     []Signal       `json:"signals" yaml:"signals"`
	Principles  Principles     `json:"principles" yaml:"principles"`
}

// GroupSummary aggregates the validation results of one (model, condition) pair
type GroupSummary struct {
	Model               string         `json:"model" yaml:"model"`
	Condition           string         `json:"condition" yaml:"condition"`
	Responses           int            `json:"responses" yaml:"responses"`
	Supported           int            `json:"supported" yaml:"supported"` // responses with any entity supported
	SupportRate         float64        `json:"support_rate" yaml:"support_rate"`
	MeanPrecision       float64        `json:"mean_precision_like" yaml:"mean_precision_like"`
	TotalHits           int            `json:"total_hits" yaml:"total_hits"`
	MeanDistinctNumbers float64        `json:"mean_distinct_numbers" yaml:"mean_distinct_numbers"`
	Mentions            []MentionCount `json:"mentions,omitempty" yaml:"mentions,omitempty"` // descending count
	TopEntity           string         `json:"top_entity,omitempty" yaml:"top_entity,omitempty"`
	TopShare            float64        `json:"top_share" yaml:"top_share"` // responses mentioning TopEntity / Responses
}

// MentionCount is the number of responses that mention an entity
type MentionCount struct {
	Pseudonym string `json:"pseudonym" yaml:"pseudonym"`
	Count     int    `json:"count" yaml:"count"`
}

// Signal represents a diagnostic signal with transparent scoring data
type Signal struct {
	Type        SignalType             `json:"type" yaml:"type"`
	Severity    SignalSeverity         `json:"severity" yaml:"severity"`
	Subject     string                 `json:"subject" yaml:"subject"` // "model/condition" or condition
	Description string                 `json:"description" yaml:"description"`
	Data        map[string]interface{} `json:"data,omitempty" yaml:"data,omitempty"` // formulas and inputs
}

// SignalType classifies the type of diagnostic signal
type SignalType string

const (
	SignalGrounding     SignalType = "grounding"     // share of responses with any supported entity
	SignalPrecision     SignalType = "precision"     // mean precision-like score
	SignalConcentration SignalType = "concentration" // top entity share against the baseline condition
)

// SignalSeverity indicates the importance of the signal
type SignalSeverity string

const (
	SeverityInfo     SignalSeverity = "info"
	SeverityWarning  SignalSeverity = "warning"
	SeverityCritical SignalSeverity = "critical"
)

// Principles documents how the numbers in a report should be read
type Principles struct {
	Descriptive         bool `json:"descriptive" yaml:"descriptive"`                   // no significance testing
	Transparent         bool `json:"transparent" yaml:"transparent"`                   // every signal carries its formula
	PositionInsensitive bool `json:"position_insensitive" yaml:"position_insensitive"` // hits ignore where a number sits
}

// DefaultPrinciples returns the principles every report is produced under
func DefaultPrinciples() Principles {
	return Principles{
		Descriptive:         true,
		Transparent:         true,
		PositionInsensitive: true,
	}
}
