package model

import "time"

// TimestampLayout is the ISO-8601 UTC layout of ingestion timestamps
const TimestampLayout = "2006-01-02T15:04:05Z"

// PromptVariant is one row of the prompt table
type PromptVariant struct {
	PromptID   string `json:"prompt_id"`
	Hypothesis string `json:"hypothesis"`
	Condition  string `json:"condition"`
	PromptText string `json:"prompt_text"`
}

// ResponseRecord is one ingested model response
type ResponseRecord struct {
	FileName     string    `json:"file_name"`
	PromptID     string    `json:"prompt_id"`
	Hypothesis   string    `json:"hypothesis"`
	Condition    string    `json:"condition"`
	Model        string    `json:"model"`
	ModelVersion string    `json:"model_version"`
	Temperature  string    `json:"temperature"`
	Timestamp    time.Time `json:"timestamp"`
	PromptText   string    `json:"prompt_text"`
	ResponseText string    `json:"response_text"`
	Run          string    `json:"run"` // digits, leading zeros stripped
	CharLen      int       `json:"char_len"`
	WordCount    int       `json:"word_count"`
	ResponseHash string    `json:"response_hash"` // hex SHA-256 of ResponseText
}

// ResponseColumns is the column order of the response table
var ResponseColumns = []string{
	"file_name", "prompt_id", "hypothesis", "condition", "model", "model_version", "temperature",
	"timestamp", "prompt_text", "response_text", "run", "char_len", "word_count", "response_hash",
}
