package ingest

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ppiankov/biasprobe/internal/model"
	"github.com/ppiankov/biasprobe/internal/table"
)

// ResponsesTableName is the file stem of the structured response table
const ResponsesTableName = "llm_outputs_structured"

// legacyHashColumn is the hash column name used by older response tables
const legacyHashColumn = "response_sha1"

// ResponsesTable renders records in response table column order
func ResponsesTable(records []model.ResponseRecord) *table.Table {
	t := table.New(ResponsesTableName, model.ResponseColumns)
	for _, r := range records {
		t.Append(
			r.FileName,
			r.PromptID,
			r.Hypothesis,
			r.Condition,
			r.Model,
			r.ModelVersion,
			r.Temperature,
			r.Timestamp.UTC().Format(model.TimestampLayout),
			r.PromptText,
			r.ResponseText,
			r.Run,
			strconv.Itoa(r.CharLen),
			strconv.Itoa(r.WordCount),
			r.ResponseHash,
		)
	}
	return t
}

// ResponsesFromTable reads records back from a response table.
// Only response_text is required; missing measurements and hashes are recomputed.
func ResponsesFromTable(t *table.Table) ([]model.ResponseRecord, error) {
	var textCol table.Column
	ok := false
	if !t.Empty() {
		textCol, ok = t.Lookup("response_text")
	}
	if !ok {
		return nil, &model.EmptyUpstreamArtifactError{
			Artifact: "response table",
			Reason:   "has no 'response_text' column or no rows",
		}
	}

	hashCol, hasHash := t.Lookup("response_hash")
	if !hasHash {
		hashCol, hasHash = t.Lookup(legacyHashColumn)
	}

	str := func(i int, name string) string {
		c, ok := t.Lookup(name)
		if !ok {
			return ""
		}
		return strings.TrimSpace(t.Cell(i, c))
	}
	num := func(i int, name string) (int, bool) {
		n, err := strconv.Atoi(str(i, name))
		return n, err == nil
	}

	records := make([]model.ResponseRecord, 0, t.Len())
	for i := range t.Rows {
		text := t.Cell(i, textCol)
		rec := model.ResponseRecord{
			FileName:     str(i, "file_name"),
			PromptID:     str(i, "prompt_id"),
			Hypothesis:   str(i, "hypothesis"),
			Condition:    str(i, "condition"),
			Model:        str(i, "model"),
			ModelVersion: str(i, "model_version"),
			Temperature:  str(i, "temperature"),
			PromptText:   str(i, "prompt_text"),
			ResponseText: text,
			Run:          normalizeRun(str(i, "run")),
		}
		if ts, err := time.Parse(model.TimestampLayout, str(i, "timestamp")); err == nil {
			rec.Timestamp = ts
		}
		if n, ok := num(i, "char_len"); ok {
			rec.CharLen = n
		} else {
			rec.CharLen = utf8.RuneCountInString(text)
		}
		if n, ok := num(i, "word_count"); ok {
			rec.WordCount = n
		} else {
			rec.WordCount = len(strings.Fields(text))
		}
		if hasHash {
			rec.ResponseHash = strings.TrimSpace(t.Cell(i, hashCol))
		}
		if rec.ResponseHash == "" {
			rec.ResponseHash = HashText(text)
		}
		records = append(records, rec)
	}
	return records, nil
}

// normalizeRun strips leading zeros and a float suffix such as "2.0" left by spreadsheet tools
func normalizeRun(s string) string {
	s, _, _ = strings.Cut(s, ".")
	if s == "" {
		return ""
	}
	s = strings.TrimLeft(s, "0")
	if s == "" {
		return "0"
	}
	return s
}
