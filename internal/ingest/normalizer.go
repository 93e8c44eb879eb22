package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ppiankov/biasprobe/internal/model"
	"github.com/ppiankov/biasprobe/internal/prompts"
)

// Candidate is one response file read from disk
type Candidate struct {
	Path string
	Text string
}

// Skipped is a candidate that did not become a record
type Skipped struct {
	Path   string
	Reason string
	Err    error
}

// Result is the output of one normalization
type Result struct {
	Records    []model.ResponseRecord // sorted by path, duplicates removed
	Skipped    []Skipped
	Duplicates int
}

// Normalizer parses, hashes, measures and deduplicates responses
type Normalizer struct {
	prompts      *prompts.Table
	clock        func() time.Time
	modelVersion string
	temperature  string
	logger       *slog.Logger
	newDeduper   func() Deduper
}

// Option configures a Normalizer
type Option func(*Normalizer)

// WithClock sets the clock used for ingestion timestamps
func WithClock(clock func() time.Time) Option {
	return func(n *Normalizer) { n.clock = clock }
}

// WithModelVersion sets the model_version written on every record
func WithModelVersion(v string) Option {
	return func(n *Normalizer) { n.modelVersion = v }
}

// WithTemperature sets the temperature written on every record
func WithTemperature(t string) Option {
	return func(n *Normalizer) { n.temperature = t }
}

// WithLogger sets the logger for skipped files
func WithLogger(l *slog.Logger) Option {
	return func(n *Normalizer) { n.logger = l }
}

// WithDeduper sets the deduper factory; a fresh deduper is used per Normalize call
func WithDeduper(f func() Deduper) Option {
	return func(n *Normalizer) { n.newDeduper = f }
}

// NewNormalizer creates a normalizer for the conditions of a prompt table
func NewNormalizer(pt *prompts.Table, opts ...Option) *Normalizer {
	n := &Normalizer{
		prompts:      pt,
		clock:        time.Now,
		modelVersion: "ui",
		temperature:  "NA",
		logger:       slog.Default(),
		newDeduper:   NewInMemoryDeduper,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// HashText returns the hex SHA-256 digest of a response text
func HashText(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// Normalize turns candidates into response records.
// Candidates are processed in path order so the first of several duplicates is always the same one.
func (n *Normalizer) Normalize(candidates []Candidate) *Result {
	sorted := make([]Candidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, k int) bool {
		return sorted[i].Path < sorted[k].Path
	})

	conditions := n.prompts.Conditions()
	dedupe := n.newDeduper()
	res := &Result{Records: make([]model.ResponseRecord, 0, len(sorted))}

	for _, c := range sorted {
		parsed, err := ParseFilename(c.Path, conditions)
		if err != nil {
			n.skip(res, c.Path, err.Error(), err)
			continue
		}

		variant, ok := n.prompts.Lookup(parsed.Condition)
		if !ok {
			n.skip(res, c.Path, "condition "+parsed.Condition+" not present in prompt table", nil)
			continue
		}

		rec := model.ResponseRecord{
			FileName:     filepath.Base(c.Path),
			PromptID:     variant.PromptID,
			Hypothesis:   variant.Hypothesis,
			Condition:    parsed.Condition,
			Model:        parsed.Model,
			ModelVersion: n.modelVersion,
			Temperature:  n.temperature,
			Timestamp:    n.clock().UTC().Truncate(time.Second),
			PromptText:   variant.PromptText,
			ResponseText: c.Text,
			Run:          parsed.Run,
			CharLen:      utf8.RuneCountInString(c.Text),
			WordCount:    len(strings.Fields(c.Text)),
			ResponseHash: HashText(c.Text),
		}

		key := Key{Hash: rec.ResponseHash, PromptID: rec.PromptID, Run: rec.Run, Model: rec.Model}
		if dedupe.SeenAndRecord(key) {
			res.Duplicates++
			n.logger.Debug("duplicate response dropped", "file", c.Path, "model", rec.Model, "run", rec.Run)
			continue
		}
		res.Records = append(res.Records, rec)
	}

	n.logger.Debug("normalized responses",
		"records", len(res.Records), "distinct_keys", dedupe.Size(),
		"duplicates", res.Duplicates, "skipped", len(res.Skipped))
	return res
}

func (n *Normalizer) skip(res *Result, path, reason string, err error) {
	res.Skipped = append(res.Skipped, Skipped{Path: path, Reason: reason, Err: err})
	n.logger.Warn("skipping response file", "file", filepath.Base(path), "reason", reason)
}
