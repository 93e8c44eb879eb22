// Package ingest turns collected response files into the structured response table.
package ingest

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

const (
	separator    = "_"
	unknownModel = "unknown_model"
)

var (
	// ErrConditionNotFound matches any *ConditionNotFoundError
	ErrConditionNotFound = errors.New("condition token not found")

	// ErrRunIndexNotFound matches any *RunIndexNotFoundError
	ErrRunIndexNotFound = errors.New("run index not found")

	separatorRun = regexp.MustCompile(`[\s\-]+`)
	runToken     = regexp.MustCompile(`(?:^|_)run(\d+)(?:_|$)`)
)

// ConditionNotFoundError reports an identifier without a valid condition token
type ConditionNotFoundError struct {
	Identifier string
	Conditions []string
}

func (e *ConditionNotFoundError) Error() string {
	return fmt.Sprintf("condition token not found in %q (expected one of %v)", e.Identifier, e.Conditions)
}

// Is makes errors.Is(err, ErrConditionNotFound) match
func (e *ConditionNotFoundError) Is(target error) bool {
	return target == ErrConditionNotFound
}

// RunIndexNotFoundError reports an identifier without a runN token
type RunIndexNotFoundError struct {
	Identifier string
}

func (e *RunIndexNotFoundError) Error() string {
	return fmt.Sprintf("missing run index in %q (e.g. _run1)", e.Identifier)
}

// Is makes errors.Is(err, ErrRunIndexNotFound) match
func (e *RunIndexNotFoundError) Is(target error) bool {
	return target == ErrRunIndexNotFound
}

// ParsedName is what a response identifier says about its response
type ParsedName struct {
	Model     string
	Condition string
	Run       string
}

// NormalizeIdentifier lowercases id and collapses whitespace and hyphen runs into "_"
func NormalizeIdentifier(id string) string {
	return separatorRun.ReplaceAllString(strings.ToLower(id), separator)
}

// ParseFilename parses the base name of path without its final extension
func ParseFilename(path string, conditions []string) (ParsedName, error) {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return ParseIdentifier(stem, conditions)
}

// ParseIdentifier extracts model, condition and run index from a response identifier.
// Tokens may appear in any order.
func ParseIdentifier(id string, conditions []string) (ParsedName, error) {
	norm := NormalizeIdentifier(id)

	cond, tag := findCondition(norm, conditions)
	if cond == "" {
		return ParsedName{}, &ConditionNotFoundError{Identifier: id, Conditions: conditions}
	}

	m := runToken.FindStringSubmatch(norm)
	if m == nil {
		return ParsedName{}, &RunIndexNotFoundError{Identifier: id}
	}
	run := strings.TrimLeft(m[1], "0")
	if run == "" {
		run = "0"
	}

	model, _, _ := strings.Cut(norm, separator+tag)
	model = strings.Trim(model, separator)
	if model == "" {
		model = unknownModel
	}

	return ParsedName{Model: model, Condition: cond, Run: run}, nil
}

// findCondition returns the valid condition occurring earliest as a whole token,
// together with its normalized form. On equal position the longer tag wins.
func findCondition(norm string, conditions []string) (string, string) {
	best, bestTag, bestAt := "", "", -1
	for _, c := range conditions {
		c = strings.ToLower(strings.TrimSpace(c))
		if c == "" {
			continue
		}
		tag := NormalizeIdentifier(c)
		at := tokenIndex(norm, tag)
		if at < 0 {
			continue
		}
		if bestAt < 0 || at < bestAt || (at == bestAt && len(tag) > len(bestTag)) {
			best, bestTag, bestAt = c, tag, at
		}
	}
	return best, bestTag
}

// tokenIndex returns the byte offset of the first occurrence of tok bounded
// by "_" or the ends of s, or -1
func tokenIndex(s, tok string) int {
	from := 0
	for from <= len(s) {
		i := strings.Index(s[from:], tok)
		if i < 0 {
			return -1
		}
		i += from
		end := i + len(tok)
		before := i == 0 || s[i-1] == '_'
		after := end == len(s) || s[end] == '_'
		if before && after {
			return i
		}
		from = i + 1
	}
	return -1
}
