// Package extract produces the mention and number streams of a response text.
package extract

import (
	"iter"
	"regexp"
	"sort"
	"strings"
)

// MentionMatcher finds pseudonym mentions in free text
type MentionMatcher struct {
	pattern   *regexp.Regexp    // nil when there are no names
	canonical map[string]string // lowercased match -> canonical pseudonym
}

// NewMentionMatcher builds one case-insensitive, word-bounded pattern over names.
// Names are tried longest first so "Entity AB" is never read as "Entity A".
func NewMentionMatcher(names []string) *MentionMatcher {
	m := &MentionMatcher{canonical: make(map[string]string)}

	var alts []string
	for _, n := range names {
		if n == "" {
			continue
		}
		key := strings.ToLower(n)
		if _, dup := m.canonical[key]; dup {
			continue
		}
		m.canonical[key] = n
		alts = append(alts, n)
	}
	if len(alts) == 0 {
		return m
	}

	sort.Slice(alts, func(i, j int) bool {
		if len(alts[i]) != len(alts[j]) {
			return len(alts[i]) > len(alts[j])
		}
		return alts[i] < alts[j]
	})
	for i, a := range alts {
		alts[i] = regexp.QuoteMeta(a)
	}
	m.pattern = regexp.MustCompile(`(?i)\b(?:` + strings.Join(alts, "|") + `)\b`)
	return m
}

// Mentions yields every mention in text, left to right, in canonical casing
func (m *MentionMatcher) Mentions(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		if m.pattern == nil {
			return
		}
		for _, loc := range m.pattern.FindAllStringIndex(text, -1) {
			match := text[loc[0]:loc[1]]
			name, ok := m.canonical[strings.ToLower(match)]
			if !ok {
				name = match
			}
			if !yield(name) {
				return
			}
		}
	}
}

// Unique returns the distinct mentions of text in first-occurrence order
func (m *MentionMatcher) Unique(text string) []string {
	return Distinct(m.Mentions(text))
}

// Distinct collects the distinct values of seq in first-occurrence order
func Distinct[T comparable](seq iter.Seq[T]) []T {
	seen := make(map[T]struct{})
	var out []T
	for v := range seq {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
