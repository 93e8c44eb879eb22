package extract

import (
	"slices"
	"strings"
	"testing"
)

func TestMentionMatcher_LongestFirst(t *testing.T) {
	m := NewMentionMatcher([]string{"Entity A", "Entity AB", "Entity B"})

	got := slices.Collect(m.Mentions("Entity AB outscored Entity A; entity b trailed."))
	want := []string{"Entity AB", "Entity A", "Entity B"}
	if !slices.Equal(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestMentionMatcher_WordBoundaries(t *testing.T) {
	m := NewMentionMatcher([]string{"Entity A"})

	if got := m.Unique("Entity Alpha and Entity AA are not mentions"); len(got) != 0 {
		t.Errorf("Expected no mentions, got %v", got)
	}
	if got := m.Unique("(Entity A)"); len(got) != 1 {
		t.Errorf("Expected 1 mention inside parentheses, got %v", got)
	}
}

func TestMentionMatcher_UniqueFirstOccurrence(t *testing.T) {
	m := NewMentionMatcher([]string{"Entity A", "Entity B", "Entity C"})

	got := m.Unique("ENTITY C, then Entity A, then entity c again and Entity A.")
	want := []string{"Entity C", "Entity A"}
	if !slices.Equal(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestMentionMatcher_NoNames(t *testing.T) {
	m := NewMentionMatcher(nil)
	if got := m.Unique("Entity A"); len(got) != 0 {
		t.Errorf("Expected no mentions, got %v", got)
	}
}

func TestMentions_Restartable(t *testing.T) {
	m := NewMentionMatcher([]string{"Entity A"})
	seq := m.Mentions("Entity A and Entity A")

	first := slices.Collect(seq)
	second := slices.Collect(seq)
	if len(first) != 2 || len(second) != 2 {
		t.Errorf("Expected 2 mentions on each pass, got %d and %d", len(first), len(second))
	}
}

func TestNumbers(t *testing.T) {
	tests := []struct {
		text string
		want []float64
	}{
		{"Entity A scored 524 runs at 196.25 SR", []float64{524, 196.25}},
		{"strike rate 154.6911", []float64{154.69}},
		{"1,234 runs", []float64{1, 234}},
		{"no digits here", nil},
		{"v2 and 3rd", nil},
		{"10.4 overs", []float64{10.4}},
	}

	for _, tt := range tests {
		got := slices.Collect(Numbers(tt.text, 2))
		if !slices.Equal(got, tt.want) {
			t.Errorf("Numbers(%q): expected %v, got %v", tt.text, tt.want, got)
		}
	}
}

func TestDistinct(t *testing.T) {
	got := Distinct(Numbers("12 15 12 15.0 7", 2))
	want := []float64{12, 15, 7}
	if !slices.Equal(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestVisibleText_SkipInvisibleElements(t *testing.T) {
	page := `
	<html>
	<head>
		<script>var x = "script content";</script>
		<style>body { color: red; }</style>
	</head>
	<body>
		<p>Entity A scored 524 runs.</p>
		<noscript>Noscript content</noscript>
		<p>Entity B took 20 wickets.</p>
	</body>
	</html>
	`

	text, err := VisibleText(page)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !strings.Contains(text, "Entity A scored 524 runs.") || !strings.Contains(text, "Entity B took 20 wickets.") {
		t.Errorf("Expected visible paragraphs, got %q", text)
	}
	for _, hidden := range []string{"script content", "color: red", "Noscript content"} {
		if strings.Contains(text, hidden) {
			t.Errorf("Should not extract %q", hidden)
		}
	}
}
