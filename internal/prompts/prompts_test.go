package prompts

import (
	"errors"
	"testing"

	"github.com/ppiankov/biasprobe/internal/model"
	"github.com/ppiankov/biasprobe/internal/table"
)

func TestLoad(t *testing.T) {
	tbl := table.New("prompt_variations", []string{"prompt_id", "hypothesis", "Condition", "prompt_text"})
	tbl.Append("neutral_v1", "H0-baseline", "Neutral", "Pick one player.")
	tbl.Append("", "", " negative ", "Who struggled?")
	tbl.Append("x", "y", "", "skipped")

	pt, err := Load(tbl)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	conds := pt.Conditions()
	if len(conds) != 2 || conds[0] != "negative" || conds[1] != "neutral" {
		t.Fatalf("Expected [negative neutral], got %v", conds)
	}

	neg, ok := pt.Lookup("NEGATIVE")
	if !ok {
		t.Fatal("Expected case-insensitive lookup")
	}
	if neg.PromptID != "negative_v1" {
		t.Errorf("Expected default prompt id 'negative_v1', got %q", neg.PromptID)
	}
	if neg.Hypothesis != "H1-framing" {
		t.Errorf("Expected default hypothesis 'H1-framing', got %q", neg.Hypothesis)
	}
}

func TestLoad_LaterRowWins(t *testing.T) {
	tbl := table.New("p", []string{"prompt_id", "condition"})
	tbl.Append("neutral_v1", "neutral")
	tbl.Append("neutral_v2", "neutral")

	pt, err := Load(tbl)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	v, _ := pt.Lookup("neutral")
	if v.PromptID != "neutral_v2" {
		t.Errorf("Expected 'neutral_v2', got %q", v.PromptID)
	}
}

func TestLoad_Errors(t *testing.T) {
	noCond := table.New("p", []string{"prompt_id"})
	noCond.Append("x")

	blank := table.New("p", []string{"condition"})
	blank.Append("  ")

	for name, tbl := range map[string]*table.Table{
		"no condition column": noCond,
		"empty":               table.New("p", []string{"condition"}),
		"only blank rows":     blank,
	} {
		if _, err := Load(tbl); !errors.Is(err, model.ErrEmptyUpstreamArtifact) {
			t.Errorf("%s: expected ErrEmptyUpstreamArtifact, got %v", name, err)
		}
	}
}

func TestNew_UnknownConditionHypothesis(t *testing.T) {
	pt := New(model.PromptVariant{Condition: "sarcastic"})
	v, ok := pt.Lookup("sarcastic")
	if !ok || v.Hypothesis != "unspecified" {
		t.Errorf("Expected 'unspecified' hypothesis, got %+v", v)
	}
}
