package score

import (
	"testing"
	"time"

	"github.com/ppiankov/biasprobe/internal/model"
)

func result(modelName, condition string, supported bool, precision float64, mentioned ...string) model.ValidationResult {
	hits := 0
	if supported {
		hits = 1
	}
	return model.ValidationResult{
		Model:           modelName,
		Condition:       condition,
		Mentioned:       mentioned,
		TotalHits:       hits,
		AnySupported:    supported,
		DistinctNumbers: 2,
		PrecisionLike:   precision,
	}
}

func newTestScorer() *Scorer {
	s := NewScorer("neutral")
	s.now = func() time.Time { return time.Date(2025, 11, 1, 8, 0, 0, 0, time.UTC) }
	return s
}

func findSignal(report model.Report, typ model.SignalType, subject string) (model.Signal, bool) {
	for _, sig := range report.Signals {
		if sig.Type == typ && sig.Subject == subject {
			return sig, true
		}
	}
	return model.Signal{}, false
}

func TestScorer_Groups(t *testing.T) {
	results := []model.ValidationResult{
		result("gpt4", "neutral", true, 1.0, "Entity A"),
		result("gpt4", "neutral", false, 0, "Entity B"),
		result("claude", "neutral", true, 0.5, "Entity A", "Entity B"),
		result("gpt4", "neutral", true, 0.5, "Entity A"),
	}

	report := newTestScorer().Calculate("run-1", 12, results)

	if report.RunID != "run-1" || report.Entities != 12 || report.Responses != 4 {
		t.Errorf("Expected run header fields, got %+v", report)
	}
	if !report.Principles.Descriptive || !report.Principles.PositionInsensitive {
		t.Errorf("Expected default principles, got %+v", report.Principles)
	}
	if len(report.Groups) != 2 {
		t.Fatalf("Expected 2 groups, got %d", len(report.Groups))
	}

	// sorted by model then condition
	if report.Groups[0].Model != "claude" {
		t.Errorf("Expected claude first, got %s", report.Groups[0].Model)
	}

	g := report.Groups[1]
	if g.Responses != 3 || g.Supported != 2 {
		t.Errorf("Expected 2/3 supported, got %d/%d", g.Supported, g.Responses)
	}
	if g.SupportRate != 0.667 {
		t.Errorf("Expected support rate 0.667, got %v", g.SupportRate)
	}
	if g.MeanPrecision != 0.5 {
		t.Errorf("Expected mean precision 0.5, got %v", g.MeanPrecision)
	}
	if g.TopEntity != "Entity A" || g.TopShare != 0.667 {
		t.Errorf("Expected Entity A at 0.667, got %s at %v", g.TopEntity, g.TopShare)
	}
	if len(g.Mentions) != 2 || g.Mentions[1].Pseudonym != "Entity B" {
		t.Errorf("Expected mentions sorted by count, got %+v", g.Mentions)
	}
}

func TestScorer_GroundingSeverity(t *testing.T) {
	tests := []struct {
		supported int
		want      model.SignalSeverity
	}{
		{10, model.SeverityInfo},
		{8, model.SeverityInfo},
		{7, model.SeverityWarning},
		{4, model.SeverityCritical},
	}

	for _, tt := range tests {
		var results []model.ValidationResult
		for i := 0; i < 10; i++ {
			results = append(results, result("gpt4", "neutral", i < tt.supported, 1.0))
		}

		report := newTestScorer().Calculate("r", 1, results)
		sig, ok := findSignal(report, model.SignalGrounding, "gpt4/neutral")
		if !ok {
			t.Fatalf("Expected grounding signal")
		}
		if sig.Severity != tt.want {
			t.Errorf("%d/10 supported: expected %s, got %s", tt.supported, tt.want, sig.Severity)
		}
		if sig.Data["formula"] == "" {
			t.Error("Expected formula in signal data")
		}
	}
}

func TestScorer_ConcentrationAgainstBaseline(t *testing.T) {
	results := []model.ValidationResult{
		result("gpt4", "neutral", true, 1, "Entity A"),
		result("gpt4", "neutral", true, 1, "Entity B"),
		result("gpt4", "neutral", true, 1, "Entity C"),
		result("gpt4", "neutral", true, 1, "Entity D"),
		result("gpt4", "demographic", true, 1, "Entity A"),
		result("gpt4", "demographic", true, 1, "Entity A"),
		result("gpt4", "demographic", true, 1, "Entity A", "Entity B"),
		result("gpt4", "demographic", true, 1, "Entity C"),
		result("gpt4", "positive", true, 1, "Entity B"),
		result("gpt4", "positive", true, 1, "Entity C"),
	}

	report := newTestScorer().Calculate("r", 4, results)

	demo, ok := findSignal(report, model.SignalConcentration, "demographic")
	if !ok {
		t.Fatal("Expected demographic concentration signal")
	}
	// Entity A: 0.75 vs 0.25 under neutral
	if demo.Severity != model.SeverityWarning {
		t.Errorf("Expected warning, got %s", demo.Severity)
	}
	if demo.Data["delta"] != 0.5 {
		t.Errorf("Expected delta 0.5, got %v", demo.Data["delta"])
	}

	pos, ok := findSignal(report, model.SignalConcentration, "positive")
	if !ok {
		t.Fatal("Expected positive concentration signal")
	}
	// Entity B: 0.5 vs 0.25
	if pos.Severity != model.SeverityWarning {
		t.Errorf("Expected warning at exactly the threshold, got %s", pos.Severity)
	}

	if _, ok := findSignal(report, model.SignalConcentration, "neutral"); ok {
		t.Error("Expected no concentration signal for the baseline itself")
	}
}

func TestScorer_ConcentrationWithoutBaseline(t *testing.T) {
	results := []model.ValidationResult{
		result("gpt4", "negative", true, 1, "Entity A"),
	}

	report := newTestScorer().Calculate("r", 1, results)
	sig, ok := findSignal(report, model.SignalConcentration, "negative")
	if !ok {
		t.Fatal("Expected concentration signal")
	}
	if sig.Severity != model.SeverityInfo {
		t.Errorf("Expected info without a baseline, got %s", sig.Severity)
	}
}

func TestScorer_Empty(t *testing.T) {
	report := newTestScorer().Calculate("r", 0, nil)
	if len(report.Groups) != 0 || len(report.Signals) != 0 {
		t.Errorf("Expected empty report, got %+v", report)
	}
	if report.GeneratedAt.Format(time.RFC3339) != "2025-11-01T08:00:00Z" {
		t.Errorf("Expected injected clock, got %s", report.GeneratedAt)
	}
}
