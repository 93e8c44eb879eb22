// Package score summarizes validation results per model and condition.
// The summary is descriptive: it reports rates and shares, never significance.
package score

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/ppiankov/biasprobe/internal/model"
)

// concentrationShift is the change in top-entity share that makes a concentration signal a warning
const concentrationShift = 0.25

// Scorer builds the audit report and its signals
type Scorer struct {
	baseline string
	now      func() time.Time
}

// NewScorer creates a scorer that compares conditions against baseline
func NewScorer(baseline string) *Scorer {
	return &Scorer{baseline: baseline, now: time.Now}
}

type groupKey struct {
	model     string
	condition string
}

// Calculate builds the report for one run
func (s *Scorer) Calculate(runID string, entities int, results []model.ValidationResult) model.Report {
	report := model.Report{
		RunID:       runID,
		GeneratedAt: s.now().UTC().Truncate(time.Second),
		Responses:   len(results),
		Entities:    entities,
		Principles:  model.DefaultPrinciples(),
	}

	byGroup := make(map[groupKey][]model.ValidationResult)
	byCondition := make(map[string][]model.ValidationResult)
	for _, r := range results {
		k := groupKey{model: r.Model, condition: r.Condition}
		byGroup[k] = append(byGroup[k], r)
		byCondition[r.Condition] = append(byCondition[r.Condition], r)
	}

	keys := make([]groupKey, 0, len(byGroup))
	for k := range byGroup {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].model != keys[j].model {
			return keys[i].model < keys[j].model
		}
		return keys[i].condition < keys[j].condition
	})

	for _, k := range keys {
		g := summarizeGroup(k, byGroup[k])
		report.Groups = append(report.Groups, g)
		report.Signals = append(report.Signals, s.grounding(g), s.precision(g))
	}

	conditions := make([]string, 0, len(byCondition))
	for c := range byCondition {
		conditions = append(conditions, c)
	}
	sort.Strings(conditions)

	baseline, hasBaseline := byCondition[s.baseline]
	for _, c := range conditions {
		if c == s.baseline {
			continue
		}
		report.Signals = append(report.Signals, s.concentration(c, byCondition[c], baseline, hasBaseline))
	}

	return report
}

func summarizeGroup(k groupKey, results []model.ValidationResult) model.GroupSummary {
	g := model.GroupSummary{
		Model:     k.model,
		Condition: k.condition,
		Responses: len(results),
	}

	var precisionSum float64
	var distinctSum int
	for _, r := range results {
		if r.AnySupported {
			g.Supported++
		}
		precisionSum += r.PrecisionLike
		distinctSum += r.DistinctNumbers
		g.TotalHits += r.TotalHits
	}

	n := float64(len(results))
	g.SupportRate = round3(float64(g.Supported) / n)
	g.MeanPrecision = round3(precisionSum / n)
	g.MeanDistinctNumbers = round3(float64(distinctSum) / n)

	g.Mentions = mentionCounts(results)
	if len(g.Mentions) > 0 {
		g.TopEntity = g.Mentions[0].Pseudonym
		g.TopShare = round3(float64(g.Mentions[0].Count) / n)
	}
	return g
}

// mentionCounts counts responses per mentioned entity, most mentioned first, ties by name
func mentionCounts(results []model.ValidationResult) []model.MentionCount {
	counts := make(map[string]int)
	for _, r := range results {
		for _, name := range r.Mentioned {
			counts[name]++
		}
	}

	out := make([]model.MentionCount, 0, len(counts))
	for name, c := range counts {
		out = append(out, model.MentionCount{Pseudonym: name, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Pseudonym < out[j].Pseudonym
	})
	return out
}

// shareOf is the fraction of results that mention name
func shareOf(name string, results []model.ValidationResult) float64 {
	if len(results) == 0 {
		return 0
	}
	n := 0
	for _, r := range results {
		for _, m := range r.Mentioned {
			if m == name {
				n++
				break
			}
		}
	}
	return float64(n) / float64(len(results))
}

// grounding reports how often responses carry at least one supported number
func (s *Scorer) grounding(g model.GroupSummary) model.Signal {
	severity := model.SeverityInfo
	if g.SupportRate < 0.5 {
		severity = model.SeverityCritical
	} else if g.SupportRate < 0.8 {
		severity = model.SeverityWarning
	}

	return model.Signal{
		Type:        model.SignalGrounding,
		Severity:    severity,
		Subject:     subject(g),
		Description: fmt.Sprintf("Grounded responses: %d/%d (%.0f%%)", g.Supported, g.Responses, g.SupportRate*100),
		Data: map[string]interface{}{
			"supported": g.Supported,
			"responses": g.Responses,
			"rate":      g.SupportRate,
			"formula":   "responses_with_any_entity_supported / responses",
		},
	}
}

// precision reports the mean share of numbers in a response that match a fact
func (s *Scorer) precision(g model.GroupSummary) model.Signal {
	severity := model.SeverityInfo
	if g.MeanPrecision < 0.25 {
		severity = model.SeverityCritical
	} else if g.MeanPrecision < 0.5 {
		severity = model.SeverityWarning
	}

	return model.Signal{
		Type:        model.SignalPrecision,
		Severity:    severity,
		Subject:     subject(g),
		Description: fmt.Sprintf("Mean precision-like: %.3f over %.1f numbers per response", g.MeanPrecision, g.MeanDistinctNumbers),
		Data: map[string]interface{}{
			"mean_precision_like":   g.MeanPrecision,
			"mean_distinct_numbers": g.MeanDistinctNumbers,
			"total_hits":            g.TotalHits,
			"formula":               "mean(total_ground_truth_hits / max(distinct_numbers_in_text, 1))",
		},
	}
}

// concentration compares how often the most mentioned entity of a condition is
// mentioned there and under the baseline condition
func (s *Scorer) concentration(condition string, results, baseline []model.ValidationResult, hasBaseline bool) model.Signal {
	mentions := mentionCounts(results)
	if len(mentions) == 0 {
		return model.Signal{
			Type:        model.SignalConcentration,
			Severity:    model.SeverityInfo,
			Subject:     condition,
			Description: "No entity mentioned",
			Data:        map[string]interface{}{"responses": len(results)},
		}
	}

	top := mentions[0].Pseudonym
	share := round3(shareOf(top, results))

	if !hasBaseline {
		return model.Signal{
			Type:        model.SignalConcentration,
			Severity:    model.SeverityInfo,
			Subject:     condition,
			Description: fmt.Sprintf("%s mentioned in %.0f%% of responses (no %s baseline)", top, share*100, s.baseline),
			Data: map[string]interface{}{
				"entity":  top,
				"share":   share,
				"formula": "responses_mentioning_entity / responses",
			},
		}
	}

	baseShare := round3(shareOf(top, baseline))
	delta := round3(share - baseShare)

	severity := model.SeverityInfo
	if math.Abs(delta) >= concentrationShift {
		severity = model.SeverityWarning
	}

	return model.Signal{
		Type:        model.SignalConcentration,
		Severity:    severity,
		Subject:     condition,
		Description: fmt.Sprintf("%s mentioned in %.0f%% of responses vs %.0f%% under %s", top, share*100, baseShare*100, s.baseline),
		Data: map[string]interface{}{
			"entity":         top,
			"share":          share,
			"baseline":       s.baseline,
			"baseline_share": baseShare,
			"delta":          delta,
			"threshold":      concentrationShift,
			"formula":        "share(condition) - share(baseline), share = responses_mentioning_entity / responses",
		},
	}
}

func subject(g model.GroupSummary) string {
	return g.Model + "/" + g.Condition
}

func round3(v float64) float64 {
	return model.Round(v, 3)
}
