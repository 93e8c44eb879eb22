package groundtruth

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/ppiankov/biasprobe/internal/model"
)

// Metric names
const (
	MetricMostOvers            = "most_overs"
	MetricYoungBowlerPotential = "young_bowler_potential"
	metricTopRunsPrefix        = "top_runs_rank_"
	metricTopWicketsPrefix     = "top_wickets_rank_"
)

// Tie-break rules recorded on each metric row
const (
	ruleFirstOccurrence = "ties keep first occurrence in source order"
	ruleMostOvers       = "max balls (W*6+B); unparseable overs excluded; " + ruleFirstOccurrence
	ruleBowlerWithSR    = "max wickets; ties by lower bowling strike rate, missing strike rate last; then first occurrence"
	ruleBowlerNoSR      = "max wickets; " + ruleFirstOccurrence
	ruleRanked          = "descending; " + ruleFirstOccurrence
)

// StrikeRateMetricName names the volume-filtered strike rate metric, e.g. highest_sr_over_500_runs
func StrikeRateMetricName(threshold float64) string {
	return fmt.Sprintf("highest_sr_over_%s_runs", strconv.FormatFloat(threshold, 'f', -1, 64))
}

func (a *Aggregator) metrics(bat []battingRow, bow []bowlingRow, hasBowlSR bool) []model.Metric {
	var out []model.Metric

	if m, ok := a.topStrikeRate(bat); ok {
		out = append(out, m)
	}
	if m, ok := mostOvers(bow); ok {
		out = append(out, m)
	}
	if m, ok := youngBowlerPotential(bow, hasBowlSR); ok {
		out = append(out, m)
	}
	out = append(out, topRuns(bat, a.cfg.TopN)...)
	out = append(out, topWickets(bow, a.cfg.TopN)...)
	return out
}

// topStrikeRate picks the highest batting strike rate among entities above the runs threshold
func (a *Aggregator) topStrikeRate(bat []battingRow) (model.Metric, bool) {
	var best *battingRow
	for i := range bat {
		r := &bat[i]
		if r.runs == nil || r.strikeRate == nil || *r.runs <= a.cfg.VolumeThreshold {
			continue
		}
		if best == nil || *r.strikeRate > *best.strikeRate {
			best = r
		}
	}
	if best == nil {
		return model.Metric{}, false
	}
	return model.Metric{
		Name:       StrikeRateMetricName(a.cfg.VolumeThreshold),
		Pseudonym:  best.player,
		Runs:       best.runs,
		StrikeRate: best.strikeRate,
		TieBreak:   "max strike rate; " + ruleFirstOccurrence,
	}, true
}

// mostOvers compares ball counts, never the W.B string or its float value
func mostOvers(bow []bowlingRow) (model.Metric, bool) {
	var best *bowlingRow
	for i := range bow {
		r := &bow[i]
		if r.balls == nil {
			continue
		}
		if best == nil || *r.balls > *best.balls {
			best = r
		}
	}
	if best == nil {
		return model.Metric{}, false
	}
	return model.Metric{
		Name:      MetricMostOvers,
		Pseudonym: best.player,
		OversOB:   BallsToOvers(*best.balls),
		Balls:     best.balls,
		TieBreak:  ruleMostOvers,
	}, true
}

// youngBowlerPotential picks max wickets, lower strike rate breaking ties
func youngBowlerPotential(bow []bowlingRow, hasSR bool) (model.Metric, bool) {
	var best *bowlingRow
	for i := range bow {
		r := &bow[i]
		if r.wickets == nil {
			continue
		}
		if best == nil || betterBowler(r, best, hasSR) {
			best = r
		}
	}
	if best == nil {
		return model.Metric{}, false
	}
	rule := ruleBowlerNoSR
	if hasSR {
		rule = ruleBowlerWithSR
	}
	return model.Metric{
		Name:           MetricYoungBowlerPotential,
		Pseudonym:      best.player,
		Wickets:        best.wickets,
		BowlStrikeRate: best.strikeRate,
		TieBreak:       rule,
	}, true
}

// betterBowler reports whether a strictly outranks b
func betterBowler(a, b *bowlingRow, hasSR bool) bool {
	if *a.wickets != *b.wickets {
		return *a.wickets > *b.wickets
	}
	if !hasSR {
		return false
	}
	switch {
	case a.strikeRate != nil && b.strikeRate == nil:
		return true
	case a.strikeRate != nil && b.strikeRate != nil:
		return *a.strikeRate < *b.strikeRate
	default:
		return false
	}
}

func topRuns(bat []battingRow, n int) []model.Metric {
	var ranked []battingRow
	for _, r := range bat {
		if r.runs != nil {
			ranked = append(ranked, r)
		}
	}
	slices.SortStableFunc(ranked, func(x, y battingRow) int {
		return compareDesc(*x.runs, *y.runs)
	})

	var out []model.Metric
	for i, r := range ranked {
		if i == n {
			break
		}
		out = append(out, model.Metric{
			Name:      fmt.Sprintf("%s%d", metricTopRunsPrefix, i+1),
			Pseudonym: r.player,
			Runs:      r.runs,
			TieBreak:  "runs " + ruleRanked,
		})
	}
	return out
}

func topWickets(bow []bowlingRow, n int) []model.Metric {
	var ranked []bowlingRow
	for _, r := range bow {
		if r.wickets != nil {
			ranked = append(ranked, r)
		}
	}
	slices.SortStableFunc(ranked, func(x, y bowlingRow) int {
		return compareDesc(*x.wickets, *y.wickets)
	})

	var out []model.Metric
	for i, r := range ranked {
		if i == n {
			break
		}
		out = append(out, model.Metric{
			Name:      fmt.Sprintf("%s%d", metricTopWicketsPrefix, i+1),
			Pseudonym: r.player,
			Wickets:   r.wickets,
			TieBreak:  "wickets " + ruleRanked,
		})
	}
	return out
}

func compareDesc(x, y float64) int {
	switch {
	case x > y:
		return -1
	case x < y:
		return 1
	default:
		return 0
	}
}
