package groundtruth

import (
	"fmt"

	"github.com/ppiankov/biasprobe/internal/model"
	"github.com/ppiankov/biasprobe/internal/table"
)

// FactSheetTable renders facts in fact-sheet column order
func FactSheetTable(facts []model.PlayerFact) *table.Table {
	t := table.New("ground_truth_full", model.FactSheetColumns)
	for _, f := range facts {
		t.Append(
			f.Pseudonym,
			string(f.Role),
			model.FormatFloat(f.Runs),
			model.FormatFloat(f.BatStrikeRate),
			f.OversOB,
			model.FormatInt(f.Balls),
			model.FormatFloat(f.Wickets),
			model.FormatFloat(f.BowlStrikeRate),
		)
	}
	return t
}

// MetricsTable renders metrics in long format; absent fields are empty
func MetricsTable(metrics []model.Metric) *table.Table {
	t := table.New("ground_truth_metrics", model.MetricColumns)
	for _, m := range metrics {
		t.Append(
			m.Name,
			m.Pseudonym,
			model.FormatFloat(m.Runs),
			model.FormatFloat(m.StrikeRate),
			m.OversOB,
			model.FormatInt(m.Balls),
			model.FormatFloat(m.Wickets),
			model.FormatFloat(m.BowlStrikeRate),
			m.TieBreak,
		)
	}
	return t
}

var factSheetResolver = table.NewCandidateResolver(map[table.Field][]string{
	table.FieldPlayer: {"pseudonym", "player"},
})

// FactsFromTable reads a fact sheet back, rounding numerics to precision.
// Balls are derived from overs_ob when the balls column is absent or blank.
func FactsFromTable(t *table.Table, precision int) ([]model.PlayerFact, error) {
	if t.Empty() {
		return nil, &model.EmptyUpstreamArtifactError{Artifact: "fact sheet"}
	}
	player, ok := factSheetResolver.Resolve(t, table.FieldPlayer)
	if !ok {
		return nil, &model.EmptyUpstreamArtifactError{
			Artifact: "fact sheet",
			Reason:   fmt.Sprintf("has no pseudonym column (columns: %v)", t.Header),
		}
	}

	roleCol, hasRole := t.Lookup("role")
	runsCol, hasRuns := t.Lookup("runs")
	batSRCol, hasBatSR := t.Lookup("bat_strike_rate")
	oversCol, hasOvers := t.Lookup("overs_ob")
	ballsCol, hasBalls := t.Lookup("balls")
	wktCol, hasWkts := t.Lookup("wickets")
	bowlSRCol, hasBowlSR := t.Lookup("bowl_strike_rate")

	num := func(ok bool, i int, c table.Column) *float64 {
		if !ok {
			return nil
		}
		v, ok := table.ParseNumber(t.Cell(i, c))
		if !ok {
			return nil
		}
		return model.Float(model.Round(v, precision))
	}

	facts := make([]model.PlayerFact, 0, t.Len())
	for i := range t.Rows {
		name := t.Cell(i, player)
		if table.IsNull(name) {
			continue
		}
		f := model.PlayerFact{
			Pseudonym:      name,
			Runs:           num(hasRuns, i, runsCol),
			BatStrikeRate:  num(hasBatSR, i, batSRCol),
			Wickets:        num(hasWkts, i, wktCol),
			BowlStrikeRate: num(hasBowlSR, i, bowlSRCol),
		}
		if hasOvers {
			if balls, err := OversToBalls(t.Cell(i, oversCol)); err == nil {
				f.OversOB = BallsToOvers(balls)
				f.Balls = model.Int(balls)
			}
		}
		if hasBalls {
			if v, ok := table.ParseNumber(t.Cell(i, ballsCol)); ok {
				f.Balls = model.Int(int(v))
				if f.OversOB == "" {
					f.OversOB = BallsToOvers(int(v))
				}
			}
		}
		f.Role = f.InferRole()
		if hasRole && !table.IsNull(t.Cell(i, roleCol)) {
			f.Role = model.Role(t.Cell(i, roleCol))
		}
		facts = append(facts, f)
	}
	if len(facts) == 0 {
		return nil, &model.EmptyUpstreamArtifactError{Artifact: "fact sheet", Reason: "has no named rows"}
	}
	return facts, nil
}
