// Package groundtruth merges anonymized batting and bowling tables into the
// canonical fact sheet and computes the ranked metrics summary.
package groundtruth

import (
	"errors"
	"log/slog"
	"sort"

	"github.com/ppiankov/biasprobe/internal/anonymize"
	"github.com/ppiankov/biasprobe/internal/model"
	"github.com/ppiankov/biasprobe/internal/table"
)

// battingRow is one standardized batting record
type battingRow struct {
	player     string
	runs       *float64
	strikeRate *float64
}

// bowlingRow is one standardized bowling record
type bowlingRow struct {
	player     string
	balls      *int
	wickets    *float64
	strikeRate *float64
}

// Aggregator builds the fact sheet and metrics
type Aggregator struct {
	batting table.Resolver
	bowling table.Resolver
	cfg     model.MatchingConfig
	logger  *slog.Logger
}

// Option configures an Aggregator
type Option func(*Aggregator)

// WithBattingResolver overrides the batting schema resolver
func WithBattingResolver(r table.Resolver) Option {
	return func(a *Aggregator) { a.batting = r }
}

// WithBowlingResolver overrides the bowling schema resolver
func WithBowlingResolver(r table.Resolver) Option {
	return func(a *Aggregator) { a.bowling = r }
}

// WithLogger sets the logger for row-level diagnostics
func WithLogger(l *slog.Logger) Option {
	return func(a *Aggregator) { a.logger = l }
}

// NewAggregator creates an aggregator for the given matching config
func NewAggregator(cfg model.MatchingConfig, opts ...Option) *Aggregator {
	a := &Aggregator{
		batting: table.BattingResolver(),
		bowling: table.BowlingResolver(),
		cfg:     cfg,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Result is the output of one aggregation
type Result struct {
	Facts        []model.PlayerFact // sorted by pseudonym
	Metrics      []model.Metric
	InvalidOvers int // rows whose overs were unparseable
	DroppedRows  int // rows with a blank name or a repeated name
}

// Aggregate outer-merges batting and bowling on pseudonym. Either table may be nil.
func (a *Aggregator) Aggregate(batting, bowling *table.Table) (*Result, error) {
	if batting.Empty() && bowling.Empty() {
		return nil, &model.EmptyUpstreamArtifactError{Artifact: "anonymized source tables"}
	}

	res := &Result{}
	bat, err := a.standardizeBatting(batting, res)
	if err != nil {
		return nil, err
	}
	bow, hasBowlSR, err := a.standardizeBowling(bowling, res)
	if err != nil {
		return nil, err
	}

	res.Facts = a.merge(bat, bow)
	res.Metrics = a.metrics(bat, bow, hasBowlSR)
	return res, nil
}

func (a *Aggregator) standardizeBatting(t *table.Table, res *Result) ([]battingRow, error) {
	if t == nil {
		return nil, nil
	}
	player, ok := a.batting.Resolve(t, table.FieldPlayer)
	if !ok {
		return nil, anonymize.NewMissingIdentityColumnError(t, a.batting, table.FieldPlayer)
	}
	runsCol, hasRuns := a.batting.Resolve(t, table.FieldRuns)
	srCol, hasSR := a.batting.Resolve(t, table.FieldBatStrikeRate)
	// runs and strike rate are only meaningful together
	withStats := hasRuns && hasSR

	seen := make(map[string]struct{})
	var rows []battingRow
	for i := range t.Rows {
		name := t.Cell(i, player)
		if !a.accept(t.Name, i, name, seen, res) {
			continue
		}
		row := battingRow{player: name}
		if withStats {
			row.runs = a.number(t.Cell(i, runsCol))
			row.strikeRate = a.number(t.Cell(i, srCol))
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (a *Aggregator) standardizeBowling(t *table.Table, res *Result) ([]bowlingRow, bool, error) {
	if t == nil {
		return nil, false, nil
	}
	player, ok := a.bowling.Resolve(t, table.FieldPlayer)
	if !ok {
		return nil, false, anonymize.NewMissingIdentityColumnError(t, a.bowling, table.FieldPlayer)
	}
	oversCol, hasOvers := a.bowling.Resolve(t, table.FieldOvers)
	wktCol, hasWkts := a.bowling.Resolve(t, table.FieldWickets)
	srCol, hasSR := a.bowling.Resolve(t, table.FieldBowlStrikeRate)

	seen := make(map[string]struct{})
	var rows []bowlingRow
	for i := range t.Rows {
		name := t.Cell(i, player)
		if !a.accept(t.Name, i, name, seen, res) {
			continue
		}
		row := bowlingRow{player: name}
		if hasOvers {
			raw := t.Cell(i, oversCol)
			balls, err := OversToBalls(raw)
			switch {
			case err == nil:
				row.balls = model.Int(balls)
			case errors.Is(err, ErrInvalidOversNotation):
				res.InvalidOvers++
				a.logger.Warn("invalid overs notation, treating as missing",
					"table", t.Name, "row", i+2, "player", name, "value", raw, "error", err)
			}
		}
		if hasWkts {
			row.wickets = a.number(t.Cell(i, wktCol))
		}
		if hasSR {
			row.strikeRate = a.number(t.Cell(i, srCol))
		}
		rows = append(rows, row)
	}
	return rows, hasSR, nil
}

// accept drops blank names and repeated names (first row wins)
func (a *Aggregator) accept(tableName string, i int, name string, seen map[string]struct{}, res *Result) bool {
	if table.IsNull(name) {
		res.DroppedRows++
		a.logger.Warn("row without player name dropped", "table", tableName, "row", i+2)
		return false
	}
	if _, dup := seen[name]; dup {
		res.DroppedRows++
		a.logger.Warn("repeated player row dropped, keeping first", "table", tableName, "row", i+2, "player", name)
		return false
	}
	seen[name] = struct{}{}
	return true
}

func (a *Aggregator) number(s string) *float64 {
	v, ok := table.ParseNumber(s)
	if !ok {
		return nil
	}
	return model.Float(model.Round(v, a.cfg.RoundingPrecision))
}

func (a *Aggregator) merge(bat []battingRow, bow []bowlingRow) []model.PlayerFact {
	byName := make(map[string]*model.PlayerFact)
	get := func(name string) *model.PlayerFact {
		f, ok := byName[name]
		if !ok {
			f = &model.PlayerFact{Pseudonym: name}
			byName[name] = f
		}
		return f
	}

	for _, r := range bat {
		f := get(r.player)
		f.Runs = r.runs
		f.BatStrikeRate = r.strikeRate
	}
	for _, r := range bow {
		f := get(r.player)
		f.Balls = r.balls
		if r.balls != nil {
			f.OversOB = BallsToOvers(*r.balls)
		}
		f.Wickets = r.wickets
		f.BowlStrikeRate = r.strikeRate
	}

	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)

	facts := make([]model.PlayerFact, len(names))
	for i, name := range names {
		f := byName[name]
		f.Role = f.InferRole()
		facts[i] = *f
	}
	return facts
}
