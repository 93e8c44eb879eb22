// Package pipeline runs the audit stages and writes their artifacts.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ppiankov/biasprobe/internal/anonymize"
	"github.com/ppiankov/biasprobe/internal/cache"
	"github.com/ppiankov/biasprobe/internal/groundtruth"
	"github.com/ppiankov/biasprobe/internal/ingest"
	"github.com/ppiankov/biasprobe/internal/metrics"
	"github.com/ppiankov/biasprobe/internal/model"
	"github.com/ppiankov/biasprobe/internal/prompts"
	"github.com/ppiankov/biasprobe/internal/score"
	"github.com/ppiankov/biasprobe/internal/table"
	"github.com/ppiankov/biasprobe/internal/telemetry"
	"github.com/ppiankov/biasprobe/internal/validate"
)

// Artifact locations relative to the output directory
const (
	DatasetDir  = "dataset"
	AnalysisDir = "analysis"
	ResultsDir  = "results"

	FactSheetFile  = "ground_truth_full.csv"
	MetricsFile    = "ground_truth_metrics.csv"
	ResponsesFile  = "llm_outputs_structured.csv"
	ValidationFile = "claims_validation.csv"
	ParquetFile    = "claims_validation.parquet"
	SummaryYAML    = "summary.yaml"
	SummaryMD      = "summary.md"
	MappingFile    = "identity_mapping.csv"
)

// Pipeline orchestrates the audit stages
type Pipeline struct {
	config   *model.Config
	runID    string
	logger   *slog.Logger
	out      io.Writer
	recorder *metrics.Recorder
	cache    cache.Cache
	clock    func() time.Time
	tracer   trace.Tracer
	renderer *Renderer
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithLogger sets the structured logger
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithOutput sets where progress lines go
func WithOutput(w io.Writer) Option {
	return func(p *Pipeline) { p.out = w }
}

// WithClock sets the clock for timestamps
func WithClock(clock func() time.Time) Option {
	return func(p *Pipeline) { p.clock = clock }
}

// WithCache replaces the cache built from config
func WithCache(c cache.Cache) Option {
	return func(p *Pipeline) { p.cache = c }
}

// NewPipeline validates cfg and creates a pipeline with a fresh run id
func NewPipeline(cfg *model.Config, opts ...Option) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	p := &Pipeline{
		config:   cfg,
		runID:    uuid.NewString(),
		logger:   slog.Default(),
		out:      os.Stdout,
		recorder: metrics.NewRecorder(),
		clock:    time.Now,
		tracer:   telemetry.Tracer(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.cache == nil {
		p.cache = newCache(cfg.Cache)
	}
	p.logger = p.logger.With("run_id", p.runID)
	p.renderer = NewRenderer(p.out)
	return p, nil
}

func newCache(cfg model.CacheConfig) cache.Cache {
	switch {
	case !cfg.Enabled:
		return cache.Nop{}
	case cfg.Dir == "":
		return cache.NewMemoryCache(cfg.MemoryTTL, 10*time.Minute)
	default:
		return cache.NewLayeredCache(cfg.MemoryTTL, cfg.Dir, cfg.DiskTTL)
	}
}

// RunID identifies this pipeline's run in logs and the summary
func (p *Pipeline) RunID() string {
	return p.runID
}

// Recorder returns the stage counters
func (p *Pipeline) Recorder() *metrics.Recorder {
	return p.recorder
}

// Path resolves an artifact path under the output directory
func (p *Pipeline) Path(elem ...string) string {
	return filepath.Join(append([]string{p.config.Paths.OutputDir}, elem...)...)
}

// stage starts a span and returns a function that ends it and records the duration
func (p *Pipeline) stage(ctx context.Context, name string) (context.Context, func(error)) {
	start := p.clock()
	ctx, span := p.tracer.Start(ctx, "stage."+name, trace.WithAttributes(attribute.String("run_id", p.runID)))
	p.logger.Debug("stage started", "stage", name)
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
		}
		span.End()
		d := p.clock().Sub(start)
		p.recorder.ObserveStage(name, d)
		p.logger.Debug("stage finished", "stage", name, "duration", d, "error", err)
	}
}

// AnonymizeFiles anonymizes source CSVs into DatasetDir as <stem>_anon.csv.
// Empty paths are skipped; the result is aligned with paths and holds nil for them.
func (p *Pipeline) AnonymizeFiles(ctx context.Context, paths ...string) (tables []*table.Table, err error) {
	_, done := p.stage(ctx, "anonymize")
	defer func() { done(err) }()

	var (
		sources []*table.Table
		slots   []int
	)
	for i, path := range paths {
		if path == "" {
			continue
		}
		t, err := table.ReadCSV(path)
		if err != nil {
			return nil, fmt.Errorf("read source table: %w", err)
		}
		sources = append(sources, t)
		slots = append(slots, i)
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("%w: paths.batting or paths.bowling must be set", model.ErrInvalidConfig)
	}

	anon, mapping, err := anonymize.New(nil, p.config.Anonymize).Anonymize(sources...)
	if err != nil {
		return nil, err
	}

	tables = make([]*table.Table, len(paths))
	for i, t := range anon {
		path := p.Path(DatasetDir, t.Name+"_anon.csv")
		if err := p.writeTable(path, t); err != nil {
			return nil, err
		}
		tables[slots[i]] = t
	}
	if p.config.Output.Mapping {
		if err := p.writeTable(p.Path(DatasetDir, MappingFile), mapping.Table()); err != nil {
			return nil, err
		}
		fmt.Fprintln(p.out, "NOTE: keep the identity mapping and source files local; do not commit raw data.")
	}

	p.logger.Info("anonymized source tables", "tables", len(anon), "entities", mapping.Len())
	return tables, nil
}

// GroundTruthFiles aggregates anonymized CSVs; either path may be empty
func (p *Pipeline) GroundTruthFiles(ctx context.Context, battingPath, bowlingPath string) (*groundtruth.Result, error) {
	read := func(path string) (*table.Table, error) {
		if path == "" {
			return nil, nil
		}
		t, err := table.ReadCSV(path)
		if err != nil {
			return nil, fmt.Errorf("read anonymized table: %w", err)
		}
		return t, nil
	}

	batting, err := read(battingPath)
	if err != nil {
		return nil, err
	}
	bowling, err := read(bowlingPath)
	if err != nil {
		return nil, err
	}
	return p.GroundTruth(ctx, batting, bowling)
}

// GroundTruth writes the fact sheet and metrics summary into AnalysisDir
func (p *Pipeline) GroundTruth(ctx context.Context, batting, bowling *table.Table) (res *groundtruth.Result, err error) {
	_, done := p.stage(ctx, "groundtruth")
	defer func() { done(err) }()

	agg := groundtruth.NewAggregator(p.config.Matching, groundtruth.WithLogger(p.logger))
	res, err = agg.Aggregate(batting, bowling)
	if err != nil {
		return nil, err
	}

	if err := p.writeTable(p.Path(AnalysisDir, FactSheetFile), groundtruth.FactSheetTable(res.Facts)); err != nil {
		return nil, err
	}
	if err := p.writeTable(p.Path(AnalysisDir, MetricsFile), groundtruth.MetricsTable(res.Metrics)); err != nil {
		return nil, err
	}

	p.recorder.GroundTruth(len(res.Facts), res.InvalidOvers, res.DroppedRows)
	p.logger.Info("built ground truth",
		"entities", len(res.Facts), "metrics", len(res.Metrics),
		"invalid_overs", res.InvalidOvers, "dropped_rows", res.DroppedRows)
	return res, nil
}

// Ingest loads the prompt table, reads raw response files and writes the response table.
// Finding no usable response is not an error here; validation reports it.
func (p *Pipeline) Ingest(ctx context.Context, promptsPath string, rawDirs []string) (records []model.ResponseRecord, err error) {
	ctx, done := p.stage(ctx, "ingest")
	defer func() { done(err) }()

	pt, err := p.loadPrompts(promptsPath)
	if err != nil {
		return nil, err
	}

	files, err := ingest.Scan(rawDirs, p.config.Ingest.Extensions)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		p.logger.Warn("no raw response files found", "dirs", rawDirs, "extensions", p.config.Ingest.Extensions)
		return nil, nil
	}
	for _, f := range files {
		p.logger.Debug("scanning file", "file", f)
	}

	candidates, unreadable := ingest.Load(ctx, files, p.config.Ingest.Workers)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	n := ingest.NewNormalizer(pt,
		ingest.WithClock(p.clock),
		ingest.WithModelVersion(p.config.Ingest.ModelVersion),
		ingest.WithTemperature(p.config.Ingest.Temperature),
		ingest.WithLogger(p.logger),
	)
	res := n.Normalize(candidates)

	for _, s := range unreadable {
		p.logger.Warn("skipping unreadable file", "file", s.Path, "reason", s.Reason)
		p.recorder.Skipped("read_error")
	}
	for _, s := range res.Skipped {
		p.recorder.Skipped(skipReason(s.Err))
	}
	p.recorder.Ingest(len(files), len(res.Records), res.Duplicates)

	if len(res.Records) == 0 {
		p.logger.Warn("no responses parsed; expected file names like <model>_<condition>_runN.txt",
			"files", len(files), "skipped", len(res.Skipped)+len(unreadable))
		return nil, nil
	}

	if err := p.writeTable(p.Path(ResultsDir, ResponsesFile), ingest.ResponsesTable(res.Records)); err != nil {
		return nil, err
	}
	p.logger.Info("ingested responses",
		"files", len(files), "responses", len(res.Records),
		"duplicates", res.Duplicates, "skipped", len(res.Skipped)+len(unreadable))
	return res.Records, nil
}

func (p *Pipeline) loadPrompts(path string) (*prompts.Table, error) {
	t, err := table.ReadCSV(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &model.EmptyUpstreamArtifactError{Artifact: "prompt table", Path: path, Reason: "not found"}
		}
		return nil, fmt.Errorf("read prompt table: %w", err)
	}
	pt, err := prompts.Load(t)
	if err != nil {
		var empty *model.EmptyUpstreamArtifactError
		if errors.As(err, &empty) {
			empty.Path = path
		}
		return nil, err
	}
	return pt, nil
}

func skipReason(err error) string {
	switch {
	case errors.Is(err, ingest.ErrConditionNotFound):
		return "condition_not_found"
	case errors.Is(err, ingest.ErrRunIndexNotFound):
		return "run_index_not_found"
	default:
		return "unknown_condition"
	}
}

// ValidateFiles reads the fact sheet and response table and validates them
func (p *Pipeline) ValidateFiles(ctx context.Context, factsPath, responsesPath string) (*model.Report, error) {
	factTable, err := readUpstream(factsPath, "fact sheet")
	if err != nil {
		return nil, err
	}
	facts, err := groundtruth.FactsFromTable(factTable, p.config.Matching.RoundingPrecision)
	if err != nil {
		return nil, withPath(err, factsPath)
	}

	respTable, err := readUpstream(responsesPath, "response table")
	if err != nil {
		return nil, err
	}
	responses, err := ingest.ResponsesFromTable(respTable)
	if err != nil {
		return nil, withPath(err, responsesPath)
	}

	return p.Validate(ctx, facts, responses)
}

func readUpstream(path, artifact string) (*table.Table, error) {
	t, err := table.ReadCSV(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, &model.EmptyUpstreamArtifactError{Artifact: artifact, Path: path, Reason: "not found"}
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", artifact, err)
	}
	return t, nil
}

func withPath(err error, path string) error {
	var empty *model.EmptyUpstreamArtifactError
	if errors.As(err, &empty) && empty.Path == "" {
		empty.Path = path
	}
	return err
}

// Validate scores responses against facts, writes the validation table and the summary
func (p *Pipeline) Validate(ctx context.Context, facts []model.PlayerFact, responses []model.ResponseRecord) (report *model.Report, err error) {
	ctx, done := p.stage(ctx, "validate")
	defer func() { done(err) }()

	v, err := validate.NewValidator(facts, p.config.Matching,
		validate.WithCache(p.cache, p.config.Cache.DiskTTL),
		validate.WithWorkers(p.config.Validation.Workers),
		validate.WithLogger(p.logger),
	)
	if err != nil {
		return nil, err
	}

	results, err := v.ValidateAll(ctx, responses)
	if err != nil {
		return nil, err
	}

	supported := 0
	for _, r := range results {
		if r.AnySupported {
			supported++
		}
	}
	p.recorder.Validation(len(results), supported, v.CacheHits())

	if err := p.writeTable(p.Path(AnalysisDir, ValidationFile), validate.ResultsTable(results)); err != nil {
		return nil, err
	}
	if p.config.Output.Parquet {
		path := p.Path(AnalysisDir, ParquetFile)
		if err := WriteParquet(path, results); err != nil {
			return nil, err
		}
		p.wrote(path)
	}

	scorer := score.NewScorer(p.config.Validation.BaselineCondition)
	r := scorer.Calculate(p.runID, v.Index().Len(), results)

	if err := p.renderer.RenderYAML(&r, p.Path(AnalysisDir, SummaryYAML)); err != nil {
		return nil, err
	}
	p.wrote(p.Path(AnalysisDir, SummaryYAML))
	if err := p.renderer.RenderMarkdown(&r, p.Path(AnalysisDir, SummaryMD)); err != nil {
		return nil, err
	}
	p.wrote(p.Path(AnalysisDir, SummaryMD))

	p.logger.Info("validated responses",
		"responses", len(results), "supported", supported, "cache_hits", v.CacheHits())
	if c, ok := p.cache.(cache.Counter); ok {
		hits, misses := c.Stats()
		p.logger.Info("validation cache", "hits", hits, "misses", misses)
	}
	return &r, nil
}

// Run executes every stage from the configured paths
func (p *Pipeline) Run(ctx context.Context) (*model.Report, error) {
	paths := p.config.Paths
	p.logger.Info("starting run", "output_dir", paths.OutputDir)

	anon, err := p.AnonymizeFiles(ctx, paths.Batting, paths.Bowling)
	if err != nil {
		return nil, fmt.Errorf("anonymize: %w", err)
	}

	// either table may be nil when its path is unset
	truth, err := p.GroundTruth(ctx, anon[0], anon[1])
	if err != nil {
		return nil, fmt.Errorf("ground truth: %w", err)
	}

	responses, err := p.Ingest(ctx, paths.Prompts, paths.RawDirs)
	if err != nil {
		return nil, fmt.Errorf("ingest: %w", err)
	}

	report, err := p.Validate(ctx, truth.Facts, responses)
	if err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}

	if err := p.WriteMetrics(); err != nil {
		return nil, err
	}

	p.renderer.RenderSummary(report)
	return report, nil
}

// WriteMetrics writes the Prometheus textfile when one is configured
func (p *Pipeline) WriteMetrics() error {
	path := p.config.Output.MetricsFile
	if path == "" {
		return nil
	}
	if err := p.recorder.WriteTextfile(path); err != nil {
		return err
	}
	p.wrote(path)
	return nil
}

func (p *Pipeline) writeTable(path string, t *table.Table) error {
	if err := table.WriteCSV(path, t); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	p.logger.Debug("wrote table", "file", path, "rows", t.Len())
	p.wrote(path)
	return nil
}

func (p *Pipeline) wrote(path string) {
	fmt.Fprintf(p.out, "✓ Wrote %s\n", path)
}
