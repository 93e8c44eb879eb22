package validate

import (
	"context"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/biasprobe/internal/cache"
	"github.com/ppiankov/biasprobe/internal/extract"
	"github.com/ppiankov/biasprobe/internal/model"
)

// Validator scores responses against a fixed fact sheet.
// It holds no per-response state, so one Validator serves many goroutines.
type Validator struct {
	index     *FactIndex
	matcher   *extract.MentionMatcher
	precision int
	tolerance float64
	workers   int
	cache     cache.Cache
	cacheTTL  time.Duration
	logger    *slog.Logger

	cacheHits atomic.Int64
}

// Option configures a Validator
type Option func(*Validator)

// WithCache memoizes results by fact sheet and response content
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(v *Validator) {
		v.cache = c
		v.cacheTTL = ttl
	}
}

// WithWorkers bounds the number of responses validated at once
func WithWorkers(n int) Option {
	return func(v *Validator) { v.workers = n }
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(v *Validator) { v.logger = l }
}

// NewValidator indexes facts. An empty fact sheet is an upstream error.
func NewValidator(facts []model.PlayerFact, cfg model.MatchingConfig, opts ...Option) (*Validator, error) {
	index := NewFactIndex(facts, cfg.RoundingPrecision)
	if index.Len() == 0 {
		return nil, &model.EmptyUpstreamArtifactError{Artifact: "fact sheet", Reason: "has no entities"}
	}

	v := &Validator{
		index:     index,
		matcher:   extract.NewMentionMatcher(index.Names()),
		precision: cfg.RoundingPrecision,
		tolerance: cfg.MatchTolerance,
		workers:   8,
		cache:     cache.Nop{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.workers <= 0 {
		v.workers = 1
	}
	return v, nil
}

// scored is the content-dependent part of a result, the unit that is cached
type scored struct {
	Mentioned       []string           `json:"mentioned"`
	PerEntity       []model.EntityHits `json:"per_entity"`
	TotalHits       int                `json:"total_hits"`
	DistinctNumbers int                `json:"distinct_numbers"`
	AnySupported    bool               `json:"any_supported"`
	PrecisionLike   float64            `json:"precision_like"`
}

// Validate scores one response.
// A number counts for every mentioned entity it supports, wherever it appears in the text.
func (v *Validator) Validate(resp model.ResponseRecord) model.ValidationResult {
	var s scored
	if resp.ResponseHash == "" {
		// nothing identifies the content, so nothing can be cached
		s = v.score(resp.ResponseText)
	} else {
		key := cache.Key(v.index.Digest(), resp.ResponseHash,
			strconv.Itoa(v.precision), strconv.FormatFloat(v.tolerance, 'g', -1, 64))

		var ok bool
		if s, ok = cache.Load[scored](v.cache, key); ok {
			v.cacheHits.Add(1)
		} else {
			s = v.score(resp.ResponseText)
			if err := cache.Store(v.cache, key, s, v.cacheTTL); err != nil {
				v.logger.Debug("cache store failed", "error", err)
			}
		}
	}

	return model.ValidationResult{
		PromptID:        resp.PromptID,
		Condition:       resp.Condition,
		Model:           resp.Model,
		Run:             resp.Run,
		ResponseHash:    resp.ResponseHash,
		Mentioned:       s.Mentioned,
		PerEntity:       s.PerEntity,
		TotalHits:       s.TotalHits,
		DistinctNumbers: s.DistinctNumbers,
		AnySupported:    s.AnySupported,
		PrecisionLike:   s.PrecisionLike,
	}
}

func (v *Validator) score(text string) scored {
	mentioned := v.matcher.Unique(text)
	numbers := extract.Distinct(extract.Numbers(text, v.precision))

	s := scored{
		Mentioned:       mentioned,
		PerEntity:       make([]model.EntityHits, 0, len(mentioned)),
		DistinctNumbers: len(numbers),
	}
	for _, name := range mentioned {
		hits := 0
		for _, n := range numbers {
			if v.index.Supports(name, n, v.tolerance) {
				hits++
			}
		}
		s.PerEntity = append(s.PerEntity, model.EntityHits{Pseudonym: name, Hits: hits})
		s.TotalHits += hits
		if hits > 0 {
			s.AnySupported = true
		}
	}
	s.PrecisionLike = model.Round(float64(s.TotalHits)/float64(max(len(numbers), 1)), 3)
	return s
}

// ValidateAll scores responses in parallel; results keep the order of responses.
// An empty response table is an upstream error.
func (v *Validator) ValidateAll(ctx context.Context, responses []model.ResponseRecord) ([]model.ValidationResult, error) {
	if len(responses) == 0 {
		return nil, &model.EmptyUpstreamArtifactError{Artifact: "response table", Reason: "has no responses"}
	}

	results := make([]model.ValidationResult, len(responses))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(v.workers)

	for i := range responses {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = v.Validate(responses[i])
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// CacheHits returns how many results came from the cache
func (v *Validator) CacheHits() int64 {
	return v.cacheHits.Load()
}

// Index returns the fact index
func (v *Validator) Index() *FactIndex {
	return v.index
}
