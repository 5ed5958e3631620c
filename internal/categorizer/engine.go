package categorizer

import (
	"context"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dvloznov/rent-ledger/internal/domain"
	"github.com/dvloznov/rent-ledger/internal/logger"
	"github.com/dvloznov/rent-ledger/internal/provider"
)

// Engine resolves a category for each transaction by running strategies in
// precedence order until one matches.
type Engine struct {
	strategies  []Strategy
	generalizer Generalizer
	threshold   float64
	now         func() time.Time

	cacheSize int
	cache     *lru.Cache[string, string]
}

// DefaultGeneralizerCacheSize bounds the number of generalized keys kept in
// memory. Raw descriptions carry reference numbers, so most never repeat.
const DefaultGeneralizerCacheSize = 4096

// Option configures an Engine.
type Option func(*Engine)

// WithReviewThreshold overrides the approval threshold.
func WithReviewThreshold(threshold float64) Option {
	return func(e *Engine) {
		if threshold > 0 && threshold <= 1 {
			e.threshold = threshold
		}
	}
}

// WithGeneralizer replaces the built-in pattern generalizer.
func WithGeneralizer(g Generalizer) Option {
	return func(e *Engine) {
		if g != nil {
			e.generalizer = g
		}
	}
}

// WithStrategies replaces the precedence chain. A fallback is appended when
// the chain does not end with one.
func WithStrategies(strategies ...Strategy) Option {
	return func(e *Engine) {
		e.strategies = strategies
	}
}

// WithGeneralizerCacheSize sets how many generalized keys are cached.
func WithGeneralizerCacheSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.cacheSize = n
		}
	}
}

// WithClock sets the time source for LastUpdatedAt.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine creates an engine with the default precedence chain.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		strategies:  DefaultStrategies(nil),
		generalizer: PatternGeneralizer{},
		threshold:   domain.DefaultReviewThreshold,
		now:         time.Now,
		cacheSize:   DefaultGeneralizerCacheSize,
	}
	for _, opt := range opts {
		opt(e)
	}
	// lru.New only fails for a non-positive size.
	e.cache, _ = lru.New[string, string](e.cacheSize)
	if n := len(e.strategies); n == 0 || e.strategies[n-1].Name() != (FallbackStrategy{}).Name() {
		e.strategies = append(e.strategies, FallbackStrategy{})
	}
	return e
}

// ReviewThreshold is the minimum confidence approved without review.
func (e *Engine) ReviewThreshold() float64 {
	return e.threshold
}

// Generalize returns the rule key for a description. If the generalizer
// fails or returns nothing, the normalized raw description is used.
func (e *Engine) Generalize(ctx context.Context, description string) string {
	raw := domain.NormalizeMatchKey(description)
	if raw == "" {
		return ""
	}

	if key, ok := e.cache.Get(raw); ok {
		return key
	}

	key, err := e.generalizer.Generalize(ctx, description)
	key = domain.NormalizeMatchKey(key)
	if err != nil || key == "" {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Str("description", description).Msg("Generalization unavailable, using raw description as match key")
		// Not cached: the service may recover later in the run.
		return raw
	}

	e.cache.Add(raw, key)
	return key
}

// Categorize runs the precedence chain. It always returns a result.
func (e *Engine) Categorize(ctx context.Context, in Input, rc *RuleContext) Result {
	in.Description = strings.TrimSpace(in.Description)
	if in.GeneralizedKey == "" {
		in.GeneralizedKey = e.Generalize(ctx, in.Description)
	}

	for _, s := range e.strategies {
		res, ok := e.try(ctx, s, in, rc)
		if !ok {
			continue
		}
		res.Hierarchy = res.Hierarchy.Normalize()
		return res
	}
	return fallbackResult(in)
}

// try runs one strategy. A panic counts as no match.
func (e *Engine) try(ctx context.Context, s Strategy, in Input, rc *RuleContext) (res Result, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log := logger.FromContext(ctx)
			log.Warn().Interface("panic", r).Str("strategy", s.Name()).Msg("Categorization strategy failed, skipping")
			res, ok = Result{}, false
		}
	}()
	return s.TryMatch(ctx, in, rc)
}

// Apply categorizes tx in place and derives its review status.
func (e *Engine) Apply(ctx context.Context, tx *domain.CanonicalTransaction, hint provider.CategoryHint, rc *RuleContext) Result {
	res := e.Categorize(ctx, Input{
		Description: tx.Description,
		Amount:      tx.Amount,
		Hint:        hint,
	}, rc)

	tx.CategoryHierarchy = res.Hierarchy
	tx.CostCenter = res.CostCenter
	tx.Confidence = res.Confidence
	tx.ReviewStatus = domain.ReviewStatusFor(res.Confidence, e.threshold)
	tx.RuleSource = res.Source
	tx.Explanation = res.Explanation
	tx.LastUpdatedAt = e.now().UTC()
	return res
}
