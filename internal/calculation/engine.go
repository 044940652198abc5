package calculation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rgehrsitz/ratebook/internal/domain"
	"github.com/rgehrsitz/ratebook/internal/metrics"
	"github.com/rgehrsitz/ratebook/internal/repository"
	"github.com/shopspring/decimal"
)

// DefaultLoadTimeout bounds a single repository call
const DefaultLoadTimeout = 5 * time.Second

// Engine resolves breakdowns for one rule family over an injected
// repository. It holds no mutable state and is safe for concurrent use.
type Engine struct {
	Family      domain.RuleFamily
	Repository  repository.Repository
	Logger      Logger
	Metrics     *metrics.Recorder
	LoadTimeout time.Duration
}

// NewEngine creates an engine with a no-op logger and the default load
// timeout
func NewEngine(family domain.RuleFamily, repo repository.Repository) *Engine {
	return &Engine{
		Family:      family,
		Repository:  repo,
		Logger:      NopLogger{},
		LoadTimeout: DefaultLoadTimeout,
	}
}

// SetLogger sets the engine logger; nil restores the no-op logger
func (e *Engine) SetLogger(logger Logger) {
	if logger == nil {
		e.Logger = NopLogger{}
		return
	}
	e.Logger = logger
}

// Resolve computes the breakdown of value under the rule-set applying on asOf
func (e *Engine) Resolve(ctx context.Context, asOf time.Time, value decimal.Decimal) (*domain.BreakdownResult, error) {
	ruleSets, err := e.loadAll(ctx)
	if err != nil {
		e.Metrics.ObserveResolution(e.Family.Name, metrics.OutcomeError)
		return nil, err
	}

	rs, err := ResolveRuleSet(asOf, ruleSets)
	if err != nil {
		e.Metrics.ObserveResolution(e.Family.Name, metrics.OutcomeError)
		return nil, fmt.Errorf("%s: %w", e.Family.Name, err)
	}

	outcome := metrics.OutcomeResolved
	if PredatesAll(asOf, ruleSets) {
		outcome = metrics.OutcomeFallback
		e.Logger.Warnf("%s: as-of %s predates every rule-set, using oldest %s",
			e.Family.Name, domain.DateOf(asOf), rs.EffectiveStart)
	}

	if value.IsNegative() {
		e.Logger.Debugf("%s: clamping negative input %s to 0", e.Family.Name, value)
	}
	bracket, err := LocateBracket(rs, value)
	if err != nil {
		e.Metrics.ObserveResolution(e.Family.Name, metrics.OutcomeError)
		return nil, fmt.Errorf("%s: %w", e.Family.Name, err)
	}

	result := ComputeFamilyBreakdown(e.Family, bracket, ClampNonNegative(value))
	result.EffectiveStart = rs.EffectiveStart

	e.Metrics.ObserveResolution(e.Family.Name, outcome)
	e.Logger.Debugf("%s: %s resolved to rule-set %s bracket %s, total %s",
		e.Family.Name, value, rs.EffectiveStart, bracket.RangeStart, result.TotalAmount)
	return &result, nil
}

// SelectableDates lists every known effective start for date pickers
func (e *Engine) SelectableDates(ctx context.Context) ([]domain.SelectableDate, error) {
	ruleSets, err := e.loadAll(ctx)
	if err != nil {
		return nil, err
	}
	return ListSelectableDates(ruleSets), nil
}

// Table returns the rule-set applying on asOf with its brackets sorted and
// labelled
func (e *Engine) Table(ctx context.Context, asOf time.Time) (*domain.RuleTable, error) {
	ruleSets, err := e.loadAll(ctx)
	if err != nil {
		return nil, err
	}
	rs, err := ResolveRuleSet(asOf, ruleSets)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.Family.Name, err)
	}
	return e.materialize(rs), nil
}

// RuleSet returns the materialized rule-set with exactly this effective start
func (e *Engine) RuleSet(ctx context.Context, effectiveStart domain.Date) (*domain.RuleTable, error) {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	rs, err := e.Repository.LoadOne(ctx, effectiveStart)
	e.Metrics.ObserveLoad(e.Family.Name, time.Since(start))
	if err != nil {
		return nil, e.loadError("load rule-set "+effectiveStart.String(), err)
	}
	return e.materialize(rs), nil
}

func (e *Engine) materialize(rs domain.RuleSet) *domain.RuleTable {
	return &domain.RuleTable{
		Family:         e.Family.Name,
		EffectiveStart: rs.EffectiveStart,
		Label:          rs.Label,
		Brackets:       MaterializeBrackets(rs),
	}
}

func (e *Engine) loadAll(ctx context.Context) ([]domain.RuleSet, error) {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	ruleSets, err := e.Repository.LoadAll(ctx)
	e.Metrics.ObserveLoad(e.Family.Name, time.Since(start))
	if err != nil {
		return nil, e.loadError("load rule-sets", err)
	}
	return ruleSets, nil
}

func (e *Engine) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.LoadTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.LoadTimeout)
}

// loadError makes every repository failure, including a timeout, match
// domain.ErrDataUnavailable
func (e *Engine) loadError(op string, err error) error {
	e.Logger.Errorf("%s: %s failed: %v", e.Family.Name, op, err)
	if errors.Is(err, domain.ErrDataUnavailable) {
		return fmt.Errorf("%s: %s: %w", e.Family.Name, op, err)
	}
	return fmt.Errorf("%s: %s: %w: %w", e.Family.Name, op, domain.ErrDataUnavailable, err)
}
