package eligibility

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"eligo/internal/linkage"
	"eligo/pkg/requestcontext"
)

// Config carries the decision thresholds. Immutable after construction.
type Config struct {
	// MinPerceptionConfidence is the floor below which extraction output is
	// not trusted and the assessment goes to manual review.
	MinPerceptionConfidence float64
	// RiskThreshold is the risk score above which the applicant is denied.
	RiskThreshold float64
	// MinimumAge in whole years.
	MinimumAge int

	// Aggregate confidence weights over the three input signals.
	PerceptionWeight float64
	RiskWeight       float64
	LinkageWeight    float64
}

// DefaultConfig returns the production decision thresholds.
func DefaultConfig() Config {
	return Config{
		MinPerceptionConfidence: 0.5,
		RiskThreshold:           0.7,
		MinimumAge:              21,
		PerceptionWeight:        0.4,
		RiskWeight:              0.4,
		LinkageWeight:           0.2,
	}
}

// Engine evaluates the ordered eligibility rule chain. It holds no per-call
// state and is safe for concurrent use.
type Engine struct {
	cfg    Config
	logger *slog.Logger
	// now overrides the evaluation clock when set; otherwise Decide reads
	// the request-pinned time from the context.
	now func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger attaches a structured logger for decision telemetry.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithClock overrides the evaluation clock. Tests use this to pin age
// computation.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine constructs a decision engine.
func NewEngine(cfg Config, opts ...Option) (*Engine, error) {
	if cfg.MinimumAge <= 0 {
		return nil, fmt.Errorf("minimum age must be positive, got %d", cfg.MinimumAge)
	}
	if cfg.RiskThreshold <= 0 || cfg.RiskThreshold > 1 {
		return nil, fmt.Errorf("risk threshold must be in (0,1], got %v", cfg.RiskThreshold)
	}

	e := &Engine{cfg: cfg}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// evalTime resolves the clock for one evaluation. The request-pinned time
// keeps age computation and audit timestamps in agreement within a single
// assessment.
func (e *Engine) evalTime(ctx context.Context) time.Time {
	if e.now != nil {
		return e.now()
	}
	return requestcontext.Now(ctx)
}

// Decide evaluates the rule chain over the three inputs and returns the
// final decision with its rationale trail. Rule order is part of the
// contract: later rules run only when earlier ones do not terminate.
// Perception and risk signals outside [0,1] are rejected with
// *InvalidSignalError rather than clamped.
func (e *Engine) Decide(ctx context.Context, perception PerceptionResult, link *linkage.Result, risk RiskAssessment) (*Result, error) {
	if link == nil {
		return nil, fmt.Errorf("linkage result is required")
	}
	if err := validateSignals(perception, risk); err != nil {
		return nil, err
	}

	// Computed once, identically for every path, regardless of which rule
	// terminates the evaluation.
	confidence := e.cfg.PerceptionWeight*perception.Confidence +
		e.cfg.RiskWeight*risk.Confidence +
		e.cfg.LinkageWeight*link.Confidence

	state := &evalState{
		perception: perception,
		linkage:    link,
		risk:       risk,
		now:        e.evalTime(ctx),
	}

	decision := DecisionApproved
	for _, r := range ruleChain {
		if terminal := r(e.cfg, state); terminal != "" {
			decision = terminal
			break
		}
	}
	if decision == DecisionApproved {
		state.note("All checks passed")
	}

	result := &Result{
		Decision:             decision,
		Confidence:           confidence,
		Rationale:            state.rationale,
		RequiresManualReview: decision == DecisionManualReview,
	}

	if e.logger != nil {
		e.logger.InfoContext(ctx, "eligibility decision complete",
			"decision", string(decision),
			"confidence", confidence,
			"requires_review", result.RequiresManualReview,
		)
	}
	return result, nil
}

// validateSignals range-checks the externally supplied signals. The linkage
// confidence is produced in-process from weights summing to one, so it is
// trusted as-is; a marginal float excursion there must not fail a valid
// assessment.
func validateSignals(perception PerceptionResult, risk RiskAssessment) error {
	checks := []struct {
		name  string
		value float64
	}{
		{"perception.confidence", perception.Confidence},
		{"perception.quality_score", perception.QualityScore},
		{"risk.risk_score", risk.RiskScore},
		{"risk.confidence", risk.Confidence},
	}
	for _, c := range checks {
		if c.value < 0 || c.value > 1 {
			return &InvalidSignalError{Signal: c.name, Value: c.value}
		}
	}
	return nil
}
