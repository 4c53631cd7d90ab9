package linkage

import (
	"fmt"
	"log/slog"
	"strings"
)

// Config carries the weights and thresholds for one linkage engine. It is
// immutable after construction; per-call overrides are not supported so the
// same engine can serve concurrent assessments.
type Config struct {
	// NameWeight..AddressWeight form the composite score. They should sum
	// to 1.0 for the composite to stay in [0,1].
	NameWeight    float64
	DOBWeight     float64
	StateWeight   float64
	AddressWeight float64

	// MatchThreshold is the minimum composite score to declare a match.
	MatchThreshold float64
	// ReviewMin/ReviewMax bound the half-open confidence band
	// [ReviewMin, ReviewMax) that forces manual review.
	ReviewMin float64
	ReviewMax float64
}

// DefaultConfig mirrors the tuned production weights: name is the most
// reliable extracted field, address the least.
func DefaultConfig() Config {
	return Config{
		NameWeight:     0.4,
		DOBWeight:      0.3,
		StateWeight:    0.2,
		AddressWeight:  0.1,
		MatchThreshold: 0.7,
		ReviewMin:      0.7,
		ReviewMax:      0.9,
	}
}

// ambiguousNameBar is the name score above which a candidate counts toward
// the ambiguous-population check: several distinct people sharing a similar
// name make even a confident top hit suspect.
const ambiguousNameBar = 0.8

// Error wraps an unexpected internal fault during a pool scan. The engine
// never degrades a fault into a false negative; the cause is preserved for
// the caller.
type Error struct {
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("linkage failed: %v", e.cause)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Engine scans a candidate pool and selects the globally best-scoring
// candidate for an applicant. It holds no per-call state and is safe for
// concurrent use.
type Engine struct {
	scorer *FieldScorer
	cfg    Config
	logger *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger attaches a structured logger for scan telemetry.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// NewEngine constructs a linkage engine. The scorer is required.
func NewEngine(scorer *FieldScorer, cfg Config, opts ...Option) (*Engine, error) {
	if scorer == nil {
		return nil, fmt.Errorf("field scorer is required")
	}
	if cfg.MatchThreshold <= 0 || cfg.MatchThreshold > 1 {
		return nil, fmt.Errorf("match threshold must be in (0,1], got %v", cfg.MatchThreshold)
	}
	if cfg.ReviewMin > cfg.ReviewMax {
		return nil, fmt.Errorf("review band is inverted: [%v, %v)", cfg.ReviewMin, cfg.ReviewMax)
	}

	e := &Engine{scorer: scorer, cfg: cfg}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Link scores every candidate in the pool against the applicant and returns
// the linkage result for the best composite score. The scan always covers
// the full pool - the best match must be globally optimal, not first-found.
// An empty pool is valid input and yields an unmatched result. Any panic
// during the scan surfaces as *Error with the cause attached.
func (e *Engine) Link(applicant Applicant, pool []Candidate) (result *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = &Error{cause: fmt.Errorf("pool scan panicked: %v", r)}
		}
	}()

	if len(pool) == 0 {
		if e.logger != nil {
			e.logger.Warn("no candidate records provided for linkage")
		}
		return &Result{
			Matched:     false,
			Confidence:  0.0,
			FieldScores: FieldScores{},
			Assumptions: []string{"No candidate records available for matching"},
		}, nil
	}

	var (
		bestScore       float64
		bestCandidate   *Candidate
		bestFieldScores FieldScores
		ambiguousNames  int
	)

	for i := range pool {
		fieldScores := e.scorer.ScoreFields(applicant, pool[i])

		composite := e.cfg.NameWeight*fieldScores[FieldName] +
			e.cfg.DOBWeight*fieldScores[FieldDOB] +
			e.cfg.StateWeight*fieldScores[FieldState] +
			e.cfg.AddressWeight*fieldScores[FieldAddress]

		if composite > bestScore {
			bestScore = composite
			bestCandidate = &pool[i]
			bestFieldScores = fieldScores
		}

		// Counted in the same scan as selection so both views of the pool
		// use identical scores.
		if fieldScores[FieldName] > ambiguousNameBar {
			ambiguousNames++
		}
	}

	matched := bestScore >= e.cfg.MatchThreshold
	requiresReview := (bestScore >= e.cfg.ReviewMin && bestScore < e.cfg.ReviewMax) ||
		ambiguousNames > 1

	assumptions := e.documentAssumptions(applicant, bestCandidate, bestFieldScores)
	if bestFieldScores == nil {
		bestFieldScores = FieldScores{}
	}

	if e.logger != nil {
		e.logger.Info("linkage complete",
			"matched", matched,
			"confidence", bestScore,
			"requires_review", requiresReview,
			"records_scanned", len(pool),
		)
	}

	result = &Result{
		Matched:        matched,
		Confidence:     bestScore,
		FieldScores:    bestFieldScores,
		Assumptions:    assumptions,
		RequiresReview: requiresReview,
	}
	if matched {
		result.BestCandidate = bestCandidate
	}
	return result, nil
}

// documentAssumptions records, as free text, the matching policies and
// threshold values behind the result plus anything unusual about the
// inputs. Callers append these to the decision rationale so an auditor can
// reconstruct the scoring context.
func (e *Engine) documentAssumptions(applicant Applicant, best *Candidate, fieldScores FieldScores) []string {
	assumptions := []string{
		"Name matching uses token-set equivalence to handle word order variations (e.g., 'John Doe' vs 'Doe, John')",
		"DOB requires exact match (no fuzzy matching on dates)",
		fmt.Sprintf("Confidence threshold set at %.2f", e.cfg.MatchThreshold),
		fmt.Sprintf("Weights: name=%.0f%%, DOB=%.0f%%, state=%.0f%%, address=%.0f%%",
			e.cfg.NameWeight*100, e.cfg.DOBWeight*100, e.cfg.StateWeight*100, e.cfg.AddressWeight*100),
	}

	var missing []string
	appendMissing := func(side, field, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, fmt.Sprintf("%s (%s)", field, side))
		}
	}
	appendMissing("applicant", FieldName, applicant.Name)
	appendMissing("applicant", FieldDOB, applicant.DOB)
	appendMissing("applicant", FieldState, applicant.State)
	appendMissing("applicant", FieldAddress, applicant.Address)
	if best != nil {
		appendMissing("candidate", FieldName, best.Name)
		appendMissing("candidate", FieldDOB, best.DOB)
		appendMissing("candidate", FieldState, best.State)
		appendMissing("candidate", FieldAddress, best.Address)
	}
	if len(missing) > 0 {
		assumptions = append(assumptions, "Missing fields (scored as 0.0): "+strings.Join(missing, ", "))
	}

	if fieldScores != nil && fieldScores[FieldName] < 0.5 {
		assumptions = append(assumptions, "Low name match score - possible name variation or different person")
	}

	// An explicit DOB mismatch is distinct from an absent DOB; flag it so
	// reviewers do not mistake one for the other.
	if fieldScores != nil && fieldScores[FieldDOB] == 0.0 &&
		strings.TrimSpace(applicant.DOB) != "" && best != nil && strings.TrimSpace(best.DOB) != "" {
		assumptions = append(assumptions, "DOB mismatch: applicant DOB does not match candidate record")
	}

	return assumptions
}
