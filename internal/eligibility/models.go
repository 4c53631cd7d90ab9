// Package eligibility implements the multi-factor decision engine. It
// combines the linkage result with two externally computed signals and
// evaluates a strictly ordered rule chain to produce a final decision with
// an auditable rationale trail.
package eligibility

import (
	"fmt"

	"eligo/internal/linkage"
)

// Decision is one of the three mutually exclusive eligibility outcomes.
type Decision string

const (
	DecisionApproved     Decision = "APPROVED"
	DecisionDenied       Decision = "DENIED"
	DecisionManualReview Decision = "MANUAL_REVIEW"
)

// PerceptionResult is the boundary contract with the perception
// collaborator: normalized applicant fields plus extraction quality
// signals, with confidence and quality already validated to [0,1] upstream.
type PerceptionResult struct {
	Fields         linkage.Applicant `json:"fields"`
	Confidence     float64           `json:"confidence"`
	QualityScore   float64           `json:"quality_score"`
	TamperDetected bool              `json:"tamper_detected"`
}

// RiskAssessment is the boundary contract with the risk-scoring
// collaborator. RiskFactors are pre-formatted human-readable strings that
// the engine appends verbatim into rationale.
type RiskAssessment struct {
	RiskScore            float64  `json:"risk_score"`
	RiskFactors          []string `json:"risk_factors"`
	Confidence           float64  `json:"confidence"`
	RequiresManualReview bool     `json:"requires_manual_review"`
}

// Result is the final eligibility assessment. It is constructed atomically
// by Decide and never mutated after return; Rationale is ordered by rule
// evaluation so callers can reconstruct why the decision was reached.
type Result struct {
	Decision             Decision `json:"decision"`
	Confidence           float64  `json:"confidence"`
	Rationale            []string `json:"rationale"`
	RequiresManualReview bool     `json:"requires_manual_review"`
}

// InvalidSignalError reports an external input that violates its [0,1]
// range contract. The engine rejects the call; out-of-range signals are
// never clamped.
type InvalidSignalError struct {
	Signal string
	Value  float64
}

func (e *InvalidSignalError) Error() string {
	return fmt.Sprintf("invalid signal %s: %v is outside [0,1]", e.Signal, e.Value)
}
