// Package ports defines the boundary contracts with the external
// collaborators an assessment depends on. The core never re-validates
// their range guarantees beyond the decision engine's signal checks;
// providers own field extraction and risk scoring end to end.
package ports

import (
	"context"

	"eligo/internal/eligibility"
)

// Perception extracts normalized identity fields plus quality signals from
// a submitted document. Confidence and quality score arrive already
// validated to [0,1].
type Perception interface {
	Extract(ctx context.Context, document []byte) (*eligibility.PerceptionResult, error)
}

// Risk scores an applicant's field map semantically. RiskFactors are
// pre-formatted human-readable strings appended verbatim into rationale.
type Risk interface {
	Assess(ctx context.Context, fields map[string]string) (*eligibility.RiskAssessment, error)
}
