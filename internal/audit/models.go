// Package audit captures the append-only trail of eligibility assessments.
// Events carry hashed subject identifiers only; raw PII never enters the
// trail.
package audit

import "time"

// Action names the auditable operations.
type Action string

const (
	ActionAssessmentCompleted Action = "assessment_completed"
	ActionAssessmentFailed    Action = "assessment_failed"
)

// Event is emitted from domain logic to capture one assessment outcome.
// Keep it transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Action    Action    `json:"action"`
	// ApplicantIDHash is the SHA-256 prefix of the applicant identifier;
	// the trail must be correlatable without storing the raw ID.
	ApplicantIDHash string   `json:"applicant_id_hash"`
	Decision        string   `json:"decision,omitempty"`
	Confidence      float64  `json:"confidence,omitempty"`
	Rationale       []string `json:"rationale,omitempty"`
	RequestID       string   `json:"request_id,omitempty"`
	Subject         string   `json:"subject,omitempty"`
	// ClientAgent is the normalized User-Agent label of the caller that
	// triggered the assessment.
	ClientAgent string `json:"client_agent,omitempty"`
	Error       string `json:"error,omitempty"`
}
