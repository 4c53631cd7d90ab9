package handler

import (
	"time"

	"eligo/internal/assess"
	"eligo/internal/linkage"
)

// AssessResponse is the HTTP response for POST /v1/assessments.
type AssessResponse struct {
	ApplicantID          string          `json:"applicant_id"`
	Decision             string          `json:"decision"`
	Confidence           float64         `json:"confidence"`
	Rationale            []string        `json:"rationale"`
	RequiresManualReview bool            `json:"requires_manual_review"`
	Linkage              LinkageResponse `json:"linkage_result"`
	Risk                 RiskResponse    `json:"risk_assessment"`
	EvaluatedAt          time.Time       `json:"evaluated_at"`
}

// LinkageResponse is the linkage portion of the response. Candidate record
// contents are omitted; the caller gets scores, not the pool's PII.
type LinkageResponse struct {
	Matched        bool                `json:"matched"`
	Confidence     float64             `json:"confidence"`
	FieldScores    linkage.FieldScores `json:"field_scores"`
	Assumptions    []string            `json:"assumptions"`
	RequiresReview bool                `json:"requires_review"`
}

// RiskResponse is the risk portion of the response.
type RiskResponse struct {
	RiskScore   float64  `json:"risk_score"`
	RiskFactors []string `json:"risk_factors"`
	Confidence  float64  `json:"confidence"`
}

// FromAssessment converts a domain assessment to an HTTP response.
func FromAssessment(a *assess.Assessment) *AssessResponse {
	return &AssessResponse{
		ApplicantID:          a.ApplicantID,
		Decision:             string(a.Decision.Decision),
		Confidence:           a.Decision.Confidence,
		Rationale:            a.Decision.Rationale,
		RequiresManualReview: a.Decision.RequiresManualReview,
		Linkage: LinkageResponse{
			Matched:        a.Linkage.Matched,
			Confidence:     a.Linkage.Confidence,
			FieldScores:    a.Linkage.FieldScores,
			Assumptions:    a.Linkage.Assumptions,
			RequiresReview: a.Linkage.RequiresReview,
		},
		Risk: RiskResponse{
			RiskScore:   a.Risk.RiskScore,
			RiskFactors: a.Risk.RiskFactors,
			Confidence:  a.Risk.Confidence,
		},
		EvaluatedAt: a.EvaluatedAt,
	}
}
