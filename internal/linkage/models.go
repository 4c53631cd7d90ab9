// Package linkage implements probabilistic record linkage between an
// applicant and a candidate pool. It never exact-matches whole records:
// every comparison produces a confidence score and the decision about what
// a score means belongs to the caller.
package linkage

// Field names scored by the engine. Every comparison produces an entry for
// each, even when a side is blank.
const (
	FieldName    = "name"
	FieldDOB     = "dob"
	FieldState   = "state"
	FieldAddress = "address"
)

// Applicant is the identity record under evaluation, as extracted by the
// perception collaborator. Missing fields stay empty, never fabricated.
type Applicant struct {
	Name    string `json:"name"`
	DOB     string `json:"dob"`
	State   string `json:"state"`
	Address string `json:"address"`
}

// Candidate is one reference record from the candidate pool.
type Candidate struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	DOB     string `json:"dob"`
	State   string `json:"state"`
	Address string `json:"address"`
	// Outcome is the pool's free-text classification for this record,
	// e.g. "approved" or "denied".
	Outcome string `json:"outcome"`
}

// FieldScores maps field name to a similarity score in [0,1]. Absent inputs
// on either side score exactly 0.0 rather than being skipped.
type FieldScores map[string]float64

// Result is the outcome of one linkage call. It is constructed once and
// never mutated; BestCandidate is non-nil iff Matched is true.
type Result struct {
	Matched        bool        `json:"matched"`
	Confidence     float64     `json:"confidence"`
	FieldScores    FieldScores `json:"field_scores"`
	Assumptions    []string    `json:"assumptions"`
	RequiresReview bool        `json:"requires_review"`
	BestCandidate  *Candidate  `json:"best_candidate,omitempty"`
}
