package linkage

import (
	"strings"

	"eligo/internal/match"
)

// FieldScorer computes per-field similarity between an applicant and a
// candidate under a fixed policy: names fuzzy-match with token-set
// equivalence, addresses with partial equivalence, DOB and state compare
// exactly. Dates must never fuzzy-match; a one-day difference is a
// different person.
type FieldScorer struct {
	matcher *match.Matcher
}

// NewFieldScorer constructs a FieldScorer backed by the given matcher.
func NewFieldScorer(matcher *match.Matcher) *FieldScorer {
	return &FieldScorer{matcher: matcher}
}

// ScoreFields scores each of the four linkage fields. A field blank on
// either side scores 0.0 and stays in the map: absence is penalized by the
// weighted sum, not ignored.
func (s *FieldScorer) ScoreFields(applicant Applicant, candidate Candidate) FieldScores {
	scores := make(FieldScores, 4)

	scores[FieldName] = s.fuzzy(applicant.Name, candidate.Name, match.AlgorithmTokenSet)
	scores[FieldDOB] = exactScore(applicant.DOB, candidate.DOB)
	scores[FieldState] = exactScore(strings.ToUpper(strings.TrimSpace(applicant.State)), strings.ToUpper(strings.TrimSpace(candidate.State)))
	scores[FieldAddress] = s.fuzzy(applicant.Address, candidate.Address, match.AlgorithmPartial)

	return scores
}

func (s *FieldScorer) fuzzy(a, b string, alg match.Algorithm) float64 {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if a == "" || b == "" {
		return 0.0
	}
	return s.matcher.Score(a, b, alg)
}

// exactScore is the binary policy for low-cardinality and safety-critical
// fields: 1.0 on equality, 0.0 otherwise, 0.0 when either side is blank.
func exactScore(a, b string) float64 {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if a == "" || b == "" {
		return 0.0
	}
	if a == b {
		return 1.0
	}
	return 0.0
}
