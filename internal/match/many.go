package match

import (
	"fmt"
	"sort"
)

// highConfidenceBar is the score above which a candidate counts toward the
// ambiguity limit in MatchMany.
const highConfidenceBar = 0.8

// Match pairs a candidate string with its similarity score.
type Match struct {
	Candidate string
	Score     float64
}

// AmbiguousMatchError reports that too many candidates scored above the
// high-confidence bar for the query to be resolved safely. Callers must
// surface it, never silently take the top hit.
type AmbiguousMatchError struct {
	Query   string
	Matches []Match
	Limit   int
}

func (e *AmbiguousMatchError) Error() string {
	return fmt.Sprintf("ambiguous match: %d candidates scored above %.1f (limit %d)",
		len(e.Matches), highConfidenceBar, e.Limit)
}

// MatchMany scores query against every candidate with the token-set
// algorithm and returns matches at or above threshold, sorted by score
// descending. The sort is stable, so ties keep candidate pool order. If
// more than the configured limit of candidates score above 0.8 the query is
// too generic and an AmbiguousMatchError is returned instead.
func (m *Matcher) MatchMany(query string, candidates []string, threshold float64) ([]Match, error) {
	if query == "" || len(candidates) == 0 {
		return nil, nil
	}

	var matches []Match
	for _, candidate := range candidates {
		score := m.Score(query, candidate, AlgorithmTokenSet)
		if score >= threshold {
			matches = append(matches, Match{Candidate: candidate, Score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	// Ambiguity is judged over the returned result set, not the whole pool.
	// Candidates filtered out by the threshold never count toward the limit.
	var ambiguous []Match
	for _, mt := range matches {
		if mt.Score > highConfidenceBar {
			ambiguous = append(ambiguous, mt)
		}
	}
	if len(ambiguous) > m.ambiguityLimit {
		return nil, &AmbiguousMatchError{Query: query, Matches: ambiguous, Limit: m.ambiguityLimit}
	}

	return matches, nil
}
