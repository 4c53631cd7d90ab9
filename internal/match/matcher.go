// Package match implements normalized fuzzy string similarity for record
// linkage. Scores are always in [0,1]; an empty input on either side scores
// 0.0 rather than erroring so field scorers can treat absence uniformly.
package match

import (
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
)

// Algorithm selects the similarity strategy for a comparison.
type Algorithm int

const (
	// AlgorithmTokenSet tokenizes both strings and aligns them as sets, so
	// "John Doe" and "Doe, John" score ~1.0 regardless of token order.
	// Preferred for person names.
	AlgorithmTokenSet Algorithm = iota
	// AlgorithmPartial scores the best-aligned substring window, tolerating
	// one string being a truncated or reformatted version of the other.
	// Preferred for addresses.
	AlgorithmPartial
	// AlgorithmEditDistance is a plain normalized Levenshtein ratio for
	// typo tolerance. Not used by the default field policies.
	AlgorithmEditDistance
)

// Matcher computes similarity scores between strings.
type Matcher struct {
	ambiguityLimit int
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithAmbiguityLimit overrides the maximum number of high-confidence
// candidates tolerated by MatchMany before the query is considered too
// generic to resolve.
func WithAmbiguityLimit(limit int) Option {
	return func(m *Matcher) {
		m.ambiguityLimit = limit
	}
}

// defaultAmbiguityLimit bounds how many candidates may score above the
// high-confidence bar before MatchMany refuses to pick a winner.
const defaultAmbiguityLimit = 10

// New constructs a Matcher.
func New(opts ...Option) *Matcher {
	m := &Matcher{ambiguityLimit: defaultAmbiguityLimit}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Score returns the similarity of a and b in [0,1] under the selected
// algorithm. Inputs are case-folded first; an empty side always scores 0.0.
func (m *Matcher) Score(a, b string, alg Algorithm) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return 0.0
	}

	switch alg {
	case AlgorithmTokenSet:
		return tokenSetRatio(a, b)
	case AlgorithmPartial:
		return partialRatio(a, b)
	default:
		return ratio(a, b)
	}
}

// ratio is the normalized Levenshtein similarity of two non-empty strings.
func ratio(a, b string) float64 {
	if a == b {
		return 1.0
	}
	dist := levenshtein.ComputeDistance(a, b)
	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}
	return 1.0 - float64(dist)/float64(longest)
}

// partialRatio slides the shorter string across the longer one and returns
// the best window similarity, so a truncated form of a longer value still
// scores high.
func partialRatio(a, b string) float64 {
	shorter, longer := []rune(a), []rune(b)
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	if len(shorter) == 0 {
		return 0.0
	}

	best := 0.0
	for start := 0; start+len(shorter) <= len(longer); start++ {
		window := string(longer[start : start+len(shorter)])
		if score := ratio(string(shorter), window); score > best {
			best = score
			if best == 1.0 {
				break
			}
		}
	}
	return best
}

// tokenSetRatio compares the sorted token intersection against each side's
// full token set and returns the best pairwise ratio. Shared tokens
// dominate, which makes the score insensitive to token order and to extra
// tokens on one side.
func tokenSetRatio(a, b string) float64 {
	tokensA := tokenize(a)
	tokensB := tokenize(b)
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0.0
	}

	intersection, onlyA, onlyB := splitTokens(tokensA, tokensB)

	common := strings.Join(intersection, " ")
	combinedA := strings.TrimSpace(common + " " + strings.Join(onlyA, " "))
	combinedB := strings.TrimSpace(common + " " + strings.Join(onlyB, " "))

	best := 0.0
	if common != "" {
		// Identical intersections compare the common core against each full
		// side; a perfect subset relationship scores 1.0.
		best = ratio(common, combinedA)
		if s := ratio(common, combinedB); s > best {
			best = s
		}
	}
	if s := ratio(combinedA, combinedB); s > best {
		best = s
	}
	return best
}

// tokenize splits on whitespace and punctuation, dropping empties, and
// returns tokens in sorted order for stable set comparison.
func tokenize(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r)
	})
	sortStrings(fields)
	return fields
}

// splitTokens partitions two sorted token slices into the shared set and
// each side's remainder. Duplicate tokens within a side collapse; the
// comparison treats each side as a set.
func splitTokens(a, b []string) (intersection, onlyA, onlyB []string) {
	setA := make(map[string]struct{}, len(a))
	for _, t := range a {
		setA[t] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, t := range b {
		setB[t] = struct{}{}
	}

	seen := make(map[string]struct{})
	for _, t := range a {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := setB[t]; ok {
			intersection = append(intersection, t)
		} else {
			onlyA = append(onlyA, t)
		}
	}
	for _, t := range b {
		if _, ok := setA[t]; ok {
			continue
		}
		if len(onlyB) > 0 && onlyB[len(onlyB)-1] == t {
			continue
		}
		onlyB = append(onlyB, t)
	}
	return intersection, onlyA, onlyB
}

func sortStrings(s []string) {
	// Insertion sort keeps the dependency surface flat; token lists are
	// short (a handful of name or address parts).
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j] < s[j-1]; j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}
