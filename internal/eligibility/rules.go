package eligibility

import (
	"fmt"
	"strings"
	"time"

	"eligo/internal/linkage"
)

// evalState accumulates rationale and the pending review flag as the rule
// chain executes. Rules append to it in order; it is local to one Decide
// call.
type evalState struct {
	perception PerceptionResult
	linkage    *linkage.Result
	risk       RiskAssessment
	now        time.Time

	rationale      []string
	requiresReview bool
}

func (s *evalState) note(format string, args ...any) {
	s.rationale = append(s.rationale, fmt.Sprintf(format, args...))
}

// rule evaluates one step of the chain. A non-empty Decision terminates
// evaluation immediately; otherwise the chain continues with whatever
// review flags the rule set.
type rule func(cfg Config, s *evalState) Decision

// ruleChain is the contract-ordered rule sequence. Order matters: later
// rules are only reached when earlier ones do not terminate, and rationale
// ordering follows evaluation order.
var ruleChain = []rule{
	rulePerceptionConfidence,
	ruleAge,
	ruleRiskScore,
	ruleLinkageOutcome,
	ruleRiskReviewFlag,
	ruleLinkageReviewFlag,
	ruleTamper,
	rulePendingReview,
}

// rulePerceptionConfidence sends low-quality extractions straight to manual
// review; nothing downstream is trustworthy if the fields themselves are
// dubious.
func rulePerceptionConfidence(cfg Config, s *evalState) Decision {
	if s.perception.Confidence < cfg.MinPerceptionConfidence {
		s.note("Perception confidence too low: %.2f", s.perception.Confidence)
		s.requiresReview = true
		return DecisionManualReview
	}
	return ""
}

// ruleAge denies underage applicants. An unparseable DOB is expected input
// noise, not a fault: it records "age unknown", flags review, and lets the
// chain continue.
func ruleAge(cfg Config, s *evalState) Decision {
	age, ok := ageAt(s.perception.Fields.DOB, s.now)
	if !ok {
		s.note("Age unknown (DOB missing or unparseable)")
		s.requiresReview = true
		return ""
	}
	if age < cfg.MinimumAge {
		s.note("Age ineligible: %d years old (must be %d+)", age, cfg.MinimumAge)
		return DecisionDenied
	}
	s.note("Age eligible: %d years old", age)
	return ""
}

// ruleRiskScore denies on a high risk score and carries every risk factor
// into the rationale verbatim.
func ruleRiskScore(cfg Config, s *evalState) Decision {
	if s.risk.RiskScore > cfg.RiskThreshold {
		s.rationale = append(s.rationale, s.risk.RiskFactors...)
		return DecisionDenied
	}
	return ""
}

// ruleLinkageOutcome acts on the matched candidate's recorded outcome: a
// prior denial is terminal, a prior approval passes through, anything else
// is unclear and flags review.
func ruleLinkageOutcome(cfg Config, s *evalState) Decision {
	if !s.linkage.Matched || s.linkage.BestCandidate == nil {
		return ""
	}
	switch strings.ToLower(strings.TrimSpace(s.linkage.BestCandidate.Outcome)) {
	case "denied":
		s.note("Background check failed: denied in candidate records (confidence: %.2f)", s.linkage.Confidence)
		return DecisionDenied
	case "approved":
		s.note("Background check passed (confidence: %.2f)", s.linkage.Confidence)
	default:
		s.note("Background check result unclear: %s", strings.TrimSpace(s.linkage.BestCandidate.Outcome))
		s.requiresReview = true
	}
	return ""
}

func ruleRiskReviewFlag(cfg Config, s *evalState) Decision {
	if s.risk.RequiresManualReview {
		s.note("Risk assessment flagged for manual review")
		s.requiresReview = true
	}
	return ""
}

func ruleLinkageReviewFlag(cfg Config, s *evalState) Decision {
	if s.linkage.RequiresReview {
		s.note("Linkage flagged for manual review (ambiguous match)")
		s.requiresReview = true
	}
	return ""
}

// ruleTamper is terminal regardless of any other flags already set.
func ruleTamper(cfg Config, s *evalState) Decision {
	if s.perception.TamperDetected {
		s.note("Document tampering detected")
		s.requiresReview = true
		return DecisionManualReview
	}
	return ""
}

// rulePendingReview converts any review flag raised by earlier
// non-terminating rules into a manual review decision.
func rulePendingReview(cfg Config, s *evalState) Decision {
	if s.requiresReview {
		return DecisionManualReview
	}
	return ""
}

// ageAt computes whole calendar years between an ISO date of birth and the
// evaluation time, truncating partial years.
func ageAt(dob string, now time.Time) (int, bool) {
	dob = strings.TrimSpace(dob)
	if dob == "" {
		return 0, false
	}
	born, err := time.Parse("2006-01-02", dob)
	if err != nil {
		return 0, false
	}
	years := now.Year() - born.Year()
	if now.Month() < born.Month() || (now.Month() == born.Month() && now.Day() < born.Day()) {
		years--
	}
	// A future DOB yields a negative age and falls to the underage rule;
	// parseable-but-nonsensical dates are a denial, not input noise.
	return years, true
}
