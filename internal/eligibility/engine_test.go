package eligibility

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"eligo/internal/linkage"
	"eligo/pkg/requestcontext"
)

type EngineSuite struct {
	suite.Suite
	engine *Engine
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

// evalTime pins the clock so age arithmetic is deterministic.
var evalTime = time.Date(2026, time.June, 15, 12, 0, 0, 0, time.UTC)

func (s *EngineSuite) SetupTest() {
	engine, err := NewEngine(DefaultConfig(), WithClock(func() time.Time { return evalTime }))
	s.Require().NoError(err)
	s.engine = engine
}

func (s *EngineSuite) perception() PerceptionResult {
	return PerceptionResult{
		Fields: linkage.Applicant{
			Name:    "John Michael Smith",
			DOB:     "1985-03-14",
			State:   "TX",
			Address: "123 Main Street, Austin, TX 78701",
		},
		Confidence:   0.95,
		QualityScore: 0.9,
	}
}

func (s *EngineSuite) cleanLinkage() *linkage.Result {
	return &linkage.Result{
		Matched:    true,
		Confidence: 0.92,
		BestCandidate: &linkage.Candidate{
			ID:      "rec-0001",
			Outcome: "approved",
		},
	}
}

func (s *EngineSuite) lowRisk() RiskAssessment {
	return RiskAssessment{RiskScore: 0.1, Confidence: 0.9}
}

func (s *EngineSuite) TestNewEngine() {
	s.Run("non-positive minimum age returns error", func() {
		cfg := DefaultConfig()
		cfg.MinimumAge = 0
		_, err := NewEngine(cfg)
		s.Require().Error(err)
	})

	s.Run("out-of-range risk threshold returns error", func() {
		cfg := DefaultConfig()
		cfg.RiskThreshold = 1.5
		_, err := NewEngine(cfg)
		s.Require().Error(err)
	})
}

func (s *EngineSuite) TestNilLinkageRejected() {
	_, err := s.engine.Decide(context.Background(), s.perception(), nil, s.lowRisk())
	s.Require().Error(err)
}

func (s *EngineSuite) TestApprovedPath() {
	result, err := s.engine.Decide(context.Background(), s.perception(), s.cleanLinkage(), s.lowRisk())
	s.Require().NoError(err)

	s.Equal(DecisionApproved, result.Decision)
	s.False(result.RequiresManualReview)

	joined := strings.Join(result.Rationale, "\n")
	s.Contains(joined, "Age eligible: 41 years old")
	s.Contains(joined, "Background check passed")
	s.Contains(joined, "All checks passed")
}

func (s *EngineSuite) TestLowPerceptionConfidence() {
	perception := s.perception()
	perception.Confidence = 0.3

	result, err := s.engine.Decide(context.Background(), perception, s.cleanLinkage(), s.lowRisk())
	s.Require().NoError(err)

	s.Equal(DecisionManualReview, result.Decision)
	s.True(result.RequiresManualReview)
	s.Require().Len(result.Rationale, 1)
	s.Contains(result.Rationale[0], "Perception confidence too low: 0.30")
}

func (s *EngineSuite) TestUnderageDenied() {
	perception := s.perception()
	perception.Fields.DOB = "2007-01-15" // 19 at evaluation time

	result, err := s.engine.Decide(context.Background(), perception, s.cleanLinkage(), s.lowRisk())
	s.Require().NoError(err)

	s.Equal(DecisionDenied, result.Decision)
	s.False(result.RequiresManualReview)
	s.Contains(strings.Join(result.Rationale, "\n"), "Age ineligible: 19 years old (must be 21+)")
}

func (s *EngineSuite) TestBirthdayBoundary() {
	s.Run("21st birthday is eligible", func() {
		perception := s.perception()
		perception.Fields.DOB = "2005-06-15"

		result, err := s.engine.Decide(context.Background(), perception, s.cleanLinkage(), s.lowRisk())
		s.Require().NoError(err)
		s.Equal(DecisionApproved, result.Decision)
		s.Contains(strings.Join(result.Rationale, "\n"), "Age eligible: 21 years old")
	})

	s.Run("day before 21st birthday is denied", func() {
		perception := s.perception()
		perception.Fields.DOB = "2005-06-16"

		result, err := s.engine.Decide(context.Background(), perception, s.cleanLinkage(), s.lowRisk())
		s.Require().NoError(err)
		s.Equal(DecisionDenied, result.Decision)
	})
}

func (s *EngineSuite) TestUnparseableDOBContinues() {
	perception := s.perception()
	perception.Fields.DOB = "14/03/1985"

	result, err := s.engine.Decide(context.Background(), perception, s.cleanLinkage(), s.lowRisk())
	s.Require().NoError(err)

	// The chain keeps running past the unknown age and the pending review
	// flag converts the final outcome.
	s.Equal(DecisionManualReview, result.Decision)
	joined := strings.Join(result.Rationale, "\n")
	s.Contains(joined, "Age unknown (DOB missing or unparseable)")
	s.Contains(joined, "Background check passed")
}

func (s *EngineSuite) TestFutureDOBDenied() {
	perception := s.perception()
	perception.Fields.DOB = "2030-01-01"

	result, err := s.engine.Decide(context.Background(), perception, s.cleanLinkage(), s.lowRisk())
	s.Require().NoError(err)
	s.Equal(DecisionDenied, result.Decision)
}

func (s *EngineSuite) TestHighRiskDenied() {
	risk := RiskAssessment{
		RiskScore:   0.85,
		RiskFactors: []string{"Felony conviction on record", "Open warrant"},
		Confidence:  0.9,
	}

	result, err := s.engine.Decide(context.Background(), s.perception(), s.cleanLinkage(), risk)
	s.Require().NoError(err)

	s.Equal(DecisionDenied, result.Decision)
	// Risk factors carry into the rationale verbatim.
	s.Contains(result.Rationale, "Felony conviction on record")
	s.Contains(result.Rationale, "Open warrant")
}

func (s *EngineSuite) TestRiskAtThresholdNotDenied() {
	risk := s.lowRisk()
	risk.RiskScore = 0.7

	result, err := s.engine.Decide(context.Background(), s.perception(), s.cleanLinkage(), risk)
	s.Require().NoError(err)
	s.Equal(DecisionApproved, result.Decision)
}

func (s *EngineSuite) TestAgeRuleBeforeRiskRule() {
	// An underage high-risk applicant is denied for age; the risk factors
	// never enter the rationale.
	perception := s.perception()
	perception.Fields.DOB = "2010-01-01"
	risk := RiskAssessment{
		RiskScore:   0.95,
		RiskFactors: []string{"Open warrant"},
		Confidence:  0.9,
	}

	result, err := s.engine.Decide(context.Background(), perception, s.cleanLinkage(), risk)
	s.Require().NoError(err)

	s.Equal(DecisionDenied, result.Decision)
	s.Contains(strings.Join(result.Rationale, "\n"), "Age ineligible")
	s.NotContains(result.Rationale, "Open warrant")
}

func (s *EngineSuite) TestMatchedDeniedOutcome() {
	link := s.cleanLinkage()
	link.BestCandidate.Outcome = "DENIED"

	result, err := s.engine.Decide(context.Background(), s.perception(), link, s.lowRisk())
	s.Require().NoError(err)

	s.Equal(DecisionDenied, result.Decision)
	s.Contains(strings.Join(result.Rationale, "\n"), "Background check failed")
}

func (s *EngineSuite) TestMatchedUnclearOutcome() {
	link := s.cleanLinkage()
	link.BestCandidate.Outcome = "pending"

	result, err := s.engine.Decide(context.Background(), s.perception(), link, s.lowRisk())
	s.Require().NoError(err)

	s.Equal(DecisionManualReview, result.Decision)
	s.Contains(strings.Join(result.Rationale, "\n"), "Background check result unclear: pending")
}

func (s *EngineSuite) TestUnmatchedLinkagePassesThrough() {
	link := &linkage.Result{Matched: false, Confidence: 0.4}

	result, err := s.engine.Decide(context.Background(), s.perception(), link, s.lowRisk())
	s.Require().NoError(err)
	s.Equal(DecisionApproved, result.Decision)
}

func (s *EngineSuite) TestRiskReviewFlag() {
	risk := s.lowRisk()
	risk.RequiresManualReview = true

	result, err := s.engine.Decide(context.Background(), s.perception(), s.cleanLinkage(), risk)
	s.Require().NoError(err)

	s.Equal(DecisionManualReview, result.Decision)
	s.Contains(strings.Join(result.Rationale, "\n"), "Risk assessment flagged for manual review")
}

func (s *EngineSuite) TestLinkageReviewFlag() {
	link := s.cleanLinkage()
	link.RequiresReview = true

	result, err := s.engine.Decide(context.Background(), s.perception(), link, s.lowRisk())
	s.Require().NoError(err)

	s.Equal(DecisionManualReview, result.Decision)
	s.Contains(strings.Join(result.Rationale, "\n"), "Linkage flagged for manual review (ambiguous match)")
}

func (s *EngineSuite) TestTamperTerminal() {
	perception := s.perception()
	perception.TamperDetected = true

	result, err := s.engine.Decide(context.Background(), perception, s.cleanLinkage(), s.lowRisk())
	s.Require().NoError(err)

	s.Equal(DecisionManualReview, result.Decision)
	s.True(result.RequiresManualReview)
	s.Contains(strings.Join(result.Rationale, "\n"), "Document tampering detected")
}

func (s *EngineSuite) TestConfidenceFormula() {
	perception := s.perception()
	perception.Confidence = 0.8
	risk := s.lowRisk()
	risk.Confidence = 0.6
	link := s.cleanLinkage()
	link.Confidence = 0.5

	want := 0.4*0.8 + 0.4*0.6 + 0.2*0.5

	s.Run("approved path", func() {
		result, err := s.engine.Decide(context.Background(), perception, link, risk)
		s.Require().NoError(err)
		s.InDelta(want, result.Confidence, 1e-9)
	})

	s.Run("denied path uses same formula", func() {
		denied := RiskAssessment{RiskScore: 0.9, Confidence: 0.6, RiskFactors: []string{"flag"}}
		result, err := s.engine.Decide(context.Background(), perception, link, denied)
		s.Require().NoError(err)
		s.Equal(DecisionDenied, result.Decision)
		s.InDelta(want, result.Confidence, 1e-9)
	})

	s.Run("review path uses same formula", func() {
		tampered := perception
		tampered.TamperDetected = true
		result, err := s.engine.Decide(context.Background(), tampered, link, risk)
		s.Require().NoError(err)
		s.Equal(DecisionManualReview, result.Decision)
		s.InDelta(want, result.Confidence, 1e-9)
	})
}

func (s *EngineSuite) TestInvalidSignalsRejected() {
	s.Run("perception confidence above one", func() {
		perception := s.perception()
		perception.Confidence = 1.2

		_, err := s.engine.Decide(context.Background(), perception, s.cleanLinkage(), s.lowRisk())
		s.requireInvalidSignal(err, "perception.confidence", 1.2)
	})

	s.Run("negative risk score", func() {
		risk := s.lowRisk()
		risk.RiskScore = -0.1

		_, err := s.engine.Decide(context.Background(), s.perception(), s.cleanLinkage(), risk)
		s.requireInvalidSignal(err, "risk.risk_score", -0.1)
	})

	s.Run("linkage confidence is trusted as internal output", func() {
		// Float rounding in the weighted composite can land marginally above
		// one; that must not fail the assessment.
		link := s.cleanLinkage()
		link.Confidence = 1.0000000000000002

		result, err := s.engine.Decide(context.Background(), s.perception(), link, s.lowRisk())
		s.Require().NoError(err)
		s.NotNil(result)
	})
}

func (s *EngineSuite) TestRequestPinnedClockDrivesAge() {
	// Without an explicit clock the engine ages applicants against the
	// request-pinned time, so the audit timestamp and the age check share
	// one "now".
	engine, err := NewEngine(DefaultConfig())
	s.Require().NoError(err)

	perception := s.perception()
	perception.Fields.DOB = "2005-06-16"

	onBirthday := requestcontext.WithTime(context.Background(), time.Date(2026, time.June, 16, 9, 0, 0, 0, time.UTC))
	result, err := engine.Decide(onBirthday, perception, s.cleanLinkage(), s.lowRisk())
	s.Require().NoError(err)
	s.Equal(DecisionApproved, result.Decision)

	dayBefore := requestcontext.WithTime(context.Background(), time.Date(2026, time.June, 15, 9, 0, 0, 0, time.UTC))
	result, err = engine.Decide(dayBefore, perception, s.cleanLinkage(), s.lowRisk())
	s.Require().NoError(err)
	s.Equal(DecisionDenied, result.Decision)
}

func (s *EngineSuite) requireInvalidSignal(err error, signal string, value float64) {
	s.Require().Error(err)
	var invalid *InvalidSignalError
	s.Require().ErrorAs(err, &invalid)
	s.Equal(signal, invalid.Signal)
	s.Equal(value, invalid.Value)
}
