package handler

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"eligo/internal/assess"
	"eligo/internal/audit"
	"eligo/internal/eligibility"
	"eligo/internal/linkage"
	"eligo/internal/match"
	"eligo/internal/platform/logger"
	"eligo/pkg/requestcontext"
)

type fakeService struct {
	assessment *assess.Assessment
	err        error
	lastReq    assess.Request
}

func (f *fakeService) Assess(_ context.Context, req assess.Request) (*assess.Assessment, error) {
	f.lastReq = req
	return f.assessment, f.err
}

type fakeAuditReader struct {
	events []audit.Event
	err    error
}

func (f *fakeAuditReader) List(_ context.Context, _ string) ([]audit.Event, error) {
	return f.events, f.err
}

type HandlerSuite struct {
	suite.Suite
	service *fakeService
	trail   *fakeAuditReader
	router  chi.Router
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.service = &fakeService{
		assessment: &assess.Assessment{
			ApplicantID: "A-1",
			Decision: &eligibility.Result{
				Decision:   eligibility.DecisionApproved,
				Confidence: 0.93,
				Rationale:  []string{"Age eligible: 41 years old", "All checks passed"},
			},
			Risk: &eligibility.RiskAssessment{RiskScore: 0.1, Confidence: 0.9},
			Linkage: &linkage.Result{
				Matched:     true,
				Confidence:  0.92,
				FieldScores: linkage.FieldScores{"name": 1.0},
				BestCandidate: &linkage.Candidate{
					ID:   "rec-0001",
					Name: "John Michael Smith",
					DOB:  "1985-03-14",
				},
			},
			EvaluatedAt: time.Date(2026, time.June, 15, 12, 0, 0, 0, time.UTC),
		},
	}
	s.trail = &fakeAuditReader{}

	s.router = chi.NewRouter()
	New(s.service, s.trail, logger.New()).Register(s.router)
}

func (s *HandlerSuite) body() []byte {
	payload, err := json.Marshal(map[string]string{
		"applicant_id":    "A-1",
		"document_base64": base64.StdEncoding.EncodeToString([]byte("document bytes")),
	})
	s.Require().NoError(err)
	return payload
}

func (s *HandlerSuite) doAssess(body []byte, authenticated bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/assessments", bytes.NewReader(body))
	if authenticated {
		req = req.WithContext(requestcontext.WithSubject(req.Context(), "svc-caller"))
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) TestAssessSuccess() {
	rec := s.doAssess(s.body(), true)
	s.Require().Equal(http.StatusOK, rec.Code)

	var resp AssessResponse
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&resp))
	s.Equal("A-1", resp.ApplicantID)
	s.Equal("APPROVED", resp.Decision)
	s.InDelta(0.93, resp.Confidence, 1e-9)
	s.True(resp.Linkage.Matched)

	// The decoded document reaches the service.
	s.Equal([]byte("document bytes"), s.service.lastReq.Document)
}

func (s *HandlerSuite) TestAssessResponseOmitsPoolPII() {
	rec := s.doAssess(s.body(), true)
	s.Require().Equal(http.StatusOK, rec.Code)

	s.NotContains(rec.Body.String(), "John Michael Smith")
	s.NotContains(rec.Body.String(), "1985-03-14")
}

func (s *HandlerSuite) TestAssessUnauthenticated() {
	rec := s.doAssess(s.body(), false)
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *HandlerSuite) TestAssessMalformedJSON() {
	rec := s.doAssess([]byte("{not json"), true)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestAssessValidation() {
	s.Run("missing applicant_id", func() {
		payload, _ := json.Marshal(map[string]string{
			"document_base64": base64.StdEncoding.EncodeToString([]byte("doc")),
		})
		rec := s.doAssess(payload, true)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("invalid base64", func() {
		payload, _ := json.Marshal(map[string]string{
			"applicant_id":    "A-1",
			"document_base64": "!!!not-base64!!!",
		})
		rec := s.doAssess(payload, true)
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

func (s *HandlerSuite) TestAssessErrorTranslation() {
	s.Run("ambiguous match maps to 422", func() {
		s.service.assessment = nil
		s.service.err = fmt.Errorf("linkage: %w", &match.AmbiguousMatchError{Query: "john smith", Limit: 10})

		rec := s.doAssess(s.body(), true)
		s.Equal(http.StatusUnprocessableEntity, rec.Code)
	})

	s.Run("invalid signal maps to 400", func() {
		s.service.assessment = nil
		s.service.err = &eligibility.InvalidSignalError{Signal: "risk.risk_score", Value: 1.5}

		rec := s.doAssess(s.body(), true)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("unexpected error maps to 500 without detail", func() {
		s.service.assessment = nil
		s.service.err = errors.New("pq: connection reset")

		rec := s.doAssess(s.body(), true)
		s.Equal(http.StatusInternalServerError, rec.Code)
		s.NotContains(rec.Body.String(), "pq: connection reset")
	})
}

func (s *HandlerSuite) TestAuditTrail() {
	s.trail.events = []audit.Event{{
		ID:              "evt-1",
		Action:          audit.ActionAssessmentCompleted,
		ApplicantIDHash: "abcd1234",
		Decision:        "APPROVED",
	}}

	req := httptest.NewRequest(http.MethodGet, "/v1/applicants/A-1/audit", nil)
	req = req.WithContext(requestcontext.WithSubject(req.Context(), "svc-caller"))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	s.Require().Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), "evt-1")
}

func (s *HandlerSuite) TestAuditTrailUnauthenticated() {
	req := httptest.NewRequest(http.MethodGet, "/v1/applicants/A-1/audit", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	s.Equal(http.StatusUnauthorized, rec.Code)
}
