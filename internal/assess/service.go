// Package assess orchestrates one eligibility assessment: it gathers the
// perception and risk signals, runs probabilistic linkage over the
// candidate pool, feeds everything to the decision engine, and records the
// outcome in the audit trail.
package assess

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"eligo/internal/assess/metrics"
	"eligo/internal/assess/ports"
	"eligo/internal/audit"
	"eligo/internal/eligibility"
	"eligo/internal/linkage"
	"eligo/internal/pool"
	"eligo/pkg/privacy"
	"eligo/pkg/requestcontext"
)

// signalTimeout bounds the parallel collaborator calls; linkage and the
// decision itself are pure and need no timeout.
const signalTimeout = 30 * time.Second

// Linker runs probabilistic linkage. Satisfied by *linkage.Engine.
type Linker interface {
	Link(applicant linkage.Applicant, pool []linkage.Candidate) (*linkage.Result, error)
}

// Decider evaluates the eligibility rule chain. Satisfied by
// *eligibility.Engine.
type Decider interface {
	Decide(ctx context.Context, perception eligibility.PerceptionResult, link *linkage.Result, risk eligibility.RiskAssessment) (*eligibility.Result, error)
}

// Request is one assessment submission.
type Request struct {
	ApplicantID string
	Document    []byte
}

// Assessment is the complete result of one assessment, combining the final
// decision with the intermediate outputs an auditor needs.
type Assessment struct {
	ApplicantID string
	Decision    *eligibility.Result
	Perception  *eligibility.PerceptionResult
	Risk        *eligibility.RiskAssessment
	Linkage     *linkage.Result
	EvaluatedAt time.Time
}

// Service wires the assessment pipeline together.
type Service struct {
	perception ports.Perception
	risk       ports.Risk
	pool       pool.Store
	linker     Linker
	decider    Decider
	auditor    *audit.Publisher
	metrics    *metrics.Metrics
	logger     *slog.Logger
	tracer     trace.Tracer
}

// Option configures a Service.
type Option func(*Service)

// WithMetrics attaches Prometheus instrumentation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithLogger attaches a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService constructs the assessment service. All pipeline dependencies
// are required; metrics and logging are optional.
func NewService(
	perception ports.Perception,
	risk ports.Risk,
	poolStore pool.Store,
	linker Linker,
	decider Decider,
	auditor *audit.Publisher,
	opts ...Option,
) (*Service, error) {
	if perception == nil {
		return nil, fmt.Errorf("perception port is required")
	}
	if risk == nil {
		return nil, fmt.Errorf("risk port is required")
	}
	if poolStore == nil {
		return nil, fmt.Errorf("pool store is required")
	}
	if linker == nil {
		return nil, fmt.Errorf("linker is required")
	}
	if decider == nil {
		return nil, fmt.Errorf("decider is required")
	}
	if auditor == nil {
		return nil, fmt.Errorf("audit publisher is required")
	}

	s := &Service{
		perception: perception,
		risk:       risk,
		pool:       poolStore,
		linker:     linker,
		decider:    decider,
		auditor:    auditor,
		tracer:     otel.Tracer("eligo/assess"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Assess runs the full pipeline for one applicant. All I/O (signal
// gathering, pool loading) happens before the pure linkage and decision
// stages; a failure anywhere returns an error and no partial result.
func (s *Service) Assess(ctx context.Context, req Request) (*Assessment, error) {
	ctx, span := s.tracer.Start(ctx, "assess")
	defer span.End()

	applicantHash := privacy.HashPII(req.ApplicantID)
	s.log(ctx, slog.LevelInfo, "starting eligibility assessment", "applicant_id_hash", applicantHash)

	perception, candidates, err := s.gatherInputs(ctx, req)
	if err != nil {
		s.emitFailure(ctx, applicantHash, err)
		return nil, err
	}
	s.log(ctx, slog.LevelDebug, "perception extraction complete",
		"fields", privacy.SanitizeFields(map[string]string{
			"name":    perception.Fields.Name,
			"dob":     perception.Fields.DOB,
			"state":   perception.Fields.State,
			"address": perception.Fields.Address,
		}),
		"confidence", perception.Confidence,
	)

	linkStart := time.Now()
	linkResult, err := s.linker.Link(perception.Fields, candidates)
	if err != nil {
		s.emitFailure(ctx, applicantHash, err)
		return nil, err
	}
	s.observeStage("linkage", linkStart)
	if s.metrics != nil {
		s.metrics.ObserveLinkageConfidence(linkResult.Confidence)
	}
	span.SetAttributes(
		attribute.Bool("linkage.matched", linkResult.Matched),
		attribute.Float64("linkage.confidence", linkResult.Confidence),
	)

	riskStart := time.Now()
	riskResult, err := s.risk.Assess(ctx, riskFields(perception, linkResult))
	if err != nil {
		s.emitFailure(ctx, applicantHash, err)
		return nil, fmt.Errorf("risk assessment: %w", err)
	}
	s.observeStage("risk", riskStart)

	decision, err := s.decider.Decide(ctx, *perception, linkResult, *riskResult)
	if err != nil {
		s.emitFailure(ctx, applicantHash, err)
		return nil, err
	}
	span.SetAttributes(attribute.String("decision", string(decision.Decision)))

	if s.metrics != nil {
		s.metrics.ObserveDecision(string(decision.Decision))
	}

	evaluatedAt := requestcontext.Now(ctx)
	if err := s.auditor.Emit(ctx, audit.Event{
		Action:          audit.ActionAssessmentCompleted,
		ApplicantIDHash: applicantHash,
		Decision:        string(decision.Decision),
		Confidence:      decision.Confidence,
		Rationale:       decision.Rationale,
		RequestID:       requestcontext.RequestID(ctx),
		Subject:         requestcontext.Subject(ctx),
		ClientAgent:     requestcontext.ClientAgent(ctx),
		Timestamp:       evaluatedAt,
	}); err != nil {
		// The trail is part of the product; a decision that cannot be
		// audited must not be returned.
		return nil, fmt.Errorf("audit assessment: %w", err)
	}

	s.log(ctx, slog.LevelInfo, "eligibility assessment complete",
		"applicant_id_hash", applicantHash,
		"decision", string(decision.Decision),
		"confidence", decision.Confidence,
		"requires_review", decision.RequiresManualReview,
	)

	return &Assessment{
		ApplicantID: req.ApplicantID,
		Decision:    decision,
		Perception:  perception,
		Risk:        riskResult,
		Linkage:     linkResult,
		EvaluatedAt: evaluatedAt,
	}, nil
}

// gatherInputs fetches the perception extraction and the candidate pool in
// parallel with shared cancellation. Risk scoring runs after linkage
// because its input includes the linkage outcome.
func (s *Service) gatherInputs(ctx context.Context, req Request) (*eligibility.PerceptionResult, []linkage.Candidate, error) {
	ctx, cancel := context.WithTimeout(ctx, signalTimeout)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	var (
		perception *eligibility.PerceptionResult
		candidates []linkage.Candidate
	)

	g.Go(func() error {
		start := time.Now()
		p, err := s.perception.Extract(ctx, req.Document)
		s.observeStage("perception", start)
		if err != nil {
			return fmt.Errorf("perception extraction: %w", err)
		}
		perception = p
		return nil
	})

	g.Go(func() error {
		start := time.Now()
		c, err := s.pool.List(ctx)
		s.observeStage("pool_load", start)
		if err != nil {
			return fmt.Errorf("load candidate pool: %w", err)
		}
		candidates = c
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return perception, candidates, nil
}

// riskFields builds the collaborator's input map from the extracted fields
// plus a summary of the linkage outcome. The risk service receives raw
// field values; it scores them semantically and sits inside the trust
// boundary.
func riskFields(perception *eligibility.PerceptionResult, link *linkage.Result) map[string]string {
	fields := map[string]string{
		"name":    perception.Fields.Name,
		"dob":     perception.Fields.DOB,
		"state":   perception.Fields.State,
		"address": perception.Fields.Address,
	}
	if link.Matched && link.BestCandidate != nil {
		fields["background_check"] = fmt.Sprintf("Match found: %s (confidence: %.2f)",
			link.BestCandidate.Outcome, link.Confidence)
	} else {
		fields["background_check"] = "No match found in candidate records"
	}
	return fields
}

func (s *Service) emitFailure(ctx context.Context, applicantHash string, cause error) {
	event := audit.Event{
		Action:          audit.ActionAssessmentFailed,
		ApplicantIDHash: applicantHash,
		RequestID:       requestcontext.RequestID(ctx),
		Subject:         requestcontext.Subject(ctx),
		ClientAgent:     requestcontext.ClientAgent(ctx),
		Error:           privacy.Redact(cause.Error()),
	}
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.log(ctx, slog.LevelError, "audit emit failed for assessment failure", "error", err)
	}
}

func (s *Service) observeStage(stage string, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveStageLatency(stage, time.Since(start))
	}
}

func (s *Service) log(ctx context.Context, level slog.Level, msg string, args ...any) {
	if s.logger != nil {
		s.logger.Log(ctx, level, msg, args...)
	}
}
