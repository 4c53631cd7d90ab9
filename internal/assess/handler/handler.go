package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"eligo/internal/assess"
	"eligo/internal/audit"
	"eligo/internal/eligibility"
	"eligo/internal/linkage"
	"eligo/internal/match"
	"eligo/pkg/derrors"
	"eligo/pkg/httputil"
	"eligo/pkg/privacy"
	"eligo/pkg/requestcontext"
)

// Service defines the interface for assessment operations.
type Service interface {
	Assess(ctx context.Context, req assess.Request) (*assess.Assessment, error)
}

// AuditReader lists the audit trail for an applicant.
type AuditReader interface {
	List(ctx context.Context, applicantIDHash string) ([]audit.Event, error)
}

// Handler wires assessment endpoints to the assessment service.
type Handler struct {
	service Service
	trail   AuditReader
	logger  *slog.Logger
}

// New constructs an assessment handler with its dependencies.
func New(service Service, trail AuditReader, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		trail:   trail,
		logger:  logger,
	}
}

// Register mounts assessment endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/v1/assessments", h.HandleAssess)
	r.Get("/v1/applicants/{applicantID}/audit", h.HandleAuditTrail)
}

// HandleAssess handles POST /v1/assessments requests.
func (h *Handler) HandleAssess(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	if requestcontext.Subject(ctx) == "" {
		httputil.WriteError(w, derrors.New(derrors.CodeUnauthorized, "authentication required"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[AssessRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.Assess(ctx, assess.Request{
		ApplicantID: req.ApplicantID,
		Document:    req.Document(),
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "assessment failed",
			"request_id", requestID,
			"applicant_id_hash", privacy.HashPII(req.ApplicantID),
			"error", err,
		)
		httputil.WriteError(w, translateError(err))
		return
	}

	h.logger.InfoContext(ctx, "assessment completed",
		"request_id", requestID,
		"applicant_id_hash", privacy.HashPII(req.ApplicantID),
		"decision", string(result.Decision.Decision),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	httputil.WriteJSON(w, http.StatusOK, FromAssessment(result))
}

// HandleAuditTrail handles GET /v1/applicants/{applicantID}/audit.
func (h *Handler) HandleAuditTrail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if requestcontext.Subject(ctx) == "" {
		httputil.WriteError(w, derrors.New(derrors.CodeUnauthorized, "authentication required"))
		return
	}

	applicantID := chi.URLParam(r, "applicantID")
	if applicantID == "" {
		httputil.WriteError(w, derrors.New(derrors.CodeValidation, "applicant ID is required"))
		return
	}

	events, err := h.trail.List(ctx, privacy.HashPII(applicantID))
	if err != nil {
		h.logger.ErrorContext(ctx, "audit trail lookup failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, derrors.Wrap(derrors.CodeInternal, "audit trail lookup failed", err))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{"events": events})
}

// translateError maps core error taxonomy to transport codes: ambiguity
// and invalid signals are caller-visible conditions, linkage faults are
// internal.
func translateError(err error) error {
	var (
		ambiguous *match.AmbiguousMatchError
		invalid   *eligibility.InvalidSignalError
		linkErr   *linkage.Error
	)
	switch {
	case errors.As(err, &ambiguous):
		return derrors.Wrap(derrors.CodeUnprocessable, "query is too ambiguous to resolve safely", err)
	case errors.As(err, &invalid):
		return derrors.Wrap(derrors.CodeValidation, "collaborator signal out of range", err)
	case errors.As(err, &linkErr):
		return derrors.Wrap(derrors.CodeInternal, "linkage failed", err)
	default:
		return derrors.Wrap(derrors.CodeInternal, "assessment failed", err)
	}
}
