// Package httptransport assembles the public HTTP surface. Handlers stay
// thin and delegate to domain services; transport concerns live here.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	assesshandler "eligo/internal/assess/handler"
	"eligo/internal/platform/middleware"
	"eligo/internal/token"
	"eligo/pkg/httputil"
)

// HealthChecker reports readiness of one dependency.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Deps carries everything the router needs.
type Deps struct {
	Assess    *assesshandler.Handler
	Validator middleware.TokenValidator
	Logger    *slog.Logger
	// Tokens enables the client credentials exchange endpoint when a
	// client is registered on it.
	Tokens   *token.Service
	TokenTTL time.Duration
	// Health lists optional dependency checks by name (redis, postgres).
	Health map[string]HealthChecker
}

// NewRouter wires all public endpoints: the authenticated assessment API,
// the client credentials exchange, the metrics endpoint, and an
// unauthenticated health check.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.ClientAgent)

	r.Get("/healthz", handleHealth(deps.Health))
	r.Handle("/metrics", promhttp.Handler())
	if deps.Tokens != nil {
		r.Post("/v1/token", handleToken(deps.Tokens, deps.TokenTTL, deps))
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(deps.Validator, deps.Logger))
		deps.Assess.Register(r)
	})

	return r
}

func handleHealth(checks map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		body := map[string]string{"status": "healthy"}
		for name, check := range checks {
			if check == nil {
				continue
			}
			if err := check.Health(r.Context()); err != nil {
				status = http.StatusServiceUnavailable
				body["status"] = "degraded"
				body[name] = err.Error()
			}
		}
		httputil.WriteJSON(w, status, body)
	}
}
