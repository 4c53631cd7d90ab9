package httptransport

import (
	"net/http"
	"time"

	"eligo/internal/token"
	"eligo/pkg/derrors"
	"eligo/pkg/httputil"
	"eligo/pkg/requestcontext"
)

// TokenRequest is the HTTP request body for POST /v1/token.
type TokenRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// Validate implements the Validatable interface for
// httputil.DecodeAndPrepare.
func (r *TokenRequest) Validate() error {
	if r.ClientID == "" {
		return derrors.New(derrors.CodeValidation, "client_id is required")
	}
	if r.ClientSecret == "" {
		return derrors.New(derrors.CodeValidation, "client_secret is required")
	}
	return nil
}

// TokenResponse is the HTTP response body for a successful exchange.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// handleToken exchanges registered client credentials for an access token.
func handleToken(tokens *token.Service, ttl time.Duration, deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := requestcontext.RequestID(ctx)

		req, ok := httputil.DecodeAndPrepare[TokenRequest](w, r, deps.Logger, ctx, requestID)
		if !ok {
			return
		}

		accessToken, err := tokens.ExchangeClientCredentials(req.ClientID, req.ClientSecret, ttl)
		if err != nil {
			deps.Logger.WarnContext(ctx, "client credentials exchange rejected",
				"request_id", requestID,
				"client_id", req.ClientID,
				"error", err,
			)
			httputil.WriteError(w, err)
			return
		}

		httputil.WriteJSON(w, http.StatusOK, TokenResponse{
			AccessToken: accessToken,
			TokenType:   "Bearer",
			ExpiresIn:   int64(ttl.Seconds()),
		})
	}
}
