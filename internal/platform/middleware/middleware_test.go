package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eligo/internal/platform/logger"
	"eligo/pkg/requestcontext"
)

func TestRequestID(t *testing.T) {
	t.Run("generates when absent", func(t *testing.T) {
		var captured string
		h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			captured = requestcontext.RequestID(r.Context())
		}))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		require.NotEmpty(t, captured)
		assert.Equal(t, captured, rec.Header().Get("X-Request-ID"))
	})

	t.Run("honors incoming header", func(t *testing.T) {
		var captured string
		h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			captured = requestcontext.RequestID(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", "upstream-id")
		h.ServeHTTP(httptest.NewRecorder(), req)

		assert.Equal(t, "upstream-id", captured)
	})
}

func TestRequestTime(t *testing.T) {
	h := RequestTime(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.False(t, requestcontext.Now(r.Context()).IsZero())
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
}

func TestClientAgent(t *testing.T) {
	capture := func(r *http.Request) string {
		var label string
		h := ClientAgent(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			label = requestcontext.ClientAgent(req.Context())
		}))
		h.ServeHTTP(httptest.NewRecorder(), r)
		return label
	}

	t.Run("browser agent normalized", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")

		label := capture(req)
		assert.Contains(t, label, "Chrome")
		assert.Contains(t, label, "Linux")
		assert.NotContains(t, label, "Mozilla/5.0")
	})

	t.Run("sdk agent keeps product and version", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("User-Agent", "eligo-sdk/1.4.2")

		label := capture(req)
		assert.Contains(t, label, "eligo-sdk")
		assert.Contains(t, label, "1.4.2")
	})

	t.Run("missing header leaves context empty", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("User-Agent", "")

		assert.Empty(t, capture(req))
	})
}

type stubValidator struct {
	subject string
	err     error
}

func (s stubValidator) ValidateToken(string) (string, error) {
	return s.subject, s.err
}

func TestRequireAuth(t *testing.T) {
	log := logger.New()

	t.Run("missing header rejected", func(t *testing.T) {
		h := RequireAuth(stubValidator{}, log)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			t.Fatal("handler must not run")
		}))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("invalid token rejected", func(t *testing.T) {
		h := RequireAuth(stubValidator{err: errors.New("expired")}, log)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			t.Fatal("handler must not run")
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer bad-token")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token injects subject", func(t *testing.T) {
		var captured string
		h := RequireAuth(stubValidator{subject: "svc-caller"}, log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			captured = requestcontext.Subject(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer good-token")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "svc-caller", captured)
	})
}
