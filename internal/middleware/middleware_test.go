package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"

	"github.com/satnyp/spolek-rodicu/internal/auth"
)

func TestAuthError(t *testing.T) {
	tests := []struct {
		err  error
		want connect.Code
	}{
		{auth.ErrMissingToken, connect.CodeUnauthenticated},
		{fmt.Errorf("%w: expired", auth.ErrInvalidToken), connect.CodeUnauthenticated},
		{auth.ErrAccessDenied, connect.CodePermissionDenied},
		{auth.ErrInsufficientRole, connect.CodePermissionDenied},
		{errors.New("db down"), connect.CodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, AuthError(tt.err).Code())
		})
	}
}

func TestCORS(t *testing.T) {
	h := CORS("https://spolek.example, http://localhost:5173", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	t.Run("preflight from allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/spolek.v1.RequestService/ListMonths", nil)
		req.Header.Set("Origin", "https://spolek.example")
		req.Header.Set("Access-Control-Request-Method", "POST")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "https://spolek.example", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")
	})

	t.Run("unknown origin gets no headers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/x", nil)
		req.Header.Set("Origin", "https://evil.example")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusTeapot, rec.Code)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("wildcard", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://any.example")
		rec := httptest.NewRecorder()
		CORS("*", http.NotFoundHandler()).ServeHTTP(rec, req)

		assert.Equal(t, "https://any.example", rec.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestHTTPLogging_PreservesStatus(t *testing.T) {
	h := HTTPLogging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sendMail", nil))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "nope")
}
