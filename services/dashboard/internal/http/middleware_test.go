package httpserver

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"parkgate/services/dashboard/internal/auth"
)

func TestAuthMiddleware(t *testing.T) {
	tokens := auth.NewTokenService("test-secret", time.Hour)
	token, err := tokens.GenerateToken("operator-1")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	var gotOperator string
	protected := AuthMiddleware(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotOperator, _ = OperatorFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	call := func(header string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/logs/recent", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)
		return rec
	}

	t.Run("valid bearer token", func(t *testing.T) {
		rec := call("Bearer " + token)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if gotOperator != "operator-1" {
			t.Fatalf("expected operator-1 in context, got %q", gotOperator)
		}
	})

	t.Run("missing header", func(t *testing.T) {
		if rec := call(""); rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("wrong scheme", func(t *testing.T) {
		if rec := call("Basic " + token); rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("invalid token", func(t *testing.T) {
		if rec := call("Bearer not-a-token"); rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})
}

func TestOperatorFromContextMissing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, ok := OperatorFromContext(req.Context()); ok {
		t.Fatalf("expected no operator on a bare context")
	}
}
