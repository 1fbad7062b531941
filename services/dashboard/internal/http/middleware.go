package httpserver

import (
	"context"
	"net/http"
	"strings"

	"parkgate/services/dashboard/internal/auth"
)

type contextKey string

const operatorKey contextKey = "operator"

// AuthMiddleware validates operator bearer tokens.
func AuthMiddleware(tokens *auth.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "missing authorization header", http.StatusUnauthorized)
				return
			}
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				http.Error(w, "invalid authorization header", http.StatusUnauthorized)
				return
			}

			claims, err := tokens.ValidateToken(strings.TrimSpace(parts[1]))
			if err != nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), operatorKey, claims.Operator)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OperatorFromContext retrieves the authenticated operator name.
func OperatorFromContext(ctx context.Context) (string, bool) {
	val := ctx.Value(operatorKey)
	if val == nil {
		return "", false
	}
	name, ok := val.(string)
	return name, ok
}
