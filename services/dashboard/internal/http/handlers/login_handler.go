package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"parkgate/services/dashboard/internal/auth"
)

// Operator is the single configured dashboard account.
type Operator struct {
	Username     string
	PasswordHash string
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// NewLoginHandler returns POST /api/v1/login handler.
func NewLoginHandler(operator Operator, hasher auth.Hasher, tokens *auth.TokenService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}
		if req.Username == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "username and password are required")
			return
		}

		if req.Username != operator.Username || hasher.Compare(operator.PasswordHash, req.Password) != nil {
			logger.Warn("failed login attempt", zap.String("username", req.Username))
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}

		token, err := tokens.GenerateToken(req.Username)
		if err != nil {
			logger.Error("token generation failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to issue token")
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"token": token})
	}
}
