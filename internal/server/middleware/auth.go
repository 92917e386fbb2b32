package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/iudanet/gamesync/internal/server/handlers"
	"github.com/iudanet/gamesync/internal/server/jwt"
	"github.com/iudanet/gamesync/pkg/api"
)

// TokenValidator проверяет access token
type TokenValidator interface {
	ValidateAccessToken(token string) (*jwt.Claims, error)
}

// AuthMiddleware создает middleware для проверки JWT токена.
// Любой отказ отвечает 401: клиент считает это выходом из сессии.
func AuthMiddleware(logger *slog.Logger, validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				logger.WarnContext(r.Context(), "Missing or malformed Authorization header", "path", r.URL.Path)
				unauthorized(w, "missing token")
				return
			}

			claims, err := validator.ValidateAccessToken(token)
			if err != nil {
				logger.WarnContext(r.Context(), "Invalid access token", "error", err)
				unauthorized(w, "invalid token")
				return
			}

			logger.DebugContext(r.Context(), "User authenticated", "user_id", claims.UserID)
			if sink := userSink(r.Context()); sink != nil {
				*sink = claims.UserID
			}

			next.ServeHTTP(w, r.WithContext(handlers.WithUser(r.Context(), claims.UserID, claims.Username)))
		})
	}
}

// bearerToken ожидает формат "Bearer <token>"
func bearerToken(r *http.Request) (string, bool) {
	scheme, token, found := strings.Cut(r.Header.Get("Authorization"), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(w http.ResponseWriter, message string) {
	writeError(w, message, http.StatusUnauthorized)
}

func writeError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(api.ErrorResponse{Error: http.StatusText(code), Message: message})
}
