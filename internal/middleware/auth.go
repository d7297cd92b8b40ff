package middleware

import (
	"log/slog"
	"net/http"
)

type AuthMiddleware struct {
	logger *slog.Logger
}

func NewAuthMiddleware(logger *slog.Logger) *AuthMiddleware {
	return &AuthMiddleware{logger: logger}
}

// RequireAuth answers 401 unless the session belongs to a signed-in user.
func (am *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, ok := GetSession(r.Context())
		if !ok || !session.Authenticated() {
			am.logger.Debug("unauthenticated request", "path", r.URL.Path)
			writeMessage(w, http.StatusUnauthorized, "Unauthenticated.")
			return
		}

		next.ServeHTTP(w, r)
	})
}
