package middleware

import (
	"log/slog"
	"net/http"

	"github.com/marcogenualdo/sanctum-client/internal/config"
	"github.com/marcogenualdo/sanctum-client/pkg/security"
)

// StatusTokenMismatch is the status Laravel answers a failed CSRF check with.
const StatusTokenMismatch = 419

type CSRFMiddleware struct {
	headerName string
	logger     *slog.Logger
}

func NewCSRFMiddleware(cfg config.CSRFConfig, logger *slog.Logger) *CSRFMiddleware {
	return &CSRFMiddleware{
		headerName: cfg.HeaderName,
		logger:     logger,
	}
}

// ValidateCSRF rejects mutating requests whose token header does not match the
// session token. It must run inside the session middleware.
func (cm *CSRFMiddleware) ValidateCSRF(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}

		session, ok := GetSession(r.Context())
		if !ok {
			cm.logger.Error("csrf check without session", "path", r.URL.Path)
			writeMessage(w, http.StatusInternalServerError, "Server Error")
			return
		}

		token := r.Header.Get(cm.headerName)
		if token == "" {
			token = r.Header.Get("X-CSRF-TOKEN")
		}

		if !security.TokensMatch(session.CSRFToken, token) {
			cm.logger.Warn("csrf token mismatch",
				"path", r.URL.Path,
				"missing", token == "",
			)
			writeMessage(w, StatusTokenMismatch, "CSRF token mismatch.")
			return
		}

		next.ServeHTTP(w, r)
	})
}
