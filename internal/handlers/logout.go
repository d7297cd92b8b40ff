package handlers

import (
	"net/http"

	"github.com/marcogenualdo/sanctum-client/internal/middleware"
)

// Logout invalidates the session and rotates the CSRF token. Guests get the
// same answer, so a repeated logout is harmless.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.GetSession(r.Context())
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	next, err := h.sessions.Invalidate(r.Context(), session)
	if err != nil {
		h.logger.Error("failed to invalidate session", "error", err)
		writeMessage(w, http.StatusInternalServerError, "Server Error")
		return
	}
	h.sessions.WriteCookies(w, next)

	if session.Authenticated() {
		h.logger.Info("user logged out", "user_id", session.UserID)
	}
	w.WriteHeader(http.StatusNoContent)
}
