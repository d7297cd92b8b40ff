package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/marcogenualdo/sanctum-client/internal/api"
	"github.com/marcogenualdo/sanctum-client/internal/middleware"
)

const failedLogin = "These credentials do not match our records."

type AuthHandler struct {
	users    *UserDirectory
	sessions *middleware.SessionStore
	logger   *slog.Logger
}

func NewAuthHandler(users *UserDirectory, sessions *middleware.SessionStore, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		users:    users,
		sessions: sessions,
		logger:   logger,
	}
}

// CSRFCookie is the priming endpoint. The session middleware has already set
// the cookies, so there is nothing left to write.
func (h *AuthHandler) CSRFCookie(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.GetSession(r.Context())
	if !ok {
		writeMessage(w, http.StatusInternalServerError, "Server Error")
		return
	}

	var creds api.Credentials
	if err := decodeBody(w, r, &creds); err != nil {
		writeMessage(w, http.StatusBadRequest, "Malformed JSON body.")
		return
	}

	errs := make(map[string][]string)
	if strings.TrimSpace(creds.Email) == "" {
		errs["email"] = append(errs["email"], "The email field is required.")
	}
	if creds.Password == "" {
		errs["password"] = append(errs["password"], "The password field is required.")
	}
	if len(errs) > 0 {
		writeValidation(w, errs, "email", "password")
		return
	}

	user, ok := h.users.Authenticate(creds.Email, creds.Password)
	if !ok {
		h.logger.Info("failed login", "email", creds.Email)
		writeValidation(w, map[string][]string{"email": {failedLogin}}, "email")
		return
	}

	next, err := h.sessions.Regenerate(r.Context(), session, user.ID)
	if err != nil {
		h.logger.Error("failed to regenerate session", "error", err)
		writeMessage(w, http.StatusInternalServerError, "Server Error")
		return
	}
	h.sessions.WriteCookies(w, next)

	h.logger.Info("user logged in", "user_id", user.ID, "email", user.Email)
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) User(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.GetSession(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Unauthenticated.")
		return
	}

	user, ok := h.users.Lookup(session.UserID)
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Unauthenticated.")
		return
	}

	writeJSON(w, http.StatusOK, user)
}
