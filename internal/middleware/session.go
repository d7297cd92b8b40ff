package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/marcogenualdo/sanctum-client/internal/cache"
	"github.com/marcogenualdo/sanctum-client/internal/config"
	"github.com/marcogenualdo/sanctum-client/pkg/security"
)

type contextKey string

const SessionContextKey contextKey = "session"

// Session is a server-side session. UserID is zero for guests.
type Session struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"user_id,omitempty"`
	CSRFToken string    `json:"csrf_token"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *Session) Authenticated() bool { return s.UserID != 0 }

// SessionStore keeps sessions in the cache under session:<id> and writes the
// session and XSRF-TOKEN cookies.
type SessionStore struct {
	cfg         config.MockConfig
	tokenCookie string
	cookies     security.CookieOptions
	cache       cache.Cache
	logger      *slog.Logger
}

func NewSessionStore(cfg config.MockConfig, tokenCookie string, cache cache.Cache, logger *slog.Logger) *SessionStore {
	return &SessionStore{
		cfg:         cfg,
		tokenCookie: tokenCookie,
		cookies: security.CookieOptions{
			Domain:   cfg.CookieDomain,
			Secure:   cfg.CookieSecure,
			SameSite: cfg.CookieSameSite,
		},
		cache:  cache,
		logger: logger,
	}
}

// Start resumes the session named by the request cookie, or opens a new guest
// session when there is none or it has expired.
func (ss *SessionStore) Start(ctx context.Context, r *http.Request) (*Session, error) {
	cookie, err := security.GetSessionCookie(r, ss.cfg.SessionCookie)
	if err != nil {
		return ss.create(ctx, 0)
	}

	data, err := ss.cache.Get(ctx, "session:"+cookie.Value)
	if errors.Is(err, cache.ErrNotFound) {
		ss.logger.Debug("session not found in cache", "session_id", cookie.Value)
		return ss.create(ctx, 0)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		ss.logger.Error("failed to unmarshal session", "error", err)
		return ss.create(ctx, 0)
	}

	if time.Now().After(session.ExpiresAt) {
		ss.destroy(ctx, session.ID)
		return ss.create(ctx, 0)
	}

	return &session, nil
}

// Regenerate replaces s with a new session owned by userID. The id and the CSRF
// token both change.
func (ss *SessionStore) Regenerate(ctx context.Context, s *Session, userID int64) (*Session, error) {
	ss.destroy(ctx, s.ID)
	return ss.create(ctx, userID)
}

// Invalidate ends s and opens a fresh guest session in its place.
func (ss *SessionStore) Invalidate(ctx context.Context, s *Session) (*Session, error) {
	ss.destroy(ctx, s.ID)
	return ss.create(ctx, 0)
}

// WriteCookies sets the session and token cookies, replacing any set earlier
// in the same response.
func (ss *SessionStore) WriteCookies(w http.ResponseWriter, s *Session) {
	w.Header().Del("Set-Cookie")
	http.SetCookie(w, security.CreateSessionCookie(ss.cookies, ss.cfg.SessionCookie, s.ID, ss.cfg.SessionTTL))
	http.SetCookie(w, security.CreateTokenCookie(ss.cookies, ss.tokenCookie, s.CSRFToken, ss.cfg.SessionTTL))
}

func (ss *SessionStore) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := ss.Start(r.Context(), r)
		if err != nil {
			ss.logger.Error("failed to start session", "error", err)
			writeMessage(w, http.StatusInternalServerError, "Server Error")
			return
		}

		ss.WriteCookies(w, session)

		ctx := context.WithValue(r.Context(), SessionContextKey, session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (ss *SessionStore) create(ctx context.Context, userID int64) (*Session, error) {
	token, err := security.GenerateCSRFToken()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	session := &Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		CSRFToken: token,
		CreatedAt: now,
		ExpiresAt: now.Add(ss.cfg.SessionTTL),
	}

	data, err := json.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := ss.cache.Set(ctx, "session:"+session.ID, data, ss.cfg.SessionTTL); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	return session, nil
}

func (ss *SessionStore) destroy(ctx context.Context, id string) {
	if err := ss.cache.Delete(ctx, "session:"+id); err != nil {
		ss.logger.Warn("failed to delete session from cache", "error", err)
	}
}

func GetSession(ctx context.Context) (*Session, bool) {
	session, ok := ctx.Value(SessionContextKey).(*Session)
	return session, ok
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"message": message})
}
