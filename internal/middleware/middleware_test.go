package middleware

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcogenualdo/sanctum-client/internal/cache"
	"github.com/marcogenualdo/sanctum-client/internal/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newStore(t *testing.T) (*SessionStore, cache.Cache) {
	t.Helper()
	store := cache.NewMemoryCache()
	t.Cleanup(func() { store.Close() })
	return NewSessionStore(config.Default().Mock, "XSRF-TOKEN", store, discardLogger()), store
}

func findCookie(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestSessionMiddlewareIssuesCookies(t *testing.T) {
	ss, store := newStore(t)

	var seen *Session
	h := ss.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = GetSession(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sanctum/csrf-cookie", nil))

	require.NotNil(t, seen)
	assert.False(t, seen.Authenticated())

	cookies := rec.Result().Cookies()
	session := findCookie(cookies, "laravel_session")
	token := findCookie(cookies, "XSRF-TOKEN")
	require.NotNil(t, session)
	require.NotNil(t, token)
	assert.True(t, session.HttpOnly)
	assert.False(t, token.HttpOnly)
	assert.Equal(t, seen.ID, session.Value)

	decoded, err := url.PathUnescape(token.Value)
	require.NoError(t, err)
	assert.Equal(t, seen.CSRFToken, decoded)

	_, err = store.Get(context.Background(), "session:"+seen.ID)
	assert.NoError(t, err)
}

func TestSessionMiddlewareResumesSession(t *testing.T) {
	ss, _ := newStore(t)

	var ids []string
	h := ss.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, _ := GetSession(r.Context())
		ids = append(ids, s.ID)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	h.ServeHTTP(httptest.NewRecorder(), req)

	require.Len(t, ids, 2)
	assert.Equal(t, ids[0], ids[1])
}

func TestSessionStoreRegenerateRotatesToken(t *testing.T) {
	ss, store := newStore(t)
	ctx := context.Background()

	guest, err := ss.Start(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	user, err := ss.Regenerate(ctx, guest, 7)
	require.NoError(t, err)
	assert.True(t, user.Authenticated())
	assert.NotEqual(t, guest.ID, user.ID)
	assert.NotEqual(t, guest.CSRFToken, user.CSRFToken)

	_, err = store.Get(ctx, "session:"+guest.ID)
	assert.ErrorIs(t, err, cache.ErrNotFound)

	out, err := ss.Invalidate(ctx, user)
	require.NoError(t, err)
	assert.False(t, out.Authenticated())
	assert.NotEqual(t, user.CSRFToken, out.CSRFToken)
}

func TestWriteCookiesReplacesEarlierCookies(t *testing.T) {
	ss, _ := newStore(t)
	rec := httptest.NewRecorder()

	ss.WriteCookies(rec, &Session{ID: "old", CSRFToken: "a"})
	ss.WriteCookies(rec, &Session{ID: "new", CSRFToken: "b"})

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 2)
	assert.Equal(t, "new", findCookie(cookies, "laravel_session").Value)
	assert.Equal(t, "b", findCookie(cookies, "XSRF-TOKEN").Value)
}

func withSession(r *http.Request, s *Session) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), SessionContextKey, s))
}

func TestValidateCSRF(t *testing.T) {
	cm := NewCSRFMiddleware(config.Default().CSRF, discardLogger())
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	h := cm.ValidateCSRF(ok)
	session := &Session{ID: "s", CSRFToken: "tok+/="}

	tests := []struct {
		name   string
		method string
		header string
		value  string
		want   int
	}{
		{"get skips check", http.MethodGet, "", "", http.StatusNoContent},
		{"missing token", http.MethodPost, "", "", StatusTokenMismatch},
		{"wrong token", http.MethodPut, "X-XSRF-TOKEN", "other", StatusTokenMismatch},
		{"matching token", http.MethodDelete, "X-XSRF-TOKEN", "tok+/=", http.StatusNoContent},
		{"laravel header", http.MethodPatch, "X-CSRF-TOKEN", "tok+/=", http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := withSession(httptest.NewRequest(tt.method, "/api/products", nil), session)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestValidateCSRFMismatchBody(t *testing.T) {
	cm := NewCSRFMiddleware(config.Default().CSRF, discardLogger())
	h := cm.ValidateCSRF(http.NotFoundHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, withSession(httptest.NewRequest(http.MethodPost, "/login", nil), &Session{CSRFToken: "x"}))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "CSRF token mismatch.", body["message"])
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestRequireAuth(t *testing.T) {
	am := NewAuthMiddleware(discardLogger())
	h := am.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, withSession(httptest.NewRequest(http.MethodGet, "/api/user", nil), &Session{ID: "guest"}))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"message":"Unauthenticated."}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, withSession(httptest.NewRequest(http.MethodGet, "/api/user", nil), &Session{ID: "u", UserID: 1}))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/user", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRecovery(t *testing.T) {
	h := Recovery(discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"message":"Server Error"}`, rec.Body.String())
}

func TestLoggingKeepsStatus(t *testing.T) {
	h := Logging(discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestExpiredSessionIsReplaced(t *testing.T) {
	ss, store := newStore(t)
	ctx := context.Background()

	expired := Session{ID: "stale", UserID: 3, CSRFToken: "t", ExpiresAt: time.Now().Add(-time.Minute)}
	data, err := json.Marshal(expired)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, "session:stale", data, 0))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "laravel_session", Value: "stale"})

	s, err := ss.Start(ctx, req)
	require.NoError(t, err)
	assert.NotEqual(t, "stale", s.ID)
	assert.False(t, s.Authenticated())
}
