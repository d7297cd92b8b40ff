package client

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/marcogenualdo/sanctum-client/internal/cache"
)

type storedCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// sessionJar is a cookie jar that mirrors the backend origin's cookies into a
// cache.Cache, so a session survives across processes sharing that store.
type sessionJar struct {
	jar    *cookiejar.Jar
	origin *url.URL
	store  cache.Cache
	key    string
	ttl    time.Duration
	logger *slog.Logger
}

func newSessionJar(ctx context.Context, origin *url.URL, store cache.Cache, ttl time.Duration, logger *slog.Logger) (*sessionJar, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	j := &sessionJar{
		jar:    jar,
		origin: origin,
		store:  store,
		key:    "cookies:" + origin.Host,
		ttl:    ttl,
		logger: logger,
	}
	j.restore(ctx)
	return j, nil
}

func (j *sessionJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.jar.SetCookies(u, cookies)
	if u.Host == j.origin.Host {
		j.persist()
	}
}

func (j *sessionJar) Cookies(u *url.URL) []*http.Cookie {
	return j.jar.Cookies(u)
}

func (j *sessionJar) originCookies() []*http.Cookie {
	return j.jar.Cookies(j.origin)
}

func (j *sessionJar) persist() {
	if j.store == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	current := j.jar.Cookies(j.origin)
	if len(current) == 0 {
		if err := j.store.Delete(ctx, j.key); err != nil {
			j.logger.Warn("failed to delete stored cookies", "error", err)
		}
		return
	}

	stored := make([]storedCookie, 0, len(current))
	for _, c := range current {
		stored = append(stored, storedCookie{Name: c.Name, Value: c.Value})
	}
	data, err := json.Marshal(stored)
	if err != nil {
		j.logger.Error("failed to marshal cookies", "error", err)
		return
	}
	if err := j.store.Set(ctx, j.key, data, j.ttl); err != nil {
		j.logger.Warn("failed to store cookies", "error", err)
	}
}

func (j *sessionJar) restore(ctx context.Context) {
	if j.store == nil {
		return
	}

	data, err := j.store.Get(ctx, j.key)
	if err != nil {
		if !errors.Is(err, cache.ErrNotFound) {
			j.logger.Warn("failed to load stored cookies", "error", err)
		}
		return
	}

	var stored []storedCookie
	if err := json.Unmarshal(data, &stored); err != nil {
		j.logger.Warn("discarding unreadable stored cookies", "error", err)
		return
	}

	cookies := make([]*http.Cookie, 0, len(stored))
	for _, s := range stored {
		cookies = append(cookies, &http.Cookie{Name: s.Name, Value: s.Value, Path: "/"})
	}
	j.jar.SetCookies(j.origin, cookies)
	j.logger.Debug("restored session cookies", "count", len(cookies))
}
