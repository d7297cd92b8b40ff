package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/marcogenualdo/sanctum-client/internal/auth"
	"github.com/marcogenualdo/sanctum-client/internal/cache"
	"github.com/marcogenualdo/sanctum-client/internal/config"
	"github.com/marcogenualdo/sanctum-client/internal/csrf"
	"github.com/marcogenualdo/sanctum-client/internal/metrics"
	"github.com/marcogenualdo/sanctum-client/internal/retry"
	"github.com/marcogenualdo/sanctum-client/pkg/security"
)

const maxResponseBody = 4 << 20

// Client talks to a session-cookie backend. It attaches the CSRF token to
// mutating requests, replays a request once after a token mismatch, and
// coordinates a single login redirect when the session is gone.
type Client struct {
	cfg    config.Config
	origin *url.URL
	http   *http.Client
	jar    *sessionJar

	tokens   *csrf.TokenCache
	acquirer *csrf.Acquirer
	state    *auth.State
	guard    auth.RouteGuard
	signals  *auth.Signals

	nav       Navigator
	clock     clockwork.Clock
	recorder  metrics.Recorder
	transport http.RoundTripper
	logger    *slog.Logger
}

type Option func(*Client)

func WithClock(clock clockwork.Clock) Option {
	return func(c *Client) { c.clock = clock }
}

func WithNavigator(nav Navigator) Option {
	return func(c *Client) { c.nav = nav }
}

func WithRecorder(r metrics.Recorder) Option {
	return func(c *Client) { c.recorder = r }
}

func WithSignals(s *auth.Signals) Option {
	return func(c *Client) { c.signals = s }
}

func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.transport = rt }
}

// New builds a client for cfg.Backend.URL. store backs the token cache and the
// cookie jar; pass cache.NewMemoryCache() to keep everything in process.
func New(cfg config.Config, store cache.Cache, logger *slog.Logger, opts ...Option) (*Client, error) {
	base, err := url.Parse(cfg.Backend.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid backend url: %w", err)
	}
	origin := &url.URL{Scheme: base.Scheme, Host: base.Host, Path: "/"}

	c := &Client{
		cfg:      cfg,
		origin:   origin,
		state:    &auth.State{},
		guard:    auth.NewRouteGuard(cfg.Routes.Login, cfg.Routes.Protected),
		signals:  auth.NewSignals(),
		nav:      NewLocation(cfg.Routes.Current),
		clock:    clockwork.NewRealClock(),
		recorder: metrics.NewNoop(),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.jar, err = newSessionJar(context.Background(), origin, store, cfg.CSRF.TokenTTL, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	c.http = &http.Client{
		Jar:       c.jar,
		Timeout:   cfg.Backend.Timeout,
		Transport: c.transport,
	}

	c.tokens = csrf.NewTokenCache(store, origin.Host, cfg.CSRF.TokenTTL, logger)
	c.acquirer = csrf.NewAcquirer(csrf.AcquirerOptions{
		Prime:    c.prime,
		Read:     c.readCookieToken,
		Tokens:   c.tokens,
		Clock:    c.clock,
		Policy:   retry.Policy{Attempts: cfg.CSRF.PollAttempts, Interval: cfg.CSRF.PollInterval},
		Recorder: c.recorder,
		Logger:   logger,
	})

	return c, nil
}

func (c *Client) Signals() *auth.Signals { return c.signals }

func (c *Client) Navigator() Navigator { return c.nav }

// CSRFToken returns the cached token, or "" if none is known yet.
func (c *Client) CSRFToken(ctx context.Context) string { return c.tokens.Get(ctx) }

// RefreshCSRF forces a priming call and returns the new token ("" on failure).
func (c *Client) RefreshCSRF(ctx context.Context) string { return c.acquirer.Refresh(ctx) }

// Do sends req through the request and response interceptors.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	if req.Header == nil {
		req.Header = make(http.Header)
	}

	req.retried = false
	epoch := c.state.Epoch()

	c.beforeRequest(ctx, req)
	resp, err := c.send(ctx, req)
	return c.afterResponse(ctx, req, epoch, resp, err)
}

func (c *Client) GetJSON(ctx context.Context, path string, out any) error {
	return c.doJSON(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) PostJSON(ctx context.Context, path string, in, out any) error {
	return c.doJSON(ctx, http.MethodPost, path, in, out)
}

func (c *Client) PutJSON(ctx context.Context, path string, in, out any) error {
	return c.doJSON(ctx, http.MethodPut, path, in, out)
}

func (c *Client) PatchJSON(ctx context.Context, path string, in, out any) error {
	return c.doJSON(ctx, http.MethodPatch, path, in, out)
}

func (c *Client) Delete(ctx context.Context, path string) error {
	return c.doJSON(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body []byte
	if in != nil {
		var err error
		body, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	resp, err := c.Do(ctx, NewRequest(method, path, body))
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(resp.Body)) == 0 {
		return nil
	}
	return resp.Decode(out)
}

// send performs one round trip with no interceptor logic. Any response with a
// status of 400 or above comes back together with a *StatusError.
func (c *Client) send(ctx context.Context, req *Request) (*Response, error) {
	ref, err := url.Parse(req.Path)
	if err != nil {
		return nil, fmt.Errorf("invalid request path %q: %w", req.Path, err)
	}
	target := c.origin.ResolveReference(ref)

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target.String(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for name, values := range req.Header {
		httpReq.Header[name] = append([]string(nil), values...)
	}
	if httpReq.Header.Get("Accept") == "" {
		httpReq.Header.Set("Accept", "application/json")
	}
	if req.Body != nil && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("X-Requested-With", "XMLHttpRequest")
	httpReq.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.recorder.RecordRequest(req.Method, 0)
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.Path, err)
	}
	defer resp.Body.Close()

	c.recorder.RecordRequest(req.Method, resp.StatusCode)

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	out := &Response{Status: resp.StatusCode, Header: resp.Header, Body: data}
	if err != nil {
		return out, fmt.Errorf("%s %s: failed to read response: %w", req.Method, req.Path, err)
	}

	c.logger.Debug("request completed",
		"method", req.Method,
		"path", req.Path,
		"status", resp.StatusCode,
		"retried", req.retried,
	)

	if resp.StatusCode >= 400 {
		return out, &StatusError{
			Method: req.Method,
			Path:   req.Path,
			Status: resp.StatusCode,
			Body:   data,
		}
	}
	return out, nil
}

// prime issues the CSRF priming call outside of the interceptors.
func (c *Client) prime(ctx context.Context) error {
	_, err := c.send(ctx, NewRequest(http.MethodGet, c.cfg.Backend.CSRFPath, nil))
	return err
}

func (c *Client) readCookieToken() (string, bool) {
	raw := security.CookieString(c.jar.originCookies())
	return security.ReadToken(raw, c.cfg.CSRF.CookieName)
}
