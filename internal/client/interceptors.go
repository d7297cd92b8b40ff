package client

import (
	"context"
	"errors"
	"net/http"

	"github.com/marcogenualdo/sanctum-client/internal/auth"
	"github.com/marcogenualdo/sanctum-client/internal/retry"
)

// beforeRequest attaches the CSRF token to mutating requests. When no token
// can be found the request goes out without one and the server's 419 drives
// the replay in afterResponse.
func (c *Client) beforeRequest(ctx context.Context, req *Request) {
	if !req.mutating() {
		return
	}

	token := c.tokens.Get(ctx)
	if token == "" {
		if t, ok := c.readCookieToken(); ok {
			token = t
			c.tokens.Set(ctx, token)
		}
	}

	if token == "" {
		token = c.acquirer.Acquire(ctx)
		if token == "" {
			token = c.awaitCookieToken(ctx)
		}
	}

	if token == "" {
		c.logger.Warn("sending request without csrf token",
			"method", req.Method,
			"path", req.Path,
		)
		return
	}
	req.Header.Set(c.cfg.CSRF.HeaderName, token)
}

// awaitCookieToken gives a slow cookie write a few more chances to land.
func (c *Client) awaitCookieToken(ctx context.Context) string {
	var token string
	_, err := retry.Poll(ctx, c.clock, retry.Policy{
		Attempts: c.cfg.CSRF.AttachWaits + 1,
		Interval: c.cfg.CSRF.AttachWaitInterval,
	}, func() bool {
		t, ok := c.readCookieToken()
		token = t
		return ok
	})
	if err != nil {
		return ""
	}
	if token != "" {
		c.tokens.Set(ctx, token)
	}
	return token
}

// afterResponse runs on every result. epoch is the navigation epoch observed
// when the caller handed req to Do.
func (c *Client) afterResponse(ctx context.Context, req *Request, epoch uint64, resp *Response, err error) (*Response, error) {
	if resp != nil {
		c.syncToken(ctx)
	}
	if err == nil {
		return resp, nil
	}

	var se *StatusError
	if !errors.As(err, &se) {
		return nil, err
	}

	switch se.Status {
	case StatusTokenMismatch:
		return c.handleMismatch(ctx, req, epoch, se)
	case http.StatusUnauthorized:
		return nil, c.handleUnauthenticated(epoch, se)
	default:
		return nil, err
	}
}

// syncToken picks up a token the server rotated on the last response.
func (c *Client) syncToken(ctx context.Context) {
	token, ok := c.readCookieToken()
	if !ok || token == c.tokens.Get(ctx) {
		return
	}
	c.tokens.Set(ctx, token)
}

func (c *Client) handleMismatch(ctx context.Context, req *Request, epoch uint64, se *StatusError) (*Response, error) {
	if !req.markRetried() {
		c.recorder.RecordReplay("exhausted")
		c.logger.Warn("csrf token mismatch persisted after replay",
			"method", req.Method,
			"path", req.Path,
		)
		return nil, &auth.Error{Kind: auth.KindMismatch, Status: se.Status, Err: se}
	}

	c.logger.Info("csrf token mismatch, replaying request",
		"method", req.Method,
		"path", req.Path,
	)

	c.tokens.Clear(ctx)
	token := c.acquirer.Refresh(ctx)
	if err := retry.Sleep(ctx, c.clock, c.cfg.CSRF.RetryDelay); err != nil {
		return nil, err
	}
	if token == "" {
		if t, ok := c.readCookieToken(); ok {
			token = t
			c.tokens.Set(ctx, token)
		}
	}

	if token != "" {
		req.Header.Set(c.cfg.CSRF.HeaderName, token)
	} else {
		req.Header.Del(c.cfg.CSRF.HeaderName)
	}

	c.recorder.RecordReplay("replayed")
	resp, err := c.send(ctx, req)
	return c.afterResponse(ctx, req, epoch, resp, err)
}

func (c *Client) handleUnauthenticated(epoch uint64, se *StatusError) error {
	if c.state.LoggingOut() {
		c.recorder.RecordSilent("logout")
		return &auth.Error{Kind: auth.KindSilent, Status: se.Status, LoggingOut: true, Err: se}
	}

	// Sent before a login redirect completed: its page is gone, and the
	// redirect already told the user.
	if c.state.Epoch() != epoch {
		c.recorder.RecordSilent("stale")
		return &auth.Error{Kind: auth.KindSilent, Status: se.Status, Err: se}
	}

	path := c.nav.CurrentPath()
	if !c.guard.Protected(path) {
		return se
	}

	if !c.state.BeginRedirect() {
		c.recorder.RecordSilent("duplicate")
		return &auth.Error{Kind: auth.KindSilent, Status: se.Status, Err: se}
	}

	c.logger.Info("session is no longer authenticated, redirecting to login",
		"from", path,
		"to", c.guard.Login,
	)
	c.recorder.RecordRedirect()
	c.signals.Emit(auth.Event{
		Type:   auth.EventUnauthenticated,
		Path:   path,
		Status: se.Status,
		At:     c.clock.Now(),
	})

	delay := c.clock.After(c.cfg.Routes.RedirectDelay)
	go func() {
		<-delay
		c.navigateToLogin()
	}()

	return &auth.Error{Kind: auth.KindRedirect, Status: se.Status, Err: se}
}

// navigateToLogin performs the scheduled redirect. Navigation starts the app
// over, so the coordination flag and cached token are reset with it.
func (c *Client) navigateToLogin() {
	c.state.Navigated()
	c.nav.Navigate(c.guard.Login)
	c.tokens.Clear(context.Background())
	c.state.EndRedirect()
}
