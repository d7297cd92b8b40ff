package csrf

import (
	"context"
	"log/slog"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"

	"github.com/marcogenualdo/sanctum-client/internal/metrics"
	"github.com/marcogenualdo/sanctum-client/internal/retry"
)

const acquireKey = "csrf"

type AcquirerOptions struct {
	// Prime issues the request that makes the server set the CSRF cookie.
	Prime func(ctx context.Context) error
	// Read returns the token currently visible in the cookie store.
	Read     func() (string, bool)
	Tokens   *TokenCache
	Clock    clockwork.Clock
	Policy   retry.Policy
	Recorder metrics.Recorder
	Logger   *slog.Logger
}

// Acquirer fetches a fresh CSRF token. Concurrent callers share a single
// priming call; once it settles the next caller starts a new one.
type Acquirer struct {
	opts  AcquirerOptions
	group singleflight.Group
}

func NewAcquirer(opts AcquirerOptions) *Acquirer {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Recorder == nil {
		opts.Recorder = metrics.NewNoop()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Acquirer{opts: opts}
}

// Acquire returns a usable token, priming only when the cache is still empty
// by the time this caller's turn comes. It returns "" when no token could be
// obtained; failures are logged, not returned.
func (a *Acquirer) Acquire(ctx context.Context) string {
	return a.do(ctx, false)
}

// Refresh always primes (or joins a priming call already in flight), for when
// the cached token is known to be stale.
func (a *Acquirer) Refresh(ctx context.Context) string {
	return a.do(ctx, true)
}

func (a *Acquirer) do(ctx context.Context, force bool) string {
	v, _, _ := a.group.Do(acquireKey, func() (interface{}, error) {
		if !force {
			if token := a.opts.Tokens.Get(ctx); token != "" {
				return token, nil
			}
		}
		return a.acquire(context.WithoutCancel(ctx)), nil
	})
	token, _ := v.(string)
	return token
}

func (a *Acquirer) acquire(ctx context.Context) string {
	log := a.opts.Logger

	if err := a.opts.Prime(ctx); err != nil {
		a.opts.Recorder.RecordAcquisition(false)
		log.Warn("csrf priming request failed", "error", err)
		return ""
	}

	var token string
	found, err := retry.Poll(ctx, a.opts.Clock, a.opts.Policy, func() bool {
		t, ok := a.opts.Read()
		if ok {
			token = t
		}
		return ok
	})
	a.opts.Recorder.RecordAcquisition(found)

	if err != nil {
		log.Warn("csrf token polling interrupted", "error", err)
		return ""
	}
	if !found {
		log.Warn("csrf cookie not present after priming request",
			"attempts", a.opts.Policy.Attempts,
			"interval", a.opts.Policy.Interval,
		)
		return ""
	}

	a.opts.Tokens.Set(ctx, token)
	log.Debug("csrf token acquired")
	return token
}
