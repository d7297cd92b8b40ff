// Package retry provides bounded retry-with-delay helpers driven by a
// clockwork.Clock, so callers can be tested with a fake clock.
package retry

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
)

// Policy bounds a polling loop: at most Attempts checks, Interval apart.
type Policy struct {
	Attempts int
	Interval time.Duration
}

// Poll runs check until it reports true or the policy is exhausted. The first
// check runs immediately; there is no wait after the last one. It reports
// whether check succeeded, and returns ctx.Err() if the context ends first.
func Poll(ctx context.Context, clock clockwork.Clock, p Policy, check func() bool) (bool, error) {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	for i := 0; i < attempts; i++ {
		if check() {
			return true, nil
		}
		if i == attempts-1 {
			break
		}
		if err := Sleep(ctx, clock, p.Interval); err != nil {
			return false, err
		}
	}
	return false, nil
}

// Sleep waits for d on clock or until ctx is done.
func Sleep(ctx context.Context, clock clockwork.Clock, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}

	select {
	case <-clock.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
