package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/marcogenualdo/sanctum-client/internal/auth"
)

// Logout ends the backend session. While it runs, and for the configured grace
// period afterwards, 401 responses are tagged silent so requests racing the
// logout do not surface errors.
func (c *Client) Logout(ctx context.Context) error {
	c.state.BeginLogout()
	defer func() {
		grace := c.clock.After(c.cfg.Routes.LogoutGrace)
		go func() {
			<-grace
			c.state.EndLogout()
		}()
	}()

	_, err := c.Do(ctx, NewRequest(http.MethodPost, c.cfg.Backend.LogoutPath, nil))
	c.tokens.Clear(ctx)

	if err != nil && !auth.IsSilent(err) {
		return fmt.Errorf("logout: %w", err)
	}

	c.logger.Info("logged out")
	return nil
}

// LoggingOut reports whether a logout or its grace period is in progress.
func (c *Client) LoggingOut() bool { return c.state.LoggingOut() }
