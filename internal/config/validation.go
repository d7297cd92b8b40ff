package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

func (c *Config) Validate() error {
	if err := c.validateBackend(); err != nil {
		return fmt.Errorf("backend config: %w", err)
	}

	if err := c.validateCSRF(); err != nil {
		return fmt.Errorf("csrf config: %w", err)
	}

	if err := c.validateRoutes(); err != nil {
		return fmt.Errorf("routes config: %w", err)
	}

	if err := c.validateCache(); err != nil {
		return fmt.Errorf("cache config: %w", err)
	}

	if err := c.validateLogging(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	if err := c.validateMock(); err != nil {
		return fmt.Errorf("mock config: %w", err)
	}

	return nil
}

func (c *Config) validateBackend() error {
	if c.Backend.URL == "" {
		return fmt.Errorf("url is required")
	}

	u, err := url.Parse(c.Backend.URL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid url scheme: %q (must be http or https)", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("url must include a host")
	}

	if c.Backend.Timeout < 0 {
		return fmt.Errorf("timeout must be positive")
	}

	for name, path := range map[string]string{
		"csrf_path":   c.Backend.CSRFPath,
		"login_path":  c.Backend.LoginPath,
		"logout_path": c.Backend.LogoutPath,
		"user_path":   c.Backend.UserPath,
	} {
		if !strings.HasPrefix(path, "/") {
			return fmt.Errorf("%s must start with /: %q", name, path)
		}
	}

	return nil
}

func (c *Config) validateCSRF() error {
	if c.CSRF.CookieName == "" {
		return fmt.Errorf("cookie_name is required")
	}
	if c.CSRF.HeaderName == "" {
		return fmt.Errorf("header_name is required")
	}
	if c.CSRF.PollAttempts < 1 {
		return fmt.Errorf("poll_attempts must be at least 1")
	}
	if c.CSRF.PollInterval < 0 || c.CSRF.AttachWaitInterval < 0 || c.CSRF.RetryDelay < 0 {
		return fmt.Errorf("intervals must not be negative")
	}
	if c.CSRF.AttachWaits < 0 {
		return fmt.Errorf("attach_waits must not be negative")
	}
	if c.CSRF.TokenTTL < time.Minute {
		return fmt.Errorf("token_ttl must be at least 1 minute")
	}

	return nil
}

func (c *Config) validateRoutes() error {
	if !strings.HasPrefix(c.Routes.Login, "/") {
		return fmt.Errorf("login must start with /: %q", c.Routes.Login)
	}

	for i, prefix := range c.Routes.Protected {
		if !strings.HasPrefix(prefix, "/") {
			return fmt.Errorf("protected route %d must start with /: %q", i, prefix)
		}
	}

	if c.Routes.Current != "" && !strings.HasPrefix(c.Routes.Current, "/") {
		return fmt.Errorf("current must start with /: %q", c.Routes.Current)
	}

	if c.Routes.RedirectDelay < 0 || c.Routes.LogoutGrace < 0 {
		return fmt.Errorf("delays must not be negative")
	}

	return nil
}

func (c *Config) validateCache() error {
	if c.Cache.Type != "memory" && c.Cache.Type != "redis" {
		return fmt.Errorf("invalid type: %s (must be memory or redis)", c.Cache.Type)
	}

	if c.Cache.Type == "redis" {
		if c.Cache.Redis == nil {
			return fmt.Errorf("redis config is required when type is redis")
		}
		if c.Cache.Redis.Address == "" {
			return fmt.Errorf("redis address is required")
		}
	}

	return nil
}

func (c *Config) validateLogging() error {
	level := strings.ToLower(c.Logging.Level)
	if level != "debug" && level != "info" && level != "warn" && level != "error" {
		return fmt.Errorf("invalid level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}

	format := strings.ToLower(c.Logging.Format)
	if format != "json" && format != "text" {
		return fmt.Errorf("invalid format: %s (must be json or text)", c.Logging.Format)
	}

	output := strings.ToLower(c.Logging.Output)
	if output != "stdout" && output != "stderr" {
		return fmt.Errorf("invalid output: %s (must be stdout or stderr)", c.Logging.Output)
	}

	return nil
}

func (c *Config) validateMock() error {
	if c.Mock.Port < 1 || c.Mock.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Mock.Port)
	}

	sameSite := strings.ToLower(c.Mock.CookieSameSite)
	if sameSite != "lax" && sameSite != "strict" && sameSite != "none" {
		return fmt.Errorf("invalid cookie_same_site: %s (must be lax, strict, or none)", c.Mock.CookieSameSite)
	}

	if c.Mock.SessionTTL < time.Minute {
		return fmt.Errorf("session_ttl must be at least 1 minute")
	}

	emails := make(map[string]bool)
	for i, user := range c.Mock.Users {
		if user.Email == "" {
			return fmt.Errorf("user %d: email is required", i)
		}
		key := strings.ToLower(user.Email)
		if emails[key] {
			return fmt.Errorf("user %d: duplicate email: %s", i, user.Email)
		}
		emails[key] = true

		if user.Password == "" {
			return fmt.Errorf("user %s: password is required (or set %s)", user.Email, mockPasswordEnv(user.Email))
		}
	}

	return nil
}
