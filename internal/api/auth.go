package api

import (
	"context"
	"fmt"

	"github.com/marcogenualdo/sanctum-client/internal/client"
	"github.com/marcogenualdo/sanctum-client/internal/config"
)

type AuthService struct {
	client  *client.Client
	backend config.BackendConfig
}

func NewAuthService(c *client.Client, backend config.BackendConfig) *AuthService {
	return &AuthService{client: c, backend: backend}
}

// Login primes a fresh CSRF cookie, signs in and returns the current user.
func (s *AuthService) Login(ctx context.Context, creds Credentials) (*User, error) {
	s.client.RefreshCSRF(ctx)

	if err := s.client.PostJSON(ctx, s.backend.LoginPath, creds, nil); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	return s.Me(ctx)
}

func (s *AuthService) Logout(ctx context.Context) error {
	return s.client.Logout(ctx)
}

func (s *AuthService) Me(ctx context.Context) (*User, error) {
	var user User
	if err := s.client.GetJSON(ctx, s.backend.UserPath, &user); err != nil {
		return nil, fmt.Errorf("fetch current user: %w", err)
	}
	return &user, nil
}
