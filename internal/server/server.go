package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/marcogenualdo/sanctum-client/internal/cache"
	"github.com/marcogenualdo/sanctum-client/internal/config"
	"github.com/marcogenualdo/sanctum-client/internal/handlers"
)

// Server is a local stand-in for the Laravel backend: session cookies, CSRF
// priming, 419 on token mismatch and 401 on a missing session.
type Server struct {
	cfg        config.Config
	cache      cache.Cache
	users      *handlers.UserDirectory
	records    *handlers.Records
	extra      map[string]http.Handler
	logger     *slog.Logger
	httpServer *http.Server
}

type Option func(*options)

type options struct {
	passwordCost int
}

// WithPasswordCost sets the bcrypt cost used to hash the configured passwords.
func WithPasswordCost(cost int) Option {
	return func(o *options) { o.passwordCost = cost }
}

func New(cfg config.Config, cache cache.Cache, logger *slog.Logger, opts ...Option) (*Server, error) {
	o := options{passwordCost: bcrypt.DefaultCost}
	for _, opt := range opts {
		opt(&o)
	}

	users, err := handlers.NewUserDirectory(cfg.Mock.Users, o.passwordCost)
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}

	return &Server{
		cfg:     cfg,
		cache:   cache,
		users:   users,
		records: handlers.NewRecords(),
		extra:   make(map[string]http.Handler),
		logger:  logger,
	}, nil
}

// Mount serves h at pattern outside the session and CSRF layers. It must be
// called before Start or Handler.
func (s *Server) Mount(pattern string, h http.Handler) {
	s.extra[pattern] = h
}

func (s *Server) Handler() http.Handler {
	return s.setupRoutes()
}

func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         net.JoinHostPort(s.cfg.Mock.Host, fmt.Sprint(s.cfg.Mock.Port)),
		Handler:      s.setupRoutes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting backend emulator",
			"host", s.cfg.Mock.Host,
			"port", s.cfg.Mock.Port,
			"users", s.users.Len(),
		)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		s.logger.Info("received shutdown signal", "signal", sig)
		return s.Shutdown()
	}
}

func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s.logger.Info("shutting down backend emulator")

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("error during server shutdown", "error", err)
			return err
		}
	}

	if err := s.cache.Close(); err != nil {
		s.logger.Error("error closing cache", "error", err)
	}

	s.logger.Info("backend emulator shutdown complete")
	return nil
}
