package server

import (
	"net/http"

	"github.com/marcogenualdo/sanctum-client/internal/handlers"
	"github.com/marcogenualdo/sanctum-client/internal/middleware"
)

func (s *Server) setupRoutes() http.Handler {
	sessions := middleware.NewSessionStore(s.cfg.Mock, s.cfg.CSRF.CookieName, s.cache, s.logger)
	csrfMiddleware := middleware.NewCSRFMiddleware(s.cfg.CSRF, s.logger)
	authMiddleware := middleware.NewAuthMiddleware(s.logger)

	authHandler := handlers.NewAuthHandler(s.users, sessions, s.logger)
	productsHandler := handlers.NewProductsHandler(s.records, s.logger)
	walletHandler := handlers.NewWalletHandler(s.records, s.logger)
	healthHandler := handlers.NewHealthHandler(s.cfg, s.cache, s.users, s.logger)

	guarded := func(h http.HandlerFunc) http.Handler {
		return csrfMiddleware.ValidateCSRF(authMiddleware.RequireAuth(h))
	}

	web := http.NewServeMux()
	web.HandleFunc("GET "+s.cfg.Backend.CSRFPath, authHandler.CSRFCookie)
	web.Handle("POST "+s.cfg.Backend.LoginPath, csrfMiddleware.ValidateCSRF(http.HandlerFunc(authHandler.Login)))
	web.Handle("POST "+s.cfg.Backend.LogoutPath, csrfMiddleware.ValidateCSRF(http.HandlerFunc(authHandler.Logout)))
	web.Handle("GET "+s.cfg.Backend.UserPath, guarded(authHandler.User))

	web.Handle("GET /api/products", guarded(productsHandler.List))
	web.Handle("POST /api/products", guarded(productsHandler.Create))
	web.Handle("PUT /api/products/{id}", guarded(productsHandler.Update))
	web.Handle("PATCH /api/products/{id}", guarded(productsHandler.Update))
	web.Handle("DELETE /api/products/{id}", guarded(productsHandler.Delete))

	web.Handle("GET /api/wallet/transactions", guarded(walletHandler.List))
	web.Handle("POST /api/wallet/transactions", guarded(walletHandler.Record))

	mux := http.NewServeMux()
	mux.Handle("GET /health", healthHandler)
	for pattern, h := range s.extra {
		mux.Handle(pattern, h)
	}
	mux.Handle("/", sessions.Middleware(web))

	return middleware.Recovery(s.logger)(
		middleware.Logging(s.logger)(
			addSecurityHeaders(mux),
		),
	)
}

func addSecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Cache-Control", "no-store")

		next.ServeHTTP(w, r)
	})
}
