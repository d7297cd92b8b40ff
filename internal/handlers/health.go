package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/marcogenualdo/sanctum-client/internal/cache"
	"github.com/marcogenualdo/sanctum-client/internal/config"
)

type HealthHandler struct {
	cfg       config.Config
	cache     cache.Cache
	users     *UserDirectory
	logger    *slog.Logger
	startTime time.Time
}

func NewHealthHandler(cfg config.Config, cache cache.Cache, users *UserDirectory, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		cfg:       cfg,
		cache:     cache,
		users:     users,
		logger:    logger,
		startTime: time.Now(),
	}
}

type HealthResponse struct {
	Status string      `json:"status"`
	Uptime string      `json:"uptime"`
	Cache  CacheHealth `json:"cache"`
	Users  int         `json:"users"`
}

type CacheHealth struct {
	Type   string `json:"type"`
	Status string `json:"status"`
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	response := HealthResponse{
		Status: "healthy",
		Uptime: time.Since(h.startTime).Round(time.Second).String(),
		Users:  h.users.Len(),
	}

	response.Cache.Type = h.cfg.Cache.Type
	if err := h.cache.Set(ctx, "health:check", []byte("ok"), time.Minute); err != nil {
		h.logger.Warn("health check cache write failed", "error", err)
		response.Cache.Status = "error: " + err.Error()
		response.Status = "degraded"
	} else {
		response.Cache.Status = "connected"
		h.cache.Delete(ctx, "health:check")
	}

	status := http.StatusOK
	if response.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, response)
}
