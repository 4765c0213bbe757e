package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/config"
	"fintrack/internal/http/handlers"
	"fintrack/internal/middleware"
	"fintrack/internal/storage"
)

// Server wraps an http.Server with configured routes.
type Server struct {
	inner *http.Server
}

// New wires up middleware, routes, and returns a ready server.
func New(cfg config.Config, store storage.Store, logger *slog.Logger) *Server {
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	return &Server{inner: &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           Routes(cfg, store, tokens, logger),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}}
}

// Routes builds the full handler chain. Exposed separately so tests can
// exercise the API without binding a listener.
func Routes(cfg config.Config, store storage.Store, tokens *auth.TokenManager, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	requireAuth := middleware.Auth(tokens)

	handlers.NewHealthHandler(time.Now()).Register(mux)
	handlers.NewAuthHandler(store, tokens).Register(mux)
	handlers.NewTransactionsHandler(store).Register(mux, requireAuth)
	handlers.NewSettingsHandler(store).Register(mux, requireAuth)
	handlers.NewAnalyticsHandler(store).Register(mux, requireAuth)

	return middleware.CORS(cfg.CORSOrigins, middleware.Logging(logger, mux))
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
