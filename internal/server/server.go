package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/metaquote/internal/domain"
	"github.com/alanyoungcy/metaquote/internal/server/handler"
	"github.com/alanyoungcy/metaquote/internal/server/middleware"
	"github.com/alanyoungcy/metaquote/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	APIKey      string // if empty, authentication is disabled

	// RateLimiter enables per-client rate limiting when non-nil.
	RateLimiter domain.RateLimiter
	RateLimit   int
	RateWindow  time.Duration
}

// Handlers aggregates all HTTP handlers that the server needs to register.
type Handlers struct {
	Health *handler.HealthHandler
	Status *handler.StatusHandler
	Quotes *handler.QuoteHandler
	Trades *handler.TradeHandler
}

// Server is the HTTP + WebSocket API server for the quote engine.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	logger     *slog.Logger
}

// NewServer creates a new Server with all routes registered on the ServeMux.
// It wires up middleware (logging, auth, rate limiting, CORS) and attaches
// the WebSocket hub.
func NewServer(cfg Config, handlers Handlers, wsHub *ws.Hub, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	// Health check (no auth required).
	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	// Snapshot and counter summary.
	mux.HandleFunc("GET /api/status", handlers.Status.GetStatus)

	// Quote endpoints.
	mux.HandleFunc("GET /api/quote", handlers.Quotes.GetQuote)
	mux.HandleFunc("GET /api/quotes/recent", handlers.Quotes.ListRecent)
	mux.HandleFunc("POST /api/reload", handlers.Quotes.Reload)

	// Order placement (not available; quotes are advisory).
	mux.HandleFunc("POST /api/trade", handlers.Trades.PlaceTrade)

	// WebSocket endpoint.
	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}

	// Build the middleware chain.
	var h http.Handler = mux

	// Apply auth middleware (skips if APIKey is empty).
	h = middleware.Auth(cfg.APIKey)(h)

	// Apply per-client rate limiting when a limiter is configured.
	if cfg.RateLimiter != nil && cfg.RateLimit > 0 {
		h = middleware.RateLimit(cfg.RateLimiter, cfg.RateLimit, cfg.RateWindow)(h)
	}

	// Apply request logging middleware.
	h = middleware.Logging(logger)(h)

	// Apply CORS middleware.
	h = middleware.CORS(cfg.CORSOrigins)(h)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		mux:        mux,
		logger:     logger,
	}
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting",
		slog.String("addr", s.httpServer.Addr),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
