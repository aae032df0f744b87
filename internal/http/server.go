package http

import (
	"context"
	"net/http"
	"time"

	"contas/internal/log"
)

// Server wraps the stdlib server with the limiter whose cleanup goroutine
// must stop on shutdown.
type Server struct {
	httpServer *http.Server
	limiter    *rateLimiter
	logger     *log.Logger
}

// NewServer builds the router and binds it to addr.
func NewServer(addr string, h *Handler, cfg RouterConfig) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}

	limit := cfg.RateLimit
	if limit <= 0 {
		limit = 60
	}
	limiter := newRateLimiter(limit)

	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           NewRouter(h, cfg, limiter),
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       2 * time.Minute,
		},
		limiter: limiter,
		logger:  logger.WithComponent(log.ComponentHTTP),
	}
}

// ListenAndServe blocks until the server stops.
func (s *Server) ListenAndServe() error {
	s.logger.Info("HTTP server listening", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests and stops the limiter cleanup.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.stop()
	return s.httpServer.Shutdown(ctx)
}
