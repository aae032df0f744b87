package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"contas/internal/log"
)

// RouterConfig carries what the router needs beyond the handler itself.
type RouterConfig struct {
	AllowedOrigins []string
	RateLimit      int
	Logger         *log.Logger
	// Ready reports whether dependencies are usable; nil means always ready.
	Ready func() bool
}

// NewRouter assembles the full middleware chain and API surface.
func NewRouter(h *Handler, cfg RouterConfig, limiter *rateLimiter) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}

	router := chi.NewRouter()

	httpLogger := logger.WithComponent(log.ComponentHTTP)

	router.Use(middleware.Recoverer)
	router.Use(requestID)
	router.Use(securityHeaders)
	router.Use(log.Middleware(httpLogger))
	router.Use(log.RequestIDMiddleware(func(r *http.Request) string {
		return r.Header.Get(requestIDHeader)
	}))
	router.Use(requestLogger(httpLogger))
	if limiter != nil {
		router.Use(limiter.middleware)
	}
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", requestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/healthz", handleHealth)
	router.Get("/readyz", handleReady(cfg.Ready))
	router.Handle("/metrics", promhttp.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		h.Routes(r)
	})

	return router
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func handleReady(ready func() bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ready != nil && !ready() {
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ready"))
	}
}
