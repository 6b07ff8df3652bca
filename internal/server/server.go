package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/me/prodigy/internal/app"
	"golang.org/x/time/rate"
)

// Version is reported by the health endpoint.
const Version = "0.1.0"

// Server is the Prodigy HTTP API server.
type Server struct {
	router    chi.Router
	logger    *slog.Logger
	baseLog   *slog.Logger // unscoped, for components that add their own
	app       *app.App
	limiter   *rate.Limiter
	startTime time.Time
}

// New creates a new Server with all routes registered. The scheduler and
// store are resolved from a on every request, so a replaced container takes
// effect immediately.
func New(a *app.App, logger *slog.Logger) *Server {
	cfg := a.Config()
	s := &Server{
		router:    chi.NewRouter(),
		logger:    logger.With("component", "server"),
		baseLog:   logger,
		app:       a,
		limiter:   rate.NewLimiter(limitFor(cfg.RateLimit), cfg.RateBurst),
		startTime: time.Now(),
	}
	s.routes()
	return s
}

// SetRateLimit changes the limit applied to mutating requests. A limit of
// zero disables limiting.
func (s *Server) SetRateLimit(perSecond float64, burst int) {
	s.limiter.SetLimit(limitFor(perSecond))
	s.limiter.SetBurst(burst)
}

func limitFor(perSecond float64) rate.Limit {
	if perSecond <= 0 {
		return rate.Inf
	}
	return rate.Limit(perSecond)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Handler returns the http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	r := s.router

	// Global middleware
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(s.logger))

	// Query façade (plain JSON or text, no envelope)
	r.Get("/status", s.handleStatus)

	limited := rateLimitMiddleware(s.limiter)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/", s.handleDiscovery)
		r.Get("/health", s.handleHealth)

		r.Route("/entries", func(r chi.Router) {
			r.Get("/", s.handleListEntries)
			r.With(limited).Post("/", s.handleCreateEntry)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetEntry)
				r.With(limited).Post("/advance", s.handleAdvanceEntry)
				r.With(limited).Put("/cancel", s.handleCancelEntry)
			})
		})
	})
}
