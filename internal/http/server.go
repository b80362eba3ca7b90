// Package http serves the planner API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"planner/internal/core"
	"planner/internal/log"
	"planner/internal/middleware/ratelimit"
	"planner/internal/middleware/security"
	"planner/internal/middleware/trace"
)

// Planner computes a plan for a horizon.
type Planner interface {
	Plan(ctx context.Context, monthsAhead int) (core.Plan, error)
}

// ReadinessFunc reports whether the ledger backends are reachable.
type ReadinessFunc func(ctx context.Context) error

type Server struct {
	http.Server

	planner            Planner
	ready              ReadinessFunc
	defaultMonthsAhead int
	logger             *log.Logger
	limiter            *ratelimit.Limiter
	detector           *security.Detector

	shutdownOnce sync.Once
}

// Option configures a Server.
type Option func(*Server)

// WithReadiness sets the check behind /readyz.
func WithReadiness(fn ReadinessFunc) Option {
	return func(s *Server) { s.ready = fn }
}

// WithDefaultMonthsAhead sets the horizon used when months_ahead is absent.
func WithDefaultMonthsAhead(n int) Option {
	return func(s *Server) { s.defaultMonthsAhead = n }
}

// WithRateLimit sets the per-client budget of planner requests per minute.
func WithRateLimit(perMinute int) Option {
	return func(s *Server) {
		if s.limiter != nil {
			s.limiter.Stop()
		}
		s.limiter = ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: perMinute})
	}
}

// WithLogger sets the request logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// NewServer builds the router and middleware chain.
func NewServer(addr string, p Planner, opts ...Option) *Server {
	s := &Server{
		planner:            p,
		defaultMonthsAhead: 6,
		detector:           security.NewDetector(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentHTTP)
	}
	if s.limiter == nil {
		s.limiter = ratelimit.NewLimiter(ratelimit.DefaultConfig())
	}

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := mux.NewRouter()
	r.Use(
		log.Middleware(s.logger),
		log.RequestIDMiddleware,
		trace.NewMiddleware(s.logger, s.detector.ClientIP).Middleware,
		security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware,
		s.flagSuspicious,
	)

	r.HandleFunc("/healthz", handleHealth).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet, http.MethodHead)

	api := r.PathPrefix("/api/planner").Subrouter()
	api.Use(s.limiter.Middleware(s.detector.ClientIP, handleRateLimited))
	api.HandleFunc("", s.handlePlan).Methods(http.MethodGet)
	api.HandleFunc("/timeline", s.handleTimeline).Methods(http.MethodGet)
	api.HandleFunc("/summary", s.handleSummary).Methods(http.MethodGet)
	api.HandleFunc("/categories", s.handleCategories).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("no such endpoint").Write(w)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		MethodNotAllowedError("GET").Write(w)
	})
	return r
}

func (s *Server) flagSuspicious(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.detector.IsSuspicious(r) {
			log.FromContext(r.Context()).WithComponent(log.ComponentSecurity).WarnContext(r.Context(),
				"Suspicious request",
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path,
				log.FieldClientIP, s.detector.ClientIP(r))
		}
		next.ServeHTTP(w, r)
	})
}

// Shutdown gracefully shuts down the server and the rate limiter.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
