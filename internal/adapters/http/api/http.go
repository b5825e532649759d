// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	jsoniter "github.com/json-iterator/go"
	"github.com/okian/truerecord/internal/adapters/http/swagger"
	"github.com/okian/truerecord/internal/domain/model"
	"github.com/okian/truerecord/internal/domain/types"
	"github.com/okian/truerecord/pkg/logger"
	"github.com/okian/truerecord/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	SeasonDependencies
	RefreshDependencies
	HealthChecker
	StatsProvider
}

// Server wires HTTP routes for the business API.
type Server struct {
	seasonHandler  *SeasonHandler
	refreshHandler *RefreshHandler
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler

	corsOrigins    []string
	requestTimeout time.Duration
	logger         logger.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithCORSOrigins sets the allowed CORS origins.
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) {
		if len(origins) > 0 {
			s.corsOrigins = origins
		}
	}
}

// WithRequestTimeout bounds every request.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.requestTimeout = d
		}
	}
}

// WithLogger sets the request logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		corsOrigins:    []string{"*"},
		requestTimeout: 30 * time.Second,
		logger:         logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.seasonHandler = NewSeasonHandler(deps, s.logger)
	s.refreshHandler = NewRefreshHandler(deps, s.logger)
	s.healthHandler = NewHealthHandler(deps)
	s.statsHandler = NewStatsHandler(deps)
	return s
}

// Handler builds the router with middleware and every route.
func (s *Server) Handler(ctx context.Context) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(RequestLogger(s.logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(s.requestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"Location"},
		MaxAge:         300,
	}))
	r.Use(MetricsMiddleware)

	s.Register(ctx, r)
	return r
}

// Register attaches all HTTP routes to r.
func (s *Server) Register(ctx context.Context, r chi.Router) {
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
	})

	r.Get("/healthz", s.healthHandler.HandleHealth)
	r.Get("/stats", s.statsHandler.HandleStats)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
	swagger.Register(ctx, r)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/standings", s.seasonHandler.HandleGetStandings)
		r.Get("/teams/{teamID}", s.seasonHandler.HandleGetTeam)
		r.Get("/weeks/{week}", s.seasonHandler.HandleGetWeek)
		r.Get("/h2h/{teamA}/{teamB}", s.seasonHandler.HandleGetHeadToHead)

		r.Post("/refresh", s.refreshHandler.HandlePostRefresh)
		r.Get("/refresh/{jobID}", s.refreshHandler.HandleGetJob)
	})
}

// Entry types re-exported for handler signatures.
type (
	Standings    = types.Standings
	TeamDetail   = types.TeamDetail
	WeekAnalysis = types.WeekAnalysis
	HeadToHead   = types.HeadToHead
	RefreshJob   = model.RefreshJob
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// seasonQuery reads the optional ?league= and ?season= overrides.
// Empty values fall back to the service defaults.
func seasonQuery(r *http.Request) (string, int, error) {
	q := r.URL.Query()
	league := q.Get("league")
	raw := q.Get("season")
	if raw == "" {
		return league, 0, nil
	}
	season, err := strconv.Atoi(raw)
	if err != nil || season < 1 {
		return "", 0, badRequest("season must be a positive integer")
	}
	return league, season, nil
}
