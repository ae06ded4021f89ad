package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/couchcryptid/treecover-lookup-service/internal/domain"
	"github.com/couchcryptid/treecover-lookup-service/internal/lookup"
	"github.com/couchcryptid/treecover-lookup-service/internal/pipeline"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// LookupService is the query and command surface served under /api.
type LookupService interface {
	sharedobs.ReadinessChecker
	Status() lookup.Status
	Provinces() []domain.ProvinceEntry
	Districts(province string) []domain.DistrictEntry
	SelectAndResolve(province, district string) (domain.Selection, lookup.Result)
	Selection() domain.Selection
	Result() lookup.Result
	Lookup(province, district string) lookup.Result
}

// ReloadRequester accepts reload triggers.
type ReloadRequester interface {
	Request(trigger pipeline.Trigger) bool
}

// Server exposes health, readiness, metrics, and the lookup API.
type Server struct {
	httpServer *http.Server
	svc        LookupService
	reloader   ReloadRequester
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, and /api routes.
func NewServer(addr string, svc LookupService, reloader ReloadRequester, logger *slog.Logger) *Server {
	r := chi.NewRouter()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      r,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		svc:      svc,
		reloader: reloader,
		logger:   logger,
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", sharedobs.LivenessHandler())
	r.Get("/readyz", sharedobs.ReadinessHandler(svc))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(5 * time.Second))
		r.Get("/status", s.handleStatus)
		r.Get("/provinces", s.handleProvinces)
		r.Get("/provinces/{province}/districts", s.handleDistricts)
		r.Get("/selection", s.handleGetSelection)
		r.Put("/selection", s.handlePutSelection)
		r.Get("/result", s.handleResult)
		r.Get("/lookup", s.handleLookup)
		r.Post("/reload", s.handleReload)
	})

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// logRequests logs each request at debug level with its chi request ID.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	sharedobs.WriteJSON(w, status, map[string]string{"error": msg})
}
