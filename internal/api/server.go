// Package api exposes the REST surface of the scan service.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/trace"

	"github.com/veriscan/veriscan/internal/app/dispatch"
	"github.com/veriscan/veriscan/internal/infra/spool"
	"github.com/veriscan/veriscan/internal/infra/storage/memory"
	"github.com/veriscan/veriscan/pkg/common/logger"
	"github.com/veriscan/veriscan/pkg/common/otel"
)

// Server wires the HTTP routes to the store, spool and dispatcher.
type Server struct {
	logger     *logger.Logger
	router     *chi.Mux
	store      *memory.Store
	spool      *spool.Spool
	dispatcher *dispatch.Dispatcher
	tracer     trace.Tracer
}

// NewServer constructs the API server and binds all routes.
func NewServer(
	log *logger.Logger,
	store *memory.Store,
	sp *spool.Spool,
	dispatcher *dispatch.Dispatcher,
	tracer trace.Tracer,
) *Server {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(otel.Middleware(tracer))
	r.Use(loggerMiddleware(log))
	r.Use(middleware.Recoverer)

	s := &Server{
		logger:     log,
		router:     r,
		store:      store,
		spool:      sp,
		dispatcher: dispatcher,
		tracer:     tracer,
	}

	s.routes()
	return s
}

func loggerMiddleware(log *logger.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				ctx := r.Context()
				log.Info(ctx, "request completed",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"duration", time.Since(start),
					"trace_id", otel.GetTraceID(ctx),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

func (s *Server) routes() {
	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/readiness", s.handleReadiness)

		r.Post("/auth/login", s.handleLogin)

		r.Route("/orgs/me/users", func(r chi.Router) {
			r.Post("/", s.handleCreateUser)
			r.Get("/", s.handleListUsers)
			r.Patch("/{userID}", s.handleUpdateUser)
		})

		r.Route("/projects", func(r chi.Router) {
			r.Post("/", s.handleCreateProject)
			r.Get("/", s.handleListProjects)
			r.Get("/{projectID}", s.handleGetProject)
			r.Patch("/{projectID}", s.handleUpdateProject)
			r.Post("/{projectID}/targets", s.handleCreateTarget)
			r.Get("/{projectID}/targets", s.handleListTargets)
		})

		r.Route("/targets", func(r chi.Router) {
			r.Get("/{targetID}", s.handleGetTarget)
			r.Patch("/{targetID}", s.handleUpdateTarget)
			r.Post("/{targetID}/verify", s.handleVerifyTarget)
		})

		r.Route("/runs", func(r chi.Router) {
			r.Post("/", s.handleCreateRun)
			r.Get("/queue", s.handleRunQueue)
			r.Get("/{runID}", s.handleGetRun)
			r.Get("/{runID}/results", s.handleRunResults)
			r.Get("/{runID}/logs", s.handleRunLogs)
			r.Get("/{runID}/findings", s.handleRunFindings)
			r.Post("/{runID}/cancel", s.handleCancelRun)
		})

		r.Patch("/findings/{findingID}", s.handleUpdateFinding)

		r.Get("/billing/usage", s.handleBillingUsage)
		r.Post("/billing/portal", s.handleBillingPortal)

		r.Get("/audit/events", s.handleAuditEvents)
	})
}

// Handler returns the bound router.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
