package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/budgetguard/techops/internal/api/handler"
	mw "github.com/budgetguard/techops/internal/api/middleware"
	"github.com/budgetguard/techops/internal/config"
	"github.com/budgetguard/techops/internal/dispatch"
	"github.com/budgetguard/techops/internal/export"
	"github.com/budgetguard/techops/internal/matrix"
	"github.com/budgetguard/techops/internal/store"
	"github.com/budgetguard/techops/internal/vault"
)

// Deps are the collaborators the server routes requests to.
type Deps struct {
	Matrix      *matrix.Matrix
	Engine      *dispatch.Engine
	Vault       *vault.Vault
	Credentials *store.CredentialStore
	Publisher   *export.S3Publisher // nil disables S3 publishing
}

type Server struct {
	router chi.Router
	logger zerolog.Logger
	pool   *pgxpool.Pool
	cfg    *config.Config
	deps   Deps
}

func NewServer(logger zerolog.Logger, pool *pgxpool.Pool, cfg *config.Config, deps Deps) *Server {
	s := &Server{
		router: chi.NewRouter(),
		logger: logger,
		pool:   pool,
		cfg:    cfg,
		deps:   deps,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(mw.RequestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(mw.Metrics)
}

func (s *Server) setupRoutes() {
	// Prometheus metrics endpoint
	s.router.Handle("/metrics", promhttp.Handler())

	// Health check endpoints
	s.router.Get("/healthz", s.handleHealthz)
	s.router.Get("/readyz", s.handleReadyz)

	s.router.Route("/api/v1", func(r chi.Router) {
		// Deployment matrix
		mat := handler.NewMatrix(s.deps.Matrix)
		r.Get("/matrix", mat.Snapshot)
		r.Get("/deployments/{node}/{provider}", mat.GetCell)

		// Dispatch
		deployment := handler.NewDeployment(s.deps.Engine)
		r.Post("/deployments", deployment.Create)

		// Credentials
		credential := handler.NewCredential(s.deps.Credentials, s.deps.Vault)
		r.Get("/credentials/status", credential.Status)
		r.Put("/credentials/{provider}", credential.Put)
		r.Delete("/credentials/{provider}", credential.Delete)
		r.Post("/credentials/bundle", credential.Bundle)

		// Export
		var publisher handler.Publisher
		if s.deps.Publisher != nil {
			publisher = s.deps.Publisher
		}
		exportHandler := handler.NewExport(s.deps.Matrix, s.deps.Credentials, publisher)
		r.Post("/export", exportHandler.Create)
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := map[string]string{}
	healthy := true

	if err := s.pool.Ping(ctx); err != nil {
		checks["db"] = err.Error()
		healthy = false
	} else {
		checks["db"] = "ok"
	}

	w.Header().Set("Content-Type", "application/json")
	if healthy {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(checks)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
