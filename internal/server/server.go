// Package server provides the HTTP API for niteru.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hyperjump/niteru/internal/config"
	"github.com/hyperjump/niteru/internal/vector"
	"go.uber.org/zap"
)

// Server is the HTTP server for the niteru API.
type Server struct {
	store  *vector.Store
	config *config.Config
	logger *zap.Logger
	server *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(store *vector.Store, cfg *config.Config, logger *zap.Logger) *Server {
	return &Server{
		store:  store,
		config: cfg,
		logger: logger,
	}
}

// Router builds the chi router with all API routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/vectors", s.handleUpsertVector)
	r.Get("/api/v1/vectors/{id}", s.handleGetVector)
	r.Delete("/api/v1/vectors/{id}", s.handleDeleteVector)
	r.Post("/api/v1/search", s.handleSearch)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	s.logger.Info("Starting server",
		zap.String("addr", addr),
		zap.Int("dimensions", s.store.Dimensions()),
	)
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
