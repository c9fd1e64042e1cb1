// Package clusterapi exposes the accelerated k-means engine over HTTP,
// in the same Config/NewServer/withMiddleware shape as pkg/api/rest.
package clusterapi

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/hamerlykmeans/vector/pkg/api/rest/middleware"
)

// Config holds the clustering HTTP server configuration.
type Config struct {
	Host      string
	Port      int
	Auth      middleware.AuthConfig
	RateLimit middleware.RateLimitConfig
}

// Server is the standalone clustering HTTP server. Unlike pkg/api/rest it
// does not proxy a gRPC client: kmeans.SimpleKMeans runs in-process.
type Server struct {
	config     Config
	handler    *Handler
	httpServer *http.Server
	mux        *http.ServeMux
}

// NewServer creates a new clustering API server.
func NewServer(config Config) *Server {
	server := &Server{
		config:  config,
		handler: NewHandler(),
		mux:     http.NewServeMux(),
	}

	server.setupRoutes()

	server.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      server.withMiddleware(server.mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return server
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/v1/cluster", s.handler.Cluster)
	s.mux.HandleFunc("/v1/cluster/seed", s.handler.Seed)
}

// withMiddleware wraps the handler with rate limiting and authentication,
// in the same order pkg/api/rest applies them.
func (s *Server) withMiddleware(handler http.Handler) http.Handler {
	rateLimiter := middleware.NewRateLimiter(s.config.RateLimit)
	handler = middleware.RateLimitMiddleware(rateLimiter)(handler)
	handler = middleware.AuthMiddleware(s.config.Auth)(handler)
	return handler
}

// Start starts the clustering HTTP server.
func (s *Server) Start() error {
	log.Printf("Starting clustering API server on %s:%d", s.config.Host, s.config.Port)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start clustering HTTP server: %w", err)
	}
	return nil
}

// Stop gracefully stops the server.
func (s *Server) Stop(ctx context.Context) error {
	log.Println("Shutting down clustering API server...")
	return s.httpServer.Shutdown(ctx)
}
