// Package server exposes the contexture operations over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/contexture-ai/contexture"
	"github.com/contexture-ai/contexture/pkg/config"
	"github.com/contexture-ai/contexture/pkg/server/handlers"
)

// Server wraps the gin engine and its HTTP listener.
type Server struct {
	cfg    *config.Config
	svc    contexture.Contexture
	engine *gin.Engine
	http   *http.Server
}

// New creates a server for the given service.
func New(cfg *config.Config, svc contexture.Contexture) *Server {
	return &Server{cfg: cfg, svc: svc}
}

// Setup configures routes and middleware.
func (s *Server) Setup() {
	gin.SetMode(s.cfg.Server.Mode)
	s.engine = gin.New()
	s.engine.Use(gin.Logger(), gin.Recovery())

	health := handlers.NewHealthHandler()
	contexts := handlers.NewContextHandler(s.svc)
	graph := handlers.NewGraphHandler(s.svc)

	s.engine.GET("/health", health.HealthCheck)

	api := s.engine.Group("/api/v1")
	{
		api.POST("/contexts/normalize", contexts.Normalize)
		api.POST("/similarity", contexts.Similarity)
		api.GET("/contexts", contexts.Load)

		api.POST("/graph/context", graph.BuildContextGraph)
		api.POST("/graph/decision", graph.BuildDecisionGraph)
		api.POST("/graph/import", graph.Import)
		api.POST("/graph/store", graph.Store)
		api.GET("/graph", graph.Fetch)
	}

	s.http = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port),
		Handler:      s.engine,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}
}

// Start blocks serving HTTP until the listener fails or Stop is
// called.
func (s *Server) Start() error {
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop shuts the listener down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
