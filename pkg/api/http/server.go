package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aescanero/genflow/internal/application/graph"
	"github.com/aescanero/genflow/internal/application/orchestrator"
	"github.com/aescanero/genflow/internal/application/settings"
	"github.com/aescanero/genflow/internal/application/workers"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server represents the HTTP API server
type Server struct {
	router       *gin.Engine
	server       *http.Server
	store        *graph.Store
	orchestrator *orchestrator.Manager
	settings     *settings.Service
	health       *workers.HealthMonitor
	logger       *zap.Logger
}

// Config holds HTTP server configuration
type Config struct {
	Port         int
	Store        *graph.Store
	Orchestrator *orchestrator.Manager
	Settings     *settings.Service
	Health       *workers.HealthMonitor
	// Gatherer backs /metrics; nil uses the default registry
	Gatherer prometheus.Gatherer
	Logger   *zap.Logger
}

// NewServer creates a new HTTP server
func NewServer(cfg *Config) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(cfg.Logger))
	router.Use(corsMiddleware())

	s := &Server{
		router:       router,
		store:        cfg.Store,
		orchestrator: cfg.Orchestrator,
		settings:     cfg.Settings,
		health:       cfg.Health,
		logger:       cfg.Logger,
	}

	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	s.setupRoutes(gatherer)

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// setupRoutes configures API routes
func (s *Server) setupRoutes(gatherer prometheus.Gatherer) {
	// Health check
	s.router.GET("/health", s.handleHealth)

	// Metrics
	s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	v1 := s.router.Group("/api/v1")
	{
		// Whole graph
		v1.GET("/graph", s.handleGetGraph)
		v1.PUT("/graph", s.handleImportGraph)

		// Nodes
		v1.POST("/nodes", s.handleAddNode)
		v1.POST("/nodes/changes", s.handleNodeChanges)
		v1.GET("/nodes/:id", s.handleGetNode)
		v1.PATCH("/nodes/:id/data", s.handlePatchNode)
		v1.DELETE("/nodes/:id", s.handleDeleteNode)
		v1.GET("/nodes/:id/inputs", s.handleGetInputs)
		v1.GET("/nodes/:id/view", s.handleGetView)
		v1.GET("/nodes/:id/state", s.handleGetState)
		v1.POST("/nodes/:id/run", s.handleRunNode)
		v1.POST("/nodes/:id/cancel", s.handleCancelRun)

		// Edges
		v1.POST("/edges", s.handleAddEdge)
		v1.POST("/edges/changes", s.handleEdgeChanges)
		v1.DELETE("/edges/:id", s.handleDeleteEdge)

		// Palette and catalogue
		v1.POST("/palette/:kind", s.handlePalette)
		v1.GET("/models", s.handleListModels)
		v1.GET("/models/:category", s.handleListModels)

		// Settings
		v1.GET("/settings", s.handleGetSettings)
		v1.PUT("/settings/api-key", s.handleSetAPIKey)
		v1.DELETE("/settings/api-key", s.handleClearAPIKey)
	}
}

// SetupWebSocket adds the graph stream handler to the server
func (s *Server) SetupWebSocket(handler interface {
	HandleGraphStream(*gin.Context)
}) {
	s.router.GET("/api/v1/graph/ws", handler.HandleGraphStream)
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	s.logger.Info("HTTP server shut down complete")
	return nil
}
