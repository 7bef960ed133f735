package server

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/hudeditor/hudstore/docs"
	httpHandlers "github.com/hudeditor/hudstore/internal/adapters/http"
	"github.com/hudeditor/hudstore/internal/application/services"
	"github.com/hudeditor/hudstore/internal/infrastructure/config"
	"github.com/hudeditor/hudstore/internal/infrastructure/logger"
	"github.com/hudeditor/hudstore/internal/ports"
)

// Server represents the HTTP server
type Server struct {
	echo            *echo.Echo
	config          *config.Config
	logger          *logger.Logger
	repo            ports.DocumentRepository
	documentService ports.DocumentService
}

// New creates a new server instance. registry may be nil when metrics are disabled.
func New(cfg *config.Config, repo ports.DocumentRepository, registry *prometheus.Registry, appLogger *logger.Logger) (*Server, error) {
	e := echo.New()

	// Set custom validator
	e.Validator = httpHandlers.NewRequestValidator()

	// Configure Echo
	e.HideBanner = true
	e.HidePort = true
	e.Debug = cfg.App.Debug && cfg.App.IsDevelopment()
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout
	e.Server.IdleTimeout = cfg.Server.IdleTimeout

	// Custom error handler
	e.HTTPErrorHandler = customErrorHandler(appLogger, e.Debug)

	// Initialize services
	documentService := services.NewDocumentService(repo, appLogger.WithComponent("documents"))

	// Initialize handlers
	documentHandler := httpHandlers.NewDocumentHandler(documentService, appLogger)
	staticHandler := httpHandlers.NewStaticHandler(cfg.Static.Dir, cfg.Static.Index)

	server := &Server{
		echo:            e,
		config:          cfg,
		logger:          appLogger,
		repo:            repo,
		documentService: documentService,
	}

	// Setup middleware
	server.setupMiddleware()

	// Setup metrics
	if cfg.Metrics.Enabled && registry != nil {
		server.setupMetrics(registry)
	}

	// Setup routes
	server.setupRoutes(documentHandler, staticHandler)

	return server, nil
}

// setupRoutes configures all routes
func (s *Server) setupRoutes(documentHandler *httpHandlers.DocumentHandler, staticHandler *httpHandlers.StaticHandler) {
	// Health check routes
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/health/detailed", s.detailedHealthCheck)
	s.echo.GET("/ready", s.readinessCheck)

	// Swagger documentation
	s.echo.GET("/docs/*", echoSwagger.WrapHandler)

	// Editor front end
	staticHandler.Register(s.echo)

	// Document routes
	s.echo.POST("/save", documentHandler.Save)
	s.echo.GET("/load", documentHandler.Load)
}

// Health check handlers
func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) detailedHealthCheck(c echo.Context) error {
	status := "ok"
	checks := make(map[string]interface{})

	// Storage health check
	if err := s.documentService.Ready(c.Request().Context()); err != nil {
		status = "error"
		checks["storage"] = map[string]interface{}{
			"status":  "error",
			"backend": s.config.Storage.Backend,
			"error":   err.Error(),
		}
	} else {
		storage := map[string]interface{}{
			"status":  "ok",
			"backend": s.config.Storage.Backend,
		}
		if sp, ok := s.repo.(ports.StatsProvider); ok {
			if stats := sp.Stats(); stats != nil {
				storage["stats"] = stats
			}
		}
		checks["storage"] = storage
	}

	response := map[string]interface{}{
		"status": status,
		"time":   time.Now().UTC().Format(time.RFC3339),
		"checks": checks,
		"version": map[string]string{
			"app": s.config.App.Version,
			"go":  runtime.Version(),
		},
	}

	if status == "ok" {
		return c.JSON(http.StatusOK, response)
	}
	return c.JSON(http.StatusServiceUnavailable, response)
}

func (s *Server) readinessCheck(c echo.Context) error {
	if err := s.documentService.Ready(c.Request().Context()); err != nil {
		s.logger.Warnw("Storage not ready", "error", err)
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "not_ready",
			"reason": "storage_not_ready",
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "ready",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	address := s.config.Server.GetAddr()
	s.logger.Infow("Starting server", "address", address, "storage", s.config.Storage.Backend)
	return s.echo.Start(address)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Infow("Shutting down server")
	return s.echo.Shutdown(ctx)
}

// ServeHTTP lets the server be driven directly, mainly from tests
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}
