// Package http exposes the read-only incident API alongside health,
// readiness, and metrics endpoints.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/poamaps/incident-etl/internal/config"
	"github.com/poamaps/incident-etl/internal/domain"
	"github.com/poamaps/incident-etl/internal/store"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	Ping(ctx context.Context) error
}

// Server serves the incident map API.
type Server struct {
	httpServer *http.Server
	incidents  store.IncidentStore
	metrics    store.MetricStore
	ready      ReadinessChecker
	logger     *slog.Logger
}

// NewServer creates the HTTP server and registers all routes. The /api group
// is rate-limited; operational endpoints are not.
func NewServer(cfg *config.Config, incidents store.IncidentStore, metrics store.MetricStore, ready ReadinessChecker, logger *slog.Logger) *Server {
	s := &Server{
		incidents: incidents,
		metrics:   metrics,
		ready:     ready,
		logger:    logger,
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", s.handleHealth)
	r.GET("/readyz", s.handleReady)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api", RateLimitMiddleware(cfg.APIRateLimit))
	api.GET("/incidents", s.handleIncidents)
	api.GET("/incidents.geojson", s.handleIncidentsGeoJSON)
	api.GET("/incident-metrics", s.handleIncidentMetrics)

	s.httpServer = &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
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

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (s *Server) handleReady(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := s.ready.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

func (s *Server) handleIncidents(c *gin.Context) {
	incidents, err := s.incidents.FindAll(c.Request.Context())
	if err != nil {
		s.logger.Error("list incidents failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch incidents"})
		return
	}
	if incidents == nil {
		incidents = []domain.Incident{}
	}
	c.JSON(http.StatusOK, gin.H{"incidents": incidents, "count": len(incidents)})
}

func (s *Server) handleIncidentsGeoJSON(c *gin.Context) {
	incidents, err := s.incidents.FindAll(c.Request.Context())
	if err != nil {
		s.logger.Error("list incidents failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch incidents"})
		return
	}
	c.Header("Content-Type", "application/geo+json")
	c.JSON(http.StatusOK, toGeoJSON(incidents))
}

func (s *Server) handleIncidentMetrics(c *gin.Context) {
	metrics, err := s.metrics.ListMetrics(c.Request.Context())
	if err != nil {
		s.logger.Error("list metrics failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch metrics"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"metrics": metrics, "count": len(metrics)})
}
