// File: internal/app/server.go
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"minitorque_web/internal/auth"
	"minitorque_web/internal/common"
	"minitorque_web/internal/config"
	"minitorque_web/internal/jobs"
	"minitorque_web/internal/middleware"
	"minitorque_web/internal/platform/metrics"
	"minitorque_web/internal/profile"
	"minitorque_web/internal/session"
	"minitorque_web/internal/web"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Server struct holds the dependencies for the HTTP server.
type Server struct {
	httpServer *http.Server
	router     *gin.Engine
	cfg        *config.Config
	logger     *zap.Logger

	sessions        *session.Provider
	revalidationJob *jobs.SessionRevalidationJob
}

// NewServer creates a new instance of our application server.
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	authHandler *auth.Handler,
	profileHandler *profile.Handler,
	webHandler *web.Handler,
	sessions *session.Provider,
	cookies *session.Cookies,
	revalidationJob *jobs.SessionRevalidationJob,
	collector *metrics.Collector,
	registry *prometheus.Registry,
) (*Server, error) {
	gin.SetMode(cfg.GinMode)
	router := gin.New()

	tpl, err := web.LoadTemplates()
	if err != nil {
		return nil, fmt.Errorf("failed to parse view templates: %w", err)
	}
	router.SetHTMLTemplate(tpl)

	// --- Global Middleware ---
	router.Use(middleware.ZapLogger(logger, cfg))
	router.Use(middleware.ErrorHandler(logger))
	router.Use(gin.Recovery())
	if cfg.MetricsEnabled {
		router.Use(middleware.RequestMetrics(collector))
		if err := collector.RegisterActiveSessions(sessions.Count); err != nil {
			return nil, fmt.Errorf("failed to register session gauge: %w", err)
		}
	}

	sessionMW := middleware.SessionMiddleware(sessions, cookies, logger.Named("SessionMiddleware"))

	// --- Setup Routes ---
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP", "message": "MiniTorque is healthy!"})
	})
	if cfg.MetricsEnabled {
		router.GET("/metrics", gin.WrapH(metrics.Handler(registry)))
	}

	// Server-rendered views
	views := router.Group("", middleware.SecureHeaders(cfg), sessionMW)
	webHandler.RegisterRoutes(views, middleware.RequireSession())

	// JSON API
	corsConfig := cors.DefaultConfig()
	if allowsAnyOrigin(cfg.CORSAllowedOrigins) {
		// Any origin may call the API, but never with the session cookies.
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	} else {
		corsConfig.AllowOrigins = cfg.CORSAllowedOrigins
		corsConfig.AllowCredentials = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", common.RequestIDHeader}
	corsConfig.ExposeHeaders = []string{"Content-Length", "Retry-After", common.RequestIDHeader}

	v1 := router.Group("/api/v1", cors.New(corsConfig), sessionMW)
	authHandler.RegisterRoutes(v1)
	profileHandler.RegisterRoutes(v1, middleware.RequireSessionAPI())

	addr := fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer:      httpServer,
		router:          router,
		cfg:             cfg,
		logger:          logger,
		sessions:        sessions,
		revalidationJob: revalidationJob,
	}, nil
}

func allowsAnyOrigin(origins []string) bool {
	if len(origins) == 0 {
		return true
	}
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}

// Router exposes the configured handler, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start subscribes the session provider, starts the revalidation job and serves HTTP
// until Shutdown is called.
func (s *Server) Start() error {
	if err := s.sessions.Start(); err != nil {
		return fmt.Errorf("failed to start session provider: %w", err)
	}

	if s.revalidationJob != nil {
		if err := s.revalidationJob.SetupAndStart(); err != nil {
			s.logger.Error("Failed to setup and start session revalidation job", zap.Error(err))
		}
	} else {
		s.logger.Info("Session revalidation job is not configured, skipping start.")
	}

	s.logger.Info("HTTP Server starting",
		zap.String("address", s.httpServer.Addr),
		zap.String("gin_mode", s.cfg.GinMode),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.logger.Error("Failed to start HTTP server", zap.Error(err))
		return err
	}
	s.logger.Info("HTTP Server stopped gracefully or an error occurred")
	return nil
}

// Shutdown stops accepting requests, then stops the job and the session subscription.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Attempting graceful server shutdown...")
	err := s.httpServer.Shutdown(ctx)
	if s.revalidationJob != nil {
		s.revalidationJob.Stop()
	}
	s.sessions.Close()
	return err
}
