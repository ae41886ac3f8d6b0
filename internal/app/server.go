// File: internal/app/server.go
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"therapylink_backend/internal/config"
	"therapylink_backend/internal/firebase"
	"therapylink_backend/internal/jobs"
	"therapylink_backend/internal/middleware"
	"therapylink_backend/internal/notification"
	"therapylink_backend/internal/onboarding"
	"therapylink_backend/internal/reconciler"
	"therapylink_backend/internal/therapist"
	"therapylink_backend/internal/user"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Server struct holds the dependencies for the HTTP server.
type Server struct {
	httpServer *http.Server
	router     *gin.Engine
	cfg        *config.Config
	logger     *zap.Logger

	reconcileJob *jobs.PaymentReconcileJob
}

// NewServer wires middleware and routes onto a gin engine.
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	identity firebase.IdentityProvider,
	userService *user.ServiceImplementation,
	userHandler *user.Handler,
	notificationHandler *notification.Handler,
	therapistHandler *therapist.Handler,
	onboardingHandler *onboarding.Handler,
	webhookHandler *reconciler.WebhookHandler,
	reconcileJob *jobs.PaymentReconcileJob,
) (*Server, error) {
	gin.SetMode(cfg.GinMode)
	router := gin.New()

	// --- Global Middleware ---
	router.Use(middleware.ZapLogger(logger, cfg))
	router.Use(middleware.ErrorHandler(logger))
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.AppURL}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader}
	corsConfig.AllowCredentials = true
	corsConfig.ExposeHeaders = []string{"Content-Length", middleware.RequestIDHeader}
	router.Use(cors.New(corsConfig))

	authMW := middleware.FirebaseAuthMiddleware(identity, userService, logger.Named("AuthMiddleware"))
	therapistMW := middleware.TherapistOnly()

	// --- Setup Routes ---
	router.GET("/health", healthHandler(db))

	if cfg.UploadBackend == "local" {
		router.Static("/uploads", cfg.LocalUploadPath)
	}

	v1 := router.Group("/api/v1")
	userHandler.RegisterRoutes(v1, authMW)
	notificationHandler.RegisterRoutes(v1, authMW)
	therapistHandler.RegisterRoutes(v1, authMW, therapistMW)
	onboardingHandler.RegisterRoutes(v1, authMW, therapistMW)
	// Webhooks authenticate by signature, not by user token.
	webhookHandler.RegisterRoutes(v1)

	addr := fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.ServerTimeout,
		WriteTimeout: cfg.ServerTimeout,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer:   httpServer,
		router:       router,
		cfg:          cfg,
		logger:       logger,
		reconcileJob: reconcileJob,
	}, nil
}

// healthHandler reports DOWN with 503 when the database does not answer.
func healthHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "DOWN", "database": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "UP", "message": "TherapyLink API is healthy!"})
	}
}

// Router exposes the engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) Start() error {
	if s.reconcileJob != nil {
		if err := s.reconcileJob.SetupAndStart(); err != nil {
			s.logger.Error("Failed to setup and start payment reconcile job", zap.Error(err))
		}
	}

	s.logger.Info("HTTP Server starting",
		zap.String("address", s.httpServer.Addr),
		zap.String("gin_mode", s.cfg.GinMode),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.logger.Error("Failed to start HTTP server", zap.Error(err))
		return err
	}
	s.logger.Info("HTTP Server stopped")
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Attempting graceful server shutdown...")
	if s.reconcileJob != nil {
		s.reconcileJob.Stop()
	}
	return s.httpServer.Shutdown(ctx)
}
