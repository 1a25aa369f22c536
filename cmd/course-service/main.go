package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"

	authMiddleware "github.com/coursecraft/backend/libs/auth/middleware"
	authService "github.com/coursecraft/backend/libs/auth/service"
	"github.com/coursecraft/backend/libs/config"
	"github.com/coursecraft/backend/libs/logger"
	loggerMiddleware "github.com/coursecraft/backend/libs/logger/middleware"
	sharedMiddleware "github.com/coursecraft/backend/libs/middlewares"

	_ "github.com/coursecraft/backend/docs"
	"github.com/coursecraft/backend/internal/clients/courseapi"
	"github.com/coursecraft/backend/internal/draft"
	"github.com/coursecraft/backend/internal/handlers"
	"github.com/coursecraft/backend/internal/services"
	"github.com/coursecraft/backend/internal/validation"
)

const maxRequestSize = 30 * 1024 * 1024 // 30MB for file uploads

// @title CourseCraft Authoring API
// @version 1.0
// @description API for composing, validating and submitting course drafts

// @contact.name API Support

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT access token issued by the auth service
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v\n", err)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v\n", err)
	}
	defer logger.Sync()

	logger.Logger.Info("Starting CourseCraft Authoring Service")

	// Initialize JWT token validator (for auth middleware)
	tokenValidator := authService.NewTokenValidator(cfg.JWT.Secret)

	// Initialize the course service client
	apiClient := courseapi.NewClient(cfg.CourseAPI.BaseURL, cfg.CourseAPI.APIKey, cfg.CourseAPI.Timeout, logger.Logger)

	// Initialize draft state
	store := draft.NewStore()
	stage := draft.NewBlobStage()
	engine := validation.NewEngine()

	// Initialize services
	draftService := services.NewDraftService(store, stage, engine, apiClient, logger.Logger)
	submitService := services.NewSubmitService(apiClient, store, stage, engine, logger.Logger)
	publishedService := services.NewPublishedService(apiClient, engine, logger.Logger)
	navigationService := services.NewNavigationService(apiClient, logger.Logger)

	// Initialize middleware
	authMw := authMiddleware.AuthMiddleware(tokenValidator)
	teacherMw := authMiddleware.RoleMiddleware(tokenValidator, authMiddleware.RoleTeacher)

	// Initialize handlers
	draftHandler := handlers.NewDraftHandler(draftService, logger.Logger)
	submitHandler := handlers.NewSubmitHandler(submitService, logger.Logger)
	publishedHandler := handlers.NewPublishedHandler(publishedService, logger.Logger)
	navigationHandler := handlers.NewNavigationHandler(navigationService, logger.Logger)

	// Setup router
	r := chi.NewRouter()

	// Apply middleware
	r.Use(sharedMiddleware.RequestIDMiddleware)
	r.Use(loggerMiddleware.LoggerMiddleware(logger.Logger))
	r.Use(sharedMiddleware.RecoveryMiddleware(logger.Logger))
	r.Use(sharedMiddleware.CORSMiddleware(cfg.CORS.AllowedOrigins))
	r.Use(httprate.LimitByIP(100, time.Minute))
	r.Use(sharedMiddleware.RequestSizeLimitMiddleware(maxRequestSize))

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(fmt.Sprintf("http://localhost:%d/swagger/doc.json", cfg.Server.Port)),
	))

	// Scope router to /api/v1
	r.Route("/api/v1", func(r chi.Router) {
		// Navigation reads require a signed-in user of any role
		r.Group(func(r chi.Router) {
			r.Use(authMw)
			navigationHandler.RegisterRoutes(r)
		})

		// Authoring endpoints require the teacher role
		r.Group(func(r chi.Router) {
			r.Use(authMw)
			r.Use(teacherMw)
			draftHandler.RegisterRoutes(r)
			submitHandler.RegisterRoutes(r)
			publishedHandler.RegisterRoutes(r)
		})
	})

	// Service-to-service surface, authenticated by the shared API key
	if cfg.APIKey != "" {
		r.Route("/internal", func(r chi.Router) {
			r.Use(authMiddleware.APIKeyMiddleware(cfg.APIKey))
			r.Get("/submissions/{draftID}", submitHandler.StatusInternal)
		})
	}

	// Start server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  30 * time.Second, // Longer timeout for file uploads
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Logger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Logger.Info("Server exited")
}
