// Package main runs the booking platform HTTP server with WebSocket and graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/aura-booking/backend/config"
	"github.com/aura-booking/backend/internal/analytics"
	"github.com/aura-booking/backend/internal/appointments"
	"github.com/aura-booking/backend/internal/assistant"
	"github.com/aura-booking/backend/internal/auth"
	"github.com/aura-booking/backend/internal/billing"
	"github.com/aura-booking/backend/internal/customers"
	"github.com/aura-booking/backend/internal/messaging"
	"github.com/aura-booking/backend/internal/middleware"
	"github.com/aura-booking/backend/internal/organizations"
	"github.com/aura-booking/backend/internal/realtime"
	"github.com/aura-booking/backend/internal/services"
	"github.com/aura-booking/backend/internal/staff"
	"github.com/aura-booking/backend/pkg/database"
	"github.com/aura-booking/backend/pkg/queue"
	"github.com/aura-booking/backend/pkg/redis"
	"github.com/aura-booking/backend/pkg/response"
	"github.com/aura-booking/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	var s3Client *storage.S3
	if cfg.AWS.Region != "" {
		s3Cfg := storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			MediaBucket:          cfg.AWS.MediaBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}
		s3Client, err = storage.NewS3(ctx, s3Cfg, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
		}
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	redisPubSub := realtime.NewRedisPubSub(rdb.Client, logger)
	hub := realtime.NewHub(logger, redisPubSub, redisPubSub)
	jobQueue := queue.NewQueue(rdb.Client, logger)

	// Auth
	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, jwtService, logger)

	// Organizations
	orgRepo := organizations.NewRepository(pool, rdb.Client, logger)
	orgHandler := organizations.NewHandler(orgRepo, s3Client)

	// Customers
	customerRepo := customers.NewRepository(pool)
	customerHandler := customers.NewHandler(customerRepo)

	// Services
	serviceRepo := services.NewRepository(pool)
	serviceHandler := services.NewHandler(serviceRepo, s3Client)

	// Staff
	staffRepo := staff.NewRepository(pool)
	staffHandler := staff.NewHandler(staffRepo)

	// Appointments + public booking
	apptRepo := appointments.NewRepository(pool)
	apptHandler := appointments.NewHandler(apptRepo, serviceRepo, staffRepo, customerRepo, hub, jobQueue, logger)
	bookingHandler := appointments.NewPublicHandler(apptRepo, orgRepo, customerRepo, serviceRepo, staffRepo, hub, jobQueue, logger)

	// Billing
	billingRepo := billing.NewRepository(pool)
	billingHandler := billing.NewHandler(billingRepo, cfg.Stripe, logger)

	// Messaging log
	messageRepo := messaging.NewRepository(pool)
	messageHandler := messaging.NewHandler(messageRepo)

	// Analytics
	analyticsRepo := analytics.NewRepository(pool)
	analyticsHandler := analytics.NewHandler(analyticsRepo)

	// Assistant
	var assistantProvider assistant.Provider
	if cfg.Gemini.APIKey != "" {
		gemini, err := assistant.NewGeminiProvider(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model)
		if err != nil {
			logger.Warn("assistant disabled", zap.Error(err))
		} else {
			defer gemini.Close()
			assistantProvider = gemini
		}
	}
	assistantHandler := assistant.NewHandler(assistantProvider, analyticsRepo, orgRepo, logger)

	wsAuthenticate := func(token string) (realtime.Identity, error) {
		claims, err := jwtService.Validate(token)
		if err != nil {
			return realtime.Identity{}, err
		}
		return realtime.Identity{
			UserID:         claims.UserID,
			Email:          claims.Email,
			Role:           claims.Role,
			OrganizationID: claims.OrganizationID,
		}, nil
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Auth (public, rate limited)
	authGroup := router.Group("/auth")
	authGroup.Use(middleware.RateLimit(rdb.Client, cfg.RateLimit.AuthRate, "auth", logger))
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
	}

	// Public booking page (no JWT)
	router.GET("/book/:slug", bookingHandler.GetPage)
	router.POST("/book/:slug", bookingHandler.Book)

	// Stripe webhooks (no JWT; signature verified in the handler)
	router.POST("/webhooks/stripe", billingHandler.Webhook)

	// Protected API (JWT required)
	api := router.Group("")
	api.Use(middleware.JWT(jwtService))
	{
		// Users
		api.GET("/users", middleware.RequireRole("admin", "manager"), authHandler.List)
		api.POST("/users", middleware.RequireRole("admin"), authHandler.CreateMember)

		// Organization profile and notification settings
		api.GET("/organization", orgHandler.Get)
		api.PATCH("/organization", middleware.RequireRole("admin"), orgHandler.Update)
		api.GET("/organization/settings", orgHandler.GetSettings)
		api.PUT("/organization/settings", middleware.RequireRole("admin"), orgHandler.UpdateSettings)
		api.POST("/organization/logo/upload-url", middleware.RequireRole("admin"), orgHandler.GenerateLogoUploadURL)

		// Customers
		api.POST("/customers", customerHandler.Create)
		api.GET("/customers", customerHandler.List)
		api.GET("/customers/:id", customerHandler.GetByID)
		api.PATCH("/customers/:id", customerHandler.Update)
		api.DELETE("/customers/:id", middleware.RequireRole("admin", "manager"), customerHandler.Delete)

		// Services
		api.POST("/services", middleware.RequireRole("admin", "manager"), serviceHandler.Create)
		api.GET("/services", serviceHandler.List)
		api.GET("/services/:id", serviceHandler.GetByID)
		api.PATCH("/services/:id", middleware.RequireRole("admin", "manager"), serviceHandler.Update)
		api.DELETE("/services/:id", middleware.RequireRole("admin", "manager"), serviceHandler.Delete)
		api.POST("/services/:id/image/upload-url", middleware.RequireRole("admin", "manager"), serviceHandler.GenerateImageUploadURL)

		// Staff
		api.POST("/staff", middleware.RequireRole("admin", "manager"), staffHandler.Create)
		api.GET("/staff", staffHandler.List)
		api.GET("/staff/:id", staffHandler.GetByID)
		api.PATCH("/staff/:id", middleware.RequireRole("admin", "manager"), staffHandler.Update)
		api.DELETE("/staff/:id", middleware.RequireRole("admin", "manager"), staffHandler.Delete)

		// Appointments
		api.POST("/appointments", apptHandler.Create)
		api.GET("/appointments", apptHandler.List)
		api.GET("/appointments/:id", apptHandler.GetByID)
		api.PATCH("/appointments/:id", apptHandler.Update)
		api.POST("/appointments/:id/cancel", apptHandler.Cancel)
		api.DELETE("/appointments/:id", middleware.RequireRole("admin", "manager"), apptHandler.Delete)

		// Billing
		api.GET("/billing/subscription", billingHandler.GetSubscription)
		api.POST("/billing/checkout", middleware.RequireRole("admin"), billingHandler.CreateCheckout)
		api.GET("/billing/payments", middleware.RequireRole("admin"), billingHandler.ListPayments)

		// Message log
		api.GET("/messages", messageHandler.List)

		// Analytics
		api.GET("/analytics/summary", analyticsHandler.GetSummary)

		// Assistant (rate limited per the provider's quota)
		api.POST("/assistant/chat",
			middleware.RateLimit(rdb.Client, cfg.RateLimit.AssistantRate, "assistant", logger),
			assistantHandler.Chat)
	}

	// WebSocket (token in query; no Authorization header required)
	router.GET("/ws", realtime.ServeWs(hub, logger, wsAuthenticate))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
