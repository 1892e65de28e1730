package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fixit-server/config"
	deliveryHttp "fixit-server/internal/delivery/http"
	"fixit-server/internal/delivery/http/handler"
	"fixit-server/internal/delivery/http/middleware"
	"fixit-server/internal/gateway/googleauth"
	"fixit-server/internal/gateway/mailer"
	"fixit-server/internal/gateway/storage"
	"fixit-server/internal/gateway/whatsapp"
	"fixit-server/internal/infrastructure/cache"
	"fixit-server/internal/infrastructure/database"
	"fixit-server/internal/repository"
	"fixit-server/internal/service"
	"fixit-server/internal/usecase"
	"fixit-server/pkg/jwt"
	"fixit-server/pkg/validator"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// App holds all dependencies for the application
type App struct {
	Config      *config.Config
	DB          *gorm.DB
	RedisClient *redis.Client
	Server      *http.Server
}

// New creates a new App instance with all dependencies initialized
func New() (*App, error) {
	app := &App{}

	setupLogger()

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	app.Config = cfg
	logrus.Info("Configuration loaded successfully")

	db, err := database.NewPostgresConnection(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	app.DB = db
	logrus.Info("Database connected successfully")

	if err := database.RunMigrations(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	logrus.Info("Database migrations applied")

	redisClient, err := cache.NewRedisClient(cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	app.RedisClient = redisClient
	logrus.Info("Redis connected successfully")

	server, err := initializeServer(cfg, db, redisClient)
	if err != nil {
		return nil, err
	}
	app.Server = server

	return app, nil
}

// setupLogger configures the logrus logger
func setupLogger() {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetOutput(os.Stdout)
	logrus.SetLevel(logrus.InfoLevel)
}

// initializeServer wires every layer and returns the HTTP server
func initializeServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*http.Server, error) {
	log := logrus.StandardLogger()

	jwtService := jwt.NewJWTService(cfg.JWT)
	customValidator := validator.NewValidator()

	// Repositories
	userRepo := repository.NewUserRepository()
	adminRepo := repository.NewAdminRepository()
	providerRepo := repository.NewProviderRepository()
	bookingRepo := repository.NewBookingRepository()
	eventRepo := repository.NewBookingEventRepository()

	// Gateways
	whatsappGateway := whatsapp.NewGateway(whatsapp.NewTwilioSender(cfg.Twilio), cfg.Twilio.WhatsAppFrom, log)
	webhookValidator := whatsapp.NewWebhookValidator(cfg.Twilio, cfg.App.PublicURL)
	mailSender := mailer.New(cfg.SMTP)
	googleVerifier := googleauth.NewVerifier(cfg.Google)

	cloudinaryStorage, err := storage.NewCloudinary(cfg.Cloudinary)
	if err != nil {
		return nil, fmt.Errorf("failed to init storage: %w", err)
	}

	// Services
	otpService := service.NewOTPService(redisClient, log)
	auditor := service.NewAuditService(log, eventRepo)

	// Usecases
	authUsecase := usecase.NewAuthUsecase(db, log, userRepo, jwtService, redisClient, googleVerifier, otpService, mailSender, cloudinaryStorage)
	providerUsecase := usecase.NewProviderUsecase(db, log, providerRepo, cloudinaryStorage, otpService, mailSender)
	bookingUsecase := usecase.NewBookingUsecase(db, log, bookingRepo, providerRepo, eventRepo, auditor, whatsappGateway)
	adminUsecase := usecase.NewAdminUsecase(db, log, cfg.Admin, adminRepo, providerRepo, jwtService, redisClient, otpService, mailSender)

	// Handlers
	authHandler := handler.NewAuthHandler(authUsecase, customValidator)
	bookingHandler := handler.NewBookingHandler(bookingUsecase, customValidator)
	providerHandler := handler.NewProviderHandler(providerUsecase, customValidator)
	adminHandler := handler.NewAdminHandler(adminUsecase, bookingUsecase, customValidator)
	webhookHandler := handler.NewWebhookHandler(bookingUsecase, providerUsecase, webhookValidator, log)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(jwtService, redisClient)
	corsMiddleware := middleware.NewCORSMiddleware()

	router := deliveryHttp.NewRouter(authHandler, bookingHandler, providerHandler, adminHandler, webhookHandler, authMiddleware, corsMiddleware)
	httpRouter := router.Setup()

	serverAddr := fmt.Sprintf(":%s", cfg.App.Port)
	return &http.Server{
		Addr:    serverAddr,
		Handler: httpRouter,
	}, nil
}

// Run starts the HTTP server and handles graceful shutdown
func (app *App) Run() {
	go func() {
		logrus.Infof("Server starting on port %s", app.Config.App.Port)
		logrus.Infof("Environment: %s", app.Config.App.Env)
		if err := app.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	app.waitForShutdown()
}

// waitForShutdown blocks until an interrupt signal is received
func (app *App) waitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.Server.Shutdown(ctx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	app.Close()

	logrus.Info("Server shutdown complete")
}

// Close closes all connections (database, redis, etc.)
func (app *App) Close() {
	if app.DB != nil {
		sqlDB, err := app.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}

	if app.RedisClient != nil {
		app.RedisClient.Close()
	}
}
