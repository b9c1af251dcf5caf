package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"creatorhub_backend/database"
	"creatorhub_backend/internal/auth"
	"creatorhub_backend/internal/config"
	"creatorhub_backend/internal/email"
	"creatorhub_backend/internal/handlers"
	"creatorhub_backend/internal/imageprocessor"
	"creatorhub_backend/internal/logger"
	"creatorhub_backend/internal/middleware"
	"creatorhub_backend/internal/models"
	"creatorhub_backend/internal/payments"
	"creatorhub_backend/internal/repositories"
	"creatorhub_backend/internal/routes"
	"creatorhub_backend/internal/services"
	"creatorhub_backend/internal/storage"
	"creatorhub_backend/internal/validator"
	"creatorhub_backend/internal/workers"
	"creatorhub_backend/pkg/apperrors"
	"creatorhub_backend/ws"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

func Run() {
	cfg, gormDB := bootstrap()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := seedFirstAdmin(ctx, gormDB, cfg); err != nil {
		// Если не удалось создать админа - не запускаем сервер
		logger.Fatal("Failed to seed first admin user", "error", err)
	}

	wsManager := ws.NewWebSocketManager()
	go wsManager.Run(ctx)

	container, store, err := NewServiceContainer(cfg, wsManager)
	if err != nil {
		logger.Fatal("Failed to initialize services", "error", err)
	}

	if cfg.Workers.ExpirySweepEnabled {
		runner := workers.NewRunner(gormDB, workers.NewLocalJobLock())
		workers.NewSubscriptionWorker(runner, container.SubscriptionService, cfg.ExpirySweepInterval()).Start(ctx)
		logger.Info("Subscription expiry worker started", "interval", cfg.ExpirySweepInterval().String())
	}

	ginRouter := SetupRouter(cfg, gormDB, container, store, ws.NewWebSocketHandler(wsManager))

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:              address,
		Handler:           ginRouter,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server starting", "address", address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server startup error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}
	logger.Info("Server exited")
}

// bootstrap: конфиг, логгер, JWT, БД и миграции. Общая часть web и cron.
func bootstrap() (*config.Config, *gorm.DB) {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger.Init(cfg.Server.Env)
	logger.Info("Logger initialized", "env", cfg.Server.Env)
	apperrors.SetDebug(!cfg.IsProduction())
	auth.Configure(cfg.JWT.Secret, cfg.TokenTTL())

	logger.Info("Connecting to database...", "driver", cfg.Database.Driver)
	gormDB, err := database.Open(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	logger.Info("Database connected")

	if cfg.Database.AutoMigrate {
		if err := database.AutoMigrate(gormDB); err != nil {
			logger.Fatal("Failed to migrate database", "error", err)
		}
	}
	return cfg, gormDB
}

// NewServiceContainer собирает внешние зависимости и сервисы. pusher may be nil.
func NewServiceContainer(cfg *config.Config, pusher services.Pusher) (*services.ServiceContainer, storage.Storage, error) {
	store, err := storage.NewStorage(storage.ConfigFrom(cfg))
	if err != nil {
		return nil, nil, fmt.Errorf("storage: %w", err)
	}
	logger.Info("Storage initialized", "type", cfg.Storage.Type)

	mailer, err := email.NewProvider(email.ConfigFrom(cfg))
	if err != nil {
		return nil, nil, fmt.Errorf("email: %w", err)
	}
	if _, noop := mailer.(email.NoopProvider); noop {
		logger.Warn("SMTP is not configured, emails are disabled")
	}

	gateway, err := payments.NewGateway(cfg.Payments)
	if err != nil {
		return nil, nil, fmt.Errorf("payments: %w", err)
	}
	logger.Info("Payment gateway initialized", "provider", gateway.Name())

	deps := services.Dependencies{
		Storage:   store,
		Processor: imageprocessor.NewProcessor(cfg.Upload.ImageQuality),
		Gateway:   gateway,
		Mailer:    mailer,
		Content: services.ContentConfig{
			MaxUploadSize: cfg.Upload.MaxSize,
			AllowedTypes:  cfg.Upload.AllowedTypes,
			SignedURLTTL:  cfg.SignedURLTTL(),
		},
	}
	if pusher != nil {
		deps.Pusher = pusher
	}

	return services.NewServiceContainer(services.NewRepositories(), deps), store, nil
}

func SetupRouter(cfg *config.Config, gormDB *gorm.DB, container *services.ServiceContainer, store storage.Storage, wsHandler *ws.WebSocketHandler) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	appHandlers := initializeHandlers(container, store)
	ginRouter := initializeGinRouter(cfg, gormDB)
	routes.RegisterRoutes(ginRouter, appHandlers, wsHandler)
	return ginRouter
}

func initializeHandlers(container *services.ServiceContainer, store storage.Storage) *handlers.AppHandlers {
	baseHandler := handlers.NewBaseHandler(validator.New())

	appHandlers := &handlers.AppHandlers{
		AuthHandler:         handlers.NewAuthHandler(baseHandler, container.AuthService),
		ContentHandler:      handlers.NewContentHandler(baseHandler, container.ContentService),
		SubscriptionHandler: handlers.NewSubscriptionHandler(baseHandler, container.SubscriptionService, container.PaymentService),
		NotificationHandler: handlers.NewNotificationHandler(baseHandler, container.NotificationService),
		AdminHandler:        handlers.NewAdminHandler(baseHandler, container.SubscriptionService, container.NotificationService),
	}
	if local, ok := store.(*storage.LocalStorage); ok {
		appHandlers.FileHandler = handlers.NewFileHandler(baseHandler, local)
	}
	return appHandlers
}

func initializeGinRouter(cfg *config.Config, db *gorm.DB) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.CORSMiddleware(cfg.Server.CORSOrigins))
	router.Use(middleware.TimeoutMiddleware(cfg.RequestTimeout()))
	router.Use(middleware.DBMiddleware(db))
	return router
}

// seedFirstAdmin создаёт администратора из конфига, если его ещё нет.
func seedFirstAdmin(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	adminEmail := cfg.FirstAdmin.Email
	adminPassword := cfg.FirstAdmin.Password

	if adminEmail == "" || adminPassword == "" {
		logger.Warn("FIRST_ADMIN_EMAIL or FIRST_ADMIN_PASSWORD is not set. Skipping admin seeding.")
		return nil
	}

	userRepo := repositories.NewUserRepository()
	tx := db.WithContext(ctx)

	_, err := userRepo.FindByEmail(tx, adminEmail)
	if err == nil {
		logger.Info("Admin user already exists. Skipping creation.", "email", adminEmail)
		return nil
	}
	if !errors.Is(err, repositories.ErrUserNotFound) {
		return fmt.Errorf("failed to check for admin user: %w", err)
	}

	hashedPassword, err := auth.HashPassword(adminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin := &models.User{
		Email:        adminEmail,
		PasswordHash: hashedPassword,
		DisplayName:  "Administrator",
		Role:         models.UserRoleAdmin,
	}
	if err := userRepo.Create(tx, admin); err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	logger.Info("Created first admin user", "email", adminEmail)
	return nil
}
