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

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"refhub_backend/internal/auth"
	"refhub_backend/internal/config"
	"refhub_backend/internal/database"
	"refhub_backend/internal/email"
	"refhub_backend/internal/gateway"
	"refhub_backend/internal/handlers"
	"refhub_backend/internal/logger"
	"refhub_backend/internal/middleware"
	"refhub_backend/internal/models"
	"refhub_backend/internal/repositories"
	"refhub_backend/internal/routes"
	"refhub_backend/internal/services"
	"refhub_backend/internal/workers"
)

// Run boots the whole application and blocks until shutdown.
func Run() error {
	config.LoadConfig()
	cfg := config.GetConfig()

	logger.Init(cfg.Server.Env)

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Connect(cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if err := seedFirstAdmin(db, cfg); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	gw := gateway.NewRazorpayClient(
		cfg.Gateway.KeyID,
		cfg.Gateway.KeySecret,
		cfg.Gateway.WebhookSecret,
		cfg.Gateway.BaseURL,
		time.Duration(cfg.Gateway.TimeoutSeconds)*time.Second,
	)

	container := services.NewContainer(db, gw, email.NewSender(cfg), cfg)
	router := SetupRouter(container)

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	go workers.NewReconciliationWorker(container.Payment).Start(workerCtx)
	go workers.NewReferralExpiryWorker(repositories.NewReferralRepository(db)).Start(workerCtx)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr, "env", cfg.Server.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", "error", err.Error())
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	stopWorkers()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	return nil
}

// SetupRouter builds the gin engine with middleware and routes. Split out so
// tests can drive the full HTTP surface in-process.
func SetupRouter(container *services.Container) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logging())
	router.Use(middleware.CORS())

	routes.RegisterRoutes(router, handlers.NewAppHandlers(container))

	return router
}

// seedFirstAdmin creates the initial admin account when configured and none
// exists. Admins cannot self-register.
func seedFirstAdmin(db *gorm.DB, cfg *config.Config) error {
	if cfg.FirstAdminEmail == "" || cfg.FirstAdminPassword == "" {
		return nil
	}

	var count int64
	if err := db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := auth.HashPassword(cfg.FirstAdminPassword)
	if err != nil {
		return err
	}

	admin := &models.User{
		Email:        cfg.FirstAdminEmail,
		PasswordHash: hash,
		Name:         "Administrator",
		Role:         models.RoleAdmin,
	}
	if err := db.Create(admin).Error; err != nil {
		return err
	}

	logger.Info("seeded first admin", "email", cfg.FirstAdminEmail)
	return nil
}
