package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/taxfolio/taxfolio/internal/api/handlers"
	"github.com/taxfolio/taxfolio/internal/api/routes"
	"github.com/taxfolio/taxfolio/internal/domain/services/auth"
	"github.com/taxfolio/taxfolio/internal/domain/services/importer"
	"github.com/taxfolio/taxfolio/internal/domain/services/quotes"
	"github.com/taxfolio/taxfolio/internal/domain/services/taxengine"
	"github.com/taxfolio/taxfolio/internal/infrastructure/cache"
	"github.com/taxfolio/taxfolio/internal/infrastructure/config"
	"github.com/taxfolio/taxfolio/internal/infrastructure/database"
	"github.com/taxfolio/taxfolio/internal/infrastructure/repositories"
	quoterefresher "github.com/taxfolio/taxfolio/internal/workers/quote_refresher"
	"github.com/taxfolio/taxfolio/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Initialize logger
	log := logger.New(cfg.LogLevel, cfg.Environment)

	// Initialize database
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", "error", err)
	}
	defer db.Close()

	// Run migrations
	if err := database.RunMigrations(cfg.Database.URL); err != nil {
		log.Fatal("Failed to run migrations", "error", err)
	}

	// Initialize Redis
	redisClient, err := cache.NewRedisClient(cfg.Redis)
	if err != nil {
		log.Fatal("Failed to connect to Redis", "error", err)
	}
	defer redisClient.Close()

	// Stores
	userRepo := repositories.NewUserRepository(db, log.Zap())
	lotRepo := repositories.NewLotRepository(db, log.Zap())
	profileRepo := repositories.NewProfileRepository(db, log.Zap())
	quoteStore := cache.NewQuoteStore(redisClient, log.Zap())

	// Services
	authService := auth.NewService(userRepo, cfg.JWT, log.Zap())
	quoteService := quotes.NewService(quoteStore, log.Zap())
	importService := importer.NewService(lotRepo, log.Zap())
	engine := taxengine.NewEngine(lotRepo, quoteStore, profileRepo, log.Zap())

	// Optional external quote refresher
	var scheduler *quoterefresher.Scheduler
	if cfg.Quotes.Source == "http" {
		provider := quotes.NewProvider(
			cfg.Quotes.ProviderURL,
			time.Duration(cfg.Quotes.TimeoutSeconds)*time.Second,
			log.Zap(),
		)
		scheduler = quoterefresher.NewScheduler(
			userRepo, lotRepo, quoteStore, provider, cfg.Quotes.RefreshCron, log.Zap(),
		)
		if err := scheduler.Start(); err != nil {
			log.Fatal("Failed to start quote refresh scheduler", "error", err)
		}
	}

	// Router
	h := &routes.Handlers{
		Health:    handlers.NewHealthHandler(db, redisClient, log),
		Auth:      handlers.NewAuthHandler(authService, log),
		Profile:   handlers.NewProfileHandler(profileRepo, log),
		Lots:      handlers.NewLotHandler(lotRepo, importService, log),
		Quotes:    handlers.NewQuoteHandler(quoteService, log),
		Portfolio: handlers.NewPortfolioHandler(engine, lotRepo, log),
	}
	router := routes.SetupRoutes(cfg, log, authService, h)

	// Create server
	server := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        router,
		ReadTimeout:    time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(cfg.Server.WriteTimeout) * time.Second,
		MaxHeaderBytes: 1 << 20, // 1MB
	}

	// Start server in goroutine
	go func() {
		log.Info("Starting server", "port", cfg.Server.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", "error", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	if scheduler != nil {
		scheduler.Stop()
	}

	// Give outstanding requests 30 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", "error", err)
	}

	log.Info("Server exited")
}
