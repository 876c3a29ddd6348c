package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/taxfolio/taxfolio/internal/api/handlers"
	"github.com/taxfolio/taxfolio/internal/api/middleware"
	"github.com/taxfolio/taxfolio/internal/domain/services/auth"
	"github.com/taxfolio/taxfolio/internal/infrastructure/config"
	"github.com/taxfolio/taxfolio/pkg/logger"
)

// Handlers bundles everything the router needs.
type Handlers struct {
	Health    *handlers.HealthHandler
	Auth      *handlers.AuthHandler
	Profile   *handlers.ProfileHandler
	Lots      *handlers.LotHandler
	Quotes    *handlers.QuoteHandler
	Portfolio *handlers.PortfolioHandler
}

// SetupRoutes configures all application routes
func SetupRoutes(cfg *config.Config, log *logger.Logger, authService *auth.Service, h *Handlers) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	handlers.RegisterValidators()
	router := gin.New()

	// Global middleware - order matters for security
	router.Use(middleware.RequestID())
	router.Use(middleware.Metrics())
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.CORS(cfg.Server.AllowedOrigins))
	router.Use(middleware.RateLimit(cfg.Server.RateLimitPerMin))
	router.Use(middleware.SecurityHeaders())

	// Health checks and metrics (no auth required)
	router.GET("/health", h.Health.Health)
	router.GET("/ready", h.Health.Ready)
	router.GET("/live", h.Health.Live)
	router.GET("/metrics", handlers.Metrics())

	v1 := router.Group("/api/v1")

	// Public auth endpoints
	authGroup := v1.Group("/auth")
	{
		authGroup.POST("/signup", h.Auth.Signup)
		authGroup.POST("/login", h.Auth.Login)
	}

	// Everything else requires a valid token
	protected := v1.Group("")
	protected.Use(middleware.Authentication(authService))
	{
		protected.GET("/me", h.Auth.Me)

		protected.GET("/tax_profile", h.Profile.Get)
		protected.PUT("/tax_profile", h.Profile.Upsert)

		protected.GET("/lots", h.Lots.List)
		protected.POST("/lots", h.Lots.Create)
		protected.DELETE("/lots/:id", h.Lots.Delete)
		protected.POST("/import/csv", h.Lots.ImportCSV)

		protected.GET("/quotes", h.Quotes.Get)
		protected.PUT("/quotes", h.Quotes.Upsert)

		protected.GET("/holdings", h.Portfolio.Holdings)
		portfolio := protected.Group("/portfolio")
		{
			portfolio.GET("/summary", h.Portfolio.Summary)
			portfolio.GET("/harvest/candidates", h.Portfolio.HarvestCandidates)
			portfolio.POST("/whatif/sell", h.Portfolio.WhatIfSell)
			portfolio.POST("/sell", h.Portfolio.ExecuteSell)
		}
	}

	return router
}
