package main

import (
	"fmt"
	"net/http"
	"os"

	"papertrade/internal/config"
	"papertrade/internal/database"
	"papertrade/internal/handlers"
	"papertrade/internal/logger"
	"papertrade/internal/middleware"
	"papertrade/internal/quote"
	"papertrade/internal/services"
	"papertrade/internal/validator"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Papertrade API
// @version         1.0
// @description     Papertrade is a paper-trading ledger: look up live share prices, buy and sell against a virtual cash balance, and review your trade history.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration. A missing quote-service credential aborts here:
	// the service cannot price a single trade without it.
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize database configuration
	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	// Run migrations
	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Quote client: lookups are bounded by the configured timeout and
	// surfaced as quote-unavailable on failure, never retried.
	quoteClient := quote.NewHTTPClient(
		&http.Client{Timeout: appConfig.QuoteTimeout},
		appConfig.QuoteBaseURL,
		appConfig.QuoteAPIKey,
	)

	// Initialize services
	db := dbManager.DB()
	accountService := services.NewAccountService(db)
	portfolioService := services.NewPortfolioService(db, quoteClient)
	historyService := services.NewHistoryService(db)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(accountService)
	portfolioHandler := handlers.NewPortfolioHandler(portfolioService)
	historyHandler := handlers.NewHistoryHandler(historyService)

	// Register custom binding validators
	validator.Register()

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 group
	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/logout", authHandler.Logout)
	auth.GET("/check", authHandler.CheckUsername)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.GET("/profile", authHandler.GetProfile)
	protected.PUT("/password", authHandler.ChangePassword)

	protected.GET("/quote/:symbol", portfolioHandler.GetQuote)
	protected.GET("/portfolio", portfolioHandler.GetPortfolio)
	protected.POST("/portfolio/buy", portfolioHandler.Buy)
	protected.POST("/portfolio/sell", portfolioHandler.Sell)

	protected.GET("/history", historyHandler.ListTransactions)

	log.Infof("Starting papertrade backend server on port %s", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
