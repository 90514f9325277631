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

	"abpulse/app/echo-server/router"
	"abpulse/business/experiment"
	"abpulse/internal/middleware"
	psqlRepo "abpulse/internal/repository/postgres"
	redisRepo "abpulse/internal/repository/redis"
	"abpulse/internal/rest"
	"abpulse/pkg/config"
	"abpulse/pkg/database"
	redisdb "abpulse/pkg/database/redis"
	"abpulse/pkg/logger"
	"abpulse/pkg/metrics"
	"abpulse/pkg/utils"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.App.Environment)
	logger.Info("Starting abpulse", "version", cfg.App.Version)

	utils.InitJWT(cfg.JWT.SecretKey)
	metrics.Init()

	db, err := database.InitPostgres(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}

	logger.Info("Database connected successfully")

	// Optional Redis-backed token store for revocable admin sessions
	var tokenRepo *redisRepo.TokenRepository
	if cfg.Redis.Enabled() {
		redisClient, err := redisdb.NewRedisClient(cfg)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", "error", err)
		}
		defer redisdb.CloseRedisClient(redisClient)

		tokenRepo = redisRepo.NewTokenRepository(redisClient)
		logger.Info("Redis token store enabled")
	}

	// Init repo
	testRepo := psqlRepo.NewTestRepository(db)
	variantRepo := psqlRepo.NewVariantRepository(db)
	hitRepo := psqlRepo.NewHitRepository(db)

	// Init service
	experimentService := experiment.NewService(testRepo, variantRepo, hitRepo)

	// Init handler
	testHandler := rest.NewTestHandler(experimentService)
	variantHandler := rest.NewVariantHandler(experimentService)
	trackHandler := rest.NewTrackHandler(experimentService, cfg.Privacy.IPEncryptionKey)
	resultsHandler := rest.NewResultsHandler(experimentService)

	var tokenStore rest.TokenStore
	var tokenValidator middleware.TokenValidator
	if tokenRepo != nil {
		tokenStore = tokenRepo
		tokenValidator = tokenRepo
	}
	authHandler := rest.NewAuthHandler(cfg.Admin, tokenStore)

	// Init echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Auth middleware
	authRequired := middleware.AuthMiddleware(tokenValidator)
	adminOnly := middleware.AdminOnly()

	// Setup routes
	api := e.Group("/api/v1")
	router.SetupAuthRoutes(api, authHandler, authRequired)
	router.SetupTestRoutes(api, testHandler, authRequired, adminOnly)
	router.SetupVariantRoutes(api, variantHandler, authRequired, adminOnly)
	router.SetupResultsRoutes(api, resultsHandler, authRequired, adminOnly)
	router.SetTrackRoutes(api, trackHandler)

	// Goroutine server
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Server starting", "address", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Server stopped")
}
