package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/XiNetworkProject/budget-gestion/budget-backend/internal/config"
	"github.com/XiNetworkProject/budget-gestion/budget-backend/internal/handler"
	"github.com/XiNetworkProject/budget-gestion/budget-backend/internal/middleware"
	"github.com/XiNetworkProject/budget-gestion/budget-backend/internal/repository/postgres"
	"github.com/XiNetworkProject/budget-gestion/budget-backend/internal/repository/sqlitecache"
	"github.com/XiNetworkProject/budget-gestion/budget-backend/internal/repository/storage"
	"github.com/XiNetworkProject/budget-gestion/budget-backend/internal/service"
	"github.com/XiNetworkProject/budget-gestion/budget-backend/internal/util"
	"github.com/XiNetworkProject/budget-gestion/budget-backend/internal/websocket"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Initialize zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENV") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Connect to database
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	// Verify database connection
	if err := pool.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Connected to database")

	// Initialize remote snapshot repository
	snapshotRepo := postgres.NewSnapshotRepository(pool)
	if err := snapshotRepo.EnsureSchema(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure snapshot schema")
	}

	// Open local durable cache
	cacheRepo, err := sqlitecache.Open(cfg.CachePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open local cache")
	}
	defer cacheRepo.Close()

	// Initialize backup storage
	backupRepo, err := storage.NewS3BackupRepository(context.Background(), cfg.S3)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize backup storage")
	}

	// WebSocket hub for pushing state events to connected clients
	hub := websocket.NewHub()

	// Initialize services
	clock := util.SystemClock()
	gateService := service.NewGateService(cfg.PrivilegedEmails)
	storeManager := service.NewStoreManager(snapshotRepo, cacheRepo, hub, clock, gateService, cfg.SaveDebounce, log.Logger)
	backupService := service.NewBackupService(backupRepo, clock, log.Logger)

	// Initialize auth middleware
	authMiddleware, err := middleware.NewAuthMiddleware(cfg.Auth0Domain, cfg.Auth0Audience)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create auth middleware")
	}
	rateLimiter := middleware.NewRateLimiter()
	defer rateLimiter.Stop()

	// WebSocket JWT validator (token arrives as a query parameter)
	wsValidator, err := websocket.NewAuth0JWTValidator(cfg.Auth0Domain, cfg.Auth0Audience)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create WebSocket JWT validator")
	}

	// Initialize handlers
	authHandler := handler.NewAuthHandler(storeManager)
	transactionHandler := handler.NewTransactionHandler(storeManager)
	goalHandler := handler.NewGoalHandler(storeManager)
	subscriptionHandler := handler.NewSubscriptionHandler(storeManager, gateService)
	gamificationHandler := handler.NewGamificationHandler(storeManager)
	syncHandler := handler.NewSyncHandler(storeManager)
	dashboardHandler := handler.NewDashboardHandler(storeManager)
	backupHandler := handler.NewBackupHandler(storeManager, backupService)
	websocketHandler := handler.NewWebSocketHandler(hub, wsValidator, cfg.CORSOrigins)

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Request ID middleware
	e.Use(echomiddleware.RequestID())

	// CORS middleware
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Security headers middleware (helmet-like)
	e.Use(echomiddleware.SecureWithConfig(echomiddleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: "default-src 'self'",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
	}))

	// Request logging middleware with zerolog
	e.Use(zerologMiddleware())

	// Recovery middleware
	e.Use(echomiddleware.Recover())

	// Health check endpoint
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// WebSocket endpoint (authenticates via query token, outside the API group)
	e.GET("/ws", websocketHandler.HandleWS)

	// Register API routes
	handler.RegisterRoutes(e, authMiddleware, rateLimiter, authHandler, transactionHandler, goalHandler, subscriptionHandler, gamificationHandler, syncHandler, dashboardHandler, backupHandler)

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Flush debounced writes before closing the listener
	if err := storeManager.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("Final save on shutdown failed")
	}

	if err := e.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// zerologMiddleware returns a middleware that logs requests using zerolog
func zerologMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()

			log.Info().
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", res.Status).
				Dur("latency", time.Since(start)).
				Str("request_id", res.Header().Get(echo.HeaderXRequestID)).
				Msg("request")

			return nil
		}
	}
}
