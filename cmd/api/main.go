package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/wawi_bi/internal/cache"
	"github.com/GTDGit/wawi_bi/internal/config"
	"github.com/GTDGit/wawi_bi/internal/database"
	"github.com/GTDGit/wawi_bi/internal/handler"
	"github.com/GTDGit/wawi_bi/internal/middleware"
	"github.com/GTDGit/wawi_bi/internal/repository"
	"github.com/GTDGit/wawi_bi/internal/service"
	"github.com/GTDGit/wawi_bi/internal/sse"
	"github.com/GTDGit/wawi_bi/internal/worker"
)

// main is the entrypoint of the WaWi to BI sync server.
func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Setup logger
	setupLogger(cfg.Env)
	log.Info().Str("env", cfg.Env).Msg("starting wawi bi sync")

	// 3. Connect both stores
	wawiDB, err := database.Connect(&cfg.Source, cfg.Pool)
	if err != nil {
		log.Error().Err(err).Msg("wawi database connection failed")
		fmt.Fprintf(os.Stderr, "wawi database connection failed: %v\n", err)
		os.Exit(1)
	}
	defer wawiDB.Close()

	biDB, err := database.Connect(&cfg.Target, cfg.Pool)
	if err != nil {
		log.Error().Err(err).Msg("bi database connection failed")
		fmt.Fprintf(os.Stderr, "bi database connection failed: %v\n", err)
		os.Exit(1)
	}
	defer biDB.Close()

	// 3a. Run BI migrations
	if err := database.Migrate(biDB.DB, cfg.MigrationsPath); err != nil {
		log.Error().Err(err).Msg("migration failed")
		fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
		os.Exit(1)
	}
	log.Info().Msg("migrations completed successfully")

	// 3b. Report store: Redis when configured, in-memory otherwise
	checks := map[string]handler.Pinger{"wawi": wawiDB, "bi": biDB}
	var store cache.Store = cache.NewMemoryStore()
	if cfg.Redis.Enabled() {
		redisClient, err := cache.NewRedisClient(&cfg.Redis)
		if err != nil {
			log.Error().Err(err).Msg("redis connection failed")
			fmt.Fprintf(os.Stderr, "redis connection failed: %v\n", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		store = redisClient
		checks["redis"] = redisClient
		log.Info().Msg("redis connected successfully")
	} else {
		log.Warn().Msg("REDIS_HOST not set, sync reports are kept in memory")
	}
	reportCache := cache.NewReportCache(store)

	// 4. Initialize repositories
	wawiRepo := repository.NewWawiRepository(wawiDB, cfg.Sync.CompletedStatus)
	platformRepo := repository.NewPlatformRepository(biDB)
	productRepo := repository.NewProductRepository(biDB)
	refPriceRepo := repository.NewRefPriceRepository(biDB)
	shippingRepo := repository.NewShippingRepository(biDB)
	salesRepo := repository.NewSalesRepository(biDB)

	// 5. Initialize services
	hub := sse.NewHub()
	syncSvc := service.NewSyncService(service.SyncDeps{
		Source:    wawiRepo,
		Platforms: platformRepo,
		Products:  productRepo,
		RefPrices: refPriceRepo,
		Shipping:  shippingRepo,
		Sales:     salesRepo,
		SourceDB:  wawiDB,
		TargetDB:  biDB,
	}, reportCache, sse.NewHubNotifier(hub))

	// 6. Initialize handlers
	handlers := &Handlers{
		Health: handler.NewHealthHandler(checks),
		Sync:   handler.NewSyncHandler(syncSvc, reportCache, cfg.Sync.Timeout),
		SSE:    handler.NewSSEHandler(hub),
	}

	// 7. Setup router
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware(cfg.CORSAllowedHosts))
	router.Use(middleware.LoggingMiddleware())
	setupRoutes(router, handlers)

	// 8. Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 9. Start sync worker
	if cfg.Sync.Interval > 0 || cfg.Sync.RunOnStart {
		go worker.NewSyncWorker(syncSvc, cfg.Sync.Interval, cfg.Sync.Timeout, cfg.Sync.RunOnStart).Start(ctx)
	}

	// 10. Start HTTP server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// 11. Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// 12. Cancel context to stop the worker; end open event streams
	cancel()
	hub.Close()

	// 13. Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}

// Handlers groups all HTTP handlers used by the server.
type Handlers struct {
	Health *handler.HealthHandler
	Sync   *handler.SyncHandler
	SSE    *handler.SSEHandler
}

// setupRoutes registers all routes.
func setupRoutes(router *gin.Engine, handlers *Handlers) {
	router.GET("/v1/health", handlers.Health.GetHealth)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	sync := router.Group("/v1/sync")
	{
		sync.POST("", handlers.Sync.Trigger)
		sync.GET("/last", handlers.Sync.Last)
		sync.GET("/events", handlers.SSE.Stream)
	}
}

func setupLogger(env string) {
	if env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}
