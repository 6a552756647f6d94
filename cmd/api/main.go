package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/shyammm53/wardrobe-backend/api/routes"
	"github.com/shyammm53/wardrobe-backend/internal/auth"
	"github.com/shyammm53/wardrobe-backend/internal/enrich"
	"github.com/shyammm53/wardrobe-backend/internal/genai"
	"github.com/shyammm53/wardrobe-backend/internal/items"
	"github.com/shyammm53/wardrobe-backend/internal/stylist"
	"github.com/shyammm53/wardrobe-backend/internal/users"
	"github.com/shyammm53/wardrobe-backend/internal/vision"
	"github.com/shyammm53/wardrobe-backend/internal/weather"
	"github.com/shyammm53/wardrobe-backend/pkg/config"
	"github.com/shyammm53/wardrobe-backend/pkg/db"
	"github.com/shyammm53/wardrobe-backend/pkg/logger"
	"github.com/shyammm53/wardrobe-backend/pkg/metrics"
	"github.com/shyammm53/wardrobe-backend/pkg/migrate"
	"github.com/shyammm53/wardrobe-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	enrichMetrics := metrics.NewEnrichmentMetrics(registry)

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:  users.NewRepository(dbClient.DB()),
		JWTConfig: cfg.JWT,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	visionClient := vision.NewClient(cfg.Wolfram, logg)
	itemsRepo := items.NewRepository(dbClient.DB())
	scheduler := enrich.NewScheduler(visionClient, itemsRepo, logg, enrichMetrics)

	itemsService, err := items.NewService(items.ServiceParams{
		Repo:      itemsRepo,
		Analyzer:  visionClient,
		Scheduler: scheduler,
		Uploads:   cfg.Uploads,
		Logger:    logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create items service", err)
		os.Exit(1)
	}

	geminiClient := genai.NewClient(cfg.Gemini, logg)
	weatherService := weather.NewService(cfg.Weather, redisClient, logg)
	stylistService := stylist.NewService(geminiClient, weatherService, logg, enrichMetrics)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			registry,
			authService,
			itemsService,
			stylistService,
			weatherService,
		),
	}

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-stopCtx.Done():
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "error during server shutdown", err)
		}
	}

	// Let in-flight enrichment jobs finish before the process exits.
	scheduler.Wait()
}
