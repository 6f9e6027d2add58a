// Command server runs the order API and the realtime tracking hub.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/99minutos/live-tracking/internal/api"
	"github.com/99minutos/live-tracking/internal/api/handler"
	"github.com/99minutos/live-tracking/internal/core/service"
	"github.com/99minutos/live-tracking/internal/infrastructure/config"
	"github.com/99minutos/live-tracking/internal/infrastructure/db/mongo"
	"github.com/99minutos/live-tracking/internal/infrastructure/db/redis"
	"github.com/99minutos/live-tracking/internal/infrastructure/queue"
	"github.com/99minutos/live-tracking/internal/infrastructure/realtime"
	"github.com/99minutos/live-tracking/pkg/logger"
)

const (
	tokenTTL        = 24 * time.Hour
	shutdownTimeout = 10 * time.Second
)

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: cfg.Env == "development", Service: "tracking-server"})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET is required")
	}

	mongoClient, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database, MaxPoolSize: cfg.Mongo.MaxPoolSize})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to mongodb")
	}
	defer func() { _ = mongoClient.Disconnect(context.Background()) }()

	rdb, err := redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer rdb.Close()

	// --- Repositories ---
	authRepo := mongo.NewAuthRepository(db)
	orderRepo := mongo.NewOrderRepository(db)
	partnerRepo := mongo.NewPartnerRepository(db)
	auditRepo := mongo.NewLocationRepository(db)
	lastLocations := redis.NewLastLocationStore(rdb)

	if err := authRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to create user indexes")
	}
	if err := orderRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to create order indexes")
	}

	// --- Location recording ---
	locationService := service.NewLocationService(lastLocations, auditRepo, logger.For(log, "location"))
	dispatcher := queue.NewDispatcher(cfg.Dispatch.Workers, locationService, logger.For(log, "dispatcher"))
	dispatcher.Start(ctx)

	// --- Realtime hub ---
	hub := realtime.NewHub(realtime.HubConfig{
		WriteTimeout: cfg.Hub.WriteTimeout,
		PongTimeout:  cfg.Hub.PongTimeout,
		SendBuffer:   cfg.Hub.SendBuffer,
	}, dispatcher, logger.For(log, "hub"))
	defer hub.Close()

	// --- Services ---
	authService := service.NewAuthService(authRepo, cfg.JWTSecret, tokenTTL)
	orderService := service.NewOrderService(orderRepo, partnerRepo, hub, logger.For(log, "orders"))

	e := api.NewRouter(api.Dependencies{
		AuthService:     authService,
		OrderService:    orderService,
		LocationService: locationService,
		Hub:             hub,
		Checks: map[string]handler.DependencyCheck{
			"mongodb": handler.MongoCheck(db),
			"redis":   handler.RedisCheck(rdb),
		},
		JWTSecret: cfg.JWTSecret,
		Logger:    log,
	})

	go func() {
		log.Info().Str("port", cfg.Port).Msg("server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
		os.Exit(1)
	}
}
