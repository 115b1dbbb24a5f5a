package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/swiftlink/courier-system/internal/api"
	"github.com/swiftlink/courier-system/internal/core/ports"
	"github.com/swiftlink/courier-system/internal/core/service"
	"github.com/swiftlink/courier-system/internal/infrastructure/db/mongo"
	"github.com/swiftlink/courier-system/internal/infrastructure/db/redis"
	"github.com/swiftlink/courier-system/internal/infrastructure/mqtt"
	"github.com/swiftlink/courier-system/internal/infrastructure/notify"
	"github.com/swiftlink/courier-system/internal/infrastructure/queue"
	"github.com/swiftlink/courier-system/internal/infrastructure/routing"
	"github.com/swiftlink/courier-system/internal/pkg/config"
	"github.com/swiftlink/courier-system/pkg/logger"
)

// main is the application composition root. It wires concrete adapters
// (MongoDB, Redis, OSRM, MQTT, webhooks) behind the core ports and starts the
// HTTP server.
func main() {
	// .env is optional outside local development.
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Storage ---
	mongoClient, db, err := mongo.Connect(ctx, mongo.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connection failed")
	}
	defer func() {
		_ = mongoClient.Disconnect(context.Background())
	}()

	rdb, err := redis.Connect(ctx, redis.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer func() {
		_ = rdb.Close()
	}()

	packetRepo := mongo.NewPacketRepository(db)
	vehicleRepo := mongo.NewVehicleRepository(db)
	dispatchRepo := mongo.NewDispatchRepository(mongoClient, db)
	agentRepo := mongo.NewAgentRepository(db)
	pickupRepo := mongo.NewPickupRequestRepository(db)

	if err := mongo.EnsureIndexes(ctx, packetRepo, vehicleRepo, pickupRepo); err != nil {
		log.Fatal().Err(err).Msg("index creation failed")
	}

	// --- Collaborators ---
	var notifier ports.Notifier = notify.NewLogNotifier(logger.Component("notify"))
	if cfg.Notifier.WebhookURL != "" {
		guard := redis.NewNotificationGuard(rdb)
		notifier = notify.NewWebhookNotifier(cfg.Notifier.WebhookURL, guard, logger.Component("notify"))
	}
	routeProvider := routing.NewOSRMProvider(cfg.Routing.OSRMBaseURL, logger.Component("routing"))

	// --- Core services ---
	packetService := service.NewPacketService(packetRepo, pickupRepo, notifier, logger.Component("packets"))
	assignmentService := service.NewAssignmentService(
		packetRepo, vehicleRepo, dispatchRepo, agentRepo, pickupRepo,
		notifier, logger.Component("assignments"),
	)
	dispatchService := service.NewDispatchService(packetRepo, vehicleRepo, agentRepo, logger.Component("dispatch"))
	trackingService := service.NewTrackingService(packetRepo, routeProvider, logger.Component("tracking"))

	// --- Position ingress ---
	positions := queue.NewDispatcher(cfg.PositionWorkers, trackingService, logger.Component("queue"))
	positions.Start(ctx)

	if cfg.MQTT.BrokerURL != "" {
		consumer := mqtt.NewPositionConsumer(mqtt.Config{
			BrokerURL: cfg.MQTT.BrokerURL,
			ClientID:  cfg.MQTT.ClientID,
			Username:  cfg.MQTT.Username,
			Password:  cfg.MQTT.Password,
		}, positions, logger.Component("mqtt"))
		if err := consumer.Start(); err != nil {
			log.Fatal().Err(err).Msg("mqtt connection failed")
		}
		defer consumer.Stop()
	}

	// --- HTTP ---
	e := api.NewRouter(api.Deps{
		Packets:     packetService,
		Assignments: assignmentService,
		Dispatch:    dispatchService,
		Tracking:    trackingService,
		Positions:   positions,
		Mongo:       db,
		Redis:       rdb,
		JWTSecret:   cfg.JWTSecret,
		Logger:      logger.Component("api"),
	})
	e.Server.ReadHeaderTimeout = 5 * time.Second
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 30 * time.Second
	e.Server.IdleTimeout = 60 * time.Second

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
