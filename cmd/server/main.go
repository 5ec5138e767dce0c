package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/parking-zone-service/internal/availability"
	"github.com/iliyamo/parking-zone-service/internal/config"
	"github.com/iliyamo/parking-zone-service/internal/database"
	"github.com/iliyamo/parking-zone-service/internal/handler"
	"github.com/iliyamo/parking-zone-service/internal/logger"
	"github.com/iliyamo/parking-zone-service/internal/middleware"
	"github.com/iliyamo/parking-zone-service/internal/queue"
	"github.com/iliyamo/parking-zone-service/internal/repository"
	"github.com/iliyamo/parking-zone-service/internal/router"
	queue_publisher "github.com/iliyamo/parking-zone-service/internal/service"
)

func main() {
	_ = godotenv.Load() // .env is optional; real deployments set env vars directly

	cfg := config.Load()

	zlog, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	db, err := database.Open(cfg)
	if err != nil {
		zlog.Fatal("database connect failed", zap.Error(err))
	}
	defer func() { _ = db.Close() }()

	rdb := config.NewRedisClient()
	if rdb == nil {
		zlog.Warn("redis unavailable, caching, rate limiting and snapshots disabled")
	}

	profiles := repository.NewProfileRepo(db)
	sessions := repository.NewSessionRepo(db)
	applications := repository.NewApplicationRepo(db)
	locations := repository.NewLocationRepo(db)
	zones := repository.NewZoneRepo(db)
	owners := repository.NewOwnershipRepo(db)

	events := queue_publisher.New(cfg.AMQPURL, zlog)

	var snapshots *availability.SnapshotStore
	if rdb != nil {
		snapshots = availability.NewSnapshotStore(rdb, 10*time.Minute)

		consumer := &queue.AvailabilityConsumer{
			URL:       cfg.AMQPURL,
			Zones:     zones,
			Snapshots: snapshots,
			Log:       zlog,
		}
		go func() {
			if err := consumer.Run(context.Background()); err != nil {
				zlog.Warn("availability consumer stopped", zap.Error(err))
			}
		}()
	}

	h := router.Handlers{
		Auth:         handler.NewAuthHandler(cfg, profiles, sessions),
		Applications: handler.NewApplicationHandler(applications),
		Locations:    handler.NewLocationHandler(locations, events, zlog),
		Zones:        handler.NewZoneHandler(zones, events, zlog),
		AdminOwners:  handler.NewAdminOwnerHandler(owners, events, zlog),
		Public:       handler.NewPublicHandler(locations, zones, snapshots),
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.RequestID)
	e.Use(logger.RequestLogger(zlog))
	e.Use(middleware.Metrics)

	router.Register(e, h, cfg, rdb)

	addr := ":" + cfg.Port
	zlog.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
	if err := e.Start(addr); err != nil {
		zlog.Fatal("server stopped", zap.Error(err))
	}
}
