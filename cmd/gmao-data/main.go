package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gmao-data/internal/config"
	"gmao-data/internal/database"
	httpapi "gmao-data/internal/http"
	"gmao-data/internal/repository"
	"gmao-data/internal/service"
	"gmao-data/internal/store"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	db, err := database.NewPostgres(&cfg.Database)
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	defer db.Close()

	var kv store.KV
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		kv = store.NewRedisKV(redisClient)
		logger.Info("redis cache enabled", zap.String("addr", cfg.Redis.Addr))
	}

	levelsRepo := repository.NewPostgresLevelsRepository(db)
	activitiesRepo := repository.NewPostgresActivitiesRepository(db)
	plansRepo := repository.NewPostgresPlansRepository(db)

	replicator := service.NewSubtreeReplicator(levelsRepo, activitiesRepo, logger)
	notifier := service.NewWebhookNotifier(cfg.Webhook.URL, logger)

	levelService := service.NewLevelService(levelsRepo, replicator, logger)
	planService := service.NewPlanService(plansRepo, kv, notifier, logger)

	router := httpapi.NewRouter(logger)
	router.RegisterLevelRoutes(httpapi.NewLevelHandler(levelService, logger))
	router.RegisterPlanRoutes(httpapi.NewPlanHandler(planService, logger))
	router.RegisterHealthRoutes()

	srv := service.NewServer(cfg.HTTP.Addr, router, logger)

	_, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		cancel()
	case err := <-errCh:
		logger.Error("HTTP server stopped", zap.Error(err))
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
	if redisClient != nil {
		_ = redisClient.Close()
	}
}
