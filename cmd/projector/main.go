package main

import (
	"context"
	"github.com/AFUBWAJNR/Bidhaaline-ecommerce/internal/config"
	kafkax "github.com/AFUBWAJNR/Bidhaaline-ecommerce/internal/kafka"
	"github.com/AFUBWAJNR/Bidhaaline-ecommerce/internal/logging"
	"github.com/AFUBWAJNR/Bidhaaline-ecommerce/internal/orders"
	"github.com/AFUBWAJNR/Bidhaaline-ecommerce/internal/projector"
	"github.com/AFUBWAJNR/Bidhaaline-ecommerce/internal/redisx"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"log"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	name := cfg.ServiceName + "-projector"
	logger = logger.With(zap.String("service", name))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()
	if err := redisx.Ping(ctx, rdb); err != nil {
		logger.Fatal("redis", zap.Error(err))
	}

	svc := &projector.Service{
		Dedup: &redisx.Deduper{Client: rdb, Service: "projector", TTL: redisx.TTLDedup},
		Cache: &redisx.StatusCache{Client: rdb, TTL: cfg.StatusCacheTTL},
		Log:   logger,
	}

	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.ProjectorGroup, orders.TopicOrderStatusChanged, cfg.ProjectorWorkers, logger)

	done := make(chan struct{})
	go func() {
		defer close(done)
		logger.Info("projector consumer started",
			zap.String("group", cfg.ProjectorGroup),
			zap.String("topic", orders.TopicOrderStatusChanged),
			zap.Int("workers", cfg.ProjectorWorkers))
		if err := cons.Start(ctx, svc.HandleStatusChanged); err != nil {
			logger.Error("consumer exit", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
		logger.Info("shutting down consumer")
	case <-done:
	}
	cancel()
	<-done
}
