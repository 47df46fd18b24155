package main

import (
	"context"
	"errors"
	"github.com/AFUBWAJNR/Bidhaaline-ecommerce/internal/auth"
	"github.com/AFUBWAJNR/Bidhaaline-ecommerce/internal/catalog"
	"github.com/AFUBWAJNR/Bidhaaline-ecommerce/internal/config"
	"github.com/AFUBWAJNR/Bidhaaline-ecommerce/internal/dashboard"
	"github.com/AFUBWAJNR/Bidhaaline-ecommerce/internal/httpx"
	kafkax "github.com/AFUBWAJNR/Bidhaaline-ecommerce/internal/kafka"
	"github.com/AFUBWAJNR/Bidhaaline-ecommerce/internal/logging"
	"github.com/AFUBWAJNR/Bidhaaline-ecommerce/internal/metrics"
	"github.com/AFUBWAJNR/Bidhaaline-ecommerce/internal/orders"
	"github.com/AFUBWAJNR/Bidhaaline-ecommerce/internal/postgres"
	"github.com/AFUBWAJNR/Bidhaaline-ecommerce/internal/redisx"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	_ = godotenv.Load()
	// money goes out as JSON numbers (exact decimal text), not quoted strings
	decimal.MarshalJSONWithoutQuotes = true

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	logger = logger.With(zap.String("service", cfg.ServiceName))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN, cfg.DBMaxConns)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()
	if cfg.Migrate {
		if err := postgres.Migrate(ctx, db); err != nil {
			logger.Fatal("db migrate", zap.Error(err))
		}
	}

	// Redis is a cache only, the API keeps serving without it
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()
	if err := redisx.Ping(ctx, rdb); err != nil {
		logger.Warn("redis unavailable, status cache degraded", zap.String("addr", cfg.RedisAddr), zap.Error(err))
	}
	cache := &redisx.StatusCache{Client: rdb, TTL: cfg.StatusCacheTTL}

	// Kafka producers, one per topic
	statusProd := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderStatusChanged, 1024, logger)
	placedProd := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderPlaced, 1024, logger)
	productProd := kafkax.NewProducer(cfg.KafkaBrokers, catalog.TopicProductDeactivated, 256, logger)
	producers := []*kafkax.Producer{statusProd, placedProd, productProd}
	for _, p := range producers {
		p.Start()
	}

	reg := metrics.NewRegistry()
	orderRepo := &orders.Repo{DB: db}

	router := httpx.NewRouter(httpx.Deps{
		Orders: &orders.Queries{Store: orderRepo, Cache: cache, Log: logger},
		Engine: &orders.StatusEngine{
			Store:     orderRepo,
			Cache:     cache,
			Publisher: statusProd,
			Metrics:   reg,
			Log:       logger,
			Service:   cfg.ServiceName,
		},
		Checkout: &orders.Checkout{
			Store:     orderRepo,
			Cache:     cache,
			Publisher: placedProd,
			Metrics:   reg,
			Log:       logger,
			Service:   cfg.ServiceName,
		},
		Tracking: &orders.TrackingService{Store: orderRepo},
		Products: &catalog.Service{
			Store:     &catalog.Repo{DB: db},
			Publisher: productProd,
			Log:       logger,
			Name:      cfg.ServiceName,
		},
		Stats:             &dashboard.Aggregator{Source: &dashboard.PGSource{DB: db}, Metrics: reg, Log: logger},
		Auth:              auth.NewRemoteAuthenticator(cfg.AuthURL),
		Metrics:           reg,
		Log:               logger,
		Service:           cfg.ServiceName,
		PaymentConfigured: cfg.PaymentConfigured(),
		Timeout:           cfg.RequestTimeout,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http listening", zap.String("addr", cfg.HTTPAddr), zap.Bool("payment_configured", cfg.PaymentConfigured()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	// close intake first, then wait for the writers to flush
	for _, p := range producers {
		p.Close()
	}
	for _, p := range producers {
		p.WaitClosed()
	}
}
