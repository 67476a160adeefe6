package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/user/elpisexchange/backend/internal/auth"
	"github.com/user/elpisexchange/backend/internal/clock"
	"github.com/user/elpisexchange/backend/internal/config"
	"github.com/user/elpisexchange/backend/internal/database"
	"github.com/user/elpisexchange/backend/internal/exchange"
	"github.com/user/elpisexchange/backend/internal/handlers"
	"github.com/user/elpisexchange/backend/internal/logger"
	"github.com/user/elpisexchange/backend/internal/snapshot"
	"github.com/user/elpisexchange/backend/internal/ticker"
	internalws "github.com/user/elpisexchange/backend/internal/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.App.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to open snapshot store", zap.String("backend", cfg.Snapshot.Backend), zap.Error(err))
	}
	defer closeStore()

	// Price feed and optional trade publisher are told about every fill.
	feed := ticker.NewFeed(log, 100)
	notifiers := []exchange.Notifier{feed}
	if len(cfg.Kafka.Brokers) > 0 {
		publisher := ticker.NewKafkaPublisher(ticker.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic), log, 256)
		notifiers = append(notifiers, publisher)
		go publisher.Run(ctx)
		log.Info("Publishing trades to Kafka", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}

	engine, err := exchange.Open(ctx, store, log, exchange.Config{
		RewardAmount: decimal.NewFromInt(cfg.Exchange.RewardAmount),
		Clock:        clock.RealClock{},
		Notifiers:    notifiers,
	})
	if err != nil {
		log.Fatal("Failed to open exchange", zap.Error(err))
	}
	feed.Seed(engine.Markets())

	hub := internalws.NewHub(log, feed.CurrentPrices)
	go hub.Run(ctx)
	go hub.ListenToPriceUpdates(ctx, feed.Updates())

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	app := fiber.New(fiber.Config{DisableStartupMessage: cfg.App.Env != "local"})
	handlers.New(engine, tokens, hub, log, cfg.Exchange.DepthLevels).RegisterRoutes(app)

	go func() {
		log.Info("Starting server", zap.String("addr", cfg.App.Port))
		if err := app.Listen(cfg.App.Port); err != nil {
			log.Error("Server stopped", zap.Error(err))
			cancel()
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigChan:
		log.Info("Shutdown signal received")
	case <-ctx.Done():
	}

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error("Server shutdown failed", zap.Error(err))
	}
	cancel()
	log.Info("Shutdown complete")
}

// openStore builds the configured snapshot backend and its cleanup.
func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (snapshot.Store, func(), error) {
	noop := func() {}

	switch cfg.Snapshot.Backend {
	case config.BackendPebble:
		s, err := database.NewPebbleStore(cfg.Pebble.Path, cfg.Snapshot.Key)
		if err != nil {
			return nil, noop, err
		}
		return s, func() {
			if err := s.Close(); err != nil {
				log.Error("Error closing pebble", zap.Error(err))
			}
		}, nil

	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, noop, fmt.Errorf("redis ping failed: %w", err)
		}
		s := database.NewRedisStore(client, cfg.Snapshot.Key)
		return s, func() { s.Close() }, nil

	case config.BackendPostgres:
		pool, err := database.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, noop, err
		}
		s := database.NewPostgresStore(pool, cfg.Snapshot.Key, log)
		if err := s.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, noop, err
		}
		return s, pool.Close, nil

	default:
		log.Warn("Using in-memory snapshot store; state is lost on restart")
		return snapshot.NewMemoryStore(), noop, nil
	}
}
