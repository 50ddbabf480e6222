package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/maumercado/task-queue-go/internal/config"
	"github.com/maumercado/task-queue-go/internal/events"
	"github.com/maumercado/task-queue-go/internal/logger"
)

// This process does not run a scheduler of its own. It joins the same
// Redis deployment as the api-server processes and tails the durable
// event stream, logging each entry, for an audit log independent of any
// one scheduler's lifetime.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.LogLevel, os.Getenv("ENV") != "production")

	log := logger.Get()
	log.Info().Msg("Starting timer/event satellite...")

	redisClient := redis.NewClient(&redis.Options{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		MaxRetries:   cfg.Redis.MaxRetries,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	err = redisClient.Ping(pingCtx).Err()
	pingCancel()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close Redis client")
		}
	}()

	maxLen := int64(cfg.Scheduler.EventRetentionDays) * 24 * 60 * 60
	if maxLen <= 0 {
		maxLen = 100000
	}
	stream := events.NewStream(redisClient, cfg.Scheduler.EventStreamName, maxLen)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go tailEvents(ctx, stream)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down timer/event satellite...")
	cancel()
}

// tailEvents polls the durable stream for new entries and logs them,
// standing in for a downstream audit consumer (a data warehouse loader,
// a billing pipeline) that replays the stream independently of the
// scheduler's own lifetime.
func tailEvents(ctx context.Context, stream *events.Stream) {
	log := logger.Get()
	afterID := ""

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			entries, err := stream.Tail(ctx, afterID, 100)
			if err != nil {
				log.Warn().Err(err).Msg("failed to tail event stream")
				continue
			}
			for _, entry := range entries {
				log.Info().
					Str("id", entry.ID).
					Str("event_type", string(entry.Event.Type)).
					Interface("data", entry.Event.Data).
					Msg("event observed")
				afterID = entry.ID
			}
		}
	}
}
