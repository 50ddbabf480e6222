package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/maumercado/task-queue-go/internal/api"
	"github.com/maumercado/task-queue-go/internal/config"
	"github.com/maumercado/task-queue-go/internal/events"
	"github.com/maumercado/task-queue-go/internal/host"
	"github.com/maumercado/task-queue-go/internal/logger"
	"github.com/maumercado/task-queue-go/internal/metrics"
	"github.com/maumercado/task-queue-go/internal/scheduler"
	"github.com/maumercado/task-queue-go/internal/task"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.LogLevel, os.Getenv("ENV") != "production")

	log := logger.Get()
	log.Info().Msg("Starting scheduler control API...")

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

	if err := connectRedis(redisClient, cfg); err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close Redis client")
		}
	}()

	publisher := events.NewRedisPubSub(redisClient)
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close event publisher")
		}
	}()

	maxLen := int64(cfg.Scheduler.EventRetentionDays) * 24 * 60 * 60
	if maxLen <= 0 {
		maxLen = 100000
	}
	stream := events.NewStream(redisClient, cfg.Scheduler.EventStreamName, maxLen)

	sink := events.NewSchedulerSink(publisher, stream)

	sched := scheduler.New(host.RealClock{}, sink)
	registry := buildRegistry()

	driver := host.NewDriver(sched, host.RealClock{}, cfg.Scheduler.Tick)

	server := api.NewServer(cfg, driver, registry, stream, publisher)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      server,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	server.Start(ctx)

	metricsCtx, metricsCancel := context.WithCancel(ctx)
	defer metricsCancel()
	go reportMetrics(metricsCtx, driver)

	go func() {
		log.Info().Str("addr", httpServer.Addr).Msg("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Scheduler.ShutdownTimeout)
	defer shutdownCancel()

	server.Stop(shutdownCtx)

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	log.Info().Msg("Server stopped")
}

// reportMetrics periodically samples the scheduler's internal sizes into
// the coroutine_* Prometheus gauges, through the driver's locked
// accessors so the sampling goroutine never races the driver's own loop.
func reportMetrics(ctx context.Context, driver *host.Driver) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.SetReadyQueueDepth(float64(driver.ReadyLen()))
			metrics.SetTimerHeapDepth(float64(driver.TimerLen()))
		}
	}
}

// connectRedis pings client until it succeeds or cfg.Redis.ConnectRetries
// retries (ConnectRetries+1 attempts in all) are exhausted, backing off
// between attempts with the same
// exponential-backoff-with-jitter math the teacher used for task retries
// (internal/host.BackoffPolicy).
func connectRedis(client *redis.Client, cfg *config.Config) error {
	policy := &host.BackoffPolicy{
		Initial: cfg.Redis.ConnectBackoffInitial,
		Max:     cfg.Redis.ConnectBackoffMax,
		Factor:  cfg.Redis.ConnectBackoffFactor,
		Jitter:  0.1,
	}

	var err error
	for attempt := 0; attempt <= cfg.Redis.ConnectRetries; attempt++ {
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = client.Ping(pingCtx).Err()
		cancel()
		if err == nil {
			return nil
		}
		if attempt == cfg.Redis.ConnectRetries {
			break
		}
		wait := policy.Calculate(attempt)
		logger.Get().Warn().Err(err).Int("attempt", attempt).Dur("wait", wait).Msg("redis ping failed, retrying")
		time.Sleep(wait)
	}
	return fmt.Errorf("connect to redis after %d attempts: %w", cfg.Redis.ConnectRetries+1, err)
}

// buildRegistry registers the mission-task factories available to the
// control API's spawn endpoint. Real deployments would register
// domain-specific factories at startup from a plugin or build-tag set;
// these demonstrate the wiring.
func buildRegistry() *scheduler.Registry {
	registry := scheduler.NewRegistry()

	registry.Register("sleeper", func(payload map[string]any) task.Func {
		seconds := 1.0
		if s, ok := payload["seconds"].(float64); ok {
			seconds = s
		}
		return func(ctl *task.Control) {
			ctl.WaitDuration(seconds)
		}
	})

	registry.Register("ticker", func(payload map[string]any) task.Func {
		freq := 1.0
		if f, ok := payload["freq_hz"].(float64); ok {
			freq = f
		}
		ticks := 10
		if n, ok := payload["ticks"].(float64); ok {
			ticks = int(n)
		}
		return func(ctl *task.Control) {
			rate := ctl.CreateRate(freq)
			for i := 0; i < ticks; i++ {
				ctl.Sleep(rate)
			}
		}
	})

	return registry
}
