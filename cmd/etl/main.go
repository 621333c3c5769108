package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	httpadapter "github.com/floodline/hazard-etl/internal/adapter/http"
	kafkaadapter "github.com/floodline/hazard-etl/internal/adapter/kafka"
	"github.com/floodline/hazard-etl/internal/adapter/postgres"
	"github.com/floodline/hazard-etl/internal/archive"
	"github.com/floodline/hazard-etl/internal/config"
	"github.com/floodline/hazard-etl/internal/observability"
	"github.com/floodline/hazard-etl/internal/pipeline"
	"github.com/floodline/hazard-etl/internal/tracker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)
	decoder := pipeline.NewDecoder(cfg, logger, metrics, nil)

	p := pipeline.New(reader, decoder, writer, logger, metrics, cfg.BatchSize, cfg.DecodeWorkers)

	// Event tracking: Redis-backed when configured, in-memory otherwise so
	// the /events endpoint always works.
	var trk *tracker.Tracker
	if cfg.TrackerEnabled() {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Error("redis unreachable", "addr", cfg.RedisAddr, "error", err)
			os.Exit(1)
		}
		defer client.Close()
		trk = tracker.New(tracker.NewRedisStore(client, cfg.TrackerTTL))
		logger.Info("event tracker using redis", "addr", cfg.RedisAddr, "ttl", cfg.TrackerTTL)
	} else {
		trk = tracker.New(tracker.NewMemoryStore())
		logger.Info("event tracker using in-memory store")
	}
	p.AddSink(pipeline.NewTrackerSink(trk, metrics))

	if cfg.ProductStoreEnabled() {
		store, err := postgres.Connect(cfg.PostgresDSN, logger)
		if err != nil {
			logger.Error("postgres connect failed", "error", err)
			os.Exit(1)
		}
		defer store.Close()
		p.AddSink(store)
		logger.Info("product store enabled")
	}

	if cfg.ArchiveEnabled() {
		arc, err := archive.New(ctx, cfg.ArchiveBucket, cfg.ArchiveEndpoint, logger, metrics)
		if err != nil {
			logger.Error("archive init failed", "error", err)
			os.Exit(1)
		}
		p.SetArchiver(arc)
		logger.Info("raw bulletin archiving enabled", "bucket", cfg.ArchiveBucket)
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, trk, nil, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start ETL pipeline.
	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}

	logger.Info("shutdown complete")
}
