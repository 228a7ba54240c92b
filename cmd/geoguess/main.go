package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"

	"github.com/couchcryptid/geoguess-service/internal/adapter/dataset"
	httpadapter "github.com/couchcryptid/geoguess-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/geoguess-service/internal/adapter/kafka"
	"github.com/couchcryptid/geoguess-service/internal/config"
	"github.com/couchcryptid/geoguess-service/internal/domain"
	"github.com/couchcryptid/geoguess-service/internal/game"
	"github.com/couchcryptid/geoguess-service/internal/layer"
	"github.com/couchcryptid/geoguess-service/internal/loader"
	"github.com/couchcryptid/geoguess-service/internal/observability"
	"github.com/couchcryptid/geoguess-service/internal/round"
)

func main() {
	// A local .env is optional; real environment variables take precedence.
	_ = godotenv.Load(".env")

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Dataset source: HTTP when DATA_BASE_URL is set, otherwise the local data directory.
	var fetcher domain.DatasetFetcher
	if cfg.DataBaseURL != "" {
		fetcher = dataset.NewClient(cfg.DataBaseURL, cfg.DataTimeout, logger)
		logger.Info("datasets served over http", "base_url", cfg.DataBaseURL, "timeout", cfg.DataTimeout)
	} else {
		fetcher = dataset.NewDir(os.DirFS(cfg.DataDir))
		logger.Info("datasets served from directory", "dir", cfg.DataDir)
	}
	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn("shared dataset cache unreachable, continuing", "addr", cfg.Redis.Addr, "error", err)
		}
		fetcher = dataset.NewRedisFetcher(fetcher, redisClient, cfg.Redis.KeyPrefix, cfg.Redis.TTL, logger, metrics)
		logger.Info("shared dataset cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.TTL)
	}
	if cfg.DataCacheSize > 0 {
		fetcher = dataset.NewCachedFetcher(fetcher, cfg.DataCacheSize, cfg.DataCacheBytes, metrics)
	}

	catalog, err := loader.LoadCatalog(ctx, fetcher, cfg.LocationsFile)
	if err != nil {
		logger.Error("failed to load location catalog", "error", err)
		os.Exit(1)
	}
	logger.Info("location catalog loaded", "locations", catalog.Len())

	// Round event sink (feature-flagged via KAFKA_ENABLED).
	var publisher domain.EventPublisher = domain.NopPublisher{}
	var kafkaPublisher *kafkaadapter.Publisher
	if cfg.KafkaEnabled {
		kafkaPublisher = kafkaadapter.NewPublisher(cfg, logger, metrics)
		publisher = kafkaPublisher
		logger.Info("round events enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	} else {
		logger.Info("round events disabled")
	}

	deps := game.Deps{
		Catalog:   catalog,
		Loader:    loader.New(fetcher, loader.Config{Concurrency: cfg.Game.FetchConcurrency}, logger, metrics),
		Publisher: publisher,
		Clock:     clockwork.NewRealClock(),
		Logger:    logger,
		Metrics:   metrics,
	}
	gameCfg := game.DefaultConfig()
	gameCfg.Round = round.Config{MaxRounds: cfg.Game.MaxRounds, Schedule: cfg.Game.Schedule}
	gameCfg.Limits = layer.Limits{
		Roads:     cfg.Game.MaxRoadFeatures,
		Rivers:    cfg.Game.MaxRiverFeatures,
		Elevation: cfg.Game.MaxElevationFeatures,
	}
	gameCfg.RotateInterval = cfg.Game.RotateInterval

	registry := game.NewRegistry(deps, gameCfg)
	srv := httpadapter.NewServer(cfg.HTTPAddr, registry, registry, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	registry.Close()
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error("redis close error", "error", err)
		}
	}
	if kafkaPublisher != nil {
		if err := kafkaPublisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
