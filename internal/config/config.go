package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/couchcryptid/geoguess-service/internal/round"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Dataset source. DataBaseURL wins over DataDir when set.
	DataBaseURL    string
	DataDir        string
	DataTimeout    time.Duration
	DataCacheSize  int
	DataCacheBytes int
	LocationsFile  string

	// Optional shared dataset cache. Disabled when Redis.Addr is empty.
	Redis RedisConfig

	// Round event sink.
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string

	Game GameConfig
}

// RedisConfig configures the shared dataset cache.
type RedisConfig struct {
	Addr      string        `env:"REDIS_ADDR"`
	Password  string        `env:"REDIS_PASSWORD"`
	DB        int           `env:"REDIS_DB"         envDefault:"0"`
	TTL       time.Duration `env:"REDIS_TTL"        envDefault:"1h"`
	KeyPrefix string        `env:"REDIS_KEY_PREFIX" envDefault:"geoguess:dataset:"`
}

// GameConfig tunes game sessions.
type GameConfig struct {
	MaxRounds            int           `env:"GAME_MAX_ROUNDS"             envDefault:"4"`
	RevealSchedule       string        `env:"GAME_REVEAL_SCHEDULE"        envDefault:"rivers:1,cities:2,elevation:3,roads:4,outline:4"`
	RotateInterval       time.Duration `env:"GAME_ROTATE_INTERVAL"        envDefault:"5m"`
	MaxRoadFeatures      int           `env:"GAME_MAX_ROAD_FEATURES"      envDefault:"4000"`
	MaxRiverFeatures     int           `env:"GAME_MAX_RIVER_FEATURES"     envDefault:"3000"`
	MaxElevationFeatures int           `env:"GAME_MAX_ELEVATION_FEATURES" envDefault:"2500"`
	FetchConcurrency     int           `env:"GAME_FETCH_CONCURRENCY"      envDefault:"5"`

	// Schedule is RevealSchedule parsed by Load.
	Schedule round.Schedule `env:"-"`
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	dataTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("DATA_TIMEOUT", "10s"))
	if err != nil || dataTimeout <= 0 {
		return nil, errors.New("invalid DATA_TIMEOUT")
	}

	dataCacheSize, err := parseNonNegative("DATA_CACHE_SIZE", 256)
	if err != nil {
		return nil, err
	}

	dataCacheBytes, err := parseNonNegative("DATA_CACHE_BYTES", 512<<20)
	if err != nil {
		return nil, err
	}

	redisCfg, err := loadRedis()
	if err != nil {
		return nil, err
	}

	game, err := loadGame()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		DataBaseURL:    os.Getenv("DATA_BASE_URL"),
		DataDir:        sharedcfg.EnvOrDefault("DATA_DIR", "data"),
		DataTimeout:    dataTimeout,
		DataCacheSize:  dataCacheSize,
		DataCacheBytes: dataCacheBytes,
		LocationsFile:  sharedcfg.EnvOrDefault("LOCATIONS_FILE", "locations.json"),
		Redis:          redisCfg,

		KafkaEnabled: os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers: sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "geoguess-rounds"),

		Game: game,
	}

	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
	}

	return cfg, nil
}

func loadRedis() (RedisConfig, error) {
	var r RedisConfig
	if err := env.Parse(&r); err != nil {
		return RedisConfig{}, fmt.Errorf("parse redis config: %w", err)
	}
	if r.DB < 0 {
		return RedisConfig{}, errors.New("invalid REDIS_DB: must not be negative")
	}
	if r.TTL < 0 {
		return RedisConfig{}, errors.New("invalid REDIS_TTL: must not be negative")
	}
	return r, nil
}

func loadGame() (GameConfig, error) {
	var g GameConfig
	if err := env.Parse(&g); err != nil {
		return GameConfig{}, fmt.Errorf("parse game config: %w", err)
	}

	if g.MaxRounds < 1 {
		return GameConfig{}, errors.New("invalid GAME_MAX_ROUNDS: must be at least 1")
	}
	if g.RotateInterval < 0 {
		return GameConfig{}, errors.New("invalid GAME_ROTATE_INTERVAL: must not be negative")
	}
	if g.FetchConcurrency < 1 {
		return GameConfig{}, errors.New("invalid GAME_FETCH_CONCURRENCY: must be at least 1")
	}
	if g.MaxRoadFeatures < 0 || g.MaxRiverFeatures < 0 || g.MaxElevationFeatures < 0 {
		return GameConfig{}, errors.New("invalid GAME_MAX_*_FEATURES: must not be negative")
	}

	sched, err := round.ParseSchedule(g.RevealSchedule)
	if err != nil {
		return GameConfig{}, fmt.Errorf("invalid GAME_REVEAL_SCHEDULE: %w", err)
	}
	g.Schedule = sched
	return g, nil
}

func parseNonNegative(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s: must be a non-negative integer", key)
	}
	return n, nil
}
