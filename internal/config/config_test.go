package config

import (
	"testing"
	"time"

	"github.com/couchcryptid/geoguess-service/internal/round"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const defaultBroker = "localhost:9092"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)

	assert.Empty(t, cfg.DataBaseURL)
	assert.Equal(t, "data", cfg.DataDir)
	assert.Equal(t, 10*time.Second, cfg.DataTimeout)
	assert.Equal(t, 256, cfg.DataCacheSize)
	assert.Equal(t, 512<<20, cfg.DataCacheBytes)
	assert.Equal(t, "locations.json", cfg.LocationsFile)

	assert.Empty(t, cfg.Redis.Addr)
	assert.Equal(t, 0, cfg.Redis.DB)
	assert.Equal(t, time.Hour, cfg.Redis.TTL)
	assert.Equal(t, "geoguess:dataset:", cfg.Redis.KeyPrefix)

	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{defaultBroker}, cfg.KafkaBrokers)
	assert.Equal(t, "geoguess-rounds", cfg.KafkaTopic)

	assert.Equal(t, 4, cfg.Game.MaxRounds)
	assert.Equal(t, round.DefaultSchedule(), cfg.Game.Schedule)
	assert.Equal(t, 5*time.Minute, cfg.Game.RotateInterval)
	assert.Equal(t, 4000, cfg.Game.MaxRoadFeatures)
	assert.Equal(t, 3000, cfg.Game.MaxRiverFeatures)
	assert.Equal(t, 2500, cfg.Game.MaxElevationFeatures)
	assert.Equal(t, 5, cfg.Game.FetchConcurrency)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("DATA_BASE_URL", "https://cdn.example.com/geoguess")
	t.Setenv("DATA_DIR", "/srv/data")
	t.Setenv("DATA_TIMEOUT", "3s")
	t.Setenv("DATA_CACHE_SIZE", "0")
	t.Setenv("LOCATIONS_FILE", "countries.json")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_TOPIC", "custom-rounds")
	t.Setenv("GAME_MAX_ROUNDS", "6")
	t.Setenv("GAME_REVEAL_SCHEDULE", "outline:1,rivers:2")
	t.Setenv("GAME_ROTATE_INTERVAL", "90s")
	t.Setenv("GAME_MAX_ROAD_FEATURES", "100")
	t.Setenv("GAME_FETCH_CONCURRENCY", "2")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "https://cdn.example.com/geoguess", cfg.DataBaseURL)
	assert.Equal(t, "/srv/data", cfg.DataDir)
	assert.Equal(t, 3*time.Second, cfg.DataTimeout)
	assert.Equal(t, 0, cfg.DataCacheSize)
	assert.Equal(t, "countries.json", cfg.LocationsFile)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-rounds", cfg.KafkaTopic)
	assert.Equal(t, 6, cfg.Game.MaxRounds)
	assert.Equal(t, round.Schedule{"outline": 1, "rivers": 2}, cfg.Game.Schedule)
	assert.Equal(t, 90*time.Second, cfg.Game.RotateInterval)
	assert.Equal(t, 100, cfg.Game.MaxRoadFeatures)
	assert.Equal(t, 2, cfg.Game.FetchConcurrency)
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_InvalidDataTimeout(t *testing.T) {
	t.Setenv("DATA_TIMEOUT", "-1s")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATA_TIMEOUT")
}

func TestLoad_InvalidDataCacheSize(t *testing.T) {
	t.Setenv("DATA_CACHE_SIZE", "lots")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATA_CACHE_SIZE")
}

func TestLoad_Redis(t *testing.T) {
	t.Setenv("REDIS_ADDR", "cache:6379")
	t.Setenv("REDIS_PASSWORD", "secret")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("REDIS_TTL", "15m")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, RedisConfig{
		Addr:      "cache:6379",
		Password:  "secret",
		DB:        2,
		TTL:       15 * time.Minute,
		KeyPrefix: "geoguess:dataset:",
	}, cfg.Redis)
}

func TestLoad_InvalidRedis(t *testing.T) {
	tests := []struct {
		key, value, want string
	}{
		{"REDIS_DB", "-1", "REDIS_DB"},
		{"REDIS_TTL", "-1m", "REDIS_TTL"},
		{"REDIS_TTL", "soon", "parse redis config"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_KafkaEnabledWithoutBrokers(t *testing.T) {
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", " , ")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KAFKA_BROKERS")
}

func TestLoad_InvalidMaxRounds(t *testing.T) {
	t.Setenv("GAME_MAX_ROUNDS", "0")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GAME_MAX_ROUNDS")
}

func TestLoad_UnparsableMaxRounds(t *testing.T) {
	t.Setenv("GAME_MAX_ROUNDS", "four")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse game config")
	assert.Contains(t, err.Error(), "MaxRounds")
}

func TestLoad_InvalidRevealSchedule(t *testing.T) {
	t.Setenv("GAME_REVEAL_SCHEDULE", "volcanoes:1")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GAME_REVEAL_SCHEDULE")
}

func TestLoad_InvalidRotateInterval(t *testing.T) {
	t.Setenv("GAME_ROTATE_INTERVAL", "-5m")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GAME_ROTATE_INTERVAL")
}

func TestLoad_ZeroRotateIntervalDisablesRotation(t *testing.T) {
	t.Setenv("GAME_ROTATE_INTERVAL", "0s")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Zero(t, cfg.Game.RotateInterval)
}

func TestLoad_InvalidFetchConcurrency(t *testing.T) {
	t.Setenv("GAME_FETCH_CONCURRENCY", "0")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GAME_FETCH_CONCURRENCY")
}
