package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://api.weather.gov", cfg.NWSBaseURL)
	assert.Equal(t, "storm-alert-polygons (ops@example.com)", cfg.NWSUserAgent)
	assert.Equal(t, 10*time.Second, cfg.NWSTimeout)
	assert.Equal(t, 3, cfg.NWSRetryMax)
	assert.InDelta(t, 5.0, cfg.NWSRateLimit, 0)
	assert.Equal(t, "c_02jn20.shp", cfg.ZoneShapefile)
	assert.Equal(t, "FIPS", cfg.ZoneIDField)
	assert.Equal(t, 2000, cfg.ZoneCacheSize)
	assert.Empty(t, cfg.RedisURL)
	assert.False(t, cfg.RedisEnabled())
	assert.Equal(t, 24*time.Hour, cfg.ZoneCacheTTL)
	assert.Empty(t, cfg.SeverityTable)
	assert.Empty(t, cfg.RegionCatalog)
	assert.Equal(t, 1, cfg.ResolveWorkers)
	assert.Equal(t, "out", cfg.OutputDir)
	assert.True(t, cfg.FileSinkEnabled())
	assert.Empty(t, cfg.KafkaBrokers)
	assert.False(t, cfg.KafkaEnabled())
	assert.Equal(t, "alert-polygons", cfg.KafkaTopic)
	assert.Equal(t, time.Duration(0), cfg.RunInterval)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("NWS_BASE_URL", "http://localhost:8081")
	t.Setenv("NWS_USER_AGENT", "custom-agent")
	t.Setenv("NWS_TIMEOUT", "3s")
	t.Setenv("NWS_RETRY_MAX", "0")
	t.Setenv("NWS_RATE_LIMIT", "0.5")
	t.Setenv("ZONE_SHAPEFILE", "/data/zones.shp")
	t.Setenv("ZONE_ID_FIELD", "STATE_ZONE")
	t.Setenv("ZONE_CACHE_SIZE", "500")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("ZONE_CACHE_TTL", "6h")
	t.Setenv("SEVERITY_TABLE", "/etc/polygons/severity.yaml")
	t.Setenv("REGION_CATALOG", "/etc/polygons/regions.yaml")
	t.Setenv("RESOLVE_WORKERS", "8")
	t.Setenv("OUTPUT_DIR", "/var/lib/polygons")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_TOPIC", "custom-topic")
	t.Setenv("RUN_INTERVAL", "5m")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8081", cfg.NWSBaseURL)
	assert.Equal(t, "custom-agent", cfg.NWSUserAgent)
	assert.Equal(t, 3*time.Second, cfg.NWSTimeout)
	assert.Equal(t, 0, cfg.NWSRetryMax)
	assert.InDelta(t, 0.5, cfg.NWSRateLimit, 0)
	assert.Equal(t, "/data/zones.shp", cfg.ZoneShapefile)
	assert.Equal(t, "STATE_ZONE", cfg.ZoneIDField)
	assert.Equal(t, 500, cfg.ZoneCacheSize)
	assert.True(t, cfg.RedisEnabled())
	assert.Equal(t, 6*time.Hour, cfg.ZoneCacheTTL)
	assert.Equal(t, "/etc/polygons/severity.yaml", cfg.SeverityTable)
	assert.Equal(t, "/etc/polygons/regions.yaml", cfg.RegionCatalog)
	assert.Equal(t, 8, cfg.ResolveWorkers)
	assert.Equal(t, "/var/lib/polygons", cfg.OutputDir)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.KafkaEnabled())
	assert.Equal(t, "custom-topic", cfg.KafkaTopic)
	assert.Equal(t, 5*time.Minute, cfg.RunInterval)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"NWS_TIMEOUT", "bad"},
		{"NWS_TIMEOUT", "0s"},
		{"NWS_RETRY_MAX", "-1"},
		{"NWS_RETRY_MAX", "three"},
		{"NWS_RATE_LIMIT", "-2"},
		{"ZONE_CACHE_TTL", "forever"},
		{"RUN_INTERVAL", "-1m"},
		{"RESOLVE_WORKERS", "0"},
		{"RESOLVE_WORKERS", "many"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestLoad_InvalidZoneCacheSizeFallsBack(t *testing.T) {
	t.Setenv("ZONE_CACHE_SIZE", "-5")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 2000, cfg.ZoneCacheSize)
}

func TestLoad_EmptyOutputDirDisablesFileSink(t *testing.T) {
	t.Setenv("OUTPUT_DIR", "")
	t.Setenv("KAFKA_BROKERS", "broker1:9092")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.OutputDir)
	assert.False(t, cfg.FileSinkEnabled())
	assert.True(t, cfg.KafkaEnabled())
}

func TestLoad_NeedsASink(t *testing.T) {
	t.Setenv("OUTPUT_DIR", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OUTPUT_DIR or KAFKA_BROKERS")
}
