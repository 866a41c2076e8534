package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	// NWS API client.
	NWSBaseURL   string
	NWSUserAgent string
	NWSTimeout   time.Duration
	NWSRetryMax  int
	NWSRateLimit float64

	// Zone reference data and caches.
	ZoneShapefile string
	ZoneIDField   string
	ZoneCacheSize int
	RedisURL      string
	ZoneCacheTTL  time.Duration

	// Optional reference table overrides; empty means built-in defaults.
	SeverityTable string
	RegionCatalog string

	ResolveWorkers int

	// Output sinks.
	OutputDir    string
	KafkaBrokers []string
	KafkaTopic   string

	RunInterval     time.Duration // 0 runs once and exits
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	nwsTimeout, err := parseDuration("NWS_TIMEOUT", "10s")
	if err != nil || nwsTimeout <= 0 {
		return nil, errors.New("invalid NWS_TIMEOUT")
	}

	cacheTTL, err := parseDuration("ZONE_CACHE_TTL", "24h")
	if err != nil || cacheTTL <= 0 {
		return nil, errors.New("invalid ZONE_CACHE_TTL")
	}

	runInterval, err := parseDuration("RUN_INTERVAL", "0")
	if err != nil || runInterval < 0 {
		return nil, errors.New("invalid RUN_INTERVAL")
	}

	retryMax, err := strconv.Atoi(sharedcfg.EnvOrDefault("NWS_RETRY_MAX", "3"))
	if err != nil || retryMax < 0 {
		return nil, errors.New("invalid NWS_RETRY_MAX")
	}

	rateLimit, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("NWS_RATE_LIMIT", "5"), 64)
	if err != nil || rateLimit < 0 {
		return nil, errors.New("invalid NWS_RATE_LIMIT")
	}

	workers, err := strconv.Atoi(sharedcfg.EnvOrDefault("RESOLVE_WORKERS", "1"))
	if err != nil || workers < 1 {
		return nil, errors.New("invalid RESOLVE_WORKERS")
	}

	var brokers []string
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		brokers = sharedcfg.ParseBrokers(v)
	}

	cfg := &Config{
		NWSBaseURL:   sharedcfg.EnvOrDefault("NWS_BASE_URL", "https://api.weather.gov"),
		NWSUserAgent: sharedcfg.EnvOrDefault("NWS_USER_AGENT", "storm-alert-polygons (ops@example.com)"),
		NWSTimeout:   nwsTimeout,
		NWSRetryMax:  retryMax,
		NWSRateLimit: rateLimit,

		ZoneShapefile: sharedcfg.EnvOrDefault("ZONE_SHAPEFILE", "c_02jn20.shp"),
		ZoneIDField:   sharedcfg.EnvOrDefault("ZONE_ID_FIELD", "FIPS"),
		ZoneCacheSize: parseZoneCacheSize(),
		RedisURL:      os.Getenv("REDIS_URL"),
		ZoneCacheTTL:  cacheTTL,

		SeverityTable: os.Getenv("SEVERITY_TABLE"),
		RegionCatalog: os.Getenv("REGION_CATALOG"),

		ResolveWorkers: workers,

		OutputDir:    outputDir(),
		KafkaBrokers: brokers,
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "alert-polygons"),

		RunInterval:     runInterval,
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
	}

	if cfg.NWSUserAgent == "" {
		return nil, errors.New("NWS_USER_AGENT is required")
	}
	if cfg.ZoneShapefile == "" {
		return nil, errors.New("ZONE_SHAPEFILE is required")
	}
	if !cfg.FileSinkEnabled() && !cfg.KafkaEnabled() {
		return nil, errors.New("OUTPUT_DIR or KAFKA_BROKERS is required")
	}
	if cfg.KafkaEnabled() && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

// FileSinkEnabled reports whether GeoJSON documents are written to OutputDir.
func (c *Config) FileSinkEnabled() bool { return c.OutputDir != "" }

// KafkaEnabled reports whether the Kafka sink is configured.
func (c *Config) KafkaEnabled() bool { return len(c.KafkaBrokers) > 0 }

// RedisEnabled reports whether the shared zone cache is configured.
func (c *Config) RedisEnabled() bool { return c.RedisURL != "" }

func parseDuration(key, def string) (time.Duration, error) {
	return time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
}

func parseZoneCacheSize() int {
	if s := os.Getenv("ZONE_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 2000
}

// outputDir defaults to "out" only when OUTPUT_DIR is unset. An explicitly
// empty OUTPUT_DIR disables the file sink.
func outputDir() string {
	if v, ok := os.LookupEnv("OUTPUT_DIR"); ok {
		return v
	}
	return "out"
}
