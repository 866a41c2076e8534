// Command polygons fetches the active NWS alerts, resolves each alert to
// polygons, groups them by region and publishes GeoJSON maps. With
// RUN_INTERVAL unset it runs once and exits; otherwise it loops and serves
// health, status, and metrics endpoints.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	filesink "github.com/couchcryptid/storm-alert-polygons/internal/adapter/file"
	httpadapter "github.com/couchcryptid/storm-alert-polygons/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/storm-alert-polygons/internal/adapter/kafka"
	"github.com/couchcryptid/storm-alert-polygons/internal/adapter/nws"
	redisadapter "github.com/couchcryptid/storm-alert-polygons/internal/adapter/redis"
	"github.com/couchcryptid/storm-alert-polygons/internal/config"
	"github.com/couchcryptid/storm-alert-polygons/internal/domain"
	"github.com/couchcryptid/storm-alert-polygons/internal/observability"
	"github.com/couchcryptid/storm-alert-polygons/internal/pipeline"
	"github.com/couchcryptid/storm-alert-polygons/internal/region"
	"github.com/couchcryptid/storm-alert-polygons/internal/resolve"
	"github.com/couchcryptid/storm-alert-polygons/internal/severity"
	"github.com/couchcryptid/storm-alert-polygons/internal/zone"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	if err := run(cfg, logger); err != nil {
		logger.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	metrics := observability.NewMetrics()

	dataset, err := zone.LoadShapefile(cfg.ZoneShapefile, cfg.ZoneIDField, logger)
	if err != nil {
		return err
	}
	table, err := loadSeverityTable(cfg.SeverityTable)
	if err != nil {
		return err
	}
	catalog, err := loadCatalog(cfg.RegionCatalog)
	if err != nil {
		return err
	}
	logger.Info("reference data loaded",
		"zones", dataset.Len(),
		"severity_entries", table.Len(),
		"regions", len(catalog.Names()),
	)

	client := nws.NewClient(nws.Options{
		BaseURL:   cfg.NWSBaseURL,
		UserAgent: cfg.NWSUserAgent,
		Timeout:   cfg.NWSTimeout,
		RetryMax:  cfg.NWSRetryMax,
		RateLimit: cfg.NWSRateLimit,
	}, metrics, logger)

	// Zone lookups go memory LRU -> Redis (optional) -> NWS API.
	var fetcher domain.ZoneFetcher = client
	if cfg.RedisEnabled() {
		rc, err := redisadapter.NewClient(cfg.RedisURL)
		if err != nil {
			return err
		}
		cache := redisadapter.NewZoneCache(rc, client, cfg.ZoneCacheTTL, metrics, logger)
		defer cache.Close()
		if err := cache.Ping(context.Background()); err != nil {
			logger.Warn("redis zone cache unreachable, continuing without it until it recovers", "error", err)
		}
		fetcher = cache
		logger.Info("redis zone cache enabled", "ttl", cfg.ZoneCacheTTL)
	}
	fetcher = nws.NewCachedZoneFetcher(fetcher, cfg.ZoneCacheSize, metrics)

	var sinks pipeline.FanOut
	if cfg.FileSinkEnabled() {
		sinks = append(sinks, filesink.NewWriter(cfg.OutputDir, logger))
		logger.Info("file sink enabled", "dir", cfg.OutputDir)
	}
	if cfg.KafkaEnabled() {
		writer := kafkaadapter.NewWriter(cfg, logger)
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		sinks = append(sinks, writer)
		logger.Info("kafka sink enabled", "topic", cfg.KafkaTopic)
	}

	p := pipeline.New(client, pipeline.Stages{
		Severity: severity.NewClassifier(table),
		Resolver: resolve.New(dataset, fetcher, logger, metrics),
		Regions:  region.NewClassifier(catalog),
		Catalog:  catalog,
	}, sinks, logger, metrics, pipeline.WithWorkers(cfg.ResolveWorkers))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.RunInterval == 0 {
		_, err := p.RunOnce(ctx)
		return err
	}
	return serve(ctx, cfg, p, logger)
}

func serve(ctx context.Context, cfg *config.Config, p *pipeline.Pipeline, logger *slog.Logger) error {
	srv := httpadapter.NewServer(cfg.HTTPAddr, p, p, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start run loop.
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := p.Run(ctx, cfg.RunInterval); err != nil {
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
	select {
	case <-done:
	case <-shutdownCtx.Done():
		logger.Warn("run still in progress at shutdown deadline")
	}

	logger.Info("shutdown complete")
	return nil
}

func loadSeverityTable(path string) (*severity.Table, error) {
	if path == "" {
		return severity.DefaultTable(), nil
	}
	t, err := severity.LoadTable(path)
	if err != nil {
		return nil, fmt.Errorf("severity table: %w", err)
	}
	return t, nil
}

func loadCatalog(path string) (*region.Catalog, error) {
	if path == "" {
		return region.DefaultCatalog(), nil
	}
	c, err := region.LoadCatalog(path)
	if err != nil {
		return nil, fmt.Errorf("region catalog: %w", err)
	}
	return c, nil
}
