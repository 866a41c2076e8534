package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/storm-alert-polygons/internal/accumulate"
	"github.com/couchcryptid/storm-alert-polygons/internal/domain"
	"github.com/couchcryptid/storm-alert-polygons/internal/observability"
)

// AlertSource lists the currently active alerts.
type AlertSource interface {
	FetchActiveAlerts(ctx context.Context) ([]domain.Alert, error)
}

// SeverityClassifier maps an event label to a display color.
type SeverityClassifier interface {
	ColorFor(label string) (domain.Color, error)
}

// GeometryResolver turns an alert into polygons. An empty result means the
// alert could not be located.
type GeometryResolver interface {
	Resolve(ctx context.Context, alert domain.Alert) []domain.ResolvedPolygon
}

// RegionClassifier names the regions that fully contain a polygon.
type RegionClassifier interface {
	Classify(p domain.ResolvedPolygon) []string
}

// Sink receives the finished map of a run.
type Sink interface {
	Publish(ctx context.Context, m domain.AlertMap) error
}

// Stages groups the per-alert processing steps.
type Stages struct {
	Severity SeverityClassifier
	Resolver GeometryResolver
	Regions  RegionClassifier
	Catalog  accumulate.Catalog
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithClock sets the clock used for ValidAt and the run loop.
func WithClock(c clockwork.Clock) Option {
	return func(p *Pipeline) { p.clock = c }
}

// WithWorkers sets how many alerts are resolved concurrently.
func WithWorkers(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

// Pipeline orchestrates one fetch-resolve-publish run, or a loop of them.
type Pipeline struct {
	source  AlertSource
	stages  Stages
	sink    Sink
	logger  *slog.Logger
	metrics *observability.Metrics
	clock   clockwork.Clock
	workers int

	ready atomic.Bool
	last  atomic.Pointer[Summary]
}

// New creates a Pipeline with the given stages and observability.
func New(source AlertSource, stages Stages, sink Sink, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Pipeline {
	p := &Pipeline{
		source:  source,
		stages:  stages,
		sink:    sink,
		logger:  logger,
		metrics: metrics,
		clock:   clockwork.NewRealClock(),
		workers: 1,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// CheckReadiness returns nil once a run has completed successfully, or an
// error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not completed a run yet")
	}
	return nil
}

// LastSummary returns the summary of the most recent successful run.
func (p *Pipeline) LastSummary() (Summary, bool) {
	s := p.last.Load()
	if s == nil {
		return Summary{}, false
	}
	return *s, true
}

// RunOnce fetches the active alerts, resolves and classifies each one, and
// publishes the resulting map. A failure of one alert never fails the run;
// only the alert fetch, cancellation or the sink can.
func (p *Pipeline) RunOnce(ctx context.Context) (domain.AlertMap, error) {
	start := p.clock.Now()

	alerts, err := p.source.FetchActiveAlerts(ctx)
	if err != nil {
		p.metrics.RunFailures.Inc()
		return domain.AlertMap{}, fmt.Errorf("fetch alerts: %w", err)
	}
	p.metrics.AlertsProcessed.Add(float64(len(alerts)))
	p.logger.Info("processing active alerts", "count", len(alerts), "workers", p.workers)

	results := make([]alertResult, len(alerts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i := range alerts {
		g.Go(func() error {
			results[i] = p.processAlert(gctx, alerts[i])
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return domain.AlertMap{}, err
	}

	acc := accumulate.New(p.stages.Catalog)
	summary := Summary{Alerts: len(alerts)}
	for i, r := range results {
		if r.dropped != "" {
			summary.Dropped++
			continue
		}
		if err := acc.RecordAlert(r.entries); err != nil {
			p.logger.Error("record alert failed", "alert_id", alerts[i].ID, "error", err)
			summary.Dropped++
			continue
		}
		for _, e := range r.entries {
			p.metrics.TuplesRecorded.Add(float64(len(e.Regions)))
		}
	}

	m := acc.Finalize(start)
	if err := p.sink.Publish(ctx, m); err != nil {
		p.metrics.RunFailures.Inc()
		return m, fmt.Errorf("publish: %w", err)
	}

	summary.fill(m)
	p.last.Store(&summary)
	p.ready.Store(true)
	p.metrics.RunDuration.Observe(p.clock.Since(start).Seconds())
	p.metrics.LastRunTimestamp.Set(float64(start.Unix()))
	p.logger.Info("run complete",
		"alerts", summary.Alerts,
		"dropped", summary.Dropped,
		"polygons", summary.Polygons,
		"regions", len(m.Regions),
	)
	return m, nil
}

// Run executes RunOnce every interval until the context is cancelled. Failed
// runs are retried with exponential backoff, never waiting longer than the
// interval.
func (p *Pipeline) Run(ctx context.Context, interval time.Duration) error {
	p.logger.Info("pipeline started", "interval", interval)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	backoff := initialBackoff
	for {
		wait := interval
		if _, err := p.RunOnce(ctx); err != nil {
			if ctx.Err() != nil {
				p.logger.Info("pipeline stopping", "reason", ctx.Err())
				return nil
			}
			wait = min(backoff, interval)
			p.logger.Error("run failed", "error", err, "retry_in", wait)
			backoff = nextBackoff(backoff, maxBackoff)
		} else {
			backoff = initialBackoff
		}

		if !p.sleep(ctx, wait) {
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		}
	}
}

const (
	initialBackoff = time.Second
	maxBackoff     = time.Minute
)

func nextBackoff(current, limit time.Duration) time.Duration {
	next := current * 2
	if next > limit {
		return limit
	}
	return next
}

func (p *Pipeline) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	select {
	case <-ctx.Done():
		return false
	case <-p.clock.After(d):
		return true
	}
}
