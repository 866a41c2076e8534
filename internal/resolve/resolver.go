// Package resolve turns an alert into concrete polygons using an ordered chain
// of strategies: inline geocode join first, then affected-zone lookups.
package resolve

import (
	"context"
	"log/slog"

	"github.com/twpayne/go-geom"

	"github.com/couchcryptid/storm-alert-polygons/internal/domain"
	"github.com/couchcryptid/storm-alert-polygons/internal/observability"
)

// ZoneDataset looks up reference polygons by zone identifier.
type ZoneDataset interface {
	Lookup(id string) (*geom.MultiPolygon, bool)
}

// Result is the outcome of one strategy: polygons on success, a typed failure
// otherwise.
type Result struct {
	Polygons []domain.ResolvedPolygon
	Failure  *ResolutionError
}

// OK reports whether the strategy succeeded.
func (r Result) OK() bool { return r.Failure == nil }

func success(polygons []domain.ResolvedPolygon) Result {
	return Result{Polygons: polygons}
}

func failure(strategy string, tier domain.Tier, reason Reason, err error) Result {
	return Result{Failure: &ResolutionError{Strategy: strategy, Tier: tier, Reason: reason, Err: err}}
}

// Strategy is one tier of the fallback chain.
type Strategy interface {
	Name() string
	Resolve(ctx context.Context, alert domain.Alert) Result
}

// Resolver runs strategies in order until one succeeds.
type Resolver struct {
	strategies []Strategy
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewResolver creates a Resolver trying the strategies in the given order.
func NewResolver(logger *slog.Logger, metrics *observability.Metrics, strategies ...Strategy) *Resolver {
	return &Resolver{
		strategies: strategies,
		logger:     logger,
		metrics:    metrics,
	}
}

// New wires the standard chain: geocode join against the dataset, then
// affected zones through the fetcher.
func New(dataset ZoneDataset, fetcher domain.ZoneFetcher, logger *slog.Logger, metrics *observability.Metrics) *Resolver {
	return NewResolver(logger, metrics,
		NewGeocodeJoin(dataset),
		NewAffectedZones(fetcher, logger, metrics),
	)
}

// Resolve returns the polygons for an alert, or nil when every strategy
// failed. Missing geometry is common in the NWS feed, so failures are only
// logged at debug level.
func (r *Resolver) Resolve(ctx context.Context, alert domain.Alert) []domain.ResolvedPolygon {
	for _, s := range r.strategies {
		res := s.Resolve(ctx, alert)
		if res.OK() {
			r.metrics.Resolutions.WithLabelValues(s.Name(), "success").Inc()
			for _, p := range res.Polygons {
				r.metrics.PolygonsResolved.WithLabelValues(p.Tier.String()).Inc()
			}
			return res.Polygons
		}

		r.metrics.Resolutions.WithLabelValues(s.Name(), "failure").Inc()
		r.logger.Debug("resolution strategy failed",
			"alert_id", alert.ID,
			"event", alert.Event,
			"strategy", s.Name(),
			"reason", string(res.Failure.Reason),
			"error", res.Failure.Err,
		)
	}

	r.logger.Debug("alert geometry unresolved, skipping",
		"alert_id", alert.ID,
		"event", alert.Event,
	)
	return nil
}
