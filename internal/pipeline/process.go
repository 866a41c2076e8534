package pipeline

import (
	"context"
	"errors"

	"github.com/couchcryptid/storm-alert-polygons/internal/accumulate"
	"github.com/couchcryptid/storm-alert-polygons/internal/domain"
	"github.com/couchcryptid/storm-alert-polygons/internal/severity"
)

const (
	dropUnknownSeverity = "unknown_severity"
	dropUnresolved      = "unresolved"
)

type alertResult struct {
	entries []accumulate.Entry
	dropped string
}

// processAlert classifies severity before resolving geometry, so an alert
// with an unknown label never triggers zone fetches.
func (p *Pipeline) processAlert(ctx context.Context, alert domain.Alert) alertResult {
	color, err := p.stages.Severity.ColorFor(alert.Event)
	if err != nil {
		if errors.Is(err, severity.ErrUnknownSeverity) {
			p.logger.Error("unknown severity label, dropping alert",
				"alert_id", alert.ID,
				"event", alert.Event,
			)
		} else {
			p.logger.Error("severity lookup failed, dropping alert",
				"alert_id", alert.ID,
				"error", err,
			)
		}
		p.metrics.AlertsDropped.WithLabelValues(dropUnknownSeverity).Inc()
		return alertResult{dropped: dropUnknownSeverity}
	}

	polygons := p.stages.Resolver.Resolve(ctx, alert)
	if len(polygons) == 0 {
		p.metrics.AlertsDropped.WithLabelValues(dropUnresolved).Inc()
		return alertResult{dropped: dropUnresolved}
	}

	entries := make([]accumulate.Entry, 0, len(polygons))
	for _, poly := range polygons {
		entries = append(entries, accumulate.Entry{
			Polygon: poly,
			Event:   alert.Event,
			Color:   color,
			Regions: p.stages.Regions.Classify(poly),
		})
	}
	return alertResult{entries: entries}
}
