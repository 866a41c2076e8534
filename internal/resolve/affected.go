package resolve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/couchcryptid/storm-alert-polygons/internal/domain"
	"github.com/couchcryptid/storm-alert-polygons/internal/observability"
)

// AffectedZones resolves an alert by fetching the geometry of every zone it
// lists as affected. Direct polygons are tier 2; polygons found inside a
// geometry collection are tier 3.
type AffectedZones struct {
	fetcher domain.ZoneFetcher
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewAffectedZones creates the tier-2/3 strategy.
func NewAffectedZones(fetcher domain.ZoneFetcher, logger *slog.Logger, metrics *observability.Metrics) *AffectedZones {
	return &AffectedZones{fetcher: fetcher, logger: logger, metrics: metrics}
}

func (a *AffectedZones) Name() string { return "affected_zones" }

// Resolve skips zones that cannot be parsed, fetched or decoded. The strategy
// fails only when no zone yields a polygon.
func (a *AffectedZones) Resolve(ctx context.Context, alert domain.Alert) Result {
	if len(alert.AffectedZones) == 0 {
		return failure(a.Name(), domain.TierAffectedZone, ReasonNoAffectedZones, errNoAffectedZones)
	}

	var (
		polygons []domain.ResolvedPolygon
		errs     []error
	)
	for _, ref := range alert.AffectedZones {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		zoneType, zoneID, err := ParseZoneReference(ref)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		g, err := a.fetcher.FetchZone(ctx, zoneType, zoneID)
		if err != nil {
			errs = append(errs, fmt.Errorf("fetch zone %s/%s: %w", zoneType, zoneID, err))
			continue
		}

		d := decomposer{zoneID: zoneID}
		if err := d.geometry(g, domain.TierAffectedZone); err != nil {
			errs = append(errs, fmt.Errorf("zone %s: %w", zoneID, err))
			continue
		}
		if len(d.malformed) > 0 {
			a.metrics.MalformedRings.Add(float64(len(d.malformed)))
			a.logger.Debug("skipped malformed zone rings",
				"alert_id", alert.ID,
				"zone_id", zoneID,
				"count", len(d.malformed),
				"error", errors.Join(d.malformed...),
			)
		}
		polygons = append(polygons, d.polygons...)
	}

	if len(polygons) > 0 {
		if len(errs) > 0 {
			a.logger.Debug("some affected zones skipped",
				"alert_id", alert.ID,
				"skipped", len(errs),
				"error", errors.Join(errs...),
			)
		}
		return success(polygons)
	}
	if len(errs) > 0 {
		return failure(a.Name(), domain.TierAffectedZone, ReasonZoneFetch, errors.Join(errs...))
	}
	return failure(a.Name(), domain.TierAffectedZone, ReasonNoPolygons, errNoPolygons)
}

// ParseZoneReference extracts the zone type and id from the last two path
// segments of a zone link such as
// "https://api.weather.gov/zones/forecast/CAZ041".
func ParseZoneReference(ref string) (zoneType, zoneID string, err error) {
	trimmed := strings.TrimRight(strings.TrimSpace(ref), "/")
	parts := strings.Split(trimmed, "/")
	if len(parts) < 2 {
		return "", "", fmt.Errorf("invalid zone reference %q", ref)
	}
	zoneType, zoneID = parts[len(parts)-2], parts[len(parts)-1]
	if zoneType == "" || zoneID == "" || strings.Contains(zoneType, ":") {
		return "", "", fmt.Errorf("invalid zone reference %q", ref)
	}
	return zoneType, zoneID, nil
}
