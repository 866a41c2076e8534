package resolve

import (
	"context"
	"strings"

	"github.com/couchcryptid/storm-alert-polygons/internal/domain"
)

// GeocodeJoin resolves an alert by joining its SAME geocodes against the zone
// reference dataset.
type GeocodeJoin struct {
	dataset ZoneDataset
}

// NewGeocodeJoin creates the tier-1 strategy.
func NewGeocodeJoin(dataset ZoneDataset) *GeocodeJoin {
	return &GeocodeJoin{dataset: dataset}
}

func (g *GeocodeJoin) Name() string { return "geocode" }

// Resolve strips the leading subdivision digit of each non-empty SAME code and
// looks the remaining FIPS code up in the dataset. A single miss fails the
// whole strategy so that no partial result leaks into the output.
func (g *GeocodeJoin) Resolve(_ context.Context, alert domain.Alert) Result {
	var polygons []domain.ResolvedPolygon
	for _, code := range alert.Geocode.SAME {
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		key := code[1:]
		stored, ok := g.dataset.Lookup(key)
		if !ok {
			return failure(g.Name(), domain.TierGeocode, ReasonZoneJoin, &ZoneJoinError{Key: key})
		}
		polygons = append(polygons, domain.ResolvedPolygon{
			Geometry: stored.Clone(),
			Tier:     domain.TierGeocode,
			ZoneID:   key,
		})
	}

	if len(polygons) == 0 {
		return failure(g.Name(), domain.TierGeocode, ReasonNoGeocode, errNoGeocode)
	}
	return success(polygons)
}
