package pipeline_test

import (
	"github.com/twpayne/go-geom"

	"github.com/couchcryptid/storm-alert-polygons/internal/domain"
)

// square returns a closed single-ring polygon with its south-west corner at
// (lon, lat).
func square(lon, lat, size float64) *geom.MultiPolygon {
	return geom.NewMultiPolygon(geom.XY).MustSetCoords([][][]geom.Coord{{{
		{lon, lat}, {lon + size, lat}, {lon + size, lat + size}, {lon, lat + size}, {lon, lat},
	}}})
}

func resolved(zoneID string, lon, lat float64) domain.ResolvedPolygon {
	return domain.ResolvedPolygon{Geometry: square(lon, lat, 1), Tier: domain.TierGeocode, ZoneID: zoneID}
}

// sampleAlerts is a small active-alert feed: a tornado warning in western
// Pennsylvania (ne and ov), a flood warning in Houston (south), a rip
// current statement on the Louisiana coast (ov and south), an alert with an
// unknown label, an Alaska warning outside every region and an alert with no
// geometry at all.
func sampleAlerts() []domain.Alert {
	return []domain.Alert{
		{ID: "tor-1", Event: "Tornado Warning", Geocode: domain.Geocode{SAME: []string{"042003"}}},
		{ID: "ffw-1", Event: "Flood Warning", Geocode: domain.Geocode{SAME: []string{"048201"}}},
		{ID: "rip-1", Event: "Rip Current Statement", AffectedZones: []string{"https://api.weather.gov/zones/forecast/LAZ073"}},
		{ID: "odd-1", Event: "Extreme Marmot Advisory"},
		{ID: "ak-1", Event: "Winter Storm Warning", Geocode: domain.Geocode{SAME: []string{"002020"}}},
		{ID: "none-1", Event: "Flood Warning"},
	}
}

func sampleGeometry() map[string][]domain.ResolvedPolygon {
	return map[string][]domain.ResolvedPolygon{
		"tor-1": {resolved("42003", -80, 40)},
		"ffw-1": {resolved("48201", -96, 29), resolved("48201", -96.5, 29.5)},
		"rip-1": {{Geometry: square(-91, 29, 0.5), Tier: domain.TierAffectedZone, ZoneID: "LAZ073"}},
		"ak-1":  {resolved("02020", -150, 61)},
	}
}

var sampleColors = map[string]domain.Color{
	"Tornado Warning":       "red",
	"Flood Warning":         "lime",
	"Rip Current Statement": "aqua",
	"Winter Storm Warning":  "hotpink",
}
