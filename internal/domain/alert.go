package domain

import (
	"context"
	"encoding/json"
)

// Alert is one active NWS alert as needed for geometry resolution.
type Alert struct {
	ID            string
	Event         string   // event label, e.g. "Tornado Warning"
	Geocode       Geocode  // inline zone references
	AffectedZones []string // zone links, e.g. "https://api.weather.gov/zones/forecast/CAZ041"
}

// Geocode holds the inline zone identifiers attached to an alert.
type Geocode struct {
	SAME []string
	UGC  []string
}

// ZoneGeometry is the geometry member of a zone record from the zone service.
// Coordinates are kept raw so that malformed rings can be rejected one at a
// time instead of failing the whole record.
type ZoneGeometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates,omitempty"`
	Geometries  []ZoneGeometry  `json:"geometries,omitempty"`
}

// ZoneFetcher returns the geometry of a single NWS zone.
type ZoneFetcher interface {
	FetchZone(ctx context.Context, zoneType, zoneID string) (ZoneGeometry, error)
}
