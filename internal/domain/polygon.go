package domain

import "github.com/twpayne/go-geom"

// Tier identifies which resolution strategy produced a polygon.
type Tier int

const (
	TierGeocode        Tier = 1 // inline SAME geocode joined against the zone dataset
	TierAffectedZone   Tier = 2 // affected zone fetched from the zone service
	TierZoneCollection Tier = 3 // nested geometry collection of an affected zone
)

func (t Tier) String() string {
	switch t {
	case TierGeocode:
		return "geocode"
	case TierAffectedZone:
		return "affected_zone"
	case TierZoneCollection:
		return "zone_collection"
	default:
		return "unknown"
	}
}

// ResolvedPolygon is a concrete shape representing (part of) an alert.
// Geometry is in lon/lat (geom.XY) order and is owned by this value.
type ResolvedPolygon struct {
	Geometry *geom.MultiPolygon
	Tier     Tier
	ZoneID   string // FIPS code or NWS zone id the shape came from
}

// Color is a display color: a matplotlib/CSS color name or "#rrggbb".
type Color string

// BBox is a display bounding box ordered west, east, south, north.
type BBox [4]float64

func (b BBox) West() float64  { return b[0] }
func (b BBox) East() float64  { return b[1] }
func (b BBox) South() float64 { return b[2] }
func (b BBox) North() float64 { return b[3] }

// ConusExtent is the display box of the full-extent (continental U.S.) map.
var ConusExtent = BBox{-130, -60, 24, 50.5}
