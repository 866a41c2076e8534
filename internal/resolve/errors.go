package resolve

import (
	"errors"
	"fmt"

	"github.com/couchcryptid/storm-alert-polygons/internal/domain"
)

// Reason classifies why a strategy could not resolve an alert.
type Reason string

const (
	ReasonNoGeocode       Reason = "no_geocode"
	ReasonZoneJoin        Reason = "zone_join"
	ReasonNoAffectedZones Reason = "no_affected_zones"
	ReasonZoneFetch       Reason = "zone_fetch"
	ReasonNoPolygons      Reason = "no_polygons"
)

var (
	errNoGeocode       = errors.New("alert has no usable SAME geocode")
	errNoAffectedZones = errors.New("alert lists no affected zones")
	errNoPolygons      = errors.New("affected zones produced no polygons")
)

// ResolutionError is the typed failure of one strategy for one alert. It
// moves resolution on to the next strategy and is never returned to callers
// of Resolver.Resolve.
type ResolutionError struct {
	Strategy string
	Tier     domain.Tier
	Reason   Reason
	Err      error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Strategy, e.Reason, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// ZoneJoinError reports a geocode key missing from the zone dataset.
type ZoneJoinError struct {
	Key string
}

func (e *ZoneJoinError) Error() string {
	return fmt.Sprintf("zone key %q not in reference dataset", e.Key)
}

// MalformedRingError reports a coordinate ring that could not be turned into
// a polygon. Ring is the zero-based ring index within the zone geometry.
type MalformedRingError struct {
	Ring int
	Err  error
}

func (e *MalformedRingError) Error() string {
	return fmt.Sprintf("ring %d: %v", e.Ring, e.Err)
}

func (e *MalformedRingError) Unwrap() error { return e.Err }
