package resolve

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/twpayne/go-geom"

	"github.com/couchcryptid/storm-alert-polygons/internal/domain"
)

var (
	errNoGeometry  = errors.New("zone has no geometry")
	errShortRing   = errors.New("ring needs at least 3 positions")
	errBadPosition = errors.New("position needs longitude and latitude")
)

// decomposer flattens a zone geometry into one polygon per coordinate ring.
// Bad rings are collected in malformed and do not stop the walk.
type decomposer struct {
	zoneID    string
	polygons  []domain.ResolvedPolygon
	malformed []error
	ring      int
}

func (d *decomposer) geometry(g domain.ZoneGeometry, tier domain.Tier) error {
	switch g.Type {
	case "":
		return errNoGeometry
	case "Polygon":
		return d.rings(g.Coordinates, tier)
	case "MultiPolygon":
		var parts []json.RawMessage
		if err := json.Unmarshal(g.Coordinates, &parts); err != nil {
			return fmt.Errorf("decode multipolygon: %w", err)
		}
		for _, part := range parts {
			if err := d.rings(part, tier); err != nil {
				d.malformed = append(d.malformed, &MalformedRingError{Ring: d.ring, Err: err})
				d.ring++
			}
		}
		return nil
	case "GeometryCollection":
		for _, nested := range g.Geometries {
			if err := d.geometry(nested, domain.TierZoneCollection); err != nil {
				d.malformed = append(d.malformed, &MalformedRingError{Ring: d.ring, Err: err})
				d.ring++
			}
		}
		return nil
	default:
		return fmt.Errorf("unsupported geometry type %q", g.Type)
	}
}

// rings decodes a polygon's ring list, emitting each ring as its own polygon.
func (d *decomposer) rings(raw json.RawMessage, tier domain.Tier) error {
	var rings []json.RawMessage
	if err := json.Unmarshal(raw, &rings); err != nil {
		return fmt.Errorf("decode rings: %w", err)
	}
	for _, r := range rings {
		idx := d.ring
		d.ring++

		p, empty, err := ringPolygon(r)
		if err != nil {
			d.malformed = append(d.malformed, &MalformedRingError{Ring: idx, Err: err})
			continue
		}
		if empty {
			continue
		}
		d.polygons = append(d.polygons, domain.ResolvedPolygon{
			Geometry: p,
			Tier:     tier,
			ZoneID:   d.zoneID,
		})
	}
	return nil
}

// ringPolygon builds a single-ring polygon. A null or empty ring reports
// empty and no error.
func ringPolygon(raw json.RawMessage) (*geom.MultiPolygon, bool, error) {
	var positions [][]float64
	if err := json.Unmarshal(raw, &positions); err != nil {
		return nil, false, err
	}
	if len(positions) == 0 {
		return nil, true, nil
	}
	if len(positions) < 3 {
		return nil, false, errShortRing
	}

	flat := make([]float64, 0, 2*len(positions))
	for _, pos := range positions {
		if len(pos) < 2 {
			return nil, false, errBadPosition
		}
		flat = append(flat, pos[0], pos[1])
	}
	return geom.NewMultiPolygonFlat(geom.XY, flat, [][]int{{len(flat)}}), false, nil
}
