// Package zone loads the static zone reference dataset: NWS county/zone
// polygons keyed by identifier (FIPS for the county shapefile).
package zone

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/twpayne/go-geom"
)

// ErrEmptyDataset is returned when a reference source yields no polygons.
var ErrEmptyDataset = errors.New("zone dataset is empty")

// Dataset maps zone identifiers to polygons. It is read-only after loading.
type Dataset struct {
	polygons map[string]*geom.MultiPolygon
}

// NewDataset builds a Dataset from an in-memory map.
func NewDataset(polygons map[string]*geom.MultiPolygon) (*Dataset, error) {
	if len(polygons) == 0 {
		return nil, ErrEmptyDataset
	}
	m := make(map[string]*geom.MultiPolygon, len(polygons))
	for id, p := range polygons {
		m[id] = p
	}
	return &Dataset{polygons: m}, nil
}

// Lookup returns the stored polygon for a zone identifier. Callers must not
// mutate the returned geometry.
func (d *Dataset) Lookup(id string) (*geom.MultiPolygon, bool) {
	p, ok := d.polygons[id]
	return p, ok
}

// Len returns the number of zones in the dataset.
func (d *Dataset) Len() int { return len(d.polygons) }

// IDs returns every zone identifier in ascending order.
func (d *Dataset) IDs() []string {
	return slices.Sorted(maps.Keys(d.polygons))
}

// LoadShapefile reads a polygon shapefile and indexes each record by the
// value of idField. When several records share an identifier the first one
// is kept.
func LoadShapefile(path, idField string, logger *slog.Logger) (*Dataset, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open zone shapefile %s: %w", path, err)
	}
	defer func() { _ = reader.Close() }()

	idIdx := -1
	for i, f := range reader.Fields() {
		name := strings.TrimRight(f.String(), "\x00")
		if strings.EqualFold(name, idField) {
			idIdx = i
			break
		}
	}
	if idIdx < 0 {
		return nil, fmt.Errorf("zone shapefile %s: field %q not found", path, idField)
	}

	polygons := make(map[string]*geom.MultiPolygon)
	var skipped, duplicates int
	for reader.Next() {
		_, shape := reader.Shape()
		id := strings.TrimSpace(strings.TrimRight(reader.Attribute(idIdx), "\x00"))
		if id == "" {
			skipped++
			continue
		}
		poly, ok := shape.(*shp.Polygon)
		if !ok {
			skipped++
			continue
		}
		mp := polygonToMultiPolygon(poly)
		if mp == nil {
			skipped++
			continue
		}
		if _, exists := polygons[id]; exists {
			duplicates++
			continue
		}
		polygons[id] = mp
	}
	if err := reader.Err(); err != nil {
		return nil, fmt.Errorf("read zone shapefile %s: %w", path, err)
	}

	if skipped > 0 || duplicates > 0 {
		logger.Debug("zone shapefile records ignored",
			"path", path,
			"skipped", skipped,
			"duplicates", duplicates,
		)
	}

	d, err := NewDataset(polygons)
	if err != nil {
		return nil, fmt.Errorf("zone shapefile %s: %w", path, err)
	}
	return d, nil
}

// polygonToMultiPolygon converts a shapefile Polygon, one polygon per part.
func polygonToMultiPolygon(p *shp.Polygon) *geom.MultiPolygon {
	if p == nil || p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	mp := geom.NewMultiPolygon(geom.XY)
	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		end := int32(len(p.Points))
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		}
		if end <= start {
			continue
		}

		flat := make([]float64, 0, (end-start)*2)
		for j := start; j < end; j++ {
			flat = append(flat, p.Points[j].X, p.Points[j].Y)
		}
		poly := geom.NewPolygonFlat(geom.XY, flat, []int{len(flat)})
		if err := mp.Push(poly); err != nil {
			continue
		}
	}

	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}
