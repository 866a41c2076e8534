// Package region defines the fixed, possibly overlapping geographic regions
// used to split alerts into regional maps.
package region

import (
	"errors"
	"fmt"

	"github.com/twpayne/go-geom"

	"github.com/couchcryptid/storm-alert-polygons/internal/domain"
)

// Region is a named containment extent plus the box used to display it.
type Region struct {
	Name    string
	Extent  *geom.Bounds // containment test only
	Display domain.BBox
}

// New builds a region whose display box matches its extent.
func New(name string, minLon, minLat, maxLon, maxLat float64) Region {
	return Region{
		Name:    name,
		Extent:  geom.NewBounds(geom.XY).Set(minLon, minLat, maxLon, maxLat),
		Display: domain.BBox{minLon, maxLon, minLat, maxLat},
	}
}

// Contains reports whether the polygon lies entirely inside the region extent.
// Empty geometries are never contained.
func (r Region) Contains(p *geom.MultiPolygon) bool {
	if p == nil || p.Empty() {
		return false
	}
	b := p.Bounds()
	return b.Min(0) >= r.Extent.Min(0) && b.Max(0) <= r.Extent.Max(0) &&
		b.Min(1) >= r.Extent.Min(1) && b.Max(1) <= r.Extent.Max(1)
}

// Catalog is an ordered, immutable list of regions.
type Catalog struct {
	regions []Region
}

var (
	errEmptyCatalog  = errors.New("region catalog is empty")
	errInvalidExtent = errors.New("invalid region extent")
)

// NewCatalog validates the regions and returns a catalog in the given order.
func NewCatalog(regions ...Region) (*Catalog, error) {
	if len(regions) == 0 {
		return nil, errEmptyCatalog
	}
	seen := make(map[string]struct{}, len(regions))
	for _, r := range regions {
		if r.Name == "" {
			return nil, errors.New("region name is required")
		}
		if _, dup := seen[r.Name]; dup {
			return nil, fmt.Errorf("duplicate region %q", r.Name)
		}
		seen[r.Name] = struct{}{}
		if r.Extent == nil || r.Extent.IsEmpty() ||
			r.Extent.Min(0) >= r.Extent.Max(0) || r.Extent.Min(1) >= r.Extent.Max(1) {
			return nil, fmt.Errorf("region %q: %w", r.Name, errInvalidExtent)
		}
	}
	out := make([]Region, len(regions))
	copy(out, regions)
	return &Catalog{regions: out}, nil
}

// DefaultCatalog returns the eight CONUS regional maps.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(
		New("ne", -80, 30, -60, 50),      // Northeast
		New("rs", -115, 30, -95, 50),     // Rockies
		New("se", -90, 20, -70, 40),      // Southeast
		New("ov", -95, 25, -75, 45),      // Ohio Valley
		New("um", -100, 30, -80, 50),     // Upper Midwest
		New("weast", -125, 23, -105, 43), // West
		New("nw", -125, 30, -100, 50),    // Northwest
		New("south", -115, 20, -90, 40),  // South
	)
	if err != nil {
		panic(err)
	}
	return c
}

// RegionsContaining returns, in catalog order, the names of every region
// whose extent fully contains p. Each region is tested independently.
func (c *Catalog) RegionsContaining(p *geom.MultiPolygon) []string {
	var names []string
	for _, r := range c.regions {
		if r.Contains(p) {
			names = append(names, r.Name)
		}
	}
	return names
}

// Regions returns a copy of the catalog entries.
func (c *Catalog) Regions() []Region {
	out := make([]Region, len(c.regions))
	copy(out, c.regions)
	return out
}

// Names returns the region names in catalog order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.regions))
	for i, r := range c.regions {
		names[i] = r.Name
	}
	return names
}

// DisplayBoxes maps region name to display box.
func (c *Catalog) DisplayBoxes() map[string]domain.BBox {
	boxes := make(map[string]domain.BBox, len(c.regions))
	for _, r := range c.regions {
		boxes[r.Name] = r.Display
	}
	return boxes
}

// Classifier assigns a resolved polygon to regions. It is invoked once per
// polygon, not once per alert.
type Classifier struct {
	catalog *Catalog
}

// NewClassifier creates a Classifier backed by the catalog.
func NewClassifier(c *Catalog) *Classifier {
	return &Classifier{catalog: c}
}

// Classify returns the names of all regions containing the polygon.
func (c *Classifier) Classify(p domain.ResolvedPolygon) []string {
	return c.catalog.RegionsContaining(p.Geometry)
}
