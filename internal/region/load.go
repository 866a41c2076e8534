package region

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/storm-alert-polygons/internal/domain"
)

// catalogFile is the YAML layout of a region catalog:
//
//	regions:
//	  - name: ne
//	    extent: [-80, 30, -60, 50]      # min lon, min lat, max lon, max lat
//	    display: [-80, -60, 30, 50]     # optional; west, east, south, north
type catalogFile struct {
	Regions []struct {
		Name    string    `yaml:"name"`
		Extent  []float64 `yaml:"extent"`
		Display []float64 `yaml:"display"`
	} `yaml:"regions"`
}

// LoadCatalog reads a region catalog from a YAML file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read region catalog: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes a YAML region catalog.
func ParseCatalog(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse region catalog: %w", err)
	}

	regions := make([]Region, 0, len(f.Regions))
	for _, rf := range f.Regions {
		if len(rf.Extent) != 4 {
			return nil, fmt.Errorf("region %q: extent needs 4 values, got %d", rf.Name, len(rf.Extent))
		}
		r := New(rf.Name, rf.Extent[0], rf.Extent[1], rf.Extent[2], rf.Extent[3])
		switch len(rf.Display) {
		case 0:
		case 4:
			r.Display = domain.BBox{rf.Display[0], rf.Display[1], rf.Display[2], rf.Display[3]}
		default:
			return nil, fmt.Errorf("region %q: display needs 4 values, got %d", rf.Name, len(rf.Display))
		}
		regions = append(regions, r)
	}
	return NewCatalog(regions...)
}
