// Package accumulate collects classified polygons during a run and groups them
// per region for rendering.
package accumulate

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/couchcryptid/storm-alert-polygons/internal/domain"
)

var (
	ErrEmptyColor    = errors.New("tuple color is empty")
	ErrUnknownRegion = errors.New("unknown region")
)

// Catalog supplies the region order and display boxes for the output.
type Catalog interface {
	Names() []string
	DisplayBoxes() map[string]domain.BBox
}

// Entry is one resolved polygon of an alert together with the regions it
// belongs to.
type Entry struct {
	Polygon domain.ResolvedPolygon
	Event   string
	Color   domain.Color
	Regions []string
}

// Accumulator is an append-only store of classified tuples. It is safe for
// concurrent use.
type Accumulator struct {
	names    []string
	displays map[string]domain.BBox

	mu       sync.Mutex
	tuples   map[string][]domain.ClassifiedTuple
	polygons []domain.ColoredPolygon
}

// New creates an empty Accumulator for the catalog's regions.
func New(catalog Catalog) *Accumulator {
	return &Accumulator{
		names:    catalog.Names(),
		displays: catalog.DisplayBoxes(),
		tuples:   make(map[string][]domain.ClassifiedTuple),
	}
}

// Record appends one tuple per region name. The polygon is also added to the
// full-extent list even when regions is empty. Recording the same polygon
// twice yields duplicate tuples.
func (a *Accumulator) Record(p domain.ResolvedPolygon, event string, color domain.Color, regions []string) error {
	return a.RecordAlert([]Entry{{Polygon: p, Event: event, Color: color, Regions: regions}})
}

// RecordAlert appends every entry of one alert under a single lock so that
// concurrent workers never interleave an alert's tuples. Nothing is recorded
// if any entry is invalid.
func (a *Accumulator) RecordAlert(entries []Entry) error {
	for _, e := range entries {
		if err := a.validate(e); err != nil {
			return err
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	for _, e := range entries {
		a.polygons = append(a.polygons, domain.ColoredPolygon{Polygon: e.Polygon, Event: e.Event, Color: e.Color})
		for _, name := range e.Regions {
			a.tuples[name] = append(a.tuples[name], domain.ClassifiedTuple{
				Polygon: e.Polygon,
				Event:   e.Event,
				Color:   e.Color,
				Region:  name,
			})
		}
	}
	return nil
}

func (a *Accumulator) validate(e Entry) error {
	if e.Color == "" {
		return fmt.Errorf("%w: event %q", ErrEmptyColor, e.Event)
	}
	for _, name := range e.Regions {
		if _, ok := a.displays[name]; !ok {
			return fmt.Errorf("%w %q", ErrUnknownRegion, name)
		}
	}
	return nil
}

// Tuples returns a copy of the tuples recorded for a region, in insertion order.
func (a *Accumulator) Tuples(region string) []domain.ClassifiedTuple {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]domain.ClassifiedTuple(nil), a.tuples[region]...)
}

// Polygons returns a copy of every recorded polygon regardless of region.
func (a *Accumulator) Polygons() []domain.ColoredPolygon {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]domain.ColoredPolygon(nil), a.polygons...)
}

// Finalize groups the recorded tuples by region in catalog order. Regions
// without tuples are left out.
func (a *Accumulator) Finalize(validAt time.Time) domain.AlertMap {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := domain.AlertMap{
		ValidAt:  validAt,
		Extent:   domain.ConusExtent,
		Polygons: append([]domain.ColoredPolygon(nil), a.polygons...),
	}
	for _, name := range a.names {
		tuples := a.tuples[name]
		if len(tuples) == 0 {
			continue
		}
		out.Regions = append(out.Regions, domain.RegionGroup{
			Name:    name,
			Display: a.displays[name],
			Tuples:  append([]domain.ClassifiedTuple(nil), tuples...),
			Legend:  Legend(tuples),
		})
	}
	return out
}

// Legend returns the distinct (event, color) pairs of tuples in order of first
// occurrence.
func Legend(tuples []domain.ClassifiedTuple) []domain.LegendEntry {
	seen := make(map[domain.LegendEntry]struct{}, len(tuples))
	var legend []domain.LegendEntry
	for _, t := range tuples {
		entry := domain.LegendEntry{Event: t.Event, Color: t.Color}
		if _, ok := seen[entry]; ok {
			continue
		}
		seen[entry] = struct{}{}
		legend = append(legend, entry)
	}
	return legend
}
