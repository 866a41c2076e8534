package domain

import "time"

// ColoredPolygon is a resolved polygon with its alert label and color,
// independent of region membership.
type ColoredPolygon struct {
	Polygon ResolvedPolygon
	Event   string
	Color   Color
}

// ClassifiedTuple is the atomic output unit: one polygon in one region.
type ClassifiedTuple struct {
	Polygon ResolvedPolygon
	Event   string
	Color   Color
	Region  string
}

// LegendEntry is a distinct (event label, color) pair.
type LegendEntry struct {
	Event string `json:"event"`
	Color Color  `json:"color"`
}

// RegionGroup is everything a regional render needs.
type RegionGroup struct {
	Name    string
	Display BBox
	Tuples  []ClassifiedTuple
	Legend  []LegendEntry
}

// AlertMap is the result of one pipeline run.
type AlertMap struct {
	ValidAt  time.Time
	Extent   BBox             // display box of the full-extent map
	Polygons []ColoredPolygon // every resolved polygon, unfiltered
	Regions  []RegionGroup    // regions with at least one tuple, catalog order
}
