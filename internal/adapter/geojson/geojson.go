// Package geojson renders an alert map as GeoJSON feature collections, one
// for the full extent and one per region.
package geojson

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/couchcryptid/storm-alert-polygons/internal/domain"
)

// FullExtentName names the document holding every resolved polygon.
const FullExtentName = "conus"

const titleLayout = "03:04 PM"

// Document is a GeoJSON FeatureCollection with the metadata a map renderer
// needs: title, valid time, display box and legend.
type Document struct {
	Type        string               `json:"type"`
	Name        string               `json:"name"`
	Title       string               `json:"title"`
	ValidAt     time.Time            `json:"valid_at"`
	DisplayBBox domain.BBox          `json:"display_bbox"`
	Legend      []domain.LegendEntry `json:"legend,omitempty"`
	Features    []*geojson.Feature   `json:"features"`
}

// Title is the map heading for a run.
func Title(validAt time.Time) string {
	return "Current Advisories Valid: " + validAt.Format(titleLayout)
}

// FullExtent builds the unfiltered document. It has no legend.
func FullExtent(m domain.AlertMap) *Document {
	doc := newDocument(FullExtentName, m.ValidAt, m.Extent)
	for i, p := range m.Polygons {
		doc.Features = append(doc.Features, feature(fmt.Sprintf("%s-%d", FullExtentName, i), p.Polygon, p.Event, p.Color, ""))
	}
	return doc
}

// Region builds the document for one region group.
func Region(g domain.RegionGroup, validAt time.Time) *Document {
	doc := newDocument(g.Name, validAt, g.Display)
	doc.Legend = g.Legend
	for i, t := range g.Tuples {
		doc.Features = append(doc.Features, feature(fmt.Sprintf("%s-%d", g.Name, i), t.Polygon, t.Event, t.Color, t.Region))
	}
	return doc
}

// Documents returns the full-extent document followed by one document per
// region in the map's region order.
func Documents(m domain.AlertMap) []*Document {
	docs := make([]*Document, 0, len(m.Regions)+1)
	docs = append(docs, FullExtent(m))
	for _, g := range m.Regions {
		docs = append(docs, Region(g, m.ValidAt))
	}
	return docs
}

// Encode serializes a document.
func Encode(doc *Document) ([]byte, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode %s geojson: %w", doc.Name, err)
	}
	return data, nil
}

// Decode parses a document produced by Encode.
func Decode(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode geojson: %w", err)
	}
	return &doc, nil
}

func newDocument(name string, validAt time.Time, display domain.BBox) *Document {
	return &Document{
		Type:        "FeatureCollection",
		Name:        name,
		Title:       Title(validAt),
		ValidAt:     validAt,
		DisplayBBox: display,
		Features:    []*geojson.Feature{},
	}
}

func feature(id string, p domain.ResolvedPolygon, event string, color domain.Color, region string) *geojson.Feature {
	props := map[string]any{
		"event":   event,
		"color":   string(color),
		"tier":    p.Tier.String(),
		"zone_id": p.ZoneID,
	}
	if region != "" {
		props["region"] = region
	}
	return &geojson.Feature{
		ID:         id,
		BBox:       p.Geometry.Bounds(),
		Geometry:   p.Geometry,
		Properties: props,
	}
}
