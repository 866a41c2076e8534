package pipeline

import (
	"time"

	"github.com/couchcryptid/storm-alert-polygons/internal/domain"
)

// Summary describes the most recent successful run.
type Summary struct {
	ValidAt  time.Time      `json:"valid_at"`
	Alerts   int            `json:"alerts"`
	Dropped  int            `json:"dropped"`
	Polygons int            `json:"polygons"`
	Regions  map[string]int `json:"regions"` // tuple count per populated region
}

func (s *Summary) fill(m domain.AlertMap) {
	s.ValidAt = m.ValidAt
	s.Polygons = len(m.Polygons)
	s.Regions = make(map[string]int, len(m.Regions))
	for _, g := range m.Regions {
		s.Regions[g.Name] = len(g.Tuples)
	}
}
