// Command refcheck validates the reference data the polygon service loads at
// startup: the zone shapefile, the severity color table and the region
// catalog. It prints a per-phase report and exits non-zero on any failure.
//
// Usage:
//
//	go run ./cmd/refcheck \
//	  -zones data/c_02jn20.shp \
//	  -id-field FIPS \
//	  -severity config/severity.yaml \
//	  -regions config/regions.yaml
//
// Omitting -severity or -regions checks the built-in defaults.
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"

	"github.com/couchcryptid/storm-alert-polygons/internal/domain"
	"github.com/couchcryptid/storm-alert-polygons/internal/region"
	"github.com/couchcryptid/storm-alert-polygons/internal/severity"
	"github.com/couchcryptid/storm-alert-polygons/internal/zone"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
	notes  []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) notef(format string, args ...any) {
	p.notes = append(p.notes, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	zonesPath := flag.String("zones", "c_02jn20.shp", "zone reference shapefile")
	idField := flag.String("id-field", "FIPS", "attribute holding the zone identifier")
	severityPath := flag.String("severity", "", "severity table YAML (default: built-in table)")
	regionsPath := flag.String("regions", "", "region catalog YAML (default: built-in catalog)")
	flag.Parse()

	os.Exit(run(os.Stdout, *zonesPath, *idField, *severityPath, *regionsPath))
}

func run(w io.Writer, zonesPath, idField, severityPath, regionsPath string) int {
	fmt.Fprintln(w, "=== Reference Data Check ===")
	fmt.Fprintln(w)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	dataset, err := zone.LoadShapefile(zonesPath, idField, logger)
	if err != nil {
		fmt.Fprintf(w, "FATAL: %v\n", err)
		return 1
	}

	table := severity.DefaultTable()
	if severityPath != "" {
		if table, err = severity.LoadTable(severityPath); err != nil {
			fmt.Fprintf(w, "FATAL: %v\n", err)
			return 1
		}
	}

	catalog := region.DefaultCatalog()
	if regionsPath != "" {
		if catalog, err = region.LoadCatalog(regionsPath); err != nil {
			fmt.Fprintf(w, "FATAL: %v\n", err)
			return 1
		}
	}

	phases := []*phase{
		checkZones(dataset),
		checkSeverity(table),
		checkRegions(catalog),
		checkCoverage(dataset, catalog),
	}
	return report(w, phases, dataset.Len(), table.Len(), len(catalog.Names()))
}

func report(w io.Writer, phases []*phase, zones, entries, regions int) int {
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(w, "  %-36s %s\n", p.name, status)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Loaded: %d zones, %d severity entries, %d regions\n", zones, entries, regions)

	for _, p := range phases {
		for _, n := range p.notes {
			fmt.Fprintf(w, "  note: %s\n", n)
		}
		if p.passed() {
			continue
		}
		fmt.Fprintf(w, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(w, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(w, "\nAll checks passed.")
		return 0
	}
	fmt.Fprintln(w, "\nCheck FAILED.")
	return 1
}

// ── Phase 1: Zone dataset ──
// Every zone must carry a non-empty polygon with lon/lat bounds.

func checkZones(d *zone.Dataset) *phase {
	p := &phase{name: "Phase 1: Zone Dataset"}
	for _, id := range d.IDs() {
		poly, _ := d.Lookup(id)
		if poly.Empty() {
			p.errorf("zone %s: empty geometry", id)
			continue
		}
		b := poly.Bounds()
		if b.Min(0) < -180 || b.Max(0) > 180 || b.Min(1) < -90 || b.Max(1) > 90 {
			p.errorf("zone %s: bounds [%.3f %.3f %.3f %.3f] are not lon/lat",
				id, b.Min(0), b.Min(1), b.Max(0), b.Max(1))
		}
	}
	return p
}

// ── Phase 2: Severity table ──
// A headline listed twice with different colors can never reach its second
// color. Hex colors must be #rrggbb.

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

func checkSeverity(t *severity.Table) *phase {
	p := &phase{name: "Phase 2: Severity Table"}
	seen := make(map[string]domain.Color)
	for _, e := range t.Entries() {
		if len(e.Color) > 0 && e.Color[0] == '#' && !hexColor.MatchString(string(e.Color)) {
			p.errorf("%s: invalid hex color %q", e.Headline, e.Color)
		}
		if first, ok := seen[e.Headline]; ok {
			if first != e.Color {
				p.errorf("%s (%s): color %q shadowed by earlier %q", e.Headline, e.Phensig, e.Color, first)
			}
			continue
		}
		seen[e.Headline] = e.Color
	}
	for _, label := range []string{"Special Weather Statement", "Marine Weather Statement", "Rip Current Statement"} {
		if c, ok := seen[label]; ok {
			p.notef("%q table color %q is overridden by the fixed statement color", label, c)
		}
	}
	return p
}

// ── Phase 3: Region catalog ──
// Display boxes must be ordered and overlap the full-extent map.

func checkRegions(c *region.Catalog) *phase {
	p := &phase{name: "Phase 3: Region Catalog"}
	full := domain.ConusExtent
	for _, r := range c.Regions() {
		d := r.Display
		if d.West() >= d.East() || d.South() >= d.North() {
			p.errorf("region %s: display box %v is not west<east, south<north", r.Name, d)
			continue
		}
		if d.East() < full.West() || d.West() > full.East() || d.North() < full.South() || d.South() > full.North() {
			p.errorf("region %s: display box %v lies outside the full extent %v", r.Name, d, full)
		}
	}
	return p
}

// ── Phase 4: Coverage ──
// Reports how many reference zones fall inside at least one region. A catalog
// that contains no zone at all is almost certainly misconfigured.

func checkCoverage(d *zone.Dataset, c *region.Catalog) *phase {
	p := &phase{name: "Phase 4: Region Coverage"}
	perRegion := make(map[string]int)
	covered := 0
	for _, id := range d.IDs() {
		poly, _ := d.Lookup(id)
		names := c.RegionsContaining(poly)
		if len(names) > 0 {
			covered++
		}
		for _, n := range names {
			perRegion[n]++
		}
	}
	if covered == 0 {
		p.errorf("no zone is fully contained by any region")
		return p
	}
	p.notef("%d of %d zones fall inside at least one region", covered, d.Len())
	for _, n := range c.Names() {
		if perRegion[n] == 0 {
			p.notef("region %s contains no reference zone", n)
		}
	}
	return p
}
