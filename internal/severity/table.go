package severity

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/storm-alert-polygons/internal/domain"
)

//go:embed vtec.yaml
var defaultTable []byte

// Entry is one hazard headline and its color.
type Entry struct {
	Phensig  string       `yaml:"phensig"` // VTEC phenomenon.significance, e.g. "TO.W"
	Headline string       `yaml:"hdln"`
	Color    domain.Color `yaml:"color"`
}

// Table is an ordered, immutable list of hazard entries. When two entries
// share a headline the first one wins.
type Table struct {
	entries []Entry
}

var errEmptyTable = errors.New("severity table is empty")

// NewTable validates the entries and builds a table.
func NewTable(entries ...Entry) (*Table, error) {
	if len(entries) == 0 {
		return nil, errEmptyTable
	}
	for i, e := range entries {
		if e.Headline == "" {
			return nil, fmt.Errorf("severity entry %d (%s): missing hdln", i, e.Phensig)
		}
		if e.Color == "" {
			return nil, fmt.Errorf("severity entry %d (%s): missing color", i, e.Headline)
		}
	}
	out := make([]Entry, len(entries))
	copy(out, entries)
	return &Table{entries: out}, nil
}

// Len returns the number of entries.
func (t *Table) Len() int { return len(t.entries) }

// Entries returns a copy of the entries in table order.
func (t *Table) Entries() []Entry {
	return append([]Entry(nil), t.entries...)
}

func (t *Table) lookup(headline string) (domain.Color, bool) {
	for _, e := range t.entries {
		if e.Headline == headline {
			return e.Color, true
		}
	}
	return "", false
}

// DefaultTable returns the embedded VTEC hazard table.
func DefaultTable() *Table {
	t, err := ParseTable(defaultTable)
	if err != nil {
		panic(fmt.Sprintf("embedded severity table: %v", err))
	}
	return t
}

// LoadTable reads a severity table from a YAML file.
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read severity table: %w", err)
	}
	return ParseTable(data)
}

// ParseTable decodes a YAML document of the form:
//
//	entries:
//	  - {phensig: TO.W, hdln: Tornado Warning, color: red}
func ParseTable(data []byte) (*Table, error) {
	var doc struct {
		Entries []Entry `yaml:"entries"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse severity table: %w", err)
	}
	return NewTable(doc.Entries...)
}
