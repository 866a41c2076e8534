// Package severity maps NWS event labels to display colors.
package severity

import (
	"errors"
	"fmt"

	"github.com/couchcryptid/storm-alert-polygons/internal/domain"
)

// Fixed colors for statement products that have no VTEC hazard entry.
const (
	StatementColor  domain.Color = "moccasin"
	RipCurrentColor domain.Color = "aqua"
)

// ErrUnknownSeverity matches any UnknownSeverityError via errors.Is.
var ErrUnknownSeverity = errors.New("unknown severity")

// UnknownSeverityError reports an event label with no color assignment.
type UnknownSeverityError struct {
	Label string
}

func (e *UnknownSeverityError) Error() string {
	return fmt.Sprintf("no severity color for event %q", e.Label)
}

func (e *UnknownSeverityError) Is(target error) bool {
	return target == ErrUnknownSeverity
}

// Classifier resolves event labels against the fixed statement colors and a
// hazard table.
type Classifier struct {
	table *Table
}

// NewClassifier creates a Classifier over the given table.
func NewClassifier(t *Table) *Classifier {
	return &Classifier{table: t}
}

// ColorFor returns the display color for an event label. Labels matching no
// statement category and no table headline fail with *UnknownSeverityError.
func (c *Classifier) ColorFor(label string) (domain.Color, error) {
	switch label {
	case "Special Weather Statement", "Marine Weather Statement":
		return StatementColor, nil
	case "Rip Current Statement":
		return RipCurrentColor, nil
	}
	if color, ok := c.table.lookup(label); ok {
		return color, nil
	}
	return "", &UnknownSeverityError{Label: label}
}
