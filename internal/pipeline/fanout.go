package pipeline

import (
	"context"
	"errors"

	"github.com/couchcryptid/storm-alert-polygons/internal/domain"
)

// FanOut publishes to every sink in order. All sinks are attempted even when
// one fails; the errors are joined.
type FanOut []Sink

func (f FanOut) Publish(ctx context.Context, m domain.AlertMap) error {
	var errs []error
	for _, s := range f {
		if err := s.Publish(ctx, m); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
