package publisher

import (
	"context"
	"errors"

	"github.com/fastygo/bizdesk/domain"
	"github.com/fastygo/bizdesk/usecase"
)

// Fanout hands each event to every target in order. Every target is attempted;
// the failures are joined.
type Fanout struct {
	targets []usecase.EventPublisher
}

func NewFanout(targets ...usecase.EventPublisher) *Fanout {
	return &Fanout{targets: targets}
}

func (f *Fanout) Publish(ctx context.Context, evt *domain.Event) error {
	var errs []error
	for _, target := range f.targets {
		if err := target.Publish(ctx, evt); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
