// Package publisher pushes status events to external subscribers.
package publisher

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
)

const (
	EventSowingStatus = "sowing_status"
	EventCellSaved    = "cell_saved"
)

// Event is the envelope written to streaming sinks.
type Event struct {
	Name string `json:"event"`
	Data any    `json:"data"`
}

type Publisher interface {
	Emit(ctx context.Context, event string, payload any) error
}

type Nop struct{}

func (Nop) Emit(context.Context, string, any) error { return nil }

// Fanout delivers every event to all sinks. A failing sink does not stop the others.
type Fanout struct {
	sinks []Publisher
	log   zerolog.Logger
}

func NewFanout(log zerolog.Logger, sinks ...Publisher) *Fanout {
	return &Fanout{sinks: sinks, log: log}
}

func (f *Fanout) Add(p Publisher) { f.sinks = append(f.sinks, p) }

func (f *Fanout) Emit(ctx context.Context, event string, payload any) error {
	var errs []error
	for _, s := range f.sinks {
		if err := s.Emit(ctx, event, payload); err != nil {
			f.log.Warn().Err(err).Str("event", event).Msg("publish failed")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
