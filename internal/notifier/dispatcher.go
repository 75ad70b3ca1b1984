package notifier

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/aleister1102/monsterwatch/internal/common"
	"github.com/aleister1102/monsterwatch/internal/models"
	"github.com/rs/zerolog"
)

// EventSource yields events for the dispatcher
type EventSource interface {
	Receive(ctx context.Context) (models.Event, error)
}

// Dispatcher consumes events one at a time, records them in the heartbeat
// tracker and hands them to every handler in registration order.
type Dispatcher struct {
	source   EventSource
	tracker  *HeartbeatTracker
	handlers []Handler
	logger   zerolog.Logger

	processed atomic.Int64
	failures  atomic.Int64
}

// NewDispatcher creates a dispatcher. The handler slice is copied.
func NewDispatcher(source EventSource, tracker *HeartbeatTracker, handlers []Handler, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		source:   source,
		tracker:  tracker,
		handlers: append([]Handler(nil), handlers...),
		logger:   logger.With().Str("component", "Dispatcher").Logger(),
	}
}

// Run dispatches events until the source is closed or ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.logger.Info().Int("handlers", len(d.handlers)).Msg("Dispatcher started")

	for {
		ev, err := d.source.Receive(ctx)
		if err != nil {
			if errors.Is(err, common.ErrBusClosed) || ctx.Err() != nil {
				d.logger.Info().
					Int64("processed", d.processed.Load()).
					Int64("handler_failures", d.failures.Load()).
					Msg("Dispatcher stopped")
				return nil
			}
			return common.WrapError(err, "receiving event")
		}
		d.Dispatch(ctx, ev)
	}
}

// Dispatch processes a single event. The tracker is updated before any
// handler runs, so handler failures never affect it.
func (d *Dispatcher) Dispatch(ctx context.Context, ev models.Event) {
	d.processed.Add(1)

	switch e := ev.(type) {
	case models.StartupEvent:
		d.logger.Info().Strs("urls", e.URLs).Msg("Started listening")
		d.each(string(e.Kind()), func(h Handler) error { return h.OnStartup(ctx, e) })

	case models.ChangedEvent:
		d.tracker.Update(e.URL, models.UpdateChange)
		d.logger.Info().Str("url", e.URL).Str("event_id", e.ID).Msg("Found changes")
		d.each(string(e.Kind()), func(h Handler) error { return h.OnChanged(ctx, e) })

	case models.NoChangesEvent:
		d.tracker.Update(e.URL, models.UpdateNoChange)
		d.logger.Debug().Str("url", e.URL).Msg("No changes")

	case models.FailedEvent:
		d.tracker.Update(e.URL, models.UpdateFailure)
		d.logger.Error().Str("url", e.URL).Str("event_id", e.ID).Str("reason", e.Reason).Msg("Failed to fetch")
		d.each(string(e.Kind()), func(h Handler) error { return h.OnFailed(ctx, e) })

	default:
		d.logger.Warn().Str("kind", string(ev.Kind())).Msg("Unknown event kind, skipping")
	}
}

func (d *Dispatcher) each(op string, call func(h Handler) error) {
	for _, h := range d.handlers {
		if err := safeInvoke(d.logger, h, op, func() error { return call(h) }); err != nil {
			d.failures.Add(1)
		}
	}
}

// Processed returns the number of events dispatched so far
func (d *Dispatcher) Processed() int64 {
	return d.processed.Load()
}

// Failures returns the number of failed handler calls so far
func (d *Dispatcher) Failures() int64 {
	return d.failures.Load()
}
