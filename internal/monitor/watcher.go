package monitor

import (
	"context"

	"github.com/aleister1102/monsterwatch/internal/common"
	"github.com/aleister1102/monsterwatch/internal/models"
	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog"
)

// EventSender delivers events to the dispatcher. Send blocks until the
// event is accepted, ctx is done or the receiver is closed.
type EventSender interface {
	Send(ctx context.Context, ev models.Event) error
}

// Watcher polls one target and emits at most one event per poll.
// Its state is only touched by the goroutine running Run or Poll.
type Watcher struct {
	target  Target
	fetcher ContentFetcher
	masker  *Masker
	bus     EventSender
	delays  *DelayPolicy
	logger  zerolog.Logger

	hasPrevious  bool
	previousHash uint64
	previous     string
	failing      bool
}

// NewWatcher creates a watcher for target. An invalid ignore pattern is
// returned as *common.PatternError.
func NewWatcher(target Target, fetcher ContentFetcher, bus EventSender, logger zerolog.Logger) (*Watcher, error) {
	masker, err := NewMasker(target.Ignore)
	if err != nil {
		return nil, err
	}

	return &Watcher{
		target:  target,
		fetcher: fetcher,
		masker:  masker,
		bus:     bus,
		delays:  NewDelayPolicy(target.Interval, target.Variation, target.Stagger),
		logger:  logger.With().Str("component", "Watcher").Str("url", target.URL).Logger(),
	}, nil
}

// WithDelayPolicy replaces the scheduling policy
func (w *Watcher) WithDelayPolicy(p *DelayPolicy) *Watcher {
	w.delays = p
	return w
}

// URL returns the watched URL
func (w *Watcher) URL() string {
	return w.target.URL
}

// Failing reports whether the last poll failed
func (w *Watcher) Failing() bool {
	return w.failing
}

// Run polls the target until ctx is cancelled, waiting a staggered initial
// delay and a jittered interval between polls. It returns nil on
// cancellation and a *common.FatalBusError when a failure cannot be reported.
func (w *Watcher) Run(ctx context.Context) error {
	delay := w.delays.Initial()
	w.logger.Debug().Dur("initial_delay", delay).Msg("Watcher started")

	for {
		if err := sleepContext(ctx, delay); err != nil {
			w.logger.Debug().Msg("Watcher stopped")
			return nil
		}

		if err := w.Poll(ctx); err != nil {
			if ctx.Err() != nil {
				w.logger.Debug().Msg("Watcher stopped")
				return nil
			}
			return err
		}

		delay = w.delays.Next()
	}
}

// Poll performs a single fetch-compare-emit cycle.
func (w *Watcher) Poll(ctx context.Context) error {
	if !w.hasPrevious {
		w.logger.Info().Msg("Doing initial fetch")
	} else {
		w.logger.Debug().Msg("Checking for changes")
	}

	content, err := w.fetcher.Fetch(ctx, w.target)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return w.onFetchFailure(ctx, err)
	}

	if w.failing {
		w.logger.Info().Msg("Target recovered")
	}
	w.failing = false

	hash := xxhash.Sum64String(w.masker.Mask(content))

	if !w.hasPrevious {
		w.store(content, hash)
		return nil
	}

	var ev models.Event
	if hash == w.previousHash {
		w.logger.Debug().Msg("No changes")
		ev = models.NewNoChangesEvent(w.target.URL)
	} else {
		w.logger.Info().Msg("Found changes")
		ev = models.NewChangedEvent(w.target.URL, w.previous, content)
		w.store(content, hash)
	}

	if err := w.bus.Send(ctx, ev); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return w.reportFailure(ctx, common.WrapErrorf(err, "delivering %s event", ev.Kind()))
	}
	return nil
}

func (w *Watcher) store(content string, hash uint64) {
	w.previous = content
	w.previousHash = hash
	w.hasPrevious = true
}

// onFetchFailure emits a Failed event on the transition into failure only.
func (w *Watcher) onFetchFailure(ctx context.Context, cause error) error {
	if w.failing {
		w.logger.Debug().Err(cause).Msg("Still failing, notification suppressed")
		return nil
	}
	w.logger.Warn().Err(cause).Msg("Fetch failed")
	return w.reportFailure(ctx, cause)
}

// reportFailure sends a Failed event for cause. If the bus cannot take it the
// watcher cannot make progress and both errors are returned together.
func (w *Watcher) reportFailure(ctx context.Context, cause error) error {
	w.failing = true

	status, body := common.StatusAndBody(cause)
	ev := models.NewFailedEvent(w.target.URL, cause.Error(), status, body)

	if err := w.bus.Send(ctx, ev); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &common.FatalBusError{URL: w.target.URL, Cause: cause, DeliveryErr: err}
	}
	return nil
}
