package notifier

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// HeartbeatEmitter periodically pushes a tracker snapshot to every handler.
type HeartbeatEmitter struct {
	tracker  *HeartbeatTracker
	handlers []Handler
	interval time.Duration
	logger   zerolog.Logger

	failures atomic.Int64
}

// NewHeartbeatEmitter creates an emitter. An interval of zero or less disables it.
func NewHeartbeatEmitter(tracker *HeartbeatTracker, handlers []Handler, interval time.Duration, logger zerolog.Logger) *HeartbeatEmitter {
	return &HeartbeatEmitter{
		tracker:  tracker,
		handlers: append([]Handler(nil), handlers...),
		interval: interval,
		logger:   logger.With().Str("component", "HeartbeatEmitter").Logger(),
	}
}

// Run emits a heartbeat on every tick until ctx is cancelled.
func (e *HeartbeatEmitter) Run(ctx context.Context) error {
	if e.interval <= 0 {
		e.logger.Info().Msg("Heartbeat disabled")
		return nil
	}

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	e.logger.Info().Dur("interval", e.interval).Msg("Heartbeat emitter started")
	for {
		select {
		case <-ctx.Done():
			e.logger.Debug().Msg("Heartbeat emitter stopped")
			return nil
		case <-ticker.C:
			e.Emit(ctx)
		}
	}
}

// Emit delivers one snapshot, clearing the tracker's dirty flag.
func (e *HeartbeatEmitter) Emit(ctx context.Context) {
	hb := e.tracker.Collect()
	e.logger.Debug().Int("items", len(hb.Items)).Bool("dirty", hb.Dirty).Msg("Emitting heartbeat")

	for _, h := range e.handlers {
		// each handler gets its own copy
		snapshot := hb.Clone()
		if err := safeInvoke(e.logger, h, "heartbeat", func() error { return h.OnHeartbeat(ctx, snapshot) }); err != nil {
			e.failures.Add(1)
		}
	}
}

// Failures returns the number of failed heartbeat deliveries so far
func (e *HeartbeatEmitter) Failures() int64 {
	return e.failures.Load()
}
