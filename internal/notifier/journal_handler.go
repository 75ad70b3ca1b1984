package notifier

import (
	"context"
	"sync"
	"time"

	"github.com/aleister1102/monsterwatch/internal/models"
	"github.com/rs/zerolog"
)

// EventJournal persists events and heartbeat snapshots
type EventJournal interface {
	RecordEvent(ctx context.Context, ev models.Event) error
	RecordHeartbeat(ctx context.Context, hb models.Heartbeat, takenAt time.Time) error
}

// JournalHandler is a channel that writes everything it receives to a journal.
type JournalHandler struct {
	mu      sync.Mutex
	journal EventJournal
	clock   func() time.Time
	logger  zerolog.Logger
}

// NewJournalHandler creates a journal channel. A nil clock uses time.Now.
func NewJournalHandler(journal EventJournal, clock func() time.Time, logger zerolog.Logger) *JournalHandler {
	if clock == nil {
		clock = time.Now
	}
	return &JournalHandler{
		journal: journal,
		clock:   clock,
		logger:  logger.With().Str("component", "JournalHandler").Logger(),
	}
}

func (h *JournalHandler) Name() string { return "journal" }

func (h *JournalHandler) OnStartup(ctx context.Context, ev models.StartupEvent) error {
	return h.record(ctx, ev)
}

func (h *JournalHandler) OnChanged(ctx context.Context, ev models.ChangedEvent) error {
	return h.record(ctx, ev)
}

func (h *JournalHandler) OnFailed(ctx context.Context, ev models.FailedEvent) error {
	return h.record(ctx, ev)
}

// OnHeartbeat stores every snapshot, dirty or not
func (h *JournalHandler) OnHeartbeat(ctx context.Context, hb models.Heartbeat) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.journal.RecordHeartbeat(ctx, hb, h.clock().UTC())
}

func (h *JournalHandler) record(ctx context.Context, ev models.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.journal.RecordEvent(ctx, ev); err != nil {
		return err
	}
	h.logger.Debug().Str("event_id", ev.Meta().ID).Str("kind", string(ev.Kind())).Msg("Event journaled")
	return nil
}
