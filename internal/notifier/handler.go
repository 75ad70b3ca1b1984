package notifier

import (
	"context"

	"github.com/aleister1102/monsterwatch/internal/models"
)

// Handler is a notification channel. The dispatcher never calls a handler
// concurrently with itself, but the heartbeat emitter runs independently, so
// implementations guard their own state.
type Handler interface {
	Name() string
	OnStartup(ctx context.Context, ev models.StartupEvent) error
	OnChanged(ctx context.Context, ev models.ChangedEvent) error
	OnFailed(ctx context.Context, ev models.FailedEvent) error
	OnHeartbeat(ctx context.Context, hb models.Heartbeat) error
}
